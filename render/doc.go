// Package render delivers rendered Markdown text to an output.
//
// A Sink receives a complete document per call. WriterSink writes it as is,
// TerminalSink styles headings and list items with lipgloss, and HTMLSink
// converts Markdown to HTML with goldmark.
package render

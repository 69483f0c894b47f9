package render

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Sink receives rendered documents.
type Sink interface {
	Render(text string) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(text string) error

// Render implements Sink.
func (f SinkFunc) Render(text string) error { return f(text) }

// MarkdownBlock wraps body in a fenced code block of the given kind,
// e.g. MarkdownBlock("mermaid", chart).
func MarkdownBlock(kind, body string) string {
	return "```" + kind + "\n" + body + "\n```"
}

// WriterSink writes each document followed by a newline.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Render implements Sink.
func (s *WriterSink) Render(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, text)
	return err
}

// Theme holds the styles used by TerminalSink.
type Theme struct {
	Heading lipgloss.Style
	Bullet  lipgloss.Style
	Code    lipgloss.Style
	Text    lipgloss.Style
}

// DefaultTheme returns the default terminal theme.
func DefaultTheme() Theme {
	return Theme{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Bullet:  lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")),
		Code:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		Text:    lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB")),
	}
}

// TerminalOptions configures TerminalSink.
type TerminalOptions struct {
	Theme Theme

	// Clear erases the screen before every document, so repeated progress
	// renders replace each other.
	Clear bool
}

// TerminalSink renders Markdown documents with terminal styling.
type TerminalSink struct {
	mu   sync.Mutex
	w    io.Writer
	opts TerminalOptions
}

// NewTerminalSink creates a terminal sink writing to w.
func NewTerminalSink(w io.Writer, optFns ...func(o *TerminalOptions)) *TerminalSink {
	opts := TerminalOptions{Theme: DefaultTheme()}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TerminalSink{w: w, opts: opts}
}

var (
	boldHeading = regexp.MustCompile(`^\*\*(.+)\*\*:?$`)
	atxHeading  = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	bulletLine  = regexp.MustCompile(`^(\t*)- (.*)$`)
)

// Render implements Sink.
func (s *TerminalSink) Render(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	if s.opts.Clear {
		sb.WriteString("\033[H\033[2J")
	}

	theme := s.opts.Theme
	inFence := false
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "```"):
			inFence = !inFence
			sb.WriteString(theme.Code.Render(line))
		case inFence:
			sb.WriteString(theme.Code.Render(line))
		case boldHeading.MatchString(line):
			sb.WriteString(theme.Heading.Render(line[2:strings.LastIndex(line, "**")]))
		case atxHeading.MatchString(line):
			sb.WriteString(theme.Heading.Render(atxHeading.FindStringSubmatch(line)[1]))
		case bulletLine.MatchString(line):
			m := bulletLine.FindStringSubmatch(line)
			sb.WriteString(strings.Repeat("  ", len(m[1])) + theme.Bullet.Render("•") + " " + theme.Text.Render(m[2]))
		case line == "":
		default:
			sb.WriteString(theme.Text.Render(line))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(s.w, sb.String())
	return err
}

// HTMLSink converts Markdown documents to HTML.
type HTMLSink struct {
	mu sync.Mutex
	w  io.Writer
	md goldmark.Markdown
}

// NewHTMLSink creates an HTML sink writing to w. GitHub-flavoured Markdown
// extensions are enabled.
func NewHTMLSink(w io.Writer) *HTMLSink {
	return &HTMLSink{
		w:  w,
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render implements Sink.
func (s *HTMLSink) Render(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(text), &buf); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := s.w.Write(buf.Bytes())
	return err
}

// Discard is a Sink that drops every document.
var Discard Sink = SinkFunc(func(string) error { return nil })

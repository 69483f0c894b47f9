// Package logging provides a minimal logging interface and adapters for lmflux.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that engines, agents and graphs use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - FluxLogger with contextual helpers and domain events (model calls,
//     tool calls, agent steps, graph runs)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng, err := engine.New(provider, prompt.System(""), func(o *engine.Options) { o.Logger = logger })
package logging

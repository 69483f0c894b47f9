package core

import (
	"context"
	"time"

	"github.com/hupe1980/lmflux/logging"
)

// Session is a per-invocation container carrying a Context. One session is
// created per task graph run and one per mesh graph (recreated on clear).
type Session struct {
	loggerAdapter

	ID      string
	Created time.Time
	context *Context
}

// SessionOptions configures NewSession.
type SessionOptions struct {
	ID      string
	Context *Context
	Logger  logging.Logger
}

// NewSession creates a session with a fresh ID and an empty context unless
// overridden by options. A supplied starting context is cloned.
func NewSession(optFns ...func(o *SessionOptions)) *Session {
	opts := SessionOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ID == "" {
		opts.ID = NewID()
	}
	ctx := NewContext()
	if opts.Context != nil {
		ctx = opts.Context.Clone()
	}
	return &Session{
		loggerAdapter: newLoggerAdapter(opts.Logger),
		ID:            opts.ID,
		Created:       time.Now(),
		context:       ctx,
	}
}

// WithContext starts the session from a clone of c.
func WithContext(c *Context) func(o *SessionOptions) {
	return func(o *SessionOptions) { o.Context = c }
}

// WithLogger sets the session logger.
func WithLogger(l logging.Logger) func(o *SessionOptions) {
	return func(o *SessionOptions) { o.Logger = l }
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) func(o *SessionOptions) {
	return func(o *SessionOptions) { o.ID = id }
}

// Context returns the session context.
func (s *Session) Context() *Context { return s.context }

// Get is shorthand for s.Context().Get.
func (s *Session) Get(key string) (any, bool) { return s.context.Get(key) }

// Set is shorthand for s.Context().Set.
func (s *Session) Set(key string, value any) { s.context.Set(key, value) }

// ContextAsMap returns a copy of the plain context values.
func (s *Session) ContextAsMap() map[string]any { return s.context.Values() }

type sessionKey struct{}

// ContextWithSession returns a copy of ctx carrying s. Agents attach the
// active session before driving the engine so that tools can reach it.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached by ContextWithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

package testutil

import (
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").State("k", "v").Cumulative("log", "a").Build()
type SessionBuilder struct {
	id         string
	state      map[string]any
	cumulative map[string][]any
	logger     logging.Logger
}

// NewSessionBuilder creates a new builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id, state: map[string]any{}, cumulative: map[string][]any{}}
}

// State sets or overwrites a context key/value pair on the resulting session (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Cumulative appends values to a cumulative context key (chainable).
func (b *SessionBuilder) Cumulative(key string, vals ...any) *SessionBuilder {
	b.cumulative[key] = append(b.cumulative[key], vals...)
	return b
}

// Logger sets the session logger (chainable).
func (b *SessionBuilder) Logger(l logging.Logger) *SessionBuilder {
	b.logger = l
	return b
}

// Build returns a *core.Session with a pre-populated context.
func (b *SessionBuilder) Build() *core.Session {
	c := core.NewContextFrom(b.state)
	for k, vals := range b.cumulative {
		for _, v := range vals {
			c.SetCumulative(k, v)
		}
	}

	return core.NewSession(func(o *core.SessionOptions) {
		o.ID = b.id
		o.Context = c
		if b.logger != nil {
			o.Logger = b.logger
		}
	})
}

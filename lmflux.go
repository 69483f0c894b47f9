// Package lmflux is a small façade over agents, sessions and agent memory.
// Most applications interact with it by:
//  1. Creating a Flux via New() (optionally overriding the in-memory stores)
//  2. Registering one or more agents
//  3. Invoking an agent by id within a named session
//
// Graph orchestration lives in graph/task (dependency ordered pipelines) and
// graph/mesh (agents calling agents).
package lmflux

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/memory"
	"github.com/hupe1980/lmflux/session"
	"github.com/hupe1980/lmflux/tool"
)

// ErrUnknownAgent is returned by Invoke for unregistered agent ids.
var ErrUnknownAgent = errors.New("unknown agent")

// Options configures a Flux.
type Options struct {
	// Stores (default to in-memory implementations if not provided)
	Sessions session.Store
	Memory   memory.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Flux aggregates registered agents with the session and memory stores they
// share.
type Flux struct {
	opts Options

	mu     sync.RWMutex
	agents map[string]*agent.Agent
}

// New creates a Flux. Any unset store is initialized in memory.
func New(optFns ...func(o *Options)) *Flux {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewInMemoryStore(func(o *session.Options) { o.Logger = opts.Logger })
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryStore()
	}
	return &Flux{opts: opts, agents: map[string]*agent.Agent{}}
}

// RegisterAgent makes a invocable by its id.
func (f *Flux) RegisterAgent(a *agent.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.agents[a.ID()]; ok {
		return fmt.Errorf("agent %s already registered", a.ID())
	}
	f.agents[a.ID()] = a
	return nil
}

// Agent looks up a registered agent.
func (f *Flux) Agent(id string) (*agent.Agent, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.agents[id]
	return a, ok
}

// Session returns the named session, creating it on first use.
func (f *Flux) Session(id string) *core.Session { return f.opts.Sessions.Get(id) }

// MemoryTools returns remember/recall/forget tools backed by the Flux memory store.
func (f *Flux) MemoryTools() []*tool.Tool { return memory.Tools(f.opts.Memory) }

// Invoke sends text to the agent registered as agentID within the named
// session and returns the final reply.
func (f *Flux) Invoke(ctx context.Context, sessionID, agentID, text string) (core.Message, error) {
	a, ok := f.Agent(agentID)
	if !ok {
		return core.Message{}, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	sess := f.Session(sessionID)
	f.opts.Logger.Info("flux.invoke", "agent", agentID, "session", sessionID)
	return a.Conversate(ctx, core.NewUserMessage(text), sess)
}

// Memory returns the memory store shared by the registered agents.
func (f *Flux) Memory() memory.Store { return f.opts.Memory }

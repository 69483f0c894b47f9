package agent

import (
	"context"
	"errors"
	"fmt"
	"weak"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/engine"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/signature"
	"github.com/hupe1980/lmflux/tool"
)

// Options configures an Agent.
type Options struct {
	// Logger receives agent events. Defaults to logging.NoOpLogger.
	Logger logging.Logger

	// Tools are added to the agent's toolbox.
	Tools []*tool.Tool

	PreAct  ActFunc
	Act     ActFunc
	PostAct ActFunc
}

// WithTools adds tools to the agent.
func WithTools(tools ...*tool.Tool) func(o *Options) {
	return func(o *Options) { o.Tools = append(o.Tools, tools...) }
}

// WithLogger sets the agent logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithPreAct sets the hook run before Act's main step.
func WithPreAct(fn ActFunc) func(o *Options) {
	return func(o *Options) { o.PreAct = fn }
}

// WithActFunc sets Act's main step.
func WithActFunc(fn ActFunc) func(o *Options) {
	return func(o *Options) { o.Act = fn }
}

// WithPostAct sets the hook run after Act's main step.
func WithPostAct(fn ActFunc) func(o *Options) {
	return func(o *Options) { o.PostAct = fn }
}

// Agent is a conversation engine with an identity, a toolbox and callbacks.
// An agent is used from one goroutine at a time.
type Agent struct {
	id      string
	engine  *engine.Engine
	toolbox *tool.Toolbox
	logger  logging.Logger

	toolCallbacks         []ToolCallback
	conversationCallbacks []ConversationCallback

	preAct, act, postAct ActFunc
}

// New creates an agent driving e. The id must be non-empty; graphs use it as
// the agent's name.
func New(id string, e *engine.Engine, optFns ...func(o *Options)) (*Agent, error) {
	if id == "" {
		return nil, errors.New("agent: id is required")
	}
	if e == nil {
		return nil, errors.New("agent: engine is required")
	}

	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	tb, err := tool.NewToolbox(opts.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", id, err)
	}

	return &Agent{
		id:      id,
		engine:  e,
		toolbox: tb,
		logger:  opts.Logger,
		preAct:  opts.PreAct,
		act:     opts.Act,
		postAct: opts.PostAct,
	}, nil
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Engine returns the underlying conversation engine.
func (a *Agent) Engine() *engine.Engine { return a.engine }

// Ref returns a non-owning handle to the agent.
func (a *Agent) Ref() AgentRef {
	return AgentRef{ID: a.id, ptr: weak.Make(a)}
}

// Tools returns the tools currently in the agent's toolbox, in registration order.
func (a *Agent) Tools() []*tool.Tool { return a.toolbox.Tools() }

// AddTools registers tools. Duplicate names are rejected.
func (a *Agent) AddTools(tools ...*tool.Tool) error {
	return a.toolbox.Add(tools...)
}

// RemoveTool removes a tool by name.
func (a *Agent) RemoveTool(name string) bool { return a.toolbox.Remove(name) }

// Conversation returns a snapshot of the agent's conversation.
func (a *Agent) Conversation() core.Conversation { return a.engine.Conversation() }

// ResetState clears the conversation back to the system prompt.
func (a *Agent) ResetState() {
	a.engine.ResetState()
	a.logger.Debug("agent.reset", "agent", a.id)
}

// AddToolCallback appends a typed tool callback.
func (a *Agent) AddToolCallback(cb ToolCallback) {
	if cb != nil {
		a.toolCallbacks = append(a.toolCallbacks, cb)
	}
}

// AddConversationCallback appends a typed conversation callback.
func (a *Agent) AddConversationCallback(cb ConversationCallback) {
	if cb != nil {
		a.conversationCallbacks = append(a.conversationCallbacks, cb)
	}
}

// RegisterToolCallback validates fn against ToolCallbackContract and appends it.
func (a *Agent) RegisterToolCallback(fn any) error {
	cb, err := signature.Adapt[ToolCallback](fn, ToolCallbackContract)
	if err != nil {
		return err
	}
	a.AddToolCallback(cb)
	return nil
}

// RegisterConversationCallback validates fn against ConversationCallbackContract
// and appends it.
func (a *Agent) RegisterConversationCallback(fn any) error {
	cb, err := signature.Adapt[ConversationCallback](fn, ConversationCallbackContract)
	if err != nil {
		return err
	}
	a.AddConversationCallback(cb)
	return nil
}

// Conversate sends msg through the engine and returns the final reply. The
// session is attached to ctx so that tools can reach it via
// core.SessionFromContext, and every callback receives it.
func (a *Agent) Conversate(ctx context.Context, msg core.Message, s *core.Session) (core.Message, error) {
	if s == nil {
		s = core.NewSession()
	}
	ctx = core.ContextWithSession(ctx, s)

	a.engine.SetConversationUpdateCallback(func(conv core.Conversation) {
		for _, cb := range a.conversationCallbacks {
			cb(a, conv, s)
		}
	})
	a.engine.SetTools(a.toolbox.Tools())

	a.logger.Debug("agent.conversate", "agent", a.id, "session", s.ID, "tools", a.toolbox.Len())

	reply, err := a.engine.Chat(ctx, msg, func(req tool.Request, result any) {
		for _, cb := range a.toolCallbacks {
			cb(a, req, result, s)
		}
	})
	if err != nil {
		a.logger.Error("agent.conversate.error", "agent", a.id, "error", err.Error())
		return core.Message{}, fmt.Errorf("agent %s: %w", a.id, err)
	}
	return reply, nil
}

// Ask is Conversate with a user text message.
func (a *Agent) Ask(ctx context.Context, text string, s *core.Session) (string, error) {
	reply, err := a.Conversate(ctx, core.NewUserMessage(text), s)
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// Act runs the pre-act, act and post-act hooks in order. Unset hooks are
// no-ops. A pre-act error skips act; post-act always runs and its error is
// joined with the earlier one.
func (a *Agent) Act(ctx context.Context, s *core.Session) error {
	err := a.runStep(ctx, s, "pre_act", a.preAct)
	if err == nil {
		err = a.runStep(ctx, s, "act", a.act)
	}
	return errors.Join(err, a.runStep(ctx, s, "post_act", a.postAct))
}

func (a *Agent) runStep(ctx context.Context, s *core.Session, name string, fn ActFunc) error {
	if fn == nil {
		return nil
	}
	a.logger.Debug("agent.act", "agent", a.id, "step", name)
	if err := fn(ctx, a, s); err != nil {
		return fmt.Errorf("agent %s %s: %w", a.id, name, err)
	}
	return nil
}

// SetActHooks replaces the act hooks. Nil leaves a hook unset.
func (a *Agent) SetActHooks(pre, act, post ActFunc) {
	a.preAct, a.act, a.postAct = pre, act, post
}

// stepLogger is implemented by logging.FluxLogger.
type stepLogger interface {
	LogAgentStep(agent, step string, messages []string, full bool)
}

// LogStep writes an agent step line to the session logger. With full set,
// all messages are included.
func (a *Agent) LogStep(s *core.Session, step string, messages []core.Message, full bool) {
	logger := a.logger
	if s != nil {
		logger = s.Logger()
	}

	texts := make([]string, len(messages))
	for i, m := range messages {
		texts[i] = m.String()
	}

	if sl, ok := logger.(stepLogger); ok {
		sl.LogAgentStep(a.id, step, texts, full)
		return
	}

	args := []any{"agent", a.id, "step", step, "message_count", len(texts)}
	if full {
		args = append(args, "messages", texts)
	}
	logger.Info("agent.step", args...)
}

// AgentRef is a non-owning handle to an Agent. It does not keep the agent
// alive; Agent returns nil once the agent has been collected.
type AgentRef struct {
	ID  string
	ptr weak.Pointer[Agent]
}

// Agent resolves the handle.
func (r AgentRef) Agent() *Agent { return r.ptr.Value() }

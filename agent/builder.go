package agent

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lmflux/engine"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/signature"
	"github.com/hupe1980/lmflux/tool"
)

// Builder assembles an Agent fluently. Registration errors are collected and
// reported by Build; every callback is validated before any is registered.
//
//	a, err := agent.Define(eng, "researcher").
//	    WithTools(search).
//	    WithToolUpdateCallbacks(onTool).
//	    Build()
type Builder struct {
	id     string
	engine *engine.Engine
	logger logging.Logger

	tools               []*tool.Tool
	conversationUpdates []any
	toolUpdates         []any
	preAct, act, post   any
}

// Define starts building an agent with the given engine and id.
func Define(e *engine.Engine, id string) *Builder {
	return &Builder{id: id, engine: e}
}

// WithTools adds tools.
func (b *Builder) WithTools(tools ...*tool.Tool) *Builder {
	b.tools = append(b.tools, tools...)
	return b
}

// WithLogger sets the agent logger.
func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.logger = l
	return b
}

// WithConversationUpdateCallbacks adds conversation callbacks; each must match
// ConversationCallbackContract.
func (b *Builder) WithConversationUpdateCallbacks(fns ...any) *Builder {
	b.conversationUpdates = append(b.conversationUpdates, fns...)
	return b
}

// WithToolUpdateCallbacks adds tool callbacks; each must match ToolCallbackContract.
func (b *Builder) WithToolUpdateCallbacks(fns ...any) *Builder {
	b.toolUpdates = append(b.toolUpdates, fns...)
	return b
}

// WithPreAct sets the pre-act hook; fn must match ActContract.
func (b *Builder) WithPreAct(fn any) *Builder { b.preAct = fn; return b }

// WithAct sets the act hook; fn must match ActContract.
func (b *Builder) WithAct(fn any) *Builder { b.act = fn; return b }

// WithPostAct sets the post-act hook; fn must match ActContract.
func (b *Builder) WithPostAct(fn any) *Builder { b.post = fn; return b }

// Build validates all callbacks, then creates the agent and registers them.
func (b *Builder) Build() (*Agent, error) {
	var errs []error
	for _, fn := range b.conversationUpdates {
		if err := signature.Check(fn, ConversationCallbackContract); err != nil {
			errs = append(errs, err)
		}
	}
	for _, fn := range b.toolUpdates {
		if err := signature.Check(fn, ToolCallbackContract); err != nil {
			errs = append(errs, err)
		}
	}

	hooks := make([]ActFunc, 3)
	for i, h := range []struct {
		name string
		fn   any
	}{{"pre_act", b.preAct}, {"act", b.act}, {"post_act", b.post}} {
		if h.fn == nil {
			continue
		}
		fn, err := signature.Adapt[ActFunc](h.fn, actContract(h.name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		hooks[i] = fn
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("agent %s: %w", b.id, err)
	}

	a, err := New(b.id, b.engine, func(o *Options) {
		o.Tools = b.tools
		if b.logger != nil {
			o.Logger = b.logger
		}
		o.PreAct, o.Act, o.PostAct = hooks[0], hooks[1], hooks[2]
	})
	if err != nil {
		return nil, err
	}

	for _, fn := range b.conversationUpdates {
		if err := a.RegisterConversationCallback(fn); err != nil {
			return nil, err
		}
	}
	for _, fn := range b.toolUpdates {
		if err := a.RegisterToolCallback(fn); err != nil {
			return nil, err
		}
	}
	return a, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/model"
	"github.com/hupe1980/lmflux/prompt"
	"github.com/hupe1980/lmflux/tool"
)

// ErrMaxToolRounds is returned by Chat when the model keeps requesting tools
// beyond Options.MaxToolRounds.
var ErrMaxToolRounds = errors.New("maximum tool rounds exceeded")

// ToolUseFunc is notified after every tool call the engine processed. result
// is the raw value returned by the tool, or nil when the tool was unknown or
// its arguments were rejected.
type ToolUseFunc func(req tool.Request, result any)

// ConversationUpdateFunc receives a snapshot of the conversation after every
// appended message.
type ConversationUpdateFunc func(conv core.Conversation)

// Options configures an Engine.
type Options struct {
	// Logger receives engine events. Defaults to logging.NoOpLogger.
	Logger logging.Logger

	// LLMOptions are forwarded to the model with every request.
	LLMOptions core.LLMOptions

	// MaxToolRounds bounds the number of consecutive tool-calling rounds per
	// Chat call. Zero means unbounded.
	MaxToolRounds int

	// Vars are passed to the system prompt when it is rendered.
	Vars map[string]any

	// Callbacks observe model and tool calls.
	Callbacks *CallbackManager
}

// Engine drives one conversation with a model. See the package documentation
// for the loop semantics.
type Engine struct {
	model        model.Model
	system       core.Message
	conversation *core.Conversation
	tools        []*tool.Tool
	onUpdate     ConversationUpdateFunc
	rounds       *core.CallLimiter
	opts         Options
}

// New creates an engine for m whose conversation starts with the message
// rendered from systemPrompt. A nil prompt uses prompt.System("").
func New(m model.Model, systemPrompt prompt.Prompt, optFns ...func(o *Options)) (*Engine, error) {
	if m == nil {
		return nil, errors.New("engine: model is required")
	}

	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if systemPrompt == nil {
		systemPrompt = prompt.System("")
	}
	system, err := systemPrompt.Message(opts.Vars)
	if err != nil {
		return nil, fmt.Errorf("engine: render system prompt: %w", err)
	}

	return &Engine{
		model:        m,
		system:       system,
		conversation: core.NewConversation(system),
		rounds:       core.NewCallLimiter(opts.MaxToolRounds),
		opts:         opts,
	}, nil
}

// SetTools replaces the tools offered to the model.
func (e *Engine) SetTools(tools []*tool.Tool) {
	e.tools = append([]*tool.Tool(nil), tools...)
}

// Tools returns the tools currently offered to the model.
func (e *Engine) Tools() []*tool.Tool {
	return append([]*tool.Tool(nil), e.tools...)
}

// SetConversationUpdateCallback installs fn as the single conversation-update
// callback. A nil fn disables notifications.
func (e *Engine) SetConversationUpdateCallback(fn ConversationUpdateFunc) {
	e.onUpdate = fn
}

// Conversation returns a snapshot of the current conversation.
func (e *Engine) Conversation() core.Conversation {
	return e.conversation.Snapshot()
}

// SystemMessage returns the rendered system prompt.
func (e *Engine) SystemMessage() core.Message { return e.system }

// ModelInfo describes the underlying model.
func (e *Engine) ModelInfo() model.Info { return e.model.Info() }

// ResetState discards everything but the system prompt.
func (e *Engine) ResetState() {
	e.conversation = core.NewConversation(e.system)
	e.opts.Logger.Debug("engine.reset", "model", e.model.Info().Name)
}

// Chat appends msg and runs the tool-calling loop until the model answers
// without requesting tools. The final assistant message is returned. A tool
// function error or panic aborts the loop and is returned wrapped.
func (e *Engine) Chat(ctx context.Context, msg core.Message, onToolUse ToolUseFunc) (core.Message, error) {
	logger := e.opts.Logger
	info := e.model.Info()

	logger.Debug("engine.chat.start", "model", info.Name, "role", string(msg.Role), "messages", e.conversation.Len())
	e.append(msg)
	e.rounds.Reset()

	for {
		if err := ctx.Err(); err != nil {
			return core.Message{}, err
		}

		req := model.Request{
			Messages: e.conversation.Messages(),
			Tools:    tool.Definitions(e.tools),
			Options:  e.opts.LLMOptions,
		}
		if err := e.opts.Callbacks.ExecuteCallbacks(ctx, CallbackBeforeModel, &CallbackContext{ModelInfo: info, Request: &req}); err != nil {
			return core.Message{}, err
		}

		start := time.Now()
		resp, err := model.Complete(ctx, e.model, req)
		if ml, ok := logger.(modelCallLogger); ok {
			tokens := 0
			if resp != nil && resp.Usage != nil {
				tokens = resp.Usage.TotalTokens
			}
			ml.LogLLMCall(info.Name, tokens, time.Since(start), err == nil, err)
		}
		if err != nil {
			logger.Error("engine.model.error", "model", info.Name, "error", err.Error())
			_ = e.opts.Callbacks.ExecuteCallbacks(ctx, CallbackOnError, &CallbackContext{ModelInfo: info, Request: &req, Err: err})
			return core.Message{}, err
		}
		if err := e.opts.Callbacks.ExecuteCallbacks(ctx, CallbackAfterModel, &CallbackContext{ModelInfo: info, Request: &req, Response: resp}); err != nil {
			return core.Message{}, err
		}

		reply := resp.Message
		if !reply.HasToolCalls() {
			// A model may hand back a message already in the conversation
			// (EchoModel does); it is not recorded twice.
			if last, ok := e.conversation.Last(); !ok || last.ID != reply.ID {
				e.append(reply)
			}
			logger.Debug("engine.chat.done", "model", info.Name, "messages", e.conversation.Len())
			return reply, nil
		}

		if err := e.rounds.Increment(); err != nil {
			logger.Warn("engine.tool.rounds_exceeded", "model", info.Name, "max", e.opts.MaxToolRounds)
			return core.Message{}, fmt.Errorf("%w: %d", ErrMaxToolRounds, e.opts.MaxToolRounds)
		}

		if err := e.runTools(ctx, info, reply, onToolUse); err != nil {
			return core.Message{}, err
		}
	}
}

// modelCallLogger is implemented by logging.FluxLogger.
type modelCallLogger interface {
	LogLLMCall(model string, tokens int, dur time.Duration, success bool, err error)
}

func (e *Engine) runTools(ctx context.Context, info model.Info, reply core.Message, onToolUse ToolUseFunc) error {
	logger := e.opts.Logger

	for i, call := range reply.ToolCalls {
		content := ""
		if i == 0 {
			content = reply.Content
		}
		callMsg := core.NewAssistantToolCallMessage(content, call)
		if i == 0 {
			callMsg.Reasoning = reply.Reasoning
		}
		e.append(callMsg)

		req := tool.Request{Message: callMsg, Call: call}
		if err := e.opts.Callbacks.ExecuteCallbacks(ctx, CallbackBeforeTool, &CallbackContext{ModelInfo: info, ToolRequest: &req}); err != nil {
			return err
		}

		if !e.hasTool(call.Name) {
			logger.Warn("engine.tool.not_found", "tool", call.Name, "call_id", call.ID)
		} else {
			logger.Info("engine.tool.call", "tool", call.Name, "call_id", call.ID)
		}

		toolMsg, result, err := tool.Invoke(ctx, e.tools, req, func(o *tool.InvokeOptions) {
			o.Logger = logger
		})
		if err != nil {
			_ = e.opts.Callbacks.ExecuteCallbacks(ctx, CallbackOnError, &CallbackContext{ModelInfo: info, ToolRequest: &req, Err: err})
			return fmt.Errorf("tool %s: %w", call.Name, err)
		}
		e.append(toolMsg)

		if err := e.opts.Callbacks.ExecuteCallbacks(ctx, CallbackAfterTool, &CallbackContext{ModelInfo: info, ToolRequest: &req, ToolMessage: &toolMsg}); err != nil {
			return err
		}

		if onToolUse != nil {
			onToolUse(req, result)
		}
	}

	return nil
}

func (e *Engine) hasTool(name string) bool {
	for _, t := range e.tools {
		if t != nil && t.Name() == name {
			return true
		}
	}
	return false
}

func (e *Engine) append(msg core.Message) {
	e.conversation.Append(msg)
	if e.onUpdate != nil {
		e.onUpdate(e.conversation.Snapshot())
	}
}

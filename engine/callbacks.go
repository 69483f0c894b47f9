package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/model"
	"github.com/hupe1980/lmflux/tool"
)

// CallbackType names a point in the tool-calling loop at which callbacks run.
type CallbackType string

const (
	// CallbackBeforeModel runs before every model round.
	CallbackBeforeModel CallbackType = "before_model"

	// CallbackAfterModel runs after every successful model round.
	CallbackAfterModel CallbackType = "after_model"

	// CallbackBeforeTool runs before a requested tool is invoked. Returning an
	// error vetoes the call and aborts Chat.
	CallbackBeforeTool CallbackType = "before_tool"

	// CallbackAfterTool runs once the tool message has been appended.
	CallbackAfterTool CallbackType = "after_tool"

	// CallbackOnError runs when the model round or a tool function fails.
	// Its own error is ignored; Chat returns the original error.
	CallbackOnError CallbackType = "on_error"
)

// CallbackContext is what a callback sees. Fields that do not apply to the
// callback type are nil.
type CallbackContext struct {
	CallbackType CallbackType
	ModelInfo    model.Info

	// Request and Response belong to the model round.
	Request  *model.Request
	Response *model.Response

	// ToolRequest and ToolMessage belong to a single tool call.
	ToolRequest *tool.Request
	ToolMessage *core.Message

	Err error

	// Metadata is free for callbacks to pass values along the chain.
	Metadata map[string]any
}

// Callback hooks into the loop at one CallbackType.
type Callback interface {
	Type() CallbackType
	Execute(ctx context.Context, cc *CallbackContext) error
}

// FunctionCallback adapts a plain function to Callback.
//
//	audit := NewFunctionCallback(CallbackBeforeTool, func(ctx context.Context, cc *CallbackContext) error {
//	    log.Printf("tool %s", cc.ToolRequest.Call.Name)
//	    return nil
//	})
type FunctionCallback struct {
	callbackType CallbackType
	fn           func(ctx context.Context, cc *CallbackContext) error
}

// NewFunctionCallback wraps fn for callbackType.
func NewFunctionCallback(
	callbackType CallbackType,
	fn func(ctx context.Context, cc *CallbackContext) error,
) *FunctionCallback {
	return &FunctionCallback{callbackType: callbackType, fn: fn}
}

// Type implements Callback.
func (c *FunctionCallback) Type() CallbackType { return c.callbackType }

// Execute implements Callback.
func (c *FunctionCallback) Execute(ctx context.Context, cc *CallbackContext) error {
	return c.fn(ctx, cc)
}

// CallbackManager keeps callbacks per type and runs them in registration
// order. The first error stops the chain. Registration is not synchronized;
// register before the engine starts chatting.
type CallbackManager struct {
	callbacks map[CallbackType][]Callback
}

// NewCallbackManager returns an empty manager.
func NewCallbackManager() *CallbackManager {
	return &CallbackManager{callbacks: make(map[CallbackType][]Callback)}
}

// Len returns the number of callbacks registered for callbackType.
func (cm *CallbackManager) Len(callbackType CallbackType) int {
	return len(cm.callbacks[callbackType])
}

// RegisterCallback appends callback under its own type.
func (cm *CallbackManager) RegisterCallback(callback Callback) {
	ct := callback.Type()
	cm.callbacks[ct] = append(cm.callbacks[ct], callback)
}

// ExecuteCallbacks runs the callbacks registered for callbackType. A nil
// manager runs nothing.
func (cm *CallbackManager) ExecuteCallbacks(ctx context.Context, callbackType CallbackType, cc *CallbackContext) error {
	if cm == nil {
		return nil
	}
	cc.CallbackType = callbackType

	for _, cb := range cm.callbacks[callbackType] {
		if err := cb.Execute(ctx, cc); err != nil {
			return err
		}
	}
	return nil
}

// LoggingCallback writes one line per event to a print function, e.g.
//
//	NewLoggingCallback(CallbackBeforeTool, func(s string) { log.Print(s) })
type LoggingCallback struct {
	callbackType CallbackType
	emit         func(line string)
}

// NewLoggingCallback creates a LoggingCallback for callbackType.
func NewLoggingCallback(callbackType CallbackType, emit func(line string)) *LoggingCallback {
	return &LoggingCallback{callbackType: callbackType, emit: emit}
}

// Type implements Callback.
func (c *LoggingCallback) Type() CallbackType { return c.callbackType }

// Execute implements Callback. It never fails.
func (c *LoggingCallback) Execute(_ context.Context, cc *CallbackContext) error {
	if c.emit == nil {
		return nil
	}
	c.emit(describe(cc))
	return nil
}

func describe(cc *CallbackContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] Model: %s", cc.CallbackType, cc.ModelInfo.Name)

	switch {
	case cc.ToolRequest != nil:
		fmt.Fprintf(&sb, ", Tool: %s #%s", cc.ToolRequest.Call.Name, cc.ToolRequest.Call.ID)
	case cc.Request != nil:
		fmt.Fprintf(&sb, ", Messages: %d", len(cc.Request.Messages))
	}
	if cc.Err != nil {
		sb.WriteString(", Error: " + cc.Err.Error())
	}
	return sb.String()
}

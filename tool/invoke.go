package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/logging"
)

// NotFoundContent is the tool message content reported for unknown tool names.
const NotFoundContent = "[ERROR] - Tool not found"

// ErrorPrefix prefixes every inline failure reported to the model.
const ErrorPrefix = "[ERROR] - "

// Request correlates the assistant message that recorded a call with the raw
// provider-side descriptor (id, function name, JSON arguments).
type Request struct {
	Message core.Message
	Call    core.ToolCall
}

// InvokeOptions configures Invoke.
type InvokeOptions struct {
	Logger logging.Logger
}

// Invoke executes the tool named by req among tools and returns the tool-role
// message to append plus the raw result.
//
// Unknown tools, malformed JSON arguments and schema validation failures are
// mistakes the model can correct, so they come back inline as "[ERROR] - ..."
// content with a nil error. Errors returned by the tool function and panics
// are returned as *ToolError; no message is produced for them.
func Invoke(ctx context.Context, tools []*Tool, req Request, optFns ...func(o *InvokeOptions)) (core.Message, any, error) {
	opts := InvokeOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	call := req.Call

	var target *Tool
	for _, t := range tools {
		if t != nil && t.Name() == call.Name {
			target = t
			break
		}
	}
	if target == nil {
		logger.Warn("tool.call.not_found", "tool", call.Name, "call_id", call.ID)
		return core.NewToolMessage(call.ID, call.Name, NotFoundContent), nil, nil
	}

	args, err := decodeArguments(call.Arguments)
	if err != nil {
		logger.Warn("tool.call.invalid_arguments", "tool", call.Name, "call_id", call.ID, "error", err.Error())
		return core.NewToolMessage(call.ID, call.Name, ErrorPrefix+"Invalid arguments: "+err.Error()), nil, nil
	}

	logger.Debug("tool.call.start", "tool", call.Name, "call_id", call.ID)
	start := time.Now()
	result, err := safeCall(ctx, target, args, logger)
	if cl, ok := logger.(callLogger); ok {
		cl.LogToolCall(call.Name, time.Since(start), err == nil, err)
	}
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) && te.Code == CodeValidation {
			logger.Warn("tool.call.invalid_arguments", "tool", call.Name, "call_id", call.ID, "error", te.Message)
			return core.NewToolMessage(call.ID, call.Name, ErrorPrefix+te.Message), nil, nil
		}
		logger.Error("tool.call.error", "tool", call.Name, "call_id", call.ID, "error", err.Error())
		return core.Message{}, nil, err
	}
	logger.Info("tool.call.success", "tool", call.Name, "call_id", call.ID)

	return core.NewToolMessage(call.ID, call.Name, Stringify(result)), result, nil
}

func decodeArguments(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// callLogger and stackLogger are implemented by logging.FluxLogger.
type callLogger interface {
	LogToolCall(tool string, dur time.Duration, success bool, err error)
}

type stackLogger interface {
	ErrorWithStack(err error, msg string, args ...any)
}

func safeCall(ctx context.Context, t *Tool, args map[string]any, logger logging.Logger) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ToolError{Tool: t.Name(), Message: fmt.Sprintf("panic: %v", r), Code: CodePanic}
			if sl, ok := logger.(stackLogger); ok {
				sl.ErrorWithStack(err, "tool.call.panic", "tool", t.Name())
			}
		}
	}()
	return t.Call(ctx, args)
}

// Stringify coerces a tool result to text: strings as-is, fmt.Stringer via
// String, maps/slices/structs JSON encoded, everything else with %v.
func Stringify(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case []byte:
		return string(r)
	case fmt.Stringer:
		return r.String()
	case error:
		return r.Error()
	}
	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", v)
}

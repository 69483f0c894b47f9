package model

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/lmflux/core"
)

// ErrNoResponse is returned by Complete when a model closes its stream
// without emitting a final response.
var ErrNoResponse = errors.New("model returned no final response")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// Request captures the full conversation plus compiled tool schemas.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Options  core.LLMOptions  `json:"options,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. The final chunk
// carries the complete assistant message including requested tool calls.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"` // Indicates if this is a partial response
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "local", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by the conversation engine to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete runs a Generate call to completion and returns the final response.
// Partial chunks are discarded; the first error is returned unchanged.
func Complete(ctx context.Context, m Model, req Request) (*Response, error) {
	respCh, errCh := m.Generate(ctx, req)
	var final *Response
	for respCh != nil || errCh != nil {
		select {
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if final == nil {
		return nil, ErrNoResponse
	}
	return final, nil
}

// EchoModel returns the last conversation message unchanged. It is the
// reference stand-in for tests: the engine recognises the echoed message by ID
// and does not append it twice.
type EchoModel struct {
	info Info
}

// NewEchoModel constructs an EchoModel.
func NewEchoModel(name string) *EchoModel {
	return &EchoModel{info: Info{Name: name, Provider: "echo"}}
}

// Generate implements Model.
func (m *EchoModel) Generate(_ context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	defer close(respCh)
	defer close(errCh)
	if len(req.Messages) == 0 {
		errCh <- errors.New("no messages provided")
		return respCh, errCh
	}
	respCh <- Response{Message: req.Messages[len(req.Messages)-1], FinishReason: "stop"}
	return respCh, errCh
}

// Info implements Model.
func (m *EchoModel) Info() Info { return m.info }

// Step is one scripted model turn: either a message or an error.
type Step struct {
	Message core.Message
	Err     error
}

// Text is shorthand for a scripted final assistant answer.
func Text(content string) Step {
	return Step{Message: core.NewMessage(core.RoleAssistant, content)}
}

// Calls is shorthand for a scripted assistant turn requesting tool calls.
func Calls(calls ...core.ToolCall) Step {
	return Step{Message: core.NewAssistantToolCallMessage("", calls...)}
}

// Fail is shorthand for a scripted provider failure.
func Fail(err error) Step { return Step{Err: err} }

// ScriptedModel replays queued steps in order and records every request it
// receives. When the script is exhausted it answers with Fallback, or with a
// deterministic "Mock response to: <last content>" if Fallback is nil.
type ScriptedModel struct {
	info     Info
	steps    []Step
	requests []Request

	// Fallback produces the answer once the script is exhausted.
	Fallback func(req Request) Step
}

// NewScriptedModel constructs a ScriptedModel with the given steps.
func NewScriptedModel(name string, steps ...Step) *ScriptedModel {
	return &ScriptedModel{
		info:  Info{Name: name, Provider: "scripted", SupportsTools: true},
		steps: steps,
	}
}

// Push appends steps to the script.
func (m *ScriptedModel) Push(steps ...Step) { m.steps = append(m.steps, steps...) }

// Requests returns copies of all recorded requests.
func (m *ScriptedModel) Requests() []Request {
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	defer close(respCh)
	defer close(errCh)

	req.Messages = append([]core.Message(nil), req.Messages...)
	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		errCh <- err
		return respCh, errCh
	}

	var step Step
	switch {
	case len(m.steps) > 0:
		step, m.steps = m.steps[0], m.steps[1:]
	case m.Fallback != nil:
		step = m.Fallback(req)
	default:
		var last string
		if n := len(req.Messages); n > 0 {
			last = req.Messages[n-1].Content
		}
		step = Text("Mock response to: " + strings.TrimSpace(last))
	}

	if step.Err != nil {
		errCh <- step.Err
		return respCh, errCh
	}
	reason := "stop"
	if step.Message.HasToolCalls() {
		reason = "tool_calls"
	}
	respCh <- Response{Message: step.Message, FinishReason: reason}
	return respCh, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

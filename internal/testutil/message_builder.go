package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/hupe1980/lmflux/core"
)

// MessageBuilder provides a fluent helper for constructing messages in tests.
// Example:
//
//	msg := NewMessageBuilder().Assistant("thinking").Call("add", map[string]any{"a": 1}).Build()
//
// Chain only the parts you need; sensible defaults are applied.
type MessageBuilder struct {
	id        string
	role      core.Role
	content   string
	callID    string
	name      string
	toolCalls []core.ToolCall
}

// NewMessageBuilder creates a builder with default role user.
func NewMessageBuilder() *MessageBuilder { return &MessageBuilder{role: core.RoleUser} }

// ID overrides the auto-generated message ID (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// User sets role user and the text content (chainable).
func (b *MessageBuilder) User(t string) *MessageBuilder {
	b.role = core.RoleUser
	b.content = t
	return b
}

// Assistant sets role assistant and the text content (chainable).
func (b *MessageBuilder) Assistant(t string) *MessageBuilder {
	b.role = core.RoleAssistant
	b.content = t
	return b
}

// ToolResult sets role tool with the call id and tool name (chainable).
func (b *MessageBuilder) ToolResult(callID, name, content string) *MessageBuilder {
	b.role = core.RoleTool
	b.callID = callID
	b.name = name
	b.content = content
	return b
}

// Call adds a tool call with JSON-encoded args. The call id is derived from
// the call position ("call-1", "call-2", ...) (chainable).
func (b *MessageBuilder) Call(name string, args map[string]any) *MessageBuilder {
	raw, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	b.role = core.RoleAssistant
	b.toolCalls = append(b.toolCalls, core.ToolCall{
		ID:        fmt.Sprintf("call-%d", len(b.toolCalls)+1),
		Name:      name,
		Arguments: string(raw),
	})
	return b
}

// Build constructs the core.Message value.
func (b *MessageBuilder) Build() core.Message {
	var msg core.Message
	if len(b.toolCalls) > 0 {
		msg = core.NewAssistantToolCallMessage(b.content, b.toolCalls...)
	} else {
		msg = core.NewMessage(b.role, b.content)
	}
	msg.CallID = b.callID
	msg.Name = b.name
	if b.id != "" {
		msg.ID = b.id
	}
	return msg
}

// ToolCall is shorthand for a single tool call descriptor with JSON-encoded args.
func ToolCall(id, name string, args map[string]any) core.ToolCall {
	raw, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return core.ToolCall{ID: id, Name: name, Arguments: string(raw)}
}

package core

import (
	"fmt"
	"strings"
)

// Role tags the author of a Message.
type Role string

const (
	// RoleSystem marks the system prompt.
	RoleSystem Role = "system"
	// RoleUser marks user (or delegating peer agent) input.
	RoleUser Role = "user"
	// RoleAssistant marks model output.
	RoleAssistant Role = "assistant"
	// RoleTool marks the result of a tool invocation.
	RoleTool Role = "tool"
)

// ToolCall is the raw provider-side descriptor of a requested tool invocation.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON encoded
}

// Message is a single conversation entry. Messages are values and carry a
// unique ID generated at construction; two messages are the same message only
// if their IDs match.
type Message struct {
	ID        string     `json:"id"`
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	CallID    string     `json:"call_id,omitempty"`
	Name      string     `json:"name,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Reasoning string     `json:"reasoning,omitempty"`
}

// NewMessage creates a message with a freshly generated ID.
func NewMessage(role Role, content string) Message {
	return Message{ID: NewID(), Role: role, Content: content}
}

// NewUserMessage is shorthand for NewMessage(RoleUser, content).
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewToolMessage creates a tool-role message answering the call identified by callID.
func NewToolMessage(callID, name, content string) Message {
	m := NewMessage(RoleTool, content)
	m.CallID = callID
	m.Name = name
	return m
}

// NewAssistantToolCallMessage records an assistant turn that requested tool calls.
func NewAssistantToolCallMessage(content string, calls ...ToolCall) Message {
	m := NewMessage(RoleAssistant, content)
	m.ToolCalls = append([]ToolCall(nil), calls...)
	return m
}

// HasToolCalls reports whether the message requests any tool invocation.
func (m Message) HasToolCalls() bool { return len(m.ToolCalls) > 0 }

// Dump returns the {role, content} record used for transport and inspection.
func (m Message) Dump() map[string]string {
	return map[string]string{"role": string(m.Role), "content": m.Content}
}

func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", m.Role, m.Content)
	for _, tc := range m.ToolCalls {
		fmt.Fprintf(&b, "\n  -> %s(%s) #%s", tc.Name, tc.Arguments, tc.ID)
	}
	return b.String()
}

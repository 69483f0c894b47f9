package agent

import (
	"context"
	"reflect"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/signature"
	"github.com/hupe1980/lmflux/tool"
)

// ToolCallback is notified after each tool call the agent's engine processed.
// result is nil when the tool was unknown or its arguments were rejected.
type ToolCallback func(a *Agent, call tool.Request, result any, s *core.Session)

// ConversationCallback receives a snapshot of the agent's conversation after
// every appended message.
type ConversationCallback func(a *Agent, conv core.Conversation, s *core.Session)

// ActFunc is an agent step run by Act.
type ActFunc func(ctx context.Context, a *Agent, s *core.Session) error

var (
	agentType   = signature.TypeOf[*Agent]()
	sessionType = signature.TypeOf[*core.Session]()
)

// ToolCallbackContract is the shape accepted by RegisterToolCallback.
var ToolCallbackContract = signature.Contract{
	Name: "Tool Callback",
	Params: []signature.Param{
		{Name: "agent", Type: agentType, Position: 0},
		{Name: "call", Type: signature.TypeOf[tool.Request](), Position: 1},
		{Name: "result", Type: signature.TypeOf[any](), Position: 2},
		{Name: "session", Type: sessionType, Position: 3},
	},
}

// ConversationCallbackContract is the shape accepted by RegisterConversationCallback.
var ConversationCallbackContract = signature.Contract{
	Name: "Conversation Callback",
	Params: []signature.Param{
		{Name: "agent", Type: agentType, Position: 0},
		{Name: "conversation", Type: signature.TypeOf[core.Conversation](), Position: 1},
		{Name: "session", Type: sessionType, Position: 2},
	},
}

// ActContract is the shape accepted for pre-act, act and post-act hooks. The
// hook name is filled in per registration.
var ActContract = signature.Contract{
	Name: "act",
	Params: []signature.Param{
		{Name: "ctx", Type: signature.TypeOf[context.Context](), Position: 0},
		{Name: "agent", Type: agentType, Position: 1},
		{Name: "session", Type: sessionType, Position: 2},
	},
	Returns: []reflect.Type{signature.TypeOf[error]()},
}

func actContract(name string) signature.Contract {
	c := ActContract
	c.Name = name
	return c
}

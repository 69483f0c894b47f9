package engine

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/internal/testutil"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/model"
	"github.com/hupe1980/lmflux/prompt"
	"github.com/hupe1980/lmflux/tool"
)

func addTool() *tool.Tool {
	return tool.MustNew("add", "Adds two integers",
		tool.Object("parameters", tool.Integer("a"), tool.Integer("b")),
		func(_ context.Context, args map[string]any) (any, error) {
			return int(args["a"].(float64) + args["b"].(float64)), nil
		})
}

func TestChat_EchoModelReturnsInputAndRecordsOnce(t *testing.T) {
	e, err := New(model.NewEchoModel("echo"), prompt.System("be brief"))
	require.NoError(t, err)

	reply, err := e.Chat(context.Background(), core.NewUserMessage("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", reply.Content)

	conv := e.Conversation()
	require.Equal(t, 2, conv.Len())
	assert.Equal(t, core.RoleSystem, conv.At(0).Role)
	assert.Equal(t, "be brief", conv.At(0).Content)
	assert.Equal(t, "x", conv.At(1).Content)
}

func TestChat_ToolLoop(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(testutil.ToolCall("c1", "add", map[string]any{"a": 2, "b": 3})),
		model.Text("The answer is 5"),
	)
	e, err := New(m, nil)
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{addTool()})

	var seen []tool.Request
	var results []any
	reply, err := e.Chat(context.Background(), core.NewUserMessage("add 2 and 3"), func(req tool.Request, result any) {
		seen = append(seen, req)
		results = append(results, result)
	})
	require.NoError(t, err)
	assert.Equal(t, "The answer is 5", reply.Content)

	conv := e.Conversation()
	require.Equal(t, 5, conv.Len())
	assert.Equal(t, prompt.DefaultSystemPrompt, conv.At(0).Content)
	assert.Equal(t, core.RoleAssistant, conv.At(2).Role)
	require.Len(t, conv.At(2).ToolCalls, 1)
	assert.Equal(t, "add", conv.At(2).ToolCalls[0].Name)
	assert.Equal(t, core.RoleTool, conv.At(3).Role)
	assert.Equal(t, "c1", conv.At(3).CallID)
	assert.Equal(t, "add", conv.At(3).Name)
	assert.Equal(t, "5", conv.At(3).Content)
	assert.Equal(t, "The answer is 5", conv.At(4).Content)

	require.Len(t, seen, 1)
	assert.Equal(t, "c1", seen[0].Call.ID)
	assert.Equal(t, conv.At(2).ID, seen[0].Message.ID)
	assert.Equal(t, []any{5}, results)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[0].Tools, 1)
	assert.Equal(t, "add", reqs[0].Tools[0].Function.Name)
	assert.Len(t, reqs[1].Messages, 4)
}

func TestChat_MultipleCallsAppendedInOrder(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(
			testutil.ToolCall("c1", "add", map[string]any{"a": 1, "b": 1}),
			testutil.ToolCall("c2", "add", map[string]any{"a": 2, "b": 2}),
		),
		model.Text("done"),
	)
	e, err := New(m, nil)
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{addTool()})

	_, err = e.Chat(context.Background(), core.NewUserMessage("go"), nil)
	require.NoError(t, err)

	conv := e.Conversation()
	var roles []core.Role
	for _, msg := range conv.All() {
		roles = append(roles, msg.Role)
	}
	assert.Equal(t, []core.Role{
		core.RoleSystem, core.RoleUser,
		core.RoleAssistant, core.RoleTool,
		core.RoleAssistant, core.RoleTool,
		core.RoleAssistant,
	}, roles)
	assert.Equal(t, "2", conv.At(3).Content)
	assert.Equal(t, "4", conv.At(5).Content)
}

func TestChat_UnknownToolReportedInline(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(core.ToolCall{ID: "c9", Name: "missing", Arguments: "{}"}),
		model.Text("sorry"),
	)
	e, err := New(m, nil)
	require.NoError(t, err)

	called := 0
	var got any = "sentinel"
	_, err = e.Chat(context.Background(), core.NewUserMessage("hi"), func(_ tool.Request, result any) {
		called++
		got = result
	})
	require.NoError(t, err)

	conv := e.Conversation()
	assert.Equal(t, tool.NotFoundContent, conv.At(3).Content)
	assert.Equal(t, "c9", conv.At(3).CallID)
	assert.Equal(t, 1, called)
	assert.Nil(t, got)
}

func TestChat_ProviderErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	e, err := New(model.NewScriptedModel("scripted", model.Fail(boom)), nil)
	require.NoError(t, err)

	_, err = e.Chat(context.Background(), core.NewUserMessage("hi"), nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 2, e.Conversation().Len())
}

func TestChat_ToolErrorPropagates(t *testing.T) {
	diskOnFire := errors.New("disk on fire")
	flaky := tool.MustNew("flaky", "Always fails", tool.Object("parameters"),
		func(context.Context, map[string]any) (any, error) { return nil, diskOnFire })
	m := model.NewScriptedModel("scripted",
		model.Calls(core.ToolCall{ID: "c1", Name: "flaky", Arguments: "{}"}),
		model.Text("all good"),
	)
	var failures []error
	cm := NewCallbackManager()
	cm.RegisterCallback(NewFunctionCallback(CallbackOnError, func(_ context.Context, cc *CallbackContext) error {
		failures = append(failures, cc.Err)
		return nil
	}))
	e, err := New(m, nil, func(o *Options) { o.Callbacks = cm })
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{flaky})

	called := false
	_, err = e.Chat(context.Background(), core.NewUserMessage("hi"), func(tool.Request, any) { called = true })
	require.ErrorIs(t, err, diskOnFire)
	assert.ErrorContains(t, err, "tool flaky")
	assert.False(t, called)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], diskOnFire)

	last, ok := e.Conversation().Last()
	require.True(t, ok)
	assert.True(t, last.HasToolCalls())
}

func TestChat_MaxToolRounds(t *testing.T) {
	m := model.NewScriptedModel("scripted")
	m.Fallback = func(model.Request) model.Step {
		return model.Calls(core.ToolCall{ID: core.NewID(), Name: "add", Arguments: `{"a":1,"b":1}`})
	}
	e, err := New(m, nil, func(o *Options) { o.MaxToolRounds = 2 })
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{addTool()})

	_, err = e.Chat(context.Background(), core.NewUserMessage("loop"), nil)
	require.ErrorIs(t, err, ErrMaxToolRounds)
	assert.Len(t, m.Requests(), 3)
}

func TestConversationUpdateCallback(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(testutil.ToolCall("c1", "add", map[string]any{"a": 1, "b": 2})),
		model.Text("3"),
	)
	e, err := New(m, nil)
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{addTool()})

	var lengths []int
	e.SetConversationUpdateCallback(func(conv core.Conversation) {
		lengths = append(lengths, conv.Len())
	})

	_, err = e.Chat(context.Background(), core.NewUserMessage("1+2"), nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4, 5}, lengths)
}

func TestResetState(t *testing.T) {
	e, err := New(model.NewScriptedModel("scripted"), prompt.System("sys"))
	require.NoError(t, err)

	_, err = e.Chat(context.Background(), core.NewUserMessage("hello"), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, e.Conversation().Len())

	e.ResetState()
	conv := e.Conversation()
	require.Equal(t, 1, conv.Len())
	assert.Equal(t, "sys", conv.At(0).Content)
	assert.Equal(t, e.SystemMessage().ID, conv.At(0).ID)
}

func TestChat_ForwardsLLMOptions(t *testing.T) {
	m := model.NewScriptedModel("scripted")
	e, err := New(m, nil, func(o *Options) {
		o.LLMOptions = core.LLMOptions{"temperature": 0.5}
	})
	require.NoError(t, err)

	reply, err := e.Chat(context.Background(), core.NewUserMessage("ping"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", reply.Content)
	assert.Equal(t, 0.5, m.Requests()[0].Options["temperature"])
	assert.Equal(t, "scripted", e.ModelInfo().Name)
}

func TestNew_RequiresModel(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestCallbacks_BeforeToolCanVeto(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(testutil.ToolCall("c1", "add", map[string]any{"a": 1, "b": 2})),
	)
	denied := errors.New("denied")

	cm := NewCallbackManager()
	var trail []CallbackType
	for _, ct := range []CallbackType{CallbackBeforeModel, CallbackAfterModel} {
		cm.RegisterCallback(NewFunctionCallback(ct, func(_ context.Context, cc *CallbackContext) error {
			trail = append(trail, cc.CallbackType)
			return nil
		}))
	}
	cm.RegisterCallback(NewFunctionCallback(CallbackBeforeTool, func(_ context.Context, cc *CallbackContext) error {
		trail = append(trail, cc.CallbackType)
		assert.Equal(t, "add", cc.ToolRequest.Call.Name)
		return denied
	}))

	e, err := New(m, nil, func(o *Options) { o.Callbacks = cm })
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{addTool()})

	_, err = e.Chat(context.Background(), core.NewUserMessage("1+2"), nil)
	require.ErrorIs(t, err, denied)
	assert.Equal(t, []CallbackType{CallbackBeforeModel, CallbackAfterModel, CallbackBeforeTool}, trail)
}

func TestLoggingCallback(t *testing.T) {
	var lines []string
	cb := NewLoggingCallback(CallbackOnError, func(s string) { lines = append(lines, s) })

	cm := NewCallbackManager()
	cm.RegisterCallback(cb)
	assert.Equal(t, 1, cm.Len(CallbackOnError))

	e, err := New(model.NewScriptedModel("scripted", model.Fail(errors.New("rate limited"))), nil,
		func(o *Options) { o.Callbacks = cm })
	require.NoError(t, err)

	_, err = e.Chat(context.Background(), core.NewUserMessage("hi"), nil)
	require.Error(t, err)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[on_error] Model: scripted")
	assert.Contains(t, lines[0], "rate limited")
}

func TestChat_FluxLoggerRecordsModelAndToolCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelInfo, Format: "json", Output: &buf})

	m := model.NewScriptedModel("scripted",
		model.Calls(testutil.ToolCall("c1", "add", map[string]any{"a": 1, "b": 2})),
		model.Text("3"),
	)
	e, err := New(m, nil, func(o *Options) { o.Logger = logger })
	require.NoError(t, err)
	e.SetTools([]*tool.Tool{addTool()})

	_, err = e.Chat(context.Background(), core.NewUserMessage("1+2"), nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"LLM call completed"`)
	assert.Contains(t, out, `"model":"scripted"`)
	assert.Contains(t, out, `"msg":"Tool execution completed"`)
	assert.Contains(t, out, `"tool_name":"add"`)
}

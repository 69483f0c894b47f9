package agent

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/engine"
	"github.com/hupe1980/lmflux/internal/testutil"
	"github.com/hupe1980/lmflux/logging"
	"github.com/hupe1980/lmflux/model"
	"github.com/hupe1980/lmflux/signature"
	"github.com/hupe1980/lmflux/tool"
)

// recorder captures callback invocations.
type recorder struct {
	mock.Mock
}

func (r *recorder) onTool(a *Agent, call tool.Request, result any, s *core.Session) {
	r.Called(a.ID(), call.Call.Name, result, s.ID)
}

func (r *recorder) onConversation(a *Agent, conv core.Conversation, s *core.Session) {
	r.Called(a.ID(), conv.Len(), s.ID)
}

func newEngine(t *testing.T, m model.Model) *engine.Engine {
	t.Helper()
	e, err := engine.New(m, nil)
	require.NoError(t, err)
	return e
}

func echoTool() *tool.Tool {
	return tool.MustNew("shout", "Upper-cases the input",
		tool.Object("parameters", tool.String("text")),
		func(_ context.Context, args map[string]any) (any, error) {
			return "LOUD " + args["text"].(string), nil
		})
}

func TestNew_Validation(t *testing.T) {
	_, err := New("", newEngine(t, model.NewEchoModel("echo")))
	require.Error(t, err)

	_, err = New("a", nil)
	require.Error(t, err)

	_, err = New("a", newEngine(t, model.NewEchoModel("echo")), WithTools(echoTool(), echoTool()))
	require.Error(t, err)
}

func TestConversate_EchoModel(t *testing.T) {
	a, err := New("echoer", newEngine(t, model.NewEchoModel("echo")))
	require.NoError(t, err)

	reply, err := a.Conversate(context.Background(), core.NewUserMessage("x"), core.NewSession())
	require.NoError(t, err)
	assert.Equal(t, "x", reply.Content)
	assert.Equal(t, 2, a.Conversation().Len())

	a.ResetState()
	assert.Equal(t, 1, a.Conversation().Len())
}

func TestConversate_FansOutCallbacks(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(testutil.ToolCall("c1", "shout", map[string]any{"text": "hi"})),
		model.Text("done"),
	)
	a, err := New("caller", newEngine(t, m), WithTools(echoTool()))
	require.NoError(t, err)

	sess := testutil.NewSessionBuilder("sess-1").Build()
	rec := &recorder{}
	rec.On("onTool", "caller", "shout", "LOUD hi", "sess-1").Once()
	rec.On("onConversation", "caller", mock.AnythingOfType("int"), "sess-1").Times(4)

	require.NoError(t, a.RegisterToolCallback(rec.onTool))
	require.NoError(t, a.RegisterConversationCallback(rec.onConversation))

	reply, err := a.Ask(context.Background(), "say hi", sess)
	require.NoError(t, err)
	assert.Equal(t, "done", reply)
	rec.AssertExpectations(t)
}

func TestConversate_ToolsSeeSession(t *testing.T) {
	m := model.NewScriptedModel("scripted",
		model.Calls(testutil.ToolCall("c1", "set_state", map[string]any{"key": "color", "value": "blue"})),
		model.Text("ok"),
	)
	a, err := New("stateful", newEngine(t, m), WithTools(tool.StateTools()...))
	require.NoError(t, err)

	sess := core.NewSession()
	_, err = a.Ask(context.Background(), "remember blue", sess)
	require.NoError(t, err)

	v, ok := sess.Get("color")
	require.True(t, ok)
	assert.Equal(t, "blue", v)
}

func TestConversate_WrapsModelError(t *testing.T) {
	boom := errors.New("boom")
	a, err := New("failing", newEngine(t, model.NewScriptedModel("scripted", model.Fail(boom))))
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), "hi", nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "agent failing")
}

func TestRegisterCallbacks_RejectMismatch(t *testing.T) {
	a, err := New("a", newEngine(t, model.NewEchoModel("echo")))
	require.NoError(t, err)

	err = a.RegisterToolCallback(func(a *Agent, s *core.Session) {})
	require.Error(t, err)
	var ce *signature.ContractError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "Tool Callback must be defined as func(agent *agent.Agent, call tool.Request, result any, session *core.Session)")

	err = a.RegisterConversationCallback(func(s *core.Session, a *Agent, c core.Conversation) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Conversation Callback must be defined as")

	err = a.RegisterToolCallback(func(ag *Agent, call string, result any, s *core.Session) {})
	assert.ErrorContains(t, err, "Tool Callback must be defined as")

	err = a.RegisterToolCallback(func(ag *Agent, call tool.Request, result string, s *core.Session) {})
	assert.ErrorContains(t, err, "Tool Callback must be defined as")

	require.NoError(t, a.RegisterToolCallback(func(ag *Agent, call tool.Request, result any, s *core.Session) {}))
}

func TestAct_RunsHooksInOrder(t *testing.T) {
	var trail []string
	step := func(name string) ActFunc {
		return func(_ context.Context, _ *Agent, _ *core.Session) error {
			trail = append(trail, name)
			return nil
		}
	}
	a, err := New("actor", newEngine(t, model.NewEchoModel("echo")),
		WithPreAct(step("pre")), WithActFunc(step("act")), WithPostAct(step("post")))
	require.NoError(t, err)

	require.NoError(t, a.Act(context.Background(), core.NewSession()))
	assert.Equal(t, []string{"pre", "act", "post"}, trail)
}

func TestAct_PostActRunsAfterFailure(t *testing.T) {
	nope := errors.New("nope")
	var trail []string
	a, err := New("actor", newEngine(t, model.NewEchoModel("echo")),
		WithPreAct(func(context.Context, *Agent, *core.Session) error { trail = append(trail, "pre"); return nil }),
		WithActFunc(func(context.Context, *Agent, *core.Session) error { trail = append(trail, "act"); return nope }),
		WithPostAct(func(context.Context, *Agent, *core.Session) error { trail = append(trail, "post"); return nil }))
	require.NoError(t, err)

	err = a.Act(context.Background(), core.NewSession())
	require.ErrorIs(t, err, nope)
	assert.Contains(t, err.Error(), "agent actor act")
	assert.Equal(t, []string{"pre", "act", "post"}, trail)

	empty, err := New("idle", newEngine(t, model.NewEchoModel("echo")))
	require.NoError(t, err)
	assert.NoError(t, empty.Act(context.Background(), core.NewSession()))
}

func TestAct_PreActFailureSkipsActAndJoinsPostAct(t *testing.T) {
	early, late := errors.New("early"), errors.New("late")
	actRan := false
	a, err := New("actor", newEngine(t, model.NewEchoModel("echo")),
		WithPreAct(func(context.Context, *Agent, *core.Session) error { return early }),
		WithActFunc(func(context.Context, *Agent, *core.Session) error { actRan = true; return nil }),
		WithPostAct(func(context.Context, *Agent, *core.Session) error { return late }))
	require.NoError(t, err)

	err = a.Act(context.Background(), core.NewSession())
	require.ErrorIs(t, err, early)
	require.ErrorIs(t, err, late)
	assert.False(t, actRan)
}

func TestBuilder(t *testing.T) {
	m := model.NewScriptedModel("scripted")
	var convCalls int
	var acted bool

	a, err := Define(newEngine(t, m), "built").
		WithTools(echoTool()).
		WithConversationUpdateCallbacks(func(a *Agent, c core.Conversation, s *core.Session) { convCalls++ }).
		WithToolUpdateCallbacks(func(a *Agent, call tool.Request, result any, s *core.Session) {}).
		WithAct(func(ctx context.Context, a *Agent, s *core.Session) error {
			_, err := a.Ask(ctx, "hello", s)
			acted = true
			return err
		}).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "built", a.ID())
	require.Len(t, a.Tools(), 1)

	require.NoError(t, a.Act(context.Background(), core.NewSession()))
	assert.True(t, acted)
	assert.Equal(t, 2, convCalls)
}

func TestBuilder_ValidatesBeforeRegistering(t *testing.T) {
	_, err := Define(newEngine(t, model.NewEchoModel("echo")), "bad").
		WithToolUpdateCallbacks(func(a *Agent, call tool.Request, result any, s *core.Session) {}).
		WithToolUpdateCallbacks(func(x int) {}).
		WithAct(func(a *Agent) error { return nil }).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Tool Callback must be defined as")
	assert.Contains(t, err.Error(), "act must be defined as func(ctx context.Context, agent *agent.Agent, session *core.Session) error")
}

func TestAgentRef(t *testing.T) {
	a, err := New("ref", newEngine(t, model.NewEchoModel("echo")))
	require.NoError(t, err)

	ref := a.Ref()
	assert.Equal(t, "ref", ref.ID)
	assert.Same(t, a, ref.Agent())
	runtime.KeepAlive(a)
}

func TestLogStep_FallsBackToPlainLogger(t *testing.T) {
	a, err := New("logger", newEngine(t, model.NewEchoModel("echo")))
	require.NoError(t, err)

	sess := core.NewSession(core.WithLogger(logging.NoOpLogger{}))
	assert.NotPanics(t, func() {
		a.LogStep(sess, "thinking", []core.Message{core.NewUserMessage("x")}, true)
	})
}

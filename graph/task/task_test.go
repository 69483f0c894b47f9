package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/engine"
	"github.com/hupe1980/lmflux/model"
)

func recordTask(name string, trail *[]string) *TransformerTask {
	return NewTransformer(name, func(_ context.Context, s *core.Session) error {
		*trail = append(*trail, name)
		s.Context().SetCumulative("trail", name)
		return nil
	})
}

func TestRun_TopologicalOrder(t *testing.T) {
	var trail []string
	a, b, c, d := recordTask("a", &trail), recordTask("b", &trail), recordTask("c", &trail), recordTask("d", &trail)

	g := New()
	require.NoError(t, g.Connect(c, d))
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, c))

	sess, err := g.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, trail)
	assert.Equal(t, []any{"a", "b", "c", "d"}, sess.Context().GetCumulative("trail"))
}

func TestOrder_TiesBrokenByInsertion(t *testing.T) {
	var trail []string
	g := New()
	for _, name := range []string{"x", "y", "z"} {
		_, err := g.Add(recordTask(name, &trail))
		require.NoError(t, err)
	}

	order, err := g.Order()
	require.NoError(t, err)
	names := make([]string, len(order))
	for i, task := range order {
		names[i] = task.Name()
	}
	assert.Equal(t, []string{"x", "y", "z"}, names)
}

func TestRun_CycleRunsNothing(t *testing.T) {
	var trail []string
	a, b := recordTask("a", &trail), recordTask("b", &trail)

	g := New()
	require.NoError(t, g.Connect(a, b))
	require.NoError(t, g.Connect(b, a))

	_, err := g.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrCycle)
	assert.Contains(t, err.Error(), "task graph contains a cycle and cannot be executed (tasks: ")

	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.ElementsMatch(t, []string{"a", "b"}, ce.Tasks)
	assert.Empty(t, trail)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	var trail []string
	boom := errors.New("boom")
	failing := NewTransformer("fail", func(context.Context, *core.Session) error { return boom })

	g := New()
	require.NoError(t, g.Chain(recordTask("first", &trail), failing, recordTask("last", &trail)))

	sess, err := g.Run(context.Background(), nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task fail")
	assert.NotNil(t, sess)
	assert.Equal(t, []string{"first"}, trail)
}

func TestRun_StartingContextIsCloned(t *testing.T) {
	start := core.NewContextFrom(map[string]any{"n": 1})
	inc := NewTransformer("inc", func(_ context.Context, s *core.Session) error {
		v, _ := s.Get("n")
		s.Set("n", v.(int)+1)
		return nil
	})

	g := New()
	_, err := g.Add(inc)
	require.NoError(t, err)

	sess, err := g.Run(context.Background(), start)
	require.NoError(t, err)
	v, _ := sess.Get("n")
	assert.Equal(t, 2, v)

	orig, _ := start.Get("n")
	assert.Equal(t, 1, orig)
}

type phased struct {
	trail *[]string
}

func (p phased) Name() string { return "phased" }
func (p phased) PreRun(context.Context, *core.Session) error {
	*p.trail = append(*p.trail, "pre")
	return nil
}
func (p phased) Run(context.Context, *core.Session) error {
	*p.trail = append(*p.trail, "run")
	return nil
}
func (p phased) PostRun(context.Context, *core.Session) error {
	*p.trail = append(*p.trail, "post")
	return nil
}

func TestExecute_PhaseOrder(t *testing.T) {
	var trail []string
	require.NoError(t, Execute(context.Background(), phased{&trail}, core.NewSession()))
	assert.Equal(t, []string{"pre", "run", "post"}, trail)
}

func TestTransformer_Contract(t *testing.T) {
	tt, err := Transformer("ok", func(ctx context.Context, s *core.Session) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", tt.Name())

	_, err = Transformer("bad", func(s *core.Session) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run must be defined as func(ctx context.Context, session *core.Session) error")
}

func summarize(ctx context.Context, s *core.Session) error { return nil }

func TestTransformer_DefaultName(t *testing.T) {
	tt, err := Transformer("", summarize)
	require.NoError(t, err)
	assert.Equal(t, "summarize", tt.Name())
}

func TestAgentic(t *testing.T) {
	e, err := engine.New(model.NewEchoModel("echo"), nil)
	require.NoError(t, err)
	a, err := agent.New("echoer", e)
	require.NoError(t, err)

	at, err := Agentic("ask", a, func(ctx context.Context, a *agent.Agent, s *core.Session) error {
		reply, err := a.Ask(ctx, "ping", s)
		s.Set("reply", reply)
		return err
	})
	require.NoError(t, err)
	assert.Same(t, a, at.Agent())

	_, err = Agentic("bad", a, func(a *agent.Agent, s *core.Session) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be defined as")

	g := New()
	require.NoError(t, g.Chain(at, FromAgent(a)))

	sess, err := g.Run(context.Background(), nil)
	require.NoError(t, err)
	reply, _ := sess.Get("reply")
	assert.Equal(t, "ping", reply)
}

func TestLoop(t *testing.T) {
	count := 0
	body := New()
	_, err := body.Add(NewTransformer("tick", func(_ context.Context, s *core.Session) error {
		count++
		s.Set("count", count)
		return nil
	}))
	require.NoError(t, err)

	loop := NewLoop("ticker", body, func(o *LoopOptions) {
		o.MaxIters = 10
		o.Until = func(s *core.Session) bool {
			v, _ := s.Get("count")
			return v.(int) >= 3
		}
	})

	g := New()
	require.NoError(t, g.Chain(loop))
	_, err = g.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLoop_Escalation(t *testing.T) {
	count := 0
	body := New()
	_, err := body.Add(NewTransformer("step", func(context.Context, *core.Session) error {
		count++
		if count == 2 {
			return fmt.Errorf("done: %w", ErrEscalated)
		}
		return nil
	}))
	require.NoError(t, err)

	g := New()
	require.NoError(t, g.Chain(NewLoop("until-escalated", body)))
	_, err = g.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLoop_ContinueOnError(t *testing.T) {
	count := 0
	body := New()
	_, err := body.Add(NewTransformer("flaky", func(context.Context, *core.Session) error {
		count++
		return errors.New("flaky")
	}))
	require.NoError(t, err)

	g := New()
	require.NoError(t, g.Chain(NewLoop("retry", body, func(o *LoopOptions) {
		o.MaxIters = 3
		o.StopOnError = false
	})))
	_, err = g.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMermaid_IncludesLoopSubgraph(t *testing.T) {
	var trail []string
	body := New()
	_, err := body.Add(recordTask("inner", &trail))
	require.NoError(t, err)

	g := New()
	require.NoError(t, g.Chain(recordTask("outer", &trail), NewLoop("again", body)))

	out := g.Mermaid()
	assert.True(t, strings.HasPrefix(out, "graph TB"))
	assert.Contains(t, out, "(outer)")
	assert.Contains(t, out, "[\"again\"]")
	assert.Contains(t, out, "    ")
	assert.Contains(t, out, "--repeat-->")
	assert.Equal(t, 1, strings.Count(out, "(inner)"))
}

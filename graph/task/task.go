package task

import (
	"context"
	"reflect"
	"runtime"
	"strings"

	"github.com/hupe1980/lmflux/agent"
	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/signature"
)

// Runnable is the three-phase execution contract of a task.
type Runnable interface {
	PreRun(ctx context.Context, s *core.Session) error
	Run(ctx context.Context, s *core.Session) error
	PostRun(ctx context.Context, s *core.Session) error
}

// Task is a named Runnable. Names identify tasks within a graph.
type Task interface {
	Runnable
	Name() string
}

// Func is the body of a TransformerTask.
type Func func(ctx context.Context, s *core.Session) error

// TransformerContract is the shape accepted by Transformer.
var TransformerContract = signature.Contract{
	Name: "run",
	Params: []signature.Param{
		{Name: "ctx", Type: signature.TypeOf[context.Context](), Position: 0},
		{Name: "session", Type: signature.TypeOf[*core.Session](), Position: 1},
	},
	Returns: []reflect.Type{signature.TypeOf[error]()},
}

// AgenticContract is the shape accepted by Agentic. It equals agent.ActContract.
var AgenticContract = func() signature.Contract {
	c := agent.ActContract
	c.Name = "run"
	return c
}()

// TransformerTask runs a function over the session.
type TransformerTask struct {
	name string
	fn   Func
}

// NewTransformer creates a TransformerTask from a typed function.
func NewTransformer(name string, fn Func) *TransformerTask {
	return &TransformerTask{name: nameOr(name, fn), fn: fn}
}

// Transformer validates fn against TransformerContract and wraps it. An empty
// name falls back to the function's name.
func Transformer(name string, fn any) (*TransformerTask, error) {
	typed, err := signature.Adapt[Func](fn, TransformerContract)
	if err != nil {
		return nil, err
	}
	return &TransformerTask{name: nameOr(name, fn), fn: typed}, nil
}

func (t *TransformerTask) Name() string { return t.name }

func (t *TransformerTask) PreRun(context.Context, *core.Session) error { return nil }

func (t *TransformerTask) Run(ctx context.Context, s *core.Session) error { return t.fn(ctx, s) }

func (t *TransformerTask) PostRun(context.Context, *core.Session) error { return nil }

// AgenticTask runs a function that drives an agent.
type AgenticTask struct {
	name  string
	agent *agent.Agent
	fn    agent.ActFunc
}

// NewAgentic creates an AgenticTask from a typed function.
func NewAgentic(name string, a *agent.Agent, fn agent.ActFunc) *AgenticTask {
	return &AgenticTask{name: nameOr(name, fn), agent: a, fn: fn}
}

// Agentic validates fn against AgenticContract and binds it to a. An empty
// name falls back to the function's name.
func Agentic(name string, a *agent.Agent, fn any) (*AgenticTask, error) {
	typed, err := signature.Adapt[agent.ActFunc](fn, AgenticContract)
	if err != nil {
		return nil, err
	}
	return &AgenticTask{name: nameOr(name, fn), agent: a, fn: typed}, nil
}

// FromAgent creates an AgenticTask that runs the agent's own Act hooks.
func FromAgent(a *agent.Agent) *AgenticTask {
	return &AgenticTask{
		name:  a.ID(),
		agent: a,
		fn: func(ctx context.Context, bound *agent.Agent, s *core.Session) error {
			return bound.Act(ctx, s)
		},
	}
}

func (t *AgenticTask) Name() string { return t.name }

// Agent returns the bound agent.
func (t *AgenticTask) Agent() *agent.Agent { return t.agent }

func (t *AgenticTask) PreRun(context.Context, *core.Session) error { return nil }

func (t *AgenticTask) Run(ctx context.Context, s *core.Session) error { return t.fn(ctx, t.agent, s) }

func (t *AgenticTask) PostRun(context.Context, *core.Session) error { return nil }

func nameOr(name string, fn any) string {
	if name != "" {
		return name
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	full := runtime.FuncForPC(v.Pointer()).Name()
	if i := strings.LastIndex(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return full
}

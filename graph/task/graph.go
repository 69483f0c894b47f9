package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/lmflux/core"
	"github.com/hupe1980/lmflux/graph"
	"github.com/hupe1980/lmflux/logging"
)

// ErrCycle is matched by errors.Is for every *CycleError.
var ErrCycle = errors.New("task graph contains a cycle and cannot be executed")

// CycleError lists the tasks that could not be ordered.
type CycleError struct {
	Tasks []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s (tasks: %s)", ErrCycle.Error(), strings.Join(e.Tasks, ", "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// Options configures a Graph.
type Options struct {
	// Name labels the graph in logs.
	Name string

	// Logger receives task events and is handed to the run session.
	Logger logging.Logger
}

// Graph is a dependency graph of tasks.
type Graph struct {
	name   string
	g      *graph.Graph
	logger logging.Logger
}

// New creates an empty task graph.
func New(optFns ...func(o *Options)) *Graph {
	opts := Options{Name: "tasks", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Graph{
		name:   opts.Name,
		g:      graph.New(graph.WithBoundaryLabels("start", "end")),
		logger: opts.Logger,
	}
}

// Graph exposes the underlying node graph.
func (tg *Graph) Graph() *graph.Graph { return tg.g }

// Add inserts t unless a task with the same name is already present, and
// returns its node.
func (tg *Graph) Add(t Task) (*graph.Node, error) {
	if t == nil || t.Name() == "" {
		return nil, errors.New("task: task must have a name")
	}
	if n, ok := tg.g.FindByName(t.Name()); ok {
		return n, nil
	}

	n := graph.NewLeaf(t.Name(), t)
	if l, ok := t.(*Loop); ok {
		n.Kind = graph.Group
		n.Sub = l.body.g
	}
	if err := tg.g.AddNode(n); err != nil {
		return nil, err
	}
	return n, nil
}

// Connect makes b run after a, adding either task if it is not yet present.
func (tg *Graph) Connect(a, b Task) error {
	na, err := tg.Add(a)
	if err != nil {
		return err
	}
	nb, err := tg.Add(b)
	if err != nil {
		return err
	}
	return tg.g.AddEdge(na.ID, nb.ID)
}

// Chain connects tasks in sequence.
func (tg *Graph) Chain(tasks ...Task) error {
	if len(tasks) == 1 {
		_, err := tg.Add(tasks[0])
		return err
	}
	for i := 1; i < len(tasks); i++ {
		if err := tg.Connect(tasks[i-1], tasks[i]); err != nil {
			return err
		}
	}
	return nil
}

// Order returns the tasks in topological order. Ties are broken by insertion
// order. A cyclic graph yields a *CycleError.
func (tg *Graph) Order() ([]Task, error) {
	nodes := tg.g.Nodes()
	index := make(map[string]int, len(nodes))
	indeg := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
		indeg[n.ID] = 0
	}
	for _, e := range tg.g.Edges() {
		indeg[e.To]++
	}

	done := make([]bool, len(nodes))
	order := make([]Task, 0, len(nodes))
	for len(order) < len(nodes) {
		next := -1
		for i, n := range nodes {
			if !done[i] && indeg[n.ID] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, n := range nodes {
				if !done[i] {
					stuck = append(stuck, n.Name)
				}
			}
			return nil, &CycleError{Tasks: stuck}
		}

		done[next] = true
		n := nodes[next]
		for _, succ := range tg.g.Successors(n.ID) {
			indeg[succ]--
		}
		order = append(order, n.Value.(Task))
	}
	return order, nil
}

// Run executes every task in topological order on a fresh session started
// from a clone of starting (which may be nil). The session is returned even
// when a task fails.
func (tg *Graph) Run(ctx context.Context, starting *core.Context) (*core.Session, error) {
	sess := core.NewSession(core.WithContext(starting), core.WithLogger(tg.logger))
	start := time.Now()

	order, err := tg.Order()
	if err != nil {
		tg.logger.Error("task.graph.cycle", "graph", tg.name, "error", err.Error())
		return sess, err
	}

	err = tg.runOrder(ctx, order, sess)
	tg.logRun(len(order), time.Since(start), err)
	return sess, err
}

func (tg *Graph) runOrder(ctx context.Context, order []Task, sess *core.Session) error {
	for _, t := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		tg.logger.Debug("task.node.run", "graph", tg.name, "task", t.Name(), "session", sess.ID)
		if err := Execute(ctx, t, sess); err != nil {
			tg.logger.Error("task.node.error", "graph", tg.name, "task", t.Name(), "error", err.Error())
			return fmt.Errorf("task %s: %w", t.Name(), err)
		}
	}
	return nil
}

// graphRunLogger is implemented by logging.FluxLogger.
type graphRunLogger interface {
	LogGraphRun(graph string, steps int, dur time.Duration, success bool, err error)
}

func (tg *Graph) logRun(steps int, dur time.Duration, err error) {
	if l, ok := tg.logger.(graphRunLogger); ok {
		l.LogGraphRun(tg.name, steps, dur, err == nil, err)
		return
	}
	tg.logger.Info("task.graph.done", "graph", tg.name, "steps", steps, "duration", dur, "success", err == nil)
}

// Execute runs PreRun, Run and PostRun of r, stopping at the first error.
func Execute(ctx context.Context, r Runnable, s *core.Session) error {
	if err := r.PreRun(ctx, s); err != nil {
		return err
	}
	if err := r.Run(ctx, s); err != nil {
		return err
	}
	return r.PostRun(ctx, s)
}

// Mermaid renders the graph as a Mermaid flow chart.
func (tg *Graph) Mermaid() string { return tg.g.Mermaid("TB") }

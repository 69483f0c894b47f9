package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/lmflux/core"
)

// ErrEscalated stops a Loop early without failing it. Tasks inside the loop
// body return it (possibly wrapped) to signal that iteration is finished.
var ErrEscalated = errors.New("loop escalated")

// LoopOptions configures a Loop.
type LoopOptions struct {
	// MaxIters bounds the number of iterations. Defaults to 100.
	MaxIters int

	// Interval is waited between iterations.
	Interval time.Duration

	// StopOnError aborts the loop on the first failing iteration. Defaults to true.
	StopOnError bool

	// Until ends the loop once it returns true after an iteration.
	Until func(s *core.Session) bool

	// Label is drawn on the loopback edge. Defaults to "repeat".
	Label string
}

// Loop runs a nested task graph repeatedly on the shared session.
type Loop struct {
	name string
	body *Graph
	opts LoopOptions
}

// NewLoop creates a loop task over body.
func NewLoop(name string, body *Graph, optFns ...func(o *LoopOptions)) *Loop {
	opts := LoopOptions{
		MaxIters:    100,
		StopOnError: true,
		Label:       "repeat",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	body.g.SetLoopback(opts.Label)
	return &Loop{name: name, body: body, opts: opts}
}

func (l *Loop) Name() string { return l.name }

// Body returns the nested graph.
func (l *Loop) Body() *Graph { return l.body }

func (l *Loop) PreRun(context.Context, *core.Session) error { return nil }

func (l *Loop) PostRun(context.Context, *core.Session) error { return nil }

// Run executes the body up to MaxIters times.
func (l *Loop) Run(ctx context.Context, s *core.Session) error {
	order, err := l.body.Order()
	if err != nil {
		return err
	}

	logger := s.Logger()
	for i := 0; i < l.opts.MaxIters; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Debug("task.loop.iteration", "loop", l.name, "iteration", i+1)
		err := l.body.runOrder(ctx, order, s)
		if errors.Is(err, ErrEscalated) {
			logger.Debug("task.loop.escalated", "loop", l.name, "iteration", i+1)
			return nil
		}
		if err != nil {
			if l.opts.StopOnError {
				return fmt.Errorf("loop iteration %d: %w", i+1, err)
			}
			logger.Warn("task.loop.iteration_failed", "loop", l.name, "iteration", i+1, "error", err.Error())
		}

		if l.opts.Until != nil && l.opts.Until(s) {
			return nil
		}

		if l.opts.Interval > 0 && i < l.opts.MaxIters-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.opts.Interval):
			}
		}
	}
	return nil
}

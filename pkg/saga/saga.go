// Package saga runs multi-step operations whose steps cannot share a single
// database transaction. Every committed step registers its inverse; when a
// later step fails the inverses run newest first and the original failure is
// returned to the caller.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Action is a forward step or its compensation.
type Action func(ctx context.Context) error

// StepError reports which step failed. Compensation errors are logged, not
// returned, so Err is always the forward failure.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("saga step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type compensation struct {
	step string
	undo Action
}

// Saga accumulates compensations for the steps executed so far.
type Saga struct {
	name   string
	log    *zap.Logger
	undo   []compensation
	done   bool
	onUndo func(step string, err error)
}

// Option customises a Saga.
type Option func(*Saga)

// WithLogger sets the logger used to report compensation failures.
func WithLogger(log *zap.Logger) Option {
	return func(s *Saga) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCompensationHook is invoked after each compensation with its result.
func WithCompensationHook(fn func(step string, err error)) Option {
	return func(s *Saga) {
		s.onUndo = fn
	}
}

// New starts an empty saga named after the business operation it protects.
func New(name string, opts ...Option) *Saga {
	s := &Saga{name: name, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Step runs do. On success undo (which may be nil) is remembered. On failure
// all remembered compensations run in reverse and a *StepError is returned.
func (s *Saga) Step(ctx context.Context, step string, do, undo Action) error {
	if s.done {
		return &StepError{Step: step, Err: fmt.Errorf("saga %s already finished", s.name)}
	}

	if err := do(ctx); err != nil {
		s.Compensate(ctx)
		return &StepError{Step: step, Err: err}
	}

	if undo != nil {
		s.undo = append(s.undo, compensation{step: step, undo: undo})
	}
	return nil
}

// Compensate unwinds every committed step newest first. A failing
// compensation is logged and the remaining ones still run. The returned error
// aggregates compensation failures for callers that want to inspect them.
func (s *Saga) Compensate(ctx context.Context) error {
	if s.done {
		return nil
	}
	s.done = true

	// a cancelled request must not stop the rollback
	ctx = context.WithoutCancel(ctx)

	var errs error
	for i := len(s.undo) - 1; i >= 0; i-- {
		c := s.undo[i]
		err := c.undo(ctx)
		if s.onUndo != nil {
			s.onUndo(c.step, err)
		}
		if err != nil {
			s.log.Error("compensation failed",
				zap.String("saga", s.name),
				zap.String("step", c.step),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("undo %s: %w", c.step, err))
			continue
		}
		s.log.Debug("compensation applied", zap.String("saga", s.name), zap.String("step", c.step))
	}
	s.undo = nil
	return errs
}

// Commit marks the saga as finished so no further compensation can run.
func (s *Saga) Commit() {
	s.done = true
	s.undo = nil
}

// Pending returns the number of compensations currently registered.
func (s *Saga) Pending() int {
	return len(s.undo)
}

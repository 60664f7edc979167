package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"immigration-case-portal/backend/pkg/logger"
)

// Step is a forward action with an optional compensating action.
// Compensate is only invoked for steps whose Run completed successfully.
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Options configures retry behavior for saga steps
type Options struct {
	// MaxAttempts is how many times each step is tried before the saga fails
	MaxAttempts int
	// Backoff is the fixed delay between attempts of the same step
	Backoff time.Duration
}

// DefaultOptions returns the default retry settings
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		Backoff:     200 * time.Millisecond,
	}
}

// Saga executes an ordered list of steps. When a step fails after all
// retries, the compensations of previously completed steps run in reverse
// order. Compensation failures are logged and aggregated but do not stop
// the remaining compensations.
type Saga struct {
	name    string
	steps   []Step
	options Options
	log     *logger.Logger
}

// New creates a saga with default options
func New(name string, log *logger.Logger) *Saga {
	return &Saga{
		name:    name,
		options: DefaultOptions(),
		log:     log,
	}
}

// WithOptions overrides the retry settings
func (s *Saga) WithOptions(options Options) *Saga {
	if options.MaxAttempts > 0 {
		s.options.MaxAttempts = options.MaxAttempts
	}
	s.options.Backoff = options.Backoff
	return s
}

// AddStep appends a step to the saga
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Execute runs all steps in order. The returned error is the failing
// step's error, joined with any compensation errors.
func (s *Saga) Execute(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))

	for _, step := range s.steps {
		if err := s.runStep(ctx, step); err != nil {
			s.log.Warn("Saga step failed, compensating",
				"saga", s.name,
				"step", step.Name,
				"completed_steps", len(completed),
				"error", err.Error(),
			)
			compErr := s.compensate(ctx, completed)
			if compErr != nil {
				return errors.Join(
					fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err),
					compErr,
				)
			}
			return fmt.Errorf("saga %s failed at step %s: %w", s.name, step.Name, err)
		}
		completed = append(completed, step)
	}

	return nil
}

// runStep tries a single step up to MaxAttempts times
func (s *Saga) runStep(ctx context.Context, step Step) error {
	var err error
	for attempt := 1; attempt <= s.options.MaxAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = step.Run(ctx)
		if err == nil {
			return nil
		}

		if attempt < s.options.MaxAttempts {
			s.log.Debug("Saga step attempt failed, retrying",
				"saga", s.name,
				"step", step.Name,
				"attempt", attempt,
				"error", err.Error(),
			)
			time.Sleep(s.options.Backoff)
		}
	}
	return err
}

// compensate runs compensations for completed steps in reverse order
func (s *Saga) compensate(ctx context.Context, completed []Step) error {
	var errs []error
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			s.log.Error("Saga compensation failed",
				"saga", s.name,
				"step", step.Name,
				"error", err.Error(),
			)
			errs = append(errs, fmt.Errorf("compensation for %s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}

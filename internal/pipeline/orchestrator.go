package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
	"github.com/hochfrequenz/observatory-deploy/internal/logging"
	"github.com/hochfrequenz/observatory-deploy/internal/notify"
)

// Options configures an Orchestrator. Steps are executed in slice order.
type Options struct {
	Layout   layout.Layout
	Steps    []Step
	Logger   *slog.Logger
	Notifier notify.Notifier

	// NewID and Now default to uuid.NewString and time.Now
	NewID func() string
	Now   func() time.Time
}

// Orchestrator runs the full build: every step in order, halting at the
// first failure.
type Orchestrator struct {
	opts Options
}

// New creates an orchestrator
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NoopNotifier{}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts}
}

// Steps returns the ordered step list
func (o *Orchestrator) Steps() []Step {
	return append([]Step(nil), o.opts.Steps...)
}

// RunFull executes the full build and returns the finished run
func (o *Orchestrator) RunFull(ctx context.Context) *domain.PipelineRun {
	run := domain.NewPipelineRun(o.opts.NewID(), o.opts.Now())
	log := o.opts.Logger.With("component", "pipeline", "run_id", run.ID)
	ctx = logging.WithLogger(ctx, o.opts.Logger.With("run_id", run.ID))

	log.Info("starting full build", "root", o.opts.Layout.Root(), "steps", len(o.opts.Steps))

	tasks := make([]Task, 0, len(o.opts.Steps))
	for _, step := range o.opts.Steps {
		task := step.Bind(o.opts.Layout)
		tasks = append(tasks, Task{
			Name: task.Name,
			Do: func(ctx context.Context) domain.Result {
				log.Info(step.Description, "step", step.Name)
				start := o.opts.Now()
				res := task.Do(ctx)
				run.Record(domain.StepOutcome{
					Name:        step.Name,
					Description: step.Description,
					Result:      res,
					Duration:    o.opts.Now().Sub(start),
				})
				return res
			},
		})
	}

	Traverse(ctx, ShortCircuit, tasks)
	run.Finish(o.opts.Now())

	if failed, ok := run.FailedStep(); ok {
		log.Error("failed at step", "step", failed.Name, "description", failed.Description,
			"kind", failed.Result.Kind, "detail", failed.Result.Detail)
	} else {
		log.Info("full build completed successfully", "duration", run.Duration().Round(time.Millisecond))
	}

	if err := o.opts.Notifier.Notify(ctx, notify.ForRun(run)); err != nil {
		log.Warn("notification failed", "error", err)
	}
	return run
}

// Package notify announces finished pipeline runs on the desktop and in Slack.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
)

// Level selects the colour and icon of a notification
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelFailure
)

// Notification is the headline of a finished run. Run may be nil for
// notifications that are not tied to a pipeline run.
type Notification struct {
	Title   string
	Message string
	Level   Level
	Run     *domain.PipelineRun
}

// ForRun summarises a finished run. A failed run is headlined by its first
// failing step.
func ForRun(run *domain.PipelineRun) Notification {
	if failed, ok := run.FailedStep(); ok {
		return Notification{
			Title:   "Full build failed",
			Message: fmt.Sprintf("%s failed: %s", failed.Description, failed.Result.Detail),
			Level:   LevelFailure,
			Run:     run,
		}
	}
	return Notification{
		Title:   "Full build completed",
		Message: fmt.Sprintf("%d steps succeeded in %s", len(run.Steps), run.Duration().Round(time.Second)),
		Level:   LevelSuccess,
		Run:     run,
	}
}

// Notifier delivers a notification to one target
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// MultiNotifier fans a notification out to several targets. Every target is
// tried; the errors of all failing targets are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

func (m *MultiNotifier) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NoopNotifier drops every notification
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Notification) error { return nil }

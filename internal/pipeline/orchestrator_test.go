package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
	"github.com/hochfrequenz/observatory-deploy/internal/logging"
	"github.com/hochfrequenz/observatory-deploy/internal/notify"
)

type stepRecorder struct {
	calls   []domain.StepName
	failing map[domain.StepName]bool
}

func (r *stepRecorder) step(name domain.StepName, description string) Step {
	return Step{
		Name:        name,
		Description: description,
		Action: func(ctx context.Context, l layout.Layout) domain.Result {
			r.calls = append(r.calls, name)
			if r.failing[name] {
				return domain.Failure(domain.KindCommandFailed, "npm install (in %s): ERESOLVE", l.Root())
			}
			return domain.Success()
		},
	}
}

func (r *stepRecorder) fullBuild() []Step {
	return []Step{
		r.step(domain.StepCheckDependencies, "Checking dependencies"),
		r.step(domain.StepInstallDependencies, "Installing dependencies"),
		r.step(domain.StepBuildBackend, "Building backend"),
		r.step(domain.StepBuildFrontend, "Building frontend"),
		r.step(domain.StepSyncMobile, "Syncing mobile app"),
		r.step(domain.StepPackagePlugin, "Creating WordPress package"),
	}
}

type captureNotifier struct {
	sent []notify.Notification
	err  error
}

func (c *captureNotifier) Notify(_ context.Context, n notify.Notification) error {
	c.sent = append(c.sent, n)
	return c.err
}

func fixedClock() func() time.Time {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func newTestOrchestrator(t *testing.T, steps []Step, n notify.Notifier, logger *slog.Logger) *Orchestrator {
	t.Helper()
	l, err := layout.Resolve(t.TempDir())
	require.NoError(t, err)
	return New(Options{
		Layout:   l,
		Steps:    steps,
		Logger:   logger,
		Notifier: n,
		NewID:    func() string { return "run-1" },
		Now:      fixedClock(),
	})
}

func TestRunFull_AllStepsSucceed(t *testing.T) {
	rec := &stepRecorder{}
	n := &captureNotifier{}
	o := newTestOrchestrator(t, rec.fullBuild(), n, logging.Discard())

	run := o.RunFull(context.Background())

	assert.True(t, run.OK())
	assert.Equal(t, domain.RunDone, run.Status)
	assert.Equal(t, "run-1", run.ID)
	assert.Len(t, run.Steps, 6)
	assert.Len(t, rec.calls, 6)
	for _, s := range run.Steps {
		assert.Equal(t, time.Second, s.Duration)
	}

	require.Len(t, n.sent, 1)
	assert.Equal(t, notify.LevelSuccess, n.sent[0].Level)
	assert.Same(t, run, n.sent[0].Run)
}

func TestRunFull_HaltsAtFirstFailure(t *testing.T) {
	rec := &stepRecorder{failing: map[domain.StepName]bool{domain.StepInstallDependencies: true}}
	n := &captureNotifier{}
	o := newTestOrchestrator(t, rec.fullBuild(), n, logging.Discard())

	run := o.RunFull(context.Background())

	assert.False(t, run.OK())
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, []domain.StepName{domain.StepCheckDependencies, domain.StepInstallDependencies}, rec.calls,
		"no step after the failing one may run")
	assert.Equal(t, 1, run.FailedIndex)
	assert.Len(t, run.Steps, 2)

	failed, ok := run.FailedStep()
	require.True(t, ok)
	assert.Equal(t, domain.StepInstallDependencies, failed.Name)
	assert.Equal(t, "Installing dependencies", failed.Description)

	require.Len(t, n.sent, 1)
	assert.Equal(t, notify.LevelFailure, n.sent[0].Level)
	assert.Same(t, run, n.sent[0].Run)
	assert.Contains(t, n.sent[0].Message, "Installing dependencies failed")
}

func TestRunFull_LogsFailingStep(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rec := &stepRecorder{failing: map[domain.StepName]bool{domain.StepSyncMobile: true}}
	o := newTestOrchestrator(t, rec.fullBuild(), nil, logger)

	run := o.RunFull(context.Background())

	assert.False(t, run.OK())
	assert.NotContains(t, rec.calls, domain.StepPackagePlugin)
	out := buf.String()
	assert.Contains(t, out, "failed at step")
	assert.Contains(t, out, "step=sync-mobile")
	assert.Contains(t, out, "run_id=run-1")
}

func TestRunFull_NotificationErrorDoesNotChangeOutcome(t *testing.T) {
	rec := &stepRecorder{}
	n := &captureNotifier{err: errors.New("webhook down")}
	o := newTestOrchestrator(t, rec.fullBuild(), n, logging.Discard())

	run := o.RunFull(context.Background())
	assert.True(t, run.OK())
}

func TestRunFull_StepsReceiveLayout(t *testing.T) {
	root := t.TempDir()
	l, err := layout.Resolve(root)
	require.NoError(t, err)

	var seen string
	o := New(Options{
		Layout: l,
		Steps: []Step{{
			Name: domain.StepBuildBackend,
			Action: func(ctx context.Context, l layout.Layout) domain.Result {
				seen = l.Backend()
				return domain.Success()
			},
		}},
	})

	run := o.RunFull(context.Background())
	assert.True(t, run.OK())
	assert.Equal(t, l.Backend(), seen)
	assert.NotEmpty(t, run.ID, "default ID generator is used")
	assert.Len(t, o.Steps(), 1)
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRun_AllSucceeded(t *testing.T) {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	run := NewPipelineRun("run-1", start)
	assert.Equal(t, RunRunning, run.Status)
	assert.Equal(t, -1, run.FailedIndex)

	run.Record(StepOutcome{Name: StepCheckDependencies, Result: Success()})
	run.Record(StepOutcome{Name: StepInstallDependencies, Result: Success()})
	run.Finish(start.Add(90 * time.Second))

	assert.True(t, run.OK())
	assert.Equal(t, RunDone, run.Status)
	assert.Equal(t, 90*time.Second, run.Duration())
	assert.True(t, run.Result().OK())

	_, failed := run.FailedStep()
	assert.False(t, failed)
}

func TestPipelineRun_FirstFailureIsKept(t *testing.T) {
	run := NewPipelineRun("run-2", time.Now())
	run.Record(StepOutcome{Name: StepCheckDependencies, Result: Success()})
	run.Record(StepOutcome{Name: StepInstallDependencies, Result: Failure(KindCommandFailed, "npm install in backend")})
	run.Record(StepOutcome{Name: StepBuildBackend, Result: Failure(KindCommandFailed, "later")})
	run.Finish(time.Now())

	assert.False(t, run.OK())
	assert.Equal(t, RunFailed, run.Status)
	assert.Equal(t, 1, run.FailedIndex)

	step, failed := run.FailedStep()
	require.True(t, failed)
	assert.Equal(t, StepInstallDependencies, step.Name)

	res := run.Result()
	assert.False(t, res.OK())
	assert.Contains(t, res.Detail, "step install failed")
}

func TestPipelineRun_DurationWhileRunning(t *testing.T) {
	run := NewPipelineRun("run-3", time.Now())
	assert.Zero(t, run.Duration())
}

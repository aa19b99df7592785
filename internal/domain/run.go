package domain

import "time"

// StepOutcome records the execution of one step inside a run
type StepOutcome struct {
	Name        StepName
	Description string
	Result      Result
	Duration    time.Duration
}

// PipelineRun is an ordered sequence of executed steps plus the index of the
// first failing one. It lives for a single process invocation.
type PipelineRun struct {
	ID          string
	Status      RunStatus
	Steps       []StepOutcome
	FailedIndex int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// NewPipelineRun creates a running pipeline run with no failure recorded
func NewPipelineRun(id string, startedAt time.Time) *PipelineRun {
	return &PipelineRun{
		ID:          id,
		Status:      RunRunning,
		FailedIndex: -1,
		StartedAt:   startedAt,
	}
}

// Record appends a step outcome. The first failure moves the run to
// RunFailed and fixes FailedIndex.
func (r *PipelineRun) Record(outcome StepOutcome) {
	r.Steps = append(r.Steps, outcome)
	if !outcome.Result.OK() && r.FailedIndex < 0 {
		r.FailedIndex = len(r.Steps) - 1
		r.Status = RunFailed
	}
}

// Finish stamps the finish time and settles the terminal status
func (r *PipelineRun) Finish(at time.Time) {
	r.FinishedAt = &at
	if r.FailedIndex < 0 {
		r.Status = RunDone
	}
}

// OK reports whether every recorded step succeeded
func (r *PipelineRun) OK() bool {
	return r.FailedIndex < 0
}

// FailedStep returns the first failing step, if any
func (r *PipelineRun) FailedStep() (StepOutcome, bool) {
	if r.FailedIndex < 0 || r.FailedIndex >= len(r.Steps) {
		return StepOutcome{}, false
	}
	return r.Steps[r.FailedIndex], true
}

// Duration returns the wall time of the run, or zero while it is running
func (r *PipelineRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Result folds the run into a single result naming the failing step
func (r *PipelineRun) Result() Result {
	step, failed := r.FailedStep()
	if !failed {
		return Success()
	}
	return Failure(step.Result.Kind, "step %s failed: %s", step.Name, step.Result.Detail)
}

// Package pipeline composes named steps into ordered runs. Whether a run
// stops at the first failure or keeps going is a property of the
// traversal, not of the individual steps.
package pipeline

import (
	"context"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
)

// Policy controls what a traversal does after a failure
type Policy int

const (
	// ShortCircuit stops at the first failure; later items never run
	ShortCircuit Policy = iota
	// Accumulate runs every item and fails at the end if any failed
	Accumulate
)

func (p Policy) String() string {
	switch p {
	case ShortCircuit:
		return "short-circuit"
	case Accumulate:
		return "accumulate"
	default:
		return "unknown"
	}
}

// Task is one named unit of a traversal
type Task struct {
	Name string
	Do   func(ctx context.Context) domain.Result
}

// Outcome is the result of a traversal. Results holds one entry per task
// that was attempted, in order.
type Outcome struct {
	Results     []domain.Result
	FailedIndex int
}

// OK reports whether every attempted task succeeded
func (o Outcome) OK() bool {
	return o.FailedIndex < 0
}

// Result folds the outcome into one result
func (o Outcome) Result() domain.Result {
	return domain.Join(o.Results...)
}

// Traverse runs tasks strictly in order under policy
func Traverse(ctx context.Context, policy Policy, tasks []Task) Outcome {
	out := Outcome{FailedIndex: -1}
	for i, task := range tasks {
		res := task.Do(ctx)
		out.Results = append(out.Results, res)
		if res.OK() {
			continue
		}
		if out.FailedIndex < 0 {
			out.FailedIndex = i
		}
		if policy == ShortCircuit {
			break
		}
	}
	return out
}

// Action is the entry point of a step
type Action func(ctx context.Context, l layout.Layout) domain.Result

// Step is a named, independently invokable unit of the build pipeline
type Step struct {
	Name        domain.StepName
	Description string
	Action      Action
}

// Bind turns the step into a task over a fixed layout
func (s Step) Bind(l layout.Layout) Task {
	return Task{
		Name: string(s.Name),
		Do: func(ctx context.Context) domain.Result {
			return s.Action(ctx, l)
		},
	}
}

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
)

func recordingTasks(calls *[]string, failing map[string]bool, names ...string) []Task {
	var tasks []Task
	for _, name := range names {
		tasks = append(tasks, Task{
			Name: name,
			Do: func(ctx context.Context) domain.Result {
				*calls = append(*calls, name)
				if failing[name] {
					return domain.Failure(domain.KindCommandFailed, "%s failed", name)
				}
				return domain.Success()
			},
		})
	}
	return tasks
}

func TestTraverse(t *testing.T) {
	tests := []struct {
		name       string
		policy     Policy
		failing    map[string]bool
		wantCalls  []string
		wantFailed int
		wantOK     bool
		wantDetail string
	}{
		{
			name:       "short-circuit all ok",
			policy:     ShortCircuit,
			wantCalls:  []string{"a", "b", "c"},
			wantFailed: -1,
			wantOK:     true,
		},
		{
			name:       "short-circuit stops at first failure",
			policy:     ShortCircuit,
			failing:    map[string]bool{"b": true, "c": true},
			wantCalls:  []string{"a", "b"},
			wantFailed: 1,
			wantDetail: "b failed",
		},
		{
			name:       "accumulate runs everything",
			policy:     Accumulate,
			failing:    map[string]bool{"a": true, "c": true},
			wantCalls:  []string{"a", "b", "c"},
			wantFailed: 0,
			wantDetail: "a failed; c failed",
		},
		{
			name:       "accumulate all ok",
			policy:     Accumulate,
			wantCalls:  []string{"a", "b", "c"},
			wantFailed: -1,
			wantOK:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			out := Traverse(context.Background(), tt.policy, recordingTasks(&calls, tt.failing, "a", "b", "c"))

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantFailed, out.FailedIndex)
			assert.Equal(t, tt.wantOK, out.OK())
			assert.Equal(t, tt.wantOK, out.Result().OK())
			assert.Len(t, out.Results, len(tt.wantCalls))
			if !tt.wantOK {
				assert.Equal(t, tt.wantDetail, out.Result().Detail)
			}
		})
	}
}

func TestTraverse_Empty(t *testing.T) {
	out := Traverse(context.Background(), ShortCircuit, nil)
	assert.True(t, out.OK())
	assert.True(t, out.Result().OK())
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "short-circuit", ShortCircuit.String())
	assert.Equal(t, "accumulate", Accumulate.String())
	assert.Equal(t, "unknown", Policy(7).String())
}

// Package dispatch maps the closed set of CLI actions to a single step or
// to the full build and turns the outcome into an exit code.
package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hochfrequenz/observatory-deploy/internal/deps"
	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
	"github.com/hochfrequenz/observatory-deploy/internal/pipeline"
	"github.com/hochfrequenz/observatory-deploy/internal/steps"
)

// Action is a CLI action name
type Action string

const (
	ActionCheck         Action = "check"
	ActionInstall       Action = "install"
	ActionBuild         Action = "build"
	ActionBuildBackend  Action = "build-backend"
	ActionBuildFrontend Action = "build-frontend"
	ActionSyncMobile    Action = "sync-mobile"
	ActionPackageWP     Action = "package-wp"
	ActionTest          Action = "test"
	ActionFullBuild     Action = "full-build"
)

// Actions returns every known action in help order
func Actions() []Action {
	return []Action{
		ActionCheck, ActionInstall, ActionBuild, ActionBuildBackend, ActionBuildFrontend,
		ActionSyncMobile, ActionPackageWP, ActionTest, ActionFullBuild,
	}
}

// ActionNames returns Actions as strings
func ActionNames() []string {
	names := make([]string, 0, len(Actions()))
	for _, a := range Actions() {
		names = append(names, string(a))
	}
	return names
}

var (
	// ErrUnknownAction is returned for an action outside the closed set
	ErrUnknownAction = errors.New("unknown action")
	// ErrActionFailed is returned when a known action ran and failed
	ErrActionFailed = errors.New("action failed")
)

// Outcome is what an action produced, for exit code mapping and reporting
type Outcome struct {
	Action       Action
	Result       domain.Result
	Run          *domain.PipelineRun // full builds only
	Dependencies *deps.Report        // check only
	Duration     time.Duration
}

// Handler executes one action
type Handler func(ctx context.Context) Outcome

// Dispatcher routes action names to handlers
type Dispatcher struct {
	handlers map[Action]Handler
}

// New creates a dispatcher over handlers
func New(handlers map[Action]Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers}
}

// Standard wires every action to its step or to the full build
func Standard(l layout.Layout, s *steps.Steps, orch *pipeline.Orchestrator) *Dispatcher {
	step := func(name domain.StepName) Handler {
		return stepHandler(s, l, name)
	}
	full := func(ctx context.Context) Outcome {
		run := orch.RunFull(ctx)
		return Outcome{Result: run.Result(), Run: run}
	}
	check := func(ctx context.Context) Outcome {
		report := s.Checker().CheckAll(ctx)
		return Outcome{Result: report.Result(), Dependencies: &report}
	}

	return New(map[Action]Handler{
		ActionCheck:         check,
		ActionInstall:       step(domain.StepInstallDependencies),
		ActionBuild:         full,
		ActionBuildBackend:  step(domain.StepBuildBackend),
		ActionBuildFrontend: step(domain.StepBuildFrontend),
		ActionSyncMobile:    step(domain.StepSyncMobile),
		ActionPackageWP:     step(domain.StepPackagePlugin),
		ActionTest:          step(domain.StepRunTests),
		ActionFullBuild:     full,
	})
}

type stepLookup interface {
	Step(name domain.StepName) (pipeline.Step, bool)
}

// stepHandler resolves name once. A name missing from the catalog yields a
// handler that fails instead of calling a nil action.
func stepHandler(steps stepLookup, l layout.Layout, name domain.StepName) Handler {
	st, ok := steps.Step(name)
	if !ok || st.Action == nil {
		return func(context.Context) Outcome {
			return Outcome{Result: domain.Failure(domain.KindCommandFailed, "no step registered for %s", name)}
		}
	}
	return func(ctx context.Context) Outcome {
		return Outcome{Result: st.Action(ctx, l)}
	}
}

// Dispatch runs the handler for name. It returns ErrUnknownAction when no
// handler exists and ErrActionFailed when the action ran and failed.
func (d *Dispatcher) Dispatch(ctx context.Context, name string) (Outcome, error) {
	action := Action(strings.TrimSpace(name))
	handler, ok := d.handlers[action]
	if !ok {
		return Outcome{Action: action}, errors.Wrapf(ErrUnknownAction, "%q (valid: %s)", name, strings.Join(ActionNames(), ", "))
	}

	start := time.Now()
	out := handler(ctx)
	out.Action = action
	out.Duration = time.Since(start)

	if !out.Result.OK() {
		return out, errors.Wrapf(ErrActionFailed, "%s: %s", action, out.Result)
	}
	return out, nil
}

// ExitCode maps a Dispatch error to the process exit code. Unknown actions
// and failed actions share exit code 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

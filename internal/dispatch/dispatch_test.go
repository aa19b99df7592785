package dispatch

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hochfrequenz/observatory-deploy/internal/deps"
	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
	"github.com/hochfrequenz/observatory-deploy/internal/logging"
	"github.com/hochfrequenz/observatory-deploy/internal/pipeline"
	"github.com/hochfrequenz/observatory-deploy/internal/runner"
	"github.com/hochfrequenz/observatory-deploy/internal/runner/runnertest"
	"github.com/hochfrequenz/observatory-deploy/internal/steps"
)

func newStandard(t *testing.T, fake *runnertest.Runner, dirs ...string) (*Dispatcher, layout.Layout) {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
	l, err := layout.Resolve(root)
	require.NoError(t, err)

	s := steps.New(fake, steps.DefaultConfig(), logging.Discard())
	orch := pipeline.New(pipeline.Options{Layout: l, Steps: s.FullBuild(), Logger: logging.Discard()})
	return Standard(l, s, orch), l
}

func TestDispatch_UnknownAction(t *testing.T) {
	d := New(map[Action]Handler{})

	_, err := d.Dispatch(context.Background(), "deploy-server")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownAction))
	assert.False(t, errors.Is(err, ErrActionFailed))
	assert.Contains(t, err.Error(), "deploy-server")
	assert.Equal(t, 1, ExitCode(err))
}

func TestDispatch_FailedAction(t *testing.T) {
	d := New(map[Action]Handler{
		ActionTest: func(ctx context.Context) Outcome {
			return Outcome{Result: domain.Failure(domain.KindCommandFailed, "npm test")}
		},
	})

	out, err := d.Dispatch(context.Background(), "test")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrActionFailed))
	assert.False(t, errors.Is(err, ErrUnknownAction))
	assert.Equal(t, ActionTest, out.Action)
	assert.Equal(t, 1, ExitCode(err))
}

func TestDispatch_Success(t *testing.T) {
	d := New(map[Action]Handler{
		ActionCheck: func(ctx context.Context) Outcome { return Outcome{Result: domain.Success()} },
	})

	out, err := d.Dispatch(context.Background(), "check")

	require.NoError(t, err)
	assert.True(t, out.Result.OK())
	assert.Equal(t, 0, ExitCode(err))
}

func TestStandard_CoversEveryAction(t *testing.T) {
	d, _ := newStandard(t, runnertest.New())
	for _, a := range Actions() {
		_, ok := d.handlers[a]
		assert.True(t, ok, "no handler for %s", a)
	}
	assert.Len(t, d.handlers, len(Actions()))
}

func TestStandard_RoutesToSteps(t *testing.T) {
	tests := []struct {
		action string
		want   []string
	}{
		{"build-backend", []string{"backend: npm run build"}},
		{"build-frontend", []string{"frontend: npm run build"}},
		{"test", []string{"backend: npm test", "frontend: npm test -- --watchAll=false"}},
		{"install", []string{": npm install", "backend: npm install", "frontend: npm install", "mobile: npm install"}},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			fake := runnertest.New()
			d, l := newStandard(t, fake, "backend", "frontend", "mobile", "wordpress-plugin")

			_, err := d.Dispatch(context.Background(), tt.action)
			require.NoError(t, err)

			var got []string
			for _, c := range fake.Calls() {
				rel, _ := filepath.Rel(l.Root(), c.Dir)
				if rel == "." {
					rel = ""
				}
				got = append(got, rel+": "+c.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStandard_FullBuildAndBuildAlias(t *testing.T) {
	for _, action := range []string{"build", "full-build"} {
		t.Run(action, func(t *testing.T) {
			fake := runnertest.New().Fail("npm install", "ERESOLVE")
			d, _ := newStandard(t, fake, "backend", "frontend", "mobile", "wordpress-plugin")

			out, err := d.Dispatch(context.Background(), action)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrActionFailed))
			require.NotNil(t, out.Run)
			failed, ok := out.Run.FailedStep()
			require.True(t, ok)
			assert.Equal(t, domain.StepInstallDependencies, failed.Name)
			assert.False(t, fake.Ran("npm run build"), "full build must stop after install fails")
			assert.False(t, fake.Ran("npx cap sync"))
			assert.False(t, fake.Ran("zip"))
		})
	}
}

func TestStandard_CheckReportsEveryTool(t *testing.T) {
	fake := runnertest.New().Fail("npm", "npm: not found")
	d, _ := newStandard(t, fake, "backend")

	out, err := d.Dispatch(context.Background(), "check")

	require.Error(t, err)
	require.NotNil(t, out.Dependencies)
	assert.Len(t, out.Dependencies.Tools, 3)
	assert.Equal(t, []string{"npm"}, out.Dependencies.Missing())
}

func TestStandard_BackendOnlyProject(t *testing.T) {
	for _, action := range []string{"build-frontend", "sync-mobile", "package-wp"} {
		t.Run(action, func(t *testing.T) {
			d, l := newStandard(t, runnertest.New(), "backend")

			out, err := d.Dispatch(context.Background(), action)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrActionFailed))
			assert.Contains(t, out.Result.Detail, l.Root())
		})
	}
}

func TestStandard_CheckWithMissingProjectRoot(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	l, err := layout.Resolve(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)

	cfg := steps.DefaultConfig()
	cfg.Tools = []deps.Tool{{Name: "sh", Probe: []string{"sh", "-c", "echo 5.2"}}}
	s := steps.New(runner.NewExecutor(runner.Config{}, logging.Discard()), cfg, logging.Discard())
	orch := pipeline.New(pipeline.Options{Layout: l, Steps: s.FullBuild()})

	out, err := Standard(l, s, orch).Dispatch(context.Background(), "check")

	require.NoError(t, err)
	require.NotNil(t, out.Dependencies)
	require.Len(t, out.Dependencies.Tools, 1)
	assert.True(t, out.Dependencies.Tools[0].Present)
	assert.Equal(t, "5.2", out.Dependencies.Tools[0].Version)
}

func TestStepHandler_UnregisteredStep(t *testing.T) {
	l, err := layout.Resolve(t.TempDir())
	require.NoError(t, err)
	s := steps.New(runnertest.New(), steps.DefaultConfig(), logging.Discard())

	out := stepHandler(s, l, domain.StepName("deploy-server"))(context.Background())

	assert.False(t, out.Result.OK())
	assert.Equal(t, domain.KindCommandFailed, out.Result.Kind)
	assert.Contains(t, out.Result.Detail, "deploy-server")
}

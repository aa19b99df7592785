// Package steps implements the concrete build steps. Each step is a
// composition of external commands against the project layout and returns
// a domain.Result; no step panics or returns an error.
package steps

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/hochfrequenz/observatory-deploy/internal/deps"
	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
	"github.com/hochfrequenz/observatory-deploy/internal/logging"
	"github.com/hochfrequenz/observatory-deploy/internal/pipeline"
	"github.com/hochfrequenz/observatory-deploy/internal/runner"
)

// Commands are the command vectors the steps run
type Commands struct {
	Install         []string
	Build           []string
	BackendTest     []string
	FrontendTest    []string
	MobileSync      []string
	Archive         []string
	ArchiveExcludes []string
}

// Plugin describes the WordPress plugin package
type Plugin struct {
	Name    string
	Version string
	Files   []string
}

// Config configures the steps
type Config struct {
	Commands Commands
	Plugin   Plugin
	Tools    []deps.Tool
}

// DefaultConfig returns the npm based command set
func DefaultConfig() Config {
	return Config{
		Commands: Commands{
			Install:         []string{"npm", "install"},
			Build:           []string{"npm", "run", "build"},
			BackendTest:     []string{"npm", "test"},
			FrontendTest:    []string{"npm", "test", "--", "--watchAll=false"},
			MobileSync:      []string{"npx", "cap", "sync"},
			Archive:         []string{"zip", "-r"},
			ArchiveExcludes: []string{"*.git*", "node_modules/*", "*.DS_Store"},
		},
		Plugin: Plugin{
			Name:    "observatory-booking-plugin",
			Version: "1.0.0",
			Files:   []string{"observatory-booking.php", "assets/", "README.txt"},
		},
		Tools: deps.DefaultTools(),
	}
}

// Steps holds what every step needs: a runner, the command set and a logger
type Steps struct {
	runner runner.Runner
	config Config
	logger *slog.Logger
}

// New creates the step set
func New(r runner.Runner, config Config, logger *slog.Logger) *Steps {
	return &Steps{runner: r, config: config, logger: logger}
}

func (s *Steps) log(ctx context.Context, step domain.StepName) *slog.Logger {
	return logging.FromContext(ctx, s.logger).With("component", "steps", "step", step)
}

// Checker returns the dependency checker for the configured tools. Probes
// do not depend on the project layout.
func (s *Steps) Checker() *deps.Checker {
	return deps.NewChecker(s.runner, s.config.Tools, s.logger)
}

// CheckDependencies verifies every required tool is invocable
func (s *Steps) CheckDependencies(ctx context.Context, l layout.Layout) domain.Result {
	return s.Checker().Check(ctx)
}

// InstallDependencies runs the package install in root, backend, frontend
// and mobile, in that order, stopping at the first failing directory.
func (s *Steps) InstallDependencies(ctx context.Context, l layout.Layout) domain.Result {
	log := s.log(ctx, domain.StepInstallDependencies)

	var tasks []pipeline.Task
	for _, dir := range l.InstallOrder() {
		tasks = append(tasks, pipeline.Task{
			Name: dir.Role,
			Do: func(ctx context.Context) domain.Result {
				log.Info("installing dependencies", "dir", dir.Role)
				if res := requireDir(dir.Role, dir.Path); !res.OK() {
					return res
				}
				return s.exec(ctx, s.config.Commands.Install, dir.Path)
			},
		})
	}
	return pipeline.Traverse(ctx, pipeline.ShortCircuit, tasks).Result()
}

// BuildBackend compiles the backend
func (s *Steps) BuildBackend(ctx context.Context, l layout.Layout) domain.Result {
	s.log(ctx, domain.StepBuildBackend).Info("building backend")
	if res := requireDir(layout.BackendDir, l.Backend()); !res.OK() {
		return res
	}
	return s.exec(ctx, s.config.Commands.Build, l.Backend())
}

// BuildFrontend compiles the frontend
func (s *Steps) BuildFrontend(ctx context.Context, l layout.Layout) domain.Result {
	s.log(ctx, domain.StepBuildFrontend).Info("building frontend")
	if res := requireDir(layout.FrontendDir, l.Frontend()); !res.OK() {
		return res
	}
	return s.exec(ctx, s.config.Commands.Build, l.Frontend())
}

// SyncMobile replaces the mobile web assets with the frontend build and
// runs the mobile platform sync. Nothing on disk changes when the frontend
// build is missing.
func (s *Steps) SyncMobile(ctx context.Context, l layout.Layout) domain.Result {
	log := s.log(ctx, domain.StepSyncMobile)
	log.Info("syncing mobile app")

	if !isDir(l.FrontendBuild()) {
		log.Error("frontend build not found, run build-frontend first", "path", l.FrontendBuild())
		return domain.Failure(domain.KindBuildMissing, "frontend build %s not found; run build-frontend first", l.FrontendBuild())
	}
	if res := requireDir(layout.MobileDir, l.Mobile()); !res.OK() {
		return res
	}

	if _, err := os.Stat(l.MobileWeb()); err == nil {
		if res := s.exec(ctx, []string{"rm", "-rf", l.MobileWeb()}, l.Root()); !res.OK() {
			return res
		}
	}

	if res := s.exec(ctx, []string{"cp", "-r", l.FrontendBuild(), l.MobileWeb()}, l.Root()); !res.OK() {
		return res
	}

	return s.exec(ctx, s.config.Commands.MobileSync, l.Mobile())
}

// PackagePlugin stages the plugin files under dist/ and archives them.
// Plugin files that do not exist are skipped.
func (s *Steps) PackagePlugin(ctx context.Context, l layout.Layout) domain.Result {
	log := s.log(ctx, domain.StepPackagePlugin)
	log.Info("creating WordPress plugin package", "version", s.config.Plugin.Version)

	if res := requireDir(layout.PluginDir, l.Plugin()); !res.OK() {
		return res
	}

	// zip -r updates an existing archive in place. Start from an empty
	// staging directory and no archive.
	staging := l.PluginStaging()
	archive := l.PluginArchive(s.config.Plugin.Name, s.config.Plugin.Version)
	if err := os.RemoveAll(staging); err != nil {
		return domain.Failure(domain.KindFilesystem, "clearing %s: %v", staging, err)
	}
	if err := os.Remove(archive); err != nil && !os.IsNotExist(err) {
		return domain.Failure(domain.KindFilesystem, "removing %s: %v", archive, err)
	}
	if err := os.MkdirAll(staging, 0755); err != nil {
		return domain.Failure(domain.KindFilesystem, "creating %s: %v", staging, err)
	}

	for _, name := range s.config.Plugin.Files {
		source := filepath.Join(l.Plugin(), name)
		info, err := os.Stat(source)
		if err != nil {
			log.Debug("plugin file not present, skipping", "file", name)
			continue
		}

		args := []string{"cp", source, staging}
		if info.IsDir() {
			args = []string{"cp", "-r", source, staging}
		}
		if res := s.exec(ctx, args, l.Root()); !res.OK() {
			log.Warn("copying plugin file failed, continuing", "file", name, "detail", res.Detail)
		}
	}

	args := append([]string{}, s.config.Commands.Archive...)
	args = append(args, archive, ".")
	if len(s.config.Commands.ArchiveExcludes) > 0 {
		args = append(args, "-x")
		args = append(args, s.config.Commands.ArchiveExcludes...)
	}
	if res := s.exec(ctx, args, staging); !res.OK() {
		return res
	}

	if info, err := os.Stat(archive); err == nil {
		log.Info("plugin package created", "archive", archive, "size", humanize.Bytes(uint64(info.Size())))
	}
	return domain.Success()
}

// RunTests runs the backend then the frontend test suite. Both suites run
// even when the first fails.
func (s *Steps) RunTests(ctx context.Context, l layout.Layout) domain.Result {
	log := s.log(ctx, domain.StepRunTests)
	log.Info("running tests")

	suites := []struct {
		role string
		dir  string
		cmd  []string
	}{
		{layout.BackendDir, l.Backend(), s.config.Commands.BackendTest},
		{layout.FrontendDir, l.Frontend(), s.config.Commands.FrontendTest},
	}

	var tasks []pipeline.Task
	for _, suite := range suites {
		tasks = append(tasks, pipeline.Task{
			Name: suite.role,
			Do: func(ctx context.Context) domain.Result {
				if res := requireDir(suite.role, suite.dir); !res.OK() {
					return res
				}
				return s.exec(ctx, suite.cmd, suite.dir)
			},
		})
	}

	out := pipeline.Traverse(ctx, pipeline.Accumulate, tasks)
	if !out.OK() {
		log.Error("test suites failed")
	}
	return out.Result()
}

func (s *Steps) exec(ctx context.Context, args []string, dir string) domain.Result {
	res := s.runner.Run(ctx, runner.Command{Args: args, Dir: dir})
	if res.Success() {
		return domain.Success()
	}
	if diag := res.Diagnostic(); diag != "" {
		return domain.Failure(domain.KindCommandFailed, "%s (in %s): %s", res.Command, dir, diag)
	}
	return domain.Failure(domain.KindCommandFailed, "%s (in %s) exited with status %d", res.Command, dir, res.ExitCode)
}

func requireDir(role, path string) domain.Result {
	if isDir(path) {
		return domain.Success()
	}
	return domain.Failure(domain.KindPathMissing, "%s directory %s does not exist", role, path)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/observatory-deploy/internal/config"
	"github.com/hochfrequenz/observatory-deploy/internal/deps"
	"github.com/hochfrequenz/observatory-deploy/internal/dispatch"
	"github.com/hochfrequenz/observatory-deploy/internal/layout"
	"github.com/hochfrequenz/observatory-deploy/internal/logging"
	"github.com/hochfrequenz/observatory-deploy/internal/notify"
	"github.com/hochfrequenz/observatory-deploy/internal/pipeline"
	"github.com/hochfrequenz/observatory-deploy/internal/report"
	"github.com/hochfrequenz/observatory-deploy/internal/runner"
	"github.com/hochfrequenz/observatory-deploy/internal/steps"
)

type options struct {
	configPath   string
	projectRoot  string
	verbose      bool
	reportFormat string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "observatory-deploy ACTION",
		Short: "Build and package the Observatory Booking App",
		Long: `observatory-deploy runs the build pipeline of the Observatory Booking App:
dependency checks, package installs, backend and frontend builds, mobile
sync and WordPress plugin packaging.

Actions: ` + strings.Join(dispatch.ActionNames(), ", "),
		Args:          cobra.ExactArgs(1),
		ValidArgs:     dispatch.ActionNames(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file path")
	cmd.Flags().StringVar(&opts.projectRoot, "project-root", "", "project root directory (default: directory of this binary)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	cmd.Flags().StringVar(&opts.reportFormat, "report", "", "summary format: text, yaml or none")

	return cmd
}

func loadConfig(cmd *cobra.Command, opts options) (*config.Config, error) {
	cfg, err := config.LoadWithLocalFallback(opts.configPath)
	if err != nil {
		return nil, err
	}

	// CLI flags override config (only if explicitly set)
	if cmd.Flags().Changed("project-root") {
		cfg.General.ProjectRoot = config.ExpandPath(opts.projectRoot)
	}
	if cmd.Flags().Changed("verbose") {
		cfg.General.Verbose = opts.verbose
	}
	if cmd.Flags().Changed("report") {
		cfg.General.ReportFormat = opts.reportFormat
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, opts options, action string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.General.LogFormat, cfg.General.Verbose)
	if err != nil {
		return err
	}

	l, err := layout.Resolve(cfg.General.ProjectRoot)
	if err != nil {
		return err
	}
	logger.Debug("resolved project layout", "root", l.Root(), "backend", l.Backend(),
		"frontend", l.Frontend(), "mobile", l.Mobile(), "plugin", l.Plugin())

	exe := runner.NewExecutor(runner.Config{Verbose: cfg.General.Verbose}, logger)
	st := steps.New(exe, stepsConfig(cfg), logger)
	notifier := notify.NewMultiNotifier(
		notify.NewDesktopNotifier(cfg.Notifications.Desktop, exe),
		notify.NewSlackNotifier(cfg.Notifications.SlackWebhook),
	)
	orch := pipeline.New(pipeline.Options{
		Layout:   l,
		Steps:    st.FullBuild(),
		Logger:   logger,
		Notifier: notifier,
	})

	out, err := dispatch.Standard(l, st, orch).Dispatch(cmd.Context(), action)
	if errors.Is(err, dispatch.ErrUnknownAction) {
		logger.Error("unknown action", "action", action)
		return err
	}

	if rerr := report.Render(cmd.OutOrStdout(), out, cfg.General.ReportFormat); rerr != nil {
		logger.Warn("rendering report failed", "error", rerr)
	}
	return err
}

func stepsConfig(cfg *config.Config) steps.Config {
	tools := make([]deps.Tool, 0, len(cfg.Tools.Probes))
	for _, p := range cfg.Tools.Probes {
		tools = append(tools, deps.Tool{Name: p.Name, Probe: p.Command})
	}

	return steps.Config{
		Commands: steps.Commands{
			Install:         cfg.Commands.Install,
			Build:           cfg.Commands.Build,
			BackendTest:     cfg.Commands.BackendTest,
			FrontendTest:    cfg.Commands.FrontendTest,
			MobileSync:      cfg.Commands.MobileSync,
			Archive:         cfg.Commands.Archive,
			ArchiveExcludes: cfg.Commands.ArchiveExcludes,
		},
		Plugin: steps.Plugin{
			Name:    cfg.Plugin.Name,
			Version: cfg.Plugin.Version,
			Files:   cfg.Plugin.Files,
		},
		Tools: tools,
	}
}

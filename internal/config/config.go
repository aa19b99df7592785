// Package config loads the TOML configuration of the deploy tool.
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Tools         ToolsConfig         `toml:"tools"`
	Commands      CommandsConfig      `toml:"commands"`
	Plugin        PluginConfig        `toml:"plugin"`
	Notifications NotificationsConfig `toml:"notifications"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	ProjectRoot  string `toml:"project_root"`
	Verbose      bool   `toml:"verbose"`
	LogFormat    string `toml:"log_format"`
	ReportFormat string `toml:"report_format"`
}

// ProbeConfig is one entry of the dependency checklist
type ProbeConfig struct {
	Name    string   `toml:"name"`
	Command []string `toml:"command"`
}

// ToolsConfig holds the dependency checklist
type ToolsConfig struct {
	PackageManager string        `toml:"package_manager"`
	Probes         []ProbeConfig `toml:"probes"`
}

// CommandsConfig holds the command vectors each step runs
type CommandsConfig struct {
	Install         []string `toml:"install"`
	Build           []string `toml:"build"`
	BackendTest     []string `toml:"backend_test"`
	FrontendTest    []string `toml:"frontend_test"`
	MobileSync      []string `toml:"mobile_sync"`
	Archive         []string `toml:"archive"`
	ArchiveExcludes []string `toml:"archive_excludes"`
}

// PluginConfig describes the WordPress plugin package
type PluginConfig struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Files   []string `toml:"files"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		General: GeneralConfig{
			LogFormat:    "text",
			ReportFormat: "text",
		},
		Tools: ToolsConfig{
			PackageManager: "npm",
			Probes: []ProbeConfig{
				{Name: "node", Command: []string{"node", "--version"}},
				{Name: "npm", Command: []string{"npm", "--version"}},
				{Name: "git", Command: []string{"git", "--version"}},
			},
		},
		Commands: CommandsConfig{
			Install:         []string{"npm", "install"},
			Build:           []string{"npm", "run", "build"},
			BackendTest:     []string{"npm", "test"},
			FrontendTest:    []string{"npm", "test", "--", "--watchAll=false"},
			MobileSync:      []string{"npx", "cap", "sync"},
			Archive:         []string{"zip", "-r"},
			ArchiveExcludes: []string{"*.git*", "node_modules/*", "*.DS_Store"},
		},
		Plugin: PluginConfig{
			Name:    "observatory-booking-plugin",
			Version: "1.0.0",
			Files:   []string{"observatory-booking.php", "assets/", "README.txt"},
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	// [[tools.probes]] tables append, so decode them into an empty list and
	// only fall back to the default checklist when the file has none
	defaultProbes := cfg.Tools.Probes
	cfg.Tools.Probes = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if len(cfg.Tools.Probes) == 0 {
		cfg.Tools.Probes = defaultProbes
	}

	cfg.applyPackageManager()

	cfg.General.ProjectRoot = ExpandPath(cfg.General.ProjectRoot)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// applyPackageManager swaps npm for the configured package manager in the
// commands that still hold their default value. Commands set explicitly in
// the file are left alone, even when they invoke npm.
func (c *Config) applyPackageManager() {
	pm := c.Tools.PackageManager
	if pm == "" || pm == "npm" {
		return
	}
	def := Default().Commands
	for _, cmd := range []struct{ current, fallback []string }{
		{c.Commands.Install, def.Install},
		{c.Commands.Build, def.Build},
		{c.Commands.BackendTest, def.BackendTest},
		{c.Commands.FrontendTest, def.FrontendTest},
	} {
		if slices.Equal(cmd.current, cmd.fallback) {
			cmd.current[0] = pm
		}
	}
	for i, p := range c.Tools.Probes {
		if p.Name == "npm" {
			c.Tools.Probes[i] = ProbeConfig{Name: pm, Command: []string{pm, "--version"}}
		}
	}
}

// Validate checks that every command vector and format is usable
func (c *Config) Validate() error {
	commands := []struct {
		key string
		cmd []string
	}{
		{"commands.install", c.Commands.Install},
		{"commands.build", c.Commands.Build},
		{"commands.backend_test", c.Commands.BackendTest},
		{"commands.frontend_test", c.Commands.FrontendTest},
		{"commands.mobile_sync", c.Commands.MobileSync},
		{"commands.archive", c.Commands.Archive},
	}
	for _, entry := range commands {
		if len(entry.cmd) == 0 || entry.cmd[0] == "" {
			return errors.Wrapf(ErrInvalid, "%s must not be empty", entry.key)
		}
	}

	for i, p := range c.Tools.Probes {
		if p.Name == "" || len(p.Command) == 0 {
			return errors.Wrapf(ErrInvalid, "tools.probes[%d] needs a name and a command", i)
		}
	}

	if c.Plugin.Name == "" || c.Plugin.Version == "" {
		return errors.Wrap(ErrInvalid, "plugin.name and plugin.version must be set")
	}

	switch c.General.LogFormat {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalid, "general.log_format %q (want text or json)", c.General.LogFormat)
	}
	switch c.General.ReportFormat {
	case "", "text", "yaml", "none":
	default:
		return errors.Wrapf(ErrInvalid, "general.report_format %q (want text, yaml or none)", c.General.ReportFormat)
	}
	return nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// LocalConfigName is the per-project config file searched for from the
// working directory upwards
const LocalConfigName = ".observatory-deploy.toml"

// FindLocalConfig walks up from the working directory and returns the first
// LocalConfigName found, or "" if there is none.
func FindLocalConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadWithLocalFallback loads explicitPath when set, otherwise the nearest
// local config, otherwise the user config at DefaultConfigPath.
func LoadWithLocalFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(ExpandPath(explicitPath))
	}
	if local := FindLocalConfig(); local != "" {
		return Load(local)
	}
	return Load(DefaultConfigPath())
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "observatory-deploy", "config.toml")
}

// Package deps verifies that the external tools the pipeline shells out to
// are installed and runnable.
package deps

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/logging"
	"github.com/hochfrequenz/observatory-deploy/internal/runner"
)

// Tool is a required external tool and the command that proves it works
type Tool struct {
	Name  string
	Probe []string
}

// DefaultTools returns the node/npm/git checklist
func DefaultTools() []Tool {
	return []Tool{
		{Name: "node", Probe: []string{"node", "--version"}},
		{Name: "npm", Probe: []string{"npm", "--version"}},
		{Name: "git", Probe: []string{"git", "--version"}},
	}
}

// Status is the probe result for one tool
type Status struct {
	Tool    string
	Present bool
	Version string
	Detail  string
}

// Report lists the status of every probed tool in checklist order
type Report struct {
	Tools []Status
}

// OK reports whether every tool is present
func (r Report) OK() bool {
	for _, s := range r.Tools {
		if !s.Present {
			return false
		}
	}
	return true
}

// Missing returns the names of tools whose probe failed
func (r Report) Missing() []string {
	var missing []string
	for _, s := range r.Tools {
		if !s.Present {
			missing = append(missing, s.Tool)
		}
	}
	return missing
}

// Result folds the report into a step result
func (r Report) Result() domain.Result {
	missing := r.Missing()
	if len(missing) == 0 {
		return domain.Success()
	}
	return domain.Failure(domain.KindToolMissing, "not installed or not in PATH: %s", strings.Join(missing, ", "))
}

// Checker probes a fixed checklist of tools
type Checker struct {
	runner runner.Runner
	tools  []Tool
	logger *slog.Logger
}

// NewChecker creates a checker. Probes run in the working directory of the
// process, independent of the project layout.
func NewChecker(r runner.Runner, tools []Tool, logger *slog.Logger) *Checker {
	return &Checker{runner: r, tools: tools, logger: logger}
}

// CheckAll runs every probe. A failing probe never stops the remaining ones.
func (c *Checker) CheckAll(ctx context.Context) Report {
	log := logging.FromContext(ctx, c.logger).With("component", "deps")
	log.Info("checking dependencies", "tools", len(c.tools))

	report := Report{Tools: make([]Status, 0, len(c.tools))}
	for _, tool := range c.tools {
		res := c.runner.Run(ctx, runner.Command{Args: tool.Probe})
		status := Status{Tool: tool.Name, Present: res.Success()}
		if status.Present {
			status.Version = firstLine(res.Stdout)
			log.Info("tool found", "tool", tool.Name, "version", status.Version)
		} else {
			status.Detail = res.Diagnostic()
			log.Error("tool is not installed or not in PATH", "tool", tool.Name, "detail", status.Detail)
		}
		report.Tools = append(report.Tools, status)
	}
	return report
}

// Check is the step-shaped form of CheckAll
func (c *Checker) Check(ctx context.Context) domain.Result {
	return c.CheckAll(ctx).Result()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// Package runnertest provides a scripted runner.Runner that records
// invocations instead of launching processes.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/hochfrequenz/observatory-deploy/internal/runner"
)

// Rule decides the outcome of matching commands
type Rule struct {
	// Prefix matches when the command line starts with it. Empty matches all.
	Prefix string
	// Dir matches the working directory when non-empty
	Dir      string
	ExitCode int
	Stderr   string
	Stdout   string
	// Effect runs before the result is returned, e.g. to create files a
	// real tool would have produced
	Effect func(cmd runner.Command)
}

func (r Rule) matches(cmd runner.Command) bool {
	if r.Dir != "" && r.Dir != cmd.Dir {
		return false
	}
	return strings.HasPrefix(cmd.String(), r.Prefix)
}

// Runner records every command and answers with the first matching rule.
// Unmatched commands succeed.
type Runner struct {
	mu    sync.Mutex
	rules []Rule
	calls []runner.Command
}

// New creates a fake runner with the given rules
func New(rules ...Rule) *Runner {
	return &Runner{rules: rules}
}

// Fail makes commands starting with prefix exit with status 1
func (f *Runner) Fail(prefix, stderr string) *Runner {
	return f.On(Rule{Prefix: prefix, ExitCode: 1, Stderr: stderr})
}

// FailIn makes commands starting with prefix in dir exit with status 1
func (f *Runner) FailIn(prefix, dir, stderr string) *Runner {
	return f.On(Rule{Prefix: prefix, Dir: dir, ExitCode: 1, Stderr: stderr})
}

// On adds a rule. Rules added earlier win.
func (f *Runner) On(rule Rule) *Runner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, rule)
	return f
}

// Run implements runner.Runner
func (f *Runner) Run(_ context.Context, cmd runner.Command) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	rules := append([]Rule(nil), f.rules...)
	f.mu.Unlock()

	for _, rule := range rules {
		if !rule.matches(cmd) {
			continue
		}
		if rule.Effect != nil {
			rule.Effect(cmd)
		}
		return runner.Result{Command: cmd, ExitCode: rule.ExitCode, Stdout: rule.Stdout, Stderr: rule.Stderr}
	}
	return runner.Result{Command: cmd}
}

// Calls returns the recorded commands in invocation order
func (f *Runner) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// Lines returns each recorded command as "dir: args"
func (f *Runner) Lines() []string {
	var lines []string
	for _, c := range f.Calls() {
		lines = append(lines, c.Dir+": "+c.String())
	}
	return lines
}

// Ran reports whether any recorded command started with prefix
func (f *Runner) Ran(prefix string) bool {
	for _, c := range f.Calls() {
		if strings.HasPrefix(c.String(), prefix) {
			return true
		}
	}
	return false
}

// Package report renders the outcome of an action for humans (styled text)
// or machines (YAML). It only reads results.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hochfrequenz/observatory-deploy/internal/dispatch"
)

// Formats
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatNone = "none"
)

// ErrUnknownFormat is returned for an unsupported report format
var ErrUnknownFormat = errors.New("unknown report format")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	skippedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			PaddingLeft(4)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Render writes out in the given format
func Render(w io.Writer, out dispatch.Outcome, format string) error {
	switch format {
	case FormatNone:
		return nil
	case "", FormatText:
		_, err := io.WriteString(w, Text(out)+"\n")
		return err
	case FormatYAML:
		data, err := YAML(out)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
}

// Text renders a styled summary
func Text(out dispatch.Outcome) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("observatory-deploy " + string(out.Action)))
	b.WriteString("\n")

	if out.Dependencies != nil {
		for _, t := range out.Dependencies.Tools {
			if t.Present {
				b.WriteString(okStyle.Render("✓ "+t.Tool) + " " + skippedStyle.Render(t.Version) + "\n")
			} else {
				b.WriteString(failStyle.Render("✗ "+t.Tool+" is not installed or not in PATH") + "\n")
				if t.Detail != "" {
					b.WriteString(detailStyle.Render(t.Detail) + "\n")
				}
			}
		}
	}

	if out.Run != nil {
		b.WriteString(skippedStyle.Render("run "+out.Run.ID) + "\n")
		for _, s := range out.Run.Steps {
			line := fmt.Sprintf("%s (%s)", s.Description, formatDuration(s.Duration))
			if s.Result.OK() {
				b.WriteString(okStyle.Render("✓ "+line) + "\n")
				continue
			}
			b.WriteString(failStyle.Render("✗ "+line) + "\n")
			b.WriteString(detailStyle.Render(s.Result.Detail) + "\n")
		}
		if failed, ok := out.Run.FailedStep(); ok {
			b.WriteString(skippedStyle.Render(fmt.Sprintf("remaining steps skipped after %s failed", failed.Name)) + "\n")
		}
	} else if out.Dependencies == nil && !out.Result.OK() {
		b.WriteString(detailStyle.Render(out.Result.Detail) + "\n")
	}

	status := okStyle.Render("SUCCESS")
	if !out.Result.OK() {
		status = failStyle.Render("FAILED")
	}
	b.WriteString(sectionStyle.Render(fmt.Sprintf("%s in %s", status, formatDuration(out.Duration))))
	return b.String()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	// empty labels leave a trailing space
	return strings.TrimSpace(humanize.RelTime(time.Time{}, time.Time{}.Add(d), "", ""))
}

type yamlTool struct {
	Name    string `yaml:"name"`
	Present bool   `yaml:"present"`
	Version string `yaml:"version,omitempty"`
	Detail  string `yaml:"detail,omitempty"`
}

type yamlStep struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	OK          bool    `yaml:"ok"`
	Kind        string  `yaml:"kind,omitempty"`
	Detail      string  `yaml:"detail,omitempty"`
	Seconds     float64 `yaml:"seconds"`
}

type yamlRun struct {
	ID         string     `yaml:"id"`
	Status     string     `yaml:"status"`
	FailedStep string     `yaml:"failed_step,omitempty"`
	Steps      []yamlStep `yaml:"steps"`
}

type yamlReport struct {
	Action       string     `yaml:"action"`
	OK           bool       `yaml:"ok"`
	Kind         string     `yaml:"kind,omitempty"`
	Detail       string     `yaml:"detail,omitempty"`
	Seconds      float64    `yaml:"seconds"`
	Dependencies []yamlTool `yaml:"dependencies,omitempty"`
	Run          *yamlRun   `yaml:"run,omitempty"`
}

// YAML renders a machine readable summary
func YAML(out dispatch.Outcome) ([]byte, error) {
	r := yamlReport{
		Action:  string(out.Action),
		OK:      out.Result.OK(),
		Kind:    string(out.Result.Kind),
		Detail:  out.Result.Detail,
		Seconds: out.Duration.Seconds(),
	}

	if out.Dependencies != nil {
		for _, t := range out.Dependencies.Tools {
			r.Dependencies = append(r.Dependencies, yamlTool{
				Name: t.Tool, Present: t.Present, Version: t.Version, Detail: t.Detail,
			})
		}
	}

	if out.Run != nil {
		run := &yamlRun{ID: out.Run.ID, Status: string(out.Run.Status)}
		if failed, ok := out.Run.FailedStep(); ok {
			run.FailedStep = string(failed.Name)
		}
		for _, s := range out.Run.Steps {
			run.Steps = append(run.Steps, yamlStep{
				Name:        string(s.Name),
				Description: s.Description,
				OK:          s.Result.OK(),
				Kind:        string(s.Result.Kind),
				Detail:      s.Result.Detail,
				Seconds:     s.Duration.Seconds(),
			})
		}
		r.Run = run
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "encoding report")
	}
	return data, nil
}

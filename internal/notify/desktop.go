package notify

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hochfrequenz/observatory-deploy/internal/runner"
)

// DesktopNotifier shows a notification through the platform's notification
// tool. Other platforms are silently skipped.
type DesktopNotifier struct {
	enabled bool
	runner  runner.Runner
	goos    string
}

func NewDesktopNotifier(enabled bool, r runner.Runner) *DesktopNotifier {
	return &DesktopNotifier{enabled: enabled, runner: r, goos: runtime.GOOS}
}

func (d *DesktopNotifier) Notify(ctx context.Context, n Notification) error {
	if !d.enabled {
		return nil
	}

	args := d.command(n)
	if args == nil {
		return nil
	}

	res := d.runner.Run(ctx, runner.Command{Args: args})
	if !res.Success() {
		return fmt.Errorf("%s: %s", args[0], res.Diagnostic())
	}
	return nil
}

func (d *DesktopNotifier) command(n Notification) []string {
	switch d.goos {
	case "darwin":
		return []string{"osascript", "-e", fmt.Sprintf("display notification %q with title %q", n.Message, n.Title)}
	case "linux":
		return []string{"notify-send", "--icon", icon(n.Level), n.Title, n.Message}
	default:
		return nil
	}
}

func icon(l Level) string {
	switch l {
	case LevelSuccess:
		return "dialog-positive"
	case LevelFailure:
		return "dialog-error"
	default:
		return "dialog-information"
	}
}

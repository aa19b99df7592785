//go:build integration

package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// binaryPath builds the CLI into a temp directory and returns its path
func binaryPath(t *testing.T) string {
	t.Helper()
	out := filepath.Join(t.TempDir(), "observatory-deploy")
	cmd := exec.Command("go", "build", "-o", out, "../cmd/observatory-deploy")
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("Failed to build binary: %v\n%s", err, b)
	}
	return out
}

// fakeNPM logs every invocation and fails when the failure marker for
// "<dir> <args>" exists. "run build" in the frontend produces build/.
const fakeNPM = `#!/bin/sh
if [ "$1" = "--version" ]; then
  echo "10.2.4"
  exit 0
fi
dir=$(basename "$PWD")
echo "$dir npm $*" >> "$OBS_CALL_LOG"
if [ -n "$OBS_FAIL" ] && [ "$dir npm $*" = "$OBS_FAIL" ]; then
  echo "npm ERR! simulated failure" >&2
  exit 1
fi
if [ "$dir" = "frontend" ] && [ "$1" = "run" ] && [ "$2" = "build" ]; then
  mkdir -p build && echo "<html></html>" > build/index.html
fi
exit 0
`

const fakeNPX = `#!/bin/sh
echo "$(basename "$PWD") npx $*" >> "$OBS_CALL_LOG"
exit 0
`

const fakeVersion = `#!/bin/sh
echo "$(basename "$0") 1.0.0"
`

// fakeZip writes a non-empty file at the archive path
const fakeZip = `#!/bin/sh
echo "$(basename "$PWD") zip $*" >> "$OBS_CALL_LOG"
ls -R . > "$2"
`

// toolEnv creates the fake toolchain and returns the environment to run
// the binary with, plus the path of the call log.
func toolEnv(t *testing.T, fail string) ([]string, string) {
	t.Helper()
	bin := t.TempDir()
	scripts := map[string]string{
		"npm":  fakeNPM,
		"npx":  fakeNPX,
		"node": fakeVersion,
		"git":  fakeVersion,
		"zip":  fakeZip,
	}
	for name, script := range scripts {
		if err := os.WriteFile(filepath.Join(bin, name), []byte(script), 0755); err != nil {
			t.Fatalf("Failed to write fake %s: %v", name, err)
		}
	}

	logPath := filepath.Join(t.TempDir(), "calls.log")
	env := append(os.Environ(),
		"PATH="+bin+string(os.PathListSeparator)+"/usr/bin"+string(os.PathListSeparator)+"/bin",
		"OBS_CALL_LOG="+logPath,
		"OBS_FAIL="+fail,
		"HOME="+t.TempDir(),
	)
	return env, logPath
}

// newProject creates a complete project tree
func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range []string{"backend", "frontend", "mobile", "wordpress-plugin/assets"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", d, err)
		}
	}
	files := map[string]string{
		"wordpress-plugin/observatory-booking.php": "<?php\n",
		"wordpress-plugin/assets/booking-app.js":   "console.log('booking')\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return root
}

// readCalls returns the logged tool invocations
func readCalls(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("Failed to read call log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

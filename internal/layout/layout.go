// Package layout resolves the fixed directory layout of an observatory
// project from a single root path.
package layout

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Fixed subdirectories relative to the project root
const (
	BackendDir       = "backend"
	FrontendDir      = "frontend"
	MobileDir        = "mobile"
	PluginDir        = "wordpress-plugin"
	DistDir          = "dist"
	FrontendBuildDir = "build"
	MobileWebDir     = "www"
)

// Layout holds the absolute paths of every directory role. It is computed
// once per run and never changes afterwards.
type Layout struct {
	root     string
	backend  string
	frontend string
	mobile   string
	plugin   string
}

// Resolve builds a Layout from root. An empty root defaults to the directory
// containing the running executable. Subdirectories are not checked for
// existence; missing ones surface later as step failures.
func Resolve(root string) (Layout, error) {
	if root == "" {
		dir, err := executableDir()
		if err != nil {
			return Layout{}, errors.Wrap(err, "locating default project root")
		}
		root = dir
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, errors.Wrapf(err, "resolving project root %q", root)
	}

	return Layout{
		root:     abs,
		backend:  filepath.Join(abs, BackendDir),
		frontend: filepath.Join(abs, FrontendDir),
		mobile:   filepath.Join(abs, MobileDir),
		plugin:   filepath.Join(abs, PluginDir),
	}, nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// Root returns the project root
func (l Layout) Root() string { return l.root }

// Backend returns the backend directory
func (l Layout) Backend() string { return l.backend }

// Frontend returns the frontend directory
func (l Layout) Frontend() string { return l.frontend }

// Mobile returns the mobile app directory
func (l Layout) Mobile() string { return l.mobile }

// Plugin returns the WordPress plugin source directory
func (l Layout) Plugin() string { return l.plugin }

// FrontendBuild returns the frontend build output directory
func (l Layout) FrontendBuild() string {
	return filepath.Join(l.frontend, FrontendBuildDir)
}

// MobileWeb returns the mobile web-assets directory fed by the frontend build
func (l Layout) MobileWeb() string {
	return filepath.Join(l.mobile, MobileWebDir)
}

// Dist returns the directory holding packaged artifacts
func (l Layout) Dist() string {
	return filepath.Join(l.root, DistDir)
}

// PluginStaging returns the directory the plugin files are copied into
// before archiving
func (l Layout) PluginStaging() string {
	return filepath.Join(l.Dist(), PluginDir)
}

// PluginArchive returns the path of the versioned plugin archive
func (l Layout) PluginArchive(name, version string) string {
	return filepath.Join(l.Dist(), name+"-v"+version+".zip")
}

// Dir pairs a directory role with its path
type Dir struct {
	Role string
	Path string
}

// InstallOrder returns the directories that receive a package install, in
// the order installs must run.
func (l Layout) InstallOrder() []Dir {
	return []Dir{
		{Role: "root", Path: l.root},
		{Role: BackendDir, Path: l.backend},
		{Role: FrontendDir, Path: l.frontend},
		{Role: MobileDir, Path: l.mobile},
	}
}

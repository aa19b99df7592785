package steps

import (
	"github.com/hochfrequenz/observatory-deploy/internal/domain"
	"github.com/hochfrequenz/observatory-deploy/internal/pipeline"
)

// Step returns the descriptor for name
func (s *Steps) Step(name domain.StepName) (pipeline.Step, bool) {
	for _, step := range s.All() {
		if step.Name == name {
			return step, true
		}
	}
	return pipeline.Step{}, false
}

// All returns every step descriptor
func (s *Steps) All() []pipeline.Step {
	return append(s.FullBuild(), pipeline.Step{
		Name:        domain.StepRunTests,
		Description: "Running tests",
		Action:      s.RunTests,
	})
}

// FullBuild returns the steps of a full build in execution order
func (s *Steps) FullBuild() []pipeline.Step {
	return []pipeline.Step{
		{Name: domain.StepCheckDependencies, Description: "Checking dependencies", Action: s.CheckDependencies},
		{Name: domain.StepInstallDependencies, Description: "Installing dependencies", Action: s.InstallDependencies},
		{Name: domain.StepBuildBackend, Description: "Building backend", Action: s.BuildBackend},
		{Name: domain.StepBuildFrontend, Description: "Building frontend", Action: s.BuildFrontend},
		{Name: domain.StepSyncMobile, Description: "Syncing mobile app", Action: s.SyncMobile},
		{Name: domain.StepPackagePlugin, Description: "Creating WordPress package", Action: s.PackagePlugin},
	}
}

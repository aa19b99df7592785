package domain

// StepName identifies a pipeline step
type StepName string

const (
	StepCheckDependencies   StepName = "check-deps"
	StepInstallDependencies StepName = "install"
	StepBuildBackend        StepName = "build-backend"
	StepBuildFrontend       StepName = "build-frontend"
	StepSyncMobile          StepName = "sync-mobile"
	StepPackagePlugin       StepName = "package-plugin"
	StepRunTests            StepName = "test"
)

// FailureKind classifies why a step failed. It only changes log wording
// and reports; every kind maps to the same exit code.
type FailureKind string

const (
	KindNone          FailureKind = ""
	KindToolMissing   FailureKind = "tool_missing"
	KindCommandFailed FailureKind = "command_failed"
	KindBuildMissing  FailureKind = "build_missing"
	KindPathMissing   FailureKind = "path_missing"
	KindFilesystem    FailureKind = "filesystem"
)

// RunStatus represents the terminal state of a pipeline run
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunFailed  RunStatus = "failed"
)

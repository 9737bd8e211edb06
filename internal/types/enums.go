package types

type SourceType string

const (
	SourceTypeGit     SourceType = "git"
	SourceTypeTarball SourceType = "tarball"
	SourceTypeZip     SourceType = "zip"
	SourceTypeLocal   SourceType = "local"
)

type BuildSystem string

const (
	BuildSystemAutotools BuildSystem = "autotools"
	BuildSystemCMake     BuildSystem = "cmake"
	BuildSystemMeson     BuildSystem = "meson"
	BuildSystemMake      BuildSystem = "make"
	BuildSystemCargo     BuildSystem = "cargo"
	BuildSystemCustom    BuildSystem = "custom"
)

// NodeState tracks a plan node through one install session.
// Installed, Skipped and Failed are terminal.
type NodeState string

const (
	NodeStatePending    NodeState = "pending"
	NodeStateFetching   NodeState = "fetching"
	NodeStatePatching   NodeState = "patching"
	NodeStateBuilding   NodeState = "building"
	NodeStateInstalling NodeState = "installing"
	NodeStateInstalled  NodeState = "installed"
	NodeStateSkipped    NodeState = "skipped"
	NodeStateFailed     NodeState = "failed"
)

// Phase names one stage of node execution, used in failure reports.
type Phase string

const (
	PhaseFetch   Phase = "fetch"
	PhasePatch   Phase = "patch"
	PhaseBuild   Phase = "build"
	PhaseInstall Phase = "install"
)

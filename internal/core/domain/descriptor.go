package domain

// DefaultDescriptorFile is the descriptor file name looked up by default.
const DefaultDescriptorFile = "kiln.yaml"

// DefaultMarker is the variable set to "1" on every descriptor-driven build.
const DefaultMarker = "KILN_BUILD"

// VersionFromSCM selects the source-control version strategy in a descriptor.
const VersionFromSCM = "scm"

// Descriptor is the declarative build description loaded from disk.
type Descriptor struct {
	Name        string
	Version     string
	VersionFrom string
	Requires    []Requirement
	Overlays    Overlays
	Toolchain   ToolchainSpec
	Build       BuildSpec
	Artifacts   ArtifactSpec
}

// Requirement is a pinned dependency with an optional platform condition.
type Requirement struct {
	Record DependencyRecord
	// When is nil for unconditional requirements.
	When Predicate
}

// ToolchainSpec configures the toolchain parameter generator.
type ToolchainSpec struct {
	// Marker is the variable name flagging a descriptor-driven build.
	Marker string
	// Generator is the native build system generator, such as "Ninja".
	Generator string
	// WindowsDefaults enables the minimum-API define and linker substitution on Windows.
	WindowsDefaults bool
	Variables       map[string]Param
	Definitions     map[string]string
	Rules           []ToolchainRule
}

// ToolchainRule adds variables and definitions when its condition holds.
type ToolchainRule struct {
	Name        string
	When        Predicate
	Variables   map[string]Param
	Definitions map[string]string
}

// BuildSpec configures the phase lifecycle.
type BuildSpec struct {
	// Preflight lists targets built in isolation before the full build.
	Preflight []string
	// Verify enables the post-install verification phase.
	Verify bool
	// Jobs is passed to the toolchain untouched. Zero leaves the choice to the toolchain.
	Jobs int
}

// ArtifactSpec configures how dependency artifacts are obtained.
type ArtifactSpec struct {
	// FetchCommand is run on cache misses. Placeholders: {ref} {name} {version} {hash} {dest} {options}.
	FetchCommand []string
	// Concurrency bounds parallel fetches. Zero selects the default.
	Concurrency int
}

// MarkerName returns the configured marker or the default.
func (t ToolchainSpec) MarkerName() string {
	if t.Marker == "" {
		return DefaultMarker
	}
	return t.Marker
}

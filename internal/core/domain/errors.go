package domain

import "go.trai.ch/zerr"

var (
	// ErrDuplicateDependency is returned when two requirements share an identifier within one resolution.
	ErrDuplicateDependency = zerr.New("duplicate dependency")

	// ErrConflictingOverride is returned when two simultaneously-true rules set the same (package, option) pair.
	ErrConflictingOverride = zerr.New("conflicting override")

	// ErrArtifactUnavailable is returned when a dependency cannot be resolved to a local artifact path.
	ErrArtifactUnavailable = zerr.New("artifact unavailable")

	// ErrToolchainPhaseFailure is returned when the external toolchain reports failure for a phase.
	ErrToolchainPhaseFailure = zerr.New("toolchain phase failure")

	// ErrInvalidDescriptor is returned when the build descriptor is malformed.
	ErrInvalidDescriptor = zerr.New("invalid descriptor")

	// ErrDescriptorNotFound is returned when the build descriptor file does not exist.
	ErrDescriptorNotFound = zerr.New("descriptor not found")

	// ErrInvalidPlatform is returned when the target platform is incomplete or unknown.
	ErrInvalidPlatform = zerr.New("invalid platform")

	// ErrInvalidGraph is returned when the executor is handed a graph it cannot run.
	ErrInvalidGraph = zerr.New("invalid resolved graph")

	// ErrVersionResolution is returned when no version could be determined for the build.
	ErrVersionResolution = zerr.New("version resolution failed")
)

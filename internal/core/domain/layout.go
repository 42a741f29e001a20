package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal workspace directory.
	KilnDirName = ".kiln"

	// StateFileName is the name of the build record store.
	StateFileName = "state.json"

	// ArtifactsDirName is the name of the artifact cache directory.
	ArtifactsDirName = "artifacts"

	// GeneratorsDirName holds generated toolchain files inside the build directory.
	GeneratorsDirName = "generators"

	// ToolchainFileName is the generated CMake toolchain file.
	ToolchainFileName = "kiln_toolchain.cmake"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultStatePath returns the default path for the build record store.
// It joins .kiln and state.json.
func DefaultStatePath() string {
	return filepath.Join(KilnDirName, StateFileName)
}

// DefaultBuildDir follows the cmake_layout convention of build/<BuildType>.
func DefaultBuildDir(buildType string) string {
	if buildType == "" {
		buildType = DefaultBuildType
	}
	return filepath.Join("build", buildType)
}

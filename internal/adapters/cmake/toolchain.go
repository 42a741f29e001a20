// Package cmake drives CMake and CTest through the build phases.
package cmake

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	defaultCMake = "cmake"
	defaultCTest = "ctest"
)

// Toolchain implements ports.Toolchain on top of the cmake and ctest executables.
type Toolchain struct {
	runner *shell.Runner
	logger ports.Logger
	cmake  string
	ctest  string
}

// Option configures a Toolchain.
type Option func(*Toolchain)

// WithCMake sets the cmake executable.
func WithCMake(path string) Option {
	return func(t *Toolchain) { t.cmake = path }
}

// WithCTest sets the ctest executable.
func WithCTest(path string) Option {
	return func(t *Toolchain) { t.ctest = path }
}

// New creates a Toolchain.
func New(runner *shell.Runner, logger ports.Logger, opts ...Option) *Toolchain {
	t := &Toolchain{
		runner: runner,
		logger: logger,
		cmake:  defaultCMake,
		ctest:  defaultCTest,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run executes one phase. Output is streamed to stdout and stderr.
func (t *Toolchain) Run(
	ctx context.Context,
	phase domain.BuildPhase,
	params domain.ToolchainParameters,
	stdout, stderr io.Writer,
) error {
	switch phase.Phase {
	case domain.PhaseConfigure:
		return t.configure(ctx, params, stdout, stderr)
	case domain.PhaseGenerate:
		path, err := WriteToolchainFile(params)
		if err != nil {
			return err
		}
		t.logger.Debug("wrote " + path)
	case domain.PhaseBuild, domain.PhaseInstall, domain.PhaseVerify:
	default:
		return zerr.With(zerr.New("unknown build phase"), "phase", string(phase.Phase))
	}

	return t.runner.Run(ctx, t.Command(phase, params), stdout, stderr)
}

// configure checks the tool and source tree and lays out the build tree.
func (t *Toolchain) configure(ctx context.Context, params domain.ToolchainParameters, stdout, stderr io.Writer) error {
	if err := t.runner.Run(ctx, shell.Command{Name: t.cmake, Args: []string{"--version"}}, stdout, stderr); err != nil {
		return err
	}

	lists := filepath.Join(params.SourceDir, "CMakeLists.txt")
	if _, err := os.Stat(lists); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.New("source directory has no CMakeLists.txt"), "path", lists)
		}
		return zerr.With(zerr.Wrap(err, "failed to inspect source directory"), "path", lists)
	}

	dir := filepath.Join(params.BuildDir, domain.GeneratorsDirName)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create build directory"), "path", dir)
	}
	return nil
}

// Command returns the external command for phase. Configure only covers its version probe.
func (t *Toolchain) Command(phase domain.BuildPhase, params domain.ToolchainParameters) shell.Command {
	buildType := params.BuildType
	if buildType == "" {
		buildType = domain.DefaultBuildType
	}

	switch phase.Phase {
	case domain.PhaseConfigure:
		return shell.Command{Name: t.cmake, Args: []string{"--version"}}

	case domain.PhaseGenerate:
		args := []string{"-S", params.SourceDir, "-B", params.BuildDir}
		if params.Generator != "" {
			args = append(args, "-G", params.Generator)
		}
		args = append(args, "-DCMAKE_TOOLCHAIN_FILE="+filepath.ToSlash(ToolchainFilePath()))
		args = append(args, params.CacheArgs()...)
		return shell.Command{Name: t.cmake, Args: args}

	case domain.PhaseBuild:
		args := []string{"--build", params.BuildDir, "--config", buildType}
		if phase.Target != "" {
			args = append(args, "--target", phase.Target)
		}
		if params.Jobs > 0 {
			args = append(args, "--parallel", strconv.Itoa(params.Jobs))
		}
		return shell.Command{Name: t.cmake, Args: args}

	case domain.PhaseInstall:
		args := []string{"--install", params.BuildDir, "--config", buildType}
		if params.InstallPrefix != "" {
			args = append(args, "--prefix", params.InstallPrefix)
		}
		return shell.Command{Name: t.cmake, Args: args}

	case domain.PhaseVerify:
		return shell.Command{
			Name: t.ctest,
			Args: []string{"--test-dir", params.BuildDir, "-C", buildType, "--output-on-failure"},
		}
	}

	return shell.Command{}
}

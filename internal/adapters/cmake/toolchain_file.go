package cmake

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// ToolchainFilePath returns the generated toolchain file location relative to the build directory.
func ToolchainFilePath() string {
	return filepath.Join(domain.GeneratorsDirName, domain.ToolchainFileName)
}

// RenderToolchainFile renders params as a CMake toolchain file. Output is
// sorted by name so equal parameters render identical files.
func RenderToolchainFile(params domain.ToolchainParameters) []byte {
	var b bytes.Buffer
	b.WriteString("# Generated by kiln. Do not edit.\n")
	b.WriteString("include_guard()\n")

	if vars := params.SortedVariables(); len(vars) > 0 {
		b.WriteString("\n")
		for _, v := range vars {
			fmt.Fprintf(&b, "set(%s %s CACHE %s \"\" FORCE)\n", v.Name, quote(v.Param.Value), v.Param.Kind.CacheType())
		}
	}

	if params.InstallPrefix != "" {
		b.WriteString("\n")
		fmt.Fprintf(&b, "set(CMAKE_INSTALL_PREFIX %s CACHE PATH \"\" FORCE)\n", quote(params.InstallPrefix))
	}

	if defs := params.SortedDefinitions(); len(defs) > 0 {
		b.WriteString("\nadd_compile_definitions(\n")
		for _, d := range defs {
			fmt.Fprintf(&b, "  %s\n", quote(d.String()))
		}
		b.WriteString(")\n")
	}

	return b.Bytes()
}

// WriteToolchainFile writes the rendered file under the build directory and
// returns its path.
func WriteToolchainFile(params domain.ToolchainParameters) (string, error) {
	path := filepath.Join(params.BuildDir, ToolchainFilePath())
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to create generators directory"), "path", filepath.Dir(path))
	}
	//nolint:gosec // Path is derived from the build directory
	if err := os.WriteFile(path, RenderToolchainFile(params), domain.FilePerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to write toolchain file"), "path", path)
	}
	return path, nil
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
)

// addResolveFlags registers the flags shared by build and plan.
func addResolveFlags(flags *pflag.FlagSet) {
	flags.StringP("descriptor", "f", domain.DefaultDescriptorFile, "Path to the build descriptor")
	flags.String("os", "", "Target operating system (defaults to the host)")
	flags.String("compiler", "", "Target compiler")
	flags.String("build-type", domain.DefaultBuildType, "Build type")
	flags.String("arch", "", "Target architecture (defaults to the host)")
	flags.String("version", "", "Explicit version, overrides every other source")
	flags.Bool("scm-version", false, "Derive the version from git describe")
	flags.IntP("jobs", "j", 0, "Parallel build jobs passed to the toolchain")
	flags.StringSlice("preflight", nil, "Targets built in isolation before the full build (overrides the descriptor)")
	flags.Bool("verify", false, "Run the verification phase after install")
	flags.String("source-dir", "", "Source directory (default \".\")")
	flags.String("build-dir", "", "Build directory (default \"build/<build-type>\")")
	flags.String("install-prefix", "", "Install prefix")
	flags.String("generator", "", "CMake generator (overrides the descriptor)")
}

// buildOptions reads the shared flags. Platform settings not given on the
// command line come from the host.
func buildOptions(cmd *cobra.Command) app.BuildOptions {
	flags := cmd.Flags()
	str := func(name string) string {
		v, _ := flags.GetString(name)
		return strings.TrimSpace(v)
	}

	platform := domain.HostPlatform()
	if v := str("os"); v != "" {
		platform.OS = canonicalOS(v)
	}
	if v := str("compiler"); v != "" {
		platform.Compiler = v
	}
	if v := str("build-type"); v != "" {
		platform.BuildType = v
	}
	if v := str("arch"); v != "" {
		platform.Arch = v
	}

	scm, _ := flags.GetBool("scm-version")
	jobs, _ := flags.GetInt("jobs")
	verify, _ := flags.GetBool("verify")

	opts := app.BuildOptions{
		DescriptorPath: str("descriptor"),
		Platform:       platform,
		Version:        str("version"),
		SCMVersion:     scm,
		Jobs:           jobs,
		Verify:         verify,
		SourceDir:      str("source-dir"),
		BuildDir:       str("build-dir"),
		InstallPrefix:  str("install-prefix"),
		Generator:      str("generator"),
	}
	if flags.Changed("preflight") {
		preflight, _ := flags.GetStringSlice("preflight")
		opts.Preflight = append([]string{}, preflight...)
	}
	return opts
}

func canonicalOS(v string) string {
	for _, os := range []string{domain.OSWindows, domain.OSLinux, domain.OSMacos} {
		if strings.EqualFold(v, os) {
			return os
		}
	}
	return v
}

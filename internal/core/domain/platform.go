package domain

import (
	"runtime"
	"strings"

	"go.trai.ch/zerr"
)

// Operating systems understood by the built-in rules.
const (
	OSWindows = "Windows"
	OSLinux   = "Linux"
	OSMacos   = "Macos"
)

// Setting names a single axis of the build target.
type Setting string

const (
	// SettingOS is the operating system axis.
	SettingOS Setting = "os"
	// SettingCompiler is the compiler axis.
	SettingCompiler Setting = "compiler"
	// SettingBuildType is the build type axis (Release, Debug, ...).
	SettingBuildType Setting = "build_type"
	// SettingArch is the CPU architecture axis.
	SettingArch Setting = "arch"
)

// DefaultBuildType is used when no build type is given.
const DefaultBuildType = "Release"

// Platform describes the target of a build.
type Platform struct {
	OS        string `json:"os" yaml:"os"`
	Compiler  string `json:"compiler,omitempty" yaml:"compiler,omitempty"`
	BuildType string `json:"build_type,omitempty" yaml:"build_type,omitempty"`
	Arch      string `json:"arch,omitempty" yaml:"arch,omitempty"`
}

// HostPlatform returns the platform of the running process with a Release build type.
func HostPlatform() Platform {
	p := Platform{BuildType: DefaultBuildType}

	switch runtime.GOOS {
	case "windows":
		p.OS = OSWindows
	case "darwin":
		p.OS = OSMacos
	default:
		p.OS = OSLinux
	}

	switch runtime.GOARCH {
	case "amd64":
		p.Arch = "x86_64"
	case "arm64":
		p.Arch = "armv8"
	case "386":
		p.Arch = "x86"
	default:
		p.Arch = runtime.GOARCH
	}

	return p
}

// Validate checks that the platform carries the settings resolution depends on.
func (p Platform) Validate() error {
	if strings.TrimSpace(p.OS) == "" {
		return zerr.With(zerr.Wrap(ErrInvalidPlatform, "operating system is required"), "setting", string(SettingOS))
	}
	return nil
}

// IsWindows reports whether the platform targets Windows.
func (p Platform) IsWindows() bool {
	return strings.EqualFold(p.OS, OSWindows)
}

// Get returns the value of a single setting.
func (p Platform) Get(s Setting) string {
	switch s {
	case SettingOS:
		return p.OS
	case SettingCompiler:
		return p.Compiler
	case SettingBuildType:
		return p.BuildType
	case SettingArch:
		return p.Arch
	default:
		return ""
	}
}

// String renders the platform as a compact settings list.
func (p Platform) String() string {
	parts := make([]string, 0, 4)
	for _, s := range []Setting{SettingOS, SettingCompiler, SettingBuildType, SettingArch} {
		if v := p.Get(s); v != "" {
			parts = append(parts, string(s)+"="+v)
		}
	}
	return strings.Join(parts, " ")
}

// ParseSetting converts a descriptor key into a Setting.
func ParseSetting(s string) (Setting, bool) {
	switch Setting(strings.ToLower(s)) {
	case SettingOS:
		return SettingOS, true
	case SettingCompiler:
		return SettingCompiler, true
	case SettingBuildType, "build-type", "buildtype":
		return SettingBuildType, true
	case SettingArch:
		return SettingArch, true
	default:
		return "", false
	}
}

package domain

import (
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ParamKind is the type of a toolchain variable.
type ParamKind int

const (
	// ParamString is a free-form string.
	ParamString ParamKind = iota
	// ParamBool is a boolean rendered as ON/OFF.
	ParamBool
	// ParamPath is a filesystem path or path list.
	ParamPath
)

// CacheType returns the CMake cache type for the kind.
func (k ParamKind) CacheType() string {
	switch k {
	case ParamBool:
		return "BOOL"
	case ParamPath:
		return "PATH"
	default:
		return "STRING"
	}
}

func (k ParamKind) String() string {
	switch k {
	case ParamBool:
		return "bool"
	case ParamPath:
		return "path"
	default:
		return "string"
	}
}

// Param is a typed toolchain variable value.
type Param struct {
	Kind  ParamKind `yaml:"kind"`
	Value string    `yaml:"value"`
}

// StringParam builds a string variable.
func StringParam(v string) Param { return Param{Kind: ParamString, Value: v} }

// PathParam builds a path variable.
func PathParam(v string) Param { return Param{Kind: ParamPath, Value: v} }

// BoolParam builds a boolean variable.
func BoolParam(v bool) Param {
	if v {
		return Param{Kind: ParamBool, Value: "ON"}
	}
	return Param{Kind: ParamBool, Value: "OFF"}
}

// MarshalYAML renders the param as its value, tagged with the kind for non-strings.
func (p Param) MarshalYAML() (any, error) {
	if p.Kind == ParamString {
		return p.Value, nil
	}
	return p.Kind.String() + ":" + p.Value, nil
}

// Variable is a named toolchain variable.
type Variable struct {
	Name string
	Param
}

// Definition is a named preprocessor definition.
type Definition struct {
	Name  string
	Value string
}

// String renders the definition as NAME=VALUE, or NAME when the value is empty.
func (d Definition) String() string {
	if d.Value == "" {
		return d.Name
	}
	return d.Name + "=" + d.Value
}

// ToolchainParameters is the complete input handed to the external toolchain.
type ToolchainParameters struct {
	SourceDir     string            `yaml:"source_dir"`
	BuildDir      string            `yaml:"build_dir"`
	InstallPrefix string            `yaml:"install_prefix,omitempty"`
	Generator     string            `yaml:"generator,omitempty"`
	BuildType     string            `yaml:"build_type"`
	Jobs          int               `yaml:"jobs,omitempty"`
	Variables     map[string]Param  `yaml:"variables"`
	Definitions   map[string]string `yaml:"definitions,omitempty"`
}

// SortedVariables returns the variables ordered by name.
func (p ToolchainParameters) SortedVariables() []Variable {
	out := make([]Variable, 0, len(p.Variables))
	for name, v := range p.Variables {
		out = append(out, Variable{Name: name, Param: v})
	}
	slices.SortFunc(out, func(a, b Variable) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// SortedDefinitions returns the preprocessor definitions ordered by name.
func (p ToolchainParameters) SortedDefinitions() []Definition {
	out := make([]Definition, 0, len(p.Definitions))
	for name, v := range p.Definitions {
		out = append(out, Definition{Name: name, Value: v})
	}
	slices.SortFunc(out, func(a, b Definition) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// CacheArgs renders the variables as sorted -DNAME:TYPE=VALUE arguments.
func (p ToolchainParameters) CacheArgs() []string {
	vars := p.SortedVariables()
	args := make([]string, 0, len(vars))
	for _, v := range vars {
		args = append(args, "-D"+v.Name+":"+v.Kind.CacheType()+"="+v.Value)
	}
	return args
}

// Fingerprint returns a stable digest of the parameters.
func (p ToolchainParameters) Fingerprint() string {
	h := xxhash.New()
	write := func(parts ...string) {
		for _, s := range parts {
			_, _ = h.WriteString(strconv.Itoa(len(s)))
			_, _ = h.WriteString(":")
			_, _ = h.WriteString(s)
		}
	}

	write("src", p.SourceDir, "build", p.BuildDir, "prefix", p.InstallPrefix)
	write("gen", p.Generator, "type", p.BuildType, "jobs", strconv.Itoa(p.Jobs))
	for _, v := range p.SortedVariables() {
		write("var", v.Name, v.Kind.String(), v.Value)
	}
	for _, d := range p.SortedDefinitions() {
		write("def", d.Name, d.Value)
	}

	return strconv.FormatUint(h.Sum64(), 16)
}

package config

import (
	"bytes"
	"strconv"

	"go.trai.ch/kiln/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Kilnfile represents the structure of the kiln.yaml descriptor.
type Kilnfile struct {
	Name        string           `yaml:"name"`
	Version     string           `yaml:"version"`
	VersionFrom string           `yaml:"version_from"`
	Requires    []RequirementDTO `yaml:"requires"`
	Overlays    []OverlayDTO     `yaml:"overlays"`
	Toolchain   ToolchainDTO     `yaml:"toolchain"`
	Build       BuildDTO         `yaml:"build"`
	Artifacts   ArtifactsDTO     `yaml:"artifacts"`
}

// RequirementDTO is a pinned dependency. It may be written as a plain
// "name/version#hash" string or as a mapping.
type RequirementDTO struct {
	Ref  string        `yaml:"ref"`
	Hash string        `yaml:"hash"`
	Tool bool          `yaml:"tool"`
	When *ConditionDTO `yaml:"when"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (r *RequirementDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Ref = node.Value
		return nil
	}
	type plain RequirementDTO
	return decodeStrict(node, (*plain)(r))
}

// decodeStrict decodes node with unknown keys rejected. node.Decode starts a fresh
// decoder that does not inherit KnownFields from the outer one.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// ConditionDTO is a platform predicate. All set fields must match.
type ConditionDTO struct {
	OS        string         `yaml:"os"`
	Compiler  string         `yaml:"compiler"`
	BuildType string         `yaml:"build_type"`
	Arch      string         `yaml:"arch"`
	Not       *ConditionDTO  `yaml:"not"`
	Any       []ConditionDTO `yaml:"any"`
}

// OverlayDTO sets package options when its condition holds.
type OverlayDTO struct {
	Name string        `yaml:"name"`
	When *ConditionDTO `yaml:"when"`
	// Options maps a package glob to option values.
	Options map[string]map[string]ValueDTO `yaml:"options"`
}

// ToolchainDTO configures generated toolchain parameters.
type ToolchainDTO struct {
	Marker          string              `yaml:"marker"`
	Generator       string              `yaml:"generator"`
	WindowsDefaults *bool               `yaml:"windows_defaults"`
	Variables       map[string]ValueDTO `yaml:"variables"`
	Definitions     map[string]ValueDTO `yaml:"definitions"`
	Rules           []ToolchainRuleDTO  `yaml:"rules"`
}

// ToolchainRuleDTO adds variables and definitions for matching platforms.
type ToolchainRuleDTO struct {
	Name        string              `yaml:"name"`
	When        *ConditionDTO       `yaml:"when"`
	Variables   map[string]ValueDTO `yaml:"variables"`
	Definitions map[string]ValueDTO `yaml:"definitions"`
}

// BuildDTO configures the phase lifecycle.
type BuildDTO struct {
	Preflight []string `yaml:"preflight"`
	Verify    bool     `yaml:"verify"`
	Jobs      int      `yaml:"jobs"`
}

// ArtifactsDTO configures artifact fetching.
type ArtifactsDTO struct {
	FetchCommand []string `yaml:"fetch_command"`
	Concurrency  int      `yaml:"concurrency"`
}

// ValueDTO keeps a scalar's resolved tag next to its source text, so that
// 0x0A00 stays "0x0A00" while true stays a boolean.
type ValueDTO struct {
	Tag string
	Raw string
}

// UnmarshalYAML records the scalar tag and literal text.
func (v *ValueDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return &yaml.TypeError{Errors: []string{
			"line " + strconv.Itoa(node.Line) + ": option values must be scalars",
		}}
	}
	v.Tag = node.ShortTag()
	v.Raw = node.Value
	return nil
}

// OptionValue converts the scalar to a typed option value.
func (v ValueDTO) OptionValue() domain.OptionValue {
	switch v.Tag {
	case "!!bool":
		if b, err := strconv.ParseBool(v.Raw); err == nil {
			return domain.BoolValue(b)
		}
	case "!!int":
		if i, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return domain.IntValue(i)
		}
	}
	return domain.StringValue(v.Raw)
}

// Param converts the scalar to a toolchain variable.
func (v ValueDTO) Param() domain.Param {
	if v.Tag == "!!bool" {
		return domain.BoolParam(v.OptionValue().Equal(domain.BoolValue(true)))
	}
	return domain.StringParam(v.Raw)
}

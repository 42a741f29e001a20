// Package config loads kiln.yaml build descriptors.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.DescriptorLoader for YAML descriptors.
type Loader struct {
	logger ports.Logger
}

// NewLoader creates a new Loader.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads the descriptor at path and converts it to the domain model.
func (l *Loader) Load(path string) (*domain.Descriptor, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrDescriptorNotFound, "no descriptor at path"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read descriptor"), "path", path)
	}

	desc, err := Parse(data)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}

	l.logger.Debug("loaded descriptor " + desc.Name + " with " + strconv.Itoa(len(desc.Requires)) + " requirements")
	return desc, nil
}

// Parse decodes descriptor bytes. Unknown keys are rejected.
func Parse(data []byte) (*domain.Descriptor, error) {
	var file Kilnfile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidDescriptor, "failed to parse descriptor"), "cause", err.Error())
	}

	return toDomain(&file)
}

func toDomain(file *Kilnfile) (*domain.Descriptor, error) {
	if strings.TrimSpace(file.Name) == "" {
		return nil, zerr.Wrap(domain.ErrInvalidDescriptor, "descriptor name is required")
	}

	switch file.VersionFrom {
	case "", domain.VersionFromSCM:
	default:
		return nil, zerr.With(
			zerr.Wrap(domain.ErrInvalidDescriptor, "unknown version strategy"),
			"version_from", file.VersionFrom,
		)
	}

	desc := &domain.Descriptor{
		Name:        file.Name,
		Version:     file.Version,
		VersionFrom: file.VersionFrom,
		Build: domain.BuildSpec{
			Preflight: slices.Clone(file.Build.Preflight),
			Verify:    file.Build.Verify,
			Jobs:      file.Build.Jobs,
		},
		Artifacts: domain.ArtifactSpec{
			FetchCommand: slices.Clone(file.Artifacts.FetchCommand),
			Concurrency:  file.Artifacts.Concurrency,
		},
	}

	if file.Build.Jobs < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidDescriptor, "jobs must not be negative"), "jobs", file.Build.Jobs)
	}
	for _, target := range file.Build.Preflight {
		if strings.TrimSpace(target) == "" {
			return nil, zerr.Wrap(domain.ErrInvalidDescriptor, "preflight target must not be empty")
		}
	}

	for i, dto := range file.Requires {
		req, err := convertRequirement(dto)
		if err != nil {
			return nil, zerr.With(err, "requirement", i)
		}
		desc.Requires = append(desc.Requires, req)
	}

	for i, dto := range file.Overlays {
		rule, err := convertOverlay(dto)
		if err != nil {
			return nil, zerr.With(err, "overlay", i)
		}
		desc.Overlays = append(desc.Overlays, rule)
	}

	toolchain, err := convertToolchain(file.Toolchain)
	if err != nil {
		return nil, err
	}
	desc.Toolchain = toolchain

	return desc, nil
}

func convertRequirement(dto RequirementDTO) (domain.Requirement, error) {
	var (
		rec domain.DependencyRecord
		err error
	)

	switch {
	case dto.Hash != "" && strings.Contains(dto.Ref, "#"):
		return domain.Requirement{}, zerr.With(
			zerr.Wrap(domain.ErrInvalidDescriptor, "hash given both inline and as a field"),
			"ref", dto.Ref,
		)
	case dto.Hash != "":
		rec, err = domain.NewDependencyRecord(dto.Ref, dto.Hash)
	default:
		rec, err = domain.ParseRequirement(dto.Ref)
	}
	if err != nil {
		return domain.Requirement{}, err
	}
	rec.Tool = dto.Tool

	pred, err := convertCondition(dto.When)
	if err != nil {
		return domain.Requirement{}, err
	}
	return domain.Requirement{Record: rec, When: pred}, nil
}

// convertCondition returns nil for an absent condition.
func convertCondition(dto *ConditionDTO) (domain.Predicate, error) {
	if dto == nil {
		return nil, nil
	}

	var all domain.AllOf
	for _, s := range []struct {
		setting domain.Setting
		value   string
	}{
		{domain.SettingOS, dto.OS},
		{domain.SettingCompiler, dto.Compiler},
		{domain.SettingBuildType, dto.BuildType},
		{domain.SettingArch, dto.Arch},
	} {
		if s.value != "" {
			all = append(all, domain.SettingEquals{Setting: s.setting, Value: s.value})
		}
	}

	if dto.Not != nil {
		inner, err := convertCondition(dto.Not)
		if err != nil {
			return nil, err
		}
		all = append(all, domain.Not{Predicate: inner})
	}

	if len(dto.Any) > 0 {
		anyOf := make(domain.AnyOf, 0, len(dto.Any))
		for i := range dto.Any {
			p, err := convertCondition(&dto.Any[i])
			if err != nil {
				return nil, err
			}
			anyOf = append(anyOf, p)
		}
		all = append(all, anyOf)
	}

	switch len(all) {
	case 0:
		return nil, zerr.Wrap(domain.ErrInvalidDescriptor, "condition must set at least one setting")
	case 1:
		return all[0], nil
	default:
		return all, nil
	}
}

func convertOverlay(dto OverlayDTO) (domain.OverlayRule, error) {
	pred, err := convertCondition(dto.When)
	if err != nil {
		return domain.OverlayRule{}, err
	}
	if pred == nil {
		pred = domain.Always{}
	}

	rule := domain.OverlayRule{Name: dto.Name, Condition: pred}
	for _, pkg := range slices.Sorted(maps.Keys(dto.Options)) {
		if strings.TrimSpace(pkg) == "" {
			return domain.OverlayRule{}, zerr.Wrap(domain.ErrInvalidDescriptor, "overlay package must not be empty")
		}
		opts := dto.Options[pkg]
		for _, name := range slices.Sorted(maps.Keys(opts)) {
			rule.Overrides = append(rule.Overrides, domain.OptionOverride{
				TargetPackage: pkg,
				Option:        name,
				Value:         opts[name].OptionValue(),
			})
		}
	}
	return rule, nil
}

func convertToolchain(dto ToolchainDTO) (domain.ToolchainSpec, error) {
	spec := domain.ToolchainSpec{
		Marker:          dto.Marker,
		Generator:       dto.Generator,
		WindowsDefaults: dto.WindowsDefaults == nil || *dto.WindowsDefaults,
		Variables:       convertVariables(dto.Variables),
		Definitions:     convertDefinitions(dto.Definitions),
	}

	for i, r := range dto.Rules {
		pred, err := convertCondition(r.When)
		if err != nil {
			return domain.ToolchainSpec{}, zerr.With(err, "toolchain_rule", i)
		}
		if pred == nil {
			pred = domain.Always{}
		}
		spec.Rules = append(spec.Rules, domain.ToolchainRule{
			Name:        r.Name,
			When:        pred,
			Variables:   convertVariables(r.Variables),
			Definitions: convertDefinitions(r.Definitions),
		})
	}
	return spec, nil
}

func convertVariables(in map[string]ValueDTO) map[string]domain.Param {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]domain.Param, len(in))
	for k, v := range in {
		out[k] = v.Param()
	}
	return out
}

func convertDefinitions(in map[string]ValueDTO) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v.Raw
	}
	return out
}

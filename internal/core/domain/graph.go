package domain

import (
	"maps"
	"slices"

	"go.trai.ch/zerr"
)

// ResolvedGraph is the platform-specific requirement set and option map.
// It is built once per invocation and never mutated afterwards.
type ResolvedGraph struct {
	name         string
	version      string
	platform     Platform
	dependencies []DependencyRecord
	overrides    []OptionOverride
	artifacts    map[string]string
}

// Resolve evaluates a descriptor for a platform. Requirements are registered in
// descriptor order and overlays are merged; any duplicate or conflict fails the
// whole resolution.
func Resolve(desc *Descriptor, platform Platform, version string) (*ResolvedGraph, error) {
	if desc == nil {
		return nil, zerr.Wrap(ErrInvalidDescriptor, "descriptor is nil")
	}
	if err := platform.Validate(); err != nil {
		return nil, err
	}

	registry := NewRegistry(platform)
	for _, req := range desc.Requires {
		if req.When == nil {
			if err := registry.Register(req.Record); err != nil {
				return nil, err
			}
			continue
		}
		if _, err := registry.RegisterConditional(req.When, req.Record); err != nil {
			return nil, err
		}
	}

	overrides, err := desc.Overlays.Apply(platform)
	if err != nil {
		return nil, err
	}

	records := registry.Records()
	if err := checkEffectiveOptions(records, overrides); err != nil {
		return nil, err
	}

	return &ResolvedGraph{
		name:         desc.Name,
		version:      version,
		platform:     platform,
		dependencies: records,
		overrides:    overrides,
	}, nil
}

// checkEffectiveOptions rejects two active overrides that reach the same option of
// one dependency through different targets, such as "boost/*" and "boost/1.83.0".
func checkEffectiveOptions(records []DependencyRecord, overrides []OptionOverride) error {
	for _, rec := range records {
		seen := make(map[string]OptionOverride)
		for _, o := range overrides {
			if !o.AppliesTo(rec.Identifier) {
				continue
			}
			if prev, exists := seen[o.Option]; exists {
				err := zerr.With(zerr.Wrap(ErrConflictingOverride, "option set twice for one dependency"), "identifier", rec.Identifier)
				err = zerr.With(err, "option", o.Option)
				err = zerr.With(err, "first", prev.String())
				return zerr.With(err, "second", o.String())
			}
			seen[o.Option] = o
		}
	}
	return nil
}

// Name returns the descriptor name.
func (g *ResolvedGraph) Name() string { return g.name }

// Version returns the opaque version string the graph was resolved with.
func (g *ResolvedGraph) Version() string { return g.version }

// Platform returns the target platform.
func (g *ResolvedGraph) Platform() Platform { return g.platform }

// Dependencies returns a copy of the records in registration order.
func (g *ResolvedGraph) Dependencies() []DependencyRecord {
	return slices.Clone(g.dependencies)
}

// Overrides returns a copy of the active overrides, sorted by package then option.
func (g *ResolvedGraph) Overrides() []OptionOverride {
	return slices.Clone(g.overrides)
}

// Lookup returns the record with the given identifier.
func (g *ResolvedGraph) Lookup(identifier string) (DependencyRecord, bool) {
	for _, d := range g.dependencies {
		if d.Identifier == identifier {
			return d, true
		}
	}
	return DependencyRecord{}, false
}

// OptionsFor returns the active overrides that target identifier.
func (g *ResolvedGraph) OptionsFor(identifier string) []OptionOverride {
	var out []OptionOverride
	for _, o := range g.overrides {
		if o.AppliesTo(identifier) {
			out = append(out, o)
		}
	}
	return out
}

// WithArtifacts returns a copy of the graph carrying local artifact paths keyed by identifier.
func (g *ResolvedGraph) WithArtifacts(paths map[string]string) *ResolvedGraph {
	cp := *g
	cp.dependencies = slices.Clone(g.dependencies)
	cp.overrides = slices.Clone(g.overrides)
	cp.artifacts = maps.Clone(paths)
	return &cp
}

// ArtifactPath returns the local path fetched for identifier.
func (g *ResolvedGraph) ArtifactPath(identifier string) (string, bool) {
	p, ok := g.artifacts[identifier]
	return p, ok
}

// HasArtifacts reports whether artifact paths have been attached.
func (g *ResolvedGraph) HasArtifacts() bool {
	return len(g.artifacts) > 0
}

package app

import (
	"bytes"
	"context"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Plan is the dry-run view of a build: what would be fetched, generated and run.
type Plan struct {
	Name      string                     `yaml:"name"`
	Version   string                     `yaml:"version"`
	Platform  domain.Platform            `yaml:"platform"`
	Requires  []PlannedDependency        `yaml:"requires"`
	Toolchain domain.ToolchainParameters `yaml:"toolchain"`
	Steps     []string                   `yaml:"steps"`
}

// PlannedDependency is one resolved requirement and its active options.
type PlannedDependency struct {
	Ref     string                        `yaml:"ref"`
	Tool    bool                          `yaml:"tool,omitempty"`
	Options map[string]domain.OptionValue `yaml:"options,omitempty"`
}

// Plan resolves and generates without fetching artifacts or running the toolchain.
func (a *App) Plan(ctx context.Context, opts BuildOptions) (*Plan, error) {
	p, err := a.prepare(ctx, opts)
	if err != nil {
		return nil, err
	}

	params, err := p.gen.Generate(p.graph, p.graph.Platform())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to generate toolchain parameters")
	}

	deps := p.graph.Dependencies()
	requires := make([]PlannedDependency, 0, len(deps))
	for _, dep := range deps {
		planned := PlannedDependency{Ref: dep.Reference(), Tool: dep.Tool}
		if active := p.graph.OptionsFor(dep.Identifier); len(active) > 0 {
			planned.Options = make(map[string]domain.OptionValue, len(active))
			for _, o := range active {
				planned.Options[o.Option] = o.Value
			}
		}
		requires = append(requires, planned)
	}

	steps := pipeline.Plan(p.opts)
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.String()
	}

	return &Plan{
		Name:      p.graph.Name(),
		Version:   p.graph.Version(),
		Platform:  p.graph.Platform(),
		Requires:  requires,
		Toolchain: params,
		Steps:     names,
	}, nil
}

// YAML renders the plan with two-space indentation.
func (p *Plan) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, zerr.Wrap(err, "failed to encode plan")
	}
	if err := enc.Close(); err != nil {
		return nil, zerr.Wrap(err, "failed to encode plan")
	}
	return buf.Bytes(), nil
}

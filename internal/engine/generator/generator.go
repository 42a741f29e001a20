// Package generator derives toolchain parameters from a resolved graph.
package generator

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Fixed values injected for Windows targets.
const (
	WindowsMinAPIDefine = "_WIN32_WINNT"
	WindowsMinAPIValue  = "0x0A00"
	LinkerVariable      = "LLVM_USE_LINKER"
	LinkerValue         = "lld"
)

// Well-known variables derived from the graph.
const (
	BuildTypeVariable  = "CMAKE_BUILD_TYPE"
	PrefixPathVariable = "CMAKE_PREFIX_PATH"
	ToolPathsVariable  = "KILN_TOOL_PATHS"
)

// Options carries the per-invocation settings that are not part of the descriptor.
type Options struct {
	SourceDir     string
	BuildDir      string
	InstallPrefix string
	// Generator overrides the descriptor's generator when set.
	Generator string
	// Jobs is passed through to the toolchain untouched.
	Jobs int
}

// Generator turns a resolved graph into toolchain parameters.
type Generator struct {
	spec domain.ToolchainSpec
	opts Options
}

// New creates a Generator for a descriptor's toolchain section.
func New(spec domain.ToolchainSpec, opts Options) *Generator {
	return &Generator{spec: spec, opts: opts}
}

// Generate is a pure function of the graph and platform: equal inputs always
// yield equal parameters.
func (g *Generator) Generate(graph *domain.ResolvedGraph, platform domain.Platform) (domain.ToolchainParameters, error) {
	if graph == nil {
		return domain.ToolchainParameters{}, zerr.Wrap(domain.ErrInvalidGraph, "graph is nil")
	}
	if graph.Platform() != platform {
		err := zerr.With(zerr.Wrap(domain.ErrInvalidPlatform, "graph was resolved for a different platform"), "graph_platform", graph.Platform().String())
		return domain.ToolchainParameters{}, zerr.With(err, "platform", platform.String())
	}

	buildType := platform.BuildType
	if buildType == "" {
		buildType = domain.DefaultBuildType
	}

	acc := newAccumulator()

	acc.setVar("builtin", g.spec.MarkerName(), domain.StringParam("1"))
	acc.setVar("builtin", BuildTypeVariable, domain.StringParam(buildType))

	acc.merge("toolchain", g.spec.Variables, g.spec.Definitions)
	for i, rule := range g.spec.Rules {
		if rule.When != nil && !rule.When.Matches(platform) {
			continue
		}
		name := rule.Name
		if name == "" {
			name = "toolchain.rules[" + strconv.Itoa(i) + "]"
		}
		acc.merge(name, rule.Variables, rule.Definitions)
	}

	if g.spec.WindowsDefaults && platform.IsWindows() {
		acc.setDefault(WindowsMinAPIDefine, WindowsMinAPIValue)
		acc.setVarDefault(LinkerVariable, domain.StringParam(LinkerValue))
	}

	if graph.HasArtifacts() {
		var libs, tools []string
		for _, dep := range graph.Dependencies() {
			p, ok := graph.ArtifactPath(dep.Identifier)
			if !ok {
				continue
			}
			if dep.Tool {
				tools = append(tools, p)
			} else {
				libs = append(libs, p)
			}
		}
		if len(libs) > 0 {
			acc.setVar("artifacts", PrefixPathVariable, domain.PathParam(strings.Join(libs, ";")))
		}
		if len(tools) > 0 {
			acc.setVar("artifacts", ToolPathsVariable, domain.PathParam(strings.Join(tools, ";")))
		}
	}

	if acc.err != nil {
		return domain.ToolchainParameters{}, acc.err
	}

	generatorName := g.opts.Generator
	if generatorName == "" {
		generatorName = g.spec.Generator
	}
	sourceDir := g.opts.SourceDir
	if sourceDir == "" {
		sourceDir = "."
	}
	buildDir := g.opts.BuildDir
	if buildDir == "" {
		buildDir = domain.DefaultBuildDir(buildType)
	}

	return domain.ToolchainParameters{
		SourceDir:     sourceDir,
		BuildDir:      buildDir,
		InstallPrefix: g.opts.InstallPrefix,
		Generator:     generatorName,
		BuildType:     buildType,
		Jobs:          g.opts.Jobs,
		Variables:     acc.vars,
		Definitions:   acc.defs,
	}, nil
}

// accumulator collects variables and definitions, rejecting a name set by two sources.
type accumulator struct {
	vars       map[string]domain.Param
	defs       map[string]string
	varOrigins map[string]string
	defOrigins map[string]string
	err        error
}

func newAccumulator() *accumulator {
	return &accumulator{
		vars:       make(map[string]domain.Param),
		defs:       make(map[string]string),
		varOrigins: make(map[string]string),
		defOrigins: make(map[string]string),
	}
}

func (a *accumulator) merge(origin string, vars map[string]domain.Param, defs map[string]string) {
	for _, name := range sortedKeys(vars) {
		a.setVar(origin, name, vars[name])
	}
	for _, name := range sortedKeys(defs) {
		a.setDef(origin, name, defs[name])
	}
}

func (a *accumulator) setVar(origin, name string, p domain.Param) {
	if a.err != nil {
		return
	}
	if prev, exists := a.varOrigins[name]; exists {
		a.err = conflict("variable", name, prev, origin)
		return
	}
	a.varOrigins[name] = origin
	a.vars[name] = p
}

func (a *accumulator) setDef(origin, name, value string) {
	if a.err != nil {
		return
	}
	if prev, exists := a.defOrigins[name]; exists {
		a.err = conflict("definition", name, prev, origin)
		return
	}
	a.defOrigins[name] = origin
	a.defs[name] = value
}

// setVarDefault sets a variable only when no descriptor source did.
func (a *accumulator) setVarDefault(name string, p domain.Param) {
	if _, exists := a.varOrigins[name]; !exists {
		a.setVar("defaults", name, p)
	}
}

// setDefault sets a definition only when no descriptor source did.
func (a *accumulator) setDefault(name, value string) {
	if _, exists := a.defOrigins[name]; !exists {
		a.setDef("defaults", name, value)
	}
}

func conflict(kind, name, first, second string) error {
	err := zerr.With(zerr.Wrap(domain.ErrConflictingOverride, "toolchain "+kind+" set by more than one source"), kind, name)
	err = zerr.With(err, "first", first)
	return zerr.With(err, "second", second)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

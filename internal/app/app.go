// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/generator"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	loader    ports.DescriptorLoader
	executor  *pipeline.Executor
	telemetry ports.Telemetry
	logger    ports.Logger
	store     ports.BuildRecordStore
	artifacts ports.ArtifactProvider
	scm       ports.VersionResolver
	now       func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.DescriptorLoader,
	executor *pipeline.Executor,
	telemetry ports.Telemetry,
	log ports.Logger,
	store ports.BuildRecordStore,
	artifacts ports.ArtifactProvider,
	scm ports.VersionResolver,
) *App {
	return &App{
		loader:    loader,
		executor:  executor,
		telemetry: telemetry,
		logger:    log,
		store:     store,
		artifacts: artifacts,
		scm:       scm,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to stamp build records.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// BuildOptions configures a single invocation.
type BuildOptions struct {
	// DescriptorPath defaults to kiln.yaml in the working directory.
	DescriptorPath string
	Platform       domain.Platform

	// Version is an explicit version and takes precedence over everything else.
	Version string
	// SCMVersion derives the version from source control even when the descriptor does not ask for it.
	SCMVersion bool

	// Jobs overrides the descriptor when positive.
	Jobs int
	// Preflight overrides the descriptor targets when non-nil.
	Preflight []string
	// Verify enables verification in addition to the descriptor setting.
	Verify bool

	SourceDir     string
	BuildDir      string
	InstallPrefix string
	Generator     string

	// ArtifactCache overrides the artifact cache root.
	ArtifactCache string
}

func (o BuildOptions) descriptorPath() string {
	if o.DescriptorPath == "" {
		return domain.DefaultDescriptorFile
	}
	return o.DescriptorPath
}

// prepared is everything derived before any external call.
type prepared struct {
	desc  *domain.Descriptor
	graph *domain.ResolvedGraph
	gen   *generator.Generator
	opts  pipeline.Options
}

func (a *App) prepare(ctx context.Context, opts BuildOptions) (*prepared, error) {
	desc, err := a.loader.Load(opts.descriptorPath())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load descriptor")
	}

	version, err := a.resolveVersion(ctx, desc, opts)
	if err != nil {
		return nil, err
	}

	platform := opts.Platform
	if platform.BuildType == "" {
		platform.BuildType = domain.DefaultBuildType
	}

	a.logger.Info("resolving " + desc.Name + " for " + platform.String())
	graph, err := domain.Resolve(desc, platform, version)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to resolve dependency graph")
	}

	jobs := desc.Build.Jobs
	if opts.Jobs > 0 {
		jobs = opts.Jobs
	}
	preflight := desc.Build.Preflight
	if opts.Preflight != nil {
		preflight = opts.Preflight
	}

	return &prepared{
		desc:  desc,
		graph: graph,
		gen: generator.New(desc.Toolchain, generator.Options{
			SourceDir:     opts.SourceDir,
			BuildDir:      opts.BuildDir,
			InstallPrefix: opts.InstallPrefix,
			Generator:     opts.Generator,
			Jobs:          jobs,
		}),
		opts: pipeline.Options{
			Preflight: preflight,
			Verify:    opts.Verify || desc.Build.Verify,
		},
	}, nil
}

// resolveVersion applies the precedence explicit, then source control, then descriptor default.
func (a *App) resolveVersion(ctx context.Context, desc *domain.Descriptor, opts BuildOptions) (string, error) {
	if opts.Version != "" {
		return domain.ExplicitVersion(opts.Version).Resolve(ctx)
	}

	if opts.SCMVersion || desc.VersionFrom == domain.VersionFromSCM {
		v, err := a.scm.Resolve(ctx)
		if err == nil {
			return v, nil
		}
		if desc.Version == "" {
			wrapped := zerr.Wrap(domain.ErrVersionResolution, "scm version unavailable and descriptor sets no version")
			return "", zerr.With(wrapped, "cause", err.Error())
		}
		a.logger.Warn("scm version unavailable, using descriptor default " + desc.Version)
		return desc.Version, nil
	}

	if desc.Version == "" {
		return "", zerr.With(zerr.Wrap(domain.ErrVersionResolution, "descriptor sets no version"), "descriptor", desc.Name)
	}
	return desc.Version, nil
}

// Build resolves, fetches, generates and executes. Artifacts are fetched
// concurrently and all of them are available before parameters are generated.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	p, err := a.prepare(ctx, opts)
	if err != nil {
		return err
	}

	graph, err := a.fetchArtifacts(ctx, p.desc, p.graph, opts.ArtifactCache)
	if err != nil {
		return zerr.Wrap(err, "failed to fetch artifacts")
	}

	params, err := p.gen.Generate(graph, graph.Platform())
	if err != nil {
		return zerr.Wrap(err, "failed to generate toolchain parameters")
	}
	fingerprint := params.Fingerprint()
	a.reportPrevious(graph, fingerprint)

	runErr := a.executor.Run(ctx, graph, params, p.opts)
	a.record(graph, fingerprint, runErr)
	if runErr != nil {
		return zerr.Wrap(runErr, "build failed")
	}
	return nil
}

func (a *App) fetchArtifacts(
	ctx context.Context,
	desc *domain.Descriptor,
	graph *domain.ResolvedGraph,
	cacheRoot string,
) (*domain.ResolvedGraph, error) {
	deps := graph.Dependencies()
	if len(deps) == 0 {
		return graph, nil
	}

	fetcher := a.artifacts.Fetcher(desc.Artifacts, cacheRoot)
	limit := desc.Artifacts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	paths := make(map[string]string, len(deps))
	seen := make(map[string]struct{}, len(deps))

	for _, dep := range deps {
		if _, dup := seen[dep.Identifier]; dup {
			continue
		}
		seen[dep.Identifier] = struct{}{}

		g.Go(func() error {
			vctx, vertex := a.telemetry.Record(gctx, "fetch "+dep.Identifier)
			path, err := fetcher.Fetch(vctx, dep, graph.OptionsFor(dep.Identifier))
			vertex.Complete(err)
			if err != nil {
				if !errors.Is(err, domain.ErrArtifactUnavailable) {
					err = zerr.With(zerr.Wrap(domain.ErrArtifactUnavailable, err.Error()), "identifier", dep.Identifier)
				}
				return err
			}

			mu.Lock()
			paths[dep.Identifier] = path
			mu.Unlock()
			a.logger.Debug("artifact " + dep.Identifier + " at " + path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graph.WithArtifacts(paths), nil
}

func (a *App) reportPrevious(graph *domain.ResolvedGraph, fingerprint string) {
	key := domain.BuildRecord{Descriptor: graph.Name(), Platform: graph.Platform()}.Key()
	prev, err := a.store.Get(key)
	if err != nil || prev == nil {
		return
	}
	if prev.ParamsFingerprint == fingerprint && prev.State == domain.StateDone {
		a.logger.Info("toolchain parameters unchanged since last successful build of " + prev.Version)
		return
	}
	if prev.State == domain.StateFailed {
		a.logger.Debug("previous build failed in phase " + string(prev.FailedPhase))
	}
}

func (a *App) record(graph *domain.ResolvedGraph, fingerprint string, runErr error) {
	rec := domain.BuildRecord{
		Descriptor:        graph.Name(),
		Version:           graph.Version(),
		Platform:          graph.Platform(),
		ParamsFingerprint: fingerprint,
		State:             a.executor.State(),
		FinishedAt:        a.now().UTC(),
	}
	var phaseErr *domain.PhaseError
	if errors.As(runErr, &phaseErr) {
		rec.FailedPhase = phaseErr.Phase
	}
	if err := a.store.Put(rec); err != nil {
		a.logger.Warn("failed to persist build record: " + err.Error())
	}
}

package artifact

import (
	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Provider implements ports.ArtifactProvider.
type Provider struct {
	runner *shell.Runner
	logger ports.Logger
}

// NewProvider creates a Provider.
func NewProvider(runner *shell.Runner, logger ports.Logger) *Provider {
	return &Provider{runner: runner, logger: logger}
}

// Fetcher returns a CommandFetcher for spec. An empty cacheRoot selects DefaultCacheRoot.
func (p *Provider) Fetcher(spec domain.ArtifactSpec, cacheRoot string) ports.ArtifactFetcher {
	if cacheRoot == "" {
		cacheRoot = DefaultCacheRoot()
	}
	return NewCommandFetcher(NewCache(cacheRoot), p.runner, p.logger, spec.FetchCommand)
}

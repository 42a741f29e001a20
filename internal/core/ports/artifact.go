package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ArtifactFetcher resolves pinned dependencies to local artifact paths.
//
//go:generate go run go.uber.org/mock/mockgen -source=artifact.go -destination=mocks/mock_artifact.go -package=mocks
type ArtifactFetcher interface {
	// Fetch returns a local path holding the binaries and headers for rec.
	// options are the overrides active for rec and select the binary variant.
	// It fails with domain.ErrArtifactUnavailable when the artifact cannot be provided.
	Fetch(ctx context.Context, rec domain.DependencyRecord, options []domain.OptionOverride) (string, error)
}

// ArtifactProvider builds fetchers from a descriptor's artifact settings.
type ArtifactProvider interface {
	// Fetcher returns a fetcher caching under cacheRoot.
	Fetcher(spec domain.ArtifactSpec, cacheRoot string) ArtifactFetcher
}

package artifact

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// CommandFetcher implements ports.ArtifactFetcher. Cache misses run a
// configured command that populates {dest}; concurrent requests for the same
// artifact share one run.
type CommandFetcher struct {
	cache   *Cache
	runner  *shell.Runner
	logger  ports.Logger
	command []string

	requestGroup singleflight.Group
}

// NewCommandFetcher creates a fetcher. An empty command serves cache hits only.
func NewCommandFetcher(cache *Cache, runner *shell.Runner, logger ports.Logger, command []string) *CommandFetcher {
	return &CommandFetcher{
		cache:   cache,
		runner:  runner,
		logger:  logger,
		command: command,
	}
}

// Fetch returns the cached artifact directory for rec, fetching it on a miss.
func (f *CommandFetcher) Fetch(
	ctx context.Context,
	rec domain.DependencyRecord,
	options []domain.OptionOverride,
) (string, error) {
	dest := f.cache.Path(rec, options)

	result, err, _ := f.requestGroup.Do(dest, func() (any, error) {
		if p, ok := f.cache.Lookup(rec, options); ok {
			markCached(ctx)
			f.logger.Debug("artifact cache hit " + rec.Identifier)
			return p, nil
		}
		return f.fetch(ctx, rec, options, dest)
	})
	if err != nil {
		return "", err
	}
	path, _ := result.(string)
	return path, nil
}

func (f *CommandFetcher) fetch(
	ctx context.Context,
	rec domain.DependencyRecord,
	options []domain.OptionOverride,
	dest string,
) (string, error) {
	if len(f.command) == 0 {
		return "", unavailable(rec, "artifact not cached and no fetch command configured", dest)
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return "", zerr.With(unavailable(rec, "failed to create artifact cache directory", dest), "cause", err.Error())
	}
	staging, err := os.MkdirTemp(parent, ".fetch-*")
	if err != nil {
		return "", zerr.With(unavailable(rec, "failed to create staging directory", dest), "cause", err.Error())
	}
	defer func() { _ = os.RemoveAll(staging) }()

	args := expand(f.command, rec, options, staging)
	var stdout, stderr io.Writer
	if v, ok := ports.VertexFromContext(ctx); ok {
		stdout, stderr = v.Stdout(), v.Stderr()
	}

	f.logger.Info("fetching " + rec.Reference())
	if err := f.runner.Run(ctx, shell.Command{Name: args[0], Args: args[1:]}, stdout, stderr); err != nil {
		return "", zerr.With(unavailable(rec, "fetch command failed", dest), "cause", err.Error())
	}

	if err := os.Rename(staging, dest); err != nil {
		// Another process may have populated dest first.
		if p, ok := f.cache.Lookup(rec, options); ok {
			return p, nil
		}
		return "", zerr.With(unavailable(rec, "failed to move fetched artifact into cache", dest), "cause", err.Error())
	}
	return dest, nil
}

func expand(command []string, rec domain.DependencyRecord, options []domain.OptionOverride, dest string) []string {
	r := strings.NewReplacer(
		"{ref}", rec.Reference(),
		"{name}", rec.Name(),
		"{version}", rec.Version(),
		"{hash}", rec.ContentHash,
		"{dest}", dest,
		"{options}", OptionArgs(options),
	)
	out := make([]string, len(command))
	for i, arg := range command {
		out[i] = r.Replace(arg)
	}
	return out
}

func unavailable(rec domain.DependencyRecord, msg, dest string) error {
	err := zerr.With(zerr.Wrap(domain.ErrArtifactUnavailable, msg), "identifier", rec.Identifier)
	return zerr.With(err, "path", dest)
}

func markCached(ctx context.Context) {
	v, ok := ports.VertexFromContext(ctx)
	if !ok {
		return
	}
	if c, ok := v.(interface{ Cached() }); ok {
		c.Cached()
	}
}

// Package artifact provides prebuilt dependency binaries from a local cache.
package artifact

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
)

// CacheEnvVar overrides the default cache root.
const CacheEnvVar = "KILN_ARTIFACT_CACHE"

// DefaultCacheRoot returns the artifact cache location.
//
//	Linux:   $XDG_CACHE_HOME/kiln/artifacts
//	macOS:   ~/Library/Caches/kiln/artifacts
func DefaultCacheRoot() string {
	if root := os.Getenv(CacheEnvVar); root != "" {
		return root
	}
	return filepath.Join(xdg.CacheHome, "kiln", domain.ArtifactsDirName)
}

// Cache maps pinned dependencies to directories under a root.
type Cache struct {
	root string
}

// NewCache creates a cache rooted at root.
func NewCache(root string) *Cache {
	return &Cache{root: filepath.Clean(root)}
}

// Root returns the cache root.
func (c *Cache) Root() string { return c.root }

// Path returns <root>/<name>/<version>/<hash>, suffixed with a variant digest
// when options select a non-default binary.
func (c *Cache) Path(rec domain.DependencyRecord, options []domain.OptionOverride) string {
	leaf := rec.ContentHash
	if v := Variant(options); v != "" {
		leaf += "-" + v
	}
	return filepath.Join(c.root, rec.Name(), rec.Version(), leaf)
}

// Lookup returns the artifact directory when it is already present.
func (c *Cache) Lookup(rec domain.DependencyRecord, options []domain.OptionOverride) (string, bool) {
	p := c.Path(rec, options)
	info, err := os.Stat(p)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return p, true
}

// Variant digests an option set. Empty options have no variant.
func Variant(options []domain.OptionOverride) string {
	if len(options) == 0 {
		return ""
	}
	h := xxhash.New()
	for _, o := range sortedOptions(options) {
		_, _ = h.WriteString(o.Option)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(o.Value.String())
		_, _ = h.WriteString("\n")
	}
	return leftPad(strconv.FormatUint(h.Sum64(), 16), 16)
}

// OptionArgs renders options as option=value pairs.
func OptionArgs(options []domain.OptionOverride) string {
	parts := make([]string, 0, len(options))
	for _, o := range sortedOptions(options) {
		parts = append(parts, o.Option+"="+o.Value.String())
	}
	return strings.Join(parts, ",")
}

func sortedOptions(options []domain.OptionOverride) []domain.OptionOverride {
	sorted := slices.Clone(options)
	domain.SortOverrides(sorted)
	return sorted
}

func leftPad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func edaDescriptor(t *testing.T) *domain.Descriptor {
	t.Helper()
	return &domain.Descriptor{
		Name:    "eda",
		Version: "0.0.0",
		Requires: []domain.Requirement{
			{Record: rec(t, "bzip2/1.0.8#411fc05e80d47a89045edc1ee6f23c1d")},
			{Record: rec(t, "zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76")},
			{
				Record: rec(t, "strawberryperl/5.32.1.1#8f83d05a60363a422f9033e52d106b47"),
				When:   domain.OSIs(domain.OSWindows),
			},
			{Record: rec(t, "boost/1.83.0#5bcb2a14a35875e328bf312e080d3562")},
		},
		Overlays: domain.Overlays{windowsBoostRule()},
	}
}

func identifiers(recs []domain.DependencyRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Identifier
	}
	return out
}

func TestResolve_Windows(t *testing.T) {
	g, err := domain.Resolve(edaDescriptor(t), domain.Platform{OS: domain.OSWindows, BuildType: "Release"}, "1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "eda", g.Name())
	assert.Equal(t, "1.2.3", g.Version())
	assert.Equal(t,
		[]string{"bzip2/1.0.8", "zlib/1.3.1", "strawberryperl/5.32.1.1", "boost/1.83.0"},
		identifiers(g.Dependencies()),
	)

	opts := g.OptionsFor("boost/1.83.0")
	require.Len(t, opts, 2)
	assert.Equal(t, "extra_b2_flags", opts[0].Option)
	assert.Equal(t, "fPIC", opts[1].Option)
	assert.Empty(t, g.OptionsFor("zlib/1.3.1"))
}

func TestResolve_Linux(t *testing.T) {
	g, err := domain.Resolve(edaDescriptor(t), domain.Platform{OS: domain.OSLinux}, "")
	require.NoError(t, err)

	assert.NotContains(t, identifiers(g.Dependencies()), "strawberryperl/5.32.1.1")
	assert.Empty(t, g.Overrides())

	_, ok := g.Lookup("strawberryperl/5.32.1.1")
	assert.False(t, ok)
	_, ok = g.Lookup("boost/1.83.0")
	assert.True(t, ok)
}

func TestResolve_Errors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		desc := edaDescriptor(t)
		desc.Requires = append(desc.Requires, domain.Requirement{Record: rec(t, "zlib/1.3.1#00000000000000000000000000000000")})
		g, err := domain.Resolve(desc, domain.Platform{OS: domain.OSLinux}, "")
		assert.ErrorIs(t, err, domain.ErrDuplicateDependency)
		assert.Nil(t, g)
	})

	t.Run("conflict", func(t *testing.T) {
		desc := edaDescriptor(t)
		desc.Overlays = append(desc.Overlays, windowsBoostRule())
		g, err := domain.Resolve(desc, domain.Platform{OS: domain.OSWindows}, "")
		assert.ErrorIs(t, err, domain.ErrConflictingOverride)
		assert.Nil(t, g)
	})

	t.Run("glob and exact target reach one dependency", func(t *testing.T) {
		desc := edaDescriptor(t)
		desc.Overlays = append(desc.Overlays, domain.OverlayRule{
			Name:      "x86_64",
			Condition: domain.SettingEquals{Setting: domain.SettingArch, Value: "x86_64"},
			Overrides: []domain.OptionOverride{
				{TargetPackage: "boost/1.83.0", Option: "fPIC", Value: domain.BoolValue(false)},
			},
		})

		g, err := domain.Resolve(desc, domain.Platform{OS: domain.OSWindows, Arch: "x86_64"}, "")
		require.Error(t, err)
		assert.Nil(t, g)
		assert.True(t, errors.Is(err, domain.ErrConflictingOverride))

		var zErr *zerr.Error
		require.True(t, errors.As(err, &zErr))
		assert.Equal(t, "boost/1.83.0", zErr.Metadata()["identifier"])
		assert.Equal(t, "fPIC", zErr.Metadata()["option"])

		// Only one of the rules is active on Linux.
		g, err = domain.Resolve(desc, domain.Platform{OS: domain.OSLinux, Arch: "x86_64"}, "")
		require.NoError(t, err)
		require.Len(t, g.OptionsFor("boost/1.83.0"), 1)
	})

	t.Run("glob matching no registered dependency", func(t *testing.T) {
		desc := edaDescriptor(t)
		desc.Overlays = append(desc.Overlays, domain.OverlayRule{
			Condition: domain.Always{},
			Overrides: []domain.OptionOverride{
				{TargetPackage: "openssl/3.2.0", Option: "fPIC", Value: domain.BoolValue(false)},
				{TargetPackage: "openssl/*", Option: "fPIC", Value: domain.BoolValue(true)},
			},
		})
		_, err := domain.Resolve(desc, domain.Platform{OS: domain.OSLinux}, "")
		assert.NoError(t, err)
	})

	t.Run("missing os", func(t *testing.T) {
		_, err := domain.Resolve(edaDescriptor(t), domain.Platform{}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidPlatform)
	})

	t.Run("nil descriptor", func(t *testing.T) {
		_, err := domain.Resolve(nil, domain.Platform{OS: domain.OSLinux}, "")
		assert.ErrorIs(t, err, domain.ErrInvalidDescriptor)
	})
}

func TestResolvedGraph_WithArtifacts(t *testing.T) {
	g, err := domain.Resolve(edaDescriptor(t), domain.Platform{OS: domain.OSLinux}, "")
	require.NoError(t, err)
	assert.False(t, g.HasArtifacts())

	paths := map[string]string{"zlib/1.3.1": "/cache/zlib"}
	withArtifacts := g.WithArtifacts(paths)
	paths["zlib/1.3.1"] = "/mutated"

	p, ok := withArtifacts.ArtifactPath("zlib/1.3.1")
	require.True(t, ok)
	assert.Equal(t, "/cache/zlib", p)
	assert.True(t, withArtifacts.HasArtifacts())
	assert.False(t, g.HasArtifacts())
}

package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func rec(t *testing.T, ref string) domain.DependencyRecord {
	t.Helper()
	r, err := domain.ParseRequirement(ref)
	require.NoError(t, err)
	return r
}

func TestRegistry_Register_PreservesOrder(t *testing.T) {
	r := domain.NewRegistry(domain.Platform{OS: domain.OSLinux})

	require.NoError(t, r.Register(rec(t, "zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76")))
	require.NoError(t, r.Register(rec(t, "bzip2/1.0.8#411fc05e80d47a89045edc1ee6f23c1d")))

	got := r.Records()
	require.Len(t, got, 2)
	assert.Equal(t, "zlib/1.3.1", got[0].Identifier)
	assert.Equal(t, "bzip2/1.0.8", got[1].Identifier)
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	a := rec(t, "boost/1.83.0#5bcb2a14a35875e328bf312e080d3562")
	b := rec(t, "boost/1.83.0#00000000000000000000000000000000")
	other := rec(t, "zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76")

	orders := map[string][]domain.DependencyRecord{
		"duplicate last":  {a, other, b},
		"duplicate first": {b, a, other},
		"same hash":       {a, a},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			r := domain.NewRegistry(domain.Platform{OS: domain.OSLinux})

			var err error
			for _, d := range order {
				if err = r.Register(d); err != nil {
					break
				}
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrDuplicateDependency))

			var zErr *zerr.Error
			require.True(t, errors.As(err, &zErr))
			assert.Equal(t, "boost/1.83.0", zErr.Metadata()["identifier"])
		})
	}
}

func TestRegistry_RegisterConditional(t *testing.T) {
	perl := rec(t, "strawberryperl/5.32.1.1#8f83d05a60363a422f9033e52d106b47")

	t.Run("predicate holds", func(t *testing.T) {
		r := domain.NewRegistry(domain.Platform{OS: domain.OSWindows})
		added, err := r.RegisterConditional(domain.OSIs(domain.OSWindows), perl)
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, []domain.DependencyRecord{perl}, r.Records())
	})

	t.Run("predicate does not hold", func(t *testing.T) {
		r := domain.NewRegistry(domain.Platform{OS: domain.OSLinux})
		added, err := r.RegisterConditional(domain.OSIs(domain.OSWindows), perl)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Empty(t, r.Records())
	})

	t.Run("active duplicate is rejected", func(t *testing.T) {
		r := domain.NewRegistry(domain.Platform{OS: domain.OSWindows})
		require.NoError(t, r.Register(perl))
		_, err := r.RegisterConditional(domain.OSIs(domain.OSWindows), perl)
		assert.ErrorIs(t, err, domain.ErrDuplicateDependency)
	})

	t.Run("inactive duplicate is ignored", func(t *testing.T) {
		r := domain.NewRegistry(domain.Platform{OS: domain.OSLinux})
		require.NoError(t, r.Register(perl))
		added, err := r.RegisterConditional(domain.OSIs(domain.OSWindows), perl)
		require.NoError(t, err)
		assert.False(t, added)
	})
}

func TestRegistry_RecordsIsCopy(t *testing.T) {
	r := domain.NewRegistry(domain.Platform{OS: domain.OSLinux})
	require.NoError(t, r.Register(rec(t, "zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76")))

	got := r.Records()
	got[0].Identifier = "mutated/0"

	assert.Equal(t, "zlib/1.3.1", r.Records()[0].Identifier)
}

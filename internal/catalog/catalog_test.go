package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chaisql/tally/internal/catalog"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/loader"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func small(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromColumns([]string{"x"}, [][]types.Value{{types.NewIntegerValue(1), types.NewIntegerValue(2)}})
	require.NoError(t, err)
	return ds
}

func TestCatalog(t *testing.T) {
	c := catalog.New(zerolog.Nop())
	require.Equal(t, []string{"flights", "housing"}, c.Names())

	flights, err := c.Get("flights")
	require.NoError(t, err)
	require.Equal(t, 120, flights.Len())

	t.Run("register", func(t *testing.T) {
		ds := small(t)
		require.NoError(t, c.Register("xs", ds))
		require.True(t, errors.Is(c.Register("xs", ds), catalog.ErrDatasetAlreadyExists))

		got, err := c.Get("xs")
		require.NoError(t, err)
		require.Same(t, ds, got)
		require.Equal(t, []string{"flights", "housing", "xs"}, c.Names())
		require.Empty(t, c.Source("xs"))

		require.NoError(t, c.Drop("xs"))
		require.True(t, errors.Is(c.Drop("xs"), catalog.ErrDatasetNotFound))
	})

	t.Run("shadow bundled", func(t *testing.T) {
		ds := small(t)
		c.Replace("flights", ds)
		got, err := c.Get("flights")
		require.NoError(t, err)
		require.Same(t, ds, got)
		require.Equal(t, []string{"flights", "housing"}, c.Names())

		require.NoError(t, c.Drop("flights"))
		got, err = c.Get("flights")
		require.NoError(t, err)
		require.Equal(t, 120, got.Len())
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Get("housin")
		require.True(t, errors.Is(err, catalog.ErrDatasetNotFound))
		require.Contains(t, errors.GetAllHints(err), "did you mean housing?")

		_, err = c.Get("zzzzzzzzzz")
		require.True(t, errors.Is(err, catalog.ErrDatasetNotFound))
		require.Empty(t, errors.GetAllHints(err))
	})
}

func TestCatalogOpen(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.jsonl")
	require.NoError(t, os.WriteFile(a, []byte("x,y\n1,a\n2,b\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte(`{"x": 1}`+"\n"), 0o644))

	c := catalog.New(zerolog.Nop())

	ds, err := c.Open(context.Background(), "a", a, loader.Options{})
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	require.Equal(t, a, c.Source("a"))

	require.NoError(t, c.OpenAll(context.Background(), map[string]string{"a2": a, "b": b}, loader.Options{}))
	require.Equal(t, []string{"a", "a2", "b", "flights", "housing"}, c.Names())
	require.Equal(t, b, c.Source("b"))

	err = c.OpenAll(context.Background(), map[string]string{"c": filepath.Join(dir, "missing.csv")}, loader.Options{})
	require.Error(t, err)
	_, err = c.Get("c")
	require.True(t, errors.Is(err, catalog.ErrDatasetNotFound))
}

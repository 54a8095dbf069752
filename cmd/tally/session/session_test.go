package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaisql/tally/internal/catalog"
	"github.com/chaisql/tally/internal/config"
	"github.com/chaisql/tally/internal/render"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Log:    config.LogConfig{Level: "disabled", Format: "json"},
		Output: config.OutputConfig{Format: "text", MaxRows: 20},
		Loader: config.LoaderConfig{NAStrings: []string{"NA", ""}},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew(t *testing.T) {
	s, err := New(t.Context(), testConfig(), Options{Format: "csv", MaxRows: 5})
	require.NoError(t, err)
	require.Equal(t, render.FormatCSV, s.Format)
	require.Equal(t, 5, s.Render.MaxRows)

	_, err = New(t.Context(), testConfig(), Options{Format: "xlsx"})
	require.Error(t, err)

	cfg := testConfig()
	cfg.Datasets = map[string]string{"small": writeFile(t, "small.csv", "a,b\n1,x\n2,y\n")}
	s, err = New(t.Context(), cfg, Options{})
	require.NoError(t, err)
	require.Contains(t, s.Catalog.Names(), "small")

	cfg.Datasets = map[string]string{"missing": filepath.Join(t.TempDir(), "nope.csv")}
	_, err = New(t.Context(), cfg, Options{})
	require.Error(t, err)
}

func TestDataset(t *testing.T) {
	s, err := New(t.Context(), testConfig(), Options{})
	require.NoError(t, err)

	ds, err := s.Dataset(t.Context(), "flights")
	require.NoError(t, err)
	require.Equal(t, 120, ds.Len())

	path := writeFile(t, "small.csv.gz", "")
	require.Equal(t, "small", DatasetName(path))

	path = writeFile(t, "small.csv", "a,b\n1,x\n2,y\n")
	ds, err = s.Dataset(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	require.Equal(t, path, s.Catalog.Source("small"))

	name, err := s.Use(t.Context(), path)
	require.NoError(t, err)
	require.Equal(t, "small", name)
	name, err = s.Use(t.Context(), "housing")
	require.NoError(t, err)
	require.Equal(t, "housing", name)

	_, err = s.Dataset(t.Context(), "flihgts")
	require.ErrorIs(t, err, catalog.ErrDatasetNotFound)

	_, err = s.Dataset(t.Context(), "")
	require.ErrorIs(t, err, ErrNoDataset)
}

func TestRun(t *testing.T) {
	s, err := New(t.Context(), testConfig(), Options{})
	require.NoError(t, err)

	frame, err := s.Run(t.Context(), `flights %>% filter(carrier == "UA") %>% count()`, "")
	require.NoError(t, err)
	require.Equal(t, 1, frame.Dataset.Len())

	frame, err = s.Run(t.Context(), "head(3)", "housing")
	require.NoError(t, err)
	require.Equal(t, 3, frame.Dataset.Len())

	frame, err = s.Run(t.Context(), "flights %>% head(2)", "housing")
	require.NoError(t, err)
	require.Equal(t, 11, frame.Dataset.Schema().Len())

	frame, err = s.Run(t.Context(), "housing", "")
	require.NoError(t, err)
	require.Positive(t, frame.Dataset.Len())

	_, err = s.Run(t.Context(), "head(3)", "")
	require.ErrorIs(t, err, ErrNoDataset)

	_, err = s.Run(t.Context(), "flights %>% fliter(x)", "")
	require.Error(t, err)
}

func TestExec(t *testing.T) {
	s, err := New(t.Context(), testConfig(), Options{Format: "csv"})
	require.NoError(t, err)

	var buf bytes.Buffer
	err = s.Exec(t.Context(), strings.NewReader(`
		flights %>% filter(carrier == "UA") %>% count();
		select(carrier) %>% head(2);
	`), &buf, "flights")
	require.NoError(t, err)
	require.Equal(t, "n\n14\ncarrier\nDL\nB6\n", buf.String())

	err = s.Exec(t.Context(), strings.NewReader("head(1) head(2)"), &buf, "flights")
	require.Error(t, err)
}

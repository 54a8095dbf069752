package session

import (
	"slices"
	"strings"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/datasets"
	"github.com/chaisql/tally/internal/types"
)

// Describe returns a dataset with one row per column of ds: its name,
// its type, its factor levels and its number of missing values.
func Describe(ds *dataset.Dataset) (*dataset.Dataset, error) {
	n := ds.Schema().Len()
	names := make([]types.Value, n)
	typs := make([]types.Value, n)
	levels := make([]types.Value, n)
	missing := make([]types.Value, n)

	for i, c := range ds.Schema().Columns() {
		names[i] = types.NewTextValue(c.Name)
		typs[i] = types.NewTextValue(c.Type.String())
		levels[i] = types.NewNullValue()
		if c.Levels != nil {
			levels[i] = types.NewTextValue(strings.Join(c.Levels.Labels(), ", "))
		}

		var count int64
		for r := 0; r < ds.Len(); r++ {
			if types.IsNull(ds.Value(r, i)) {
				count++
			}
		}
		missing[i] = types.NewIntegerValue(count)
	}

	return dataset.FromColumns([]string{"column", "type", "levels", "missing"}, [][]types.Value{names, typs, levels, missing})
}

// Datasets returns a dataset with one row per dataset of the catalog:
// its name, its size and the file it was loaded from.
func (s *Session) Datasets() (*dataset.Dataset, error) {
	var names, rows, cols, sources []types.Value

	for _, name := range s.Catalog.Names() {
		ds, err := s.Catalog.Get(name)
		if err != nil {
			return nil, err
		}

		source := types.Value(types.NewNullValue())
		switch src := s.Catalog.Source(name); {
		case src != "":
			source = types.NewTextValue(src)
		case slices.Contains(datasets.Names(), name):
			source = types.NewTextValue("bundled")
		}

		names = append(names, types.NewTextValue(name))
		rows = append(rows, types.NewIntegerValue(int64(ds.Len())))
		cols = append(cols, types.NewIntegerValue(int64(ds.Schema().Len())))
		sources = append(sources, source)
	}

	return dataset.FromColumns([]string{"name", "rows", "columns", "source"}, [][]types.Value{names, rows, cols, sources})
}

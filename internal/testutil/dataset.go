// Package testutil provides helpers to build and compare datasets in tests.
package testutil

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/render"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// MakeRow creates a row from a JSON object.
func MakeRow(t testing.TB, jsonRow string) *row.ColumnBuffer {
	t.Helper()

	cb := row.NewColumnBuffer()
	require.NoError(t, cb.UnmarshalJSON([]byte(jsonRow)))
	return cb
}

// MakeDataset creates a dataset from JSON objects, one per row.
// Column types are inferred from the values.
func MakeDataset(t testing.TB, jsonRows ...string) *dataset.Dataset {
	t.Helper()

	rows := make([]row.Row, len(jsonRows))
	for i, s := range jsonRows {
		rows[i] = MakeRow(t, s)
	}

	ds, err := dataset.FromRows(rows)
	require.NoError(t, err)
	return ds
}

// MakeColumns creates a dataset from columns of Go values.
func MakeColumns(t testing.TB, names []string, columns ...[]any) *dataset.Dataset {
	t.Helper()

	values := make([][]types.Value, len(columns))
	for i, col := range columns {
		values[i] = make([]types.Value, len(col))
		for j, x := range col {
			v, err := row.NewValue(x)
			require.NoError(t, err)
			values[i][j] = v
		}
	}

	ds, err := dataset.FromColumns(names, values)
	require.NoError(t, err)
	return ds
}

type table struct {
	Columns []string
	Rows    [][]types.Value
}

func tableOf(ds *dataset.Dataset) table {
	var tb table
	for _, c := range ds.Schema().Columns() {
		tb.Columns = append(tb.Columns, c.String())
	}
	for i := 0; i < ds.Len(); i++ {
		r := make([]types.Value, ds.Schema().Len())
		for j := range r {
			r[j] = ds.Value(i, j)
		}
		tb.Rows = append(tb.Rows, r)
	}
	return tb
}

// valueComparer treats values as equal when they have the same type and
// compare equal. NaN equals NaN and missing values equal each other.
var valueComparer = cmp.Comparer(func(a, b types.Value) bool {
	an, bn := types.IsNull(a), types.IsNull(b)
	if an || bn {
		return an && bn
	}
	if a.Type() != b.Type() {
		return false
	}
	if a.Type() == types.TypeDouble {
		fa, fb := types.AsFloat64(a), types.AsFloat64(b)
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return math.IsNaN(fa) && math.IsNaN(fb)
		}
	}
	return types.Equal(a, b)
})

// RequireDatasetEqual fails the test with a diff if the datasets differ
// in schema, row order or values.
func RequireDatasetEqual(t testing.TB, want, got *dataset.Dataset) {
	t.Helper()

	if diff := cmp.Diff(tableOf(want), tableOf(got), valueComparer); diff != "" {
		t.Fatalf("datasets differ (-want +got):\n%s", diff)
	}
}

// RequireValueEqual is like RequireDatasetEqual for a single value.
func RequireValueEqual(t testing.TB, want, got types.Value) {
	t.Helper()

	if diff := cmp.Diff(want, got, valueComparer); diff != "" {
		t.Fatalf("values differ (-want +got):\n%s", diff)
	}
}

// RequireDatasetJSONEq compares ds with a JSON array of row objects.
func RequireDatasetJSONEq(t testing.TB, ds *dataset.Dataset, expected string) {
	t.Helper()

	var buf strings.Builder
	require.NoError(t, render.JSON(&buf, ds))
	require.JSONEq(t, expected, buf.String())
}

// Dump prints ds as a table to stdout.
func Dump(t testing.TB, ds *dataset.Dataset) {
	t.Helper()

	require.NoError(t, render.Text(os.Stdout, ds, render.Options{}))
}

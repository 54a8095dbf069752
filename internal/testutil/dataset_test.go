package testutil_test

import (
	"testing"

	"github.com/chaisql/tally/internal/testutil"
	"github.com/chaisql/tally/internal/types"
	"github.com/stretchr/testify/require"
)

func TestMakeDataset(t *testing.T) {
	ds := testutil.MakeDataset(t,
		`{"a": 1, "b": "x"}`,
		`{"a": 2, "b": null}`,
	)
	require.Equal(t, 2, ds.Len())
	require.Equal(t, []string{"a", "b"}, ds.Schema().Names())

	same := testutil.MakeColumns(t, []string{"a", "b"},
		[]any{1, 2},
		[]any{"x", nil},
	)
	testutil.RequireDatasetEqual(t, ds, same)
	testutil.RequireDatasetJSONEq(t, ds, `[{"a": 1, "b": "x"}, {"a": 2, "b": null}]`)
}

func TestRequireValueEqual(t *testing.T) {
	nan := types.NewDoubleValue(0)
	nan = types.NewDoubleValue(float64(nan) / float64(nan))

	testutil.RequireValueEqual(t, nan, nan)
	testutil.RequireValueEqual(t, types.NewNullValue(), types.NewNullValue())
	testutil.RequireValueEqual(t, types.NewIntegerValue(1), types.NewIntegerValue(1))
}

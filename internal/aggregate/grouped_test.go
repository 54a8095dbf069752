package aggregate_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestGroupBy(t *testing.T) {
	ds := makeDataset(t, []string{"carrier", "delay"},
		[]types.Value{s("UA"), s("AA"), s("UA"), s("B6"), s("AA")},
		[]types.Value{d(1), na, d(3), d(4), d(5)},
	)

	g, err := aggregate.GroupBy(ds, "carrier")
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	groups := g.Groups()
	require.Equal(t, []types.Value{s("UA")}, groups[0].Key)
	require.Equal(t, []int{0, 2}, groups[0].Rows)
	require.Equal(t, []int{1, 4}, groups[1].Rows)
	require.Equal(t, []int{3}, groups[2].Rows)

	res, err := g.Count()
	require.NoError(t, err)
	require.Equal(t, []types.Value{i(2), i(2), i(1)}, column(t, res, "n"))

	res, err = g.Summarize([]aggregate.Aggregation{
		{Name: "avg", Column: "delay", Reducer: aggregate.Mean(), Policy: aggregate.SkipMissing},
	}, aggregate.WithSortedGroups())
	require.NoError(t, err)
	require.Equal(t, []types.Value{s("AA"), s("B6"), s("UA")}, column(t, res, "carrier"))
	require.Equal(t, []types.Value{d(5), d(4), d(2)}, column(t, res, "avg"))

	_, err = aggregate.GroupBy(ds, "carier")
	require.True(t, errors.Is(err, dataset.ErrUnknownColumn))

	t.Run("no keys", func(t *testing.T) {
		g, err := aggregate.GroupBy(ds.Head(0))
		require.NoError(t, err)
		require.Equal(t, 1, g.Len())

		res, err := g.Count()
		require.NoError(t, err)
		require.Equal(t, []types.Value{i(0)}, column(t, res, "n"))
	})

	t.Run("count name clash", func(t *testing.T) {
		ds := makeDataset(t, []string{"n"}, []types.Value{i(1), i(1)})
		g, err := aggregate.GroupBy(ds, "n")
		require.NoError(t, err)

		res, err := g.Count()
		require.NoError(t, err)
		require.Equal(t, []string{"n", "nn"}, res.Schema().Names())
	})
}

func TestGroupedSummarizeSpill(t *testing.T) {
	ds := makeDataset(t, []string{"carrier", "delay"},
		[]types.Value{s("UA"), s("AA"), s("UA"), s("B6"), s("AA"), s("UA")},
		[]types.Value{d(1), na, d(3), d(4), d(5), d(8)},
	)
	g, err := aggregate.GroupBy(ds, "carrier")
	require.NoError(t, err)
	sliced, err := g.SliceMax("delay", 1, true)
	require.NoError(t, err)

	aggs := []aggregate.Aggregation{
		{Name: "n", Reducer: aggregate.Count()},
		{Name: "top", Column: "delay", Reducer: aggregate.Max(), Policy: aggregate.SkipMissing},
	}

	tests := []struct {
		name      string
		grouped   *aggregate.Grouped
		threshold int
		spilled   bool
	}{
		{"spilled", g, 0, true},
		{"below threshold", g, 100, false},
		{"sliced groups", sliced, 0, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			want, err := test.grouped.Summarize(aggs)
			require.NoError(t, err)

			var buf bytes.Buffer
			logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
			got, err := test.grouped.Summarize(aggs, aggregate.WithSpill(test.threshold, ""), aggregate.WithLogger(logger))
			require.NoError(t, err)
			require.Equal(t, rowStrings(want), rowStrings(got))
			require.Equal(t, test.spilled, strings.Contains(buf.String(), "partition index spilled"))
		})
	}
}

func TestSlice(t *testing.T) {
	ds := makeDataset(t, []string{"grp", "val", "id"},
		[]types.Value{s("a"), s("a"), s("a"), s("a"), s("b"), s("b"), s("c")},
		[]types.Value{i(3), i(1), i(1), i(2), na, i(7), na},
		[]types.Value{i(0), i(1), i(2), i(3), i(4), i(5), i(6)},
	)
	g, err := aggregate.GroupBy(ds, "grp")
	require.NoError(t, err)

	tests := []struct {
		name     string
		max      bool
		n        int
		withTies bool
		want     []types.Value
	}{
		{"min with ties", false, 1, true, []types.Value{i(1), i(2), i(5)}},
		{"min without ties", false, 1, false, []types.Value{i(1), i(5)}},
		{"min two", false, 2, true, []types.Value{i(1), i(2), i(5)}},
		{"min three", false, 3, false, []types.Value{i(1), i(2), i(3), i(5)}},
		{"max", true, 1, true, []types.Value{i(0), i(5)}},
		{"max larger than group", true, 10, true, []types.Value{i(0), i(3), i(1), i(2), i(5)}},
		{"zero", false, 0, true, nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var sliced *aggregate.Grouped
			var err error
			if test.max {
				sliced, err = g.SliceMax("val", test.n, test.withTies)
			} else {
				sliced, err = g.SliceMin("val", test.n, test.withTies)
			}
			require.NoError(t, err)

			got := column(t, sliced.Dataset(), "id")
			if test.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, test.want, got)

			// groups without any selected row are dropped
			require.Equal(t, []string{"grp"}, sliced.Keys())
			require.LessOrEqual(t, sliced.Len(), 2)
		})
	}

	_, err = g.SliceMin("val", -1, true)
	require.True(t, errors.Is(err, aggregate.ErrInvalidReducerInput))
}

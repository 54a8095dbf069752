package splitapply_test

import (
	"testing"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/splitapply"
	"github.com/chaisql/tally/internal/types"
	"github.com/stretchr/testify/require"
)

var (
	na = types.NewNullValue()
	i  = func(x int64) types.Value { return types.NewIntegerValue(x) }
	d  = func(x float64) types.Value { return types.NewDoubleValue(x) }
	s  = func(x string) types.Value { return types.NewTextValue(x) }
)

func housing(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.FromColumns([]string{"city", "type", "price", "sqft"}, [][]types.Value{
		{s("Oslo"), s("Bergen"), s("Oslo"), s("Bergen"), s("Oslo"), na},
		{s("house"), s("condo"), s("condo"), s("condo"), s("house"), s("house")},
		{i(500), i(200), i(300), na, i(700), i(100)},
		{d(120), d(60), d(70), d(65), d(150), d(90)},
	})
	require.NoError(t, err)
	return ds
}

func values(t *testing.T, ds *dataset.Dataset, name string) []types.Value {
	t.Helper()

	v, err := ds.Values(name)
	require.NoError(t, err)
	return v
}

func TestTapply(t *testing.T) {
	ds := housing(t)

	t.Run("one index", func(t *testing.T) {
		res, err := splitapply.Tapply(ds, "price", []string{"city"}, aggregate.Max(), aggregate.SkipMissing)
		require.NoError(t, err)
		require.Equal(t, []types.Value{s("Bergen"), s("Oslo")}, values(t, res, "city"))
		require.Equal(t, []types.Value{i(200), i(700)}, values(t, res, "price"))
	})

	t.Run("two indices", func(t *testing.T) {
		res, err := splitapply.Tapply(ds, "price", []string{"city", "type"}, aggregate.Mean(), aggregate.Propagate)
		require.NoError(t, err)
		require.Equal(t, []string{"city", "condo", "house"}, res.Schema().Names())
		require.Equal(t, []types.Value{s("Bergen"), s("Oslo")}, values(t, res, "city"))
		require.Equal(t, []types.Value{na, d(300)}, values(t, res, "condo"))
		require.Equal(t, []types.Value{na, d(600)}, values(t, res, "house"))
	})

	t.Run("column label clash", func(t *testing.T) {
		ds, err := dataset.FromColumns([]string{"kind", "label", "v"}, [][]types.Value{
			{s("a"), s("a"), s("b")},
			{s("kind"), s("x"), s("kind")},
			{i(1), i(2), i(3)},
		})
		require.NoError(t, err)

		res, err := splitapply.Tapply(ds, "v", []string{"kind", "label"}, aggregate.Sum(), aggregate.Propagate)
		require.NoError(t, err)
		require.Equal(t, []string{"kind", "label=kind", "x"}, res.Schema().Names())
		require.Equal(t, []types.Value{i(1), i(3)}, values(t, res, "label=kind"))
		require.Equal(t, []types.Value{i(2), na}, values(t, res, "x"))
	})

	t.Run("too many indices", func(t *testing.T) {
		_, err := splitapply.Tapply(ds, "price", nil, aggregate.Mean(), aggregate.Propagate)
		require.Error(t, err)
	})
}

func TestDdply(t *testing.T) {
	res, err := splitapply.Ddply(housing(t), []string{"type"}, []aggregate.Aggregation{
		{Name: "n", Reducer: aggregate.Count()},
		{Name: "sqft", Column: "sqft", Reducer: aggregate.Sum(), Policy: aggregate.Propagate},
	})
	require.NoError(t, err)
	require.Equal(t, []types.Value{s("condo"), s("house")}, values(t, res, "type"))
	require.Equal(t, []types.Value{i(3), i(3)}, values(t, res, "n"))
	require.Equal(t, []types.Value{d(195), d(360)}, values(t, res, "sqft"))
}

func TestAggregateFormula(t *testing.T) {
	ds := housing(t)

	t.Run("first term varies fastest", func(t *testing.T) {
		f := splitapply.Formula{Responses: []string{"price"}, Terms: []string{"city", "type"}}
		require.Equal(t, "price ~ city + type", f.String())

		res, err := splitapply.AggregateFormula(ds, f, aggregate.Sum())
		require.NoError(t, err)
		// rows with a missing city or price are dropped
		require.Equal(t, []types.Value{s("Bergen"), s("Oslo"), s("Oslo")}, values(t, res, "city"))
		require.Equal(t, []types.Value{s("condo"), s("condo"), s("house")}, values(t, res, "type"))
		require.Equal(t, []types.Value{i(200), i(300), i(1200)}, values(t, res, "price"))

		f = splitapply.Formula{Responses: []string{"sqft"}, Terms: []string{"type", "city"}}
		res, err = splitapply.AggregateFormula(ds, f, aggregate.Sum())
		require.NoError(t, err)
		require.Equal(t, []types.Value{s("condo"), s("condo"), s("house")}, values(t, res, "type"))
		require.Equal(t, []types.Value{s("Bergen"), s("Oslo"), s("Oslo")}, values(t, res, "city"))
		require.Equal(t, []types.Value{d(125), d(70), d(270)}, values(t, res, "sqft"))
	})

	t.Run("dot responses", func(t *testing.T) {
		f := splitapply.Formula{AllResponses: true, Terms: []string{"type"}}
		res, err := splitapply.AggregateFormula(ds.Take([]int{0, 1, 2, 4}), f, aggregate.Max())
		require.NoError(t, err)
		require.Equal(t, []string{"type", "city", "price", "sqft"}, res.Schema().Names())
	})

	t.Run("dots on both sides", func(t *testing.T) {
		_, err := splitapply.AggregateFormula(ds, splitapply.Formula{AllResponses: true, AllTerms: true}, aggregate.Max())
		require.Error(t, err)
	})
}

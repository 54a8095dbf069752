package stream_test

import (
	"testing"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/expr"
	"github.com/chaisql/tally/internal/stream"
	"github.com/chaisql/tally/internal/types"
	"github.com/stretchr/testify/require"
)

func flights(t *testing.T) *dataset.Dataset {
	t.Helper()

	ds, err := dataset.FromColumns([]string{"carrier", "month", "dep_delay"}, [][]types.Value{
		{types.NewTextValue("UA"), types.NewTextValue("AA"), types.NewTextValue("UA"), types.NewTextValue("B6"), types.NewTextValue("AA")},
		{types.NewIntegerValue(1), types.NewIntegerValue(1), types.NewIntegerValue(2), types.NewIntegerValue(2), types.NewIntegerValue(1)},
		{types.NewDoubleValue(2), types.NewNullValue(), types.NewDoubleValue(-4.5), types.NewDoubleValue(10), types.NewDoubleValue(3)},
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

func lit(v types.Value) expr.Expr {
	return expr.LiteralValue{Value: v}
}

func TestStream(t *testing.T) {
	s := stream.New(stream.Filter(expr.Eq(expr.Column("month"), lit(types.NewIntegerValue(1)))))
	s = s.Pipe(stream.GroupBy("carrier"))
	s = s.Pipe(stream.Summarize(
		aggregate.Aggregation{Name: "n", Reducer: aggregate.Count()},
		aggregate.Aggregation{Name: "avg", Column: "dep_delay", Reducer: aggregate.Mean(), Policy: aggregate.SkipMissing},
	))

	f, err := s.Run(flights(t))
	require.NoError(t, err)
	require.False(t, f.Grouped())
	require.Equal(t, []types.Value{types.NewTextValue("UA"), types.NewTextValue("AA")}, values(t, f.Dataset, "carrier"))
	require.Equal(t, []types.Value{types.NewIntegerValue(1), types.NewIntegerValue(2)}, values(t, f.Dataset, "n"))
	require.Equal(t, []types.Value{types.NewDoubleValue(2), types.NewDoubleValue(3)}, values(t, f.Dataset, "avg"))

	require.Equal(t, "filter(month == 1) %>% group_by(carrier) %>% summarize(n = count(), avg = mean(dep_delay, na = skip))", s.String())
}

func TestGroupedVerbs(t *testing.T) {
	t.Run("sorted summaries", func(t *testing.T) {
		g := stream.GroupBy("carrier")
		g.Sort = true
		s := stream.New(g).Pipe(stream.Count())

		f, err := s.Run(flights(t))
		require.NoError(t, err)
		require.Equal(t, []types.Value{types.NewTextValue("AA"), types.NewTextValue("B6"), types.NewTextValue("UA")}, values(t, f.Dataset, "carrier"))
		require.Equal(t, []types.Value{types.NewIntegerValue(2), types.NewIntegerValue(1), types.NewIntegerValue(2)}, values(t, f.Dataset, "n"))
	})

	t.Run("select keeps keys", func(t *testing.T) {
		s := stream.New(stream.GroupBy("carrier")).Pipe(stream.Select("month"))

		f, err := s.Run(flights(t))
		require.NoError(t, err)
		require.True(t, f.Grouped())
		require.Equal(t, []string{"carrier", "month"}, f.Dataset.Schema().Names())
	})

	t.Run("rename keys", func(t *testing.T) {
		s := stream.New(stream.GroupBy("carrier")).Pipe(stream.Rename(dataset.Renaming{To: "airline", From: "carrier"}))

		f, err := s.Run(flights(t))
		require.NoError(t, err)
		require.Equal(t, []string{"airline"}, f.Groups.Keys())
	})

	t.Run("slice_max", func(t *testing.T) {
		s := stream.New(stream.GroupBy("carrier")).Pipe(stream.SliceMax("dep_delay", 1, true)).Pipe(stream.Ungroup())

		f, err := s.Run(flights(t))
		require.NoError(t, err)
		require.False(t, f.Grouped())
		require.Equal(t, []types.Value{types.NewDoubleValue(2), types.NewDoubleValue(3), types.NewDoubleValue(10)}, values(t, f.Dataset, "dep_delay"))
	})

	t.Run("count by column", func(t *testing.T) {
		f, err := stream.New(stream.Count("month")).Run(flights(t))
		require.NoError(t, err)
		require.Equal(t, []types.Value{types.NewIntegerValue(3), types.NewIntegerValue(2)}, values(t, f.Dataset, "n"))
	})

	t.Run("ungrouped summary", func(t *testing.T) {
		s := stream.New(stream.Mutate(stream.Assignment{Name: "late", E: expr.Gt(expr.Column("dep_delay"), lit(types.NewIntegerValue(0)))})).
			Pipe(stream.Summarize(aggregate.Aggregation{Name: "late", Column: "late", Reducer: aggregate.Sum(), Policy: aggregate.SkipMissing}))

		f, err := s.Run(flights(t), aggregate.WithSpill(0, ""))
		require.NoError(t, err)
		require.Equal(t, []types.Value{types.NewIntegerValue(3)}, values(t, f.Dataset, "late"))
	})

	t.Run("errors name the operator", func(t *testing.T) {
		_, err := stream.New(stream.Select("nope")).Run(flights(t))
		require.ErrorIs(t, err, dataset.ErrUnknownColumn)
		require.Contains(t, err.Error(), "select(nope)")
	})
}

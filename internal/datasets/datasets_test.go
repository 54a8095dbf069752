package datasets_test

import (
	"testing"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/datasets"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	require.Equal(t, []string{"flights", "housing"}, datasets.Names())

	flights, err := datasets.Load("flights")
	require.NoError(t, err)
	require.Equal(t, 120, flights.Len())

	again, err := datasets.Load("flights")
	require.NoError(t, err)
	require.Same(t, flights, again)

	res, err := aggregate.Aggregate(flights, nil, []aggregate.Aggregation{
		{Name: "flown", Column: "dep_delay", Reducer: aggregate.Count(), Policy: aggregate.SkipMissing},
	})
	require.NoError(t, err)
	v, err := res.Values("flown")
	require.NoError(t, err)
	require.Equal(t, []types.Value{types.NewIntegerValue(108)}, v)

	housing, err := datasets.Load("housing")
	require.NoError(t, err)
	_, c, err := housing.Schema().Lookup("city")
	require.NoError(t, err)
	require.Equal(t, types.TypeFactor, c.Type)
	require.Equal(t, []string{"Bergen", "Oslo", "Stavanger", "Trondheim"}, c.Levels.Labels())

	_, err = datasets.Load("flight")
	require.ErrorIs(t, err, datasets.ErrUnknownDataset)
	require.Contains(t, errors.GetAllHints(err), "did you mean flights?")
}

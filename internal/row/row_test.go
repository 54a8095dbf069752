package row_test

import (
	"testing"
	"time"

	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestColumnBuffer(t *testing.T) {
	cb := row.NewColumnBuffer()
	cb.Add("carrier", types.NewTextValue("UA")).Add("dep_delay", types.NewIntegerValue(2))

	v, err := cb.Get("carrier")
	require.NoError(t, err)
	require.Equal(t, types.NewTextValue("UA"), v)

	_, err = cb.Get("origin")
	require.True(t, errors.Is(err, row.ErrColumnNotFound))

	cb.Set("dep_delay", types.NewNullValue())
	cb.Set("origin", types.NewTextValue("EWR"))
	require.Equal(t, 3, cb.Len())

	cols, err := row.Columns(cb)
	require.NoError(t, err)
	require.Equal(t, []string{"carrier", "dep_delay", "origin"}, cols)

	data, err := cb.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"carrier": "UA", "dep_delay": null, "origin": "EWR"}`, string(data))
}

func TestUnmarshalJSON(t *testing.T) {
	var cb row.ColumnBuffer
	err := cb.UnmarshalJSON([]byte(`{"a": 1, "b": 1.5, "c": null, "d": true, "e": "x", "f": 1e3, "g": 99999999999999999999}`))
	require.NoError(t, err)

	want := []row.Column{
		{Name: "a", Value: types.NewIntegerValue(1)},
		{Name: "b", Value: types.NewDoubleValue(1.5)},
		{Name: "c", Value: types.NewNullValue()},
		{Name: "d", Value: types.NewBooleanValue(true)},
		{Name: "e", Value: types.NewTextValue("x")},
		{Name: "f", Value: types.NewDoubleValue(1000)},
		{Name: "g", Value: types.NewDoubleValue(99999999999999999999)},
	}

	var got []row.Column
	err = cb.Iterate(func(column string, value types.Value) error {
		got = append(got, row.Column{Name: column, Value: value})
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, want, got)

	require.Error(t, cb.UnmarshalJSON([]byte(`{"a": [1, 2]}`)))
}

func TestNewValue(t *testing.T) {
	ts := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   any
		want types.Value
	}{
		{nil, types.NewNullValue()},
		{1, types.NewIntegerValue(1)},
		{int64(2), types.NewIntegerValue(2)},
		{1.5, types.NewDoubleValue(1.5)},
		{true, types.NewBooleanValue(true)},
		{"a", types.NewTextValue("a")},
		{ts, types.NewTimestampValue(ts)},
		{(*string)(nil), types.NewNullValue()},
	}

	for _, test := range tests {
		got, err := row.NewValue(test.in)
		require.NoError(t, err)
		require.Equal(t, test.want, got)
	}

	_, err := row.NewValue(struct{}{})
	require.Error(t, err)
}

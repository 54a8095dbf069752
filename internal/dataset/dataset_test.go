package dataset_test

import (
	"testing"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

type colExpr string

func (c colExpr) Eval(r row.Row) (types.Value, error) { return r.Get(string(c)) }
func (c colExpr) String() string                      { return string(c) }

type fnExpr func(r row.Row) (types.Value, error)

func (f fnExpr) Eval(r row.Row) (types.Value, error) { return f(r) }
func (f fnExpr) String() string                      { return "fn" }

func flights(t *testing.T) *dataset.Dataset {
	t.Helper()

	schema, err := dataset.NewSchema(
		dataset.Column{Name: "carrier", Type: types.TypeText},
		dataset.Column{Name: "month", Type: types.TypeInteger},
		dataset.Column{Name: "dep_delay", Type: types.TypeDouble},
	)
	require.NoError(t, err)

	b := dataset.NewBuilder(schema)
	rows := [][]types.Value{
		{types.NewTextValue("UA"), types.NewIntegerValue(1), types.NewIntegerValue(2)},
		{types.NewTextValue("AA"), types.NewIntegerValue(1), types.NewNullValue()},
		{types.NewTextValue("UA"), types.NewIntegerValue(2), types.NewDoubleValue(-4.5)},
		{types.NewTextValue("B6"), types.NewIntegerValue(2), types.NewDoubleValue(10)},
	}
	for _, r := range rows {
		require.NoError(t, b.Append(r...))
	}
	return b.Dataset()
}

func TestSchema(t *testing.T) {
	_, err := dataset.NewSchema(dataset.Column{Name: "a", Type: types.TypeText}, dataset.Column{Name: "a", Type: types.TypeInteger})
	require.True(t, errors.Is(err, dataset.ErrDuplicateColumn))

	_, err = dataset.NewSchema(dataset.Column{Name: "f", Type: types.TypeFactor})
	require.Error(t, err)

	ds := flights(t)
	_, _, err = ds.Schema().Lookup("dep_dely")
	require.True(t, errors.Is(err, dataset.ErrUnknownColumn))
	require.Contains(t, errors.FlattenHints(err), `"dep_delay"`)

	i, c, err := ds.Schema().Lookup("month")
	require.NoError(t, err)
	require.Equal(t, 1, i)
	require.Equal(t, types.TypeInteger, c.Type)
}

func TestBuilder(t *testing.T) {
	ds := flights(t)
	require.Equal(t, 4, ds.Len())

	// integers are widened for double columns
	require.Equal(t, types.NewDoubleValue(2), ds.Value(0, 2))

	schema := ds.Schema()
	b := dataset.NewBuilder(schema)
	err := b.Append(types.NewIntegerValue(1), types.NewIntegerValue(1), types.NewNullValue())
	require.True(t, errors.Is(err, types.ErrTypeMismatch))

	err = b.Append(types.NewTextValue("UA"))
	require.True(t, errors.Is(err, dataset.ErrLengthMismatch))

	levels, err := types.NewLevels([]string{"condo", "single"}, false)
	require.NoError(t, err)
	fs, err := dataset.NewSchema(dataset.Column{Name: "type", Type: types.TypeFactor, Levels: levels})
	require.NoError(t, err)
	fb := dataset.NewBuilder(fs)
	require.NoError(t, fb.Append(types.NewTextValue("single")))
	require.True(t, errors.Is(fb.Append(types.NewTextValue("villa")), types.ErrInvalidLevel))
	require.Equal(t, 1, fb.Dataset().Value(0, 0).(types.FactorValue).Code())
}

func TestImmutability(t *testing.T) {
	ds := flights(t)
	before, err := ds.Values("carrier")
	require.NoError(t, err)

	_, err = ds.Arrange(dataset.Ordering{Expr: colExpr("carrier")})
	require.NoError(t, err)
	_, err = ds.Mutate("carrier", fnExpr(func(r row.Row) (types.Value, error) { return types.NewTextValue("XX"), nil }))
	require.NoError(t, err)
	_, err = ds.Rename(dataset.Renaming{To: "airline", From: "carrier"})
	require.NoError(t, err)

	after, err := ds.Values("carrier")
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, []string{"carrier", "month", "dep_delay"}, ds.Schema().Names())

	// mutating a returned copy leaves the dataset untouched
	after[0] = types.NewTextValue("ZZ")
	require.Equal(t, types.NewTextValue("UA"), ds.Value(0, 0))
}

func TestFilter(t *testing.T) {
	ds := flights(t)

	res, err := ds.Filter(fnExpr(func(r row.Row) (types.Value, error) {
		v, _ := r.Get("dep_delay")
		if types.IsNull(v) {
			return types.NewNullValue(), nil
		}
		return types.NewBooleanValue(types.AsFloat64(v) > 0), nil
	}))
	require.NoError(t, err)
	require.Equal(t, 2, res.Len())
	require.Equal(t, types.NewTextValue("B6"), res.Value(1, 0))

	_, err = ds.Filter(colExpr("month"))
	require.True(t, errors.Is(err, types.ErrTypeMismatch))
}

func TestSelect(t *testing.T) {
	ds := flights(t)

	res, err := ds.Select("dep_delay", "carrier")
	require.NoError(t, err)
	require.Equal(t, []string{"dep_delay", "carrier"}, res.Schema().Names())

	res, err = ds.Select("-month")
	require.NoError(t, err)
	require.Equal(t, []string{"carrier", "dep_delay"}, res.Schema().Names())

	_, err = ds.Select("origin")
	require.True(t, errors.Is(err, dataset.ErrUnknownColumn))
}

func TestArrange(t *testing.T) {
	ds := flights(t)

	res, err := ds.Arrange(dataset.Ordering{Expr: colExpr("dep_delay"), Desc: true})
	require.NoError(t, err)
	got, err := res.Values("dep_delay")
	require.NoError(t, err)
	require.Equal(t, []types.Value{types.NewDoubleValue(10), types.NewDoubleValue(2), types.NewDoubleValue(-4.5), types.NewNullValue()}, got)

	// stable on ties
	res, err = ds.Arrange(dataset.Ordering{Expr: colExpr("month")})
	require.NoError(t, err)
	carriers, err := res.Values("carrier")
	require.NoError(t, err)
	require.Equal(t, []types.Value{types.NewTextValue("UA"), types.NewTextValue("AA"), types.NewTextValue("UA"), types.NewTextValue("B6")}, carriers)
}

func TestMutate(t *testing.T) {
	ds := flights(t)

	res, err := ds.Mutate("late", fnExpr(func(r row.Row) (types.Value, error) {
		v, _ := r.Get("dep_delay")
		if types.IsNull(v) {
			return types.NewNullValue(), nil
		}
		return types.NewBooleanValue(types.AsFloat64(v) > 0), nil
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"carrier", "month", "dep_delay", "late"}, res.Schema().Names())
	require.Equal(t, types.TypeBoolean, res.Schema().Column(3).Type)

	res, err = ds.Mutate("month", fnExpr(func(r row.Row) (types.Value, error) { return types.NewDoubleValue(0.5), nil }))
	require.NoError(t, err)
	require.Equal(t, types.TypeDouble, res.Schema().Column(1).Type)
	require.Equal(t, 3, res.Schema().Len())
}

func TestRename(t *testing.T) {
	ds := flights(t)

	res, err := ds.Rename(dataset.Renaming{To: "airline", From: "carrier"})
	require.NoError(t, err)
	require.Equal(t, []string{"airline", "month", "dep_delay"}, res.Schema().Names())

	_, err = ds.Rename(dataset.Renaming{To: "month", From: "carrier"})
	require.True(t, errors.Is(err, dataset.ErrDuplicateColumn))
}

func TestHeadDistinct(t *testing.T) {
	ds := flights(t)

	require.Equal(t, 2, ds.Head(2).Len())
	require.Equal(t, 4, ds.Head(10).Len())
	require.Equal(t, 3, ds.Head(-1).Len())
	require.Equal(t, 0, ds.Head(-10).Len())

	res, err := ds.Distinct("carrier")
	require.NoError(t, err)
	got, err := res.Values("carrier")
	require.NoError(t, err)
	require.Equal(t, []types.Value{types.NewTextValue("UA"), types.NewTextValue("AA"), types.NewTextValue("B6")}, got)
}

func TestFromRows(t *testing.T) {
	var r1, r2 row.ColumnBuffer
	require.NoError(t, r1.UnmarshalJSON([]byte(`{"a": 1, "b": "x"}`)))
	require.NoError(t, r2.UnmarshalJSON([]byte(`{"a": 1.5, "c": null}`)))

	ds, err := dataset.FromRows([]row.Row{&r1, &r2})
	require.NoError(t, err)
	require.Equal(t, "a double, b text, c boolean", ds.Schema().String())
	require.Equal(t, types.NewDoubleValue(1), ds.Value(0, 0))
	require.Equal(t, types.NewNullValue(), ds.Value(1, 1))

	var r3 row.ColumnBuffer
	require.NoError(t, r3.UnmarshalJSON([]byte(`{"a": "oops"}`)))
	_, err = dataset.FromRows([]row.Row{&r1, &r3})
	require.True(t, errors.Is(err, types.ErrTypeMismatch))
}

package types_test

import (
	"math"
	"testing"
	"time"

	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	levels, err := types.NewLevels([]string{"low", "medium", "high"}, true)
	require.NoError(t, err)
	low, err := levels.Value("low")
	require.NoError(t, err)
	high, err := levels.Value("high")
	require.NoError(t, err)

	tests := []struct {
		name string
		a, b types.Value
		want int
		fails bool
	}{
		{"null null", types.NewNullValue(), types.NewNullValue(), 0, false},
		{"null last", types.NewNullValue(), types.NewIntegerValue(1), 1, false},
		{"value before null", types.NewTextValue("a"), types.NewNullValue(), -1, false},
		{"int int", types.NewIntegerValue(1), types.NewIntegerValue(2), -1, false},
		{"int double", types.NewIntegerValue(2), types.NewDoubleValue(1.5), 1, false},
		{"int double equal", types.NewIntegerValue(2), types.NewDoubleValue(2), 0, false},
		{"NaN after numbers", types.NewDoubleValue(math.NaN()), types.NewDoubleValue(math.Inf(1)), 1, false},
		{"NaN equals NaN", types.NewDoubleValue(math.NaN()), types.NewDoubleValue(math.NaN()), 0, false},
		{"NaN before null", types.NewDoubleValue(math.NaN()), types.NewNullValue(), -1, false},
		{"bool", types.NewBooleanValue(false), types.NewBooleanValue(true), -1, false},
		{"text", types.NewTextValue("b"), types.NewTextValue("a"), 1, false},
		{"factor by level", low, high, -1, false},
		{"factor with label", high, types.NewTextValue("high"), 0, false},
		{"timestamp", types.NewTimestampValue(time.Unix(10, 0)), types.NewTimestampValue(time.Unix(5, 0)), 1, false},
		{"text int", types.NewTextValue("1"), types.NewIntegerValue(1), 0, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := types.Compare(test.a, test.b)
			if test.fails {
				require.True(t, errors.Is(err, types.ErrTypeMismatch))
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}
}

func TestEqualMissing(t *testing.T) {
	require.True(t, types.Equal(types.NewNullValue(), types.NewNullValue()))
	require.False(t, types.Equal(types.NewNullValue(), types.NewDoubleValue(math.NaN())))
	require.False(t, types.Equal(types.NewTextValue(""), types.NewNullValue()))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   types.ArithmeticOperator
		a, b types.Value
		want types.Value
	}{
		{"int add", types.OpAdd, types.NewIntegerValue(2), types.NewIntegerValue(3), types.NewIntegerValue(5)},
		{"int div", types.OpDiv, types.NewIntegerValue(3), types.NewIntegerValue(2), types.NewDoubleValue(1.5)},
		{"mixed mul", types.OpMul, types.NewIntegerValue(3), types.NewDoubleValue(0.5), types.NewDoubleValue(1.5)},
		{"bool add", types.OpAdd, types.NewBooleanValue(true), types.NewIntegerValue(1), types.NewIntegerValue(2)},
		{"null propagates", types.OpSub, types.NewNullValue(), types.NewIntegerValue(1), types.NewNullValue()},
		{"overflow", types.OpAdd, types.NewIntegerValue(math.MaxInt64), types.NewIntegerValue(1), types.NewDoubleValue(float64(math.MaxInt64) + 1)},
		{"mod sign of divisor", types.OpMod, types.NewIntegerValue(-7), types.NewIntegerValue(3), types.NewIntegerValue(2)},
		{"mod by zero", types.OpMod, types.NewIntegerValue(7), types.NewIntegerValue(0), types.NewNullValue()},
		{"double mod", types.OpMod, types.NewDoubleValue(5.5), types.NewIntegerValue(2), types.NewDoubleValue(1.5)},
		{"pow", types.OpPow, types.NewIntegerValue(2), types.NewIntegerValue(10), types.NewDoubleValue(1024)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := types.Arithmetic(test.op, test.a, test.b)
			require.NoError(t, err)
			require.Equal(t, test.want, got)
		})
	}

	t.Run("text operand", func(t *testing.T) {
		_, err := types.Arithmetic(types.OpAdd, types.NewTextValue("a"), types.NewIntegerValue(1))
		require.True(t, errors.Is(err, types.ErrTypeMismatch))

		_, err = types.Arithmetic(types.OpAdd, types.NewTextValue("a"), types.NewNullValue())
		require.True(t, errors.Is(err, types.ErrTypeMismatch))
	})
}

func TestArithmeticType(t *testing.T) {
	typ, err := types.ArithmeticType(types.OpAdd, types.TypeInteger, types.TypeBoolean)
	require.NoError(t, err)
	require.Equal(t, types.TypeInteger, typ)

	typ, err = types.ArithmeticType(types.OpDiv, types.TypeInteger, types.TypeInteger)
	require.NoError(t, err)
	require.Equal(t, types.TypeDouble, typ)

	_, err = types.ArithmeticType(types.OpMul, types.TypeText, types.TypeInteger)
	require.True(t, errors.Is(err, types.ErrTypeMismatch))
}

func TestLevels(t *testing.T) {
	_, err := types.NewLevels([]string{"a", "a"}, false)
	require.True(t, errors.Is(err, types.ErrInvalidLevel))

	levels, err := types.NewLevels([]string{"single", "condo"}, false)
	require.NoError(t, err)

	_, err = levels.Value("villa")
	require.True(t, errors.Is(err, types.ErrInvalidLevel))

	v, err := levels.Value("condo")
	require.NoError(t, err)
	require.Equal(t, 1, v.Code())
	require.Equal(t, "condo", types.AsString(v))
	require.Equal(t, "condo", types.Format(v))
}

func TestFormat(t *testing.T) {
	require.Equal(t, "NA", types.Format(types.NewNullValue()))
	require.Equal(t, "12.5", types.Format(types.NewDoubleValue(12.5)))
	require.Equal(t, "0.333333", types.Format(types.NewDoubleValue(1.0/3)))
	require.Equal(t, "UA", types.Format(types.NewTextValue("UA")))
	require.Equal(t, "2013-01-01", types.Format(types.NewTimestampValue(time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC))))
	require.Equal(t, "TRUE", types.Format(types.NewBooleanValue(true)))
}

func TestParseTimestamp(t *testing.T) {
	ts, err := types.ParseTimestamp("2013-01-01 05:15:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2013, 1, 1, 5, 15, 0, 0, time.UTC), ts)

	_, err = types.ParseTimestamp("not a date")
	require.Error(t, err)

	_, err = types.ParseTimestamp("")
	require.Error(t, err)
}

func TestTimestampPrecision(t *testing.T) {
	base := time.Date(2013, 1, 1, 5, 15, 0, 0, time.UTC)

	a := types.NewTimestampValue(base.Add(100))
	b := types.NewTimestampValue(base.Add(200))
	c := types.NewTimestampValue(base.Add(time.Microsecond))

	require.Equal(t, base, types.AsTime(a))
	require.True(t, types.Equal(a, b))
	require.Equal(t, a.EncodeAsKey(nil), b.EncodeAsKey(nil))

	require.False(t, types.Equal(a, c))
	require.NotEqual(t, a.EncodeAsKey(nil), c.EncodeAsKey(nil))
}

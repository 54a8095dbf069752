package encoding_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/chaisql/tally/internal/encoding"
	"github.com/stretchr/testify/require"
)

func TestEncodeIntOrdering(t *testing.T) {
	ints := []int64{math.MinInt64, math.MinInt32 - 1, -40000, -200, -33, -32, -1, 0, 1, 31, 32, 255, 256, 70000, math.MaxInt32 + 1, math.MaxInt64}

	var prev []byte
	for _, x := range ints {
		enc := encoding.EncodeInt(nil, x)
		got, n := encoding.DecodeInt(enc)
		require.Equal(t, x, got)
		require.Equal(t, len(enc), n)
		require.Equal(t, len(enc), encoding.Skip(enc))

		if prev != nil {
			require.Equal(t, -1, bytes.Compare(prev, enc), "%d", x)
		}
		prev = enc
	}
}

func TestEncodeFloat64(t *testing.T) {
	tests := []float64{math.Inf(-1), -10.5, -1, 0, 0.25, 1, 1e300, math.Inf(1)}

	var prev []byte
	for _, x := range tests {
		enc := encoding.EncodeFloat64(nil, x)
		got, _ := encoding.DecodeFloat64(enc)
		require.Equal(t, x, got)
		if prev != nil {
			require.Equal(t, -1, bytes.Compare(prev, enc))
		}
		prev = enc
	}

	t.Run("negative zero", func(t *testing.T) {
		require.Equal(t, encoding.EncodeFloat64(nil, 0), encoding.EncodeFloat64(nil, math.Copysign(0, -1)))
	})

	t.Run("NaN", func(t *testing.T) {
		a := encoding.EncodeFloat64(nil, math.NaN())
		b := encoding.EncodeFloat64(nil, math.Float64frombits(0x7ff8000000000001))
		require.Equal(t, a, b)
	})
}

func TestTuple(t *testing.T) {
	ts := time.Date(2013, 1, 1, 5, 15, 0, 0, time.UTC)

	var buf []byte
	buf = encoding.EncodeTupleHeader(buf, 5)
	buf = encoding.EncodeText(buf, "UA")
	buf = encoding.EncodeNull(buf)
	buf = encoding.EncodeBoolean(buf, true)
	buf = encoding.EncodeTimestamp(buf, ts)
	buf = encoding.EncodeFactor(buf, 3)

	require.Equal(t, len(buf), encoding.Skip(buf))

	parts := encoding.SplitTuple(buf)
	require.Len(t, parts, 5)

	s, _ := encoding.DecodeText(parts[0])
	require.Equal(t, "UA", s)
	require.Equal(t, []byte{encoding.NullValue}, parts[1])
	require.True(t, encoding.DecodeBoolean(parts[2]))
	got, _ := encoding.DecodeTimestamp(parts[3])
	require.Equal(t, ts, got)
	code, _ := encoding.DecodeFactor(parts[4])
	require.Equal(t, 3, code)
}

func TestTextPrefixFree(t *testing.T) {
	// ("a", "bc") and ("ab", "c") must not collide.
	a := encoding.EncodeText(encoding.EncodeText(nil, "a"), "bc")
	b := encoding.EncodeText(encoding.EncodeText(nil, "ab"), "c")
	require.NotEqual(t, a, b)
}

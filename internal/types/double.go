package types

import (
	"math"
	"strconv"

	"github.com/chaisql/tally/internal/encoding"
)

var _ Value = NewDoubleValue(0)

type DoubleValue float64

func NewDoubleValue(x float64) DoubleValue {
	return DoubleValue(x)
}

func (v DoubleValue) V() any {
	return float64(v)
}

func (v DoubleValue) Type() Type {
	return TypeDouble
}

func (v DoubleValue) String() string {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return formatDouble(f, -1)
	}

	abs := math.Abs(f)
	fmt := byte('f')
	if abs != 0 {
		if abs < 1e-6 || abs >= 1e15 {
			fmt = 'e'
		}
	}

	// By default the precision is -1 to use the smallest number of digits.
	// See https://pkg.go.dev/strconv#FormatFloat
	prec := -1
	// if the number is round, add .0
	if float64(int64(f)) == f {
		prec = 1
	}
	return strconv.FormatFloat(f, fmt, prec, 64)
}

// MarshalJSON writes NaN and infinities as null since JSON cannot represent them.
func (v DoubleValue) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}

	abs := math.Abs(f)
	fmt := byte('f')
	if abs != 0 {
		if abs < 1e-6 || abs >= 1e15 {
			fmt = 'e'
		}
	}

	return strconv.AppendFloat(nil, f, fmt, -1, 64), nil
}

func (v DoubleValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeFloat64(dst, float64(v))
}

package types

import (
	"math"
	"strconv"
	"time"
)

// A Value stores a single typed value, or the missing value.
// Values are immutable.
type Value interface {
	Type() Type
	// V returns the underlying Go value: nil, bool, int64, float64,
	// time.Time or string. Factor values return their label.
	V() any
	String() string
	MarshalJSON() ([]byte, error)
	// EncodeAsKey appends an encoding of the value to dst.
	// Two values of the same type are equal if and only if their
	// encodings are equal.
	EncodeAsKey(dst []byte) []byte
}

func AsBool(v Value) bool {
	bv, ok := v.(BooleanValue)
	if !ok {
		return v.V().(bool)
	}

	return bool(bv)
}

func AsInt64(v Value) int64 {
	iv, ok := v.(IntegerValue)
	if !ok {
		return v.V().(int64)
	}

	return int64(iv)
}

// AsFloat64 converts integers, doubles and booleans to float64.
func AsFloat64(v Value) float64 {
	switch t := v.(type) {
	case DoubleValue:
		return float64(t)
	case IntegerValue:
		return float64(t)
	case BooleanValue:
		if t {
			return 1
		}
		return 0
	}

	return v.V().(float64)
}

func AsTime(v Value) time.Time {
	tv, ok := v.(TimestampValue)
	if !ok {
		return v.V().(time.Time)
	}

	return time.Time(tv)
}

// AsString returns the text of a text value, or the label of a factor value.
func AsString(v Value) string {
	switch t := v.(type) {
	case TextValue:
		return string(t)
	case FactorValue:
		return t.Label()
	}

	return v.V().(string)
}

// IsNull reports whether v is the missing value.
func IsNull(v Value) bool {
	return v == nil || v.Type() == TypeNull
}

// IsTrue reports whether v is the boolean TRUE. Missing values
// and FALSE are not true.
func IsTrue(v Value) bool {
	bv, ok := v.(BooleanValue)
	return ok && bool(bv)
}

// Format returns the representation of v used when displaying tables:
// NA for missing values, raw text for text and factor values.
func Format(v Value) string {
	switch t := v.(type) {
	case nil, NullValue:
		return "NA"
	case TextValue:
		return string(t)
	case FactorValue:
		return t.Label()
	case TimestampValue:
		tm := time.Time(t)
		if tm.Hour() == 0 && tm.Minute() == 0 && tm.Second() == 0 && tm.Nanosecond() == 0 {
			return tm.Format(time.DateOnly)
		}
		return tm.Format(time.DateTime)
	case DoubleValue:
		return formatDouble(float64(t), 6)
	}

	return v.String()
}

func formatDouble(f float64, digits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}

	return strconv.FormatFloat(f, 'g', digits, 64)
}

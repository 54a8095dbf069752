package types

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
)

// Compare returns -1, 0 or 1 depending on whether a sorts before, with
// or after b. Missing values sort after every other value and are equal
// to each other. NaN sorts after every number.
// Integers and doubles compare numerically, factors compare by level
// position when they share their levels and by label otherwise.
func Compare(a, b Value) (int, error) {
	an, bn := IsNull(a), IsNull(b)
	switch {
	case an && bn:
		return 0, nil
	case an:
		return 1, nil
	case bn:
		return -1, nil
	}

	at, bt := a.Type(), b.Type()

	switch {
	case at == TypeInteger && bt == TypeInteger:
		return cmpOrdered(AsInt64(a), AsInt64(b)), nil
	case at.IsNumber() && bt.IsNumber():
		return compareFloats(AsFloat64(a), AsFloat64(b)), nil
	case at == TypeBoolean && bt == TypeBoolean:
		return cmpOrdered(AsFloat64(a), AsFloat64(b)), nil
	case at == TypeText && bt == TypeText:
		return strings.Compare(AsString(a), AsString(b)), nil
	case at == TypeTimestamp && bt == TypeTimestamp:
		return AsTime(a).Compare(AsTime(b)), nil
	case at == TypeFactor && bt == TypeFactor:
		fa, fb := a.(FactorValue), b.(FactorValue)
		if fa.levels.Equal(fb.levels) {
			return cmpOrdered(fa.code, fb.code), nil
		}
		return strings.Compare(fa.Label(), fb.Label()), nil
	case at == TypeFactor && bt == TypeText, at == TypeText && bt == TypeFactor:
		return strings.Compare(AsString(a), AsString(b)), nil
	}

	return 0, errors.Wrapf(ErrTypeMismatch, "cannot compare %s with %s", at, bt)
}

// Equal reports whether a and b are the same value. Unlike comparison
// operators in expressions, two missing values are equal. This is the
// equality used to form groups.
func Equal(a, b Value) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}

func compareFloats(a, b float64) int {
	an, bn := math.IsNaN(a), math.IsNaN(b)
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}

	return cmpOrdered(a, b)
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

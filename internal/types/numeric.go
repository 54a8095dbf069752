package types

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ArithmeticOperator identifies a binary arithmetic operation.
type ArithmeticOperator uint8

const (
	OpAdd ArithmeticOperator = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
)

func (op ArithmeticOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%%"
	case OpPow:
		return "^"
	}

	return "?"
}

// ArithmeticType returns the type of the result of op applied to values of
// type l and r. Booleans are treated as integers.
func ArithmeticType(op ArithmeticOperator, l, r Type) (Type, error) {
	if l == TypeBoolean {
		l = TypeInteger
	}
	if r == TypeBoolean {
		r = TypeInteger
	}

	if (l != TypeNull && l != TypeAny && !l.IsNumber()) || (r != TypeNull && r != TypeAny && !r.IsNumber()) {
		return TypeAny, errors.Wrapf(ErrTypeMismatch, "cannot apply %s to %s and %s", op, l, r)
	}

	switch op {
	case OpDiv, OpPow:
		return TypeDouble, nil
	}

	if l == TypeDouble || r == TypeDouble {
		return TypeDouble, nil
	}
	if l == TypeInteger || r == TypeInteger {
		return TypeInteger, nil
	}
	return TypeAny, nil
}

// Arithmetic applies op to a and b.
// A missing operand gives a missing result. Integer operations stay
// integers, except division and exponentiation which always produce doubles.
// Integer results that overflow are computed in double precision.
// Modulo follows the sign of the divisor and integer modulo by zero is missing.
func Arithmetic(op ArithmeticOperator, a, b Value) (Value, error) {
	if IsNull(a) || IsNull(b) {
		if err := checkNumeric(op, a); err != nil {
			return nil, err
		}
		if err := checkNumeric(op, b); err != nil {
			return nil, err
		}
		return NewNullValue(), nil
	}

	if err := checkNumeric(op, a); err != nil {
		return nil, err
	}
	if err := checkNumeric(op, b); err != nil {
		return nil, err
	}

	at, bt := a.Type(), b.Type()
	if at != TypeDouble && bt != TypeDouble && op != OpDiv && op != OpPow {
		x, y := integral(a), integral(b)
		switch op {
		case OpAdd:
			if !isAddOverflow(x, y, math.MinInt64, math.MaxInt64) {
				return NewIntegerValue(x + y), nil
			}
		case OpSub:
			if !isSubOverflow(x, y, math.MinInt64, math.MaxInt64) {
				return NewIntegerValue(x - y), nil
			}
		case OpMul:
			if !isMulOverflow(x, y, math.MinInt64, math.MaxInt64) {
				return NewIntegerValue(x * y), nil
			}
		case OpMod:
			if y == 0 {
				return NewNullValue(), nil
			}
			if y == -1 {
				return NewIntegerValue(0), nil
			}
			r := x % y
			if r != 0 && (r < 0) != (y < 0) {
				r += y
			}
			return NewIntegerValue(r), nil
		}
	}

	x, y := AsFloat64(a), AsFloat64(b)
	switch op {
	case OpAdd:
		return NewDoubleValue(x + y), nil
	case OpSub:
		return NewDoubleValue(x - y), nil
	case OpMul:
		return NewDoubleValue(x * y), nil
	case OpDiv:
		return NewDoubleValue(x / y), nil
	case OpMod:
		if y == 0 {
			return NewDoubleValue(math.NaN()), nil
		}
		return NewDoubleValue(x - math.Floor(x/y)*y), nil
	case OpPow:
		return NewDoubleValue(math.Pow(x, y)), nil
	}

	return nil, errors.Errorf("unknown operator %d", op)
}

func checkNumeric(op ArithmeticOperator, v Value) error {
	if IsNull(v) {
		return nil
	}
	switch v.Type() {
	case TypeInteger, TypeDouble, TypeBoolean:
		return nil
	}
	return errors.Wrapf(ErrTypeMismatch, "cannot apply %s to %s", op, v.Type())
}

func integral(v Value) int64 {
	if v.Type() == TypeBoolean {
		if AsBool(v) {
			return 1
		}
		return 0
	}
	return AsInt64(v)
}

func isMulOverflow[T int32 | int64](left, right, min, max T) bool {
	// zero multiplication cannot overflow
	if left == 0 || right == 0 {
		return false
	}

	if left > 0 {
		if right > 0 {
			return left > max/right
		}
		return right < min/left
	}

	if right > 0 {
		return left < min/right
	}
	return left < max/right
}

func isAddOverflow[T int32 | int64](left, right, min, max T) bool {
	if right > 0 {
		return left > max-right
	}
	return left < min-right
}

func isSubOverflow[T int32 | int64](left, right, min, max T) bool {
	if right > 0 {
		return left < min+right
	}
	return left > max+right
}

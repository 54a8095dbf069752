package types

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrTypeMismatch is returned when an operation receives a value of a type it cannot process.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrInvalidLevel is returned when a factor value is built from a label that is not one of its levels.
	ErrInvalidLevel = errors.New("invalid factor level")
)

// Type represents a column or value type.
type Type uint8

// List of supported types.
const (
	// TypeAny denotes the absence of type
	TypeAny Type = iota
	TypeNull
	TypeBoolean
	TypeInteger
	TypeDouble
	TypeTimestamp
	TypeText
	TypeFactor
)

func (t Type) String() string {
	switch t {
	case TypeAny:
		return "any"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	case TypeTimestamp:
		return "timestamp"
	case TypeText:
		return "text"
	case TypeFactor:
		return "factor"
	}

	panic(fmt.Sprintf("unsupported type %#v", t))
}

// ParseType returns the type named s, as printed by Type.String.
func ParseType(s string) (Type, error) {
	switch s {
	case "boolean", "bool", "logical":
		return TypeBoolean, nil
	case "integer", "int":
		return TypeInteger, nil
	case "double", "numeric", "float":
		return TypeDouble, nil
	case "timestamp", "datetime":
		return TypeTimestamp, nil
	case "text", "string", "character":
		return TypeText, nil
	case "factor":
		return TypeFactor, nil
	}

	return TypeAny, errors.Errorf("unknown type %q", s)
}

// IsNumber returns true if t is either an integer or a double.
func (t Type) IsNumber() bool {
	return t == TypeInteger || t == TypeDouble
}

// IsAny returns whether this is type is Any or a real type
func (t Type) IsAny() bool {
	return t == TypeAny
}

// IsComparableWith returns whether values of type t and other can be compared.
func (t Type) IsComparableWith(other Type) bool {
	if t == TypeNull || other == TypeNull || t == TypeAny || other == TypeAny {
		return true
	}

	if t == other {
		return true
	}

	if t.IsNumber() && other.IsNumber() {
		return true
	}

	// factors compare with their labels
	if (t == TypeFactor && other == TypeText) || (t == TypeText && other == TypeFactor) {
		return true
	}

	return false
}

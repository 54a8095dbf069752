package types

import (
	"github.com/chaisql/tally/internal/encoding"
)

var _ Value = NewBooleanValue(false)

type BooleanValue bool

func NewBooleanValue(x bool) BooleanValue {
	return BooleanValue(x)
}

func (v BooleanValue) V() any {
	return bool(v)
}

func (v BooleanValue) Type() Type {
	return TypeBoolean
}

func (v BooleanValue) String() string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (v BooleanValue) MarshalJSON() ([]byte, error) {
	if v {
		return []byte("true"), nil
	}
	return []byte("false"), nil
}

func (v BooleanValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeBoolean(dst, bool(v))
}

package types

import (
	"github.com/chaisql/tally/internal/encoding"
)

var _ Value = NewNullValue()

// NullValue is the missing value. It is distinct from every
// value of every other type, including NaN.
type NullValue struct{}

// NewNullValue returns the missing value.
func NewNullValue() NullValue {
	return NullValue{}
}

func (v NullValue) V() any {
	return nil
}

func (v NullValue) Type() Type {
	return TypeNull
}

func (v NullValue) String() string {
	return "NA"
}

func (v NullValue) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func (v NullValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeNull(dst)
}

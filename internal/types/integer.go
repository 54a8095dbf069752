package types

import (
	"strconv"

	"github.com/chaisql/tally/internal/encoding"
)

var _ Value = NewIntegerValue(0)

type IntegerValue int64

func NewIntegerValue(x int64) IntegerValue {
	return IntegerValue(x)
}

func (v IntegerValue) V() any {
	return int64(v)
}

func (v IntegerValue) Type() Type {
	return TypeInteger
}

func (v IntegerValue) String() string {
	return strconv.FormatInt(int64(v), 10)
}

func (v IntegerValue) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(v), 10), nil
}

func (v IntegerValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeInt(dst, int64(v))
}

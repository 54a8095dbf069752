package types

import (
	"encoding/json"
	"strconv"

	"github.com/chaisql/tally/internal/encoding"
)

var _ Value = NewTextValue("")

type TextValue string

func NewTextValue(x string) TextValue {
	return TextValue(x)
}

func (v TextValue) V() any {
	return string(v)
}

func (v TextValue) Type() Type {
	return TypeText
}

func (v TextValue) String() string {
	return strconv.Quote(string(v))
}

func (v TextValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

func (v TextValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeText(dst, string(v))
}

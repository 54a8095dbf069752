package row

import (
	"bytes"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// ParseJSONValue converts a scalar JSON value, as returned by jsonparser, to a value.
// Numbers without a fractional part or exponent become integers.
func ParseJSONValue(dataType jsonparser.ValueType, data []byte) (v types.Value, err error) {
	switch dataType {
	case jsonparser.Null:
		return types.NewNullValue(), nil
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(data)
		if err != nil {
			return nil, err
		}
		return types.NewBooleanValue(b), nil
	case jsonparser.Number:
		if !bytes.ContainsAny(data, ".eE") {
			i, err := jsonparser.ParseInt(data)
			if err == nil {
				return types.NewIntegerValue(i), nil
			}
		}

		// too big to fit in an int64 or not an integer
		f, err := jsonparser.ParseFloat(data)
		if err != nil {
			return nil, err
		}
		return types.NewDoubleValue(f), nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(data)
		if err != nil {
			return nil, err
		}
		return types.NewTextValue(s), nil
	default:
		return nil, errors.Errorf("unsupported JSON type: %v", dataType)
	}
}

// MarshalJSON encodes a row to json.
func MarshalJSON(r Row) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	var notFirst bool
	err := r.Iterate(func(c string, v types.Value) error {
		if notFirst {
			buf.WriteString(", ")
		}
		notFirst = true

		buf.WriteString(strconv.Quote(c))
		buf.WriteString(": ")

		data, err := v.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = buf.Write(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

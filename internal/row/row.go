package row

import (
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// ErrColumnNotFound must be returned by row implementations, when calling the Get method and
// the column doesn't exist.
var ErrColumnNotFound = errors.New("column not found")

type Row interface {
	// Iterate goes through all the columns of the row and calls the given function
	// by passing the column name
	Iterate(fn func(column string, value types.Value) error) error

	// Get returns the value of the given column.
	// If the column does not exist, it returns ErrColumnNotFound.
	Get(name string) (types.Value, error)
}

// NewValue creates a value whose type is infered from x.
func NewValue(x any) (types.Value, error) {
	if x == nil {
		return types.NewNullValue(), nil
	}
	switch v := x.(type) {
	case types.Value:
		return v, nil
	case int:
		return types.NewIntegerValue(int64(v)), nil
	case int32:
		return types.NewIntegerValue(int64(v)), nil
	case int64:
		return types.NewIntegerValue(v), nil
	case *int64:
		if v == nil {
			return types.NewNullValue(), nil
		}
		return types.NewIntegerValue(*v), nil
	case float64:
		return types.NewDoubleValue(v), nil
	case *float64:
		if v == nil {
			return types.NewNullValue(), nil
		}
		return types.NewDoubleValue(*v), nil
	case bool:
		return types.NewBooleanValue(v), nil
	case *bool:
		if v == nil {
			return types.NewNullValue(), nil
		}
		return types.NewBooleanValue(*v), nil
	case string:
		return types.NewTextValue(v), nil
	case *string:
		if v == nil {
			return types.NewNullValue(), nil
		}
		return types.NewTextValue(*v), nil
	case []byte:
		return types.NewTextValue(string(v)), nil
	case time.Time:
		return types.NewTimestampValue(v), nil
	case *time.Time:
		if v == nil {
			return types.NewNullValue(), nil
		}
		return types.NewTimestampValue(*v), nil
	}

	return nil, errors.Errorf("unsupported type %T", x)
}

// ColumnBuffer stores a group of columns in memory. It implements the Row interface.
type ColumnBuffer struct {
	columns []Column
}

// NewColumnBuffer creates a ColumnBuffer.
func NewColumnBuffer() *ColumnBuffer {
	return new(ColumnBuffer)
}

type Column struct {
	Name  string
	Value types.Value
}

// Add a column to the buffer.
func (cb *ColumnBuffer) Add(column string, v types.Value) *ColumnBuffer {
	cb.columns = append(cb.columns, Column{column, v})
	return cb
}

// Get returns a value by column. Returns an error if the column doesn't exists.
func (cb ColumnBuffer) Get(column string) (types.Value, error) {
	for _, cv := range cb.columns {
		if cv.Name == column {
			return cv.Value, nil
		}
	}

	return nil, errors.Wrapf(ErrColumnNotFound, "%s not found", column)
}

// Set replaces a column if it already exists or creates one if not.
func (cb *ColumnBuffer) Set(column string, v types.Value) {
	for i := range cb.columns {
		if cb.columns[i].Name == column {
			cb.columns[i].Value = v
			return
		}
	}

	cb.Add(column, v)
}

// Iterate goes through all the columns of the row and calls the given function by passing each one of them.
// If the given function returns an error, the iteration stops.
func (cb ColumnBuffer) Iterate(fn func(column string, value types.Value) error) error {
	for _, cv := range cb.columns {
		err := fn(cv.Name, cv.Value)
		if err != nil {
			return err
		}
	}

	return nil
}

// Copy every value of the row to the buffer.
func (cb *ColumnBuffer) Copy(r Row) error {
	return r.Iterate(func(column string, value types.Value) error {
		cb.Add(strings.Clone(column), value)
		return nil
	})
}

// Len of the buffer.
func (cb ColumnBuffer) Len() int {
	return len(cb.columns)
}

// Reset the buffer.
func (cb *ColumnBuffer) Reset() {
	cb.columns = cb.columns[:0]
}

func (cb *ColumnBuffer) MarshalJSON() ([]byte, error) {
	return MarshalJSON(cb)
}

// UnmarshalJSON decodes a flat JSON object. Keys keep their order.
func (cb *ColumnBuffer) UnmarshalJSON(data []byte) error {
	return jsonparser.ObjectEach(data, func(key []byte, value []byte, dataType jsonparser.ValueType, offset int) error {
		v, err := ParseJSONValue(dataType, value)
		if err != nil {
			return errors.Wrapf(err, "column %q", key)
		}

		cb.Add(string(key), v)
		return nil
	})
}

// Columns returns the column names of r, in iteration order.
func Columns(r Row) ([]string, error) {
	var cols []string
	err := r.Iterate(func(column string, value types.Value) error {
		cols = append(cols, column)
		return nil
	})
	return cols, err
}

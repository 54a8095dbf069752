package dataset

import (
	"sort"

	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Builder accumulates rows and produces a Dataset.
// A Builder must not be reused after calling Dataset.
type Builder struct {
	schema  *Schema
	columns [][]types.Value
	n       int
}

func NewBuilder(schema *Schema) *Builder {
	return &Builder{
		schema:  schema,
		columns: make([][]types.Value, schema.Len()),
	}
}

// Append adds a row. Values are given in schema order.
// Each value must be missing or match the column type; integers
// are accepted by double columns and text labels by factor columns.
func (b *Builder) Append(values ...types.Value) error {
	if len(values) != b.schema.Len() {
		return errors.Wrapf(ErrLengthMismatch, "got %d values for %d columns", len(values), b.schema.Len())
	}

	for i, v := range values {
		cv, err := Coerce(b.schema.columns[i], v)
		if err != nil {
			return err
		}
		b.columns[i] = append(b.columns[i], cv)
	}
	b.n++
	return nil
}

// AppendRow adds a row by column name. Columns absent from r are missing.
func (b *Builder) AppendRow(r row.Row) error {
	values := make([]types.Value, b.schema.Len())
	for i := range values {
		values[i] = types.NewNullValue()
	}

	err := r.Iterate(func(column string, v types.Value) error {
		i, _, err := b.schema.Lookup(column)
		if err != nil {
			return err
		}
		values[i] = v
		return nil
	})
	if err != nil {
		return err
	}

	return b.Append(values...)
}

// Len returns the number of rows appended so far.
func (b *Builder) Len() int {
	return b.n
}

func (b *Builder) Dataset() *Dataset {
	return withColumns(b.schema, b.columns, b.n)
}

// Coerce converts v to a value accepted by column c.
func Coerce(c Column, v types.Value) (types.Value, error) {
	if types.IsNull(v) {
		return types.NewNullValue(), nil
	}

	vt := v.Type()
	switch {
	case vt == c.Type && vt != types.TypeFactor:
		return v, nil
	case c.Type == types.TypeDouble && vt == types.TypeInteger:
		return types.NewDoubleValue(types.AsFloat64(v)), nil
	case c.Type == types.TypeFactor && (vt == types.TypeText || vt == types.TypeFactor):
		if fv, ok := v.(types.FactorValue); ok && fv.Levels() == c.Levels {
			return fv, nil
		}
		fv, err := c.Levels.Value(types.AsString(v))
		if err != nil {
			return nil, errors.Wrapf(err, "column %q", c.Name)
		}
		return fv, nil
	}

	return nil, errors.Wrapf(types.ErrTypeMismatch, "cannot store %s value %s in %s column %q", vt, v, c.Type, c.Name)
}

// InferColumn returns the narrowest column able to hold all the values.
// Integers and doubles unify to double. Factor values sharing their levels
// give a factor column. Columns made only of missing values are boolean.
func InferColumn(name string, values []types.Value) (Column, error) {
	c := Column{Name: name, Type: types.TypeAny}

	for _, v := range values {
		if types.IsNull(v) {
			continue
		}

		vt := v.Type()
		switch {
		case c.Type == types.TypeAny:
			c.Type = vt
			if fv, ok := v.(types.FactorValue); ok {
				c.Levels = fv.Levels()
			}
		case c.Type == vt && vt == types.TypeFactor:
			if !c.Levels.Equal(v.(types.FactorValue).Levels()) {
				c.Type, c.Levels = types.TypeText, nil
			}
		case c.Type == vt:
		case c.Type.IsNumber() && vt.IsNumber():
			c.Type = types.TypeDouble
		case (c.Type == types.TypeText && vt == types.TypeFactor) || (c.Type == types.TypeFactor && vt == types.TypeText):
			c.Type, c.Levels = types.TypeText, nil
		default:
			return Column{}, errors.Wrapf(types.ErrTypeMismatch, "column %q mixes %s and %s values", name, c.Type, vt)
		}
	}

	if c.Type == types.TypeAny {
		c.Type = types.TypeBoolean
	}

	return c, nil
}

// FromColumns builds a dataset from named value lists, inferring each column type.
func FromColumns(names []string, columns [][]types.Value) (*Dataset, error) {
	if len(names) != len(columns) {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d names for %d columns", len(names), len(columns))
	}

	cols := make([]Column, len(names))
	for i, name := range names {
		c, err := InferColumn(name, columns[i])
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}

	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}

	return New(schema, columns)
}

// FromRows builds a dataset from rows. Columns are the union of the row
// columns in first-seen order; absent columns are missing.
func FromRows(rows []row.Row) (*Dataset, error) {
	var names []string
	index := make(map[string]int)
	var columns [][]types.Value

	for i, r := range rows {
		err := r.Iterate(func(column string, v types.Value) error {
			c, ok := index[column]
			if !ok {
				c = len(names)
				index[column] = c
				names = append(names, column)
				col := make([]types.Value, len(rows))
				for j := range col {
					col[j] = types.NewNullValue()
				}
				columns = append(columns, col)
			}
			columns[c][i] = v
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return FromColumns(names, columns)
}

// FactorLevels returns the sorted distinct labels of text values, for building factor levels.
func FactorLevels(values []types.Value) []string {
	seen := make(map[string]struct{})
	var labels []string
	for _, v := range values {
		if types.IsNull(v) {
			continue
		}
		s := types.AsString(v)
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		labels = append(labels, s)
	}
	sort.Strings(labels)
	return labels
}

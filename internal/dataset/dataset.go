package dataset

import (
	"github.com/chaisql/tally/internal/encoding"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Dataset is an immutable table stored column by column.
// Every operation returns a new dataset and leaves its input unchanged,
// so a dataset can be shared by concurrent readers.
type Dataset struct {
	schema  *Schema
	columns [][]types.Value
	n       int
}

// New creates a dataset from column values, in schema order.
// Values are validated against the column definitions and copied.
func New(schema *Schema, columns [][]types.Value) (*Dataset, error) {
	if len(columns) != schema.Len() {
		return nil, errors.Wrapf(ErrLengthMismatch, "%d columns for a schema of %d", len(columns), schema.Len())
	}

	b := NewBuilder(schema)
	if len(columns) == 0 {
		return b.Dataset(), nil
	}

	n := len(columns[0])
	for i, c := range columns {
		if len(c) != n {
			return nil, errors.Wrapf(ErrLengthMismatch, "column %q has %d values, expected %d", schema.Column(i).Name, len(c), n)
		}
	}

	values := make([]types.Value, len(columns))
	for r := 0; r < n; r++ {
		for c := range columns {
			values[c] = columns[c][r]
		}
		if err := b.Append(values...); err != nil {
			return nil, err
		}
	}

	return b.Dataset(), nil
}

// Empty returns a dataset with no rows.
func Empty(schema *Schema) *Dataset {
	return &Dataset{schema: schema, columns: make([][]types.Value, schema.Len())}
}

func (d *Dataset) Schema() *Schema {
	return d.schema
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.n
}

// Value returns the value of the given column at row i.
func (d *Dataset) Value(i, col int) types.Value {
	return d.columns[col][i]
}

// Values returns a copy of the values of the named column.
func (d *Dataset) Values(name string) ([]types.Value, error) {
	c, _, err := d.schema.Lookup(name)
	if err != nil {
		return nil, err
	}

	values := make([]types.Value, d.n)
	copy(values, d.columns[c])
	return values, nil
}

// Row returns a view of the i-th row.
func (d *Dataset) Row(i int) Row {
	return Row{ds: d, i: i}
}

// Iterate calls fn for every row, in order.
func (d *Dataset) Iterate(fn func(r Row) error) error {
	for i := 0; i < d.n; i++ {
		if err := fn(Row{ds: d, i: i}); err != nil {
			return err
		}
	}
	return nil
}

// Take returns a dataset made of the rows at the given positions, in that order.
// Positions may repeat.
func (d *Dataset) Take(indices []int) *Dataset {
	out := Dataset{
		schema:  d.schema,
		columns: make([][]types.Value, len(d.columns)),
		n:       len(indices),
	}
	for c, values := range d.columns {
		col := make([]types.Value, len(indices))
		for j, i := range indices {
			col[j] = values[i]
		}
		out.columns[c] = col
	}
	return &out
}

// EncodeKey appends the encoding of the tuple formed by the given columns of row i.
// Rows get the same encoding if and only if they hold equal values in
// those columns, missing values included.
func (d *Dataset) EncodeKey(dst []byte, i int, cols []int) []byte {
	dst = encoding.EncodeTupleHeader(dst, len(cols))
	for _, c := range cols {
		dst = d.columns[c][i].EncodeAsKey(dst)
	}
	return dst
}

// withColumns returns a dataset sharing the given column slices.
// The slices must not be modified afterwards.
func withColumns(schema *Schema, columns [][]types.Value, n int) *Dataset {
	return &Dataset{schema: schema, columns: columns, n: n}
}

var _ row.Row = Row{}

// Row is a read-only view of a dataset row.
type Row struct {
	ds *Dataset
	i  int
}

// Index returns the position of the row in its dataset.
func (r Row) Index() int {
	return r.i
}

func (r Row) Get(name string) (types.Value, error) {
	c, ok := r.ds.schema.Index(name)
	if !ok {
		return nil, errors.Wrapf(row.ErrColumnNotFound, "%s not found", name)
	}
	return r.ds.columns[c][r.i], nil
}

func (r Row) Iterate(fn func(column string, value types.Value) error) error {
	for c, col := range r.ds.schema.columns {
		if err := fn(col.Name, r.ds.columns[c][r.i]); err != nil {
			return err
		}
	}
	return nil
}

func (r Row) MarshalJSON() ([]byte, error) {
	return row.MarshalJSON(r)
}

package dataset

import (
	"sort"
	"strings"

	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Expr is a row-level expression, evaluated against one row at a time.
type Expr interface {
	Eval(r row.Row) (types.Value, error)
	String() string
}

// Filter returns the rows for which pred evaluates to TRUE.
// Rows where pred is FALSE or missing are dropped.
func (d *Dataset) Filter(pred Expr) (*Dataset, error) {
	var keep []int
	err := d.Iterate(func(r Row) error {
		v, err := pred.Eval(r)
		if err != nil {
			return err
		}
		if !types.IsNull(v) && v.Type() != types.TypeBoolean {
			return errors.Wrapf(types.ErrTypeMismatch, "filter condition %s returned %s, expected boolean", pred, v.Type())
		}
		if types.IsTrue(v) {
			keep = append(keep, r.i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return d.Take(keep), nil
}

// Select keeps the named columns in the given order. Names prefixed with
// "-" are excluded instead; if only exclusions are given, every other column is kept.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	var include []int
	exclude := make(map[int]bool)
	seen := make(map[int]bool)

	for _, name := range names {
		if strings.HasPrefix(name, "-") {
			i, _, err := d.schema.Lookup(strings.TrimPrefix(name, "-"))
			if err != nil {
				return nil, err
			}
			exclude[i] = true
			continue
		}

		i, _, err := d.schema.Lookup(name)
		if err != nil {
			return nil, err
		}
		if !seen[i] {
			seen[i] = true
			include = append(include, i)
		}
	}

	if len(include) == 0 {
		for i := range d.schema.columns {
			include = append(include, i)
		}
	}

	var cols []Column
	var values [][]types.Value
	for _, i := range include {
		if exclude[i] {
			continue
		}
		cols = append(cols, d.schema.columns[i])
		values = append(values, d.columns[i])
	}

	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	return withColumns(schema, values, d.n), nil
}

// Ordering is a sort key.
type Ordering struct {
	Expr Expr
	Desc bool
}

func (o Ordering) String() string {
	if o.Desc {
		return "desc(" + o.Expr.String() + ")"
	}
	return o.Expr.String()
}

// Arrange sorts the rows by the given orderings. The sort is stable
// and missing values are placed last in both directions.
func (d *Dataset) Arrange(orderings ...Ordering) (*Dataset, error) {
	keys := make([][]types.Value, len(orderings))
	for k, o := range orderings {
		keys[k] = make([]types.Value, d.n)
		for i := 0; i < d.n; i++ {
			v, err := o.Expr.Eval(Row{ds: d, i: i})
			if err != nil {
				return nil, err
			}
			keys[k][i] = v
		}
	}

	indices := make([]int, d.n)
	for i := range indices {
		indices[i] = i
	}

	var sortErr error
	sort.SliceStable(indices, func(a, b int) bool {
		ia, ib := indices[a], indices[b]
		for k, o := range orderings {
			va, vb := keys[k][ia], keys[k][ib]
			na, nb := types.IsNull(va), types.IsNull(vb)
			if na || nb {
				if na == nb {
					continue
				}
				return nb
			}

			c, err := types.Compare(va, vb)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}

	return d.Take(indices), nil
}

// Mutate evaluates e on every row and stores the result in the named column.
// An existing column is replaced in place, otherwise the column is appended.
func (d *Dataset) Mutate(name string, e Expr) (*Dataset, error) {
	values := make([]types.Value, d.n)
	for i := 0; i < d.n; i++ {
		v, err := e.Eval(Row{ds: d, i: i})
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	col, err := InferColumn(name, values)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if values[i], err = Coerce(col, v); err != nil {
			return nil, err
		}
	}

	return d.WithColumn(col, values)
}

// WithColumn returns a dataset where the column c holds the given values.
// An existing column with the same name is replaced in place.
func (d *Dataset) WithColumn(c Column, values []types.Value) (*Dataset, error) {
	if len(values) != d.n {
		return nil, errors.Wrapf(ErrLengthMismatch, "column %q has %d values, expected %d", c.Name, len(values), d.n)
	}

	cols := d.schema.Columns()
	columns := make([][]types.Value, len(d.columns))
	copy(columns, d.columns)

	if i, ok := d.schema.Index(c.Name); ok {
		cols[i] = c
		columns[i] = values
	} else {
		cols = append(cols, c)
		columns = append(columns, values)
	}

	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	return withColumns(schema, columns, d.n), nil
}

// Renaming renames the column From to To.
type Renaming struct {
	To   string
	From string
}

// Rename renames columns. Renaming to a name already in use fails with ErrDuplicateColumn.
func (d *Dataset) Rename(renamings ...Renaming) (*Dataset, error) {
	cols := d.schema.Columns()
	for _, r := range renamings {
		i, _, err := d.schema.Lookup(r.From)
		if err != nil {
			return nil, err
		}
		cols[i].Name = r.To
	}

	schema, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	return withColumns(schema, d.columns, d.n), nil
}

// Head returns the first n rows. A negative n returns all rows but the last -n.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = max(d.n+n, 0)
	}
	n = min(n, d.n)

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return d.Take(indices)
}

// Slice returns the rows at the given positions, in that order.
func (d *Dataset) Slice(indices ...int) (*Dataset, error) {
	for _, i := range indices {
		if i < 0 || i >= d.n {
			return nil, errors.Newf("row %d out of range [0, %d)", i, d.n)
		}
	}
	return d.Take(indices), nil
}

// Distinct returns the first row of each distinct combination of the named
// columns, restricted to those columns. Without names, whole rows are compared.
func (d *Dataset) Distinct(names ...string) (*Dataset, error) {
	src := d
	if len(names) > 0 {
		var err error
		if src, err = d.Select(names...); err != nil {
			return nil, err
		}
	}

	cols := make([]int, src.schema.Len())
	for i := range cols {
		cols[i] = i
	}

	seen := make(map[string]struct{})
	var keep []int
	var buf []byte
	for i := 0; i < src.n; i++ {
		buf = src.EncodeKey(buf[:0], i, cols)
		if _, ok := seen[string(buf)]; ok {
			continue
		}
		seen[string(buf)] = struct{}{}
		keep = append(keep, i)
	}

	return src.Take(keep), nil
}

package stream

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/expr"
)

// An Operator transforms a frame into a new one.
// Operators never modify their input frame.
type Operator interface {
	Apply(in *Frame, opts []aggregate.Option) (*Frame, error)
	SetPrev(prev Operator)
	SetNext(next Operator)
	GetNext() Operator
	GetPrev() Operator
	String() string
}

// Pipe links the operators in order and returns the last one.
func Pipe(ops ...Operator) Operator {
	for i := len(ops) - 1; i > 0; i-- {
		ops[i].SetPrev(ops[i-1])
		ops[i-1].SetNext(ops[i])
	}

	return ops[len(ops)-1]
}

type BaseOperator struct {
	Prev Operator
	Next Operator
}

func (op *BaseOperator) SetPrev(o Operator) {
	op.Prev = o
}

func (op *BaseOperator) SetNext(o Operator) {
	op.Next = o
}

func (op *BaseOperator) GetPrev() Operator {
	return op.Prev
}

func (op *BaseOperator) GetNext() Operator {
	return op.Next
}

// A FilterOperator keeps the rows for which E is TRUE.
type FilterOperator struct {
	BaseOperator
	E expr.Expr
}

func Filter(e expr.Expr) *FilterOperator {
	return &FilterOperator{E: e}
}

func (op *FilterOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	ds, err := in.Dataset.Filter(op.E)
	if err != nil {
		return nil, err
	}
	return in.with(ds)
}

func (op *FilterOperator) String() string {
	return fmt.Sprintf("filter(%s)", op.E)
}

// A SelectOperator keeps or drops columns. Names prefixed with a minus are dropped.
// Group keys are always kept.
type SelectOperator struct {
	BaseOperator
	Columns []string
}

func Select(columns ...string) *SelectOperator {
	return &SelectOperator{Columns: columns}
}

func (op *SelectOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	ds, err := in.Dataset.Select(op.Columns...)
	if err != nil {
		return nil, err
	}

	if in.Grouped() {
		var missing []string
		for _, k := range in.Groups.Keys() {
			if _, ok := ds.Schema().Index(k); !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			if ds, err = in.Dataset.Select(append(missing, ds.Schema().Names()...)...); err != nil {
				return nil, err
			}
		}
	}

	return in.with(ds)
}

func (op *SelectOperator) String() string {
	return fmt.Sprintf("select(%s)", strings.Join(op.Columns, ", "))
}

// An ArrangeOperator sorts the rows.
type ArrangeOperator struct {
	BaseOperator
	Orderings []dataset.Ordering
}

func Arrange(orderings ...dataset.Ordering) *ArrangeOperator {
	return &ArrangeOperator{Orderings: orderings}
}

func (op *ArrangeOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	ds, err := in.Dataset.Arrange(op.Orderings...)
	if err != nil {
		return nil, err
	}
	return in.with(ds)
}

func (op *ArrangeOperator) String() string {
	parts := make([]string, len(op.Orderings))
	for i, o := range op.Orderings {
		parts[i] = o.String()
	}
	return fmt.Sprintf("arrange(%s)", strings.Join(parts, ", "))
}

// Assignment binds the result of an expression to a column name.
type Assignment struct {
	Name string
	E    expr.Expr
}

func (a Assignment) String() string {
	return fmt.Sprintf("%s = %s", a.Name, a.E)
}

// A MutateOperator adds or replaces columns. Assignments are evaluated
// in order and may refer to columns created by previous ones.
type MutateOperator struct {
	BaseOperator
	Assignments []Assignment
}

func Mutate(assignments ...Assignment) *MutateOperator {
	return &MutateOperator{Assignments: assignments}
}

func (op *MutateOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	ds := in.Dataset
	for _, a := range op.Assignments {
		if err := expr.Check(a.E, ds.Schema()); err != nil {
			return nil, err
		}

		var err error
		if ds, err = ds.Mutate(a.Name, a.E); err != nil {
			return nil, err
		}
	}
	return in.with(ds)
}

func (op *MutateOperator) String() string {
	parts := make([]string, len(op.Assignments))
	for i, a := range op.Assignments {
		parts[i] = a.String()
	}
	return fmt.Sprintf("mutate(%s)", strings.Join(parts, ", "))
}

// A RenameOperator renames columns, group keys included.
type RenameOperator struct {
	BaseOperator
	Renamings []dataset.Renaming
}

func Rename(renamings ...dataset.Renaming) *RenameOperator {
	return &RenameOperator{Renamings: renamings}
}

func (op *RenameOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	ds, err := in.Dataset.Rename(op.Renamings...)
	if err != nil {
		return nil, err
	}
	if !in.Grouped() {
		return &Frame{Dataset: ds}, nil
	}

	keys := in.Groups.Keys()
	for i, k := range keys {
		for _, r := range op.Renamings {
			if r.From == k {
				keys[i] = r.To
			}
		}
	}
	g, err := aggregate.GroupBy(ds, keys...)
	if err != nil {
		return nil, err
	}
	return &Frame{Dataset: ds, Groups: g, Sorted: in.Sorted}, nil
}

func (op *RenameOperator) String() string {
	parts := make([]string, len(op.Renamings))
	for i, r := range op.Renamings {
		parts[i] = r.To + " = " + r.From
	}
	return fmt.Sprintf("rename(%s)", strings.Join(parts, ", "))
}

// A HeadOperator keeps the first N rows of the dataset.
type HeadOperator struct {
	BaseOperator
	N int
}

func Head(n int) *HeadOperator {
	return &HeadOperator{N: n}
}

func (op *HeadOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	return in.with(in.Dataset.Head(op.N))
}

func (op *HeadOperator) String() string {
	return fmt.Sprintf("head(%d)", op.N)
}

// A DistinctOperator keeps the first row of each distinct combination
// of the given columns, or of whole rows. Group keys are always kept.
type DistinctOperator struct {
	BaseOperator
	Columns []string
}

func Distinct(columns ...string) *DistinctOperator {
	return &DistinctOperator{Columns: columns}
}

func (op *DistinctOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	columns := op.Columns
	if in.Grouped() && len(columns) > 0 {
		columns = nil
		for _, k := range in.Groups.Keys() {
			if !slices.Contains(op.Columns, k) {
				columns = append(columns, k)
			}
		}
		columns = append(columns, op.Columns...)
	}

	ds, err := in.Dataset.Distinct(columns...)
	if err != nil {
		return nil, err
	}
	return in.with(ds)
}

func (op *DistinctOperator) String() string {
	return fmt.Sprintf("distinct(%s)", strings.Join(op.Columns, ", "))
}

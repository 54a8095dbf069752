package stream

import (
	"fmt"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
)

// A GroupByOperator groups the rows by the given keys, replacing any
// previous grouping.
type GroupByOperator struct {
	BaseOperator
	Keys []string
	// Sort makes summaries sorted by key instead of first appearance.
	Sort bool
}

func GroupBy(keys ...string) *GroupByOperator {
	return &GroupByOperator{Keys: keys}
}

func (op *GroupByOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	g, err := aggregate.GroupBy(in.Dataset, op.Keys...)
	if err != nil {
		return nil, err
	}
	return &Frame{Dataset: in.Dataset, Groups: g, Sorted: op.Sort}, nil
}

func (op *GroupByOperator) String() string {
	args := strings.Join(op.Keys, ", ")
	if op.Sort {
		args += ", sort = TRUE"
	}
	return fmt.Sprintf("group_by(%s)", args)
}

// An UngroupOperator drops the grouping.
type UngroupOperator struct {
	BaseOperator
}

func Ungroup() *UngroupOperator {
	return &UngroupOperator{}
}

func (op *UngroupOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	return &Frame{Dataset: in.Dataset}, nil
}

func (op *UngroupOperator) String() string {
	return "ungroup()"
}

// A SummarizeOperator computes one row per group, or a single row
// if the frame is not grouped. The result is not grouped.
type SummarizeOperator struct {
	BaseOperator
	Aggregations []aggregate.Aggregation
}

func Summarize(aggs ...aggregate.Aggregation) *SummarizeOperator {
	return &SummarizeOperator{Aggregations: aggs}
}

func (op *SummarizeOperator) Apply(in *Frame, opts []aggregate.Option) (*Frame, error) {
	if !in.Grouped() {
		ds, err := aggregate.Aggregate(in.Dataset, nil, op.Aggregations, opts...)
		if err != nil {
			return nil, err
		}
		return &Frame{Dataset: ds}, nil
	}

	if in.Sorted {
		opts = append(opts[:len(opts):len(opts)], aggregate.WithSortedGroups())
	}
	ds, err := in.Groups.Summarize(op.Aggregations, opts...)
	if err != nil {
		return nil, err
	}
	return &Frame{Dataset: ds}, nil
}

func (op *SummarizeOperator) String() string {
	parts := make([]string, len(op.Aggregations))
	for i, a := range op.Aggregations {
		parts[i] = a.String()
	}
	return fmt.Sprintf("summarize(%s)", strings.Join(parts, ", "))
}

// A CountOperator counts the rows of each combination of the group
// keys and the given columns, in a column named n.
type CountOperator struct {
	BaseOperator
	Columns []string
}

func Count(columns ...string) *CountOperator {
	return &CountOperator{Columns: columns}
}

func (op *CountOperator) Apply(in *Frame, opts []aggregate.Option) (*Frame, error) {
	var keys []string
	if in.Grouped() {
		keys = in.Groups.Keys()
	}
	keys = append(keys, op.Columns...)

	g, err := aggregate.GroupBy(in.Dataset, keys...)
	if err != nil {
		return nil, err
	}
	if in.Sorted {
		opts = append(opts[:len(opts):len(opts)], aggregate.WithSortedGroups())
	}
	ds, err := g.Count(opts...)
	if err != nil {
		return nil, err
	}
	return &Frame{Dataset: ds}, nil
}

func (op *CountOperator) String() string {
	return fmt.Sprintf("count(%s)", strings.Join(op.Columns, ", "))
}

// A SliceOperator keeps, within each group, the rows with the N smallest
// or largest values of a column. The grouping is preserved.
type SliceOperator struct {
	BaseOperator
	Column   string
	N        int
	WithTies bool
	Max      bool
}

func SliceMin(column string, n int, withTies bool) *SliceOperator {
	return &SliceOperator{Column: column, N: n, WithTies: withTies}
}

func SliceMax(column string, n int, withTies bool) *SliceOperator {
	return &SliceOperator{Column: column, N: n, WithTies: withTies, Max: true}
}

func (op *SliceOperator) Apply(in *Frame, _ []aggregate.Option) (*Frame, error) {
	g := in.Groups
	if g == nil {
		var err error
		if g, err = aggregate.GroupBy(in.Dataset); err != nil {
			return nil, err
		}
	}

	var sliced *aggregate.Grouped
	var err error
	if op.Max {
		sliced, err = g.SliceMax(op.Column, op.N, op.WithTies)
	} else {
		sliced, err = g.SliceMin(op.Column, op.N, op.WithTies)
	}
	if err != nil {
		return nil, err
	}

	if !in.Grouped() {
		return &Frame{Dataset: sliced.Dataset()}, nil
	}
	return &Frame{Dataset: sliced.Dataset(), Groups: sliced, Sorted: in.Sorted}, nil
}

func (op *SliceOperator) String() string {
	name := "slice_min"
	if op.Max {
		name = "slice_max"
	}
	ties := "TRUE"
	if !op.WithTies {
		ties = "FALSE"
	}
	return fmt.Sprintf("%s(%s, n = %d, with_ties = %s)", name, op.Column, op.N, ties)
}

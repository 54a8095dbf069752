package stream

import (
	"fmt"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/cockroachdb/errors"
)

// Frame is the value flowing through a stream: a dataset and,
// after a group_by, its grouping.
type Frame struct {
	Dataset *dataset.Dataset
	Groups  *aggregate.Grouped
	// Sorted requests summaries sorted by key.
	Sorted bool
}

// Grouped reports whether the frame carries a grouping.
func (f *Frame) Grouped() bool {
	return f.Groups != nil
}

func (f *Frame) String() string {
	if f.Groups == nil {
		return fmt.Sprintf("%d rows", f.Dataset.Len())
	}
	return fmt.Sprintf("%d rows, groups: %s [%d]", f.Dataset.Len(), strings.Join(f.Groups.Keys(), ", "), f.Groups.Len())
}

// with returns a frame holding ds and keeping the grouping of f.
func (f *Frame) with(ds *dataset.Dataset) (*Frame, error) {
	if f.Groups == nil {
		return &Frame{Dataset: ds}, nil
	}

	g, err := aggregate.GroupBy(ds, f.Groups.Keys()...)
	if err != nil {
		return nil, err
	}
	return &Frame{Dataset: ds, Groups: g, Sorted: f.Sorted}, nil
}

// Stream is a chain of operators applied one after the other.
type Stream struct {
	Op Operator
}

func New(op Operator) *Stream {
	return &Stream{Op: op}
}

// Pipe appends op at the end of the stream.
func (s *Stream) Pipe(op Operator) *Stream {
	if s == nil || s.Op == nil {
		return New(op)
	}
	s.Op = Pipe(s.Op, op)
	return s
}

// First returns the first operator of the stream.
func (s *Stream) First() Operator {
	n := s.Op

	for n != nil && n.GetPrev() != nil {
		n = n.GetPrev()
	}

	return n
}

// Run applies every operator to ds, in order. The options are used by
// the operators computing summaries.
func (s *Stream) Run(ds *dataset.Dataset, opts ...aggregate.Option) (*Frame, error) {
	f := &Frame{Dataset: ds}
	if s == nil {
		return f, nil
	}

	for op := s.First(); op != nil; op = op.GetNext() {
		var err error
		f, err = op.Apply(f, opts)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", op)
		}
	}

	return f, nil
}

func (s *Stream) String() string {
	if s == nil || s.Op == nil {
		return ""
	}

	var sb strings.Builder

	for op := s.First(); op != nil; op = op.GetNext() {
		if sb.Len() != 0 {
			sb.WriteString(" %>% ")
		}
		sb.WriteString(op.String())
	}

	return sb.String()
}

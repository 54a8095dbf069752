package dataset

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrLengthMismatch  = errors.New("column length mismatch")
)

// Column describes a column of a dataset. Levels is only set for factor columns.
type Column struct {
	Name   string
	Type   types.Type
	Levels *types.Levels
}

func (c Column) String() string {
	if c.Type == types.TypeFactor && c.Levels != nil {
		return c.Name + " " + c.Type.String() + "(" + strings.Join(c.Levels.Labels(), ", ") + ")"
	}

	return c.Name + " " + c.Type.String()
}

// Schema is an ordered list of uniquely named columns.
type Schema struct {
	columns []Column
	index   map[string]int
}

// NewSchema returns a schema made of the given columns.
func NewSchema(columns ...Column) (*Schema, error) {
	s := Schema{
		columns: make([]Column, len(columns)),
		index:   make(map[string]int, len(columns)),
	}

	for i, c := range columns {
		if c.Name == "" {
			return nil, errors.New("empty column name")
		}
		if _, ok := s.index[c.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateColumn, "%q", c.Name)
		}
		if c.Type == types.TypeFactor && c.Levels == nil {
			return nil, errors.Newf("factor column %q has no levels", c.Name)
		}
		s.columns[i] = c
		s.index[c.Name] = i
	}

	return &s, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Column returns the i-th column.
func (s *Schema) Column(i int) Column {
	return s.columns[i]
}

// Columns returns a copy of the columns.
func (s *Schema) Columns() []Column {
	cols := make([]Column, len(s.columns))
	copy(cols, s.columns)
	return cols
}

// Names returns the column names, in order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the named column.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Lookup returns the position and definition of the named column.
// Unknown names return ErrUnknownColumn, with a hint naming the closest
// existing column if any.
func (s *Schema) Lookup(name string) (int, Column, error) {
	i, ok := s.index[name]
	if !ok {
		err := errors.Wrapf(ErrUnknownColumn, "%q", name)
		if guess := s.closest(name); guess != "" {
			err = errors.WithHintf(err, "did you mean %q?", guess)
		}
		return -1, Column{}, err
	}

	return i, s.columns[i], nil
}

func (s *Schema) closest(name string) string {
	var best string
	bestDist := len(name)/3 + 2
	for _, c := range s.columns {
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c.Name))
		if d < bestDist {
			best, bestDist = c.Name, d
		}
	}
	return best
}

func (s *Schema) String() string {
	var sb strings.Builder
	for i, c := range s.columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	return sb.String()
}

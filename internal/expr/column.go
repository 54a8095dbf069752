package expr

import (
	"strings"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// A Column refers to a column of the current row.
type Column string

func (c Column) Eval(r row.Row) (types.Value, error) {
	v, err := r.Get(string(c))
	if errors.Is(err, row.ErrColumnNotFound) {
		return nil, errors.Wrapf(dataset.ErrUnknownColumn, "%q", string(c))
	}
	return v, err
}

func (c Column) Type(s *dataset.Schema) (types.Type, error) {
	_, col, err := s.Lookup(string(c))
	if err != nil {
		return types.TypeAny, err
	}
	return col.Type, nil
}

// String quotes names that are not valid identifiers with backquotes.
func (c Column) String() string {
	if isIdent(string(c)) {
		return string(c)
	}
	return "`" + string(c) + "`"
}

func isIdent(s string) bool {
	if s == "" || s == "TRUE" || s == "FALSE" || s == "NA" || s == "NULL" {
		return false
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '.')
	})
}

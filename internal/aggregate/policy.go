package aggregate

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// MissingPolicy decides how a reducer treats missing values of its source column.
// The zero value is not a valid policy: every aggregation over a column
// must choose one explicitly.
type MissingPolicy uint8

const (
	// PolicyUnset is the zero value.
	PolicyUnset MissingPolicy = iota
	// Propagate makes the result missing as soon as one input is missing.
	Propagate
	// SkipMissing removes missing values before reducing.
	SkipMissing
)

func (p MissingPolicy) String() string {
	switch p {
	case Propagate:
		return "propagate"
	case SkipMissing:
		return "skip"
	}
	return "unset"
}

// ParsePolicy parses the names printed by String, as well as the
// R spellings TRUE (skip, as in na.rm = TRUE) and FALSE (propagate).
func ParsePolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(s) {
	case "propagate", "keep", "false":
		return Propagate, nil
	case "skip", "omit", "rm", "true":
		return SkipMissing, nil
	}
	return PolicyUnset, errors.Newf("unknown missing value policy %q", s)
}

// Aggregation is one output column of a summary: the reducer applied to
// the values of Column within each partition. Column is empty for row counts.
type Aggregation struct {
	Name    string
	Column  string
	Reducer Reducer
	Policy  MissingPolicy
}

func (a Aggregation) String() string {
	var args []string
	if a.Column != "" {
		args = append(args, a.Column)
	}
	args = append(args, a.Reducer.params()...)
	if a.Column != "" {
		args = append(args, fmt.Sprintf("na = %s", a.Policy))
	}
	return fmt.Sprintf("%s = %s(%s)", a.Name, a.Reducer.Name(), strings.Join(args, ", "))
}

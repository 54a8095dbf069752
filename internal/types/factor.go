package types

import (
	"encoding/json"
	"strconv"

	"github.com/chaisql/tally/internal/encoding"
	"github.com/cockroachdb/errors"
)

// Levels is the fixed, ordered set of labels a factor column may take.
// Levels are shared by every value of a column and never change once created.
type Levels struct {
	labels  []string
	index   map[string]int
	ordered bool
}

// NewLevels creates a level set. Ordered levels support min, max and
// inequality comparisons by level position.
func NewLevels(labels []string, ordered bool) (*Levels, error) {
	l := Levels{
		labels:  make([]string, len(labels)),
		index:   make(map[string]int, len(labels)),
		ordered: ordered,
	}
	copy(l.labels, labels)

	for i, s := range labels {
		if _, ok := l.index[s]; ok {
			return nil, errors.Wrapf(ErrInvalidLevel, "duplicate level %q", s)
		}
		l.index[s] = i
	}

	return &l, nil
}

// Len returns the number of levels.
func (l *Levels) Len() int {
	return len(l.labels)
}

// Labels returns a copy of the labels, in level order.
func (l *Levels) Labels() []string {
	labels := make([]string, len(l.labels))
	copy(labels, l.labels)
	return labels
}

func (l *Levels) Ordered() bool {
	return l.ordered
}

// Label returns the label of the level at position code.
func (l *Levels) Label(code int) string {
	return l.labels[code]
}

// Lookup returns the position of label.
func (l *Levels) Lookup(label string) (int, bool) {
	i, ok := l.index[label]
	return i, ok
}

// Value returns the factor value for label.
func (l *Levels) Value(label string) (FactorValue, error) {
	code, ok := l.index[label]
	if !ok {
		return FactorValue{}, errors.Wrapf(ErrInvalidLevel, "%q is not a level of %v", label, l.labels)
	}

	return FactorValue{levels: l, code: code}, nil
}

// Equal reports whether both level sets have the same labels in the same order.
func (l *Levels) Equal(other *Levels) bool {
	if l == other {
		return true
	}
	if l == nil || other == nil || l.ordered != other.ordered || len(l.labels) != len(other.labels) {
		return false
	}
	for i := range l.labels {
		if l.labels[i] != other.labels[i] {
			return false
		}
	}
	return true
}

var _ Value = FactorValue{}

// FactorValue is a categorical value: a position in a set of levels.
type FactorValue struct {
	levels *Levels
	code   int
}

func (v FactorValue) V() any {
	return v.Label()
}

func (v FactorValue) Type() Type {
	return TypeFactor
}

func (v FactorValue) Levels() *Levels {
	return v.levels
}

func (v FactorValue) Code() int {
	return v.code
}

func (v FactorValue) Label() string {
	return v.levels.labels[v.code]
}

func (v FactorValue) String() string {
	return strconv.Quote(v.Label())
}

func (v FactorValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Label())
}

func (v FactorValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeFactor(dst, v.code)
}

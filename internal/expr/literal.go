package expr

import (
	"strings"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
)

// A LiteralValue represents a literal value of any type defined by the value package.
type LiteralValue struct {
	Value types.Value
}

func (v LiteralValue) Eval(row.Row) (types.Value, error) {
	return v.Value, nil
}

func (v LiteralValue) Type(*dataset.Schema) (types.Type, error) {
	if types.IsNull(v.Value) {
		return types.TypeNull, nil
	}
	return v.Value.Type(), nil
}

func (v LiteralValue) String() string {
	return v.Value.String()
}

// LiteralList is the list built by c(...), used on the right side of %in%.
type LiteralList []Expr

func (l LiteralList) values(r row.Row) ([]types.Value, error) {
	values := make([]types.Value, len(l))
	for i, e := range l {
		v, err := e.Eval(r)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Eval returns the first element. Lists only make sense as operands of %in%.
func (l LiteralList) Eval(r row.Row) (types.Value, error) {
	if len(l) == 0 {
		return types.NewNullValue(), nil
	}
	return l[0].Eval(r)
}

func (l LiteralList) Type(s *dataset.Schema) (types.Type, error) {
	t := types.TypeNull
	for _, e := range l {
		et, err := e.Type(s)
		if err != nil {
			return types.TypeAny, err
		}
		if t == types.TypeNull {
			t = et
		}
	}
	return t, nil
}

func (l LiteralList) String() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.String()
	}
	return "c(" + strings.Join(parts, ", ") + ")"
}

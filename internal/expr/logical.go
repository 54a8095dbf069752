package expr

import (
	"fmt"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// logical values: -1 false, 0 missing, 1 true.
func logical(v types.Value, e Expr) (int, error) {
	if types.IsNull(v) {
		return 0, nil
	}
	if v.Type() != types.TypeBoolean {
		return 0, errors.Wrapf(types.ErrTypeMismatch, "%s is %s, expected boolean", e, v.Type())
	}
	if types.AsBool(v) {
		return 1, nil
	}
	return -1, nil
}

func logicalValue(l int) types.Value {
	switch l {
	case 1:
		return types.NewBooleanValue(true)
	case -1:
		return types.NewBooleanValue(false)
	}
	return types.NewNullValue()
}

func checkLogical(s *dataset.Schema, exprs ...Expr) (types.Type, error) {
	for _, e := range exprs {
		t, err := e.Type(s)
		if err != nil {
			return types.TypeAny, err
		}
		if t != types.TypeBoolean && t != types.TypeNull && t != types.TypeAny {
			return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "%s is %s, expected boolean", e, t)
		}
	}
	return types.TypeBoolean, nil
}

// AndOp is the & operator.
type AndOp struct {
	*simpleOperator
}

// And creates an expression that evaluates a & b.
// FALSE & NA is FALSE, TRUE & NA is NA.
func And(a, b Expr) Expr {
	return &AndOp{&simpleOperator{a, b, scanner.AND}}
}

func (op *AndOp) Eval(r row.Row) (types.Value, error) {
	return op.simpleOperator.eval(r, func(a, b types.Value) (types.Value, error) {
		la, err := logical(a, op.a)
		if err != nil {
			return nil, err
		}
		lb, err := logical(b, op.b)
		if err != nil {
			return nil, err
		}
		return logicalValue(min(la, lb)), nil
	})
}

func (op *AndOp) Type(s *dataset.Schema) (types.Type, error) {
	return checkLogical(s, op.a, op.b)
}

// OrOp is the | operator.
type OrOp struct {
	*simpleOperator
}

// Or creates an expression that evaluates a | b.
// TRUE | NA is TRUE, FALSE | NA is NA.
func Or(a, b Expr) Expr {
	return &OrOp{&simpleOperator{a, b, scanner.OR}}
}

func (op *OrOp) Eval(r row.Row) (types.Value, error) {
	return op.simpleOperator.eval(r, func(a, b types.Value) (types.Value, error) {
		la, err := logical(a, op.a)
		if err != nil {
			return nil, err
		}
		lb, err := logical(b, op.b)
		if err != nil {
			return nil, err
		}
		return logicalValue(max(la, lb)), nil
	})
}

func (op *OrOp) Type(s *dataset.Schema) (types.Type, error) {
	return checkLogical(s, op.a, op.b)
}

// Not is the ! operator. !NA is NA.
type Not struct {
	E Expr
}

func (n *Not) Eval(r row.Row) (types.Value, error) {
	v, err := n.E.Eval(r)
	if err != nil {
		return nil, err
	}
	l, err := logical(v, n.E)
	if err != nil {
		return nil, err
	}
	return logicalValue(-l), nil
}

func (n *Not) Type(s *dataset.Schema) (types.Type, error) {
	return checkLogical(s, n.E)
}

func (n *Not) String() string {
	return fmt.Sprintf("!%v", n.E)
}

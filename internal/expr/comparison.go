package expr

import (
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

type cmpOp struct {
	*simpleOperator
}

// newCmpOp creates a comparison operator.
func newCmpOp(a, b Expr, t scanner.Token) *cmpOp {
	return &cmpOp{&simpleOperator{a, b, t}}
}

// Eval compares a and b together using the operator specified when constructing the CmpOp
// and returns the result of the comparison.
// Comparing with a missing value returns a missing value.
func (op *cmpOp) Eval(r row.Row) (types.Value, error) {
	return op.simpleOperator.eval(r, func(a, b types.Value) (types.Value, error) {
		if types.IsNull(a) || types.IsNull(b) {
			return types.NewNullValue(), nil
		}

		c, err := types.Compare(a, b)
		if err != nil {
			return nil, err
		}

		// NaN compares unequal to everything, itself included
		if isNaN(a) || isNaN(b) {
			return types.NewBooleanValue(op.Tok == scanner.NEQ), nil
		}

		var ok bool
		switch op.Tok {
		case scanner.EQ:
			ok = c == 0
		case scanner.NEQ:
			ok = c != 0
		case scanner.GT:
			ok = c > 0
		case scanner.GTE:
			ok = c >= 0
		case scanner.LT:
			ok = c < 0
		case scanner.LTE:
			ok = c <= 0
		}
		return types.NewBooleanValue(ok), nil
	})
}

func (op *cmpOp) Type(s *dataset.Schema) (types.Type, error) {
	ta, tb, err := op.types(s)
	if err != nil {
		return types.TypeAny, err
	}
	if !ta.IsComparableWith(tb) {
		return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "cannot compare %s with %s in %s", ta, tb, op)
	}
	return types.TypeBoolean, nil
}

func isNaN(v types.Value) bool {
	if v.Type() != types.TypeDouble {
		return false
	}
	f := types.AsFloat64(v)
	return f != f
}

// Eq creates an expression that returns true if a equals b.
func Eq(a, b Expr) Expr {
	return newCmpOp(a, b, scanner.EQ)
}

// Neq creates an expression that returns true if a equals b.
func Neq(a, b Expr) Expr {
	return newCmpOp(a, b, scanner.NEQ)
}

// Gt creates an expression that returns true if a is greater than b.
func Gt(a, b Expr) Expr {
	return newCmpOp(a, b, scanner.GT)
}

// Gte creates an expression that returns true if a is greater than or equal to b.
func Gte(a, b Expr) Expr {
	return newCmpOp(a, b, scanner.GTE)
}

// Lt creates an expression that returns true if a is lesser than b.
func Lt(a, b Expr) Expr {
	return newCmpOp(a, b, scanner.LT)
}

// Lte creates an expression that returns true if a is lesser than or equal to b.
func Lte(a, b Expr) Expr {
	return newCmpOp(a, b, scanner.LTE)
}

type inOp struct {
	*simpleOperator
}

// In creates an expression that evaluates to TRUE if a matches one of the
// values of b. Missing values match missing values, so the result is never missing.
func In(a, b Expr) Expr {
	return &inOp{&simpleOperator{a, b, scanner.IN}}
}

func (op *inOp) Eval(r row.Row) (types.Value, error) {
	a, err := op.a.Eval(r)
	if err != nil {
		return nil, err
	}

	var candidates []types.Value
	if l, ok := op.b.(LiteralList); ok {
		if candidates, err = l.values(r); err != nil {
			return nil, err
		}
	} else {
		b, err := op.b.Eval(r)
		if err != nil {
			return nil, err
		}
		candidates = []types.Value{b}
	}

	for _, c := range candidates {
		if types.Equal(a, c) {
			return types.NewBooleanValue(true), nil
		}
	}
	return types.NewBooleanValue(false), nil
}

func (op *inOp) Type(s *dataset.Schema) (types.Type, error) {
	ta, tb, err := op.types(s)
	if err != nil {
		return types.TypeAny, err
	}
	if !ta.IsComparableWith(tb) {
		return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "cannot match %s against %s", ta, tb)
	}
	return types.TypeBoolean, nil
}

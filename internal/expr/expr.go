package expr

import (
	"fmt"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/types"
)

// An Expr evaluates to a value for a given row.
type Expr interface {
	Eval(r row.Row) (types.Value, error)
	// Type returns the type of the values produced by the expression
	// for rows of the given schema. TypeAny means the type depends on the data.
	Type(s *dataset.Schema) (types.Type, error)
	String() string
}

var _ dataset.Expr = Expr(nil)

// An Operator is a binary expression that
// takes two operands and executes an operation on them.
type Operator interface {
	Expr

	Precedence() int
	LeftHand() Expr
	RightHand() Expr
	SetLeftHandExpr(Expr)
	SetRightHandExpr(Expr)
	Token() scanner.Token
}

type simpleOperator struct {
	a, b Expr
	Tok  scanner.Token
}

func (op *simpleOperator) Precedence() int {
	return op.Tok.Precedence()
}

func (op *simpleOperator) LeftHand() Expr {
	return op.a
}

func (op *simpleOperator) RightHand() Expr {
	return op.b
}

func (op *simpleOperator) SetLeftHandExpr(a Expr) {
	op.a = a
}

func (op *simpleOperator) SetRightHandExpr(b Expr) {
	op.b = b
}

func (op *simpleOperator) Token() scanner.Token {
	return op.Tok
}

func (op *simpleOperator) eval(r row.Row, fn func(a, b types.Value) (types.Value, error)) (types.Value, error) {
	va, err := op.a.Eval(r)
	if err != nil {
		return nil, err
	}

	vb, err := op.b.Eval(r)
	if err != nil {
		return nil, err
	}

	return fn(va, vb)
}

func (op *simpleOperator) types(s *dataset.Schema) (types.Type, types.Type, error) {
	ta, err := op.a.Type(s)
	if err != nil {
		return types.TypeAny, types.TypeAny, err
	}
	tb, err := op.b.Type(s)
	if err != nil {
		return types.TypeAny, types.TypeAny, err
	}
	return ta, tb, nil
}

func (op *simpleOperator) String() string {
	return fmt.Sprintf("%v %v %v", op.a, op.Tok, op.b)
}

// Parentheses is a parenthesised expression.
type Parentheses struct {
	E Expr
}

func (p Parentheses) Eval(r row.Row) (types.Value, error) {
	return p.E.Eval(r)
}

func (p Parentheses) Type(s *dataset.Schema) (types.Type, error) {
	return p.E.Type(s)
}

func (p Parentheses) String() string {
	return fmt.Sprintf("(%v)", p.E)
}

// Walk calls fn for e and each of its sub-expressions, depth first.
// Returning false stops the descent into the current expression.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}

	switch t := e.(type) {
	case Operator:
		Walk(t.LeftHand(), fn)
		Walk(t.RightHand(), fn)
	case Parentheses:
		Walk(t.E, fn)
	case *Not:
		Walk(t.E, fn)
	case *Neg:
		Walk(t.E, fn)
	case *Call:
		for _, a := range t.Args {
			Walk(a, fn)
		}
	case LiteralList:
		for _, a := range t {
			Walk(a, fn)
		}
	}
}

// Columns returns the names of the columns referenced by e, without duplicates.
func Columns(e Expr) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(e, func(e Expr) bool {
		if c, ok := e.(Column); ok && !seen[string(c)] {
			seen[string(c)] = true
			names = append(names, string(c))
		}
		return true
	})
	return names
}

// Check verifies that e can be evaluated against rows of the given schema:
// every column exists and operand types are compatible.
func Check(e Expr, s *dataset.Schema) error {
	_, err := TypeOf(e, s)
	return err
}

// TypeOf returns the type of the values produced by e for rows of s,
// without evaluating it.
func TypeOf(e Expr, s *dataset.Schema) (types.Type, error) {
	return e.Type(s)
}

package expr

import (
	"fmt"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

type arithmeticOperator struct {
	*simpleOperator
	op types.ArithmeticOperator
}

func newArithmeticOperator(a, b Expr, tok scanner.Token, op types.ArithmeticOperator) Expr {
	return &arithmeticOperator{&simpleOperator{a, b, tok}, op}
}

func (op *arithmeticOperator) Eval(r row.Row) (types.Value, error) {
	return op.simpleOperator.eval(r, func(a, b types.Value) (types.Value, error) {
		return types.Arithmetic(op.op, a, b)
	})
}

func (op *arithmeticOperator) Type(s *dataset.Schema) (types.Type, error) {
	ta, tb, err := op.types(s)
	if err != nil {
		return types.TypeAny, err
	}
	return types.ArithmeticType(op.op, ta, tb)
}

// Add creates an expression that evaluates a + b.
func Add(a, b Expr) Expr {
	return newArithmeticOperator(a, b, scanner.ADD, types.OpAdd)
}

// Sub creates an expression that evaluates a - b.
func Sub(a, b Expr) Expr {
	return newArithmeticOperator(a, b, scanner.SUB, types.OpSub)
}

// Mul creates an expression that evaluates a * b.
func Mul(a, b Expr) Expr {
	return newArithmeticOperator(a, b, scanner.MUL, types.OpMul)
}

// Div creates an expression that evaluates a / b.
func Div(a, b Expr) Expr {
	return newArithmeticOperator(a, b, scanner.DIV, types.OpDiv)
}

// Mod creates an expression that evaluates a %% b.
func Mod(a, b Expr) Expr {
	return newArithmeticOperator(a, b, scanner.MOD, types.OpMod)
}

// Pow creates an expression that evaluates a ^ b.
func Pow(a, b Expr) Expr {
	return newArithmeticOperator(a, b, scanner.POW, types.OpPow)
}

// Neg is the unary minus.
type Neg struct {
	E Expr
}

func (n *Neg) Eval(r row.Row) (types.Value, error) {
	v, err := n.E.Eval(r)
	if err != nil {
		return nil, err
	}
	return types.Arithmetic(types.OpSub, types.NewIntegerValue(0), v)
}

func (n *Neg) Type(s *dataset.Schema) (types.Type, error) {
	t, err := n.E.Type(s)
	if err != nil {
		return types.TypeAny, err
	}
	if t == types.TypeBoolean {
		return types.TypeInteger, nil
	}
	if t != types.TypeNull && t != types.TypeAny && !t.IsNumber() {
		return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "cannot negate %s", t)
	}
	return t, nil
}

func (n *Neg) String() string {
	return fmt.Sprintf("-%v", n.E)
}

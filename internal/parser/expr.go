package parser

import (
	"strconv"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/expr"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

type dummyOperator struct {
	rightHand expr.Expr
}

func (d *dummyOperator) Token() scanner.Token                     { panic("not implemented") }
func (d *dummyOperator) Eval(row.Row) (types.Value, error)        { panic("not implemented") }
func (d *dummyOperator) Type(*dataset.Schema) (types.Type, error) { panic("not implemented") }
func (d *dummyOperator) String() string                           { panic("not implemented") }
func (d *dummyOperator) Precedence() int                          { panic("not implemented") }
func (d *dummyOperator) LeftHand() expr.Expr                      { panic("not implemented") }
func (d *dummyOperator) RightHand() expr.Expr                     { return d.rightHand }
func (d *dummyOperator) SetLeftHandExpr(e expr.Expr)              { panic("not implemented") }
func (d *dummyOperator) SetRightHandExpr(e expr.Expr)             { d.rightHand = e }

// ParseExpr parses an expression.
func (p *Parser) ParseExpr() (e expr.Expr, err error) {
	return p.parseExprWithMinPrecedence(0)
}

func (p *Parser) parseExprWithMinPrecedence(precedence int) (e expr.Expr, err error) {
	// Dummy root node.
	var root expr.Operator = new(dummyOperator)

	// Parse a non-binary expression type to start.
	// This variable will always be the root of the expression tree.
	e, err = p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	root.SetRightHandExpr(e)

	// Loop over operations and unary exprs and build a tree based on precedence.
	for {
		// If the next token is NOT an operator then return the expression.
		op, tok := p.parseOperator(precedence)
		if tok == 0 {
			return root.RightHand(), nil
		}

		var rhs expr.Expr

		if rhs, err = p.parseUnaryExpr(); err != nil {
			return nil, err
		}

		// Find the right spot in the tree to add the new expression by
		// descending the RHS of the expression tree until we reach the last
		// BinaryExpr or a BinaryExpr whose RHS has an operator with
		// precedence >= the operator being added.
		// Right associative operators descend into operators of equal precedence.
		for node := root; ; {
			p, ok := node.RightHand().(expr.Operator)
			if !ok || p.Precedence() > tok.Precedence() ||
				(p.Precedence() == tok.Precedence() && !tok.IsRightAssociative()) {
				// Add the new expression here and break.
				node.SetRightHandExpr(op(node.RightHand(), rhs))
				break
			}
			node = p
		}
	}
}

func (p *Parser) parseOperator(minPrecedence int) (func(lhs, rhs expr.Expr) expr.Expr, scanner.Token) {
	op, _, _ := p.ScanIgnoreWhitespace()
	if !op.IsOperator() || op.Precedence() < minPrecedence {
		p.Unscan()
		return nil, 0
	}

	switch op {
	case scanner.EQ:
		return expr.Eq, op
	case scanner.NEQ:
		return expr.Neq, op
	case scanner.GT:
		return expr.Gt, op
	case scanner.GTE:
		return expr.Gte, op
	case scanner.LT:
		return expr.Lt, op
	case scanner.LTE:
		return expr.Lte, op
	case scanner.AND:
		return expr.And, op
	case scanner.OR:
		return expr.Or, op
	case scanner.ADD:
		return expr.Add, op
	case scanner.SUB:
		return expr.Sub, op
	case scanner.MUL:
		return expr.Mul, op
	case scanner.DIV:
		return expr.Div, op
	case scanner.MOD:
		return expr.Mod, op
	case scanner.POW:
		return expr.Pow, op
	case scanner.IN:
		return expr.In, op
	}

	p.Unscan()

	return nil, 0
}

// parseUnaryExpr parses an non-binary expression.
func (p *Parser) parseUnaryExpr() (expr.Expr, error) {
	tok, pos, lit := p.ScanIgnoreWhitespace()

	switch tok {
	case scanner.IDENT:
		if p.skipTo(scanner.LPAREN) {
			return p.parseCall(lit, pos)
		}
		return expr.Column(lit), nil
	case scanner.STRING:
		return expr.LiteralValue{Value: types.NewTextValue(lit)}, nil
	case scanner.BADSTRING:
		return nil, errors.WithStack(&ParseError{Message: "unterminated string", Pos: pos})
	case scanner.BADESCAPE:
		return nil, errors.WithStack(&ParseError{Message: "invalid escape sequence " + lit, Pos: pos})
	case scanner.NUMBER:
		v, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, errors.WithStack(&ParseError{Message: "unable to parse number", Pos: pos})
		}
		return expr.LiteralValue{Value: types.NewDoubleValue(v)}, nil
	case scanner.INTEGER:
		v, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			// The literal may be too large to fit into an int64, parse as Float64
			if v, err := strconv.ParseFloat(lit, 64); err == nil {
				return expr.LiteralValue{Value: types.NewDoubleValue(v)}, nil
			}
			return nil, errors.WithStack(&ParseError{Message: "unable to parse integer", Pos: pos})
		}
		return expr.LiteralValue{Value: types.NewIntegerValue(v)}, nil
	case scanner.TRUE, scanner.FALSE:
		return expr.LiteralValue{Value: types.NewBooleanValue(tok == scanner.TRUE)}, nil
	case scanner.NA:
		return expr.LiteralValue{Value: types.NewNullValue()}, nil
	case scanner.ADD:
		return p.parseExprWithMinPrecedence(scanner.POW.Precedence())
	case scanner.SUB:
		e, err := p.parseExprWithMinPrecedence(scanner.POW.Precedence())
		if err != nil {
			return nil, err
		}
		// fold negative literals
		if l, ok := e.(expr.LiteralValue); ok {
			switch v := l.Value.(type) {
			case types.IntegerValue:
				return expr.LiteralValue{Value: types.NewIntegerValue(-int64(v))}, nil
			case types.DoubleValue:
				return expr.LiteralValue{Value: types.NewDoubleValue(-float64(v))}, nil
			}
		}
		return &expr.Neg{E: e}, nil
	case scanner.NOT:
		e, err := p.parseExprWithMinPrecedence(scanner.EQ.Precedence())
		if err != nil {
			return nil, err
		}
		return &expr.Not{E: e}, nil
	case scanner.LPAREN:
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.ParseTokens(scanner.RPAREN); err != nil {
			return nil, err
		}
		return expr.Parentheses{E: e}, nil
	}

	return nil, newParseError(scanner.Tokstr(tok, lit), []string{"expression"}, pos)
}

// parseCall parses the arguments of a function call, after the opening parenthesis.
// c(...) builds a literal list.
func (p *Parser) parseCall(name string, pos scanner.Pos) (expr.Expr, error) {
	args, err := p.parseExprListUntil(scanner.RPAREN)
	if err != nil {
		return nil, err
	}

	if name == "c" {
		return expr.LiteralList(args), nil
	}

	call, err := expr.NewCall(name, args...)
	if err != nil {
		if errors.Is(err, expr.ErrUnknownFunction) {
			if hint := closest(name, expr.Functions()); hint != "" {
				err = errors.WithHintf(err, "did you mean %s()?", hint)
			}
		}
		return nil, errors.Wrapf(err, "line %d, char %d", pos.Line+1, pos.Char+1)
	}
	return call, nil
}

// parseExprListUntil parses a comma separated list of expressions
// and the closing token.
func (p *Parser) parseExprListUntil(end scanner.Token) ([]expr.Expr, error) {
	if ok, err := p.parseOptional(end); ok || err != nil {
		return nil, err
	}

	var list []expr.Expr
	for {
		e, err := p.ParseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)

		tok, pos, lit := p.ScanIgnoreWhitespace()
		switch tok {
		case scanner.COMMA:
			continue
		case end:
			return list, nil
		}
		return nil, newParseError(scanner.Tokstr(tok, lit), []string{",", end.String()}, pos)
	}
}

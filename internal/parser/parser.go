package parser

import (
	"fmt"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/expr"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/splitapply"
	"github.com/chaisql/tally/internal/stream"
	"github.com/cockroachdb/errors"
)

// Parser represents a parser of the tally expression language.
type Parser struct {
	s *scanner.Scanner
}

// NewParser returns a new instance of Parser.
func NewParser(s string) *Parser {
	return &Parser{s: scanner.NewScanner(s)}
}

// ParseExpr parses a row expression.
func ParseExpr(s string) (expr.Expr, error) {
	p := NewParser(s)
	e, err := p.ParseExpr()
	if err != nil {
		return nil, err
	}
	return e, p.parseEnd()
}

// MustParseExpr calls ParseExpr and panics if it returns an error.
func MustParseExpr(s string) expr.Expr {
	e, err := ParseExpr(s)
	if err != nil {
		panic(fmt.Sprintf("%+v", err))
	}

	return e
}

// ParseAssignment parses an expression of the form name = expr.
func ParseAssignment(s string) (stream.Assignment, error) {
	p := NewParser(s)
	a, err := p.parseAssignment()
	if err != nil {
		return stream.Assignment{}, err
	}
	return a, p.parseEnd()
}

// ParseOrdering parses an expression, optionally wrapped in desc().
func ParseOrdering(s string) (dataset.Ordering, error) {
	p := NewParser(s)
	o, err := p.parseOrdering()
	if err != nil {
		return dataset.Ordering{}, err
	}
	return o, p.parseEnd()
}

// ParseAggregation parses an aggregation of the form
// name = reducer(column, arguments..., na = skip).
func ParseAggregation(s string) (aggregate.Aggregation, error) {
	p := NewParser(s)
	a, err := p.parseAggregation()
	if err != nil {
		return aggregate.Aggregation{}, err
	}
	return a, p.parseEnd()
}

// ParseReducer parses a reducer name with its optional arguments,
// such as mean or quantile(0.9, type = 8).
func ParseReducer(s string) (aggregate.Reducer, error) {
	p := NewParser(s)

	tok, pos, lit := p.ScanIgnoreWhitespace()
	if tok != scanner.IDENT {
		return nil, newParseError(scanner.Tokstr(tok, lit), []string{"reducer"}, pos)
	}

	var positional []argValue
	named := make(map[string]argValue)
	ok, err := p.parseOptional(scanner.LPAREN)
	if err != nil {
		return nil, err
	}
	if ok {
		if positional, named, err = p.parseArgs(); err != nil {
			return nil, err
		}
	}

	r, err := buildReducer(lit, pos, positional, named)
	if err != nil {
		return nil, err
	}
	for k, v := range named {
		return nil, errors.WithStack(&ParseError{Message: "unknown argument " + k + " for " + lit + "()", Pos: v.pos})
	}
	return r, p.parseEnd()
}

// ParseFormula parses a model formula such as y ~ a + b,
// cbind(y1, y2) ~ a or . ~ a.
func ParseFormula(s string) (splitapply.Formula, error) {
	p := NewParser(s)
	f, err := p.parseFormula()
	if err != nil {
		return splitapply.Formula{}, err
	}
	return f, p.parseEnd()
}

// parseEnd expects the end of the input, ignoring a trailing semicolon.
func (p *Parser) parseEnd() error {
	if _, err := p.parseOptional(scanner.SEMICOLON); err != nil {
		return err
	}
	return p.ParseTokens(scanner.EOF)
}

// parseIdent parses an identifier.
func (p *Parser) parseIdent() (string, error) {
	tok, pos, lit := p.ScanIgnoreWhitespace()
	if tok != scanner.IDENT {
		return "", newParseError(scanner.Tokstr(tok, lit), []string{"identifier"}, pos)
	}

	return lit, nil
}

// parseIdentList parses a comma delimited list of identifiers.
func (p *Parser) parseIdentList() ([]string, error) {
	ident, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	idents := []string{ident}

	for {
		if tok, _, _ := p.ScanIgnoreWhitespace(); tok != scanner.COMMA {
			p.Unscan()
			return idents, nil
		}

		if ident, err = p.parseIdent(); err != nil {
			return nil, err
		}

		idents = append(idents, ident)
	}
}

// parseArgName consumes "name =" if it comes next, and returns the name.
func (p *Parser) parseArgName() (string, bool) {
	tok, _, lit := p.ScanIgnoreWhitespace()
	if tok != scanner.IDENT {
		p.Unscan()
		return "", false
	}

	if p.skipTo(scanner.ASSIGN) {
		return lit, true
	}
	p.Unscan()
	return "", false
}

// skipTo consumes the next non-whitespace token if it is t.
// Otherwise nothing is consumed.
func (p *Parser) skipTo(t scanner.Token) bool {
	n := 0
	for {
		tok, _, _ := p.Scan()
		n++
		if tok == scanner.WS || tok == scanner.COMMENT {
			continue
		}
		if tok == t {
			return true
		}
		break
	}

	for ; n > 0; n-- {
		p.Unscan()
	}
	return false
}

func (p *Parser) parseAssignment() (stream.Assignment, error) {
	name, ok := p.parseArgName()
	if !ok {
		tok, pos, lit := p.ScanIgnoreWhitespace()
		return stream.Assignment{}, newParseError(scanner.Tokstr(tok, lit), []string{"name ="}, pos)
	}

	e, err := p.ParseExpr()
	if err != nil {
		return stream.Assignment{}, err
	}
	return stream.Assignment{Name: name, E: e}, nil
}

func (p *Parser) parseOrdering() (dataset.Ordering, error) {
	tok, _, lit := p.ScanIgnoreWhitespace()
	if tok == scanner.IDENT && lit == "desc" && p.skipTo(scanner.LPAREN) {
		e, err := p.ParseExpr()
		if err != nil {
			return dataset.Ordering{}, err
		}
		if err := p.ParseTokens(scanner.RPAREN); err != nil {
			return dataset.Ordering{}, err
		}
		return dataset.Ordering{Expr: e, Desc: true}, nil
	}
	p.Unscan()

	e, err := p.ParseExpr()
	if err != nil {
		return dataset.Ordering{}, err
	}
	return dataset.Ordering{Expr: e}, nil
}

// parseFormula parses responses ~ terms.
func (p *Parser) parseFormula() (splitapply.Formula, error) {
	var f splitapply.Formula

	tok, pos, lit := p.ScanIgnoreWhitespace()
	switch {
	case tok == scanner.IDENT && lit == ".":
		f.AllResponses = true
	case tok == scanner.IDENT && lit == "cbind":
		if err := p.ParseTokens(scanner.LPAREN); err != nil {
			return f, err
		}
		names, err := p.parseIdentList()
		if err != nil {
			return f, err
		}
		if err := p.ParseTokens(scanner.RPAREN); err != nil {
			return f, err
		}
		f.Responses = names
	case tok == scanner.IDENT:
		f.Responses = []string{lit}
	default:
		return f, newParseError(scanner.Tokstr(tok, lit), []string{"identifier", "cbind(", "."}, pos)
	}

	if err := p.ParseTokens(scanner.TILDE); err != nil {
		return f, err
	}

	for {
		name, err := p.parseIdent()
		if err != nil {
			return f, err
		}
		if name == "." {
			f.AllTerms = true
		} else {
			f.Terms = append(f.Terms, name)
		}

		if tok, _, _ := p.ScanIgnoreWhitespace(); tok != scanner.ADD {
			p.Unscan()
			break
		}
	}
	if f.AllTerms && len(f.Terms) > 0 {
		return f, errors.WithStack(&ParseError{Message: "a dot term cannot be combined with other terms", Pos: pos})
	}

	return f, nil
}

// Scan returns the next token from the underlying scanner.
func (p *Parser) Scan() (tok scanner.Token, pos scanner.Pos, lit string) { return p.s.Scan() }

// ScanIgnoreWhitespace scans the next non-whitespace and non-comment token.
func (p *Parser) ScanIgnoreWhitespace() (tok scanner.Token, pos scanner.Pos, lit string) {
	for {
		tok, pos, lit = p.Scan()
		if tok == scanner.WS || tok == scanner.COMMENT {
			continue
		}
		return
	}
}

// Unscan pushes the previously read token back onto the buffer.
func (p *Parser) Unscan() {
	p.s.Unscan()
}

// ParseTokens parses all the given tokens one after the other.
// It returns an error if one of the token is missing.
func (p *Parser) ParseTokens(tokens ...scanner.Token) error {
	for _, t := range tokens {
		if tok, pos, lit := p.ScanIgnoreWhitespace(); tok != t {
			return newParseError(scanner.Tokstr(tok, lit), []string{t.String()}, pos)
		}
	}

	return nil
}

// parseOptional parses a list of consecutive tokens. If the first token is not
// present, it unscans and return false. If the first is present, all the others
// must be parsed otherwise an error is returned.
func (p *Parser) parseOptional(tokens ...scanner.Token) (bool, error) {
	if tok, _, _ := p.ScanIgnoreWhitespace(); tok != tokens[0] {
		p.Unscan()
		return false, nil
	}

	if len(tokens) == 1 {
		return true, nil
	}

	err := p.ParseTokens(tokens[1:]...)
	return err == nil, err
}

// ParseError represents an error that occurred during parsing.
type ParseError struct {
	Message  string
	Found    string
	Expected []string
	Pos      scanner.Pos
}

// newParseError returns a new instance of ParseError.
func newParseError(found string, expected []string, pos scanner.Pos) error {
	return errors.WithStack(&ParseError{Found: found, Expected: expected, Pos: pos})
}

// Error returns the string representation of the error.
func (e *ParseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s at line %d, char %d", e.Message, e.Pos.Line+1, e.Pos.Char+1)
	}
	if len(e.Expected) == 0 {
		return fmt.Sprintf("unexpected %s at line %d, char %d", e.Found, e.Pos.Line+1, e.Pos.Char+1)
	}
	return fmt.Sprintf("found %s, expected %s at line %d, char %d", e.Found, strings.Join(e.Expected, ", "), e.Pos.Line+1, e.Pos.Char+1)
}

package parser

import (
	"strconv"

	"github.com/agnivade/levenshtein"
	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/cockroachdb/errors"
)

// Reducers lists the reducer names accepted in aggregations.
var Reducers = []string{
	"count", "count_distinct", "first", "last", "max", "mean", "median",
	"min", "n", "n_distinct", "nth", "quantile", "sd", "sum", "var",
}

// argValue is a literal argument of a reducer or a verb.
type argValue struct {
	tok scanner.Token
	lit string
	pos scanner.Pos
}

func (a argValue) String() string {
	return scanner.Tokstr(a.tok, a.lit)
}

func (a argValue) float() (float64, error) {
	if a.tok != scanner.NUMBER && a.tok != scanner.INTEGER {
		return 0, newParseError(a.String(), []string{"number"}, a.pos)
	}
	return strconv.ParseFloat(a.lit, 64)
}

func (a argValue) int() (int, error) {
	if a.tok != scanner.INTEGER {
		return 0, newParseError(a.String(), []string{"integer"}, a.pos)
	}
	return strconv.Atoi(a.lit)
}

func (a argValue) bool() (bool, error) {
	if a.tok != scanner.TRUE && a.tok != scanner.FALSE {
		return false, newParseError(a.String(), []string{"TRUE", "FALSE"}, a.pos)
	}
	return a.tok == scanner.TRUE, nil
}

// parseArgValue parses an identifier, a boolean or a possibly negative number.
func (p *Parser) parseArgValue() (argValue, error) {
	tok, pos, lit := p.ScanIgnoreWhitespace()
	if tok == scanner.SUB {
		tok, _, lit = p.Scan()
		if tok != scanner.INTEGER && tok != scanner.NUMBER {
			return argValue{}, newParseError(scanner.Tokstr(tok, lit), []string{"number"}, pos)
		}
		lit = "-" + lit
	}

	switch tok {
	case scanner.IDENT, scanner.STRING, scanner.INTEGER, scanner.NUMBER, scanner.TRUE, scanner.FALSE:
		return argValue{tok: tok, lit: lit, pos: pos}, nil
	}
	return argValue{}, newParseError(scanner.Tokstr(tok, lit), []string{"argument"}, pos)
}

// parseArgs parses positional and named arguments up to the closing parenthesis.
func (p *Parser) parseArgs() (positional []argValue, named map[string]argValue, err error) {
	named = make(map[string]argValue)
	if ok, err := p.parseOptional(scanner.RPAREN); ok || err != nil {
		return nil, named, err
	}

	for {
		name, isNamed := p.parseArgName()
		v, err := p.parseArgValue()
		if err != nil {
			return nil, nil, err
		}
		if isNamed {
			if _, ok := named[name]; ok {
				return nil, nil, errors.WithStack(&ParseError{Message: "duplicate argument " + name, Pos: v.pos})
			}
			named[name] = v
		} else {
			positional = append(positional, v)
		}

		tok, pos, lit := p.ScanIgnoreWhitespace()
		switch tok {
		case scanner.COMMA:
			continue
		case scanner.RPAREN:
			return positional, named, nil
		}
		return nil, nil, newParseError(scanner.Tokstr(tok, lit), []string{",", ")"}, pos)
	}
}

// parseAggregation parses [name =] reducer(args...).
// Without a name, the output is named n for row counts and
// reducer_column otherwise.
func (p *Parser) parseAggregation() (aggregate.Aggregation, error) {
	var a aggregate.Aggregation

	name, hasName := p.parseArgName()

	tok, pos, lit := p.ScanIgnoreWhitespace()
	if tok != scanner.IDENT {
		return a, newParseError(scanner.Tokstr(tok, lit), []string{"reducer"}, pos)
	}
	if err := p.ParseTokens(scanner.LPAREN); err != nil {
		return a, err
	}

	positional, named, err := p.parseArgs()
	if err != nil {
		return a, err
	}

	if len(positional) > 0 {
		if positional[0].tok != scanner.IDENT {
			return a, newParseError(positional[0].String(), []string{"column"}, positional[0].pos)
		}
		a.Column = positional[0].lit
		positional = positional[1:]
	}

	a.Reducer, err = buildReducer(lit, pos, positional, named)
	if err != nil {
		return a, err
	}

	if v, ok := named["na"]; ok {
		if a.Policy, err = aggregate.ParsePolicy(v.String()); err != nil {
			return a, errors.WithStack(&ParseError{Message: err.Error(), Pos: v.pos})
		}
		delete(named, "na")
	}
	if v, ok := named["na.rm"]; ok {
		skip, err := v.bool()
		if err != nil {
			return a, err
		}
		a.Policy = aggregate.Propagate
		if skip {
			a.Policy = aggregate.SkipMissing
		}
		delete(named, "na.rm")
	}
	for k, v := range named {
		return a, errors.WithStack(&ParseError{Message: "unknown argument " + k + " for " + lit + "()", Pos: v.pos})
	}

	switch {
	case hasName:
		a.Name = name
	case a.Column == "":
		a.Name = "n"
	default:
		a.Name = a.Reducer.Name() + "_" + a.Column
	}

	return a, nil
}

// buildReducer consumes the reducer specific arguments from named.
func buildReducer(name string, pos scanner.Pos, positional []argValue, named map[string]argValue) (aggregate.Reducer, error) {
	extra := func(max int) error {
		if len(positional) > max {
			return errors.WithStack(&ParseError{Message: "too many arguments for " + name + "()", Pos: positional[max].pos})
		}
		return nil
	}
	take := func(key string) (argValue, bool) {
		if len(positional) > 0 {
			v := positional[0]
			positional = positional[1:]
			return v, true
		}
		v, ok := named[key]
		delete(named, key)
		return v, ok
	}

	var r aggregate.Reducer
	switch name {
	case "mean":
		r = aggregate.Mean()
	case "sum":
		r = aggregate.Sum()
	case "sd":
		r = aggregate.StdDev()
	case "var":
		r = aggregate.Variance()
	case "median":
		r = aggregate.Median()
	case "min":
		r = aggregate.Min()
	case "max":
		r = aggregate.Max()
	case "first":
		r = aggregate.First()
	case "last":
		r = aggregate.Last()
	case "count", "n":
		r = aggregate.Count()
	case "count_distinct", "n_distinct":
		r = aggregate.CountDistinct()
	case "quantile":
		v, ok := take("p")
		if !ok {
			if v, ok = named["probs"]; ok {
				delete(named, "probs")
			}
		}
		if !ok {
			return nil, errors.WithStack(&ParseError{Message: "quantile() requires a probability", Pos: pos})
		}
		prob, err := v.float()
		if err != nil {
			return nil, err
		}
		t := aggregate.DefaultQuantileType
		if v, ok := named["type"]; ok {
			n, err := v.int()
			if err != nil {
				return nil, err
			}
			t = aggregate.QuantileType(n)
			delete(named, "type")
		}
		if r, err = aggregate.Quantile(prob, t); err != nil {
			return nil, err
		}
	case "nth":
		v, ok := take("n")
		if !ok {
			return nil, errors.WithStack(&ParseError{Message: "nth() requires a position", Pos: pos})
		}
		n, err := v.int()
		if err != nil {
			return nil, err
		}
		if r, err = aggregate.Nth(n); err != nil {
			return nil, err
		}
	default:
		err := errors.WithStack(&ParseError{Message: "unknown reducer " + name + "()", Pos: pos})
		if hint := closest(name, Reducers); hint != "" {
			err = errors.WithHintf(err, "did you mean %s()?", hint)
		}
		return nil, err
	}

	return r, extra(0)
}

// closest returns the candidate nearest to name, if it is close enough.
func closest(name string, candidates []string) string {
	best, dist := "", len(name)/3+2
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < dist {
			best, dist = c, d
		}
	}
	return best
}

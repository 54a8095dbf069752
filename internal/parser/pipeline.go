package parser

import (
	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/expr"
	"github.com/chaisql/tally/internal/scanner"
	"github.com/chaisql/tally/internal/stream"
	"github.com/cockroachdb/errors"
)

// Verbs lists the verbs accepted in pipelines.
var Verbs = []string{
	"arrange", "count", "distinct", "filter", "group_by", "head", "mutate",
	"rename", "select", "slice_max", "slice_min", "summarise", "summarize", "ungroup",
}

// defaultHeadSize is the number of rows kept by head().
const defaultHeadSize = 6

// A Pipeline is a chain of verbs, optionally applied to a named dataset.
type Pipeline struct {
	Source string
	Stream *stream.Stream
}

func (p *Pipeline) String() string {
	if p.Stream == nil {
		return p.Source
	}
	if p.Source == "" {
		return p.Stream.String()
	}
	return p.Source + " %>% " + p.Stream.String()
}

// ParsePipeline parses verbs chained with %>% or |>, such as
//
//	flights %>% filter(month == 1) %>% group_by(carrier) %>% summarize(n = n())
func ParsePipeline(s string) (*Pipeline, error) {
	p := NewParser(s)
	pl, err := p.ParsePipeline()
	if err != nil {
		return nil, err
	}
	return pl, p.parseEnd()
}

// ParsePipelines parses pipelines separated by semicolons and calls fn
// with each of them, in order. It stops at the first error.
func ParsePipelines(s string, fn func(*Pipeline) error) error {
	p := NewParser(s)

	for {
		tok, pos, lit := p.ScanIgnoreWhitespace()
		switch tok {
		case scanner.EOF:
			return nil
		case scanner.SEMICOLON:
			continue
		}
		p.Unscan()

		pl, err := p.ParsePipeline()
		if err != nil {
			return err
		}
		if err := fn(pl); err != nil {
			return err
		}

		tok, pos, lit = p.ScanIgnoreWhitespace()
		switch tok {
		case scanner.EOF:
			return nil
		case scanner.SEMICOLON:
		default:
			return newParseError(scanner.Tokstr(tok, lit), []string{";"}, pos)
		}
	}
}

// ParsePipeline parses a pipeline.
func (p *Parser) ParsePipeline() (*Pipeline, error) {
	var pl Pipeline

	for {
		tok, pos, lit := p.ScanIgnoreWhitespace()
		if tok != scanner.IDENT {
			return nil, newParseError(scanner.Tokstr(tok, lit), []string{"verb"}, pos)
		}

		if !p.skipTo(scanner.LPAREN) {
			if pl.Source != "" || pl.Stream != nil {
				return nil, newParseError(lit, []string{"verb"}, pos)
			}
			pl.Source = lit
		} else {
			op, err := p.parseVerb(lit, pos)
			if err != nil {
				return nil, err
			}
			if pl.Stream == nil {
				pl.Stream = stream.New(op)
			} else {
				pl.Stream = pl.Stream.Pipe(op)
			}
		}

		if ok, err := p.parseOptional(scanner.PIPE); !ok || err != nil {
			return &pl, err
		}
	}
}

// parseVerb parses the arguments of a verb, after the opening parenthesis.
func (p *Parser) parseVerb(name string, pos scanner.Pos) (stream.Operator, error) {
	switch name {
	case "filter":
		exprs, err := p.parseExprListUntil(scanner.RPAREN)
		if err != nil {
			return nil, err
		}
		if len(exprs) == 0 {
			return nil, errors.WithStack(&ParseError{Message: "filter() requires a condition", Pos: pos})
		}
		e := exprs[0]
		for _, c := range exprs[1:] {
			e = expr.And(e, c)
		}
		return stream.Filter(e), nil
	case "select":
		columns, err := p.parseSelection()
		if err != nil {
			return nil, err
		}
		return stream.Select(columns...), nil
	case "arrange":
		var orderings []dataset.Ordering
		err := p.parseListUntil(scanner.RPAREN, func() error {
			o, err := p.parseOrdering()
			orderings = append(orderings, o)
			return err
		})
		if err != nil {
			return nil, err
		}
		return stream.Arrange(orderings...), nil
	case "mutate":
		var assignments []stream.Assignment
		err := p.parseListUntil(scanner.RPAREN, func() error {
			a, err := p.parseAssignment()
			assignments = append(assignments, a)
			return err
		})
		if err != nil {
			return nil, err
		}
		return stream.Mutate(assignments...), nil
	case "rename":
		var renamings []dataset.Renaming
		err := p.parseListUntil(scanner.RPAREN, func() error {
			to, ok := p.parseArgName()
			if !ok {
				tok, pos, lit := p.ScanIgnoreWhitespace()
				return newParseError(scanner.Tokstr(tok, lit), []string{"new = old"}, pos)
			}
			from, err := p.parseIdent()
			renamings = append(renamings, dataset.Renaming{To: to, From: from})
			return err
		})
		if err != nil {
			return nil, err
		}
		return stream.Rename(renamings...), nil
	case "head":
		positional, named, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		n := defaultHeadSize
		if v, ok := p.verbArg(positional, named, "n"); ok {
			if n, err = v.int(); err != nil {
				return nil, err
			}
		}
		return stream.Head(n), p.noArgsLeft(name, positional, named, 1)
	case "distinct":
		columns, err := p.parseOptionalIdentList()
		if err != nil {
			return nil, err
		}
		return stream.Distinct(columns...), nil
	case "group_by":
		var op stream.GroupByOperator
		err := p.parseListUntil(scanner.RPAREN, func() error {
			if arg, ok := p.parseArgName(); ok {
				if arg != "sort" {
					tok, pos, lit := p.ScanIgnoreWhitespace()
					return errors.WithStack(&ParseError{Message: "unknown argument " + arg + " for group_by()", Found: scanner.Tokstr(tok, lit), Pos: pos})
				}
				v, err := p.parseArgValue()
				if err != nil {
					return err
				}
				op.Sort, err = v.bool()
				return err
			}
			key, err := p.parseIdent()
			op.Keys = append(op.Keys, key)
			return err
		})
		if err != nil {
			return nil, err
		}
		return &op, nil
	case "ungroup":
		if err := p.ParseTokens(scanner.RPAREN); err != nil {
			return nil, err
		}
		return stream.Ungroup(), nil
	case "summarize", "summarise":
		var aggs []aggregate.Aggregation
		err := p.parseListUntil(scanner.RPAREN, func() error {
			a, err := p.parseAggregation()
			aggs = append(aggs, a)
			return err
		})
		if err != nil {
			return nil, err
		}
		return stream.Summarize(aggs...), nil
	case "count":
		columns, err := p.parseOptionalIdentList()
		if err != nil {
			return nil, err
		}
		return stream.Count(columns...), nil
	case "slice_min", "slice_max":
		positional, named, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(positional) == 0 || positional[0].tok != scanner.IDENT {
			return nil, errors.WithStack(&ParseError{Message: name + "() requires a column", Pos: pos})
		}
		column := positional[0].lit
		positional = positional[1:]

		n := 1
		if v, ok := p.verbArg(positional, named, "n"); ok {
			if n, err = v.int(); err != nil {
				return nil, err
			}
			if len(positional) > 0 {
				positional = positional[1:]
			}
		}
		withTies := true
		if v, ok := named["with_ties"]; ok {
			if withTies, err = v.bool(); err != nil {
				return nil, err
			}
			delete(named, "with_ties")
		}
		if err := p.noArgsLeft(name, positional, named, 0); err != nil {
			return nil, err
		}
		if name == "slice_max" {
			return stream.SliceMax(column, n, withTies), nil
		}
		return stream.SliceMin(column, n, withTies), nil
	}

	err := errors.WithStack(&ParseError{Message: "unknown verb " + name + "()", Pos: pos})
	if hint := closest(name, Verbs); hint != "" {
		err = errors.WithHintf(err, "did you mean %s()?", hint)
	}
	return nil, err
}

// verbArg returns the first positional argument, or the named one.
// The named argument is removed from named.
func (p *Parser) verbArg(positional []argValue, named map[string]argValue, key string) (argValue, bool) {
	if len(positional) > 0 {
		return positional[0], true
	}
	v, ok := named[key]
	delete(named, key)
	return v, ok
}

func (p *Parser) noArgsLeft(verb string, positional []argValue, named map[string]argValue, max int) error {
	if len(positional) > max {
		return errors.WithStack(&ParseError{Message: "too many arguments for " + verb + "()", Pos: positional[max].pos})
	}
	for k, v := range named {
		return errors.WithStack(&ParseError{Message: "unknown argument " + k + " for " + verb + "()", Pos: v.pos})
	}
	return nil
}

// parseListUntil calls fn for each element of a comma separated list,
// and consumes the closing token.
func (p *Parser) parseListUntil(end scanner.Token, fn func() error) error {
	if ok, err := p.parseOptional(end); ok || err != nil {
		return err
	}

	for {
		if err := fn(); err != nil {
			return err
		}

		tok, pos, lit := p.ScanIgnoreWhitespace()
		switch tok {
		case scanner.COMMA:
			continue
		case end:
			return nil
		}
		return newParseError(scanner.Tokstr(tok, lit), []string{",", end.String()}, pos)
	}
}

// parseOptionalIdentList parses a possibly empty list of identifiers
// and the closing parenthesis.
func (p *Parser) parseOptionalIdentList() ([]string, error) {
	var idents []string
	err := p.parseListUntil(scanner.RPAREN, func() error {
		ident, err := p.parseIdent()
		idents = append(idents, ident)
		return err
	})
	return idents, err
}

// parseSelection parses column names, each optionally prefixed
// with a minus sign, and the closing parenthesis.
func (p *Parser) parseSelection() ([]string, error) {
	var columns []string
	err := p.parseListUntil(scanner.RPAREN, func() error {
		prefix := ""
		if ok, _ := p.parseOptional(scanner.SUB); ok {
			prefix = "-"
		}
		ident, err := p.parseIdent()
		columns = append(columns, prefix+ident)
		return err
	})
	return columns, err
}

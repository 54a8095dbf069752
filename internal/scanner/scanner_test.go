package scanner_test

import (
	"testing"

	"github.com/chaisql/tally/internal/scanner"
	"github.com/stretchr/testify/require"
)

func TestScanner_Scan(t *testing.T) {
	tests := []struct {
		s   string
		tok scanner.Token
		lit string
		pos scanner.Pos
	}{
		// Special tokens (EOF, ILLEGAL, WS)
		{s: ``, tok: scanner.EOF},
		{s: `@`, tok: scanner.ILLEGAL, lit: `@`},
		{s: " \n\t", tok: scanner.WS, lit: " \n\t"},
		{s: `# a comment`, tok: scanner.COMMENT},

		// Operators
		{s: `+`, tok: scanner.ADD},
		{s: `-`, tok: scanner.SUB},
		{s: `*`, tok: scanner.MUL},
		{s: `/`, tok: scanner.DIV},
		{s: `%%`, tok: scanner.MOD},
		{s: `^`, tok: scanner.POW},
		{s: `&`, tok: scanner.AND},
		{s: `&&`, tok: scanner.AND},
		{s: `|`, tok: scanner.OR},
		{s: `||`, tok: scanner.OR},
		{s: `|>`, tok: scanner.PIPE},
		{s: `%>%`, tok: scanner.PIPE},
		{s: `%in%`, tok: scanner.IN},
		{s: `%foo%`, tok: scanner.ILLEGAL, lit: `%foo%`},
		{s: `==`, tok: scanner.EQ},
		{s: `=`, tok: scanner.ASSIGN},
		{s: `!=`, tok: scanner.NEQ},
		{s: `!`, tok: scanner.NOT},
		{s: `<`, tok: scanner.LT},
		{s: `<=`, tok: scanner.LTE},
		{s: `>`, tok: scanner.GT},
		{s: `>=`, tok: scanner.GTE},
		{s: `~`, tok: scanner.TILDE},

		// Misc tokens
		{s: `(`, tok: scanner.LPAREN},
		{s: `)`, tok: scanner.RPAREN},
		{s: `,`, tok: scanner.COMMA},
		{s: `;`, tok: scanner.SEMICOLON},

		// Identifiers
		{s: `dep_delay`, tok: scanner.IDENT, lit: `dep_delay`},
		{s: `na.rm`, tok: scanner.IDENT, lit: `na.rm`},
		{s: `.`, tok: scanner.IDENT, lit: `.`},
		{s: "`dep delay`", tok: scanner.IDENT, lit: `dep delay`},
		{s: "`dep", tok: scanner.BADSTRING, lit: `dep`},

		// Booleans and missing
		{s: `TRUE`, tok: scanner.TRUE},
		{s: `FALSE`, tok: scanner.FALSE},
		{s: `NA`, tok: scanner.NA},
		{s: `true`, tok: scanner.IDENT, lit: `true`},

		// Strings
		{s: `'testing 123!'`, tok: scanner.STRING, lit: `testing 123!`},
		{s: `"it's"`, tok: scanner.STRING, lit: `it's`},
		{s: `'foo\nbar'`, tok: scanner.STRING, lit: "foo\nbar"},
		{s: `'unterminated`, tok: scanner.BADSTRING, lit: `unterminated`},
		{s: `'bad\qescape'`, tok: scanner.BADESCAPE, lit: `q`, pos: scanner.Pos{Line: 0, Char: 5}},

		// Numbers
		{s: `100`, tok: scanner.INTEGER, lit: `100`},
		{s: `100L`, tok: scanner.INTEGER, lit: `100`},
		{s: `100.23`, tok: scanner.NUMBER, lit: `100.23`},
		{s: `.23`, tok: scanner.NUMBER, lit: `.23`},
		{s: `1e3`, tok: scanner.NUMBER, lit: `1e3`},
		{s: `2.5e-2`, tok: scanner.NUMBER, lit: `2.5e-2`},
	}

	for _, tt := range tests {
		t.Run(tt.s, func(t *testing.T) {
			s := scanner.NewScanner(tt.s)
			tok, pos, lit := s.Scan()
			require.Equal(t, tt.tok, tok)
			require.Equal(t, tt.pos, pos)
			require.Equal(t, tt.lit, lit)
		})
	}
}

func TestScanner_Unscan(t *testing.T) {
	s := scanner.NewScanner(`mean(x)`)

	tok, _, lit := s.Scan()
	require.Equal(t, scanner.IDENT, tok)
	require.Equal(t, "mean", lit)

	tok, pos, _ := s.Scan()
	require.Equal(t, scanner.LPAREN, tok)
	require.Equal(t, scanner.Pos{Char: 4}, pos)

	s.Unscan()
	s.Unscan()

	tok, _, lit = s.Scan()
	require.Equal(t, scanner.IDENT, tok)
	require.Equal(t, "mean", lit)
	tok, _, _ = s.Scan()
	require.Equal(t, scanner.LPAREN, tok)
	tok, _, lit = s.Scan()
	require.Equal(t, scanner.IDENT, tok)
	require.Equal(t, "x", lit)
	tok, _, _ = s.Scan()
	require.Equal(t, scanner.RPAREN, tok)
	tok, _, _ = s.Scan()
	require.Equal(t, scanner.EOF, tok)
}

func TestScanner_Positions(t *testing.T) {
	s := scanner.NewScanner("a +\n  b")

	var got []scanner.Pos
	for {
		tok, pos, _ := s.Scan()
		if tok == scanner.EOF {
			break
		}
		if tok != scanner.WS {
			got = append(got, pos)
		}
	}

	require.Equal(t, []scanner.Pos{{Line: 0, Char: 0}, {Line: 0, Char: 2}, {Line: 1, Char: 2}}, got)
}

package scanner

import (
	"fmt"
)

// Token is a lexical token of the tally expression language.
type Token int

// These are a comprehensive list of tokens.
const (
	// ILLEGAL Token, EOF, WS are Special tokens.
	ILLEGAL Token = iota
	EOF
	WS
	COMMENT

	// IDENT and the following are literal tokens.
	IDENT     // dep_delay
	NUMBER    // 12345.67
	INTEGER   // 12345
	STRING    // "abc"
	BADSTRING // "abc
	BADESCAPE // \q
	TRUE      // TRUE
	FALSE     // FALSE
	NA        // NA
	literalEnd

	operatorBeg
	// ADD and the following are operators
	ADD // +
	SUB // -
	MUL // *
	DIV // /
	MOD // %%
	POW // ^

	AND // &
	OR  // |

	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=
	IN  // %in%
	operatorEnd

	NOT       // !
	ASSIGN    // =
	TILDE     // ~
	PIPE      // %>% or |>
	LPAREN    // (
	RPAREN    // )
	COMMA     // ,
	SEMICOLON // ;
)

var tokens = [...]string{
	ILLEGAL:   "ILLEGAL",
	EOF:       "EOF",
	WS:        "WS",
	COMMENT:   "COMMENT",
	IDENT:     "IDENT",
	NUMBER:    "NUMBER",
	INTEGER:   "INTEGER",
	STRING:    "STRING",
	BADSTRING: "BADSTRING",
	BADESCAPE: "BADESCAPE",
	TRUE:      "TRUE",
	FALSE:     "FALSE",
	NA:        "NA",

	ADD: "+",
	SUB: "-",
	MUL: "*",
	DIV: "/",
	MOD: "%%",
	POW: "^",
	AND: "&",
	OR:  "|",
	EQ:  "==",
	NEQ: "!=",
	LT:  "<",
	LTE: "<=",
	GT:  ">",
	GTE: ">=",
	IN:  "%in%",

	NOT:       "!",
	ASSIGN:    "=",
	TILDE:     "~",
	PIPE:      "%>%",
	LPAREN:    "(",
	RPAREN:    ")",
	COMMA:     ",",
	SEMICOLON: ";",
}

var keywords = map[string]Token{
	"TRUE":  TRUE,
	"FALSE": FALSE,
	"NA":    NA,
	"NULL":  NA,
}

// String returns the string representation of the token.
func (tok Token) String() string {
	if tok >= 0 && tok < Token(len(tokens)) && tokens[tok] != "" {
		return tokens[tok]
	}
	return fmt.Sprintf("Token(%d)", int(tok))
}

// Precedence returns the operator precedence of the binary operator token.
// Unary minus binds tighter than everything but POW, and NOT binds
// looser than comparisons.
func (tok Token) Precedence() int {
	switch tok {
	case OR:
		return 1
	case AND:
		return 2
	case NOT:
		return 3
	case EQ, NEQ, LT, LTE, GT, GTE:
		return 4
	case ADD, SUB:
		return 5
	case MUL, DIV:
		return 6
	case MOD, IN:
		return 7
	case POW:
		return 9
	}
	return 0
}

// IsOperator returns true for binary operator tokens.
func (tok Token) IsOperator() bool { return tok > operatorBeg && tok < operatorEnd }

// IsRightAssociative reports whether chains of tok group from the right.
func (tok Token) IsRightAssociative() bool { return tok == POW }

// Tokstr returns a literal if provided, otherwise returns the token string.
func Tokstr(tok Token, lit string) string {
	if lit != "" {
		return lit
	}
	return tok.String()
}

// Lookup returns the token associated with a given string.
// Keywords are case sensitive.
func Lookup(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Pos specifies the line and character position of a token.
// The Char and Line are both zero-based indexes.
type Pos struct {
	Line int
	Char int
}

// TokenInfo holds information about a token.
type TokenInfo struct {
	Tok Token
	Pos Pos
	Lit string
}

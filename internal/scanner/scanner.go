package scanner

import (
	"strings"
)

// Code inspired by the influxdata/influxql repository
// https://github.com/influxdata/influxql/blob/57f403b00b124eb900835c0c944e9b60d848db5e/scanner.go#L12

// eof is a marker code point to signify that the reader can't read any more.
const eof = rune(0)

// Scanner represents a lexical scanner. It keeps a small buffer of
// tokens so that the parser can push back what it read.
type Scanner struct {
	src  []rune
	off  int
	pos  Pos
	poss []Pos

	i   int // buffer index
	n   int // number of unscanned tokens
	buf [8]TokenInfo
}

// NewScanner returns a new instance of Scanner.
func NewScanner(s string) *Scanner {
	return &Scanner{src: []rune(s)}
}

// Scan returns the next token from the buffer or from the source.
func (s *Scanner) Scan() (tok Token, pos Pos, lit string) {
	// If we have unread tokens then read them off the buffer first.
	if s.n > 0 {
		s.n--
	} else {
		s.i = (s.i + 1) % len(s.buf)
		s.buf[s.i] = s.scan()
	}

	ti := s.buf[(s.i-s.n+len(s.buf))%len(s.buf)]
	return ti.Tok, ti.Pos, ti.Lit
}

// Unscan pushes the previously read token back onto the buffer.
func (s *Scanner) Unscan() { s.n++ }

func (s *Scanner) read() (rune, Pos) {
	pos := s.pos
	s.poss = append(s.poss, pos)
	if s.off >= len(s.src) {
		s.off++
		return eof, pos
	}

	ch := s.src[s.off]
	s.off++
	if ch == '\n' {
		s.pos.Line++
		s.pos.Char = 0
	} else {
		s.pos.Char++
	}
	return ch, pos
}

func (s *Scanner) unread() {
	s.off--
	s.pos = s.poss[len(s.poss)-1]
	s.poss = s.poss[:len(s.poss)-1]
}

func (s *Scanner) peek() rune {
	if s.off >= len(s.src) {
		return eof
	}
	return s.src[s.off]
}

func (s *Scanner) scan() TokenInfo {
	ch0, pos := s.read()

	if isWhitespace(ch0) {
		return s.scanWhitespace(pos)
	} else if isLetter(ch0) || ch0 == '_' || (ch0 == '.' && !isDigit(s.peek())) {
		s.unread()
		return s.scanIdent(pos)
	} else if isDigit(ch0) || ch0 == '.' {
		s.unread()
		return s.scanNumber(pos)
	}

	switch ch0 {
	case eof:
		return TokenInfo{EOF, pos, ""}
	case '`':
		lit, ok := s.scanDelimited('`')
		if !ok {
			return TokenInfo{BADSTRING, pos, lit}
		}
		return TokenInfo{IDENT, pos, lit}
	case '"', '\'':
		return s.scanString(ch0, pos)
	case '#':
		for ch := s.peek(); ch != '\n' && ch != eof; ch = s.peek() {
			s.read()
		}
		return TokenInfo{COMMENT, pos, ""}
	case '+':
		return TokenInfo{ADD, pos, ""}
	case '-':
		return TokenInfo{SUB, pos, ""}
	case '*':
		return TokenInfo{MUL, pos, ""}
	case '/':
		return TokenInfo{DIV, pos, ""}
	case '^':
		return TokenInfo{POW, pos, ""}
	case '~':
		return TokenInfo{TILDE, pos, ""}
	case '%':
		return s.scanPercentOperator(pos)
	case '&':
		if s.peek() == '&' {
			s.read()
		}
		return TokenInfo{AND, pos, ""}
	case '|':
		switch s.peek() {
		case '|':
			s.read()
		case '>':
			s.read()
			return TokenInfo{PIPE, pos, ""}
		}
		return TokenInfo{OR, pos, ""}
	case '=':
		if s.peek() == '=' {
			s.read()
			return TokenInfo{EQ, pos, ""}
		}
		return TokenInfo{ASSIGN, pos, ""}
	case '!':
		if s.peek() == '=' {
			s.read()
			return TokenInfo{NEQ, pos, ""}
		}
		return TokenInfo{NOT, pos, ""}
	case '>':
		if s.peek() == '=' {
			s.read()
			return TokenInfo{GTE, pos, ""}
		}
		return TokenInfo{GT, pos, ""}
	case '<':
		if s.peek() == '=' {
			s.read()
			return TokenInfo{LTE, pos, ""}
		}
		return TokenInfo{LT, pos, ""}
	case '(':
		return TokenInfo{LPAREN, pos, ""}
	case ')':
		return TokenInfo{RPAREN, pos, ""}
	case ',':
		return TokenInfo{COMMA, pos, ""}
	case ';':
		return TokenInfo{SEMICOLON, pos, ""}
	}

	return TokenInfo{ILLEGAL, pos, string(ch0)}
}

// scanWhitespace consumes the current rune and all contiguous whitespace.
func (s *Scanner) scanWhitespace(pos Pos) TokenInfo {
	var sb strings.Builder
	sb.WriteRune(s.src[s.off-1])
	for isWhitespace(s.peek()) {
		ch, _ := s.read()
		sb.WriteRune(ch)
	}
	return TokenInfo{WS, pos, sb.String()}
}

func (s *Scanner) scanIdent(pos Pos) TokenInfo {
	var sb strings.Builder
	for {
		ch, _ := s.read()
		if !isIdentChar(ch) {
			s.unread()
			break
		}
		sb.WriteRune(ch)
	}

	lit := sb.String()
	if tok := Lookup(lit); tok != IDENT {
		return TokenInfo{tok, pos, ""}
	}
	return TokenInfo{IDENT, pos, lit}
}

// scanPercentOperator scans %%, %in% and %>%.
func (s *Scanner) scanPercentOperator(pos Pos) TokenInfo {
	var sb strings.Builder
	sb.WriteRune('%')
	for {
		ch, _ := s.read()
		if ch == eof || ch == '\n' {
			return TokenInfo{ILLEGAL, pos, sb.String()}
		}
		sb.WriteRune(ch)
		if ch == '%' {
			break
		}
	}

	switch sb.String() {
	case "%%":
		return TokenInfo{MOD, pos, ""}
	case "%in%":
		return TokenInfo{IN, pos, ""}
	case "%>%":
		return TokenInfo{PIPE, pos, ""}
	}
	return TokenInfo{ILLEGAL, pos, sb.String()}
}

// scanString consumes a quoted string. Quote characters can be
// consumed if they're first escaped with a backslash.
func (s *Scanner) scanString(quote rune, pos Pos) TokenInfo {
	var sb strings.Builder
	for {
		ch, _ := s.read()
		switch ch {
		case quote:
			return TokenInfo{STRING, pos, sb.String()}
		case eof, '\n':
			return TokenInfo{BADSTRING, pos, sb.String()}
		case '\\':
			ch1, epos := s.read()
			switch ch1 {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\', '"', '\'':
				sb.WriteRune(ch1)
			default:
				return TokenInfo{BADESCAPE, epos, string(ch1)}
			}
		default:
			sb.WriteRune(ch)
		}
	}
}

func (s *Scanner) scanDelimited(end rune) (string, bool) {
	var sb strings.Builder
	for {
		ch, _ := s.read()
		switch ch {
		case end:
			return sb.String(), true
		case eof, '\n':
			return sb.String(), false
		}
		sb.WriteRune(ch)
	}
}

// scanNumber consumes anything that looks like the start of a number.
// Numbers without a fractional part or an exponent are integers.
// A trailing L, as in 10L, is accepted and ignored.
func (s *Scanner) scanNumber(pos Pos) TokenInfo {
	var sb strings.Builder
	sb.WriteString(s.scanDigits())

	isDecimal := false
	if s.peek() == '.' {
		isDecimal = true
		s.read()
		sb.WriteRune('.')
		sb.WriteString(s.scanDigits())
	}

	if ch := s.peek(); ch == 'e' || ch == 'E' {
		s.read()
		next := s.peek()
		if isDigit(next) || next == '+' || next == '-' {
			isDecimal = true
			sb.WriteRune('e')
			if next == '+' || next == '-' {
				ch, _ := s.read()
				sb.WriteRune(ch)
			}
			sb.WriteString(s.scanDigits())
		} else {
			s.unread()
		}
	}

	if !isDecimal && s.peek() == 'L' {
		s.read()
	}

	if isDecimal {
		return TokenInfo{NUMBER, pos, sb.String()}
	}
	return TokenInfo{INTEGER, pos, sb.String()}
}

// scanDigits consumes a contiguous series of digits.
func (s *Scanner) scanDigits() string {
	var sb strings.Builder
	for isDigit(s.peek()) {
		ch, _ := s.read()
		sb.WriteRune(ch)
	}
	return sb.String()
}

// isWhitespace returns true if the rune is a space, tab, or newline.
func isWhitespace(ch rune) bool { return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' }

// isLetter returns true if the rune is a letter.
func isLetter(ch rune) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }

// isDigit returns true if the rune is a digit.
func isDigit(ch rune) bool { return (ch >= '0' && ch <= '9') }

// isIdentChar returns true if the rune can be used in an unquoted identifier.
func isIdentChar(ch rune) bool { return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '.' }

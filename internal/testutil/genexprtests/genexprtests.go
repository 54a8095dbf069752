// Package genexprtests parses expression test files.
//
// A file is made of tests, each starting with a "-- test: name" line.
// "-- row: {json}" sets the row the following expressions are evaluated
// against. "> expr" is followed by the expression giving the expected
// value, "! expr" by the quoted regular expression its error must match.
package genexprtests

import (
	"bufio"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

type Statement struct {
	Expr     string
	ExprLine int
	Res      string
	ResLine  int
	Fail     bool
	// Row is the JSON object the expression is evaluated against. Empty means no columns.
	Row string
}

type Test struct {
	Name       string
	Statements []*Statement
}

type Suite struct {
	Tests []*Test
}

func Parse(r io.Reader) (*Suite, error) {
	s := bufio.NewScanner(r)
	var ts Suite

	var curTest *Test
	var curStmt *Statement
	var curRow string
	lineNum := 0
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		lineNum++
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "-- test:"):
			curTest = &Test{Name: strings.TrimSpace(strings.TrimPrefix(line, "-- test:"))}
			curStmt, curRow = nil, ""
			ts.Tests = append(ts.Tests, curTest)
		case strings.HasPrefix(line, "-- row:"):
			curRow = strings.TrimSpace(strings.TrimPrefix(line, "-- row:"))
		case strings.HasPrefix(line, "--"):
			continue
		case curTest == nil:
			return nil, errors.Newf("line %d: statement outside of a test", lineNum)
		case line[0] == '>' || line[0] == '!':
			curStmt = &Statement{
				Expr:     strings.TrimSpace(line[1:]),
				ExprLine: lineNum,
				Fail:     line[0] == '!',
				Row:      curRow,
			}
			curTest.Statements = append(curTest.Statements, curStmt)
		case curStmt == nil:
			return nil, errors.Newf("line %d: result without expression", lineNum)
		default:
			if curStmt.Fail {
				if len(line) < 2 || line[0] != '\'' || line[len(line)-1] != '\'' {
					return nil, errors.Newf("line %d: error statement must be surrounded by ' in `%s`", lineNum, line)
				}
				curStmt.Res = line[1 : len(line)-1]
			} else {
				curStmt.Res = line
			}
			curStmt.ResLine = lineNum
		}
	}

	return &ts, s.Err()
}

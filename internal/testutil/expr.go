package testutil

import (
	"os"
	"regexp"
	"testing"

	"github.com/chaisql/tally/internal/parser"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/testutil/genexprtests"
	"github.com/stretchr/testify/require"
)

// ExprRunner runs the expression tests of testfile. Each expression is
// parsed and evaluated, then compared with the evaluation of its
// expected result expression, or its error with the expected pattern.
func ExprRunner(t *testing.T, testfile string) {
	t.Helper()

	f, err := os.Open(testfile)
	require.NoError(t, err)
	defer f.Close()

	ts, err := genexprtests.Parse(f)
	require.NoError(t, err)

	for _, test := range ts.Tests {
		t.Run(test.Name, func(t *testing.T) {
			for _, stmt := range test.Statements {
				r := row.Row(row.NewColumnBuffer())
				if stmt.Row != "" {
					r = MakeRow(t, stmt.Row)
				}

				if !stmt.Fail {
					t.Run("OK "+stmt.Expr, func(t *testing.T) {
						want, err := parser.MustParseExpr(stmt.Res).Eval(r)
						require.NoError(t, err, "line %d", stmt.ResLine)

						e, err := parser.ParseExpr(stmt.Expr)
						require.NoError(t, err, "line %d", stmt.ExprLine)

						got, err := e.Eval(r)
						require.NoError(t, err, "line %d", stmt.ExprLine)
						RequireValueEqual(t, want, got)
					})
					continue
				}

				t.Run("NOK "+stmt.Expr, func(t *testing.T) {
					e, err := parser.ParseExpr(stmt.Expr)
					if err == nil {
						_, err = e.Eval(r)
					}
					require.Errorf(t, err, "expected `%s` to return an error (line %d)", stmt.Expr, stmt.ExprLine)
					require.Regexp(t, regexp.MustCompile(stmt.Res), err.Error())
				})
			}
		})
	}
}

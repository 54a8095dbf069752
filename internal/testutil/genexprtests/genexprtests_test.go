package genexprtests_test

import (
	"strings"
	"testing"

	"github.com/chaisql/tally/internal/testutil/genexprtests"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	ts, err := genexprtests.Parse(strings.NewReader(`
-- test: arithmetic
> 1 + 1
2
-- a comment
-- row: {"x": 3}
> x * 2
6
! x + 'a'
'type mismatch'

-- test: empty row
> NA
NA
`))
	require.NoError(t, err)
	require.Len(t, ts.Tests, 2)

	stmts := ts.Tests[0].Statements
	require.Equal(t, "arithmetic", ts.Tests[0].Name)
	require.Len(t, stmts, 3)
	require.Equal(t, &genexprtests.Statement{Expr: "1 + 1", ExprLine: 3, Res: "2", ResLine: 4}, stmts[0])
	require.Equal(t, `{"x": 3}`, stmts[1].Row)
	require.True(t, stmts[2].Fail)
	require.Equal(t, "type mismatch", stmts[2].Res)
	require.Empty(t, ts.Tests[1].Statements[0].Row)

	_, err = genexprtests.Parse(strings.NewReader("-- test: a\n! 1 + 'a'\ntype mismatch\n"))
	require.Error(t, err)

	_, err = genexprtests.Parse(strings.NewReader("> 1\n1\n"))
	require.Error(t, err)
}

package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaisql/tally/cmd/tally/session"
	"github.com/chaisql/tally/internal/catalog"
	"github.com/chaisql/tally/internal/config"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func newTestShell(t *testing.T) *Shell {
	t.Helper()

	s, err := session.New(t.Context(), &config.Config{
		Output: config.OutputConfig{Format: "csv", MaxRows: 20},
		Loader: config.LoaderConfig{NAStrings: []string{"NA", ""}},
	}, session.Options{})
	require.NoError(t, err)

	return newShell(&Options{Session: s})
}

func TestRunHelpCmd(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runHelpCmd(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(commands))
	require.True(t, strings.HasPrefix(lines[3], ".use NAME|FILE"), lines[3])
	require.Contains(t, lines[3], "Run the pipelines")
}

func TestExecuteInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,x\n2,y\n"), 0o644))

	tests := []struct {
		name  string
		in    string
		want  string
		fails bool
	}{
		{"datasets", ".datasets", "flights\nhousing\n", false},
		{"datasets usage", ".datasets all", "", true},
		{"pipeline", "flights %>% filter(carrier == 'UA') %>% count();", "n\n14\n", false},
		{"no dataset", "head(1);", "", true},
		{"use", ".use housing", "Using dataset housing.\n", false},
		{"current dataset", "head(1) %>% select(city);", "city\nTrondheim\n", false},
		{"named dataset", "flights %>% head(1) %>% select(carrier);", "carrier\nDL\n", false},
		{"several pipelines", "head(1) %>% select(city); head(2) %>% count();", "city\nTrondheim\nn\n2\n", false},
		{"use unknown", ".use housnig", "", true},
		{"load", ".load small " + path, "Loaded small: 2 rows, 2 columns.\n", false},
		{"loaded dataset", "small %>% filter(a > 1);", "a,b\n2,y\n", false},
		{"load usage", ".load small", "", true},
		{"schema", ".schema small", "column,type,levels,missing\na,integer,NA,0\nb,text,NA,0\n", false},
		{"timer", ".timer on", "", false},
		{"timer usage", ".timer maybe", "", true},
		{"incomplete", "head(1)", "", false},
		{"empty", "   ", "", false},
		{"suggestion", ".dataset", "\".dataset\" is not a command. Did you mean: \".datasets\"?\n", false},
		{"unknown command", ".zzzzzzzz", "", true},
	}

	sh := newTestShell(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := sh.executeInput(t.Context(), test.in, &buf)
			if test.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, buf.String())
		})
	}

	require.True(t, sh.displayTime)
	require.Equal(t, "housing", sh.current)
	require.Equal(t, ".zzzzzzzz", sh.getHistoryLine(1))
	require.Equal(t, ".dataset", sh.getHistoryLine(2))

	err := sh.executeInput(t.Context(), ".use nope", &bytes.Buffer{})
	require.ErrorIs(t, err, catalog.ErrDatasetNotFound)

	err = sh.executeInput(t.Context(), ".exit", &bytes.Buffer{})
	require.ErrorIs(t, err, errExitCommand)
}

func TestHistory(t *testing.T) {
	history := []string{".use flights", "group_by(carrier) %>%\n  count();"}

	var buf bytes.Buffer
	require.NoError(t, writeHistory(&buf, history))
	require.Equal(t, 2, strings.Count(buf.String(), "\n"))

	buf.WriteString("not base64!\n")
	got, err := readHistory(&buf)
	require.NoError(t, err)
	require.Equal(t, history, got)

	sh := Shell{history: got}
	require.Equal(t, history[1], sh.getHistoryLine(1))
	require.Equal(t, history[0], sh.getHistoryLine(2))
	require.Equal(t, history[0], sh.getHistoryLine(5))
	require.Empty(t, (&Shell{}).getHistoryLine(1))
}

func TestShouldRun(t *testing.T) {
	tests := []struct {
		in    string
		lines int
		want  bool
	}{
		{".datasets", 1, true},
		{".use\nflights", 2, false},
		{"head(1);", 1, true},
		{"flights %>%\nhead(1);  ", 2, true},
		{"flights %>%", 1, false},
	}

	for _, test := range tests {
		require.Equal(t, test.want, shouldRun(test.in, test.lines), test.in)
	}
}

func TestRunTask(t *testing.T) {
	sh := newTestShell(t)

	var buf bytes.Buffer
	require.NoError(t, sh.runTask(t.Context(), ".timer on", &buf))
	require.Empty(t, buf.String())

	require.NoError(t, sh.runTask(t.Context(), "flights %>% count();", &buf))
	require.True(t, strings.HasPrefix(buf.String(), "n\n120\nTime: "), buf.String())

	err := sh.runTask(t.Context(), "flights %>% fliter(x);", &buf)
	require.Error(t, err)
	require.Nil(t, sh.cancel)
}

func TestLineSender(t *testing.T) {
	var got []string
	w := lineSender{send: func(msg tea.Msg) {
		got = append(got, string(msg.(outputMsg)))
	}}

	_, err := w.Write([]byte("a\nb"))
	require.NoError(t, err)
	_, err = w.Write([]byte("c\nd\n"))
	require.NoError(t, err)
	w.flush()
	require.Equal(t, []string{"a", "bc\nd"}, got)

	_, err = w.Write([]byte("e"))
	require.NoError(t, err)
	w.flush()
	require.Equal(t, []string{"a", "bc\nd", "e"}, got)
}

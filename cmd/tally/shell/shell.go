package shell

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/chaisql/tally/cmd/tally/session"
)

const (
	historyFilename = ".tally_history"
)

// errExitCommand is returned when the exit command is executed.
var errExitCommand = errors.New("exit command")

// A Shell manages a command line shell program for running pipelines
// against tally datasets.
type Shell struct {
	session *session.Session
	opts    *Options

	// current is the dataset read by pipelines that don't name one.
	current     string
	displayTime bool

	history []string

	// send delivers messages to the running program.
	send func(tea.Msg)

	mu sync.Mutex
	// cancel stops the running task, nil when idle.
	cancel context.CancelFunc
}

// Options of the shell.
type Options struct {
	Session *session.Session
	// Dataset selected when the shell starts, if any.
	Dataset string
}

// A task is an input submitted by the UI. Its output is written to out
// and its result sent on done once every line has been written.
type task struct {
	input string
	out   io.Writer
	done  chan error
}

func newShell(opts *Options) *Shell {
	return &Shell{
		session: opts.Session,
		opts:    opts,
		current: opts.Dataset,
	}
}

// Run a shell.
func Run(ctx context.Context, opts *Options) (err error) {
	if opts == nil || opts.Session == nil {
		return errors.New("shell requires a session")
	}

	sh := newShell(opts)

	if sh.current == "" {
		fmt.Printf("Datasets: %s. Select one with .use NAME.\n", strings.Join(sh.session.Catalog.Names(), ", "))
	} else {
		fmt.Printf("Using dataset %s.\n", sh.current)
	}

	defer func() {
		dumpErr := sh.dumpHistory()
		if dumpErr != nil {
			err = multierr.Append(err, dumpErr)
		}
	}()

	sh.history, err = sh.loadHistory()
	if err != nil {
		return err
	}

	tasks := make(chan task)
	p := tea.NewProgram(newTUI(sh, tasks))
	sh.send = p.Send

	// from this point, do not use the root context anymore:
	// interrupts cancel the running task, not the shell.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, err := p.Run(); err != nil {
			return err
		}
		return errExitCommand
	})

	g.Go(func() error {
		return sh.runExecutor(ctx, tasks)
	})

	err = g.Wait()
	if errors.Is(err, errExitCommand) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// runExecutor runs the tasks submitted by the UI, one at a time.
func (sh *Shell) runExecutor(ctx context.Context, tasks <-chan task) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-tasks:
			err := sh.runTask(ctx, t.input, t.out)
			t.done <- err
			if errors.Is(err, errExitCommand) {
				return err
			}
		}
	}
}

// runTask executes the input with a context cancelled by cancelExecution
// and reports the elapsed time if the timer is on.
func (sh *Shell) runTask(ctx context.Context, input string, out io.Writer) error {
	w := bufio.NewWriter(out)
	defer w.Flush()

	ctx, cancel := context.WithCancel(ctx)
	sh.setCancel(cancel)
	defer sh.cancelExecution()

	start := time.Now()
	if err := sh.executeInput(ctx, input, w); err != nil {
		return err
	}

	if sh.displayTime {
		fmt.Fprintf(w, "Time: %s\n", time.Since(start).Round(time.Microsecond))
	}
	return nil
}

func (sh *Shell) setCancel(cancel context.CancelFunc) {
	sh.mu.Lock()
	sh.cancel = cancel
	sh.mu.Unlock()
}

// cancelExecution stops the running task, if any, and keeps the shell running.
func (sh *Shell) cancelExecution() {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if sh.cancel != nil {
		sh.cancel()
		sh.cancel = nil
	}
}

func historyPath() (string, bool, error) {
	if _, ok := os.LookupEnv("NO_HISTORY"); ok {
		return "", false, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, err
	}

	return filepath.Join(homeDir, historyFilename), true, nil
}

func (sh *Shell) loadHistory() ([]string, error) {
	fname, ok, err := historyPath()
	if !ok || err != nil {
		return nil, err
	}

	f, err := os.Open(fname)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	return readHistory(f)
}

// readHistory reads base64 encoded lines, skipping the invalid ones.
func readHistory(r io.Reader) ([]string, error) {
	var history []string
	s := bufio.NewScanner(r)
	for s.Scan() {
		line, err := base64.StdEncoding.DecodeString(s.Text())
		if err != nil {
			continue
		}
		history = append(history, string(line))
	}

	return history, s.Err()
}

func (sh *Shell) dumpHistory() error {
	fname, ok, err := historyPath()
	if !ok || err != nil {
		return err
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeHistory(f, sh.history)
}

func writeHistory(w io.Writer, history []string) error {
	bw := bufio.NewWriter(w)
	for _, h := range history {
		_, err := bw.WriteString(base64.StdEncoding.EncodeToString([]byte(h)) + "\n")
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}

func (sh *Shell) getHistoryLine(offset int) string {
	if len(sh.history) == 0 {
		return ""
	}

	offset--

	if offset >= len(sh.history) {
		return sh.history[0]
	}

	return sh.history[len(sh.history)-1-offset]
}

// executeInput stores user input in the history and executes it.
func (sh *Shell) executeInput(ctx context.Context, in string, out io.Writer) error {
	in = strings.TrimSpace(in)
	if in == "" {
		return nil
	}

	sh.history = append(sh.history, in)

	switch {
	// if it starts with a "." it's a command
	case strings.HasPrefix(in, "."):
		return sh.runCommand(ctx, in, out)
	// If it ends with a ";" we can run the pipelines
	case strings.HasSuffix(in, ";"):
		return sh.runPipelines(ctx, in, out)
	}

	return nil
}

func (sh *Shell) runCommand(ctx context.Context, in string, out io.Writer) error {
	in = strings.TrimSuffix(in, ";")
	cmd := strings.Fields(in)
	switch cmd[0] {
	case ".exit":
		return errExitCommand
	case ".timer":
		if len(cmd) != 2 || (cmd[1] != "on" && cmd[1] != "off") {
			return errors.New(getUsage(".timer"))
		}

		sh.displayTime = cmd[1] == "on"
		return nil
	case ".help":
		return runHelpCmd(out)
	case ".datasets":
		if len(cmd) > 1 {
			return errors.New(getUsage(".datasets"))
		}

		return runDatasetsCmd(sh.session, out)
	case ".use":
		if len(cmd) != 2 {
			return errors.New(getUsage(".use"))
		}

		name, err := sh.session.Use(ctx, cmd[1])
		if err != nil {
			return err
		}
		sh.current = name
		_, err = fmt.Fprintf(out, "Using dataset %s.\n", name)
		return err
	case ".load":
		if len(cmd) != 3 {
			return errors.New(getUsage(".load"))
		}

		return runLoadCmd(ctx, sh.session, cmd[1], cmd[2], out)
	case ".schema":
		if len(cmd) > 2 {
			return errors.New(getUsage(".schema"))
		}

		name := sh.current
		if len(cmd) == 2 {
			name = cmd[1]
		}

		return runSchemaCmd(ctx, sh.session, name, out)
	default:
		return displaySuggestions(in, out)
	}
}

func (sh *Shell) runPipelines(ctx context.Context, in string, out io.Writer) error {
	err := sh.session.Exec(ctx, strings.NewReader(in), out, sh.current)
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}

	return err
}

// suggestCommands returns the commands and aliases close to name:
// the edit distance must be less than half their length.
func suggestCommands(name string) []string {
	var names []string
	for _, c := range commands {
		names = append(names, c.Name)
		names = append(names, c.Aliases...)
	}

	var matches []string
	for _, n := range names {
		if levenshtein.ComputeDistance(n, name) < len(n)/2 {
			matches = append(matches, strconv.Quote(n))
		}
	}
	return matches
}

// displaySuggestions prints the commands the input may have meant.
func displaySuggestions(in string, out io.Writer) error {
	name := strings.Fields(in)[0]

	suggestions := suggestCommands(name)
	if len(suggestions) == 0 {
		return errors.WithHint(errors.Newf("unknown command %q", name), `enter ".help" for help`)
	}

	_, err := fmt.Fprintf(out, "%q is not a command. Did you mean: %s?\n", name, strings.Join(suggestions, ", "))
	return err
}

package shell

import (
	"context"
	"fmt"
	"io"

	"github.com/chaisql/tally/cmd/tally/session"
)

type command struct {
	Name        string
	Options     string
	DisplayName string
	Description string
	Aliases     []string
}

func (c *command) Usage() string {
	return fmt.Sprintf("%s %s", c.DisplayName, c.Options)
}

var commands = []command{
	{
		Name:        ".exit",
		DisplayName: ".exit or exit",
		Description: "Exit this program.",
		Aliases:     []string{"exit"},
	},
	{
		Name:        ".help",
		DisplayName: ".help or help",
		Description: "List all commands.",
		Aliases:     []string{"help"},
	},
	{
		Name:        ".datasets",
		DisplayName: ".datasets",
		Description: "List the available datasets.",
	},
	{
		Name:        ".use",
		Options:     "NAME|FILE",
		DisplayName: ".use",
		Description: "Run the pipelines that don't name a dataset against this one.",
	},
	{
		Name:        ".load",
		Options:     "NAME FILE",
		DisplayName: ".load",
		Description: "Load a csv, tsv, json lines or snapshot file as a dataset.",
	},
	{
		Name:        ".schema",
		Options:     "[NAME]",
		DisplayName: ".schema",
		Description: "Show the columns of a dataset, by default the current one.",
	},
	{
		Name:        ".timer",
		Options:     "[on|off]",
		DisplayName: ".timer",
		Description: "Display the execution time after each pipeline or hide it.",
	},
}

func getUsage(cmdName string) string {
	for _, c := range commands {
		if c.Name == cmdName {
			return c.Usage()
		}
	}

	return ""
}

// runHelpCmd shows all available commands.
func runHelpCmd(out io.Writer) error {
	for _, c := range commands {
		// indentation for readability.
		spaces := 25
		indent := spaces - len(c.DisplayName) - len(c.Options)
		fmt.Fprintf(out, "%s %s %*s %s\n", c.DisplayName, c.Options, indent, "", c.Description)
	}

	return nil
}

// runDatasetsCmd displays the name of each dataset.
func runDatasetsCmd(s *session.Session, w io.Writer) error {
	for _, name := range s.Catalog.Names() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}

	return nil
}

// runLoadCmd loads the file at path under the given name.
func runLoadCmd(ctx context.Context, s *session.Session, name, path string, w io.Writer) error {
	ds, err := s.Catalog.Open(ctx, name, path, s.LoaderOptions())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Loaded %s: %d rows, %d columns.\n", name, ds.Len(), ds.Schema().Len())
	return err
}

// runSchemaCmd displays the columns of a dataset.
func runSchemaCmd(ctx context.Context, s *session.Session, name string, w io.Writer) error {
	ds, err := s.Dataset(ctx, name)
	if err != nil {
		return err
	}

	desc, err := session.Describe(ds)
	if err != nil {
		return err
	}

	return s.Write(w, desc)
}

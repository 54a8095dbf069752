package commands

import (
	"context"
	"os"
	"strings"

	"github.com/chaisql/tally/internal/loader"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// NewRunCommand returns a cli.Command for "tally run".
func NewRunCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "run",
		Usage:     "Run a pipeline and print its result.",
		UsageText: `tally run [dataset] pipeline`,
		Description: `The run command applies a pipeline of verbs to a dataset:

$ tally run flights 'filter(month == 1) %>% group_by(carrier) %>% summarize(n = n())'

The dataset can be a bundled dataset, one listed in the configuration,
or the path of a file. The pipeline may also start with the dataset name:

$ tally run 'housing %>% group_by(city) %>% summarize(avg = mean(price, na = skip))'

Without arguments, semicolon separated pipelines are read from the standard input.`,
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}

		args := cmd.Args().Slice()
		current := cmd.String("dataset")
		if len(args) > 1 {
			current, args = args[0], args[1:]
		}
		if current != "" {
			if current, err = s.Use(ctx, current); err != nil {
				return err
			}
		}

		if len(args) == 0 {
			return s.Exec(ctx, os.Stdin, output(cmd), current)
		}

		frame, err := s.Run(ctx, strings.Join(args, " "), current)
		if err != nil {
			return err
		}
		return s.Write(output(cmd), frame.Dataset)
	}

	return &cmd
}

// NewQueryCommand returns a cli.Command for "tally query".
func NewQueryCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "query",
		Usage:     "Load the result of a SQL query and run a pipeline on it.",
		UsageText: `tally query [options] dsn query [pipeline]`,
		Description: `The query command reads a result set from a SQL database:

$ tally query --driver sqlite3 shop.db 'SELECT * FROM orders' 'group_by(customer) %>% summarize(total = sum(amount))'

Supported drivers are duckdb and sqlite3.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "driver",
				Value: "sqlite3",
				Usage: "database/sql driver: duckdb or sqlite3.",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Value:   "query",
				Usage:   "name under which the result set is registered.",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		args := cmd.Args().Slice()
		if len(args) < 2 {
			return errors.New(cmd.UsageText)
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}

		ds, err := loader.LoadSQL(ctx, cmd.String("driver"), args[0], args[1], s.LoaderOptions())
		if err != nil {
			return err
		}

		name := cmd.String("name")
		s.Catalog.Replace(name, ds)

		if len(args) == 2 {
			return s.Write(output(cmd), ds)
		}

		frame, err := s.Run(ctx, strings.Join(args[2:], " "), name)
		if err != nil {
			return err
		}
		return s.Write(output(cmd), frame.Dataset)
	}

	return &cmd
}

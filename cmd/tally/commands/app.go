package commands

import (
	"context"
	"io"
	"os"

	"github.com/chaisql/tally/cmd/tally/session"
	"github.com/chaisql/tally/cmd/tally/shell"
	"github.com/urfave/cli/v3"
)

// NewApp creates the tally CLI app.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:      "tally",
		Usage:     "Grouped aggregations and pipelines over tabular datasets",
		UsageText: "tally [options] [command]",
		Description: `Without a command, tally starts an interactive shell, or runs the
pipelines read from the standard input when it is a pipe:

$ echo 'flights %>% group_by(carrier) %>% summarize(n = n());' | tally`,
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of the configuration file. Defaults to tally.toml in ., $HOME/.tally or /etc/tally.",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: trace, debug, info, warn, error or disabled.",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "output format: text, csv, json, parquet or arrow.",
			},
			&cli.IntFlag{
				Name:  "max-rows",
				Usage: "number of rows printed by the text format.",
			},
			&cli.StringFlag{
				Name:    "dataset",
				Aliases: []string{"d"},
				Usage:   "dataset name or file read by pipelines that don't name one.",
			},
		},
		Commands: []*cli.Command{
			NewRunCommand(),
			NewQueryCommand(),
			NewSummarizeCommand(),
			NewTapplyCommand(),
			NewAggregateCommand(),
			NewSchemaCommand(),
			NewHeadCommand(),
			NewExportCommand(),
			NewDatasetsCommand(),
			NewServeCommand(),
			NewShellCommand(),
			NewVersionCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}

			current, err := currentDataset(ctx, s, cmd)
			if err != nil {
				return err
			}

			if session.CanReadFromStandardInput() {
				return s.Exec(ctx, os.Stdin, output(cmd), current)
			}

			return shell.Run(ctx, &shell.Options{
				Session: s,
				Dataset: current,
			})
		},
	}
}

// NewShellCommand returns a cli.Command for "tally shell".
func NewShellCommand() *cli.Command {
	return &cli.Command{
		Name:      "shell",
		Usage:     "Start the interactive shell.",
		UsageText: "tally shell [dataset]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(ctx, cmd)
			if err != nil {
				return err
			}

			current, err := currentDataset(ctx, s, cmd)
			if err != nil {
				return err
			}

			return shell.Run(ctx, &shell.Options{
				Session: s,
				Dataset: current,
			})
		},
	}
}

// openSession creates the session from the global flags.
func openSession(ctx context.Context, cmd *cli.Command) (*session.Session, error) {
	return session.Open(ctx, session.Options{
		ConfigFile: cmd.String("config"),
		LogLevel:   cmd.String("log-level"),
		Format:     cmd.String("format"),
		MaxRows:    int(cmd.Int("max-rows")),
	})
}

// currentDataset returns the name of the dataset given by the first
// argument or the dataset flag, loading it if it is a file.
func currentDataset(ctx context.Context, s *session.Session, cmd *cli.Command) (string, error) {
	ref := cmd.Args().First()
	if ref == "" {
		ref = cmd.String("dataset")
	}
	if ref == "" {
		return "", nil
	}
	return s.Use(ctx, ref)
}

// output returns the writer results are printed to.
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

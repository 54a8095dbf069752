package commands

import (
	"context"

	"github.com/chaisql/tally/cmd/tally/session"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// NewSchemaCommand returns a cli.Command for "tally schema".
func NewSchemaCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "schema",
		Usage:     "Print the columns of a dataset.",
		UsageText: `tally schema dataset`,
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		ref := cmd.Args().First()
		if ref == "" {
			return errors.New(cmd.UsageText)
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		ds, err := s.Dataset(ctx, ref)
		if err != nil {
			return err
		}

		desc, err := session.Describe(ds)
		if err != nil {
			return err
		}
		return s.Write(output(cmd), desc)
	}

	return &cmd
}

// NewHeadCommand returns a cli.Command for "tally head".
func NewHeadCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "head",
		Usage:     "Print the first rows of a dataset.",
		UsageText: `tally head [options] dataset`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "rows",
				Aliases: []string{"n"},
				Value:   6,
				Usage:   "number of rows.",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		ref := cmd.Args().First()
		if ref == "" {
			return errors.New(cmd.UsageText)
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		ds, err := s.Dataset(ctx, ref)
		if err != nil {
			return err
		}

		return s.Write(output(cmd), ds.Head(int(cmd.Int("rows"))))
	}

	return &cmd
}

// NewDatasetsCommand returns a cli.Command for "tally datasets".
func NewDatasetsCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "datasets",
		Usage:     "List the bundled datasets and the ones listed in the configuration.",
		UsageText: `tally datasets`,
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}

		list, err := s.Datasets()
		if err != nil {
			return err
		}
		return s.Write(output(cmd), list)
	}

	return &cmd
}

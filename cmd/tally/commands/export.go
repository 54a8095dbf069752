package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/loader"
	"github.com/chaisql/tally/internal/render"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// snapshotExt is the extension of dataset snapshots.
const snapshotExt = ".tally"

// NewExportCommand returns a cli.Command for "tally export".
func NewExportCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "export",
		Usage:     "Write a dataset, or the result of a pipeline, to a file.",
		UsageText: `tally export [options] dataset [pipeline]`,
		Description: `The export command writes a dataset in the format given by the extension
of the output file: .csv, .json, .parquet, .arrow or .tally for snapshots,
which load faster than the original file:

$ tally export -o flights.parquet flights
$ tally export -o delays.csv flights 'group_by(carrier) %>% summarize(avg = mean(dep_delay, na = skip))'

By default, the dataset is sent to the standard output in the output format.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "name of the file to output to. Defaults to STDOUT.",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		args := cmd.Args().Slice()
		if len(args) == 0 {
			return errors.New(cmd.UsageText)
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		current, err := s.Use(ctx, args[0])
		if err != nil {
			return err
		}
		ds, err := s.Catalog.Get(current)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			frame, err := s.Run(ctx, strings.Join(args[1:], " "), current)
			if err != nil {
				return err
			}
			ds = frame.Dataset
		}

		path := cmd.String("output")
		if path == "" {
			return s.Write(output(cmd), ds)
		}
		if filepath.Ext(path) == snapshotExt {
			return loader.SaveSnapshot(path, ds)
		}

		format := s.Format
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" && cmd.String("format") == "" {
			if format, err = render.ParseFormat(ext); err != nil {
				return err
			}
		}

		return writeFile(path, ds, format)
	}

	return &cmd
}

// writeFile renders every row of ds into the file at path.
func writeFile(path string, ds *dataset.Dataset, format render.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return render.Render(f, ds, format, render.Options{})
}

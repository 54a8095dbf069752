package commands

import (
	"context"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/parser"
	"github.com/chaisql/tally/internal/splitapply"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
)

// NewSummarizeCommand returns a cli.Command for "tally summarize".
func NewSummarizeCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "summarize",
		Aliases:   []string{"summarise"},
		Usage:     "Compute aggregations for each group of a dataset.",
		UsageText: `tally summarize [options] dataset aggregation...`,
		Description: `The summarize command partitions a dataset by the group-by columns
and computes one row per group:

$ tally summarize -g carrier -g origin flights 'n = n()' 'avg = mean(dep_delay, na = skip)'

Without group-by columns, the whole dataset is a single group.`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "group-by",
				Aliases: []string{"g"},
				Usage:   "grouping column, can be repeated.",
			},
			&cli.BoolFlag{
				Name:  "sort",
				Usage: "sort the groups by key instead of first appearance.",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		args := cmd.Args().Slice()
		if len(args) < 2 {
			return errors.New(cmd.UsageText)
		}

		aggs := make([]aggregate.Aggregation, len(args)-1)
		for i, a := range args[1:] {
			agg, err := parser.ParseAggregation(a)
			if err != nil {
				return errors.Wrapf(err, "aggregation %d", i+1)
			}
			aggs[i] = agg
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		ds, err := s.Dataset(ctx, args[0])
		if err != nil {
			return err
		}

		res, err := aggregate.Aggregate(ds, cmd.StringSlice("group-by"), aggs, s.AggregateOptions(cmd.Bool("sort"))...)
		if err != nil {
			return err
		}
		return s.Write(output(cmd), res)
	}

	return &cmd
}

// NewTapplyCommand returns a cli.Command for "tally tapply".
func NewTapplyCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "tapply",
		Usage:     "Apply a reducer to a column for each combination of factors.",
		UsageText: `tally tapply [options] dataset column`,
		Description: `The tapply command reduces a column for each combination of the index
columns. With two index columns, the result is a cross table:

$ tally tapply -i city -i type -r median --na skip housing price`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "index",
				Aliases:  []string{"i"},
				Usage:    "index column, can be repeated.",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "reducer",
				Aliases: []string{"r"},
				Value:   "mean",
				Usage:   "reducer, with its arguments if any, such as quantile(0.9).",
			},
			&cli.StringFlag{
				Name:  "na",
				Usage: "missing value policy: skip or propagate.",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		args := cmd.Args().Slice()
		if len(args) != 2 {
			return errors.New(cmd.UsageText)
		}

		r, err := parser.ParseReducer(cmd.String("reducer"))
		if err != nil {
			return err
		}
		policy := aggregate.PolicyUnset
		if na := cmd.String("na"); na != "" {
			if policy, err = aggregate.ParsePolicy(na); err != nil {
				return err
			}
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		ds, err := s.Dataset(ctx, args[0])
		if err != nil {
			return err
		}

		res, err := splitapply.Tapply(ds, args[1], cmd.StringSlice("index"), r, policy)
		if err != nil {
			return err
		}
		return s.Write(output(cmd), res)
	}

	return &cmd
}

// NewAggregateCommand returns a cli.Command for "tally aggregate".
func NewAggregateCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "aggregate",
		Usage:     "Apply a reducer to the responses of a formula for each group of its terms.",
		UsageText: `tally aggregate [options] dataset formula`,
		Description: `The aggregate command takes a model formula. Rows with a missing response
or term are omitted:

$ tally aggregate -r mean housing 'cbind(price, sqft) ~ city + type'
$ tally aggregate -r max flights '. ~ carrier'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "reducer",
				Aliases: []string{"r"},
				Value:   "mean",
				Usage:   "reducer, with its arguments if any, such as quantile(0.9).",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		args := cmd.Args().Slice()
		if len(args) < 2 {
			return errors.New(cmd.UsageText)
		}

		f, err := parser.ParseFormula(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		r, err := parser.ParseReducer(cmd.String("reducer"))
		if err != nil {
			return err
		}

		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}
		ds, err := s.Dataset(ctx, args[0])
		if err != nil {
			return err
		}

		res, err := splitapply.AggregateFormula(ds, f, r)
		if err != nil {
			return err
		}
		return s.Write(output(cmd), res)
	}

	return &cmd
}

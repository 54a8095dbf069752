package commands

import (
	"context"

	"github.com/chaisql/tally/internal/api"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

// NewServeCommand returns a cli.Command for "tally serve".
func NewServeCommand() *cli.Command {
	cmd := cli.Command{
		Name:      "serve",
		Usage:     "Serve the datasets over HTTP.",
		UsageText: `tally serve [options]`,
		Description: `The serve command starts the HTTP API:

GET  /health
GET  /api/v1/datasets
GET  /api/v1/datasets/:name/schema
POST /api/v1/aggregate   {"dataset": "flights", "group_by": ["carrier"], "aggregations": ["n = n()"]}
POST /api/v1/pipeline    {"dataset": "flights", "pipeline": "count(carrier)"}`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "interface to listen on. Defaults to server.host.",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "port to listen on. Defaults to server.port.",
			},
		},
	}

	cmd.Action = func(ctx context.Context, cmd *cli.Command) error {
		s, err := openSession(ctx, cmd)
		if err != nil {
			return err
		}

		cfg := s.Config.Server
		if host := cmd.String("host"); host != "" {
			cfg.Host = host
		}
		if port := int(cmd.Int("port")); port != 0 {
			cfg.Port = port
		}

		srv := api.NewServer(api.Config{
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			SpillThreshold: s.Config.Engine.SpillThreshold,
			SpillDir:       s.Config.Engine.SpillDir,
		}, s.Catalog, log.Logger)

		return srv.ListenAndServe(ctx, cfg.Addr())
	}

	return &cmd
}

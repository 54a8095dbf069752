package commands

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

// NewVersionCommand returns a cli.Command for "tally version".
func NewVersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Shows the tally version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info, ok := debug.ReadBuildInfo()
			if !ok {
				_, err := fmt.Fprintln(output(cmd), "version not available: binary built without module support")
				return err
			}

			version := info.Main.Version
			if version == "" {
				version = "(devel)"
			}
			_, err := fmt.Fprintf(output(cmd), "tally %s %s\n", version, info.GoVersion)
			return err
		},
	}
}

package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func resetCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, memoryFlags(&cfg)...)

	return &cli.Command{
		Name:  "reset",
		Usage: "Clear the conversation memory of a session",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			defer cfg.close()
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			store, err := cfg.newMemory(ctx)
			if err != nil {
				return err
			}
			if err := store.Clear(ctx); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", memoryClearedMessage)
			return nil
		},
	}
}

package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "miniassistant",
		Usage: "Conversational assistant with tools for calls, email, calendar, notes and documents",
		Commands: []*cli.Command{
			chatCommand(),
			askCommand(),
			resetCommand(),
			toolsCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}

func sessionFlags(cfg *config) []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, globalFlags(cfg)...)
	flags = append(flags, memoryFlags(cfg)...)
	flags = append(flags, llmFlags(cfg)...)
	flags = append(flags, toolFlags(cfg)...)
	return flags
}

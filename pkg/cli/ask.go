package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhh/miniassistant/pkg/service/notify"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var (
		cfg       config
		showTools bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "show-tools",
			Usage:       "Print the tool transcript after the answer",
			Destination: &showTools,
		},
	}
	flags = append(flags, sessionFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Answer a single query",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			defer cfg.close()
			ctx, err := cfg.setupLogger(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			notifier := notify.NewWriter(w)

			session, err := cfg.newSession(ctx, notifier)
			if err != nil {
				return err
			}

			answer, err := session.Answer(ctx, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "%s\n", answer.Display())
			if showTools && answer.ToolTranscript != "" {
				fmt.Fprintf(w, "\n--- tools ---\n%s", answer.ToolTranscript)
			}
			return nil
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/nhh/miniassistant/pkg/model"
	"github.com/nhh/miniassistant/pkg/service/notify"
	"github.com/nhh/miniassistant/pkg/usecase/chat"
	"github.com/nhh/miniassistant/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	memoryClearedMessage = "Memory cleared."
	emptyQueryMessage    = "Enter a query to execute"
)

func chatCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "chat",
		Usage: "Talk with the assistant interactively",
		Flags: sessionFlags(&cfg),
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

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "> ",
				HistoryFile:     historyFile(),
				InterruptPrompt: "^C",
				EOFPrompt:       "/exit",
				Stdout:          w,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start prompt")
			}
			defer rl.Close()

			fmt.Fprintf(w, "Chat session started. Type /reset to clear memory, /exit to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				query := strings.TrimSpace(line)
				switch query {
				case "/exit":
					return nil
				case "/reset":
					if err := session.Reset(ctx); err != nil {
						logging.From(ctx).Error("failed to reset memory", "error", err)
						fmt.Fprintf(w, "Failed to clear memory: %v\n", err)
						continue
					}
					notifier.Notify(ctx, memoryClearedMessage)
					continue
				}

				answer, err := answerWithSpinner(ctx, session, query, w)
				if err != nil {
					printAnswerError(ctx, w, notifier, err)
					continue
				}
				fmt.Fprintf(w, "%s\n", answer.Display())
			}

			return nil
		},
	}
}

func answerWithSpinner(ctx context.Context, session *chat.Session, query string, w io.Writer) (*chat.Answer, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " thinking..."
	s.Start()
	defer s.Stop()

	return session.Answer(ctx, query)
}

// printAnswerError reports a failed turn without ending the conversation
func printAnswerError(ctx context.Context, w io.Writer, notifier *notify.Writer, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		notifier.Notify(ctx, emptyQueryMessage)
	case errors.Is(err, model.ErrTimeout):
		fmt.Fprintf(w, "The answer took too long and was abandoned. Please try again.\n")
	case errors.Is(err, model.ErrBusy):
		fmt.Fprintf(w, "Still working on the previous question.\n")
	default:
		logging.From(ctx).Error("failed to answer", "error", err)
		fmt.Fprintf(w, "Failed to get an answer: %v\n", err)
	}
}

func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "miniassistant")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

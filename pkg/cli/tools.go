package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhh/miniassistant/pkg/service/launcher"
	"github.com/nhh/miniassistant/pkg/tool"
	"github.com/nhh/miniassistant/pkg/tool/action"
	"github.com/nhh/miniassistant/pkg/tool/retrieval"
	"github.com/urfave/cli/v3"
)

func toolsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tools",
		Usage: "List tools offered to the model",
		Action: func(ctx context.Context, c *cli.Command) error {
			tools := append([]tool.Tool{retrieval.New(nil, emptyIndex{}, nil)}, action.New(launcher.NewLogger()).Tools()...)
			registry, err := tool.New(tools...)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			for _, decl := range registry.Declarations() {
				fmt.Fprintf(w, "%s: %s\n", decl.Name, decl.Description)
				for _, p := range decl.Parameters {
					var attrs []string
					attrs = append(attrs, string(p.Type))
					if decl.IsRequired(p.Name) {
						attrs = append(attrs, "required")
					}
					fmt.Fprintf(w, "  - %s (%s): %s\n", p.Name, strings.Join(attrs, ", "), p.Description)
				}
			}
			return nil
		},
	}
}

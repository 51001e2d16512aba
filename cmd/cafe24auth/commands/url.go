package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/manwonyori/cafe24-auth/internal/app"
)

func urlCommand() *cli.Command {
	return &cli.Command{
		Name:  "url",
		Usage: "print the authorize URL to open in a browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "state",
				Usage: "state parameter for callback correlation (generated when omitted)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
				state := cmd.String("state")
				if state == "" {
					state = uuid.NewString()
				}

				fmt.Println(a.Manager().AuthorizeURL(state))
				fmt.Fprintf(os.Stderr, "state: %s (check it matches the state on the callback URL)\n", state)
				return nil
			})
		},
	}
}

package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/manwonyori/cafe24-auth/internal/app"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print a currently valid access token",
		Description: `Prints the cached access token, refreshing it first when expired.
Only the token goes to stdout, so the command composes with other tools:

   curl -H "Authorization: Bearer $(cafe24auth token)" ...`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
				token, err := a.Manager().GetAccessToken(ctx, "")
				if err != nil {
					return err
				}
				fmt.Println(token)
				return nil
			})
		},
	}
}

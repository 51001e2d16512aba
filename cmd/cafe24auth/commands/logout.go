package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/manwonyori/cafe24-auth/internal/app"
)

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "discard all stored credentials",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Manager().Logout(ctx); err != nil {
					return err
				}
				fmt.Println("Stored credentials cleared.")
				return nil
			})
		},
	}
}

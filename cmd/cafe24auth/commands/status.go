package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/manwonyori/cafe24-auth/internal/app"
	"github.com/manwonyori/cafe24-auth/internal/auth"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "show stored credentials and the storage backend in use",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
				status, err := a.Manager().Status(ctx)
				if err != nil {
					return err
				}

				fmt.Printf("Backend: %s\n", status.Backend)
				printTokenStatus("Access", status.Access)
				printTokenStatus("Refresh", status.Refresh)
				return nil
			})
		},
	}
}

func printTokenStatus(name string, ts auth.TokenStatus) {
	switch {
	case !ts.Present:
		fmt.Printf("%-8s absent\n", name)
	case ts.Expired:
		fmt.Printf("%-8s expired at %s\n", name, ts.ExpiresAt.Format(time.RFC3339))
	default:
		fmt.Printf("%-8s valid until %s\n", name, ts.ExpiresAt.Format(time.RFC3339))
	}
}

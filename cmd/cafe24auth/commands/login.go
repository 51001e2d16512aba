package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/manwonyori/cafe24-auth/internal/app"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "exchange an authorization code for tokens",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "code",
				Usage: "authorization code from the redirect callback",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return withApp(ctx, cmd, func(ctx context.Context, a *app.App) error {
				code := cmd.String("code")
				if code == "" {
					var err error
					if code, err = promptCode(); err != nil {
						return err
					}
				}
				if code == "" {
					return errors.New("authorization code required (use --code or run the url command first)")
				}

				if _, err := a.Manager().GetAccessToken(ctx, code); err != nil {
					return err
				}

				status, err := a.Manager().Status(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Authenticated. Access token valid until %s (%s backend).\n",
					status.Access.ExpiresAt.Format(time.RFC3339), status.Backend)
				return nil
			})
		},
	}
}

// promptCode reads the authorization code from stdin. On a terminal the
// input is not echoed; authorization codes are one-time credentials and
// stay out of scrollback. Piped input is read as a single line.
func promptCode() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Authorization code: ")
		value, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading authorization code: %w", err)
		}
		return strings.TrimSpace(string(value)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading authorization code: %w", err)
	}
	return strings.TrimSpace(line), nil
}

package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/user"

	"github.com/urfave/cli/v3"

	"github.com/manwonyori/cafe24-auth/internal/app"
	"github.com/manwonyori/cafe24-auth/internal/keysource"
	"github.com/manwonyori/cafe24-auth/internal/security"
)

func genkeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "genkey",
		Usage: "generate a fresh 256-bit encryption key",
		Description: `Generates a random AES-256 key and prints it base64-encoded.
Put it in the environment variable or key file the security
configuration points at, or store it straight into the OS keyring
with --keyring.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "keyring",
				Usage: "store the key in the OS keyring instead of printing it",
			},
			&cli.StringFlag{
				Name:  "keyring-user",
				Usage: "keyring user identifier (defaults to the current OS user)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			key, err := security.GenerateKey()
			if err != nil {
				return err
			}
			encoded := base64.StdEncoding.EncodeToString(key)

			if !cmd.Bool("keyring") {
				fmt.Println(encoded)
				return nil
			}

			keyringUser := cmd.String("keyring-user")
			if keyringUser == "" {
				currentUser, err := user.Current()
				if err != nil {
					return fmt.Errorf("--keyring-user required (auto-detect failed: %w)", err)
				}
				keyringUser = currentUser.Username
			}

			source, err := keysource.NewKeyringSource(app.KeyringService, keyringUser)
			if err != nil {
				return err
			}
			if err := source.Store(ctx, []byte(encoded)); err != nil {
				return fmt.Errorf("storing key in keyring: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Key stored in the OS keyring for user %s.\n", keyringUser)
			return nil
		},
	}
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/manwonyori/cafe24-auth/internal/app"
	"github.com/manwonyori/cafe24-auth/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := &cli.Command{
		Name:  "cafe24auth",
		Usage: "Cafe24 OAuth credential keeper",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "api--mall-id",
				Usage: "Cafe24 mall identifier",
			},
			&cli.StringFlag{
				Name:  "api--client-id",
				Usage: "OAuth client ID of the registered app",
			},
			&cli.StringFlag{
				Name:  "api--redirect-uri",
				Usage: "registered OAuth redirect URI",
			},
			&cli.StringFlag{
				Name:  "store--redis-url",
				Usage: "Redis URL for shared token storage",
			},
			&cli.StringFlag{
				Name:  "store--file",
				Usage: "path of the encrypted token file",
			},
			&cli.StringFlag{
				Name:  "security--key-source",
				Usage: "encryption key origin (env|file|keyring)",
			},
		},
		Commands: []*cli.Command{
			loginCommand(),
			tokenCommand(),
			urlCommand(),
			statusCommand(),
			logoutCommand(),
			genkeyCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

// withApp loads configuration, instruments logging, and hands a wired App
// to the action. Resources are released and buffered logs flushed on
// return.
func withApp(ctx context.Context, cmd *cli.Command, action func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	if err := observability.Instrument(cfg.LogLevel, string(cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() { _ = observability.Flush(context.WithoutCancel(ctx)) }()

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	defer func() { _ = application.Close() }()

	return action(ctx, application)
}

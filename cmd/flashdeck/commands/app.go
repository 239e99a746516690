// Package commands holds the flashdeck CLI command tree and actions.
package commands

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/kiranshivaraju/flashdeck/internal/client"
)

const requestTimeout = 30 * time.Second

// newController builds the upload controller. Tests replace it to inject a
// text extractor or clock.
var newController = func(api client.API) *client.Controller {
	return client.NewController(api)
}

func serverFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "server",
		Usage:   "FlashDeck server base URL",
		Value:   "http://localhost:8080",
		Sources: cli.EnvVars("FLASHDECK_SERVER"),
	}
}

// NewApp builds the root command.
func NewApp() *cli.Command {
	return &cli.Command{
		Name:  "flashdeck",
		Usage: "Import PDF notes into FlashDeck decks",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output to stderr",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and print a session token",
				Flags: []cli.Flag{
					serverFlag(),
					&cli.StringFlag{
						Name:     "email",
						Usage:    "Account email",
						Required: true,
						Sources:  cli.EnvVars("FLASHDECK_EMAIL"),
					},
					&cli.StringFlag{
						Name:     "password",
						Usage:    "Account password",
						Required: true,
						Sources:  cli.EnvVars("FLASHDECK_PASSWORD"),
					},
				},
				Action: LoginAction,
			},
			{
				Name:      "import",
				Usage:     "Generate flashcards from a PDF",
				ArgsUsage: "<file.pdf>",
				Flags: []cli.Flag{
					serverFlag(),
					&cli.StringFlag{
						Name:    "token",
						Usage:   "Session token printed by flashdeck login",
						Sources: cli.EnvVars("FLASHDECK_TOKEN"),
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Deck name (overrides the suggested name)",
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Deck description (overrides the suggested description)",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save the generated cards as a new deck",
					},
				},
				Action: ImportAction,
			},
		},
	}
}

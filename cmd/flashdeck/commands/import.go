package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/kiranshivaraju/flashdeck/internal/client"
)

var errNoToken = errors.New("not logged in: pass --token or set FLASHDECK_TOKEN")

// ImportAction uploads a PDF, waits for the import job and prints the cards.
// With --save the cards are stored as a new deck.
func ImportAction(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	if token == "" {
		return errNoToken
	}
	out := cmd.Root().Writer

	api := client.NewHTTPClient(cmd.String("server"), token, requestTimeout)
	ctrl := newController(api)

	if err := ctrl.Select(cmd.Args().Slice()); err != nil {
		return fmt.Errorf("select file: %s", client.UserMessage(err))
	}

	jobID, err := ctrl.Upload(ctx, cmd.String("name"), cmd.String("description"))
	if err != nil {
		slog.Debug("upload failed", "error", err)
		return fmt.Errorf("upload: %s", ctrl.ErrorMessage())
	}
	fmt.Fprintf(out, "Import queued (job %s), waiting for cards...\n", jobID)

	res, err := ctrl.Poll(ctx, jobID)
	if err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	slog.Debug("poll finished", "job_id", jobID, "kind", res.Kind, "attempts", res.Attempts)

	switch res.Kind {
	case client.PollCompleted:
	case client.PollCanceled:
		return fmt.Errorf("import canceled; job %s may still complete on the server", jobID)
	default:
		return fmt.Errorf("import %s: %s", res.Kind, res.Message)
	}

	draft, err := ctrl.Draft()
	if err != nil {
		return err
	}
	printDraft(out, draft, ctrl.Warnings())

	if !cmd.Bool("save") {
		return nil
	}
	if len(draft.Cards) == 0 {
		return errors.New("nothing to save: the import produced no cards")
	}

	deck, err := api.CreateDeck(ctx, draft)
	if err != nil {
		return fmt.Errorf("save deck: %s", client.UserMessage(err))
	}
	fmt.Fprintf(out, "Saved deck %q (%s) with %d cards.\n", deck.Name, deck.ID, len(deck.Cards))
	return nil
}

func printDraft(w io.Writer, d client.DeckDraft, warnings []string) {
	fmt.Fprintf(w, "\nDeck: %s\n", d.Name)
	if d.Description != "" {
		fmt.Fprintf(w, "%s\n", d.Description)
	}
	fmt.Fprintf(w, "\n%d cards:\n", len(d.Cards))
	for i, c := range d.Cards {
		fmt.Fprintf(w, "%3d. Q: %s\n     A: %s\n", i+1, c.Front, c.Back)
	}
	if len(warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, msg := range warnings {
			fmt.Fprintf(w, "  - %s\n", msg)
		}
	}
}

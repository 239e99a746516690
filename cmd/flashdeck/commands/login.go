package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/kiranshivaraju/flashdeck/internal/client"
)

// LoginAction logs in and prints the session token so it can be exported as
// FLASHDECK_TOKEN.
func LoginAction(ctx context.Context, cmd *cli.Command) error {
	api := client.NewHTTPClient(cmd.String("server"), "", requestTimeout)

	token, err := api.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return fmt.Errorf("login: %s", client.UserMessage(err))
	}

	fmt.Fprintln(cmd.Root().Writer, token)
	return nil
}

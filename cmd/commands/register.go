package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/config"
	"github.com/sherzodv/tim/internal/storage"
)

// NewRegisterCommand returns the register subcommand.
func NewRegisterCommand() *cli.Command {
	return &cli.Command{
		Name:      "register",
		Usage:     "Register a new timite and save its credentials locally",
		ArgsUsage: "<nick>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			nick := cmd.Args().First()
			if nick == "" {
				return fmt.Errorf("usage: tim-code register <nick>")
			}

			client := api.New(cmd.String("gateway"))
			sess, err := client.TrustedRegister(ctx, nick, storage.ClientInfo{Kind: "cli"})
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}

			path := api.CredentialsPath(config.TimPath())
			if err := api.SaveCredentials(path, api.Credentials{
				ParticipantID: sess.ParticipantID,
				SessionKey:    sess.Key,
				Nick:          nick,
			}); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			fmt.Printf("registered %q as timite %d\n", nick, sess.ParticipantID)
			return nil
		},
	}
}

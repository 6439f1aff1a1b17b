package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/config"
	"github.com/sherzodv/tim/internal/storage"
)

// NewConnectCommand returns the connect subcommand.
func NewConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Open a new session for an already-registered timite",
		ArgsUsage: "<timite-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			idArg := cmd.Args().First()
			if idArg == "" {
				return fmt.Errorf("usage: tim-code connect <timite-id>")
			}
			id, err := strconv.ParseUint(idArg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timite id %q: %w", idArg, err)
			}

			client := api.New(cmd.String("gateway"))
			sess, err := client.TrustedConnect(ctx, id, storage.ClientInfo{Kind: "cli"})
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			path := api.CredentialsPath(config.TimPath())
			if err := api.SaveCredentials(path, api.Credentials{
				ParticipantID: sess.ParticipantID,
				SessionKey:    sess.Key,
			}); err != nil {
				return fmt.Errorf("save credentials: %w", err)
			}

			fmt.Printf("connected as timite %d\n", sess.ParticipantID)
			return nil
		},
	}
}

// loadClient builds an api.Client authenticated from locally-saved
// credentials, for use by commands that require an existing session.
func loadClient(gatewayURL string) (*api.Client, error) {
	creds, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	client := api.New(gatewayURL)
	client.SessionKey = creds.SessionKey
	return client, nil
}

// loadCredentials reads the locally-saved session, for commands that need
// the connected participant id in addition to an authenticated client.
func loadCredentials() (api.Credentials, error) {
	creds, err := api.LoadCredentials(api.CredentialsPath(config.TimPath()))
	if err != nil {
		return api.Credentials{}, fmt.Errorf("no saved credentials, run `tim-code register` or `tim-code connect` first: %w", err)
	}
	return creds, nil
}

package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// NewSendCommand returns the send subcommand.
func NewSendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Broadcast a message to the space",
		ArgsUsage: "<content...>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			content := strings.Join(cmd.Args().Slice(), " ")
			if content == "" {
				return fmt.Errorf("usage: tim-code send <content...>")
			}

			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			msg, err := client.SendMessage(ctx, content)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			fmt.Printf("sent message %d\n", msg.ID)
			return nil
		},
	}
}

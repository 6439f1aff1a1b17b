package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/internal/storage"
)

// NewSubscribeCommand returns the subscribe subcommand.
func NewSubscribeCommand() *cli.Command {
	return &cli.Command{
		Name:  "subscribe",
		Usage: "Stream live space events to stdout until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "receive-own-messages",
				Usage: "Also receive events originated by this timite",
			},
		},
		Action: func(parent context.Context, cmd *cli.Command) error {
			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(parent, os.Interrupt)
			defer stop()

			events, err := client.Subscribe(ctx, cmd.Bool("receive-own-messages"))
			if err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}

			for ev := range events {
				printEvent(ev)
			}
			return nil
		},
	}
}

func printEvent(ev storage.SpaceEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintln(os.Stdout, string(data))
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// NewTimelineCommand returns the timeline subcommand.
func NewTimelineCommand() *cli.Command {
	return &cli.Command{
		Name:  "timeline",
		Usage: "Print a page of the historical event log",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "offset",
				Usage: "Event id to start from (0 = tail window)",
			},
			&cli.IntFlag{
				Name:  "size",
				Usage: "Maximum number of events to return",
				Value: 20,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			events, err := client.Timeline(ctx, uint64(cmd.Int("offset")), uint32(cmd.Int("size")))
			if err != nil {
				return fmt.Errorf("timeline: %w", err)
			}

			for _, ev := range events {
				data, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintln(os.Stdout, string(data))
			}
			return nil
		},
	}
}

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/internal/storage"
)

// NewAbilitiesCommand returns the abilities command group.
func NewAbilitiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "abilities",
		Usage: "Declare or list abilities",
		Commands: []*cli.Command{
			newAbilitiesDeclareCommand(),
			newAbilitiesListCommand(),
		},
	}
}

func newAbilitiesDeclareCommand() *cli.Command {
	return &cli.Command{
		Name:      "declare",
		Usage:     "Replace this timite's ability set from a JSON array on stdin",
		ArgsUsage: "< abilities.json",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			var abilities []storage.Ability
			if err := json.NewDecoder(os.Stdin).Decode(&abilities); err != nil {
				return fmt.Errorf("decode abilities from stdin: %w", err)
			}

			if err := client.DeclareAbilities(ctx, abilities); err != nil {
				return fmt.Errorf("declare abilities: %w", err)
			}
			fmt.Printf("declared %d abilities\n", len(abilities))
			return nil
		},
	}
}

func newAbilitiesListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List every timite's declared abilities",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			list, err := client.ListAbilities(ctx)
			if err != nil {
				return fmt.Errorf("list abilities: %w", err)
			}

			for _, entry := range list {
				data, err := json.Marshal(entry)
				if err != nil {
					continue
				}
				fmt.Fprintln(os.Stdout, string(data))
			}
			return nil
		},
	}
}

package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"
)

// NewCallCommand returns the call command group.
func NewCallCommand() *cli.Command {
	return &cli.Command{
		Name:  "call",
		Usage: "Invoke a remote timite's ability, or submit an outcome",
		Commands: []*cli.Command{
			newCallInvokeCommand(),
			newCallOutcomeCommand(),
		},
	}
}

func newCallInvokeCommand() *cli.Command {
	return &cli.Command{
		Name:      "invoke",
		Usage:     "Invoke a named ability on another timite",
		ArgsUsage: "<timite-id> <ability-name> <payload>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 3 {
				return fmt.Errorf("usage: tim-code call invoke <timite-id> <ability-name> <payload>")
			}
			targetID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid timite id %q: %w", args[0], err)
			}

			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			callID, err := client.CallAbility(ctx, targetID, args[1], args[2])
			if err != nil {
				return fmt.Errorf("call ability: %w", err)
			}
			fmt.Printf("call_ability_id: %d\n", callID)
			return nil
		},
	}
}

func newCallOutcomeCommand() *cli.Command {
	return &cli.Command{
		Name:      "outcome",
		Usage:     "Submit the outcome of a previously-received ability call",
		ArgsUsage: "<call-ability-id> <payload> [error]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) < 2 {
				return fmt.Errorf("usage: tim-code call outcome <call-ability-id> <payload> [error]")
			}
			callID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid call-ability-id %q: %w", args[0], err)
			}
			errMsg := ""
			if len(args) > 2 {
				errMsg = args[2]
			}

			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			if err := client.SubmitOutcome(ctx, callID, args[1], errMsg); err != nil {
				return fmt.Errorf("submit outcome: %w", err)
			}
			fmt.Println("outcome submitted")
			return nil
		},
	}
}

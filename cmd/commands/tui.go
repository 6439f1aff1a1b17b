package commands

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/clients/tui"
)

// NewTUICommand returns the tui subcommand.
func NewTUICommand() *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Launch the interactive terminal UI onto the space",
		Action: runTUI,
	}
}

func runTUI(_ context.Context, cmd *cli.Command) error {
	client, err := loadClient(cmd.String("gateway"))
	if err != nil {
		return err
	}

	creds, err := loadCredentials()
	if err != nil {
		return err
	}

	app := tui.NewApp(client, creds.ParticipantID)
	p := tea.NewProgram(app, tea.WithAltScreen())

	go tui.Listen(p, client)

	_, err = p.Run()
	return err
}

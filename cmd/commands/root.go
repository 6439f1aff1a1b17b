package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/internal/config"
)

// NewRootCommand returns the top-level CLI command.
func NewRootCommand(version, commit string) *cli.Command {
	return &cli.Command{
		Name:    "tim-code",
		Usage:   "A multi-participant space for timites to collaborate through",
		Version: version + " (" + commit + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:       "config",
				Aliases:    []string{"c"},
				Usage:      "Path to config file",
				Value:      config.ConfigPath(),
				Persistent: true,
			},
			&cli.StringFlag{
				Name:       "gateway",
				Usage:      "Gateway base URL",
				Value:      "http://127.0.0.1:18420",
				Persistent: true,
			},
			&cli.BoolFlag{
				Name:       "debug",
				Usage:      "Enable debug logging",
				Persistent: true,
			},
		},
		Commands: []*cli.Command{
			NewServeCommand(),
			NewRegisterCommand(),
			NewConnectCommand(),
			NewSendCommand(),
			NewSubscribeCommand(),
			NewTimelineCommand(),
			NewAbilitiesCommand(),
			NewCallCommand(),
			NewTUICommand(),
			NewAgentCommand(),
			NewStatusCommand(),
		},
	}
}

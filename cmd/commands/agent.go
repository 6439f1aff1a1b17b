package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sherzodv/tim/internal/clientagent"
	"github.com/sherzodv/tim/internal/config"
)

// NewAgentCommand returns the agent command group, which launches an
// autonomous space participant in place of a human at the terminal.
func NewAgentCommand() *cli.Command {
	return &cli.Command{
		Name:  "agent",
		Usage: "Run an autonomous timite against the space",
		Commands: []*cli.Command{
			newAgentLLMCommand(),
			newAgentCrawlerCommand(),
		},
	}
}

func newAgentLLMCommand() *cli.Command {
	return &cli.Command{
		Name:  "llm",
		Usage: "Reply to space messages with an LLM chat completion",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "persona", Usage: "short persona description appended to the system prompt"},
			&cli.IntFlag{Name: "history", Value: 20, Usage: "number of recent turns kept as LLM context"},
			&cli.IntFlag{Name: "live-interval-seconds", Value: 120, Usage: "seconds between proactive updates"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			creds, err := loadCredentials()
			if err != nil {
				return err
			}

			liveInterval := time.Duration(cmd.Int("live-interval-seconds")) * time.Second
			agent, err := clientagent.NewLLMAgent(ctx, cfg.Agent, client, cmd.String("persona"), int(cmd.Int("history")), liveInterval)
			if err != nil {
				return fmt.Errorf("build llm agent: %w", err)
			}

			runner := clientagent.NewRunner(client, creds.ParticipantID)
			return runner.Start(ctx, agent)
		},
	}
}

func newAgentCrawlerCommand() *cli.Command {
	return &cli.Command{
		Name:  "crawler",
		Usage: "Declare a web-crawl ability and answer calls to it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ability-name", Value: "web.crawl"},
			&cli.IntFlag{Name: "max-snippet-chars", Value: 480},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			client, err := loadClient(cmd.String("gateway"))
			if err != nil {
				return err
			}

			creds, err := loadCredentials()
			if err != nil {
				return err
			}

			agent := clientagent.NewCrawlerAgent(client, clientagent.CrawlerConf{
				AbilityName:     cmd.String("ability-name"),
				MaxSnippetChars: int(cmd.Int("max-snippet-chars")),
			})

			runner := clientagent.NewRunner(client, creds.ParticipantID)
			return runner.Start(ctx, agent)
		},
	}
}

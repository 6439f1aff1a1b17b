package clientagent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/config"
	"github.com/sherzodv/tim/internal/storage"
)

const systemPrompt = `You are a timite: one participant among several in a shared space. ` +
	`Other timites can see everything you say. Keep replies short, concrete, and on topic. ` +
	`Never claim abilities you have not been told about.`

// LLMAgent answers space messages with an LLM chat completion, keeping a
// short rolling transcript for context and replying proactively on a timer
// even without a new peer message.
type LLMAgent struct {
	BaseAgent

	client *api.Client
	llm    model.ToolCallingChatModel
	memory *Memory

	persona          string
	liveInterval     time.Duration
	abilitiesContext string
}

// NewLLMAgent builds an LLMAgent from cfg. client must already be connected
// (TrustedRegister/TrustedConnect) as the timite the agent will speak for.
func NewLLMAgent(ctx context.Context, cfg config.AgentConfig, client *api.Client, persona string, historyLimit int, liveInterval time.Duration) (*LLMAgent, error) {
	llm, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &LLMAgent{
		client:       client,
		llm:          llm,
		memory:       NewMemory(historyLimit),
		persona:      persona,
		liveInterval: liveInterval,
	}, nil
}

func (a *LLMAgent) LiveInterval() time.Duration { return a.liveInterval }

func (a *LLMAgent) OnStart(ctx context.Context) error {
	abilities, err := a.client.ListAbilities(ctx)
	if err != nil {
		return fmt.Errorf("list abilities: %w", err)
	}
	a.abilitiesContext = renderSpaceAbilities(abilities)
	slog.Debug("space abilities loaded", "abilities", a.abilitiesContext)
	return nil
}

func (a *LLMAgent) OnSpaceMessage(ctx context.Context, senderID uint64, content string) error {
	a.memory.PushPeer(content)
	prompt := content
	if history := a.memory.Context(); history != "" {
		prompt = fmt.Sprintf("Conversation so far:\n%s\nRespond to the latest peer message.", history)
	}
	return a.reply(ctx, prompt)
}

func (a *LLMAgent) OnLive(ctx context.Context) error {
	prompt := "Start the conversation with a concise, purposeful update."
	if history := a.memory.Context(); history != "" {
		prompt = fmt.Sprintf("Conversation so far:\n%s\nShare a proactive update even without a new peer message.", history)
	}
	return a.reply(ctx, prompt)
}

func (a *LLMAgent) reply(ctx context.Context, prompt string) error {
	messages := []*schema.Message{
		{Role: schema.System, Content: a.renderedSystemPrompt()},
		{Role: schema.User, Content: prompt},
	}
	answer, err := a.llm.Generate(ctx, messages)
	if err != nil {
		return fmt.Errorf("llm generate: %w", err)
	}
	a.memory.PushAgent(answer.Content)
	if _, err := a.client.SendMessage(ctx, answer.Content); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (a *LLMAgent) renderedSystemPrompt() string {
	prompt := systemPrompt
	if a.persona != "" {
		prompt += "\n\nPersona: " + a.persona
	}
	if a.abilitiesContext != "" {
		prompt += "\n\nAbilities declared in this space:\n" + a.abilitiesContext
	}
	return prompt
}

// renderSpaceAbilities formats the space's declared abilities as a short
// reference block, one line per ability, grouped by owner.
func renderSpaceAbilities(abilities []storage.ParticipantAbilities) string {
	var lines []string
	for _, pa := range abilities {
		owner := strings.TrimSpace(pa.Participant.Nick)
		if owner == "" {
			owner = fmt.Sprintf("timite#%d", pa.Participant.ID)
		}
		for _, ab := range pa.Abilities {
			name := strings.TrimSpace(ab.Name)
			if name == "" {
				continue
			}
			desc := strings.TrimSpace(ab.Description)
			if desc == "" {
				desc = "no description provided"
			}
			lines = append(lines, fmt.Sprintf("- %s.%s: %s (%s)", owner, name, desc, formatParams(ab.Params)))
		}
	}
	return strings.Join(lines, "\n")
}

func formatParams(params []storage.AbilityParam) string {
	if len(params) == 0 {
		return "no parameters"
	}
	parts := make([]string, 0, len(params))
	for _, p := range params {
		name := strings.TrimSpace(p.Name)
		desc := strings.TrimSpace(p.Description)
		switch {
		case name == "" && desc == "":
			continue
		case name == "":
			parts = append(parts, desc)
		case desc == "":
			parts = append(parts, name)
		default:
			parts = append(parts, fmt.Sprintf("%s (%s)", name, desc))
		}
	}
	return strings.Join(parts, ", ")
}

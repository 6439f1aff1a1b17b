package clientagent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/sherzodv/tim/internal/config"
)

// newChatModel builds the chat model an LLMAgent talks to, from its
// AgentConfig. Only the "openai" driver is supported: it is the only model
// backend this module depends on, and it also covers OpenAI-compatible
// endpoints (set BaseURL to target one).
func newChatModel(ctx context.Context, cfg config.AgentConfig) (model.ToolCallingChatModel, error) {
	if strings.ToLower(cfg.Driver) != "openai" && cfg.Driver != "" {
		return nil, fmt.Errorf("clientagent: unsupported driver %q, only \"openai\" is built in", cfg.Driver)
	}

	apiKey, err := resolveAPIKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve auth: %w", err)
	}

	modelConfig := &einoopenai.ChatModelConfig{
		APIKey: apiKey,
		Model:  cfg.Model,
	}
	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}
	if time.Duration(cfg.Timeout) > 0 {
		modelConfig.Timeout = time.Duration(cfg.Timeout)
	} else {
		modelConfig.Timeout = 60 * time.Second
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}

// resolveAPIKey resolves the API key from the config, falling back to
// OPENAI_API_KEY in the environment.
func resolveAPIKey(cfg config.AgentConfig) (string, error) {
	if key := strings.TrimSpace(cfg.Auth.APIKey); key != "" {
		return key, nil
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no api key in config and OPENAI_API_KEY not set")
}

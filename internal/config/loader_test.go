package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	content := `{
	// This is a JSONC comment
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999
	},
	"agent": {
		"driver": "openai",
		"model": "gpt-4o-mini",
		"auth": {
			"api_key": "${{ .Env.OPENAI_API_KEY }}"
		}
	}
}`

	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "test-key-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Agent.Driver != "openai" {
		t.Errorf("expected driver openai, got %s", cfg.Agent.Driver)
	}
	if cfg.Agent.Auth.APIKey != "test-key-123" {
		t.Errorf("expected api_key test-key-123, got %s", cfg.Agent.Auth.APIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	content := `{}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 18420 {
		t.Errorf("expected default port 18420, got %d", cfg.Gateway.Port)
	}
	if cfg.Space.SubscriberBufferSize != 10 {
		t.Errorf("expected default subscriber buffer 10, got %d", cfg.Space.SubscriberBufferSize)
	}
	if cfg.Space.CleanupInterval.Duration().Seconds() != 60 {
		t.Errorf("expected default cleanup interval 60s, got %s", cfg.Space.CleanupInterval.Duration())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level 'info', got %q", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("expected a default data dir, got empty string")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	content := `{"gateway": {"host": "0.0.0.0", "port": 9999}}`
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TIM_CODE_HOST", "10.0.0.1")
	t.Setenv("TIM_CODE_PORT", "1234")
	t.Setenv("TIM_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "10.0.0.1" {
		t.Errorf("expected env-overridden host 10.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 1234 {
		t.Errorf("expected env-overridden port 1234, got %d", cfg.Gateway.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected env-overridden log level debug, got %q", cfg.Log.Level)
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}

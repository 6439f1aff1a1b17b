package config

import "time"

// Config is the root configuration for the tim space server and its clients.
type Config struct {
	Gateway GatewayConfig `json:"gateway"`
	Storage StorageConfig `json:"storage"`
	Log     LogConfig     `json:"log"`
	Space   SpaceConfig   `json:"space"`
	Agent   AgentConfig   `json:"agent"`
}

// GatewayConfig holds the HTTP/WS gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageConfig configures the bbolt-backed data directory.
type StorageConfig struct {
	DataDir string `json:"data_dir"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `json:"level"` // "debug" | "info" | "warn" | "error" (default: "info")
}

// SpaceConfig records the event bus settings. The space package does not
// read these fields: it always uses space.BufferSize and
// space.CleanupInterval, whatever values are loaded here.
type SpaceConfig struct {
	SubscriberBufferSize int      `json:"subscriber_buffer_size"` // per-subscriber channel capacity (default: 10)
	CleanupInterval      Duration `json:"cleanup_interval"`       // dead-subscriber sweep period (default: 60s)
}

// AgentConfig configures the LLM-backed autonomous agent client.
type AgentConfig struct {
	Driver  string     `json:"driver"` // "openai"
	Model   string     `json:"model"`
	BaseURL string     `json:"base_url,omitempty"`
	Auth    AuthConfig `json:"auth"`
	Timeout Duration   `json:"timeout,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // direct API key or ${{ .Env.VAR }} template
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrNoConfig         = errors.New("config file not found")
	ErrInvalidJSON      = errors.New("invalid config JSON")
	ErrInvalidTransport = errors.New("transport must be \"cli\", \"api\", or \"auto\"")
)

// Recognized transport settings.
const (
	TransportCLI  = "cli"
	TransportAPI  = "api"
	TransportAuto = "auto"
)

// Config holds the global aide configuration. It is read once at startup
// and treated as immutable afterwards.
type Config struct {
	Transport      string   `json:"transport"`       // "cli", "api", or "auto" (default: "auto")
	APIKey         string   `json:"api_key"`         // falls back to $ANTHROPIC_API_KEY
	CommandPath    string   `json:"command_path"`    // CLI transport executable (default: "claude")
	CurlPath       string   `json:"curl_path"`       // API transport executable (default: "curl")
	BaseURL        string   `json:"base_url"`        // API endpoint base (default: Anthropic)
	Model          string   `json:"model"`
	MaxTokens      *int     `json:"max_tokens"`      // default: 4096
	Temperature    *float64 `json:"temperature"`     // default: 0.7
	SystemPrompt   string   `json:"system_prompt"`   // overrides the built-in preamble
	MaxHistory     *int     `json:"max_history"`     // conversation entry cap (default: 50)
	TimeoutSeconds *int     `json:"timeout_seconds"` // API transport request timeout (default: 120)
}

// Load reads the config from ~/.config/aide/config.json. A missing file is
// not an error: the CLI transport needs no configuration at all, so Load
// falls back to defaults.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(homeDir, ".config", "aide", "config.json")
	cfg, err := LoadFrom(configPath)
	if errors.Is(err, ErrNoConfig) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFrom reads the config from a specific path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoConfig
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, ErrInvalidJSON
	}

	applyDefaults(&cfg)

	switch cfg.Transport {
	case TransportCLI, TransportAPI, TransportAuto:
		// valid
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTransport, cfg.Transport)
	}
	if *cfg.MaxTokens <= 0 {
		return nil, errors.New("max_tokens must be positive")
	}
	if *cfg.Temperature < 0 || *cfg.Temperature > 2 {
		return nil, errors.New("temperature must be between 0 and 2")
	}
	if *cfg.MaxHistory <= 0 {
		return nil, errors.New("max_history must be positive")
	}
	if *cfg.TimeoutSeconds <= 0 {
		return nil, errors.New("timeout_seconds must be positive")
	}

	return &cfg, nil
}

// Default returns a config with every option at its default value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Transport == "" {
		cfg.Transport = TransportAuto
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.CommandPath == "" {
		cfg.CommandPath = "claude"
	}
	if cfg.CurlPath == "" {
		cfg.CurlPath = "curl"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens == nil {
		n := 4096
		cfg.MaxTokens = &n
	}
	if cfg.Temperature == nil {
		t := 0.7
		cfg.Temperature = &t
	}
	if cfg.MaxHistory == nil {
		n := 50
		cfg.MaxHistory = &n
	}
	if cfg.TimeoutSeconds == nil {
		n := 120
		cfg.TimeoutSeconds = &n
	}
}

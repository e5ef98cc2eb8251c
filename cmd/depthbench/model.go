package main

import (
	"time"

	"github.com/kadirpekel/depthbench/pkg/config"
)

// ModelFlags are the model selection flags shared by test and verify.
// Anything left unset falls back to the config file, then environment
// variables and defaults through config.SetDefaults.
type ModelFlags struct {
	Provider    string   `help:"Model provider (openai, gemini). Auto-detected from API keys when empty."`
	Model       string   `help:"Model name (defaults to MODEL_NAME)."`
	APIKey      string   `name:"api-key" help:"API key (defaults to the provider environment variable)."`
	BaseURL     string   `name:"base-url" help:"Custom API base URL."`
	Temperature *float64 `help:"Sampling temperature (0.0-2.0)."`
	MaxTokens   int      `name:"max-tokens" help:"Max tokens for the model reply."`
	Timeout     int      `help:"Per-call timeout in seconds."`
	RetryTimes  int      `name:"retry-times" help:"Retry budget per model call."`
}

// resolveConfig loads the optional config file and applies the model
// flag overrides. The result still needs finalizeConfig once command
// level overrides are in.
func (f *ModelFlags) resolveConfig(path string) (*config.Config, error) {
	cfg := &config.Config{}
	if path != "" {
		parsed, err := config.ParseFile(path)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	if f.Provider != "" {
		cfg.Model.Provider = config.ModelProvider(f.Provider)
	}
	if f.Model != "" {
		cfg.Model.Name = f.Model
	}
	if f.APIKey != "" {
		cfg.Model.APIKey = f.APIKey
	}
	if f.BaseURL != "" {
		cfg.Model.BaseURL = f.BaseURL
	}
	if f.Temperature != nil {
		cfg.Model.Temperature = f.Temperature
	}
	if f.MaxTokens > 0 {
		cfg.Model.MaxTokens = f.MaxTokens
	}
	if f.Timeout > 0 {
		cfg.Model.Timeout = time.Duration(f.Timeout) * time.Second
	}
	if f.RetryTimes > 0 {
		cfg.Model.MaxRetries = f.RetryTimes
	}
	return cfg, nil
}

// finalizeConfig applies defaults and validates.
func finalizeConfig(cfg *config.Config) error {
	cfg.SetDefaults()
	return cfg.Validate()
}

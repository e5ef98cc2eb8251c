package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ModelProvider identifies the model API wire format.
type ModelProvider string

const (
	ModelProviderOpenAI ModelProvider = "openai"
	ModelProviderGemini ModelProvider = "gemini"
)

const (
	DefaultBaseURL     = "https://openrouter.ai/api/v1"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultTimeout     = 60 * time.Second
	DefaultConcurrency = 5
	DefaultRetryTimes  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultPadding     = 500
	DefaultEncoding    = "cl100k_base"
)

// Config is the root configuration for a benchmark run.
type Config struct {
	Model ModelConfig `yaml:"model,omitempty" json:"model,omitempty"`
	Run   RunConfig   `yaml:"run,omitempty" json:"run,omitempty"`
}

// ModelConfig configures the judged model and its API client.
type ModelConfig struct {
	// Provider selects the wire format (openai, gemini).
	Provider ModelProvider `yaml:"provider,omitempty" json:"provider,omitempty"`

	// Name is the model identifier (e.g., "gpt-4o", "gemini-2.0-flash").
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// APIKey for authentication. Supports ${VAR} expansion.
	APIKey string `yaml:"api_key,omitempty" json:"api_key,omitempty"`

	// BaseURL overrides the default API endpoint.
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`

	// Temperature for generation (0.0 - 2.0).
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`

	// MaxTokens limits response length.
	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`

	// Timeout bounds a single model call.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// MaxRetries is the retry budget per model call.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// RetryDelay is the base delay for exponential backoff.
	RetryDelay time.Duration `yaml:"retry_delay,omitempty" json:"retry_delay,omitempty"`
}

// RunConfig configures benchmark execution.
type RunConfig struct {
	// Concurrency bounds in-flight model calls.
	Concurrency int `yaml:"concurrency,omitempty" json:"concurrency,omitempty"`

	// Padding is the token margin added around evidence spans.
	Padding int `yaml:"padding,omitempty" json:"padding,omitempty"`

	// Encoding names the tokenizer used for all token arithmetic.
	Encoding string `yaml:"encoding,omitempty" json:"encoding,omitempty"`

	// PromptsDir holds per-question-type prompt template overrides.
	PromptsDir string `yaml:"prompts_dir,omitempty" json:"prompts_dir,omitempty"`
}

// SetDefaults applies default values, consulting the environment for
// anything not set explicitly.
func (c *Config) SetDefaults() {
	c.Model.SetDefaults()
	c.Run.SetDefaults()
}

// SetDefaults applies model defaults from the environment.
func (c *ModelConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = detectProviderFromEnv()
	}

	if c.Name == "" {
		c.Name = os.Getenv("MODEL_NAME")
	}

	if c.APIKey == "" {
		c.APIKey = GetProviderAPIKey(string(c.Provider))
	}

	if c.BaseURL == "" {
		c.BaseURL = envOr("OPENAI_BASE_URL", DefaultBaseURL)
	}

	if c.Temperature == nil {
		temp := envFloatOr("DEFAULT_TEMPERATURE", DefaultTemperature)
		c.Temperature = &temp
	}

	if c.MaxTokens == 0 {
		c.MaxTokens = envIntOr("DEFAULT_MAX_TOKENS", DefaultMaxTokens)
	}

	if c.Timeout == 0 {
		c.Timeout = time.Duration(envIntOr("DEFAULT_TIMEOUT", int(DefaultTimeout/time.Second))) * time.Second
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = envIntOr("DEFAULT_RETRY_TIMES", DefaultRetryTimes)
	}

	if c.RetryDelay == 0 {
		c.RetryDelay = time.Duration(envIntOr("DEFAULT_RETRY_DELAY", int(DefaultRetryDelay/time.Second))) * time.Second
	}
}

// SetDefaults applies run defaults from the environment.
func (c *RunConfig) SetDefaults() {
	if c.Concurrency == 0 {
		c.Concurrency = envIntOr("DEFAULT_CONCURRENCY", DefaultConcurrency)
	}

	if c.Padding == 0 {
		c.Padding = DefaultPadding
	}

	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}
	return c.Run.Validate()
}

// Validate checks the model configuration.
func (c *ModelConfig) Validate() error {
	switch c.Provider {
	case ModelProviderOpenAI, ModelProviderGemini:
	default:
		return fmt.Errorf("invalid model provider: %s", c.Provider)
	}

	if c.Name == "" {
		return fmt.Errorf("missing required configuration: model name (set MODEL_NAME or --model)")
	}

	if c.APIKey == "" {
		return fmt.Errorf("missing required configuration: api key")
	}

	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", *c.Temperature)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", c.MaxRetries)
	}

	return nil
}

// Validate checks the run configuration.
func (c *RunConfig) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	if c.Padding < 0 {
		return fmt.Errorf("padding cannot be negative, got %d", c.Padding)
	}

	return nil
}

// detectProviderFromEnv picks a provider based on which API keys are present.
func detectProviderFromEnv() ModelProvider {
	if os.Getenv("OPENAI_API_KEY") == "" && os.Getenv("GEMINI_API_KEY") != "" {
		return ModelProviderGemini
	}
	return ModelProviderOpenAI
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Package llm implements the chat-completion clients for the judged
// model. Providers speak either the OpenAI chat completions API or the
// Gemini generateContent API; both retry transient failures internally
// through pkg/httpclient, so a call yields exactly one outcome.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kadirpekel/depthbench/pkg/config"
	"github.com/kadirpekel/depthbench/pkg/httpclient"
)

// Provider is a synchronous chat model client.
type Provider interface {
	// Invoke sends one system+user exchange and returns the reply text.
	Invoke(ctx context.Context, system, user string) (string, error)

	// ModelName reports the configured model identifier.
	ModelName() string
}

// New builds the provider selected by the configuration.
func New(cfg config.ModelConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ModelProviderOpenAI:
		return NewOpenAIProvider(cfg), nil
	case config.ModelProviderGemini:
		return NewGeminiProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
}

// newHTTPClient builds the retrying transport shared by providers.
// The outer per-call deadline lives on the context, so the inner
// http.Client timeout stays generous enough to never preempt it.
func newHTTPClient(cfg config.ModelConfig, parser httpclient.RateLimitHeaderParser) *httpclient.Client {
	return httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout + 10*time.Second}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
		httpclient.WithBaseDelay(cfg.RetryDelay),
		httpclient.WithHeaderParser(parser),
	)
}

// callContext applies the per-call timeout when one is configured.
func callContext(ctx context.Context, cfg config.ModelConfig) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Verify performs one minimal round-trip against the provider and
// returns the reply plus the observed latency. Used by connectivity
// checks before long runs.
func Verify(ctx context.Context, p Provider) (string, time.Duration, error) {
	start := time.Now()
	reply, err := p.Invoke(ctx, "You are a connectivity probe.", "Reply with the single word: ok")
	return reply, time.Since(start), err
}

package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

// parseRetryAfter reads a Retry-After value given in whole seconds.
// HTTP-date values are ignored; neither provider sends them.
func parseRetryAfter(headers http.Header) time.Duration {
	raw := headers.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// ParseOpenAIHeaders reads the x-ratelimit-* family OpenAI-compatible
// endpoints return alongside Retry-After. Token reset wins over request
// reset when both are present.
func ParseOpenAIHeaders(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{RetryAfter: parseRetryAfter(headers)}

	for _, header := range []string{"x-ratelimit-reset-tokens", "x-ratelimit-reset-requests"} {
		if raw := headers.Get(header); raw != "" {
			if reset, err := strconv.ParseInt(raw, 10, 64); err == nil {
				info.ResetTime = reset
				break
			}
		}
	}

	if raw := headers.Get("x-ratelimit-remaining-requests"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			info.RequestsRemaining = n
		}
	}
	if raw := headers.Get("x-ratelimit-remaining-tokens"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			info.TokensRemaining = n
		}
	}

	return info
}

// ParseGeminiHeaders reads throttling info from the Gemini API, which
// only signals Retry-After.
func ParseGeminiHeaders(headers http.Header) RateLimitInfo {
	return RateLimitInfo{RetryAfter: parseRetryAfter(headers)}
}

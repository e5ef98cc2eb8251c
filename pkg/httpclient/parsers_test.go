package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestParseOpenAIHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected RateLimitInfo
	}{
		{
			name:     "empty_headers",
			headers:  map[string]string{},
			expected: RateLimitInfo{},
		},
		{
			name: "retry_after_seconds",
			headers: map[string]string{
				"Retry-After": "30",
			},
			expected: RateLimitInfo{
				RetryAfter: 30 * time.Second,
			},
		},
		{
			name: "retry_after_invalid",
			headers: map[string]string{
				"Retry-After": "not-a-number",
			},
			expected: RateLimitInfo{},
		},
		{
			name: "reset_tokens",
			headers: map[string]string{
				"x-ratelimit-reset-tokens": "1700000000",
			},
			expected: RateLimitInfo{
				ResetTime: 1700000000,
			},
		},
		{
			name: "reset_tokens_preferred_over_requests",
			headers: map[string]string{
				"x-ratelimit-reset-tokens":   "1700000000",
				"x-ratelimit-reset-requests": "1800000000",
			},
			expected: RateLimitInfo{
				ResetTime: 1700000000,
			},
		},
		{
			name: "remaining_counters",
			headers: map[string]string{
				"x-ratelimit-remaining-requests": "42",
				"x-ratelimit-remaining-tokens":   "9000",
			},
			expected: RateLimitInfo{
				RequestsRemaining: 42,
				TokensRemaining:   9000,
			},
		},
		{
			name: "full_rate_limit_response",
			headers: map[string]string{
				"Retry-After":                    "10",
				"x-ratelimit-reset-requests":     "1700000100",
				"x-ratelimit-remaining-requests": "0",
				"x-ratelimit-remaining-tokens":   "150",
			},
			expected: RateLimitInfo{
				RetryAfter:        10 * time.Second,
				ResetTime:         1700000100,
				RequestsRemaining: 0,
				TokensRemaining:   150,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for key, value := range tt.headers {
				headers.Set(key, value)
			}

			result := ParseOpenAIHeaders(headers)

			if result.RetryAfter != tt.expected.RetryAfter {
				t.Errorf("RetryAfter = %v, want %v", result.RetryAfter, tt.expected.RetryAfter)
			}
			if result.ResetTime != tt.expected.ResetTime {
				t.Errorf("ResetTime = %d, want %d", result.ResetTime, tt.expected.ResetTime)
			}
			if result.RequestsRemaining != tt.expected.RequestsRemaining {
				t.Errorf("RequestsRemaining = %d, want %d", result.RequestsRemaining, tt.expected.RequestsRemaining)
			}
			if result.TokensRemaining != tt.expected.TokensRemaining {
				t.Errorf("TokensRemaining = %d, want %d", result.TokensRemaining, tt.expected.TokensRemaining)
			}
		})
	}
}

func TestParseGeminiHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected RateLimitInfo
	}{
		{
			name:     "empty_headers",
			headers:  map[string]string{},
			expected: RateLimitInfo{},
		},
		{
			name: "retry_after_seconds",
			headers: map[string]string{
				"Retry-After": "15",
			},
			expected: RateLimitInfo{
				RetryAfter: 15 * time.Second,
			},
		},
		{
			name: "retry_after_invalid",
			headers: map[string]string{
				"Retry-After": "soon",
			},
			expected: RateLimitInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			for key, value := range tt.headers {
				headers.Set(key, value)
			}

			result := ParseGeminiHeaders(headers)
			if result.RetryAfter != tt.expected.RetryAfter {
				t.Errorf("RetryAfter = %v, want %v", result.RetryAfter, tt.expected.RetryAfter)
			}
		})
	}
}

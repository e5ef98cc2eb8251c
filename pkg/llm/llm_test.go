package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kadirpekel/depthbench/pkg/config"
)

func testModelConfig(provider config.ModelProvider, baseURL string) config.ModelConfig {
	temp := 0.2
	return config.ModelConfig{
		Provider:    provider,
		Name:        "test-model",
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Temperature: &temp,
		MaxTokens:   256,
		Timeout:     5 * time.Second,
		MaxRetries:  1,
		RetryDelay:  10 * time.Millisecond,
	}
}

func TestNewProviderSelection(t *testing.T) {
	if _, err := New(testModelConfig(config.ModelProviderOpenAI, "http://x")); err != nil {
		t.Errorf("openai: %v", err)
	}
	if _, err := New(testModelConfig(config.ModelProviderGemini, "http://x")); err != nil {
		t.Errorf("gemini: %v", err)
	}
	if _, err := New(testModelConfig("mystery", "http://x")); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestOpenAIInvoke(t *testing.T) {
	var captured openAIRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{
				Message:      openAIMessage{Role: "assistant", Content: `  {"answer": ["a"]}  `},
				FinishReason: "stop",
			}},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(testModelConfig(config.ModelProviderOpenAI, server.URL))
	reply, err := p.Invoke(context.Background(), "be accurate", "pick one")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if reply != `{"answer": ["a"]}` {
		t.Errorf("reply = %q, expected trimmed content", reply)
	}

	if captured.Model != "test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", captured.Messages)
	}
	if captured.MaxTokens != 256 {
		t.Errorf("max_tokens = %d", captured.MaxTokens)
	}
}

func TestOpenAIInvokeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(testModelConfig(config.ModelProviderOpenAI, server.URL))
	_, err := p.Invoke(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Errorf("error should carry API detail, got %v", err)
	}
}

func TestOpenAIInvokeRetriesServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Content: "ok"}}},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(testModelConfig(config.ModelProviderOpenAI, server.URL))
	reply, err := p.Invoke(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if reply != "ok" || attempts != 2 {
		t.Errorf("reply %q after %d attempts, expected retry then success", reply, attempts)
	}
}

func TestOpenAIInvokeTimeoutPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	cfg := testModelConfig(config.ModelProviderOpenAI, server.URL)
	cfg.Timeout = 50 * time.Millisecond
	p := NewOpenAIProvider(cfg)

	_, err := p.Invoke(context.Background(), "s", "u")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded in chain, got %v", err)
	}
}

func TestGeminiInvoke(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/test-model:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key query param = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}

		_ = json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{
					Role:  "model",
					Parts: []geminiPart{{Text: `{"answer": `}, {Text: `["b"]}`}},
				},
				FinishReason: "STOP",
			}},
		})
	}))
	defer server.Close()

	p := NewGeminiProvider(testModelConfig(config.ModelProviderGemini, server.URL))
	reply, err := p.Invoke(context.Background(), "be accurate", "pick one")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if reply != `{"answer": ["b"]}` {
		t.Errorf("reply = %q, expected concatenated parts", reply)
	}

	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "be accurate" {
		t.Errorf("system instruction not carried: %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 1 || captured.Contents[0].Role != "user" {
		t.Errorf("contents = %+v", captured.Contents)
	}
	if captured.GenerationConfig == nil || captured.GenerationConfig.MaxOutputTokens != 256 {
		t.Errorf("generation config = %+v", captured.GenerationConfig)
	}
}

func TestGeminiInvokeAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 400, "message": "invalid model", "status": "INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	p := NewGeminiProvider(testModelConfig(config.ModelProviderGemini, server.URL))
	_, err := p.Invoke(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid model") {
		t.Errorf("error should carry API detail, got %v", err)
	}
}

func TestVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{Content: "ok"}}},
		})
	}))
	defer server.Close()

	p := NewOpenAIProvider(testModelConfig(config.ModelProviderOpenAI, server.URL))
	reply, latency, err := Verify(context.Background(), p)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if reply != "ok" {
		t.Errorf("reply = %q", reply)
	}
	if latency <= 0 {
		t.Errorf("latency = %v", latency)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "hello")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"braced", "${TEST_VAR}", "hello"},
		{"simple", "$TEST_VAR", "hello"},
		{"with default, var set", "${TEST_VAR:-fallback}", "hello"},
		{"with default, var empty", "${EMPTY_VAR:-fallback}", "fallback"},
		{"with default, var unset", "${NOT_SET_VAR:-fallback}", "fallback"},
		{"embedded", "prefix-${TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"no vars", "plain string", "plain string"},
		{"unset braced", "${NOT_SET_VAR}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := expandEnvVars(tt.input); got != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected interface{}
	}{
		{"true", true},
		{"False", false},
		{"42", 42},
		{"3.14", 3.14},
		{"hello", "hello"},
	}

	for _, tt := range tests {
		if got := parseValue(tt.input); got != tt.expected {
			t.Errorf("parseValue(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.expected, tt.expected)
		}
	}
}

func TestExpandEnvVarsInData(t *testing.T) {
	t.Setenv("NESTED_VAL", "99")

	data := map[string]interface{}{
		"plain": "value",
		"expanded": map[string]interface{}{
			"number": "${NESTED_VAL}",
		},
		"list": []interface{}{"$NESTED_VAL", "static"},
	}

	result, ok := ExpandEnvVarsInData(data).(map[string]interface{})
	if !ok {
		t.Fatal("expected map result")
	}

	if result["plain"] != "value" {
		t.Errorf("plain value changed: %v", result["plain"])
	}

	nested := result["expanded"].(map[string]interface{})
	if nested["number"] != 99 {
		t.Errorf("expected expanded int 99, got %v (%T)", nested["number"], nested["number"])
	}

	list := result["list"].([]interface{})
	if list[0] != 99 || list[1] != "static" {
		t.Errorf("unexpected list: %v", list)
	}
}

func TestLoadEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	envFile := filepath.Join(tmpDir, "test.env")

	content := "BENCH_TEST_KEY=from-file\n"
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("BENCH_TEST_KEY", "")
	os.Unsetenv("BENCH_TEST_KEY")

	if err := LoadEnvFile(envFile); err != nil {
		t.Fatalf("failed to load env file: %v", err)
	}

	if got := os.Getenv("BENCH_TEST_KEY"); got != "from-file" {
		t.Errorf("expected BENCH_TEST_KEY=from-file, got %q", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestGetProviderAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "openai-secret")
	t.Setenv("GEMINI_API_KEY", "gemini-secret")

	if got := GetProviderAPIKey("openai"); got != "openai-secret" {
		t.Errorf("openai key = %q", got)
	}
	if got := GetProviderAPIKey("gemini"); got != "gemini-secret" {
		t.Errorf("gemini key = %q", got)
	}
	if got := GetProviderAPIKey("unknown"); got != "" {
		t.Errorf("unknown provider key = %q, want empty", got)
	}
}

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ${VAR:-default} must be tried before ${VAR}, which must be tried
// before bare $VAR, or the shorter patterns eat the longer forms.
var (
	envWithDefaultRe = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*):-(.*?)\}`)
	envBracedRe      = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	envBareRe        = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvVars substitutes shell-style env references in a config
// string. Unset variables expand to their :-default if given, the
// empty string otherwise.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	s = envWithDefaultRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envWithDefaultRe.FindStringSubmatch(match)
		if val := os.Getenv(parts[1]); val != "" {
			return val
		}
		return parts[2]
	})
	s = envBracedRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envBracedRe.FindStringSubmatch(match)[1])
	})
	s = envBareRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envBareRe.FindStringSubmatch(match)[1])
	})

	return s
}

// parseValue re-types an expanded string so YAML fields keep their
// natural types after substitution.
func parseValue(value string) interface{} {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// ExpandEnvVarsInData walks decoded YAML and expands env references in
// every string leaf. Strings that change get re-typed via parseValue;
// untouched strings stay strings.
func ExpandEnvVarsInData(data interface{}) interface{} {
	switch v := data.(type) {
	case string:
		if expanded := expandEnvVars(v); expanded != v {
			return parseValue(expanded)
		}
		return v

	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			result[key] = ExpandEnvVarsInData(value)
		}
		return result

	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = ExpandEnvVarsInData(item)
		}
		return result

	default:
		return v
	}
}

// LoadEnvFiles loads .env.local and .env from the working directory.
// Missing files are not an error.
func LoadEnvFiles() error {
	envFiles := []string{".env.local", ".env"}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	return nil
}

// LoadEnvFile loads a specific env file. Unlike LoadEnvFiles, a missing
// file is an error since the path was requested explicitly.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func GetProviderAPIKey(providerType string) string {
	switch providerType {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

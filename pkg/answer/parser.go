// Package answer parses model replies into answer keys and scores them
// against the expected answers.
//
// Parsing is strategy-layered: direct JSON first, then a balanced-brace
// scan for JSON embedded in prose, then a single-letter heuristic.
// Scoring is exact set match for single choice and F1 for multi-answer
// kinds.
package answer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Status classifies how a result was obtained. The parser itself only
// produces the first three; the rest are terminal statuses stamped by
// the pipeline when no parseable reply exists.
type Status string

const (
	StatusSuccess           Status = "success"
	StatusRegexExtracted    Status = "regex_extracted"
	StatusParsingError      Status = "parsing_error"
	StatusTimeout           Status = "timeout"
	StatusError             Status = "error"
	StatusRefused           Status = "refused"
	StatusContextBuildError Status = "context_build_error"
)

// Terminal reports whether the status means no answer was obtained;
// terminal results always score zero.
func (s Status) Terminal() bool {
	switch s {
	case StatusParsingError, StatusTimeout, StatusError, StatusRefused, StatusContextBuildError:
		return true
	}
	return false
}

// Succeeded reports whether the status carries a usable model answer.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusRegexExtracted
}

// Parse extracts answer keys from a raw model reply.
//
// Strategies, in order; the first that yields a list wins:
//  1. Parse the whole reply as JSON and take its "answer" field.
//  2. Find the first balanced {...} substring, parse it as JSON, take
//     its "answer" field.
//  3. If exactly one choice letter is clearly asserted in the text
//     (quoted, parenthesized, or "answer is x"), take it.
//
// Returned keys are raw; callers normalize against the question's
// choices before scoring.
func Parse(response string) ([]string, Status) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return []string{}, StatusParsingError
	}

	// Strategy 1: direct JSON parse
	if keys, ok := answerFromJSON([]byte(trimmed)); ok {
		return keys, StatusSuccess
	}

	// Strategy 2: first balanced JSON object inside the reply
	if obj, ok := firstBalancedObject(trimmed); ok {
		if keys, ok := answerFromJSON([]byte(obj)); ok {
			return keys, StatusRegexExtracted
		}
	}

	// Strategy 3: a single asserted letter
	if letter, ok := assertedLetter(trimmed); ok {
		return []string{letter}, StatusRegexExtracted
	}

	return []string{}, StatusParsingError
}

// answerFromJSON parses data as a JSON object and coerces its "answer"
// field to a string list. A missing field yields an empty list, which
// still counts as a parse.
func answerFromJSON(data []byte) ([]string, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false
	}
	raw, ok := payload["answer"]
	if !ok {
		return []string{}, true
	}
	return coerceAnswer(raw), true
}

// coerceAnswer accepts a list, a scalar, or null for the answer field.
func coerceAnswer(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return []string{}
		}
		return []string{single}
	}

	var generic []interface{}
	if err := json.Unmarshal(raw, &generic); err == nil {
		out := make([]string, 0, len(generic))
		for _, v := range generic {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}

	var scalar interface{}
	if err := json.Unmarshal(raw, &scalar); err == nil && scalar != nil {
		return []string{fmt.Sprint(scalar)}
	}

	return []string{}
}

// firstBalancedObject scans for the leftmost '{' from which braces
// balance, honoring JSON string quoting, and returns that substring.
func firstBalancedObject(s string) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

var letterAssertions = []*regexp.Regexp{
	regexp.MustCompile(`"([a-z])"`),
	regexp.MustCompile(`\(([a-z])\)`),
	regexp.MustCompile(`(?i)\banswer(?:\s+is)?\s*[:\-]?\s*\(?([a-zA-Z])\)?(?:[\s.,;!]|$)`),
	regexp.MustCompile(`(?i)\boption\s+\(?([a-zA-Z])\)?(?:[\s.,;!]|$)`),
}

// assertedLetter returns a choice letter when the reply asserts exactly
// one distinct letter across all assertion patterns.
func assertedLetter(s string) (string, bool) {
	found := make(map[string]bool)
	for _, pattern := range letterAssertions {
		for _, match := range pattern.FindAllStringSubmatch(s, -1) {
			found[strings.ToLower(match[1])] = true
		}
	}
	if len(found) != 1 {
		return "", false
	}
	for letter := range found {
		return letter, true
	}
	return "", false
}

var refusalPhrases = []string{
	"i cannot answer",
	"i can't answer",
	"cannot assist",
	"can't assist",
	"i refuse",
	"unable to answer",
	"i'm sorry, but",
	"i am sorry, but",
	"as an ai",
}

// IsRefusal reports whether an unparseable reply looks like an explicit
// refusal rather than a malformed answer.
func IsRefusal(response string) bool {
	lower := strings.ToLower(response)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Normalize lowercases, trims, de-duplicates, and lexically sorts
// answer keys. When choices is non-nil, keys not present in it are
// dropped.
func Normalize(keys []string, choices map[string]string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || seen[key] {
			continue
		}
		if choices != nil {
			if _, ok := choices[key]; !ok {
				continue
			}
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

package question

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/kadirpekel/depthbench/pkg/jsonl"
)

// Set is a loaded question set.
type Set struct {
	// Metadata is the raw metadata object from the optional first
	// line, nil when the file has none.
	Metadata map[string]interface{}

	// NovelSummary is the source summary carried by the metadata line,
	// used by no-reference runs.
	NovelSummary string

	// Questions holds the schema-valid questions in file order.
	Questions []Question

	// Skipped counts lines dropped for schema violations.
	Skipped int
}

// LoadFile reads a question set from a JSONL file.
//
// The first line is treated as metadata only when it carries a
// "metadata" object or a "novel_summary" and no "position" field; a
// line with a position is always a question. Schema-invalid question
// lines are skipped with a warning and counted, not fatal.
func LoadFile(path string) (*Set, error) {
	set := &Set{}

	err := jsonl.ForEach(path, func(lineNum int, line []byte) error {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(line, &fields); err != nil {
			return fmt.Errorf("line %d: invalid JSON: %w", lineNum, err)
		}

		_, hasPosition := fields["position"]
		if lineNum == 1 && !hasPosition {
			_, hasMetadata := fields["metadata"]
			_, hasSummary := fields["novel_summary"]
			if hasMetadata || hasSummary {
				return set.parseMetadata(line)
			}
		}

		var q Question
		if err := json.Unmarshal(line, &q); err != nil {
			slog.Warn("Skipping malformed question line", "line", lineNum, "error", err)
			set.Skipped++
			return nil
		}
		if err := q.Validate(); err != nil {
			slog.Warn("Skipping invalid question", "line", lineNum, "error", err)
			set.Skipped++
			return nil
		}

		set.Questions = append(set.Questions, q)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load question set: %w", err)
	}

	if set.Skipped > 0 {
		slog.Warn("Question set loaded with skipped lines", "skipped", set.Skipped, "loaded", len(set.Questions))
	}

	return set, nil
}

func (s *Set) parseMetadata(line []byte) error {
	var header struct {
		Metadata     map[string]interface{} `json:"metadata"`
		NovelSummary string                 `json:"novel_summary"`
	}
	if err := json.Unmarshal(line, &header); err != nil {
		return fmt.Errorf("invalid metadata line: %w", err)
	}

	s.Metadata = header.Metadata
	if s.Metadata == nil {
		s.Metadata = map[string]interface{}{}
	}

	// The summary may sit beside the metadata object or inside it.
	s.NovelSummary = header.NovelSummary
	if s.NovelSummary == "" {
		if summary, ok := s.Metadata["novel_summary"].(string); ok {
			s.NovelSummary = summary
		}
	}
	return nil
}

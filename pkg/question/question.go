// Package question defines benchmark question records and loads
// question sets from JSONL files.
//
// A question set is one optional metadata line followed by one JSON
// object per question. Questions anchor their evidence by token
// positions in the source document, so sets are only meaningful
// together with the encoding they were generated under.
package question

import (
	"fmt"
	"sort"
)

// Kind identifies the question type.
type Kind string

const (
	SingleChoice     Kind = "single_choice"
	MultipleChoice   Kind = "multiple_choice"
	NegativeQuestion Kind = "negative_question"
)

// Position is the half-open token range in the source document where
// the evidence for a question lives.
type Position struct {
	StartPos int `json:"start_pos"`
	EndPos   int `json:"end_pos"`
}

// Len returns the evidence span length in tokens.
func (p Position) Len() int {
	return p.EndPos - p.StartPos
}

// Validation records the verdict of the upstream validation pipeline.
type Validation struct {
	IsValid        bool     `json:"is_valid"`
	FailureReasons []string `json:"failure_reasons,omitempty"`
}

// Question is a single benchmark item. Immutable once loaded.
type Question struct {
	Text       string            `json:"question"`
	Kind       Kind              `json:"question_type"`
	Choices    map[string]string `json:"choice"`
	Answer     []string          `json:"answer"`
	Position   *Position         `json:"position,omitempty"`
	Validation *Validation       `json:"validation,omitempty"`
}

// Validate checks the schema invariants for a single question.
func (q *Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("question text is empty")
	}

	switch q.Kind {
	case SingleChoice, MultipleChoice, NegativeQuestion:
	default:
		return fmt.Errorf("unknown question type: %q", q.Kind)
	}

	if len(q.Choices) < 2 {
		return fmt.Errorf("need at least 2 choices, got %d", len(q.Choices))
	}
	for key := range q.Choices {
		if len(key) != 1 || key[0] < 'a' || key[0] > 'z' {
			return fmt.Errorf("invalid choice key %q", key)
		}
	}

	if len(q.Answer) == 0 {
		return fmt.Errorf("answer is empty")
	}
	for _, key := range q.Answer {
		if _, ok := q.Choices[key]; !ok {
			return fmt.Errorf("answer key %q not among choices", key)
		}
	}

	// Multiple choice needs at least two distractors
	if q.Kind == MultipleChoice && len(q.Choices)-len(q.Answer) < 2 {
		return fmt.Errorf("multiple choice needs at least 2 distractors, got %d", len(q.Choices)-len(q.Answer))
	}

	if q.Position == nil {
		return fmt.Errorf("missing position")
	}
	if q.Position.StartPos < 0 || q.Position.StartPos >= q.Position.EndPos {
		return fmt.Errorf("invalid position [%d, %d)", q.Position.StartPos, q.Position.EndPos)
	}

	return nil
}

// ChoiceKeys returns the choice keys in lexical order.
func (q *Question) ChoiceKeys() []string {
	keys := make([]string, 0, len(q.Choices))
	for key := range q.Choices {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Preview returns a shortened form of the question text for logs.
func (q *Question) Preview() string {
	const maxPreview = 50
	runes := []rune(q.Text)
	if len(runes) <= maxPreview {
		return q.Text
	}
	return string(runes[:maxPreview]) + "..."
}

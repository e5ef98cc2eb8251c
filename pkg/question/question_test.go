package question

import (
	"strings"
	"testing"
)

func validQuestion() Question {
	return Question{
		Text: "What color is the sky in the story?",
		Kind: SingleChoice,
		Choices: map[string]string{
			"a": "blue",
			"b": "green",
			"c": "red",
			"d": "yellow",
		},
		Answer:   []string{"a"},
		Position: &Position{StartPos: 100, EndPos: 200},
	}
}

func TestQuestionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Question)
		wantErr string
	}{
		{"valid", func(q *Question) {}, ""},
		{"empty text", func(q *Question) { q.Text = "" }, "text is empty"},
		{"unknown kind", func(q *Question) { q.Kind = "essay" }, "unknown question type"},
		{"too few choices", func(q *Question) {
			q.Choices = map[string]string{"a": "only"}
		}, "at least 2 choices"},
		{"bad choice key", func(q *Question) { q.Choices["A"] = "upper" }, "invalid choice key"},
		{"empty answer", func(q *Question) { q.Answer = nil }, "answer is empty"},
		{"answer not a choice", func(q *Question) { q.Answer = []string{"z"} }, "not among choices"},
		{"missing position", func(q *Question) { q.Position = nil }, "missing position"},
		{"inverted position", func(q *Question) {
			q.Position = &Position{StartPos: 200, EndPos: 100}
		}, "invalid position"},
		{"negative start", func(q *Question) {
			q.Position = &Position{StartPos: -1, EndPos: 100}
		}, "invalid position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestMultipleChoiceDistractors(t *testing.T) {
	q := validQuestion()
	q.Kind = MultipleChoice
	q.Answer = []string{"a", "b", "c"}

	err := q.Validate()
	if err == nil || !strings.Contains(err.Error(), "distractors") {
		t.Errorf("expected distractor error, got %v", err)
	}

	q.Answer = []string{"a", "b"}
	if err := q.Validate(); err != nil {
		t.Errorf("two answers over four choices should be valid: %v", err)
	}
}

func TestPositionLen(t *testing.T) {
	p := Position{StartPos: 40, EndPos: 100}
	if p.Len() != 60 {
		t.Errorf("expected span 60, got %d", p.Len())
	}
}

func TestChoiceKeysSorted(t *testing.T) {
	q := validQuestion()
	keys := q.ChoiceKeys()
	want := []string{"a", "b", "c", "d"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i], want[i])
		}
	}
}

func TestPreview(t *testing.T) {
	q := validQuestion()
	if q.Preview() != q.Text {
		t.Errorf("short text should be returned unchanged")
	}

	q.Text = strings.Repeat("x", 80)
	got := q.Preview()
	if len([]rune(got)) != 53 || !strings.HasSuffix(got, "...") {
		t.Errorf("unexpected preview %q", got)
	}
}

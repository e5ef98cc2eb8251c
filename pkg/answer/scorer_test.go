package answer

import (
	"math"
	"testing"

	"github.com/kadirpekel/depthbench/pkg/question"
)

func TestScoreSingleChoice(t *testing.T) {
	tests := []struct {
		name    string
		correct []string
		model   []string
		want    float64
	}{
		{"exact match", []string{"b"}, []string{"b"}, 1},
		{"wrong key", []string{"b"}, []string{"c"}, 0},
		{"extra key", []string{"b"}, []string{"a", "b"}, 0},
		{"empty model", []string{"b"}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, metrics := Score(question.SingleChoice, tt.correct, tt.model, StatusSuccess)
			if score != tt.want {
				t.Errorf("score = %v, expected %v", score, tt.want)
			}
			if metrics != nil {
				t.Errorf("single choice should not carry metrics, got %+v", metrics)
			}
		})
	}
}

func TestScoreMultipleChoicePartialOverlap(t *testing.T) {
	// correct {a,b}, model {a,c}: one hit out of two on each side.
	score, metrics := Score(question.MultipleChoice, []string{"a", "b"}, []string{"a", "c"}, StatusSuccess)
	if metrics == nil {
		t.Fatal("expected metrics")
	}
	if metrics.Precision != 0.5 || metrics.Recall != 0.5 {
		t.Errorf("precision/recall = %v/%v, expected 0.5/0.5", metrics.Precision, metrics.Recall)
	}
	if math.Abs(metrics.F1-0.5) > 1e-9 || math.Abs(score-0.5) > 1e-9 {
		t.Errorf("f1 = %v, score = %v, expected 0.5", metrics.F1, score)
	}
}

func TestScoreMultipleChoice(t *testing.T) {
	tests := []struct {
		name      string
		kind      question.Kind
		correct   []string
		model     []string
		score     float64
		precision float64
		recall    float64
	}{
		{"full match", question.MultipleChoice, []string{"a", "b"}, []string{"a", "b"}, 1, 1, 1},
		{"no overlap", question.MultipleChoice, []string{"a", "b"}, []string{"c", "d"}, 0, 0, 0},
		{"empty model", question.MultipleChoice, []string{"a", "b"}, []string{}, 0, 0, 0},
		{"superset", question.MultipleChoice, []string{"a"}, []string{"a", "b"}, 2.0 / 3.0, 0.5, 1},
		{"negative question", question.NegativeQuestion, []string{"c"}, []string{"c"}, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, metrics := Score(tt.kind, tt.correct, tt.model, StatusSuccess)
			if metrics == nil {
				t.Fatal("expected metrics")
			}
			if math.Abs(score-tt.score) > 1e-9 {
				t.Errorf("score = %v, expected %v", score, tt.score)
			}
			if metrics.Precision != tt.precision || metrics.Recall != tt.recall {
				t.Errorf("precision/recall = %v/%v, expected %v/%v",
					metrics.Precision, metrics.Recall, tt.precision, tt.recall)
			}
		})
	}
}

func TestScoreTerminalStatuses(t *testing.T) {
	for _, status := range []Status{StatusParsingError, StatusTimeout, StatusError, StatusRefused, StatusContextBuildError} {
		score, metrics := Score(question.SingleChoice, []string{"a"}, []string{"a"}, status)
		if score != 0 || metrics != nil {
			t.Errorf("%s: score = %v, metrics = %+v, expected zero and nil", status, score, metrics)
		}

		score, metrics = Score(question.MultipleChoice, []string{"a"}, []string{"a"}, status)
		if score != 0 {
			t.Errorf("%s: multi score = %v, expected zero", status, score)
		}
		if metrics == nil || *metrics != (Metrics{}) {
			t.Errorf("%s: multi metrics = %+v, expected zeroed", status, metrics)
		}
	}
}

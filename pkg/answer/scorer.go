package answer

import (
	"github.com/kadirpekel/depthbench/pkg/question"
)

// Metrics holds precision/recall/F1 for multi-answer question kinds.
type Metrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Score computes the score for a question outcome. Inputs are expected
// to be normalized key lists (see Normalize). Terminal statuses score
// zero; multi-answer kinds additionally report zeroed metrics so every
// result row carries the same shape.
//
//   - single_choice: 1.0 iff the model answer set equals the correct
//     set, else 0.0; no metrics.
//   - multiple_choice / negative_question: F1 over the answer sets,
//     with precision |∩|/max(|model|,1) and recall |∩|/max(|correct|,1).
func Score(kind question.Kind, correct, model []string, status Status) (float64, *Metrics) {
	if status.Terminal() {
		if multiAnswer(kind) {
			return 0, &Metrics{}
		}
		return 0, nil
	}

	switch kind {
	case question.SingleChoice:
		if setEqual(correct, model) {
			return 1, nil
		}
		return 0, nil

	case question.MultipleChoice, question.NegativeQuestion:
		inter := float64(intersectCount(correct, model))
		precision := inter / float64(max(len(model), 1))
		recall := inter / float64(max(len(correct), 1))

		var f1 float64
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		return f1, &Metrics{Precision: precision, Recall: recall, F1: f1}
	}

	return 0, nil
}

func multiAnswer(kind question.Kind) bool {
	return kind == question.MultipleChoice || kind == question.NegativeQuestion
}

// setEqual compares two normalized (sorted, de-duplicated) key lists.
func setEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// intersectCount counts keys common to two de-duplicated lists.
func intersectCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, key := range a {
		set[key] = true
	}
	n := 0
	for _, key := range b {
		if set[key] {
			n++
		}
	}
	return n
}

package question

import (
	"fmt"
	"log/slog"
)

// CheckResult records the pre-check outcome for one question.
type CheckResult struct {
	Index          int
	Preview        string
	HasValidation  bool
	IsValid        bool
	FailureReasons []string
}

// CheckError reports questions that failed the pre-check gate.
type CheckError struct {
	Message string
	Results []CheckResult
}

func (e *CheckError) Error() string {
	return e.Message
}

// Indices returns the question indices behind the error.
func (e *CheckError) Indices() []int {
	indices := make([]int, len(e.Results))
	for i, r := range e.Results {
		indices[i] = r.Index
	}
	return indices
}

// Check gates questions on their validation metadata before any model
// call is spent on them.
//
// Policy: questions without a validation field fail the run unless
// skipValidation is set (which bypasses the gate entirely); questions
// with is_valid=false fail the run unless ignoreInvalid is set, in
// which case they are dropped and counted. An empty set after
// filtering is an error.
func Check(questions []Question, skipValidation, ignoreInvalid bool) ([]Question, []CheckResult, error) {
	if skipValidation {
		slog.Info("Skipping validation check", "questions", len(questions))
		if len(questions) == 0 {
			return nil, nil, &CheckError{Message: "question set is empty"}
		}
		return questions, nil, nil
	}

	var (
		results           []CheckResult
		missingValidation []CheckResult
		invalid           []CheckResult
		valid             []Question
	)

	for idx, q := range questions {
		if q.Validation == nil {
			result := CheckResult{
				Index:          idx,
				Preview:        q.Preview(),
				HasValidation:  false,
				FailureReasons: []string{"missing 'validation' field"},
			}
			results = append(results, result)
			missingValidation = append(missingValidation, result)
			continue
		}

		result := CheckResult{
			Index:         idx,
			Preview:       q.Preview(),
			HasValidation: true,
			IsValid:       q.Validation.IsValid,
		}
		if !q.Validation.IsValid {
			result.FailureReasons = q.Validation.FailureReasons
			invalid = append(invalid, result)
		} else {
			valid = append(valid, q)
		}
		results = append(results, result)
	}

	// Missing validation metadata always fails the gate
	if len(missingValidation) > 0 {
		for _, r := range missingValidation {
			slog.Error("Question missing validation metadata", "index", r.Index, "question", r.Preview)
		}
		return nil, results, &CheckError{
			Message: fmt.Sprintf("found %d questions without validation metadata; run validation first or pass --skip-validation", len(missingValidation)),
			Results: missingValidation,
		}
	}

	if len(invalid) > 0 {
		if !ignoreInvalid {
			for _, r := range invalid {
				slog.Error("Question failed validation", "index", r.Index, "question", r.Preview, "reasons", r.FailureReasons)
			}
			return nil, results, &CheckError{
				Message: fmt.Sprintf("found %d invalid questions; fix the set or pass --ignore-invalid", len(invalid)),
				Results: invalid,
			}
		}
		slog.Info("Filtered out invalid questions", "filtered", len(invalid), "remaining", len(valid))
	}

	if len(valid) == 0 {
		return nil, results, &CheckError{Message: "no valid questions remain after filtering"}
	}

	return valid, results, nil
}

package question

import (
	"errors"
	"testing"
)

func makeQuestions(n int) []Question {
	questions := make([]Question, n)
	for i := range questions {
		q := validQuestion()
		q.Validation = &Validation{IsValid: true}
		questions[i] = q
	}
	return questions
}

func TestCheckAllValid(t *testing.T) {
	questions := makeQuestions(5)

	valid, results, err := Check(questions, false, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 5 {
		t.Errorf("expected 5 valid, got %d", len(valid))
	}
	if len(results) != 5 {
		t.Errorf("expected 5 check results, got %d", len(results))
	}
}

func TestCheckMissingValidationFails(t *testing.T) {
	questions := makeQuestions(50)
	questions[3].Validation = nil
	questions[17].Validation = nil
	questions[42].Validation = nil

	_, _, err := Check(questions, false, false)
	var checkErr *CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected CheckError, got %v", err)
	}

	indices := checkErr.Indices()
	if len(indices) != 3 {
		t.Fatalf("expected 3 failing indices, got %v", indices)
	}
	want := []int{3, 17, 42}
	for i, idx := range want {
		if indices[i] != idx {
			t.Errorf("indices[%d] = %d, want %d", i, indices[i], idx)
		}
	}
}

func TestCheckMissingValidationFailsEvenWithIgnoreInvalid(t *testing.T) {
	questions := makeQuestions(5)
	questions[0].Validation = nil

	if _, _, err := Check(questions, false, true); err == nil {
		t.Fatal("missing validation must fail regardless of ignoreInvalid")
	}
}

func TestCheckSkipValidation(t *testing.T) {
	questions := makeQuestions(50)
	for i := 0; i < 3; i++ {
		questions[i].Validation = nil
	}

	valid, _, err := Check(questions, true, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 50 {
		t.Errorf("skip-validation must pass all 50 through, got %d", len(valid))
	}
}

func TestCheckInvalidQuestionsFail(t *testing.T) {
	questions := makeQuestions(50)
	for _, i := range []int{5, 6, 7} {
		questions[i].Validation = &Validation{
			IsValid:        false,
			FailureReasons: []string{"evidence mismatch"},
		}
	}

	_, _, err := Check(questions, false, false)
	var checkErr *CheckError
	if !errors.As(err, &checkErr) {
		t.Fatalf("expected CheckError, got %v", err)
	}
	if len(checkErr.Results) != 3 {
		t.Errorf("expected 3 invalid results, got %d", len(checkErr.Results))
	}
}

func TestCheckIgnoreInvalidFilters(t *testing.T) {
	questions := makeQuestions(50)
	for _, i := range []int{5, 6, 7} {
		questions[i].Validation = &Validation{IsValid: false}
	}

	valid, _, err := Check(questions, false, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(valid) != 47 {
		t.Errorf("expected 47 after filtering, got %d", len(valid))
	}
}

func TestCheckEmptyAfterFilter(t *testing.T) {
	questions := makeQuestions(2)
	questions[0].Validation = &Validation{IsValid: false}
	questions[1].Validation = &Validation{IsValid: false}

	if _, _, err := Check(questions, false, true); err == nil {
		t.Fatal("expected error when nothing remains after filtering")
	}
}

func TestCheckEmptySet(t *testing.T) {
	if _, _, err := Check(nil, false, false); err == nil {
		t.Fatal("expected error for empty question set")
	}
	if _, _, err := Check(nil, true, false); err == nil {
		t.Fatal("expected error for empty set even with skip-validation")
	}
}

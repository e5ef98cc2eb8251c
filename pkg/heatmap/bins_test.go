package heatmap

import (
	"math"
	"strings"
	"testing"

	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/question"
)

func questionAt(start, end int) question.Question {
	return question.Question{
		Text:     "where does the evidence sit",
		Kind:     question.SingleChoice,
		Position: &question.Position{StartPos: start, EndPos: end},
	}
}

func resultAt(start int, score float64) bench.Result {
	return bench.Result{
		Position: &question.Position{StartPos: start, EndPos: start + 50},
		Score:    score,
	}
}

func TestCoverageConservation(t *testing.T) {
	// A question spanning [0, 300) of a 1000-token source with 10 bins
	// covers three bins at a third each after normalization.
	bins, err := CoverageBins([]question.Question{questionAt(0, 300)}, 1000, 10)
	if err != nil {
		t.Fatalf("CoverageBins: %v", err)
	}
	if len(bins) != 10 {
		t.Fatalf("expected 10 bins, got %d", len(bins))
	}

	third := 1.0 / 3.0
	for i, b := range bins {
		want := 0.0
		if i < 3 {
			want = third
		}
		if math.Abs(b.Coverage-want) > 1e-9 {
			t.Errorf("bin %d: coverage %g, want %g", i, b.Coverage, want)
		}
	}

	var total float64
	for _, b := range bins {
		total += b.Coverage
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("coverage sum %g, want 1.0", total)
	}
}

func TestCoverageConservationUnalignedSpans(t *testing.T) {
	questions := []question.Question{
		questionAt(137, 462),
		questionAt(893, 901),
		questionAt(0, 1000),
		questionAt(999, 1000),
	}
	bins, err := CoverageBins(questions, 1000, 7)
	if err != nil {
		t.Fatalf("CoverageBins: %v", err)
	}

	var total float64
	for _, b := range bins {
		if b.Coverage < 0 || b.Coverage > 1 {
			t.Errorf("coverage %g outside [0,1]", b.Coverage)
		}
		total += b.Coverage
	}
	// Each question contributes exactly 1 before normalization by the
	// question count, so the bins sum to 1 regardless of alignment.
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("coverage sum %g, want 1.0", total)
	}
}

func TestCoverageSkipsPositionlessQuestions(t *testing.T) {
	questions := []question.Question{
		questionAt(0, 100),
		{Text: "summary question", Kind: question.SingleChoice},
	}
	bins, err := CoverageBins(questions, 1000, 10)
	if err != nil {
		t.Fatalf("CoverageBins: %v", err)
	}

	// The positionless question still counts in the denominator.
	if math.Abs(bins[0].Coverage-0.5) > 1e-9 {
		t.Errorf("bin 0 coverage %g, want 0.5", bins[0].Coverage)
	}
}

func TestAccuracyBinsEmptyIsNil(t *testing.T) {
	results := []bench.Result{
		resultAt(50, 1),
		resultAt(60, 0),
		resultAt(950, 1),
	}
	bins, err := AccuracyBins(results, 1000, 10)
	if err != nil {
		t.Fatalf("AccuracyBins: %v", err)
	}
	if len(bins) != 10 {
		t.Fatalf("expected 10 bins, got %d", len(bins))
	}

	if bins[0].Accuracy == nil || *bins[0].Accuracy != 0.5 {
		t.Errorf("bin 0: expected accuracy 0.5, got %v", bins[0].Accuracy)
	}
	if bins[0].Count != 2 {
		t.Errorf("bin 0: expected count 2, got %d", bins[0].Count)
	}
	if bins[9].Accuracy == nil || *bins[9].Accuracy != 1 {
		t.Errorf("bin 9: expected accuracy 1, got %v", bins[9].Accuracy)
	}
	for i := 1; i < 9; i++ {
		if bins[i].Accuracy != nil {
			t.Errorf("bin %d holds no results, accuracy must be nil", i)
		}
	}
}

func TestBinArgValidation(t *testing.T) {
	if _, err := CoverageBins(nil, 1000, 0); err == nil {
		t.Error("expected error for zero bins")
	}
	if _, err := AccuracyBins(nil, 0, 10); err == nil {
		t.Error("expected error for zero context length")
	}
}

func depthResult(length int, bin string, score float64) bench.Result {
	depth := 0.5
	return bench.Result{
		Score:             score,
		Depth:             &depth,
		DepthBin:          bin,
		TestContextLength: length,
	}
}

func TestDepthCells(t *testing.T) {
	results := []bench.Result{
		depthResult(2000, "0%", 1),
		depthResult(2000, "0%", 0),
		depthResult(2000, "100%", 1),
		depthResult(8000, "50%", 0),
		{Score: 1}, // no depth fields, skipped
	}

	cells := DepthCells(results, nil)
	if len(cells) != 2*len(bench.DepthLabels) {
		t.Fatalf("expected %d cells, got %d", 2*len(bench.DepthLabels), len(cells))
	}

	byKey := make(map[string]DepthCell)
	for _, c := range cells {
		byKey[c.DepthBin+"@"+formatK(c.ContextLength)] = c
	}

	head := byKey["0%@2K"]
	if head.Accuracy == nil || *head.Accuracy != 0.5 || head.Count != 2 {
		t.Errorf("cell (2000, 0%%): got %+v", head)
	}
	mid := byKey["50%@8K"]
	if mid.Accuracy == nil || *mid.Accuracy != 0 || mid.Count != 1 {
		t.Errorf("cell (8000, 50%%): got %+v", mid)
	}
	if empty := byKey["25%@2K"]; empty.Accuracy != nil {
		t.Errorf("empty cell must have nil accuracy, got %v", *empty.Accuracy)
	}
}

func TestLengthAveragesAndOverall(t *testing.T) {
	results := []bench.Result{
		depthResult(2000, "0%", 1),
		depthResult(2000, "50%", 0),
		depthResult(8000, "25%", 1),
	}
	cells := DepthCells(results, nil)

	averages := LengthAverages(cells)
	if avg := averages[2000]; avg == nil || *avg != 0.5 {
		t.Errorf("length 2000: expected 0.5, got %v", avg)
	}
	if avg := averages[8000]; avg == nil || *avg != 1 {
		t.Errorf("length 8000: expected 1, got %v", avg)
	}

	overall := OverallAccuracy(cells)
	if overall == nil || math.Abs(*overall-2.0/3.0) > 1e-9 {
		t.Errorf("overall: expected 2/3, got %v", overall)
	}

	if OverallAccuracy(nil) != nil {
		t.Error("overall of no cells must be nil")
	}
}

func TestRenderDepthTable(t *testing.T) {
	results := []bench.Result{
		depthResult(2000, "0%", 1),
		depthResult(8000, "100%", 0.5),
	}
	cells := DepthCells(results, nil)

	var sb strings.Builder
	if err := RenderDepth(&sb, cells); err != nil {
		t.Fatalf("RenderDepth: %v", err)
	}
	out := sb.String()

	for _, want := range []string{"DEPTH", "2K", "8K", "100.0%", "50.0%", "Overall accuracy"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	// Empty cells render as dashes, never as zeros.
	if !strings.Contains(out, "-") {
		t.Error("expected dash markers for empty cells")
	}
}

func TestRenderHTML(t *testing.T) {
	questions := []question.Question{questionAt(0, 300)}
	coverage, err := CoverageBins(questions, 1000, 10)
	if err != nil {
		t.Fatalf("CoverageBins: %v", err)
	}
	results := []bench.Result{
		depthResult(2000, "0%", 1),
		depthResult(2000, "50%", 0),
	}

	var sb strings.Builder
	err = RenderHTML(&sb, HTMLReport{
		ModelName:    "gpt-test",
		Dataset:      "novel.jsonl",
		CoverageBins: coverage,
		DepthCells:   DepthCells(results, nil),
	})
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	out := sb.String()

	for _, want := range []string{"<!DOCTYPE html>", "gpt-test", "Question Coverage", "Depth-Aware Accuracy", "#6c757d"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
	if strings.Contains(out, "plotly") || strings.Contains(out, "http") {
		t.Error("report must be self-contained")
	}
}

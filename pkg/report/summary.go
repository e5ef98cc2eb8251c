// Package report computes run-level summaries over a result file:
// category splits, per-kind accuracy, macro precision/recall/F1 for
// multi-answer kinds, and the depth × length accuracy table.
package report

import (
	"github.com/kadirpekel/depthbench/pkg/answer"
	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/heatmap"
	"github.com/kadirpekel/depthbench/pkg/question"
)

// Category is the coarse outcome bucket of a single result.
type Category string

const (
	CategoryCorrect          Category = "correct"
	CategoryPartiallyCorrect Category = "partially_correct"
	CategoryIncorrect        Category = "incorrect"
	CategoryParsingError     Category = "parsing_error"
)

// Categorize buckets a result. Any outcome without a usable model
// answer counts as a parsing error; among answered results the score
// decides: full marks are correct, a fractional score is partially
// correct, zero is incorrect.
func Categorize(r *bench.Result) Category {
	if !r.ParsingStatus.Succeeded() || len(r.ModelAnswer) == 0 {
		return CategoryParsingError
	}
	switch {
	case r.Score >= 1:
		return CategoryCorrect
	case r.Score > 0:
		return CategoryPartiallyCorrect
	default:
		return CategoryIncorrect
	}
}

// Summary aggregates a full result file.
type Summary struct {
	Total int

	Correct          int
	PartiallyCorrect int
	Incorrect        int
	ParsingErrors    int

	// AverageScore is the mean score over all results, terminal
	// failures included as zeros.
	AverageScore float64

	// KindCounts and KindAccuracy break results down per question
	// kind; accuracy is the mean score within the kind.
	KindCounts   map[question.Kind]int
	KindAccuracy map[question.Kind]float64

	// MultiChoice holds macro-averaged precision/recall/F1 over
	// results that carry per-question metrics.
	MultiChoice answer.Metrics

	// StatusCounts tallies raw parsing statuses.
	StatusCounts map[answer.Status]int

	// DepthCells is the 2-D accuracy table, empty when the run was not
	// depth-aware.
	DepthCells []heatmap.DepthCell
}

// Summarize reduces results to a Summary.
func Summarize(results []bench.Result) *Summary {
	s := &Summary{
		Total:        len(results),
		KindCounts:   make(map[question.Kind]int),
		KindAccuracy: make(map[question.Kind]float64),
		StatusCounts: make(map[answer.Status]int),
	}
	if len(results) == 0 {
		return s
	}

	kindScores := make(map[question.Kind]float64)
	var scoreSum float64
	var metricCount int

	for i := range results {
		r := &results[i]

		switch Categorize(r) {
		case CategoryCorrect:
			s.Correct++
		case CategoryPartiallyCorrect:
			s.PartiallyCorrect++
		case CategoryIncorrect:
			s.Incorrect++
		case CategoryParsingError:
			s.ParsingErrors++
		}

		s.StatusCounts[r.ParsingStatus]++
		s.KindCounts[r.Kind]++
		kindScores[r.Kind] += r.Score
		scoreSum += r.Score

		if r.Metrics != nil {
			s.MultiChoice.Precision += r.Metrics.Precision
			s.MultiChoice.Recall += r.Metrics.Recall
			s.MultiChoice.F1 += r.Metrics.F1
			metricCount++
		}
	}

	s.AverageScore = scoreSum / float64(len(results))
	for kind, sum := range kindScores {
		s.KindAccuracy[kind] = sum / float64(s.KindCounts[kind])
	}
	if metricCount > 0 {
		n := float64(metricCount)
		s.MultiChoice.Precision /= n
		s.MultiChoice.Recall /= n
		s.MultiChoice.F1 /= n
	}

	s.DepthCells = heatmap.DepthCells(results, nil)
	return s
}

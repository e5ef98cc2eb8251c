package bench

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
)

// DepthMode selects how questions are assigned to depth/length cells.
type DepthMode string

const (
	// DepthLegacy disables depth-aware testing; questions are answered
	// against the first N tokens of the source.
	DepthLegacy DepthMode = "legacy"

	// DepthUniform partitions questions evenly across the 5 depth bins
	// crossed with the configured context lengths.
	DepthUniform DepthMode = "uniform"

	// DepthFixed tests every question at one depth, at each context
	// length.
	DepthFixed DepthMode = "fixed"
)

// DepthBins are the canonical target depths, one per bin centroid.
var DepthBins = []float64{0.0, 0.25, 0.50, 0.75, 1.0}

// DepthLabels are the wire labels for the bins, index-aligned with
// DepthBins.
var DepthLabels = []string{"0%", "25%", "50%", "75%", "100%"}

// DepthLabelFor returns the label of the bin whose centroid is closest
// to depth.
func DepthLabelFor(depth float64) string {
	best := 0
	for i, bin := range DepthBins {
		if math.Abs(depth-bin) < math.Abs(depth-DepthBins[best]) {
			best = i
		}
	}
	return DepthLabels[best]
}

func depthLabelIndex(label string) int {
	for i, l := range DepthLabels {
		if l == label {
			return i
		}
	}
	return len(DepthLabels)
}

// Assignment maps one question onto one cell of the evaluation matrix.
type Assignment struct {
	QuestionIndex int
	TargetDepth   float64
	DepthBin      string
	ContextLength int
}

// Scheduler produces the assignment list for a run.
type Scheduler struct {
	mode           DepthMode
	fixedDepth     float64
	contextLengths []int
	maxQuestions   int
}

// NewScheduler validates and builds a scheduler. fixedDepth is only
// consulted in fixed mode; maxQuestions of 0 means no cap.
func NewScheduler(mode DepthMode, fixedDepth float64, contextLengths []int, maxQuestions int) (*Scheduler, error) {
	switch mode {
	case DepthUniform, DepthFixed:
		if len(contextLengths) == 0 {
			return nil, fmt.Errorf("depth mode %s requires at least one context length", mode)
		}
	case DepthLegacy:
	default:
		return nil, fmt.Errorf("unknown depth mode: %s", mode)
	}

	if mode == DepthFixed && (fixedDepth < 0 || fixedDepth > 1) {
		return nil, fmt.Errorf("fixed depth must be between 0.0 and 1.0, got %g", fixedDepth)
	}
	if maxQuestions < 0 {
		return nil, fmt.Errorf("max questions cannot be negative, got %d", maxQuestions)
	}

	return &Scheduler{
		mode:           mode,
		fixedDepth:     fixedDepth,
		contextLengths: append([]int(nil), contextLengths...),
		maxQuestions:   maxQuestions,
	}, nil
}

// Schedule assigns numQuestions questions to matrix cells. The result
// is sorted by (context_length, depth_bin, question_index) so identical
// inputs always produce identical assignment order.
func (s *Scheduler) Schedule(numQuestions int) ([]Assignment, error) {
	if s.mode == DepthLegacy {
		return nil, fmt.Errorf("legacy mode does not support depth scheduling")
	}
	if numQuestions <= 0 {
		return nil, nil
	}

	indices := s.sampleQuestions(numQuestions)

	var assignments []Assignment
	switch s.mode {
	case DepthUniform:
		assignments = s.scheduleUniform(indices)
	case DepthFixed:
		assignments = s.scheduleFixed(indices)
	}

	sort.Slice(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.ContextLength != b.ContextLength {
			return a.ContextLength < b.ContextLength
		}
		if a.DepthBin != b.DepthBin {
			return depthLabelIndex(a.DepthBin) < depthLabelIndex(b.DepthBin)
		}
		return a.QuestionIndex < b.QuestionIndex
	})

	s.logDistribution(assignments)
	return assignments, nil
}

// sampleQuestions applies the max-questions cap by picking evenly
// strided indices, so the sample stays spread across the document
// rather than front-loaded.
func (s *Scheduler) sampleQuestions(numQuestions int) []int {
	if s.maxQuestions == 0 || numQuestions <= s.maxQuestions {
		indices := make([]int, numQuestions)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, s.maxQuestions)
	for i := range indices {
		indices[i] = i * numQuestions / s.maxQuestions
	}
	slog.Info("Capped question sample", "total", numQuestions, "sampled", s.maxQuestions)
	return indices
}

// scheduleUniform round-robins questions over the depth×length cells.
// Cell sizes differ by at most one.
func (s *Scheduler) scheduleUniform(indices []int) []Assignment {
	numDepths := len(DepthBins)
	totalCells := numDepths * len(s.contextLengths)

	assignments := make([]Assignment, 0, len(indices))
	for i, qIdx := range indices {
		cell := i % totalCells
		depthIdx := cell % numDepths
		lengthIdx := cell / numDepths

		assignments = append(assignments, Assignment{
			QuestionIndex: qIdx,
			TargetDepth:   DepthBins[depthIdx],
			DepthBin:      DepthLabels[depthIdx],
			ContextLength: s.contextLengths[lengthIdx],
		})
	}
	return assignments
}

// scheduleFixed assigns every question to the fixed depth at each
// context length.
func (s *Scheduler) scheduleFixed(indices []int) []Assignment {
	label := DepthLabelFor(s.fixedDepth)

	assignments := make([]Assignment, 0, len(indices)*len(s.contextLengths))
	for _, length := range s.contextLengths {
		for _, qIdx := range indices {
			assignments = append(assignments, Assignment{
				QuestionIndex: qIdx,
				TargetDepth:   s.fixedDepth,
				DepthBin:      label,
				ContextLength: length,
			})
		}
	}
	return assignments
}

func (s *Scheduler) logDistribution(assignments []Assignment) {
	depthCounts := make(map[string]int, len(DepthLabels))
	lengthCounts := make(map[int]int, len(s.contextLengths))
	for _, a := range assignments {
		depthCounts[a.DepthBin]++
		lengthCounts[a.ContextLength]++
	}

	slog.Info("Depth scheduling complete",
		"mode", s.mode,
		"assignments", len(assignments),
		"by_depth", fmt.Sprint(depthCounts),
		"by_length", fmt.Sprint(lengthCounts))
}

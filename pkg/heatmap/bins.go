// Package heatmap reduces question sets and result files into the bin
// structures behind the coverage and accuracy visualizations: 1-D
// position bins over the source document and 2-D depth × context
// length cells. All reductions are pure functions over loaded data.
package heatmap

import (
	"fmt"
	"sort"

	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/question"
)

// PositionBin is one segment of the source document in a 1-D map.
// Accuracy is nil when no question starts inside the bin, which is
// distinct from an accuracy of zero.
type PositionBin struct {
	StartPos int      `json:"start_pos"`
	EndPos   int      `json:"end_pos"`
	Coverage float64  `json:"coverage"`
	Accuracy *float64 `json:"accuracy"`
	Count    int      `json:"count"`
}

// DepthCell is one (context_length, depth_bin) cell of the 2-D map.
type DepthCell struct {
	ContextLength int      `json:"context_length"`
	DepthBin      string   `json:"depth_bin"`
	Accuracy      *float64 `json:"accuracy"`
	Count         int      `json:"count"`
}

// positionBins partitions [0, contextLength) into numBins segments.
// The last bin absorbs the integer-division remainder.
func positionBins(contextLength, numBins int) []PositionBin {
	bins := make([]PositionBin, numBins)
	for i := range bins {
		bins[i].StartPos = i * contextLength / numBins
		bins[i].EndPos = (i + 1) * contextLength / numBins
	}
	bins[numBins-1].EndPos = contextLength
	return bins
}

func validateBinArgs(contextLength, numBins int) error {
	if numBins <= 0 {
		return fmt.Errorf("number of bins must be positive, got %d", numBins)
	}
	if contextLength <= 0 {
		return fmt.Errorf("context length must be positive, got %d", contextLength)
	}
	return nil
}

// CoverageBins distributes each question's evidence span proportionally
// over the bins it overlaps. A question contributes overlap/(e−s) to
// each bin, so its contributions across all bins sum to one; the sums
// are then divided by the total question count, so every bin value is
// a mean per-question coverage in [0, 1]. Questions without a position
// or with an empty span are skipped but still count toward the total.
func CoverageBins(questions []question.Question, contextLength, numBins int) ([]PositionBin, error) {
	if err := validateBinArgs(contextLength, numBins); err != nil {
		return nil, err
	}
	bins := positionBins(contextLength, numBins)
	if len(questions) == 0 {
		return bins, nil
	}

	for _, q := range questions {
		if q.Position == nil {
			continue
		}
		span := q.Position.EndPos - q.Position.StartPos
		if span <= 0 {
			continue
		}

		for i := range bins {
			overlap := min(q.Position.EndPos, bins[i].EndPos) - max(q.Position.StartPos, bins[i].StartPos)
			if overlap > 0 {
				bins[i].Coverage += float64(overlap) / float64(span)
				bins[i].Count++
			}
		}
	}

	total := float64(len(questions))
	for i := range bins {
		bins[i].Coverage /= total
	}
	return bins, nil
}

// AccuracyBins assigns each result to the bin containing its evidence
// start position and reports the mean score per bin. Results without a
// position are skipped.
func AccuracyBins(results []bench.Result, contextLength, numBins int) ([]PositionBin, error) {
	if err := validateBinArgs(contextLength, numBins); err != nil {
		return nil, err
	}
	bins := positionBins(contextLength, numBins)
	sums := make([]float64, numBins)

	for _, r := range results {
		if r.Position == nil {
			continue
		}
		idx := r.Position.StartPos * numBins / contextLength
		if idx < 0 {
			continue
		}
		if idx >= numBins {
			idx = numBins - 1
		}
		sums[idx] += r.Score
		bins[idx].Count++
	}

	for i := range bins {
		if bins[i].Count > 0 {
			acc := sums[i] / float64(bins[i].Count)
			bins[i].Accuracy = &acc
		}
	}
	return bins, nil
}

// DepthCells groups depth-aware results into (context_length,
// depth_bin) cells and reports mean score and cardinality per cell.
// When contextLengths is nil the lengths present in the results are
// used. The returned slice always holds |lengths| × |labels| cells,
// ordered by length then bin; results lacking depth fields are
// skipped.
func DepthCells(results []bench.Result, contextLengths []int) []DepthCell {
	type cellAgg struct {
		sum   float64
		count int
	}
	type key struct {
		length int
		bin    string
	}

	agg := make(map[key]*cellAgg)
	seenLengths := make(map[int]bool)
	for _, r := range results {
		if r.DepthBin == "" || r.TestContextLength == 0 {
			continue
		}
		seenLengths[r.TestContextLength] = true
		k := key{length: r.TestContextLength, bin: r.DepthBin}
		if agg[k] == nil {
			agg[k] = &cellAgg{}
		}
		agg[k].sum += r.Score
		agg[k].count++
	}

	if contextLengths == nil {
		for length := range seenLengths {
			contextLengths = append(contextLengths, length)
		}
		sort.Ints(contextLengths)
	}

	cells := make([]DepthCell, 0, len(contextLengths)*len(bench.DepthLabels))
	for _, length := range contextLengths {
		for _, label := range bench.DepthLabels {
			cell := DepthCell{ContextLength: length, DepthBin: label}
			if a := agg[key{length: length, bin: label}]; a != nil {
				acc := a.sum / float64(a.count)
				cell.Accuracy = &acc
				cell.Count = a.count
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

// LengthAverages reduces depth cells to a mean accuracy per context
// length, weighting each cell equally the way the 2-D view's summary
// row does. Lengths with no populated cells map to nil.
func LengthAverages(cells []DepthCell) map[int]*float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	averages := make(map[int]*float64)

	for _, c := range cells {
		if _, ok := averages[c.ContextLength]; !ok {
			averages[c.ContextLength] = nil
		}
		if c.Accuracy != nil {
			sums[c.ContextLength] += *c.Accuracy
			counts[c.ContextLength]++
		}
	}
	for length, n := range counts {
		if n > 0 {
			avg := sums[length] / float64(n)
			averages[length] = &avg
		}
	}
	return averages
}

// OverallAccuracy is the count-weighted mean accuracy across populated
// cells, nil when nothing is populated.
func OverallAccuracy(cells []DepthCell) *float64 {
	var sum float64
	var count int
	for _, c := range cells {
		if c.Accuracy != nil {
			sum += *c.Accuracy * float64(c.Count)
			count += c.Count
		}
	}
	if count == 0 {
		return nil
	}
	acc := sum / float64(count)
	return &acc
}

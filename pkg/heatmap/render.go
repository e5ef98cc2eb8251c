package heatmap

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/kadirpekel/depthbench/pkg/bench"
)

// formatK renders a token position compactly, 32000 → "32K".
func formatK(n int) string {
	if n >= 1000 && n%1000 == 0 {
		return fmt.Sprintf("%dK", n/1000)
	}
	return fmt.Sprintf("%d", n)
}

func formatAccuracy(acc *float64) string {
	if acc == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *acc*100)
}

// RenderCoverage writes the 1-D coverage map as an aligned table.
func RenderCoverage(w io.Writer, bins []PositionBin) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tCOVERAGE\tQUESTIONS")
	for _, b := range bins {
		fmt.Fprintf(tw, "%s-%s\t%.3f\t%d\n", formatK(b.StartPos), formatK(b.EndPos), b.Coverage, b.Count)
	}
	return tw.Flush()
}

// RenderAccuracy writes the 1-D accuracy map as an aligned table.
// Empty bins show "-" rather than a zero.
func RenderAccuracy(w io.Writer, bins []PositionBin) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tACCURACY\tQUESTIONS")
	for _, b := range bins {
		fmt.Fprintf(tw, "%s-%s\t%s\t%d\n", formatK(b.StartPos), formatK(b.EndPos), formatAccuracy(b.Accuracy), b.Count)
	}
	return tw.Flush()
}

// RenderDepth writes the 2-D depth × length grid with depth rows from
// 100% down to 0% so shallow evidence sits at the bottom, plus a
// per-length average row and the overall accuracy.
func RenderDepth(w io.Writer, cells []DepthCell) error {
	if len(cells) == 0 {
		fmt.Fprintln(w, "No depth-aware results.")
		return nil
	}

	lengths := cellLengths(cells)
	byKey := make(map[string]DepthCell, len(cells))
	for _, c := range cells {
		byKey[fmt.Sprintf("%d/%s", c.ContextLength, c.DepthBin)] = c
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := []string{"DEPTH"}
	for _, length := range lengths {
		header = append(header, formatK(length))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i := len(bench.DepthLabels) - 1; i >= 0; i-- {
		label := bench.DepthLabels[i]
		row := []string{label}
		for _, length := range lengths {
			cell := byKey[fmt.Sprintf("%d/%s", length, label)]
			row = append(row, formatAccuracy(cell.Accuracy))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	averages := LengthAverages(cells)
	row := []string{"avg"}
	for _, length := range lengths {
		row = append(row, formatAccuracy(averages[length]))
	}
	fmt.Fprintln(tw, strings.Join(row, "\t"))

	if err := tw.Flush(); err != nil {
		return err
	}

	if overall := OverallAccuracy(cells); overall != nil {
		fmt.Fprintf(w, "\nOverall accuracy: %.1f%%\n", *overall*100)
	}
	return nil
}

func cellLengths(cells []DepthCell) []int {
	seen := make(map[int]bool)
	var lengths []int
	for _, c := range cells {
		if !seen[c.ContextLength] {
			seen[c.ContextLength] = true
			lengths = append(lengths, c.ContextLength)
		}
	}
	sort.Ints(lengths)
	return lengths
}

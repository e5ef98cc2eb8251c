package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/kadirpekel/depthbench/pkg/answer"
	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/heatmap"
	"github.com/kadirpekel/depthbench/pkg/question"
)

// Format selects the report output style.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

var kindOrder = []question.Kind{
	question.SingleChoice,
	question.MultipleChoice,
	question.NegativeQuestion,
}

// Render writes the summary in the requested format. Metadata may be
// nil when the result file carried none.
func Render(w io.Writer, s *Summary, meta *bench.RunMetadata, format Format) error {
	switch format {
	case FormatMarkdown:
		return renderMarkdown(w, s, meta)
	case FormatText, "":
		return renderText(w, s, meta)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func pctOf(n, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(n)/float64(total)*100)
}

func renderText(w io.Writer, s *Summary, meta *bench.RunMetadata) error {
	if meta != nil {
		fmt.Fprintf(w, "Model: %s\n", meta.ModelName)
		if meta.TestedAt != "" {
			fmt.Fprintf(w, "Tested at: %s\n", meta.TestedAt)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Results: %d\n", s.Total)
	fmt.Fprintf(w, "Average score: %.3f\n\n", s.AverageScore)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT\tSHARE")
	fmt.Fprintf(tw, "correct\t%d\t%s\n", s.Correct, pctOf(s.Correct, s.Total))
	fmt.Fprintf(tw, "partially_correct\t%d\t%s\n", s.PartiallyCorrect, pctOf(s.PartiallyCorrect, s.Total))
	fmt.Fprintf(tw, "incorrect\t%d\t%s\n", s.Incorrect, pctOf(s.Incorrect, s.Total))
	fmt.Fprintf(tw, "parsing_error\t%d\t%s\n", s.ParsingErrors, pctOf(s.ParsingErrors, s.Total))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCOUNT\tACCURACY")
	for _, kind := range kindOrder {
		if s.KindCounts[kind] == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%.3f\n", kind, s.KindCounts[kind], s.KindAccuracy[kind])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if hasMultiChoice(s) {
		fmt.Fprintf(w, "\nMulti-choice macro: precision %.3f, recall %.3f, f1 %.3f\n",
			s.MultiChoice.Precision, s.MultiChoice.Recall, s.MultiChoice.F1)
	}

	if counts := failureStatuses(s); len(counts) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, line := range counts {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if len(s.DepthCells) > 0 {
		fmt.Fprintln(w, "\nAccuracy by depth and context length:")
		if err := heatmap.RenderDepth(w, s.DepthCells); err != nil {
			return err
		}
	}
	return nil
}

func renderMarkdown(w io.Writer, s *Summary, meta *bench.RunMetadata) error {
	fmt.Fprintln(w, "# Benchmark Report")
	if meta != nil {
		fmt.Fprintf(w, "\n**Model:** %s", meta.ModelName)
		if meta.TestedAt != "" {
			fmt.Fprintf(w, "  \n**Tested at:** %s", meta.TestedAt)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\n**Results:** %d  \n**Average score:** %.3f\n", s.Total, s.AverageScore)

	fmt.Fprintln(w, "\n| Category | Count | Share |")
	fmt.Fprintln(w, "|---|---|---|")
	fmt.Fprintf(w, "| correct | %d | %s |\n", s.Correct, pctOf(s.Correct, s.Total))
	fmt.Fprintf(w, "| partially_correct | %d | %s |\n", s.PartiallyCorrect, pctOf(s.PartiallyCorrect, s.Total))
	fmt.Fprintf(w, "| incorrect | %d | %s |\n", s.Incorrect, pctOf(s.Incorrect, s.Total))
	fmt.Fprintf(w, "| parsing_error | %d | %s |\n", s.ParsingErrors, pctOf(s.ParsingErrors, s.Total))

	fmt.Fprintln(w, "\n| Kind | Count | Accuracy |")
	fmt.Fprintln(w, "|---|---|---|")
	for _, kind := range kindOrder {
		if s.KindCounts[kind] == 0 {
			continue
		}
		fmt.Fprintf(w, "| %s | %d | %.3f |\n", kind, s.KindCounts[kind], s.KindAccuracy[kind])
	}

	if hasMultiChoice(s) {
		fmt.Fprintf(w, "\n**Multi-choice macro:** precision %.3f, recall %.3f, f1 %.3f\n",
			s.MultiChoice.Precision, s.MultiChoice.Recall, s.MultiChoice.F1)
	}

	if len(s.DepthCells) > 0 {
		if err := renderDepthMarkdown(w, s.DepthCells); err != nil {
			return err
		}
	}
	return nil
}

func renderDepthMarkdown(w io.Writer, cells []heatmap.DepthCell) error {
	lengths := make([]int, 0)
	seen := make(map[int]bool)
	byKey := make(map[string]heatmap.DepthCell, len(cells))
	for _, c := range cells {
		if !seen[c.ContextLength] {
			seen[c.ContextLength] = true
			lengths = append(lengths, c.ContextLength)
		}
		byKey[fmt.Sprintf("%d/%s", c.ContextLength, c.DepthBin)] = c
	}
	sort.Ints(lengths)

	fmt.Fprint(w, "\n| Depth |")
	for _, length := range lengths {
		fmt.Fprintf(w, " %d |", length)
	}
	fmt.Fprint(w, "\n|---|")
	fmt.Fprint(w, strings.Repeat("---|", len(lengths)))
	fmt.Fprintln(w)

	for i := len(bench.DepthLabels) - 1; i >= 0; i-- {
		label := bench.DepthLabels[i]
		fmt.Fprintf(w, "| %s |", label)
		for _, length := range lengths {
			cell := byKey[fmt.Sprintf("%d/%s", length, label)]
			if cell.Accuracy == nil {
				fmt.Fprint(w, " - |")
			} else {
				fmt.Fprintf(w, " %.1f%% |", *cell.Accuracy*100)
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func hasMultiChoice(s *Summary) bool {
	return s.KindCounts[question.MultipleChoice] > 0 || s.KindCounts[question.NegativeQuestion] > 0
}

// failureStatuses lists non-success statuses with counts, stable order.
func failureStatuses(s *Summary) []string {
	order := []answer.Status{
		answer.StatusParsingError,
		answer.StatusRefused,
		answer.StatusTimeout,
		answer.StatusError,
		answer.StatusContextBuildError,
	}
	var lines []string
	for _, status := range order {
		if n := s.StatusCounts[status]; n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d", status, n))
		}
	}
	return lines
}

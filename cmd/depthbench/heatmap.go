package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/heatmap"
	"github.com/kadirpekel/depthbench/pkg/question"
)

// HeatmapCmd renders position coverage and accuracy views of a result
// file.
type HeatmapCmd struct {
	Input         string `arg:"" help:"Result file (JSONL)." type:"path"`
	DataSet       string `name:"data_set" help:"Question set, required for coverage." type:"path"`
	Mode          string `help:"View to render (coverage, accuracy, depth, combined)." enum:"coverage,accuracy,depth,combined" default:"combined"`
	Bins          int    `help:"Number of position bins." default:"50"`
	ContextLength int    `name:"context-length" help:"Context length for position bins (defaults to run metadata)."`
	HTML          string `help:"Also write a self-contained HTML report to this path." type:"path"`
}

func (c *HeatmapCmd) Run(cli *CLI) error {
	file, err := bench.LoadResultFile(c.Input)
	if err != nil {
		return err
	}
	if len(file.Results) == 0 {
		return fmt.Errorf("result file %s contains no results", c.Input)
	}

	report := heatmap.HTMLReport{Title: "Benchmark Heatmap"}
	if file.Metadata != nil {
		report.ModelName = file.Metadata.ModelName
		report.Dataset = file.Metadata.QuestionSetPath
		report.TestedAt = file.Metadata.TestedAt
	}

	wantCoverage := c.Mode == "coverage" || c.Mode == "combined"
	wantAccuracy := c.Mode == "accuracy" || c.Mode == "combined"
	wantDepth := c.Mode == "depth" || c.Mode == "combined"

	if wantCoverage || wantAccuracy {
		contextLength, err := c.resolveContextLength(file)
		if err != nil {
			return err
		}

		if wantCoverage {
			questions, err := c.loadQuestions()
			if err != nil {
				return err
			}
			if questions != nil {
				report.CoverageBins, err = heatmap.CoverageBins(questions, contextLength, c.Bins)
				if err != nil {
					return err
				}
			}
		}
		if wantAccuracy {
			report.AccuracyBins, err = heatmap.AccuracyBins(file.Results, contextLength, c.Bins)
			if err != nil {
				return err
			}
		}
	}

	if wantDepth {
		var lengths []int
		if file.Metadata != nil {
			lengths = file.Metadata.ContextLengths
		}
		report.DepthCells = heatmap.DepthCells(file.Results, lengths)
	}

	if len(report.CoverageBins) > 0 {
		if err := heatmap.RenderCoverage(os.Stdout, report.CoverageBins); err != nil {
			return err
		}
		fmt.Println()
	}
	if len(report.AccuracyBins) > 0 {
		if err := heatmap.RenderAccuracy(os.Stdout, report.AccuracyBins); err != nil {
			return err
		}
		fmt.Println()
	}
	if len(report.DepthCells) > 0 {
		if err := heatmap.RenderDepth(os.Stdout, report.DepthCells); err != nil {
			return err
		}
	}

	if c.HTML != "" {
		f, err := os.Create(c.HTML)
		if err != nil {
			return fmt.Errorf("failed to create HTML report: %w", err)
		}
		defer f.Close()
		if err := heatmap.RenderHTML(f, report); err != nil {
			return err
		}
		slog.Info("Wrote HTML report", "path", c.HTML)
	}

	return nil
}

// resolveContextLength picks the position-bin axis length: flag first,
// then run metadata.
func (c *HeatmapCmd) resolveContextLength(file *bench.ResultFile) (int, error) {
	if c.ContextLength > 0 {
		return c.ContextLength, nil
	}
	if file.Metadata != nil {
		if file.Metadata.ContextLength > 0 {
			return file.Metadata.ContextLength, nil
		}
		if n := len(file.Metadata.ContextLengths); n > 0 {
			longest := file.Metadata.ContextLengths[0]
			for _, l := range file.Metadata.ContextLengths[1:] {
				if l > longest {
					longest = l
				}
			}
			return longest, nil
		}
	}
	return 0, fmt.Errorf("cannot determine context length; pass --context-length")
}

// loadQuestions loads the question set for coverage. Coverage alone
// demands it; in combined mode it is optional and skipped when absent.
func (c *HeatmapCmd) loadQuestions() ([]question.Question, error) {
	if c.DataSet == "" {
		if c.Mode == "coverage" {
			return nil, fmt.Errorf("coverage requires --data_set")
		}
		return nil, nil
	}
	set, err := question.LoadFile(c.DataSet)
	if err != nil {
		return nil, err
	}
	return set.Questions, nil
}

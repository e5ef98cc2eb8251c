package main

import (
	"fmt"
	"os"

	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/report"
)

// ReportCmd summarizes a result file.
type ReportCmd struct {
	Input  string `arg:"" help:"Result file (JSONL)." type:"path"`
	Format string `help:"Output format (text, markdown)." enum:"text,markdown" default:"text"`
}

func (c *ReportCmd) Run(cli *CLI) error {
	file, err := bench.LoadResultFile(c.Input)
	if err != nil {
		return err
	}
	if len(file.Results) == 0 {
		return fmt.Errorf("result file %s contains no results", c.Input)
	}

	summary := report.Summarize(file.Results)
	return report.Render(os.Stdout, summary, file.Metadata, report.Format(c.Format))
}

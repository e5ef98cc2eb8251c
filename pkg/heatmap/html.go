package heatmap

import (
	"fmt"
	"html/template"
	"io"

	"github.com/kadirpekel/depthbench/pkg/bench"
)

// HTMLReport is the data behind the self-contained HTML page. Any
// section left empty is omitted from the output.
type HTMLReport struct {
	Title        string
	ModelName    string
	Dataset      string
	TestedAt     string
	CoverageBins []PositionBin
	AccuracyBins []PositionBin
	DepthCells   []DepthCell
}

type depthRow struct {
	Label string
	Cells []DepthCell
}

type htmlData struct {
	HTMLReport
	AxisStart    string
	AxisEnd      string
	DepthLengths []string
	DepthRows    []depthRow
	AverageRow   []*float64
	Overall      *float64
	MaxCoverage  float64
}

// accuracyColor maps an accuracy to the red→yellow→green ramp used in
// every accuracy view; nil means no data and renders gray.
func accuracyColor(acc *float64) string {
	if acc == nil {
		return "#6c757d"
	}
	a := *acc
	var r, g, b int
	if a < 0.5 {
		// red #dc3545 toward yellow #ffc107
		t := a / 0.5
		r = 220 + int(t*(255-220))
		g = 53 + int(t*(193-53))
		b = 69 + int(t*(7-69))
	} else {
		// yellow #ffc107 toward green #28a745
		t := (a - 0.5) / 0.5
		r = 255 + int(t*(40-255))
		g = 193 + int(t*(167-193))
		b = 7 + int(t*(69-7))
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// coverageColor maps a coverage value to a blue ramp scaled by the
// report's maximum so sparse sets still show contrast.
func coverageColor(coverage, maxCoverage float64) string {
	if maxCoverage <= 0 {
		return "#f8f9fa"
	}
	t := coverage / maxCoverage
	r := 248 + int(t*(13-248))
	g := 249 + int(t*(110-249))
	b := 250 + int(t*(253-250))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"accColor": accuracyColor,
	"covColor": coverageColor,
	"pct": func(acc *float64) string {
		if acc == nil {
			return "-"
		}
		return fmt.Sprintf("%.0f%%", *acc*100)
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Helvetica, Arial, sans-serif; margin: 2rem; color: #212529; }
h1 { font-size: 1.4rem; } h2 { font-size: 1.1rem; margin-top: 2rem; }
.meta { color: #6c757d; font-size: 0.9rem; }
.strip { display: flex; margin: 0.5rem 0; }
.strip div { flex: 1; height: 36px; border-right: 1px solid #fff; position: relative; }
.strip div:hover::after { content: attr(data-tip); position: absolute; bottom: 42px; left: 0;
  background: #212529; color: #fff; padding: 4px 8px; font-size: 0.75rem; white-space: pre; z-index: 1; }
table.grid { border-collapse: collapse; margin: 0.5rem 0; }
table.grid td, table.grid th { border: 1px solid #fff; padding: 0; }
table.grid th { background: #f8f9fa; font-weight: 600; font-size: 0.85rem; padding: 6px 10px; }
table.grid td { width: 72px; height: 44px; text-align: center; color: #fff; font-weight: 700; font-size: 0.85rem; }
.overall { margin-top: 1rem; font-weight: 600; }
.axis { display: flex; justify-content: space-between; color: #6c757d; font-size: 0.75rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="meta">
{{- if .ModelName}}Model: {{.ModelName}}{{end}}
{{- if .Dataset}} | Dataset: {{.Dataset}}{{end}}
{{- if .TestedAt}} | Tested: {{.TestedAt}}{{end}}
</p>

{{if .CoverageBins}}
<h2>Question Coverage Across Context</h2>
<div class="strip">
{{- $max := .MaxCoverage}}
{{- range .CoverageBins}}<div style="background:{{covColor .Coverage $max}}" data-tip="Position: {{.StartPos}}-{{.EndPos}}&#10;Coverage: {{printf "%.3f" .Coverage}}"></div>{{end}}
</div>
<div class="axis"><span>{{.AxisStart}}</span><span>{{.AxisEnd}}</span></div>
{{end}}

{{if .AccuracyBins}}
<h2>Model Accuracy Across Context</h2>
<div class="strip">
{{- range .AccuracyBins}}<div style="background:{{accColor .Accuracy}}" data-tip="Position: {{.StartPos}}-{{.EndPos}}&#10;Accuracy: {{pct .Accuracy}}&#10;Questions: {{.Count}}"></div>{{end}}
</div>
{{end}}

{{if .DepthRows}}
<h2>Depth-Aware Accuracy</h2>
<table class="grid">
<tr><th>Depth</th>{{range .DepthLengths}}<th>{{.}}</th>{{end}}</tr>
{{- range .DepthRows}}
<tr><th>{{.Label}}</th>{{range .Cells}}<td style="background:{{accColor .Accuracy}}" title="Questions: {{.Count}}">{{pct .Accuracy}}</td>{{end}}</tr>
{{- end}}
<tr><th>avg</th>{{range .AverageRow}}<td style="background:{{accColor .}}">{{pct .}}</td>{{end}}</tr>
</table>
{{if .Overall}}<p class="overall">Average Accuracy: {{pct .Overall}}</p>{{end}}
{{end}}
</body>
</html>
`))

// RenderHTML writes the report as one dependency-free HTML page.
func RenderHTML(w io.Writer, report HTMLReport) error {
	if report.Title == "" {
		report.Title = "depthbench report"
	}

	data := htmlData{HTMLReport: report}
	for _, b := range report.CoverageBins {
		data.MaxCoverage = max(data.MaxCoverage, b.Coverage)
	}
	if n := len(report.CoverageBins); n > 0 {
		data.AxisStart = formatK(report.CoverageBins[0].StartPos)
		data.AxisEnd = formatK(report.CoverageBins[n-1].EndPos)
	}

	if len(report.DepthCells) > 0 {
		lengths := cellLengths(report.DepthCells)
		for _, length := range lengths {
			data.DepthLengths = append(data.DepthLengths, formatK(length))
		}

		byKey := make(map[string]DepthCell, len(report.DepthCells))
		for _, c := range report.DepthCells {
			byKey[fmt.Sprintf("%d/%s", c.ContextLength, c.DepthBin)] = c
		}
		for i := len(bench.DepthLabels) - 1; i >= 0; i-- {
			label := bench.DepthLabels[i]
			row := depthRow{Label: label}
			for _, length := range lengths {
				row.Cells = append(row.Cells, byKey[fmt.Sprintf("%d/%s", length, label)])
			}
			data.DepthRows = append(data.DepthRows, row)
		}

		averages := LengthAverages(report.DepthCells)
		for _, length := range lengths {
			data.AverageRow = append(data.AverageRow, averages[length])
		}
		data.Overall = OverallAccuracy(report.DepthCells)
	}

	return reportTemplate.Execute(w, data)
}

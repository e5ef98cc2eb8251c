package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/depthbench/pkg/bench"
	"github.com/kadirpekel/depthbench/pkg/config"
	"github.com/kadirpekel/depthbench/pkg/jsonl"
	"github.com/kadirpekel/depthbench/pkg/llm"
	"github.com/kadirpekel/depthbench/pkg/novel"
	"github.com/kadirpekel/depthbench/pkg/prompt"
	"github.com/kadirpekel/depthbench/pkg/question"
	"github.com/kadirpekel/depthbench/pkg/tokenizer"
)

// TestCmd runs a benchmark against a model.
type TestCmd struct {
	Novel          string  `help:"Path to the source novel (.txt, .pdf, .docx)." type:"path"`
	DataSet        string  `name:"data_set" help:"Path to the question set JSONL." type:"path" required:""`
	Output         string  `help:"Result file path." type:"path" default:"results.jsonl"`
	Concurrency    int     `help:"Concurrent model calls."`
	ContextLength  int     `name:"context_length" help:"Single context length in tokens (legacy mode)."`
	ContextLengths []int   `name:"context-lengths" help:"Context lengths for depth-aware testing (comma-separated)."`
	DepthMode      string  `name:"depth-mode" help:"Depth scheduling mode (legacy, uniform, fixed)." enum:"legacy,uniform,fixed" default:"uniform"`
	Depth          float64 `help:"Target depth for fixed mode (0.0-1.0)." default:"0.5"`
	PaddingSize    int     `name:"padding_size" help:"Token margin around evidence spans."`
	MaxQuestions   int     `name:"max-questions" help:"Cap on tested questions (0 = all)."`
	Recovery       string  `help:"Prior result file to resume from." type:"path"`
	SkipValidation bool    `name:"skip-validation" help:"Bypass the question validation gate."`
	IgnoreInvalid  bool    `name:"ignore-invalid" help:"Drop questions with is_valid=false instead of failing."`
	NoReference    bool    `name:"no-reference" help:"Answer from the question set's novel summary instead of built contexts."`
	PromptsDir     string  `name:"prompts-dir" help:"Directory with prompt template overrides." type:"path"`
	Encoding       string  `help:"Tokenizer encoding (default cl100k_base)."`

	ModelFlags
}

// runPlan is the resolved shape of a test run after flag validation.
type runPlan struct {
	mode        bench.TestMode
	legacy      bool
	questions   []question.Question
	assignments []bench.Assignment
}

func (c *TestCmd) Run(cli *CLI) error {
	if err := c.checkFlagConflicts(); err != nil {
		return err
	}

	cfg, err := c.resolveConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Concurrency > 0 {
		cfg.Run.Concurrency = c.Concurrency
	}
	if c.PaddingSize > 0 {
		cfg.Run.Padding = c.PaddingSize
	}
	if c.Encoding != "" {
		cfg.Run.Encoding = c.Encoding
	}
	if c.PromptsDir != "" {
		cfg.Run.PromptsDir = c.PromptsDir
	}
	if err := finalizeConfig(cfg); err != nil {
		return err
	}
	modelCfg, runCfg := cfg.Model, cfg.Run

	set, err := question.LoadFile(c.DataSet)
	if err != nil {
		return err
	}

	questions, _, err := question.Check(set.Questions, c.SkipValidation, c.IgnoreInvalid)
	if err != nil {
		var checkErr *question.CheckError
		if errors.As(err, &checkErr) {
			return &ExitError{Code: ExitValidationFailure, Err: checkErr}
		}
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	var builder *bench.Builder
	var summary string
	if c.NoReference {
		if set.NovelSummary == "" {
			return fmt.Errorf("question set has no novel_summary; cannot run --no-reference")
		}
		summary = set.NovelSummary
	} else {
		text, err := novel.Load(c.Novel)
		if err != nil {
			return err
		}
		codec, err := tokenizer.New(runCfg.Encoding)
		if err != nil {
			return err
		}
		tokens := codec.Encode(text)
		builder = bench.NewBuilder(codec, tokens)
		slog.Info("Loaded novel", "path", c.Novel, "tokens", len(tokens))
	}

	plan, err := c.resolvePlan(questions, runCfg.Padding)
	if err != nil {
		return err
	}

	pending := plan.assignments
	var kept []bench.Result
	if c.Recovery != "" {
		prior, err := bench.LoadResultFile(c.Recovery)
		if err != nil {
			return err
		}
		rp := bench.Recover(prior.Results, plan.assignments, plan.questions, plan.mode, plan.legacy)
		kept = rp.Kept
		pending = rp.Pending
	}

	writer, err := jsonl.Create(c.Output)
	if err != nil {
		return err
	}
	defer writer.Close()

	meta := c.buildMetadata(modelCfg, runCfg, set, plan)
	if err := writer.Write(struct {
		Metadata *bench.RunMetadata `json:"metadata"`
	}{meta}); err != nil {
		return err
	}
	for i := range kept {
		if err := writer.Write(&kept[i]); err != nil {
			return err
		}
	}

	provider, err := llm.New(modelCfg)
	if err != nil {
		return err
	}
	prompter := prompt.NewManager(runCfg.PromptsDir)
	progress := bench.NewProgress(len(pending), os.Stderr)

	pipeline := bench.NewPipeline(builder, plan.questions, provider, prompter, writer, progress, bench.PipelineConfig{
		Concurrency:   runCfg.Concurrency,
		Padding:       runCfg.Padding,
		Mode:          plan.mode,
		NovelSummary:  summary,
		Legacy:        plan.legacy,
		ContextLength: c.ContextLength,
	})

	results, err := pipeline.Run(ctx, pending)
	if syncErr := writer.Sync(); syncErr != nil && err == nil {
		err = syncErr
	}
	if err != nil {
		var insuff *bench.InsufficientSourceError
		if errors.As(err, &insuff) {
			return &ExitError{Code: ExitInsufficientSource, Err: insuff}
		}
		return err
	}

	slog.Info("Run complete",
		"results", len(kept)+len(results),
		"recovered", len(kept),
		"output", c.Output)
	return nil
}

// checkFlagConflicts rejects flag combinations with no coherent meaning.
func (c *TestCmd) checkFlagConflicts() error {
	if c.NoReference && (c.ContextLength > 0 || len(c.ContextLengths) > 0) {
		return exitErrorf(ExitArgConflict, "--no-reference cannot be combined with context length flags")
	}
	if c.ContextLength > 0 && len(c.ContextLengths) > 0 {
		return exitErrorf(ExitArgConflict, "--context_length and --context-lengths are mutually exclusive")
	}
	if c.DepthMode == string(bench.DepthLegacy) && c.ContextLength == 0 {
		return exitErrorf(ExitArgConflict, "legacy mode requires --context_length")
	}
	if !c.NoReference && c.ContextLength == 0 && len(c.ContextLengths) == 0 {
		return exitErrorf(ExitArgConflict, "depth-aware testing requires --context-lengths")
	}
	if !c.NoReference && c.Novel == "" {
		return exitErrorf(ExitArgConflict, "--novel is required unless --no-reference is set")
	}
	return nil
}

// resolvePlan maps the question set onto assignments for the run mode.
func (c *TestCmd) resolvePlan(questions []question.Question, padding int) (*runPlan, error) {
	switch {
	case c.NoReference:
		indices := sampleIndices(len(questions), c.MaxQuestions)
		assignments := make([]bench.Assignment, len(indices))
		for i, qIdx := range indices {
			assignments[i] = bench.Assignment{QuestionIndex: qIdx}
		}
		return &runPlan{mode: bench.ModeNoReference, questions: questions, assignments: assignments}, nil

	case c.ContextLength > 0:
		// Legacy mode answers against the document head, so questions
		// whose evidence lies past the window are excluded up front.
		var fit []question.Question
		for _, q := range questions {
			if q.Position != nil && q.Position.EndPos+padding <= c.ContextLength {
				fit = append(fit, q)
			}
		}
		if len(fit) < len(questions) {
			slog.Info("Filtered questions beyond legacy context window",
				"filtered", len(questions)-len(fit),
				"remaining", len(fit),
				"context_length", c.ContextLength)
		}
		if len(fit) == 0 {
			return nil, fmt.Errorf("no questions fit within context length %d", c.ContextLength)
		}

		indices := sampleIndices(len(fit), c.MaxQuestions)
		assignments := make([]bench.Assignment, len(indices))
		for i, qIdx := range indices {
			assignments[i] = bench.Assignment{QuestionIndex: qIdx, ContextLength: c.ContextLength}
		}
		return &runPlan{mode: bench.ModeWithReference, legacy: true, questions: fit, assignments: assignments}, nil

	default:
		sched, err := bench.NewScheduler(bench.DepthMode(c.DepthMode), c.Depth, c.ContextLengths, c.MaxQuestions)
		if err != nil {
			return nil, &ExitError{Code: ExitArgConflict, Err: err}
		}
		assignments, err := sched.Schedule(len(questions))
		if err != nil {
			return nil, err
		}
		return &runPlan{mode: bench.ModeWithReference, questions: questions, assignments: assignments}, nil
	}
}

// buildMetadata assembles the leading result file line.
func (c *TestCmd) buildMetadata(modelCfg config.ModelConfig, runCfg config.RunConfig, set *question.Set, plan *runPlan) *bench.RunMetadata {
	meta := &bench.RunMetadata{
		RunID:           uuid.NewString(),
		TestedAt:        bench.Timestamp(),
		ModelName:       modelCfg.Name,
		NovelPath:       c.Novel,
		QuestionSetPath: c.DataSet,
		PaddingSize:     runCfg.Padding,
		TestMode:        plan.mode,
		TotalQuestions:  len(set.Questions),
		TestedQuestions: distinctQuestions(plan.assignments),
		Config: &bench.RunConfigMetadata{
			MaxTokens:      modelCfg.MaxTokens,
			TimeoutSeconds: int(modelCfg.Timeout / time.Second),
			Concurrency:    runCfg.Concurrency,
			RetryTimes:     modelCfg.MaxRetries,
		},
		QuestionSetMetadata: set.Metadata,
	}
	if modelCfg.Temperature != nil {
		meta.Config.Temperature = *modelCfg.Temperature
	}

	switch {
	case plan.mode == bench.ModeNoReference:
	case plan.legacy:
		meta.ContextLength = c.ContextLength
		meta.DepthMode = string(bench.DepthLegacy)
	default:
		meta.ContextLengths = c.ContextLengths
		meta.DepthMode = c.DepthMode
		meta.DepthBins = bench.DepthLabels
	}
	return meta
}

// sampleIndices caps n indices at limit by even striding, mirroring the
// scheduler's sampling so all modes spread the cap across the set.
func sampleIndices(n, limit int) []int {
	if limit == 0 || n <= limit {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, limit)
	for i := range indices {
		indices[i] = i * n / limit
	}
	return indices
}

func distinctQuestions(assignments []bench.Assignment) int {
	seen := make(map[int]bool, len(assignments))
	for _, a := range assignments {
		seen[a.QuestionIndex] = true
	}
	return len(seen)
}

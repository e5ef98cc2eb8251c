package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kadirpekel/depthbench/pkg/answer"
	"github.com/kadirpekel/depthbench/pkg/question"
)

// Invoker is the model call boundary. Implementations retry transient
// transport failures internally; the pipeline never re-dispatches an
// assignment, so each assignment produces exactly one Result.
type Invoker interface {
	Invoke(ctx context.Context, system, user string) (string, error)
}

// Prompter renders the testing prompt for one question.
type Prompter interface {
	Testing(contextText, questionText string, choices map[string]string) (system, user string)
}

// Sink receives completed results in completion order. jsonl.Writer
// satisfies it; each record must be durable before the next write so
// interrupted runs stay recoverable.
type Sink interface {
	Write(v interface{}) error
}

// InsufficientSourceError is the run-level failure raised when every
// assignment at some context length failed because the source document
// is too short. Individual failures are still recorded per assignment.
type InsufficientSourceError struct {
	Lengths []int
}

func (e *InsufficientSourceError) Error() string {
	return fmt.Sprintf("source document too short for context lengths %v", e.Lengths)
}

// PipelineConfig carries the per-run execution parameters.
type PipelineConfig struct {
	// Concurrency bounds in-flight model calls.
	Concurrency int

	// Padding is the token margin around evidence spans.
	Padding int

	// Mode selects with_reference or no_reference result stamping.
	Mode TestMode

	// NovelSummary replaces the built context in no_reference mode.
	NovelSummary string

	// Legacy answers questions against the first ContextLength tokens
	// instead of depth-built contexts.
	Legacy        bool
	ContextLength int
}

// Pipeline drives a run: for each assignment it builds the context,
// calls the model, parses, scores, and emits one Result.
type Pipeline struct {
	builder   *Builder
	questions []question.Question
	invoker   Invoker
	prompter  Prompter
	sink      Sink
	progress  *Progress
	cfg       PipelineConfig
}

// NewPipeline wires the pipeline. builder may be nil only in
// no_reference mode. progress may be nil.
func NewPipeline(builder *Builder, questions []question.Question, invoker Invoker, prompter Prompter, sink Sink, progress *Progress, cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		builder:   builder,
		questions: questions,
		invoker:   invoker,
		prompter:  prompter,
		sink:      sink,
		progress:  progress,
		cfg:       cfg,
	}
}

// Run executes the assignments with a bounded worker pool. The
// returned results are sorted back into assignment order; the sink saw
// them in completion order. Cancelling ctx stops dispatch and waits
// for in-flight calls; results emitted before the cancel are kept.
func (p *Pipeline) Run(ctx context.Context, assignments []Assignment) ([]Result, error) {
	results := make([]*Result, len(assignments))

	var mu sync.Mutex
	insufficient := make(map[int]int)
	attempted := make(map[int]int)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for i, a := range assignments {
		if gctx.Err() != nil {
			break
		}

		i, a := i, a
		g.Go(func() error {
			result, buildErr := p.runOne(gctx, a)

			mu.Lock()
			attempted[a.ContextLength]++
			var be *BuildError
			if errors.As(buildErr, &be) && be.Reason == ReasonInsufficientSource {
				insufficient[a.ContextLength]++
			}
			mu.Unlock()

			if err := p.sink.Write(result); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			results[i] = result

			if p.progress != nil {
				p.progress.Increment()
			}
			return nil
		})
	}

	err := g.Wait()
	if p.progress != nil {
		p.progress.Finish()
	}
	if err != nil {
		return collectResults(results), err
	}

	if badLengths := exhaustedLengths(attempted, insufficient); len(badLengths) > 0 {
		return collectResults(results), &InsufficientSourceError{Lengths: badLengths}
	}

	return collectResults(results), ctx.Err()
}

// runOne executes a single assignment. The returned error is only the
// context build failure, surfaced so Run can detect length exhaustion;
// every other failure is already folded into the Result status.
func (p *Pipeline) runOne(ctx context.Context, a Assignment) (*Result, error) {
	q := &p.questions[a.QuestionIndex]
	result := p.newResult(q, a)

	contextText, buildErr := p.contextFor(q, a)
	if buildErr != nil {
		slog.Warn("Context build failed",
			"question", q.Preview(),
			"context_length", a.ContextLength,
			"error", buildErr)
		p.finish(result, nil, answer.StatusContextBuildError)
		return result, buildErr
	}

	system, user := p.prompter.Testing(contextText, q.Text, q.Choices)

	response, err := p.invoker.Invoke(ctx, system, user)
	if err != nil {
		status := classifyInvokeError(err)
		slog.Warn("Model call failed", "question", q.Preview(), "status", status, "error", err)
		p.finish(result, nil, status)
		return result, nil
	}
	if response == "" {
		p.finish(result, nil, answer.StatusRefused)
		return result, nil
	}

	keys, status := answer.Parse(response)
	if status == answer.StatusParsingError && answer.IsRefusal(response) {
		status = answer.StatusRefused
	}

	p.finish(result, answer.Normalize(keys, q.Choices), status)
	return result, nil
}

// contextFor produces the context text for an assignment according to
// the run mode.
func (p *Pipeline) contextFor(q *question.Question, a Assignment) (string, error) {
	switch {
	case p.cfg.Mode == ModeNoReference:
		return p.cfg.NovelSummary, nil

	case p.cfg.Legacy:
		length := min(a.ContextLength, p.builder.SourceLen())
		return p.builder.codec.Decode(p.builder.tokens[:length]), nil

	default:
		built, err := p.builder.Build(*q.Position, a.TargetDepth, a.ContextLength, p.cfg.Padding)
		if err != nil {
			return "", err
		}
		return built.Text, nil
	}
}

// newResult builds the result skeleton with question echo fields and
// cell coordinates.
func (p *Pipeline) newResult(q *question.Question, a Assignment) *Result {
	r := &Result{
		Question:      q.Text,
		Kind:          q.Kind,
		Choices:       q.Choices,
		CorrectAnswer: answer.Normalize(q.Answer, q.Choices),
		ModelAnswer:   []string{},
		Position:      q.Position,
	}

	switch {
	case p.cfg.Mode == ModeNoReference:
		r.TestMode = ModeNoReference
	case p.cfg.Legacy:
		r.TestContextLength = a.ContextLength
	default:
		depth := a.TargetDepth
		r.Depth = &depth
		r.DepthBin = a.DepthBin
		r.TestContextLength = a.ContextLength
		r.TestMode = ModeWithReference
	}

	return r
}

// finish stamps the parsed answer, status, score, and metrics.
func (p *Pipeline) finish(r *Result, modelAnswer []string, status answer.Status) {
	if modelAnswer == nil {
		modelAnswer = []string{}
	}
	r.ModelAnswer = modelAnswer
	r.ParsingStatus = status
	r.Score, r.Metrics = answer.Score(r.Kind, r.CorrectAnswer, modelAnswer, status)
}

// classifyInvokeError maps invoker failures to terminal statuses.
func classifyInvokeError(err error) answer.Status {
	if errors.Is(err, context.DeadlineExceeded) {
		return answer.StatusTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return answer.StatusTimeout
	}
	return answer.StatusError
}

// exhaustedLengths returns lengths where every attempted build failed
// on insufficient source, sorted for stable error text.
func exhaustedLengths(attempted, insufficient map[int]int) []int {
	var lengths []int
	for length, n := range insufficient {
		if n == attempted[length] && n > 0 {
			lengths = append(lengths, length)
		}
	}
	sort.Ints(lengths)
	return lengths
}

// collectResults drops slots never dispatched (cancellation before
// dispatch) while preserving assignment order.
func collectResults(results []*Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// Package bench implements the depth-aware evaluation engine: context
// construction, depth scheduling, recovery merging, and the concurrent
// execution pipeline.
//
// The engine is deterministic given identical inputs and tokenizer.
// The only nondeterminism in a run is the completion order of
// concurrent model calls, so result files are treated as sets of
// records keyed by (question, cell), never as sequences.
package bench

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kadirpekel/depthbench/pkg/answer"
	"github.com/kadirpekel/depthbench/pkg/jsonl"
	"github.com/kadirpekel/depthbench/pkg/question"
)

// TestMode distinguishes runs that answer from a built context against
// runs that answer from the question set's novel summary.
type TestMode string

const (
	ModeWithReference TestMode = "with_reference"
	ModeNoReference   TestMode = "no_reference"
)

// Result is the per-assignment outcome, one JSONL line in the result
// file. Depth fields are present only for depth-aware runs.
type Result struct {
	Question      string             `json:"question"`
	Kind          question.Kind      `json:"question_type"`
	Choices       map[string]string  `json:"choice"`
	CorrectAnswer []string           `json:"correct_answer"`
	ModelAnswer   []string           `json:"model_answer"`
	ParsingStatus answer.Status      `json:"parsing_status"`
	Position      *question.Position `json:"position,omitempty"`
	Score         float64            `json:"score"`
	Metrics       *answer.Metrics    `json:"metrics,omitempty"`

	Depth             *float64 `json:"depth,omitempty"`
	DepthBin          string   `json:"depth_bin,omitempty"`
	TestContextLength int      `json:"test_context_length,omitempty"`
	TestMode          TestMode `json:"test_mode,omitempty"`
}

// RunMetadata is the leading line of a result file, recording the run
// configuration for reporting and recovery.
type RunMetadata struct {
	RunID           string `json:"run_id,omitempty"`
	TestedAt        string `json:"tested_at"`
	ModelName       string `json:"model_name"`
	NovelPath       string `json:"novel_path"`
	QuestionSetPath string `json:"question_set_path"`

	ContextLength  int    `json:"context_length,omitempty"`
	ContextLengths []int  `json:"context_lengths,omitempty"`
	DepthMode      string `json:"depth_mode,omitempty"`

	DepthBins   []string `json:"depth_bins,omitempty"`
	PaddingSize int      `json:"padding_size"`
	TestMode    TestMode `json:"test_mode,omitempty"`

	TotalQuestions  int `json:"total_questions"`
	TestedQuestions int `json:"tested_questions"`

	Config              *RunConfigMetadata     `json:"config,omitempty"`
	QuestionSetMetadata map[string]interface{} `json:"question_set_metadata,omitempty"`
}

// RunConfigMetadata echoes the model call parameters into the result
// file so reruns can be reproduced.
type RunConfigMetadata struct {
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	Concurrency    int     `json:"concurrency"`
	RetryTimes     int     `json:"retry_times"`
}

// Timestamp returns the current time in the wire format used by
// tested_at.
func Timestamp() string {
	return time.Now().Format(time.RFC3339)
}

// ResultFile is a loaded result file: optional metadata plus results
// in file order.
type ResultFile struct {
	Metadata *RunMetadata
	Results  []Result
}

// LoadResultFile reads a result JSONL file. The first line is treated
// as metadata when it carries a "metadata" object; result lines that
// fail to decode are an error, not a skip, since a corrupt result file
// would silently poison recovery.
func LoadResultFile(path string) (*ResultFile, error) {
	file := &ResultFile{}

	err := jsonl.ForEach(path, func(lineNum int, line []byte) error {
		if lineNum == 1 {
			var header struct {
				Metadata *RunMetadata `json:"metadata"`
			}
			if err := json.Unmarshal(line, &header); err == nil && header.Metadata != nil {
				file.Metadata = header.Metadata
				return nil
			}
		}

		var r Result
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("line %d: invalid result record: %w", lineNum, err)
		}
		file.Results = append(file.Results, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load result file: %w", err)
	}

	return file, nil
}

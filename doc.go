// Package depthbench provides a depth-aware long-context benchmark for
// large language models.
//
// Depthbench places a known evidence passage at a controlled fractional
// depth inside a context window assembled to an exact token length, asks
// the model a multiple-choice question about that passage, and scores the
// answer. Sweeping depth and context length produces a grid of results
// that exposes positional weaknesses such as "lost in the middle".
//
// # Quick Start
//
// Install the CLI:
//
//	go install github.com/kadirpekel/depthbench/cmd/depthbench@latest
//
// Run a depth sweep against a question set:
//
//	depthbench test \
//	  --novel novel.txt \
//	  --data_set questions.jsonl \
//	  --output results.jsonl \
//	  --context-lengths 8000,32000,128000 \
//	  --depth-mode uniform
//
// Render the results as a depth/length heatmap:
//
//	depthbench heatmap results.jsonl --mode accuracy
//
// # Key Concepts
//
//   - Evidence: the span of the source novel a question is about,
//     located by token positions recorded in the question set.
//   - Depth: the fractional position of the evidence inside the
//     assembled context, 0.0 (start) through 1.0 (end).
//   - Depth bin: one of five canonical depths (0%, 25%, 50%, 75%, 100%)
//     results are grouped under.
//   - Assignment: one (question, context length, depth) cell of the
//     sweep, producing exactly one result line.
//
// # Using as Go Library
//
// Import specific packages:
//
//	import (
//	    "github.com/kadirpekel/depthbench/pkg/bench"
//	    "github.com/kadirpekel/depthbench/pkg/tokenizer"
//	    "github.com/kadirpekel/depthbench/pkg/question"
//	)
//
// All token arithmetic is BPE-exact: contexts are assembled and measured
// with the same tokenizer the judged model family uses, so a requested
// context length is honored within a one-percent tolerance.
package depthbench

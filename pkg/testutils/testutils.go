// Package testutils provides shared fixtures for depthbench tests.
//
// Tests must run offline and deterministically, so the fixtures here
// replace the two external collaborators: the BPE tokenizer (RuneCodec)
// and the model endpoint (ScriptedInvoker).
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// RuneCodec is a tokenizer.Codec that maps every rune to one token.
// Token arithmetic becomes rune arithmetic, so positions and lengths
// can be asserted exactly without shipping BPE vocabularies.
type RuneCodec struct{}

func (RuneCodec) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (RuneCodec) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, tok := range tokens {
		runes[i] = rune(tok)
	}
	return string(runes)
}

func (RuneCodec) Count(text string) int {
	return len([]rune(text))
}

// Novel generates a deterministic synthetic source document of at least
// n tokens under RuneCodec (runes). Sentences end with ". " and every
// fifth sentence ends a paragraph, so boundary snapping has real
// targets to find.
func Novel(n int) string {
	var b strings.Builder
	b.Grow(n + 64)

	sentence := 0
	for b.Len() < n {
		for w := 0; w <= sentence%4+3; w++ {
			fmt.Fprintf(&b, "word%d ", (sentence+w)%10)
		}
		sentence++
		if sentence%5 == 0 {
			b.WriteString("end.\n\n")
		} else {
			b.WriteString("stop. ")
		}
	}

	return b.String()
}

// ScriptedInvoker is a model invoker for pipeline tests. It replies
// with Response (or per-call responses from Script) and records every
// call. MaxInFlight tracks the high-water mark of concurrent calls so
// tests can assert pool bounds.
type ScriptedInvoker struct {
	// Response is returned when Script is exhausted or empty.
	Response string

	// Script holds per-call responses, consumed in call order.
	Script []string

	// Err, when set, is returned instead of a response.
	Err error

	// Block, when non-nil, is received from before each call returns.
	// Lets tests hold calls open to observe concurrency.
	Block chan struct{}

	mu          sync.Mutex
	calls       int
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (s *ScriptedInvoker) Invoke(ctx context.Context, system, user string) (string, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxInFlight.Load()
		if cur <= prev || s.maxInFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	if s.Block != nil {
		select {
		case <-s.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.Script) > 0 {
		resp := s.Script[0]
		s.Script = s.Script[1:]
		return resp, nil
	}
	return s.Response, nil
}

// Calls returns how many invocations completed.
func (s *ScriptedInvoker) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MaxInFlight returns the highest number of concurrent invocations seen.
func (s *ScriptedInvoker) MaxInFlight() int {
	return int(s.maxInFlight.Load())
}

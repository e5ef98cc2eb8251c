// Package tokenizer provides BPE tokenization with boundary detection
// utilities.
//
// All token arithmetic in a benchmark run flows through one pinned
// encoding so that question positions, context lengths, and evidence
// offsets agree. The default encoding is cl100k_base.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the pinned encoding used unless overridden.
const DefaultEncoding = "cl100k_base"

// Codec encodes and decodes text under a pinned byte-pair encoding.
// Implementations must be lossless for valid UTF-8 input and safe for
// concurrent use.
type Codec interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

// Encoding is a Codec backed by a tiktoken BPE encoding.
type Encoding struct {
	encoding *tiktoken.Tiktoken
	name     string
	mu       sync.RWMutex
}

var (
	// Cache encodings to avoid repeated initialization
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// New creates an Encoding by tiktoken encoding name (e.g., "cl100k_base").
func New(encodingName string) (*Encoding, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[encodingName]
	cacheMu.RUnlock()

	if exists {
		return &Encoding{encoding: cached, name: encodingName}, nil
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}

	cacheMu.Lock()
	encodingCache[encodingName] = encoding
	cacheMu.Unlock()

	return &Encoding{encoding: encoding, name: encodingName}, nil
}

// ForModel creates an Encoding for a specific model, falling back to
// cl100k_base when the model is unknown to tiktoken.
func ForModel(model string) (*Encoding, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()

	if exists {
		return &Encoding{encoding: cached, name: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base (GPT-4, GPT-3.5-turbo, text-embedding-ada-002)
		encoding, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &Encoding{encoding: encoding, name: model}, nil
}

// Encode converts text to token IDs.
func (e *Encoding) Encode(text string) []int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.encoding.Encode(text, nil, nil)
}

// Decode converts token IDs back to text.
func (e *Encoding) Decode(tokens []int) string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.encoding.Decode(tokens)
}

// Count returns the token count for text.
func (e *Encoding) Count(text string) int {
	return len(e.Encode(text))
}

// Name returns the encoding or model name this Encoding was built for.
func (e *Encoding) Name() string {
	return e.name
}

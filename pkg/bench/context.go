package bench

import (
	"fmt"
	"math"

	"github.com/kadirpekel/depthbench/pkg/question"
	"github.com/kadirpekel/depthbench/pkg/tokenizer"
)

// BuildReason classifies why a context build failed.
type BuildReason string

const (
	// ReasonEvidenceTooLarge: the boundary-snapped evidence span does
	// not fit inside the requested context length.
	ReasonEvidenceTooLarge BuildReason = "evidence_too_large"

	// ReasonInsufficientSource: the source document cannot supply both
	// fillers outside the evidence range.
	ReasonInsufficientSource BuildReason = "insufficient_source"
)

// BuildError is a per-assignment context construction failure. The
// pipeline records it as a context_build_error result and continues.
type BuildError struct {
	Reason BuildReason
	Detail string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("context build failed (%s): %s", e.Reason, e.Detail)
}

// BuiltContext is a successfully assembled test context. Token offsets
// are measured by re-encoding the decoded segments, so they are exact
// under the builder's codec.
type BuiltContext struct {
	// Text is the assembled context.
	Text string

	// ActualDepth is prefix_len / (context_length − evidence_len),
	// 0 when the evidence fills the whole context.
	ActualDepth float64

	// EvidenceStart and EvidenceEnd are the token offsets of the
	// evidence inside Text.
	EvidenceStart int
	EvidenceEnd   int

	PrefixLen   int
	EvidenceLen int
	SuffixLen   int
	TotalLen    int
}

// Builder assembles fixed-length contexts with evidence at a target
// fractional depth. The source token sequence is shared read-only;
// a Builder is safe for concurrent use.
type Builder struct {
	codec  tokenizer.Codec
	tokens []int
}

// NewBuilder wraps the source document's token sequence.
func NewBuilder(codec tokenizer.Codec, tokens []int) *Builder {
	return &Builder{codec: codec, tokens: tokens}
}

// SourceLen returns the source document length in tokens.
func (b *Builder) SourceLen() int {
	return len(b.tokens)
}

// Build assembles a context of contextLength tokens (within one
// percent) in which the question's evidence sits at targetDepth.
//
// The evidence span is padded outward, then snapped to sentence
// boundaries: the left edge backward, the right edge forward. Filler
// on either side is drawn deterministically from the earliest
// available non-evidence tokens in document order, so identical inputs
// always produce identical contexts. The seam where filler skips over
// the evidence region falls on the snapped evidence edges, which are
// themselves sentence boundaries.
func (b *Builder) Build(pos question.Position, targetDepth float64, contextLength, padding int) (*BuiltContext, error) {
	if targetDepth < 0 || targetDepth > 1 {
		return nil, fmt.Errorf("invalid target depth %g, must be in [0, 1]", targetDepth)
	}

	// Pad, then snap to readable boundaries.
	evStart := max(0, pos.StartPos-padding)
	evEnd := min(len(b.tokens), pos.EndPos+padding)
	evStart = tokenizer.FindBoundary(b.codec, b.tokens, evStart, tokenizer.Backward)
	evEnd = tokenizer.FindBoundary(b.codec, b.tokens, evEnd, tokenizer.Forward)

	evidenceLen := evEnd - evStart
	if evidenceLen > contextLength {
		return nil, &BuildError{
			Reason: ReasonEvidenceTooLarge,
			Detail: fmt.Sprintf("evidence length %d exceeds context length %d", evidenceLen, contextLength),
		}
	}

	filler := contextLength - evidenceLen
	prefixNeed := int(math.Round(targetDepth * float64(filler)))
	suffixNeed := filler - prefixNeed

	available := evStart + (len(b.tokens) - evEnd)
	if available < filler {
		return nil, &BuildError{
			Reason: ReasonInsufficientSource,
			Detail: fmt.Sprintf("need %d filler tokens outside evidence, source has %d", filler, available),
		}
	}

	prefix, next := b.takeFiller(0, evStart, evEnd, prefixNeed)
	suffix, _ := b.takeFiller(next, evStart, evEnd, suffixNeed)

	prefixText := b.codec.Decode(prefix)
	evidenceText := b.codec.Decode(b.tokens[evStart:evEnd])
	suffixText := b.codec.Decode(suffix)

	// Re-measure after decoding: a cut can change BPE merges at the
	// segment edges.
	prefixLen := b.codec.Count(prefixText)
	evLen := b.codec.Count(evidenceText)
	suffixLen := b.codec.Count(suffixText)

	actualDepth := 0.0
	if contextLength > evLen {
		actualDepth = float64(prefixLen) / float64(contextLength-evLen)
	}

	return &BuiltContext{
		Text:          prefixText + evidenceText + suffixText,
		ActualDepth:   actualDepth,
		EvidenceStart: prefixLen,
		EvidenceEnd:   prefixLen + evLen,
		PrefixLen:     prefixLen,
		EvidenceLen:   evLen,
		SuffixLen:     suffixLen,
		TotalLen:      prefixLen + evLen + suffixLen,
	}, nil
}

// takeFiller collects n tokens from the non-evidence regions, starting
// at document position from and moving forward, skipping over the
// evidence range [evStart, evEnd). It returns the tokens and the
// document position just past the last token taken, so a subsequent
// call continues where this one stopped.
func (b *Builder) takeFiller(from, evStart, evEnd, n int) ([]int, int) {
	if n <= 0 {
		return nil, from
	}

	out := make([]int, 0, n)
	pos := from

	for len(out) < n && pos < len(b.tokens) {
		if pos >= evStart && pos < evEnd {
			pos = evEnd
			continue
		}

		runEnd := len(b.tokens)
		if pos < evStart {
			runEnd = evStart
		}
		take := min(n-len(out), runEnd-pos)
		out = append(out, b.tokens[pos:pos+take]...)
		pos += take
	}

	return out, pos
}

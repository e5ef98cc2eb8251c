package tokenizer

import "regexp"

// Direction selects which way a boundary search scans.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// BoundarySearchLimit caps how many tokens a boundary search inspects
// before giving up and hard-cutting at the requested position.
const BoundarySearchLimit = 100

var (
	// Paragraph boundary: double newline.
	paragraphPattern = regexp.MustCompile(`\n\n`)
	// Sentence boundary: terminator (incl. CJK) followed by whitespace.
	sentencePattern = regexp.MustCompile(`[.!?。！？]\s`)
)

// FindBoundary returns a token index at or near pos that falls on a
// paragraph or sentence boundary. It decodes up to BoundarySearchLimit
// tokens in the given direction and scans the text for a boundary,
// preferring paragraph breaks. Forward searches return the first
// boundary at or after pos; backward searches return the last boundary
// before pos. If no boundary exists within the window, pos itself is
// returned (hard cutoff).
//
// The returned index is derived by re-encoding the decoded prefix, so
// it is exact under the same codec even when the cut changes BPE
// merges.
func FindBoundary(c Codec, tokens []int, pos int, dir Direction) int {
	switch dir {
	case Forward:
		end := min(len(tokens), pos+BoundarySearchLimit)
		if pos >= end {
			return pos
		}
		window := c.Decode(tokens[pos:end])

		if loc := paragraphPattern.FindStringIndex(window); loc != nil {
			return pos + c.Count(window[:loc[1]])
		}
		if loc := sentencePattern.FindStringIndex(window); loc != nil {
			return pos + c.Count(window[:loc[1]])
		}

	case Backward:
		start := max(0, pos-BoundarySearchLimit)
		if start >= pos {
			return pos
		}
		window := c.Decode(tokens[start:pos])

		if locs := paragraphPattern.FindAllStringIndex(window, -1); len(locs) > 0 {
			return start + c.Count(window[:locs[len(locs)-1][1]])
		}
		if locs := sentencePattern.FindAllStringIndex(window, -1); len(locs) > 0 {
			return start + c.Count(window[:locs[len(locs)-1][1]])
		}
	}

	return pos
}

package tokenizer

import "testing"

// runeCodec maps every rune to one token. Deterministic and offline, so
// boundary arithmetic can be asserted exactly.
type runeCodec struct{}

func (runeCodec) Encode(text string) []int {
	runes := []rune(text)
	tokens := make([]int, len(runes))
	for i, r := range runes {
		tokens[i] = int(r)
	}
	return tokens
}

func (runeCodec) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, tok := range tokens {
		runes[i] = rune(tok)
	}
	return string(runes)
}

func (runeCodec) Count(text string) int {
	return len([]rune(text))
}

func TestFindBoundaryForward(t *testing.T) {
	c := runeCodec{}
	text := "First sentence. Second sentence here. Third one."
	tokens := c.Encode(text)

	// Nearest ". " after pos 5 ends at offset 16
	got := FindBoundary(c, tokens, 5, Forward)
	if got != 16 {
		t.Errorf("expected boundary at 16, got %d", got)
	}
}

func TestFindBoundaryBackward(t *testing.T) {
	c := runeCodec{}
	text := "First sentence. Second sentence here. Third one."
	tokens := c.Encode(text)

	// Last ". " before pos 30 ends at offset 16
	got := FindBoundary(c, tokens, 30, Backward)
	if got != 16 {
		t.Errorf("expected boundary at 16, got %d", got)
	}

	// Last ". " before pos 45 ends at offset 38
	got = FindBoundary(c, tokens, 45, Backward)
	if got != 38 {
		t.Errorf("expected boundary at 38, got %d", got)
	}
}

func TestFindBoundaryPrefersParagraph(t *testing.T) {
	c := runeCodec{}
	text := "One. Two.\n\nThree. Four."
	tokens := c.Encode(text)

	// The sentence boundary at offset 5 is nearer, but the paragraph
	// break ending at offset 11 wins.
	got := FindBoundary(c, tokens, 0, Forward)
	if got != 11 {
		t.Errorf("expected paragraph boundary at 11, got %d", got)
	}
}

func TestFindBoundaryHardCutoff(t *testing.T) {
	c := runeCodec{}

	// No terminator anywhere: scan gives up at the requested position.
	text := "word word word word word word"
	tokens := c.Encode(text)
	if got := FindBoundary(c, tokens, 7, Forward); got != 7 {
		t.Errorf("expected hard cutoff at 7, got %d", got)
	}
	if got := FindBoundary(c, tokens, 7, Backward); got != 7 {
		t.Errorf("expected hard cutoff at 7, got %d", got)
	}
}

func TestFindBoundarySearchLimit(t *testing.T) {
	c := runeCodec{}

	// Boundary exists but beyond the search window.
	padding := make([]byte, 150)
	for i := range padding {
		padding[i] = 'a'
	}
	text := string(padding) + ". end"
	tokens := c.Encode(text)

	if got := FindBoundary(c, tokens, 0, Forward); got != 0 {
		t.Errorf("expected hard cutoff at 0, got %d", got)
	}
}

func TestFindBoundaryCJK(t *testing.T) {
	c := runeCodec{}
	text := "你好。 世界很大。 结束"
	tokens := c.Encode(text)

	// 。 followed by a space ends at rune offset 4
	got := FindBoundary(c, tokens, 0, Forward)
	if got != 4 {
		t.Errorf("expected boundary at 4, got %d", got)
	}
}

func TestFindBoundaryAtEdges(t *testing.T) {
	c := runeCodec{}
	text := "Short. Text."
	tokens := c.Encode(text)

	if got := FindBoundary(c, tokens, len(tokens), Forward); got != len(tokens) {
		t.Errorf("expected position unchanged at end, got %d", got)
	}
	if got := FindBoundary(c, tokens, 0, Backward); got != 0 {
		t.Errorf("expected position unchanged at start, got %d", got)
	}
}

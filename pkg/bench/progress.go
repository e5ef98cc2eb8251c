package bench

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// Progress is an aggregate completion counter, safe under concurrent
// increments. On a terminal it renders in place; otherwise it logs a
// plain line per completion so batch logs stay grep-able.
type Progress struct {
	total  int
	done   atomic.Int64
	out    *os.File
	isTerm bool
}

// NewProgress reports against out (typically stderr).
func NewProgress(total int, out *os.File) *Progress {
	return &Progress{
		total:  total,
		out:    out,
		isTerm: out != nil && term.IsTerminal(int(out.Fd())),
	}
}

// Increment records one completed assignment and refreshes the display.
func (p *Progress) Increment() {
	done := p.done.Add(1)

	if p.isTerm {
		fmt.Fprintf(p.out, "\rTesting %d/%d", done, p.total)
		return
	}
	slog.Info("Progress", "completed", done, "total", p.total)
}

// Done returns the number of completed assignments.
func (p *Progress) Done() int {
	return int(p.done.Load())
}

// Finish terminates the in-place line on terminals.
func (p *Progress) Finish() {
	if p.isTerm && p.done.Load() > 0 {
		fmt.Fprintln(p.out)
	}
}

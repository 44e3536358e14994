package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// reembedMeter reports how far a reembedding run has come. Batches feed it
// through Advance as their utterances are rewritten, and it prints a
// carriage-return progress line once enough utterances have accumulated
// since the previous one. Safe for concurrent use.
type reembedMeter struct {
	mu    sync.Mutex
	out   io.Writer
	total int // utterances the run will rewrite
	done  int // utterances rewritten so far
	every int // print after this many new utterances
	last  int // done when the previous line was printed
	begun time.Time
}

// newReembedMeter starts the clock immediately, so it should be created
// right before the first batch is processed.
func newReembedMeter(out io.Writer, total, every int) *reembedMeter {
	return &reembedMeter{
		out:   out,
		total: total,
		every: every,
		begun: time.Now(),
	}
}

// Advance records that another batch of utterances has been reembedded.
// Counts past the expected total are clamped rather than reported.
func (m *reembedMeter) Advance(utterances int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done += utterances
	if m.done > m.total {
		m.done = m.total
	}

	if m.done-m.last >= m.every {
		m.print()
		m.last = m.done
	}
}

// Done prints the final progress line, terminates it with a newline, and
// returns how long the run took.
func (m *reembedMeter) Done() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.done = m.total
	m.print()
	fmt.Fprintln(m.out)

	return time.Since(m.begun)
}

// print must be called with the lock held.
func (m *reembedMeter) print() {
	percentage := 0.0
	if m.total > 0 {
		percentage = float64(m.done) / float64(m.total) * 100.0
	}
	rate := float64(m.done) / time.Since(m.begun).Seconds()

	fmt.Fprintf(m.out, "\rReembedded %d/%d utterances (%.1f%%) at %.1f/s",
		m.done, m.total, percentage, rate)
}

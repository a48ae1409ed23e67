// Package bufpool implements the single-writer arena used to splice
// multi-chunk bulk payloads into contiguous byte slices.
//
// The pool is deliberately not safe for concurrent use: it backs one
// resp.Parser, and a parser instance is single-threaded per the RESP
// parser's concurrency contract. Unlike a timer-driven decay in an
// event-loop runtime (where the timer callback and ordinary code never
// truly run in parallel), a Go time.AfterFunc fires on its own
// goroutine and would race with Acquire. To keep the "no lock, single
// writer" contract honest in Go, decay is checked lazily on every
// Acquire call instead of from a background timer.
package bufpool

import (
	"time"

	"github.com/valyala/bytebufferpool"
	"go.uber.org/zap"
)

const (
	initialSize    = 32 * 1024
	decayInterval  = 50 * time.Millisecond
	decayFloor     = 50 * 1024
	decayFactor    = 0.10
	carryClamp     = 50 * 1024 * 1024
	carryThreshold = 111 * 1024 * 1024
	growThreshold  = 75 * 1024 * 1024
)

// Pool is a process- or parser-scoped arena: one growable buffer plus
// a write cursor. Acquire returns a view into the arena and advances
// the cursor; once the arena runs out of room it is reallocated per
// the grow formula below, and a lazily-checked decay walks the size
// back down while the pool sees no further growth pressure.
type Pool struct {
	arena  *bytebufferpool.ByteBuffer
	cursor int

	lastGrow    time.Time
	lastDecayAt time.Time
	decaying    bool

	logger *zap.Logger
}

// New creates a pool with the default 32 KiB initial arena. logger may
// be nil; if set, growth and decay events are logged at debug level.
func New(logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		arena:  &bytebufferpool.ByteBuffer{B: make([]byte, initialSize)},
		logger: logger,
	}
}

// Len returns the current arena size in bytes.
func (p *Pool) Len() int { return len(p.arena.B) }

func (p *Pool) free() int { return len(p.arena.B) - p.cursor }

// Acquire returns a fresh, zero-valued n-byte slice cut from the
// arena, growing (and possibly decaying first) as needed. The
// returned slice remains valid only until the next call to Acquire
// that forces a grow; callers must finish using it — e.g. by handing
// it to a synchronous reply callback — before requesting more.
func (p *Pool) Acquire(n int) []byte {
	p.tickDecay()
	if n > p.free() {
		p.grow(n)
	}
	b := p.arena.B[p.cursor : p.cursor+n]
	p.cursor += n
	return b
}

func (p *Pool) grow(n int) {
	carry := p.free()
	if carry > carryThreshold {
		carry = carryClamp
	}
	mult := 3
	if n > growThreshold {
		mult = 2
	}
	newSize := n*mult + carry
	p.arena.B = make([]byte, newSize)
	p.cursor = 0
	p.lastGrow = now()
	p.lastDecayAt = p.lastGrow
	p.decaying = true
	p.logger.Debug("bufpool grow",
		zap.Int("acquired", n),
		zap.Int("carry", carry),
		zap.Int("new_size", newSize),
	)
}

// tickDecay applies as many 50ms decay steps as have elapsed since the
// last check, shrinking the arena by 10% each step until it reaches
// the 50 KiB floor.
func (p *Pool) tickDecay() {
	if !p.decaying {
		return
	}
	t := now()
	for t.Sub(p.lastDecayAt) >= decayInterval {
		p.lastDecayAt = p.lastDecayAt.Add(decayInterval)
		if !p.decayStep() {
			p.decaying = false
			return
		}
	}
}

func (p *Pool) decayStep() bool {
	cur := len(p.arena.B)
	if cur <= decayFloor {
		return false
	}
	next := cur - int(float64(cur)*decayFactor)
	if next < decayFloor {
		next = decayFloor
	}
	keep := p.cursor
	if keep > next {
		keep = next
	}
	na := make([]byte, next)
	copy(na, p.arena.B[:keep])
	p.arena.B = na
	if p.cursor > next {
		p.cursor = next
	}
	p.logger.Debug("bufpool decay", zap.Int("new_size", next))
	return next > decayFloor
}

// now is a seam so tests can't observe real-clock flakiness; production
// always uses wall-clock time.
var now = time.Now

package bufpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultSize(t *testing.T) {
	p := New(nil)
	assert.Equal(t, 32*1024, p.Len())
}

func TestAcquireWithinArena(t *testing.T) {
	p := New(nil)
	b := p.Acquire(100)
	assert.Len(t, b, 100)
	assert.Equal(t, 32*1024, p.Len())
}

func TestAcquireGrows(t *testing.T) {
	p := New(nil)
	n := 64 * 1024
	b := p.Acquire(n)
	assert.Len(t, b, n)
	assert.True(t, p.Len() >= n)
}

func TestAcquireGrowFormulaSmall(t *testing.T) {
	p := New(nil)
	n := 100 * 1024 // bigger than the 32KiB initial arena, below the 75MiB threshold
	carry := p.Len()
	p.Acquire(n)
	assert.Equal(t, n*3+carry, p.Len())
}

func TestAcquireGrowFormulaLarge(t *testing.T) {
	p := New(nil)
	n := 80 * 1024 * 1024 // above the 75MiB threshold -> 2x multiplier
	carry := p.Len()
	p.Acquire(n)
	assert.Equal(t, n*2+carry, p.Len())
}

func TestDecayShrinksOverTime(t *testing.T) {
	p := New(nil)
	p.Acquire(1024 * 1024)
	grown := p.Len()

	base := now()
	now = func() time.Time { return base }
	defer func() { now = time.Now }()

	for i := 0; i < 60; i++ {
		now = func(t time.Time) func() time.Time {
			return func() time.Time { return t }
		}(base.Add(time.Duration(i+1) * decayInterval))
		p.tickDecay()
	}
	assert.Less(t, p.Len(), grown)
}

func TestDecayStopsAtFloor(t *testing.T) {
	p := New(nil)
	p.Acquire(1024 * 1024)

	base := now()
	for i := 0; i < 10_000; i++ {
		now = func(t time.Time) func() time.Time {
			return func() time.Time { return t }
		}(base.Add(time.Duration(i+1) * decayInterval))
		p.tickDecay()
		if p.Len() <= decayFloor {
			break
		}
	}
	now = time.Now
	assert.Equal(t, decayFloor, p.Len())
	assert.False(t, p.decaying)
}

func TestAcquireAdvancesCursor(t *testing.T) {
	p := New(nil)
	a := p.Acquire(10)
	b := p.Acquire(10)
	for i := range a {
		a[i] = 1
	}
	for i := range b {
		assert.Equal(t, byte(0), b[i])
	}
}

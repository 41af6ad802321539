package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtEpoch(t *testing.T) {
	c := NewDeterministicClock()
	assert.Equal(t, Epoch, c.Now())
}

func TestDeterministicClock_AdvancesPerCall(t *testing.T) {
	c := NewDeterministicClock()

	first := c.Now()
	second := c.Now()
	assert.Equal(t, time.Second, second.Sub(first))
	assert.Equal(t, Epoch.Add(2*time.Second), c.Peek())
}

func TestDeterministicClock_ZeroStepFreezes(t *testing.T) {
	start := time.Date(2023, 2, 3, 4, 5, 6, 0, time.UTC)
	c := NewDeterministicClockAt(start, 0)
	assert.Equal(t, start, c.Now())
	assert.Equal(t, start, c.Now())
}

func TestDeterministicClock_AdvanceAndReset(t *testing.T) {
	c := NewDeterministicClock()
	c.Advance(time.Hour)
	assert.Equal(t, Epoch.Add(time.Hour), c.Now())

	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	c := NewDeterministicClock()
	const goroutines = 20
	const calls = 50

	var mu sync.Mutex
	seen := make(map[time.Time]bool)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				now := c.Now()
				mu.Lock()
				seen[now] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, seen, goroutines*calls, "every call must return a distinct instant")
}

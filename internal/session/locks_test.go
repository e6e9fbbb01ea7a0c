package session

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLocks_TryAcquire(t *testing.T) {
	locks := NewLocks()
	id := uuid.New()

	assert.True(t, locks.TryAcquire(id))
	assert.True(t, locks.Busy(id))
	assert.False(t, locks.TryAcquire(id), "second acquire must be rejected, not queued")

	locks.Release(id)
	assert.False(t, locks.Busy(id))
	assert.True(t, locks.TryAcquire(id))
}

func TestLocks_IndependentSessions(t *testing.T) {
	locks := NewLocks()
	a, b := uuid.New(), uuid.New()

	assert.True(t, locks.TryAcquire(a))
	assert.True(t, locks.TryAcquire(b), "locks are per session, not global")
}

func TestLocks_ReleaseUnheldIsNoop(t *testing.T) {
	locks := NewLocks()
	id := uuid.New()

	locks.Release(id)
	assert.True(t, locks.TryAcquire(id))
}

func TestLocks_Forget(t *testing.T) {
	locks := NewLocks()
	id := uuid.New()

	assert.True(t, locks.TryAcquire(id))
	locks.Forget(id)
	assert.True(t, locks.TryAcquire(id))
}

func TestLocks_SingleFlightUnderConcurrency(t *testing.T) {
	locks := NewLocks()
	id := uuid.New()

	const attempts = 100
	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if locks.TryAcquire(id) {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load(), "exactly one concurrent acquire may win")
}

package signing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocLocksMutualExclusion(t *testing.T) {
	locks := newDocLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("doc")
			counter++ // protected solely by the doc lock
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestDocLocksEntriesReleased(t *testing.T) {
	locks := newDocLocks()

	unlockA := locks.lock("a")
	unlockB := locks.lock("b")

	locks.mu.Lock()
	assert.Len(t, locks.entries, 2)
	locks.mu.Unlock()

	unlockA()
	unlockB()

	locks.mu.Lock()
	assert.Empty(t, locks.entries, "released documents must not linger in the map")
	locks.mu.Unlock()
}

func TestDocLocksWaiterReusesEntry(t *testing.T) {
	locks := newDocLocks()

	unlock := locks.lock("doc")

	acquired := make(chan struct{})
	done := make(chan struct{})
	go func() {
		second := locks.lock("doc")
		close(acquired)
		second()
		close(done)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	default:
	}

	unlock()
	<-done

	locks.mu.Lock()
	require.Empty(t, locks.entries)
	locks.mu.Unlock()
}

package worker

import (
	"sync"
	"testing"
	"time"
)

func TestWorkLocksSerializesSameWork(t *testing.T) {
	locks := newWorkLocks()

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			locks.Lock("w1")
			defer locks.Unlock("w1")

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxInCritical != 1 {
		t.Fatalf("%d goroutines inside the same work lock at once, want 1", maxInCritical)
	}
}

func TestWorkLocksIndependentWorks(t *testing.T) {
	locks := newWorkLocks()

	locks.Lock("w1")
	defer locks.Unlock("w1")

	// a different work must not be blocked by w1's holder
	acquired := make(chan struct{})
	go func() {
		locks.Lock("w2")
		defer locks.Unlock("w2")
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock on a different work blocked")
	}
}

func TestWorkLocksReclaimsEntries(t *testing.T) {
	locks := newWorkLocks()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				locks.Lock("w1")
				locks.Unlock("w1")
			}
		}()
	}
	wg.Wait()

	if got := locks.size(); got != 0 {
		t.Fatalf("%d live lock entries after all holders released, want 0", got)
	}
}

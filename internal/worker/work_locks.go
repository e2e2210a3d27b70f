package worker

import (
	"sync"
)

// workLocks hands out one mutex per workId so comparisons within a work are
// serialized while different works process in parallel. Entries are created
// lazily and reclaimed once the last holder releases them.
type workLocks struct {
	mu    sync.Mutex
	locks map[string]*workLock
}

type workLock struct {
	mu   sync.Mutex
	refs int
}

func newWorkLocks() *workLocks {
	return &workLocks{
		locks: make(map[string]*workLock),
	}
}

func (l *workLocks) Lock(workID string) {
	l.mu.Lock()
	entry, ok := l.locks[workID]
	if !ok {
		entry = &workLock{}
		l.locks[workID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *workLocks) Unlock(workID string) {
	l.mu.Lock()
	entry := l.locks[workID]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, workID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}

// size reports the number of live entries, for tests.
func (l *workLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

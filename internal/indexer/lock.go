package indexer

import (
	"sync"
	"sync/atomic"
)

// IndexLock provides non-blocking lock semantics using atomic operations.
type IndexLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *IndexLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *IndexLock) Release() {
	l.state.Store(0)
}

// lockTable hands out one IndexLock per source ID so concurrent indexing of
// different sources proceeds while a second pass over the same source is
// rejected.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*IndexLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[string]*IndexLock)}
}

func (t *lockTable) get(sourceID string) *IndexLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[sourceID]
	if !ok {
		lock = &IndexLock{}
		t.locks[sourceID] = lock
	}
	return lock
}

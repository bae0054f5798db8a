package sessions

import (
	"sync"

	"github.com/google/uuid"
)

// tableLocks hands out one mutex per table id and forgets it once no
// goroutine holds or waits for it.
type tableLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tableLock
}

type tableLock struct {
	mu   sync.Mutex
	refs int
}

func newTableLocks() *tableLocks {
	return &tableLocks{locks: make(map[uuid.UUID]*tableLock)}
}

// Lock blocks until the caller owns tableID and returns the release func.
func (l *tableLocks) Lock(tableID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[tableID]
	if !ok {
		lock = &tableLock{}
		l.locks[tableID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(l.locks, tableID)
		}
		l.mu.Unlock()
	}
}

func (l *tableLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

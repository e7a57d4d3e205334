package ledger

import (
	"sync"

	"github.com/google/uuid"
)

// lockArena hands out one mutex per ticket ID so admission to a ticket's
// counter is serialized while unrelated tickets proceed in parallel. Entries
// are never evicted; the arena grows with the ticket catalogue, which is
// bounded and small relative to traffic.
type lockArena struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newLockArena() *lockArena {
	return &lockArena{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (a *lockArena) lockFor(id uuid.UUID) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	if lock, ok := a.locks[id]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	a.locks[id] = lock
	return lock
}

package db

import "sync"

// LockRegistry serializes operations touching one user's state while
// letting different users proceed independently. Entries are created
// lazily and never removed; the per-user footprint is one mutex.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Locks is the shared registry. Every mutation path over a user's tokens,
// memos, cards, or streak record must run between Lock and Unlock for
// that user.
var Locks = NewLockRegistry()

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[int64]*sync.Mutex)}
}

func (r *LockRegistry) Lock(userID int64) {
	r.get(userID).Lock()
}

func (r *LockRegistry) Unlock(userID int64) {
	r.get(userID).Unlock()
}

func (r *LockRegistry) get(userID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}

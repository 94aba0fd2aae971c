package approval

import "sync"

// keyedMutex serializes finalization per entity id, so the first caller to
// observe Pending wins the transition and the ledger effect stays atomic
// with the status write. The ledger's per-group lock nests strictly inside
// an entity lock; nothing acquires them in the reverse order.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) lock(id string) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

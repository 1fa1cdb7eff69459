package vacation

import "sync"

// KeyedMutex hands out one mutex per employee. Entries are reference counted
// and removed once no goroutine holds or waits on them, so the map only grows
// with the number of employees currently being adjudicated.
//
// LockAll excludes every per-employee holder at once. Per-employee locks must
// not be nested.
type KeyedMutex struct {
	all   sync.RWMutex
	mu    sync.Mutex
	locks map[EmployeeID]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[EmployeeID]*keyedEntry)}
}

// Lock blocks until the caller owns the lock for id and returns its release func.
func (k *KeyedMutex) Lock(id EmployeeID) (unlock func()) {
	k.all.RLock()

	k.mu.Lock()
	entry, ok := k.locks[id]
	if !ok {
		entry = &keyedEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			k.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(k.locks, id)
			}
			k.mu.Unlock()

			k.all.RUnlock()
		})
	}
}

// LockAll blocks until no employee lock is held and keeps new ones from
// being taken until the returned func is called.
func (k *KeyedMutex) LockAll() (unlock func()) {
	k.all.Lock()

	var once sync.Once
	return func() {
		once.Do(k.all.Unlock)
	}
}

// size returns the number of live entries (tests only).
func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

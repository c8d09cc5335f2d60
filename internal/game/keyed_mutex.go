package game

import "sync"

// KeyedMutex serializes session read-modify-write cycles per game code.
// The store's documents are written whole, so two unsynchronized writers
// would race last-write-wins; every in-process mutation path locks the
// session's code around its fetch-mutate-save. Cross-process writers remain
// unguarded.
//
// Entries are refcounted and removed when the last holder or waiter
// releases, so the map stays bounded by the number of codes in flight
// rather than every code ever seen.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key and returns its unlock function. The
// unlock function must be called exactly once.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

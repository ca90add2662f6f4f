package app

import "sync"

// keyLocks serialises read-modify-write cycles per storage key within the
// process. Other processes writing the same key still race (last write wins).
type keyLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newKeyLocks() *keyLocks { return &keyLocks{m: map[string]*sync.Mutex{}} }

func (k *keyLocks) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.m[key]
	if !ok {
		l = &sync.Mutex{}
		k.m[key] = l
	}
	k.mu.Unlock()
	l.Lock()
	return l.Unlock
}

package retention

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// KeyedLock is a map of per-key binary semaphores. Different keys never contend;
// entries are dropped once no holder or waiter references them.
type KeyedLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func NewKeyedLock() *KeyedLock {
	return &KeyedLock{entries: map[string]*lockEntry{}}
}

func (k *KeyedLock) ref(key string) *lockEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *KeyedLock) unref(key string, e *lockEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Lock blocks until key is free or ctx is done.
func (k *KeyedLock) Lock(ctx context.Context, key string) (func(), error) {
	e := k.ref(key)
	if err := e.sem.Acquire(ctx, 1); err != nil {
		k.unref(key, e)
		return nil, err
	}
	return k.releaser(key, e), nil
}

// TryLock takes key only if nobody holds it.
func (k *KeyedLock) TryLock(key string) (func(), bool) {
	e := k.ref(key)
	if !e.sem.TryAcquire(1) {
		k.unref(key, e)
		return nil, false
	}
	return k.releaser(key, e), true
}

func (k *KeyedLock) releaser(key string, e *lockEntry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			k.unref(key, e)
		})
	}
}

func (k *KeyedLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

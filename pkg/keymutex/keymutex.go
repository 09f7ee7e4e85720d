// Package keymutex provides per-key mutual exclusion for stat-mutating
// operations. No two operations holding the same key may be in their
// read-modify-write window simultaneously; cross-user operations acquire
// both keys in ascending order so that two concurrent matches sharing a
// pair of users in opposite roles can never deadlock.
// No external dependencies - uses only standard library.
package keymutex

import (
	"context"
	"errors"
	"sync"
)

// ErrLockTimeout is returned when the context expires before the key
// becomes available. The caller must treat the guarded operation's effect
// as not-applied and may retry.
var ErrLockTimeout = errors.New("keymutex: lock acquisition timed out")

// entry is a semaphore with a waiter refcount so idle keys are evicted.
type entry struct {
	sem  chan struct{}
	refs int
}

// KeyedMutex serializes operations per int64 key.
// The zero value is not usable; use New.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[int64]*entry
}

// New creates a KeyedMutex.
func New() *KeyedMutex {
	return &KeyedMutex{
		keys: make(map[int64]*entry),
	}
}

// Lock acquires the mutex for key, blocking until it is available or the
// context is done. On success it returns a release function that must be
// called exactly once.
func (k *KeyedMutex) Lock(ctx context.Context, key int64) (func(), error) {
	k.mu.Lock()
	e, ok := k.keys[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		k.keys[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
		return func() { k.release(key, e) }, nil
	case <-ctx.Done():
		k.drop(key, e)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, ctx.Err()
	}
}

// LockPair acquires both keys in ascending order and returns a single
// release function that unlocks them in reverse order. Equal keys acquire
// a single lock.
func (k *KeyedMutex) LockPair(ctx context.Context, a, b int64) (func(), error) {
	if a == b {
		return k.Lock(ctx, a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	releaseFirst, err := k.Lock(ctx, first)
	if err != nil {
		return nil, err
	}
	releaseSecond, err := k.Lock(ctx, second)
	if err != nil {
		releaseFirst()
		return nil, err
	}

	return func() {
		releaseSecond()
		releaseFirst()
	}, nil
}

// release frees the semaphore and drops the refcount.
func (k *KeyedMutex) release(key int64, e *entry) {
	<-e.sem
	k.drop(key, e)
}

// drop decrements the refcount and evicts the key when idle.
func (k *KeyedMutex) drop(key int64, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.keys, key)
	}
}

// Len returns the number of keys currently tracked (held or contended).
// Intended for tests and health reporting.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}

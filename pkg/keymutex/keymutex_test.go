package keymutex

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSerializesSameKey(t *testing.T) {
	km := New()

	const workers = 100
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()

			release, err := km.Lock(context.Background(), 42)
			require.NoError(t, err)
			defer release()

			// Non-atomic read-modify-write; only mutual exclusion
			// keeps this from losing updates.
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
	assert.Equal(t, 0, km.Len(), "idle keys must be evicted")
}

func TestLockIndependentKeysDoNotBlock(t *testing.T) {
	km := New()

	release1, err := km.Lock(context.Background(), 1)
	require.NoError(t, err)
	defer release1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	release2, err := km.Lock(ctx, 2)
	require.NoError(t, err, "a held key must not block other keys")
	release2()
}

func TestLockTimeout(t *testing.T) {
	km := New()

	release, err := km.Lock(context.Background(), 7)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = km.Lock(ctx, 7)
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()
	assert.Equal(t, 0, km.Len())
}

func TestLockCancellation(t *testing.T) {
	km := New()

	release, err := km.Lock(context.Background(), 7)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = km.Lock(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLockPairOppositeOrdersDoNotDeadlock(t *testing.T) {
	km := New()

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)

	lockUnlock := func(a, b int64) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			release, err := km.LockPair(context.Background(), a, b)
			require.NoError(t, err)
			release()
		}
	}

	done := make(chan struct{})
	go lockUnlock(1, 2)
	go lockUnlock(2, 1)
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock: opposite-order pair acquisition never finished")
	}

	assert.Equal(t, 0, km.Len())
}

func TestLockPairSameKey(t *testing.T) {
	km := New()

	release, err := km.LockPair(context.Background(), 9, 9)
	require.NoError(t, err)
	release()

	// A second acquisition must succeed: equal keys take one lock and the
	// release above freed it.
	release, err = km.LockPair(context.Background(), 9, 9)
	require.NoError(t, err)
	release()

	assert.Equal(t, 0, km.Len())
}

func TestLockPairReleasesFirstOnSecondTimeout(t *testing.T) {
	km := New()

	// Hold the higher key so the pair acquisition stalls on its second lock.
	release, err := km.Lock(context.Background(), 2)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = km.LockPair(ctx, 1, 2)
	require.ErrorIs(t, err, ErrLockTimeout)

	// Key 1 must have been released on failure.
	quick, quickCancel := context.WithTimeout(context.Background(), time.Second)
	defer quickCancel()
	release1, err := km.Lock(quick, 1)
	require.NoError(t, err, "failed pair acquisition must not leak the first lock")
	release1()

	release()
	assert.Equal(t, 0, km.Len())
}

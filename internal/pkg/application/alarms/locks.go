package alarms

import (
	"context"
	"sync"
	"time"
)

// keyedMutex serializes mutations per alarm id. Locks for different ids
// never contend with each other.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: map[string]chan struct{}{},
	}
}

func (k *keyedMutex) get(key string) chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()

	lock, ok := k.locks[key]
	if !ok {
		lock = make(chan struct{}, 1)
		k.locks[key] = lock
	}

	return lock
}

// Lock acquires the lock for key, waiting at most timeout. The returned
// error is ErrConcurrentModification when the holder did not release in time.
func (k *keyedMutex) Lock(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	lock := k.get(key)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-timer.C:
		return nil, ErrConcurrentModification
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

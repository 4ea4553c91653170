// Package lock serialises work on a single order across goroutines (KeyedMutex)
// or across instances (RedisLocker).
package lock

import (
	"context"
	"sync"

	"github.com/Rafcin/openship/internal/domain/order"
	"github.com/google/uuid"
)

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex is a per-order mutex. Entries are dropped when no goroutine
// holds or waits for them.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*keyedEntry
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[uuid.UUID]*keyedEntry)}
}

// Lock blocks until the order is free or ctx is done
func (k *KeyedMutex) Lock(ctx context.Context, orderID uuid.UUID) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[orderID]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.entries[orderID] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(orderID, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(orderID, e)
		})
	}, nil
}

func (k *KeyedMutex) release(orderID uuid.UUID, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, orderID)
	}
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

var _ order.Locker = (*KeyedMutex)(nil)

package cache

import (
	"sync"
	"time"
)

const sweepInterval = 5 * time.Minute

type expiringEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e expiringEntry[V]) live(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// expiringMap is a mutex-guarded map whose entries disappear after their TTL.
// A background sweeper drops expired entries until close is called.
type expiringMap[V any] struct {
	mu        sync.Mutex
	entries   map[string]expiringEntry[V]
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newExpiringMap[V any]() *expiringMap[V] {
	m := &expiringMap[V]{
		entries:  make(map[string]expiringEntry[V]),
		stopChan: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.sweepLoop()
	return m
}

// setIfAbsent stores value unless a live entry already exists
func (m *expiringMap[V]) setIfAbsent(key string, value V, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.entries[key]; ok && e.live(now) {
		return false
	}
	m.entries[key] = expiringEntry[V]{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (m *expiringMap[V]) set(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = expiringEntry[V]{value: value, expiresAt: time.Now().Add(ttl)}
}

func (m *expiringMap[V]) get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !e.live(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// take returns and removes a live entry
func (m *expiringMap[V]) take(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	delete(m.entries, key)
	if !ok || !e.live(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// expiry reports when a live entry expires
func (m *expiringMap[V]) expiry(key string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || !e.live(time.Now()) {
		return time.Time{}, false
	}
	return e.expiresAt, true
}

func (m *expiringMap[V]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *expiringMap[V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, e := range m.entries {
		if !e.live(now) {
			delete(m.entries, key)
		}
	}
}

func (m *expiringMap[V]) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// close stops the sweeper. Safe to call multiple times.
func (m *expiringMap[V]) close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
	})
}

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/courtlens/casestatus-api/internal/models"
)

// cleanupInterval is how often expired entries are swept from memory.
const cleanupInterval = time.Minute

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Memory is an in-process Store backed by a map. It is safe for concurrent
// access and sweeps expired entries in the background.
type Memory struct {
	mu       sync.RWMutex
	entries  map[models.LookupKey]*memoryEntry
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMemory creates an in-memory store and starts its cleanup goroutine.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[models.LookupKey]*memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key models.LookupKey) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || entry.expired(time.Now()) {
		return nil, false, nil
	}
	return entry.payload, true, nil
}

func (m *Memory) Set(_ context.Context, key models.LookupKey, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)

	m.mu.Lock()
	m.entries[key] = &memoryEntry{payload: buf, expiresAt: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	return nil
}

func (m *Memory) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if entry.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}

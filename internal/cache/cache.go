// Package cache provides the short-TTL store each bot owns. The default
// backend is in-memory; a Redis backend is available for deployments that
// want cache survival across restarts. Either way a bot's entries live under
// its own key namespace and are never shared across bot instances.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the bot cache expiry.
const DefaultTTL = 5 * time.Minute

// Store is the minimal key-value contract bots cache through.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// Clear removes every key under the given prefix. Test isolation hook;
	// production expiry is TTL-driven.
	Clear(ctx context.Context, prefix string)
}

// Key builds a deterministic cache key from parts.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// Memory is the default in-process store. Expired entries are dropped lazily
// on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(entry.expires) {
		m.Delete(context.Background(), key)
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: value, expires: m.now().Add(ttl)}
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

func (m *Memory) Clear(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}

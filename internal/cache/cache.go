package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache stores rarely changing reference data between calculation runs.
// A miss is reported with ok == false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DefaultMemorySize bounds the in-process cache when no size is given.
const DefaultMemorySize = 1024

type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process, size-bounded Cache. Entries expire after the
// cache-wide ttl, or earlier when Set is given a shorter one; the least
// recently used entry is evicted once size is reached.
type Memory struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// NewMemory creates a Memory cache holding at most size entries. A ttl of
// zero keeps entries until they are evicted or overwritten.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{
		lru: expirable.NewLRU[string, entry](size, nil, ttl),
		now: time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value under key. A ttl of zero leaves the entry to the
// cache-wide expiry.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

// Len reports the number of cached entries, expired ones included until
// they are swept.
func (m *Memory) Len() int {
	return m.lru.Len()
}

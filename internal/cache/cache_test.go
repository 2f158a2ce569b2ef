package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("v"), 0))

	now = now.Add(59 * time.Second)
	_, ok, _ := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "k")
	assert.False(t, ok)

	now = now.Add(24 * time.Hour)
	_, ok, _ = m.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemory_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(0, 0)

	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), got)
}

func TestMemory_SizeBound(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, 0)

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = m.Get(ctx, "a")
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, m.Len())
	_, ok, _ := m.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok, _ = m.Get(ctx, "a")
	assert.True(t, ok)
}

func TestMemory_CacheWideTTLSweeps(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(10, 20*time.Millisecond)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	assert.Equal(t, 1, m.Len())

	assert.Eventually(t, func() bool {
		return m.Len() == 0
	}, time.Second, 10*time.Millisecond, "expired entries are removed without being read")
}

func TestMemory_ExpiredEntryIsRemoved(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0, 0)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	now = now.Add(time.Minute)
	_, ok, _ := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

type fakeRedis struct {
	data map[string]string
	ttl  map[string]time.Duration
	err  error
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	v, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key, value)
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttl[key] = ttl
	cmd.SetVal("OK")
	return cmd
}

func TestRedis_NamespacesKeysAndMapsMiss(t *testing.T) {
	ctx := context.Background()
	store := &fakeRedis{data: map[string]string{}, ttl: map[string]time.Duration{}}
	r := &Redis{store: store}

	_, ok, err := r.Get(ctx, "ss:carrier:se-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "ss:carrier:se-1", []byte(`{"carrier_id":"se-1"}`), time.Hour))
	assert.Equal(t, `{"carrier_id":"se-1"}`, store.data["ssrates:ss:carrier:se-1"])
	assert.Equal(t, time.Hour, store.ttl["ssrates:ss:carrier:se-1"])

	got, ok, err := r.Get(ctx, "ss:carrier:se-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"carrier_id":"se-1"}`, string(got))
}

func TestRedis_PropagatesErrors(t *testing.T) {
	r := &Redis{store: &fakeRedis{err: errors.New("connection refused")}}

	_, ok, err := r.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, ok)
}

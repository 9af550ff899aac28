package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapBackend is an in-memory Backend built on go-redis result constructors.
type mapBackend struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMapBackend() *mapBackend {
	return &mapBackend{data: make(map[string]string)}
}

func (m *mapBackend) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapBackend) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (m *mapBackend) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

type stats struct {
	Total int `json:"total"`
}

func TestGetMiss(t *testing.T) {
	c := NewCacheService(newMapBackend())
	var got stats
	assert.ErrorIs(t, c.Get(context.Background(), "nope", &got), ErrMiss)
}

func TestGetOrSetCachesValue(t *testing.T) {
	ctx := context.Background()
	c := NewCacheService(newMapBackend())
	calls := 0
	setter := func() (interface{}, error) {
		calls++
		return stats{Total: 3}, nil
	}

	var first, second stats
	require.NoError(t, c.GetOrSet(ctx, UserStatsKey("u1"), &first, time.Minute, setter))
	require.NoError(t, c.GetOrSet(ctx, UserStatsKey("u1"), &second, time.Minute, setter))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, second.Total)

	require.NoError(t, c.InvalidateUserStats(ctx, "u1", ""))
	require.NoError(t, c.GetOrSet(ctx, UserStatsKey("u1"), &second, time.Minute, setter))
	assert.Equal(t, 2, calls)
}

func TestGetOrSetWithBrokenBackend(t *testing.T) {
	backend := newMapBackend()
	backend.err = errors.New("connection refused")
	c := NewCacheService(backend)

	var got stats
	err := c.GetOrSet(context.Background(), "k", &got, time.Minute, func() (interface{}, error) {
		return stats{Total: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Total)
}

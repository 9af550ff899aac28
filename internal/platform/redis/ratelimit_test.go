package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptCounter emulates the fixed window script with an in-memory counter.
type scriptCounter struct {
	counts map[string]int64
	keys   []string
	err    error
}

func (s *scriptCounter) run(keys []string, args ...interface{}) *redis.Cmd {
	if s.err != nil {
		return redis.NewCmdResult(nil, s.err)
	}
	s.keys = append(s.keys, keys[0])
	s.counts[keys[0]]++
	return redis.NewCmdResult([]interface{}{s.counts[keys[0]], args[0].(int64) / 2}, nil)
}

func (s *scriptCounter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(keys, args...)
}

func (s *scriptCounter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(keys, args...)
}

func (s *scriptCounter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(keys, args...)
}

func (s *scriptCounter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(keys, args...)
}

func (s *scriptCounter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult(make([]bool, len(hashes)), nil)
}

func (s *scriptCounter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	return redis.NewStringResult("sha", nil)
}

func TestRateLimiterAllow(t *testing.T) {
	counter := &scriptCounter{counts: map[string]int64{}}
	limiter := NewRateLimiter(counter, "test:")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "claim", "u1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, retryAfter, err := limiter.Allow(ctx, "claim", "u1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Second, retryAfter)
	assert.Equal(t, "test:claim:u1", counter.keys[0])

	// Separate subjects and scopes have separate windows
	allowed, _, err = limiter.Allow(ctx, "claim", "u2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, _, err = limiter.Allow(ctx, "verify", "u1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterDisabledAndErrors(t *testing.T) {
	counter := &scriptCounter{counts: map[string]int64{}}
	limiter := NewRateLimiter(counter, "")
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "claim", "u1", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Empty(t, counter.keys)

	_, _, err = limiter.Allow(ctx, "claim", "u1", 5, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "giveaway:rate_limit:claim:u1", counter.keys[0])

	counter.err = errors.New("connection refused")
	_, _, err = limiter.Allow(ctx, "claim", "u1", 5, time.Minute)
	assert.Error(t, err)
}

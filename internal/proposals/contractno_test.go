package proposals

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisContractNumbers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gen := NewRedisContractNumbers(rdb)
	gen.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := gen.Next(ctx, 7)
	require.NoError(t, err)
	second, err := gen.Next(ctx, 7)
	require.NoError(t, err)
	other, err := gen.Next(ctx, 12)
	require.NoError(t, err)

	assert.Equal(t, "CT-2025-0007-001", first)
	assert.Equal(t, "CT-2025-0007-002", second)
	assert.Equal(t, "CT-2025-0012-001", other)
}

func TestRedisContractNumbersRestartEachYear(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gen := NewRedisContractNumbers(rdb)
	ctx := context.Background()

	gen.now = func() time.Time { return time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC) }
	last, err := gen.Next(ctx, 7)
	require.NoError(t, err)

	gen.now = func() time.Time { return time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC) }
	first, err := gen.Next(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, "CT-2025-0007-001", last)
	assert.Equal(t, "CT-2026-0007-001", first)
	assert.True(t, mr.Exists("contract:client:7:2025:seq"))
	assert.True(t, mr.Exists("contract:client:7:2026:seq"))
}

func TestRedisContractNumbersUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	_, err := NewRedisContractNumbers(rdb).Next(context.Background(), 1)
	assert.Error(t, err)
}

func TestFallbackContractNumber(t *testing.T) {
	assert.Equal(t, "CT-P000042", FallbackContractNumber(42))
}

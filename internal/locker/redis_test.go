package locker

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedisLocker(t *testing.T, ttl time.Duration) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLocker(client, ttl, zap.NewNop()), mr
}

func TestRedisLocker_AcquireAndRelease(t *testing.T) {
	l, mr := setupRedisLocker(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "customer-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockKey("customer-1")))
	assert.Equal(t, time.Minute, mr.TTL(lockKey("customer-1")))

	release()
	assert.False(t, mr.Exists(lockKey("customer-1")))
}

func TestRedisLocker_BlocksUntilReleased(t *testing.T) {
	l, _ := setupRedisLocker(t, time.Minute)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "customer-1")
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 120*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(short, "customer-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		r, err := l.Acquire(ctx, "customer-1")
		if err == nil {
			r()
		}
		close(acquired)
	}()

	time.Sleep(60 * time.Millisecond)
	release()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRedisLocker_ReleaseKeepsForeignLease(t *testing.T) {
	l, mr := setupRedisLocker(t, time.Minute)

	release, err := l.Acquire(context.Background(), "customer-1")
	require.NoError(t, err)

	// the lease expired and another holder took the key
	require.NoError(t, mr.Set(lockKey("customer-1"), "someone-else"))
	release()

	got, err := mr.Get(lockKey("customer-1"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisLocker_DefaultTTL(t *testing.T) {
	l, mr := setupRedisLocker(t, 0)

	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, defaultLeaseTTL, mr.TTL(lockKey("k")))
}

func TestRedisLocker_RedisDown(t *testing.T) {
	l, mr := setupRedisLocker(t, time.Minute)
	mr.Close()

	_, err := l.Acquire(context.Background(), "k")
	assert.Error(t, err)
}

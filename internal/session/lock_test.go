package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"trustline/backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockIsExclusive(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := session.NewLocker(client, time.Second, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:user:u1"))

	_, err = locker.Lock(ctx, "u1")
	assert.ErrorIs(t, err, session.ErrLockTimeout)

	other, err := locker.Lock(ctx, "u2")
	require.NoError(t, err)
	other()

	release()
	assert.False(t, mr.Exists("lock:user:u1"))

	again, err := locker.Lock(ctx, "u1")
	require.NoError(t, err)
	again()
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	client, mr := setupTestRedis(t)
	locker := session.NewLocker(client, time.Second, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "u1")
	require.NoError(t, err)

	// the lock expired and another holder took it over
	require.NoError(t, mr.Set("lock:user:u1", "someone-else"))
	release()

	val, err := mr.Get("lock:user:u1")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
}

func TestLockWaitsForRelease(t *testing.T) {
	client, _ := setupTestRedis(t)
	locker := session.NewLocker(client, time.Second, 2*time.Second)
	ctx := context.Background()

	release, err := locker.Lock(ctx, "u1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	var secondErr error
	go func() {
		defer wg.Done()
		var r func()
		r, secondErr = locker.Lock(ctx, "u1")
		if r != nil {
			r()
		}
	}()

	time.Sleep(60 * time.Millisecond)
	release()
	wg.Wait()
	assert.NoError(t, secondErr)
}

func TestLockHonoursContext(t *testing.T) {
	client, _ := setupTestRedis(t)
	locker := session.NewLocker(client, time.Second, time.Minute)

	release, err := locker.Lock(context.Background(), "u1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

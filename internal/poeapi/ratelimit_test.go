package poeapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenBucketBurstThenExhaustion(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newTokenBucket(10, 5)
	b.clock = func() time.Time { return now }
	b.last = now

	for i := 0; i < 10; i++ {
		require.True(t, b.tryAcquire(), "acquire %d should succeed", i+1)
		require.GreaterOrEqual(t, b.tokens, 0.0)
		require.LessOrEqual(t, b.tokens, 10.0)
	}
	require.False(t, b.tryAcquire(), "11th immediate acquire must fail")
	require.GreaterOrEqual(t, b.tokens, 0.0)
}

func TestTokenBucketRefillIsCapped(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newTokenBucket(10, 5)
	b.clock = func() time.Time { return now }
	b.last = now

	for i := 0; i < 10; i++ {
		require.True(t, b.tryAcquire())
	}

	// One second refills 5 tokens.
	now = now.Add(time.Second)
	for i := 0; i < 5; i++ {
		require.True(t, b.tryAcquire(), "refilled acquire %d should succeed", i+1)
	}
	require.False(t, b.tryAcquire())

	// A long idle period refills to the cap, never past it.
	now = now.Add(time.Hour)
	require.True(t, b.tryAcquire())
	require.InDelta(t, 9.0, b.tokens, 1e-9)
}

func TestTimeUntilAvailable(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	b := newTokenBucket(10, 5)
	b.clock = func() time.Time { return now }
	b.last = now

	require.Equal(t, time.Duration(0), b.timeUntilAvailable())

	for i := 0; i < 10; i++ {
		require.True(t, b.tryAcquire())
	}

	// Empty bucket at 5 tokens/sec: one token is 200ms away.
	require.Equal(t, 200*time.Millisecond, b.timeUntilAvailable())
}

func TestWaitAcquiresAfterRefill(t *testing.T) {
	// Tiny bucket with a fast refill so the test sleeps for real but briefly.
	b := newTokenBucket(1, 100)

	require.NoError(t, b.wait(context.Background()))
	require.NoError(t, b.wait(context.Background())) // forces a short sleep
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	b := newTokenBucket(1, 0.001)
	require.True(t, b.tryAcquire()) // drain; next token is ~1000s away

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := b.wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWaitConcurrentCallersNeverOverdraw(t *testing.T) {
	b := newTokenBucket(2, 50)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- b.wait(context.Background()) }()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	require.GreaterOrEqual(t, b.tokens, 0.0)
	require.LessOrEqual(t, b.tokens, 2.0)
}

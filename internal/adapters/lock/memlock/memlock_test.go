package memlock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire_SerializesSameKey(t *testing.T) {
	l := New()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "pet:rex", "owner:ana")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.held(), "slots must be cleaned after release")
}

func TestAcquire_RespectsContext(t *testing.T) {
	l := New()

	release, err := l.Acquire(context.Background(), "pet:rex")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "owner:ana", "pet:rex")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // idempotente

	again, err := l.Acquire(context.Background(), "owner:ana", "pet:rex")
	require.NoError(t, err)
	again()
	assert.Equal(t, 0, l.held())
}

func TestAcquire_DistinctKeysDoNotBlock(t *testing.T) {
	l := New()

	r1, err := l.Acquire(context.Background(), "pet:rex")
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := l.Acquire(ctx, "pet:mia")
	require.NoError(t, err)
	r2()
}

package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLocker_SerializesSameKey(t *testing.T) {
	l := NewKeyedLocker()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.WithLock(context.Background(), "tx-1", func(ctx context.Context) error {
				if inside.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Equal(t, 0, l.size())
}

func TestKeyedLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewKeyedLocker()

	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = l.WithLock(context.Background(), "a", func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := l.WithLock(context.Background(), "b", func(ctx context.Context) error { return nil })
	close(done)

	require.NoError(t, err)
}

func TestKeyedLocker_ContextCancelledWhileWaiting(t *testing.T) {
	l := NewKeyedLocker()

	held := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "a", func(ctx context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	called := false
	err := l.WithLock(ctx, "a", func(ctx context.Context) error {
		called = true
		return nil
	})
	close(done)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)
}

func TestKeyedLocker_ReturnsFunctionError(t *testing.T) {
	l := NewKeyedLocker()
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "a", func(ctx context.Context) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, l.size())
}

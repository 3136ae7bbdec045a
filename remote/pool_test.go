package remote

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPoolPreservesSubmissionOrder(t *testing.T) {
	pool := NewPool(4)
	ctx := context.Background()

	handles := make([]*Handle, 0, 20)
	for i := 0; i < 20; i++ {
		i := i
		handles = append(handles, pool.Submit(ctx, func(context.Context) (interface{}, error) {
			return i, nil
		}))
	}

	results, err := pool.AwaitAll(ctx, handles)
	require.NoError(t, err)
	require.Len(t, results, 20)
	for i, result := range results {
		require.Equal(t, i, result)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	ctx := context.Background()

	var running, peak int64
	handles := make([]*Handle, 0, 10)
	for i := 0; i < 10; i++ {
		handles = append(handles, pool.Submit(ctx, func(context.Context) (interface{}, error) {
			current := atomic.AddInt64(&running, 1)
			defer atomic.AddInt64(&running, -1)
			for {
				observed := atomic.LoadInt64(&peak)
				if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			return nil, nil
		}))
	}

	_, err := pool.AwaitAll(ctx, handles)
	require.NoError(t, err)
	require.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestPoolSurfacesFirstError(t *testing.T) {
	pool := NewPool(4)
	ctx := context.Background()

	handles := []*Handle{
		pool.Submit(ctx, func(context.Context) (interface{}, error) { return 1, nil }),
		pool.Submit(ctx, func(context.Context) (interface{}, error) { return nil, errors.New("boom") }),
		pool.Submit(ctx, func(context.Context) (interface{}, error) { return 3, nil }),
	}

	_, err := pool.AwaitAll(ctx, handles)
	require.EqualError(t, err, "boom")
}

func TestPoolCanceledContext(t *testing.T) {
	pool := NewPool(1)

	started := make(chan struct{})
	block := make(chan struct{})
	occupied := pool.Submit(context.Background(), func(context.Context) (interface{}, error) {
		close(started)
		<-block
		return nil, nil
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	starved := pool.Submit(ctx, func(context.Context) (interface{}, error) {
		return nil, nil
	})

	_, err := starved.wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(block)
	_, err = occupied.wait(context.Background())
	require.NoError(t, err)
}

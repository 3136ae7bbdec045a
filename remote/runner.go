// Package remote models the execution facility that runs planning sub-tasks
// off the caller's goroutine: submit callables, await their results. The Pool
// implementation is local; a cluster scheduler can satisfy the same interface.
package remote

import (
	"context"
)

// Callable is one submittable unit of work.
type Callable func(ctx context.Context) (interface{}, error)

// Runner executes callables and hands back awaitable handles.
type Runner interface {
	Submit(ctx context.Context, fn Callable) *Handle
	// AwaitAll blocks until every handle completes and returns their results
	// in submission order. The first failure aborts the wait.
	AwaitAll(ctx context.Context, handles []*Handle) ([]interface{}, error)
}

// Handle tracks one submitted unit of work.
type Handle struct {
	done  chan struct{}
	value interface{}
	err   error
}

func (h *Handle) wait(ctx context.Context) (interface{}, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return h.value, h.err
	}
}

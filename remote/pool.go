package remote

import (
	"context"

	"github.com/schollz/progressbar/v3"
)

// Pool is a Runner backed by a bounded set of local goroutines.
type Pool struct {
	slots    chan struct{}
	progress string
}

type PoolOption func(*Pool)

// WithProgress makes AwaitAll render a progress bar with the given label,
// advancing once per completed handle.
func WithProgress(description string) PoolOption {
	return func(p *Pool) {
		p.progress = description
	}
}

func NewPool(limit int, opts ...PoolOption) *Pool {
	if limit < 1 {
		limit = 1
	}
	pool := &Pool{slots: make(chan struct{}, limit)}
	for _, opt := range opts {
		opt(pool)
	}
	return pool
}

func (p *Pool) Submit(ctx context.Context, fn Callable) *Handle {
	handle := &Handle{done: make(chan struct{})}
	go func() {
		defer close(handle.done)
		select {
		case p.slots <- struct{}{}:
			defer func() { <-p.slots }()
		case <-ctx.Done():
			handle.err = ctx.Err()
			return
		}
		handle.value, handle.err = fn(ctx)
	}()
	return handle
}

func (p *Pool) AwaitAll(ctx context.Context, handles []*Handle) ([]interface{}, error) {
	var bar *progressbar.ProgressBar
	if p.progress != "" {
		bar = progressbar.Default(int64(len(handles)), p.progress)
		defer bar.Finish()
	}
	results := make([]interface{}, 0, len(handles))
	for _, handle := range handles {
		value, err := handle.wait(ctx)
		if err != nil {
			return nil, err
		}
		results = append(results, value)
		if bar != nil {
			bar.Add(1)
		}
	}
	return results, nil
}

package fragment

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// DefaultResolveAttempts bounds how many times a batch of handles is resolved
// before the last failure is surfaced. Resolution talks to flaky storage
// backends, and resolving a whole task's handles in one call amplifies
// transient hiccups.
const DefaultResolveAttempts = 8

// RetriesExhaustedError reports that fragment resolution kept failing for the
// configured number of attempts. It wraps the error from the last attempt.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("resolving fragments failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

type resolveOptions struct {
	attempts int
	sleep    func(time.Duration)
	jitter   func() float64
	logger   log.Logger
}

type ResolveOption func(*resolveOptions)

func WithResolveAttempts(attempts int) ResolveOption {
	return func(opts *resolveOptions) {
		opts.attempts = attempts
	}
}

// WithSleep replaces the backoff sleep, letting tests drive retries with a
// fake clock.
func WithSleep(sleep func(time.Duration)) ResolveOption {
	return func(opts *resolveOptions) {
		opts.sleep = sleep
	}
}

// WithJitter replaces the [0,1) random source for the initial backoff delay.
func WithJitter(jitter func() float64) ResolveOption {
	return func(opts *resolveOptions) {
		opts.jitter = jitter
	}
}

func WithLogger(logger log.Logger) ResolveOption {
	return func(opts *resolveOptions) {
		opts.logger = logger
	}
}

func applyResolveOptions(opts []ResolveOption) resolveOptions {
	options := resolveOptions{
		attempts: DefaultResolveAttempts,
		sleep:    time.Sleep,
		jitter:   rand.Float64,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.attempts < 1 {
		options.attempts = 1
	}
	return options
}

// ResolveAll resolves every handle in order. On failure any fragments opened
// so far are closed before the error is returned.
func ResolveAll(ctx context.Context, handles []Handle) ([]*Fragment, error) {
	fragments := make([]*Fragment, 0, len(handles))
	for _, handle := range handles {
		resolved, err := handle.Resolve(ctx)
		if err != nil {
			CloseAll(fragments)
			return nil, err
		}
		fragments = append(fragments, resolved)
	}
	return fragments, nil
}

// ResolveAllWithRetry resolves a batch of handles, retrying the whole batch
// with exponential backoff. The first failure picks a random delay in [1,2)
// seconds so tasks that fail together do not retry together; each subsequent
// failure doubles it. The error from the final attempt is surfaced wrapped in
// RetriesExhaustedError.
func ResolveAllWithRetry(ctx context.Context, handles []Handle, opts ...ResolveOption) ([]*Fragment, error) {
	options := applyResolveOptions(opts)

	var interval time.Duration
	var lastErr error
	for attempt := 1; attempt <= options.attempts; attempt++ {
		fragments, err := ResolveAll(ctx, handles)
		if err == nil {
			return fragments, nil
		}
		lastErr = err
		if attempt == options.attempts {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if interval == 0 {
			interval = time.Second + time.Duration(options.jitter()*float64(time.Second))
		}
		level.Warn(options.logger).Log(
			"msg", "failed to resolve fragment batch",
			"attempt", attempt,
			"retry_in", interval,
			"err", err,
		)
		options.sleep(interval)
		interval *= 2
	}
	return nil, &RetriesExhaustedError{Attempts: options.attempts, Err: lastErr}
}

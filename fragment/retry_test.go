package fragment

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"Shopify/parquet-dataset-reader/pqtest"
	"Shopify/parquet-dataset-reader/storage"
)

func TestResolveAllWithRetryEventualSuccess(t *testing.T) {
	dir := t.TempDir()
	path := "part-0.parquet"
	handle := NewHandle(path, storage.FilesystemBucket(dir), nil)

	var sleeps []time.Duration
	sleep := func(d time.Duration) {
		sleeps = append(sleeps, d)
		// Resolution succeeds on the attempt after the second sleep.
		if len(sleeps) == 2 {
			require.NoError(t, pqtest.WriteFile(filepath.Join(dir, path), [][]pqtest.Row{
				pqtest.NumberedRows(0, 10),
			}))
		}
	}

	fragments, err := ResolveAllWithRetry(context.Background(), []Handle{handle},
		WithSleep(sleep),
		WithJitter(func() float64 { return 0.5 }),
	)
	require.NoError(t, err)
	defer CloseAll(fragments)

	require.Len(t, fragments, 1)
	require.Equal(t, int64(10), fragments[0].NumRows())
	require.Equal(t, []time.Duration{1500 * time.Millisecond, 3 * time.Second}, sleeps)
}

func TestResolveAllWithRetryExhausted(t *testing.T) {
	handle := NewHandle("missing.parquet", storage.FilesystemBucket(t.TempDir()), nil)

	var sleeps int
	_, err := ResolveAllWithRetry(context.Background(), []Handle{handle},
		WithSleep(func(time.Duration) { sleeps++ }),
	)
	require.Error(t, err)

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, DefaultResolveAttempts, exhausted.Attempts)
	require.Error(t, exhausted.Unwrap())
	require.Equal(t, DefaultResolveAttempts-1, sleeps)
}

func TestResolveAllWithRetryCanceledContext(t *testing.T) {
	handle := NewHandle("missing.parquet", storage.FilesystemBucket(t.TempDir()), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ResolveAllWithRetry(ctx, []Handle{handle},
		WithSleep(func(time.Duration) { t.Fatal("slept after cancellation") }),
	)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveAllClosesPartialResults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, pqtest.WriteFile(filepath.Join(dir, "part-0.parquet"), [][]pqtest.Row{
		pqtest.NumberedRows(0, 10),
	}))
	handles := []Handle{
		NewHandle("part-0.parquet", storage.FilesystemBucket(dir), nil),
		NewHandle("missing.parquet", storage.FilesystemBucket(dir), nil),
	}
	_, err := ResolveAll(context.Background(), handles)
	require.Error(t, err)
}

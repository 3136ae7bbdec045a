package storage

import (
	"io"

	"golang.org/x/sync/errgroup"
)

// Reads larger than chunkedReadSize are split into ranges of this size and
// fetched in parallel.
const chunkedReadSize = 8 << 20

type readAtFunc func(p []byte, off int64) (int, error)

func (f readAtFunc) ReadAt(p []byte, off int64) (int, error) {
	return f(p, off)
}

type chunkedReader struct {
	maxReadSize      int
	concurrencyLimit int
	reader           io.ReaderAt
}

func newChunkedReader(reader io.ReaderAt, maxReadSize int) *chunkedReader {
	return &chunkedReader{
		maxReadSize:      maxReadSize,
		concurrencyLimit: 16,
		reader:           reader,
	}
}

func (r *chunkedReader) ReadAt(p []byte, off int64) (n int, err error) {
	var wg errgroup.Group
	wg.SetLimit(r.concurrencyLimit)
	for bytesRead := 0; bytesRead < len(p); bytesRead += r.maxReadSize {
		readUntil := minInt(bytesRead+r.maxReadSize, len(p))
		part := p[bytesRead:readUntil]
		partOffset := int64(bytesRead) + off
		wg.Go(func() error {
			_, err := r.reader.ReadAt(part, partOffset)
			return err
		})
	}
	if err := wg.Wait(); err != nil {
		return 0, err
	}

	return len(p), nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

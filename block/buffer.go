package block

import (
	"fmt"

	"github.com/apache/arrow/go/v10/arrow"
)

// DefaultTargetBlockSize bounds the estimated decoded size of one block.
const DefaultTargetBlockSize = 512 << 20

// Transform replaces a decoded batch before it is buffered. The buffer takes
// ownership of the returned record.
type Transform func(arrow.Record) (arrow.Record, error)

// TransformError wraps a failure from a user-supplied transform. Transforms
// are user code and are never retried.
type TransformError struct {
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("block transform failed: %v", e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// OutputBuffer accumulates decoded batches and completes a block whenever the
// running size estimate reaches the target threshold. Finalize forces the
// remainder out as one last block, even below the threshold. A completed
// block never has zero rows.
type OutputBuffer struct {
	target    int64
	transform Transform

	pending     []arrow.Record
	pendingRows int64
	pendingSize int64
	finalized   bool
	done        bool
}

// NewOutputBuffer creates a buffer targeting the given block size in bytes.
// A non-positive target falls back to DefaultTargetBlockSize.
func NewOutputBuffer(target int64, transform Transform) *OutputBuffer {
	if target <= 0 {
		target = DefaultTargetBlockSize
	}
	return &OutputBuffer{target: target, transform: transform}
}

// Add appends a batch to the accumulated state, applying the transform first
// when one is configured. The buffer takes ownership of rec.
func (b *OutputBuffer) Add(rec arrow.Record) error {
	if b.transform != nil {
		transformed, err := b.transform(rec)
		if err != nil {
			return &TransformError{Err: err}
		}
		rec = transformed
	}
	b.pending = append(b.pending, rec)
	b.pendingRows += rec.NumRows()
	b.pendingSize += RecordSize(rec)
	return nil
}

// HasNext reports whether a completed block is ready to be taken with Next.
func (b *OutputBuffer) HasNext() bool {
	if b.finalized {
		return !b.done && b.pendingRows > 0
	}
	return b.pendingSize >= b.target && b.pendingRows > 0
}

// Next returns the completed block and clears the accumulated state. Calling
// Next when HasNext is false is a contract violation.
func (b *OutputBuffer) Next() Block {
	if !b.HasNext() {
		panic("output buffer: Next called without a completed block")
	}
	completed := newBlock(b.pending, b.pendingRows, b.pendingSize)
	for _, rec := range b.pending {
		rec.Release()
	}
	b.pending = nil
	b.pendingRows = 0
	b.pendingSize = 0
	if b.finalized {
		b.done = true
	}
	return completed
}

// Finalize marks end-of-input. Any accumulated rows become retrievable via
// one final HasNext/Next pair.
func (b *OutputBuffer) Finalize() {
	b.finalized = true
}

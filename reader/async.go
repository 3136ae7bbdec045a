package reader

import (
	"context"

	"Shopify/parquet-dataset-reader/block"
)

type maybeBlock struct {
	block block.Block
	err   error
}

// AsyncBlocks decodes blocks ahead of the consumer on a background goroutine,
// overlapping decode with downstream processing. It exposes the same iterator
// surface as Blocks.
type AsyncBlocks struct {
	blocks *Blocks
	buffer chan maybeBlock

	ctx    context.Context
	cancel context.CancelFunc

	current block.Block
	err     error
}

// NewAsyncBlocks starts prefetching from blocks, keeping up to bufferSize
// decoded blocks in flight. The wrapper takes ownership of the iterator.
func NewAsyncBlocks(blocks *Blocks, bufferSize int64) *AsyncBlocks {
	a := &AsyncBlocks{
		blocks: blocks,
		buffer: make(chan maybeBlock, bufferSize),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	go a.pull()

	return a
}

func (a *AsyncBlocks) pull() {
	defer close(a.buffer)
	for a.blocks.Next() {
		select {
		case <-a.ctx.Done():
			return
		case a.buffer <- maybeBlock{block: a.blocks.At()}:
		}
	}
	if err := a.blocks.Err(); err != nil {
		select {
		case <-a.ctx.Done():
		case a.buffer <- maybeBlock{err: err}:
		}
	}
}

func (a *AsyncBlocks) Next() bool {
	next, ok := <-a.buffer
	if !ok {
		return false
	}
	if next.err != nil {
		a.err = next.err
		return false
	}
	a.current = next.block
	return true
}

// At returns the current block. Ownership transfers to the caller.
func (a *AsyncBlocks) At() block.Block {
	return a.current
}

func (a *AsyncBlocks) Err() error {
	return a.err
}

// Close stops the prefetcher and releases any blocks still in flight.
func (a *AsyncBlocks) Close() error {
	a.cancel()
	for next := range a.buffer {
		if next.err == nil {
			next.block.Release()
		}
	}
	return a.blocks.Close()
}

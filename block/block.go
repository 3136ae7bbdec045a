package block

import (
	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
)

// Block is one immutable columnar table handed to the consumer. Ownership
// transfers on yield; the consumer calls Release when done with it.
type Block struct {
	table   arrow.Table
	numRows int64
	size    int64
}

func newBlock(recs []arrow.Record, numRows, size int64) Block {
	table := array.NewTableFromRecords(recs[0].Schema(), recs)
	return Block{table: table, numRows: numRows, size: size}
}

// Table exposes the underlying arrow table. Column data is chunked along the
// decoded batch boundaries.
func (b Block) Table() arrow.Table {
	return b.table
}

func (b Block) Schema() *arrow.Schema {
	return b.table.Schema()
}

func (b Block) NumRows() int64 {
	return b.numRows
}

// EstimatedSize is the running in-memory estimate accumulated while the block
// was buffered.
func (b Block) EstimatedSize() int64 {
	return b.size
}

func (b Block) Release() {
	b.table.Release()
}

// RecordSize estimates the in-memory footprint of a record by summing its
// array buffer lengths.
func RecordSize(rec arrow.Record) int64 {
	var size int64
	for i := 0; i < int(rec.NumCols()); i++ {
		for _, buf := range rec.Column(i).Data().Buffers() {
			if buf != nil {
				size += int64(buf.Len())
			}
		}
	}
	return size
}

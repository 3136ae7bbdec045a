package reader

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/parquet/metadata"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"

	"Shopify/parquet-dataset-reader/block"
	"Shopify/parquet-dataset-reader/fragment"
)

// Blocks streams a task's output. Within one task blocks arrive in
// fragment-then-row-group order; blocks from different tasks are unordered.
// The iterator owns its fragments and releases them on Close or exhaustion.
type Blocks struct {
	ctx     context.Context
	handles []fragment.Handle
	read    readConfig

	started   bool
	fragments []*fragment.Fragment
	fragIdx   int
	batches   *batchReader
	buffer    *block.OutputBuffer
	current   block.Block
	err       error
	done      bool
}

func (it *Blocks) Next() bool {
	if it.err != nil || it.done {
		return false
	}
	if !it.started {
		if err := it.start(); err != nil {
			it.fail(err)
			return false
		}
	}
	for {
		if it.buffer.HasNext() {
			it.current = it.buffer.Next()
			return true
		}
		if it.batches == nil {
			if it.fragIdx >= len(it.fragments) {
				it.buffer.Finalize()
				if it.buffer.HasNext() {
					it.current = it.buffer.Next()
					return true
				}
				it.done = true
				it.release()
				return false
			}
			batches, err := newBatchReader(it.ctx, it.fragments[it.fragIdx], it.read)
			if err != nil {
				it.fail(err)
				return false
			}
			it.batches = batches
			it.fragIdx++
		}
		rec, err := it.batches.next()
		if err == io.EOF {
			it.batches.release()
			it.batches = nil
			continue
		}
		if err != nil {
			it.fail(err)
			return false
		}
		// Empty assembled tables are dropped, not yielded.
		if rec.NumRows() == 0 {
			rec.Release()
			continue
		}
		if err := it.buffer.Add(rec); err != nil {
			path := it.fragments[it.fragIdx-1].Path()
			level.Error(it.read.logger).Log("msg", "block transform failed", "fragment", path, "err", err)
			it.fail(errors.Wrapf(err, "fragment %s", path))
			return false
		}
	}
}

func (it *Blocks) start() error {
	if len(it.handles) == 0 {
		panic("read task executed with zero assigned fragments")
	}
	fragments, err := fragment.ResolveAllWithRetry(it.ctx, it.handles, it.read.resolveOpts...)
	if err != nil {
		return err
	}
	level.Debug(it.read.logger).Log("msg", "reading parquet fragments", "fragments", len(fragments))
	it.fragments = fragments
	it.buffer = block.NewOutputBuffer(it.read.targetBlockSize, it.read.transform)
	it.started = true
	return nil
}

// At returns the current block. Ownership transfers to the caller.
func (it *Blocks) At() block.Block {
	return it.current
}

func (it *Blocks) Err() error {
	return it.err
}

func (it *Blocks) Close() error {
	it.done = true
	it.release()
	return nil
}

func (it *Blocks) fail(err error) {
	it.err = err
	it.release()
}

func (it *Blocks) release() {
	if it.batches != nil {
		it.batches.release()
		it.batches = nil
	}
	fragment.CloseAll(it.fragments)
	it.fragments = nil
}

// batchReader decodes one fragment into batches assembled against the target
// schema, with partition columns injected.
type batchReader struct {
	frag   *fragment.Fragment
	read   readConfig
	keys   fragment.PartitionKeys
	rr     pqarrow.RecordReader
	counts *rowCountBatches
}

func newBatchReader(ctx context.Context, frag *fragment.Fragment, read readConfig) (*batchReader, error) {
	keys := frag.PartitionKeys()
	physical := make([]string, 0, len(read.schema.Fields()))
	for _, field := range read.schema.Fields() {
		if _, ok := keys.Lookup(field.Name); ok {
			continue
		}
		physical = append(physical, field.Name)
	}
	br := &batchReader{frag: frag, read: read, keys: keys}
	if len(physical) == 0 {
		// Row-count-only projection: no columns to decode, but block row
		// counts must still be exact.
		br.counts = newRowCountBatches(frag.MetaData(), read.batchSize)
		return br, nil
	}

	fileSchema := frag.MetaData().Schema
	indices := make([]int, 0, len(physical))
	for _, name := range physical {
		index := fileSchema.ColumnIndexByName(name)
		if index < 0 {
			return nil, errors.Errorf("column %q not found in fragment %s", name, frag.Path())
		}
		indices = append(indices, index)
	}

	arrowReader, err := pqarrow.NewFileReader(frag.ParquetReader(), pqarrow.ArrowReadProperties{
		Parallel:  read.useThreads,
		BatchSize: read.batchSize,
	}, read.alloc)
	if err != nil {
		return nil, errors.Wrap(err, "error creating arrow reader for "+frag.Path())
	}
	rr, err := arrowReader.GetRecordReader(ctx, indices, nil)
	if err != nil {
		return nil, errors.Wrap(err, "error reading batches from "+frag.Path())
	}
	br.rr = rr
	return br, nil
}

// next returns the next assembled batch, io.EOF at the end of the fragment.
func (r *batchReader) next() (arrow.Record, error) {
	var rec arrow.Record
	if r.counts != nil {
		synthesized, ok := r.counts.next()
		if !ok {
			return nil, io.EOF
		}
		defer synthesized.Release()
		rec = synthesized
	} else {
		read, err := r.rr.Read()
		if err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "error decoding batch from "+r.frag.Path())
		}
		rec = read
	}
	out, err := block.WithPartitionColumns(r.read.alloc, rec, r.read.schema, r.keys)
	if err != nil {
		return nil, errors.Wrapf(err, "fragment %s", r.frag.Path())
	}
	return out, nil
}

func (r *batchReader) release() {
	if r.rr != nil {
		r.rr.Release()
		r.rr = nil
	}
}

// rowCountBatches synthesizes schemaless batches so that projections with no
// physical columns still carry exact per-row-group row counts.
type rowCountBatches struct {
	remaining []int64
	batchSize int64
}

func newRowCountBatches(footer *metadata.FileMetaData, batchSize int64) *rowCountBatches {
	rows := make([]int64, 0, len(footer.RowGroups))
	for _, rowGroup := range footer.RowGroups {
		rows = append(rows, rowGroup.NumRows)
	}
	return &rowCountBatches{remaining: rows, batchSize: batchSize}
}

func (s *rowCountBatches) next() (arrow.Record, bool) {
	for len(s.remaining) > 0 && s.remaining[0] == 0 {
		s.remaining = s.remaining[1:]
	}
	if len(s.remaining) == 0 {
		return nil, false
	}
	numRows := s.remaining[0]
	if numRows > s.batchSize {
		numRows = s.batchSize
	}
	s.remaining[0] -= numRows
	return array.NewRecord(arrow.NewSchema(nil, nil), nil, numRows), true
}

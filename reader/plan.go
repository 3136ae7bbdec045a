package reader

import (
	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"Shopify/parquet-dataset-reader/block"
	"Shopify/parquet-dataset-reader/fragment"
	"Shopify/parquet-dataset-reader/generic"
	"Shopify/parquet-dataset-reader/meta"
)

// TaskMetadata summarizes the input assigned to one task, for progress and
// size reporting by the scheduler. Row and byte figures cover only the files
// whose metadata was prefetched.
type TaskMetadata struct {
	InputFiles []string `json:"input_files"`
	NumRows    int64    `json:"num_rows"`
	SizeBytes  int64    `json:"size_bytes"`
}

// readConfig is the read-only planning state captured by every task.
type readConfig struct {
	schema          *arrow.Schema
	batchSize       int64
	useThreads      bool
	targetBlockSize int64
	transform       block.Transform
	logger          log.Logger
	resolveOpts     []fragment.ResolveOption
	alloc           memory.Allocator
}

// ReadTasks splits the dataset into at most parallelism contiguous groups of
// fragments, one task per group. Earlier groups receive one extra fragment
// when the count does not divide evenly; empty groups are dropped, so the
// returned task count may be lower than parallelism.
func (r *Reader) ReadTasks(parallelism int) ([]*Task, error) {
	if parallelism < 1 {
		return nil, errors.Errorf("parallelism must be at least 1, got %d", parallelism)
	}
	read := readConfig{
		schema:          r.schema,
		batchSize:       r.cfg.batchSize,
		useThreads:      r.cfg.useThreads,
		targetBlockSize: r.cfg.targetBlockSize,
		transform:       r.cfg.transform,
		logger:          r.cfg.logger,
		resolveOpts:     r.cfg.resolveOpts,
		alloc:           r.cfg.alloc,
	}

	tasks := make([]*Task, 0, parallelism)
	offset := 0
	for _, group := range generic.Split(r.handles, parallelism) {
		groupOffset := offset
		offset += len(group)
		if len(group) == 0 {
			continue
		}
		taskMeta := TaskMetadata{InputFiles: make([]string, 0, len(group))}
		for i, handle := range group {
			taskMeta.InputFiles = append(taskMeta.InputFiles, handle.Path)
			if groupOffset+i < len(r.metadata) {
				m := r.metadata[groupOffset+i]
				taskMeta.NumRows += m.NumRows
				taskMeta.SizeBytes += m.TotalByteSize() * meta.ParquetToArrowSizeMultiplier
			}
		}
		tasks = append(tasks, &Task{
			handles: append([]fragment.Handle(nil), group...),
			meta:    taskMeta,
			read:    read,
		})
	}
	return tasks, nil
}

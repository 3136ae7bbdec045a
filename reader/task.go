package reader

import (
	"context"

	"Shopify/parquet-dataset-reader/fragment"
)

// Task is one independently schedulable, retryable unit of read work covering
// a contiguous subset of the dataset's fragments. Tasks share no mutable
// state; a task can be encoded through its handles and executed in another
// process.
type Task struct {
	handles []fragment.Handle
	meta    TaskMetadata
	read    readConfig
}

func (t *Task) Metadata() TaskMetadata {
	return t.meta
}

// Handles returns the serialized fragment references assigned to the task.
func (t *Task) Handles() []fragment.Handle {
	return append([]fragment.Handle(nil), t.handles...)
}

// Execute starts the task's streaming read. The returned iterator is lazy:
// no I/O happens until the first Next call. Calling Execute again restarts
// the read from scratch, re-resolving the fragment handles; a stream is not
// resumable mid-way.
func (t *Task) Execute(ctx context.Context) *Blocks {
	return &Blocks{ctx: ctx, handles: t.handles, read: t.read}
}

package fragment

import (
	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/metadata"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
)

// Fragment is a live, process-local view over one parquet file. Fragments are
// created through Handle.Resolve and must be closed to release the underlying
// bucket session.
type Fragment struct {
	handle Handle
	bucket objstore.Bucket
	file   *file.Reader
}

// Handle returns the serializable form of the fragment. Round-tripping a
// fragment through Handle and Resolve preserves format, path, store identity
// and partition keys.
func (f *Fragment) Handle() Handle {
	return f.handle
}

func (f *Fragment) Path() string {
	return f.handle.Path
}

func (f *Fragment) PartitionKeys() PartitionKeys {
	return f.handle.Partition
}

// ParquetReader exposes the raw parquet file reader for batch decoding.
func (f *Fragment) ParquetReader() *file.Reader {
	return f.file
}

// MetaData returns the parquet footer of the fragment.
func (f *Fragment) MetaData() *metadata.FileMetaData {
	return f.file.MetaData()
}

// NumRows returns the total row count across all row groups.
func (f *Fragment) NumRows() int64 {
	var rows int64
	for _, rowGroup := range f.file.MetaData().RowGroups {
		rows += rowGroup.NumRows
	}
	return rows
}

// ArrowSchema converts the fragment's parquet schema to an arrow schema.
func (f *Fragment) ArrowSchema(mem memory.Allocator) (*arrow.Schema, error) {
	arrowReader, err := pqarrow.NewFileReader(f.file, pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return nil, errors.Wrap(err, "error creating arrow reader for "+f.Path())
	}
	schema, err := arrowReader.Schema()
	if err != nil {
		return nil, errors.Wrap(err, "error reading schema of "+f.Path())
	}
	return schema, nil
}

func (f *Fragment) Close() error {
	if err := f.file.Close(); err != nil {
		return err
	}
	return f.bucket.Close()
}

// CloseAll closes fragments and keeps the first error.
func CloseAll(fragments []*Fragment) error {
	var firstErr error
	for _, fragment := range fragments {
		if err := fragment.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

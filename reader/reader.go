// Package reader plans and executes bounded, independently schedulable read
// tasks over a partitioned parquet dataset stored in an object store.
package reader

import (
	"context"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
	"github.com/thanos-io/objstore"
	"golang.org/x/exp/slices"

	"Shopify/parquet-dataset-reader/fragment"
	"Shopify/parquet-dataset-reader/meta"
	"Shopify/parquet-dataset-reader/storage"
)

const parquetSuffix = ".parquet"

// Reader holds the planning state for one dataset: the discovered fragments,
// their prefetched metadata, and the resolved target schema. Planning
// artifacts are read-only once Open returns; read tasks copy what they need.
type Reader struct {
	store    storage.Config
	handles  []fragment.Handle
	metadata []meta.FileMetadata
	schema   *arrow.Schema
	cfg      config
}

// Open resolves the dataset locator into fragments and prefetches their
// metadata. Each path may name a single parquet object or a directory prefix
// that is walked recursively; an empty paths list walks the whole bucket.
// Unreadable paths fail immediately with SourceResolutionError.
func Open(ctx context.Context, store storage.Config, paths []string, opts ...Option) (*Reader, error) {
	cfg := applyOptions(opts)

	bucket, err := storage.NewBucket(cfg.logger, store, cfg.registerer)
	if err != nil {
		return nil, &SourceResolutionError{Paths: paths, Err: err}
	}
	defer bucket.Close()

	handles, err := discoverFragments(ctx, bucket, store, paths)
	if err != nil {
		return nil, err
	}
	level.Debug(cfg.logger).Log("msg", "discovered dataset fragments", "fragments", len(handles))

	schema, err := resolveSchema(ctx, cfg, handles)
	if err != nil {
		return nil, err
	}

	metadata, err := cfg.provider.Prefetch(ctx, handles)
	if err != nil {
		return nil, err
	}

	return &Reader{
		store:    store,
		handles:  handles,
		metadata: metadata,
		schema:   schema,
		cfg:      cfg,
	}, nil
}

// Schema returns the target schema of the dataset: the file schema narrowed
// to the requested projection, with partition columns included. Nil when the
// dataset is empty and no explicit schema was given.
func (r *Reader) Schema() *arrow.Schema {
	return r.schema
}

func (r *Reader) NumFragments() int {
	return len(r.handles)
}

// Handles returns the serialized form of every discovered fragment in
// dataset order.
func (r *Reader) Handles() []fragment.Handle {
	return append([]fragment.Handle(nil), r.handles...)
}

// Metadata returns the prefetched per-file metadata. It may cover only a
// prefix of the fragments.
func (r *Reader) Metadata() []meta.FileMetadata {
	return append([]meta.FileMetadata(nil), r.metadata...)
}

// EstimateInMemorySize approximates the decoded size of the whole dataset.
// Advisory only.
func (r *Reader) EstimateInMemorySize() int64 {
	return meta.EstimateInMemorySize(r.metadata)
}

func discoverFragments(ctx context.Context, bucket objstore.Bucket, store storage.Config, paths []string) ([]fragment.Handle, error) {
	if len(paths) == 0 {
		paths = []string{""}
	}
	var objects []string
	for _, path := range paths {
		if strings.HasSuffix(path, parquetSuffix) {
			exists, err := bucket.Exists(ctx, path)
			if err != nil {
				return nil, &SourceResolutionError{Paths: []string{path}, Err: err}
			}
			if !exists {
				return nil, &SourceResolutionError{Paths: []string{path}, Err: errors.New("no such object")}
			}
			objects = append(objects, path)
			continue
		}
		prefix := path
		if prefix != "" && !strings.HasSuffix(prefix, objstore.DirDelim) {
			prefix += objstore.DirDelim
		}
		err := bucket.Iter(ctx, prefix, func(name string) error {
			if strings.HasSuffix(name, parquetSuffix) {
				objects = append(objects, name)
			}
			return nil
		}, objstore.WithRecursiveIter)
		if err != nil {
			return nil, &SourceResolutionError{Paths: []string{path}, Err: err}
		}
	}
	slices.Sort(objects)
	objects = slices.Compact(objects)

	handles := make([]fragment.Handle, 0, len(objects))
	for _, object := range objects {
		handles = append(handles, fragment.NewHandle(object, store, fragment.PartitionKeysFromPath(object)))
	}
	return handles, nil
}

// resolveSchema determines the full target schema: the file schema, explicit
// or inferred from the first fragment, extended with partition columns and
// narrowed to the requested projection.
func resolveSchema(ctx context.Context, cfg config, handles []fragment.Handle) (*arrow.Schema, error) {
	fileSchema := cfg.schema
	var partition fragment.PartitionKeys
	if len(handles) > 0 {
		partition = handles[0].Partition
	}
	if fileSchema == nil {
		if len(handles) == 0 {
			return nil, nil
		}
		fragments, err := fragment.ResolveAllWithRetry(ctx, handles[:1], cfg.resolveOpts...)
		if err != nil {
			return nil, err
		}
		defer fragment.CloseAll(fragments)
		fileSchema, err = fragments[0].ArrowSchema(cfg.alloc)
		if err != nil {
			return nil, err
		}
	}

	fields := append([]arrow.Field(nil), fileSchema.Fields()...)
	for _, key := range partition {
		if len(fileSchema.FieldIndices(key.Name)) > 0 {
			continue
		}
		fields = append(fields, arrow.Field{Name: key.Name, Type: partitionType(key.Value)})
	}
	full := arrow.NewSchema(fields, nil)
	if len(cfg.columns) == 0 {
		return full, nil
	}

	projected := make([]arrow.Field, 0, len(cfg.columns))
	for _, column := range cfg.columns {
		indices := full.FieldIndices(column)
		if len(indices) == 0 {
			return nil, &SchemaMismatchError{Column: column}
		}
		projected = append(projected, full.Field(indices[0]))
	}
	return arrow.NewSchema(projected, nil), nil
}

// partitionType infers the arrow type of a partition column from its raw path
// value: int64 when the value parses as an integer, string otherwise.
func partitionType(value string) arrow.DataType {
	if _, err := strconv.ParseInt(value, 10, 64); err == nil {
		return arrow.PrimitiveTypes.Int64
	}
	return arrow.BinaryTypes.String
}

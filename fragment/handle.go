package fragment

import (
	"context"

	"github.com/apache/arrow/go/v10/parquet/file"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"Shopify/parquet-dataset-reader/storage"
)

// FormatParquet is the only fragment format understood by this reader.
const FormatParquet = "parquet"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handle is a transport-safe reference to one file fragment. It holds only
// the fields needed to recreate the fragment in another process and performs
// no I/O on construction or encoding; opening storage sessions is deferred
// to Resolve.
type Handle struct {
	Format    string         `json:"format"`
	Path      string         `json:"path"`
	Store     storage.Config `json:"store"`
	Partition PartitionKeys  `json:"partition,omitempty"`
}

// NewHandle builds a parquet fragment handle. The partition keys are usually
// derived from the path via PartitionKeysFromPath.
func NewHandle(path string, store storage.Config, partition PartitionKeys) Handle {
	return Handle{
		Format:    FormatParquet,
		Path:      path,
		Store:     store,
		Partition: partition,
	}
}

// Marshal encodes the handle for cross-process transport.
func (h Handle) Marshal() ([]byte, error) {
	return json.Marshal(h)
}

// UnmarshalHandle decodes a handle produced by Marshal.
func UnmarshalHandle(data []byte) (Handle, error) {
	var h Handle
	if err := json.Unmarshal(data, &h); err != nil {
		return Handle{}, errors.Wrap(err, "error decoding fragment handle")
	}
	return h, nil
}

// Resolve opens a live fragment from the handle: a bucket session plus a
// parquet reader over the object. This is the only failure-prone step of the
// handle lifecycle and the one callers wrap with retries.
func (h Handle) Resolve(ctx context.Context) (*Fragment, error) {
	if h.Format != FormatParquet {
		return nil, errors.Errorf("unsupported fragment format %q", h.Format)
	}
	bucket, err := storage.NewBucket(nil, h.Store, nil)
	if err != nil {
		return nil, err
	}
	reader, err := storage.OpenBucketReader(ctx, bucket, h.Path)
	if err != nil {
		bucket.Close()
		return nil, err
	}
	pqReader, err := file.NewParquetReader(reader)
	if err != nil {
		bucket.Close()
		return nil, errors.Wrap(err, "error opening parquet file "+h.Path)
	}
	return &Fragment{handle: h, bucket: bucket, file: pqReader}, nil
}

package storage

import (
	"context"
	"io"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/thanos-io/objstore"
	"github.com/thanos-io/objstore/providers/filesystem"
	"github.com/thanos-io/objstore/providers/gcs"
	"gopkg.in/yaml.v3"
)

// Provider names accepted in Config.
const (
	ProviderFilesystem = "filesystem"
	ProviderGCS        = "gcs"
)

type FilesystemConfig struct {
	Directory string `yaml:"directory" json:"directory"`
}

type GCSConfig struct {
	Bucket string `yaml:"bucket" json:"bucket"`
}

// Config identifies a bucket independently of any live client session. It is
// carried inside fragment handles, so it must stay cheap to copy and encode
// and must never hold open connections.
type Config struct {
	Provider   string           `yaml:"provider" json:"provider"`
	Filesystem FilesystemConfig `yaml:"filesystem,omitempty" json:"filesystem,omitempty"`
	GCS        GCSConfig        `yaml:"gcs,omitempty" json:"gcs,omitempty"`
}

// FilesystemBucket describes a bucket rooted at a local directory.
func FilesystemBucket(dir string) Config {
	return Config{Provider: ProviderFilesystem, Filesystem: FilesystemConfig{Directory: dir}}
}

// GCSBucket describes a Google Cloud Storage bucket.
func GCSBucket(bucket string) Config {
	return Config{Provider: ProviderGCS, GCS: GCSConfig{Bucket: bucket}}
}

// NewBucket opens a live client session for the configured provider. When reg
// is non-nil the bucket is instrumented with operation metrics.
func NewBucket(logger log.Logger, config Config, reg prometheus.Registerer) (objstore.Bucket, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	var (
		bucket objstore.Bucket
		err    error
	)
	switch config.Provider {
	case ProviderFilesystem:
		bucket, err = filesystem.NewBucket(config.Filesystem.Directory)
	case ProviderGCS:
		conf, confErr := yaml.Marshal(config.GCS)
		if confErr != nil {
			return nil, confErr
		}
		bucket, err = gcs.NewBucket(context.Background(), logger, conf, "parquet-dataset-reader")
	default:
		return nil, errors.Errorf("unknown storage provider %q", config.Provider)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error opening bucket")
	}
	if reg != nil {
		bucket = objstore.WrapWithMetrics(bucket, reg, config.Provider)
	}
	return bucket, nil
}

// BucketReader exposes one bucket object through io.ReaderAt and io.Seeker so
// that parquet readers can address the footer and individual pages without
// downloading the whole file.
type BucketReader struct {
	name   string
	size   int64
	offset int64
	bucket objstore.Bucket
}

// OpenBucketReader stats the object to learn its size and returns a reader
// positioned at the start.
func OpenBucketReader(ctx context.Context, bucket objstore.Bucket, name string) (*BucketReader, error) {
	attrs, err := bucket.Attributes(ctx, name)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attributes for "+name)
	}
	return &BucketReader{name: name, size: attrs.Size, bucket: bucket}, nil
}

func (r *BucketReader) Name() string {
	return r.name
}

func (r *BucketReader) Size() int64 {
	return r.size
}

func (r *BucketReader) ReadAt(p []byte, off int64) (n int, err error) {
	if off >= r.size {
		return 0, io.EOF
	}
	readLen := int64(len(p))
	if off+readLen > r.size {
		readLen = r.size - off
	}
	if readLen > chunkedReadSize {
		n, err = newChunkedReader(readAtFunc(r.readRange), chunkedReadSize).ReadAt(p[:readLen], off)
	} else {
		n, err = r.readRange(p[:readLen], off)
	}
	if err == nil && int64(n) < int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

func (r *BucketReader) readRange(p []byte, off int64) (int, error) {
	rangeReader, err := r.bucket.GetRange(context.Background(), r.name, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rangeReader.Close()

	return io.ReadFull(rangeReader, p)
}

func (r *BucketReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.offset)
	r.offset += int64(n)
	return n, err
}

func (r *BucketReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		r.offset = offset
	case io.SeekCurrent:
		r.offset += offset
	case io.SeekEnd:
		r.offset = r.size + offset
	default:
		return 0, errors.Errorf("invalid seek whence %d", whence)
	}
	if r.offset < 0 {
		return 0, errors.New("negative seek offset")
	}
	return r.offset, nil
}

package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigRoundTrip(t *testing.T) {
	config := GCSBucket("analytics-datasets")

	encoded, err := yaml.Marshal(config)
	require.NoError(t, err)

	var decoded Config
	require.NoError(t, yaml.Unmarshal(encoded, &decoded))
	require.Equal(t, config, decoded)
}

func TestNewBucketUnknownProvider(t *testing.T) {
	_, err := NewBucket(nil, Config{Provider: "s3"}, nil)
	require.Error(t, err)
}

func TestBucketReader(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("0123456789abcdef")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "object"), contents, 0644))

	bucket, err := NewBucket(nil, FilesystemBucket(dir), nil)
	require.NoError(t, err)
	defer bucket.Close()

	reader, err := OpenBucketReader(context.Background(), bucket, "object")
	require.NoError(t, err)
	require.Equal(t, int64(len(contents)), reader.Size())

	buf := make([]byte, 4)
	n, err := reader.ReadAt(buf, 6)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte("6789"), buf)

	// Reads past the end are truncated and flagged with EOF.
	n, err = reader.ReadAt(buf, int64(len(contents))-2)
	require.Equal(t, io.EOF, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte("ef"), buf[:n])

	_, err = reader.ReadAt(buf, int64(len(contents)))
	require.Equal(t, io.EOF, err)
}

func TestBucketReaderSeek(t *testing.T) {
	dir := t.TempDir()
	contents := []byte("0123456789")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "object"), contents, 0644))

	bucket, err := NewBucket(nil, FilesystemBucket(dir), nil)
	require.NoError(t, err)
	defer bucket.Close()

	reader, err := OpenBucketReader(context.Background(), bucket, "object")
	require.NoError(t, err)

	offset, err := reader.Seek(-4, io.SeekEnd)
	require.NoError(t, err)
	require.Equal(t, int64(6), offset)

	buf := make([]byte, 4)
	n, err := reader.Read(buf)
	require.NoError(t, err)
	require.Equal(t, []byte("6789"), buf[:n])

	offset, err = reader.Seek(2, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(2), offset)

	offset, err = reader.Seek(3, io.SeekCurrent)
	require.NoError(t, err)
	require.Equal(t, int64(5), offset)

	_, err = reader.Seek(-1, io.SeekStart)
	require.Error(t, err)
}

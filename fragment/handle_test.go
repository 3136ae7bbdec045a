package fragment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"Shopify/parquet-dataset-reader/pqtest"
	"Shopify/parquet-dataset-reader/storage"
)

func TestHandleRoundTrip(t *testing.T) {
	handle := NewHandle(
		"sales/year=2020/part-0.parquet",
		storage.GCSBucket("analytics-datasets"),
		PartitionKeys{{Name: "year", Value: "2020"}},
	)

	encoded, err := handle.Marshal()
	require.NoError(t, err)
	decoded, err := UnmarshalHandle(encoded)
	require.NoError(t, err)
	require.Equal(t, handle, decoded)

	reencoded, err := decoded.Marshal()
	require.NoError(t, err)
	redecoded, err := UnmarshalHandle(reencoded)
	require.NoError(t, err)
	require.Equal(t, handle, redecoded)
}

func TestHandleConstructionDoesNoIO(t *testing.T) {
	// The bucket directory does not exist. Building and encoding a handle
	// against it must still succeed.
	store := storage.FilesystemBucket("/nonexistent/dataset/dir")
	handle := NewHandle("year=2020/part-0.parquet", store, nil)

	_, err := handle.Marshal()
	require.NoError(t, err)
}

func TestHandleResolve(t *testing.T) {
	dir := t.TempDir()
	path := "year=2020/part-0.parquet"
	require.NoError(t, pqtest.WriteFile(filepath.Join(dir, path), [][]pqtest.Row{
		pqtest.NumberedRows(0, 50),
		pqtest.NumberedRows(50, 50),
	}))

	handle := NewHandle(path, storage.FilesystemBucket(dir), PartitionKeysFromPath(path))
	resolved, err := handle.Resolve(context.Background())
	require.NoError(t, err)
	defer resolved.Close()

	require.Equal(t, path, resolved.Path())
	require.Equal(t, int64(100), resolved.NumRows())
	require.Equal(t, 2, len(resolved.MetaData().RowGroups))
	require.Equal(t, PartitionKeys{{Name: "year", Value: "2020"}}, resolved.PartitionKeys())
}

func TestHandleResolveMissingObject(t *testing.T) {
	handle := NewHandle("missing.parquet", storage.FilesystemBucket(t.TempDir()), nil)
	_, err := handle.Resolve(context.Background())
	require.Error(t, err)
}

func TestHandleResolveUnknownFormat(t *testing.T) {
	handle := Handle{Format: "csv", Path: "data.csv", Store: storage.FilesystemBucket(t.TempDir())}
	_, err := handle.Resolve(context.Background())
	require.Error(t, err)
}

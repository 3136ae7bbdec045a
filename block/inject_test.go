package block

import (
	"testing"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/stretchr/testify/require"

	"Shopify/parquet-dataset-reader/fragment"
)

func TestWithPartitionColumns(t *testing.T) {
	batch := int64Batch(0, 3)
	defer batch.Release()

	target := arrow.NewSchema([]arrow.Field{
		{Name: "year", Type: arrow.PrimitiveTypes.Int64},
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
		{Name: "region", Type: arrow.BinaryTypes.String},
	}, nil)
	keys := fragment.PartitionKeys{
		{Name: "year", Value: "2020"},
		{Name: "region", Value: "west"},
	}

	out, err := WithPartitionColumns(memory.DefaultAllocator, batch, target, keys)
	require.NoError(t, err)
	defer out.Release()

	require.True(t, out.Schema().Equal(target))
	require.Equal(t, int64(3), out.NumRows())

	year := out.Column(0).(*array.Int64)
	require.Equal(t, []int64{2020, 2020, 2020}, year.Int64Values())

	values := out.Column(1).(*array.Int64)
	require.Equal(t, []int64{0, 1, 2}, values.Int64Values())

	region := out.Column(2).(*array.String)
	for i := 0; i < region.Len(); i++ {
		require.Equal(t, "west", region.Value(i))
	}
}

func TestWithPartitionColumnsBadValue(t *testing.T) {
	batch := int64Batch(0, 2)
	defer batch.Release()

	target := arrow.NewSchema([]arrow.Field{
		{Name: "year", Type: arrow.PrimitiveTypes.Int64},
		{Name: "a", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	keys := fragment.PartitionKeys{{Name: "year", Value: "not-a-number"}}

	_, err := WithPartitionColumns(memory.DefaultAllocator, batch, target, keys)
	require.Error(t, err)
}

func TestWithPartitionColumnsMissingColumn(t *testing.T) {
	batch := int64Batch(0, 2)
	defer batch.Release()

	target := arrow.NewSchema([]arrow.Field{
		{Name: "b", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	_, err := WithPartitionColumns(memory.DefaultAllocator, batch, target, nil)
	require.Error(t, err)
}

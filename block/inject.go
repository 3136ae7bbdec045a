package block

import (
	"strconv"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/pkg/errors"

	"Shopify/parquet-dataset-reader/fragment"
)

// WithPartitionColumns rebuilds rec against the target schema, filling every
// column that is a partition key with a constant array of the key's value.
// Remaining fields are taken from rec by name, so each partition column lands
// at the index its name occupies in the target schema.
func WithPartitionColumns(mem memory.Allocator, rec arrow.Record, target *arrow.Schema, keys fragment.PartitionKeys) (arrow.Record, error) {
	numRows := rec.NumRows()
	cols := make([]arrow.Array, 0, len(target.Fields()))
	constants := make([]arrow.Array, 0, len(keys))
	releaseConstants := func() {
		for _, arr := range constants {
			arr.Release()
		}
	}
	for _, field := range target.Fields() {
		if value, ok := keys.Lookup(field.Name); ok {
			arr, err := constantArray(mem, field.Type, value, numRows)
			if err != nil {
				releaseConstants()
				return nil, err
			}
			constants = append(constants, arr)
			cols = append(cols, arr)
			continue
		}
		indices := rec.Schema().FieldIndices(field.Name)
		if len(indices) == 0 {
			releaseConstants()
			return nil, errors.Errorf("column %q missing from decoded batch", field.Name)
		}
		cols = append(cols, rec.Column(indices[0]))
	}
	out := array.NewRecord(target, cols, numRows)
	releaseConstants()
	return out, nil
}

func constantArray(mem memory.Allocator, dtype arrow.DataType, value string, numRows int64) (arrow.Array, error) {
	switch dtype.ID() {
	case arrow.INT64:
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "partition value %q is not an int64", value)
		}
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		for i := int64(0); i < numRows; i++ {
			builder.Append(parsed)
		}
		return builder.NewArray(), nil
	case arrow.FLOAT64:
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "partition value %q is not a float64", value)
		}
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for i := int64(0); i < numRows; i++ {
			builder.Append(parsed)
		}
		return builder.NewArray(), nil
	case arrow.BOOL:
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, errors.Wrapf(err, "partition value %q is not a bool", value)
		}
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for i := int64(0); i < numRows; i++ {
			builder.Append(parsed)
		}
		return builder.NewArray(), nil
	case arrow.STRING:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for i := int64(0); i < numRows; i++ {
			builder.Append(value)
		}
		return builder.NewArray(), nil
	default:
		return nil, errors.Errorf("unsupported partition column type %s", dtype)
	}
}

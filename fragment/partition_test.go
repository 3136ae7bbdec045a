package fragment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPartitionKeysFromPath(t *testing.T) {
	cases := []struct {
		name     string
		path     string
		expected PartitionKeys
	}{
		{
			name: "unpartitioned",
			path: "data/part-0.parquet",
		},
		{
			name:     "single key",
			path:     "year=2020/part-0.parquet",
			expected: PartitionKeys{{Name: "year", Value: "2020"}},
		},
		{
			name: "nested keys in path order",
			path: "sales/year=2020/month=05/part-3.parquet",
			expected: PartitionKeys{
				{Name: "year", Value: "2020"},
				{Name: "month", Value: "05"},
			},
		},
		{
			name:     "escaped value",
			path:     "country=north%20america/part-0.parquet",
			expected: PartitionKeys{{Name: "country", Value: "north america"}},
		},
		{
			name:     "key=value in file name is ignored",
			path:     "year=2020/group=a.parquet",
			expected: PartitionKeys{{Name: "year", Value: "2020"}},
		},
	}
	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, PartitionKeysFromPath(testCase.path))
		})
	}
}

func TestPartitionKeysLookup(t *testing.T) {
	keys := PartitionKeys{
		{Name: "year", Value: "2020"},
		{Name: "month", Value: "05"},
	}
	value, ok := keys.Lookup("month")
	require.True(t, ok)
	require.Equal(t, "05", value)

	_, ok = keys.Lookup("day")
	require.False(t, ok)
}

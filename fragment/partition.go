package fragment

import (
	"net/url"
	"strings"
)

// PartitionKey is one column=value pair implied by a fragment's location in a
// hive-partitioned directory layout.
type PartitionKey struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PartitionKeys holds the partition predicate of a fragment in path order.
type PartitionKeys []PartitionKey

// Lookup returns the raw value for a partition column.
func (k PartitionKeys) Lookup(name string) (string, bool) {
	for _, key := range k {
		if key.Name == name {
			return key.Value, true
		}
	}
	return "", false
}

// PartitionKeysFromPath extracts key=value directory segments, e.g.
// "year=2020/month=05/part-0.parquet" yields {year: 2020}, {month: 05}.
// Values are path-unescaped. The file name and segments without a key name
// are skipped.
func PartitionKeysFromPath(path string) PartitionKeys {
	var keys PartitionKeys
	segments := strings.Split(path, "/")
	if len(segments) > 0 {
		segments = segments[:len(segments)-1]
	}
	for _, segment := range segments {
		name, value, ok := strings.Cut(segment, "=")
		if !ok || name == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
		keys = append(keys, PartitionKey{Name: name, Value: value})
	}
	return keys
}

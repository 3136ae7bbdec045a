// Package pqtest writes small parquet datasets onto the local filesystem for
// tests.
package pqtest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/parquet-go"
)

type Row struct {
	A int64  `parquet:"a"`
	B string `parquet:"b,dict"`
}

// NumberedRows produces n rows with A running from start and B its decimal
// string.
func NumberedRows(start int64, n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Row{A: start + int64(i), B: fmt.Sprintf("%d", start+int64(i))})
	}
	return rows
}

// WriteFile writes one parquet file with one row group per element of groups.
func WriteFile(path string, groups [][]Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := parquet.NewGenericWriter[Row](f)
	for _, rows := range groups {
		if _, err := writer.Write(rows); err != nil {
			return err
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}
	return writer.Close()
}

// WriteDataset lays out multiple files under dir, keyed by relative path.
// Partitioned layouts are expressed through the keys, e.g.
// "year=2020/part-0.parquet".
func WriteDataset(dir string, files map[string][][]Row) error {
	for name, groups := range files {
		if err := WriteFile(filepath.Join(dir, name), groups); err != nil {
			return err
		}
	}
	return nil
}

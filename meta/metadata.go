package meta

import (
	"Shopify/parquet-dataset-reader/fragment"
)

// Column describes one leaf column of a parquet schema.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// FileMetadata summarizes one parquet file for planning. It is fetched once
// per file, cached for the duration of planning, and cheap to send between
// processes.
type FileMetadata struct {
	Path              string   `json:"path"`
	NumRows           int64    `json:"num_rows"`
	RowGroupByteSizes []int64  `json:"row_group_byte_sizes"`
	Columns           []Column `json:"columns"`
}

func (m FileMetadata) NumRowGroups() int {
	return len(m.RowGroupByteSizes)
}

func (m FileMetadata) TotalByteSize() int64 {
	var total int64
	for _, size := range m.RowGroupByteSizes {
		total += size
	}
	return total
}

// FromFragment summarizes the footer of an open fragment.
func FromFragment(f *fragment.Fragment) FileMetadata {
	footer := f.MetaData()
	out := FileMetadata{Path: f.Path()}
	for _, rowGroup := range footer.RowGroups {
		out.NumRows += rowGroup.NumRows
		out.RowGroupByteSizes = append(out.RowGroupByteSizes, rowGroup.TotalByteSize)
	}
	for i := 0; i < footer.Schema.NumColumns(); i++ {
		column := footer.Schema.Column(i)
		out.Columns = append(out.Columns, Column{
			Name: column.Name(),
			Type: column.PhysicalType().String(),
		})
	}
	return out
}

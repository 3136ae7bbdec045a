package meta

// ParquetToArrowSizeMultiplier approximates how much the decoded in-memory
// representation expands compared to compressed parquet bytes.
const ParquetToArrowSizeMultiplier = 5

// EstimateInMemorySize converts row-group byte sizes into an estimated
// decoded footprint. The result is advisory, an upper-bound style figure for
// planning and progress display, never for correctness.
func EstimateInMemorySize(metas []FileMetadata) int64 {
	var total int64
	for _, m := range metas {
		total += m.TotalByteSize()
	}
	return total * ParquetToArrowSizeMultiplier
}

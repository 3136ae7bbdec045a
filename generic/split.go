package generic

// Split divides items into n contiguous groups. When the length does not
// divide evenly, earlier groups receive one extra element. Groups may be
// empty when n exceeds the number of items.
func Split[T any](items []T, n int) [][]T {
	if n < 1 {
		n = 1
	}
	groups := make([][]T, 0, n)
	size := len(items) / n
	remainder := len(items) % n
	offset := 0
	for i := 0; i < n; i++ {
		length := size
		if i < remainder {
			length++
		}
		groups = append(groups, items[offset:offset+length])
		offset += length
	}
	return groups
}

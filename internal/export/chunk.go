package export

// chunk splits items into consecutive segments of at most size elements.
// The segments share the backing array of items.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) <= size {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}

	segments := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		segments = append(segments, items[start:end:end])
	}
	return segments
}

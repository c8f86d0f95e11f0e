package pipeline

import "slices"

// SortUnique sorts keys in place and removes duplicates. The returned slice
// shares the backing array of keys.
func SortUnique(keys []uint32) []uint32 {
	slices.Sort(keys)
	return slices.Compact(keys)
}

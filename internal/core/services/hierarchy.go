package services

import (
	"cmp"
	"slices"
	"time"
)

// OrderByAncestry orders a self-referencing batch so every parent in the
// batch precedes its children. Depth is the length of the parent chain within
// the batch; ties keep creation order. Parent cycles are broken at the first
// repeated id.
func OrderByAncestry[T any](
	items []T,
	id func(T) string,
	parent func(T) string,
	created func(T) time.Time,
) []T {
	index := make(map[string]int, len(items))
	for i, item := range items {
		index[id(item)] = i
	}

	depths := make([]int, len(items))
	for i, item := range items {
		seen := map[string]bool{id(item): true}
		depth := 0
		for p := parent(item); p != ""; {
			j, ok := index[p]
			if !ok || seen[p] {
				break
			}
			seen[p] = true
			depth++
			p = parent(items[j])
		}
		depths[i] = depth
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if c := cmp.Compare(depths[a], depths[b]); c != 0 {
			return c
		}
		return created(items[a]).Compare(created(items[b]))
	})

	out := make([]T, len(items))
	for i, j := range order {
		out[i] = items[j]
	}
	return out
}

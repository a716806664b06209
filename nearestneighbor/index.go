// Package nearestneighbor provides the nearest neighbor structures used by the sampling planners.
// Every backend satisfies Index so planners can swap them without touching their growth loop.
package nearestneighbor

import (
	"sort"
)

// Index is a set of items answering proximity queries. Queries return results ordered by
// increasing distance to the query, ties in insertion order.
type Index[T any] interface {
	Add(items ...T)
	// Remove deletes item and reports whether it was present.
	Remove(item T) bool
	// Nearest returns the closest item to query; false when the index is empty.
	Nearest(query T) (T, bool)
	NearestK(query T, k int) []T
	NearestR(query T, radius float64) []T
	Size() int
	Clear()
	// List returns every item in insertion order.
	List() []T
}

// DistanceFunc measures the distance between two items.
type DistanceFunc[T any] func(a, b T) float64

type neighbor[T any] struct {
	item T
	dist float64
	seq  int
}

// sortNeighbors orders by distance, then by insertion sequence.
func sortNeighbors[T any](ns []neighbor[T]) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].dist != ns[j].dist {
			return ns[i].dist < ns[j].dist
		}
		return ns[i].seq < ns[j].seq
	})
}

func items[T any](ns []neighbor[T]) []T {
	out := make([]T, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.item)
	}
	return out
}

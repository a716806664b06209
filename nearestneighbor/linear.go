package nearestneighbor

import (
	"math"
	"runtime"
	"sync"

	"go.viam.com/utils"
)

// DefaultParallelNeighbors is the index size above which Nearest splits its scan across goroutines.
const DefaultParallelNeighbors = 1000

// Linear answers queries by scanning every item. Above parallelNeighbors items Nearest scans in
// parallel and still returns the same item as a serial scan.
type Linear[T comparable] struct {
	items             []T
	distance          DistanceFunc[T]
	parallelNeighbors int
	nCPU              int
}

// NewLinear creates a linear index using distance.
func NewLinear[T comparable](distance DistanceFunc[T]) *Linear[T] {
	return &Linear[T]{
		distance:          distance,
		parallelNeighbors: DefaultParallelNeighbors,
		nCPU:              max(1, runtime.NumCPU()/2),
	}
}

// SetParallelism configures when and how wide Nearest parallelizes. A threshold <= 0 disables it.
func (l *Linear[T]) SetParallelism(threshold, nCPU int) {
	l.parallelNeighbors = threshold
	l.nCPU = max(1, nCPU)
}

// Add appends items.
func (l *Linear[T]) Add(items ...T) {
	l.items = append(l.items, items...)
}

// Remove deletes the first occurrence of item.
func (l *Linear[T]) Remove(item T) bool {
	for i, it := range l.items {
		if it == item {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return true
		}
	}
	return false
}

// Nearest returns the closest item, the earliest inserted one on ties.
func (l *Linear[T]) Nearest(query T) (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	if l.parallelNeighbors > 0 && len(l.items) > l.parallelNeighbors && l.nCPU > 1 {
		return l.parallelNearest(query), true
	}
	idx, _ := l.scan(query, 0, len(l.items))
	return l.items[idx], true
}

func (l *Linear[T]) scan(query T, from, to int) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i := from; i < to; i++ {
		if d := l.distance(query, l.items[i]); d < bestDist || best < 0 {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func (l *Linear[T]) parallelNearest(query T) T {
	type result struct {
		idx  int
		dist float64
	}
	workers := min(l.nCPU, len(l.items))
	chunk := (len(l.items) + workers - 1) / workers
	results := make([]result, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		from := w * chunk
		to := min(from+chunk, len(l.items))
		results[w] = result{idx: -1}
		if from >= to {
			continue
		}
		wg.Add(1)
		utils.PanicCapturingGo(func() {
			defer wg.Done()
			idx, dist := l.scan(query, from, to)
			results[w] = result{idx, dist}
		})
	}
	wg.Wait()

	// chunks are merged in order so ties keep the lowest index, as in a serial scan
	best := results[0]
	for _, r := range results[1:] {
		if r.idx >= 0 && (best.idx < 0 || r.dist < best.dist) {
			best = r
		}
	}
	return l.items[best.idx]
}

func (l *Linear[T]) neighbors(query T) []neighbor[T] {
	ns := make([]neighbor[T], 0, len(l.items))
	for i, it := range l.items {
		ns = append(ns, neighbor[T]{item: it, dist: l.distance(query, it), seq: i})
	}
	return ns
}

// NearestK returns the k closest items.
func (l *Linear[T]) NearestK(query T, k int) []T {
	if k <= 0 {
		return nil
	}
	ns := l.neighbors(query)
	sortNeighbors(ns)
	if k < len(ns) {
		ns = ns[:k]
	}
	return items(ns)
}

// NearestR returns every item within radius of query.
func (l *Linear[T]) NearestR(query T, radius float64) []T {
	ns := l.neighbors(query)
	within := ns[:0]
	for _, n := range ns {
		if n.dist <= radius {
			within = append(within, n)
		}
	}
	sortNeighbors(within)
	return items(within)
}

// Size returns the number of items.
func (l *Linear[T]) Size() int {
	return len(l.items)
}

// Clear removes every item.
func (l *Linear[T]) Clear() {
	l.items = nil
}

// List returns a copy of the items in insertion order.
func (l *Linear[T]) List() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

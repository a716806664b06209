package nearestneighbor

import (
	"math"
	"sort"
)

// PointFunc returns the coordinates of an item.
type PointFunc[T any] func(item T) []float64

type kdNode[T comparable] struct {
	item    T
	point   []float64
	seq     int
	removed bool
	lo, hi  *kdNode[T]
}

// KDTree is an incrementally built k-d tree under the Euclidean metric. Items go into the tree
// in insertion order following Bentley's insertion: at depth d a point goes to the high side
// when its coordinate d is greater than the node's, otherwise to the low side. Removal leaves a
// tombstone; the tree is rebuilt once tombstones outnumber live items.
//
// Results only agree with a Space's metric when that metric is Euclidean over the coordinates
// returned by the PointFunc.
type KDTree[T comparable] struct {
	root       *kdNode[T]
	point      PointFunc[T]
	dim        int
	size       int
	tombstones int
	nextSeq    int
}

// NewKDTree creates an empty tree reading coordinates through point.
func NewKDTree[T comparable](point PointFunc[T]) *KDTree[T] {
	return &KDTree[T]{point: point}
}

// Add inserts items.
func (t *KDTree[T]) Add(items ...T) {
	for _, it := range items {
		t.insert(it, t.nextSeq)
		t.nextSeq++
	}
}

func (t *KDTree[T]) insert(item T, seq int) {
	p := t.point(item)
	if t.root == nil {
		t.dim = len(p)
		t.root = &kdNode[T]{item: item, point: p, seq: seq}
		t.size++
		return
	}
	n := t.root
	for d := 0; ; d = (d + 1) % t.dim {
		child := &n.lo
		if p[d] > n.point[d] {
			child = &n.hi
		}
		if *child == nil {
			*child = &kdNode[T]{item: item, point: p, seq: seq}
			t.size++
			return
		}
		n = *child
	}
}

// Remove tombstones item.
func (t *KDTree[T]) Remove(item T) bool {
	p := t.point(item)
	n := t.root
	for d := 0; n != nil; d = (d + 1) % t.dim {
		if !n.removed && n.item == item {
			n.removed = true
			t.size--
			t.tombstones++
			if t.tombstones > t.size {
				t.rebuild()
			}
			return true
		}
		if p[d] > n.point[d] {
			n = n.hi
		} else {
			n = n.lo
		}
	}
	return false
}

func (t *KDTree[T]) rebuild() {
	live := t.live()
	t.root = nil
	t.size = 0
	t.tombstones = 0
	for _, n := range live {
		t.insert(n.item, n.seq)
	}
}

func (t *KDTree[T]) live() []*kdNode[T] {
	var out []*kdNode[T]
	var walk func(n *kdNode[T])
	walk = func(n *kdNode[T]) {
		if n == nil {
			return
		}
		if !n.removed {
			out = append(out, n)
		}
		walk(n.lo)
		walk(n.hi)
	}
	walk(t.root)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func sqDist(a, b []float64) float64 {
	sum := 0.
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// better orders candidates by squared distance, then insertion sequence.
func better(dist float64, seq int, bestDist float64, bestSeq int) bool {
	return dist < bestDist || (dist == bestDist && seq < bestSeq)
}

// Nearest returns the closest live item, the earliest inserted one on ties.
func (t *KDTree[T]) Nearest(query T) (T, bool) {
	var best *kdNode[T]
	bestDist := math.Inf(1)
	q := t.point(query)

	var search func(n *kdNode[T], d int)
	search = func(n *kdNode[T], d int) {
		if n == nil {
			return
		}
		if !n.removed {
			dist := sqDist(q, n.point)
			if best == nil || better(dist, n.seq, bestDist, best.seq) {
				best, bestDist = n, dist
			}
		}
		diff := q[d] - n.point[d]
		near, far := n.lo, n.hi
		if diff > 0 {
			near, far = n.hi, n.lo
		}
		next := (d + 1) % t.dim
		search(near, next)
		if diff*diff <= bestDist {
			search(far, next)
		}
	}
	search(t.root, 0)

	if best == nil {
		var zero T
		return zero, false
	}
	return best.item, true
}

// NearestK returns the k closest live items.
func (t *KDTree[T]) NearestK(query T, k int) []T {
	if k <= 0 || t.root == nil {
		return nil
	}
	q := t.point(query)
	found := make([]neighbor[T], 0, k+1)
	worst := func() float64 {
		if len(found) < k {
			return math.Inf(1)
		}
		return found[len(found)-1].dist
	}

	var search func(n *kdNode[T], d int)
	search = func(n *kdNode[T], d int) {
		if n == nil {
			return
		}
		if !n.removed {
			dist := sqDist(q, n.point)
			if len(found) < k || better(dist, n.seq, found[len(found)-1].dist, found[len(found)-1].seq) {
				found = append(found, neighbor[T]{item: n.item, dist: dist, seq: n.seq})
				sortNeighbors(found)
				if len(found) > k {
					found = found[:k]
				}
			}
		}
		diff := q[d] - n.point[d]
		near, far := n.lo, n.hi
		if diff > 0 {
			near, far = n.hi, n.lo
		}
		next := (d + 1) % t.dim
		search(near, next)
		if diff*diff <= worst() {
			search(far, next)
		}
	}
	search(t.root, 0)
	return items(found)
}

// NearestR returns every live item within radius of query.
func (t *KDTree[T]) NearestR(query T, radius float64) []T {
	if t.root == nil || radius < 0 {
		return nil
	}
	q := t.point(query)
	r2 := radius * radius
	var found []neighbor[T]

	var search func(n *kdNode[T], d int)
	search = func(n *kdNode[T], d int) {
		if n == nil {
			return
		}
		if !n.removed {
			if dist := sqDist(q, n.point); dist <= r2 {
				found = append(found, neighbor[T]{item: n.item, dist: dist, seq: n.seq})
			}
		}
		diff := q[d] - n.point[d]
		next := (d + 1) % t.dim
		if diff <= radius {
			search(n.lo, next)
		}
		if diff >= -radius {
			search(n.hi, next)
		}
	}
	search(t.root, 0)
	sortNeighbors(found)
	return items(found)
}

// Size returns the number of live items.
func (t *KDTree[T]) Size() int {
	return t.size
}

// Clear empties the tree.
func (t *KDTree[T]) Clear() {
	t.root = nil
	t.size = 0
	t.tombstones = 0
	t.nextSeq = 0
}

// List returns the live items in insertion order.
func (t *KDTree[T]) List() []T {
	live := t.live()
	out := make([]T, 0, len(live))
	for _, n := range live {
		out = append(out, n.item)
	}
	return out
}

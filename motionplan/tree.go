package motionplan

import (
	"github.com/pkg/errors"

	"go.viam.com/optrrt/statespace"
)

const noParent = -1

// Motion is a node of the planning tree: a state, a link to the motion it was reached from and
// the accumulated cost from its root.
type Motion struct {
	id     int
	state  statespace.State
	parent int
	cost   float64
	// cost of the edge from the parent, so descendants can be updated without recomputing distances
	incCost float64
	inGoal  bool
}

// ID is the handle of the motion in its tree. IDs are assigned in insertion order from zero.
func (m *Motion) ID() int {
	return m.id
}

// State returns the motion's state. It must not be modified.
func (m *Motion) State() statespace.State {
	return m.state
}

// Cost returns the accumulated path cost from the root.
func (m *Motion) Cost() float64 {
	return m.cost
}

// Parent returns the ID of the motion this one was reached from, -1 for roots.
func (m *Motion) Parent() int {
	return m.parent
}

// IsRoot is true for motions created from start states.
func (m *Motion) IsRoot() bool {
	return m.parent == noParent
}

// motionTree is an arena of motions indexed by ID. children is the inverse of the parent links and
// lets cost changes flow down to descendants.
type motionTree struct {
	motions    []*Motion
	children   [][]int
	maxMotions int
}

func newMotionTree(maxMotions int) *motionTree {
	return &motionTree{maxMotions: maxMotions}
}

func (mt *motionTree) size() int {
	return len(mt.motions)
}

func (mt *motionTree) get(id int) *Motion {
	if id < 0 || id >= len(mt.motions) {
		return nil
	}
	return mt.motions[id]
}

func (mt *motionTree) parent(m *Motion) *Motion {
	return mt.get(m.parent)
}

// insert adds a motion holding a copy of state. A nil parent makes a root of cost zero.
func (mt *motionTree) insert(state statespace.State, parent *Motion, incCost float64) (*Motion, error) {
	if mt.maxMotions > 0 && len(mt.motions) >= mt.maxMotions {
		return nil, errors.Wrapf(ErrTreeCapacity, "limit of %d motions reached", mt.maxMotions)
	}
	m := &Motion{id: len(mt.motions), state: state.Copy(), parent: noParent}
	if parent != nil {
		m.parent = parent.id
		m.incCost = incCost
		m.cost = parent.cost + incCost
		mt.children[parent.id] = append(mt.children[parent.id], m.id)
	}
	mt.motions = append(mt.motions, m)
	mt.children = append(mt.children, nil)
	return m, nil
}

// isAncestor reports whether a lies on the path from b to its root, b included.
func (mt *motionTree) isAncestor(a, b *Motion) bool {
	for cur := b; cur != nil; cur = mt.parent(cur) {
		if cur == a {
			return true
		}
	}
	return false
}

// reparent moves m under newParent. Descendants of m keep stale costs until propagateCost runs.
func (mt *motionTree) reparent(m, newParent *Motion, incCost float64) error {
	if mt.isAncestor(m, newParent) {
		return errRewireCycle
	}
	if old := mt.parent(m); old != nil {
		siblings := mt.children[old.id]
		for i, c := range siblings {
			if c == m.id {
				mt.children[old.id] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	m.parent = newParent.id
	m.incCost = incCost
	m.cost = newParent.cost + incCost
	mt.children[newParent.id] = append(mt.children[newParent.id], m.id)
	return nil
}

// propagateCost recomputes the cost of every descendant of m breadth first and returns how many
// motions were updated.
func (mt *motionTree) propagateCost(m *Motion) int {
	updated := 0
	queue := append([]int(nil), mt.children[m.id]...)
	for len(queue) > 0 {
		child := mt.motions[queue[0]]
		queue = queue[1:]
		child.cost = mt.motions[child.parent].cost + child.incCost
		updated++
		queue = append(queue, mt.children[child.id]...)
	}
	return updated
}

// pathTo returns copies of the states from m's root to m.
func (mt *motionTree) pathTo(m *Motion) []statespace.State {
	var path []statespace.State
	for cur := m; cur != nil; cur = mt.parent(cur) {
		path = append(path, cur.state.Copy())
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (mt *motionTree) clear() {
	mt.motions = nil
	mt.children = nil
}

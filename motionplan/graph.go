package motionplan

import (
	"go.viam.com/optrrt/statespace"
)

// Vertex is a motion in a PlannerData snapshot.
type Vertex struct {
	ID    int              `json:"id"`
	State statespace.State `json:"state"`
	Cost  float64          `json:"cost"`
	Start bool             `json:"start,omitempty"`
	Goal  bool             `json:"goal,omitempty"`
}

// Edge links a parent vertex to its child.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// PlannerData is a copy of a planner's tree at the time it was exported. It does not change as the
// planner keeps growing.
type PlannerData struct {
	Planner  string   `json:"planner"`
	Vertices []Vertex `json:"vertices"`
	Edges    []Edge   `json:"edges"`
}

func exportTree(name string, mt *motionTree) *PlannerData {
	data := &PlannerData{
		Planner:  name,
		Vertices: make([]Vertex, 0, mt.size()),
		Edges:    make([]Edge, 0, mt.size()),
	}
	for _, m := range mt.motions {
		data.Vertices = append(data.Vertices, Vertex{
			ID:    m.id,
			State: m.state.Copy(),
			Cost:  m.cost,
			Start: m.IsRoot(),
			Goal:  m.inGoal,
		})
		if !m.IsRoot() {
			data.Edges = append(data.Edges, Edge{From: m.parent, To: m.id, Weight: m.incCost})
		}
	}
	return data
}

package motionplan

import (
	"go.viam.com/optrrt/statespace"
)

// Solution is a path found by a planner.
type Solution struct {
	// States from a start state to the last state of the path.
	Path []statespace.State `json:"path"`
	// Accumulated cost of the path under the space's metric.
	Cost float64 `json:"cost"`
	// Approximate is true when the path ends outside the goal region.
	Approximate bool `json:"approximate"`
	// Distance from the end of the path to the goal region, zero for exact solutions.
	GoalDistance float64 `json:"goal_distance,omitempty"`
}

// PathLength sums the distances between consecutive states of path.
func PathLength(space statespace.Space, path []statespace.State) float64 {
	length := 0.
	for i := 1; i < len(path); i++ {
		length += space.Distance(path[i-1], path[i])
	}
	return length
}

// Stats counts what happened while growing a tree.
type Stats struct {
	Iterations     int
	GoalSamples    int
	InvalidMotions int
	Rewires        int
	// Motions whose cost changed because an ancestor was rewired.
	CostUpdates int
	Motions     int
	// Largest and most recent rewiring radius used.
	MaxRadius  float64
	LastRadius float64
}

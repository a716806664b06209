package statespace

import (
	"math/rand"

	"github.com/pkg/errors"
)

// GoalRegion decides whether a state reaches the goal.
type GoalRegion interface {
	// IsSatisfied reports whether s is in the goal along with the distance from s to the goal.
	IsSatisfied(s State) (bool, float64)
	// MaximumPathLength is the solution cost below which planning may stop early. Zero means unset.
	MaximumPathLength() float64
}

// GoalSampler is implemented by goal regions states can be drawn from.
type GoalSampler interface {
	GoalRegion
	CanSample() bool
	SampleGoal(rng *rand.Rand) State
}

// GoalBall is the set of states within Radius of Center.
type GoalBall struct {
	space         Space
	center        State
	radius        float64
	maxPathLength float64
}

// NewGoalBall returns a goal region of the given radius around center.
func NewGoalBall(space Space, center State, radius float64) (*GoalBall, error) {
	if space == nil {
		return nil, errors.New("goal region needs a state space")
	}
	if len(center) != space.Dimension() {
		return nil, errors.Errorf("goal center has %d coordinates, space has %d dimensions", len(center), space.Dimension())
	}
	if radius < 0 {
		return nil, errors.Errorf("goal radius can't be negative, got %v", radius)
	}
	return &GoalBall{space: space, center: center.Copy(), radius: radius}, nil
}

// NewGoalState returns a goal satisfied by states within threshold of target.
func NewGoalState(space Space, target State, threshold float64) (*GoalBall, error) {
	return NewGoalBall(space, target, threshold)
}

// SetMaximumPathLength sets the cost under which a solution is good enough.
func (g *GoalBall) SetMaximumPathLength(length float64) {
	g.maxPathLength = length
}

// MaximumPathLength returns the configured bound, zero when unset.
func (g *GoalBall) MaximumPathLength() float64 {
	return g.maxPathLength
}

// Center returns the center of the ball.
func (g *GoalBall) Center() State {
	return g.center.Copy()
}

// Radius returns the radius of the ball.
func (g *GoalBall) Radius() float64 {
	return g.radius
}

// IsSatisfied reports whether s lies within the ball. The distance is to the ball's surface,
// zero inside.
func (g *GoalBall) IsSatisfied(s State) (bool, float64) {
	d := g.space.Distance(s, g.center) - g.radius
	if d <= 0 {
		return true, 0
	}
	return false, d
}

// CanSample is true for every goal ball.
func (g *GoalBall) CanSample() bool {
	return true
}

// SampleGoal draws a state uniformly from the ball, clamped into the space's bounds.
func (g *GoalBall) SampleGoal(rng *rand.Rand) State {
	if g.radius == 0 {
		return g.center.Copy()
	}
	return g.space.EnforceBounds(sampleBall(rng, g.center, g.radius))
}

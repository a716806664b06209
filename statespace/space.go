// Package statespace defines the states a planner searches over together with the collaborators a
// planner consumes: a distance metric, samplers, goal regions and validity checking.
package statespace

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// State is a point in a real vector space.
type State []float64

// Copy returns a state that does not share memory with s.
func (s State) Copy() State {
	if s == nil {
		return nil
	}
	out := make(State, len(s))
	copy(out, s)
	return out
}

func (s State) String() string {
	parts := make([]string, 0, len(s))
	for _, v := range s {
		parts = append(parts, fmt.Sprintf("%.4f", v))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Space is the metric space a planner grows its tree through.
type Space interface {
	// Dimension is the number of degrees of freedom of a state.
	Dimension() int
	// Distance is the metric used for both nearest neighbor queries and path cost.
	Distance(a, b State) float64
	// Interpolate returns the state a fraction t of the way from `from` to `to`.
	Interpolate(from, to State, t float64) State
	// MaximumExtent is the largest distance between any two states in the space.
	MaximumExtent() float64
	SatisfiesBounds(s State) bool
	EnforceBounds(s State) State
}

// Bounds is the closed interval a single dimension may take.
type Bounds struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

// Range returns Max - Min.
func (b Bounds) Range() float64 {
	return b.Max - b.Min
}

// RealVectorSpace is a bounded Euclidean space.
type RealVectorSpace struct {
	bounds []Bounds
	extent float64
}

// NewRealVectorSpace creates a space with one dimension per entry of bounds.
func NewRealVectorSpace(bounds []Bounds) (*RealVectorSpace, error) {
	if len(bounds) == 0 {
		return nil, errors.New("a state space needs at least one dimension")
	}
	extentSq := 0.
	for i, b := range bounds {
		if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
			return nil, errors.Errorf("bounds of dimension %d must be finite, got [%v, %v]", i, b.Min, b.Max)
		}
		if b.Min >= b.Max {
			return nil, errors.Errorf("bounds of dimension %d are empty: min %v is not below max %v", i, b.Min, b.Max)
		}
		extentSq += b.Range() * b.Range()
	}
	stored := make([]Bounds, len(bounds))
	copy(stored, bounds)
	return &RealVectorSpace{bounds: stored, extent: math.Sqrt(extentSq)}, nil
}

// NewUnitCube returns the space [0, 1]^dim.
func NewUnitCube(dim int) (*RealVectorSpace, error) {
	bounds := make([]Bounds, dim)
	for i := range bounds {
		bounds[i] = Bounds{Min: 0, Max: 1}
	}
	return NewRealVectorSpace(bounds)
}

// Bounds returns a copy of the per dimension bounds.
func (rv *RealVectorSpace) Bounds() []Bounds {
	out := make([]Bounds, len(rv.bounds))
	copy(out, rv.bounds)
	return out
}

// Dimension returns the number of dimensions.
func (rv *RealVectorSpace) Dimension() int {
	return len(rv.bounds)
}

// Distance is the L2 norm of a - b.
func (rv *RealVectorSpace) Distance(a, b State) float64 {
	return floats.Distance(a, b, 2)
}

// Interpolate returns from + t * (to - from).
func (rv *RealVectorSpace) Interpolate(from, to State, t float64) State {
	out := make(State, len(from))
	floats.SubTo(out, to, from)
	floats.Scale(t, out)
	floats.Add(out, from)
	return out
}

// MaximumExtent is the length of the diagonal of the bounding box.
func (rv *RealVectorSpace) MaximumExtent() float64 {
	return rv.extent
}

// SatisfiesBounds reports whether every coordinate of s lies in its bounds.
func (rv *RealVectorSpace) SatisfiesBounds(s State) bool {
	if len(s) != len(rv.bounds) {
		return false
	}
	for i, v := range s {
		if v < rv.bounds[i].Min || v > rv.bounds[i].Max {
			return false
		}
	}
	return true
}

// EnforceBounds returns a copy of s with every coordinate clamped into its bounds.
func (rv *RealVectorSpace) EnforceBounds(s State) State {
	out := s.Copy()
	for i := range out {
		out[i] = math.Max(rv.bounds[i].Min, math.Min(rv.bounds[i].Max, out[i]))
	}
	return out
}

package statespace

import (
	"math"

	"github.com/pkg/errors"
)

// defaultResolutionFraction is the fraction of a space's extent between states checked along a motion.
const defaultResolutionFraction = 0.01

// StateValidityChecker decides whether a single state is admissible.
type StateValidityChecker interface {
	IsValid(s State) bool
}

// MotionValidator decides whether the straight motion between two states is admissible. The start
// state is assumed to be valid already.
type MotionValidator interface {
	CheckMotion(from, to State) bool
}

// StateValidityFunc adapts a function to a StateValidityChecker.
type StateValidityFunc func(s State) bool

// IsValid calls f(s).
func (f StateValidityFunc) IsValid(s State) bool {
	return f(s)
}

// MotionValidatorFunc adapts a function to a MotionValidator.
type MotionValidatorFunc func(from, to State) bool

// CheckMotion calls f(from, to).
func (f MotionValidatorFunc) CheckMotion(from, to State) bool {
	return f(from, to)
}

// AllValid accepts every state.
var AllValid = StateValidityFunc(func(State) bool { return true })

// DiscreteMotionValidator checks a motion by sampling states at most resolution apart along it.
type DiscreteMotionValidator struct {
	space      Space
	checker    StateValidityChecker
	resolution float64

	checks  int
	invalid int
}

// NewDiscreteMotionValidator creates a validator checking every resolution distance units. A
// resolution of zero picks one hundredth of the space's extent.
func NewDiscreteMotionValidator(space Space, checker StateValidityChecker, resolution float64) (*DiscreteMotionValidator, error) {
	if space == nil {
		return nil, errors.New("motion validator needs a state space")
	}
	if checker == nil {
		return nil, errors.New("motion validator needs a state validity checker")
	}
	if resolution < 0 {
		return nil, errors.Errorf("motion check resolution can't be negative, got %v", resolution)
	}
	if resolution == 0 {
		resolution = defaultResolutionFraction * space.MaximumExtent()
	}
	return &DiscreteMotionValidator{space: space, checker: checker, resolution: resolution}, nil
}

// Resolution returns the distance between checked states.
func (dmv *DiscreteMotionValidator) Resolution() float64 {
	return dmv.resolution
}

// CheckMotion validates the states along the segment from `from` to `to`, `to` included.
func (dmv *DiscreteMotionValidator) CheckMotion(from, to State) bool {
	dmv.checks++
	if !dmv.space.SatisfiesBounds(to) || !dmv.checker.IsValid(to) {
		dmv.invalid++
		return false
	}
	steps := int(math.Ceil(dmv.space.Distance(from, to) / dmv.resolution))
	for i := 1; i < steps; i++ {
		interp := dmv.space.Interpolate(from, to, float64(i)/float64(steps))
		if !dmv.checker.IsValid(interp) {
			dmv.invalid++
			return false
		}
	}
	return true
}

// Checks returns how many motions were checked and how many of them were invalid.
func (dmv *DiscreteMotionValidator) Checks() (checked, invalid int) {
	return dmv.checks, dmv.invalid
}

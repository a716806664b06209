package motionplan

import (
	"math"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/multierr"

	"go.viam.com/optrrt/nearestneighbor"
)

// default values for planning options.
const (
	// Probability of sampling from the goal region instead of the whole space.
	defaultGoalBias = 0.05

	// Multiplicative factor of the rewiring radius.
	defaultBallRadiusConstant = 1.0

	// Cap on the rewiring radius. Zero leaves it unbounded.
	defaultMaxBallRadius = 0.

	// When no range is configured, the steering range is this fraction of the space's extent.
	defaultRangeFraction = 0.2

	// Number of iterations between progress logs.
	defaultLogEvery = 1000

	// default number of seconds to try to solve in total before returning.
	defaultTimeout = 5.

	// random seed.
	defaultRandomSeed = 0
)

// the set of supported nearest neighbor backends.
const (
	LinearNearestNeighbors = "linear"
	KDTreeNearestNeighbors = "kdtree"
)

// NewBasicPlannerOptions specifies a set of basic options for the planner.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		GoalBias:           defaultGoalBias,
		BallRadiusConstant: defaultBallRadiusConstant,
		MaxBallRadius:      defaultMaxBallRadius,
		NearestNeighbors:   LinearNearestNeighbors,
		ParallelNeighbors:  nearestneighbor.DefaultParallelNeighbors,
		LogEvery:           defaultLogEvery,
		Timeout:            defaultTimeout,
		RandomSeed:         defaultRandomSeed,
	}
}

// PlannerOptions are a set of options controlling how the optimal RRT grows its tree.
type PlannerOptions struct {
	// Probability of drawing a sample from the goal region rather than the whole space.
	GoalBias float64 `json:"goal_bias"`

	// Maximum length of a motion added to the tree. Zero derives it from the space's extent at setup.
	Range float64 `json:"range"`

	// Multiplicative factor in the rewiring radius, c * (log(n)/n)^(1/d).
	BallRadiusConstant float64 `json:"ball_radius_constant"`

	// Upper bound of the rewiring radius. Zero means unbounded.
	MaxBallRadius float64 `json:"max_ball_radius"`

	// Rewire against the k nearest motions, k = ceil(e*(1+1/d)*log(n+1)), instead of a radius.
	UseKNearest bool `json:"use_k_nearest"`

	// Largest number of motions the tree may hold. Zero means unlimited.
	MaxMotions int `json:"max_motions"`

	// Nearest neighbor backend, "linear" or "kdtree".
	NearestNeighbors string `json:"nearest_neighbors"`

	// Tree size above which linear nearest neighbor queries run in parallel. Zero disables it.
	ParallelNeighbors int `json:"parallel_neighbors"`

	// Number of iterations between progress logs.
	LogEvery int `json:"log_every"`

	// Number of seconds before terminating the planner when using Plan.
	Timeout float64 `json:"timeout"`

	// The random seed used when the planner creates its own generator. This parameter guarantees
	// deterministic outputs for a given set of identical inputs.
	RandomSeed int `json:"rseed"`
}

// NewPlannerOptionsFromExtra returns basic default settings updated by overridden parameters
// found in extra. Unknown keys are rejected.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opt := NewBasicPlannerOptions()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opt,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, newConfigurationError("extra", err)
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	return opt, nil
}

// Validate returns every invalid option combined into one error.
func (p *PlannerOptions) Validate() error {
	var errs error
	check := func(bad bool, field, format string, args ...interface{}) {
		if bad {
			errs = multierr.Append(errs, newConfigurationErrorf(field, format, args...))
		}
	}
	check(math.IsNaN(p.GoalBias) || p.GoalBias < 0 || p.GoalBias > 1,
		"goal_bias", "must be a probability, got %v", p.GoalBias)
	check(math.IsNaN(p.Range) || math.IsInf(p.Range, 0) || p.Range < 0,
		"range", "must be a finite non-negative distance, got %v", p.Range)
	check(math.IsNaN(p.BallRadiusConstant) || p.BallRadiusConstant <= 0,
		"ball_radius_constant", "must be positive, got %v", p.BallRadiusConstant)
	check(math.IsNaN(p.MaxBallRadius) || p.MaxBallRadius < 0,
		"max_ball_radius", "can't be negative, got %v", p.MaxBallRadius)
	check(p.MaxMotions < 0, "max_motions", "can't be negative, got %d", p.MaxMotions)
	check(p.ParallelNeighbors < 0, "parallel_neighbors", "can't be negative, got %d", p.ParallelNeighbors)
	check(p.Timeout < 0, "timeout", "can't be negative, got %v", p.Timeout)
	check(p.NearestNeighbors != "" && p.NearestNeighbors != LinearNearestNeighbors && p.NearestNeighbors != KDTreeNearestNeighbors,
		"nearest_neighbors", "unknown backend %q", p.NearestNeighbors)
	return errs
}

// SetGoalBias sets the probability of sampling the goal region.
func (p *PlannerOptions) SetGoalBias(goalBias float64) {
	p.GoalBias = goalBias
}

// SetRange sets the maximum length of a motion added to the tree.
func (p *PlannerOptions) SetRange(distance float64) {
	p.Range = distance
}

// SetBallRadiusConstant sets the multiplicative factor of the rewiring radius.
func (p *PlannerOptions) SetBallRadiusConstant(ballRadiusConstant float64) {
	p.BallRadiusConstant = ballRadiusConstant
}

// SetMaxBallRadius bounds the rewiring radius. Zero leaves it unbounded.
func (p *PlannerOptions) SetMaxBallRadius(maxBallRadius float64) {
	p.MaxBallRadius = maxBallRadius
}

func (p *PlannerOptions) timeoutDuration() time.Duration {
	return time.Duration(p.Timeout * float64(time.Second))
}

func (p *PlannerOptions) copyOf() *PlannerOptions {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

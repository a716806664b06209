// Package motionplan contains sampling based motion planners that grow trees of feasible motions
// through a state space.
package motionplan

import (
	"context"

	"github.com/benbjohnson/clock"

	"go.viam.com/optrrt/logging"
	"go.viam.com/optrrt/statespace"
)

// Planner is the lifecycle shared by the tree growing planners.
type Planner interface {
	Name() string
	// Setup validates the problem and options. It must succeed before Solve is called.
	Setup() error
	// Solve grows the tree until a good enough solution is found, ptc fires or ctx is done. It
	// returns whether the tree holds a solution. Calling Solve again keeps refining the same tree.
	Solve(ctx context.Context, ptc TerminationCondition) (bool, error)
	// Clear releases the tree so the next Solve starts from the start states again.
	Clear() error
	ExportGraph() *PlannerData
}

// Problem is a single query: where to start, where to go and how to tell valid motions apart.
type Problem struct {
	Space  statespace.Space
	Starts []statespace.State
	Goal   statespace.GoalRegion

	// Sampler defaults to a uniform sampler when Space is a RealVectorSpace.
	Sampler statespace.Sampler
	// StateChecker, when set, rejects invalid start states at setup.
	StateChecker statespace.StateValidityChecker
	// MotionValidator defaults to discrete checking of StateChecker, or of the space's bounds when
	// StateChecker is nil too. It must be symmetric: CheckMotion(a, b) == CheckMotion(b, a). A
	// result checked while choosing a parent is reused when rewiring the same edge the other way.
	MotionValidator statespace.MotionValidator
}

// Plan sets up an optimal RRT for problem and solves it until opts.Timeout elapses or ctx is
// done. It returns the best solution, which is approximate when solved is false.
func Plan(
	ctx context.Context,
	problem *Problem,
	opts *PlannerOptions,
	logger logging.Logger,
) (solution *Solution, solved bool, err error) {
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	mp, err := NewOptRRT(problem, opts, logger)
	if err != nil {
		return nil, false, err
	}
	if err := mp.Setup(); err != nil {
		return nil, false, err
	}
	solved, err = mp.Solve(ctx, TimedTermination(clock.New(), opts.timeoutDuration()))
	if err != nil {
		return nil, false, err
	}
	if solved {
		solution, _ = mp.Solution()
		return solution, true, nil
	}
	solution, _ = mp.ApproximateSolution()
	return solution, false, nil
}

package motionplan

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sync/atomic"

	"github.com/pkg/errors"

	"go.viam.com/optrrt/logging"
	"go.viam.com/optrrt/nearestneighbor"
	"go.viam.com/optrrt/statespace"
)

const optRRTName = "OptRRT"

var _ Planner = &OptRRT{}

// OptRRT is an RRT that rewires its tree as it grows, so that given enough time the path it holds
// converges to an optimal one under the space's metric. See S. Karaman and E. Frazzoli,
// Incremental Sampling-based Algorithms for Optimal Motion Planning, RSS 2010.
//
// When a motion is rewired, the cost of its whole subtree is updated.
// An OptRRT is not safe for concurrent use.
type OptRRT struct {
	problem  *Problem
	opts     *PlannerOptions
	logger   logging.Logger
	randseed *rand.Rand

	sampler         statespace.Sampler
	motionValidator statespace.MotionValidator
	maxDistance     float64

	nn      nearestneighbor.Index[*Motion]
	tree    *motionTree
	isSetup bool
	solving atomic.Bool

	goalMotions  []*Motion
	bestCost     float64
	approxMotion *Motion
	approxDist   float64
	stats        Stats
}

// NewOptRRT creates an OptRRT whose random generator is seeded with opts.RandomSeed.
func NewOptRRT(problem *Problem, opts *PlannerOptions, logger logging.Logger) (*OptRRT, error) {
	if opts == nil {
		return nil, errNoPlannerOptions
	}
	//nolint:gosec
	return NewOptRRTWithSeed(problem, opts, rand.New(rand.NewSource(int64(opts.RandomSeed))), logger)
}

// NewOptRRTWithSeed creates an OptRRT with a user specified random generator, which the planner
// owns from then on.
func NewOptRRTWithSeed(problem *Problem, opts *PlannerOptions, seed *rand.Rand, logger logging.Logger) (*OptRRT, error) {
	if opts == nil {
		return nil, errNoPlannerOptions
	}
	if seed == nil {
		//nolint:gosec
		seed = rand.New(rand.NewSource(int64(opts.RandomSeed)))
	}
	if logger == nil {
		logger = logging.Global()
	}
	mp := &OptRRT{
		problem:  problem,
		opts:     opts.copyOf(),
		logger:   logger.Sublogger("optrrt"),
		randseed: seed,
	}
	mp.resetSolutions()
	return mp, nil
}

// Name returns the planner's name.
func (mp *OptRRT) Name() string {
	return optRRTName
}

// SetNearestNeighbors replaces the nearest neighbor backend with an empty index. It must be called
// before Setup or after Clear, while the tree is empty.
func (mp *OptRRT) SetNearestNeighbors(nn nearestneighbor.Index[*Motion]) error {
	if nn == nil {
		return errors.New("nearest neighbor index can't be nil")
	}
	if nn.Size() > 0 {
		return errors.Errorf("nearest neighbor index must be empty, it holds %d motions", nn.Size())
	}
	if mp.tree != nil && mp.tree.size() > 0 {
		return errors.New("can't replace the nearest neighbor index of a non-empty tree")
	}
	mp.nn = nn
	return nil
}

// Range returns the steering range, derived at setup when none was configured.
func (mp *OptRRT) Range() float64 {
	return mp.maxDistance
}

// Setup validates the problem and options, derives the steering range if it is unset and builds
// the nearest neighbor index unless one was provided.
func (mp *OptRRT) Setup() error {
	if mp.solving.Load() {
		return ErrSolveInProgress
	}
	if err := mp.opts.Validate(); err != nil {
		return err
	}
	if err := mp.validateProblem(); err != nil {
		return err
	}
	space := mp.problem.Space

	mp.sampler = mp.problem.Sampler
	if mp.sampler == nil {
		rv, ok := space.(*statespace.RealVectorSpace)
		if !ok {
			return newConfigurationErrorf("sampler", "no sampler was provided for a %T", space)
		}
		mp.sampler = statespace.NewUniformSampler(rv)
	}

	mp.motionValidator = mp.problem.MotionValidator
	if mp.motionValidator == nil {
		checker := mp.problem.StateChecker
		if checker == nil {
			checker = statespace.AllValid
		}
		mv, err := statespace.NewDiscreteMotionValidator(space, checker, 0)
		if err != nil {
			return newConfigurationError("motion_validator", err)
		}
		mp.motionValidator = mv
	}

	mp.maxDistance = mp.opts.Range
	if mp.maxDistance == 0 {
		mp.maxDistance = defaultRangeFraction * space.MaximumExtent()
	}
	if mp.maxDistance <= 0 || math.IsInf(mp.maxDistance, 0) || math.IsNaN(mp.maxDistance) {
		return newConfigurationErrorf("range", "could not derive a steering range from extent %v", space.MaximumExtent())
	}

	// the index survives repeated setups so it keeps matching the tree
	if mp.nn == nil {
		nn, err := mp.newNearestNeighbors()
		if err != nil {
			return err
		}
		mp.nn = nn
	}
	if mp.tree == nil {
		mp.tree = newMotionTree(mp.opts.MaxMotions)
	}

	mp.logger.Debugw("planner set up",
		"range", mp.maxDistance,
		"goal_bias", mp.opts.GoalBias,
		"ball_radius_constant", mp.opts.BallRadiusConstant,
		"max_ball_radius", mp.opts.MaxBallRadius,
		"use_k_nearest", mp.opts.UseKNearest,
		"nearest_neighbors", mp.opts.NearestNeighbors,
	)
	mp.isSetup = true
	return nil
}

func (mp *OptRRT) validateProblem() error {
	if mp.problem == nil {
		return newConfigurationError("problem", errors.New("no planning problem was provided"))
	}
	space := mp.problem.Space
	if space == nil {
		return newConfigurationError("space", ErrNoSpace)
	}
	if len(mp.problem.Starts) == 0 {
		return newConfigurationError("starts", ErrNoStartState)
	}
	for i, s := range mp.problem.Starts {
		if len(s) != space.Dimension() {
			return newConfigurationErrorf("starts", "start %d has %d coordinates, space has %d dimensions", i, len(s), space.Dimension())
		}
		if !space.SatisfiesBounds(s) {
			return newConfigurationErrorf("starts", "start %d %v is out of bounds", i, s)
		}
		if mp.problem.StateChecker != nil && !mp.problem.StateChecker.IsValid(s) {
			return newConfigurationErrorf("starts", "start %d %v is not a valid state", i, s)
		}
	}
	if mp.problem.Goal == nil {
		return newConfigurationError("goal", ErrNoGoal)
	}
	return nil
}

func (mp *OptRRT) newNearestNeighbors() (nearestneighbor.Index[*Motion], error) {
	switch mp.opts.NearestNeighbors {
	case KDTreeNearestNeighbors:
		if _, ok := mp.problem.Space.(*statespace.RealVectorSpace); !ok {
			return nil, newConfigurationErrorf("nearest_neighbors",
				"a k-d tree needs a euclidean real vector space, got %T", mp.problem.Space)
		}
		return nearestneighbor.NewKDTree(func(m *Motion) []float64 { return m.state }), nil
	case LinearNearestNeighbors, "":
		space := mp.problem.Space
		nn := nearestneighbor.NewLinear(func(a, b *Motion) float64 { return space.Distance(a.state, b.state) })
		if mp.opts.ParallelNeighbors > 0 {
			nn.SetParallelism(mp.opts.ParallelNeighbors, runtime.NumCPU()/2)
		} else {
			nn.SetParallelism(0, 1)
		}
		return nn, nil
	default:
		return nil, newConfigurationErrorf("nearest_neighbors", "unknown backend %q", mp.opts.NearestNeighbors)
	}
}

// Clear releases every motion and empties the nearest neighbor index. The planner stays set up.
func (mp *OptRRT) Clear() error {
	if mp.solving.Load() {
		return ErrSolveInProgress
	}
	if mp.tree != nil {
		mp.tree.clear()
	}
	if mp.nn != nil {
		mp.nn.Clear()
	}
	mp.resetSolutions()
	mp.stats = Stats{}
	return nil
}

func (mp *OptRRT) resetSolutions() {
	mp.goalMotions = nil
	mp.bestCost = math.Inf(1)
	mp.approxMotion = nil
	mp.approxDist = math.Inf(1)
}

// Solve grows the tree until ptc fires, ctx is done or a solution cheaper than the goal's maximum
// path length is found. It returns whether the tree holds a solution. Not finding one is not an
// error; errors are only returned for misconfiguration or when the tree runs out of room, in which
// case the tree keeps its progress.
func (mp *OptRRT) Solve(ctx context.Context, ptc TerminationCondition) (bool, error) {
	if !mp.isSetup {
		return false, ErrNotSetup
	}
	if !mp.solving.CompareAndSwap(false, true) {
		return false, ErrSolveInProgress
	}
	defer mp.solving.Store(false)

	if ptc == nil {
		ptc = ContextTermination(ctx)
	} else {
		ptc = AnyTermination(ContextTermination(ctx), ptc)
	}

	if mp.tree.size() == 0 {
		if err := mp.addStartStates(); err != nil {
			return false, err
		}
	}
	mp.logger.CDebugf(ctx, "starting %s with %d motions in the tree", optRRTName, mp.tree.size())

	startIter := mp.stats.Iterations
	for !mp.goodEnough() && !ptc() {
		if err := mp.iterate(); err != nil {
			mp.logger.CDebugf(ctx, "%s stopped after %d iterations: %v", optRRTName, mp.stats.Iterations-startIter, err)
			return len(mp.goalMotions) > 0, err
		}
		if mp.opts.LogEvery > 0 && mp.stats.Iterations%mp.opts.LogEvery == 0 {
			mp.logger.CDebugf(ctx, "%s progress: %d iterations\tmotions: %d\tbest cost: %.3f\tradius: %.4f",
				optRRTName, mp.stats.Iterations, mp.tree.size(), mp.bestCost, mp.stats.LastRadius)
		}
	}

	solved := len(mp.goalMotions) > 0
	mp.logger.CDebugw(ctx, "solve finished",
		"iterations", mp.stats.Iterations-startIter,
		"motions", mp.tree.size(),
		"solved", solved,
		"best_cost", mp.bestCost,
	)
	return solved, nil
}

// goodEnough is true when the goal bounds the path length and the best solution is below it.
func (mp *OptRRT) goodEnough() bool {
	maxLength := mp.problem.Goal.MaximumPathLength()
	return maxLength > 0 && mp.bestCost < maxLength
}

func (mp *OptRRT) addStartStates() error {
	for _, s := range mp.problem.Starts {
		m, err := mp.tree.insert(s, nil, 0)
		if err != nil {
			return err
		}
		mp.nn.Add(m)
		mp.checkGoal(m)
	}
	mp.stats.Motions = mp.tree.size()
	return nil
}

// iterate runs one sample, steer, insert and rewire step. An invalid motion wastes the iteration.
func (mp *OptRRT) iterate() error {
	mp.stats.Iterations++
	space := mp.problem.Space

	var target statespace.State
	if gs, ok := mp.problem.Goal.(statespace.GoalSampler); ok && gs.CanSample() && mp.randseed.Float64() < mp.opts.GoalBias {
		target = gs.SampleGoal(mp.randseed)
		mp.stats.GoalSamples++
	} else {
		target = mp.sampler.SampleUniform(mp.randseed)
	}

	nearest, ok := mp.nn.Nearest(&Motion{state: target})
	if !ok {
		return errors.New("nearest neighbor index is empty")
	}
	newState, nearDist := steer(space, nearest.state, target, mp.maxDistance)
	if !mp.motionValidator.CheckMotion(nearest.state, newState) {
		mp.stats.InvalidMotions++
		return nil
	}

	neighbors := mp.neighborhood(&Motion{state: newState})

	// Parent selection. The nearest motion is already known to connect; neighbors are visited by
	// increasing distance and only a strictly cheaper one replaces the current choice.
	parent, incCost := nearest, nearDist
	cost := nearest.cost + nearDist
	dists := make([]float64, len(neighbors))
	valid := map[int]bool{nearest.id: true}
	for i, nb := range neighbors {
		if nb == nearest {
			dists[i] = nearDist
			continue
		}
		dists[i] = space.Distance(nb.state, newState)
		if c := nb.cost + dists[i]; c < cost {
			ok := mp.motionValidator.CheckMotion(nb.state, newState)
			valid[nb.id] = ok
			if ok {
				parent, incCost, cost = nb, dists[i], c
			}
		}
	}

	motion, err := mp.tree.insert(newState, parent, incCost)
	if err != nil {
		return err
	}
	mp.nn.Add(motion)
	mp.stats.Motions = mp.tree.size()

	mp.rewire(motion, parent, neighbors, dists, valid)
	mp.checkGoal(motion)
	return nil
}

// neighborhood returns the motions considered for parent selection and rewiring around probe.
func (mp *OptRRT) neighborhood(probe *Motion) []*Motion {
	n := mp.nn.Size()
	dim := mp.problem.Space.Dimension()
	if mp.opts.UseKNearest {
		return mp.nn.NearestK(probe, rewireNeighborCount(n, dim))
	}
	r := rewireRadius(n, dim, mp.opts.BallRadiusConstant, mp.opts.MaxBallRadius)
	mp.stats.LastRadius = r
	mp.stats.MaxRadius = math.Max(mp.stats.MaxRadius, r)
	return mp.nn.NearestR(probe, r)
}

// rewire makes motion the parent of every neighbor it offers a cheaper, valid path to, and pushes
// the cost decrease down to the neighbor's descendants.
func (mp *OptRRT) rewire(motion, parent *Motion, neighbors []*Motion, dists []float64, valid map[int]bool) {
	for i, nb := range neighbors {
		if nb == parent {
			continue
		}
		c := motion.cost + dists[i]
		if c >= nb.cost {
			continue
		}
		// motion validity is symmetric, so the parent selection check of this edge still holds
		ok, checked := valid[nb.id]
		if !checked {
			ok = mp.motionValidator.CheckMotion(motion.state, nb.state)
		}
		if !ok {
			continue
		}
		if err := mp.tree.reparent(nb, motion, dists[i]); err != nil {
			continue
		}
		mp.stats.Rewires++
		mp.stats.CostUpdates += mp.tree.propagateCost(nb)
	}
	mp.refreshBestCost()
}

func (mp *OptRRT) checkGoal(m *Motion) {
	solved, dist := mp.problem.Goal.IsSatisfied(m.state)
	if solved {
		m.inGoal = true
		mp.goalMotions = append(mp.goalMotions, m)
		mp.refreshBestCost()
		return
	}
	if dist < mp.approxDist {
		mp.approxDist = dist
		mp.approxMotion = m
	}
}

// refreshBestCost lowers bestCost to the cheapest goal motion, logging improvements.
func (mp *OptRRT) refreshBestCost() {
	best := mp.bestGoalMotion()
	if best == nil || best.cost >= mp.bestCost {
		return
	}
	if math.IsInf(mp.bestCost, 1) {
		mp.logger.Infof("found a solution of cost %.4f after %d iterations", best.cost, mp.stats.Iterations)
	} else {
		mp.logger.Debugf("solution cost improved from %.4f to %.4f", mp.bestCost, best.cost)
	}
	mp.bestCost = best.cost
}

func (mp *OptRRT) bestGoalMotion() *Motion {
	var best *Motion
	for _, m := range mp.goalMotions {
		if best == nil || m.cost < best.cost {
			best = m
		}
	}
	return best
}

// Solution returns the cheapest path reaching the goal.
func (mp *OptRRT) Solution() (*Solution, bool) {
	best := mp.bestGoalMotion()
	if best == nil {
		return nil, false
	}
	return &Solution{Path: mp.tree.pathTo(best), Cost: best.cost}, true
}

// ApproximateSolution returns the path to the motion closest to the goal when no motion reached it.
func (mp *OptRRT) ApproximateSolution() (*Solution, bool) {
	if sol, ok := mp.Solution(); ok {
		return sol, true
	}
	if mp.approxMotion == nil {
		return nil, false
	}
	return &Solution{
		Path:         mp.tree.pathTo(mp.approxMotion),
		Cost:         mp.approxMotion.cost,
		Approximate:  true,
		GoalDistance: mp.approxDist,
	}, true
}

// Stats returns counters describing the growth of the current tree.
func (mp *OptRRT) Stats() Stats {
	return mp.stats
}

// ExportGraph returns a snapshot of the tree.
func (mp *OptRRT) ExportGraph() *PlannerData {
	if mp.tree == nil {
		return &PlannerData{Planner: optRRTName}
	}
	return exportTree(optRRTName, mp.tree)
}

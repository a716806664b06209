package motionplan

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/optrrt/logging"
	"go.viam.com/optrrt/nearestneighbor"
	"go.viam.com/optrrt/statespace"
)

// unitSquareProblem plans from (0,0) to a disk of radius 0.05 around (1,1).
func unitSquareProblem(t *testing.T) *Problem {
	t.Helper()
	space, err := statespace.NewUnitCube(2)
	test.That(t, err, test.ShouldBeNil)
	goal, err := statespace.NewGoalBall(space, statespace.State{1, 1}, 0.05)
	test.That(t, err, test.ShouldBeNil)
	return &Problem{
		Space:  space,
		Starts: []statespace.State{{0, 0}},
		Goal:   goal,
	}
}

func newTestPlanner(t *testing.T, problem *Problem, opts *PlannerOptions) *OptRRT {
	t.Helper()
	mp, err := NewOptRRT(problem, opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Setup(), test.ShouldBeNil)
	return mp
}

// checkInvariants verifies the tree is an arborescence rooted at the start states, that every cost
// is the sum of the edge lengths to its root, and that the index holds exactly the tree's motions.
func checkInvariants(t *testing.T, mp *OptRRT) {
	t.Helper()
	mt := mp.tree
	space := mp.problem.Space
	test.That(t, mp.nn.Size(), test.ShouldEqual, mt.size())

	for id, m := range mt.motions {
		test.That(t, m.ID(), test.ShouldEqual, id)
		if m.IsRoot() {
			test.That(t, m.Cost(), test.ShouldEqual, 0.)
			continue
		}
		steps := 0
		for cur := m; !cur.IsRoot(); cur = mt.parent(cur) {
			steps++
			test.That(t, steps, test.ShouldBeLessThanOrEqualTo, mt.size())
		}
		parent := mt.parent(m)
		test.That(t, parent, test.ShouldNotBeNil)
		test.That(t, m.Cost(), test.ShouldAlmostEqual, parent.Cost()+space.Distance(parent.State(), m.State()), 1e-9)
		test.That(t, mt.children[parent.id], test.ShouldContain, m.id)
	}
	seen := map[*Motion]bool{}
	for _, m := range mp.nn.List() {
		seen[m] = true
	}
	for _, m := range mt.motions {
		test.That(t, seen[m], test.ShouldBeTrue)
	}
}

func TestOptRRTUnobstructed(t *testing.T) {
	opts := NewBasicPlannerOptions()
	opts.SetRange(0.1)
	mp := newTestPlanner(t, unitSquareProblem(t), opts)
	test.That(t, mp.Name(), test.ShouldEqual, "OptRRT")
	test.That(t, mp.Range(), test.ShouldEqual, 0.1)

	solved, err := mp.Solve(context.Background(), IterationTermination(2000))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	test.That(t, mp.Stats().Iterations, test.ShouldEqual, 2000)
	checkInvariants(t, mp)

	sol, ok := mp.Solution()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sol.Approximate, test.ShouldBeFalse)
	test.That(t, sol.Path[0], test.ShouldResemble, statespace.State{0, 0})
	test.That(t, sol.Cost, test.ShouldAlmostEqual, PathLength(mp.problem.Space, sol.Path), 1e-9)
	test.That(t, sol.Cost, test.ShouldBeLessThanOrEqualTo, 1.1*math.Sqrt2)
	inGoal, _ := mp.problem.Goal.IsSatisfied(sol.Path[len(sol.Path)-1])
	test.That(t, inGoal, test.ShouldBeTrue)
	for i := 1; i < len(sol.Path); i++ {
		test.That(t, mp.problem.Space.Distance(sol.Path[i-1], sol.Path[i]), test.ShouldBeLessThanOrEqualTo, 0.1+1e-9)
	}
}

func TestOptRRTStartInGoal(t *testing.T) {
	problem := unitSquareProblem(t)
	problem.Starts = []statespace.State{{1, 1}}
	mp := newTestPlanner(t, problem, NewBasicPlannerOptions())

	solved, err := mp.Solve(context.Background(), IterationTermination(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)

	sol, ok := mp.Solution()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sol.Path, test.ShouldResemble, []statespace.State{{1, 1}})
	test.That(t, sol.Cost, test.ShouldEqual, 0.)

	t.Run("with several starts", func(t *testing.T) {
		problem := unitSquareProblem(t)
		problem.Starts = []statespace.State{{0.5, 0.5}, {1, 1}}
		mp := newTestPlanner(t, problem, NewBasicPlannerOptions())
		solved, err := mp.Solve(context.Background(), IterationTermination(0))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, solved, test.ShouldBeTrue)
		sol, _ := mp.Solution()
		test.That(t, sol.Path, test.ShouldResemble, []statespace.State{{1, 1}})

		data := mp.ExportGraph()
		test.That(t, len(data.Vertices), test.ShouldEqual, 2)
		test.That(t, data.Vertices[0].Start, test.ShouldBeTrue)
		test.That(t, data.Vertices[1].Start, test.ShouldBeTrue)
		test.That(t, data.Vertices[1].Goal, test.ShouldBeTrue)
		test.That(t, data.Edges, test.ShouldBeEmpty)
	})
}

func TestOptRRTUnreachable(t *testing.T) {
	problem := unitSquareProblem(t)
	problem.MotionValidator = statespace.MotionValidatorFunc(func(from, to statespace.State) bool { return false })
	mp := newTestPlanner(t, problem, NewBasicPlannerOptions())

	solved, err := mp.Solve(context.Background(), IterationTermination(500))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeFalse)
	test.That(t, mp.tree.size(), test.ShouldEqual, 1)
	test.That(t, mp.Stats().InvalidMotions, test.ShouldEqual, 500)
	checkInvariants(t, mp)

	_, ok := mp.Solution()
	test.That(t, ok, test.ShouldBeFalse)
	approx, ok := mp.ApproximateSolution()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, approx.Approximate, test.ShouldBeTrue)
	test.That(t, approx.Path, test.ShouldResemble, []statespace.State{{0, 0}})
	test.That(t, approx.GoalDistance, test.ShouldAlmostEqual, math.Sqrt2-0.05)
}

func TestOptRRTApproximateSolution(t *testing.T) {
	problem := unitSquareProblem(t)
	opts := NewBasicPlannerOptions()
	opts.SetRange(0.05)
	mp := newTestPlanner(t, problem, opts)

	solved, err := mp.Solve(context.Background(), IterationTermination(50))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeFalse)

	approx, ok := mp.ApproximateSolution()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, approx.Approximate, test.ShouldBeTrue)
	test.That(t, approx.GoalDistance, test.ShouldBeLessThan, math.Sqrt2-0.05)
	_, dist := problem.Goal.IsSatisfied(approx.Path[len(approx.Path)-1])
	test.That(t, dist, test.ShouldAlmostEqual, approx.GoalDistance)
	for _, m := range mp.tree.motions {
		_, d := problem.Goal.IsSatisfied(m.State())
		test.That(t, d, test.ShouldBeGreaterThanOrEqualTo, approx.GoalDistance)
	}
}

func TestOptRRTBallRadiusCap(t *testing.T) {
	unbounded := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())
	_, err := unbounded.Solve(context.Background(), IterationTermination(300))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unbounded.Stats().MaxRadius, test.ShouldBeGreaterThan, 0.01)

	opts := NewBasicPlannerOptions()
	opts.SetMaxBallRadius(0.01)
	capped := newTestPlanner(t, unitSquareProblem(t), opts)
	_, err = capped.Solve(context.Background(), IterationTermination(300))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, capped.Stats().MaxRadius, test.ShouldBeLessThanOrEqualTo, 0.01)
	test.That(t, capped.Stats().MaxRadius, test.ShouldBeGreaterThan, 0.)
	checkInvariants(t, capped)
}

func TestOptRRTGoalBias(t *testing.T) {
	// Every motion is rejected so the tree stays at its root and iterations only sample.
	const iterations = 20000
	fractions := make([]float64, 0, 5)
	for seed := 0; seed < 5; seed++ {
		problem := unitSquareProblem(t)
		problem.MotionValidator = statespace.MotionValidatorFunc(func(from, to statespace.State) bool { return false })
		opts := NewBasicPlannerOptions()
		opts.SetGoalBias(0.2)
		opts.RandomSeed = seed
		mp := newTestPlanner(t, problem, opts)
		_, err := mp.Solve(context.Background(), IterationTermination(iterations))
		test.That(t, err, test.ShouldBeNil)
		fractions = append(fractions, float64(mp.Stats().GoalSamples)/iterations)
	}
	mean, std := stat.MeanStdDev(fractions, nil)
	test.That(t, mean, test.ShouldAlmostEqual, 0.2, 0.01)
	test.That(t, std, test.ShouldBeLessThan, 0.01)

	t.Run("zero bias never samples the goal", func(t *testing.T) {
		opts := NewBasicPlannerOptions()
		opts.SetGoalBias(0)
		mp := newTestPlanner(t, unitSquareProblem(t), opts)
		_, err := mp.Solve(context.Background(), IterationTermination(200))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mp.Stats().GoalSamples, test.ShouldEqual, 0)
	})
}

func TestOptRRTDeterminism(t *testing.T) {
	run := func() *PlannerData {
		opts := NewBasicPlannerOptions()
		opts.RandomSeed = 42
		mp := newTestPlanner(t, unitSquareProblem(t), opts)
		_, err := mp.Solve(context.Background(), IterationTermination(300))
		test.That(t, err, test.ShouldBeNil)
		return mp.ExportGraph()
	}
	first := run()
	test.That(t, len(first.Vertices), test.ShouldBeGreaterThan, 1)
	test.That(t, cmp.Diff(first, run()), test.ShouldBeEmpty)

	t.Run("user supplied generator", func(t *testing.T) {
		//nolint:gosec
		mp, err := NewOptRRTWithSeed(unitSquareProblem(t), NewBasicPlannerOptions(), rand.New(rand.NewSource(42)), logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mp.Setup(), test.ShouldBeNil)
		_, err = mp.Solve(context.Background(), IterationTermination(300))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mp.ExportGraph(), test.ShouldResemble, first)
	})
}

func TestOptRRTMonotonicImprovement(t *testing.T) {
	mp := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())
	ctx := context.Background()

	costs := map[int]float64{}
	best := math.Inf(1)
	for i := 0; i < 10; i++ {
		_, err := mp.Solve(ctx, IterationTermination(150))
		test.That(t, err, test.ShouldBeNil)
		checkInvariants(t, mp)
		for _, m := range mp.tree.motions {
			if prev, ok := costs[m.ID()]; ok {
				test.That(t, m.Cost(), test.ShouldBeLessThanOrEqualTo, prev+1e-12)
			}
			costs[m.ID()] = m.Cost()
		}
		if sol, ok := mp.Solution(); ok {
			test.That(t, sol.Cost, test.ShouldBeLessThanOrEqualTo, best)
			best = sol.Cost
		}
	}
	test.That(t, mp.Stats().Iterations, test.ShouldEqual, 1500)
	test.That(t, mp.Stats().Rewires, test.ShouldBeGreaterThan, 0)
}

func TestOptRRTKNearest(t *testing.T) {
	opts := NewBasicPlannerOptions()
	opts.UseKNearest = true
	opts.SetRange(0.1)
	mp := newTestPlanner(t, unitSquareProblem(t), opts)
	solved, err := mp.Solve(context.Background(), IterationTermination(2000))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	checkInvariants(t, mp)
	test.That(t, mp.Stats().Rewires, test.ShouldBeGreaterThan, 0)
}

func TestOptRRTObstacles(t *testing.T) {
	space, err := statespace.NewUnitCube(2)
	test.That(t, err, test.ShouldBeNil)
	wall, err := statespace.NewBox(statespace.State{0.4, 0}, statespace.State{0.6, 0.8})
	test.That(t, err, test.ShouldBeNil)
	checker := statespace.NewObstacleChecker(space, wall)
	goal, err := statespace.NewGoalBall(space, statespace.State{0.9, 0.1}, 0.05)
	test.That(t, err, test.ShouldBeNil)

	opts := NewBasicPlannerOptions()
	opts.NearestNeighbors = KDTreeNearestNeighbors
	mp := newTestPlanner(t, &Problem{
		Space:        space,
		Starts:       []statespace.State{{0.1, 0.1}},
		Goal:         goal,
		StateChecker: checker,
	}, opts)

	solved, err := mp.Solve(context.Background(), IterationTermination(3000))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	checkInvariants(t, mp)

	sol, _ := mp.Solution()
	// going around the wall is at least twice its height minus the start and goal offsets
	test.That(t, sol.Cost, test.ShouldBeGreaterThan, 2*(0.8-0.1))
	for _, m := range mp.tree.motions {
		test.That(t, checker.IsValid(m.State()), test.ShouldBeTrue)
	}
	for i := 1; i < len(sol.Path); i++ {
		test.That(t, mp.motionValidator.CheckMotion(sol.Path[i-1], sol.Path[i]), test.ShouldBeTrue)
	}
}

func TestOptRRTMaximumPathLength(t *testing.T) {
	problem := unitSquareProblem(t)
	goal := problem.Goal.(*statespace.GoalBall)
	goal.SetMaximumPathLength(2)
	mp := newTestPlanner(t, problem, NewBasicPlannerOptions())

	solved, err := mp.Solve(context.Background(), IterationTermination(100000))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	test.That(t, mp.Stats().Iterations, test.ShouldBeLessThan, 100000)
	sol, _ := mp.Solution()
	test.That(t, sol.Cost, test.ShouldBeLessThan, 2.)

	// a good enough tree returns before iterating again
	iters := mp.Stats().Iterations
	solved, err = mp.Solve(context.Background(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	test.That(t, mp.Stats().Iterations, test.ShouldEqual, iters)
}

func TestOptRRTMaxMotions(t *testing.T) {
	opts := NewBasicPlannerOptions()
	opts.MaxMotions = 10
	mp := newTestPlanner(t, unitSquareProblem(t), opts)

	_, err := mp.Solve(context.Background(), IterationTermination(1000))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsAllocationError(err), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrTreeCapacity), test.ShouldBeTrue)
	test.That(t, mp.tree.size(), test.ShouldEqual, 10)
	checkInvariants(t, mp)
}

func TestOptRRTLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("solve before setup", func(t *testing.T) {
		mp, err := NewOptRRT(unitSquareProblem(t), NewBasicPlannerOptions(), logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		_, err = mp.Solve(ctx, IterationTermination(1))
		test.That(t, err, test.ShouldBeError, ErrNotSetup)
	})

	t.Run("nil options", func(t *testing.T) {
		_, err := NewOptRRT(unitSquareProblem(t), nil, logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeError, errNoPlannerOptions)
	})

	t.Run("clear and solve again", func(t *testing.T) {
		mp := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())
		_, err := mp.Solve(ctx, IterationTermination(200))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mp.tree.size(), test.ShouldBeGreaterThan, 1)

		test.That(t, mp.Clear(), test.ShouldBeNil)
		test.That(t, mp.Clear(), test.ShouldBeNil)
		test.That(t, mp.ExportGraph().Vertices, test.ShouldBeEmpty)
		test.That(t, mp.nn.Size(), test.ShouldEqual, 0)
		test.That(t, mp.Stats(), test.ShouldResemble, Stats{})
		_, ok := mp.ApproximateSolution()
		test.That(t, ok, test.ShouldBeFalse)

		_, err = mp.Solve(ctx, IterationTermination(200))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mp.Stats().Iterations, test.ShouldEqual, 200)
		checkInvariants(t, mp)
	})

	t.Run("cancelled context", func(t *testing.T) {
		mp := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		solved, err := mp.Solve(cctx, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, solved, test.ShouldBeFalse)
		test.That(t, mp.Stats().Iterations, test.ShouldEqual, 0)
		test.That(t, mp.tree.size(), test.ShouldEqual, 1)
	})

	t.Run("reentrant calls", func(t *testing.T) {
		mp := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())
		var solveErr, clearErr, setupErr error
		ptc := func() bool {
			_, solveErr = mp.Solve(ctx, IterationTermination(1))
			clearErr = mp.Clear()
			setupErr = mp.Setup()
			return true
		}
		_, err := mp.Solve(ctx, ptc)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, solveErr, test.ShouldBeError, ErrSolveInProgress)
		test.That(t, clearErr, test.ShouldBeError, ErrSolveInProgress)
		test.That(t, setupErr, test.ShouldBeError, ErrSolveInProgress)
		test.That(t, mp.tree.size(), test.ShouldEqual, 1)
	})

	t.Run("replace nearest neighbors", func(t *testing.T) {
		mp, err := NewOptRRT(unitSquareProblem(t), NewBasicPlannerOptions(), logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		kd := nearestneighbor.NewKDTree(func(m *Motion) []float64 { return m.State() })
		test.That(t, mp.SetNearestNeighbors(kd), test.ShouldBeNil)
		test.That(t, mp.Setup(), test.ShouldBeNil)
		_, err = mp.Solve(ctx, IterationTermination(100))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, kd.Size(), test.ShouldEqual, mp.tree.size())
		test.That(t, mp.SetNearestNeighbors(nearestneighbor.NewKDTree(func(m *Motion) []float64 { return m.State() })), test.ShouldNotBeNil)
	})
}

func TestOptRRTSetupErrors(t *testing.T) {
	setupErr := func(problem *Problem, opts *PlannerOptions) error {
		mp, err := NewOptRRT(problem, opts, logging.NewTestLogger(t))
		test.That(t, err, test.ShouldBeNil)
		return mp.Setup()
	}

	problem := unitSquareProblem(t)
	problem.Space = nil
	err := setupErr(problem, NewBasicPlannerOptions())
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrNoSpace), test.ShouldBeTrue)

	problem = unitSquareProblem(t)
	problem.Starts = nil
	err = setupErr(problem, NewBasicPlannerOptions())
	test.That(t, errors.Is(err, ErrNoStartState), test.ShouldBeTrue)

	problem = unitSquareProblem(t)
	problem.Goal = nil
	err = setupErr(problem, NewBasicPlannerOptions())
	test.That(t, errors.Is(err, ErrNoGoal), test.ShouldBeTrue)

	problem = unitSquareProblem(t)
	problem.Starts = []statespace.State{{0, 0, 0}}
	test.That(t, IsConfigurationError(setupErr(problem, NewBasicPlannerOptions())), test.ShouldBeTrue)

	problem = unitSquareProblem(t)
	problem.Starts = []statespace.State{{2, 0}}
	test.That(t, IsConfigurationError(setupErr(problem, NewBasicPlannerOptions())), test.ShouldBeTrue)

	problem = unitSquareProblem(t)
	problem.StateChecker = statespace.StateValidityFunc(func(s statespace.State) bool { return s[0] > 0.5 })
	err = setupErr(problem, NewBasicPlannerOptions())
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "starts")

	opts := NewBasicPlannerOptions()
	opts.SetGoalBias(2)
	test.That(t, IsConfigurationError(setupErr(unitSquareProblem(t), opts)), test.ShouldBeTrue)

	test.That(t, IsConfigurationError(setupErr(nil, NewBasicPlannerOptions())), test.ShouldBeTrue)
}

func TestPlan(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	opts := NewBasicPlannerOptions()
	opts.Timeout = 0.5
	opts.SetRange(0.1)

	sol, solved, err := Plan(context.Background(), unitSquareProblem(t), opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solved, test.ShouldBeTrue)
	test.That(t, sol.Approximate, test.ShouldBeFalse)
	test.That(t, sol.Cost, test.ShouldBeLessThanOrEqualTo, 1.1*math.Sqrt2)
	test.That(t, logs.FilterMessageSnippet("found a solution").Len(), test.ShouldEqual, 1)

	problem := unitSquareProblem(t)
	problem.Starts = nil
	_, _, err = Plan(context.Background(), problem, opts, logger)
	test.That(t, IsConfigurationError(err), test.ShouldBeTrue)
}

func TestOptRRTInvariantsEveryIteration(t *testing.T) {
	for _, backend := range []string{LinearNearestNeighbors, KDTreeNearestNeighbors} {
		t.Run(backend, func(t *testing.T) {
			opts := NewBasicPlannerOptions()
			opts.NearestNeighbors = backend
			opts.SetRange(0.1)
			mp := newTestPlanner(t, unitSquareProblem(t), opts)
			for i := 0; i < 300; i++ {
				_, err := mp.Solve(context.Background(), IterationTermination(1))
				test.That(t, err, test.ShouldBeNil)
				checkInvariants(t, mp)
			}
			test.That(t, mp.Stats().Iterations, test.ShouldEqual, 300)
		})
	}
}

func TestOptRRTRepeatedSetup(t *testing.T) {
	ctx := context.Background()
	mp := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())
	_, err := mp.Solve(ctx, IterationTermination(100))
	test.That(t, err, test.ShouldBeNil)
	grown := mp.tree.size()
	test.That(t, grown, test.ShouldBeGreaterThan, 1)

	test.That(t, mp.Setup(), test.ShouldBeNil)
	test.That(t, mp.nn.Size(), test.ShouldEqual, grown)
	checkInvariants(t, mp)

	_, err = mp.Solve(ctx, IterationTermination(10))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Stats().Iterations, test.ShouldEqual, 110)
	checkInvariants(t, mp)

	t.Run("after clear", func(t *testing.T) {
		test.That(t, mp.Clear(), test.ShouldBeNil)
		test.That(t, mp.Setup(), test.ShouldBeNil)
		_, err := mp.Solve(ctx, IterationTermination(50))
		test.That(t, err, test.ShouldBeNil)
		checkInvariants(t, mp)
	})
}

func TestOptRRTSetNearestNeighbors(t *testing.T) {
	ctx := context.Background()
	point := func(m *Motion) []float64 { return m.State() }
	mp := newTestPlanner(t, unitSquareProblem(t), NewBasicPlannerOptions())

	test.That(t, mp.SetNearestNeighbors(nil), test.ShouldNotBeNil)
	test.That(t, mp.nn, test.ShouldNotBeNil)

	used := nearestneighbor.NewKDTree(point)
	used.Add(&Motion{state: statespace.State{0.5, 0.5}})
	test.That(t, mp.SetNearestNeighbors(used), test.ShouldNotBeNil)

	_, err := mp.Solve(ctx, IterationTermination(20))
	test.That(t, err, test.ShouldBeNil)
	checkInvariants(t, mp)
	test.That(t, mp.SetNearestNeighbors(nil), test.ShouldNotBeNil)

	// an index swapped in after Clear is kept by the next Setup
	test.That(t, mp.Clear(), test.ShouldBeNil)
	kd := nearestneighbor.NewKDTree(point)
	test.That(t, mp.SetNearestNeighbors(kd), test.ShouldBeNil)
	test.That(t, mp.Setup(), test.ShouldBeNil)
	_, err = mp.Solve(ctx, IterationTermination(20))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, kd.Size(), test.ShouldEqual, mp.tree.size())
	checkInvariants(t, mp)
}

package motionplan

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// TerminationCondition is polled once per planner iteration; planning stops when it returns true.
// It is never called concurrently with itself.
type TerminationCondition func() bool

// TimedTermination fires once d has elapsed on clk, measured from the call to TimedTermination.
func TimedTermination(clk clock.Clock, d time.Duration) TerminationCondition {
	if clk == nil {
		clk = clock.New()
	}
	deadline := clk.Now().Add(d)
	return func() bool {
		return !clk.Now().Before(deadline)
	}
}

// IterationTermination lets n iterations run and fires on the poll after the last one.
func IterationTermination(n int) TerminationCondition {
	polls := 0
	return func() bool {
		polls++
		return polls > n
	}
}

// ContextTermination fires once ctx is done.
func ContextTermination(ctx context.Context) TerminationCondition {
	return func() bool {
		return ctx.Err() != nil
	}
}

// AnyTermination fires as soon as one of conds does. Conditions are polled in order and polling
// stops at the first that fires.
func AnyTermination(conds ...TerminationCondition) TerminationCondition {
	return func() bool {
		for _, c := range conds {
			if c != nil && c() {
				return true
			}
		}
		return false
	}
}

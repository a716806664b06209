package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNoSpace is returned by Setup when the problem has no state space.
	ErrNoSpace = errors.New("no state space was provided")
	// ErrNoStartState is returned by Setup when the problem has no start state.
	ErrNoStartState = errors.New("no start state was provided")
	// ErrNoGoal is returned by Setup when the problem has no goal region.
	ErrNoGoal = errors.New("no goal region was provided")
	// ErrNotSetup is returned by Solve when Setup has not succeeded yet.
	ErrNotSetup = errors.New("planner must be set up before solving")
	// ErrTreeCapacity is returned when the motion tree can't hold another motion.
	ErrTreeCapacity = errors.New("motion tree is at capacity")
	// ErrSolveInProgress is returned when Solve or Clear is called while a solve is running.
	ErrSolveInProgress = errors.New("a solve is already running on this planner")

	errNoPlannerOptions = errors.New("no planner options were provided")
	errRewireCycle      = errors.New("rewiring would create a cycle")
)

// ConfigurationError describes a problem or option that makes planning impossible. It is
// returned before any iteration runs.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid planner configuration %q: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func newConfigurationError(field string, err error) error {
	return &ConfigurationError{Field: field, Err: err}
}

func newConfigurationErrorf(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Err: errors.Errorf(format, args...)}
}

// IsConfigurationError reports whether err was caused by an invalid configuration.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// IsAllocationError reports whether err was caused by running out of room for motions.
func IsAllocationError(err error) bool {
	return errors.Is(err, ErrTreeCapacity)
}

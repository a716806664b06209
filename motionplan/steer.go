package motionplan

import (
	"math"

	"go.viam.com/optrrt/statespace"
)

// steer returns the state reached moving from `from` toward `to` for at most maxDistance, and the
// distance between `from` and that state.
func steer(space statespace.Space, from, to statespace.State, maxDistance float64) (statespace.State, float64) {
	d := space.Distance(from, to)
	if d <= maxDistance {
		return to, d
	}
	return space.Interpolate(from, to, maxDistance/d), maxDistance
}

// rewireRadius is the radius within which neighbors are considered for parent selection and
// rewiring, c * (log(n)/n)^(1/dim) capped at maxBallRadius when that is positive. It shrinks as
// the tree grows past three motions.
func rewireRadius(n, dim int, ballRadiusConstant, maxBallRadius float64) float64 {
	if n < 2 || dim < 1 {
		return 0
	}
	fn := float64(n)
	r := ballRadiusConstant * math.Pow(math.Log(fn)/fn, 1/float64(dim))
	if maxBallRadius > 0 {
		r = math.Min(r, maxBallRadius)
	}
	return r
}

// rewireNeighborCount is the k used when rewiring against the k nearest motions.
func rewireNeighborCount(n, dim int) int {
	kConstant := math.E * (1 + 1/float64(dim))
	return int(math.Ceil(kConstant * math.Log(float64(n+1))))
}

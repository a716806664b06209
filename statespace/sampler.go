package statespace

import (
	"math"
	"math/rand"
)

// Sampler produces states distributed over a space.
type Sampler interface {
	SampleUniform(rng *rand.Rand) State
}

// UniformSampler draws every coordinate uniformly within its bounds.
type UniformSampler struct {
	space *RealVectorSpace
}

// NewUniformSampler returns a sampler over the bounds of space.
func NewUniformSampler(space *RealVectorSpace) *UniformSampler {
	return &UniformSampler{space: space}
}

// SampleUniform returns a uniformly distributed state.
func (us *UniformSampler) SampleUniform(rng *rand.Rand) State {
	out := make(State, len(us.space.bounds))
	for i, b := range us.space.bounds {
		out[i] = b.Min + rng.Float64()*b.Range()
	}
	return out
}

// sampleBall draws a state uniformly from the dim-dimensional ball around center.
// The direction comes from a normalized gaussian vector and the radius from r * u^(1/dim).
func sampleBall(rng *rand.Rand, center State, radius float64) State {
	dim := len(center)
	dir := make(State, dim)
	norm := 0.
	for norm == 0 {
		norm = 0
		for i := range dir {
			dir[i] = rng.NormFloat64()
			norm += dir[i] * dir[i]
		}
		norm = math.Sqrt(norm)
	}
	r := radius * math.Pow(rng.Float64(), 1/float64(dim))
	out := make(State, dim)
	for i := range out {
		out[i] = center[i] + dir[i]/norm*r
	}
	return out
}

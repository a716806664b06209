package statespace

import (
	"github.com/pkg/errors"
)

// Obstacle is a region of a space no state may occupy.
type Obstacle interface {
	Contains(s State) bool
}

// Box is an axis aligned box obstacle.
type Box struct {
	Min State
	Max State
}

// NewBox returns the box spanning lo to hi.
func NewBox(lo, hi State) (*Box, error) {
	if len(lo) != len(hi) {
		return nil, errors.Errorf("box corners have %d and %d coordinates", len(lo), len(hi))
	}
	for i := range lo {
		if lo[i] > hi[i] {
			return nil, errors.Errorf("box min %v exceeds max %v in dimension %d", lo[i], hi[i], i)
		}
	}
	return &Box{Min: lo.Copy(), Max: hi.Copy()}, nil
}

// Contains reports whether s lies inside the box, boundary included.
func (b *Box) Contains(s State) bool {
	for i, v := range s {
		if v < b.Min[i] || v > b.Max[i] {
			return false
		}
	}
	return true
}

// Ball is a spherical obstacle.
type Ball struct {
	Center State
	Radius float64
}

// Contains reports whether s lies inside the ball, boundary included.
func (b *Ball) Contains(s State) bool {
	sum := 0.
	for i, v := range s {
		d := v - b.Center[i]
		sum += d * d
	}
	return sum <= b.Radius*b.Radius
}

// ObstacleChecker accepts states inside the space's bounds and outside every obstacle.
type ObstacleChecker struct {
	space     Space
	obstacles []Obstacle
}

// NewObstacleChecker returns a checker for the given obstacles.
func NewObstacleChecker(space Space, obstacles ...Obstacle) *ObstacleChecker {
	return &ObstacleChecker{space: space, obstacles: obstacles}
}

// AddObstacle adds another obstacle to the checker.
func (oc *ObstacleChecker) AddObstacle(obstacle Obstacle) {
	oc.obstacles = append(oc.obstacles, obstacle)
}

// IsValid reports whether s is in bounds and collision free.
func (oc *ObstacleChecker) IsValid(s State) bool {
	if !oc.space.SatisfiesBounds(s) {
		return false
	}
	for _, o := range oc.obstacles {
		if o.Contains(s) {
			return false
		}
	}
	return true
}

// Package config reads planning problems from JSON or TOML files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/optrrt/logging"
	"go.viam.com/optrrt/motionplan"
	"go.viam.com/optrrt/statespace"
)

// Format is the encoding of a problem file.
type Format string

// The supported problem file formats.
const (
	FormatJSON  Format = "json"
	FormatJSON5 Format = "json5"
	FormatTOML  Format = "toml"
)

// the obstacle shapes a problem file may use.
const (
	boxObstacle  = "box"
	ballObstacle = "ball"
)

// Problem describes a planning query: the space, where to start, where to go, what to avoid and
// how to configure the planner.
type Problem struct {
	ConfigFilePath string `json:"-" toml:"-"`

	Bounds    []statespace.Bounds `json:"bounds" toml:"bounds"`
	Starts    [][]float64         `json:"starts" toml:"starts"`
	Goal      GoalConfig          `json:"goal" toml:"goal"`
	Obstacles []ObstacleConfig    `json:"obstacles,omitempty" toml:"obstacles"`
	// Resolution of discrete motion checking. Zero uses one percent of the space's extent.
	Resolution float64 `json:"resolution,omitempty" toml:"resolution"`
	// Planner holds overrides of the planner's default options, keyed by their json names.
	Planner map[string]interface{} `json:"planner,omitempty" toml:"planner"`
}

// GoalConfig is a ball shaped goal region.
type GoalConfig struct {
	Center        []float64 `json:"center" toml:"center"`
	Radius        float64   `json:"radius" toml:"radius"`
	MaxPathLength float64   `json:"max_path_length,omitempty" toml:"max_path_length"`
}

// ObstacleConfig describes a box, given by Min and Max, or a ball, given by Center and Radius.
type ObstacleConfig struct {
	Type   string    `json:"type" toml:"type"`
	Min    []float64 `json:"min,omitempty" toml:"min"`
	Max    []float64 `json:"max,omitempty" toml:"max"`
	Center []float64 `json:"center,omitempty" toml:"center"`
	Radius float64   `json:"radius,omitempty" toml:"radius"`
}

// Read reads a problem from the given file. Environment variables in the file are expanded. Files
// ending in .toml are decoded as TOML, .json5 as JSON5 (comments and trailing commas allowed) and
// anything else as JSON.
func Read(filePath string, logger logging.Logger) (*Problem, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), formatFromPath(filePath), logger)
}

func formatFromPath(filePath string) Format {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".toml":
		return FormatTOML
	case ".json5":
		return FormatJSON5
	default:
		return FormatJSON
	}
}

// FromReader reads a problem from the given reader and specifies where, if applicable, the file
// the reader originated from.
func FromReader(originalPath string, r io.Reader, format Format, logger logging.Logger) (*Problem, error) {
	problem := Problem{ConfigFilePath: originalPath}
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(r).Decode(&problem); err != nil {
			return nil, errors.Wrap(err, "failed to decode problem from toml")
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&problem); err != nil {
			return nil, errors.Wrap(err, "failed to decode problem from json")
		}
	case FormatJSON5:
		buf, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		if err := json5.Unmarshal(buf, &problem); err != nil {
			return nil, errors.Wrap(err, "failed to decode problem from json5")
		}
	default:
		return nil, errors.Errorf("unknown problem format %q", format)
	}
	if err := problem.Validate("problem"); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugw("read problem",
			"path", originalPath,
			"dimensions", len(problem.Bounds),
			"starts", len(problem.Starts),
			"obstacles", len(problem.Obstacles),
		)
	}
	return &problem, nil
}

// Validate returns every problem of the configuration combined into one error.
func (p *Problem) Validate(path string) error {
	var errs error
	dim := len(p.Bounds)
	if dim == 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "bounds"))
	}
	for idx, b := range p.Bounds {
		if !(b.Min < b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("%s.bounds.%d", path, idx),
				errors.Errorf("min %v must be finite and below max %v", b.Min, b.Max)))
		}
	}
	if len(p.Starts) == 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "starts"))
	}
	for idx, s := range p.Starts {
		errs = multierr.Append(errs, checkDimension(fmt.Sprintf("%s.starts.%d", path, idx), s, dim))
	}
	errs = multierr.Append(errs, p.Goal.Validate(path+".goal", dim))
	for idx, o := range p.Obstacles {
		errs = multierr.Append(errs, o.Validate(fmt.Sprintf("%s.obstacles.%d", path, idx), dim))
	}
	if p.Resolution < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path+".resolution",
			errors.Errorf("can't be negative, got %v", p.Resolution)))
	}
	return errs
}

// Validate ensures the goal is a ball of the problem's dimension.
func (g *GoalConfig) Validate(path string, dim int) error {
	if len(g.Center) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "center")
	}
	if err := checkDimension(path+".center", g.Center, dim); err != nil {
		return err
	}
	if g.Radius < 0 {
		return utils.NewConfigValidationError(path+".radius", errors.Errorf("can't be negative, got %v", g.Radius))
	}
	if g.MaxPathLength < 0 {
		return utils.NewConfigValidationError(path+".max_path_length", errors.Errorf("can't be negative, got %v", g.MaxPathLength))
	}
	return nil
}

// Validate ensures the obstacle has the fields its type needs.
func (o *ObstacleConfig) Validate(path string, dim int) error {
	switch o.Type {
	case boxObstacle:
		if len(o.Min) == 0 {
			return utils.NewConfigValidationFieldRequiredError(path, "min")
		}
		if len(o.Max) == 0 {
			return utils.NewConfigValidationFieldRequiredError(path, "max")
		}
		return multierr.Combine(checkDimension(path+".min", o.Min, dim), checkDimension(path+".max", o.Max, dim))
	case ballObstacle:
		if len(o.Center) == 0 {
			return utils.NewConfigValidationFieldRequiredError(path, "center")
		}
		if o.Radius <= 0 {
			return utils.NewConfigValidationError(path+".radius", errors.Errorf("must be positive, got %v", o.Radius))
		}
		return checkDimension(path+".center", o.Center, dim)
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	default:
		return utils.NewConfigValidationError(path+".type", errors.Errorf("unknown obstacle type %q", o.Type))
	}
}

func checkDimension(path string, v []float64, dim int) error {
	if dim > 0 && len(v) != dim {
		return utils.NewConfigValidationError(path, errors.Errorf("has %d coordinates, the space has %d dimensions", len(v), dim))
	}
	return nil
}

// Build creates the planning problem and the planner options the configuration describes.
func (p *Problem) Build() (*motionplan.Problem, *motionplan.PlannerOptions, error) {
	space, err := statespace.NewRealVectorSpace(p.Bounds)
	if err != nil {
		return nil, nil, err
	}

	goal, err := statespace.NewGoalBall(space, p.Goal.Center, p.Goal.Radius)
	if err != nil {
		return nil, nil, err
	}
	goal.SetMaximumPathLength(p.Goal.MaxPathLength)

	checker := statespace.NewObstacleChecker(space)
	for _, o := range p.Obstacles {
		switch o.Type {
		case boxObstacle:
			box, err := statespace.NewBox(o.Min, o.Max)
			if err != nil {
				return nil, nil, err
			}
			checker.AddObstacle(box)
		case ballObstacle:
			checker.AddObstacle(&statespace.Ball{Center: o.Center, Radius: o.Radius})
		}
	}
	mv, err := statespace.NewDiscreteMotionValidator(space, checker, p.Resolution)
	if err != nil {
		return nil, nil, err
	}

	starts := make([]statespace.State, 0, len(p.Starts))
	for _, s := range p.Starts {
		starts = append(starts, statespace.State(s).Copy())
	}

	opts, err := motionplan.NewPlannerOptionsFromExtra(p.Planner)
	if err != nil {
		return nil, nil, err
	}

	return &motionplan.Problem{
		Space:           space,
		Starts:          starts,
		Goal:            goal,
		Sampler:         statespace.NewUniformSampler(space),
		StateChecker:    checker,
		MotionValidator: mv,
	}, opts, nil
}

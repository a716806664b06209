// Package main is the optrrt command line planner.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/optrrt/config"
	"go.viam.com/optrrt/logging"
	"go.viam.com/optrrt/motionplan"
)

const (
	// Flags.
	flagProblem    = "problem"
	flagTimeout    = "timeout"
	flagIterations = "iterations"
	flagSeed       = "seed"
	flagJSON       = "json"
	flagDebug      = "debug"
	flagLogLevel   = "log-level"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var logger logging.Logger

	problemFlag := &cli.StringFlag{
		Name:     flagProblem,
		Aliases:  []string{"p"},
		Required: true,
		Usage:    "load the planning problem from `FILE` (.json, .json5 or .toml)",
	}
	return &cli.App{
		Name:            "optrrt",
		Usage:           "plan asymptotically optimal paths through bounded spaces",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging, overriding --log-level",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Value: "warn",
				Usage: "minimum `LEVEL` to log: debug, info, warn or error",
			},
		},
		Before: func(c *cli.Context) error {
			level, err := logging.LevelFromString(c.String(flagLogLevel))
			if err != nil {
				return err
			}
			if c.Bool(flagDebug) {
				logger = logging.NewDebugLogger("optrrt")
			} else {
				logger = logging.NewLogger("optrrt")
				logger.SetLevel(level)
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			if logger == nil {
				return nil
			}
			//nolint:errcheck
			logger.Sync()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "solve",
				Usage:     "grow a tree until the time or iteration limit and print the best path",
				UsageText: "optrrt solve --problem <file> [--timeout <seconds>] [--iterations <n>] [--seed <n>] [--json]",
				Flags: []cli.Flag{
					problemFlag,
					&cli.Float64Flag{
						Name:  flagTimeout,
						Usage: "seconds to plan for, overriding the problem's planner timeout",
					},
					&cli.IntFlag{
						Name:  flagIterations,
						Usage: "stop after this many iterations, zero for no limit",
					},
					&cli.IntFlag{
						Name:  flagSeed,
						Usage: "seed of the planner's random generator, overriding the problem's rseed",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print the solution as JSON",
					},
				},
				Action: func(c *cli.Context) error {
					return solveAction(c, logger)
				},
			},
			{
				Name:      "validate",
				Usage:     "check a problem file without planning",
				UsageText: "optrrt validate --problem <file>",
				Flags:     []cli.Flag{problemFlag},
				Action: func(c *cli.Context) error {
					return validateAction(c, logger)
				},
			},
		},
	}
}

func readProblem(c *cli.Context, logger logging.Logger) (*motionplan.Problem, *motionplan.PlannerOptions, error) {
	cfg, err := config.Read(c.String(flagProblem), logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg.Build()
}

func validateAction(c *cli.Context, logger logging.Logger) error {
	problem, opts, err := readProblem(c, logger)
	if err != nil {
		return err
	}
	mp, err := motionplan.NewOptRRT(problem, opts, logger)
	if err != nil {
		return err
	}
	if err := mp.Setup(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %d dimensional problem with %d start state(s), range %.4g\n",
		c.String(flagProblem), problem.Space.Dimension(), len(problem.Starts), mp.Range())
	return nil
}

func solveAction(c *cli.Context, logger logging.Logger) error {
	problem, opts, err := readProblem(c, logger)
	if err != nil {
		return err
	}
	if c.IsSet(flagTimeout) {
		opts.Timeout = c.Float64(flagTimeout)
	}
	if c.IsSet(flagSeed) {
		opts.RandomSeed = c.Int(flagSeed)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	mp, err := motionplan.NewOptRRT(problem, opts, logger)
	if err != nil {
		return err
	}
	if err := mp.Setup(); err != nil {
		return err
	}

	ptc := motionplan.TimedTermination(clock.New(), time.Duration(opts.Timeout*float64(time.Second)))
	if n := c.Int(flagIterations); n > 0 {
		ptc = motionplan.AnyTermination(ptc, motionplan.IterationTermination(n))
	}
	solved, err := mp.Solve(c.Context, ptc)
	if err != nil {
		return err
	}

	sol, ok := mp.ApproximateSolution()
	if !ok {
		return errors.New("the planner produced no path")
	}
	stats := mp.Stats()
	logger.Infow("planning finished", "solved", solved, "iterations", stats.Iterations, "motions", stats.Motions)

	if c.Bool(flagJSON) {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(sol)
	}
	printSolution(c, sol, stats)
	return nil
}

func printSolution(c *cli.Context, sol *motionplan.Solution, stats motionplan.Stats) {
	w := c.App.Writer
	if sol.Approximate {
		fmt.Fprintf(w, "approximate solution, %.4f from the goal\n", sol.GoalDistance)
	} else {
		fmt.Fprintln(w, "exact solution")
	}
	fmt.Fprintf(w, "cost: %.4f\n", sol.Cost)
	fmt.Fprintf(w, "iterations: %d\tmotions: %d\trewires: %d\n", stats.Iterations, stats.Motions, stats.Rewires)

	t := table.NewWriter()
	header := table.Row{"#"}
	if len(sol.Path) > 0 {
		for i := range sol.Path[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
	}
	t.AppendHeader(header)
	for i, s := range sol.Path {
		row := table.Row{i}
		for _, v := range s {
			row = append(row, fmt.Sprintf("%.4f", v))
		}
		t.AppendRow(row)
	}
	fmt.Fprintln(w, t.Render())
}

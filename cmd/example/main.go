// Package main demonstrates basic weighted goal programming usage patterns.
//
// Each section builds a small model, solves it and prints what the solver
// traded off.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gitrdm/gowgp/internal/logging"
	"github.com/gitrdm/gowgp/pkg/engine"
	"github.com/gitrdm/gowgp/pkg/wgp"
)

func main() {
	level := os.Getenv("WGP_LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger, err := logging.New(level, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	fmt.Println("=== Weighted Goal Programming Examples ===")
	fmt.Println()

	steps := []func(*zap.Logger) error{
		reachableGoals,
		capacityConflict,
		costAgainstGoal,
		senseMatters,
		batchSweep,
	}
	for _, step := range steps {
		if err := step(logger); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		fmt.Println()
	}
}

// twoVars creates non-negative continuous x1 and x2.
func twoVars(m *wgp.Model) (*wgp.Variable, *wgp.Variable, error) {
	x1, err := m.CreateVariable("x1", 0, wgp.Inf, "continuous")
	if err != nil {
		return nil, nil, err
	}
	x2, err := m.CreateVariable("x2", 0, wgp.Inf, "continuous")
	if err != nil {
		return nil, nil, err
	}
	return x1, x2, nil
}

func goal(m *wgp.Model, name string, expr wgp.Expression, target float64, opts ...wgp.GoalOption) error {
	g, err := wgp.NewGoal(name, expr, target, opts...)
	if err != nil {
		return err
	}
	_, err = m.AddGoal(g)
	return err
}

func show(res *wgp.Result) {
	fmt.Printf("   status: %s (%v)\n", res.Status(), res.Elapsed().Round(time.Microsecond))
	for _, name := range res.Variables() {
		if v, ok := res.Value(name); ok {
			fmt.Printf("   %-6s = %.2f\n", name, v)
		}
	}
	if obj, ok := res.Objective(); ok {
		fmt.Printf("   objective = %.2f\n", obj)
	}
}

// reachableGoals: both goals can be met exactly, so nothing is penalized.
func reachableGoals(logger *zap.Logger) error {
	fmt.Println("1. Reachable Goals:")

	m := wgp.NewModel("reachable", wgp.WithLogger(logger))
	x1, x2, err := twoVars(m)
	if err != nil {
		return err
	}
	if err := goal(m, "total", x1.Expr().Plus(x2.Expr()), 10); err != nil {
		return err
	}
	if err := goal(m, "x1", x1.Expr(), 7); err != nil {
		return err
	}

	res, err := m.SolveWeighted(context.Background())
	if err != nil {
		return err
	}
	show(res)
	return nil
}

// capacityConflict: a hard cap prevents the goal, the shortfall shows up in n.
func capacityConflict(logger *zap.Logger) error {
	fmt.Println("2. Hard Constraint Against a Goal:")

	m := wgp.NewModel("conflict", wgp.WithLogger(logger))
	x1, _, err := twoVars(m)
	if err != nil {
		return err
	}
	c, err := wgp.NewConstraint("x1 cap", x1.Expr(), "<=", 5)
	if err != nil {
		return err
	}
	if err := m.AddConstraint(c); err != nil {
		return err
	}
	if err := goal(m, "x1", x1.Expr(), 7); err != nil {
		return err
	}

	res, err := m.SolveWeighted(context.Background())
	if err != nil {
		return err
	}
	show(res)
	if d, ok := res.Deviation("x1"); ok {
		fmt.Printf("   goal x1 missed by %.2f\n", d.Negative)
	}
	return nil
}

// costAgainstGoal: a weighted cost term competes with a heavier goal.
func costAgainstGoal(logger *zap.Logger) error {
	fmt.Println("3. Cost Against a Goal:")

	m := wgp.NewModel("costed", wgp.WithLogger(logger))
	x1, x2, err := twoVars(m)
	if err != nil {
		return err
	}
	total := x1.Expr().Plus(x2.Expr())
	if err := goal(m, "total", total, 10, wgp.WithWeight(10)); err != nil {
		return err
	}

	obj, err := m.BuildObjective(wgp.WithCost(total, 1))
	if err != nil {
		return err
	}
	fmt.Printf("   minimize %s\n", obj.Expression())

	res, err := m.Solve(context.Background(), obj)
	if err != nil {
		return err
	}
	show(res)
	return nil
}

// senseMatters compares the two penalty modes on a one-sided goal.
func senseMatters(logger *zap.Logger) error {
	fmt.Println("4. Goal Sense and Penalty Mode:")

	for _, mode := range []wgp.PenaltyMode{wgp.PenalizeBySense, wgp.PenalizeBoth} {
		m := wgp.NewModel("sense", wgp.WithLogger(logger), wgp.WithDefaultPenalty(mode))
		x1, _, err := twoVars(m)
		if err != nil {
			return err
		}
		c, err := wgp.NewConstraint("x1 floor", x1.Expr(), ">=", 12)
		if err != nil {
			return err
		}
		if err := m.AddConstraint(c); err != nil {
			return err
		}
		if err := goal(m, "at least", x1.Expr(), 10, wgp.WithSense(wgp.MinimizeUnder)); err != nil {
			return err
		}

		res, err := m.SolveWeighted(context.Background())
		if err != nil {
			return err
		}
		obj, _ := res.Objective()
		fmt.Printf("   %-9s objective = %.2f\n", mode, obj)
	}
	return nil
}

// batchSweep solves independent models concurrently.
func batchSweep(logger *zap.Logger) error {
	fmt.Println("5. Batch Solving:")

	caps := []float64{2, 4, 6, 8}
	jobs := make([]wgp.Job, 0, len(caps))
	for _, limit := range caps {
		limit := limit
		jobs = append(jobs, wgp.Job{
			Name: fmt.Sprintf("cap=%g", limit),
			Build: func() (*wgp.Model, []wgp.ObjectiveOption, error) {
				m := wgp.NewModel("sweep",
					wgp.WithLogger(logger),
					wgp.WithEngine(engine.SimplexFactory(engine.WithNodeLimit(1000))),
				)
				x, err := m.CreateVariable("x", 0, limit, "integer")
				if err != nil {
					return nil, nil, err
				}
				return m, nil, goal(m, "x", x.Expr(), 7)
			},
		})
	}

	var b strings.Builder
	for _, r := range wgp.SolveBatch(context.Background(), jobs, 2) {
		if r.Err != nil {
			return r.Err
		}
		obj, _ := r.Result.Objective()
		fmt.Fprintf(&b, "   %-6s %s shortfall=%.0f\n", r.Name, r.Result.Status(), obj)
	}
	fmt.Print(b.String())
	return nil
}

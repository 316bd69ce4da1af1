package wgp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gitrdm/gowgp/pkg/engine"
)

// Status is the outcome of a solve.
type Status int

const (
	Undefined Status = iota
	Optimal
	Infeasible
	Unbounded
	NotSolved
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	case NotSolved:
		return "Not Solved"
	case Undefined:
		return "Undefined"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func mapStatus(native engine.Status) Status {
	switch native {
	case engine.StatusOptimal:
		return Optimal
	case engine.StatusInfeasible:
		return Infeasible
	case engine.StatusUnbounded:
		return Unbounded
	case engine.StatusNotSolved:
		return NotSolved
	default:
		return Undefined
	}
}

// DeviationValues are the solved values of a goal's deviation pair.
type DeviationValues struct {
	Negative float64
	Positive float64
}

// Result is an immutable snapshot of a solve.
type Result struct {
	status     Status
	order      []string
	values     map[string]float64
	deviations map[string]DeviationValues
	targets    map[string]float64
	objective  float64
	hasObj     bool
	elapsed    time.Duration
}

// Status returns the mapped solve status.
func (r *Result) Status() Status { return r.status }

// Value returns the value of a variable, or false when the engine left it
// unassigned or the name is unknown.
func (r *Result) Value(name string) (float64, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Values returns a copy of every assigned variable value keyed by name.
func (r *Result) Values() map[string]float64 {
	out := make(map[string]float64, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Variables returns the names of all variables registered at solve time, in
// registration order, assigned or not.
func (r *Result) Variables() []string {
	return append([]string(nil), r.order...)
}

// Deviation returns the deviation values of a goal, or false when either
// deviation variable is unassigned.
func (r *Result) Deviation(goal string) (DeviationValues, bool) {
	d, ok := r.deviations[goal]
	return d, ok
}

// Deviations returns a copy of all assigned deviation values keyed by goal.
func (r *Result) Deviations() map[string]DeviationValues {
	out := make(map[string]DeviationValues, len(r.deviations))
	for k, v := range r.deviations {
		out[k] = v
	}
	return out
}

// GoalAchievement returns the value reached by a goal's expression,
// target - n + p.
func (r *Result) GoalAchievement(goal string) (float64, bool) {
	d, ok := r.deviations[goal]
	if !ok {
		return 0, false
	}
	return r.targets[goal] - d.Negative + d.Positive, true
}

// Objective returns the objective value, or false when it cannot be
// evaluated because some of its variables are unassigned.
func (r *Result) Objective() (float64, bool) {
	return r.objective, r.hasObj
}

// Elapsed returns the time spent in the engine.
func (r *Result) Elapsed() time.Duration { return r.elapsed }

// Err returns nil for Optimal results and a SolverFailure error otherwise.
// Solve itself never fails on solver outcomes; Err is for callers that want
// to treat them as errors.
func (r *Result) Err() error {
	if r.status == Optimal {
		return nil
	}
	return errors.WithHint(
		newError(SolverFailure, "solve finished with status %s", r.status),
		"inspect the variable values and deviations, which may be partial")
}

func (r *Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Result{status: %s", r.status)
	if r.hasObj {
		fmt.Fprintf(&sb, ", objective: %g", r.objective)
	}
	goals := make([]string, 0, len(r.deviations))
	for g := range r.deviations {
		goals = append(goals, g)
	}
	sort.Strings(goals)
	for _, g := range goals {
		d := r.deviations[g]
		fmt.Fprintf(&sb, ", %s: (n=%g, p=%g)", g, d.Negative, d.Positive)
	}
	sb.WriteString("}")
	return sb.String()
}

// SolveWeighted assembles the weighted objective from opts and solves it.
func (m *Model) SolveWeighted(ctx context.Context, opts ...ObjectiveOption) (*Result, error) {
	obj, err := m.BuildObjective(opts...)
	if err != nil {
		return nil, err
	}
	return m.Solve(ctx, obj)
}

// Solve sets obj as the program objective with minimize sense, runs the
// engine synchronously and snapshots the outcome.
//
// Solver outcomes are data: an infeasible or interrupted solve returns a
// Result with the matching Status and a nil error. Errors are reserved for
// structural misuse: an objective built for another model or an empty one.
func (m *Model) Solve(ctx context.Context, obj Objective) (*Result, error) {
	if obj.model != m {
		return nil, newError(InvalidExpression, "objective was not built for model %q", m.name)
	}
	if obj.empty() {
		return nil, newError(EmptyObjective, "model %q: objective has no terms", m.name)
	}

	m.program.SetObjective(m.columns(obj.expr), obj.expr.constant, engine.Minimize)

	start := time.Now()
	native := m.program.Solve(ctx)
	elapsed := time.Since(start)

	res := m.snapshot(mapStatus(native), obj, elapsed)

	fields := []zap.Field{
		zap.Stringer("status", res.status),
		zap.Stringer("native_status", native),
		zap.Duration("elapsed", elapsed),
		zap.Int("variables", len(m.variables)),
		zap.Int("constraints", len(m.constraints)),
		zap.Int("goals", len(m.goals)),
	}
	if res.hasObj {
		fields = append(fields, zap.Float64("objective", res.objective))
	}
	m.logger.Info("weighted goal program solved", fields...)

	if m.metrics != nil {
		m.metrics.ObserveSolve(res.status.String(), elapsed, len(m.variables), len(m.constraints))
	}
	return res, nil
}

// snapshot reads every variable regardless of status; engines may leave
// values for non-optimal outcomes.
func (m *Model) snapshot(status Status, obj Objective, elapsed time.Duration) *Result {
	res := &Result{
		status:     status,
		order:      make([]string, 0, len(m.variables)),
		values:     make(map[string]float64, len(m.variables)),
		deviations: make(map[string]DeviationValues, len(m.goals)),
		targets:    make(map[string]float64, len(m.goals)),
		elapsed:    elapsed,
	}
	for _, v := range m.variables {
		res.order = append(res.order, v.name)
		if x, ok := m.program.Value(v.column); ok {
			res.values[v.name] = x
		}
	}
	for _, g := range m.goals {
		pair := m.deviations[g.Name]
		n, nok := res.values[pair.Negative.name]
		p, pok := res.values[pair.Positive.name]
		if nok && pok {
			res.deviations[g.Name] = DeviationValues{Negative: n, Positive: p}
		}
		res.targets[g.Name] = g.Target
	}
	res.objective, res.hasObj = obj.expr.Evaluate(res.values)
	return res
}

package wgp

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gitrdm/gowgp/pkg/engine"
)

// GoalSense states which side of a goal's target counts as a violation.
type GoalSense int

const (
	// Attain penalizes any departure from the target.
	Attain GoalSense = iota
	// MinimizeUnder penalizes falling short of the target only.
	MinimizeUnder
	// MinimizeOver penalizes exceeding the target only.
	MinimizeOver
)

func (s GoalSense) String() string {
	switch s {
	case Attain:
		return "ATTAIN"
	case MinimizeUnder:
		return "MINIMIZE_UNDER"
	case MinimizeOver:
		return "MINIMIZE_OVER"
	default:
		return fmt.Sprintf("GoalSense(%d)", int(s))
	}
}

// ParseGoalSense resolves a goal sense name case-insensitively.
func ParseGoalSense(s string) (GoalSense, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ATTAIN":
		return Attain, nil
	case "MINIMIZE_UNDER":
		return MinimizeUnder, nil
	case "MINIMIZE_OVER":
		return MinimizeOver, nil
	default:
		return 0, newError(UnsupportedSense, "goal sense %q", s)
	}
}

func (s GoalSense) valid() bool {
	return s == Attain || s == MinimizeUnder || s == MinimizeOver
}

// Goal is a soft linear target. Missing the target is penalized through the
// goal's deviation variables rather than forbidden.
type Goal struct {
	Name       string
	Expression Expression
	Target     float64
	Sense      GoalSense
	Weight     float64
	Priority   int
}

// GoalOption configures NewGoal.
type GoalOption func(*Goal)

// WithSense sets the goal sense. The default is Attain.
func WithSense(s GoalSense) GoalOption {
	return func(g *Goal) { g.Sense = s }
}

// WithWeight sets the penalty weight. The default is 1.
func WithWeight(w float64) GoalOption {
	return func(g *Goal) { g.Weight = w }
}

// WithPriority sets the priority level. The default is 1. Priorities are
// recorded for callers; weighted solves do not order goals by them.
func WithPriority(p int) GoalOption {
	return func(g *Goal) { g.Priority = p }
}

// NewGoal builds a validated goal with weight 1, priority 1 and sense Attain
// unless options say otherwise.
func NewGoal(name string, expr Expression, target float64, opts ...GoalOption) (Goal, error) {
	g := Goal{
		Name:       name,
		Expression: expr,
		Target:     target,
		Sense:      Attain,
		Weight:     1,
		Priority:   1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&g)
		}
	}
	if err := g.Validate(); err != nil {
		return Goal{}, err
	}
	return g, nil
}

// Validate checks weight, priority, sense and target.
func (g Goal) Validate() error {
	if !g.Sense.valid() {
		return newError(UnsupportedSense, "goal %q: sense %v", g.Name, g.Sense)
	}
	if math.IsNaN(g.Weight) || math.IsInf(g.Weight, 0) || g.Weight < 0 {
		return errors.WithHint(
			newError(InvalidGoal, "goal %q: weight %v", g.Name, g.Weight),
			"weights must be finite and non-negative")
	}
	if g.Priority < 1 {
		return newError(InvalidGoal, "goal %q: priority %d is below 1", g.Name, g.Priority)
	}
	if math.IsNaN(g.Target) || math.IsInf(g.Target, 0) {
		return newError(InvalidExpression, "goal %q: target %v is not finite", g.Name, g.Target)
	}
	return nil
}

func (g Goal) String() string {
	return fmt.Sprintf("%s: %s -> %g (%s, w=%g, p=%d)", g.Name, g.Expression, g.Target, g.Sense, g.Weight, g.Priority)
}

// DeviationPair holds the deviation variables of one goal. Negative
// measures under-achievement, Positive over-achievement.
type DeviationPair struct {
	Negative *Variable
	Positive *Variable
}

// Deviation variable and linking constraint names for a goal symbol.
func deviationNames(symbol string) (neg, pos, link string) {
	return "n_" + symbol, "p_" + symbol, "goal_link_" + symbol
}

// AddGoal registers g. It creates the non-negative deviation variables
// n_<symbol> and p_<symbol> and the linking constraint
//
//	expression + n - p == target
//
// named goal_link_<symbol>. Both deviation variables are created whatever
// the goal sense; the sense only shapes the objective. All checks and engine
// calls run before the first registry write, so a failed call leaves the
// registries unchanged. Columns an engine accepted before rejecting the link
// are reused when the goal is retried.
func (m *Model) AddGoal(g Goal) (DeviationPair, error) {
	if _, ok := m.goalIndex[g.Name]; ok {
		return DeviationPair{}, newError(DuplicateName, "goal %q", g.Name)
	}
	if err := g.Validate(); err != nil {
		return DeviationPair{}, err
	}
	symbol, err := Sanitize(g.Name)
	if err != nil {
		return DeviationPair{}, err
	}
	negName, posName, linkName := deviationNames(symbol)
	for _, name := range []string{negName, posName} {
		if m.variableExists(name) {
			return DeviationPair{}, errors.WithHint(
				newError(NameCollision, "goal %q: deviation variable %q already exists", g.Name, name),
				"rename the goal or the conflicting variable")
		}
	}
	if _, ok := m.constraintIndex[linkName]; ok {
		return DeviationPair{}, newError(NameCollision, "goal %q: constraint %q already exists", g.Name, linkName)
	}
	if owner, ok := m.constraintSymbols[linkName]; ok {
		return DeviationPair{}, newError(NameCollision, "goal %q: constraint symbol %q already used by %q", g.Name, linkName, owner)
	}
	if err := g.Expression.validate(m); err != nil {
		return DeviationPair{}, errors.Wrapf(err, "goal %q", g.Name)
	}

	// Engine first, registries last: nothing is registered unless all three
	// engine calls succeed.
	n, err := m.stageDeviation(negName)
	if err != nil {
		return DeviationPair{}, err
	}
	p, err := m.stageDeviation(posName)
	if err != nil {
		m.orphans[negName] = n.column
		return DeviationPair{}, err
	}
	link := Constraint{
		Name:       linkName,
		Expression: g.Expression.AddTerm(1, n).AddTerm(-1, p),
		Sense:      EQ,
		RHS:        g.Target,
	}
	rhs := link.RHS - link.Expression.constant
	if err := m.program.AddConstraint(linkName, m.columns(link.Expression), engine.Equal, rhs); err != nil {
		m.orphans[negName], m.orphans[posName] = n.column, p.column
		return DeviationPair{}, errors.Wrapf(err, "submitting constraint %q", linkName)
	}
	m.commitVariable(n)
	m.commitVariable(p)
	m.commitConstraint(link, linkName)

	pair := DeviationPair{Negative: n, Positive: p}
	m.goalIndex[g.Name] = len(m.goals)
	m.goals = append(m.goals, g)
	m.deviations[g.Name] = pair

	m.logger.Debug("goal registered",
		zap.String("goal", g.Name),
		zap.Stringer("sense", g.Sense),
		zap.Float64("target", g.Target),
		zap.Float64("weight", g.Weight),
		zap.Int("priority", g.Priority))
	return pair, nil
}

func (m *Model) variableExists(name string) bool {
	if _, ok := m.variableIndex[name]; ok {
		return true
	}
	_, ok := m.symbols[name]
	return ok
}

// Goal looks up a goal by name.
func (m *Model) Goal(name string) (Goal, bool) {
	i, ok := m.goalIndex[name]
	if !ok {
		return Goal{}, false
	}
	return m.goals[i], true
}

// Goals returns the goals in registration order.
func (m *Model) Goals() []Goal {
	return append([]Goal(nil), m.goals...)
}

// GoalCount returns the number of registered goals.
func (m *Model) GoalCount() int {
	return len(m.goals)
}

// Deviations returns the deviation pair of a goal.
func (m *Model) Deviations(goal string) (DeviationPair, bool) {
	pair, ok := m.deviations[goal]
	return pair, ok
}

// DeviationPairs returns a copy of all deviation pairs keyed by goal name.
func (m *Model) DeviationPairs() map[string]DeviationPair {
	out := make(map[string]DeviationPair, len(m.deviations))
	for k, v := range m.deviations {
		out[k] = v
	}
	return out
}

package wgp

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// PenaltyMode decides how a goal's own weight is spread over its two
// deviation variables when no explicit override is given.
type PenaltyMode int

const (
	// PenalizeBySense penalizes only the deviation the goal sense cares
	// about: n for MinimizeUnder, p for MinimizeOver, both for Attain.
	PenalizeBySense PenaltyMode = iota
	// PenalizeBoth penalizes n and p with the goal weight whatever the
	// sense, treating the sense as metadata.
	PenalizeBoth
)

func (p PenaltyMode) String() string {
	switch p {
	case PenalizeBySense:
		return "by_sense"
	case PenalizeBoth:
		return "both"
	default:
		return fmt.Sprintf("PenaltyMode(%d)", int(p))
	}
}

// ParsePenaltyMode resolves "by_sense" or "both".
func ParsePenaltyMode(s string) (PenaltyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "by_sense", "":
		return PenalizeBySense, nil
	case "both":
		return PenalizeBoth, nil
	default:
		return 0, errors.WithHint(
			newError(UnsupportedSense, "penalty mode %q", s),
			`use "by_sense" or "both"`)
	}
}

// DeviationWeights are the objective coefficients of a goal's negative
// (Under) and positive (Over) deviation variables.
type DeviationWeights struct {
	Under float64
	Over  float64
}

// GoalTerm is the resolved contribution of one goal to an objective.
type GoalTerm struct {
	Goal    string
	Weights DeviationWeights
}

// ObjectiveOption configures BuildObjective and SolveWeighted.
type ObjectiveOption func(*objectiveConfig)

type objectiveConfig struct {
	goalWeights map[string]DeviationWeights
	cost        *Expression
	costWeight  float64
	penalty     *PenaltyMode
}

// WithGoalWeights overrides the deviation weights of the named goals. An
// override is used verbatim, whatever the goal sense.
func WithGoalWeights(weights map[string]DeviationWeights) ObjectiveOption {
	return func(c *objectiveConfig) { c.goalWeights = weights }
}

// WithCost adds weight·cost to the objective. A zero weight drops the term.
func WithCost(cost Expression, weight float64) ObjectiveOption {
	return func(c *objectiveConfig) {
		c.cost = &cost
		c.costWeight = weight
	}
}

// WithPenaltyMode overrides the model's penalty mode for one objective.
func WithPenaltyMode(mode PenaltyMode) ObjectiveOption {
	return func(c *objectiveConfig) { c.penalty = &mode }
}

// Objective is a scalar linear objective assembled from a model's goals and
// an optional cost term. It is minimized by Solve.
type Objective struct {
	model      *Model
	expr       Expression
	goals      []GoalTerm
	costWeight float64
	hasCost    bool
}

// Expression returns the assembled linear objective.
func (o Objective) Expression() Expression { return o.expr }

// GoalTerms returns the goals contributing to the objective with their
// resolved weights, in goal registration order.
func (o Objective) GoalTerms() []GoalTerm {
	return append([]GoalTerm(nil), o.goals...)
}

// HasCost reports whether a cost term is part of the objective.
func (o Objective) HasCost() bool { return o.hasCost }

// CostWeight returns the cost multiplier, zero without a cost term.
func (o Objective) CostWeight() float64 { return o.costWeight }

// Evaluate computes the objective for values keyed by variable name.
func (o Objective) Evaluate(values map[string]float64) (float64, bool) {
	return o.expr.Evaluate(values)
}

func (o Objective) empty() bool {
	return !o.hasCost && len(o.goals) == 0
}

// BuildObjective assembles
//
//	cost_weight·cost + Σ_goals (w⁻·n + w⁺·p)
//
// Weights come from WithGoalWeights when given for a goal; otherwise from
// the goal weight shaped by the penalty mode. Zero-weight terms are dropped.
// It fails with EmptyObjective when nothing remains.
func (m *Model) BuildObjective(opts ...ObjectiveOption) (Objective, error) {
	cfg := objectiveConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	mode := m.penalty
	if cfg.penalty != nil {
		mode = *cfg.penalty
	}
	if err := m.checkGoalWeights(cfg.goalWeights); err != nil {
		return Objective{}, err
	}

	obj := Objective{model: m}
	var terms []Term
	constant := 0.0

	if cfg.cost != nil && cfg.costWeight != 0 {
		if math.IsNaN(cfg.costWeight) || math.IsInf(cfg.costWeight, 0) {
			return Objective{}, newError(InvalidExpression, "cost weight %v is not finite", cfg.costWeight)
		}
		if err := cfg.cost.validate(m); err != nil {
			return Objective{}, errors.Wrap(err, "cost expression")
		}
		scaled := cfg.cost.Scale(cfg.costWeight)
		terms = append(terms, scaled.terms...)
		constant = scaled.constant
		obj.hasCost = true
		obj.costWeight = cfg.costWeight
	}

	for _, g := range m.goals {
		w, ok := cfg.goalWeights[g.Name]
		if !ok {
			w = defaultWeights(g, mode)
		}
		if w.Under == 0 && w.Over == 0 {
			continue
		}
		pair := m.deviations[g.Name]
		if w.Under != 0 {
			terms = append(terms, Term{Var: pair.Negative, Coef: w.Under})
		}
		if w.Over != 0 {
			terms = append(terms, Term{Var: pair.Positive, Coef: w.Over})
		}
		obj.goals = append(obj.goals, GoalTerm{Goal: g.Name, Weights: w})
	}

	if obj.empty() {
		return Objective{}, errors.WithHint(
			newError(EmptyObjective, "model %q has no weighted goals and no cost term", m.name),
			"add a goal with a positive weight or pass WithCost")
	}
	obj.expr = Expression{terms: terms, constant: constant}
	return obj, nil
}

func (m *Model) checkGoalWeights(weights map[string]DeviationWeights) error {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := m.goalIndex[name]; !ok {
			return newError(InvalidGoal, "weights given for unknown goal %q", name)
		}
		w := weights[name]
		for _, v := range []float64{w.Under, w.Over} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return newError(InvalidGoal, "goal %q: deviation weight %v must be finite and non-negative", name, v)
			}
		}
	}
	return nil
}

func defaultWeights(g Goal, mode PenaltyMode) DeviationWeights {
	if mode == PenalizeBoth {
		return DeviationWeights{Under: g.Weight, Over: g.Weight}
	}
	switch g.Sense {
	case MinimizeUnder:
		return DeviationWeights{Under: g.Weight}
	case MinimizeOver:
		return DeviationWeights{Over: g.Weight}
	default:
		return DeviationWeights{Under: g.Weight, Over: g.Weight}
	}
}

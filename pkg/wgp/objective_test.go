package wgp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func senseModel(t *testing.T, mode PenaltyMode) *Model {
	t.Helper()
	m := NewModel("senses", WithDefaultPenalty(mode))
	x := mustVar(t, m, "x", 0, Inf, "continuous")
	mustGoal(t, m, "attain", x.Expr(), 1, WithWeight(2))
	mustGoal(t, m, "under", x.Expr(), 2, WithSense(MinimizeUnder), WithWeight(3))
	mustGoal(t, m, "over", x.Expr(), 3, WithSense(MinimizeOver), WithWeight(4))
	return m
}

func TestBuildObjective_PenalizeBySense(t *testing.T) {
	m := senseModel(t, PenalizeBySense)
	obj, err := m.BuildObjective()
	require.NoError(t, err)

	assert.Equal(t, []GoalTerm{
		{Goal: "attain", Weights: DeviationWeights{Under: 2, Over: 2}},
		{Goal: "under", Weights: DeviationWeights{Under: 3}},
		{Goal: "over", Weights: DeviationWeights{Over: 4}},
	}, obj.GoalTerms())
	assert.Equal(t, "2*n_attain + 2*p_attain + 3*n_under + 4*p_over", obj.Expression().String())
	assert.False(t, obj.HasCost())
}

func TestBuildObjective_PenalizeBoth(t *testing.T) {
	m := senseModel(t, PenalizeBySense)
	obj, err := m.BuildObjective(WithPenaltyMode(PenalizeBoth))
	require.NoError(t, err)

	for _, term := range obj.GoalTerms() {
		g, _ := m.Goal(term.Goal)
		assert.Equal(t, DeviationWeights{Under: g.Weight, Over: g.Weight}, term.Weights, term.Goal)
	}

	both := senseModel(t, PenalizeBoth)
	obj2, err := both.BuildObjective()
	require.NoError(t, err)
	assert.Equal(t, obj.GoalTerms(), obj2.GoalTerms())
}

func TestBuildObjective_OverridesAreVerbatim(t *testing.T) {
	m := senseModel(t, PenalizeBySense)
	obj, err := m.BuildObjective(WithGoalWeights(map[string]DeviationWeights{
		"under": {Under: 0, Over: 7},
		"over":  {},
	}))
	require.NoError(t, err)

	assert.Equal(t, []GoalTerm{
		{Goal: "attain", Weights: DeviationWeights{Under: 2, Over: 2}},
		{Goal: "under", Weights: DeviationWeights{Over: 7}},
	}, obj.GoalTerms(), "zero-weight goals are dropped")
}

func TestBuildObjective_Cost(t *testing.T) {
	m := NewModel("cost")
	x := mustVar(t, m, "x", 0, Inf, "continuous")
	y := mustVar(t, m, "y", 0, Inf, "continuous")

	obj, err := m.BuildObjective(WithCost(x.Times(2).Plus(y.Expr()).AddConstant(1), 10))
	require.NoError(t, err)
	assert.True(t, obj.HasCost())
	assert.Equal(t, 10.0, obj.CostWeight())
	assert.Empty(t, obj.GoalTerms())
	assert.Equal(t, "20*x + 10*y + 10", obj.Expression().String())

	v, ok := obj.Evaluate(map[string]float64{"x": 1, "y": 2})
	require.True(t, ok)
	assert.Equal(t, 50.0, v)
}

func TestBuildObjective_Errors(t *testing.T) {
	m := NewModel("objective errors")
	x := mustVar(t, m, "x", 0, Inf, "continuous")
	other := NewModel("other")
	z := mustVar(t, other, "z", 0, 1, "continuous")

	t.Run("no goals and no cost", func(t *testing.T) {
		_, err := m.BuildObjective()
		assert.Equal(t, EmptyObjective, KindOf(err))
	})
	t.Run("zero cost weight is dropped", func(t *testing.T) {
		_, err := m.BuildObjective(WithCost(x.Expr(), 0))
		assert.Equal(t, EmptyObjective, KindOf(err))
	})
	t.Run("foreign cost expression", func(t *testing.T) {
		_, err := m.BuildObjective(WithCost(z.Expr(), 1))
		assert.Equal(t, InvalidExpression, KindOf(err))
	})
	t.Run("infinite cost weight", func(t *testing.T) {
		_, err := m.BuildObjective(WithCost(x.Expr(), math.Inf(1)))
		assert.Equal(t, InvalidExpression, KindOf(err))
	})

	mustGoal(t, m, "g", x.Expr(), 1, WithWeight(0))

	t.Run("only zero-weight goals", func(t *testing.T) {
		_, err := m.BuildObjective()
		assert.Equal(t, EmptyObjective, KindOf(err))
		assert.ErrorIs(t, err, ErrEmptyObjective)
	})
	t.Run("override for unknown goal", func(t *testing.T) {
		_, err := m.BuildObjective(WithGoalWeights(map[string]DeviationWeights{"nope": {Under: 1}}))
		assert.Equal(t, InvalidGoal, KindOf(err))
	})
	t.Run("negative override", func(t *testing.T) {
		_, err := m.BuildObjective(WithGoalWeights(map[string]DeviationWeights{"g": {Under: -1}}))
		assert.Equal(t, InvalidGoal, KindOf(err))
	})
}

func TestParsePenaltyMode(t *testing.T) {
	for in, want := range map[string]PenaltyMode{"": PenalizeBySense, "by_sense": PenalizeBySense, "BOTH": PenalizeBoth} {
		got, err := ParsePenaltyMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParsePenaltyMode("lexicographic")
	assert.Equal(t, UnsupportedSense, KindOf(err))
	assert.ErrorIs(t, err, ErrUnsupportedSense)
}

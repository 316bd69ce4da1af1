package engine

import (
	"context"
	"errors"
	"math"
	"testing"
)

const tol = 1e-6

func near(a, b float64) bool { return math.Abs(a-b) <= tol }

func mustColumn(t *testing.T, p *SimplexProgram, symbol string, lower, upper float64, kind Kind) int {
	t.Helper()
	idx, err := p.AddVariable(symbol, lower, upper, kind)
	if err != nil {
		t.Fatalf("AddVariable(%s) error: %v", symbol, err)
	}
	return idx
}

func mustRow(t *testing.T, p *SimplexProgram, name string, terms []Term, rel Relation, rhs float64) {
	t.Helper()
	if err := p.AddConstraint(name, terms, rel, rhs); err != nil {
		t.Fatalf("AddConstraint(%s) error: %v", name, err)
	}
}

func value(t *testing.T, p *SimplexProgram, idx int) float64 {
	t.Helper()
	v, ok := p.Value(idx)
	if !ok {
		t.Fatalf("column %d unassigned", idx)
	}
	return v
}

// Maximize x + y subject to x + 2y <= 4 and 3x + y <= 6: optimum at (8/5, 6/5).
func TestSimplex_ContinuousMaximize(t *testing.T) {
	p := NewSimplex("lp")
	x := mustColumn(t, p, "x", 0, Inf, Continuous)
	y := mustColumn(t, p, "y", 0, Inf, Continuous)
	mustRow(t, p, "r1", []Term{{x, 1}, {y, 2}}, LessEqual, 4)
	mustRow(t, p, "r2", []Term{{x, 3}, {y, 1}}, LessEqual, 6)
	p.SetObjective([]Term{{x, 1}, {y, 1}}, 0, Maximize)

	if got := p.Solve(context.Background()); got != StatusOptimal {
		t.Fatalf("expected Optimal, got %v (err %v)", got, p.Err())
	}
	if !near(value(t, p, x), 1.6) || !near(value(t, p, y), 1.2) {
		t.Fatalf("expected (1.6, 1.2), got (%g, %g)", value(t, p, x), value(t, p, y))
	}
	obj, ok := p.ObjectiveValue()
	if !ok || !near(obj, 2.8) {
		t.Fatalf("expected objective 2.8, got %g (ok=%v)", obj, ok)
	}
}

// Minimize x subject to x + y == 10, y <= 3: x is pushed down to 7.
func TestSimplex_EqualityAndBounds(t *testing.T) {
	p := NewSimplex("eq")
	x := mustColumn(t, p, "x", 0, Inf, Continuous)
	y := mustColumn(t, p, "y", 0, 3, Continuous)
	mustRow(t, p, "sum", []Term{{x, 1}, {y, 1}}, Equal, 10)
	p.SetObjective([]Term{{x, 1}}, 0, Minimize)

	if got := p.Solve(context.Background()); got != StatusOptimal {
		t.Fatalf("expected Optimal, got %v (err %v)", got, p.Err())
	}
	if !near(value(t, p, x), 7) || !near(value(t, p, y), 3) {
		t.Fatalf("expected (7, 3), got (%g, %g)", value(t, p, x), value(t, p, y))
	}
}

func TestSimplex_GreaterEqualRow(t *testing.T) {
	p := NewSimplex("ge")
	x := mustColumn(t, p, "x", 0, Inf, Continuous)
	mustRow(t, p, "floor", []Term{{x, 2}}, GreaterEqual, 5)
	p.SetObjective([]Term{{x, 1}}, 1, Minimize)

	if got := p.Solve(context.Background()); got != StatusOptimal {
		t.Fatalf("expected Optimal, got %v", got)
	}
	obj, _ := p.ObjectiveValue()
	if !near(value(t, p, x), 2.5) || !near(obj, 3.5) {
		t.Fatalf("expected x=2.5 obj=3.5, got x=%g obj=%g", value(t, p, x), obj)
	}
}

func TestSimplex_Infeasible(t *testing.T) {
	p := NewSimplex("infeasible")
	x := mustColumn(t, p, "x", 0, Inf, Continuous)
	mustRow(t, p, "low", []Term{{x, 1}}, GreaterEqual, 5)
	mustRow(t, p, "high", []Term{{x, 1}}, LessEqual, 3)
	p.SetObjective([]Term{{x, 1}}, 0, Minimize)

	if got := p.Solve(context.Background()); got != StatusInfeasible {
		t.Fatalf("expected Infeasible, got %v", got)
	}
	if _, ok := p.Value(x); ok {
		t.Fatalf("expected no value after an infeasible solve")
	}
	if p.Err() != nil {
		t.Fatalf("proven infeasibility should carry no error, got %v", p.Err())
	}
}

func TestSimplex_TrivialRowInfeasible(t *testing.T) {
	p := NewSimplex("trivial")
	x := mustColumn(t, p, "x", 0, 1, Continuous)
	mustRow(t, p, "empty", nil, LessEqual, -1)
	p.SetObjective([]Term{{x, 1}}, 0, Minimize)

	if got := p.Solve(context.Background()); got != StatusInfeasible {
		t.Fatalf("expected Infeasible, got %v", got)
	}
}

func TestSimplex_Unbounded(t *testing.T) {
	p := NewSimplex("unbounded")
	x := mustColumn(t, p, "x", 0, Inf, Continuous)
	y := mustColumn(t, p, "y", 0, Inf, Continuous)
	mustRow(t, p, "gap", []Term{{x, 1}, {y, -1}}, LessEqual, 1)
	p.SetObjective([]Term{{x, -1}}, 0, Minimize)

	if got := p.Solve(context.Background()); got != StatusUnbounded {
		t.Fatalf("expected Unbounded, got %v", got)
	}
}

func TestSimplex_FreeUnusedColumn(t *testing.T) {
	t.Run("zero cost is fixed at zero", func(t *testing.T) {
		p := NewSimplex("free")
		x := mustColumn(t, p, "x", math.Inf(-1), Inf, Continuous)
		y := mustColumn(t, p, "y", 0, 4, Continuous)
		p.SetObjective([]Term{{y, 1}}, 0, Minimize)
		if got := p.Solve(context.Background()); got != StatusOptimal {
			t.Fatalf("expected Optimal, got %v", got)
		}
		if value(t, p, x) != 0 {
			t.Fatalf("expected free column at 0, got %g", value(t, p, x))
		}
	})
	t.Run("non-zero cost is unbounded", func(t *testing.T) {
		p := NewSimplex("free")
		x := mustColumn(t, p, "x", math.Inf(-1), Inf, Continuous)
		p.SetObjective([]Term{{x, 1}}, 0, Minimize)
		if got := p.Solve(context.Background()); got != StatusUnbounded {
			t.Fatalf("expected Unbounded, got %v", got)
		}
	})
}

// Maximize 5x + 4y with 6x + 4y <= 24, x + 2y <= 6 over the integers. The
// relaxation peaks at (3, 1.5) = 21; the integer optimum is (4, 0) = 20.
func TestSimplex_IntegerBranchAndBound(t *testing.T) {
	p := NewSimplex("mip")
	x := mustColumn(t, p, "x", 0, Inf, Integer)
	y := mustColumn(t, p, "y", 0, Inf, Integer)
	mustRow(t, p, "c1", []Term{{x, 6}, {y, 4}}, LessEqual, 24)
	mustRow(t, p, "c2", []Term{{x, 1}, {y, 2}}, LessEqual, 6)
	p.SetObjective([]Term{{x, 5}, {y, 4}}, 0, Maximize)

	if got := p.Solve(context.Background()); got != StatusOptimal {
		t.Fatalf("expected Optimal, got %v (err %v)", got, p.Err())
	}
	obj, _ := p.ObjectiveValue()
	if obj != 20 {
		t.Fatalf("expected objective 20, got %g", obj)
	}
	if value(t, p, x) != 4 || value(t, p, y) != 0 {
		t.Fatalf("expected (4, 0), got (%g, %g)", value(t, p, x), value(t, p, y))
	}
	if p.Nodes() < 2 {
		t.Fatalf("expected branching, solved %d nodes", p.Nodes())
	}
}

func TestSimplex_BinaryKnapsack(t *testing.T) {
	p := NewSimplex("binary")
	a := mustColumn(t, p, "a", 0, 5, Binary)
	b := mustColumn(t, p, "b", -3, 1, Binary)
	c := mustColumn(t, p, "c", 0, 1, Binary)
	mustRow(t, p, "pick2", []Term{{a, 1}, {b, 1}, {c, 1}}, LessEqual, 2)
	p.SetObjective([]Term{{a, 3}, {b, 2}, {c, 4}}, 0, Maximize)

	if got := p.Solve(context.Background()); got != StatusOptimal {
		t.Fatalf("expected Optimal, got %v", got)
	}
	if value(t, p, a) != 1 || value(t, p, b) != 0 || value(t, p, c) != 1 {
		t.Fatalf("expected (1, 0, 1), got (%g, %g, %g)", value(t, p, a), value(t, p, b), value(t, p, c))
	}
}

func TestSimplex_NodeLimit(t *testing.T) {
	p := NewSimplex("limited", WithNodeLimit(1))
	x := mustColumn(t, p, "x", 0, Inf, Integer)
	y := mustColumn(t, p, "y", 0, Inf, Integer)
	mustRow(t, p, "c1", []Term{{x, 6}, {y, 4}}, LessEqual, 24)
	mustRow(t, p, "c2", []Term{{x, 1}, {y, 2}}, LessEqual, 6)
	p.SetObjective([]Term{{x, 5}, {y, 4}}, 0, Maximize)

	if got := p.Solve(context.Background()); got != StatusNotSolved {
		t.Fatalf("expected Not Solved, got %v", got)
	}
	if !errors.Is(p.Err(), ErrSearchLimitReached) {
		t.Fatalf("expected ErrSearchLimitReached, got %v", p.Err())
	}
}

func TestSimplex_CancelledContext(t *testing.T) {
	p := NewSimplex("cancelled")
	x := mustColumn(t, p, "x", 0, 1, Continuous)
	p.SetObjective([]Term{{x, 1}}, 0, Minimize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := p.Solve(ctx); got != StatusNotSolved {
		t.Fatalf("expected Not Solved, got %v", got)
	}
	if !errors.Is(p.Err(), context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", p.Err())
	}
}

func TestSimplex_ResolveAfterObjectiveChange(t *testing.T) {
	p := NewSimplex("resolve")
	x := mustColumn(t, p, "x", 0, 10, Continuous)
	p.SetObjective([]Term{{x, 1}}, 0, Minimize)
	if p.Solve(context.Background()) != StatusOptimal || !near(value(t, p, x), 0) {
		t.Fatalf("expected x=0 when minimizing")
	}
	p.SetObjective([]Term{{x, 1}}, 0, Maximize)
	if p.Solve(context.Background()) != StatusOptimal || !near(value(t, p, x), 10) {
		t.Fatalf("expected x=10 when maximizing")
	}
}

func TestSimplex_Validation(t *testing.T) {
	p := NewSimplex("validation")
	mustColumn(t, p, "x", 0, 1, Continuous)

	tests := []struct {
		name string
		err  error
	}{
		{"empty symbol", func() error { _, err := p.AddVariable("", 0, 1, Continuous); return err }()},
		{"duplicate symbol", func() error { _, err := p.AddVariable("x", 0, 1, Continuous); return err }()},
		{"NaN bound", func() error { _, err := p.AddVariable("y", math.NaN(), 1, Continuous); return err }()},
		{"crossed bounds", func() error { _, err := p.AddVariable("z", 2, 1, Continuous); return err }()},
		{"binary outside [0,1]", func() error { _, err := p.AddVariable("b", 2, 3, Binary); return err }()},
		{"column out of range", p.AddConstraint("r1", []Term{{5, 1}}, LessEqual, 1)},
		{"infinite rhs", p.AddConstraint("r2", []Term{{0, 1}}, LessEqual, Inf)},
		{"NaN coefficient", p.AddConstraint("r3", []Term{{0, math.NaN()}}, LessEqual, 1)},
	}
	for _, tt := range tests {
		if tt.err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}

	mustRow(t, p, "ok", []Term{{0, 1}}, LessEqual, 1)
	if err := p.AddConstraint("ok", []Term{{0, 1}}, LessEqual, 1); err == nil {
		t.Errorf("duplicate row: expected an error")
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusOptimal:    "Optimal",
		StatusNotSolved:  "Not Solved",
		StatusInfeasible: "Infeasible",
		StatusUnbounded:  "Unbounded",
		StatusUndefined:  "Undefined",
	}
	for s, want := range cases {
		if s.String() != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), s.String(), want)
		}
	}
}

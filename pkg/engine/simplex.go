package engine

import (
	"context"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrSearchLimitReached indicates a solve stopped at the configured node
// limit. Any incumbent found so far is kept but optimality is not proven.
var ErrSearchLimitReached = errors.New("search limit reached")

// Option configures a SimplexProgram.
type Option func(*options)

type options struct {
	timeLimit   time.Duration
	nodeLimit   int
	feasibility float64
	integrality float64
	logger      *zap.Logger
}

func defaultOptions() options {
	return options{
		nodeLimit:   100000,
		feasibility: 1e-9,
		integrality: 1e-6,
		logger:      zap.NewNop(),
	}
}

// WithTimeLimit bounds the wall-clock time of a single Solve. When reached,
// Solve reports StatusNotSolved and keeps the best incumbent, if any.
func WithTimeLimit(d time.Duration) Option {
	return func(o *options) { o.timeLimit = d }
}

// WithNodeLimit bounds the number of branch-and-bound nodes. Values <= 0
// disable the limit.
func WithNodeLimit(n int) Option {
	return func(o *options) { o.nodeLimit = n }
}

// WithTolerance sets the feasibility tolerance used for trivially empty rows
// and bound checks.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.feasibility = tol
		}
	}
}

// WithIntegralityTolerance sets how far from an integer a value may be and
// still count as integral.
func WithIntegralityTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.integrality = tol
		}
	}
}

// WithLogger sets the logger for solve diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

type column struct {
	symbol string
	lower  float64
	upper  float64
	kind   Kind
}

type row struct {
	name  string
	terms []Term
	rel   Relation
	rhs   float64
}

// SimplexProgram is a Program solved with gonum's simplex method. Integer
// and binary columns are handled by depth-first branch-and-bound over the
// LP relaxation.
type SimplexProgram struct {
	name string
	opts options

	columns []column
	symbols map[string]int
	rows    []row
	names   map[string]struct{}

	objective []Term
	constant  float64
	sense     ObjectiveSense

	status Status
	values []float64
	err    error
	nodes  int
}

// NewSimplex creates an empty program.
func NewSimplex(name string, opts ...Option) *SimplexProgram {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &SimplexProgram{
		name:    name,
		opts:    o,
		symbols: make(map[string]int),
		names:   make(map[string]struct{}),
		status:  StatusNotSolved,
	}
}

// SimplexFactory returns a Factory producing SimplexPrograms with opts.
func SimplexFactory(opts ...Option) Factory {
	return func(name string) Program {
		return NewSimplex(name, opts...)
	}
}

// Name returns the program name.
func (p *SimplexProgram) Name() string { return p.name }

// AddVariable implements Program.
func (p *SimplexProgram) AddVariable(symbol string, lower, upper float64, kind Kind) (int, error) {
	if symbol == "" {
		return -1, errors.New("engine: empty column symbol")
	}
	if _, ok := p.symbols[symbol]; ok {
		return -1, errors.Newf("engine: column %q already declared", symbol)
	}
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return -1, errors.Newf("engine: column %q has NaN bound", symbol)
	}
	switch kind {
	case Continuous, Integer:
	case Binary:
		lower = math.Max(lower, 0)
		upper = math.Min(upper, 1)
	default:
		return -1, errors.Newf("engine: column %q has unknown kind %v", symbol, kind)
	}
	if lower > upper {
		return -1, errors.Newf("engine: column %q has lower bound %g above upper bound %g", symbol, lower, upper)
	}

	idx := len(p.columns)
	p.columns = append(p.columns, column{symbol: symbol, lower: lower, upper: upper, kind: kind})
	p.symbols[symbol] = idx
	return idx, nil
}

// AddConstraint implements Program.
func (p *SimplexProgram) AddConstraint(name string, terms []Term, rel Relation, rhs float64) error {
	if _, ok := p.names[name]; ok {
		return errors.Newf("engine: row %q already declared", name)
	}
	switch rel {
	case LessEqual, GreaterEqual, Equal:
	default:
		return errors.Newf("engine: row %q has unknown relation %v", name, rel)
	}
	if math.IsNaN(rhs) || math.IsInf(rhs, 0) {
		return errors.Newf("engine: row %q has non-finite right-hand side", name)
	}
	if err := p.checkTerms(terms); err != nil {
		return errors.Wrapf(err, "engine: row %q", name)
	}
	p.rows = append(p.rows, row{name: name, terms: append([]Term(nil), terms...), rel: rel, rhs: rhs})
	p.names[name] = struct{}{}
	return nil
}

func (p *SimplexProgram) checkTerms(terms []Term) error {
	for _, t := range terms {
		if t.Index < 0 || t.Index >= len(p.columns) {
			return errors.Newf("column index %d out of range", t.Index)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return errors.Newf("non-finite coefficient on column %q", p.columns[t.Index].symbol)
		}
	}
	return nil
}

// SetObjective implements Program. Terms referencing unknown columns are
// ignored.
func (p *SimplexProgram) SetObjective(terms []Term, constant float64, sense ObjectiveSense) {
	p.objective = p.objective[:0]
	for _, t := range terms {
		if t.Index >= 0 && t.Index < len(p.columns) {
			p.objective = append(p.objective, t)
		}
	}
	p.constant = constant
	p.sense = sense
}

// Solve implements Program.
func (p *SimplexProgram) Solve(ctx context.Context) Status {
	start := time.Now()
	p.values, p.err, p.nodes = nil, nil, 0

	if p.opts.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.timeLimit)
		defer cancel()
	}

	p.status, p.values, p.err = p.branchAndBound(ctx)

	p.opts.logger.Debug("simplex solve finished",
		zap.String("program", p.name),
		zap.Stringer("status", p.status),
		zap.Int("columns", len(p.columns)),
		zap.Int("rows", len(p.rows)),
		zap.Int("nodes", p.nodes),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(p.err))
	return p.status
}

// Value implements Program.
func (p *SimplexProgram) Value(index int) (float64, bool) {
	if p.values == nil || index < 0 || index >= len(p.values) {
		return 0, false
	}
	return p.values[index], true
}

// Status returns the status of the last Solve.
func (p *SimplexProgram) Status() Status { return p.status }

// Err returns the diagnostic error of the last Solve: a numerical failure,
// ErrSearchLimitReached, or a context error. It is nil for clean outcomes,
// including proven infeasibility.
func (p *SimplexProgram) Err() error { return p.err }

// Nodes returns the number of relaxations solved by the last Solve.
func (p *SimplexProgram) Nodes() int { return p.nodes }

// ObjectiveValue evaluates the objective at the last solution.
func (p *SimplexProgram) ObjectiveValue() (float64, bool) {
	if p.values == nil {
		return 0, false
	}
	v := p.constant
	for _, t := range p.objective {
		v += t.Coef * p.values[t.Index]
	}
	return v, true
}

type node struct {
	lower []float64
	upper []float64
}

// branchAndBound searches depth-first. Without integer columns it solves
// exactly one relaxation.
func (p *SimplexProgram) branchAndBound(ctx context.Context) (Status, []float64, error) {
	root := node{
		lower: make([]float64, len(p.columns)),
		upper: make([]float64, len(p.columns)),
	}
	for j, col := range p.columns {
		root.lower[j], root.upper[j] = col.lower, col.upper
	}

	stack := []node{root}
	var best []float64
	bestObj := math.Inf(1)

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return StatusNotSolved, best, err
		}
		if p.opts.nodeLimit > 0 && p.nodes >= p.opts.nodeLimit {
			return StatusNotSolved, best, ErrSearchLimitReached
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p.nodes++

		x, obj, status, err := p.relax(n.lower, n.upper)
		switch status {
		case StatusOptimal:
		case StatusInfeasible:
			continue
		default:
			return status, nil, err
		}

		if best != nil && obj >= bestObj-p.opts.feasibility {
			continue
		}

		j := p.mostFractional(x)
		if j < 0 {
			for k, col := range p.columns {
				if col.kind != Continuous {
					x[k] = math.Round(x[k])
				}
			}
			best, bestObj = x, obj
			continue
		}

		v := x[j]
		down := node{lower: n.lower, upper: withBound(n.upper, j, math.Floor(v))}
		up := node{lower: withBound(n.lower, j, math.Ceil(v)), upper: n.upper}
		// The nearer side is pushed last so it is explored first.
		if v-math.Floor(v) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if best == nil {
		return StatusInfeasible, nil, nil
	}
	return StatusOptimal, best, nil
}

func withBound(bounds []float64, j int, v float64) []float64 {
	out := make([]float64, len(bounds))
	copy(out, bounds)
	out[j] = v
	return out
}

// mostFractional returns the integer column farthest from integrality, or
// -1 when every integer column is integral.
func (p *SimplexProgram) mostFractional(x []float64) int {
	bestIdx, bestDist := -1, p.opts.integrality
	for j, col := range p.columns {
		if col.kind == Continuous {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			bestIdx, bestDist = j, dist
		}
	}
	return bestIdx
}

// relax solves the LP relaxation under the given bounds. It returns the
// column values and the objective in minimization form.
//
// The general form handed to lp.Convert is
//
//	minimize  c·x
//	s.t.      G x <= h
//
// where G holds ≤ rows, negated ≥ rows, both halves of every = row and the
// finite bounds. Splitting equalities gives every row its own slack, so the
// standard form keeps full row rank even when equalities are linearly
// dependent.
//
// Columns appearing in no row are fixed outside the LP: they would be zero
// columns after conversion, which the simplex rejects.
func (p *SimplexProgram) relax(lower, upper []float64) ([]float64, float64, Status, error) {
	n := len(p.columns)
	tol := p.opts.feasibility

	for j := 0; j < n; j++ {
		if lower[j] > upper[j]+tol {
			return nil, 0, StatusInfeasible, nil
		}
	}

	c := make([]float64, n)
	for _, t := range p.objective {
		c[t.Index] += t.Coef
	}
	if p.sense == Maximize {
		floats.Scale(-1, c)
	}

	var (
		gRows [][]float64
		h     []float64
	)
	used := make([]bool, n)

	for _, r := range p.rows {
		coefs := make([]float64, n)
		for _, t := range r.terms {
			coefs[t.Index] += t.Coef
		}
		nonzero := false
		for j, v := range coefs {
			if v != 0 {
				nonzero = true
				used[j] = true
			}
		}
		if !nonzero {
			if !trivialRow(r.rel, r.rhs, tol) {
				return nil, 0, StatusInfeasible, nil
			}
			continue
		}
		switch r.rel {
		case LessEqual:
			gRows, h = append(gRows, coefs), append(h, r.rhs)
		case GreaterEqual:
			floats.Scale(-1, coefs)
			gRows, h = append(gRows, coefs), append(h, -r.rhs)
		case Equal:
			neg := make([]float64, n)
			floats.ScaleTo(neg, -1, coefs)
			gRows, h = append(gRows, coefs, neg), append(h, r.rhs, -r.rhs)
		}
	}

	for j := 0; j < n; j++ {
		if !math.IsInf(lower[j], -1) {
			coefs := make([]float64, n)
			coefs[j] = -1
			gRows, h = append(gRows, coefs), append(h, -lower[j])
			used[j] = true
		}
		if !math.IsInf(upper[j], 1) {
			coefs := make([]float64, n)
			coefs[j] = 1
			gRows, h = append(gRows, coefs), append(h, upper[j])
			used[j] = true
		}
	}

	x := make([]float64, n)
	var active []int
	for j := 0; j < n; j++ {
		if used[j] {
			active = append(active, j)
			continue
		}
		if c[j] != 0 {
			return nil, 0, StatusUnbounded, nil
		}
	}
	if len(active) == 0 {
		return x, 0, StatusOptimal, nil
	}
	cAct := make([]float64, len(active))
	for k, j := range active {
		cAct[k] = c[j]
	}
	// Every active column has a row, so G is never empty here.
	cNew, aNew, bNew := lp.Convert(cAct, project(gRows, active), h, nil, nil)
	_, xt, err := simplex(cNew, aNew, bNew, tol)
	switch {
	case err == nil:
	case errors.Is(err, lp.ErrInfeasible):
		return nil, 0, StatusInfeasible, nil
	case errors.Is(err, lp.ErrUnbounded):
		return nil, 0, StatusUnbounded, nil
	default:
		return nil, 0, StatusUndefined, errors.Wrap(err, "engine: simplex failed")
	}

	nAct := len(active)
	for k, j := range active {
		x[j] = xt[k] - xt[nAct+k]
	}
	return x, floats.Dot(c, x), StatusOptimal, nil
}

func trivialRow(rel Relation, rhs, tol float64) bool {
	switch rel {
	case LessEqual:
		return 0 <= rhs+tol
	case GreaterEqual:
		return 0 >= rhs-tol
	default:
		return math.Abs(rhs) <= tol
	}
}

func project(rows [][]float64, cols []int) *mat.Dense {
	data := make([]float64, 0, len(rows)*len(cols))
	for _, r := range rows {
		for _, j := range cols {
			data = append(data, r[j])
		}
	}
	return mat.NewDense(len(rows), len(cols), data)
}

// simplex guards lp.Simplex, which panics on malformed shapes.
func simplex(c []float64, a mat.Matrix, b []float64, tol float64) (opt float64, x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("engine: simplex panicked: %v", r)
		}
	}()
	return lp.Simplex(c, a, b, tol, nil)
}

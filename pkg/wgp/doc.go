// Package wgp formulates and solves weighted goal programs.
//
// A weighted goal program is a linear model with hard constraints and soft
// goals. Each goal
//
//	expression -> target
//
// gets two non-negative deviation variables, n (under-achievement) and p
// (over-achievement), tied to the goal by the linking constraint
//
//	expression + n - p == target
//
// The solver then minimizes
//
//	cost_weight·cost + Σ (w⁻·n + w⁺·p)
//
// so goals are traded against each other and against an optional cost
// expression instead of being enforced.
//
// # Building a model
//
//	m := wgp.NewModel("mix", wgp.WithLogger(logger))
//	x1, _ := m.AddVariable("x1", 0, wgp.Inf, "continuous")
//	x2, _ := m.AddVariable("x2", 0, wgp.Inf, "continuous")
//
//	c, _ := wgp.NewConstraint("cap", x1.Expr().Plus(x2.Expr()), "<=", 10)
//	_ = m.AddConstraint(c)
//
//	g, _ := wgp.NewGoal("share", x1.Expr(), 7, wgp.WithSense(wgp.MinimizeUnder))
//	_, _ = m.AddGoal(g)
//
//	res, err := m.SolveWeighted(ctx)
//
// Solve never fails because of the solver outcome. Infeasible, unbounded
// and interrupted solves are reported through Result.Status, with whatever
// values the engine left behind; Result.Err converts a non-optimal status
// into a SolverFailure error for callers that prefer one.
//
// # Names
//
// Variable and constraint names are free-form registry keys. The engine
// sees sanitized symbols (see Sanitize). Two names that sanitize to the
// same symbol are rejected with NameCollision rather than silently merged.
//
// # Errors
//
// Structural errors wrap one sentinel per ErrorKind and are returned from
// the call that caused them, leaving the model unchanged. Use errors.Is
// with the Err* sentinels or KindOf to classify them.
//
// # Engines
//
// The default engine is engine.SimplexProgram. Any engine.Program can be
// plugged in with WithEngine.
package wgp

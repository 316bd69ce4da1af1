// Package engine defines the contract between the goal-programming layer and
// a linear / mixed-integer programming solver.
//
// A Program is a mutable problem description: columns (variables with
// bounds and a kind), named linear rows, and one linear objective. Solve
// runs synchronously and reports an engine-native Status; values are read
// back per column afterwards.
//
// The package ships one implementation, SimplexProgram, built on gonum's
// simplex solver with a depth-first branch-and-bound for integer and binary
// columns. Other engines can be plugged in through Factory.
package engine

import (
	"context"
	"fmt"
	"math"
)

// Kind is the domain of a column.
type Kind int

const (
	Continuous Kind = iota
	Integer
	Binary
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Relation is the relational operator of a row: terms <rel> rhs.
type Relation int

const (
	LessEqual Relation = iota
	GreaterEqual
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "=="
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// ObjectiveSense selects the optimization direction.
type ObjectiveSense int

const (
	Minimize ObjectiveSense = iota
	Maximize
)

// Status is the engine-native outcome code of a solve. The numeric values
// follow the conventional LP status codes used by most MIP front ends.
type Status int

const (
	StatusOptimal    Status = 1
	StatusNotSolved  Status = 0
	StatusInfeasible Status = -1
	StatusUnbounded  Status = -2
	StatusUndefined  Status = -3
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusNotSolved:
		return "Not Solved"
	case StatusInfeasible:
		return "Infeasible"
	case StatusUnbounded:
		return "Unbounded"
	case StatusUndefined:
		return "Undefined"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Term is one coefficient of a row or of the objective, addressed by the
// column index returned from AddVariable.
type Term struct {
	Index int
	Coef  float64
}

// Program is a mutable LP/MIP problem. Implementations are not safe for
// concurrent use.
type Program interface {
	// AddVariable declares a column and returns its index. Infinite bounds
	// mean the side is unbounded.
	AddVariable(symbol string, lower, upper float64, kind Kind) (int, error)

	// AddConstraint adds the named row  Σ terms <rel> rhs.
	AddConstraint(name string, terms []Term, rel Relation, rhs float64) error

	// SetObjective replaces the objective.
	SetObjective(terms []Term, constant float64, sense ObjectiveSense)

	// Solve runs the engine synchronously and returns its native status.
	Solve(ctx context.Context) Status

	// Value returns the value assigned to a column by the last Solve, or
	// false when the column is unassigned.
	Value(index int) (float64, bool)
}

// Factory creates an empty Program.
type Factory func(name string) Program

// Inf is the bound magnitude meaning "no bound on this side": use Inf as an
// upper bound and -Inf as a lower bound.
var Inf = math.Inf(1)

package wgp

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gitrdm/gowgp/pkg/engine"
)

// Sense is the relational operator of a hard constraint. Strict
// inequalities have no constant: a linear program cannot honor them.
type Sense int

const (
	LE Sense = iota
	GE
	EQ
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	case EQ:
		return "=="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// ParseSense resolves "<=", "≤", ">=", "≥", "=" and "==". Strict
// inequalities and anything else fail with UnsupportedSense.
func ParseSense(s string) (Sense, error) {
	switch strings.TrimSpace(s) {
	case "<=", "≤":
		return LE, nil
	case ">=", "≥":
		return GE, nil
	case "=", "==":
		return EQ, nil
	case "<", ">":
		return 0, errors.WithHint(
			newError(UnsupportedSense, "strict inequality %q", s),
			"linear programs only support <=, >= and ==")
	default:
		return 0, newError(UnsupportedSense, "constraint sense %q", s)
	}
}

func (s Sense) relation() (engine.Relation, error) {
	switch s {
	case LE:
		return engine.LessEqual, nil
	case GE:
		return engine.GreaterEqual, nil
	case EQ:
		return engine.Equal, nil
	default:
		return 0, newError(UnsupportedSense, "constraint sense %v", s)
	}
}

// Constraint is a hard linear constraint: Expression Sense RHS.
type Constraint struct {
	Name       string
	Expression Expression
	Sense      Sense
	RHS        float64
}

// NewConstraint builds a constraint from a textual sense.
func NewConstraint(name string, expr Expression, sense string, rhs float64) (Constraint, error) {
	s, err := ParseSense(sense)
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "constraint %q", name)
	}
	return Constraint{Name: name, Expression: expr, Sense: s, RHS: rhs}, nil
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s: %s %s %g", c.Name, c.Expression, c.Sense, c.RHS)
}

// AddConstraint validates c and submits it to the solver engine under its
// sanitized name. The registry keeps the record as given. Nothing is
// registered when an error is returned.
func (m *Model) AddConstraint(c Constraint) error {
	if _, ok := m.constraintIndex[c.Name]; ok {
		return newError(DuplicateName, "constraint %q", c.Name)
	}
	rel, err := c.Sense.relation()
	if err != nil {
		return errors.Wrapf(err, "constraint %q", c.Name)
	}
	symbol, err := Sanitize(c.Name)
	if err != nil {
		return err
	}
	if owner, ok := m.constraintSymbols[symbol]; ok {
		return newError(NameCollision, "constraint %q sanitizes to %q, already used by %q", c.Name, symbol, owner)
	}
	if err := c.Expression.validate(m); err != nil {
		return errors.Wrapf(err, "constraint %q", c.Name)
	}
	if math.IsNaN(c.RHS) || math.IsInf(c.RHS, 0) {
		return newError(InvalidExpression, "constraint %q: right-hand side %v is not finite", c.Name, c.RHS)
	}

	if err := m.submit(c, symbol, rel, m.columns(c.Expression)); err != nil {
		return err
	}
	m.logger.Debug("constraint registered",
		zap.String("constraint", c.Name),
		zap.String("symbol", symbol),
		zap.Stringer("sense", c.Sense))
	return nil
}

// submit hands a validated constraint to the engine and records it. The
// expression constant moves to the right-hand side.
func (m *Model) submit(c Constraint, symbol string, rel engine.Relation, terms []engine.Term) error {
	rhs := c.RHS - c.Expression.constant
	if err := m.program.AddConstraint(symbol, terms, rel, rhs); err != nil {
		return errors.Wrapf(err, "submitting constraint %q", c.Name)
	}
	m.commitConstraint(c, symbol)
	return nil
}

func (m *Model) commitConstraint(c Constraint, symbol string) {
	m.constraintIndex[c.Name] = len(m.constraints)
	m.constraintSymbols[symbol] = c.Name
	m.constraints = append(m.constraints, c)
}

// columns lowers a validated expression to engine terms.
func (m *Model) columns(e Expression) []engine.Term {
	terms := e.Terms()
	out := make([]engine.Term, 0, len(terms))
	for _, t := range terms {
		if t.Coef == 0 {
			continue
		}
		out = append(out, engine.Term{Index: t.Var.column, Coef: t.Coef})
	}
	return out
}

// Constraint looks up a constraint by name. Goal linking constraints are
// registered under "goal_link_<symbol>".
func (m *Model) Constraint(name string) (Constraint, bool) {
	i, ok := m.constraintIndex[name]
	if !ok {
		return Constraint{}, false
	}
	return m.constraints[i], true
}

// Constraints returns the constraints in registration order.
func (m *Model) Constraints() []Constraint {
	return append([]Constraint(nil), m.constraints...)
}

// ConstraintCount returns the number of registered constraints.
func (m *Model) ConstraintCount() int {
	return len(m.constraints)
}

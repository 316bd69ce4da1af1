package wgp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Term is one coef·variable product of an Expression.
type Term struct {
	Var  *Variable
	Coef float64
}

// Expression is an immutable linear combination Σ coef·var + constant.
// Every method returns a new Expression; the zero value is the constant 0.
type Expression struct {
	terms    []Term
	constant float64
}

// NewExpression builds an expression from terms.
func NewExpression(terms ...Term) Expression {
	return Expression{terms: append([]Term(nil), terms...)}
}

// Constant builds the constant expression c.
func Constant(c float64) Expression {
	return Expression{constant: c}
}

// Sum adds expressions together.
func Sum(exprs ...Expression) Expression {
	var out Expression
	for _, e := range exprs {
		out.terms = append(out.terms, e.terms...)
		out.constant += e.constant
	}
	return out
}

// Plus returns e + o.
func (e Expression) Plus(o Expression) Expression {
	return Sum(e, o)
}

// Minus returns e - o.
func (e Expression) Minus(o Expression) Expression {
	return Sum(e, o.Scale(-1))
}

// Scale returns k·e.
func (e Expression) Scale(k float64) Expression {
	out := Expression{terms: make([]Term, len(e.terms)), constant: k * e.constant}
	for i, t := range e.terms {
		out.terms[i] = Term{Var: t.Var, Coef: k * t.Coef}
	}
	return out
}

// AddTerm returns e + coef·v.
func (e Expression) AddTerm(coef float64, v *Variable) Expression {
	out := Expression{terms: make([]Term, len(e.terms), len(e.terms)+1), constant: e.constant}
	copy(out.terms, e.terms)
	out.terms = append(out.terms, Term{Var: v, Coef: coef})
	return out
}

// AddConstant returns e + c.
func (e Expression) AddConstant(c float64) Expression {
	out := Expression{terms: append([]Term(nil), e.terms...), constant: e.constant + c}
	return out
}

// Terms returns the terms with repeated variables merged, in order of first
// appearance. Terms whose coefficients cancel out are kept with a zero
// coefficient so the variable set stays stable.
func (e Expression) Terms() []Term {
	pos := make(map[*Variable]int, len(e.terms))
	out := make([]Term, 0, len(e.terms))
	for _, t := range e.terms {
		if i, ok := pos[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	return out
}

// ConstantTerm returns the constant part of e.
func (e Expression) ConstantTerm() float64 {
	return e.constant
}

// IsZero reports whether e has no terms and a zero constant.
func (e Expression) IsZero() bool {
	return len(e.terms) == 0 && e.constant == 0
}

// Evaluate computes e with variable values keyed by variable name. It
// returns false if a variable with a non-zero coefficient has no value.
func (e Expression) Evaluate(values map[string]float64) (float64, bool) {
	terms := e.Terms()
	coefs := make([]float64, 0, len(terms))
	xs := make([]float64, 0, len(terms))
	for _, t := range terms {
		if t.Coef == 0 || t.Var == nil {
			continue
		}
		v, ok := values[t.Var.name]
		if !ok {
			return 0, false
		}
		coefs = append(coefs, t.Coef)
		xs = append(xs, v)
	}
	return e.constant + floats.Dot(coefs, xs), true
}

// validate checks that e is a finite linear combination of variables owned
// by m.
func (e Expression) validate(m *Model) error {
	if math.IsNaN(e.constant) || math.IsInf(e.constant, 0) {
		return newError(InvalidExpression, "constant %v is not finite", e.constant)
	}
	for _, t := range e.terms {
		if t.Var == nil {
			return newError(InvalidExpression, "term with nil variable")
		}
		if t.Var.model != m {
			return newError(InvalidExpression, "variable %q belongs to a different model", t.Var.name)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return newError(InvalidExpression, "coefficient %v on %q is not finite", t.Coef, t.Var.name)
		}
	}
	return nil
}

func (e Expression) String() string {
	terms := e.Terms()
	if len(terms) == 0 {
		return strconv.FormatFloat(e.constant, 'g', -1, 64)
	}
	var sb strings.Builder
	for i, t := range terms {
		coef := t.Coef
		switch {
		case i == 0 && coef < 0:
			sb.WriteString("-")
			coef = -coef
		case i > 0 && coef < 0:
			sb.WriteString(" - ")
			coef = -coef
		case i > 0:
			sb.WriteString(" + ")
		}
		name := "<nil>"
		if t.Var != nil {
			name = t.Var.symbol
		}
		if coef == 1 {
			sb.WriteString(name)
		} else {
			fmt.Fprintf(&sb, "%s*%s", strconv.FormatFloat(coef, 'g', -1, 64), name)
		}
	}
	switch {
	case e.constant > 0:
		fmt.Fprintf(&sb, " + %s", strconv.FormatFloat(e.constant, 'g', -1, 64))
	case e.constant < 0:
		fmt.Fprintf(&sb, " - %s", strconv.FormatFloat(-e.constant, 'g', -1, 64))
	}
	return sb.String()
}

package wgp

import (
	"fmt"
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gitrdm/gowgp/pkg/engine"
)

// Inf is the bound magnitude meaning "unbounded on this side".
var Inf = math.Inf(1)

// Domain is the value domain of a decision variable.
type Domain int

const (
	Continuous Domain = iota
	Integer
	Binary
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "Continuous"
	case Integer:
		return "Integer"
	case Binary:
		return "Binary"
	default:
		return fmt.Sprintf("Domain(%d)", int(d))
	}
}

// ParseDomain resolves a domain name case-insensitively.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CONTINUOUS":
		return Continuous, nil
	case "INTEGER":
		return Integer, nil
	case "BINARY":
		return Binary, nil
	default:
		return 0, errors.WithHint(
			newError(UnknownDomain, "domain %q", s),
			"use one of continuous, integer, binary")
	}
}

func (d Domain) kind() engine.Kind {
	switch d {
	case Integer:
		return engine.Integer
	case Binary:
		return engine.Binary
	default:
		return engine.Continuous
	}
}

// Variable is a decision variable registered in a Model. The name is the
// registry key as given by the caller; the symbol is the sanitized token
// handed to the solver engine.
type Variable struct {
	model  *Model
	column int

	name   string
	symbol string
	lower  float64
	upper  float64
	domain Domain
}

// Name returns the registry key.
func (v *Variable) Name() string { return v.name }

// Symbol returns the solver-facing symbol.
func (v *Variable) Symbol() string { return v.symbol }

// Lower returns the lower bound; -Inf when unbounded.
func (v *Variable) Lower() float64 { return v.lower }

// Upper returns the upper bound; +Inf when unbounded.
func (v *Variable) Upper() float64 { return v.upper }

// Domain returns the variable domain.
func (v *Variable) Domain() Domain { return v.domain }

// Expr returns the expression 1·v.
func (v *Variable) Expr() Expression {
	return Expression{terms: []Term{{Var: v, Coef: 1}}}
}

// Times returns the expression coef·v.
func (v *Variable) Times(coef float64) Expression {
	return Expression{terms: []Term{{Var: v, Coef: coef}}}
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s∈[%g, %g] %s", v.symbol, v.lower, v.upper, v.domain)
}

// AddVariable returns the variable registered under name, creating it when
// absent. An existing variable is returned unchanged even when the bounds or
// domain given here differ; use CreateVariable to treat reuse as an error.
func (m *Model) AddVariable(name string, lower, upper float64, domain string) (*Variable, error) {
	if v, ok := m.variableIndex[name]; ok {
		if v.lower != lower || v.upper != upper || !strings.EqualFold(strings.TrimSpace(domain), v.domain.String()) {
			m.logger.Debug("variable already registered, ignoring new definition",
				zap.String("variable", name),
				zap.Float64("lower", lower),
				zap.Float64("upper", upper),
				zap.String("domain", domain))
		}
		return v, nil
	}
	return m.createVariable(name, lower, upper, domain)
}

// CreateVariable registers a new variable and fails with DuplicateName if
// name is already taken.
func (m *Model) CreateVariable(name string, lower, upper float64, domain string) (*Variable, error) {
	if _, ok := m.variableIndex[name]; ok {
		return nil, newError(DuplicateName, "variable %q", name)
	}
	return m.createVariable(name, lower, upper, domain)
}

func (m *Model) createVariable(name string, lower, upper float64, domain string) (*Variable, error) {
	symbol, err := Sanitize(name)
	if err != nil {
		return nil, err
	}
	d, err := ParseDomain(domain)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return nil, newError(InvalidBounds, "variable %q has a NaN bound", name)
	}
	if d == Binary {
		lower, upper = math.Max(lower, 0), math.Min(upper, 1)
	}
	if lower > upper {
		return nil, newError(InvalidBounds, "variable %q: lower bound %g exceeds upper bound %g", name, lower, upper)
	}
	if other, ok := m.symbols[symbol]; ok {
		return nil, errors.WithHint(
			newError(NameCollision, "variable %q sanitizes to %q, already used by %q", name, symbol, other.name),
			"rename one of the variables so their sanitized forms differ")
	}
	if _, ok := m.orphans[symbol]; ok {
		return nil, errors.WithHint(
			newError(NameCollision, "variable %q sanitizes to %q, reserved by a failed goal registration", name, symbol),
			"retry the goal or pick another variable name")
	}
	return m.declare(name, symbol, lower, upper, d)
}

// declare registers a variable whose checks have already passed.
func (m *Model) declare(name, symbol string, lower, upper float64, d Domain) (*Variable, error) {
	v, err := m.stage(name, symbol, lower, upper, d)
	if err != nil {
		return nil, err
	}
	m.commitVariable(v)
	return v, nil
}

// stage declares the engine column of a variable without registering it.
func (m *Model) stage(name, symbol string, lower, upper float64, d Domain) (*Variable, error) {
	col, err := m.program.AddVariable(symbol, lower, upper, d.kind())
	if err != nil {
		return nil, errors.Wrapf(err, "declaring variable %q", name)
	}
	return m.staged(name, symbol, lower, upper, d, col), nil
}

// stageDeviation stages a goal deviation variable. Engines cannot drop
// columns, so one left behind by an aborted goal registration is reused.
func (m *Model) stageDeviation(symbol string) (*Variable, error) {
	if col, ok := m.orphans[symbol]; ok {
		return m.staged(symbol, symbol, 0, Inf, Continuous, col), nil
	}
	return m.stage(symbol, symbol, 0, Inf, Continuous)
}

func (m *Model) staged(name, symbol string, lower, upper float64, d Domain, col int) *Variable {
	return &Variable{
		model:  m,
		column: col,
		name:   name,
		symbol: symbol,
		lower:  lower,
		upper:  upper,
		domain: d,
	}
}

func (m *Model) commitVariable(v *Variable) {
	delete(m.orphans, v.symbol)
	m.variables = append(m.variables, v)
	m.variableIndex[v.name] = v
	m.symbols[v.symbol] = v
}

// Variable looks up a variable by name.
func (m *Model) Variable(name string) (*Variable, bool) {
	v, ok := m.variableIndex[name]
	return v, ok
}

// Variables returns the variables in registration order, deviation
// variables included.
func (m *Model) Variables() []*Variable {
	return append([]*Variable(nil), m.variables...)
}

// VariableCount returns the number of registered variables.
func (m *Model) VariableCount() int {
	return len(m.variables)
}

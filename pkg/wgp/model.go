package wgp

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gitrdm/gowgp/pkg/engine"
)

// Recorder observes finished solves. internal/metrics provides a
// Prometheus implementation.
type Recorder interface {
	ObserveSolve(status string, elapsed time.Duration, variables, constraints int)
}

// Model is a weighted goal program under construction. It exclusively owns
// three ordered registries (variables, constraints, goals) and the engine
// program they are mirrored into.
//
// Variables, constraints and goals are only ever added. Solving reads the
// registries and replaces the program objective; nothing else changes.
//
// Thread safety: a Model is not safe for concurrent use. Callers sharing a
// model must serialize registrations and solves themselves.
type Model struct {
	name    string
	program engine.Program
	logger  *zap.Logger
	metrics Recorder
	penalty PenaltyMode

	variables     []*Variable
	variableIndex map[string]*Variable
	symbols       map[string]*Variable
	// orphans are engine columns of aborted goal registrations, by symbol.
	orphans map[string]int

	constraints       []Constraint
	constraintIndex   map[string]int
	constraintSymbols map[string]string

	goals      []Goal
	goalIndex  map[string]int
	deviations map[string]DeviationPair
}

// ModelOption configures NewModel.
type ModelOption func(*modelConfig)

type modelConfig struct {
	factory engine.Factory
	logger  *zap.Logger
	metrics Recorder
	penalty PenaltyMode
}

// WithEngine selects the solver engine. The default is the gonum-backed
// simplex engine with its default options.
func WithEngine(factory engine.Factory) ModelOption {
	return func(c *modelConfig) {
		if factory != nil {
			c.factory = factory
		}
	}
}

// WithLogger sets the model logger. The default discards everything.
func WithLogger(l *zap.Logger) ModelOption {
	return func(c *modelConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets a recorder notified after every solve.
func WithMetrics(r Recorder) ModelOption {
	return func(c *modelConfig) { c.metrics = r }
}

// WithDefaultPenalty sets the penalty mode used by objectives that do not
// pass WithPenaltyMode. The default is PenalizeBySense.
func WithDefaultPenalty(mode PenaltyMode) ModelOption {
	return func(c *modelConfig) { c.penalty = mode }
}

// NewModel creates an empty model.
func NewModel(name string, opts ...ModelOption) *Model {
	cfg := modelConfig{
		factory: engine.SimplexFactory(),
		logger:  zap.NewNop(),
		penalty: PenalizeBySense,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Model{
		name:              name,
		program:           cfg.factory(name),
		logger:            cfg.logger.With(zap.String("model", name)),
		metrics:           cfg.metrics,
		penalty:           cfg.penalty,
		variableIndex:     make(map[string]*Variable),
		symbols:           make(map[string]*Variable),
		orphans:           make(map[string]int),
		constraintIndex:   make(map[string]int),
		constraintSymbols: make(map[string]string),
		goalIndex:         make(map[string]int),
		deviations:        make(map[string]DeviationPair),
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// PenaltyMode returns the default penalty mode.
func (m *Model) PenaltyMode() PenaltyMode { return m.penalty }

// String returns a human-readable summary of the model.
func (m *Model) String() string {
	return fmt.Sprintf("Model{name: %s, variables: %d, constraints: %d, goals: %d}",
		m.name, len(m.variables), len(m.constraints), len(m.goals))
}

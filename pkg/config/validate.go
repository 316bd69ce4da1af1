package config

import (
	"math"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	// 0 = no limit, negative = invalid
	if c.Solver.TimeLimit < 0 {
		return errors.Newf("solver.time_limit must be >= 0, got %s", c.Solver.TimeLimit)
	}
	if c.Solver.NodeLimit < 0 {
		return errors.Newf("solver.node_limit must be >= 0, got %d", c.Solver.NodeLimit)
	}
	if !positive(c.Solver.Tolerance) {
		return errors.Newf("solver.tolerance must be a positive number, got %g", c.Solver.Tolerance)
	}
	if !positive(c.Solver.IntegralityTolerance) || c.Solver.IntegralityTolerance >= 0.5 {
		return errors.Newf("solver.integrality_tolerance must be in (0, 0.5), got %g", c.Solver.IntegralityTolerance)
	}
	if c.Solver.Workers < 0 {
		return errors.Newf("solver.workers must be >= 0, got %d", c.Solver.Workers)
	}

	if _, err := c.PenaltyMode(); err != nil {
		return errors.WithHint(
			errors.Wrap(err, "objective.penalty_mode"),
			`use "by_sense" or "both"`)
	}

	if _, err := zapcore.ParseLevel(strings.TrimSpace(c.Log.Level)); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return nil
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1) && !math.IsNaN(f)
}

package wgp

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

var nonAlnumRun = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Sanitize maps a free-form identifier to a solver-safe symbol made of ASCII
// letters, digits and single underscores. Surrounding whitespace is dropped
// and each run of other characters becomes one underscore.
//
// Sanitize is idempotent but not injective: "a b" and "a.b" both map to
// "a_b". The Model rejects such clashes with NameCollision.
func Sanitize(name string) (string, error) {
	s := nonAlnumRun.ReplaceAllString(strings.TrimSpace(name), "_")
	if s == "" {
		return "", errors.WithHint(
			newError(InvalidName, "name %q is empty after sanitization", name),
			"names need at least one non-whitespace character")
	}
	return s, nil
}

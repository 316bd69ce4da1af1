package wgp

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "x1", "x1"},
		{"space", "a b", "a_b"},
		{"dot", "a.b", "a_b"},
		{"surrounding whitespace", "  x1 \t", "x1"},
		{"run collapses", "Energy (kcal)", "Energy_kcal_"},
		{"underscores collapse", "a__b", "a_b"},
		{"leading symbol", "-x", "_x"},
		{"non-ascii", "café au lait", "caf_au_lait"},
		{"only symbols", "%%%", "_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	names := []string{
		"x", "x1", "Frosted Flakes", "Low-fat milk (1%)", "a\tb\nc", "__init__",
		"Ω", "goal: protein ≥ 50", "  padded  ", "1", "a.b.c", "n_g1", "goal_link_g1",
	}
	for _, name := range names {
		s, err := Sanitize(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, s, name)
		assert.Regexp(t, valid, s, name)

		again, err := Sanitize(s)
		require.NoError(t, err, name)
		assert.Equal(t, s, again, "sanitize must be idempotent for %q", name)
	}
}

func TestSanitize_Empty(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := Sanitize(name)
		require.Error(t, err)
		assert.Equal(t, InvalidName, KindOf(err))
		assert.ErrorIs(t, err, ErrInvalidName)
	}
}

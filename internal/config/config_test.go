package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1e-6, cfg.MinResolution)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogDevelopment)
	assert.Equal(t, "MM", cfg.Units)
	assert.Equal(t, 0.1, cfg.MinDrill)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("OTIGES_MIN_RESOLUTION", "0.001")
	t.Setenv("OTIGES_AUTHOR", "J. Smith")
	t.Setenv("OTIGES_ORGANIZATION", "OpenTraceLab")
	t.Setenv("OTIGES_UNITS", "in")
	t.Setenv("OTIGES_LOG_DEVELOPMENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.001, cfg.MinResolution)
	assert.True(t, cfg.LogDevelopment)

	g := cfg.Global(0)
	assert.Equal(t, "J. Smith", g.Author)
	assert.Equal(t, "OpenTraceLab", g.Organization)
	assert.Equal(t, iges.UnitsInch, g.Units)
	assert.Equal(t, 0.001, g.MinResolution)

	g = cfg.Global(iges.UnitsMillimeter)
	assert.Equal(t, iges.UnitsMillimeter, g.Units)
	assert.Equal(t, "MM", g.UnitsName)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero resolution", "OTIGES_MIN_RESOLUTION", "0"},
		{"negative drill", "OTIGES_MIN_DRILL", "-1"},
		{"unknown units", "OTIGES_UNITS", "furlong"},
		{"not a number", "OTIGES_MIN_DRILL", "wide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings_Defaults(t *testing.T) {
	v, err := NewViper("")
	require.NoError(t, err)

	s, err := LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "portfolio.yaml", s.Portfolio)
	assert.Equal(t, "console", s.Format)
	assert.Equal(t, 4, s.Concurrency)
	assert.False(t, s.Verbose)

	rate, err := s.ReferenceRateOverride()
	require.NoError(t, err)
	assert.Nil(t, rate)

	asOf, err := s.AsOfTime()
	require.NoError(t, err)
	assert.True(t, asOf.IsZero())
}

func TestLoadSettings_Environment(t *testing.T) {
	t.Setenv("MORTGAGE_FORMAT", "json")
	t.Setenv("MORTGAGE_REFERENCE_RATE", "5.45")
	t.Setenv("MORTGAGE_AS_OF", "2025-06-01")

	v, err := NewViper("")
	require.NoError(t, err)
	s, err := LoadSettings(v)
	require.NoError(t, err)

	assert.Equal(t, "json", s.Format)
	rate, err := s.ReferenceRateOverride()
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, "5.45%", rate.String())

	asOf, err := s.AsOfTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), asOf)
}

func TestLoadSettings_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mortgagectl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("portfolio: home.yaml\nformat: csv\nverbose: true\n"), 0o644))

	v, err := NewViper(path)
	require.NoError(t, err)
	s, err := LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "home.yaml", s.Portfolio)
	assert.Equal(t, "csv", s.Format)
	assert.True(t, s.Verbose)

	_, err = NewViper(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
		msg  string
	}{
		{"malformed rate", "reference_rate", "prime", "invalid reference rate"},
		{"negative rate", "reference_rate", "-1", "cannot be negative"},
		{"malformed date", "as_of", "06/01/2025", "expected YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewViper("")
			require.NoError(t, err)
			v.Set(tt.key, tt.val)

			_, err = LoadSettings(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestReadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MORTGAGE_FORMAT=csv\nMORTGAGE_CONCURRENCY=8\nMORTGAGE_AS_OF=2025-03-01\nOTHER_SETTING=x\n"), 0o644))
	t.Setenv("MORTGAGE_AS_OF", "2025-06-01")

	v, err := NewViper("")
	require.NoError(t, err)
	require.NoError(t, ReadEnvFile(v, path))

	s, err := LoadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "csv", s.Format)
	assert.Equal(t, 8, s.Concurrency)
	assert.Equal(t, "2025-06-01", s.AsOf)
	assert.False(t, v.IsSet("other_setting"))

	assert.Error(t, ReadEnvFile(v, filepath.Join(t.TempDir(), "missing.env")))
}

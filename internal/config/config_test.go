package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 64, cfg.MaxDegree)
	assert.InDelta(t, 9.65, cfg.Reference.GammaMax, 1e-12)
	assert.InDelta(t, 0.2, cfg.Reference.PhiRb, 1e-12)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("SYMSOLVE_ADDR", ":7000")
	t.Setenv("SYMSOLVE_LOG_LEVEL", "debug")
	t.Setenv("SYMSOLVE_REFERENCE__NU_MAX", "5.25")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.InDelta(t, 5.25, cfg.Reference.NuMax, 1e-12)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("SYMSOLVE_ADDR", ":7000")
	t.Setenv("SYMSOLVE_MAX_DEGREE", "8")

	cfg, err := Load("", newFlags(t, "--addr", ":9090", "--log-format", "console"))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "console", cfg.LogFormat)
	// Unset flags leave env values alone.
	assert.Equal(t, 8, cfg.MaxDegree)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symsolve.yaml")
	doc := `
addr: ":8181"
write_timeout: 45s
reference:
  kd: 0.05
  phi_o: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":8181", cfg.Addr)
	assert.Equal(t, 45*time.Second, cfg.WriteTimeout)
	assert.InDelta(t, 0.05, cfg.Reference.Kd, 1e-12)
	assert.InDelta(t, 0.5, cfg.Reference.PhiO, 1e-12)
	assert.InDelta(t, 4.5, cfg.Reference.NuMax, 1e-12)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		substr string
	}{
		{"log level", map[string]string{"SYMSOLVE_LOG_LEVEL": "verbose"}, "LogLevel failed oneof"},
		{"max degree", map[string]string{"SYMSOLVE_MAX_DEGREE": "0"}, "MaxDegree failed gte"},
		{"reference sum", map[string]string{"SYMSOLVE_REFERENCE__PHI_O": "0.9"}, "phi_o + phi_rb must be below 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

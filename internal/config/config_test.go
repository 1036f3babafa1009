package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:8500", cfg.TensorflowServingGRPCTarget)
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	os.Setenv("ENVIRONMENT", "bogus")
	defer os.Unsetenv("ENVIRONMENT")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	os.Setenv("HTTP_PORT", "9090")
	os.Setenv("MASTER_URL", "http://coordinator:8080")
	defer os.Unsetenv("HTTP_PORT")
	defer os.Unsetenv("MASTER_URL")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "http://coordinator:8080", cfg.MasterURL)
}

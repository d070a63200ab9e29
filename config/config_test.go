package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8000, c.HTTP.Port)
	assert.Equal(t, "models", c.Model.Dir)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  read_timeout: 5s
  allowed_origins: ["http://localhost:3000"]
model:
  dir: /srv/models
  required: true
  cache_size: 128
log:
  level: debug
  format: console
audit:
  path: /tmp/audit.db
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, c.HTTP.Port)
	assert.Equal(t, 5*time.Second, c.HTTP.ReadTimeout)
	assert.Equal(t, 30*time.Second, c.HTTP.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, c.HTTP.AllowedOrigins)
	assert.Equal(t, "/srv/models", c.Model.Dir)
	assert.True(t, c.Model.Required)
	assert.Equal(t, 128, c.Model.CacheSize)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, "/tmp/audit.db", c.Audit.Path)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "8123")
	t.Setenv(EnvModelDir, "/opt/artifacts")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvAuditPath, "audit.db")

	c, err := Load(writeConfig(t, "http:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 8123, c.HTTP.Port)
	assert.Equal(t, "/opt/artifacts", c.Model.Dir)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Equal(t, "audit.db", c.Audit.Path)
}

func TestLoad_InvalidEnvPort(t *testing.T) {
	t.Setenv(EnvPort, "eighty")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "http: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }},
		{"port too large", func(c *Config) { c.HTTP.Port = 70000 }},
		{"body limit", func(c *Config) { c.HTTP.MaxBodyBytes = 0 }},
		{"no model dir", func(c *Config) { c.Model.Dir = "" }},
		{"negative cache", func(c *Config) { c.Model.CacheSize = -1 }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	require.NoError(t, Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestArtifactPaths(t *testing.T) {
	m := Default().Model
	m.Dir = "artifacts"
	m.ScalerFile = "custom_scaler.json"
	m.FeaturesFile = "/etc/heart/features.json"

	paths := m.ArtifactPaths()
	assert.Equal(t, filepath.Join("artifacts", "logistic_model.json"), paths.Classifier)
	assert.Equal(t, filepath.Join("artifacts", "custom_scaler.json"), paths.Scaler)
	assert.Equal(t, "/etc/heart/features.json", paths.Features)
}

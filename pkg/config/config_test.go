package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billfold/billfold/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BILLFOLD_POSTGRES_URL", "postgres://localhost:5432/billfold")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
}

func TestLoadConfigMissingPostgresURL(t *testing.T) {
	t.Setenv("BILLFOLD_POSTGRES_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres URL is required")
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BILLFOLD_POSTGRES_URL", "postgres://db:5432/billfold")
	t.Setenv("BILLFOLD_PORT", "3000")
	t.Setenv("BILLFOLD_LOG_LEVEL", "debug")
	t.Setenv("BILLFOLD_POSTGRES_MAX_CONNS", "50")
	t.Setenv("BILLFOLD_POSTGRES_REPLICA_URLS", "postgres://r1/billfold,postgres://r2/billfold")
	t.Setenv("BILLFOLD_CORS_ORIGINS", "https://admin.example.com, https://ops.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.Len(t, cfg.Database.ReplicaURLs, 2)
	assert.Equal(t, []string{"https://admin.example.com", "https://ops.example.com"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoadConfigPortConflict(t *testing.T) {
	t.Setenv("BILLFOLD_POSTGRES_URL", "postgres://db:5432/billfold")
	t.Setenv("BILLFOLD_PORT", "9090")
	t.Setenv("BILLFOLD_HEALTH_PORT", "9090")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestLoadConfigYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billfold.yaml")
	content := `
server:
  port: "4000"
  cors_origins:
    - https://file.example.com
database:
  url: postgres://file-db:5432/billfold
  max_open_conns: 10
observability:
  log_level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BILLFOLD_CONFIG", path)
	t.Setenv("BILLFOLD_POSTGRES_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "postgres://file-db:5432/billfold", cfg.Database.PrimaryURL)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, []string{"https://file.example.com"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, observability.WarnLevel, cfg.Observability.LogLevel)
}

func TestEnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billfold.yaml")
	content := `
server:
  port: "4000"
database:
  url: postgres://file-db:5432/billfold
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BILLFOLD_CONFIG", path)
	t.Setenv("BILLFOLD_PORT", "5000")
	t.Setenv("BILLFOLD_POSTGRES_URL", "postgres://env-db:5432/billfold")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Server.Port)
	assert.Equal(t, "postgres://env-db:5432/billfold", cfg.Database.PrimaryURL)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billfold.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o600))

	t.Setenv("BILLFOLD_CONFIG", path)
	t.Setenv("BILLFOLD_POSTGRES_URL", "postgres://db:5432/billfold")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, observability.WarnLevel, ParseLogLevel("WARNING"))
	assert.Equal(t, observability.ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, observability.InfoLevel, ParseLogLevel("bogus"))
}

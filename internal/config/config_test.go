package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Sessions)
	assert.Equal(t, 5*time.Second, cfg.Intake.HistoryTimeout)
	assert.Equal(t, 3, cfg.Intake.MaxSaveRetries)
	assert.Equal(t, "ZL", cfg.ERP.OrderPrefix)
	assert.Equal(t, "https://openapi.zalo.me", cfg.Zalo.APIBase)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
storage:
  sessions: redis
  records: sqlite
intake:
  brand: Kinh Viet
  phrases:
    cancel:
      - "^thoi$"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("ZALO_ACCESS_TOKEN", "token-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Sessions)
	assert.Equal(t, "sqlite", cfg.Storage.Records)
	assert.Equal(t, "Kinh Viet", cfg.Intake.Brand)
	assert.Equal(t, []string{"^thoi$"}, cfg.Intake.Phrases["cancel"])
	assert.Equal(t, "token-1", cfg.Zalo.AccessToken)
}

func TestValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  sessions: memcached\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 5432, Database: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", db.DSN())

	erp := ERPConfig{User: "u", Password: "p", Host: "h", Port: 3306, Database: "erp"}
	assert.Equal(t, "u:p@tcp(h:3306)/erp?parseTime=true&loc=UTC", erp.DSN())
}

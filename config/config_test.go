package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "./data", cfg.Crafting.DataPath)
	assert.Equal(t, "ArmorVolumes.json", cfg.Crafting.ArmorFile)
	assert.Equal(t, 20, cfg.Crafting.RecentLimit)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 72*time.Hour, cfg.Security.JWTTTLH)
	assert.Equal(t, 200*time.Millisecond, cfg.Script.Timeout)
	assert.Equal(t, 720*time.Hour, cfg.Audit.Retention)
}

func TestLoad_FileValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
crafting:
  data_path: /srv/craft
  eager_load: true
  rng_seed: 42
  damage_formula: "head.slash"
database:
  mode: mysql
  mysql_dsn: "u:p@tcp(db:3306)/craft"
`))
	require.NoError(t, err)
	assert.Equal(t, "/srv/craft", cfg.Crafting.DataPath)
	assert.True(t, cfg.Crafting.EagerLoad)
	assert.Equal(t, uint64(42), cfg.Crafting.RNGSeed)
	assert.Equal(t, "head.slash", cfg.Crafting.DamageFormula)
	assert.Equal(t, "mysql", cfg.Database.Mode)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RPGCRAFT_SERVER_PORT", "7777")
	t.Setenv("RPGCRAFT_CRAFTING_DATA_PATH", "/env/data")
	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.Port)
	assert.Equal(t, "/env/data", cfg.Crafting.DataPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

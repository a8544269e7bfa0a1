package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/kasuganosora/rpgcraft/cache"
	"github.com/kasuganosora/rpgcraft/config"
	dbadapter "github.com/kasuganosora/rpgcraft/db"
	"github.com/kasuganosora/rpgcraft/model"
	"github.com/kasuganosora/rpgcraft/resource"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode: dbadapter.ModeMemory,
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache opens the in-process cache and pubsub (no Redis required).
// The cache is closed when the test ends.
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	c, ps, err := cache.Open(cache.CacheConfig{})
	require.NoError(t, err, "SetupTestCache: Open")
	t.Cleanup(func() { _ = c.Close() })
	return c, ps
}

// DataDir returns the absolute path of the repository's sample data directory.
func DataDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "DataDir: runtime.Caller")
	return filepath.Join(filepath.Dir(file), "..", "data")
}

// SetupTestResources loads the sample data directory.
func SetupTestResources(t *testing.T) *resource.ResourceLoader {
	t.Helper()
	rl := resource.NewLoader(DataDir(t), resource.DefaultFiles())
	require.NoError(t, rl.Load(), "SetupTestResources: Load")
	return rl
}

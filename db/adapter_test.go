package db

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/rpgcraft/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_Memory(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Mode: ModeMemory})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE t (id INTEGER)").Error)
	require.NoError(t, db.Exec("INSERT INTO t VALUES (1)").Error)

	var n int64
	require.NoError(t, db.Raw("SELECT COUNT(*) FROM t").Scan(&n).Error)
	assert.Equal(t, int64(1), n)

	// a second memory database starts empty
	other, err := Open(config.DatabaseConfig{Mode: ModeMemory})
	require.NoError(t, err)
	assert.Error(t, other.Exec("SELECT * FROM t").Error)
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "craft.db")
	db, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: path})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE t (id INTEGER)").Error)
	assert.FileExists(t, path)
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: "embedded_xml"})
	assert.Error(t, err)
}

func TestOpen_SQLiteEmptyPath(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: ModeSQLite})
	assert.Error(t, err)
}

func TestOpen_MySQLEmptyDSN(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: ModeMySQL})
	assert.ErrorContains(t, err, "empty dsn")
}

func TestOpen_TranslatesDuplicateKey(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Mode: ModeMemory})
	require.NoError(t, err)
	require.NoError(t, db.Exec("CREATE TABLE u (name TEXT UNIQUE)").Error)
	require.NoError(t, db.Exec("INSERT INTO u VALUES ('ada')").Error)

	type u struct{ Name string }
	err = db.Table("u").Create(&u{Name: "ada"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

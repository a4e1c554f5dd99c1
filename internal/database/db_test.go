package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T, name string) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "nested", name+".db"), Name: name})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewCreatesDirectory(t *testing.T) {
	db := openTestDB(t, "circuits")

	assert.True(t, filepath.IsAbs(db.Path()))
	assert.Equal(t, "circuits", db.Name())
	assert.FileExists(t, db.Path())
}

func TestMigrateCreatesCircuitsTable(t *testing.T) {
	db := openTestDB(t, "circuits")
	require.NoError(t, db.Migrate())
	// Idempotent
	require.NoError(t, db.Migrate())

	var name string
	err := db.Conn().QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='circuits'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "circuits", name)
}

func TestMigrateSkipsUnknownDatabases(t *testing.T) {
	db := openTestDB(t, "scratch")
	assert.NoError(t, db.Migrate())
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := openTestDB(t, "scratch")
	_, err := db.Conn().Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.Conn().QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Zero(t, count)
}

func TestWithTransactionRecoversPanic(t *testing.T) {
	db := openTestDB(t, "scratch")

	err := WithTransaction(db.Conn(), func(*sql.Tx) error { panic("bad") })
	assert.ErrorContains(t, err, "panic in transaction")
}

func TestStatsAndCheckpoint(t *testing.T) {
	db := openTestDB(t, "circuits")
	require.NoError(t, db.Migrate())

	require.NoError(t, db.WALCheckpoint(""))
	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Positive(t, stats.PageSize)
	assert.Positive(t, stats.PageCount)
}

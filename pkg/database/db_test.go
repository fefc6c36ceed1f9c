package database

import (
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `SELECT * FROM anime_list WHERE user_id = ? AND status = ?`

	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t, `SELECT * FROM anime_list WHERE user_id = $1 AND status = $2`, Rebind(Postgres, q))

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, `SELECT * FROM anime_list WHERE user_id = $1 AND status = $2`, Wrap(db, Postgres).Rebind(q))
	assert.Equal(t, q, Wrap(db, SQLite).Rebind(q))
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := Config{Driver: SQLite, Path: filepath.Join(t.TempDir(), "nested", "data.db")}

	db, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db))
	// second run must be a no-op
	require.NoError(t, Migrate(db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM anime_list`).Scan(&n))
	assert.Zero(t, n)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, err := Open(Config{Driver: Postgres})
	assert.Error(t, err)
}

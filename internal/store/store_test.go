package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/querysql"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	assert.Equal(t, querysql.SQLite, s.Dialect())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open("sqlite3", path)
		require.NoError(t, err, "open #%d", i+1)

		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM assertions").Scan(&count))
		require.NoError(t, s.Close())
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("mysql", "root@/almanac")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestOpen_RejectsInvalidMapping(t *testing.T) {
	m := querysql.DefaultMapping()
	delete(m.Columns, category.Disease)

	_, err := Open("sqlite3", filepath.Join(t.TempDir(), "test.db"), WithMapping(m))
	assert.ErrorContains(t, err, "category disease has no columns")
}

func TestRebind(t *testing.T) {
	s := &Store{dialect: querysql.Postgres}
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", s.rebind("a = ? AND b IN ("+placeholders(2)+")"))

	s.dialect = querysql.SQLite
	assert.Equal(t, "a = ?", s.rebind("a = ?"))
}

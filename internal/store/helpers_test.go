package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// createTestStore creates a new SQLite store in a temp directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	s, err := Open("sqlite3", path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seededStore creates a store loaded with testdata/knowledgebase.yaml.
func seededStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s := createTestStore(t, opts...)

	f, err := os.Open(filepath.Join("testdata", "knowledgebase.yaml"))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()

	seed, err := ParseSeed(f)
	if err != nil {
		t.Fatalf("ParseSeed() failed: %v", err)
	}
	if _, err := s.Seed(context.Background(), seed); err != nil {
		t.Fatalf("Seed() failed: %v", err)
	}
	return s
}

package testutil

import (
	"testing"

	"github.com/nhle/mini-jira/internal/session"
	"github.com/nhle/mini-jira/internal/store"
)

// NewTestStore creates an in-memory cache store with all migrations
// applied. It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// NewTestSession creates a file-backed session store rooted in a
// temporary directory, so tests never touch the system keyring.
func NewTestSession(t *testing.T) *session.Store {
	t.Helper()

	s, err := session.OpenFile(t.TempDir())
	if err != nil {
		t.Fatalf("creating test session store: %v", err)
	}

	return s
}

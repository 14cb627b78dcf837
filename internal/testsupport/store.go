package testsupport

import (
	"testing"

	"framecast/internal/config"
	"framecast/internal/journal"
)

// MustOpenJournal opens the keyframe journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.OpenFromConfig(cfg)
	if err != nil {
		t.Fatalf("journal.OpenFromConfig: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

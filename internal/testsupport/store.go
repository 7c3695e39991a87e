package testsupport

import (
	"testing"

	"peaceproc/internal/config"
	"peaceproc/internal/runstore"
)

// MustOpenJournal opens the run journal configured in cfg and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *runstore.Store {
	t.Helper()

	store, err := runstore.Open(cfg.JournalPath())
	if err != nil {
		t.Fatalf("runstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

package testsupport

import (
	"path/filepath"
	"testing"

	"bidsbuild/internal/runlog"
)

// OpenRunlog opens a throwaway run-log store for a test.
func OpenRunlog(t testing.TB) *runlog.Store {
	t.Helper()
	store, err := runlog.Open(filepath.Join(t.TempDir(), "bidsbuild.db"))
	if err != nil {
		t.Fatalf("open runlog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

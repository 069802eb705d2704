package journal

import (
	"path/filepath"
	"testing"
)

// SetupTestJournal opens a migrated journal in a temporary directory for testing
func SetupTestJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), "test")
	if err != nil {
		t.Fatalf("failed to open test journal: %v", err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Errorf("failed to close test journal: %v", err)
		}
	})
	return j
}

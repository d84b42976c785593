package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ytframes/internal/logging"
)

func mkdirAged(t *testing.T, parent, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if age > 0 {
		when := time.Now().Add(-age)
		if err := os.Chtimes(dir, when, when); err != nil {
			t.Fatalf("set time: %v", err)
		}
	}
	return dir
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldDir := mkdirAged(t, tmpDir, "5f0c3a9e-old", 2*time.Hour)
	recentDir := mkdirAged(t, tmpDir, "7d1b2c44-recent", 0)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d", len(result.Removed))
	}
	if result.Removed[0] != oldDir {
		t.Errorf("expected %s to be removed, got %s", oldDir, result.Removed[0])
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleKeepsProtectedSessions(t *testing.T) {
	tmpDir := t.TempDir()
	kept := mkdirAged(t, tmpDir, "awaiting", 48*time.Hour)
	dropped := mkdirAged(t, tmpDir, "finished", 48*time.Hour)

	result := CleanStale(context.Background(), tmpDir, time.Hour, nil, "awaiting")

	if len(result.Removed) != 1 || result.Removed[0] != dropped {
		t.Fatalf("unexpected removals: %v", result.Removed)
	}
	if _, err := os.Stat(kept); err != nil {
		t.Error("protected directory should still exist")
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := filepath.Join(tmpDir, "old-file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestCleanStaleStopsOnCancel(t *testing.T) {
	tmpDir := t.TempDir()
	mkdirAged(t, tmpDir, "a", 2*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if result := CleanStale(ctx, tmpDir, time.Hour, nil); len(result.Removed) != 0 {
		t.Fatalf("expected no removals after cancel, got %v", result.Removed)
	}
}

func TestCleanOrphanedEmptyDir(t *testing.T) {
	for _, dir := range []string{"", "   "} {
		result := CleanOrphaned(context.Background(), dir, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanOrphanedRemovesUnknownSessions(t *testing.T) {
	tmpDir := t.TempDir()
	knownDir := mkdirAged(t, tmpDir, "0b6f9d1e-known", 0)
	unknownDir := mkdirAged(t, tmpDir, "c2aa0e77-gone", 0)

	known := map[string]struct{}{"0b6f9d1e-known": {}}
	result := CleanOrphaned(context.Background(), tmpDir, known, logging.NewNop())

	if len(result.Removed) != 1 {
		t.Fatalf("expected 1 removed, got %d", len(result.Removed))
	}
	if result.Removed[0] != unknownDir {
		t.Errorf("expected %s to be removed, got %s", unknownDir, result.Removed[0])
	}
	if _, err := os.Stat(unknownDir); !os.IsNotExist(err) {
		t.Error("unknown directory should have been removed")
	}
	if _, err := os.Stat(knownDir); err != nil {
		t.Error("known directory should still exist")
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, path := range []string{"", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(path)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", path, err)
		}
		if dirs != nil {
			t.Errorf("expected nil for path %q, got %v", path, dirs)
		}
	}
}

func TestListDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	dir1 := mkdirAged(t, tmpDir, "session-1", 0)
	mkdirAged(t, tmpDir, "session-2", 0)

	if err := os.WriteFile(filepath.Join(tmpDir, "not-a-dir.txt"), []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir1, "frames"), 0o755); err != nil {
		t.Fatalf("create frames dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir1, "frames", "frame_0000.png"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("create inner file: %v", err)
	}

	dirs, err := ListDirectories(tmpDir)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 directories, got %d", len(dirs))
	}

	var foundDir1 bool
	for _, d := range dirs {
		if d.Name == "session-1" {
			foundDir1 = true
			if d.Size != 5 {
				t.Errorf("dir1 size = %d, want 5", d.Size)
			}
			if d.Path != dir1 || d.ModTime.IsZero() {
				t.Errorf("unexpected dir info %+v", d)
			}
		}
	}
	if !foundDir1 {
		t.Error("did not find session-1 in results")
	}
	if TotalSize(dirs) != 5 {
		t.Errorf("TotalSize = %d, want 5", TotalSize(dirs))
	}
}

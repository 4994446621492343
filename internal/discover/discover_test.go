package discover

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDatabase(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, DatabaseFileName)
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileArgument(t *testing.T) {
	want := writeDatabase(t, t.TempDir())

	got, err := CompilationDatabase(want)
	if err != nil {
		t.Fatalf("CompilationDatabase: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDirectoryRoot(t *testing.T) {
	dir := t.TempDir()
	want := writeDatabase(t, dir)

	got, err := CompilationDatabase(dir)
	if err != nil {
		t.Fatalf("CompilationDatabase: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildSubdirectory(t *testing.T) {
	dir := t.TempDir()
	want := writeDatabase(t, filepath.Join(dir, "build"))

	got, err := CompilationDatabase(dir)
	if err != nil {
		t.Fatalf("CompilationDatabase: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCMakeProfileDirectory(t *testing.T) {
	dir := t.TempDir()
	want := writeDatabase(t, filepath.Join(dir, "cmake-build-relwithdebinfo"))

	got, err := CompilationDatabase(dir)
	if err != nil {
		t.Fatalf("CompilationDatabase: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRootWinsOverBuildDirectory(t *testing.T) {
	dir := t.TempDir()
	want := writeDatabase(t, dir)
	writeDatabase(t, filepath.Join(dir, "build"))

	got, err := CompilationDatabase(dir)
	if err != nil {
		t.Fatalf("CompilationDatabase: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNotFound(t *testing.T) {
	_, err := CompilationDatabase(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMissingPath(t *testing.T) {
	_, err := CompilationDatabase(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}

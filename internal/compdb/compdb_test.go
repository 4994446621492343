package compdb

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeDB(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compile_commands.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBasic(t *testing.T) {
	path := writeDB(t, `[
		{"directory": "/build", "file": "src/main.cpp", "command": "c++ -c src/main.cpp"},
		{"directory": "/build", "file": "/src/widget.cpp", "arguments": ["c++", "-c", "/src/widget.cpp"]}
	]`)

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].File != filepath.Clean("/build/src/main.cpp") {
		t.Errorf("relative file not resolved: %q", entries[0].File)
	}
	if entries[1].File != filepath.Clean("/src/widget.cpp") {
		t.Errorf("absolute file changed: %q", entries[1].File)
	}
}

func TestLoadPreservesOrder(t *testing.T) {
	path := writeDB(t, `[
		{"directory": "/b", "file": "/src/c.cpp", "command": "c++"},
		{"directory": "/b", "file": "/src/a.cpp", "command": "c++"},
		{"directory": "/b", "file": "/src/b.cpp", "command": "c++"}
	]`)

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/src/c.cpp", "/src/a.cpp", "/src/b.cpp"}
	for i, w := range want {
		if entries[i].File != filepath.Clean(w) {
			t.Errorf("entry %d: got %q, want %q", i, entries[i].File, w)
		}
	}
}

func TestLoadDeduplicates(t *testing.T) {
	path := writeDB(t, `[
		{"directory": "/b", "file": "/src/a.cpp", "command": "c++ -O0"},
		{"directory": "/b", "file": "/src/a.cpp", "command": "c++ -O2"}
	]`)

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after dedup, got %d", len(entries))
	}
	if entries[0].Command != "c++ -O0" {
		t.Errorf("first entry should win, got command %q", entries[0].Command)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestLoadEmpty(t *testing.T) {
	path := writeDB(t, `[]`)
	_, err := Load(path)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := writeDB(t, `{"not": "an array"`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFilter(t *testing.T) {
	entries := []Entry{
		{File: "/src/main.cpp"},
		{File: "/src/widget/widget.cpp"},
		{File: "/src/widget/widget_test.cpp"},
	}

	tests := []struct {
		pattern string
		want    int
	}{
		{"", 3},
		{"*.cpp", 3},
		{"widget*", 2},
		{"widget", 2},
		{"main.cpp", 1},
	}
	for _, tt := range tests {
		got, err := Filter(entries, tt.pattern)
		if err != nil {
			t.Errorf("Filter(%q): %v", tt.pattern, err)
			continue
		}
		if len(got) != tt.want {
			t.Errorf("Filter(%q) = %d entries, want %d", tt.pattern, len(got), tt.want)
		}
	}
}

func TestFilterNoMatch(t *testing.T) {
	entries := []Entry{{File: "/src/main.cpp"}}
	_, err := Filter(entries, "nothing_matches_this")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
}

func TestIncludeDirs(t *testing.T) {
	e := Entry{
		Directory: "/build",
		Command:   "c++ -Iinclude -I /opt/third_party -isystem/usr/include/x -iquote local -c main.cpp",
	}
	dirs := e.IncludeDirs()
	want := []string{
		filepath.Clean("/build/include"),
		filepath.Clean("/opt/third_party"),
		filepath.Clean("/usr/include/x"),
		filepath.Clean("/build/local"),
	}
	if len(dirs) != len(want) {
		t.Fatalf("IncludeDirs = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dir %d: got %q, want %q", i, dirs[i], want[i])
		}
	}
}

func TestArgsFromCommand(t *testing.T) {
	e := Entry{Command: "c++ -c main.cpp"}
	args := e.Args()
	if len(args) != 3 || args[0] != "c++" {
		t.Fatalf("Args = %v", args)
	}

	e = Entry{Arguments: []string{"clang++", "-c", "a.cpp"}, Command: "ignored"}
	args = e.Args()
	if len(args) != 3 || args[0] != "clang++" {
		t.Fatalf("Args should prefer Arguments, got %v", args)
	}
}

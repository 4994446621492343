// Package discover locates the compilation database for a run. The CLI
// accepts either a compile_commands.json path or a project directory;
// a directory is searched in place first, then through the conventional
// build directories underneath it.
package discover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DatabaseFileName is the file name clang tooling emits and expects.
const DatabaseFileName = "compile_commands.json"

// buildDirNames are subdirectories probed for the database, in order,
// when the argument is a project directory.
var buildDirNames = []string{"build", "builddir", "out"}

// ErrNotFound reports a project directory with no compilation database
// in any searched location.
var ErrNotFound = errors.New("no " + DatabaseFileName + " found")

// CompilationDatabase resolves arg to a compile_commands.json path. A
// file argument is returned as given; a directory argument is searched.
func CompilationDatabase(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("compilation database: %w", err)
	}
	if !info.IsDir() {
		return arg, nil
	}
	for _, dir := range searchDirs(arg) {
		path := filepath.Join(dir, DatabaseFileName)
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", arg, ErrNotFound)
}

// searchDirs lists the probed directories: the project root, the
// conventional build directories, then CMake per-profile directories
// (cmake-build-debug and friends).
func searchDirs(root string) []string {
	dirs := []string{root}
	for _, name := range buildDirNames {
		dirs = append(dirs, filepath.Join(root, name))
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return dirs
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "cmake-build-") {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs
}

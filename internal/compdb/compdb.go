// Package compdb loads clang-style compilation databases
// (compile_commands.json). The entry list is the indexing work list:
// the pipeline processes exactly the files the database names, in
// database order.
package compdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one compile_commands.json record. Clang emits the compiler
// invocation in either the Command or the Arguments form.
type Entry struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Command   string   `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
}

var (
	// ErrEmpty reports a compilation database with no entries.
	ErrEmpty = errors.New("compilation database is empty")
	// ErrNoMatch reports a filter that excluded every entry.
	ErrNoMatch = errors.New("no source files match the filter")
)

// Load reads and validates a compilation database. File paths are
// normalized to absolute (relative paths resolve against the entry's
// directory) and a file listed more than once keeps its first entry.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compilation database: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse compilation database %s: %w", path, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}

	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if e.File == "" {
			continue
		}
		if !filepath.IsAbs(e.File) {
			e.File = filepath.Join(e.Directory, e.File)
		}
		e.File = filepath.Clean(e.File)
		if seen[e.File] {
			continue
		}
		seen[e.File] = true
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return out, nil
}

// Filter keeps entries whose file matches the pattern: a glob against
// the base name or full path, or a plain substring of the path. An
// empty pattern keeps everything.
func Filter(entries []Entry, pattern string) ([]Entry, error) {
	if pattern == "" {
		return entries, nil
	}

	var out []Entry
	for _, e := range entries {
		ok, err := matches(e.File, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad filter pattern %q: %w", pattern, err)
		}
		if ok {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("filter %q: %w", pattern, ErrNoMatch)
	}
	return out, nil
}

func matches(file, pattern string) (bool, error) {
	if ok, err := filepath.Match(pattern, filepath.Base(file)); err != nil {
		return false, err
	} else if ok {
		return true, nil
	}
	if ok, _ := filepath.Match(pattern, file); ok {
		return true, nil
	}
	return strings.Contains(file, pattern), nil
}

// Args returns the compiler invocation as an argument vector,
// splitting Command on whitespace when Arguments is absent.
func (e Entry) Args() []string {
	if len(e.Arguments) > 0 {
		return e.Arguments
	}
	return strings.Fields(e.Command)
}

// IncludeDirs extracts -I, -iquote and -isystem search directories
// from the entry's compiler invocation, resolved against the entry's
// working directory. Include resolution for quoted includes tries the
// including file's directory first, then these, in order.
func (e Entry) IncludeDirs() []string {
	args := e.Args()
	var dirs []string
	add := func(dir string) {
		if dir == "" {
			return
		}
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(e.Directory, dir)
		}
		dirs = append(dirs, filepath.Clean(dir))
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-I" || arg == "-iquote" || arg == "-isystem":
			if i+1 < len(args) {
				i++
				add(args[i])
			}
		case strings.HasPrefix(arg, "-I"):
			add(arg[2:])
		case strings.HasPrefix(arg, "-iquote"):
			add(arg[len("-iquote"):])
		case strings.HasPrefix(arg, "-isystem"):
			add(arg[len("-isystem"):])
		}
	}
	return dirs
}

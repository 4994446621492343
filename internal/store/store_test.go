package store

import (
	"path/filepath"
	"testing"
)

func TestOpenMemorySchema(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	tables := []string{
		"ast_nodes", "declarations", "types", "statements", "expressions",
		"template_parameters", "cfg_blocks", "comments", "macro_definitions",
		"constant_expressions", "static_assertions",
		"parent_of", "has_type", "node_references", "in_scope",
		"inherits_from", "overrides", "template_relation", "specializes",
		"has_comment", "cfg_edges",
	}
	for _, table := range tables {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.initSchema(); err != nil {
		t.Fatalf("second initSchema: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if s.Path() != dbPath {
		t.Errorf("Path = %q, want %q", s.Path(), dbPath)
	}
	if _, err := s.DB().Exec(
		"INSERT INTO ast_nodes (node_id, node_type, source_location) VALUES (1, 'translation_unit', 'a.cpp:1:1')",
	); err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestPragmaSettings(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	tests := []struct {
		pragma string
		want   string
	}{
		{"synchronous", "0"},  // OFF for in-memory
		{"temp_store", "2"},   // MEMORY
		{"foreign_keys", "1"}, // ON
	}
	for _, tt := range tests {
		var val string
		err := s.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&val)
		if err != nil {
			t.Fatalf("PRAGMA %s: %v", tt.pragma, err)
		}
		if val != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, val, tt.want)
		}
	}
}

func TestForeignKeysRejectDanglingEdge(t *testing.T) {
	s, err := OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_, err = s.DB().Exec("INSERT INTO parent_of (parent_id, child_id, child_index) VALUES (1, 2, 0)")
	if err == nil {
		t.Error("edge with dangling endpoints was accepted")
	}
}

func TestBulkWriteToggle(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.BeginBulkWrite()
	var val string
	if err := s.DB().QueryRow("PRAGMA synchronous").Scan(&val); err != nil {
		t.Fatal(err)
	}
	if val != "0" {
		t.Errorf("bulk write synchronous = %q, want 0", val)
	}

	s.EndBulkWrite()
	if err := s.DB().QueryRow("PRAGMA synchronous").Scan(&val); err != nil {
		t.Fatal(err)
	}
	if val != "1" {
		t.Errorf("after bulk write synchronous = %q, want 1 (NORMAL)", val)
	}
	s.Checkpoint()
}

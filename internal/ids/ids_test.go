package ids

import (
	"sync"
	"testing"
)

func TestGetOrAssignIdempotent(t *testing.T) {
	r := NewRegistry()
	k := Key{File: "/src/a.cpp", StartByte: 10, EndByte: 42, Kind: "function_definition"}

	id1, wasNew := r.GetOrAssign(k)
	if !wasNew {
		t.Fatalf("first GetOrAssign: wasNew = false")
	}
	id2, wasNew := r.GetOrAssign(k)
	if wasNew {
		t.Fatalf("second GetOrAssign: wasNew = true")
	}
	if id1 != id2 {
		t.Fatalf("ids differ for same key: %d vs %d", id1, id2)
	}
	got, ok := r.Lookup(k)
	if !ok || got != id1 {
		t.Fatalf("Lookup = (%d, %v), want (%d, true)", got, ok, id1)
	}
}

func TestDistinctKeysDistinctIDs(t *testing.T) {
	base := Key{File: "/src/a.cpp", StartByte: 10, EndByte: 42, Kind: "class_specifier"}
	variants := []Key{
		{File: "/src/b.cpp", StartByte: 10, EndByte: 42, Kind: "class_specifier"},
		{File: "/src/a.cpp", StartByte: 11, EndByte: 42, Kind: "class_specifier"},
		{File: "/src/a.cpp", StartByte: 10, EndByte: 43, Kind: "class_specifier"},
		{File: "/src/a.cpp", StartByte: 10, EndByte: 42, Kind: "struct_specifier"},
	}

	r := NewRegistry()
	baseID, _ := r.GetOrAssign(base)
	seen := map[int64]bool{baseID: true}
	for _, k := range variants {
		id, wasNew := r.GetOrAssign(k)
		if !wasNew {
			t.Errorf("key %+v: expected a fresh id", k)
		}
		if seen[id] {
			t.Errorf("key %+v: id %d collides", k, id)
		}
		seen[id] = true
	}
}

func TestSpaceComposition(t *testing.T) {
	r := NewRegistry()

	astID, _ := r.GetOrAssign(Key{File: "f.cpp", StartByte: 0, EndByte: 1, Kind: "declaration"})
	if SpaceOf(astID) != SpaceAST {
		t.Errorf("GetOrAssign id in space %v, want %v", SpaceOf(astID), SpaceAST)
	}

	for _, sp := range []Space{SpaceCFGBlock, SpaceComment, SpaceMacro, SpaceConstExpr, SpaceAssertion} {
		id := r.NextAux(sp)
		if SpaceOf(id) != sp {
			t.Errorf("NextAux(%v) id in space %v", sp, SpaceOf(id))
		}
		if id == astID {
			t.Errorf("NextAux(%v) collided with AST id %d", sp, astID)
		}
	}

	// Sequences advance independently per space.
	first := r.NextAux(SpaceComment)
	second := r.NextAux(SpaceComment)
	if second != first+1 {
		t.Errorf("comment sequence: %d then %d, want consecutive", first, second)
	}
}

func TestBaseAndSpecializedMarkers(t *testing.T) {
	r := NewRegistry()
	id, _ := r.GetOrAssign(Key{File: "f.cpp", StartByte: 5, EndByte: 9, Kind: "declaration"})

	if r.HasBase(id) {
		t.Fatalf("HasBase before MarkBase")
	}
	r.MarkBase(id)
	if !r.HasBase(id) {
		t.Fatalf("HasBase after MarkBase = false")
	}

	if r.HasSpecialized(id, SpecDeclaration) {
		t.Fatalf("HasSpecialized before MarkSpecialized")
	}
	r.MarkSpecialized(id, SpecDeclaration)
	if !r.HasSpecialized(id, SpecDeclaration) {
		t.Fatalf("HasSpecialized after MarkSpecialized = false")
	}
	// Other specialized kinds stay independent.
	if r.HasSpecialized(id, SpecType) || r.HasSpecialized(id, SpecStatement) || r.HasSpecialized(id, SpecExpression) {
		t.Fatalf("unrelated specialized kinds marked")
	}
}

func TestRecordDeclDefinitionWins(t *testing.T) {
	r := NewRegistry()
	fwd, _ := r.GetOrAssign(Key{File: "a.hpp", StartByte: 0, EndByte: 10, Kind: "declaration"})
	def, _ := r.GetOrAssign(Key{File: "a.cpp", StartByte: 0, EndByte: 80, Kind: "class_specifier"})
	later, _ := r.GetOrAssign(Key{File: "b.hpp", StartByte: 0, EndByte: 10, Kind: "declaration"})

	r.RecordDecl("N::C", fwd, false)
	if id, _ := r.LookupDecl("N::C"); id != fwd {
		t.Fatalf("after forward decl: LookupDecl = %d, want %d", id, fwd)
	}

	r.RecordDecl("N::C", def, true)
	if id, _ := r.LookupDecl("N::C"); id != def {
		t.Fatalf("definition did not displace forward decl: got %d, want %d", id, def)
	}

	r.RecordDecl("N::C", later, false)
	if id, _ := r.LookupDecl("N::C"); id != def {
		t.Fatalf("later declaration displaced definition: got %d, want %d", id, def)
	}

	if _, ok := r.LookupDecl("N::Missing"); ok {
		t.Fatalf("LookupDecl of unknown name succeeded")
	}
}

func TestConcurrentGetOrAssign(t *testing.T) {
	r := NewRegistry()
	keys := make([]Key, 32)
	for i := range keys {
		keys[i] = Key{File: "shared.hpp", StartByte: uint(i * 10), EndByte: uint(i*10 + 5), Kind: "declaration"}
	}

	const workers = 8
	results := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			ids := make([]int64, len(keys))
			for i, k := range keys {
				ids[i], _ = r.GetOrAssign(k)
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		for i := range keys {
			if results[w][i] != results[0][i] {
				t.Fatalf("worker %d key %d: id %d, want %d", w, i, results[w][i], results[0][i])
			}
		}
	}
	seen := map[int64]bool{}
	for i, id := range results[0] {
		if seen[id] {
			t.Fatalf("key %d: duplicate id %d", i, id)
		}
		seen[id] = true
	}
}

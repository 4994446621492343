// Package ids assigns and remembers graph node identities for one
// indexing run. Every AST entity gets exactly one int64 id no matter
// how many paths reach it; auxiliary entities (CFG blocks, comments,
// macros, compile-time facts) draw from their own id spaces so the
// spaces can never collide.
package ids

import (
	"encoding/binary"
	"sync"

	"github.com/zeebo/xxh3"
)

// Space tags an id space. The composed id is (space << 56) | sequence,
// so ids from different spaces are disjoint by construction.
type Space uint8

const (
	SpaceAST Space = iota + 1
	SpaceCFGBlock
	SpaceComment
	SpaceMacro
	SpaceConstExpr
	SpaceAssertion

	spaceCount
)

func (sp Space) String() string {
	switch sp {
	case SpaceAST:
		return "ast"
	case SpaceCFGBlock:
		return "cfg_block"
	case SpaceComment:
		return "comment"
	case SpaceMacro:
		return "macro"
	case SpaceConstExpr:
		return "const_expr"
	case SpaceAssertion:
		return "assertion"
	default:
		return "unknown"
	}
}

// SpaceOf recovers the space an id was allocated from.
func SpaceOf(id int64) Space {
	return Space(uint64(id) >> 56)
}

// Allocator hands out monotonic ids per space. Not safe for concurrent
// use on its own; Registry wraps it with a mutex.
type Allocator struct {
	seqs [spaceCount]int64
}

// Next returns the next id in the given space.
func (a *Allocator) Next(sp Space) int64 {
	a.seqs[sp]++
	return int64(sp)<<56 | a.seqs[sp]
}

// Key is the stable identity of an AST entity within a run: the file it
// lives in, its byte range, and its node kind. A header pulled into
// several translation units is parsed once, so its entities keep one
// Key and therefore one id.
type Key struct {
	File      string
	StartByte uint
	EndByte   uint
	Kind      string
}

// Hash collapses the key to the 64-bit value the registry maps from.
func (k Key) Hash() uint64 {
	h := xxh3.New()
	_, _ = h.WriteString(k.File)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(k.Kind)
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(k.StartByte))
	binary.LittleEndian.PutUint64(buf[8:], uint64(k.EndByte))
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

// SpecKind names the specialized-row tables whose at-most-once creation
// the registry gates.
type SpecKind uint8

const (
	SpecDeclaration SpecKind = iota
	SpecType
	SpecStatement
	SpecExpression

	specKindCount
)

// Registry is the single source of truth for node identity in a run.
// It is constructed per run and passed explicitly; there is no
// process-global instance.
type Registry struct {
	mu    sync.Mutex
	alloc Allocator

	byKey map[uint64]int64
	base  map[int64]struct{}
	spec  [specKindCount]map[int64]struct{}

	declsByQN map[string]int64
	defsByQN  map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{
		byKey:     make(map[uint64]int64),
		base:      make(map[int64]struct{}),
		declsByQN: make(map[string]int64),
		defsByQN:  make(map[string]struct{}),
	}
	for i := range r.spec {
		r.spec[i] = make(map[int64]struct{})
	}
	return r
}

// GetOrAssign returns the id for a key, minting one in the AST space on
// first sight. Idempotent: the same key always maps to the same id.
func (r *Registry) GetOrAssign(k Key) (id int64, wasNew bool) {
	h := k.Hash()
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[h]; ok {
		return id, false
	}
	id = r.alloc.Next(SpaceAST)
	r.byKey[h] = id
	return id, true
}

// Lookup returns the id for a key without assigning.
func (r *Registry) Lookup(k Key) (int64, bool) {
	h := k.Hash()
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byKey[h]
	return id, ok
}

// NextAux mints an id in an auxiliary space (CFG block, comment, macro,
// constant expression, assertion).
func (r *Registry) NextAux(sp Space) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.alloc.Next(sp)
}

// HasBase reports whether the base row for id was already emitted.
func (r *Registry) HasBase(id int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.base[id]
	return ok
}

// MarkBase records that the base row for id was emitted.
func (r *Registry) MarkBase(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base[id] = struct{}{}
}

// HasSpecialized reports whether the specialized row of the given kind
// was already emitted for id.
func (r *Registry) HasSpecialized(id int64, kind SpecKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.spec[kind][id]
	return ok
}

// MarkSpecialized records emission of the specialized row.
func (r *Registry) MarkSpecialized(id int64, kind SpecKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.spec[kind][id] = struct{}{}
}

// RecordDecl remembers a declaration's qualified name for late edge
// resolution. Definitions outrank forward declarations: once a
// definition is recorded under a name, later declarations never
// displace it, and a definition displaces an earlier declaration so
// resolved edges land on the defining node.
func (r *Registry) RecordDecl(qualifiedName string, id int64, isDefinition bool) {
	if qualifiedName == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, defined := r.defsByQN[qualifiedName]; defined {
		return
	}
	if isDefinition {
		r.defsByQN[qualifiedName] = struct{}{}
		r.declsByQN[qualifiedName] = id
		return
	}
	if _, ok := r.declsByQN[qualifiedName]; !ok {
		r.declsByQN[qualifiedName] = id
	}
}

// LookupDecl resolves a qualified name recorded by RecordDecl.
func (r *Registry) LookupDecl(qualifiedName string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.declsByQN[qualifiedName]
	return id, ok
}

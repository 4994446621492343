package pipeline

import (
	"strings"

	"github.com/cppgraph/cppgraph/internal/fqn"
)

// fileState is the per-file traversal context: the structural parent
// stack, the lexical scope stack, and the name context that qualified
// names are assembled from. Pushes and pops are paired by defer in the
// visit function, so the stacks unwind correctly on every exit path.
type fileState struct {
	path   string
	source []byte

	parents []int64
	scopes  []scopeEntry

	// names holds the enclosing namespace and record names, innermost
	// last; nsFlags marks which of them are namespaces. access tracks
	// the current member access level per enclosing record.
	names   []string
	nsFlags []bool
	access  []string
}

type scopeEntry struct {
	id   int64
	kind string
}

func (s *fileState) pushParent(id int64) {
	s.parents = append(s.parents, id)
}

func (s *fileState) popParent() {
	s.parents = s.parents[:len(s.parents)-1]
}

// currentParent returns the structural parent for the node being
// visited, or 0 at the translation-unit root.
func (s *fileState) currentParent() int64 {
	if len(s.parents) == 0 {
		return 0
	}
	return s.parents[len(s.parents)-1]
}

func (s *fileState) pushScope(id int64, kind string) {
	s.scopes = append(s.scopes, scopeEntry{id: id, kind: kind})
}

func (s *fileState) popScope() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

// currentScope returns the innermost lexical scope, or nil at file
// level before any namespace/function/class has been entered.
func (s *fileState) currentScope() *scopeEntry {
	if len(s.scopes) == 0 {
		return nil
	}
	return &s.scopes[len(s.scopes)-1]
}

// nearestScopeOfKind returns the innermost enclosing scope of the
// given kind, or nil.
func (s *fileState) nearestScopeOfKind(kind string) *scopeEntry {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i].kind == kind {
			return &s.scopes[i]
		}
	}
	return nil
}

// inFunctionScope reports whether the traversal is inside a function,
// lambda, or block scope. Declarations there are function-local and
// are not recorded for cross-file name resolution.
func (s *fileState) inFunctionScope() bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		switch s.scopes[i].kind {
		case "function", "lambda", "block":
			return true
		}
	}
	return false
}

func (s *fileState) pushName(name string, isNamespace bool) {
	s.names = append(s.names, name)
	s.nsFlags = append(s.nsFlags, isNamespace)
}

func (s *fileState) popName() {
	s.names = s.names[:len(s.names)-1]
	s.nsFlags = s.nsFlags[:len(s.nsFlags)-1]
}

// qualify builds the fully qualified name of a declaration seen in the
// current context. A name written with its own qualifiers (an
// out-of-class definition like C::f) keeps them; a name written with a
// leading :: is already absolute.
func (s *fileState) qualify(name string) string {
	if strings.HasPrefix(name, "::") {
		return strings.TrimPrefix(name, "::")
	}
	return fqn.Join(fqn.JoinParts(s.names), name)
}

// namespaceContext renders the enclosing namespaces only, without
// record names.
func (s *fileState) namespaceContext() string {
	var parts []string
	for i, name := range s.names {
		if s.nsFlags[i] {
			parts = append(parts, name)
		}
	}
	return fqn.JoinParts(parts)
}

// lookupCandidates lists the qualified names an unqualified (or
// partially qualified) name could resolve to, innermost context first,
// mirroring C++ unqualified lookup through enclosing scopes.
func (s *fileState) lookupCandidates(name string) []string {
	if strings.HasPrefix(name, "::") {
		return []string{strings.TrimPrefix(name, "::")}
	}
	candidates := make([]string, 0, len(s.names)+1)
	for i := len(s.names); i > 0; i-- {
		candidates = append(candidates, fqn.Join(fqn.JoinParts(s.names[:i]), name))
	}
	return append(candidates, name)
}

func (s *fileState) pushAccess(level string) {
	s.access = append(s.access, level)
}

func (s *fileState) popAccess() {
	s.access = s.access[:len(s.access)-1]
}

// setAccess updates the current record's access level when an
// access-specifier label (public:, private:, protected:) is visited.
func (s *fileState) setAccess(level string) {
	if len(s.access) > 0 {
		s.access[len(s.access)-1] = level
	}
}

// currentAccess returns the member access level inside the innermost
// record, or "" outside any record body.
func (s *fileState) currentAccess() string {
	if len(s.access) == 0 {
		return ""
	}
	return s.access[len(s.access)-1]
}

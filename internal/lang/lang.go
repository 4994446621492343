// Package lang classifies tree-sitter-cpp node kinds into the dispatch
// classes the traversal driver switches over. The tables are data, not
// behavior: analyzers decide what to do with each class.
package lang

// Class is the dispatch class of an AST node kind.
type Class int

const (
	// Other is the fallback class: the node gets a generic base row and
	// its children are still visited.
	Other Class = iota
	Declaration
	Statement
	Expression
	Type
	Template
	Preproc
	Assertion
	Comment
)

func (c Class) String() string {
	switch c {
	case Declaration:
		return "declaration"
	case Statement:
		return "statement"
	case Expression:
		return "expression"
	case Type:
		return "type"
	case Template:
		return "template"
	case Preproc:
		return "preproc"
	case Assertion:
		return "assertion"
	case Comment:
		return "comment"
	default:
		return "other"
	}
}

// Classify returns the dispatch class for a tree-sitter-cpp node kind.
// Unknown kinds map to Other.
func Classify(kind string) Class {
	switch {
	case kind == "template_declaration", kind == "template_instantiation":
		return Template
	case kind == "static_assert_declaration":
		return Assertion
	case kind == "comment":
		return Comment
	case declarationKinds[kind]:
		return Declaration
	case statementKinds[kind]:
		return Statement
	case expressionKinds[kind]:
		return Expression
	case typeKinds[kind]:
		return Type
	case preprocKinds[kind]:
		return Preproc
	default:
		return Other
	}
}

// ControlFlowType returns the control-flow subtype recorded for a
// statement kind, or "" for plain statements.
func ControlFlowType(kind string) string {
	return controlFlowKinds[kind]
}

// IsScopeIntroducing reports whether visiting this kind opens a new
// lexical scope.
func IsScopeIntroducing(kind string) bool {
	return scopeKinds[kind] != ""
}

// ScopeKind returns the lexical-scope kind a node introduces
// (namespace, class, function, lambda, block), or "".
func ScopeKind(kind string) string {
	return scopeKinds[kind]
}

// IsRecord reports whether the kind declares a class-like record.
func IsRecord(kind string) bool {
	switch kind {
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		return true
	}
	return false
}

// OperatorKind reports whether expressions of this kind carry an
// operator child worth recording.
func OperatorKind(kind string) bool {
	switch kind {
	case "binary_expression", "unary_expression", "update_expression",
		"assignment_expression", "pointer_expression":
		return true
	}
	return false
}

// IsLiteral reports whether the kind is a literal expression.
func IsLiteral(kind string) bool {
	return literalKinds[kind]
}

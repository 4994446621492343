package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/fqn"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// processDeclaration enriches a declaration-classified node with its
// declarations row and the relationships only a declaration can have:
// HAS_TYPE to its declared type, inheritance edges for records,
// method facts for override resolution.
func (p *Pipeline) processDeclaration(node *tree_sitter.Node, id int64) {
	switch node.Kind() {
	case "function_definition":
		p.declFunction(node, id)
	case "declaration":
		p.declVariableOrPrototype(node, id)
	case "field_declaration":
		p.declField(node, id)
	case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
		p.declParameter(node, id)
	case "class_specifier", "struct_specifier", "union_specifier", "enum_specifier":
		p.declRecord(node, id)
	case "enumerator":
		p.declEnumerator(node, id)
	case "namespace_definition":
		p.declNamespace(node, id)
	case "namespace_alias_definition":
		p.declNamed(node, id, node.ChildByFieldName("name"), true)
	case "concept_definition":
		p.declNamed(node, id, node.ChildByFieldName("name"), true)
	case "alias_declaration":
		p.declAlias(node, id)
	case "type_definition":
		p.declTypedef(node, id)
	case "using_declaration":
		p.declUsing(node, id)
	}
	// friend_declaration adds nothing to this scope; its inner
	// declaration is visited on its own.
}

func (p *Pipeline) declFunction(node *tree_sitter.Node, id int64) {
	src := p.cur.source
	declarator := node.ChildByFieldName("declarator")
	nameNode := declaratorName(declarator)

	name := ""
	if nameNode != nil {
		name = parser.NodeText(nameNode, src)
	}
	if name == "" {
		name = unnamedFor("function", parser.Location(node, p.cur.path))
	}
	qn := p.cur.qualify(name)

	p.emitDeclarationRow(id, declFacts{
		name:             name,
		qualifiedName:    qn,
		accessSpecifier:  p.cur.currentAccess(),
		storageClass:     storageClass(node, src),
		isDefinition:     true,
		namespaceContext: p.cur.namespaceContext(),
	})
	if !p.cur.inFunctionScope() {
		p.reg.RecordDecl(qn, id, true)
	}

	returnText := ""
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		returnText = parser.NodeText(typeNode, src)
		p.relHasType(id, p.typeForDeclaration(node, typeNode, declarator))
	}

	p.noteMethod(node, id, qn, declarator, returnText, false)
}

// declVariableOrPrototype handles the declaration kind: variables,
// free-function prototypes, and declarator lists (int a, b, c). The
// first declarator's row lands on the declaration node; additional
// declarators carry their own rows, since each declares a distinct
// entity.
func (p *Pipeline) declVariableOrPrototype(node *tree_sitter.Node, id int64) {
	src := p.cur.source
	typeNode := node.ChildByFieldName("type")

	declarators := childrenByField(node, "declarator")
	if len(declarators) == 0 {
		// Forward declarations (class C;) carry their row on the
		// record specifier child.
		return
	}

	sc := storageClass(node, src)
	for i, d := range declarators {
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}
		name := parser.NodeText(nameNode, src)
		qn := p.cur.qualify(name)

		isFunc := findFunctionDeclarator(d) != nil
		isDef := !isFunc
		if sc == "extern" && d.Kind() != "init_declarator" {
			isDef = false
		}

		rowID := id
		if i > 0 {
			rowID = p.ensureNode(d)
		}
		p.emitDeclarationRow(rowID, declFacts{
			name:             name,
			qualifiedName:    qn,
			accessSpecifier:  p.cur.currentAccess(),
			storageClass:     sc,
			isDefinition:     isDef,
			namespaceContext: p.cur.namespaceContext(),
		})
		if !p.cur.inFunctionScope() {
			p.reg.RecordDecl(qn, rowID, isDef)
		}
		if typeNode != nil {
			p.relHasType(rowID, p.typeForDeclaration(node, typeNode, d))
		}
		if isConstexprSpecified(node, src) && d.Kind() == "init_declarator" {
			if value := d.ChildByFieldName("value"); value != nil {
				p.createConstantContext(value)
			}
		}
	}
}

// declField handles member declarations inside record bodies: data
// members and method prototypes, including the virtual/override/pure
// facts override resolution needs.
func (p *Pipeline) declField(node *tree_sitter.Node, id int64) {
	src := p.cur.source
	typeNode := node.ChildByFieldName("type")
	sc := storageClass(node, src)

	declarators := childrenByField(node, "declarator")
	if len(declarators) == 0 {
		return
	}

	returnText := ""
	if typeNode != nil {
		returnText = parser.NodeText(typeNode, src)
	}

	hasMethod := false
	for i, d := range declarators {
		nameNode := declaratorName(d)
		if nameNode == nil {
			continue
		}
		name := parser.NodeText(nameNode, src)
		qn := p.cur.qualify(name)

		isFunc := findFunctionDeclarator(d) != nil
		isDef := !isFunc && sc != "static"

		rowID := id
		if i > 0 {
			rowID = p.ensureNode(d)
		}
		p.emitDeclarationRow(rowID, declFacts{
			name:             name,
			qualifiedName:    qn,
			accessSpecifier:  p.cur.currentAccess(),
			storageClass:     sc,
			isDefinition:     isDef,
			namespaceContext: p.cur.namespaceContext(),
		})
		if !p.cur.inFunctionScope() {
			p.reg.RecordDecl(qn, rowID, isDef)
		}
		if typeNode != nil {
			p.relHasType(rowID, p.typeForDeclaration(node, typeNode, d))
		}
		if isFunc {
			hasMethod = true
			p.noteMethod(node, rowID, qn, d, returnText, isPureVirtual(node, src))
		}
	}
	// A constexpr data member's initializer sits in the default_value
	// field of the field_declaration itself.
	if !hasMethod && isConstexprSpecified(node, src) {
		if dv := node.ChildByFieldName("default_value"); dv != nil {
			p.createConstantContext(dv)
		}
	}
}

func (p *Pipeline) declParameter(node *tree_sitter.Node, id int64) {
	src := p.cur.source
	declarator := node.ChildByFieldName("declarator")
	name := ""
	if nameNode := declaratorName(declarator); nameNode != nil {
		name = parser.NodeText(nameNode, src)
	}
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		p.relHasType(id, p.typeForDeclaration(node, typeNode, declarator))
	}
	if name == "" {
		return
	}
	p.emitDeclarationRow(id, declFacts{
		name:          name,
		qualifiedName: name,
		isDefinition:  true,
	})
}

func (p *Pipeline) declRecord(node *tree_sitter.Node, id int64) {
	kind := node.Kind()
	name := p.contextName(node, kind)
	qn := p.cur.qualify(name)
	isDef := node.ChildByFieldName("body") != nil

	p.emitDeclarationRow(id, declFacts{
		name:             name,
		qualifiedName:    qn,
		accessSpecifier:  p.cur.currentAccess(),
		isDefinition:     isDef,
		namespaceContext: p.cur.namespaceContext(),
	})
	if !p.cur.inFunctionScope() {
		p.reg.RecordDecl(qn, id, isDef)
	}

	if isDef {
		if _, ok := p.classes[qn]; !ok {
			p.classes[qn] = &classFacts{id: id, qn: qn, methods: make(map[string]*methodFacts)}
		}
	}
	if clause := parser.FindChildByKind(node, "base_class_clause"); clause != nil {
		p.processBaseClause(id, qn, clause, kind)
	}
	// Scoped and unscoped enums can name an underlying type.
	if kind == "enum_specifier" {
		if base := node.ChildByFieldName("base"); base != nil {
			p.relHasType(id, p.typeNodeFor(base, ""))
		}
	}
}

func (p *Pipeline) declEnumerator(node *tree_sitter.Node, id int64) {
	src := p.cur.source
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, src)
	qn := p.cur.qualify(name)

	p.emitDeclarationRow(id, declFacts{
		name:             name,
		qualifiedName:    qn,
		accessSpecifier:  p.cur.currentAccess(),
		isDefinition:     true,
		namespaceContext: p.cur.namespaceContext(),
	})
	if !p.cur.inFunctionScope() {
		p.reg.RecordDecl(qn, id, true)
	}
	// Enumerator values are compile-time constants.
	if value := node.ChildByFieldName("value"); value != nil {
		p.createConstantContext(value)
	}
}

func (p *Pipeline) declNamespace(node *tree_sitter.Node, id int64) {
	name := p.contextName(node, "namespace_definition")
	qn := p.cur.qualify(name)
	p.emitDeclarationRow(id, declFacts{
		name:             name,
		qualifiedName:    qn,
		isDefinition:     true,
		namespaceContext: p.cur.namespaceContext(),
	})
	p.reg.RecordDecl(qn, id, true)
}

// declNamed covers declarations whose name is a single field with no
// declarator chain (namespace aliases, concepts).
func (p *Pipeline) declNamed(node *tree_sitter.Node, id int64, nameNode *tree_sitter.Node, isDef bool) {
	if nameNode == nil {
		return
	}
	name := parser.NodeText(nameNode, p.cur.source)
	qn := p.cur.qualify(name)
	p.emitDeclarationRow(id, declFacts{
		name:             name,
		qualifiedName:    qn,
		accessSpecifier:  p.cur.currentAccess(),
		isDefinition:     isDef,
		namespaceContext: p.cur.namespaceContext(),
	})
	if !p.cur.inFunctionScope() {
		p.reg.RecordDecl(qn, id, isDef)
	}
}

func (p *Pipeline) declAlias(node *tree_sitter.Node, id int64) {
	p.declNamed(node, id, node.ChildByFieldName("name"), true)
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		p.relHasType(id, p.typeFromDescriptor(typeNode))
	}
}

func (p *Pipeline) declTypedef(node *tree_sitter.Node, id int64) {
	p.declNamed(node, id, node.ChildByFieldName("declarator"), true)
	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		p.relHasType(id, p.typeForDeclaration(node, typeNode, node.ChildByFieldName("declarator")))
	}
}

// declUsing records a using-declaration under the name it pulls into
// the current scope.
func (p *Pipeline) declUsing(node *tree_sitter.Node, id int64) {
	var target *tree_sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c != nil && (c.Kind() == "qualified_identifier" || c.Kind() == "identifier") {
			target = c
		}
	}
	if target == nil {
		return
	}
	written := parser.NodeText(target, p.cur.source)
	p.emitDeclarationRow(id, declFacts{
		name:             written,
		qualifiedName:    p.cur.qualify(fqn.Leaf(written)),
		accessSpecifier:  p.cur.currentAccess(),
		namespaceContext: p.cur.namespaceContext(),
	})
}

// noteMethod records override-resolution facts when the function is a
// member: in a record body (the access stack is live) or defined
// out-of-class under a qualified name.
func (p *Pipeline) noteMethod(node *tree_sitter.Node, id int64, qn string, declarator *tree_sitter.Node, returnText string, pure bool) {
	inClass := p.cur.currentAccess() != ""
	if !inClass && !strings.Contains(qn, "::") {
		return
	}
	fnDecl := findFunctionDeclarator(declarator)
	if fnDecl == nil {
		return
	}

	overrideKind := ""
	if spec := parser.FindChildByKind(fnDecl, "virtual_specifier"); spec != nil {
		overrideKind = parser.NodeText(spec, p.cur.source)
	}
	if pure {
		overrideKind = "pure"
	}

	p.pendingMethods = append(p.pendingMethods, &methodFacts{
		id:           id,
		qn:           qn,
		name:         fqn.Leaf(qn),
		paramCount:   countParameters(fnDecl),
		isVirtual:    parser.FindChildByKind(node, "virtual") != nil || pure,
		overrideKind: overrideKind,
		returnText:   strings.Join(strings.Fields(returnText), " "),
	})
}

// declaratorName descends a declarator chain to the node carrying the
// declared name, or nil for abstract declarators.
func declaratorName(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		switch node.Kind() {
		case "identifier", "field_identifier", "qualified_identifier",
			"destructor_name", "operator_name", "type_identifier",
			"template_function", "structured_binding_declarator":
			return node
		case "init_declarator", "pointer_declarator", "reference_declarator",
			"function_declarator", "array_declarator", "parenthesized_declarator":
			next := node.ChildByFieldName("declarator")
			if next == nil && node.NamedChildCount() > 0 {
				next = node.NamedChild(0)
			}
			node = next
		default:
			return nil
		}
	}
	return nil
}

// findFunctionDeclarator walks a declarator chain looking for the
// function declarator, so prototypes and functions returning pointers
// are both recognized.
func findFunctionDeclarator(node *tree_sitter.Node) *tree_sitter.Node {
	for node != nil {
		if node.Kind() == "function_declarator" {
			return node
		}
		node = node.ChildByFieldName("declarator")
	}
	return nil
}

func countParameters(fnDecl *tree_sitter.Node) int {
	params := fnDecl.ChildByFieldName("parameters")
	if params == nil {
		return 0
	}
	count := 0
	for i := uint(0); i < params.NamedChildCount(); i++ {
		c := params.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "parameter_declaration", "optional_parameter_declaration", "variadic_parameter_declaration":
			count++
		}
	}
	return count
}

// isPureVirtual detects the `= 0` trailing a method prototype.
func isPureVirtual(node *tree_sitter.Node, source []byte) bool {
	if dv := node.ChildByFieldName("default_value"); dv != nil {
		return strings.TrimSpace(parser.NodeText(dv, source)) == "0"
	}
	if num := parser.FindChildByKind(node, "number_literal"); num != nil {
		return strings.TrimSpace(parser.NodeText(num, source)) == "0"
	}
	return false
}

func storageClass(node *tree_sitter.Node, source []byte) string {
	if sc := parser.FindChildByKind(node, "storage_class_specifier"); sc != nil {
		return parser.NodeText(sc, source)
	}
	return ""
}

// isConstexprSpecified reports whether a declaration carries the
// constexpr qualifier, which makes its initializer a constant context.
func isConstexprSpecified(node *tree_sitter.Node, source []byte) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c != nil && c.Kind() == "type_qualifier" && parser.NodeText(c, source) == "constexpr" {
			return true
		}
	}
	return false
}

// childrenByField collects every child under a repeated field name, in
// source order. Declarations carry one declarator field per declared
// entity (int a, b, c).
func childrenByField(node *tree_sitter.Node, field string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			if c := node.Child(i); c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// unnamedFor synthesizes the display name of an anonymous entity in
// the form compilers print.
func unnamedFor(kind, location string) string {
	word := strings.TrimSuffix(kind, "_specifier")
	word = strings.TrimSuffix(word, "_definition")
	return fqn.Unnamed(word, location)
}

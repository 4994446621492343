package pipeline

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/fqn"
	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/lang"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// typeForDeclaration canonicalizes the declared type of one declarator:
// qualifiers from the declaration, the written base type, and whatever
// pointer, reference, or array shape the declarator chain adds.
func (p *Pipeline) typeForDeclaration(declNode, typeNode, declarator *tree_sitter.Node) int64 {
	return p.canonicalType(typeNode, typeQualifiers(declNode, p.cur.source), declaratorShape(declarator))
}

// typeFromDescriptor handles type_descriptor nodes (alias targets,
// template arguments), whose qualifiers and abstract declarator hang
// off the descriptor itself.
func (p *Pipeline) typeFromDescriptor(desc *tree_sitter.Node) int64 {
	typeNode := desc.ChildByFieldName("type")
	if typeNode == nil {
		typeNode = desc
	}
	return p.canonicalType(typeNode, typeQualifiers(desc, p.cur.source), declaratorShape(desc.ChildByFieldName("declarator")))
}

// typeNodeFor returns the canonical node for a bare type occurrence.
func (p *Pipeline) typeNodeFor(typeNode *tree_sitter.Node, quals string) int64 {
	return p.canonicalType(typeNode, quals, "")
}

// canonicalType returns the node id for a canonical type, creating the
// node on first sight. Every occurrence of the same qualified type
// collapses to one node; identity is the normalized written form plus
// qualifiers and declarator shape, which is stable across files and
// runs. Callers emit their HAS_TYPE edge regardless of whether the
// node was fresh.
func (p *Pipeline) canonicalType(typeNode *tree_sitter.Node, quals, shape string) int64 {
	kind := typeNode.Kind()
	text := strings.Join(strings.Fields(parser.NodeText(typeNode, p.cur.source)), " ")
	// Inline record specifiers in type position identify by tag, never
	// by body text. Two unnamed records are distinct types, and their
	// locations keep them so.
	if lang.IsRecord(kind) {
		if nameNode := typeNode.ChildByFieldName("name"); nameNode != nil {
			text = strings.TrimSuffix(kind, "_specifier") + " " + parser.NodeText(nameNode, p.cur.source)
		} else {
			text = unnamedFor(kind, parser.Location(typeNode, p.cur.path))
		}
	}
	name := text + shape
	if quals != "" {
		name = quals + " " + name
	}
	if id, ok := p.typeIDs[name]; ok {
		return id
	}

	key := ids.Key{Kind: "type:" + name}
	id, _ := p.reg.GetOrAssign(key)
	p.typeIDs[name] = id
	if !p.reg.HasBase(id) {
		p.reg.MarkBase(id)
		p.emitNodeRow(id, kind, parser.Location(typeNode, p.cur.path), fmt.Sprintf("0x%016x", key.Hash()))
	}
	category, builtin := typeCategory(kind, shape)
	p.emitTypeRow(id, name, category, quals, builtin)

	// A named user type refers back to its declaration; a template-type
	// occurrence implicitly specializes its primary template.
	switch kind {
	case "type_identifier":
		p.pending = append(p.pending, pendingEdge{
			table:      "node_references",
			sourceID:   id,
			candidates: p.cur.lookupCandidates(text),
			props:      map[string]string{"reference_kind": "type_use"},
		})
	case "qualified_identifier":
		p.pending = append(p.pending, pendingEdge{
			table:      "node_references",
			sourceID:   id,
			candidates: p.cur.lookupCandidates(fqn.StripTemplateArgs(text)),
			props:      map[string]string{"reference_kind": "type_use"},
		})
	case "template_type":
		p.pending = append(p.pending, pendingEdge{
			table:      "specializes",
			sourceID:   id,
			candidates: p.cur.lookupCandidates(fqn.StripTemplateArgs(text)),
			props: map[string]string{
				"specialization_kind": "implicit",
				"template_arguments":  fqn.TemplateArgs(text),
			},
		})
	}
	return id
}

func typeQualifiers(node *tree_sitter.Node, source []byte) string {
	var quals []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c != nil && c.Kind() == "type_qualifier" {
			quals = append(quals, parser.NodeText(c, source))
		}
	}
	return strings.Join(quals, " ")
}

// declaratorShape folds a declarator chain into the suffix it adds to
// the base type. Outer declarators prepend, so the result reads the
// way the type is written: pointer-to-reference comes out "*&".
func declaratorShape(node *tree_sitter.Node) string {
	shape := ""
	for node != nil {
		seg := ""
		switch node.Kind() {
		case "pointer_declarator", "abstract_pointer_declarator":
			seg = "*"
		case "reference_declarator", "abstract_reference_declarator":
			seg = "&"
			if c := node.Child(0); c != nil && c.Kind() == "&&" {
				seg = "&&"
			}
		case "array_declarator", "abstract_array_declarator":
			seg = "[]"
		case "init_declarator", "function_declarator", "abstract_function_declarator",
			"parenthesized_declarator", "abstract_parenthesized_declarator":
			// transparent for the value type
		default:
			return shape
		}
		shape = seg + shape
		next := node.ChildByFieldName("declarator")
		if next == nil && node.NamedChildCount() > 0 {
			next = node.NamedChild(0)
		}
		node = next
	}
	return shape
}

func typeCategory(kind, shape string) (category string, builtin bool) {
	switch {
	case strings.Contains(shape, "["):
		return "array", false
	case strings.Contains(shape, "*"):
		return "pointer", false
	case strings.Contains(shape, "&"):
		return "reference", false
	}
	switch kind {
	case "primitive_type", "sized_type_specifier":
		return "builtin", true
	case "template_type":
		return "template_specialization", false
	case "dependent_type":
		return "dependent", false
	case "placeholder_type_specifier", "auto":
		return "placeholder", false
	case "decltype":
		return "decltype", false
	case "enum_specifier":
		return "enum", false
	case "class_specifier", "struct_specifier", "union_specifier",
		"type_identifier", "qualified_identifier":
		return "record", false
	}
	return "other", false
}

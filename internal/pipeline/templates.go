package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/fqn"
	"github.com/cppgraph/cppgraph/internal/lang"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// processTemplate enriches template declarations: one row per template
// parameter, a declares edge to the templated entity, and a SPECIALIZES
// edge when the entity specializes a primary template.
func (p *Pipeline) processTemplate(node *tree_sitter.Node, id int64) {
	if node.Kind() == "template_instantiation" {
		p.noteExplicitInstantiation(node, id)
		return
	}

	paramCount := 0
	if params := parser.FindChildByKind(node, "template_parameter_list"); params != nil {
		paramCount = p.processTemplateParams(params)
	}

	inner := templatedEntity(node)
	if inner == nil {
		return
	}
	innerID := p.ensureNode(inner)
	p.relTemplateRelation(id, innerID, "declares")

	p.noteSpecialization(inner, innerID, paramCount)
}

// processTemplateParams emits one template_parameters row per
// parameter and returns how many it saw. Default arguments and packs
// are encoded in the parameter's node kind, so detection does not
// depend on grammar field names.
func (p *Pipeline) processTemplateParams(params *tree_sitter.Node) int {
	src := p.cur.source
	count := 0
	for i := uint(0); i < params.NamedChildCount(); i++ {
		c := params.NamedChild(i)
		if c == nil {
			continue
		}
		kind := c.Kind()
		var paramKind, name string
		switch kind {
		case "type_parameter_declaration", "optional_type_parameter_declaration",
			"variadic_type_parameter_declaration":
			paramKind = "type"
			if n := parser.FindChildByKind(c, "type_identifier"); n != nil {
				name = parser.NodeText(n, src)
			}
		case "template_template_parameter_declaration":
			paramKind = "template_template"
			if n := parser.FindChildByKind(c, "type_identifier"); n != nil {
				name = parser.NodeText(n, src)
			}
		case "parameter_declaration", "optional_parameter_declaration",
			"variadic_parameter_declaration":
			paramKind = "non_type"
			if n := declaratorName(c.ChildByFieldName("declarator")); n != nil {
				name = parser.NodeText(n, src)
			}
		default:
			continue
		}
		pid := p.ensureNode(c)
		p.emitTemplateParamRow(pid, paramKind, name,
			strings.HasPrefix(kind, "optional_"),
			strings.HasPrefix(kind, "variadic_"))
		count++
	}
	return count
}

// templatedEntity returns the declaration a template declares.
func templatedEntity(node *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil {
			continue
		}
		switch lang.Classify(c.Kind()) {
		case lang.Declaration, lang.Template:
			return c
		}
	}
	return nil
}

// noteSpecialization detects explicit and partial specializations by
// shape: a record named by a template_type, or a function whose
// declarator name carries template arguments. An empty parameter list
// marks the full (explicit) form.
func (p *Pipeline) noteSpecialization(inner *tree_sitter.Node, innerID int64, paramCount int) {
	src := p.cur.source
	written := ""

	switch {
	case lang.IsRecord(inner.Kind()):
		if name := inner.ChildByFieldName("name"); name != nil && name.Kind() == "template_type" {
			written = parser.NodeText(name, src)
		}
	case inner.Kind() == "function_definition" || inner.Kind() == "declaration":
		if name := declaratorName(inner.ChildByFieldName("declarator")); name != nil && name.Kind() == "template_function" {
			written = parser.NodeText(name, src)
		}
	}
	if written == "" {
		return
	}

	kind := "partial"
	if paramCount == 0 {
		kind = "explicit"
	}
	p.pending = append(p.pending, pendingEdge{
		table:      "specializes",
		sourceID:   innerID,
		candidates: p.cur.lookupCandidates(fqn.StripTemplateArgs(written)),
		props: map[string]string{
			"specialization_kind": kind,
			"template_arguments":  fqn.TemplateArgs(written),
		},
	})
}

// noteExplicitInstantiation handles `template class C<int>;`, which
// forces instantiation of an existing primary template.
func (p *Pipeline) noteExplicitInstantiation(node *tree_sitter.Node, id int64) {
	tt := parser.FindDescendantByKind(node, "template_type")
	if tt == nil {
		return
	}
	written := parser.NodeText(tt, p.cur.source)
	p.pending = append(p.pending, pendingEdge{
		table:      "specializes",
		sourceID:   id,
		candidates: p.cur.lookupCandidates(fqn.StripTemplateArgs(written)),
		props: map[string]string{
			"specialization_kind": "explicit",
			"template_arguments":  fqn.TemplateArgs(written),
		},
	})
}

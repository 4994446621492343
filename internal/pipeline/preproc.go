package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// processMacro records an object-like or function-like macro
// definition. Macros live outside the AST hierarchy, so they get a
// fact node in their own id space and no parent edge.
func (p *Pipeline) processMacro(node *tree_sitter.Node) *EnrichmentError {
	at := parser.Location(node, p.cur.path)
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return enrichErr("macro", at, "definition has no name")
	}
	name := parser.NodeText(nameNode, p.cur.source)

	functionLike := node.Kind() == "preproc_function_def"
	paramCount := 0
	if params := node.ChildByFieldName("parameters"); params != nil {
		paramCount = int(params.NamedChildCount())
	}

	replacement := ""
	if value := node.ChildByFieldName("value"); value != nil {
		replacement = strings.TrimSpace(parser.NodeText(value, p.cur.source))
	}

	id := p.createAuxNode(ids.SpaceMacro, node.Kind(), at)
	p.emitMacroRow(id, name, functionLike, paramCount, replacement)
	return nil
}

// processStaticAssert records a static assertion with its condition,
// optional message, and the verdict constant folding reaches. The
// condition is also a constant-expression context in its own right.
func (p *Pipeline) processStaticAssert(node *tree_sitter.Node) *EnrichmentError {
	at := parser.Location(node, p.cur.path)
	condNode := node.ChildByFieldName("condition")
	if condNode == nil {
		return enrichErr("static_assert", at, "assertion has no condition")
	}
	condition := parser.NodeText(condNode, p.cur.source)

	message := ""
	if msg := node.ChildByFieldName("message"); msg != nil {
		message = strings.Trim(parser.NodeText(msg, p.cur.source), `"`)
	}

	value, status := evalConstant(condNode, p.cur.source)
	result := "unknown"
	if status == statusConstant {
		result = "false"
		if value == "true" || (value != "false" && value != "0" && value != "") {
			result = "true"
		}
	}

	id := p.createAuxNode(ids.SpaceAssertion, node.Kind(), at)
	p.emitAssertionRow(id, condition, message, result)
	p.createConstantContext(condNode)
	return nil
}

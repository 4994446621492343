package pipeline

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/fqn"
	"github.com/cppgraph/cppgraph/internal/lang"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// processExpression enriches an expression-classified node: operator,
// literal value, a best-effort value category, and the folded value
// when the expression is compile-time constant.
func (p *Pipeline) processExpression(node *tree_sitter.Node, id int64) {
	src := p.cur.source
	kind := node.Kind()

	e := exprFacts{kind: kind}
	if lang.OperatorKind(kind) {
		if op := node.ChildByFieldName("operator"); op != nil {
			e.operatorKind = parser.NodeText(op, src)
		}
	}
	if lang.IsLiteral(kind) {
		e.literalValue = parser.NodeText(node, src)
	}
	e.valueCategory = valueCategory(node, src)

	value, status := evalConstant(node, src)
	if status == statusConstant {
		e.isConstexpr = true
		e.evaluation = value
	} else {
		e.evaluation = status
	}
	p.emitExpressionRow(id, e)

	if kind == "call_expression" {
		p.noteCall(node, id)
	}
}

// noteCall parks a call edge for end-of-run resolution against the
// callee's qualified name.
func (p *Pipeline) noteCall(node *tree_sitter.Node, id int64) {
	callee := node.ChildByFieldName("function")
	if callee == nil {
		return
	}
	src := p.cur.source
	name := ""
	switch callee.Kind() {
	case "identifier", "qualified_identifier", "template_function":
		name = parser.NodeText(callee, src)
	case "field_expression":
		// obj.method(...) resolves by method name alone; a miss is
		// dropped rather than guessed.
		if f := callee.ChildByFieldName("field"); f != nil {
			name = parser.NodeText(f, src)
		}
	}
	if name == "" {
		return
	}
	p.pending = append(p.pending, pendingEdge{
		table:      "node_references",
		sourceID:   id,
		candidates: p.cur.lookupCandidates(fqn.StripTemplateArgs(name)),
		props:      map[string]string{"reference_kind": "call"},
	})
}

// valueCategory approximates the C++ value category from syntax alone.
// Only the shapes syntax can commit to get a value; the rest stay
// empty.
func valueCategory(node *tree_sitter.Node, source []byte) string {
	kind := node.Kind()
	if lang.IsLiteral(kind) {
		// String literals designate arrays with storage.
		switch kind {
		case "string_literal", "raw_string_literal", "concatenated_string":
			return "lvalue"
		}
		return "prvalue"
	}
	switch kind {
	case "parenthesized_expression":
		if node.NamedChildCount() > 0 {
			return valueCategory(node.NamedChild(0), source)
		}
		return ""
	case "this", "new_expression", "lambda_expression", "sizeof_expression",
		"binary_expression", "cast_expression", "unary_expression":
		return "prvalue"
	case "field_expression", "subscript_expression", "assignment_expression":
		return "lvalue"
	case "pointer_expression":
		if op := node.ChildByFieldName("operator"); op != nil && parser.NodeText(op, source) == "*" {
			return "lvalue"
		}
		return "prvalue"
	case "update_expression":
		if op := node.ChildByFieldName("operator"); op != nil {
			if op.StartByte() == node.StartByte() {
				return "lvalue"
			}
			return "prvalue"
		}
	}
	return ""
}

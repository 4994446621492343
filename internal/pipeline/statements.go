package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/lang"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// processStatement enriches a statement-classified node: its kind, the
// control-flow subtype when it branches or loops, and the condition
// text when the grammar exposes one.
func (p *Pipeline) processStatement(node *tree_sitter.Node, id int64) {
	kind := node.Kind()
	p.emitStatementRow(id, kind, lang.ControlFlowType(kind), conditionText(node, p.cur.source))

	// Case labels require compile-time constants.
	if kind == "case_statement" {
		if v := node.ChildByFieldName("value"); v != nil {
			p.createConstantContext(v)
		}
	}
}

// conditionText extracts a statement's condition as written, without
// the grammar's wrapping parentheses.
func conditionText(node *tree_sitter.Node, source []byte) string {
	c := node.ChildByFieldName("condition")
	if c == nil {
		return ""
	}
	text := strings.Join(strings.Fields(parser.NodeText(c, source)), " ")
	switch c.Kind() {
	case "condition_clause", "parenthesized_expression":
		text = strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	}
	return strings.TrimSpace(text)
}

// createConstantContext records an expression the language requires to
// be a compile-time constant, with its evaluated value when folding
// succeeds and the failure status when it does not.
func (p *Pipeline) createConstantContext(expr *tree_sitter.Node) {
	text := parser.NodeText(expr, p.cur.source)
	value, status := evalConstant(expr, p.cur.source)
	id := p.createAuxNode(ids.SpaceConstExpr, "constant_expression", parser.Location(expr, p.cur.path))
	p.emitConstExprRow(id, text, value, status)
}

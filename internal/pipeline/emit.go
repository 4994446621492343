package pipeline

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/parser"
	"github.com/cppgraph/cppgraph/internal/store"
)

// This file is the node/relationship primitive layer: the only code
// that builds INSERT statements. Analyzers hand it ids and already
// extracted values; every string value passes through store.Quote*.

// addToBatch funnels one statement into the batcher. A failed Add
// means the sink itself died, which ends the run; the error is parked
// on the pipeline and checked between files.
func (p *Pipeline) addToBatch(stmt string) {
	if p.err != nil {
		return
	}
	if err := p.batch.Add(stmt); err != nil {
		p.err = err
	}
}

// nodeKey builds the identity key for a tree-sitter node in the
// current file.
func (p *Pipeline) nodeKey(node *tree_sitter.Node) ids.Key {
	return ids.Key{
		File:      p.cur.path,
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
		Kind:      node.Kind(),
	}
}

// ensureNode resolves (or assigns) the node's id and emits its base
// row exactly once, no matter how many paths reach the node.
func (p *Pipeline) ensureNode(node *tree_sitter.Node) int64 {
	key := p.nodeKey(node)
	id, _ := p.reg.GetOrAssign(key)
	if !p.reg.HasBase(id) {
		p.reg.MarkBase(id)
		p.emitNodeRow(id, node.Kind(), parser.Location(node, p.cur.path), fmt.Sprintf("0x%016x", key.Hash()))
	}
	return id
}

// createAuxNode mints a node in an auxiliary id space (CFG block,
// comment, macro, constant expression, assertion) and emits its base
// row. Aux nodes have no tree-sitter identity; their address field
// carries the id itself.
func (p *Pipeline) createAuxNode(sp ids.Space, nodeType, location string) int64 {
	id := p.reg.NextAux(sp)
	p.reg.MarkBase(id)
	p.emitNodeRow(id, nodeType, location, fmt.Sprintf("0x%016x", uint64(id)))
	return id
}

func (p *Pipeline) emitNodeRow(id int64, nodeType, location, address string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO ast_nodes (node_id, node_type, source_location, memory_address) VALUES (%d, %s, %s, %s)",
		id, store.QuoteString(nodeType), store.QuoteString(location), store.QuoteString(address)))
	p.stats.Nodes++
}

// relParentOf records structural hierarchy. The child index is the
// node's position among its parent's named children, so argument and
// statement order is recoverable from the graph regardless of batch
// execution order.
func (p *Pipeline) relParentOf(parentID, childID int64, index int) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO parent_of (parent_id, child_id, child_index) VALUES (%d, %d, %d)",
		parentID, childID, index))
	p.stats.Relations++
}

func (p *Pipeline) relHasType(declID, typeID int64) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO has_type (decl_id, type_id) VALUES (%d, %d)",
		declID, typeID))
	p.stats.Relations++
}

func (p *Pipeline) relReferences(fromID, toID int64, kind string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO node_references (from_id, to_id, reference_kind) VALUES (%d, %d, %s)",
		fromID, toID, store.QuoteString(kind)))
	p.stats.Relations++
}

func (p *Pipeline) relInScope(nodeID, scopeID int64, kind string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO in_scope (node_id, scope_id, scope_kind) VALUES (%d, %d, %s)",
		nodeID, scopeID, store.QuoteString(kind)))
	p.stats.Relations++
}

func (p *Pipeline) relInheritsFrom(derivedID, baseID int64, access string, virtual bool) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO inherits_from (derived_id, base_id, access_specifier, is_virtual) VALUES (%d, %d, %s, %s)",
		derivedID, baseID, store.QuoteString(access), store.QuoteBool(virtual)))
	p.stats.Relations++
}

func (p *Pipeline) relOverrides(overrideID, baseID int64, kind string, covariant bool) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO overrides (override_id, base_id, override_kind, is_covariant) VALUES (%d, %d, %s, %s)",
		overrideID, baseID, store.QuoteString(kind), store.QuoteBool(covariant)))
	p.stats.Relations++
}

func (p *Pipeline) relTemplateRelation(fromID, toID int64, kind string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO template_relation (from_id, to_id, relation_kind) VALUES (%d, %d, %s)",
		fromID, toID, store.QuoteString(kind)))
	p.stats.Relations++
}

func (p *Pipeline) relSpecializes(specID, templateID int64, kind, args string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO specializes (specialization_id, template_id, specialization_kind, template_arguments) VALUES (%d, %d, %s, %s)",
		specID, templateID, store.QuoteString(kind), store.QuoteString(args)))
	p.stats.Relations++
}

func (p *Pipeline) relHasComment(declID, commentID int64) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO has_comment (decl_id, comment_id) VALUES (%d, %d)",
		declID, commentID))
	p.stats.Relations++
}

func (p *Pipeline) relCFGEdge(sourceID, targetID int64, edgeType, condition string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO cfg_edges (source_block_id, target_block_id, edge_type, condition) VALUES (%d, %d, %s, %s)",
		sourceID, targetID, store.QuoteString(edgeType), store.QuoteString(condition)))
	p.stats.Relations++
}

// declFacts is everything the declaration analyzer extracts for one
// declarations row.
type declFacts struct {
	name             string
	qualifiedName    string
	accessSpecifier  string
	storageClass     string
	isDefinition     bool
	namespaceContext string
}

// emitDeclarationRow writes the specialized declarations row, at most
// once per id.
func (p *Pipeline) emitDeclarationRow(id int64, d declFacts) {
	if p.reg.HasSpecialized(id, ids.SpecDeclaration) {
		return
	}
	p.reg.MarkSpecialized(id, ids.SpecDeclaration)
	if d.accessSpecifier == "" {
		d.accessSpecifier = "none"
	}
	if d.storageClass == "" {
		d.storageClass = "none"
	}
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO declarations (node_id, name, qualified_name, access_specifier, storage_class, is_definition, namespace_context) VALUES (%d, %s, %s, %s, %s, %s, %s)",
		id,
		store.QuoteString(d.name),
		store.QuoteString(d.qualifiedName),
		store.QuoteString(d.accessSpecifier),
		store.QuoteString(d.storageClass),
		store.QuoteBool(d.isDefinition),
		store.QuoteString(d.namespaceContext)))
}

func (p *Pipeline) emitTypeRow(id int64, name, category, qualifiers string, builtin bool) {
	if p.reg.HasSpecialized(id, ids.SpecType) {
		return
	}
	p.reg.MarkSpecialized(id, ids.SpecType)
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO types (node_id, type_name, type_category, qualifiers, is_builtin) VALUES (%d, %s, %s, %s, %s)",
		id,
		store.QuoteString(name),
		store.QuoteString(category),
		store.QuoteString(qualifiers),
		store.QuoteBool(builtin)))
}

func (p *Pipeline) emitStatementRow(id int64, kind, controlFlowType, conditionText string) {
	if p.reg.HasSpecialized(id, ids.SpecStatement) {
		return
	}
	p.reg.MarkSpecialized(id, ids.SpecStatement)
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO statements (node_id, statement_kind, control_flow_type, condition_text) VALUES (%d, %s, %s, %s)",
		id,
		store.QuoteString(kind),
		store.QuoteString(controlFlowType),
		store.QuoteString(conditionText)))
}

// exprFacts is everything the expression analyzer extracts for one
// expressions row.
type exprFacts struct {
	kind          string
	valueCategory string
	literalValue  string
	operatorKind  string
	isConstexpr   bool
	evaluation    string
}

func (p *Pipeline) emitExpressionRow(id int64, e exprFacts) {
	if p.reg.HasSpecialized(id, ids.SpecExpression) {
		return
	}
	p.reg.MarkSpecialized(id, ids.SpecExpression)
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO expressions (node_id, expression_kind, value_category, literal_value, operator_kind, is_constexpr, evaluation_result) VALUES (%d, %s, %s, %s, %s, %s, %s)",
		id,
		store.QuoteString(e.kind),
		store.QuoteString(e.valueCategory),
		store.QuoteString(e.literalValue),
		store.QuoteString(e.operatorKind),
		store.QuoteBool(e.isConstexpr),
		store.QuoteString(e.evaluation)))
}

func (p *Pipeline) emitTemplateParamRow(id int64, kind, name string, hasDefault, isPack bool) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO template_parameters (node_id, parameter_kind, parameter_name, has_default_argument, is_parameter_pack) VALUES (%d, %s, %s, %s, %s)",
		id,
		store.QuoteString(kind),
		store.QuoteString(name),
		store.QuoteBool(hasDefault),
		store.QuoteBool(isPack)))
}

// cfgBlockRow mirrors the cfg_blocks table.
type cfgBlockRow struct {
	functionID  int64
	index       int
	isEntry     bool
	isExit      bool
	terminator  string
	content     string
	condition   string
	reachable   bool
}

func (p *Pipeline) emitCFGBlockRow(id int64, b cfgBlockRow) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO cfg_blocks (node_id, function_id, block_index, is_entry_block, is_exit_block, terminator_kind, block_content, condition_expression, reachable) VALUES (%d, %d, %d, %s, %s, %s, %s, %s, %s)",
		id, b.functionID, b.index,
		store.QuoteBool(b.isEntry),
		store.QuoteBool(b.isExit),
		store.QuoteString(b.terminator),
		store.QuoteString(b.content),
		store.QuoteString(b.condition),
		store.QuoteBool(b.reachable)))
}

func (p *Pipeline) emitCommentRow(id int64, text, kind string, isDoc bool, brief, detailed string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO comments (node_id, comment_text, comment_kind, is_documentation, brief_text, detailed_text) VALUES (%d, %s, %s, %s, %s, %s)",
		id,
		store.QuoteString(text),
		store.QuoteString(kind),
		store.QuoteBool(isDoc),
		store.QuoteString(brief),
		store.QuoteString(detailed)))
}

func (p *Pipeline) emitMacroRow(id int64, name string, functionLike bool, paramCount int, replacement string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO macro_definitions (node_id, macro_name, is_function_like, parameter_count, replacement_text) VALUES (%d, %s, %s, %d, %s)",
		id,
		store.QuoteString(name),
		store.QuoteBool(functionLike),
		paramCount,
		store.QuoteString(replacement)))
}

func (p *Pipeline) emitConstExprRow(id int64, text, value, status string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO constant_expressions (node_id, expression_text, evaluated_value, evaluation_status) VALUES (%d, %s, %s, %s)",
		id,
		store.QuoteString(text),
		store.QuoteString(value),
		store.QuoteString(status)))
}

func (p *Pipeline) emitAssertionRow(id int64, condition, message, result string) {
	p.addToBatch(fmt.Sprintf(
		"INSERT INTO static_assertions (node_id, condition_text, message, assertion_result) VALUES (%d, %s, %s, %s)",
		id,
		store.QuoteString(condition),
		store.QuoteString(message),
		store.QuoteString(result)))
}

package store

// schema is the full graph DDL: one table per node kind layered over the
// ast_nodes base table, and one table per relationship kind. Every edge
// endpoint references ast_nodes, so a dangling endpoint is rejected by
// the engine rather than silently stored.
const schema = `
CREATE TABLE IF NOT EXISTS ast_nodes (
	node_id INTEGER PRIMARY KEY,
	node_type TEXT NOT NULL,
	source_location TEXT NOT NULL DEFAULT '',
	memory_address TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_ast_nodes_type ON ast_nodes(node_type);

CREATE TABLE IF NOT EXISTS declarations (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	name TEXT NOT NULL DEFAULT '',
	qualified_name TEXT NOT NULL DEFAULT '',
	access_specifier TEXT NOT NULL DEFAULT 'none',
	storage_class TEXT NOT NULL DEFAULT 'none',
	is_definition INTEGER NOT NULL DEFAULT 0,
	namespace_context TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_declarations_qn ON declarations(qualified_name);
CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(name);

CREATE TABLE IF NOT EXISTS types (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	type_name TEXT NOT NULL DEFAULT '',
	type_category TEXT NOT NULL DEFAULT '',
	qualifiers TEXT NOT NULL DEFAULT '',
	is_builtin INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_types_name ON types(type_name);

CREATE TABLE IF NOT EXISTS statements (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	statement_kind TEXT NOT NULL DEFAULT '',
	control_flow_type TEXT NOT NULL DEFAULT '',
	condition_text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS expressions (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	expression_kind TEXT NOT NULL DEFAULT '',
	value_category TEXT NOT NULL DEFAULT '',
	literal_value TEXT NOT NULL DEFAULT '',
	operator_kind TEXT NOT NULL DEFAULT '',
	is_constexpr INTEGER NOT NULL DEFAULT 0,
	evaluation_result TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS template_parameters (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	parameter_kind TEXT NOT NULL DEFAULT '',
	parameter_name TEXT NOT NULL DEFAULT '',
	has_default_argument INTEGER NOT NULL DEFAULT 0,
	is_parameter_pack INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cfg_blocks (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	function_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	block_index INTEGER NOT NULL DEFAULT 0,
	is_entry_block INTEGER NOT NULL DEFAULT 0,
	is_exit_block INTEGER NOT NULL DEFAULT 0,
	terminator_kind TEXT NOT NULL DEFAULT '',
	block_content TEXT NOT NULL DEFAULT '',
	condition_expression TEXT NOT NULL DEFAULT '',
	reachable INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_cfg_blocks_function ON cfg_blocks(function_id);

CREATE TABLE IF NOT EXISTS comments (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	comment_text TEXT NOT NULL DEFAULT '',
	comment_kind TEXT NOT NULL DEFAULT 'regular',
	is_documentation INTEGER NOT NULL DEFAULT 0,
	brief_text TEXT NOT NULL DEFAULT '',
	detailed_text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS macro_definitions (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	macro_name TEXT NOT NULL DEFAULT '',
	is_function_like INTEGER NOT NULL DEFAULT 0,
	parameter_count INTEGER NOT NULL DEFAULT 0,
	replacement_text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS constant_expressions (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	expression_text TEXT NOT NULL DEFAULT '',
	evaluated_value TEXT NOT NULL DEFAULT '',
	evaluation_status TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS static_assertions (
	node_id INTEGER PRIMARY KEY REFERENCES ast_nodes(node_id),
	condition_text TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL DEFAULT '',
	assertion_result TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS parent_of (
	parent_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	child_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	child_index INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_parent_of_parent ON parent_of(parent_id);
CREATE INDEX IF NOT EXISTS idx_parent_of_child ON parent_of(child_id);

CREATE TABLE IF NOT EXISTS has_type (
	decl_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	type_id INTEGER NOT NULL REFERENCES ast_nodes(node_id)
);

CREATE INDEX IF NOT EXISTS idx_has_type_decl ON has_type(decl_id);

CREATE TABLE IF NOT EXISTS node_references (
	from_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	to_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	reference_kind TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_node_references_to ON node_references(to_id);

CREATE TABLE IF NOT EXISTS in_scope (
	node_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	scope_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	scope_kind TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_in_scope_scope ON in_scope(scope_id);

CREATE TABLE IF NOT EXISTS inherits_from (
	derived_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	base_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	access_specifier TEXT NOT NULL DEFAULT 'public',
	is_virtual INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS overrides (
	override_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	base_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	override_kind TEXT NOT NULL DEFAULT 'override',
	is_covariant INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS template_relation (
	from_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	to_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	relation_kind TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS specializes (
	specialization_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	template_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	specialization_kind TEXT NOT NULL DEFAULT '',
	template_arguments TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS has_comment (
	decl_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	comment_id INTEGER NOT NULL REFERENCES ast_nodes(node_id)
);

CREATE TABLE IF NOT EXISTS cfg_edges (
	source_block_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	target_block_id INTEGER NOT NULL REFERENCES ast_nodes(node_id),
	edge_type TEXT NOT NULL DEFAULT '',
	condition TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_cfg_edges_source ON cfg_edges(source_block_id);
`

func (s *Store) initSchema() error {
	_, err := s.db.Exec(schema)
	return err
}

// SchemaSQL returns the graph DDL, for dump preambles.
func SchemaSQL() string {
	return schema
}

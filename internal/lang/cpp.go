package lang

// SourceExtensions are the translation-unit extensions accepted from a
// compilation database.
var SourceExtensions = []string{".cpp", ".cc", ".cxx", ".c++", ".C", ".c", ".ixx", ".cppm", ".ccm"}

// HeaderExtensions are the extensions include-following will parse.
var HeaderExtensions = []string{".h", ".hpp", ".hxx", ".hh", ".inl", ".ipp", ".ixx"}

var declarationKinds = map[string]bool{
	"function_definition":            true,
	"declaration":                    true,
	"field_declaration":              true,
	"parameter_declaration":          true,
	"optional_parameter_declaration": true,
	"variadic_parameter_declaration": true,
	"class_specifier":                true,
	"struct_specifier":               true,
	"union_specifier":                true,
	"enum_specifier":                 true,
	"enumerator":                     true,
	"namespace_definition":           true,
	"namespace_alias_definition":     true,
	"using_declaration":              true,
	"alias_declaration":              true,
	"type_definition":                true,
	"friend_declaration":             true,
	"concept_definition":             true,
}

var statementKinds = map[string]bool{
	"compound_statement":   true,
	"expression_statement": true,
	"if_statement":         true,
	"while_statement":      true,
	"do_statement":         true,
	"for_statement":        true,
	"for_range_loop":       true,
	"switch_statement":     true,
	"case_statement":       true,
	"break_statement":      true,
	"continue_statement":   true,
	"return_statement":     true,
	"goto_statement":       true,
	"labeled_statement":    true,
	"try_statement":        true,
	"catch_clause":         true,
	"throw_statement":      true,
	"co_return_statement":  true,
}

var expressionKinds = map[string]bool{
	"call_expression":          true,
	"binary_expression":        true,
	"unary_expression":         true,
	"update_expression":        true,
	"assignment_expression":    true,
	"conditional_expression":   true,
	"comma_expression":         true,
	"cast_expression":          true,
	"sizeof_expression":        true,
	"new_expression":           true,
	"delete_expression":        true,
	"lambda_expression":        true,
	"subscript_expression":     true,
	"field_expression":         true,
	"pointer_expression":       true,
	"parenthesized_expression": true,
	"initializer_list":         true,
	"fold_expression":          true,
	"co_await_expression":      true,
	"number_literal":           true,
	"string_literal":           true,
	"raw_string_literal":       true,
	"concatenated_string":      true,
	"char_literal":             true,
	"user_defined_literal":     true,
	"true":                     true,
	"false":                    true,
	"null":                     true,
	"this":                     true,
}

var literalKinds = map[string]bool{
	"number_literal":       true,
	"string_literal":       true,
	"raw_string_literal":   true,
	"concatenated_string":  true,
	"char_literal":         true,
	"user_defined_literal": true,
	"true":                 true,
	"false":                true,
	"null":                 true,
}

var typeKinds = map[string]bool{
	"primitive_type":             true,
	"type_identifier":            true,
	"sized_type_specifier":       true,
	"template_type":              true,
	"dependent_type":             true,
	"placeholder_type_specifier": true,
	"decltype":                   true,
}

var preprocKinds = map[string]bool{
	"preproc_def":          true,
	"preproc_function_def": true,
}

// controlFlowKinds maps statement kinds to the control_flow_type value
// stored on their rows.
var controlFlowKinds = map[string]string{
	"if_statement":        "if",
	"while_statement":     "while",
	"do_statement":        "do",
	"for_statement":       "for",
	"for_range_loop":      "range_for",
	"switch_statement":    "switch",
	"case_statement":      "case",
	"break_statement":     "break",
	"continue_statement":  "continue",
	"return_statement":    "return",
	"goto_statement":      "goto",
	"labeled_statement":   "label",
	"try_statement":       "try",
	"catch_clause":        "catch",
	"throw_statement":     "throw",
	"co_return_statement": "co_return",
}

// scopeKinds maps scope-introducing node kinds to the scope_kind value
// stored on IN_SCOPE edges. The translation unit root is the global
// scope, so file-level declarations always have an enclosing scope.
var scopeKinds = map[string]string{
	"translation_unit":      "file",
	"namespace_definition":  "namespace",
	"class_specifier":       "class",
	"struct_specifier":      "class",
	"union_specifier":       "class",
	"enum_specifier":        "enum",
	"function_definition":   "function",
	"lambda_expression":     "lambda",
	"compound_statement":    "block",
	"linkage_specification": "linkage",
}

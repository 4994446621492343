package lang

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		kind  string
		class Class
	}{
		{"function_definition", Declaration},
		{"declaration", Declaration},
		{"field_declaration", Declaration},
		{"class_specifier", Declaration},
		{"namespace_definition", Declaration},
		{"enumerator", Declaration},
		{"alias_declaration", Declaration},
		{"if_statement", Statement},
		{"for_range_loop", Statement},
		{"compound_statement", Statement},
		{"return_statement", Statement},
		{"call_expression", Expression},
		{"binary_expression", Expression},
		{"number_literal", Expression},
		{"lambda_expression", Expression},
		{"primitive_type", Type},
		{"type_identifier", Type},
		{"template_declaration", Template},
		{"template_instantiation", Template},
		{"preproc_def", Preproc},
		{"preproc_function_def", Preproc},
		{"static_assert_declaration", Assertion},
		{"comment", Comment},
		{"translation_unit", Other},
		{"identifier", Other},
		{"no_such_kind", Other},
	}
	for _, tt := range tests {
		if got := Classify(tt.kind); got != tt.class {
			t.Errorf("Classify(%q) = %s, want %s", tt.kind, got, tt.class)
		}
	}
}

func TestControlFlowType(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"if_statement", "if"},
		{"while_statement", "while"},
		{"for_statement", "for"},
		{"for_range_loop", "range_for"},
		{"switch_statement", "switch"},
		{"catch_clause", "catch"},
		{"expression_statement", ""},
		{"compound_statement", ""},
	}
	for _, tt := range tests {
		if got := ControlFlowType(tt.kind); got != tt.want {
			t.Errorf("ControlFlowType(%q) = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestScopeKinds(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"translation_unit", "file"},
		{"namespace_definition", "namespace"},
		{"class_specifier", "class"},
		{"struct_specifier", "class"},
		{"function_definition", "function"},
		{"compound_statement", "block"},
		{"lambda_expression", "lambda"},
		{"if_statement", ""},
	}
	for _, tt := range tests {
		if got := ScopeKind(tt.kind); got != tt.want {
			t.Errorf("ScopeKind(%q) = %q, want %q", tt.kind, got, tt.want)
		}
		if (tt.want != "") != IsScopeIntroducing(tt.kind) {
			t.Errorf("IsScopeIntroducing(%q) inconsistent with ScopeKind", tt.kind)
		}
	}
}

func TestOperatorAndLiteralPredicates(t *testing.T) {
	if !OperatorKind("binary_expression") || !OperatorKind("assignment_expression") {
		t.Error("operator-bearing kinds not recognized")
	}
	if OperatorKind("call_expression") {
		t.Error("call_expression should not be operator-bearing")
	}
	if !IsLiteral("number_literal") || !IsLiteral("true") {
		t.Error("literal kinds not recognized")
	}
	if IsLiteral("binary_expression") {
		t.Error("binary_expression is not a literal")
	}
}

func TestClassString(t *testing.T) {
	if Declaration.String() != "declaration" || Other.String() != "other" {
		t.Errorf("Class.String: got %s/%s", Declaration, Other)
	}
}

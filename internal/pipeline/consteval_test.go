package pipeline

import (
	"testing"

	"github.com/cppgraph/cppgraph/internal/parser"
)

// TestEvalConstant drives the folder through source fragments the way
// the indexer sees them: each expression is parsed as a parenthesized
// variable initializer and folded from the tree.
func TestEvalConstant(t *testing.T) {
	tests := []struct {
		expr   string
		value  string
		status string
	}{
		{"1 + 2", "3", statusConstant},
		{"2 * (3 + 4)", "14", statusConstant},
		{"(1 + 2) * 3", "9", statusConstant},
		{"7 % 3", "1", statusConstant},
		{"10 / 0", "", statusUndefined},
		{"10 % 0", "", statusUndefined},
		{"1 << 4", "16", statusConstant},
		{"255 >> 4", "15", statusConstant},
		{"1 << 64", "", statusUndefined},
		{"-5", "-5", statusConstant},
		{"!0", "true", statusConstant},
		{"~0", "-1", statusConstant},
		{"1 < 2", "true", statusConstant},
		{"3 == 4", "false", statusConstant},
		{"true && false", "false", statusConstant},
		{"0 && not_declared", "false", statusConstant},
		{"1 || not_declared", "true", statusConstant},
		{"1 ? 10 : 20", "10", statusConstant},
		{"0 ? 10 : 20", "20", statusConstant},
		{"1, 2", "2", statusConstant},
		{"(long)7", "7", statusConstant},
		{"1.5 + 0.25", "1.75", statusConstant},
		{"3.0 / 0.0", "", statusUndefined},
		{"2.5f", "2.5", statusConstant},
		{"'A'", "65", statusConstant},
		{"'\\n'", "10", statusConstant},
		{"0x1F", "31", statusConstant},
		{"0b101", "5", statusConstant},
		{"1'000'000", "1000000", statusConstant},
		{"100u", "100", statusConstant},
		{"nullptr", "nullptr", statusConstant},
		{"count", "", statusNotConstant},
		{"sizeof(int)", "", statusDependent},
		{"alignof(int)", "", statusDependent},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			src := []byte("int x = (" + tt.expr + ");")
			tree, err := parser.Parse(src)
			if err != nil {
				t.Fatal(err)
			}
			defer tree.Close()

			init := parser.FindDescendantByKind(tree.RootNode(), "init_declarator")
			if init == nil {
				t.Fatalf("no init_declarator in %q", tt.expr)
			}
			value := init.ChildByFieldName("value")
			if value == nil {
				t.Fatalf("no value field in %q", tt.expr)
			}

			gotValue, gotStatus := evalConstant(value, src)
			if gotValue != tt.value || gotStatus != tt.status {
				t.Errorf("evalConstant(%s) = (%q, %s), want (%q, %s)",
					tt.expr, gotValue, gotStatus, tt.value, tt.status)
			}
		})
	}
}

package parser

import (
	"strings"
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func TestParseFunctions(t *testing.T) {
	source := []byte(`int add(int a, int b) {
	return a + b;
}

void greet() {
}
`)
	tree, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		t.Fatal("root node is nil")
	}
	if root.Kind() != "translation_unit" {
		t.Errorf("root kind = %q, want translation_unit", root.Kind())
	}

	var funcCount int
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_definition" {
			funcCount++
		}
		return true
	})
	if funcCount != 2 {
		t.Errorf("expected 2 function_definitions, got %d", funcCount)
	}
}

func TestParseClassWithBase(t *testing.T) {
	source := []byte(`namespace N {
class C : public Base {
	virtual void f() override;
};
}
`)
	tree, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	ns := FindDescendantByKind(tree.RootNode(), "namespace_definition")
	if ns == nil {
		t.Fatal("no namespace_definition found")
	}
	nameNode := ns.ChildByFieldName("name")
	if nameNode == nil || NodeText(nameNode, source) != "N" {
		t.Fatalf("namespace name not extracted")
	}

	cls := FindDescendantByKind(tree.RootNode(), "class_specifier")
	if cls == nil {
		t.Fatal("no class_specifier found")
	}
	if base := FindChildByKind(cls, "base_class_clause"); base == nil {
		t.Error("class_specifier missing base_class_clause child")
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	source := []byte(`int main() { int x = 1; return x; }`)
	tree, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	var visited []string
	Walk(tree.RootNode(), func(n *tree_sitter.Node) bool {
		visited = append(visited, n.Kind())
		// Do not descend into the function body.
		return n.Kind() != "function_definition"
	})
	for _, kind := range visited {
		if kind == "return_statement" {
			t.Error("Walk descended into skipped subtree")
		}
	}
}

func TestNodeText(t *testing.T) {
	source := []byte(`int value = 42;`)
	tree, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	lit := FindDescendantByKind(tree.RootNode(), "number_literal")
	if lit == nil {
		t.Fatal("no number_literal found")
	}
	if got := NodeText(lit, source); got != "42" {
		t.Errorf("NodeText = %q, want 42", got)
	}
}

func TestLocation(t *testing.T) {
	source := []byte("int a;\nint b;\n")
	tree, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.NamedChildCount() < 2 {
		t.Fatalf("expected 2 declarations, got %d", root.NamedChildCount())
	}
	second := root.NamedChild(1)
	loc := Location(second, "test.cpp")
	if !strings.HasPrefix(loc, "test.cpp:2:") {
		t.Errorf("Location = %q, want prefix test.cpp:2:", loc)
	}
}

func TestParsePooledReuse(t *testing.T) {
	// Consecutive parses must be independent trees.
	first, err := Parse([]byte(`int a;`))
	if err != nil {
		t.Fatalf("first Parse: %v", err)
	}
	defer first.Close()
	second, err := Parse([]byte(`int b; int c;`))
	if err != nil {
		t.Fatalf("second Parse: %v", err)
	}
	defer second.Close()

	if first.RootNode().NamedChildCount() != 1 {
		t.Errorf("first tree: got %d decls, want 1", first.RootNode().NamedChildCount())
	}
	if second.RootNode().NamedChildCount() != 2 {
		t.Errorf("second tree: got %d decls, want 2", second.RootNode().NamedChildCount())
	}
}

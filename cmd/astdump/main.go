// astdump prints the tree-sitter parse tree of C++ sources, one node
// per line with its field name and a source snippet. Development aid
// for checking what the grammar produces before teaching the pipeline
// a new node kind.
//
// Usage: astdump FILE... (or a snippet on stdin).
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/parser"
)

func printTree(node *tree_sitter.Node, source []byte, field string, indent int) {
	if node == nil {
		return
	}
	text := parser.NodeText(node, source)
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	label := node.Kind()
	if field != "" {
		label = field + ": " + label
	}
	fmt.Printf("%s%s %q\n", strings.Repeat("  ", indent), label, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if !child.IsNamed() {
			continue
		}
		printTree(child, source, node.FieldNameForChild(uint32(i)), indent+1)
	}
}

func dump(name string, source []byte) error {
	tree, err := parser.Parse(source)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer tree.Close()
	fmt.Printf("=== %s ===\n", name)
	printTree(tree.RootNode(), source, "", 0)
	return nil
}

func main() {
	if len(os.Args) < 2 {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := dump("stdin", source); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	for _, path := range os.Args[1:] {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := dump(path, source); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

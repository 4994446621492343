package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/lang"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// indexTranslationUnit traverses one parsed file. A file already
// indexed in this run (a header reached from several translation
// units, or listed in the database itself) is skipped, which is what
// keeps shared entities single-noded across the whole graph.
func (p *Pipeline) indexTranslationUnit(pf *parsedFile) {
	if p.visited[pf.Path] {
		return
	}
	p.visited[pf.Path] = true

	if !p.cfg.Index.NoFollowIncludes {
		p.followIncludes(pf)
	}

	prev := p.cur
	p.cur = &fileState{path: pf.Path, source: pf.Source}
	defer func() { p.cur = prev }()

	root := pf.Tree.RootNode()
	p.visit(root, 0)
	p.processComments(root)

	p.stats.Files++
	slog.Debug("index.file", "path", pf.Path)
}

// visit is the dispatch driver: resolve identity, materialize the base
// row, link into the hierarchy, hand the node to its analyzer, then
// recurse. Reports whether the node entered the structural hierarchy,
// so child indexes stay contiguous when siblings (comments, type
// occurrences) do not.
func (p *Pipeline) visit(node *tree_sitter.Node, childIndex int) bool {
	kind := node.Kind()

	switch lang.Classify(kind) {
	case lang.Comment:
		// The comment pass owns these.
		return false
	case lang.Preproc:
		if encErr := p.processMacro(node); encErr != nil {
			slog.Warn("macro.skip", "at", parser.Location(node, p.cur.path), "err", encErr)
		}
		return false
	case lang.Assertion:
		if encErr := p.processStaticAssert(node); encErr != nil {
			slog.Warn("assert.skip", "at", parser.Location(node, p.cur.path), "err", encErr)
		}
		return false
	case lang.Type:
		// Type occurrences collapse into canonical type nodes; the
		// syntax node itself does not join the hierarchy.
		p.typeNodeFor(node, "")
		return false
	}

	id := p.ensureNode(node)
	if parent := p.cur.currentParent(); parent != 0 {
		p.relParentOf(parent, id, childIndex)
	}

	if kind == "access_specifier" {
		p.cur.setAccess(strings.TrimSuffix(parser.NodeText(node, p.cur.source), ":"))
	}

	class := lang.Classify(kind)
	switch class {
	case lang.Declaration:
		p.processDeclaration(node, id)
	case lang.Statement:
		p.processStatement(node, id)
	case lang.Expression:
		p.processExpression(node, id)
	case lang.Template:
		p.processTemplate(node, id)
	}

	if class == lang.Declaration || class == lang.Statement {
		p.createScopeRelationships(id)
	}

	pushedScope, pushedName, pushedAccess := p.enterContext(node, id, kind)
	p.cur.pushParent(id)
	defer func() {
		p.cur.popParent()
		if pushedAccess {
			p.cur.popAccess()
		}
		if pushedName {
			p.cur.popName()
		}
		if pushedScope {
			p.cur.popScope()
		}
	}()

	idx := 0
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		if p.visit(child, idx) {
			idx++
		}
	}

	if kind == "function_definition" {
		if encErr := p.analyzeCFGForFunction(node, id); encErr != nil {
			slog.Warn("cfg.skip", "at", parser.Location(node, p.cur.path), "err", encErr)
		}
	}
	return true
}

// enterContext pushes whatever scope, name-context and access state
// this node introduces. The caller pops exactly what was pushed.
func (p *Pipeline) enterContext(node *tree_sitter.Node, id int64, kind string) (pushedScope, pushedName, pushedAccess bool) {
	if scopeKind := lang.ScopeKind(kind); scopeKind != "" {
		p.cur.pushScope(id, scopeKind)
		pushedScope = true
	}

	if kind == "namespace_definition" || lang.IsRecord(kind) {
		p.cur.pushName(p.contextName(node, kind), kind == "namespace_definition")
		pushedName = true
	}

	switch kind {
	case "class_specifier":
		p.cur.pushAccess("private")
		pushedAccess = true
	case "struct_specifier", "union_specifier":
		p.cur.pushAccess("public")
		pushedAccess = true
	}
	return pushedScope, pushedName, pushedAccess
}

// contextName is the name a namespace or record contributes to its
// members' qualified names: the written name, or the synthesized
// unnamed form for anonymous entities.
func (p *Pipeline) contextName(node *tree_sitter.Node, kind string) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return parser.NodeText(name, p.cur.source)
	}
	return unnamedFor(kind, parser.Location(node, p.cur.path))
}

// createScopeRelationships links a node to its innermost lexical scope
// and, when that scope is not itself a namespace, to the innermost
// enclosing namespace as well.
func (p *Pipeline) createScopeRelationships(id int64) {
	top := p.cur.currentScope()
	if top == nil {
		return
	}
	p.relInScope(id, top.id, top.kind)
	if top.kind == "namespace" {
		return
	}
	if ns := p.cur.nearestScopeOfKind("namespace"); ns != nil {
		p.relInScope(id, ns.id, "namespace")
	}
}

// followIncludes resolves the file's quoted #include directives and
// indexes each resolved header before the including file. Headers seen
// earlier in the run are skipped by the visited set. System includes
// (<...>) stay external, the same way the indexed project's build
// treats them as opaque.
func (p *Pipeline) followIncludes(pf *parsedFile) {
	for _, name := range scanIncludes(pf.Tree.RootNode(), pf.Source) {
		path, ok := resolveInclude(name, filepath.Dir(pf.Path), pf.Entry.IncludeDirs())
		if !ok || p.visited[path] {
			continue
		}
		sub := parseOne(path, pf.Entry)
		if sub.Err != nil {
			slog.Warn("include.skip", "path", path, "err", sub.Err)
			p.stats.SkippedFiles++
			p.visited[path] = true
			continue
		}
		p.indexTranslationUnit(sub)
		sub.Tree.Close()
	}
}

// scanIncludes returns the quoted include names of a translation unit
// in directive order.
func scanIncludes(root *tree_sitter.Node, source []byte) []string {
	var names []string
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "preproc_include" {
			return true
		}
		path := n.ChildByFieldName("path")
		if path != nil && path.Kind() == "string_literal" {
			name := strings.Trim(parser.NodeText(path, source), `"`)
			if name != "" {
				names = append(names, name)
			}
		}
		return false
	})
	return names
}

// resolveInclude finds a quoted include on disk: first relative to the
// including file, then through the entry's -I search directories. Only
// header extensions are followed; anything else is not ours to index.
func resolveInclude(name, baseDir string, searchDirs []string) (string, bool) {
	if !isHeaderPath(name) {
		return "", false
	}
	for _, dir := range append([]string{baseDir}, searchDirs...) {
		candidate := filepath.Clean(filepath.Join(dir, name))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

func isHeaderPath(name string) bool {
	ext := filepath.Ext(name)
	for _, h := range lang.HeaderExtensions {
		if ext == h {
			return true
		}
	}
	return false
}

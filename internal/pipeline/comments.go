package pipeline

import (
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/lang"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// Comment fields are capped so a single wall of license text cannot
// dominate the graph.
const (
	maxCommentText  = 1000
	maxBriefText    = 500
	maxDetailedText = 2000
)

// processComments is a second pass over a parsed file that attaches
// comments to the declarations they document. A run of vertically
// contiguous comments directly above a declaration attaches as its
// leading comment; a comment starting on the line a declaration ends
// attaches as trailing. Everything else is dropped.
func (p *Pipeline) processComments(root *tree_sitter.Node) {
	parser.Walk(root, func(n *tree_sitter.Node) bool {
		count := n.NamedChildCount()
		if count == 0 {
			return true
		}

		var run []*tree_sitter.Node
		var prev *tree_sitter.Node
		for i := uint(0); i < count; i++ {
			c := n.NamedChild(i)
			if c == nil {
				continue
			}
			if c.Kind() == "comment" {
				if len(run) == 0 && prev != nil && attachable(prev) &&
					c.StartPosition().Row == prev.EndPosition().Row {
					p.attachComments([]*tree_sitter.Node{c}, prev)
					continue
				}
				if len(run) > 0 && !contiguous(run[len(run)-1], c) {
					run = run[:0]
				}
				run = append(run, c)
				continue
			}
			if len(run) > 0 {
				if attachable(c) && contiguous(run[len(run)-1], c) {
					p.attachComments(run, c)
				}
				run = nil
			}
			prev = c
		}
		return true
	})
}

func attachable(node *tree_sitter.Node) bool {
	switch lang.Classify(node.Kind()) {
	case lang.Declaration, lang.Template:
		return true
	}
	return false
}

// contiguous reports whether b begins on the same line as a ends or on
// the very next one.
func contiguous(a, b *tree_sitter.Node) bool {
	return b.StartPosition().Row <= a.EndPosition().Row+1
}

func (p *Pipeline) attachComments(run []*tree_sitter.Node, target *tree_sitter.Node) {
	if len(run) == 0 || target == nil {
		return
	}
	src := p.cur.source
	raw := make([]string, len(run))
	for i, c := range run {
		raw[i] = parser.NodeText(c, src)
	}
	text := strings.Join(raw, "\n")

	isDoc := isDocComment(raw[0])
	kind := "regular"
	if isDoc {
		kind = "documentation"
	}
	brief, detailed := splitBrief(cleanComment(text))

	declID := p.ensureNode(target)
	commentID := p.createAuxNode(ids.SpaceComment, "comment", parser.Location(run[0], p.cur.path))
	p.emitCommentRow(commentID,
		truncateRunes(text, maxCommentText),
		kind, isDoc,
		truncateRunes(brief, maxBriefText),
		truncateRunes(detailed, maxDetailedText))
	p.relHasComment(declID, commentID)
}

// isDocComment recognizes the Doxygen marker forms.
func isDocComment(text string) bool {
	return strings.HasPrefix(text, "///") || strings.HasPrefix(text, "//!") ||
		strings.HasPrefix(text, "/**") || strings.HasPrefix(text, "/*!")
}

// cleanComment strips comment markers and block-comment gutters, line
// by line, keeping the prose.
func cleanComment(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "///"), strings.HasPrefix(line, "//!"):
			line = line[3:]
		case strings.HasPrefix(line, "//"):
			line = line[2:]
		case strings.HasPrefix(line, "/**"), strings.HasPrefix(line, "/*!"):
			line = line[3:]
		case strings.HasPrefix(line, "/*"):
			line = line[2:]
		}
		line = strings.TrimSuffix(strings.TrimSpace(line), "*/")
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "*") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// splitBrief separates the one-line summary from the long description:
// an explicit @brief tag wins, otherwise the first non-empty line.
func splitBrief(cleaned string) (brief, detailed string) {
	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "@brief") || strings.HasPrefix(t, `\brief`) {
			t = strings.TrimPrefix(t, "@brief")
			t = strings.TrimPrefix(t, `\brief`)
			rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
			return strings.TrimSpace(t), strings.TrimSpace(strings.Join(rest, "\n"))
		}
	}
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line), strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	return "", ""
}

// truncateRunes caps a string at n runes without splitting a
// character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

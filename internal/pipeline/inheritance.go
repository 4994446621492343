package pipeline

import (
	"strconv"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/fqn"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// processBaseClause parks one INHERITS_FROM edge per base, carrying
// the written access and virtualness. C++ defaults differ by record
// kind: class bases are private, struct bases public.
func (p *Pipeline) processBaseClause(recordID int64, recordQN string, clause *tree_sitter.Node, recordKind string) {
	defaultAccess := "private"
	if recordKind == "struct_specifier" || recordKind == "union_specifier" {
		defaultAccess = "public"
	}
	cf := p.classes[recordQN]

	access := defaultAccess
	isVirtual := false
	for i := uint(0); i < clause.ChildCount(); i++ {
		child := clause.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "access_specifier":
			access = parser.NodeText(child, p.cur.source)
		case "virtual":
			isVirtual = true
		case "type_identifier", "qualified_identifier", "template_type":
			written := parser.NodeText(child, p.cur.source)
			candidates := p.cur.lookupCandidates(fqn.StripTemplateArgs(written))
			virt := "0"
			if isVirtual {
				virt = "1"
			}
			p.pending = append(p.pending, pendingEdge{
				table:      "inherits_from",
				sourceID:   recordID,
				candidates: candidates,
				props:      map[string]string{"access_specifier": access, "is_virtual": virt},
			})
			if cf != nil {
				cf.bases = append(cf.bases, candidates)
			}
			access = defaultAccess
			isVirtual = false
		}
	}
}

// resolveOverrides connects derived methods to the virtual base
// methods they override. Methods match on name and arity; the base
// side must be virtual, the derived side need not repeat the keyword.
func (p *Pipeline) resolveOverrides() {
	for _, m := range p.pendingMethods {
		cf, ok := p.classes[fqn.Parent(m.qn)]
		if !ok {
			continue
		}
		key := m.name + "/" + strconv.Itoa(m.paramCount)
		if prev, ok := cf.methods[key]; ok {
			// In-class prototype and out-of-class definition describe
			// the same method; merge flags, keep the first node.
			prev.isVirtual = prev.isVirtual || m.isVirtual
			if prev.overrideKind == "" {
				prev.overrideKind = m.overrideKind
			}
			if prev.returnText == "" {
				prev.returnText = m.returnText
			}
			continue
		}
		cf.methods[key] = m
	}

	for _, cf := range p.classes {
		for key, m := range cf.methods {
			base := p.findOverridden(cf, key)
			if base == nil {
				continue
			}
			kind := m.overrideKind
			if kind == "" {
				kind = "override"
			}
			covariant := m.returnText != "" && base.returnText != "" && m.returnText != base.returnText
			p.relOverrides(m.id, base.id, kind, covariant)
		}
	}
}

// findOverridden walks the base-class graph breadth-first and returns
// the nearest virtual method matching the key, or nil. Diamond
// hierarchies terminate through the seen set.
func (p *Pipeline) findOverridden(cf *classFacts, key string) *methodFacts {
	seen := map[string]bool{cf.qn: true}
	var queue []*classFacts

	enqueue := func(bases [][]string) {
		for _, candidates := range bases {
			for _, qn := range candidates {
				base, ok := p.classes[qn]
				if !ok {
					continue
				}
				if !seen[qn] {
					seen[qn] = true
					queue = append(queue, base)
				}
				break
			}
		}
	}

	enqueue(cf.bases)
	for len(queue) > 0 {
		base := queue[0]
		queue = queue[1:]
		if m, ok := base.methods[key]; ok && m.isVirtual {
			return m
		}
		enqueue(base.bases)
	}
	return nil
}

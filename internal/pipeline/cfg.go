package pipeline

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/parser"
)

// Block content is summarized, not stored verbatim; these cap the
// stored text.
const (
	maxBlockContent = 200
	maxStmtSummary  = 120
)

// cfgBlock is one basic block under construction. Successors hold
// pointers, so indexes can be assigned once the shape is final.
type cfgBlock struct {
	index      int
	loc        string
	stmts      []string
	terminator string
	condition  string
	succs      []cfgSucc
	reachable  bool
	isEntry    bool
	isExit     bool
}

type cfgSucc struct {
	to        *cfgBlock
	edgeType  string
	condition string
}

// loopCtx tracks where break and continue jump. A switch pushes a ctx
// with a nil header, so break binds to it while continue skips past.
type loopCtx struct {
	header *cfgBlock
	after  *cfgBlock
}

type cfgBuilder struct {
	p      *Pipeline
	blocks []*cfgBlock
	exit   *cfgBlock
	loops  []loopCtx
}

// analyzeCFGForFunction builds a structural control-flow graph for one
// function body: basic blocks split at branches, loops, and jumps, a
// synthetic exit block, typed edges, and a reachability flag per
// block. Every block except exit ends with at least one outgoing edge.
func (p *Pipeline) analyzeCFGForFunction(node *tree_sitter.Node, fnID int64) *EnrichmentError {
	body := node.ChildByFieldName("body")
	if body == nil {
		return enrichErr("cfg", parser.Location(node, p.cur.path), "function has no body")
	}

	b := &cfgBuilder{p: p}
	entry := b.newBlock(b.loc(node))
	entry.isEntry = true
	b.exit = &cfgBlock{loc: b.loc(node), isExit: true}

	if cur := b.buildStmt(body, entry); cur != nil {
		b.edge(cur, b.exit, "sequential", "")
	}
	b.blocks = append(b.blocks, b.exit)

	for i, blk := range b.blocks {
		blk.index = i
	}
	b.markReachable(entry)
	p.emitCFG(fnID, b.blocks)
	return nil
}

func (b *cfgBuilder) newBlock(loc string) *cfgBlock {
	blk := &cfgBlock{loc: loc}
	b.blocks = append(b.blocks, blk)
	return blk
}

func (b *cfgBuilder) edge(from, to *cfgBlock, edgeType, condition string) {
	from.succs = append(from.succs, cfgSucc{to: to, edgeType: edgeType, condition: condition})
}

func (b *cfgBuilder) loc(node *tree_sitter.Node) string {
	return parser.Location(node, b.p.cur.path)
}

func (b *cfgBuilder) summary(node *tree_sitter.Node) string {
	return truncateRunes(strings.Join(strings.Fields(parser.NodeText(node, b.p.cur.source)), " "), maxStmtSummary)
}

func (b *cfgBuilder) fieldText(node *tree_sitter.Node, field string) string {
	c := node.ChildByFieldName(field)
	if c == nil {
		return ""
	}
	return strings.Join(strings.Fields(parser.NodeText(c, b.p.cur.source)), " ")
}

func (b *cfgBuilder) condText(node *tree_sitter.Node) string {
	return conditionText(node, b.p.cur.source)
}

// innermostBreak is the jump target of a break: the nearest loop or
// switch.
func (b *cfgBuilder) innermostBreak() *loopCtx {
	if len(b.loops) == 0 {
		return nil
	}
	return &b.loops[len(b.loops)-1]
}

// innermostContinue is the jump target of a continue: the nearest
// enclosing loop, stepping over switches.
func (b *cfgBuilder) innermostContinue() *loopCtx {
	for i := len(b.loops) - 1; i >= 0; i-- {
		if b.loops[i].header != nil {
			return &b.loops[i]
		}
	}
	return nil
}

// buildStmt threads one statement through the graph and returns the
// block where execution continues, or nil when flow diverted. Code
// after a diversion lands in a fresh block that reachability marking
// leaves false.
func (b *cfgBuilder) buildStmt(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	if node == nil {
		return cur
	}
	if cur == nil {
		cur = b.newBlock(b.loc(node))
	}

	switch node.Kind() {
	case "compound_statement":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			cur = b.buildStmt(node.NamedChild(i), cur)
		}
		return cur

	case "if_statement":
		return b.buildIf(node, cur)

	case "while_statement":
		return b.buildWhile(node, cur)

	case "do_statement":
		return b.buildDo(node, cur)

	case "for_statement", "for_range_loop":
		return b.buildFor(node, cur)

	case "switch_statement":
		return b.buildSwitch(node, cur)

	case "break_statement":
		cur.stmts = append(cur.stmts, "break")
		cur.terminator = "break"
		if ctx := b.innermostBreak(); ctx != nil {
			b.edge(cur, ctx.after, "loop_exit", "")
		} else {
			b.edge(cur, b.exit, "sequential", "")
		}
		return nil

	case "continue_statement":
		cur.stmts = append(cur.stmts, "continue")
		cur.terminator = "continue"
		if ctx := b.innermostContinue(); ctx != nil {
			b.edge(cur, ctx.header, "loop_back", "")
		} else {
			b.edge(cur, b.exit, "sequential", "")
		}
		return nil

	case "return_statement", "co_return_statement":
		cur.stmts = append(cur.stmts, b.summary(node))
		cur.terminator = "return"
		b.edge(cur, b.exit, "return", "")
		return nil

	case "throw_statement":
		cur.stmts = append(cur.stmts, b.summary(node))
		cur.terminator = "throw"
		b.edge(cur, b.exit, "exception", "")
		return nil

	case "goto_statement":
		// Label targets are not resolved; the jump conservatively
		// flows to exit so the block is never edge-less.
		cur.stmts = append(cur.stmts, b.summary(node))
		cur.terminator = "goto"
		b.edge(cur, b.exit, "sequential", "")
		return nil

	case "labeled_statement":
		labelB := b.newBlock(b.loc(node))
		b.edge(cur, labelB, "sequential", "")
		cur = labelB
		for i := uint(0); i < node.NamedChildCount(); i++ {
			c := node.NamedChild(i)
			if c == nil || c.Kind() == "statement_identifier" {
				continue
			}
			cur = b.buildStmt(c, cur)
		}
		return cur

	case "try_statement":
		return b.buildTry(node, cur)
	}

	cur.stmts = append(cur.stmts, b.summary(node))
	return cur
}

func (b *cfgBuilder) buildIf(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	cond := b.condText(node)
	cur.terminator = "if"
	cur.condition = cond

	cons := node.ChildByFieldName("consequence")
	thenB := b.newBlock(b.loc(node))
	b.edge(cur, thenB, "true_branch", cond)
	thenEnd := b.buildStmt(cons, thenB)

	alt := node.ChildByFieldName("alternative")
	if alt == nil {
		join := b.newBlock(b.loc(node))
		b.edge(cur, join, "false_branch", cond)
		if thenEnd != nil {
			b.edge(thenEnd, join, "sequential", "")
		}
		return join
	}

	// alternative is an else_clause wrapping the statement
	stmt := alt
	if alt.Kind() == "else_clause" && alt.NamedChildCount() > 0 {
		stmt = alt.NamedChild(0)
	}
	elseB := b.newBlock(b.loc(stmt))
	b.edge(cur, elseB, "false_branch", cond)
	elseEnd := b.buildStmt(stmt, elseB)

	if thenEnd == nil && elseEnd == nil {
		return nil
	}
	join := b.newBlock(b.loc(node))
	if thenEnd != nil {
		b.edge(thenEnd, join, "sequential", "")
	}
	if elseEnd != nil {
		b.edge(elseEnd, join, "sequential", "")
	}
	return join
}

func (b *cfgBuilder) buildWhile(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	cond := b.condText(node)
	header := b.newBlock(b.loc(node))
	header.terminator = "while"
	header.condition = cond
	b.edge(cur, header, "sequential", "")

	bodyB := b.newBlock(b.loc(node))
	after := b.newBlock(b.loc(node))
	b.edge(header, bodyB, "true_branch", cond)
	b.edge(header, after, "loop_exit", cond)

	b.loops = append(b.loops, loopCtx{header: header, after: after})
	bodyEnd := b.buildStmt(stmtBody(node), bodyB)
	b.loops = b.loops[:len(b.loops)-1]

	if bodyEnd != nil {
		b.edge(bodyEnd, header, "loop_back", "")
	}
	return after
}

func (b *cfgBuilder) buildDo(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	cond := b.condText(node)
	bodyB := b.newBlock(b.loc(node))
	b.edge(cur, bodyB, "sequential", "")

	condB := b.newBlock(b.loc(node))
	condB.terminator = "do"
	condB.condition = cond
	after := b.newBlock(b.loc(node))

	b.loops = append(b.loops, loopCtx{header: condB, after: after})
	bodyEnd := b.buildStmt(stmtBody(node), bodyB)
	b.loops = b.loops[:len(b.loops)-1]

	if bodyEnd != nil {
		b.edge(bodyEnd, condB, "sequential", "")
	}
	b.edge(condB, bodyB, "loop_back", cond)
	b.edge(condB, after, "loop_exit", cond)
	return after
}

func (b *cfgBuilder) buildFor(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	if init := node.ChildByFieldName("initializer"); init != nil {
		cur.stmts = append(cur.stmts, b.summary(init))
	}
	cond := b.condText(node)
	if node.Kind() == "for_range_loop" {
		cond = b.fieldText(node, "right")
	}

	header := b.newBlock(b.loc(node))
	header.terminator = "for"
	header.condition = cond
	b.edge(cur, header, "sequential", "")

	bodyB := b.newBlock(b.loc(node))
	after := b.newBlock(b.loc(node))
	b.edge(header, bodyB, "true_branch", cond)
	b.edge(header, after, "loop_exit", cond)

	b.loops = append(b.loops, loopCtx{header: header, after: after})
	bodyEnd := b.buildStmt(stmtBody(node), bodyB)
	b.loops = b.loops[:len(b.loops)-1]

	if bodyEnd != nil {
		if upd := node.ChildByFieldName("update"); upd != nil {
			bodyEnd.stmts = append(bodyEnd.stmts, b.summary(upd))
		}
		b.edge(bodyEnd, header, "loop_back", "")
	}
	return after
}

func (b *cfgBuilder) buildSwitch(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	cond := b.condText(node)
	cur.terminator = "switch"
	cur.condition = cond
	after := b.newBlock(b.loc(node))

	b.loops = append(b.loops, loopCtx{header: nil, after: after})
	var prevEnd *cfgBlock
	hasDefault := false

	body := node.ChildByFieldName("body")
	if body != nil {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			c := body.NamedChild(i)
			if c == nil || c.Kind() != "case_statement" {
				continue
			}
			caseB := b.newBlock(b.loc(c))
			value := c.ChildByFieldName("value")
			label := "default"
			if value != nil {
				label = b.fieldText(c, "value")
			} else {
				hasDefault = true
			}
			b.edge(cur, caseB, "switch_case", label)
			if prevEnd != nil {
				b.edge(prevEnd, caseB, "fallthrough", "")
			}

			caseEnd := caseB
			for j := uint(0); j < c.NamedChildCount(); j++ {
				s := c.NamedChild(j)
				if s == nil {
					continue
				}
				if value != nil && s.StartByte() == value.StartByte() && s.EndByte() == value.EndByte() {
					continue
				}
				caseEnd = b.buildStmt(s, caseEnd)
			}
			prevEnd = caseEnd
		}
	}
	b.loops = b.loops[:len(b.loops)-1]

	if prevEnd != nil {
		b.edge(prevEnd, after, "sequential", "")
	}
	if !hasDefault {
		b.edge(cur, after, "switch_case", "default")
	}
	return after
}

func (b *cfgBuilder) buildTry(node *tree_sitter.Node, cur *cfgBlock) *cfgBlock {
	tryB := b.newBlock(b.loc(node))
	b.edge(cur, tryB, "sequential", "")
	after := b.newBlock(b.loc(node))

	tryEnd := b.buildStmt(node.ChildByFieldName("body"), tryB)
	if tryEnd != nil {
		b.edge(tryEnd, after, "sequential", "")
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if c == nil || c.Kind() != "catch_clause" {
			continue
		}
		catchB := b.newBlock(b.loc(c))
		caught := ""
		if params := c.ChildByFieldName("parameters"); params != nil {
			caught = strings.Join(strings.Fields(parser.NodeText(params, b.p.cur.source)), " ")
		}
		b.edge(tryB, catchB, "exception", caught)
		if catchEnd := b.buildStmt(c.ChildByFieldName("body"), catchB); catchEnd != nil {
			b.edge(catchEnd, after, "sequential", "")
		}
	}
	return after
}

// stmtBody returns the body of a loop, falling back to the last named
// child for grammar versions without the field.
func stmtBody(node *tree_sitter.Node) *tree_sitter.Node {
	if b := node.ChildByFieldName("body"); b != nil {
		return b
	}
	if n := node.NamedChildCount(); n > 0 {
		return node.NamedChild(n - 1)
	}
	return nil
}

func (b *cfgBuilder) markReachable(entry *cfgBlock) {
	entry.reachable = true
	queue := []*cfgBlock{entry}
	for len(queue) > 0 {
		blk := queue[0]
		queue = queue[1:]
		for _, s := range blk.succs {
			if !s.to.reachable {
				s.to.reachable = true
				queue = append(queue, s.to)
			}
		}
	}
}

// emitCFG materializes blocks and edges: one aux node plus one
// cfg_blocks row per block, one cfg_edges row per successor.
func (p *Pipeline) emitCFG(fnID int64, blocks []*cfgBlock) {
	blockIDs := make(map[*cfgBlock]int64, len(blocks))
	for _, blk := range blocks {
		bid := p.createAuxNode(ids.SpaceCFGBlock, "cfg_block", blk.loc)
		blockIDs[blk] = bid
		p.emitCFGBlockRow(bid, cfgBlockRow{
			functionID: fnID,
			index:      blk.index,
			isEntry:    blk.isEntry,
			isExit:     blk.isExit,
			terminator: blk.terminator,
			content:    truncateRunes(strings.Join(blk.stmts, "; "), maxBlockContent),
			condition:  blk.condition,
			reachable:  blk.reachable,
		})
	}
	for _, blk := range blocks {
		for _, s := range blk.succs {
			p.relCFGEdge(blockIDs[blk], blockIDs[s.to], s.edgeType, s.condition)
		}
	}
}

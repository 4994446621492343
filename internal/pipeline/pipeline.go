// Package pipeline turns parsed C++ translation units into a graph:
// one row per AST entity, one row per relationship, all emitted as
// interpolated INSERT statements through a batching sink. Parsing runs
// in parallel; traversal and emission are single-writer. Identity is
// process-wide, so entities shared between translation units (headers)
// are stored exactly once.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cppgraph/cppgraph/internal/compdb"
	"github.com/cppgraph/cppgraph/internal/config"
	"github.com/cppgraph/cppgraph/internal/ids"
	"github.com/cppgraph/cppgraph/internal/parser"
	"github.com/cppgraph/cppgraph/internal/store"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Pipeline orchestrates one indexing run over a compilation database's
// file list. Construct with New, call Run once.
type Pipeline struct {
	ctx     context.Context
	cfg     *config.Config
	store   *store.Store // nil when dumping to text
	sink    store.Sink
	batch   *store.Batcher
	reg     *ids.Registry
	entries []compdb.Entry

	// visited guards against re-traversing a file reached both as a
	// translation unit and through an #include in another unit.
	visited map[string]bool

	cur *fileState

	pending        []pendingEdge
	pendingMethods []*methodFacts
	classes        map[string]*classFacts
	typeIDs        map[string]int64

	stats Stats
	err   error
}

// Stats summarizes a run for the report line.
type Stats struct {
	Files            int
	SkippedFiles     int
	Nodes            int
	Relations        int
	Statements       int
	FailedStatements int
	UnresolvedEdges  int
}

// pendingEdge is a relationship whose target is known only by
// qualified name at emission time. Targets are resolved against the
// registry after every file has been traversed, so edges can point at
// declarations from later files. Candidates are tried in order;
// an edge none of them resolves is dropped and counted.
type pendingEdge struct {
	table      string
	sourceID   int64
	candidates []string
	props      map[string]string
}

// classFacts accumulates what override resolution needs to know about
// a record: its resolved bases and its virtual-capable methods.
type classFacts struct {
	id      int64
	qn      string
	bases   [][]string // per base: candidate QNs in lookup order
	methods map[string]*methodFacts
}

type methodFacts struct {
	id           int64
	qn           string
	name         string
	paramCount   int
	isVirtual    bool
	overrideKind string
	returnText   string
}

// New builds a pipeline over the given work list. st may be nil when
// the sink dumps text instead of executing.
func New(ctx context.Context, cfg *config.Config, st *store.Store, sink store.Sink, entries []compdb.Entry) *Pipeline {
	return &Pipeline{
		ctx:     ctx,
		cfg:     cfg,
		store:   st,
		sink:    sink,
		batch:   store.NewBatcher(sink, cfg.Batch.Size),
		reg:     ids.NewRegistry(),
		entries: entries,
		visited: make(map[string]bool),
		classes: make(map[string]*classFacts),
		typeIDs: make(map[string]int64),
	}
}

// Run executes the full pipeline: parallel parse, sequential traversal
// per file, end-of-run edge resolution, final flush. Fatal errors (a
// broken sink, cancellation) return; per-file and per-statement
// failures are logged and counted, and the run completes.
func (p *Pipeline) Run() error {
	slog.Info("pipeline.start", "files", len(p.entries))

	if err := p.ctx.Err(); err != nil {
		return err
	}
	if p.store != nil {
		p.store.BeginBulkWrite()
	}

	t := time.Now()
	parsed := p.parseAll()
	slog.Info("pass.timing", "pass", "parse", "elapsed", time.Since(t))

	t = time.Now()
	for _, pf := range parsed {
		if err := p.ctx.Err(); err != nil {
			p.abort()
			return err
		}
		if pf.Err != nil {
			slog.Warn("index.file.err", "path", pf.Path, "err", pf.Err)
			p.stats.SkippedFiles++
			continue
		}
		p.indexTranslationUnit(pf)
		pf.Tree.Close()
		if p.err != nil {
			p.abort()
			return p.err
		}
	}
	slog.Info("pass.timing", "pass", "traverse", "elapsed", time.Since(t))

	t = time.Now()
	p.resolvePendingEdges()
	p.resolveOverrides()
	slog.Info("pass.timing", "pass", "resolve", "elapsed", time.Since(t))
	if p.err != nil {
		p.abort()
		return p.err
	}

	if err := p.batch.Close(); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	if p.store != nil {
		p.store.EndBulkWrite()
		p.store.Checkpoint()
	}

	p.stats.Statements = p.batch.Statements()
	p.stats.FailedStatements = p.batch.Failures()
	slog.Info("pipeline.done",
		"files", p.stats.Files,
		"nodes", p.stats.Nodes,
		"relations", p.stats.Relations,
		"failed_statements", p.stats.FailedStatements,
		"unresolved_edges", p.stats.UnresolvedEdges)
	return nil
}

// abort abandons the uncommitted tail of the run. Rows committed
// before the abort stay.
func (p *Pipeline) abort() {
	if tx, ok := p.sink.(*store.TxSink); ok {
		tx.Rollback()
	}
	if p.store != nil {
		p.store.EndBulkWrite()
	}
}

// Stats returns the run counters. Valid after Run returns.
func (p *Pipeline) Stats() Stats {
	return p.stats
}

// parsedFile is the output of the parse stage for one work-list entry.
type parsedFile struct {
	Path   string
	Entry  compdb.Entry
	Source []byte
	Tree   *tree_sitter.Tree
	Err    error
}

// parseAll parses every work-list file. Parsing is CPU-bound and
// touches no shared state, so it fans out across workers; results come
// back in work-list order for the sequential traversal stage.
func (p *Pipeline) parseAll() []*parsedFile {
	results := make([]*parsedFile, len(p.entries))

	numWorkers := p.cfg.Index.Parallelism
	if numWorkers > len(p.entries) {
		numWorkers = len(p.entries)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	g, gctx := errgroup.WithContext(p.ctx)
	g.SetLimit(numWorkers)
	for i, e := range p.entries {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			results[i] = parseOne(e.File, e)
			return nil
		})
	}
	_ = g.Wait()

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// parseOne reads and parses a single file. No shared state.
func parseOne(path string, entry compdb.Entry) *parsedFile {
	pf := &parsedFile{Path: path, Entry: entry}

	source, err := os.ReadFile(path)
	if err != nil {
		pf.Err = err
		return pf
	}
	pf.Source = stripBOM(source)

	tree, err := parser.Parse(pf.Source)
	if err != nil {
		pf.Err = err
		return pf
	}
	pf.Tree = tree
	return pf
}

// stripBOM removes a UTF-8 byte order mark. Windows toolchains emit
// them and tree-sitter treats the mark as source text.
func stripBOM(source []byte) []byte {
	if len(source) >= 3 && source[0] == 0xEF && source[1] == 0xBB && source[2] == 0xBF {
		return source[3:]
	}
	return source
}

// resolvePendingEdges materializes every deferred edge whose target
// qualified name resolved to a known declaration. Unresolved edges are
// dropped: an edge to a node that does not exist is worse than no
// edge, and the engine would reject it anyway.
func (p *Pipeline) resolvePendingEdges() {
	for _, pe := range p.pending {
		targetID, ok := p.resolveCandidates(pe.candidates)
		if !ok {
			p.stats.UnresolvedEdges++
			continue
		}
		switch pe.table {
		case "inherits_from":
			p.relInheritsFrom(pe.sourceID, targetID, pe.props["access_specifier"], pe.props["is_virtual"] == "1")
		case "specializes":
			p.relSpecializes(pe.sourceID, targetID, pe.props["specialization_kind"], pe.props["template_arguments"])
		case "node_references":
			p.relReferences(pe.sourceID, targetID, pe.props["reference_kind"])
		}
	}
	if p.stats.UnresolvedEdges > 0 {
		slog.Debug("resolve.dropped", "edges", p.stats.UnresolvedEdges)
	}
}

func (p *Pipeline) resolveCandidates(candidates []string) (int64, bool) {
	for _, qn := range candidates {
		if id, ok := p.reg.LookupDecl(qn); ok {
			return id, true
		}
	}
	return 0, false
}

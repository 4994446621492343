package store

import (
	"bufio"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
)

// Sink receives flushed statement batches. TxSink executes them against
// the store; DumpSink writes them to a text file.
type Sink interface {
	Submit(stmts []string) error
	Close() error
	Failures() int
}

// Batcher buffers statements and flushes them to its sink in batches,
// so thousands of single-row writes do not each pay submission cost.
type Batcher struct {
	sink       Sink
	buf        []string
	size       int
	statements int
	batches    int
}

// NewBatcher returns a Batcher flushing to sink every batchSize
// statements.
func NewBatcher(sink Sink, batchSize int) *Batcher {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Batcher{sink: sink, size: batchSize, buf: make([]string, 0, batchSize)}
}

// Add appends one statement to the pending batch, flushing when the
// batch is full. The statement must not carry a trailing semicolon; the
// sink adds whatever termination it needs.
func (b *Batcher) Add(stmt string) error {
	b.buf = append(b.buf, stmt)
	b.statements++
	if len(b.buf) >= b.size {
		return b.Flush()
	}
	return nil
}

// Flush submits the pending batch to the sink. Per-statement failures
// are the sink's to log and count; an error here means the sink itself
// broke (closed file, dead connection) and the run cannot continue.
func (b *Batcher) Flush() error {
	if len(b.buf) == 0 {
		return nil
	}
	stmts := b.buf
	b.buf = make([]string, 0, b.size)
	b.batches++
	if err := b.sink.Submit(stmts); err != nil {
		return fmt.Errorf("submit batch of %d: %w", len(stmts), err)
	}
	return nil
}

// Close flushes the tail batch and closes the sink.
func (b *Batcher) Close() error {
	if err := b.Flush(); err != nil {
		_ = b.sink.Close()
		return err
	}
	return b.sink.Close()
}

// Statements returns the number of statements added so far.
func (b *Batcher) Statements() int { return b.statements }

// Batches returns the number of batches submitted so far.
func (b *Batcher) Batches() int { return b.batches }

// Failures returns the sink's count of statements that failed to apply.
func (b *Batcher) Failures() int { return b.sink.Failures() }

// TxSink executes batches inside transactions widened across many
// batches: a commit happens every commitThreshold statements rather
// than per batch, trading atomicity granularity for throughput. A crash
// mid-transaction loses only the uncommitted tail.
//
// Statements are executed one at a time so a single malformed statement
// is logged and skipped without poisoning the rest of its batch.
type TxSink struct {
	store       *Store
	tx          *sql.Tx
	threshold   int
	sinceCommit int
	failures    int
}

// NewTxSink returns a sink writing to s, committing every
// commitThreshold statements.
func NewTxSink(s *Store, commitThreshold int) *TxSink {
	if commitThreshold < 1 {
		commitThreshold = 1
	}
	return &TxSink{store: s, threshold: commitThreshold}
}

func (k *TxSink) begin() error {
	if k.tx != nil {
		return nil
	}
	tx, err := k.store.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	k.tx = tx
	return nil
}

// Submit executes the batch inside the current transaction. A statement
// the engine rejects (the classic cause is unescaped content that
// slipped past property extraction) is logged with its prefix and
// counted; execution continues with the next statement.
func (k *TxSink) Submit(stmts []string) error {
	if err := k.begin(); err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := k.tx.Exec(stmt); err != nil {
			k.failures++
			slog.Error("batch.statement_failed", "err", err, "stmt", stmtPrefix(stmt))
			continue
		}
	}
	k.sinceCommit += len(stmts)
	if k.sinceCommit >= k.threshold {
		if err := k.commit(); err != nil {
			return err
		}
	}
	return nil
}

func (k *TxSink) commit() error {
	if k.tx == nil {
		return nil
	}
	err := k.tx.Commit()
	k.tx = nil
	k.sinceCommit = 0
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Rollback abandons the uncommitted tail. Used on cancellation; the
// committed prefix of the run stays.
func (k *TxSink) Rollback() {
	if k.tx == nil {
		return
	}
	if err := k.tx.Rollback(); err != nil {
		slog.Warn("batch.rollback", "err", err)
	}
	k.tx = nil
	k.sinceCommit = 0
}

// Close commits whatever tail is open.
func (k *TxSink) Close() error {
	return k.commit()
}

// Failures returns the number of statements the engine rejected.
func (k *TxSink) Failures() int { return k.failures }

// stmtPrefix truncates a statement for log lines.
func stmtPrefix(stmt string) string {
	const max = 160
	if len(stmt) <= max {
		return stmt
	}
	return stmt[:max] + "..."
}

// DumpSink writes each statement, semicolon-terminated and one per
// line, to a text file instead of executing it. The stream is the exact
// SQL a TxSink run would have executed, in the same order.
type DumpSink struct {
	f *os.File
	w *bufio.Writer
}

// NewDumpSink creates (or truncates) the dump file at path.
func NewDumpSink(path string) (*DumpSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}
	return &DumpSink{f: f, w: bufio.NewWriter(f)}, nil
}

// Preamble writes raw SQL text ahead of the statement stream, so a
// dump can carry the schema DDL and load directly into sqlite3.
func (d *DumpSink) Preamble(sql string) error {
	if _, err := d.w.WriteString(sql); err != nil {
		return fmt.Errorf("write dump preamble: %w", err)
	}
	if _, err := d.w.WriteString("\n"); err != nil {
		return fmt.Errorf("write dump preamble: %w", err)
	}
	return nil
}

// Submit appends the batch to the dump file.
func (d *DumpSink) Submit(stmts []string) error {
	for _, stmt := range stmts {
		if _, err := d.w.WriteString(stmt); err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
		if _, err := d.w.WriteString(";\n"); err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
	}
	return nil
}

// Close flushes and closes the dump file.
func (d *DumpSink) Close() error {
	if err := d.w.Flush(); err != nil {
		_ = d.f.Close()
		return fmt.Errorf("flush dump: %w", err)
	}
	return d.f.Close()
}

// Failures is always zero for a dump: nothing executes.
func (d *DumpSink) Failures() int { return 0 }

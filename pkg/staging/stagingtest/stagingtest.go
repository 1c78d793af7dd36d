// Package stagingtest provides an in-memory stand-in for the staging
// database. Tests embed one of its transactions in a context through
// staging.Client.WithTx so every statement a component issues lands on
// the recorder instead of a live pool, and nested BeginFunc calls run as
// savepoints on the same recorder.
package stagingtest

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Stmt is one recorded statement with its arguments.
type Stmt struct {
	SQL  string
	Args []any
}

// DB records every statement issued through its transactions and serves
// canned result rows keyed by a SQL fragment.
type DB struct {
	mu        sync.Mutex
	canned    map[string][][]any
	batchErr  error
	queries   []Stmt
	execs     []Stmt
	batches   []*pgx.Batch
	commits   int
	rollbacks int
}

// NewDB returns an empty recorder.
func NewDB() *DB {
	return &DB{canned: make(map[string][][]any)}
}

// SetRows serves rows for any query whose SQL contains fragment.
func (d *DB) SetRows(fragment string, rows [][]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.canned[fragment] = rows
}

// FailBatches makes every batched statement fail with err.
func (d *DB) FailBatches(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batchErr = err
}

// Tx returns a transaction backed by the recorder.
func (d *DB) Tx() pgx.Tx { return &tx{db: d} }

// Queries returns every recorded Query and QueryRow statement in order.
func (d *DB) Queries() []Stmt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Stmt(nil), d.queries...)
}

// Execs returns every recorded Exec statement in order.
func (d *DB) Execs() []Stmt {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Stmt(nil), d.execs...)
}

// Batches returns every batch sent, in order.
func (d *DB) Batches() []*pgx.Batch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*pgx.Batch(nil), d.batches...)
}

// Commits returns how many transactions committed.
func (d *DB) Commits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commits
}

// Rollbacks returns how many transactions rolled back.
func (d *DB) Rollbacks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rollbacks
}

func (d *DB) lookup(sql string) ([][]any, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for fragment, data := range d.canned {
		if strings.Contains(sql, fragment) {
			return data, true
		}
	}
	return nil, false
}

type tx struct {
	db     *DB
	closed bool
}

func (t *tx) Begin(ctx context.Context) (pgx.Tx, error) {
	return &tx{db: t.db}, nil
}

func (t *tx) Commit(ctx context.Context) error {
	t.closed = true
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.commits++
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.rollbacks++
	return nil
}

func (t *tx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.execs = append(t.db.execs, Stmt{SQL: sql, Args: args})
	return pgconn.CommandTag{}, nil
}

func (t *tx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	data, _ := t.db.lookup(sql)
	t.db.mu.Lock()
	t.db.queries = append(t.db.queries, Stmt{SQL: sql, Args: args})
	t.db.mu.Unlock()
	return &rows{data: data}, nil
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	data, ok := t.db.lookup(sql)
	t.db.mu.Lock()
	t.db.queries = append(t.db.queries, Stmt{SQL: sql, Args: args})
	t.db.mu.Unlock()
	if !ok || len(data) == 0 {
		return &row{err: pgx.ErrNoRows}
	}
	return &row{vals: data[0]}
}

func (t *tx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.batches = append(t.db.batches, b)
	return &batchResults{err: t.db.batchErr}
}

func (t *tx) CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *tx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return &pgconn.StatementDescription{Name: name, SQL: sql}, nil
}

func (t *tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *tx) Conn() *pgx.Conn { return nil }

type rows struct {
	data [][]any
	idx  int
}

func (r *rows) Next() bool {
	r.idx++
	return r.idx <= len(r.data)
}

func (r *rows) Scan(dest ...any) error {
	return scanInto(r.data[r.idx-1], dest)
}

func (r *rows) Close() {}

func (r *rows) Err() error { return nil }

func (r *rows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (r *rows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *rows) Values() ([]any, error) { return nil, nil }

func (r *rows) RawValues() [][]byte { return nil }

func (r *rows) Conn() *pgx.Conn { return nil }

type row struct {
	vals []any
	err  error
}

func (r *row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.vals, dest)
}

// scanInto copies canned values into scan targets. A nil value leaves the
// target at its zero value, which is how NULL lands in pointer columns.
func scanInto(vals []any, dest []any) error {
	for i, d := range dest {
		if i >= len(vals) || vals[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(vals[i]))
	}
	return nil
}

type batchResults struct {
	err error
}

func (b *batchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, b.err
}

func (b *batchResults) Query() (pgx.Rows, error) { return &rows{}, b.err }

func (b *batchResults) QueryRow() pgx.Row { return &row{err: pgx.ErrNoRows} }

func (b *batchResults) Close() error { return nil }

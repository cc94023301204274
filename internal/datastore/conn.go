// ABOUTME: Scope connection owning one SQLite handle for one (domain, scope)
// ABOUTME: Runs schema bootstrap on open and exposes the data-access surface

package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	_ "modernc.org/sqlite"
)

// Conn owns the database handle for exactly one (domain, scope) pair. It is
// created by Domain.Get, cached there, and destroyed by Close/Delete. A Conn
// performs no internal locking: it must not be shared across goroutines
// without external synchronization.
//
// Writes issued with the Deferred variants accumulate in a pending
// transaction until Commit (or until a non-deferred write commits them).
// Reads observe pending writes. Close discards uncommitted writes.
type Conn struct {
	scope   Scope
	domain  string
	path    string
	schemas []*TableSchema
	logger  *slog.Logger

	db     *sql.DB
	tx     *sql.Tx // pending deferred transaction, nil when none
	closed bool

	tables   map[string]bool // table names seen at bootstrap or created since
	kvShapes map[string]bool // tables validated as key/value shaped
}

// dbtx is the intersection of *sql.DB and *sql.Tx used by Conn operations.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// openConn opens the scope's database file, applies the registered schemas,
// and seeds defaults. The handle is limited to a single underlying connection
// so sequential operations observe a total order.
func openConn(ctx context.Context, domain string, scope Scope, path string, schemas []*TableSchema, logger *slog.Logger) (*Conn, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	c := &Conn{
		scope:    scope,
		domain:   domain,
		path:     path,
		schemas:  schemas,
		logger:   logger,
		db:       db,
		tables:   make(map[string]bool),
		kvShapes: make(map[string]bool),
	}

	if err := c.bootstrap(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping %s/%s: %w", domain, scope.Key(), err)
	}

	c.logger.Debug("opened scope database", "domain", domain, "scope", scope.Key())
	return c, nil
}

// bootstrap creates missing tables, seeds their defaults, and re-applies the
// defaults of every ReseedAlways schema. All steps run in one transaction,
// committed only if something was written. Reseeding uses INSERT OR IGNORE,
// so keys already present keep their current values.
func (c *Conn) bootstrap(ctx context.Context) error {
	existing, err := c.listTables(ctx)
	if err != nil {
		return err
	}
	c.tables = existing

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning bootstrap transaction: %w", err)
	}
	defer tx.Rollback()

	dirty := false
	for _, schema := range c.schemas {
		name := schema.TableName()
		seed, seedRows := schema.seedStatement()

		if !c.tables[name] {
			c.logger.Info("initializing table", "domain", c.domain, "scope", c.scope.Key(), "table", name)
			if _, err := tx.ExecContext(ctx, schema.CreateStatement()); err != nil {
				return fmt.Errorf("creating table %s: %w", name, err)
			}
			if seed != "" {
				for _, args := range seedRows {
					if _, err := tx.ExecContext(ctx, seed, args...); err != nil {
						return fmt.Errorf("seeding table %s: %w", name, err)
					}
				}
			}
			c.tables[name] = true
			dirty = true
		} else if schema.Reseed() == ReseedAlways && seed != "" {
			for _, args := range seedRows {
				if _, err := tx.ExecContext(ctx, seed, args...); err != nil {
					return fmt.Errorf("reseeding table %s: %w", name, err)
				}
			}
			dirty = true
		}

		if schema.KeyValue() {
			c.kvShapes[name] = true
		}
	}

	if !dirty {
		return nil
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bootstrap: %w", err)
	}
	return nil
}

// Scope returns the scope this connection belongs to.
func (c *Conn) Scope() Scope { return c.scope }

// Path returns the database file path.
func (c *Conn) Path() string { return c.path }

// handle returns the pending transaction when one is open, otherwise the
// plain handle, so reads observe deferred writes.
func (c *Conn) handle() dbtx {
	if c.tx != nil {
		return c.tx
	}
	return c.db
}

func (c *Conn) begin(ctx context.Context) (*sql.Tx, error) {
	if c.tx == nil {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("beginning transaction: %w", err)
		}
		c.tx = tx
	}
	return c.tx, nil
}

// Execute runs a single statement and commits, flushing any pending deferred
// writes along with it.
func (c *Conn) Execute(ctx context.Context, query string, args ...any) error {
	if c.closed {
		return ErrClosed
	}
	if _, err := c.handle().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return c.Commit()
}

// ExecuteDeferred runs a single statement inside the pending transaction
// without committing. The write becomes durable on the next Commit (explicit
// or implied by a non-deferred write) and is discarded by Close.
func (c *Conn) ExecuteDeferred(ctx context.Context, query string, args ...any) error {
	if c.closed {
		return ErrClosed
	}
	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}
	return nil
}

// ExecuteMany runs the statement once per argument row and commits.
func (c *Conn) ExecuteMany(ctx context.Context, query string, rows [][]any) error {
	if err := c.ExecuteManyDeferred(ctx, query, rows); err != nil {
		return err
	}
	return c.Commit()
}

// ExecuteManyDeferred is the batched variant of ExecuteDeferred.
func (c *Conn) ExecuteManyDeferred(ctx context.Context, query string, rows [][]any) error {
	if c.closed {
		return ErrClosed
	}
	tx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	for _, args := range rows {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("executing statement: %w", err)
		}
	}
	return nil
}

// Fetch returns the first matching row, or nil when nothing matches.
func (c *Conn) Fetch(ctx context.Context, query string, args ...any) (Row, error) {
	if c.closed {
		return nil, ErrClosed
	}
	rows, err := c.handle().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	scanned, err := scanRows(rows, 1)
	if err != nil {
		return nil, err
	}
	if len(scanned) == 0 {
		return nil, nil
	}
	return scanned[0], nil
}

// FetchAll returns every matching row in the order defined by the statement.
func (c *Conn) FetchAll(ctx context.Context, query string, args ...any) ([]Row, error) {
	if c.closed {
		return nil, ErrClosed
	}
	rows, err := c.handle().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	return scanRows(rows, 0)
}

// Evaluate runs a statement that may return a result row (e.g. an INSERT
// with a RETURNING clause), commits, and returns the first row or nil.
func (c *Conn) Evaluate(ctx context.Context, query string, args ...any) (Row, error) {
	if c.closed {
		return nil, ErrClosed
	}
	rows, err := c.handle().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("evaluating statement: %w", err)
	}
	scanned, err := scanRows(rows, 1)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := c.Commit(); err != nil {
		return nil, err
	}
	if len(scanned) == 0 {
		return nil, nil
	}
	return scanned[0], nil
}

// Commit flushes the pending deferred writes, if any.
func (c *Conn) Commit() error {
	if c.closed {
		return ErrClosed
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Close releases the database handle, discarding uncommitted deferred
// writes. Every operation on the connection afterwards fails with ErrClosed,
// including a second Close.
func (c *Conn) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	if c.tx != nil {
		c.tx.Rollback()
		c.tx = nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	c.logger.Debug("closed scope database", "domain", c.domain, "scope", c.scope.Key())
	return nil
}

// Tables returns the names of the user tables currently in the database.
func (c *Conn) Tables(ctx context.Context) ([]string, error) {
	if c.closed {
		return nil, ErrClosed
	}
	live, err := c.listTables(ctx)
	if err != nil {
		return nil, err
	}
	c.tables = live

	names := make([]string, 0, len(live))
	for name := range live {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ColumnNames returns the column names of a table in declaration order.
// Returns ErrUnknownTable for a table that does not exist.
func (c *Conn) ColumnNames(ctx context.Context, table string) ([]string, error) {
	if c.closed {
		return nil, ErrClosed
	}
	rows, err := c.handle().QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, fmt.Errorf("introspecting table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return columns, nil
}

func (c *Conn) listTables(ctx context.Context) (map[string]bool, error) {
	rows, err := c.handle().QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

// scanRows reads up to limit rows (0 for all) into generic Rows, normalizing
// []byte values to string.
func scanRows(rows *sql.Rows, limit int) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)

		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

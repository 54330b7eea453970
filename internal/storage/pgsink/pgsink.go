// Package pgsink loads the export table into Postgres with pgx v5. Rows are
// staged through CopyFrom in batches inside a single transaction, so a
// failed export leaves the target table untouched.
package pgsink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres sink configuration.
type Config struct {
	DSN         string // pgxpool connection string
	Table       string // possibly schema-qualified, e.g. "public.catastro"
	CreateTable bool   // create the table (all TEXT columns) if missing
}

// batchSize bounds rows held in memory between COPY calls.
const batchSize = 500

// Sink is a Postgres-backed storage.RowSink.
type Sink struct {
	cfg       Config
	pool      *pgxpool.Pool
	tx        pgx.Tx
	cols      []string
	batch     [][]any
	committed bool
}

// New validates cfg; the connection is established in Begin.
func New(cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN is required")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("postgres: table is required")
	}
	return &Sink{cfg: cfg}, nil
}

// Begin connects, opens the transaction, and optionally creates the table.
// Column names are lowercased field names; all columns are TEXT, matching
// the extractor's no-coercion contract.
func (s *Sink) Begin(ctx context.Context, columns []string) error {
	pool, err := pgxpool.New(ctx, s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	s.pool = pool

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	s.tx = tx

	s.cols = make([]string, len(columns))
	for i, c := range columns {
		s.cols[i] = strings.ToLower(c)
	}

	if s.cfg.CreateTable {
		if _, err := tx.Exec(ctx, createTableSQL(s.cfg.Table, s.cols)); err != nil {
			return fmt.Errorf("postgres: create table: %w", err)
		}
	}
	s.batch = make([][]any, 0, batchSize)
	return nil
}

// Write buffers one row, flushing a COPY batch when full.
func (s *Sink) Write(ctx context.Context, row []string) error {
	if s.tx == nil {
		return fmt.Errorf("postgres: Write before Begin")
	}
	if len(row) != len(s.cols) {
		return fmt.Errorf("postgres: row has %d fields, want %d", len(row), len(s.cols))
	}
	vals := make([]any, len(row))
	for i, v := range row {
		vals[i] = v
	}
	s.batch = append(s.batch, vals)
	if len(s.batch) >= batchSize {
		return s.flush(ctx)
	}
	return nil
}

func (s *Sink) flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	n, err := s.tx.CopyFrom(ctx, splitFQN(s.cfg.Table), s.cols, pgx.CopyFromRows(s.batch))
	if err != nil {
		return fmt.Errorf("postgres: copy: %w", err)
	}
	if int(n) != len(s.batch) {
		return fmt.Errorf("postgres: copy reported %d of %d rows", n, len(s.batch))
	}
	s.batch = s.batch[:0]
	return nil
}

// Commit flushes the final batch and commits the transaction.
func (s *Sink) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("postgres: Commit before Begin")
	}
	if err := s.flush(ctx); err != nil {
		return err
	}
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	s.committed = true
	return nil
}

// Close rolls back an uncommitted transaction and releases the pool.
func (s *Sink) Close() error {
	if s.tx != nil && !s.committed {
		_ = s.tx.Rollback(context.Background())
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// createTableSQL builds CREATE TABLE IF NOT EXISTS with TEXT columns.
func createTableSQL(table string, cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgIdent(c) + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgFQN(table), strings.Join(defs, ", "))
}

// pgIdent safely quotes a single identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.catastro".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

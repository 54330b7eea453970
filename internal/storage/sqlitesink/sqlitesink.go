// Package sqlitesink loads the export table into SQLite via database/sql
// and the modernc.org driver. SQLite has no bulk-load primitive, so rows go
// through a prepared INSERT inside one transaction; rollback on abort keeps
// the all-or-nothing contract.
package sqlitesink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // alternative: github.com/mattn/go-sqlite3
)

// Config holds SQLite sink configuration.
type Config struct {
	DSN         string // e.g. "file:catastro.db" or a plain path
	Table       string
	CreateTable bool
}

// Sink is a SQLite-backed storage.RowSink.
type Sink struct {
	cfg       Config
	db        *sql.DB
	tx        *sql.Tx
	stmt      *sql.Stmt
	cols      int
	committed bool
}

// New validates cfg; the database is opened in Begin.
func New(cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: DSN is required")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		return nil, fmt.Errorf("sqlite: table is required")
	}
	return &Sink{cfg: cfg}, nil
}

// Begin opens the database, pings it to fail fast on bad DSNs, and prepares
// the transaction and insert statement.
func (s *Sink) Begin(ctx context.Context, columns []string) error {
	db, err := sql.Open("sqlite", s.cfg.DSN)
	if err != nil {
		return fmt.Errorf("sqlite: open: %w", err)
	}
	s.db = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}

	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.ToLower(c)
	}
	s.cols = len(cols)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	s.tx = tx

	if s.cfg.CreateTable {
		if _, err := tx.ExecContext(ctx, createTableSQL(s.cfg.Table, cols)); err != nil {
			return fmt.Errorf("sqlite: create table: %w", err)
		}
	}

	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		s.cfg.Table, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	))
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	s.stmt = stmt
	return nil
}

// Write inserts one row through the prepared statement.
func (s *Sink) Write(ctx context.Context, row []string) error {
	if s.stmt == nil {
		return fmt.Errorf("sqlite: Write before Begin")
	}
	if len(row) != s.cols {
		return fmt.Errorf("sqlite: row has %d fields, want %d", len(row), s.cols)
	}
	args := make([]any, len(row))
	for i, v := range row {
		args[i] = v
	}
	if _, err := s.stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("sqlite: insert: %w", err)
	}
	return nil
}

// Commit commits the transaction.
func (s *Sink) Commit(ctx context.Context) error {
	if s.tx == nil {
		return fmt.Errorf("sqlite: Commit before Begin")
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	s.committed = true
	return nil
}

// Close rolls back uncommitted work and closes the database.
func (s *Sink) Close() error {
	if s.stmt != nil {
		_ = s.stmt.Close()
	}
	if s.tx != nil && !s.committed {
		_ = s.tx.Rollback()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// createTableSQL builds CREATE TABLE IF NOT EXISTS with TEXT columns.
func createTableSQL(table string, cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = c + " TEXT"
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
}

// Package storage defines the sink contract the export pipeline writes
// through, plus a small factory over the concrete backends. A sink receives
// the fixed column header once, then rows in commit order; nothing becomes
// visible at the destination unless Commit succeeds.
package storage

import (
	"context"
	"fmt"

	"catastro/internal/storage/csvfile"
	"catastro/internal/storage/pgsink"
	"catastro/internal/storage/sqlitesink"
)

// RowSink consumes one flat table. Implementations must be transactional in
// effect: Close without a prior successful Commit discards all output.
type RowSink interface {
	// Begin prepares the destination and fixes the column set.
	Begin(ctx context.Context, columns []string) error

	// Write appends one row, aligned to the Begin columns.
	Write(ctx context.Context, row []string) error

	// Commit makes the table visible at the destination.
	Commit(ctx context.Context) error

	// Close releases resources. Safe to call after Commit and after errors.
	Close() error
}

// Options selects and configures a sink backend.
type Options struct {
	Kind        string // "csv" (default), "postgres", "sqlite"
	Output      string // csv destination path
	DSN         string // database connection string
	Table       string // database table name
	CreateTable bool   // issue CREATE TABLE IF NOT EXISTS before loading
}

// Open constructs the sink named by opts.Kind.
func Open(opts Options) (RowSink, error) {
	switch opts.Kind {
	case "", "csv":
		if opts.Output == "" {
			return nil, fmt.Errorf("storage: csv sink requires an output path")
		}
		return csvfile.New(opts.Output), nil
	case "postgres":
		return pgsink.New(pgsink.Config{DSN: opts.DSN, Table: opts.Table, CreateTable: opts.CreateTable})
	case "sqlite":
		return sqlitesink.New(sqlitesink.Config{DSN: opts.DSN, Table: opts.Table, CreateTable: opts.CreateTable})
	default:
		return nil, fmt.Errorf("storage: unknown sink kind %q", opts.Kind)
	}
}

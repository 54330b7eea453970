// Package csvfile writes the export table as a semicolon-delimited text
// file with every field quoted, matching the layout consumers of these
// extracts already parse. encoding/csv cannot produce always-quoted output,
// so rows are formatted directly.
//
// The file is assembled in a temporary sibling and renamed into place on
// Commit, so a failed export never leaves a partial table behind.
package csvfile

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Delimiter separates fields in the output table.
const Delimiter = ';'

// Sink writes one table to a file.
type Sink struct {
	dest      string
	cols      int
	tmp       *os.File
	bw        *bufio.Writer
	committed bool
}

// New returns a Sink that will produce dest on Commit.
func New(dest string) *Sink {
	return &Sink{dest: dest}
}

// Begin creates the temporary file and writes the header row.
func (s *Sink) Begin(ctx context.Context, columns []string) error {
	dir := filepath.Dir(s.dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".catastro-export-*.tmp")
	if err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	s.tmp = tmp
	s.bw = bufio.NewWriter(tmp)
	s.cols = len(columns)
	return s.writeRow(columns)
}

// Write appends one data row.
func (s *Sink) Write(ctx context.Context, row []string) error {
	if s.tmp == nil {
		return fmt.Errorf("csv: Write before Begin")
	}
	if len(row) != s.cols {
		return fmt.Errorf("csv: row has %d fields, header has %d", len(row), s.cols)
	}
	return s.writeRow(row)
}

func (s *Sink) writeRow(fields []string) error {
	for i, v := range fields {
		if i > 0 {
			if err := s.bw.WriteByte(Delimiter); err != nil {
				return fmt.Errorf("csv: %w", err)
			}
		}
		if err := s.bw.WriteByte('"'); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		if _, err := s.bw.WriteString(strings.ReplaceAll(v, `"`, `""`)); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		if err := s.bw.WriteByte('"'); err != nil {
			return fmt.Errorf("csv: %w", err)
		}
	}
	if err := s.bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	return nil
}

// Commit flushes and promotes the temporary file to the destination name.
func (s *Sink) Commit(ctx context.Context) error {
	if s.tmp == nil {
		return fmt.Errorf("csv: Commit before Begin")
	}
	if err := s.bw.Flush(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := s.tmp.Close(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := os.Rename(s.tmp.Name(), s.dest); err != nil {
		return fmt.Errorf("csv: promote %s: %w", s.dest, err)
	}
	s.committed = true
	return nil
}

// Close discards the temporary file when Commit never happened.
func (s *Sink) Close() error {
	if s.tmp == nil || s.committed {
		return nil
	}
	name := s.tmp.Name()
	_ = s.tmp.Close()
	_ = os.Remove(name)
	return nil
}

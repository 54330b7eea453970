// Package splitter partitions a large record-oriented cadastral XML document
// into a sequence of size-bounded documents, each independently well-formed
// and carrying the original preamble and postamble verbatim.
//
// The run is a single streaming pass: records are appended to the current
// partition until the next record would push it past the budget, the
// partition is flushed, and accumulation restarts. Records are never
// fragmented; a record larger than the whole budget becomes a one-record
// partition and is reported as a warning, not an error.
package splitter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	xmlparser "catastro/internal/parser/xml"
	"catastro/internal/progress"
)

// Config describes one split invocation.
type Config struct {
	InputPath string
	OutputDir string

	// MaxPartitionBytes is the per-output size budget.
	MaxPartitionBytes int

	// RecordTag is the repeating element's local name. Default "DAT".
	RecordTag string

	// RootTag, when set, is enforced against the document root.
	RootTag string
}

// PartFile describes one written partition.
type PartFile struct {
	Path    string
	Records int
	Bytes   int64
}

// Summary is the result of a split run.
type Summary struct {
	Records   int
	Oversized int    // records whose own estimate exceeded the budget
	Digest    uint64 // order-sensitive chain over record payloads
	Files     []PartFile
}

// DefaultRecordTag is the repeating element of LISTADATOS extracts.
const DefaultRecordTag = "DAT"

type pending struct {
	gap []byte
	raw []byte
}

// Split streams cfg.InputPath into numbered partition files under
// cfg.OutputDir. Zero-record inputs produce zero partitions and no error.
func Split(ctx context.Context, cfg Config, obs progress.Observer) (Summary, error) {
	var sum Summary
	if obs == nil {
		obs = progress.Nop{}
	}
	if cfg.MaxPartitionBytes <= 0 {
		return sum, fmt.Errorf("split: max partition size must be positive")
	}
	tag := cfg.RecordTag
	if tag == "" {
		tag = DefaultRecordTag
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return sum, fmt.Errorf("split: %w", err)
	}
	defer f.Close()
	adviseSequential(f)

	ref := filepath.Base(cfg.InputPath)
	r, err := xmlparser.NewReader(f, xmlparser.Options{RecordTag: tag, RootTag: cfg.RootTag, Ref: ref})
	if err != nil {
		return sum, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return sum, fmt.Errorf("split: %w", err)
	}

	obs.SourceStarted(ref)

	var (
		dig     Digest
		part    []pending
		current int
		w       = newPartWriter(cfg.OutputDir, cfg.InputPath, r.Encoding())
	)

	flush := func() error {
		pf, err := w.writePart(r.Preamble(), part)
		if err != nil {
			return err
		}
		sum.Files = append(sum.Files, pf)
		obs.PartitionFlushed(len(sum.Files), pf.Records, pf.Bytes)
		part = part[:0]
		current = 0
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, err
		}

		// Wrapper cost is charged once per partition; the preamble is known
		// from the first record on.
		if len(part) == 0 {
			current = wrapperOverhead(r.Preamble())
		}
		est := estimateRecord(rec.Gap, rec.Raw)
		if shouldFlush(len(part), current, est, cfg.MaxPartitionBytes) {
			if err := flush(); err != nil {
				return sum, err
			}
			current = wrapperOverhead(r.Preamble())
		}
		if len(part) == 0 && current+est > cfg.MaxPartitionBytes {
			sum.Oversized++
			obs.OversizedRecord(rec.Index+1, est, cfg.MaxPartitionBytes)
		}

		part = append(part, pending{gap: rec.Gap, raw: rec.Raw})
		current += est
		dig.Add(rec.Raw)
		sum.Records++
		obs.Record(sum.Records)
	}

	if len(part) > 0 {
		if err := flush(); err != nil {
			return sum, err
		}
	}

	// Earlier partitions were written before the postamble had been read;
	// complete them now and take final sizes.
	if err := w.finalize(r.Postamble(), sum.Files); err != nil {
		return sum, err
	}

	sum.Digest = dig.Sum()
	obs.SourceFinished(ref, sum.Records)
	return sum, nil
}

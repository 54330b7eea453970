package exporter

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"catastro/internal/datasource"
	xmlparser "catastro/internal/parser/xml"
	"catastro/internal/progress"
	"catastro/internal/storage"
)

// Config describes one export invocation.
type Config struct {
	// Inputs are document or archive references, in output order.
	Inputs []string

	// RecordTag is the repeating element's local name. Default "BIE".
	RecordTag string

	// RootTag, when set, is enforced against every document root.
	RootTag string

	// Workers bounds concurrent source extraction. Rows are committed to
	// the sink strictly in source order regardless. Default 1.
	Workers int
}

// Summary is the result of an export run.
type Summary struct {
	Sources int
	Rows    int
}

// Export resolves cfg.Inputs, extracts one row per record, and writes the
// unified table through sink in source-then-record order. The sink is
// committed only when every source succeeds; any failure aborts the whole
// export with nothing promoted.
func Export(ctx context.Context, cfg Config, sink storage.RowSink, obs progress.Observer) (Summary, error) {
	var sum Summary
	if obs == nil {
		obs = progress.Nop{}
	}
	tag := cfg.RecordTag
	if tag == "" {
		tag = DefaultRecordTag
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	sources, err := datasource.Resolve(cfg.Inputs)
	if err != nil {
		return sum, err
	}
	sum.Sources = len(sources)

	if err := sink.Begin(ctx, Columns); err != nil {
		return sum, err
	}

	// One extraction task per source, a single writer committing rows in
	// ordinal order. A task that finishes ahead of its turn blocks once its
	// channel buffer fills; extraction state is otherwise unshared.
	results := make([]chan []string, len(sources))
	for i := range results {
		results[i] = make(chan []string, 256)
	}

	gWriter, wctx := errgroup.WithContext(ctx)
	gWorkers, tctx := errgroup.WithContext(wctx)
	gWorkers.SetLimit(workers)

	go func() {
		for i, src := range sources {
			i, src := i, src
			gWorkers.Go(func() error {
				defer close(results[i])
				return extractSource(tctx, src, tag, cfg.RootTag, results[i])
			})
		}
	}()

	gWriter.Go(func() error {
		for i, src := range sources {
			obs.SourceStarted(src.Ref())
			n := 0
			for row := range results[i] {
				if err := sink.Write(wctx, row); err != nil {
					return err
				}
				n++
				sum.Rows++
				obs.Record(sum.Rows)
			}
			obs.SourceFinished(src.Ref(), n)
		}
		return nil
	})

	werr := gWriter.Wait()
	xerr := gWorkers.Wait()
	if xerr != nil && xerr != context.Canceled {
		return sum, xerr
	}
	if werr != nil {
		return sum, werr
	}

	if err := sink.Commit(ctx); err != nil {
		return sum, err
	}
	return sum, nil
}

// extractSource streams one document and sends a row per record.
func extractSource(ctx context.Context, src datasource.Source, recordTag, rootTag string, out chan<- []string) error {
	rc, err := src.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	r, err := xmlparser.NewReader(rc, xmlparser.Options{RecordTag: recordTag, RootTag: rootTag, Ref: src.Ref()})
	if err != nil {
		return err
	}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		values, err := Extract(rec.Raw)
		if err != nil {
			return fmt.Errorf("%s: record %d: %w", src.Ref(), rec.Index+1, err)
		}
		select {
		case out <- Row(values):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

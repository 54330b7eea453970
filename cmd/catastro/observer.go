package main

import "log"

// progressInterval spaces out per-record progress lines.
const progressInterval = 25000

// cliObserver renders run progress on stderr through the standard logger.
// Oversized-record warnings are printed even in quiet mode.
type cliObserver struct {
	quiet bool
}

func (o cliObserver) SourceStarted(ref string) {
	if !o.quiet {
		log.Printf("reading %s", ref)
	}
}

func (o cliObserver) Record(n int) {
	if !o.quiet && n%progressInterval == 0 {
		log.Printf("  %d records", n)
	}
}

func (o cliObserver) PartitionFlushed(index, records int, size int64) {
	if !o.quiet {
		log.Printf("  partition %03d: %d records, %d bytes", index, records, size)
	}
}

func (o cliObserver) OversizedRecord(index int, estimate, budget int) {
	log.Printf("warning: record %d is %d bytes, over the %d byte partition budget; writing it alone", index, estimate, budget)
}

func (o cliObserver) SourceFinished(ref string, records int) {
	if !o.quiet {
		log.Printf("done %s: %d records", ref, records)
	}
}

// Package progress defines the callback seam between the core pipelines and
// whatever renders their progress (terminal, metrics, nothing).
//
// The core packages (splitter, exporter) report through an Observer handed to
// them per invocation; they never touch a global verbosity switch and never
// format output themselves. Callers that want silence pass Nop.
package progress

// Observer receives pipeline progress events. Implementations must be cheap;
// the splitter calls Record once per input record.
type Observer interface {
	// SourceStarted fires when a pipeline begins reading an input. ref is a
	// human-readable reference ("file.xml" or "archive.zip!entry.xml").
	SourceStarted(ref string)

	// Record fires after each record is processed. n is the running count
	// within the current source, starting at 1.
	Record(n int)

	// PartitionFlushed fires when the splitter completes an output document.
	PartitionFlushed(index, records int, size int64)

	// OversizedRecord fires when a single record's estimate exceeds the
	// partition budget. The record is still emitted whole; this is a warning.
	OversizedRecord(index int, estimate, budget int)

	// SourceFinished fires when a source has been fully consumed.
	SourceFinished(ref string, records int)
}

// Nop is the default Observer; every event is discarded.
type Nop struct{}

func (Nop) SourceStarted(string)             {}
func (Nop) Record(int)                       {}
func (Nop) PartitionFlushed(int, int, int64) {}
func (Nop) OversizedRecord(int, int, int)    {}
func (Nop) SourceFinished(string, int)       {}

// Multi fans events out to several observers in order.
type Multi []Observer

func (m Multi) SourceStarted(ref string) {
	for _, o := range m {
		o.SourceStarted(ref)
	}
}

func (m Multi) Record(n int) {
	for _, o := range m {
		o.Record(n)
	}
}

func (m Multi) PartitionFlushed(index, records int, size int64) {
	for _, o := range m {
		o.PartitionFlushed(index, records, size)
	}
}

func (m Multi) OversizedRecord(index, estimate, budget int) {
	for _, o := range m {
		o.OversizedRecord(index, estimate, budget)
	}
}

func (m Multi) SourceFinished(ref string, records int) {
	for _, o := range m {
		o.SourceFinished(ref, records)
	}
}

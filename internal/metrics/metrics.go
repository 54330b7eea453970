// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the catastro tools.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// Split and export runs are batch jobs that exit when done, so concrete
// backends push on Flush rather than exposing a scrape endpoint.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordRun measures one command execution: latency plus success/failure.
func RecordRun(command string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"command": command,
		"status":  status,
	}

	backend.IncCounter("catastro_runs_total", 1, lbls)
	backend.ObserveHistogram("catastro_run_duration_seconds", d.Seconds(), lbls)
}

// RecordRecords increments a record-level counter for the given command and
// kind.
//
// Typical kinds mirror the run summaries, e.g.:
//   - "read"       records consumed from input documents
//   - "exported"   rows written to the sink
//   - "oversized"  records bigger than the partition budget
func RecordRecords(command, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("catastro_records_total", float64(delta), Labels{
		"command": command,
		"kind":    kind,
	})
}

// RecordPartitions increments the partition counter for a split run.
func RecordPartitions(delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("catastro_partitions_total", float64(delta), Labels{
		"command": "split",
	})
}

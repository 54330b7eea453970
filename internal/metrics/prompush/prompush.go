// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// It adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the common run labels (command, status, kind) onto Prometheus
//     labels.
//   - Pushing collected metrics to a Pushgateway instance instead of exposing
//     an HTTP scrape endpoint, since split and export runs exit when done.
//
// All Prometheus-specific dependencies live here so the rest of the project
// stays decoupled from the concrete metrics system.
package prompush

import (
	"fmt"

	"catastro/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	runCounter  *prometheus.CounterVec // "catastro_runs_total"
	runDuration *prometheus.SummaryVec // "catastro_run_duration_seconds"

	recordCounter    *prometheus.CounterVec // "catastro_records_total"
	partitionCounter prometheus.Counter     // "catastro_partitions_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName is the Pushgateway "job" grouping key; gatewayURL is the base URL
// of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "catastro"
	}

	reg := prometheus.NewRegistry()

	runCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catastro_runs_total",
			Help: "Total command executions, partitioned by command and status.",
		},
		[]string{"command", "status"},
	)
	runDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "catastro_run_duration_seconds",
			Help:       "Duration of command executions in seconds, partitioned by command and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"command", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catastro_records_total",
			Help: "Record-level counts per command and kind (read, exported, oversized).",
		},
		[]string{"command", "kind"},
	)
	partitionCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catastro_partitions_total",
			Help: "Total partition files written by split runs.",
		},
	)

	if err := reg.Register(runCounter); err != nil {
		return nil, fmt.Errorf("prompush: register run counter: %w", err)
	}
	if err := reg.Register(runDuration); err != nil {
		return nil, fmt.Errorf("prompush: register run summary: %w", err)
	}
	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}
	if err := reg.Register(partitionCounter); err != nil {
		return nil, fmt.Errorf("prompush: register partition counter: %w", err)
	}

	return &Backend{
		gatewayURL:       gatewayURL,
		jobName:          jobName,
		reg:              reg,
		runCounter:       runCounter,
		runDuration:      runDuration,
		recordCounter:    recordCounter,
		partitionCounter: partitionCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "catastro_runs_total":
		b.runCounter.WithLabelValues(labels["command"], labels["status"]).Add(delta)

	case "catastro_records_total":
		b.recordCounter.WithLabelValues(labels["command"], labels["kind"]).Add(delta)

	case "catastro_partitions_total":
		b.partitionCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "catastro_run_duration_seconds" {
		return
	}
	b.runDuration.WithLabelValues(labels["command"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}

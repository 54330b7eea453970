// Package config defines the JSON-serializable job model for the catastro
// tools. A job file lets a recurring split or export run be described once on
// disk instead of re-assembled from flags; decoding is performed by the
// standard library and flags override whatever the file set.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Defaults applied where the file (or flags) leave a knob unset.
const (
	// DefaultMaxPartitionKB bounds each split partition.
	DefaultMaxPartitionKB = 450

	// DefaultOutputDir receives split partitions.
	DefaultOutputDir = "output"

	// DefaultSplitRecordTag is the repeating element in full-detail extracts.
	DefaultSplitRecordTag = "DAT"

	// DefaultExportRecordTag is the repeating element in listing extracts.
	DefaultExportRecordTag = "BIE"

	// DefaultRootTag is the document root shared by both extract shapes.
	DefaultRootTag = "LISTADATOS"
)

// Job is the top-level object decoded from a job file. Exactly one of Split
// or Export is normally populated; the CLI subcommand picks which one it
// reads.
type Job struct {
	Split  Split  `json:"split"`
	Export Export `json:"export"`
}

// Split configures one partitioning run.
type Split struct {
	// Input is the document to partition.
	Input string `json:"input"`

	// OutputDir receives the partition files.
	OutputDir string `json:"output_dir"`

	// MaxPartitionKB bounds each partition, in kilobytes.
	MaxPartitionKB int `json:"max_partition_kb"`

	// RecordTag is the repeating element's local name.
	RecordTag string `json:"record_tag"`

	// RootTag, when set, is enforced against the document root.
	RootTag string `json:"root_tag"`
}

// Export configures one flat-table export run.
type Export struct {
	// Inputs are documents or ZIP archives, in output order.
	Inputs []string `json:"inputs"`

	// RecordTag is the repeating element's local name.
	RecordTag string `json:"record_tag"`

	// RootTag, when set, is enforced against every document root.
	RootTag string `json:"root_tag"`

	// Workers bounds concurrent source extraction.
	Workers int `json:"workers"`

	// Sink selects and configures the destination.
	Sink Sink `json:"sink"`
}

// Sink describes the export destination.
type Sink struct {
	// Kind selects the backend: "csv" (default), "postgres", or "sqlite".
	Kind string `json:"kind"`

	// Output is the csv destination path.
	Output string `json:"output"`

	// DSN is the database connection string for the database kinds.
	DSN string `json:"dsn"`

	// Table is the destination table name.
	Table string `json:"table"`

	// CreateTable issues CREATE TABLE IF NOT EXISTS before loading.
	CreateTable bool `json:"create_table"`
}

// Load decodes a job file. Missing fields keep their zero values; apply
// defaults with ApplyDefaults after flag merging.
func Load(path string) (Job, error) {
	var job Job
	data, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("config: %w", err)
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return job, nil
}

// ApplyDefaults fills unset knobs in place.
func (j *Job) ApplyDefaults() {
	if j.Split.OutputDir == "" {
		j.Split.OutputDir = DefaultOutputDir
	}
	if j.Split.MaxPartitionKB == 0 {
		j.Split.MaxPartitionKB = DefaultMaxPartitionKB
	}
	if j.Split.RecordTag == "" {
		j.Split.RecordTag = DefaultSplitRecordTag
	}
	if j.Export.RecordTag == "" {
		j.Export.RecordTag = DefaultExportRecordTag
	}
	if j.Export.Workers == 0 {
		j.Export.Workers = 1
	}
	if j.Export.Sink.Kind == "" {
		j.Export.Sink.Kind = "csv"
	}
}

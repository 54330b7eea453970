// Package config provides the job model and helpers for the catastro tools.
//
// This file adds a static validator over decoded Job values. It returns a
// list of issues (errors and warnings) that callers can surface in the CLI
// or in tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Job.
//
// Path is a dotted path into the config (e.g. "export.sink.kind",
// "export.inputs[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors filters issues down to the blocking ones.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

// ValidateSplit performs static validation of a Split section. It does not
// mutate the config; callers decide whether warnings are fatal.
func ValidateSplit(s Split) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Input) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "split.input",
			Message:  "split.input must not be empty",
		})
	}
	if strings.TrimSpace(s.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "split.output_dir",
			Message:  "split.output_dir must not be empty",
		})
	}
	if s.MaxPartitionKB < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "split.max_partition_kb",
			Message:  "max_partition_kb must not be negative",
		})
	} else if s.MaxPartitionKB > 0 && s.MaxPartitionKB < 4 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "split.max_partition_kb",
			Message:  fmt.Sprintf("max_partition_kb=%d is smaller than most single records; expect one-record partitions", s.MaxPartitionKB),
		})
	}
	if strings.TrimSpace(s.RecordTag) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "split.record_tag",
			Message:  "split.record_tag must not be empty",
		})
	}

	return issues
}

// ValidateExport performs static validation of an Export section.
func ValidateExport(e Export) []Issue {
	var issues []Issue

	if len(e.Inputs) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.inputs",
			Message:  "export.inputs must name at least one document or archive",
		})
	}
	for i, in := range e.Inputs {
		if strings.TrimSpace(in) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("export.inputs[%d]", i),
				Message:  "input reference must not be empty",
			})
		}
	}
	if strings.TrimSpace(e.RecordTag) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.record_tag",
			Message:  "export.record_tag must not be empty",
		})
	}
	if e.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.workers",
			Message:  "workers must not be negative",
		})
	}
	issues = append(issues, validateSink(e.Sink)...)

	return issues
}

// validateSink validates the destination section shared by the export kinds.
func validateSink(s Sink) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"csv":      {},
		"postgres": {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.sink.kind",
			Message:  fmt.Sprintf("unknown sink kind %q; expected csv, postgres, or sqlite", s.Kind),
		})
		return issues
	}

	switch s.Kind {
	case "csv":
		if strings.TrimSpace(s.Output) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "export.sink.output",
				Message:  "csv sink requires a non-empty output path",
			})
		}
	case "postgres", "sqlite":
		if strings.TrimSpace(s.DSN) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "export.sink.dsn",
				Message:  "database sink requires a non-empty dsn",
			})
		}
		if strings.TrimSpace(s.Table) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "export.sink.table",
				Message:  "database sink requires a non-empty table",
			})
		}
	}

	return issues
}

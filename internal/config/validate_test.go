package config

import (
	"strings"
	"testing"
)

func hasIssue(issues []Issue, severity IssueSeverity, path string) bool {
	for _, iss := range issues {
		if iss.Severity == severity && iss.Path == path {
			return true
		}
	}
	return false
}

func TestValidateSplit(t *testing.T) {
	good := Split{Input: "big.xml", OutputDir: "output", MaxPartitionKB: 450, RecordTag: "DAT"}
	if issues := ValidateSplit(good); len(Errors(issues)) != 0 {
		t.Fatalf("valid split rejected: %v", issues)
	}

	issues := ValidateSplit(Split{})
	for _, path := range []string{"split.input", "split.output_dir", "split.record_tag"} {
		if !hasIssue(issues, SeverityError, path) {
			t.Errorf("missing error at %s", path)
		}
	}

	issues = ValidateSplit(Split{Input: "a", OutputDir: "o", MaxPartitionKB: 2, RecordTag: "DAT"})
	if !hasIssue(issues, SeverityWarning, "split.max_partition_kb") {
		t.Error("tiny budget not warned about")
	}

	issues = ValidateSplit(Split{Input: "a", OutputDir: "o", MaxPartitionKB: -1, RecordTag: "DAT"})
	if !hasIssue(issues, SeverityError, "split.max_partition_kb") {
		t.Error("negative budget accepted")
	}
}

func TestValidateExport(t *testing.T) {
	good := Export{
		Inputs:    []string{"a.zip", "b.xml"},
		RecordTag: "BIE",
		Sink:      Sink{Kind: "csv", Output: "out.csv"},
	}
	if issues := ValidateExport(good); len(Errors(issues)) != 0 {
		t.Fatalf("valid export rejected: %v", issues)
	}

	issues := ValidateExport(Export{RecordTag: "BIE", Sink: Sink{Kind: "csv", Output: "x"}})
	if !hasIssue(issues, SeverityError, "export.inputs") {
		t.Error("empty inputs accepted")
	}

	issues = ValidateExport(Export{
		Inputs: []string{"a.xml", " "}, RecordTag: "BIE",
		Sink: Sink{Kind: "csv", Output: "x"},
	})
	if !hasIssue(issues, SeverityError, "export.inputs[1]") {
		t.Error("blank input reference accepted")
	}
}

func TestValidateSinkKinds(t *testing.T) {
	issues := validateSink(Sink{Kind: "mongo"})
	if !hasIssue(issues, SeverityError, "export.sink.kind") {
		t.Error("unknown kind accepted")
	}

	issues = validateSink(Sink{Kind: "postgres"})
	if !hasIssue(issues, SeverityError, "export.sink.dsn") ||
		!hasIssue(issues, SeverityError, "export.sink.table") {
		t.Errorf("postgres sink without dsn/table accepted: %v", issues)
	}

	issues = validateSink(Sink{Kind: "csv"})
	if !hasIssue(issues, SeverityError, "export.sink.output") {
		t.Error("csv sink without output accepted")
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "split.input", Message: "must not be empty"}
	if !strings.Contains(iss.Error(), "split.input") {
		t.Errorf("Error() = %q", iss.Error())
	}
}

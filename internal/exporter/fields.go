// Package exporter turns cadastral property records into rows of the fixed
// flat table and drives the multi-source export pipeline.
package exporter

import (
	"fmt"
	"strings"
)

// DefaultRecordTag is the repeating property element in listing extracts.
const DefaultRecordTag = "BIE"

// Columns is the output header, in order. RC is composite: the cadastral
// reference assembled from PCA+CAR+CDC1+CDC2.
var Columns = []string{
	"TV", "NV", "PNP", "PLP", "BQ", "ES", "PT", "PU", "RC",
	"PCA", "CAR", "CDC1", "CDC2", "CPO", "CPA", "KM",
	"ESC", "PLA", "PUE", "POL", "PAR", "SNP", "SLP", "KK",
}

// rcParts are concatenated, in this order and with no separator, to form RC.
// Absent constituents contribute empty text.
var rcParts = [4]string{"PCA", "CAR", "CDC1", "CDC2"}

// fieldPaths locates each scalar column inside a record subtree. Multi-
// segment paths anchor a field to its section (address, interior location,
// cadastral reference, postal code, staircase detail); single-segment paths
// match the first descendant with that local name.
var fieldPaths = map[string]string{
	"TV":  "DIR/TV",
	"NV":  "DIR/NV",
	"PNP": "DIR/PNP",
	"PLP": "DIR/PLP",
	"BQ":  "DIR/BQ",
	"KM":  "DIR/KM",

	"ES": "LOINT/ES",
	"PT": "LOINT/PT",
	"PU": "LOINT/PU",

	"PCA":  "RCA/PCA",
	"CAR":  "RCA/CAR",
	"CDC1": "RCA/CDC1",
	"CDC2": "RCA/CDC2",

	"CPO": "CPP/CPO",
	"CPA": "CPP/CPA",

	"ESC": "LEC/ELC/ESC",
	"PLA": "LEC/ELC/PLA",
	"PUE": "LEC/ELC/PUE",

	"POL": "POL",
	"PAR": "PAR",
	"SNP": "SNP",
	"SLP": "SLP",
	"KK":  "KK",
}

// matcher binds an output key to a compiled relative path.
type matcher struct {
	key  string
	segs []string
}

// fieldSet is the compiled lookup used in the hot path, indexed by the last
// path segment so only candidate matchers are checked per element.
type fieldSet struct {
	byLast map[string][]matcher
}

func compileFields(paths map[string]string) (*fieldSet, error) {
	fs := &fieldSet{byLast: map[string][]matcher{}}
	for key, raw := range paths {
		segs, err := parsePath(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		last := segs[len(segs)-1]
		fs.byLast[last] = append(fs.byLast[last], matcher{key: key, segs: segs})
	}
	return fs, nil
}

func parsePath(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty path")
	}
	parts := strings.Split(raw, "/")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("bad empty segment in %q", raw)
		}
		parts[i] = p
	}
	return parts, nil
}

// tailMatches reports whether rel (the element stack relative to the record)
// ends with the matcher's segments.
func tailMatches(rel, segs []string) bool {
	if len(rel) < len(segs) {
		return false
	}
	off := len(rel) - len(segs)
	for i := range segs {
		if rel[off+i] != segs[i] {
			return false
		}
	}
	return true
}

// stdFields is the compiled catastro field table. The paths are package
// constants; compilation cannot fail at runtime.
var stdFields = func() *fieldSet {
	fs, err := compileFields(fieldPaths)
	if err != nil {
		panic(err)
	}
	return fs
}()

// Row orders extracted values into one table row, assembling the composite
// RC column. Missing fields yield empty strings.
func Row(values map[string]string) []string {
	row := make([]string, len(Columns))
	for i, col := range Columns {
		if col == "RC" {
			var b strings.Builder
			for _, p := range rcParts {
				b.WriteString(values[p])
			}
			row[i] = b.String()
			continue
		}
		row[i] = values[col]
	}
	return row
}

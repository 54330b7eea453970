package exporter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Extract maps one serialized record subtree to its field values. Every
// value is kept as trimmed text, never parsed numerically, so leading zeros
// and non-numeric formatting survive byte-for-byte. The first occurrence of
// a field wins; fields absent from the record are simply missing from the
// returned map.
func Extract(raw []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	type capture struct {
		key   string
		depth int
		text  []byte
	}
	var (
		values   = make(map[string]string, len(fieldPaths))
		rel      []string
		caps     []capture
		inRecord bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !inRecord {
				inRecord = true
				continue
			}
			rel = append(rel, t.Name.Local)
			for _, m := range stdFields.byLast[t.Name.Local] {
				if !tailMatches(rel, m.segs) {
					continue
				}
				caps = append(caps, capture{key: m.key, depth: len(rel)})
			}
		case xml.CharData:
			if inRecord && len(caps) > 0 {
				for i := range caps {
					caps[i].text = append(caps[i].text, t...)
				}
			}
		case xml.EndElement:
			if !inRecord {
				continue
			}
			if len(caps) > 0 {
				// Commit captures whose element ends at this depth.
				w := 0
				for _, cp := range caps {
					if cp.depth == len(rel) {
						// First occurrence wins, empty or not.
						if _, exists := values[cp.key]; !exists {
							values[cp.key] = string(bytes.TrimSpace(cp.text))
						}
					} else {
						caps[w] = cp
						w++
					}
				}
				caps = caps[:w]
			}
			if len(rel) > 0 {
				rel = rel[:len(rel)-1]
			}
		}
	}
}

// Package datasource resolves input references (plain XML documents or ZIP
// archives containing them) into a uniform, ordered list of openable
// sources. Ordering is the order references were supplied; within an
// archive, entry order as stored.
package datasource

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// Source is one resolved input document. Entry is empty for a plain file
// and names the archive member otherwise.
type Source struct {
	Ordinal int
	Path    string
	Entry   string
}

// Ref is the human-readable reference used in errors and progress output.
func (s Source) Ref() string {
	if s.Entry == "" {
		return s.Path
	}
	return s.Path + "!" + s.Entry
}

// Open returns the document's byte stream. For archive members the returned
// closer also releases the archive handle.
func (s Source) Open() (io.ReadCloser, error) {
	if s.Entry == "" {
		f, err := os.Open(s.Path)
		if err != nil {
			return nil, fmt.Errorf("datasource: %w", err)
		}
		return f, nil
	}

	zr, err := zip.OpenReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("datasource: open archive %s: %w", s.Path, err)
	}
	for _, f := range zr.File {
		if f.Name != s.Entry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			zr.Close()
			return nil, fmt.Errorf("datasource: open %s: %w", s.Ref(), err)
		}
		return &entryReader{rc: rc, zr: zr}, nil
	}
	zr.Close()
	return nil, fmt.Errorf("datasource: entry %s not found in %s", s.Entry, s.Path)
}

type entryReader struct {
	rc io.ReadCloser
	zr *zip.ReadCloser
}

func (e *entryReader) Read(p []byte) (int, error) { return e.rc.Read(p) }

func (e *entryReader) Close() error {
	err := e.rc.Close()
	if cerr := e.zr.Close(); err == nil {
		err = cerr
	}
	return err
}

// NoDocumentFoundError reports an archive with no recognizable document
// entries.
type NoDocumentFoundError struct {
	Archive string
}

func (e *NoDocumentFoundError) Error() string {
	return fmt.Sprintf("datasource: no XML documents in archive %s", e.Archive)
}

// Resolve expands refs into sources. Archives (.zip) contribute one source
// per .xml entry in stored order; non-document entries are skipped, but an
// archive yielding none fails with NoDocumentFoundError. Any other
// reference passes through as a plain document.
func Resolve(refs []string) ([]Source, error) {
	var out []Source
	for _, ref := range refs {
		if !isArchive(ref) {
			out = append(out, Source{Ordinal: len(out), Path: ref})
			continue
		}

		zr, err := zip.OpenReader(ref)
		if err != nil {
			return nil, fmt.Errorf("datasource: open archive %s: %w", ref, err)
		}
		found := 0
		for _, f := range zr.File {
			if f.FileInfo().IsDir() || !isDocument(f.Name) {
				continue
			}
			out = append(out, Source{Ordinal: len(out), Path: ref, Entry: f.Name})
			found++
		}
		zr.Close()
		if found == 0 {
			return nil, &NoDocumentFoundError{Archive: ref}
		}
	}
	return out, nil
}

func isArchive(name string) bool {
	return strings.EqualFold(path.Ext(strings.ReplaceAll(name, "\\", "/")), ".zip")
}

func isDocument(name string) bool {
	return strings.EqualFold(path.Ext(name), ".xml")
}

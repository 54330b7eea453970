package splitter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// partWriter numbers and writes partition documents. Indices are 1-based,
// contiguous, zero-padded to three digits, and never reused.
//
// Fragments arrive as UTF-8 regardless of the source charset; when enc is
// non-nil every partition is encoded back to it on write, so a partition of
// an ISO-8859-1 input is itself ISO-8859-1 and its declaration stays true.
type partWriter struct {
	dir  string
	base string
	ext  string
	enc  encoding.Encoding // source charset, nil for UTF-8 input
	next int
}

func newPartWriter(dir, inputPath string, enc encoding.Encoding) *partWriter {
	name := filepath.Base(inputPath)
	ext := filepath.Ext(name)
	return &partWriter{
		dir:  dir,
		base: strings.TrimSuffix(name, ext),
		ext:  ext,
		enc:  enc,
		next: 1,
	}
}

// writePart writes preamble plus the partition's records. The postamble is
// not yet known during streaming; finalize appends it to every file.
func (w *partWriter) writePart(preamble []byte, part []pending) (PartFile, error) {
	path := filepath.Join(w.dir, fmt.Sprintf("%s_part_%03d%s", w.base, w.next, w.ext))

	f, err := os.Create(path)
	if err != nil {
		return PartFile{}, fmt.Errorf("split: %w", err)
	}
	var out io.Writer = f
	var tw *transform.Writer
	if w.enc != nil {
		tw = transform.NewWriter(f, w.enc.NewEncoder())
		out = tw
	}
	bw := bufio.NewWriter(out)

	write := func(b []byte) {
		if err == nil {
			_, err = bw.Write(b)
		}
	}
	write(preamble)
	for _, p := range part {
		// Gaps ride with their record so inter-record content is emitted
		// exactly once even when it lands on a partition boundary. The
		// document's first record has an empty gap; its lead-in belongs to
		// the preamble.
		write(p.gap)
		write(p.raw)
	}
	if err == nil {
		err = bw.Flush()
	}
	if tw != nil {
		if cerr := tw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return PartFile{}, fmt.Errorf("split: write %s: %w", path, err)
	}

	w.next++
	return PartFile{Path: path, Records: len(part)}, nil
}

// finalize appends the postamble to every written partition and records
// final on-disk sizes.
func (w *partWriter) finalize(postamble []byte, files []PartFile) error {
	if w.enc != nil && len(postamble) > 0 {
		b, err := w.enc.NewEncoder().Bytes(postamble)
		if err != nil {
			return fmt.Errorf("split: encode postamble: %w", err)
		}
		postamble = b
	}
	for i := range files {
		f, err := os.OpenFile(files[i].Path, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			return fmt.Errorf("split: %w", err)
		}
		_, werr := f.Write(postamble)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("split: finalize %s: %w", files[i].Path, werr)
		}
		st, err := os.Stat(files[i].Path)
		if err != nil {
			return fmt.Errorf("split: %w", err)
		}
		files[i].Bytes = st.Size()
	}
	return nil
}

// Package xmlparser streams record-oriented cadastral XML documents.
//
// A document is treated as three layers: a preamble (everything before the
// first repeating record element, including the XML declaration and any
// singleton metadata), a run of record subtrees that are direct children of
// the root, and a postamble (everything after the last record through EOF).
//
// The reader tokenizes with encoding/xml but never re-encodes: it slices the
// raw (charset-decoded) input by tokenizer offsets, so record, preamble and
// postamble fragments are returned byte-for-byte as they appeared on the
// wire. Downstream writers that reassemble partitions therefore reproduce
// the original markup exactly.
package xmlparser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// Options configures a Reader.
type Options struct {
	// RecordTag is the local name of the repeating record element. Required.
	RecordTag string

	// RootTag, when non-empty, is enforced against the document's root
	// element local name. Real extracts vary in namespace prefixes, so the
	// match is on the local name only.
	RootTag string

	// Ref names the source in errors, e.g. "girona.xml" or "lot.zip!a.xml".
	Ref string
}

// Record is one repeating element instance, serialized exactly as it
// appeared in the input.
type Record struct {
	Index int // 0-based position within the document

	// Gap holds the bytes between the previous record's end and this
	// record's start (typically indentation). Empty for the first record;
	// its lead-in belongs to the preamble.
	Gap []byte

	// Raw is the record subtree including its start and end tags.
	Raw []byte
}

// Reader is a lazy, non-restartable pass over one document. It buffers at
// most the preamble plus the record currently being tokenized.
type Reader struct {
	dec  *xml.Decoder
	cap  *captureReader
	enc  encoding.Encoding // source charset, nil when the input was UTF-8
	opts Options

	preamble  []byte
	postamble []byte
	prevEnd   int64
	depth     int
	sawRoot   bool
	started   bool // preamble has been delimited
	count     int
	done      bool
	err       error
}

// NewReader wraps r. Charset detection failures surface as a ParseError.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if opts.RecordTag == "" {
		return nil, fmt.Errorf("xml: record tag is required")
	}
	dr, enc, err := DocumentReader(r)
	if err != nil {
		return nil, &ParseError{Ref: opts.Ref, Err: err}
	}
	cr := &captureReader{r: dr}
	// Strict tokenizing: unlike the bulk-ingest path this reader feeds a
	// splitter whose outputs must each be well-formed, so truncated or
	// malformed input is an error, never silently tolerated.
	dec := xml.NewDecoder(cr)
	// The stream is already UTF-8; the declaration may still name the source
	// charset, so accept whatever it declares and pass the bytes through.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return &Reader{dec: dec, cap: cr, enc: enc, opts: opts}, nil
}

// Next returns the next record, or io.EOF after the last one. Once io.EOF
// has been returned, Preamble, Postamble and Count are final.
func (r *Reader) Next() (Record, error) {
	if r.err != nil {
		return Record{}, r.err
	}
	if r.done {
		return Record{}, io.EOF
	}
	for {
		last := r.dec.InputOffset()
		tok, err := r.dec.Token()
		if err == io.EOF {
			return Record{}, r.finish(last)
		}
		if err != nil {
			r.err = parseErr(r.opts.Ref, r.dec.InputOffset(), err)
			return Record{}, r.err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if r.depth == 0 {
				if r.opts.RootTag != "" && t.Name.Local != r.opts.RootTag {
					r.err = parseErr(r.opts.Ref, last,
						fmt.Errorf("root element <%s>, want <%s>", t.Name.Local, r.opts.RootTag))
					return Record{}, r.err
				}
				r.sawRoot = true
				r.depth = 1
				continue
			}
			if r.depth == 1 && t.Name.Local == r.opts.RecordTag {
				return r.readRecord(last)
			}
			r.depth++
		case xml.EndElement:
			r.depth--
		}
	}
}

// readRecord consumes the subtree whose start tag begins at offset start and
// returns it as a Record.
func (r *Reader) readRecord(start int64) (Record, error) {
	var gap []byte
	if !r.started {
		r.preamble = r.cap.slice(0, start)
		r.started = true
	} else {
		gap = r.cap.slice(r.prevEnd, start)
	}

	depth := 1
	for depth > 0 {
		tok, err := r.dec.Token()
		if err != nil {
			if err == io.EOF {
				err = errors.New("unexpected EOF inside record")
			}
			r.err = parseErr(r.opts.Ref, r.dec.InputOffset(), err)
			return Record{}, r.err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}

	end := r.dec.InputOffset()
	rec := Record{Index: r.count, Gap: gap, Raw: r.cap.slice(start, end)}
	r.prevEnd = end
	r.cap.discard(end)
	r.count++
	return rec, nil
}

// finish delimits the postamble at end-of-stream.
func (r *Reader) finish(offset int64) error {
	if !r.sawRoot {
		r.err = parseErr(r.opts.Ref, offset, errors.New("no root element found"))
		return r.err
	}
	if !r.started {
		// No records: the whole document is the invariant wrapper.
		r.preamble = r.cap.slice(r.cap.base, r.cap.end())
		r.started = true
	} else {
		r.postamble = r.cap.slice(r.prevEnd, r.cap.end())
	}
	r.done = true
	return io.EOF
}

// Preamble returns the bytes preceding the first record. Valid once Next has
// returned at least one record or io.EOF.
func (r *Reader) Preamble() []byte { return r.preamble }

// Postamble returns the bytes following the last record. Valid after Next
// has returned io.EOF. Empty for documents with no records.
func (r *Reader) Postamble() []byte { return r.postamble }

// Count reports how many records have been returned so far.
func (r *Reader) Count() int { return r.count }

// Encoding returns the source charset when the document declared one other
// than UTF-8, nil otherwise. Fragments returned by this Reader are always
// UTF-8; writers reproducing the source charset encode through this.
func (r *Reader) Encoding() encoding.Encoding { return r.enc }

// captureReader retains bytes handed to the tokenizer so the Reader can
// slice fragments by absolute offset. discard drops bytes that no future
// slice can reference, keeping the window at preamble + one record.
type captureReader struct {
	r    io.Reader
	buf  []byte
	base int64 // absolute offset of buf[0]
}

func (c *captureReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.buf = append(c.buf, p[:n]...)
	}
	return n, err
}

func (c *captureReader) end() int64 { return c.base + int64(len(c.buf)) }

func (c *captureReader) slice(from, to int64) []byte {
	out := make([]byte, to-from)
	copy(out, c.buf[from-c.base:to-c.base])
	return out
}

func (c *captureReader) discard(upTo int64) {
	if upTo <= c.base {
		return
	}
	n := upTo - c.base
	c.buf = c.buf[:copy(c.buf, c.buf[n:])]
	c.base = upTo
}

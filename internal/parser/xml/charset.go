package xmlparser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DocumentReader returns a reader delivering the document as UTF-8, plus the
// source encoding when the document declared one other than UTF-8 (nil for
// UTF-8 input). Callers that write fragments of the document back out can use
// the returned encoding to reproduce the source charset.
//
// Cadastral extracts are frequently shipped as ISO-8859-1 or windows-1252;
// encoding/xml only tokenizes UTF-8, so the declared charset is sniffed from
// the XML declaration and the stream is decoded up front. The declaration
// text itself is passed through untouched. A leading UTF-8 BOM is dropped.
func DocumentReader(r io.Reader) (io.Reader, encoding.Encoding, error) {
	br := bufio.NewReaderSize(r, 4<<10)

	head, err := br.Peek(256)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, nil, fmt.Errorf("xml: peek declaration: %w", err)
	}

	if bytes.HasPrefix(head, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
		head = head[3:]
	}

	name := declaredEncoding(head)
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return br, nil, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return nil, nil, fmt.Errorf("xml: unsupported encoding %q", name)
	}
	if enc == unicode.UTF8 {
		return br, nil, nil
	}
	return transform.NewReader(br, enc.NewDecoder()), enc, nil
}

// declaredEncoding extracts the encoding pseudo-attribute from an XML
// declaration prefix, or "" when the declaration or attribute is absent.
func declaredEncoding(head []byte) string {
	s := string(head)
	if !strings.HasPrefix(s, "<?xml") {
		return ""
	}
	end := strings.Index(s, "?>")
	if end < 0 {
		end = len(s)
	}
	decl := s[:end]

	i := strings.Index(decl, "encoding")
	if i < 0 {
		return ""
	}
	rest := decl[i+len("encoding"):]
	rest = strings.TrimLeft(rest, " \t\r\n")
	if !strings.HasPrefix(rest, "=") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	if len(rest) < 2 {
		return ""
	}
	quote := rest[0]
	if quote != '"' && quote != '\'' {
		return ""
	}
	if j := strings.IndexByte(rest[1:], quote); j >= 0 {
		return rest[1 : 1+j]
	}
	return ""
}

package xmlparser

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func TestDeclaredEncoding(t *testing.T) {
	cases := []struct {
		head string
		want string
	}{
		{`<?xml version="1.0" encoding="UTF-8"?>`, "UTF-8"},
		{`<?xml version="1.0" encoding="ISO-8859-1"?>`, "ISO-8859-1"},
		{`<?xml version='1.0' encoding='windows-1252'?>`, "windows-1252"},
		{`<?xml version="1.0" encoding = "latin1" ?>`, "latin1"},
		{`<?xml version="1.0"?>`, ""},
		{`<LISTADATOS>`, ""},
		{``, ""},
	}
	for _, c := range cases {
		if got := declaredEncoding([]byte(c.head)); got != c.want {
			t.Errorf("declaredEncoding(%q) = %q, want %q", c.head, got, c.want)
		}
	}
}

func TestDocumentReaderPassthroughUTF8(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?><L/>`
	r, enc, err := DocumentReader(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if enc != nil {
		t.Errorf("encoding = %v, want nil for UTF-8", enc)
	}
	got, _ := io.ReadAll(r)
	if string(got) != doc {
		t.Fatalf("got %q", got)
	}
}

func TestDocumentReaderStripsBOM(t *testing.T) {
	doc := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<L/>")...)
	r, enc, err := DocumentReader(bytes.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if enc != nil {
		t.Errorf("encoding = %v, want nil", enc)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "<L/>" {
		t.Fatalf("got %q", got)
	}
}

func TestDocumentReaderDecodesLatin1(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><L>\xe9</L>")
	r, enc, err := DocumentReader(bytes.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	// The WHATWG index aliases ISO-8859-1 to windows-1252, a strict superset
	// on the printable range.
	if enc != charmap.Windows1252 {
		t.Errorf("encoding = %v, want windows-1252", enc)
	}
	got, _ := io.ReadAll(r)
	if !strings.Contains(string(got), "é") {
		t.Fatalf("not decoded: %q", got)
	}
}

func TestDocumentReaderUnknownEncoding(t *testing.T) {
	doc := `<?xml version="1.0" encoding="NO-SUCH-CHARSET"?><L/>`
	if _, _, err := DocumentReader(strings.NewReader(doc)); err == nil {
		t.Fatal("want error for unknown encoding")
	}
}

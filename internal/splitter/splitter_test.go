package splitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	xmlparser "catastro/internal/parser/xml"
	"catastro/internal/progress"
)

func buildDoc(records, pad int) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<LISTADATOS xmlns=\"http://www.catastro.meh.es/\">\n")
	b.WriteString("  <FEC>20240101</FEC>\n  ")
	for i := 0; i < records; i++ {
		if i > 0 {
			b.WriteString("\n  ")
		}
		fmt.Fprintf(&b, "<DAT>\n    <RC>REF%05d</RC>\n    <PAD>%s</PAD>\n  </DAT>",
			i, strings.Repeat("x", pad))
	}
	b.WriteString("\n  <FIN/>\n</LISTADATOS>\n")
	return b.String()
}

func writeDoc(t *testing.T, doc string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "girona_entrada.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// readDoc parses a document the same way the splitter does.
func readDoc(t *testing.T, path string) (pre, post string, recs []xmlparser.Record) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	r, err := xmlparser.NewReader(f, xmlparser.Options{RecordTag: "DAT", Ref: filepath.Base(path)})
	if err != nil {
		t.Fatal(err)
	}
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		recs = append(recs, rec)
	}
	return string(r.Preamble()), string(r.Postamble()), recs
}

func TestSplitThreeRecordsTwoPartitions(t *testing.T) {
	doc := buildDoc(3, 400)
	in := writeDoc(t, doc)
	_, _, recs := readDoc(t, in)

	// Budget sized to hold exactly two records plus wrapper.
	pre, _, _ := readDoc(t, in)
	wrapper := len(pre) + postambleReserve
	budget := wrapper + len(recs[0].Raw) + len(recs[1].Gap) + len(recs[1].Raw)

	out := t.TempDir()
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: budget,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Records != 3 {
		t.Errorf("Records = %d, want 3", sum.Records)
	}
	if len(sum.Files) != 2 {
		t.Fatalf("partitions = %d, want 2", len(sum.Files))
	}
	if sum.Files[0].Records != 2 || sum.Files[1].Records != 1 {
		t.Errorf("partition records = %d,%d, want 2,1", sum.Files[0].Records, sum.Files[1].Records)
	}
	if sum.Oversized != 0 {
		t.Errorf("Oversized = %d", sum.Oversized)
	}
}

func TestSplitConservesRecordsAndWrapper(t *testing.T) {
	doc := buildDoc(7, 120)
	in := writeDoc(t, doc)
	inPre, inPost, inRecs := readDoc(t, in)

	out := t.TempDir()
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: len(inPre) + postambleReserve + 400,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) < 2 {
		t.Fatalf("expected multiple partitions, got %d", len(sum.Files))
	}

	var (
		outDig Digest
		total  int
	)
	for _, pf := range sum.Files {
		pre, post, recs := readDoc(t, pf.Path)
		// Later partitions carry the inter-record gap of their first record
		// right after the preamble; the preamble itself stays verbatim.
		if !strings.HasPrefix(pre, inPre) {
			t.Errorf("%s: preamble differs from input", pf.Path)
		} else if strings.TrimSpace(pre[len(inPre):]) != "" {
			t.Errorf("%s: unexpected content before first record: %q", pf.Path, pre[len(inPre):])
		}
		if post != inPost {
			t.Errorf("%s: postamble differs from input", pf.Path)
		}
		if len(recs) != pf.Records {
			t.Errorf("%s: records = %d, summary says %d", pf.Path, len(recs), pf.Records)
		}
		for _, rec := range recs {
			if string(rec.Raw) != string(inRecs[total].Raw) {
				t.Errorf("record %d altered by split", total)
			}
			outDig.Add(rec.Raw)
			total++
		}
	}
	if total != len(inRecs) {
		t.Errorf("total records = %d, want %d", total, len(inRecs))
	}
	if outDig.Sum() != sum.Digest {
		t.Errorf("output digest %x != summary digest %x", outDig.Sum(), sum.Digest)
	}
}

func TestSplitPartitionNaming(t *testing.T) {
	in := writeDoc(t, buildDoc(5, 300))
	out := t.TempDir()
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: 900,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, pf := range sum.Files {
		want := filepath.Join(out, fmt.Sprintf("girona_entrada_part_%03d.xml", i+1))
		if pf.Path != want {
			t.Errorf("file %d = %s, want %s", i, pf.Path, want)
		}
		if _, err := os.Stat(pf.Path); err != nil {
			t.Errorf("missing partition: %v", err)
		}
	}
}

func TestSplitZeroRecords(t *testing.T) {
	doc := "<?xml version=\"1.0\"?>\n<LISTADATOS>\n  <FEC>20240101</FEC>\n</LISTADATOS>\n"
	in := writeDoc(t, doc)
	out := t.TempDir()
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: 450 * 1024,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) != 0 || sum.Records != 0 {
		t.Fatalf("files = %d records = %d, want none", len(sum.Files), sum.Records)
	}
	ents, err := os.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 0 {
		t.Fatalf("output dir not empty: %v", ents)
	}
}

type recording struct {
	progress.Nop
	oversized int
	flushed   int
	records   int
}

func (r *recording) OversizedRecord(int, int, int)    { r.oversized++ }
func (r *recording) PartitionFlushed(int, int, int64) { r.flushed++ }
func (r *recording) Record(n int)                     { r.records = n }

func TestSplitOversizedRecord(t *testing.T) {
	in := writeDoc(t, buildDoc(1, 2000))
	out := t.TempDir()
	obs := &recording{}
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: 100,
	}, obs)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) != 1 || sum.Files[0].Records != 1 {
		t.Fatalf("want one single-record partition, got %+v", sum.Files)
	}
	if sum.Oversized != 1 || obs.oversized != 1 {
		t.Errorf("oversized: summary=%d observer=%d, want 1", sum.Oversized, obs.oversized)
	}
	// The oversized record still round-trips whole.
	_, _, recs := readDoc(t, sum.Files[0].Path)
	if len(recs) != 1 {
		t.Fatalf("partition records = %d", len(recs))
	}
}

func TestSplitObserverCounts(t *testing.T) {
	in := writeDoc(t, buildDoc(4, 200))
	obs := &recording{}
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         t.TempDir(),
		MaxPartitionBytes: 450 * 1024,
	}, obs)
	if err != nil {
		t.Fatal(err)
	}
	if obs.records != 4 || sum.Records != 4 {
		t.Errorf("records observed=%d summary=%d, want 4", obs.records, sum.Records)
	}
	if obs.flushed != len(sum.Files) {
		t.Errorf("flush events = %d, files = %d", obs.flushed, len(sum.Files))
	}
}

func TestSplitMalformedInput(t *testing.T) {
	in := writeDoc(t, "<LISTADATOS><DAT><RC>1</RC></LISTADATOS>")
	_, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         t.TempDir(),
		MaxPartitionBytes: 1024,
	}, nil)
	var pe *xmlparser.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ParseError", err)
	}
}

// A non-whitespace singleton riding in an inter-record gap must land in
// exactly one partition when the gap falls on a partition boundary.
func TestSplitGapContentOnBoundaryEmittedOnce(t *testing.T) {
	pad := strings.Repeat("x", 300)
	doc := "<?xml version=\"1.0\"?>\n<LISTADATOS>\n  <FEC>20240101</FEC>\n  " +
		"<DAT><RC>A</RC><PAD>" + pad + "</PAD></DAT>\n  " +
		"<!-- lote 2 -->\n  " +
		"<DAT><RC>B</RC><PAD>" + pad + "</PAD></DAT>\n</LISTADATOS>\n"
	in := writeDoc(t, doc)
	pre, _, recs := readDoc(t, in)

	// Budget holds exactly one record, forcing the boundary onto the gap.
	budget := len(pre) + postambleReserve + len(recs[0].Raw)
	out := t.TempDir()
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: budget,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) != 2 {
		t.Fatalf("partitions = %d, want 2", len(sum.Files))
	}

	first, err := os.ReadFile(sum.Files[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(sum.Files[1].Path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(first), "lote 2") {
		t.Error("gap content duplicated into the first partition")
	}
	if strings.Count(string(second), "lote 2") != 1 {
		t.Errorf("gap content not emitted exactly once: %q", second)
	}
	for _, pf := range sum.Files {
		readDoc(t, pf.Path)
	}
}

// Splitting a latin-1 document must produce latin-1 partitions: the
// declaration stays true and the payload bytes match the source charset.
func TestSplitLatin1RoundTrip(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<LISTADATOS>\n" +
		"  <FEC>20240101</FEC>\n  <DAT><NOM>MU\xd1OZ</NOM></DAT>\n</LISTADATOS>\n"
	in := writeDoc(t, doc)
	out := t.TempDir()
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         out,
		MaxPartitionBytes: 4096,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Files) != 1 {
		t.Fatalf("partitions = %d, want 1", len(sum.Files))
	}

	data, err := os.ReadFile(sum.Files[0].Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("ISO-8859-1")) {
		t.Error("declaration lost")
	}
	if !bytes.Contains(data, []byte{0xD1}) {
		t.Error("payload not re-encoded to the source charset")
	}
	if bytes.Contains(data, []byte{0xC3, 0x91}) {
		t.Error("UTF-8 bytes leaked into a latin-1 partition")
	}

	// The partition reads back exactly like the input.
	_, _, recs := readDoc(t, sum.Files[0].Path)
	if len(recs) != 1 || !strings.Contains(string(recs[0].Raw), "MUÑOZ") {
		t.Fatalf("partition did not round-trip: %q", recs)
	}
}

func TestSplitOutputsAreWellFormed(t *testing.T) {
	in := writeDoc(t, buildDoc(6, 250))
	sum, err := Split(context.Background(), Config{
		InputPath:         in,
		OutputDir:         t.TempDir(),
		MaxPartitionBytes: 1200,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, pf := range sum.Files {
		// readDoc fails the test if the partition does not parse.
		readDoc(t, pf.Path)
	}
}

package exporter

import "testing"

const sampleRecord = `<BIE>
  <IDBI>
    <RCA>
      <PCA>0005002</PCA>
      <CAR>00DN58B</CAR>
      <CDC1>0001</CDC1>
      <CDC2>KY</CDC2>
    </RCA>
  </IDBI>
  <DT>
    <LOCS>
      <LOUS>
        <DIR>
          <TV>CL</TV>
          <NV>MAYOR</NV>
          <PNP>0012</PNP>
          <PLP>0014</PLP>
          <BQ>B</BQ>
          <KM>003</KM>
        </DIR>
        <LOINT>
          <ES>1</ES>
          <PT>02</PT>
          <PU>A</PU>
        </LOINT>
        <CPP>
          <CPO>28001</CPO>
          <CPA>28</CPA>
        </CPP>
        <LEC>
          <ELC>
            <ESC>1</ESC>
            <PLA>02</PLA>
            <PUE>A</PUE>
          </ELC>
        </LEC>
      </LOUS>
      <LORS>
        <CPP>
          <POL>015</POL>
          <PAR>00042</PAR>
        </CPP>
      </LORS>
    </LOCS>
  </DT>
</BIE>`

func TestExtractSectionedFields(t *testing.T) {
	got, err := Extract([]byte(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"TV": "CL", "NV": "MAYOR", "PNP": "0012", "PLP": "0014", "BQ": "B", "KM": "003",
		"ES": "1", "PT": "02", "PU": "A",
		"PCA": "0005002", "CAR": "00DN58B", "CDC1": "0001", "CDC2": "KY",
		"CPO": "28001", "CPA": "28",
		"ESC": "1", "PLA": "02", "PUE": "A",
		"POL": "015", "PAR": "00042",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
	for _, absent := range []string{"SNP", "SLP", "KK"} {
		if _, ok := got[absent]; ok {
			t.Errorf("%s unexpectedly present", absent)
		}
	}
}

func TestExtractRCComposite(t *testing.T) {
	values, err := Extract([]byte(sampleRecord))
	if err != nil {
		t.Fatal(err)
	}
	row := Row(values)
	if row[8] != "000500200DN58B0001KY" {
		t.Errorf("RC = %q", row[8])
	}
}

// A bare PNP element outside DIR must not satisfy the anchored DIR/PNP path.
func TestExtractSectionAnchoring(t *testing.T) {
	got, err := Extract([]byte(`<BIE><PNP>99</PNP><DIR><PNP>0005</PNP></DIR></BIE>`))
	if err != nil {
		t.Fatal(err)
	}
	if got["PNP"] != "0005" {
		t.Errorf("PNP = %q, want \"0005\"", got["PNP"])
	}
}

func TestExtractFirstOccurrenceWins(t *testing.T) {
	got, err := Extract([]byte(`<BIE><DIR><TV>CL</TV></DIR><DIR><TV>AV</TV></DIR></BIE>`))
	if err != nil {
		t.Fatal(err)
	}
	if got["TV"] != "CL" {
		t.Errorf("TV = %q, want first occurrence", got["TV"])
	}
}

func TestExtractPreservesLeadingZeros(t *testing.T) {
	got, err := Extract([]byte(`<BIE><DIR><PNP>  0005  </PNP></DIR></BIE>`))
	if err != nil {
		t.Fatal(err)
	}
	if got["PNP"] != "0005" {
		t.Errorf("PNP = %q", got["PNP"])
	}
}

// An empty first occurrence still claims the field; a later sibling must not
// overwrite it.
func TestExtractEmptyFirstOccurrenceWins(t *testing.T) {
	got, err := Extract([]byte(`<BIE><DIR><TV></TV><NV>MAYOR</NV></DIR><DIR><TV>AV</TV></DIR></BIE>`))
	if err != nil {
		t.Fatal(err)
	}
	v, ok := got["TV"]
	if !ok {
		t.Fatal("empty TV not captured")
	}
	if v != "" {
		t.Errorf("TV = %q, want empty first occurrence kept", v)
	}
	if got["NV"] != "MAYOR" {
		t.Errorf("NV = %q", got["NV"])
	}
}

func TestExtractMalformed(t *testing.T) {
	if _, err := Extract([]byte(`<BIE><DIR><TV>CL</DIR></BIE>`)); err == nil {
		t.Fatal("malformed record accepted")
	}
}

package sspec

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLine(t *testing.T) {
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	tests := []struct {
		name     string
		line     string
		register string
		qdf      string
		bits     string
	}{
		{"binary", "FUSEDATA:CPU0:L0V8:x:0101", "CPU0", "L0V8", "0101"},
		{"pattern", "FUSEDATA:GCD:L0VS:info:01mmss01", "GCD", "L0VS", "01mmss01"},
		{"colon in bits", "FUSEDATA:HUB:Q1:x:A2:B3", "HUB", "Q1", "A2:B3"},
		{"empty info", "FUSEDATA:PCD:Q2::B4", "PCD", "Q2", "B4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd, err := parser.ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine(%q) failed: %v", tt.line, err)
			}
			if fd.Register != tt.register {
				t.Errorf("Register = %q, want %q", fd.Register, tt.register)
			}
			if fd.QDF != tt.qdf {
				t.Errorf("QDF = %q, want %q", fd.QDF, tt.qdf)
			}
			if got := fd.FuseString(); got != tt.bits {
				t.Errorf("FuseString() = %q, want %q", got, tt.bits)
			}
		})
	}
}

func TestParseSelectsQDFsAndDecodes(t *testing.T) {
	input := `# header
FUSEDATA:CPU0:L0V8:x:A2B2
FUSEDATA:CPU0:L0VS:x:1111
SOMETHING:else
FUSEDATA:GCD:L0V8:x:01mm
FUSEDATA:broken
`
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	records, err := parser.Parse(strings.NewReader(input), ParseSelection("L0V8"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []Record{
		{Register: "CPU0", QDF: "L0V8", Bits: "0011", Line: 2},
		{Register: "GCD", QDF: "L0V8", Bits: "01mm", Line: 5},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWildcardKeepsEveryQDF(t *testing.T) {
	input := "FUSEDATA:CPU0:L0V8:x:01\nFUSEDATA:CPU0:L0VS:x:10\n"
	parser, err := NewParser()
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	records, err := parser.Parse(strings.NewReader(input), ParseSelection("*"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestParseSelection(t *testing.T) {
	sel := ParseSelection(" L0V8 , L0VS,,")
	if sel.All() {
		t.Fatal("explicit list must not select all")
	}
	if diff := cmp.Diff([]string{"L0V8", "L0VS"}, sel.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	if sel.Includes("Q1") {
		t.Error("Q1 should not be selected")
	}
	if !ParseSelection("").All() || !ParseSelection("*").All() {
		t.Error("empty and * select all")
	}
}

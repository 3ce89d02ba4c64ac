package itf

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBaseNameAndFDNumber(t *testing.T) {
	tests := []struct {
		tname string
		base  string
		fd    int
	}{
		{"TOKEN_fd3", "TOKEN", 3},
		{"TOKEN_fd12", "TOKEN", 12},
		{"TOKEN", "TOKEN", 0},
		{"TOKEN_fd3_x", "TOKEN_fd3_x", 0},
		{"TOKEN_fdx", "TOKEN_fdx", 0},
	}
	for _, tt := range tests {
		t.Run(tt.tname, func(t *testing.T) {
			if got := BaseName(tt.tname); got != tt.base {
				t.Errorf("BaseName(%q) = %q, want %q", tt.tname, got, tt.base)
			}
			if got := FDNumber(tt.tname); got != tt.fd {
				t.Errorf("FDNumber(%q) = %d, want %d", tt.tname, got, tt.fd)
			}
		})
	}
}

func TestReassembleSortsFragments(t *testing.T) {
	rows := []Row{
		{VisualID: "V", SSID: "U1.U5", Register: "CPU0", Token: "T_fd2", Value: "cc"},
		{VisualID: "V", SSID: "U1.U5", Register: "CPU0", Token: "T_fd0", Value: "aa"},
		{VisualID: "V", SSID: "U1.U5", Register: "CPU0", Token: "T_fd1", Value: "bb"},
		{VisualID: "W", SSID: "U1.U5", Register: "CPU0", Token: "T", Value: "zz"},
	}
	full := Reassemble(rows)
	if len(full) != 2 {
		t.Fatalf("expected 2 full strings, got %d", len(full))
	}
	if full[0].Value != "aabbcc" {
		t.Errorf("Value = %q, want aabbcc", full[0].Value)
	}
	if full[0].Token != "T" {
		t.Errorf("Token = %q, want base name T", full[0].Token)
	}
	if full[0].FDCount != 3 || full[0].FDList() != "0,1,2" {
		t.Errorf("FD info = %d %q", full[0].FDCount, full[0].FDList())
	}
	if full[1].Value != "zz" || full[1].FDList() != "0" {
		t.Errorf("unexpected second string: %+v", full[1])
	}
}

func TestRowsMergeUnitsByVisualID(t *testing.T) {
	input := `3_lbeg
3_socket_FIRST
2_visualid_V
2_sstrlot_U1.U5_L1
2_tname_` + cpuToken + `_fd0
2_strgalt_fus_msbF_00
3_lbeg
3_socket_SECOND
2_visualid_V
2_sstrlot_U1.U5_L2
2_tname_` + cpuToken + `_fd0
2_strgalt_fus_msbF_11
2_tname_` + cpuToken + `_fd1
2_strgalt_fus_msbF_01
`
	p := newTestParser()
	file, err := p.Parse(strings.NewReader(input), "m.itf")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	rows := Rows(file, p.Table(), Filter{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, r := range rows {
		if r.ULT != "L1___" {
			t.Errorf("ULT = %q, want first location L1___", r.ULT)
		}
		if r.Attributes["socket"] != "FIRST" {
			t.Errorf("socket = %q, want FIRST", r.Attributes["socket"])
		}
		if r.Register != "CPU0" || r.SSID != "U1.U5" {
			t.Errorf("unexpected mapping on row: %+v", r)
		}
	}
	if rows[0].Value != "11" {
		t.Errorf("later unit should win, got %q", rows[0].Value)
	}

	full := Reassemble(rows)
	regs := UnitRegisters(full)
	want := map[string]map[string]string{"V": {"CPU0": "1101"}}
	if diff := cmp.Diff(want, regs); diff != "" {
		t.Errorf("UnitRegisters mismatch (-want +got):\n%s", diff)
	}
}

func TestUnitRegistersDecodesRLE(t *testing.T) {
	full := []FullString{{Row: Row{VisualID: "V", Register: "GCD", Value: "A2B2"}}}
	regs := UnitRegisters(full)
	if got := regs["V"]["GCD"]; got != "0011" {
		t.Errorf("GCD = %q, want 0011", got)
	}
}

func TestFilter(t *testing.T) {
	f := ParseFilter("A, B")
	if !f.Active() || !f.Keeps("A") || !f.Keeps("B") || f.Keeps("C") {
		t.Errorf("unexpected filter behaviour: %+v", f)
	}
	if ParseFilter("*").Active() || NewFilter(nil).Active() {
		t.Error("wildcard filter must keep all")
	}
	if !NewFilter([]string{"X"}).Keeps("X") {
		t.Error("NewFilter should keep listed ids")
	}
}

func TestReassembleToleratesGaps(t *testing.T) {
	rows := []Row{
		{VisualID: "U", SSID: "U1.U2", Register: "HUB", Token: "TOK_fd0", Value: "01"},
		{VisualID: "U", SSID: "U1.U2", Register: "HUB", Token: "TOK_fd2", Value: "11"},
		{VisualID: "U", SSID: "U1.U2", Register: "HUB", Token: "TOK_fd1", Value: "10"},
		{VisualID: "U", SSID: "U1.U2", Register: "HUB", Token: "TOK_fd7", Value: "0"},
	}
	full := Reassemble(rows)
	if len(full) != 1 {
		t.Fatalf("expected 1 full string, got %d", len(full))
	}
	if full[0].Value != "0110110" {
		t.Errorf("Value = %q, want 0110110", full[0].Value)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 7}, full[0].FDNumbers); diff != "" {
		t.Errorf("FDNumbers mismatch (-want +got):\n%s", diff)
	}
}

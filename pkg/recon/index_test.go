package recon

import (
	"testing"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusedef"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/mtlolf"
)

func testDefs() []fusedef.Row {
	return []fusedef.Row{
		{RegisterName: "CPU0", FuseGroup: "GRP", FuseName: "F_FIRST"},
		{RegisterName: "CPU0", FuseGroup: "GRP", FuseName: "F_SECOND"},
		{RegisterName: "GCD", FuseGroup: "G2", FuseName: "F_FIRST"},
		{RegisterName: "EMPTY"},
	}
}

func TestIndexFirstWins(t *testing.T) {
	idx := NewIndex(testDefs())

	for i := 0; i < 3; i++ {
		reg, ok := idx.Register("CPU0")
		if !ok || reg.FuseName != "F_FIRST" {
			t.Fatalf("Register(CPU0) = %+v, want first row", reg)
		}
		grp, ok := idx.FuseGroup("GRP")
		if !ok || grp.FuseName != "F_FIRST" {
			t.Fatalf("FuseGroup(GRP) = %+v, want first row", grp)
		}
		name, ok := idx.FuseName("F_FIRST")
		if !ok || name.RegisterName != "CPU0" {
			t.Fatalf("FuseName(F_FIRST) = %+v, want CPU0 row", name)
		}
	}

	regs, groups, names := idx.Counts()
	if regs != 3 || groups != 2 || names != 2 {
		t.Errorf("Counts() = %d, %d, %d; want 3, 2, 2", regs, groups, names)
	}
	if _, ok := idx.FuseGroup(""); ok {
		t.Error("empty keys must not be indexed")
	}
}

func TestIndexMatch(t *testing.T) {
	idx := NewIndex(testDefs())

	tests := []struct {
		name                    string
		row                     mtlolf.Row
		register, group, fuse   bool
		fuseDefName, registerOf string
	}{
		{"fuse name", mtlolf.Row{FuseRegister: "CPU0", FuseName: "F_SECOND"}, true, false, true, "F_SECOND", "CPU0"},
		{"fuse group", mtlolf.Row{FuseRegister: "GCD", FuseName: "G2"}, true, true, false, "F_FIRST", "GCD"},
		{"nothing", mtlolf.Row{FuseRegister: "NOPE", FuseName: "NOPE"}, false, false, false, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := idx.Match(tt.row)
			if res.Register != tt.register || res.FuseGroup != tt.group || res.FuseName != tt.fuse {
				t.Fatalf("Match flags = %v/%v/%v, want %v/%v/%v",
					res.Register, res.FuseGroup, res.FuseName, tt.register, tt.group, tt.fuse)
			}
			if tt.fuseDefName != "" && (res.FuseDef == nil || res.FuseDef.FuseName != tt.fuseDefName) {
				t.Errorf("FuseDef = %+v, want fuse %s", res.FuseDef, tt.fuseDefName)
			}
			if tt.registerOf != "" && (res.RegisterDef == nil || res.RegisterDef.RegisterName != tt.registerOf) {
				t.Errorf("RegisterDef = %+v, want register %s", res.RegisterDef, tt.registerOf)
			}
		})
	}
}

func TestMatchAllTallies(t *testing.T) {
	idx := NewIndex(testDefs())
	rows := []mtlolf.Row{
		{TokenName: "T1", FuseRegister: "CPU0", FuseName: "F_FIRST"},
		{TokenName: "T2", FuseRegister: "CPU0", FuseName: "MISSING"},
		{TokenName: "T3", FuseRegister: "BAD", FuseName: "GRP"},
		{TokenName: "T4", FuseRegister: "", FuseName: ""},
	}
	report := idx.MatchAll(rows)
	if len(report.Rows) != 4 {
		t.Fatalf("expected 4 combined rows, got %d", len(report.Rows))
	}
	if len(report.Tallies) != 3 {
		t.Fatalf("expected 3 tallies, got %d", len(report.Tallies))
	}

	cpu := report.Tallies[0]
	if cpu.Register != "CPU0" || cpu.TotalTokens != 2 {
		t.Errorf("CPU0 tally = %+v", cpu)
	}
	// T1 misses the group lookup, T2 misses both lookups.
	if cpu.FuseGroupMismatches != 2 || cpu.FuseNameMismatches != 1 || cpu.RegisterMismatches != 0 {
		t.Errorf("CPU0 mismatches = %+v", cpu)
	}
	if len(cpu.MismatchTokens) != 2 {
		t.Errorf("expected deduplicated tokens T1 and T2, got %+v", cpu.MismatchTokens)
	}

	bad := report.Tallies[1]
	if bad.RegisterMismatches != 1 || bad.FuseNameMismatches != 1 || bad.FuseGroupMismatches != 0 || len(bad.MismatchTokens) != 1 {
		t.Errorf("BAD tally = %+v", bad)
	}
	if bad.Mismatches() != 2 {
		t.Errorf("BAD Mismatches() = %d, want 2", bad.Mismatches())
	}

	na := report.Tallies[2]
	if na.Register != NotAvailable || na.TotalTokens != 1 || na.Mismatches() != 0 {
		t.Errorf("N/A tally = %+v", na)
	}

	row := report.Rows[2]
	if row.FuseGroupName() != "GRP" || row.FuseNameValue() != NotAvailable || row.RegisterName() != "" {
		t.Errorf("combined row columns = %q %q %q", row.FuseGroupName(), row.FuseNameValue(), row.RegisterName())
	}
	if MatchLabel(row.FuseGroup) != "match" || MatchLabel(row.Register) != "no-match" {
		t.Error("unexpected match labels")
	}

	r, g, n := report.Totals()
	if r != 2 || g != 1 || n != 1 {
		t.Errorf("Totals() = %d, %d, %d; want 2, 1, 1", r, g, n)
	}
}

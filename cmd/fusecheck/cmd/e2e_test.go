package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

const cpuToken = "FACTFUSBURNCPUNOM_X_X_X_X_LOCKBIT_RAP_CPU0"

// writeInputs builds an input directory with every source and an ITF log
// directory.
func writeInputs(t *testing.T) (in, logs string) {
	t.Helper()
	in = t.TempDir()
	logs = filepath.Join(in, "logs")
	files := map[string]string{
		"sspec.txt": "FUSEDATA:CPU0:Q1:x:10100101\nFUSEDATA:CPU0:Q2:x:mmmm0101\n",
		"fuseDef.json": `{"Registers": [{"RegistersData": [{"RegisterName": "CPU0"}],
  "FuseGroups": [{"Name": "G", "Fuses": [
    {"Name": "LOW", "StartAddress": [0], "EndAddress": [3]},
    {"Name": "HIGH", "StartAddress": [4], "EndAddress": [7]}]}]}]}`,
		"MTL_OLF.xml": `<mtl><token dff_token_id="1" token_name="TOK_A" ref_level="UNIT_LVL">
  <field field_name="f" field_name_seq="1" fuse_name="LOW" fuse_register="CPU0"/></token></mtl>`,
		"LOT1_SITE.ube": "UNIT,VID1\nUNIT_LVL,S1,TOK_A=0X5\n",
		"logs/unit.itf": "3_lbeg\n2_visualid_VID1\n2_tname_" + cpuToken + "\n2_strgalt_fus_msbF_10100101\n",
	}
	for name, content := range files {
		path := filepath.Join(in, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return in, logs
}

// execute runs the root command and returns what it printed to stdout.
func execute(t *testing.T, args []string) (string, error) {
	t.Helper()
	color.NoColor = true

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// Read in background to prevent pipe buffer from blocking
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	// Reset flags to prevent accumulation between tests
	verbose = false
	configFile = ""
	qdfSpec, ubeFile, mtlolfFile, ituffDir = "", "", "", ""
	visualIDs, profile, outputName = "", "", ""
	workers = 0
	noSanitize = false
	itfOutputDir = "output"

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String(), err
}

func TestDecodeE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "run length encoded",
			args:        []string{"decode", "A5BA2B3"},
			wantContain: []string{"Binary:  00000100111", "Hex:     0X27", "static 11"},
		},
		{
			name:        "binary",
			args:        []string{"decode", "10100101"},
			wantContain: []string{"Hex:     0XA5"},
		},
		{
			name:        "pattern",
			args:        []string{"decode", "mm01s1"},
			wantContain: []string{"Binary:  mm01s1", "Hex:     Q", "dynamic 2", "sort 1"},
		},
		{
			name:    "missing argument",
			args:    []string{"decode"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestExtractE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "single range",
			args:        []string{"extract", "--bits", "10100101", "--start", "0", "--end", "3"},
			wantContain: []string{"Bits:     0101", "Hex:      0X5", "Width:    4"},
		},
		{
			name:        "two ranges over run length input",
			args:        []string{"extract", "--bits", "A4B4", "--start", "0,6", "--end", "1,7"},
			wantContain: []string{"Bits:     1100", "Hex:      0XC"},
		},
		{
			name:    "bad address",
			args:    []string{"extract", "--bits", "1010", "--start", "x", "--end", "3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
			}
			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestRunE2E(t *testing.T) {
	in, logs := writeInputs(t)
	out := filepath.Join(t.TempDir(), "reports")

	output, err := execute(t, []string{"run", in, out, "--sspec", "Q1,Q2", "--ituff", logs})
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, want := range []string{
		"Fuse reconciliation summary: fuseDef",
		"Token rows vs fuse definitions",
		"Unit status",
		"S_UnitData_by_Fuse_Q1_fuseDef.csv",
		"S_UnitData_by_Fuse_Q2_fuseDef.csv",
		"ITF_Rows_fuseDef_LOT1_SITE.csv",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "V_Report_DFF_UnitData_fuseDef.csv")); err != nil {
		t.Errorf("database check report not written: %v", err)
	}
}

func TestRunE2EInvalidInput(t *testing.T) {
	_, err := execute(t, []string{"run", filepath.Join(t.TempDir(), "missing")})
	if err == nil {
		t.Fatal("Expected error for missing input directory")
	}
}

func TestITFE2E(t *testing.T) {
	_, logs := writeInputs(t)
	out := filepath.Join(t.TempDir(), "itf")

	output, err := execute(t, []string{"itf", logs, "-o", out, "--name", "lot", "--ube", "LOTZ_FAB_x.ube"})
	if err != nil {
		t.Fatalf("Unexpected error: %v\nOutput: %s", err, output)
	}
	for _, name := range []string{"ITF_Rows_lot_LOTZ_FAB.csv", "ITF_FullString_lot_LOTZ_FAB.csv"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

package runner

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceFuse/internal/config"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/recon"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	cpuToken = "FACTFUSBURNCPUNOM_X_X_X_X_LOCKBIT_RAP_CPU0"

	specFixture = "header line\nFUSEDATA:CPU0:Q1:x:10100101\n"

	defFixture = `{"Registers": [{
  "RegistersData": [{"RegisterName": "CPU0"}],
  "FuseGroups": [{"Name": "G", "Fuses": [
    {"Name": "LOW", "StartAddress": [0], "EndAddress": [3]},
    {"Name": "HIGH", "StartAddress": [4], "EndAddress": [7]}
  ]}]
}]}`

	tokenFixture = `<mtl><tokens>
  <token dff_token_id="1" token_name="TOK_A" ref_level="UNIT_LVL" module="M">
    <field field_name="f" field_name_seq="1" fuse_name="LOW" fuse_register="CPU0"/>
  </token>
</tokens></mtl>`

	dumpFixture = "UNIT,VID2\nLOT1_W01:\nUNIT_LVL,S1,TOK_A=0XF\n"

	itfFixture = "6_lotid_LOT1\n3_lbeg\n2_visualid_VID1\n2_tname_" + cpuToken +
		"\n2_strgalt_fus_msbF_10100101\n3_lbeg\n2_visualid_VID2\n2_tname_" + cpuToken +
		"\n2_strgalt_fus_msbF_10101111\n"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fixture(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	in := filepath.Join(root, "in")
	writeFile(t, filepath.Join(in, config.DefaultSSpecFile), specFixture)
	writeFile(t, filepath.Join(in, config.DefaultFuseDefFile), defFixture)
	writeFile(t, filepath.Join(in, config.DefaultMTLFile), tokenFixture)
	writeFile(t, filepath.Join(in, "LOT1_SITE_dump.ube"), dumpFixture)
	writeFile(t, filepath.Join(in, "itf", "unit.itf"), itfFixture)

	cfg := config.Default()
	cfg.Inputs.Dir = in
	cfg.ITF.Dir = filepath.Join(in, "itf")
	cfg.Output.Dir = filepath.Join(root, "out")
	require.NoError(t, cfg.Validate())
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunWritesAllReports(t *testing.T) {
	cfg := fixture(t)
	require.Equal(t, "fuseDef", cfg.Output.Name)

	sum, err := New(cfg, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	var names []string
	for _, f := range sum.Files {
		names = append(names, filepath.Base(f))
	}
	require.ElementsMatch(t, []string{
		"I_Report_UBE_LOT1_SITE.csv",
		"I_Report_MTL_OLF_fuseDef.csv",
		"I_Report_FuseDef_fuseDef.csv",
		"V_Report_FuseDef_vs_MTL_OLF_fuseDef.csv",
		"V_Report_DFF_UnitData_fuseDef.csv",
		"ITF_Rows_fuseDef_LOT1_SITE.csv",
		"ITF_FullString_fuseDef_LOT1_SITE.csv",
		"S_SSPEC_Breakdown_fuseDef.csv",
		"S_UnitData_by_Fuse_Q1_fuseDef.csv",
	}, names)

	require.Equal(t, 3, sum.Units["Q1"][recon.Static])
	require.Equal(t, 1, sum.Units["Q1"][recon.Dynamic])
	require.Zero(t, sum.Units["Q1"][recon.Mismatch])

	records := readCSV(t, filepath.Join(cfg.Output.Dir, "S_UnitData_by_Fuse_Q1_fuseDef.csv"))
	require.Len(t, records, 3)
	require.Equal(t, "LOW", records[1][3])
	require.Equal(t, []string{
		"b0101", "0X5", "N/A", "static",
		"b1111", "0XF", "0XF", "dynamic",
	}, records[1][9:])
	require.Equal(t, "HIGH", records[2][3])
	require.Equal(t, "static", records[2][len(records[2])-1])
}

func TestRunWithoutDatabase(t *testing.T) {
	cfg := fixture(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Inputs.Dir, "LOT1_SITE_dump.ube")))

	r := New(cfg, zap.NewNop())
	r.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	sum, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Nil(t, sum.DFF)
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "ITF_Rows_fuseDef_20260102_030405.csv"))

	records := readCSV(t, filepath.Join(cfg.Output.Dir, "S_UnitData_by_Fuse_Q1_fuseDef.csv"))
	require.NotContains(t, records[0], "VID1_DFF_value")
	// Without database values the second unit's low fuse cannot be explained.
	require.Equal(t, 1, sum.Units["Q1"][recon.Mismatch])
}

func TestRunNothingToDo(t *testing.T) {
	cfg := config.Default()
	cfg.Inputs.Dir = t.TempDir()
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	require.NoError(t, cfg.Validate())

	sum, err := New(cfg, nil).Run(context.Background())
	require.ErrorIs(t, err, recon.ErrNothingToDo)
	require.NotEmpty(t, sum.Warnings)
}

func TestRunCanceled(t *testing.T) {
	cfg := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, zap.NewNop()).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunITFOnly(t *testing.T) {
	cfg := fixture(t)
	cfg.Inputs.UBE = "LOTX_LOCY_dump.ube"
	cfg.ITF.VisualIDs = []string{"VID2"}

	sum, err := New(cfg, zap.NewNop()).RunITF(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Files, 2)
	require.Nil(t, sum.Breakdown)

	records := readCSV(t, filepath.Join(cfg.Output.Dir, "ITF_FullString_fuseDef_LOTX_LOCY.csv"))
	require.Len(t, records, 2)
	require.Equal(t, "VID2", records[1][0])
	require.Equal(t, "10101111", records[1][4])
}

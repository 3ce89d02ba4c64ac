package report

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/recon"
)

func breakdownHeader(qdfs []string) []string {
	header := []string{
		"RegisterName", "RegisterName_fuseDef", "FuseGroup_Name_fuseDef", "Fuse_Name_fuseDef",
		"StartAddress_fuseDef", "EndAddress_fuseDef", "bit_length",
	}
	for _, qdf := range qdfs {
		header = append(header, qdf+"_binaryValue", qdf+"_hexValue")
	}
	return header
}

func breakdownCells(r recon.BreakdownRow, qdfs []string) []string {
	var row []string
	if r.Def == nil {
		na := recon.NotAvailable
		row = []string{r.Register, na, na, na, na, na, na}
	} else {
		row = []string{
			r.Register, r.Def.RegisterName, r.Def.FuseGroup, r.Def.FuseName,
			r.Def.StartList(), r.Def.EndList(), strconv.Itoa(r.BitLength),
		}
	}
	for _, qdf := range qdfs {
		v := r.Value(qdf)
		row = append(row, v.BinaryField(), v.Hex)
	}
	return row
}

// Breakdown writes S_SSPEC_Breakdown_<name>.csv.
func (w *Writer) Breakdown(bd *recon.Breakdown) (string, error) {
	t := &table{header: breakdownHeader(bd.QDFs)}
	for _, r := range bd.Rows {
		t.add(breakdownCells(r, bd.QDFs)...)
	}
	return w.write("S_SSPEC_Breakdown_"+w.name+".csv", t)
}

// UnitData writes S_UnitData_by_Fuse_<qdf>_<name>.csv. The database column
// is written only when withDFF is set.
func (w *Writer) UnitData(qdf string, visualIDs []string, rows []recon.UnitRow, withDFF bool) (string, error) {
	qdfs := []string{qdf}
	header := breakdownHeader(qdfs)
	for _, vid := range visualIDs {
		header = append(header, vid+"_ITF_binaryValue", vid+"_ITF_hexValue")
		if withDFF {
			header = append(header, vid+"_DFF_value")
		}
		header = append(header, vid+"_StatusCheck")
	}

	t := &table{header: header}
	for _, r := range rows {
		row := breakdownCells(r.BreakdownRow, qdfs)
		for _, res := range r.Results {
			row = append(row, res.BinaryField(), res.HexField())
			if withDFF {
				row = append(row, res.DFFValue)
			}
			row = append(row, res.Classification.String())
		}
		t.add(row...)
	}
	return w.write("S_UnitData_by_Fuse_"+qdf+"_"+w.name+".csv", t)
}

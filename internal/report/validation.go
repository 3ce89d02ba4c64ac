package report

import (
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/recon"
)

// Matches writes V_Report_FuseDef_vs_MTL_OLF_<name>.csv.
func (w *Writer) Matches(rep *recon.MatchReport) (string, error) {
	header := append([]string{}, tokenColumns...)
	header = append(header, definitionColumns...)
	header = append(header, "register_match", "fusegroup_match", "fusename_match")

	t := &table{header: header}
	for _, r := range rep.Rows {
		row := tokenCells(r.Token)
		row = append(row,
			r.RegisterName(), r.FuseGroupName(), r.FuseNameValue(),
			r.StartAddresses(), r.EndAddresses(),
			recon.MatchLabel(r.Register), recon.MatchLabel(r.FuseGroup), recon.MatchLabel(r.FuseName),
		)
		t.add(row...)
	}
	return w.write("V_Report_FuseDef_vs_MTL_OLF_"+w.name+".csv", t)
}

// DFF writes V_Report_DFF_UnitData_<name>.csv with one value column per
// visual id.
func (w *Writer) DFF(rep *recon.DFFReport) (string, error) {
	header := append([]string{}, tokenColumns...)
	header = append(header, "global_type_MTL")
	header = append(header, rep.VisualIDs...)

	t := &table{header: header}
	for _, r := range rep.Rows {
		row := tokenCells(r.Token)
		row = append(row, r.Token.GlobalType)
		for _, vid := range rep.VisualIDs {
			row = append(row, r.Values[vid])
		}
		t.add(row...)
	}
	return w.write("V_Report_DFF_UnitData_"+w.name+".csv", t)
}

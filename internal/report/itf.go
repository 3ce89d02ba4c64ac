package report

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/itf"
)

var itfLeadColumns = []string{"visualid", "SSID", "ULT", "TNAME", "TNAME_VALUE", "Domain"}

var itfHeaderColumns = []string{"lotid", "sspec", "prgnm", "lcode", "sysid", "facid", "tempr"}

func itfTrailColumns() []string {
	cols := append([]string{"Register", "filename"}, itfHeaderColumns...)
	for _, a := range itf.UnitAttributes {
		if a != "visualid" {
			cols = append(cols, a)
		}
	}
	return cols
}

func itfLead(r itf.Row) []string {
	return []string{r.VisualID, r.SSID, r.ULT, r.Token, r.Value, r.Domain}
}

func itfTrail(r itf.Row) []string {
	h := r.Header
	cells := []string{
		r.Register, r.File,
		h.LotID, h.SSpec, h.Program, h.LCode, h.SysID, h.FacID, h.Temperature,
	}
	for _, a := range itf.UnitAttributes {
		if a != "visualid" {
			cells = append(cells, r.Attributes[a])
		}
	}
	return cells
}

// ITFRows writes ITF_Rows_<name>_<suffix>.csv.
func (w *Writer) ITFRows(rows []itf.Row, suffix string) (string, error) {
	t := &table{header: append(append([]string{}, itfLeadColumns...), itfTrailColumns()...)}
	for _, r := range rows {
		t.add(append(itfLead(r), itfTrail(r)...)...)
	}
	return w.write("ITF_Rows_"+w.name+"_"+suffix+".csv", t)
}

// ITFFullString writes ITF_FullString_<name>_<suffix>.csv.
func (w *Writer) ITFFullString(rows []itf.FullString, suffix string) (string, error) {
	header := append([]string{}, itfLeadColumns...)
	header = append(header, "FD_Count", "FD_Numbers")
	header = append(header, itfTrailColumns()...)

	t := &table{header: header}
	for _, r := range rows {
		row := itfLead(r.Row)
		row = append(row, strconv.Itoa(r.FDCount), r.FDList())
		row = append(row, itfTrail(r.Row)...)
		t.add(row...)
	}
	return w.write("ITF_FullString_"+w.name+"_"+suffix+".csv", t)
}

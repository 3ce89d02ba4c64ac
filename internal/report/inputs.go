package report

import (
	"strconv"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusedef"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/mtlolf"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/ube"
)

var tokenColumns = []string{
	"dff_token_id_MTL", "token_name_MTL", "first_socket_upload_MTL", "upload_process_step_MTL",
	"ssid_MTL", "ref_level_MTL", "module_MTL", "field_name_MTL", "field_name_seq_MTL",
	"fuse_name_ori_MTL", "fuse_name_MTL", "fuse_register_ori_MTL", "fuse_register_MTL",
}

var definitionColumns = []string{
	"RegisterName_fuseDef", "FuseGroup_Name_fuseDef", "Fuse_Name_fuseDef",
	"StartAddress_fuseDef", "EndAddress_fuseDef",
}

var ubeColumns = []string{
	"visualID", "ULT", "ref_level", "first_socket_upload", "token_name", "tokenValue", "MDPOSITION",
}

func tokenCells(r mtlolf.Row) []string {
	return []string{
		r.DFFTokenID, r.TokenName, r.FirstSocketUpload, r.UploadProcessStep,
		r.SSID, r.RefLevel, r.Module, r.FieldName, strconv.Itoa(r.FieldNameSeq),
		r.FuseNameOriginal, r.FuseName, r.RegisterOriginal, r.FuseRegister,
	}
}

func definitionCells(r fusedef.Row) []string {
	return []string{r.RegisterName, r.FuseGroup, r.FuseName, r.StartList(), r.EndList()}
}

// Tokens writes I_Report_MTL_OLF_<name>.csv.
func (w *Writer) Tokens(rows []mtlolf.Row) (string, error) {
	t := &table{header: tokenColumns}
	for _, r := range rows {
		t.add(tokenCells(r)...)
	}
	return w.write("I_Report_MTL_OLF_"+w.name+".csv", t)
}

// Definitions writes I_Report_FuseDef_<name>.csv.
func (w *Writer) Definitions(rows []fusedef.Row) (string, error) {
	t := &table{header: definitionColumns}
	for _, r := range rows {
		t.add(definitionCells(r)...)
	}
	return w.write("I_Report_FuseDef_"+w.name+".csv", t)
}

// Entries writes I_Report_UBE_<lot>_<location>.csv.
func (w *Writer) Entries(entries []ube.Entry, lot, location string) (string, error) {
	t := &table{header: ubeColumns}
	for _, e := range entries {
		t.add(e.VisualID, e.ULT, e.RefLevel, e.FirstSocketUpload, e.Token, e.Value, e.MDPosition)
	}
	return w.write("I_Report_UBE_"+lot+"_"+location+".csv", t)
}

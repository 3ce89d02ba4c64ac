// Package mtlolf reads token-to-fuse mapping files (MTL_OLF.xml).
package mtlolf

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type xmlToken struct {
	DFFTokenID        string     `xml:"dff_token_id,attr"`
	TokenName         string     `xml:"token_name,attr"`
	FirstSocketUpload string     `xml:"first_socket_upload,attr"`
	UploadProcessStep string     `xml:"upload_process_step,attr"`
	SSID              string     `xml:"ssid,attr"`
	RefLevel          string     `xml:"ref_level,attr"`
	Module            string     `xml:"module,attr"`
	GlobalType        string     `xml:"global_type,attr"`
	Fields            []xmlField `xml:"field"`
}

type xmlField struct {
	FieldName    string `xml:"field_name,attr"`
	FieldNameSeq string `xml:"field_name_seq,attr"`
	FuseName     string `xml:"fuse_name,attr"`
	FuseRegister string `xml:"fuse_register,attr"`
}

// Row is one token field paired with a single fuse name and register.
type Row struct {
	DFFTokenID        string
	TokenName         string
	FirstSocketUpload string
	UploadProcessStep string
	SSID              string
	RefLevel          string
	Module            string
	GlobalType        string
	FieldName         string
	FieldNameSeq      int
	FuseNameOriginal  string
	FuseName          string
	RegisterOriginal  string
	FuseRegister      string
}

// Pair is one fuse name / register pairing.
type Pair struct {
	FuseName string
	Register string
}

// Parse streams token elements from r. Tokens without fields yield a single
// row with empty field columns.
func Parse(r io.Reader) ([]Row, error) {
	dec := xml.NewDecoder(r)
	var rows []Row
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mtlolf: xml: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "token" {
			continue
		}
		var t xmlToken
		if err := dec.DecodeElement(&t, &se); err != nil {
			return nil, fmt.Errorf("mtlolf: token: %w", err)
		}
		rows = append(rows, t.rows()...)
	}
	return rows, nil
}

// ParseFile parses an MTL_OLF.xml file from a path.
func ParseFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mtlolf: failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (t xmlToken) rows() []Row {
	base := Row{
		DFFTokenID:        t.DFFTokenID,
		TokenName:         t.TokenName,
		FirstSocketUpload: t.FirstSocketUpload,
		UploadProcessStep: t.UploadProcessStep,
		SSID:              t.SSID,
		RefLevel:          t.RefLevel,
		Module:            t.Module,
		GlobalType:        t.GlobalType,
	}
	if len(t.Fields) == 0 {
		return []Row{base}
	}
	var rows []Row
	for _, f := range t.Fields {
		seq, err := strconv.Atoi(strings.TrimSpace(f.FieldNameSeq))
		if err != nil {
			seq = 0
		}
		for _, p := range PairNames(f.FuseName, f.FuseRegister) {
			row := base
			row.FieldName = f.FieldName
			row.FieldNameSeq = seq
			row.FuseNameOriginal = f.FuseName
			row.FuseName = p.FuseName
			row.RegisterOriginal = f.FuseRegister
			row.FuseRegister = p.Register
			rows = append(rows, row)
		}
	}
	return rows
}

func splitList(s string) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PairNames pairs comma separated fuse names with comma separated
// registers:
//   - equal lengths above one zip by position
//   - many names with one register share it
//   - one name with many registers repeats the name
//   - unequal lengths zip the shorter side, then extend with its last item
//   - anything else yields a single pair of the first items
func PairNames(names, registers string) []Pair {
	ns, rs := splitList(names), splitList(registers)
	ln, lr := len(ns), len(rs)

	switch {
	case ln == lr && ln > 1:
		out := make([]Pair, ln)
		for i := range ns {
			out[i] = Pair{ns[i], rs[i]}
		}
		return out
	case ln > 1 && lr == 1:
		out := make([]Pair, ln)
		for i, n := range ns {
			out[i] = Pair{n, rs[0]}
		}
		return out
	case ln == 1 && lr > 1:
		out := make([]Pair, lr)
		for i, r := range rs {
			out[i] = Pair{ns[0], r}
		}
		return out
	case ln > 1 && lr > 1:
		n := max(ln, lr)
		out := make([]Pair, n)
		for i := 0; i < n; i++ {
			out[i] = Pair{ns[min(i, ln-1)], rs[min(i, lr-1)]}
		}
		return out
	}
	var p Pair
	if ln > 0 {
		p.FuseName = ns[0]
	}
	if lr > 0 {
		p.Register = rs[0]
	}
	return []Pair{p}
}

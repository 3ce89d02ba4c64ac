// Package fusedef reads fuse definition files (fuseDef.json): the bit
// address ranges of every fuse in every register.
package fusedef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusemap"
)

// Document mirrors the fuseDef.json layout.
type Document struct {
	Registers []Register `json:"Registers"`
}

// Register is one register block. Every RegistersData entry shares the
// block's fuse groups.
type Register struct {
	RegistersData []RegisterData `json:"RegistersData"`
	FuseGroups    []FuseGroup    `json:"FuseGroups"`
}

// RegisterData names a register instance.
type RegisterData struct {
	RegisterName string `json:"RegisterName"`
}

// FuseGroup is a named set of fuses.
type FuseGroup struct {
	Name  string `json:"Name"`
	Fuses []Fuse `json:"Fuses"`
}

// Fuse is one fuse with its parallel start/end address arrays.
type Fuse struct {
	Name         string    `json:"Name"`
	StartAddress []Address `json:"StartAddress"`
	EndAddress   []Address `json:"EndAddress"`
}

// Address is a bit address written as a JSON number or string.
type Address struct {
	raw string
}

// UnmarshalJSON accepts 12, "12" and null.
func (a *Address) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.raw = strings.TrimSpace(s)
		return nil
	}
	a.raw = string(data)
	return nil
}

// String returns the address as written.
func (a Address) String() string {
	return a.raw
}

// Int returns the address as a non-negative int.
func (a Address) Int() (int, error) {
	n, err := strconv.ParseInt(a.raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("fusedef: bad address %q: %w", a.raw, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("fusedef: negative address %d", n)
	}
	v, err := safecast.Conv[int](n)
	if err != nil {
		return 0, fmt.Errorf("fusedef: address %d: %w", n, err)
	}
	return v, nil
}

// Row is one flattened fuse definition. Registers without fuse groups
// produce a row with only RegisterName set.
type Row struct {
	RegisterName string
	FuseGroup    string
	FuseName     string
	Start        []Address
	End          []Address
}

// StartList renders the start addresses as "0,8".
func (r Row) StartList() string { return joinAddresses(r.Start) }

// EndList renders the end addresses as "3,11".
func (r Row) EndList() string { return joinAddresses(r.End) }

// Ranges pairs start and end addresses by position. Any malformed address
// yields no ranges.
func (r Row) Ranges() []fusemap.Range {
	n := min(len(r.Start), len(r.End))
	if n == 0 {
		return nil
	}
	ranges := make([]fusemap.Range, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.Start[i].Int()
		if err != nil {
			return nil
		}
		e, err := r.End[i].Int()
		if err != nil {
			return nil
		}
		ranges = append(ranges, fusemap.Range{Start: s, End: e})
	}
	return ranges
}

// Definition converts the row for extraction.
func (r Row) Definition() fusemap.Definition {
	return fusemap.Definition{
		Register:  r.RegisterName,
		FuseGroup: r.FuseGroup,
		FuseName:  r.FuseName,
		Ranges:    r.Ranges(),
	}
}

func joinAddresses(addrs []Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// Parse decodes a fuseDef.json document and flattens it into rows in
// document order.
func Parse(r io.Reader) ([]Row, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("fusedef: decode: %w", err)
	}
	if doc.Registers == nil {
		return nil, fmt.Errorf("fusedef: missing Registers key")
	}
	return doc.Rows(), nil
}

// ParseFile parses a fuseDef.json file from a path.
func ParseFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fusedef: failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Rows flattens the document.
func (d *Document) Rows() []Row {
	var rows []Row
	for _, reg := range d.Registers {
		for _, rd := range reg.RegistersData {
			if len(reg.FuseGroups) == 0 {
				rows = append(rows, Row{RegisterName: rd.RegisterName})
				continue
			}
			for _, g := range reg.FuseGroups {
				for _, f := range g.Fuses {
					rows = append(rows, Row{
						RegisterName: rd.RegisterName,
						FuseGroup:    g.Name,
						FuseName:     f.Name,
						Start:        f.StartAddress,
						End:          f.EndAddress,
					})
				}
			}
		}
	}
	return rows
}

// Definitions converts rows that name a fuse into extraction definitions.
func Definitions(rows []Row) []fusemap.Definition {
	defs := make([]fusemap.Definition, 0, len(rows))
	for _, r := range rows {
		if r.FuseName == "" && r.FuseGroup == "" {
			continue
		}
		defs = append(defs, r.Definition())
	}
	return defs
}

// ByRegister groups rows by register name, keeping document order.
func ByRegister(rows []Row) map[string][]Row {
	out := make(map[string][]Row)
	for _, r := range rows {
		out[r.RegisterName] = append(out[r.RegisterName], r)
	}
	return out
}

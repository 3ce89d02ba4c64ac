// Package itf parses per-unit production test logs (ITF) and reassembles
// the fuse register strings they carry.
package itf

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// DefaultValueMarker prefixes the line that carries a test token's value.
const DefaultValueMarker = "2_strgalt_fus_msbF_"

var headerPrefixes = []struct {
	prefix string
	set    func(*Header, string)
}{
	{"6_lotid_", func(h *Header, v string) { h.LotID = v }},
	{"6_sspec_", func(h *Header, v string) { h.SSpec = v }},
	{"6_prgnm_", func(h *Header, v string) { h.Program = v }},
	{"5_lcode_", func(h *Header, v string) { h.LCode = v }},
	{"4_sysid_", func(h *Header, v string) { h.SysID = v }},
	{"4_facid_", func(h *Header, v string) { h.FacID = v }},
	{"4_tempr_", func(h *Header, v string) { h.Temperature = v }},
}

const (
	prefixVisualID = "2_visualid_"
	prefixTName    = "2_tname_"
)

var locationPrefixes = []string{"2_sstrlot_", "2_sstrwafer_", "2_sstrxloc_", "2_sstryloc_"}

var ssidSegment = regexp.MustCompile(`^U1\.U\d+`)

type parseState int

const (
	stateIdle parseState = iota // no unit open
	stateUnit                   // inside a unit
)

// location is the per-SSID lot/wafer/x/y accumulator of one unit.
type location [4]string

func (l location) String() string {
	return strings.Join(l[:], "_")
}

func (l location) empty() bool {
	return l == location{}
}

// Parser turns ITF text into units.
type Parser struct {
	table       *Table
	valueMarker string
}

// NewParser creates a parser that records test names matched by table.
// An empty valueMarker selects DefaultValueMarker.
func NewParser(table *Table, valueMarker string) *Parser {
	if valueMarker == "" {
		valueMarker = DefaultValueMarker
	}
	return &Parser{table: table, valueMarker: valueMarker}
}

// Table returns the mapping table used by the parser.
func (p *Parser) Table() *Table {
	return p.table
}

// parseContext is the mutable state of a single parse.
type parseContext struct {
	p         *Parser
	file      *File
	state     parseState
	unit      *Unit
	pending   string
	locations map[string]*location
}

// Parse reads ITF lines from r. Units without a visual id are dropped.
func (p *Parser) Parse(r io.Reader, name string) (*File, error) {
	ctx := &parseContext{p: p, file: &File{Name: name}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ctx.line(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("itf: read %s: %w", name, err)
	}
	ctx.flush()
	return ctx.file, nil
}

func (c *parseContext) line(line string) {
	for _, hp := range headerPrefixes {
		if strings.HasPrefix(line, hp.prefix) {
			hp.set(&c.file.Header, line[len(hp.prefix):])
		}
	}

	if strings.HasPrefix(line, "3_lsep") || strings.HasPrefix(line, "3_lbeg") {
		c.flush()
		c.unit = newUnit()
		c.locations = make(map[string]*location)
		c.pending = ""
		c.state = stateUnit
		return
	}

	if c.state != stateUnit {
		return
	}

	switch {
	case strings.HasPrefix(line, c.p.valueMarker) && c.pending != "":
		c.unit.setToken(c.pending, line[len(c.p.valueMarker):])
		c.pending = ""
	case strings.HasPrefix(line, prefixVisualID):
		c.unit.VisualID = line[len(prefixVisualID):]
		c.pending = ""
	case strings.HasPrefix(line, prefixTName):
		c.pending = ""
		tname := line[len(prefixTName):]
		if _, ok := c.p.table.Match(tname); ok {
			c.unit.setToken(tname, "")
			c.pending = tname
		}
	case hasLocationPrefix(line) >= 0:
		c.location(line, hasLocationPrefix(line))
		c.pending = ""
	default:
		if strings.HasPrefix(line, "3_") || strings.HasPrefix(line, "2_") {
			c.attribute(line[2:])
		}
		c.pending = ""
	}
}

func (c *parseContext) attribute(rest string) {
	field, value, ok := strings.Cut(rest, "_")
	if !ok {
		return
	}
	if _, known := unitAttributeSet[field]; !known {
		return
	}
	c.unit.Attributes[field] = value
	if field == "visualid" {
		c.unit.VisualID = value
	}
}

func hasLocationPrefix(line string) int {
	for i, p := range locationPrefixes {
		if strings.HasPrefix(line, p) {
			return i
		}
	}
	return -1
}

// location records one lot/wafer/x/y line. The SSID is the first
// underscore separated segment shaped like U1.U<n>; the value is every
// segment after it.
func (c *parseContext) location(line string, slot int) {
	ssid, value := splitSSID(line)
	if ssid == "" || value == "" {
		return
	}
	loc, ok := c.locations[ssid]
	if !ok {
		loc = &location{}
		c.locations[ssid] = loc
	}
	loc[slot] = value
}

func splitSSID(line string) (ssid, value string) {
	parts := strings.Split(line, "_")
	if len(parts) < 3 {
		return "", ""
	}
	for i, part := range parts {
		if ssidSegment.MatchString(part) && i+1 < len(parts) {
			return part, strings.Join(parts[i+1:], "_")
		}
	}
	return "", ""
}

// flush closes the open unit, if any.
func (c *parseContext) flush() {
	if c.state != stateUnit {
		return
	}
	for ssid, loc := range c.locations {
		if !loc.empty() {
			c.unit.Locations[ssid] = loc.String()
		}
	}
	if c.unit.VisualID != "" {
		c.file.Units = append(c.file.Units, c.unit)
	}
	c.unit = nil
	c.locations = nil
	c.pending = ""
	c.state = stateIdle
}

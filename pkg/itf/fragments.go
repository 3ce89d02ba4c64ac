package itf

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
)

var fdSuffix = regexp.MustCompile(`_fd(\d+)$`)

// BaseName strips a trailing _fd<N> fragment suffix.
func BaseName(tname string) string {
	return fdSuffix.ReplaceAllString(tname, "")
}

// FDNumber returns the fragment number of a test name, 0 when unsuffixed.
func FDNumber(tname string) int {
	m := fdSuffix.FindStringSubmatch(tname)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// Row is one mapped token value of one unit.
type Row struct {
	File       string
	VisualID   string
	SSID       string
	ULT        string
	Token      string
	Value      string
	Domain     string
	Register   string
	Header     Header
	Attributes map[string]string
}

// FullString is a register string reassembled from its fragments.
type FullString struct {
	Row
	// Row.Token holds the base name and Row.Value the concatenation.
	FDCount   int
	FDNumbers []int
}

// FDList renders the fragment numbers as "0,1,2".
func (f FullString) FDList() string {
	parts := make([]string, len(f.FDNumbers))
	for i, n := range f.FDNumbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Filter selects visual ids. The zero value keeps every unit.
type Filter struct {
	ids map[string]struct{}
}

// ParseFilter parses a comma separated visual-id list; "*" or "" keeps all.
func ParseFilter(spec string) Filter {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "*" {
		return Filter{}
	}
	f := Filter{ids: make(map[string]struct{})}
	for _, id := range strings.Split(spec, ",") {
		if id = strings.TrimSpace(id); id != "" {
			f.ids[id] = struct{}{}
		}
	}
	return f
}

// NewFilter builds a filter from a list. An empty list or one containing
// "*" keeps every unit.
func NewFilter(ids []string) Filter {
	return ParseFilter(strings.Join(ids, ","))
}

// Keeps reports whether the visual id passes the filter.
func (f Filter) Keeps(visualID string) bool {
	if len(f.ids) == 0 {
		return true
	}
	_, ok := f.ids[visualID]
	return ok
}

// Active reports whether the filter restricts anything.
func (f Filter) Active() bool {
	return len(f.ids) > 0
}

// Rows merges units sharing a visual id and emits one row per mapped token.
// Within a visual id, token values from later units win, SSID locations
// from earlier units win and attributes come from the first unit.
func Rows(file *File, table *Table, filter Filter) []Row {
	type merged struct {
		base      *Unit
		tokens    *Unit
		locations map[string]string
	}
	byID := make(map[string]*merged)
	var order []string

	for _, u := range file.Units {
		if !filter.Keeps(u.VisualID) {
			continue
		}
		m, ok := byID[u.VisualID]
		if !ok {
			m = &merged{base: u, tokens: newUnit(), locations: make(map[string]string)}
			byID[u.VisualID] = m
			order = append(order, u.VisualID)
		}
		for _, tok := range u.Tokens {
			m.tokens.setToken(tok.Name, tok.Value)
		}
		for ssid, loc := range u.Locations {
			if _, seen := m.locations[ssid]; !seen {
				m.locations[ssid] = loc
			}
		}
	}

	var rows []Row
	for _, vid := range order {
		m := byID[vid]
		for _, tok := range m.tokens.Tokens {
			mapping, ok := table.Match(tok.Name)
			if !ok {
				continue
			}
			rows = append(rows, Row{
				File:       file.Name,
				VisualID:   vid,
				SSID:       mapping.SSID,
				ULT:        m.locations[mapping.SSID],
				Token:      tok.Name,
				Value:      tok.Value,
				Domain:     mapping.Domain,
				Register:   mapping.Register,
				Header:     file.Header,
				Attributes: m.base.Attributes,
			})
		}
	}
	return rows
}

// Reassemble groups rows by (visual id, SSID, base name) and concatenates
// the fragment values in ascending fragment order. The first row of a group
// supplies the remaining columns.
func Reassemble(rows []Row) []FullString {
	type key struct{ vid, ssid, base string }
	type group struct {
		row       Row
		fragments map[int]string
	}
	groups := make(map[key]*group)
	var order []key

	for _, r := range rows {
		k := key{r.VisualID, r.SSID, BaseName(r.Token)}
		g, ok := groups[k]
		if !ok {
			base := r
			base.Token = k.base
			g = &group{row: base, fragments: make(map[int]string)}
			groups[k] = g
			order = append(order, k)
		}
		g.fragments[FDNumber(r.Token)] = r.Value
	}

	out := make([]FullString, 0, len(order))
	for _, k := range order {
		g := groups[k]
		nums := make([]int, 0, len(g.fragments))
		for n := range g.fragments {
			nums = append(nums, n)
		}
		sort.Ints(nums)

		var sb strings.Builder
		for _, n := range nums {
			sb.WriteString(g.fragments[n])
		}
		fs := FullString{Row: g.row, FDCount: len(nums), FDNumbers: nums}
		fs.Value = sb.String()
		out = append(out, fs)
	}
	return out
}

// UnitRegisters indexes reassembled strings by visual id and register,
// normalised to binary. Empty values are skipped; later strings win.
func UnitRegisters(full []FullString) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, fs := range full {
		if fs.VisualID == "" || fs.Register == "" || fs.Value == "" {
			continue
		}
		regs, ok := out[fs.VisualID]
		if !ok {
			regs = make(map[string]string)
			out[fs.VisualID] = regs
		}
		regs[fs.Register] = bitcodec.Normalize(fs.Value)
	}
	return out
}

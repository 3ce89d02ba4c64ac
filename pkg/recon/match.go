package recon

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusedef"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/mtlolf"
)

// CombinedRow is a token row joined with its matching fuse definitions.
type CombinedRow struct {
	Token mtlolf.Row
	MatchResult
}

// RegisterName is the matched register, or "".
func (c CombinedRow) RegisterName() string {
	if c.RegisterDef == nil {
		return ""
	}
	return c.RegisterDef.RegisterName
}

// FuseGroupName is the matched definition's group, or N/A without a group
// match.
func (c CombinedRow) FuseGroupName() string {
	if !c.FuseGroup || c.FuseDef == nil {
		return NotAvailable
	}
	return c.FuseDef.FuseGroup
}

// FuseNameValue is the matched definition's fuse name, or N/A without a
// fuse-name match.
func (c CombinedRow) FuseNameValue() string {
	if !c.FuseName || c.FuseDef == nil {
		return NotAvailable
	}
	return c.FuseDef.FuseName
}

// addressRow is the definition whose addresses are reported: the fuse match
// when there is one, else the register match.
func (c CombinedRow) addressRow() *fusedef.Row {
	if c.FuseDef != nil {
		return c.FuseDef
	}
	return c.RegisterDef
}

// StartAddresses renders the reported start addresses.
func (c CombinedRow) StartAddresses() string {
	if r := c.addressRow(); r != nil {
		return r.StartList()
	}
	return ""
}

// EndAddresses renders the reported end addresses.
func (c CombinedRow) EndAddresses() string {
	if r := c.addressRow(); r != nil {
		return r.EndList()
	}
	return ""
}

// MatchLabel renders a match flag as "match" or "no-match".
func MatchLabel(ok bool) string {
	if ok {
		return "match"
	}
	return "no-match"
}

// MismatchToken identifies a token row that failed any match.
type MismatchToken struct {
	TokenName         string
	FieldName         string
	Module            string
	Register          string
	FuseName          string
	FirstSocketUpload string
	SSID              string
	RefLevel          string
}

// RegisterTally counts match failures of the token rows of one register.
type RegisterTally struct {
	Register            string
	TotalTokens         int
	RegisterMismatches  int
	FuseGroupMismatches int
	FuseNameMismatches  int
	MismatchTokens      []MismatchToken
}

// Mismatches is the total of the three mismatch counters.
func (t *RegisterTally) Mismatches() int {
	return t.RegisterMismatches + t.FuseGroupMismatches + t.FuseNameMismatches
}

func (t *RegisterTally) addToken(tok MismatchToken) {
	for _, existing := range t.MismatchTokens {
		if existing == tok {
			return
		}
	}
	t.MismatchTokens = append(t.MismatchTokens, tok)
}

// MatchReport is the outcome of matching every token row.
type MatchReport struct {
	Rows []CombinedRow
	// Tallies are in first-seen register order. Rows without a register
	// are tallied under N/A.
	Tallies []*RegisterTally
}

// Totals sums the match flags over every row.
func (r *MatchReport) Totals() (registers, groups, names int) {
	for _, row := range r.Rows {
		if row.Register {
			registers++
		}
		if row.FuseGroup {
			groups++
		}
		if row.FuseName {
			names++
		}
	}
	return registers, groups, names
}

// MatchAll matches every token row against the index.
func (idx *Index) MatchAll(rows []mtlolf.Row) *MatchReport {
	report := &MatchReport{Rows: make([]CombinedRow, 0, len(rows))}
	tallies := make(map[string]*RegisterTally)

	for _, row := range rows {
		res := idx.Match(row)
		report.Rows = append(report.Rows, CombinedRow{Token: row, MatchResult: res})

		register := strings.TrimSpace(row.FuseRegister)
		fuseName := strings.TrimSpace(row.FuseName)
		key := register
		if key == "" {
			key = NotAvailable
		}
		tally, ok := tallies[key]
		if !ok {
			tally = &RegisterTally{Register: key}
			tallies[key] = tally
			report.Tallies = append(report.Tallies, tally)
		}
		tally.TotalTokens++

		tok := MismatchToken{
			TokenName:         row.TokenName,
			FieldName:         row.FieldName,
			Module:            row.Module,
			Register:          register,
			FuseName:          fuseName,
			FirstSocketUpload: row.FirstSocketUpload,
			SSID:              row.SSID,
			RefLevel:          row.RefLevel,
		}
		if !res.Register && register != "" {
			tally.RegisterMismatches++
			tally.addToken(tok)
		}
		if !res.FuseGroup && fuseName != "" {
			tally.FuseGroupMismatches++
			tally.addToken(tok)
		}
		if !res.FuseName && fuseName != "" {
			tally.FuseNameMismatches++
			tally.addToken(tok)
		}
	}
	return report
}

package recon

import (
	"sort"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/mtlolf"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/ube"
)

// InvalidValue is the database marker for an unusable field value.
const InvalidValue = "-999"

// DFFRow is a token row with the value of its field for every unit.
type DFFRow struct {
	Token mtlolf.Row
	// Values maps visual id to the field value, N/A or InvalidValue.
	Values map[string]string
}

// DFFTally counts missing and invalid values per register.
type DFFTally struct {
	Register      string
	TotalTokens   int
	MissingTokens int
	InvalidTokens int
}

// DFFReport is the outcome of checking token rows against the database.
type DFFReport struct {
	VisualIDs []string
	Rows      []DFFRow
	Tallies   []*DFFTally
	// Missing and Invalid count occurrences per "register|token".
	Missing map[string]int
	Invalid map[string]int
}

// FieldValue selects the seq-th (1-based) '|' separated part of a raw
// database value.
func FieldValue(raw string, seq int) (string, bool) {
	parts := strings.Split(raw, "|")
	idx := seq - 1
	if idx < 0 || idx >= len(parts) {
		return "", false
	}
	return strings.TrimSpace(parts[idx]), true
}

// CheckDFF resolves every token row against the database lookup.
func CheckDFF(rows []mtlolf.Row, lookup *ube.Lookup) *DFFReport {
	report := &DFFReport{
		VisualIDs: lookup.VisualIDs(),
		Rows:      make([]DFFRow, 0, len(rows)),
		Missing:   make(map[string]int),
		Invalid:   make(map[string]int),
	}
	tallies := make(map[string]*DFFTally)

	for _, row := range rows {
		tally, ok := tallies[row.FuseRegister]
		if !ok {
			tally = &DFFTally{Register: row.FuseRegister}
			tallies[row.FuseRegister] = tally
			report.Tallies = append(report.Tallies, tally)
		}
		tally.TotalTokens++
		key := row.FuseRegister + "|" + row.TokenName

		raw := lookup.Values(row.TokenName, row.RefLevel, "")
		out := DFFRow{Token: row, Values: make(map[string]string, len(report.VisualIDs))}
		for _, vid := range report.VisualIDs {
			full, ok := raw[vid]
			if !ok {
				out.Values[vid] = NotAvailable
				report.Missing[key]++
				tally.MissingTokens++
				continue
			}
			v, ok := FieldValue(full, row.FieldNameSeq)
			if !ok {
				out.Values[vid] = NotAvailable
				report.Missing[key]++
				tally.MissingTokens++
				continue
			}
			if v == InvalidValue {
				report.Invalid[key]++
				tally.InvalidTokens++
			}
			out.Values[vid] = v
		}
		report.Rows = append(report.Rows, out)
	}
	return report
}

// TopTokens returns the keys of counts ordered by descending count, then
// name, limited to n entries (n <= 0 means all).
func TopTokens(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// ExpectedValues holds the per-unit database values by fuse and register.
type ExpectedValues struct {
	values map[string]map[string]string
}

func expectedKey(fuse, register string) string {
	return fuse + "|" + register
}

// Expected builds the expected-value lookup from the report. N/A values are
// left out; later rows win for the same fuse and register.
func (r *DFFReport) Expected() *ExpectedValues {
	ev := NewExpectedValues()
	for _, row := range r.Rows {
		if row.Token.FuseName == "" || row.Token.FuseRegister == "" {
			continue
		}
		key := expectedKey(row.Token.FuseName, row.Token.FuseRegister)
		for vid, v := range row.Values {
			if v == NotAvailable {
				continue
			}
			ev.Set(vid, key, v)
		}
	}
	return ev
}

// Set stores a value under a "fuse|register" key.
func (e *ExpectedValues) Set(visualID, key, value string) {
	m, ok := e.values[visualID]
	if !ok {
		m = make(map[string]string)
		e.values[visualID] = m
	}
	m[key] = value
}

// NewExpectedValues creates an empty lookup.
func NewExpectedValues() *ExpectedValues {
	return &ExpectedValues{values: make(map[string]map[string]string)}
}

// Lookup returns the expected value of a fuse for a unit, trying the fuse
// group before the fuse name.
func (e *ExpectedValues) Lookup(visualID, group, name, register string) (string, bool) {
	if e == nil {
		return "", false
	}
	m := e.values[visualID]
	if group != "" {
		if v, ok := m[expectedKey(group, register)]; ok {
			return v, true
		}
	}
	if name != "" {
		if v, ok := m[expectedKey(name, register)]; ok {
			return v, true
		}
	}
	return "", false
}

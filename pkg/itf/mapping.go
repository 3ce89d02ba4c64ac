package itf

import (
	"regexp"
	"strings"
)

// Mapping ties test names matching any of Patterns to a register on a
// physical sub-die (SSID).
type Mapping struct {
	Domain   string   `json:"domain" yaml:"domain" toml:"domain" validate:"required"`
	Register string   `json:"register" yaml:"register" toml:"register" validate:"required"`
	SSID     string   `json:"ssid" yaml:"ssid" toml:"ssid" validate:"required"`
	Patterns []string `json:"patterns" yaml:"patterns" toml:"patterns" validate:"min=1,dive,required"`
}

// DefaultProfile is the name of the built-in mapping profile.
const DefaultProfile = "lockout_RAP"

// DefaultMappings returns the built-in lockout_RAP mapping profile.
func DefaultMappings() []Mapping {
	return []Mapping{
		{"IPC::FUS", "CPU0", "U1.U5", []string{"FACTFUSBURNCPUNOM_X_X_X_X_LOCKBIT_RAP_CPU0"}},
		{"IPC::FUS", "CPU1", "U1.U6", []string{"FACTFUSBURNCPUNOM_X_X_X_X_LOCKBIT_RAP_CPU1"}},
		{"IPG::FUS", "GCD", "U1.U4", []string{"FACTFUSBURNGCDNOM_X_X_X_X_LOCKBIT_RAP_GCD"}},
		{"IPH::FUS", "HUB", "U1.U2", []string{"FACTFUSBURNHUBNOM_X_X_X_X_LOCKBIT_RAP_HUB"}},
		{"IPP::FUS", "PCD", "U1.U3", []string{"FACTFUSBURNPCDNOM_X_X_X_X_LOCKBITRAP_PCD"}},
	}
}

type compiledMapping struct {
	Mapping
	// nil entries are patterns that failed to compile; those fall back to
	// substring matching.
	regexes []*regexp.Regexp
}

// Table matches test names against an ordered list of mappings.
type Table struct {
	mappings []compiledMapping
}

// NewTable compiles the patterns of every mapping. Order is preserved: the
// first matching mapping wins.
func NewTable(mappings []Mapping) *Table {
	t := &Table{mappings: make([]compiledMapping, 0, len(mappings))}
	for _, m := range mappings {
		cm := compiledMapping{Mapping: m, regexes: make([]*regexp.Regexp, len(m.Patterns))}
		for i, p := range m.Patterns {
			if re, err := regexp.Compile("(?i)" + p); err == nil {
				cm.regexes[i] = re
			}
		}
		t.mappings = append(t.mappings, cm)
	}
	return t
}

// Match returns the first mapping with a pattern that is a substring of name
// or matches it as a case-insensitive regular expression.
func (t *Table) Match(name string) (Mapping, bool) {
	if name == "" {
		return Mapping{}, false
	}
	for _, cm := range t.mappings {
		for i, p := range cm.Patterns {
			if p == "" {
				continue
			}
			if strings.Contains(name, p) {
				return cm.Mapping, true
			}
			if re := cm.regexes[i]; re != nil && re.MatchString(name) {
				return cm.Mapping, true
			}
		}
	}
	return Mapping{}, false
}

// Mappings returns the mappings in match order.
func (t *Table) Mappings() []Mapping {
	out := make([]Mapping, len(t.mappings))
	for i, cm := range t.mappings {
		out[i] = cm.Mapping
	}
	return out
}

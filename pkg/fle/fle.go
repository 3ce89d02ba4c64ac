// Package fle loads the field-level-encrypted fuse list (FleFuseSettings.json).
// FLE fuses have no readable expected value and are classified on their own.
package fle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFileName is the settings file looked up in the input directory.
const DefaultFileName = "FleFuseSettings.json"

// Settings mirrors FleFuseSettings.json.
type Settings struct {
	Registers []Register `json:"Registers"`
}

// Register lists the encrypted fuses of one register.
type Register struct {
	Name         string        `json:"Name"`
	SecurityKeys []SecurityKey `json:"SecurityKeys"`
	SpecialFuses SpecialFuses  `json:"SpecialFuses"`
}

// SecurityKey holds decoder entries naming individual fuses.
type SecurityKey struct {
	SecurityKeyDecoder []struct {
		FuseName string `json:"fuseName"`
	} `json:"SecurityKeyDecoder"`
}

// SpecialFuses names lockout groups and algorithm fuses.
type SpecialFuses struct {
	LockoutBits []struct {
		FuseNames []string `json:"fuseNames"`
	} `json:"LockoutBits"`
	SpecialAlgorithms []struct {
		Fuse         string   `json:"Fuse"`
		IncludeFuses []string `json:"IncludeFuses"`
	} `json:"SpecialAlgorithms"`
}

var lower = cases.Lower(language.Und)

// Normalize lower-cases a name and replaces '/' with '_'.
func Normalize(name string) string {
	return strings.ReplaceAll(lower.String(name), "/", "_")
}

// Set is a set of FLE fuse and fuse-group names with their normalised
// variants.
type Set struct {
	names map[string]struct{}
}

// NewSet creates an empty set.
func NewSet() *Set {
	return &Set{names: make(map[string]struct{})}
}

// Add inserts a name, its normalised form and, for decoder fuse names, the
// known underscore variants.
func (s *Set) Add(name string, variants bool) {
	if name == "" {
		return
	}
	s.names[name] = struct{}{}
	n := Normalize(name)
	s.names[n] = struct{}{}
	if !variants {
		return
	}
	if strings.Contains(n, "dfxagg") {
		s.names[strings.ReplaceAll(n, "dfxagg", "dfx_agg")] = struct{}{}
	}
	if strings.Contains(name, "ENDEBUG") {
		s.names[strings.ReplaceAll(name, "ENDEBUG", "endebug")] = struct{}{}
	}
}

// Contains reports whether name, its lower-case form or its normalised form
// is in the set.
func (s *Set) Contains(name string) bool {
	if s == nil || name == "" {
		return false
	}
	if _, ok := s.names[name]; ok {
		return true
	}
	if _, ok := s.names[lower.String(name)]; ok {
		return true
	}
	_, ok := s.names[Normalize(name)]
	return ok
}

// Matches reports whether either the fuse group or the fuse name is FLE.
func (s *Set) Matches(group, name string) bool {
	return s.Contains(group) || s.Contains(name)
}

// Len returns the number of stored names, variants included.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Names returns the stored names, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, s.Len())
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Set builds the FLE set from the settings.
func (st *Settings) Set() *Set {
	set := NewSet()
	for _, reg := range st.Registers {
		for _, key := range reg.SecurityKeys {
			for _, dec := range key.SecurityKeyDecoder {
				set.Add(dec.FuseName, true)
			}
		}
		for _, lb := range reg.SpecialFuses.LockoutBits {
			for _, group := range lb.FuseNames {
				set.Add(group, false)
			}
		}
		for _, alg := range reg.SpecialFuses.SpecialAlgorithms {
			set.Add(alg.Fuse, false)
			for _, inc := range alg.IncludeFuses {
				set.Add(inc, false)
			}
		}
	}
	return set
}

// Parse decodes FleFuseSettings.json content.
func Parse(r io.Reader) (*Set, error) {
	var st Settings
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return nil, fmt.Errorf("fle: decode: %w", err)
	}
	return st.Set(), nil
}

// Load reads the settings file at path. A missing file yields an empty set.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("fle: failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

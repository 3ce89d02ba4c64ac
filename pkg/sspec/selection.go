package sspec

import (
	"sort"
	"strings"
)

// Selection picks which QDFs to read. The zero value selects every QDF.
type Selection struct {
	QDFs map[string]struct{}
}

// ParseSelection parses a comma separated QDF list ("L0V8,L0VS"). "*" and
// the empty string select every QDF found in the file.
func ParseSelection(spec string) Selection {
	spec = strings.TrimSpace(spec)
	if spec == "" || spec == "*" {
		return Selection{}
	}
	sel := Selection{QDFs: make(map[string]struct{})}
	for _, q := range strings.Split(spec, ",") {
		if q = strings.TrimSpace(q); q != "" {
			sel.QDFs[q] = struct{}{}
		}
	}
	return sel
}

// All reports whether every QDF is selected.
func (s Selection) All() bool {
	return len(s.QDFs) == 0
}

// Includes reports whether qdf is selected.
func (s Selection) Includes(qdf string) bool {
	if s.All() {
		return true
	}
	_, ok := s.QDFs[qdf]
	return ok
}

// List returns the explicitly selected QDFs in sorted order.
func (s Selection) List() []string {
	out := make([]string, 0, len(s.QDFs))
	for q := range s.QDFs {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Package ube reads per-unit manufacturing database dumps (UBE) and indexes
// their token values by visual id.
package ube

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RefLevelWafer is the reference level whose values carry an MDPOSITION.
const RefLevelWafer = "WFR"

var (
	mdPositionPattern = regexp.MustCompile(`MDPOSITION=([^,]+)`)
	tokenPattern      = regexp.MustCompile(`^([^=]+)=(.+)`)
)

// Entry is one token value of one unit.
type Entry struct {
	VisualID          string
	ULT               string
	RefLevel          string
	FirstSocketUpload string
	Token             string
	Value             string
	// MDPosition is only set for wafer level entries.
	MDPosition string
}

// Parse reads a UBE dump. Lines look like:
//
//	UNIT,<visual id>
//	<ULT>:
//	<ref level>,<socket>,TOKEN=value,TOKEN=value,MDPOSITION=...
func Parse(r io.Reader) ([]Entry, error) {
	var (
		entries  []Entry
		visualID string
		ult      string
		mdPos    string
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(line, "UNIT,"); ok {
			visualID = strings.TrimSpace(rest)
			ult, mdPos = "", ""
			continue
		}
		if strings.HasSuffix(line, ":") {
			ult = strings.TrimSpace(strings.TrimSuffix(line, ":"))
			mdPos = ""
			continue
		}
		if m := mdPositionPattern.FindStringSubmatch(line); m != nil {
			mdPos = m[1]
		}
		if visualID == "" || !strings.Contains(line, ",") {
			continue
		}

		parts := strings.SplitN(line, ",", 3)
		if len(parts) < 3 {
			continue
		}
		refLevel := strings.TrimSpace(parts[0])
		socket := strings.TrimSpace(parts[1])
		pos := ""
		if refLevel == RefLevelWafer {
			pos = mdPos
		}
		unitULT := ult
		if unitULT == "" {
			unitULT = "N/A"
		}

		for _, tp := range strings.Split(parts[2], ",") {
			tp = strings.TrimSpace(tp)
			if tp == "" || strings.HasPrefix(tp, "MDPOSITION=") {
				continue
			}
			m := tokenPattern.FindStringSubmatch(tp)
			if m == nil {
				continue
			}
			entries = append(entries, Entry{
				VisualID:          visualID,
				ULT:               unitULT,
				RefLevel:          refLevel,
				FirstSocketUpload: socket,
				Token:             strings.TrimSpace(m[1]),
				Value:             strings.TrimSpace(m[2]),
				MDPosition:        pos,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ube: read: %w", err)
	}
	return entries, nil
}

// ParseFile parses a UBE dump from a path.
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ube: failed to open file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// LotLocation derives the lot and location from a dump file name shaped
// like <lot>_<location>_....ube.
func LotLocation(path string) (lot, location string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(stem, "_")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "unknown", "unknown"
}

// Lookup indexes entry values by token and reference level.
type Lookup struct {
	byRef     map[string]map[string]string
	byWafer   map[string]map[string]string
	visualIDs map[string]struct{}
}

func refKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// NewLookup builds lookup tables. Later entries win for the same visual id.
func NewLookup(entries []Entry) *Lookup {
	l := &Lookup{
		byRef:     make(map[string]map[string]string),
		byWafer:   make(map[string]map[string]string),
		visualIDs: make(map[string]struct{}),
	}
	for _, e := range entries {
		l.visualIDs[e.VisualID] = struct{}{}
		put(l.byRef, refKey(e.Token, e.RefLevel), e.VisualID, e.Value)
		if strings.Contains(strings.ToUpper(e.RefLevel), RefLevelWafer) && e.MDPosition != "" {
			put(l.byWafer, refKey(e.Token, RefLevelWafer, e.MDPosition), e.VisualID, e.Value)
		}
	}
	return l
}

func put(m map[string]map[string]string, key, vid, value string) {
	inner, ok := m[key]
	if !ok {
		inner = make(map[string]string)
		m[key] = inner
	}
	inner[vid] = value
}

// Values returns the per-visual-id raw values of a token. It tries
// token|refLevel, then the wafer table keyed by refLevel as MDPOSITION,
// then, for wafer reference levels, the wafer table keyed by mdPosition.
func (l *Lookup) Values(token, refLevel, mdPosition string) map[string]string {
	if v := l.byRef[refKey(token, refLevel)]; len(v) > 0 {
		return v
	}
	if v := l.byWafer[refKey(token, RefLevelWafer, refLevel)]; len(v) > 0 {
		return v
	}
	if mdPosition != "" && strings.Contains(strings.ToUpper(refLevel), RefLevelWafer) {
		if v := l.byWafer[refKey(token, RefLevelWafer, mdPosition)]; len(v) > 0 {
			return v
		}
	}
	return nil
}

// VisualIDs returns every visual id seen, sorted.
func (l *Lookup) VisualIDs() []string {
	out := make([]string, 0, len(l.visualIDs))
	for id := range l.visualIDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

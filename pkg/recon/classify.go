package recon

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
)

// Classification is the verdict for one fuse of one unit.
type Classification int

const (
	Mismatch Classification = iota
	Static                  // equals the QDF default
	Dynamic                 // equals the unit's programmed value
	FLE                     // field-level encrypted, not compared
	Sort                    // sort-skip bits, varies with binning
)

func (c Classification) String() string {
	switch c {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case FLE:
		return "FLE"
	case Sort:
		return "sort"
	default:
		return "mismatch"
	}
}

// Input is everything the classifier needs for one fuse of one unit.
type Input struct {
	QDFHex string
	ITFHex string
	// Expected is the manufacturing database value, nil when absent.
	Expected *string
	SortSkip bool
	FLE      bool
}

// Classify applies the rules in priority order: sort, FLE, dynamic,
// static, mismatch. An expected value that matches the ITF value in no
// base falls through to the static comparison.
func Classify(in Input) Classification {
	switch {
	case in.SortSkip:
		return Sort
	case in.FLE:
		return FLE
	}
	if in.Expected != nil && bitcodec.IsValidHex(in.ITFHex) {
		if _, ok := ResolveExpected(*in.Expected, in.ITFHex); ok {
			return Dynamic
		}
	}
	if bitcodec.IsValidHex(in.QDFHex) && bitcodec.IsValidHex(in.ITFHex) &&
		strings.EqualFold(strings.TrimSpace(in.QDFHex), strings.TrimSpace(in.ITFHex)) {
		return Static
	}
	return Mismatch
}

// Candidates returns the hex forms of an expected value of unknown base, in
// the order they are tried: prefixed hex alone when the value carries a 0x
// prefix, else binary (0/1 only), hex, and decimal (digits only).
func Candidates(expected string) []string {
	v := strings.TrimSpace(expected)
	if v == "" {
		return nil
	}
	if len(v) > 2 && strings.EqualFold(v[:2], "0x") {
		if h, ok := bitcodec.ParseBase(v[2:], 16); ok {
			return []string{h}
		}
		return []string{strings.ToUpper(v)}
	}

	var out []string
	if bitcodec.IsBinary(v) {
		if h, ok := bitcodec.ParseBase(v, 2); ok {
			out = append(out, h)
		}
	}
	if h, ok := bitcodec.ParseBase(v, 16); ok {
		out = append(out, h)
	}
	if isDigits(v) {
		if h, ok := bitcodec.ParseBase(v, 10); ok {
			out = append(out, h)
		}
	}
	return out
}

// ResolveExpected returns the first candidate reading of expected that
// equals itfHex.
func ResolveExpected(expected, itfHex string) (string, bool) {
	target := strings.TrimSpace(itfHex)
	for _, c := range Candidates(expected) {
		if strings.EqualFold(c, target) {
			return c, true
		}
	}
	return "", false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Package fusemap slices fuse fields out of full register bit strings.
//
// Register strings are stored MSB first, so bit 0 is the last character.
// A fuse field is described by one or more (start, end) bit address ranges;
// discontiguous fields are extracted range by range and concatenated in the
// order the ranges were declared.
package fusemap

import (
	"strconv"
	"strings"
)

// Range is an inclusive bit address range. Start and End may be given in
// either order.
type Range struct {
	Start int
	End   int
}

// Normalized returns the range with Start <= End.
func (r Range) Normalized() Range {
	if r.Start > r.End {
		return Range{Start: r.End, End: r.Start}
	}
	return r
}

// Width is the number of bits covered by the range.
func (r Range) Width() int {
	n := r.Normalized()
	return n.End - n.Start + 1
}

// Definition describes where a fuse lives inside its register.
type Definition struct {
	Register  string
	FuseGroup string
	FuseName  string
	Ranges    []Range
}

// Extract slices the definition's bits out of a full register string.
func (d Definition) Extract(bits string) string {
	return Extract(bits, d.Ranges)
}

// Extract returns the sub-bitstring selected by ranges. Each range is mapped
// from bit address space (bit 0 = last character) into string index space and
// clamped to the string. Ranges that fall entirely outside the string
// contribute nothing.
func Extract(bits string, ranges []Range) string {
	if bits == "" || len(ranges) == 0 {
		return ""
	}

	n := len(bits)
	var b strings.Builder
	for _, r := range ranges {
		r = r.Normalized()
		low := max(0, n-1-r.End)
		high := min(n-1, n-1-r.Start)
		if low <= high {
			b.WriteString(bits[low : high+1])
		}
	}
	return b.String()
}

// ParseRanges builds ranges from the comma separated start and end address
// columns used by the definition tables, e.g. ("0,8", "3,11"). Starts and ends
// are paired by position; surplus entries on either side are ignored. Any
// malformed or negative address invalidates the whole list and yields nil.
func ParseRanges(starts, ends string) []Range {
	if strings.TrimSpace(starts) == "" || strings.TrimSpace(ends) == "" {
		return nil
	}
	s, ok := parseAddressList(starts)
	if !ok {
		return nil
	}
	e, ok := parseAddressList(ends)
	if !ok {
		return nil
	}

	count := min(len(s), len(e))
	ranges := make([]Range, 0, count)
	for i := 0; i < count; i++ {
		ranges = append(ranges, Range{Start: s[i], End: e[i]})
	}
	return ranges
}

// FormatAddresses renders one side of the ranges back into the comma
// separated column form.
func FormatAddresses(ranges []Range, end bool) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		v := r.Start
		if end {
			v = r.End
		}
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ",")
}

func parseAddressList(list string) ([]int, bool) {
	fields := strings.Split(list, ",")
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || v < 0 {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// Package bitcodec converts fuse bit arrays between binary strings,
// run-length encoded strings and hexadecimal.
//
// Fuse strings are stored MSB first: the last character of a string is bit 0
// of the register. Nothing in this package reorders bits.
package bitcodec

import (
	"strconv"
	"strings"
)

// DecodeRLE expands a run-length encoded fuse string into binary.
//
// Format: "A5BA2B3" = 00000100111
//   - 'A' followed by N means N zero bits
//   - 'B' followed by N means N one bits
//   - a marker without digits counts as one bit
//
// Markers are case-insensitive. Any other character is skipped.
func DecodeRLE(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		var bit byte
		switch s[i] {
		case 'A', 'a':
			bit = '0'
		case 'B', 'b':
			bit = '1'
		default:
			i++
			continue
		}
		i++

		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		count := 1
		if j > i {
			n, err := strconv.Atoi(s[i:j])
			if err != nil {
				// Run length overflowed int; nothing sensible to emit.
				i = j
				continue
			}
			count = n
		}
		i = j

		for k := 0; k < count; k++ {
			b.WriteByte(bit)
		}
	}
	return b.String()
}

// IsBinary reports whether s is a non-empty string of '0' and '1' once
// surrounding whitespace is removed.
func IsBinary(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}
	return true
}

// IsRLE reports whether s only uses the run-length alphabet (A, B and
// digits) and carries at least one run marker. Pattern strings containing
// m/s/x placeholders are not RLE.
func IsRLE(s string) bool {
	s = strings.TrimSpace(s)
	markers := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == 'A' || c == 'a' || c == 'B' || c == 'b':
			markers++
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return markers > 0
}

// Normalize returns s unchanged (trimmed) when it is already binary and the
// decoded form otherwise, so a single field may hold either representation.
func Normalize(s string) string {
	if IsBinary(s) {
		return strings.TrimSpace(s)
	}
	return DecodeRLE(s)
}

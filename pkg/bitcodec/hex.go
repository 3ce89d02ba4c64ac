package bitcodec

import (
	"math/big"
	"strings"
)

// HexSentinel is returned by BinaryToHex when the input cannot be converted.
// It never collides with a valid result because valid results carry the
// HexPrefix.
const HexSentinel = "Q"

// HexPrefix prefixes every successfully converted value.
const HexPrefix = "0X"

// BinaryToHex converts a binary string to upper-case hexadecimal with the
// HexPrefix. Registers are often wider than 64 bits so the conversion uses
// arbitrary precision. Empty or non-binary input yields HexSentinel.
func BinaryToHex(b string) string {
	b = strings.TrimSpace(b)
	if !IsBinary(b) {
		return HexSentinel
	}
	v, ok := new(big.Int).SetString(b, 2)
	if !ok {
		return HexSentinel
	}
	return HexPrefix + strings.ToUpper(v.Text(16))
}

// IsValidHex reports whether h is a converted value rather than the sentinel
// or an empty placeholder.
func IsValidHex(h string) bool {
	h = strings.TrimSpace(h)
	return h != "" && h != HexSentinel && h != "N/A"
}

// ParseBase parses s in the given base and returns it formatted the way
// BinaryToHex formats values. The second return is false when s is not a
// valid number in that base.
func ParseBase(s string, base int) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	v, ok := new(big.Int).SetString(s, base)
	if !ok || v.Sign() < 0 {
		return "", false
	}
	return HexPrefix + strings.ToUpper(v.Text(16)), true
}

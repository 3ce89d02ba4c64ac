package bitcodec

// BitStats summarises a QDF fuse pattern.
type BitStats struct {
	RegisterSize int // Total characters in the pattern
	StaticBits   int // '0' or '1'
	DynamicBits  int // 'm': programmed per unit
	SortBits     int // 's': varies with binning
}

// Analyze counts the bit classes of a fuse pattern. It returns false for an
// empty pattern.
func Analyze(pattern string) (BitStats, bool) {
	if pattern == "" {
		return BitStats{}, false
	}
	stats := BitStats{RegisterSize: len(pattern)}
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '0', '1':
			stats.StaticBits++
		case 'm', 'M':
			stats.DynamicBits++
		case 's', 'S':
			stats.SortBits++
		}
	}
	return stats, true
}

// HasSortBit reports whether a pattern contains a sort-skip marker.
func HasSortBit(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == 's' || pattern[i] == 'S' {
			return true
		}
	}
	return false
}

package sspec

import "strings"

// FuseDataLine is one FUSEDATA record of an sspec.txt file.
// Example: FUSEDATA:CPU0:L0V8:fuse:A12B4mms01
type FuseDataLine struct {
	Register string   `"FUSEDATA" Sep @Field? Sep`
	QDF      string   `@Field? Sep`
	Info     string   `@Field? Sep`
	Bits     []string `@( Field | Sep )* EOL?`
}

// FuseString returns the raw fuse string. Colons inside the string are kept.
func (l *FuseDataLine) FuseString() string {
	return strings.TrimSpace(strings.Join(l.Bits, ""))
}

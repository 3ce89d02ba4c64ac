package sspec

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// SspecLexer tokenizes a single sspec.txt line.
// Lines are colon separated: FUSEDATA:<register>:<qdf>:<info>:<fuse string>
var SspecLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "EOL", Pattern: `[\r\n]+`},
	{Name: "Sep", Pattern: `:`},
	{Name: "Field", Pattern: `[^:\r\n]+`},
})

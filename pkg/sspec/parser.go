// Package sspec reads QDF specification files (sspec.txt) and serves the
// per-register, per-QDF fuse strings they declare.
package sspec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
)

// LinePrefix marks the only lines of an sspec file that carry fuse data.
const LinePrefix = "FUSEDATA:"

// ErrNoRecords is returned when a file holds no FUSEDATA line for the
// requested QDFs.
var ErrNoRecords = errors.New("sspec: no FUSEDATA records")

// Record is the fuse string of one register for one QDF.
type Record struct {
	Register string
	QDF      string
	// Bits is binary, a pattern with m/s/x placeholders, or the decoded
	// form of a run-length encoded source string.
	Bits string
	Line int
}

// Parser reads sspec files.
type Parser struct {
	line *participle.Parser[FuseDataLine]
}

// NewParser creates a new sspec parser instance
func NewParser() (*Parser, error) {
	p, err := participle.Build[FuseDataLine](
		participle.Lexer(SspecLexer),
	)
	if err != nil {
		return nil, fmt.Errorf("sspec: failed to build parser: %w", err)
	}
	return &Parser{line: p}, nil
}

// ParseLine parses a single FUSEDATA line.
func (p *Parser) ParseLine(line string) (*FuseDataLine, error) {
	fd, err := p.line.ParseString("", line)
	if err != nil {
		return nil, fmt.Errorf("sspec: parse error: %w", err)
	}
	return fd, nil
}

// Parse reads FUSEDATA records from r. Records whose QDF is not selected are
// skipped; other lines and malformed records are ignored.
func (p *Parser) Parse(r io.Reader, sel Selection) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(text, LinePrefix) {
			continue
		}
		fd, err := p.ParseLine(text)
		if err != nil {
			continue
		}
		qdf := strings.TrimSpace(fd.QDF)
		if !sel.Includes(qdf) {
			continue
		}
		records = append(records, Record{
			Register: strings.TrimSpace(fd.Register),
			QDF:      qdf,
			Bits:     decodeFuseString(fd.FuseString()),
			Line:     lineNo,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sspec: read: %w", err)
	}
	return records, nil
}

// ParseFile parses an sspec file from a file path
func (p *Parser) ParseFile(filename string, sel Selection) ([]Record, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("sspec: failed to open file: %w", err)
	}
	defer file.Close()

	records, err := p.Parse(file, sel)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoRecords)
	}
	return records, nil
}

// decodeFuseString expands run-length encoded strings. Binary strings and
// patterns with placeholder characters are returned as-is.
func decodeFuseString(s string) string {
	if bitcodec.IsRLE(s) {
		return bitcodec.DecodeRLE(s)
	}
	return s
}

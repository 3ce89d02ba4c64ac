// Package recon reconciles fuse values across the QDF specification, the
// fuse definitions, the manufacturing database and the unit test logs.
package recon

import (
	"errors"
	"strings"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusedef"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/mtlolf"
)

// ErrNothingToDo is returned when no source produced usable data.
var ErrNothingToDo = errors.New("recon: nothing to do: no usable input sources")

// NotAvailable marks a missing value in reports.
const NotAvailable = "N/A"

// Index looks up fuse definitions by register, fuse group and fuse name.
// The first definition inserted under a key wins.
type Index struct {
	byRegister  map[string]*fusedef.Row
	byFuseGroup map[string]*fusedef.Row
	byFuseName  map[string]*fusedef.Row
}

// NewIndex builds the three lookup maps. Keys are trimmed; empty keys are
// not indexed.
func NewIndex(rows []fusedef.Row) *Index {
	idx := &Index{
		byRegister:  make(map[string]*fusedef.Row),
		byFuseGroup: make(map[string]*fusedef.Row),
		byFuseName:  make(map[string]*fusedef.Row),
	}
	for i := range rows {
		row := &rows[i]
		insertFirst(idx.byRegister, row.RegisterName, row)
		insertFirst(idx.byFuseGroup, row.FuseGroup, row)
		insertFirst(idx.byFuseName, row.FuseName, row)
	}
	return idx
}

func insertFirst(m map[string]*fusedef.Row, key string, row *fusedef.Row) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	if _, exists := m[key]; !exists {
		m[key] = row
	}
}

// Register returns the first definition of a register.
func (idx *Index) Register(name string) (*fusedef.Row, bool) {
	r, ok := idx.byRegister[strings.TrimSpace(name)]
	return r, ok
}

// FuseGroup returns the first definition in a fuse group.
func (idx *Index) FuseGroup(name string) (*fusedef.Row, bool) {
	r, ok := idx.byFuseGroup[strings.TrimSpace(name)]
	return r, ok
}

// FuseName returns the first definition of a fuse.
func (idx *Index) FuseName(name string) (*fusedef.Row, bool) {
	r, ok := idx.byFuseName[strings.TrimSpace(name)]
	return r, ok
}

// Counts returns the number of distinct registers, groups and fuse names.
func (idx *Index) Counts() (registers, groups, names int) {
	return len(idx.byRegister), len(idx.byFuseGroup), len(idx.byFuseName)
}

// MatchResult reports whether a token row has counterparts in the fuse
// definitions.
type MatchResult struct {
	Register  bool
	FuseGroup bool
	FuseName  bool
	// RegisterDef is set when Register is true.
	RegisterDef *fusedef.Row
	// FuseDef is the fuse-name match, else the fuse-group match.
	FuseDef *fusedef.Row
}

// Match checks one token row. The row's fuse name is looked up both as a
// fuse group and as a fuse name.
func (idx *Index) Match(row mtlolf.Row) MatchResult {
	var res MatchResult
	if def, ok := idx.Register(row.FuseRegister); ok {
		res.Register = true
		res.RegisterDef = def
	}
	if def, ok := idx.FuseGroup(row.FuseName); ok {
		res.FuseGroup = true
		res.FuseDef = def
	}
	if def, ok := idx.FuseName(row.FuseName); ok {
		res.FuseName = true
		res.FuseDef = def
	}
	return res
}

package recon

import (
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fle"
)

// Display values of the database column.
const (
	SortSkipValue = "sort-skip"
	FLEValue      = "FLE"
)

// Result is the reconciliation of one fuse for one unit.
type Result struct {
	VisualID  string
	Register  string
	FuseGroup string
	FuseName  string
	// Binary is the slice of the unit's register, "" without ITF data.
	Binary string
	Hex    string
	// DFFValue is the database column: the expected value, sort-skip,
	// FLE or N/A.
	DFFValue       string
	Classification Classification
}

// BinaryField renders the unit slice as "b<bits>" or N/A.
func (r Result) BinaryField() string {
	if r.Binary == "" {
		return NotAvailable
	}
	return "b" + r.Binary
}

// HexField renders the unit hex value or N/A.
func (r Result) HexField() string {
	if r.Binary == "" || r.Hex == "" {
		return NotAvailable
	}
	return r.Hex
}

// UnitRow is a breakdown row with the result of every unit.
type UnitRow struct {
	BreakdownRow
	Results []Result
}

// Reconciler classifies fuses of tested units against one QDF.
type Reconciler struct {
	// Units maps visual id to register to binary register string.
	Units     map[string]map[string]string
	VisualIDs []string
	// Expected is nil when no database dump was loaded.
	Expected *ExpectedValues
	FLE      *fle.Set
}

// HasDFF reports whether database values are available.
func (r *Reconciler) HasDFF() bool {
	return r.Expected != nil
}

// Reconcile produces one UnitRow per breakdown row.
func (r *Reconciler) Reconcile(qdf string, rows []BreakdownRow) []UnitRow {
	out := make([]UnitRow, 0, len(rows))
	for _, row := range rows {
		ur := UnitRow{BreakdownRow: row, Results: make([]Result, 0, len(r.VisualIDs))}
		for _, vid := range r.VisualIDs {
			ur.Results = append(ur.Results, r.Fuse(vid, qdf, row))
		}
		out = append(out, ur)
	}
	return out
}

// Fuse reconciles one fuse of one unit.
func (r *Reconciler) Fuse(visualID, qdf string, row BreakdownRow) Result {
	def := row.Definition()
	res := Result{
		VisualID:  visualID,
		Register:  row.Register,
		FuseGroup: def.FuseGroup,
		FuseName:  def.FuseName,
		DFFValue:  NotAvailable,
	}

	if bits, ok := r.Units[visualID][row.Register]; ok {
		res.Binary = def.Extract(bits)
		if res.Binary != "" {
			res.Hex = bitcodec.BinaryToHex(res.Binary)
		}
	}

	qv := row.Value(qdf)
	in := Input{
		QDFHex:   qv.Hex,
		ITFHex:   res.Hex,
		SortSkip: qv.SortSkip(),
		FLE:      r.FLE.Matches(def.FuseGroup, def.FuseName),
	}
	if v, ok := r.Expected.Lookup(visualID, def.FuseGroup, def.FuseName, row.Register); ok {
		in.Expected = &v
		res.DFFValue = v
	}
	switch {
	case in.SortSkip:
		res.DFFValue = SortSkipValue
	case in.FLE && in.Expected == nil:
		res.DFFValue = FLEValue
	}

	res.Classification = Classify(in)
	return res
}

// Summary counts classifications over unit rows.
func Summary(rows []UnitRow) map[Classification]int {
	counts := make(map[Classification]int)
	for _, row := range rows {
		for _, res := range row.Results {
			counts[res.Classification]++
		}
	}
	return counts
}

package recon

import (
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/bitcodec"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusedef"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusemap"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/sspec"
)

// VFHeapUnused is the fuse name whose width is reported as unused heap.
const VFHeapUnused = "VF_Heap_Unused"

// QDFValue is a fuse slice of one QDF pattern.
type QDFValue struct {
	// Bits is the extracted pattern; it may hold m/s/x markers.
	Bits string
	// Hex is the converted value, HexSentinel when Bits is not binary.
	Hex string
}

// BinaryField renders Bits as "b<bits>", or N/A when nothing was extracted.
func (v QDFValue) BinaryField() string {
	if v.Bits == "" {
		return NotAvailable
	}
	return "b" + v.Bits
}

// SortSkip reports whether the slice holds a sort-skip marker.
func (v QDFValue) SortSkip() bool {
	return bitcodec.HasSortBit(v.Bits)
}

// BreakdownRow is one fuse definition of a specified register with its
// slice in every target QDF.
type BreakdownRow struct {
	Register string
	// Def is nil for registers without fuse definitions.
	Def       *fusedef.Row
	BitLength int
	Values    map[string]QDFValue
}

// Definition returns the extraction definition, empty when Def is nil.
func (b BreakdownRow) Definition() fusemap.Definition {
	if b.Def == nil {
		return fusemap.Definition{Register: b.Register}
	}
	return b.Def.Definition()
}

// Value returns the slice for a QDF; absent QDFs yield an N/A value with
// the hex sentinel.
func (b BreakdownRow) Value(qdf string) QDFValue {
	if v, ok := b.Values[qdf]; ok {
		return v
	}
	return QDFValue{Hex: bitcodec.HexSentinel}
}

// BreakdownStats summarises one register in one QDF.
type BreakdownStats struct {
	FuseDefinitions  int
	ValidExtractions int
	ValidHex         int
	FailedHex        int
	TotalBitLength   int
	VFHeapUnusedBits int
	Bits             bitcodec.BitStats
}

func percent(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// ValidExtractionsPercent is the share of definitions that extracted bits.
func (s BreakdownStats) ValidExtractionsPercent() float64 {
	return percent(s.ValidExtractions, s.FuseDefinitions)
}

// ValidHexPercent is the share of definitions with a binary slice.
func (s BreakdownStats) ValidHexPercent() float64 {
	return percent(s.ValidHex, s.FuseDefinitions)
}

// FailedHexPercent is the share of definitions whose slice had no hex form.
func (s BreakdownStats) FailedHexPercent() float64 {
	return percent(s.FailedHex, s.FuseDefinitions)
}

// VFHeapUnusedPercent is the unused heap width relative to the register.
func (s BreakdownStats) VFHeapUnusedPercent() float64 {
	return percent(s.VFHeapUnusedBits, s.Bits.RegisterSize)
}

// Breakdown is the per-fuse view of the specified registers.
type Breakdown struct {
	QDFs []string
	Rows []BreakdownRow
	// Stats is keyed by register, then QDF.
	Stats map[string]map[string]*BreakdownStats
}

// BuildBreakdown slices every specified register by its fuse definitions
// for each target QDF. Registers appear in sorted order, definitions in
// document order.
func BuildBreakdown(spec *sspec.Repository, defs []fusedef.Row, qdfs []string) *Breakdown {
	byRegister := fusedef.ByRegister(defs)
	bd := &Breakdown{QDFs: qdfs, Stats: make(map[string]map[string]*BreakdownStats)}

	for _, register := range spec.Registers() {
		regDefs := byRegister[register]
		if len(regDefs) == 0 {
			row := BreakdownRow{Register: register, Values: make(map[string]QDFValue)}
			for _, qdf := range qdfs {
				row.Values[qdf] = QDFValue{Hex: bitcodec.HexSentinel}
			}
			bd.Rows = append(bd.Rows, row)
			continue
		}

		stats := make(map[string]*BreakdownStats)
		for i := range regDefs {
			def := &regDefs[i]
			row := BreakdownRow{Register: register, Def: def, Values: make(map[string]QDFValue)}
			ranges := def.Ranges()

			for _, qdf := range qdfs {
				rec, err := spec.Lookup(register, qdf)
				if err != nil {
					row.Values[qdf] = QDFValue{Hex: bitcodec.HexSentinel}
					continue
				}

				var v QDFValue
				v.Bits = fusemap.Extract(rec.Bits, ranges)
				v.Hex = bitcodec.BinaryToHex(v.Bits)
				if row.BitLength == 0 {
					row.BitLength = len(v.Bits)
				}
				row.Values[qdf] = v

				st, ok := stats[qdf]
				if !ok {
					bits, _ := bitcodec.Analyze(rec.Bits)
					st = &BreakdownStats{Bits: bits}
					stats[qdf] = st
				}
				st.FuseDefinitions++
				st.TotalBitLength += len(v.Bits)
				if def.FuseName == VFHeapUnused {
					st.VFHeapUnusedBits += len(v.Bits)
				}
				if v.Bits != "" {
					st.ValidExtractions++
				}
				if bitcodec.IsValidHex(v.Hex) {
					st.ValidHex++
				} else {
					st.FailedHex++
				}
			}
			bd.Rows = append(bd.Rows, row)
		}
		bd.Stats[register] = stats
	}
	return bd
}

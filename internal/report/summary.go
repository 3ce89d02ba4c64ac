package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"github.com/OpenTraceLab/OpenTraceFuse/pkg/itf"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/recon"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	badColor   = color.New(color.FgRed, color.Bold)
)

// topMismatches limits the token lists of the summary.
const topMismatches = 10

// Summary collects what a run produced for the console.
type Summary struct {
	Name      string
	Files     []string
	Match     *recon.MatchReport
	DFF       *recon.DFFReport
	Breakdown *recon.Breakdown
	ITF       *itf.Result
	// Units holds the classification counts per QDF.
	Units    map[string]map[recon.Classification]int
	Warnings []string
}

// AddFile records a written report.
func (s *Summary) AddFile(path string) {
	s.Files = append(s.Files, path)
}

// Warn records a skipped stage.
func (s *Summary) Warn(format string, args ...any) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// Print renders the summary.
func (s *Summary) Print(out io.Writer) {
	titleColor.Fprintf(out, "Fuse reconciliation summary: %s\n", s.Name)

	if s.Match != nil {
		s.printMatch(out)
	}
	if s.DFF != nil {
		s.printDFF(out)
	}
	if s.Breakdown != nil {
		s.printBreakdown(out)
	}
	if s.ITF != nil {
		titleColor.Fprintln(out, "\nTest logs")
		fmt.Fprintf(out, "  files: %d, skipped: %d, rows: %d, registers: %d, units: %d\n",
			len(s.ITF.Files), len(s.ITF.Skipped), len(s.ITF.Rows),
			len(s.ITF.FullString), len(s.ITF.VisualIDs()))
	}
	if len(s.Units) > 0 {
		s.printUnits(out)
	}

	if len(s.Warnings) > 0 {
		titleColor.Fprintln(out, "\nWarnings")
		for _, w := range s.Warnings {
			warnColor.Fprintf(out, "  %s\n", w)
		}
	}
	if len(s.Files) > 0 {
		titleColor.Fprintln(out, "\nReports")
		for _, f := range s.Files {
			okColor.Fprintf(out, "  %s\n", f)
		}
	}
}

func (s *Summary) printMatch(out io.Writer) {
	titleColor.Fprintln(out, "\nToken rows vs fuse definitions")
	regs, groups, names := s.Match.Totals()
	total := len(s.Match.Rows)
	fmt.Fprintf(out, "  rows: %d, register matches: %d, fuse group matches: %d, fuse name matches: %d\n",
		total, regs, groups, names)
	for _, t := range s.Match.Tallies {
		line := fmt.Sprintf("  %-20s tokens %5d  register %4d  group %4d  name %4d\n",
			t.Register, t.TotalTokens, t.RegisterMismatches, t.FuseGroupMismatches, t.FuseNameMismatches)
		if t.Mismatches() > 0 {
			badColor.Fprint(out, line)
		} else {
			okColor.Fprint(out, line)
		}
	}
}

func (s *Summary) printDFF(out io.Writer) {
	titleColor.Fprintln(out, "\nDatabase unit data")
	fmt.Fprintf(out, "  rows: %d, units: %d\n", len(s.DFF.Rows), len(s.DFF.VisualIDs))
	for _, t := range s.DFF.Tallies {
		line := fmt.Sprintf("  %-20s tokens %5d  missing %5d  invalid %5d\n",
			t.Register, t.TotalTokens, t.MissingTokens, t.InvalidTokens)
		if t.MissingTokens+t.InvalidTokens > 0 {
			warnColor.Fprint(out, line)
		} else {
			okColor.Fprint(out, line)
		}
	}
	for _, key := range recon.TopTokens(s.DFF.Missing, topMismatches) {
		warnColor.Fprintf(out, "  missing %-40s %d\n", key, s.DFF.Missing[key])
	}
	for _, key := range recon.TopTokens(s.DFF.Invalid, topMismatches) {
		badColor.Fprintf(out, "  invalid %-40s %d\n", key, s.DFF.Invalid[key])
	}
}

func (s *Summary) printBreakdown(out io.Writer) {
	titleColor.Fprintln(out, "\nSpecification breakdown")
	registers := make([]string, 0, len(s.Breakdown.Stats))
	for r := range s.Breakdown.Stats {
		registers = append(registers, r)
	}
	sort.Strings(registers)
	for _, r := range registers {
		for _, qdf := range s.Breakdown.QDFs {
			st, ok := s.Breakdown.Stats[r][qdf]
			if !ok {
				continue
			}
			fmt.Fprintf(out, "  %-12s %-8s fuses %4d  extracted %5.1f%%  hex %5.1f%%  static %d  dynamic %d  sort %d  heap unused %5.1f%%\n",
				r, qdf, st.FuseDefinitions, st.ValidExtractionsPercent(), st.ValidHexPercent(),
				st.Bits.StaticBits, st.Bits.DynamicBits, st.Bits.SortBits, st.VFHeapUnusedPercent())
		}
	}
}

var classificationOrder = []recon.Classification{
	recon.Static, recon.Dynamic, recon.Sort, recon.FLE, recon.Mismatch,
}

func (s *Summary) printUnits(out io.Writer) {
	titleColor.Fprintln(out, "\nUnit status")
	qdfs := make([]string, 0, len(s.Units))
	for q := range s.Units {
		qdfs = append(qdfs, q)
	}
	sort.Strings(qdfs)
	for _, q := range qdfs {
		counts := s.Units[q]
		fmt.Fprintf(out, "  %-8s", q)
		for _, c := range classificationOrder {
			col := okColor
			if c == recon.Mismatch && counts[c] > 0 {
				col = badColor
			}
			col.Fprintf(out, " %s %d", c, counts[c])
		}
		fmt.Fprintln(out)
	}
}

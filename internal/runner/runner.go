// Package runner drives a complete reconciliation run: it loads every
// configured source, runs the checks that the loaded sources allow and
// writes the reports.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/OpenTraceLab/OpenTraceFuse/internal/config"
	"github.com/OpenTraceLab/OpenTraceFuse/internal/report"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fle"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/fusedef"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/itf"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/mtlolf"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/recon"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/sspec"
	"github.com/OpenTraceLab/OpenTraceFuse/pkg/ube"
)

// timestampLayout names ITF reports when no database dump gives a lot.
const timestampLayout = "20060102_150405"

// Runner executes one configured run.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

// New creates a runner for a validated configuration.
func New(cfg *config.Config, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{cfg: cfg, log: log, now: time.Now}
}

// sources holds what was loaded.
type sources struct {
	entries  []ube.Entry
	lookup   *ube.Lookup
	lot      string
	location string
	tokens   []mtlolf.Row
	defs     []fusedef.Row
	spec     *sspec.Repository
	qdfs     []string
	units    *itf.Result
	fle      *fle.Set
}

func (s *sources) empty() bool {
	return len(s.entries) == 0 && len(s.tokens) == 0 && len(s.defs) == 0 &&
		(s.spec == nil || s.spec.Len() == 0) &&
		(s.units == nil || len(s.units.Rows) == 0)
}

// Run loads the sources, writes every report the sources allow and returns
// the summary. It fails with recon.ErrNothingToDo when no source produced
// data.
func (r *Runner) Run(ctx context.Context) (*report.Summary, error) {
	w, err := report.NewWriter(r.cfg.Output.Dir, r.cfg.Output.Name, r.cfg.Output.Sanitize)
	if err != nil {
		return nil, err
	}
	sum := &report.Summary{Name: w.Name(), Units: make(map[string]map[recon.Classification]int)}
	r.log.Info("starting run",
		zap.String("input", r.cfg.Inputs.Dir),
		zap.String("output", w.Dir()),
		zap.String("name", w.Name()))

	src := &sources{}
	r.loadDatabase(src, sum)
	r.loadTokens(src, sum)
	r.loadDefinitions(src, sum)
	if err := r.loadUnits(ctx, src, sum); err != nil {
		return sum, err
	}
	r.loadSpec(src, sum)
	if src.empty() {
		return sum, recon.ErrNothingToDo
	}

	if err := r.writeReports(src, w, sum); err != nil {
		return sum, err
	}
	r.log.Info("run complete", zap.Int("reports", len(sum.Files)))
	return sum, nil
}

// skip records a missing or unreadable source. Missing files are expected
// and logged at debug level.
func (r *Runner) skip(sum *report.Summary, what, path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		r.log.Debug("source not found", zap.String("source", what), zap.String("path", path))
		sum.Warn("%s not found at %s", what, path)
		return
	}
	r.log.Warn("skipping source", zap.String("source", what), zap.String("path", path), zap.Error(err))
	sum.Warn("%s skipped: %v", what, err)
}

func (r *Runner) loadDatabase(src *sources, sum *report.Summary) {
	path := r.cfg.UBEPath()
	if path == "" {
		sum.Warn("no UBE database dump")
		return
	}
	entries, err := ube.ParseFile(path)
	if err != nil {
		r.skip(sum, "UBE dump", path, err)
		return
	}
	src.entries = entries
	src.lookup = ube.NewLookup(entries)
	src.lot, src.location = ube.LotLocation(path)
	r.log.Info("loaded UBE dump",
		zap.String("path", path),
		zap.Int("entries", len(entries)),
		zap.Int("units", len(src.lookup.VisualIDs())))
}

func (r *Runner) loadTokens(src *sources, sum *report.Summary) {
	path := r.cfg.Path(r.cfg.Inputs.MTLOLF)
	rows, err := mtlolf.ParseFile(path)
	if err != nil {
		r.skip(sum, "MTL_OLF", path, err)
		return
	}
	src.tokens = rows
	r.log.Info("loaded token mapping", zap.String("path", path), zap.Int("rows", len(rows)))
}

func (r *Runner) loadDefinitions(src *sources, sum *report.Summary) {
	path := r.cfg.Path(r.cfg.Inputs.FuseDef)
	rows, err := fusedef.ParseFile(path)
	if err != nil {
		r.skip(sum, "fuseDef", path, err)
		return
	}
	src.defs = rows
	r.log.Info("loaded fuse definitions", zap.String("path", path), zap.Int("rows", len(rows)))

	flePath := r.cfg.Path(r.cfg.Inputs.FLE)
	set, err := fle.Load(flePath)
	if err != nil {
		r.skip(sum, "FLE settings", flePath, err)
		return
	}
	src.fle = set
	r.log.Debug("loaded FLE settings", zap.String("path", flePath), zap.Int("names", set.Len()))
}

func (r *Runner) loadUnits(ctx context.Context, src *sources, sum *report.Summary) error {
	dir := r.cfg.ITF.Dir
	if dir == "" {
		return nil
	}
	parser := itf.NewParser(itf.NewTable(r.cfg.ActiveMappings()), r.cfg.ITF.ValueMarker)
	loader := itf.NewLoader(parser, itf.NewFilter(r.cfg.ITF.VisualIDs), r.cfg.ITF.Workers, r.log)
	res, err := loader.LoadDir(ctx, dir)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("runner: load ITF: %w", err)
		}
		r.skip(sum, "ITF directory", dir, err)
		return nil
	}
	src.units = res
	r.log.Info("loaded ITF logs",
		zap.String("dir", dir),
		zap.Int("files", len(res.Files)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("rows", len(res.Rows)),
		zap.Int("registers", len(res.FullString)))
	return nil
}

func (r *Runner) loadSpec(src *sources, sum *report.Summary) {
	path := r.cfg.Path(r.cfg.Inputs.SSpec)
	sel := sspec.ParseSelection(r.cfg.Inputs.QDF)
	parser, err := sspec.NewParser()
	if err != nil {
		r.skip(sum, "sspec", path, err)
		return
	}
	records, err := parser.ParseFile(path, sel)
	if err != nil {
		r.skip(sum, "sspec", path, err)
		return
	}
	repo := sspec.NewRepository()
	repo.Add(records...)
	src.spec = repo
	if sel.All() {
		src.qdfs = repo.QDFs()
	} else {
		src.qdfs = sel.List()
	}
	r.log.Info("loaded sspec",
		zap.String("path", path),
		zap.Int("records", repo.Len()),
		zap.Strings("qdfs", src.qdfs))
}

// recorder returns a function adding written reports to the summary. It
// takes the results of a report.Writer method directly.
func (r *Runner) recorder(sum *report.Summary) func(string, error) error {
	return func(path string, err error) error {
		if err != nil {
			return err
		}
		sum.AddFile(path)
		r.log.Debug("wrote report", zap.String("path", path))
		return nil
	}
}

// writeUnits writes the ITF reports, named after the dump's lot and
// location when one was loaded, else after the current time.
func (r *Runner) writeUnits(src *sources, w *report.Writer, sum *report.Summary) error {
	sum.ITF = src.units
	suffix := r.now().Format(timestampLayout)
	if src.lot != "" {
		suffix = src.lot + "_" + src.location
	}
	add := r.recorder(sum)
	if err := add(w.ITFRows(src.units.Rows, suffix)); err != nil {
		return err
	}
	return add(w.ITFFullString(src.units.FullString, suffix))
}

// RunITF parses the test logs only and writes the ITF reports.
func (r *Runner) RunITF(ctx context.Context) (*report.Summary, error) {
	w, err := report.NewWriter(r.cfg.Output.Dir, r.cfg.Output.Name, r.cfg.Output.Sanitize)
	if err != nil {
		return nil, err
	}
	sum := &report.Summary{Name: w.Name()}

	src := &sources{}
	if r.cfg.Inputs.UBE != "" {
		src.lot, src.location = ube.LotLocation(r.cfg.Inputs.UBE)
	}
	if err := r.loadUnits(ctx, src, sum); err != nil {
		return sum, err
	}
	if src.units == nil || len(src.units.Rows) == 0 {
		return sum, recon.ErrNothingToDo
	}
	if err := r.writeUnits(src, w, sum); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r *Runner) writeReports(src *sources, w *report.Writer, sum *report.Summary) error {
	add := r.recorder(sum)
	if len(src.entries) > 0 {
		if err := add(w.Entries(src.entries, src.lot, src.location)); err != nil {
			return err
		}
	}
	if len(src.tokens) > 0 {
		if err := add(w.Tokens(src.tokens)); err != nil {
			return err
		}
	}
	if len(src.defs) > 0 {
		if err := add(w.Definitions(src.defs)); err != nil {
			return err
		}
	}

	if len(src.tokens) > 0 && len(src.defs) > 0 {
		sum.Match = recon.NewIndex(src.defs).MatchAll(src.tokens)
		if err := add(w.Matches(sum.Match)); err != nil {
			return err
		}
	} else {
		sum.Warn("token/definition match needs both MTL_OLF and fuseDef")
	}

	var expected *recon.ExpectedValues
	if len(src.tokens) > 0 && src.lookup != nil {
		sum.DFF = recon.CheckDFF(src.tokens, src.lookup)
		expected = sum.DFF.Expected()
		if err := add(w.DFF(sum.DFF)); err != nil {
			return err
		}
	}

	if src.units != nil {
		if err := r.writeUnits(src, w, sum); err != nil {
			return err
		}
	}

	if src.spec == nil || len(src.defs) == 0 {
		sum.Warn("breakdown needs both sspec and fuseDef")
		return nil
	}
	sum.Breakdown = recon.BuildBreakdown(src.spec, src.defs, src.qdfs)
	if err := add(w.Breakdown(sum.Breakdown)); err != nil {
		return err
	}

	if src.units == nil || len(src.units.FullString) == 0 {
		return nil
	}
	rec := &recon.Reconciler{
		Units:     itf.UnitRegisters(src.units.FullString),
		VisualIDs: src.units.VisualIDs(),
		Expected:  expected,
		FLE:       src.fle,
	}
	for _, qdf := range src.qdfs {
		rows := rec.Reconcile(qdf, sum.Breakdown.Rows)
		sum.Units[qdf] = recon.Summary(rows)
		if err := add(w.UnitData(qdf, rec.VisualIDs, rows, rec.HasDFF())); err != nil {
			return err
		}
	}
	return nil
}

package itf

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Loader parses every ITF log of a directory.
type Loader struct {
	parser  *Parser
	filter  Filter
	workers int
	log     *zap.Logger
}

// NewLoader creates a loader. workers <= 0 uses GOMAXPROCS.
func NewLoader(parser *Parser, filter Filter, workers int, log *zap.Logger) *Loader {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{parser: parser, filter: filter, workers: workers, log: log}
}

// Result is the outcome of loading a directory.
type Result struct {
	Files      []*File
	Rows       []Row
	FullString []FullString
	Skipped    []string
}

// VisualIDs returns the visual ids with at least one reassembled register,
// sorted.
func (r *Result) VisualIDs() []string {
	seen := make(map[string]struct{})
	for _, fs := range r.FullString {
		seen[fs.VisualID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FindFiles lists the ITF logs of dir (.itf, .txt and .itf.gz), not
// descending into subdirectories.
func FindFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("itf: read dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isITFName(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func isITFName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".itf") ||
		strings.HasSuffix(lower, ".txt") ||
		strings.HasSuffix(lower, ".itf.gz")
}

// ParseFile opens and parses one log, decompressing .gz files in-stream.
func (p *Parser) ParseFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("itf: open: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("itf: gzip %s: %w", filepath.Base(path), err)
		}
		defer zr.Close()
		r = zr
	}
	return p.Parse(r, filepath.Base(path))
}

// LoadDir parses every ITF log under dir concurrently. Files that cannot be
// read are logged and skipped; results keep directory order.
func (l *Loader) LoadDir(ctx context.Context, dir string) (*Result, error) {
	paths, err := FindFiles(dir)
	if err != nil {
		return nil, err
	}
	return l.LoadFiles(ctx, paths)
}

// LoadFiles parses the given logs concurrently.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (*Result, error) {
	files := make([]*File, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(l.workers, len(paths))))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i], errs[i] = l.parser.ParseFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for i, path := range paths {
		if errs[i] != nil {
			l.log.Warn("skipping ITF file", zap.String("file", path), zap.Error(errs[i]))
			res.Skipped = append(res.Skipped, path)
			continue
		}
		f := files[i]
		rows := Rows(f, l.parser.table, l.filter)
		l.log.Debug("parsed ITF file",
			zap.String("file", f.Name),
			zap.Int("units", len(f.Units)),
			zap.Int("rows", len(rows)))
		res.Files = append(res.Files, f)
		res.Rows = append(res.Rows, rows...)
	}
	res.FullString = Reassemble(res.Rows)
	return res, nil
}

package driver

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"markc/internal/buildpipeline"
	"markc/internal/diag"
	"markc/internal/observ"
	"markc/internal/source"
	"markc/internal/trace"
)

// DirResult holds the per-document results of CompileDir in path order.
type DirResult struct {
	Dir     string
	Files   []string // relative to Dir, slash separated
	Results []*Result
}

// Failed counts documents that fail the build.
func (d *DirResult) Failed() int {
	n := 0
	for _, r := range d.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Timing sums the per-document timings.
func (d *DirResult) Timing() observ.Report {
	reports := make([]observ.Report, 0, len(d.Results))
	for _, r := range d.Results {
		reports = append(reports, r.Timing)
	}
	return observ.Sum(reports...)
}

// ListMarkup returns the markup files under dir in sorted order. Hidden
// directories and outDir are skipped.
func ListMarkup(dir string, include func(string) bool, outDir string) ([]string, error) {
	var files []string
	absOut := ""
	if outDir != "" {
		absOut, _ = filepath.Abs(outDir)
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if absOut != "" {
				if abs, _ := filepath.Abs(path); abs == absOut {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if include(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// CompileDir compiles every markup file under dir with up to jobs documents
// in flight. Each document gets private state; results come back in path
// order regardless of completion order.
func (s *Session) CompileDir(ctx context.Context, dir string, jobs int) (*DirResult, error) {
	span := trace.Begin(ctx, trace.ScopeDriver, "compile-dir:"+dir)
	defer span.End("")
	ctx = span.Context(ctx)

	files, err := ListMarkup(dir, s.opts.Config.Includes, s.outDir(dir))
	if err != nil {
		return nil, err
	}
	out := &DirResult{Dir: dir, Files: make([]string, len(files)), Results: make([]*Result, len(files))}
	for i, path := range files {
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		out.Files[i] = filepath.ToSlash(rel)
		buildpipeline.Emit(s.opts.Progress, buildpipeline.Event{File: path, Status: buildpipeline.StatusQueued})
	}
	trace.Point(ctx, trace.ScopeDriver, "listed", strconv.Itoa(len(files)))
	if len(files) == 0 {
		return out, nil
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := s.CompileFile(gctx, path)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				res = s.loadFailure(path, err)
			}
			// индекс i уникален для горутины, мьютекс не нужен
			out.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	span.With("files", strconv.Itoa(len(files)))
	return out, nil
}

// loadFailure turns an I/O error into a failed result so one unreadable file
// does not stop the build.
func (s *Session) loadFailure(path string, err error) *Result {
	fset := source.NewFileSet()
	id := fset.AddVirtual(path, nil)
	bag := diag.NewBag(s.opts.MaxDiagnostics)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: id}, "failed to load file: "+err.Error()))
	buildpipeline.Emit(s.opts.Progress, buildpipeline.Event{File: path, Status: buildpipeline.StatusError, Err: err})
	return &Result{FileSet: fset, File: fset.Get(id), Bag: bag}
}

func (s *Session) outDir(dir string) string {
	out := s.opts.Config.Compile.OutDir
	if out == "" || filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(dir, filepath.FromSlash(out))
}

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"markc/internal/diag"
	"markc/internal/diagfmt"
	"markc/internal/driver"
)

// compileTarget compiles a file or a directory tree. A single file comes back
// as a one-element DirResult.
func compileTarget(ctx context.Context, s *driver.Session, t *target, jobs int) (*driver.DirResult, error) {
	if t.IsDir {
		return s.CompileDir(ctx, t.Dir, jobs)
	}
	res, err := s.CompileFile(ctx, t.Path)
	if err != nil {
		return nil, err
	}
	return &driver.DirResult{
		Dir:     t.Dir,
		Files:   []string{filepath.Base(t.Path)},
		Results: []*driver.Result{res},
	}, nil
}

func printPretty(w io.Writer, out *driver.DirResult, opts diagfmt.PrettyOpts) {
	for _, res := range out.Results {
		if res == nil || res.Bag == nil {
			continue
		}
		diagfmt.Pretty(w, res.Bag, res.FileSet, opts)
	}
}

type summary struct {
	docs, failed, cached, errors, warnings int
}

func summarize(out *driver.DirResult) summary {
	var s summary
	for _, res := range out.Results {
		s.docs++
		if res.Failed() {
			s.failed++
		}
		if res.Cached {
			s.cached++
		}
		s.errors += res.Bag.ErrorCount()
		for _, d := range res.Bag.Items() {
			if d.Severity == diag.SevWarning {
				s.warnings++
			}
		}
	}
	return s
}

func (s summary) print(w io.Writer, verb string) {
	status := color.New(color.FgGreen, color.Bold).Sprint("ok")
	if s.failed > 0 {
		status = color.New(color.FgRed, color.Bold).Sprint("failed")
	}
	fmt.Fprintf(w, "%s: %s %d document(s)", status, verb, s.docs)
	if s.cached > 0 {
		fmt.Fprintf(w, " (%d cached)", s.cached)
	}
	fmt.Fprintf(w, ", %d error(s), %d warning(s)\n", s.errors, s.warnings)
}

// Package driver runs the markc pipeline over documents: parse, two binding
// passes, validation and rewriting, with optional on-disk caching.
package driver

import (
	"context"
	"errors"
	"fmt"

	"markc/internal/binding"
	"markc/internal/buildpipeline"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/observ"
	"markc/internal/platform"
	"markc/internal/project"
	"markc/internal/rewrite"
	"markc/internal/schema"
	"markc/internal/source"
	"markc/internal/trace"
	"markc/internal/validate"
)

// Options control one compilation session.
type Options struct {
	Config           project.Config
	MaxDiagnostics   int
	IgnoreWarnings   bool
	WarningsAsErrors bool
	EnableTimings    bool
	// Cache, when set, skips documents whose content, catalog and settings
	// were compiled before.
	Cache *DiskCache
	// Progress receives per-stage events.
	Progress buildpipeline.ProgressSink
}

// Session owns the catalog and settings shared by every document of a build.
// Per-document state (file set, memo, scopes) is private to each compile, so
// a Session may compile documents concurrently.
type Session struct {
	catalog *schema.Registry
	opts    Options
	target  platform.Target
	key     project.Digest
}

func NewSession(catalog *schema.Registry, opts Options) *Session {
	if opts.Config.Compile.ConnectionAttr == "" {
		opts.Config.Compile.ConnectionAttr = rewrite.DefaultConnectionAttr
	}
	return &Session{
		catalog: catalog,
		opts:    opts,
		target:  opts.Config.Target(),
		key:     project.Combine(catalog.Digest(), opts.Config.Digest(), flagsDigest(opts)),
	}
}

// flagsDigest covers the options that change what a cached entry holds.
func flagsDigest(opts Options) project.Digest {
	var b [2]byte
	if opts.WarningsAsErrors {
		b[0] = 1
	}
	if opts.IgnoreWarnings {
		b[1] = 1
	}
	return source.Sum(b[:])
}

// Key identifies the catalog and settings; part of every cache key.
func (s *Session) Key() project.Digest { return s.key }

// CompileFile loads path from disk and compiles it. Only I/O problems are
// returned as errors; everything about the document itself is in the bag.
func (s *Session) CompileFile(ctx context.Context, path string) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s.compile(ctx, fs, fs.Get(id))
}

// CompileSource compiles an in-memory document.
func (s *Session) CompileSource(ctx context.Context, name string, content []byte) (*Result, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, content)
	return s.compile(ctx, fs, fs.Get(id))
}

type run struct {
	s      *Session
	ctx    context.Context
	res    *Result
	rep    *diag.DedupReporter
	timer  *observ.Timer
	doc    *markup.Document
	pass2  *binding.Result
	memo   *schema.Memo
	layout *rewrite.LayoutError
}

func (s *Session) compile(ctx context.Context, fs *source.FileSet, file *source.File) (*Result, error) {
	span := trace.Begin(ctx, trace.ScopeFile, "compile:"+file.Path)
	ctx = span.Context(ctx)

	r := &run{
		s:   s,
		ctx: ctx,
		res: &Result{FileSet: fs, File: file, Bag: diag.NewBag(s.opts.MaxDiagnostics)},
	}
	r.rep = diag.NewDedupReporter(diag.BagReporter{Bag: r.res.Bag})
	if s.opts.EnableTimings {
		r.timer = observ.NewTimer()
	}

	cacheKey := project.Combine(file.Hash, s.key)
	if s.opts.Cache != nil && file.Flags&source.FileVirtual == 0 {
		var entry CacheEntry
		hit, err := s.opts.Cache.Get(cacheKey, &entry)
		if err == nil && hit && entry.Usable() {
			r.res.Artifact = entry.Artifact
			r.res.Cached = true
			for _, d := range entry.Diagnostics {
				r.res.Bag.Add(d)
			}
			r.finish()
			s.emit(file.Path, buildpipeline.StageEmit, buildpipeline.StatusCached, nil)
			span.With("cached", "true").End("")
			return r.res, nil
		}
	}

	err := r.pipeline()
	r.finish()
	if err != nil {
		s.emit(file.Path, "", buildpipeline.StatusError, err)
		span.End(err.Error())
		return r.res, err
	}
	if r.res.Failed() {
		s.emit(file.Path, "", buildpipeline.StatusError, nil)
	} else {
		s.emit(file.Path, "", buildpipeline.StatusDone, nil)
	}
	if s.opts.Cache != nil && file.Flags&source.FileVirtual == 0 && r.layout == nil {
		// ошибки кэша не должны ронять сборку
		_ = s.opts.Cache.Put(cacheKey, newCacheEntry(r.res))
	}
	span.With("errors", fmt.Sprint(r.res.Bag.ErrorCount())).End("")
	return r.res, nil
}

// stage runs fn inside a timer phase, a trace span and progress events.
func (r *run) stage(st buildpipeline.Stage, fn func() string) {
	path := r.res.File.Path
	r.s.emit(path, st, buildpipeline.StatusWorking, nil)
	span := trace.Begin(r.ctx, trace.ScopePass, string(st))
	idx := r.timer.Begin(string(st))
	note := fn()
	r.timer.End(idx, note)
	span.End(note)
}

func (r *run) pipeline() error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	var parseErr error
	r.stage(buildpipeline.StageParse, func() string {
		r.doc, parseErr = markup.Parse(r.res.File)
		return ""
	})
	if parseErr != nil {
		var se *markup.SyntaxError
		if !errors.As(parseErr, &se) {
			return parseErr
		}
		diag.ReportError(r.rep, se.Code, se.Span, se.Msg).Emit()
		return nil
	}
	r.res.Doc = r.doc

	opts := binding.Options{
		Disabled:       r.s.target.ElementDisabled,
		DisabledAttr:   r.s.target.AttrDisabled,
		ConnectionAttr: r.s.opts.Config.Compile.ConnectionAttr,
	}
	r.stage(buildpipeline.StageBind, func() string {
		first := opts
		first.FirstPass = true
		pass1 := binding.Build(r.doc, r.s.catalog.View(true), diag.NopReporter{}, first)

		r.memo = schema.NewMemo(r.s.catalog)
		r.pass2 = binding.Build(r.doc, r.memo, r.rep, opts)
		diverged := binding.CheckConsistency(pass1.Record(), r.pass2, r.rep)
		return fmt.Sprintf("bindings=%d diverged=%d", len(r.pass2.Bindings), diverged)
	})
	r.res.Binding = r.pass2

	r.stage(buildpipeline.StageValidate, func() string {
		sum := validate.Validate(r.doc, r.pass2, r.memo, r.rep)
		return fmt.Sprintf("errors=%d warnings=%d", sum.Errors, sum.Warnings)
	})

	if r.blocked() {
		return nil
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	var text string
	var plan *rewrite.Plan
	var rwErr error
	r.stage(buildpipeline.StageRewrite, func() string {
		target := r.s.target
		text, plan, rwErr = rewrite.RewriteWithPlan(r.doc, r.pass2, rewrite.Options{
			ConnectionAttr: r.s.opts.Config.Compile.ConnectionAttr,
			Platform:       &target,
		})
		if plan == nil {
			return ""
		}
		return fmt.Sprintf("blanked=%d inserted=%d stripped=%d", plan.Blanked, plan.Inserted, plan.Stripped)
	})
	if rwErr != nil {
		var le *rewrite.LayoutError
		if !errors.As(rwErr, &le) {
			return rwErr
		}
		r.layout = le
		r.res.Bag.Add(le.Diagnostic())
		return nil
	}

	r.stage(buildpipeline.StageEmit, func() string {
		r.res.Artifact = NewArtifact(r.res.File, r.pass2, text)
		return ""
	})
	return nil
}

// blocked reports whether diagnostics forbid rewriting.
func (r *run) blocked() bool {
	bag := r.res.Bag
	return bag.HasErrors() || (r.s.opts.WarningsAsErrors && bag.HasWarnings())
}

func (r *run) finish() {
	bag := r.res.Bag
	if r.s.opts.IgnoreWarnings {
		bag.Filter(func(d diag.Diagnostic) bool { return d.Severity >= diag.SevError })
	}
	bag.Sort()
	if r.timer != nil && !r.res.Cached {
		r.res.Timing = r.timer.Report()
		appendTimingDiagnostic(bag, r.res.File.Path, r.res.Timing)
	}
	r.res.Strict = r.s.opts.WarningsAsErrors
}

func (s *Session) emit(file string, st buildpipeline.Stage, status buildpipeline.Status, err error) {
	buildpipeline.Emit(s.opts.Progress, buildpipeline.Event{File: file, Stage: st, Status: status, Err: err})
}

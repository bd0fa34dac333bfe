package diagfmt

import (
	"markc/internal/diag"
	"markc/internal/source"
)

// fileOf returns the file a span points into, or nil when the span has no
// usable location.
func fileOf(fs *source.FileSet, span source.Span) *source.File {
	if fs == nil || int(span.File) >= fs.Len() {
		return nil
	}
	return fs.Get(span.File)
}

func displayPath(fs *source.FileSet, f *source.File, mode PathMode) string {
	if mode == PathModeRelative {
		return f.FormatPath(mode.flag(), fs.BaseDir())
	}
	return f.FormatPath(mode.flag(), "")
}

// located reports whether d is tied to a place in the document. Timing
// reports are not.
func located(d *diag.Diagnostic) bool {
	return d.Code != diag.ObsTimings
}

package driver

import (
	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/observ"
	"markc/internal/source"
)

// Result is the outcome of compiling one document.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	Doc     *markup.Document // nil after a syntax error
	Binding *binding.Result  // second-pass result; nil after a syntax error
	Bag     *diag.Bag
	// Artifact is set only when the document compiled without errors.
	Artifact *Artifact
	Timing   observ.Report
	Cached   bool
	// Strict is set when warnings count as errors.
	Strict bool
}

// Failed reports whether the document must fail the build.
func (r *Result) Failed() bool {
	if r == nil || r.Bag == nil {
		return true
	}
	if r.Bag.HasErrors() {
		return true
	}
	return r.Strict && r.Bag.HasWarnings()
}

// FirstError returns the first error diagnostic, if any.
func (r *Result) FirstError() (diag.Diagnostic, bool) {
	if r == nil || r.Bag == nil {
		return diag.Diagnostic{}, false
	}
	for _, d := range r.Bag.Items() {
		if d.Severity >= diag.SevError {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

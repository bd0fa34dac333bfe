package binding

import (
	"strings"

	"markc/internal/diag"
)

// Record holds the member chains of the bindings a first pass resolved
// completely, keyed by Binding.Key.
type Record map[string]string

// Record extracts the completed resolutions of r.
func (r *Result) Record() Record {
	rec := make(Record, len(r.Bindings))
	for _, b := range r.Bindings {
		if b.Resolved && b.Err == nil {
			rec[b.Key()] = strings.Join(b.Resolution.Chain, " -> ")
		}
	}
	return rec
}

// CheckConsistency compares a first-pass record against the final result.
// A binding the first pass resolved must resolve to the same member chain in
// the second pass; every divergence is reported and counted.
func CheckConsistency(pass1 Record, pass2 *Result, rep diag.Reporter) int {
	n := 0
	for _, b := range pass2.Bindings {
		if !b.Resolved {
			continue
		}
		before, ok := pass1[b.Key()]
		if !ok {
			continue
		}
		after := strings.Join(b.Resolution.Chain, " -> ")
		if before == after {
			continue
		}
		n++
		if rep != nil {
			diag.ReportError(rep, diag.ResInconsistentPass, b.PathSpan(),
				"path resolved to "+before+" before local types were known, but to "+after).Emit()
		}
	}
	return n
}

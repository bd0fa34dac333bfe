// Package rewrite produces the markup handed to the runtime parser: consumed
// attribute values become spaces, bound elements get connection ids and
// content disabled for the target platform is blanked. Every untouched
// character keeps its line and column.
package rewrite

import (
	"markc/internal/binding"
	"markc/internal/markup"
)

// Rewrite plans and applies all edits for doc. It must only run on a
// document whose validation reported no errors. A *LayoutError aborts the
// file.
func Rewrite(doc *markup.Document, res *binding.Result, opts Options) (string, error) {
	out, _, err := RewriteWithPlan(doc, res, opts)
	return out, err
}

// RewriteWithPlan is Rewrite that also returns the applied plan.
func RewriteWithPlan(doc *markup.Document, res *binding.Result, opts Options) (string, *Plan, error) {
	lines := SplitLines(doc.Text)
	plan, err := NewPlan(lines, doc, res, opts)
	if err != nil {
		return "", nil, err
	}
	plan.Apply(lines)
	return lines.String(), plan, nil
}

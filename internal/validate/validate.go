// Package validate checks a resolved document for scoping violations,
// illegal nesting, event signature and binding mode errors.
//
// The validator is a pure function of the markup tree, the binding result and
// the schema: it walks the tree once, depth first, keeping one set of
// declared names per naming scope, and reports at most one diagnostic per
// offending node.
package validate

import (
	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/schema"
	"markc/internal/source"
)

// Summary counts the diagnostics Validate reported.
type Summary struct {
	Errors   int
	Warnings int
}

func (s Summary) OK() bool { return s.Errors == 0 }

// Validate runs every check over doc and res and reports problems to rep.
func Validate(doc *markup.Document, res *binding.Result, prov schema.Provider, rep diag.Reporter) Summary {
	var sum Summary
	if doc == nil || doc.Root == nil || res == nil {
		return sum
	}
	if rep == nil {
		rep = diag.NopReporter{}
	}
	v := &validator{
		doc:     doc,
		res:     res,
		prov:    prov,
		rep:     &counter{next: rep, sum: &sum},
		phases:  make(map[*markup.Element]*binding.Phase, len(res.Phases)),
		connIDs: make(map[binding.ElementID]*markup.Attribute),
	}
	for _, p := range res.Phases {
		v.phases[p.Element] = p
	}
	v.run()
	return sum
}

type validator struct {
	doc     *markup.Document
	res     *binding.Result
	prov    schema.Provider
	rep     diag.Reporter
	phases  map[*markup.Element]*binding.Phase
	names   []map[string]*markup.Attribute // стек областей имён
	connIDs map[binding.ElementID]*markup.Attribute
}

func (v *validator) run() {
	v.pushNames()
	markup.Walk(v.doc.Root, func(el *markup.Element) bool {
		// элементы, выключенные для платформы, не компилировались
		if !v.res.ScopeOf(el).IsValid() {
			return false
		}
		v.checkNamespaces(el)
		v.checkNames(el)
		v.checkConnectionID(el)
		v.checkDeferred(el)
		if p := v.phases[el]; p != nil {
			v.checkPhase(p)
		}
		for _, b := range v.res.BindingsOf(el) {
			v.checkBinding(b)
		}
		if binding.IsTemplate(el) {
			v.pushNames()
		}
		return true
	}, func(el *markup.Element) {
		if binding.IsTemplate(el) {
			v.popNames()
		}
	})
}

func (v *validator) errorf(code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(v.rep, code, sp, msg)
}

// counter tallies severities on the way to the next reporter.
type counter struct {
	next diag.Reporter
	sum  *Summary
}

func (c *counter) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	switch sev {
	case diag.SevError:
		c.sum.Errors++
	case diag.SevWarning:
		c.sum.Warnings++
	}
	c.next.Report(code, sev, primary, msg, notes)
}

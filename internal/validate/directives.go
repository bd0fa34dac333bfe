package validate

import (
	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/platform"
)

// checkNamespaces rejects conditional namespaces whose condition does not
// parse. Well formed clauses are evaluated by the binding pass.
func (v *validator) checkNamespaces(el *markup.Element) {
	for _, ns := range el.Namespaces {
		if ns.Attr == nil {
			continue
		}
		if ce := platform.CheckConditional(ns.URI); ce != nil {
			v.errorf(diag.ValBadConditionalNS, ns.Attr.SpanAt(ce.Offset, ce.Len),
				"conditional namespace "+ns.Attr.Name.String()+": "+ce.Reason).Emit()
		}
	}
}

// checkConnectionID validates connection ids written into the markup by hand
// or by an earlier pass.
func (v *validator) checkConnectionID(el *markup.Element) {
	name := v.res.ConnectionAttr
	if name == "" {
		name = binding.DefaultConnectionAttr
	}
	a := binding.ConnectionAttrOf(el, name)
	if a == nil {
		return
	}
	id, ok := binding.ParseConnectionID(a.Value)
	if !ok {
		v.errorf(diag.ValBadConnectionID, a.ValueSpan(), name+" must be a positive integer").Emit()
		return
	}
	if prev, dup := v.connIDs[id]; dup {
		v.errorf(diag.ValDuplicateConnectionID, a.ValueSpan(), name+" "+a.Value+" is already used").
			WithNote(prev.ValueSpan(), "first used here").Emit()
		return
	}
	v.connIDs[id] = a
}

package validate

import (
	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/schema"
)

// checkDeferred validates x:Load and x:DeferLoadStrategy placement.
func (v *validator) checkDeferred(el *markup.Element) {
	load := el.LanguageAttr("Load")
	strategy := el.LanguageAttr("DeferLoadStrategy")
	if load == nil && strategy == nil {
		return
	}
	marker := load
	if marker == nil {
		marker = strategy
	}
	switch {
	case load != nil && strategy != nil:
		v.errorf(diag.ValDeferredConflict, strategy.Span(), "x:DeferLoadStrategy cannot be combined with x:Load").
			WithNote(load.Span(), "x:Load set here").Emit()
	case strategy != nil && strategy.Value != "Lazy":
		v.errorf(diag.ValDeferredConflict, strategy.ValueSpan(), "x:DeferLoadStrategy must be Lazy").Emit()
	case binding.ElementName(el) == "":
		v.errorf(diag.ValDeferredMissingName, marker.Span(), "x:"+marker.Name.Local+" requires x:Name on the element").Emit()
	default:
		if where := v.deferredParent(el); where != "" {
			v.errorf(diag.ValDeferredIllegalParent, marker.Span(), "x:"+marker.Name.Local+" is not allowed on "+where).Emit()
		} else if t := v.res.ElementType(el); t != nil && !v.realizable(t) {
			v.errorf(diag.ValDeferredNotUIElement, marker.Span(),
				"x:"+marker.Name.Local+" requires a UIElement or FlyoutBase, "+t.FullName()+" is neither").Emit()
		}
	}
}

// realizable reports whether t can be created on demand. Without the
// framework types in the catalog every type passes.
func (v *validator) realizable(t *schema.Type) bool {
	ui := v.prov.ResolveType("Windows.UI.Xaml.UIElement", "")
	if ui == nil {
		return true
	}
	flyout := v.prov.ResolveType("Windows.UI.Xaml.Controls.Primitives.FlyoutBase", "")
	return schema.Assignable(t, ui) || (flyout != nil && schema.Assignable(t, flyout))
}

// deferredParent describes why el cannot be realized on demand, or returns
// "" when it can.
func (v *validator) deferredParent(el *markup.Element) string {
	if el.Parent == nil {
		return "the document root"
	}
	if binding.IsTemplate(el) {
		return "a template"
	}
	container := el.Parent
	if container.IsPropertyElement() {
		if _, member := container.PropertyOwner(); member == "Resources" {
			return "a resource dictionary item"
		}
		container = container.Parent
	}
	if t := v.res.ElementType(container); t != nil && t.IsDictionary {
		return "a resource dictionary item"
	}
	if binding.IsTemplate(container) {
		return "the root of a template"
	}
	for x := el.Parent; x != nil && !binding.IsTemplate(x); x = x.Parent {
		if binding.HasDeferMarker(x) {
			return "an element inside another deferred element"
		}
	}
	return ""
}

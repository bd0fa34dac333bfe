package validate

import (
	"fmt"
	"sort"

	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/pathexpr"
	"markc/internal/schema"
)

// checkBinding validates one binding or event hookup. Problems the resolver
// already reported are not reported again.
func (v *validator) checkBinding(b *binding.Binding) {
	if v.withoutCodeBehind() {
		if !v.hasClassAttr() {
			v.errorf(diag.ResMissingCodeBehind, b.Attr.Span(), "bindings require x:Class on the root element").Emit()
		}
		return
	}
	if b.NoRoot {
		if scope := v.res.Universe.Scope(b.Scope); scope != nil && scope.Kind == binding.ScopeTemplate {
			v.errorf(diag.ResMissingDataType, b.PathSpan(), "bindings inside a template require x:DataType on the template").
				WithNote(scope.Root.Span(), "template starts here").Emit()
		}
		return
	}
	if b.Err != nil {
		return
	}
	if b.Resolution.Deferred && !v.res.FirstPass {
		v.errorf(diag.ResUnresolvedLocal, b.PathSpan(), "path "+b.Path+" could not be resolved").Emit()
		return
	}
	if v.emptyNested(b) {
		return
	}
	switch b.Kind {
	case binding.BindEvent, binding.BindHandler:
		v.checkEvent(b)
	default:
		v.checkProperty(b)
	}
}

func (v *validator) withoutCodeBehind() bool {
	return v.res.File == nil || v.res.File.DataType == nil
}

func (v *validator) hasClassAttr() bool {
	return v.doc.Root.LanguageAttr("Class") != nil
}

// emptyNested reports an empty call argument or an empty binding nested in an
// option value.
func (v *validator) emptyNested(b *binding.Binding) bool {
	if off, ok := emptyArg(b.Segments); ok {
		v.errorf(diag.ValEmptyNestedPath, b.Attr.SpanAt(b.PathOffset+off, 1), "empty path in function argument").Emit()
		return true
	}
	if b.Ext == nil {
		return false
	}
	names := make([]string, 0, len(b.Ext.Options))
	for name := range b.Ext.Options {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		opt := b.Ext.Options[name]
		ext, ok, err := pathexpr.ParseExtension(opt.Value)
		if !ok || err != nil || ext.Path != "" {
			continue
		}
		v.errorf(diag.ValEmptyNestedPath, b.Attr.SpanAt(opt.Offset, len(opt.Value)), "binding nested in "+name+" has an empty path").Emit()
		return true
	}
	return false
}

func emptyArg(segs []pathexpr.Segment) (int, bool) {
	for _, s := range segs {
		for _, a := range s.Args {
			if a.Empty() {
				return a.Offset, true
			}
			if off, ok := emptyArg(a.Path); ok {
				return off, true
			}
		}
	}
	return 0, false
}

// checkEvent requires exactly one handler overload whose parameters accept
// the event delegate arguments.
func (v *validator) checkEvent(b *binding.Binding) {
	res := b.Resolution
	if !res.MethodGroup {
		v.errorf(diag.ValEventNoCandidate, b.PathSpan(), b.Path+" is not a method").Emit()
		return
	}
	sig := invokeOf(b.TargetMember)
	if sig == nil {
		return
	}
	var compatible []*schema.Member
	var first *schema.Member
	firstBad := -1
	for _, cand := range v.prov.Overloads(res.MethodOwner, res.Member.Name) {
		idx := mismatch(cand.Params, sig.Params)
		if idx < 0 {
			compatible = append(compatible, cand)
			continue
		}
		if first == nil {
			first, firstBad = cand, idx
		}
	}
	switch {
	case len(compatible) == 1:
	case len(compatible) == 0 && first != nil:
		v.errorf(diag.ValEventSignature, b.PathSpan(),
			fmt.Sprintf("%s does not match %s: parameter %d is incompatible", first.Signature(), b.TargetMember.QualifiedName(), firstBad)).Emit()
	case len(compatible) == 0:
		v.errorf(diag.ValEventNoCandidate, b.PathSpan(), "no method "+res.Member.Name+" can handle "+b.TargetMember.QualifiedName()).Emit()
	default:
		rb := v.errorf(diag.ValEventAmbiguous, b.PathSpan(), fmt.Sprintf("%d overloads of %s can handle %s", len(compatible), res.Member.Name, b.TargetMember.QualifiedName()))
		for _, c := range compatible {
			rb.WithNote(b.PathSpan(), "candidate "+c.Signature())
		}
		rb.Emit()
	}
}

func invokeOf(event *schema.Member) *schema.Member {
	if event == nil || event.Type == nil || event.Type.Kind != schema.KindDelegate {
		return nil
	}
	return event.Type.Invoke
}

// mismatch returns the index of the first handler parameter that cannot
// receive the delegate argument, or -1. A parameterless handler matches any
// delegate.
func mismatch(params, args []schema.Param) int {
	if len(params) == 0 {
		return -1
	}
	if len(params) != len(args) {
		return min(len(params), len(args))
	}
	for i := range params {
		if !schema.Assignable(args[i].Type, params[i].Type) {
			return i
		}
	}
	return -1
}

func (v *validator) checkProperty(b *binding.Binding) {
	res := b.Resolution
	if res.MethodGroup {
		v.errorf(diag.ResMethodWithoutCall, b.PathSpan(), "method "+res.Member.QualifiedName()+" must be invoked").Emit()
		return
	}
	if b.Attr.NamespaceURI == markup.NSLanguage {
		// x:Load
		if boolean := v.prov.ResolveType("System.Boolean", ""); res.Type != nil && !convertible(res.Type, boolean) {
			v.errorf(diag.ResTypeMismatch, b.PathSpan(), "x:Load needs a Boolean, got "+res.Type.FullName()).Emit()
		}
		return
	}
	target := b.TargetMember
	if target == nil {
		return
	}
	if target.Kind != schema.MemberProperty {
		v.errorf(diag.ValBindOnNonMember, b.Attr.Span(), target.QualifiedName()+" is not a property").Emit()
		return
	}
	if b.Mode() == pathexpr.ModeTwoWay {
		if !target.IsObservable {
			v.errorf(diag.ValTwoWayNotObservable, b.Attr.Span(), "two-way target "+target.QualifiedName()+" does not notify changes").Emit()
			return
		}
		if !writable(res) {
			v.errorf(diag.ResReadOnlySource, b.PathSpan(), "two-way source "+b.Path+" is not writable").Emit()
			return
		}
		if res.Type != nil && target.Type != nil && !convertible(target.Type, res.Type) {
			v.errorf(diag.ResTypeMismatch, b.PathSpan(), "cannot write "+target.Type.FullName()+" back to "+res.Type.FullName()).Emit()
			return
		}
	}
	if res.Type != nil && target.Type != nil && !convertible(res.Type, target.Type) {
		v.errorf(diag.ResTypeMismatch, b.PathSpan(), "cannot bind "+res.Type.FullName()+" to "+target.QualifiedName()+" of type "+target.Type.FullName()).Emit()
	}
}

func writable(res binding.Resolution) bool {
	m := res.Member
	if m == nil || !m.CanWrite {
		return false
	}
	return m.Kind == schema.MemberProperty || m.Kind == schema.MemberField
}

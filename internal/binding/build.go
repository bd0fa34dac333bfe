package binding

import (
	"errors"
	"fmt"
	"strings"

	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/pathexpr"
	"markc/internal/schema"
	"markc/internal/source"
)

type BindingKind uint8

const (
	// BindProperty is {x:Bind ...} on a property (or x:Load).
	BindProperty BindingKind = iota
	// BindEvent is {x:Bind ...} on an event: the path names a method group.
	BindEvent
	// BindHandler is a plain event hookup, Click="OnClick".
	BindHandler
)

func (k BindingKind) String() string {
	switch k {
	case BindEvent:
		return "event"
	case BindHandler:
		return "handler"
	}
	return "property"
}

// Binding is one consumed binding or event attribute.
type Binding struct {
	Kind    BindingKind
	Attr    *markup.Attribute
	Element *markup.Element
	Scope   ScopeID
	Target  *BoundElement

	TargetType   *schema.Type
	TargetMember *schema.Member

	Ext        *pathexpr.Extension
	Path       string
	PathOffset int // offset of Path in Attr.Value
	Segments   []pathexpr.Segment

	Resolution Resolution
	Resolved   bool
	// NoRoot is set when the path needs a data root the scope lacks.
	NoRoot bool
	Err    error
}

// Mode is the effective binding mode; x:Bind defaults to OneTime.
func (b *Binding) Mode() pathexpr.Mode {
	if b.Ext == nil || b.Ext.Mode == pathexpr.ModeDefault {
		return pathexpr.ModeOneTime
	}
	return b.Ext.Mode
}

// PathSpan returns the source span of the path text.
func (b *Binding) PathSpan() source.Span {
	if len(b.Path) == 0 {
		return b.Attr.ValueSpan()
	}
	return b.Attr.SpanAt(b.PathOffset, len(b.Path))
}

// Key identifies the binding across passes.
func (b *Binding) Key() string {
	return fmt.Sprintf("%d:%s", b.Attr.ValueStart.Offset, b.Attr.Name)
}

// Phase is an x:Phase marker.
type Phase struct {
	Attr    *markup.Attribute
	Element *markup.Element
	Scope   ScopeID
}

type Options struct {
	FirstPass bool
	// Disabled reports elements removed for the current target platform.
	// Their subtrees are not compiled.
	Disabled func(*markup.Element) bool
	// DisabledAttr reports attributes removed for the current target.
	DisabledAttr func(*markup.Attribute) bool
	// ConnectionAttr names the attribute holding user-assigned connection
	// ids; DefaultConnectionAttr when empty.
	ConnectionAttr string
}

// Result is the binding universe of one document for one pass.
type Result struct {
	Doc       *markup.Document
	Universe  *Universe
	File      *Scope
	Bindings  []*Binding
	Phases    []*Phase
	Consumed  []*markup.Attribute
	FirstPass bool
	// ConnectionAttr is the connection id attribute the pass honoured.
	ConnectionAttr string

	scopeOf   map[*markup.Element]ScopeID
	types     map[*markup.Element]*schema.Type
	byElement map[*markup.Element][]*Binding
}

// ScopeOf returns the scope an element belongs to. Template elements belong
// to the enclosing scope; their children to the template scope.
func (r *Result) ScopeOf(el *markup.Element) ScopeID {
	return r.scopeOf[el]
}

// TemplateScope returns the scope created for a template element.
func (r *Result) TemplateScope(el *markup.Element) *Scope {
	for _, s := range r.Universe.Scopes() {
		if s.Kind == ScopeTemplate && s.Root == el {
			return s
		}
	}
	return nil
}

func (r *Result) ElementType(el *markup.Element) *schema.Type {
	return r.types[el]
}

// BindingsOf returns the bindings placed on el in document order.
func (r *Result) BindingsOf(el *markup.Element) []*Binding {
	return r.byElement[el]
}

// IsTemplate reports whether el opens a template scope.
func IsTemplate(el *markup.Element) bool {
	if el.NamespaceURI != markup.NSPresentation {
		return false
	}
	switch el.Name.Local {
	case "DataTemplate", "ControlTemplate", "ItemsPanelTemplate":
		return true
	}
	return false
}

// IsDeferred reports whether el or one of its ancestors is realized on
// demand (x:Load or x:DeferLoadStrategy).
func IsDeferred(el *markup.Element) bool {
	for x := el; x != nil; x = x.Parent {
		if HasDeferMarker(x) {
			return true
		}
	}
	return false
}

// HasDeferMarker reports whether el itself carries x:Load or x:DeferLoadStrategy.
func HasDeferMarker(el *markup.Element) bool {
	return el.LanguageAttr("Load") != nil || el.LanguageAttr("DeferLoadStrategy") != nil
}

type builder struct {
	res  *Result
	prov schema.Provider
	rep  diag.Reporter
	opts Options
	rsv  *Resolver
}

// Build walks doc, creates the file and template scopes, declares names,
// collects bindings, event hookups and phase markers, and resolves every
// path. Problems are reported to rep.
func Build(doc *markup.Document, prov schema.Provider, rep diag.Reporter, opts Options) *Result {
	if rep == nil {
		rep = diag.NopReporter{}
	}
	res := &Result{
		Doc:            doc,
		Universe:       NewUniverse(),
		FirstPass:      opts.FirstPass,
		ConnectionAttr: opts.ConnectionAttr,
		scopeOf:        make(map[*markup.Element]ScopeID),
		types:          make(map[*markup.Element]*schema.Type),
		byElement:      make(map[*markup.Element][]*Binding),
	}
	if res.ConnectionAttr == "" {
		res.ConnectionAttr = DefaultConnectionAttr
	}
	b := &builder{res: res, prov: prov, rep: rep, opts: opts}
	b.rsv = &Resolver{
		Provider:    prov,
		Universe:    res.Universe,
		FirstPass:   opts.FirstPass,
		Deferred:    IsDeferred,
		ElementType: res.ElementType,
	}
	if doc == nil || doc.Root == nil {
		return res
	}
	b.declare()
	b.collect()
	return res
}

func (b *builder) disabled(el *markup.Element) bool {
	return b.opts.Disabled != nil && b.opts.Disabled(el)
}

func (b *builder) report(sev diag.Severity, code diag.Code, sp source.Span, format string, args ...any) {
	diag.NewReportBuilder(b.rep, sev, code, sp, fmt.Sprintf(format, args...)).Emit()
}

// declare creates scopes, records element types and declares names.
func (b *builder) declare() {
	root := b.res.Doc.Root
	u := b.res.Universe

	var dataType *schema.Type
	if cls := root.LanguageAttr("Class"); cls != nil {
		dataType = b.prov.ResolveType(strings.TrimSpace(cls.Value), "")
		if dataType == nil {
			b.report(diag.SevError, diag.ResUnknownType, cls.ValueSpan(), "code-behind type %s not found", cls.Value)
		}
	}
	b.res.File = u.NewScope(ScopeFile, 0, root, dataType)

	stack := []ScopeID{b.res.File.ID}
	markup.Walk(root, func(el *markup.Element) bool {
		if b.disabled(el) {
			return false
		}
		cur := stack[len(stack)-1]
		b.res.scopeOf[el] = cur
		if !el.IsPropertyElement() {
			b.res.types[el] = b.prov.ResolveType(el.Name.Local, el.NamespaceURI)
		}
		if name := ElementName(el); name != "" {
			u.Declare(cur, name, el)
		}
		// заданные в разметке ids резервируются до первой привязки
		if a := ConnectionAttrOf(el, b.res.ConnectionAttr); a != nil {
			if id, ok := ParseConnectionID(a.Value); ok {
				u.Reserve(el, id)
			}
		}
		if IsTemplate(el) {
			s := u.NewScope(ScopeTemplate, cur, el, b.templateDataType(el))
			stack = append(stack, s.ID)
		}
		return true
	}, func(el *markup.Element) {
		if IsTemplate(el) {
			stack = stack[:len(stack)-1]
		}
	})
}

func (b *builder) templateDataType(el *markup.Element) *schema.Type {
	attr := el.LanguageAttr("DataType")
	if attr == nil {
		return nil
	}
	prefix, local, ok := strings.Cut(strings.TrimSpace(attr.Value), ":")
	if !ok {
		prefix, local = "", strings.TrimSpace(attr.Value)
	}
	var t *schema.Type
	if uri, found := el.LookupNamespace(prefix); found {
		t = b.prov.ResolveType(local, uri)
	}
	if t == nil && !ok {
		t = b.prov.ResolveType(local, "")
	}
	if t == nil {
		b.report(diag.SevError, diag.ResUnknownType, attr.ValueSpan(), "data type %s not found", attr.Value)
	}
	return t
}

// collect visits every attribute in document order.
func (b *builder) collect() {
	markup.Walk(b.res.Doc.Root, func(el *markup.Element) bool {
		if b.disabled(el) {
			return false
		}
		for _, attr := range el.Attrs {
			if b.opts.DisabledAttr != nil && b.opts.DisabledAttr(attr) {
				continue
			}
			b.attribute(el, attr)
		}
		return true
	}, nil)
}

func (b *builder) attribute(el *markup.Element, attr *markup.Attribute) {
	if attr.Name.Prefix == "xmlns" || (attr.Name.Prefix == "" && attr.Name.Local == "xmlns") {
		return
	}
	scope := b.res.Universe.Scope(b.res.scopeOf[el])

	if attr.NamespaceURI == markup.NSLanguage {
		switch attr.Name.Local {
		case "Phase":
			b.res.Phases = append(b.res.Phases, &Phase{Attr: attr, Element: el, Scope: scope.ID})
			b.res.Consumed = append(b.res.Consumed, attr)
			return
		case "Load":
			// x:Load="{x:Bind ...}" is a binding; a literal stays in the markup
		default:
			return
		}
	}

	ext, isExt, err := pathexpr.ParseExtension(attr.Value)
	if err != nil {
		var pe *pathexpr.ParseError
		if errors.As(err, &pe) {
			b.report(diag.SevError, pe.Code, attr.SpanAt(pe.Offset, len(pe.Text)), "%s", pe.Reason)
		}
		return
	}

	elType := b.res.types[el]
	target := b.targetMember(el, attr, elType)
	if !isExt {
		if target == nil || target.Kind != schema.MemberEvent || strings.TrimSpace(attr.Value) == "" {
			return
		}
		s, e := trimSpan(attr.Value)
		b.add(&Binding{
			Kind:         BindHandler,
			Attr:         attr,
			Element:      el,
			Scope:        b.res.File.ID,
			TargetType:   elType,
			TargetMember: target,
			Path:         attr.Value[s:e],
			PathOffset:   s,
		})
		return
	}

	bnd := &Binding{
		Kind:         BindProperty,
		Attr:         attr,
		Element:      el,
		Scope:        scope.ID,
		TargetType:   elType,
		TargetMember: target,
		Ext:          ext,
		Path:         ext.Path,
		PathOffset:   ext.PathOffset,
	}
	if target != nil && target.Kind == schema.MemberEvent {
		bnd.Kind = BindEvent
	}
	if target == nil && attr.NamespaceURI != markup.NSLanguage {
		if elType == nil {
			b.report(diag.SevError, diag.ResUnknownType, attr.Span(), "type of element <%s> not found", el.Name)
		} else {
			b.report(diag.SevError, diag.ResUnknownTarget, attr.Span(), "%s has no member %s", elType.FullName(), attr.Name.Local)
		}
	}
	b.add(bnd)
}

// targetMember resolves the member an attribute sets: Name on the element
// type or Owner.Name for attached members.
func (b *builder) targetMember(el *markup.Element, attr *markup.Attribute, elType *schema.Type) *schema.Member {
	if attr.NamespaceURI == markup.NSLanguage {
		return nil
	}
	if owner, name, ok := strings.Cut(attr.Name.Local, "."); ok {
		uri := attr.NamespaceURI
		if attr.Name.Prefix == "" {
			uri, _ = el.LookupNamespace("")
		}
		ot := b.prov.ResolveType(owner, uri)
		if ot == nil {
			return nil
		}
		if m := b.prov.ResolveMember(ot, name); m != nil && m.IsAttachable {
			return m
		}
		return nil
	}
	if elType == nil {
		return nil
	}
	return b.prov.ResolveMember(elType, attr.Name.Local)
}

func (b *builder) add(bnd *Binding) {
	u := b.res.Universe
	scope := u.Scope(bnd.Scope)
	be := u.Bind(bnd.Element, b.res.scopeOf[bnd.Element])
	be.Targets = append(be.Targets, bnd)
	bnd.Target = be
	if IsDeferred(bnd.Element) {
		u.Retain(be)
	}
	b.res.Bindings = append(b.res.Bindings, bnd)
	b.res.byElement[bnd.Element] = append(b.res.byElement[bnd.Element], bnd)
	b.res.Consumed = append(b.res.Consumed, bnd.Attr)
	scope.Bindings = append(scope.Bindings, bnd)

	segs, err := pathexpr.Parse(bnd.Path)
	if err != nil {
		bnd.Err = err
		var pe *pathexpr.ParseError
		if errors.As(err, &pe) {
			b.report(diag.SevError, pe.Code, bnd.Attr.SpanAt(bnd.PathOffset+pe.Offset, len(pe.Text)), "%s", pe.Reason)
		}
		return
	}
	bnd.Segments = segs

	res, err := b.rsv.Resolve(Request{Scope: scope, Segments: segs, Path: bnd.Path, Context: bnd.Element})
	if err != nil {
		bnd.Err = err
		var re *ResolveError
		switch {
		case errors.Is(err, ErrNoDataRoot):
			bnd.NoRoot = true
		case errors.As(err, &re):
			b.report(diag.SevError, re.Code, bnd.Attr.SpanAt(bnd.PathOffset+re.Offset, max(re.End-re.Offset, 1)), "%s", re.Reason)
		}
		return
	}
	bnd.Resolution = res
	bnd.Resolved = !res.Deferred
	if res.Source != nil {
		res.Source.Sources = append(res.Source.Sources, bnd)
	}
	if m := bnd.Mode(); (m == pathexpr.ModeOneWay || m == pathexpr.ModeTwoWay) && res.Leaf.IsValid() {
		scope.Graph.MarkChain(res.Leaf, FlagTracked)
	}
	for _, w := range res.Warnings {
		scope.Warnings = append(scope.Warnings, w)
		b.report(diag.SevWarning, diag.ResSafeNavigation, bnd.PathSpan(), "%s", w)
	}
}

func trimSpan(s string) (int, int) {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n') {
		end--
	}
	return start, end
}

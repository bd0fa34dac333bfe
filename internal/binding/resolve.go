package binding

import (
	"errors"
	"fmt"
	"strings"

	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/pathexpr"
	"markc/internal/schema"
)

// ErrNoDataRoot is returned for paths that start at the data root of a
// scope without a data type (no x:Class, or a template without x:DataType).
var ErrNoDataRoot = errors.New("scope has no data type")

// ResolveError is a path segment that could not be resolved. Offset and End
// are byte offsets into Path.
type ResolveError struct {
	Code   diag.Code
	Path   string
	Offset int
	End    int
	Reason string
}

func (e *ResolveError) Error() string {
	end := min(max(e.End, e.Offset), len(e.Path))
	return fmt.Sprintf("%s: %q at offset %d in %q", e.Reason, e.Path[min(e.Offset, end):end], e.Offset, e.Path)
}

// Request is one path to resolve within a scope.
type Request struct {
	Scope    *Scope
	Segments []pathexpr.Segment
	Path     string
	// Context is the element carrying the binding; namespace prefixes in
	// casts, attached members and static roots resolve against it.
	Context *markup.Element
}

type Resolution struct {
	Root   StepID
	Leaf   StepID
	Source *BoundElement
	// Member is the leaf member; for calls it is the chosen overload.
	Member *schema.Member
	Type   *schema.Type
	// MethodOwner is set for method groups: the type whose overloads apply.
	MethodOwner *schema.Type
	MethodGroup bool
	// Deferred is set when the first pass stopped at a local type whose
	// members are not known yet.
	Deferred bool
	Warnings []string
	// Chain is the resolved member sequence, used for pass comparison.
	Chain []string
}

// Resolver walks parsed paths against the schema and interns the resulting
// steps into the scope graph.
type Resolver struct {
	Provider  schema.Provider
	Universe  *Universe
	FirstPass bool
	// Deferred reports whether an element is realized on demand.
	Deferred func(*markup.Element) bool
	// ElementType returns the type of a markup element.
	ElementType func(*markup.Element) *schema.Type
}

func (r *Resolver) Resolve(req Request) (Resolution, error) {
	w := &walker{r: r, req: req, g: req.Scope.Graph}
	return w.run()
}

type walker struct {
	r       *Resolver
	req     Request
	g       *Graph
	res     Resolution
	cur     StepID
	curType *schema.Type
	static  bool
}

func (w *walker) fail(code diag.Code, seg pathexpr.Segment, format string, args ...any) error {
	return &ResolveError{
		Code:   code,
		Path:   w.req.Path,
		Offset: seg.Offset,
		End:    seg.End,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (w *walker) intern(s Step) StepID {
	if s.Kind.IsRoot() {
		s.Parent = 0
	} else {
		s.Parent = w.cur
	}
	id, _ := w.g.Intern(s)
	return id
}

func (w *walker) run() (Resolution, error) {
	segs := w.req.Segments
	if len(segs) == 0 {
		segs = []pathexpr.Segment{{Kind: pathexpr.SegRoot}}
	}
	i := 0
	if first := segs[0]; first.Kind == pathexpr.SegMember && first.Owner == "" {
		handled, err := w.namedOrStaticRoot(first)
		if err != nil {
			return Resolution{}, err
		}
		if handled {
			i = 1
		}
	}
	if i == 0 {
		dt := w.req.Scope.DataType
		if dt == nil {
			return Resolution{}, ErrNoDataRoot
		}
		w.cur = w.intern(Step{Kind: StepRootData, Type: dt, Declaring: dt})
		w.curType = dt
		w.res.Root = w.cur
	}

	var cast *schema.Type
	for ; i < len(segs); i++ {
		s := segs[i]
		switch s.Kind {
		case pathexpr.SegRoot:
		case pathexpr.SegCast:
			t := w.resolveTypeName(s.Name)
			if t == nil {
				return Resolution{}, w.fail(diag.ResUnknownType, s, "unknown type %s", s.Name)
			}
			cast = t
		case pathexpr.SegMember:
			var call *pathexpr.Segment
			if i+1 < len(segs) && segs[i+1].Kind == pathexpr.SegCall {
				call = &segs[i+1]
			}
			deferred, err := w.member(s, call, i == len(segs)-1)
			if err != nil {
				return Resolution{}, err
			}
			if deferred {
				return w.deferred(), nil
			}
			if call != nil {
				i++
			}
			if cast != nil {
				w.cur = w.intern(Step{Kind: StepCast, Name: cast.FullName(), Declaring: w.curType, Type: cast})
				w.curType = cast
				w.res.Chain = append(w.res.Chain, "(as "+cast.FullName()+")")
				cast = nil
			}
		case pathexpr.SegIndex:
			if w.curType == nil || !w.curType.Indexable() {
				if w.r.FirstPass && schema.HasPending(w.curType) {
					return w.deferred(), nil
				}
				return Resolution{}, w.fail(diag.ResNotIndexable, s, "%s is not indexable", w.curType.FullName())
			}
			elem := w.curType.Element()
			w.cur = w.intern(Step{Kind: StepIndex, Name: s.Name, Declaring: w.curType, Type: elem})
			w.curType = elem
			w.res.Member = nil
			w.res.Chain = append(w.res.Chain, "[]")
		case pathexpr.SegCall:
			return Resolution{}, w.fail(diag.ResNoOverload, s, "value is not callable")
		}
	}
	w.res.Leaf = w.cur
	w.res.Type = w.curType
	return w.res, nil
}

func (w *walker) deferred() Resolution {
	if st := w.g.Get(w.cur); st != nil {
		st.Flags |= FlagDeferred
	}
	w.res.Leaf = w.cur
	w.res.Type = nil
	w.res.Deferred = true
	return w.res
}

// namedOrStaticRoot handles a first segment naming an element or a
// prefix-qualified type. Names take precedence over data members.
func (w *walker) namedOrStaticRoot(seg pathexpr.Segment) (bool, error) {
	scope := w.req.Scope
	if strings.Contains(seg.Name, ":") {
		t := w.resolveTypeName(seg.Name)
		if t == nil {
			return false, w.fail(diag.ResUnknownType, seg, "unknown type %s", seg.Name)
		}
		w.cur = w.intern(Step{Kind: StepRootStatic, Name: t.FullName(), Declaring: t, Type: t})
		w.curType = t
		w.static = true
		w.res.Root = w.cur
		w.res.Chain = append(w.res.Chain, "static "+t.FullName())
		return true, nil
	}
	if _, ok := w.r.Universe.DeclaringScope(scope.ID, seg.Name); !ok {
		if len(w.r.Universe.DeclaredIn(seg.Name)) == 0 || w.isDataMember(seg.Name) {
			return false, nil
		}
		return false, w.fail(diag.ScopeOutOfScope, seg, "element %s is declared in a scope not visible from here", seg.Name)
	}
	be, definer, _ := w.r.Universe.LookupElement(scope.ID, seg.Name)
	var elType *schema.Type
	if w.r.ElementType != nil {
		elType = w.r.ElementType(be.Element)
	}
	var id StepID
	if definer == scope.ID && scope.Kind == ScopeFile && scope.DataType != nil {
		// поле, сгенерированное для x:Name, является членом корня данных
		w.cur = w.intern(Step{Kind: StepRootData, Type: scope.DataType, Declaring: scope.DataType})
		w.res.Root = w.cur
		id = w.intern(Step{Kind: StepMember, Name: seg.Name, Declaring: scope.DataType, Type: elType})
	} else {
		id = w.intern(Step{Kind: StepRootNamedElement, Name: seg.Name, Type: elType})
		w.res.Root = id
	}
	w.cur = id
	w.curType = elType
	w.res.Source = be
	w.res.Chain = append(w.res.Chain, "#"+seg.Name)
	if w.r.Deferred != nil && w.r.Deferred(be.Element) {
		w.g.MarkChain(id, FlagNullGuarded)
		w.r.Universe.Retain(be)
		w.res.Warnings = append(w.res.Warnings, fmt.Sprintf("path through %q is null-guarded: the element is loaded on demand", seg.Name))
	}
	return true, nil
}

// isDataMember reports whether name may still be a member of the scope data
// type. A pending first-pass type may have any member.
func (w *walker) isDataMember(name string) bool {
	dt := w.req.Scope.DataType
	if dt == nil {
		return false
	}
	if w.r.FirstPass && schema.HasPending(dt) {
		return true
	}
	return w.r.Provider.ResolveMember(dt, name) != nil
}

// member resolves one member segment, together with the call segment that
// follows it, if any.
func (w *walker) member(s pathexpr.Segment, call *pathexpr.Segment, last bool) (deferred bool, err error) {
	owner := w.curType
	stepName := s.Name
	var m *schema.Member

	if s.Owner != "" {
		owner = w.resolveTypeName(s.Owner)
		if owner == nil {
			return false, w.fail(diag.ResUnknownType, s, "unknown type %s", s.Owner)
		}
		m = w.r.Provider.ResolveMember(owner, s.Name)
		if m == nil {
			if w.r.FirstPass && schema.HasPending(owner) {
				return true, nil
			}
			return false, w.fail(diag.ResUnknownMember, s, "%s has no member %s", owner.FullName(), s.Name)
		}
		if !m.IsAttachable {
			return false, w.fail(diag.ResNotAttachable, s, "%s is not attachable", m.QualifiedName())
		}
		stepName = "(" + owner.FullName() + "." + s.Name + ")"
	} else {
		if owner == nil {
			return false, w.fail(diag.ResUnknownMember, s, "cannot look up %s on a value of unknown type", s.Name)
		}
		m = w.r.Provider.ResolveMember(owner, s.Name)
		if m == nil {
			if w.r.FirstPass && schema.HasPending(owner) {
				return true, nil
			}
			return false, w.fail(diag.ResUnknownMember, s, "%s has no member %s", owner.FullName(), s.Name)
		}
	}
	if w.static && !m.IsStatic {
		return false, w.fail(diag.ResStaticNotSupported, s, "%s is not static", m.QualifiedName())
	}
	w.static = false

	if m.Kind != schema.MemberMethod {
		if call != nil {
			return false, w.fail(diag.ResNoOverload, *call, "%s is not a method", m.QualifiedName())
		}
		w.cur = w.intern(Step{Kind: StepMember, Name: stepName, Declaring: m.Declaring, Type: m.Type, Member: m})
		w.curType = m.Type
		w.res.Member = m
		w.res.Chain = append(w.res.Chain, m.QualifiedName())
		return false, nil
	}

	if call == nil {
		if !last {
			return false, w.fail(diag.ResMethodWithoutCall, s, "method %s must be invoked", m.QualifiedName())
		}
		w.cur = w.intern(Step{Kind: StepMember, Name: stepName, Declaring: m.Declaring, Member: m, Flags: FlagMethodGroup})
		w.curType = nil
		w.res.Member = m
		w.res.MethodOwner = owner
		w.res.MethodGroup = true
		w.res.Chain = append(w.res.Chain, m.QualifiedName()+"()")
		return false, nil
	}

	chosen, deferred, err := w.overload(owner, s.Name, *call)
	if err != nil || deferred {
		return deferred, err
	}
	w.cur = w.intern(Step{Kind: StepMember, Name: stepName, Declaring: chosen.Declaring, Member: chosen, Flags: FlagMethodGroup})
	texts := make([]string, len(call.Args))
	for i, a := range call.Args {
		texts[i] = a.Text
	}
	w.cur = w.intern(Step{Kind: StepCall, Name: strings.Join(texts, ","), Declaring: chosen.Declaring, Type: chosen.Type, Member: chosen})
	w.curType = chosen.Type
	w.res.Member = chosen
	w.res.Chain = append(w.res.Chain, chosen.Signature())
	return false, nil
}

// overload picks the first overload, most derived first, whose arity matches
// and whose path arguments are assignable to the parameters.
func (w *walker) overload(owner *schema.Type, name string, call pathexpr.Segment) (*schema.Member, bool, error) {
	argTypes := make([]*schema.Type, len(call.Args))
	hasEmpty := false
	for i, a := range call.Args {
		if a.Empty() {
			hasEmpty = true
			continue
		}
		if a.Literal {
			continue
		}
		sub, err := w.r.Resolve(Request{Scope: w.req.Scope, Segments: a.Path, Path: w.req.Path, Context: w.req.Context})
		if err != nil {
			return nil, false, err
		}
		if sub.Deferred {
			return nil, true, nil
		}
		argTypes[i] = sub.Type
	}
	for _, cand := range w.r.Provider.Overloads(owner, name) {
		if len(cand.Params) != len(call.Args) {
			continue
		}
		ok := true
		for i, p := range cand.Params {
			if argTypes[i] != nil && !schema.Assignable(argTypes[i], p.Type) {
				ok = false
				break
			}
		}
		if ok {
			return cand, false, nil
		}
	}
	if w.r.FirstPass && schema.HasPending(owner) {
		return nil, true, nil
	}
	// пустой аргумент проверит валидатор; перегрузку берём любую
	if cands := w.r.Provider.Overloads(owner, name); hasEmpty && len(cands) > 0 {
		return cands[0], false, nil
	}
	return nil, false, w.fail(diag.ResNoOverload, call, "no overload of %s takes these %d arguments", name, len(call.Args))
}

// resolveTypeName resolves "prefix:Name", "Name" against the default
// namespace of the context element, or a full type name.
func (w *walker) resolveTypeName(name string) *schema.Type {
	ctx := w.req.Context
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		prefix, local = "", name
	}
	if ctx != nil {
		if uri, found := ctx.LookupNamespace(prefix); found {
			if t := w.r.Provider.ResolveType(local, uri); t != nil {
				return t
			}
		}
	}
	if ok {
		return nil
	}
	return w.r.Provider.ResolveType(name, "")
}

package schema

// View returns the provider for one resolution pass. The first-pass view
// replaces every local type with a Pending stub that has no members of its
// own; base types that are not local stay visible through the stub. The
// second-pass view is the registry itself.
func (r *Registry) View(firstPass bool) Provider {
	if !firstPass {
		return r
	}
	return &passView{reg: r, stubs: make(map[TypeID]*Type)}
}

type passView struct {
	reg   *Registry
	stubs map[TypeID]*Type
}

func (v *passView) stub(t *Type) *Type {
	if t == nil || !t.IsLocal {
		return t
	}
	if s, ok := v.stubs[t.ID]; ok {
		return s
	}
	s := &Type{
		ID:        t.ID,
		Name:      t.Name,
		Namespace: t.Namespace,
		Kind:      t.Kind,
		IsLocal:   true,
		Pending:   true,
	}
	v.stubs[t.ID] = s
	s.Base = v.stub(t.Base)
	return s
}

func (v *passView) ResolveType(name, namespaceURI string) *Type {
	return v.stub(v.reg.ResolveType(name, namespaceURI))
}

func (v *passView) ResolveMember(t *Type, name string) *Member {
	return v.reg.ResolveMember(t, name)
}

func (v *passView) Overloads(t *Type, name string) []*Member {
	return v.reg.Overloads(t, name)
}

// HasPending reports whether t or one of its bases is a first-pass stub, in
// which case a failed member lookup is not final.
func HasPending(t *Type) bool {
	for x := t; x != nil; x = x.Base {
		if x.Pending {
			return true
		}
	}
	return false
}

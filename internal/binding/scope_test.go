package binding_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"markc/internal/binding"
	"markc/internal/markup"
)

func TestAncestorsInnermostFirst(t *testing.T) {
	u := binding.NewUniverse()
	file := u.NewScope(binding.ScopeFile, 0, nil, nil)
	mid := u.NewScope(binding.ScopeTemplate, file.ID, nil, nil)
	inner := u.NewScope(binding.ScopeTemplate, mid.ID, nil, nil)

	if diff := cmp.Diff([]binding.ScopeID{mid.ID, file.ID}, u.Ancestors(inner.ID)); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
	if got := u.Ancestors(file.ID); len(got) != 0 {
		t.Fatalf("file scope has ancestors %v", got)
	}
	got := u.Ancestors(inner.ID)
	got[0] = 99
	if u.Ancestors(inner.ID)[0] != mid.ID {
		t.Fatalf("Ancestors must return a copy")
	}
}

func TestDeclareKeepsFirst(t *testing.T) {
	u := binding.NewUniverse()
	s := u.NewScope(binding.ScopeFile, 0, nil, nil)
	a, b := &markup.Element{}, &markup.Element{}
	if _, ok := u.Declare(s.ID, "x", a); !ok {
		t.Fatalf("first declaration rejected")
	}
	first, ok := u.Declare(s.ID, "x", b)
	if ok || first != a {
		t.Fatalf("second declaration must lose to the first")
	}
	if len(s.NameOrder) != 1 {
		t.Fatalf("NameOrder = %v", s.NameOrder)
	}
}

func TestLookupElementAcrossScopes(t *testing.T) {
	u := binding.NewUniverse()
	file := u.NewScope(binding.ScopeFile, 0, nil, nil)
	mid := u.NewScope(binding.ScopeTemplate, file.ID, nil, nil)
	inner := u.NewScope(binding.ScopeTemplate, mid.ID, nil, nil)
	sibling := u.NewScope(binding.ScopeTemplate, file.ID, nil, nil)
	el := &markup.Element{}
	u.Declare(file.ID, "header", el)

	be, definer, ok := u.LookupElement(inner.ID, "header")
	if !ok || definer != file.ID {
		t.Fatalf("lookup: ok=%v definer=%d", ok, definer)
	}
	for _, s := range []*binding.Scope{file, mid, inner} {
		if !s.NeedsOuterElement {
			t.Fatalf("scope %d must need outer elements", s.ID)
		}
		if !s.HasBound(be.ID) {
			t.Fatalf("scope %d does not list the element", s.ID)
		}
	}
	if sibling.NeedsOuterElement {
		t.Fatalf("unrelated scope was marked")
	}
	if file.IsOuter(be.ID) || !mid.IsOuter(be.ID) || !inner.IsOuter(be.ID) {
		t.Fatalf("outer bookkeeping wrong")
	}
	if !be.UsedByOtherScopes || !be.Retained {
		t.Fatalf("element flags: %+v", be)
	}

	again, _, _ := u.LookupElement(inner.ID, "header")
	if again != be || len(be.Consumers) != 2 {
		t.Fatalf("repeated lookup must be idempotent, consumers=%v", be.Consumers)
	}
	if _, _, ok := u.LookupElement(inner.ID, "missing"); ok {
		t.Fatalf("missing name found")
	}
	if err := u.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLookupElementLocal(t *testing.T) {
	u := binding.NewUniverse()
	file := u.NewScope(binding.ScopeFile, 0, nil, nil)
	u.Declare(file.ID, "x", &markup.Element{})

	be, definer, ok := u.LookupElement(file.ID, "x")
	if !ok || definer != file.ID {
		t.Fatalf("lookup failed")
	}
	if be.UsedByOtherScopes || file.NeedsOuterElement {
		t.Fatalf("local lookup must not mark cross-scope use")
	}
}

func TestBindIsIdempotent(t *testing.T) {
	u := binding.NewUniverse()
	s := u.NewScope(binding.ScopeFile, 0, nil, nil)
	el := &markup.Element{}
	a := u.Bind(el, s.ID)
	b := u.Bind(el, s.ID)
	if a != b || len(s.Bound) != 1 {
		t.Fatalf("element bound twice")
	}
	c := u.Bind(&markup.Element{}, s.ID)
	if c.ID != a.ID+1 {
		t.Fatalf("connection ids must be dense: %d after %d", c.ID, a.ID)
	}
}

func TestReservedIDsAreKeptAndSkipped(t *testing.T) {
	u := binding.NewUniverse()
	s := u.NewScope(binding.ScopeFile, 0, nil, nil)
	pinned, other := &markup.Element{}, &markup.Element{}
	if _, ok := u.Reserve(pinned, 2); !ok {
		t.Fatalf("reserve failed")
	}
	if holder, ok := u.Reserve(other, 2); ok || holder != pinned {
		t.Fatalf("id 2 reserved twice")
	}
	if _, ok := u.Reserve(other, 0); ok {
		t.Fatalf("zero is not an id")
	}

	first := u.Bind(&markup.Element{}, s.ID)
	second := u.Bind(other, s.ID)
	p := u.Bind(pinned, s.ID)
	if first.ID != 1 || second.ID != 3 || p.ID != 2 || !p.Fixed || second.Fixed {
		t.Fatalf("ids = %d, %d, %d", first.ID, second.ID, p.ID)
	}
	if u.Element(2) != p {
		t.Fatalf("lookup by reserved id failed")
	}
	var got []binding.ElementID
	for _, be := range u.Elements() {
		got = append(got, be.ID)
	}
	if diff := cmp.Diff([]binding.ElementID{1, 2, 3}, got); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if _, ok := u.Reserve(first.Element, 9); ok {
		t.Fatalf("a bound element cannot change its id")
	}
}

func TestParseConnectionID(t *testing.T) {
	cases := map[string]binding.ElementID{"7": 7, " 12 ": 12, "0": 0, "-1": 0, "x": 0, "": 0, "4294967296": 0}
	for in, want := range cases {
		got, ok := binding.ParseConnectionID(in)
		if got != want || ok != (want != 0) {
			t.Fatalf("ParseConnectionID(%q) = %d, %v", in, got, ok)
		}
	}
}

package binding

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"markc/internal/markup"
	"markc/internal/schema"
)

type (
	// ScopeID индексирует Universe.scopes; 0 — невалидный.
	ScopeID uint32
	// ElementID is the connection identifier of a bound element. An id the
	// markup already carries is kept; the rest are assigned monotonically per
	// compilation, skip kept ids and are never reused.
	ElementID uint32
)

func (id ScopeID) IsValid() bool   { return id != 0 }
func (id ElementID) IsValid() bool { return id != 0 }

type ScopeKind uint8

const (
	ScopeFile ScopeKind = iota
	ScopeTemplate
)

func (k ScopeKind) String() string {
	if k == ScopeTemplate {
		return "template"
	}
	return "file"
}

// Scope is a binding universe: the markup root or one template body.
type Scope struct {
	ID       ScopeID
	Kind     ScopeKind
	Parent   ScopeID
	Root     *markup.Element
	DataType *schema.Type
	Graph    *Graph

	// Names maps declared identifiers to their elements; the first
	// declaration of a name wins.
	Names     map[string]*markup.Element
	NameOrder []string

	Bound    []ElementID
	Outer    []ElementID // bound elements sourced from an enclosing scope
	Retained []ElementID

	// NeedsOuterElement is set on every scope between a consumer and the
	// scope defining an element it binds to, both ends included.
	NeedsOuterElement bool

	Bindings []*Binding
	Warnings []string

	ancestors []ScopeID
	bound     map[ElementID]struct{}
	outer     map[ElementID]struct{}
	retained  map[ElementID]struct{}
}

func (s *Scope) HasBound(id ElementID) bool {
	_, ok := s.bound[id]
	return ok
}

func (s *Scope) IsOuter(id ElementID) bool {
	_, ok := s.outer[id]
	return ok
}

func (s *Scope) IsRetained(id ElementID) bool {
	_, ok := s.retained[id]
	return ok
}

func (s *Scope) addBound(id ElementID) {
	if _, ok := s.bound[id]; !ok {
		s.bound[id] = struct{}{}
		s.Bound = append(s.Bound, id)
	}
}

func (s *Scope) addOuter(id ElementID) {
	s.addBound(id)
	if _, ok := s.outer[id]; !ok {
		s.outer[id] = struct{}{}
		s.Outer = append(s.Outer, id)
	}
}

func (s *Scope) addRetained(id ElementID) {
	if _, ok := s.retained[id]; !ok {
		s.retained[id] = struct{}{}
		s.Retained = append(s.Retained, id)
	}
}

// BoundElement is a markup element referenced by a binding, an event hookup
// or a named lookup.
type BoundElement struct {
	ID      ElementID
	Element *markup.Element
	Scope   ScopeID
	Name    string

	// Targets are bindings placed on the element; Sources are bindings whose
	// path starts at it.
	Targets []*Binding
	Sources []*Binding

	UsedByOtherScopes bool
	Consumers         []ScopeID
	Retained          bool
	// Fixed is set when the id came from the markup.
	Fixed bool
}

// Universe owns every scope and bound element of one document.
type Universe struct {
	scopes    []*Scope // index 0 is a sentinel
	elements  []*BoundElement
	byID      map[ElementID]*BoundElement
	byElement map[*markup.Element]*BoundElement
	// ids, которые разметка задала сама; автоматические их обходят
	reserved map[ElementID]*markup.Element
	fixed    map[*markup.Element]ElementID
	last     ElementID
}

func NewUniverse() *Universe {
	return &Universe{
		scopes:    []*Scope{nil},
		byID:      make(map[ElementID]*BoundElement),
		byElement: make(map[*markup.Element]*BoundElement),
		reserved:  make(map[ElementID]*markup.Element),
		fixed:     make(map[*markup.Element]ElementID),
	}
}

// Reserve pins id as the connection id of el. It fails when another element
// holds id already or el was bound before.
func (u *Universe) Reserve(el *markup.Element, id ElementID) (holder *markup.Element, ok bool) {
	if !id.IsValid() {
		return nil, false
	}
	if prev, taken := u.reserved[id]; taken {
		return prev, prev == el
	}
	if _, bound := u.byElement[el]; bound {
		return nil, false
	}
	u.reserved[id] = el
	u.fixed[el] = id
	return el, true
}

func (u *Universe) nextID() ElementID {
	for {
		if u.last == ^ElementID(0) {
			panic(errors.New("element id space exhausted"))
		}
		u.last++
		if _, taken := u.reserved[u.last]; !taken {
			return u.last
		}
	}
}

// NewScope creates a scope nested in parent (0 for the file scope).
func (u *Universe) NewScope(kind ScopeKind, parent ScopeID, root *markup.Element, dataType *schema.Type) *Scope {
	n, err := safecast.Conv[uint32](len(u.scopes))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	s := &Scope{
		ID:       ScopeID(n),
		Kind:     kind,
		Parent:   parent,
		Root:     root,
		DataType: dataType,
		Graph:    NewGraph(),
		Names:    make(map[string]*markup.Element),
		bound:    make(map[ElementID]struct{}),
		outer:    make(map[ElementID]struct{}),
		retained: make(map[ElementID]struct{}),
	}
	if p := u.Scope(parent); p != nil {
		s.ancestors = make([]ScopeID, 0, len(p.ancestors)+1)
		s.ancestors = append(s.ancestors, parent)
		s.ancestors = append(s.ancestors, p.ancestors...)
	}
	u.scopes = append(u.scopes, s)
	return s
}

func (u *Universe) Scope(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(u.scopes) {
		return nil
	}
	return u.scopes[id]
}

// Scopes returns every scope in creation order.
func (u *Universe) Scopes() []*Scope {
	return u.scopes[1:]
}

// Ancestors lists the enclosing scopes of id, innermost first.
func (u *Universe) Ancestors(id ScopeID) []ScopeID {
	s := u.Scope(id)
	if s == nil {
		return nil
	}
	return append([]ScopeID(nil), s.ancestors...)
}

// Declare records name in scope. When the name is already declared the
// first element is kept and returned with ok=false.
func (u *Universe) Declare(id ScopeID, name string, el *markup.Element) (first *markup.Element, ok bool) {
	s := u.Scope(id)
	if prev, exists := s.Names[name]; exists {
		return prev, false
	}
	s.Names[name] = el
	s.NameOrder = append(s.NameOrder, name)
	return el, true
}

// Bind registers el as a bound element of scope. Binding the same element
// again returns the existing record.
func (u *Universe) Bind(el *markup.Element, scope ScopeID) *BoundElement {
	if be, ok := u.byElement[el]; ok {
		return be
	}
	id, ok := u.fixed[el]
	if !ok {
		id = u.nextID()
	}
	be := &BoundElement{ID: id, Element: el, Scope: scope, Name: ElementName(el), Fixed: ok}
	u.elements = append(u.elements, be)
	u.byID[id] = be
	u.byElement[el] = be
	u.Scope(scope).addBound(be.ID)
	return be
}

func (u *Universe) Element(id ElementID) *BoundElement {
	return u.byID[id]
}

// ElementFor returns the bound record of el, if any.
func (u *Universe) ElementFor(el *markup.Element) *BoundElement {
	return u.byElement[el]
}

// Elements returns every bound element ordered by connection id.
func (u *Universe) Elements() []*BoundElement {
	out := append([]*BoundElement(nil), u.elements...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Retain marks be as kept alive across connect/disconnect.
func (u *Universe) Retain(be *BoundElement) {
	be.Retained = true
	u.Scope(be.Scope).addRetained(be.ID)
}

// LookupElement resolves name from scope outward. The innermost scope that
// declares name defines the element. When the definer is an ancestor, the
// definer and every scope on the way are marked NeedsOuterElement, the
// element is marked UsedByOtherScopes, and it is registered as an outer
// bound element of each consuming scope.
func (u *Universe) LookupElement(from ScopeID, name string) (*BoundElement, ScopeID, bool) {
	start := u.Scope(from)
	if start == nil {
		return nil, 0, false
	}
	chain := make([]ScopeID, 0, len(start.ancestors)+1)
	chain = append(chain, from)
	chain = append(chain, start.ancestors...)

	for i, sid := range chain {
		el, ok := u.scopes[sid].Names[name]
		if !ok {
			continue
		}
		be := u.Bind(el, sid)
		if i == 0 {
			return be, sid, true
		}
		be.UsedByOtherScopes = true
		u.Retain(be)
		for _, between := range chain[:i+1] {
			u.scopes[between].NeedsOuterElement = true
		}
		for _, consumer := range chain[:i] {
			u.scopes[consumer].addOuter(be.ID)
			if !containsScope(be.Consumers, consumer) {
				be.Consumers = append(be.Consumers, consumer)
			}
		}
		return be, sid, true
	}
	return nil, 0, false
}

// DeclaringScope returns the scope that declares name visible from scope,
// searching outward, without registering anything.
func (u *Universe) DeclaringScope(from ScopeID, name string) (ScopeID, bool) {
	start := u.Scope(from)
	if start == nil {
		return 0, false
	}
	if _, ok := start.Names[name]; ok {
		return from, true
	}
	for _, sid := range start.ancestors {
		if _, ok := u.scopes[sid].Names[name]; ok {
			return sid, true
		}
	}
	return 0, false
}

// DeclaredIn lists every scope that declares name, visible from anywhere or not.
func (u *Universe) DeclaredIn(name string) []ScopeID {
	var out []ScopeID
	for _, s := range u.Scopes() {
		if _, ok := s.Names[name]; ok {
			out = append(out, s.ID)
		}
	}
	return out
}

func containsScope(list []ScopeID, id ScopeID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}

var (
	errScopeCycle    = errors.New("scope ancestor list is inconsistent")
	errDanglingBound = errors.New("bound element not registered in its defining scope")
)

// Validate checks the structural invariants of the universe.
func (u *Universe) Validate() error {
	for _, s := range u.Scopes() {
		if s.Parent.IsValid() {
			p := u.Scope(s.Parent)
			if p == nil || p.ID >= s.ID || len(s.ancestors) != len(p.ancestors)+1 {
				return fmt.Errorf("scope %d: %w", s.ID, errScopeCycle)
			}
		}
		for i := 1; i < len(s.Graph.steps); i++ {
			st := &s.Graph.steps[i]
			if st.Parent.IsValid() && st.Parent >= st.ID {
				return fmt.Errorf("scope %d step %d: parent created after child", s.ID, st.ID)
			}
			if id := s.Graph.byKey[st.Key]; id != st.ID {
				return fmt.Errorf("scope %d step %d: key %q maps to %d", s.ID, st.ID, st.Key, id)
			}
		}
	}
	for _, be := range u.Elements() {
		if !u.Scope(be.Scope).HasBound(be.ID) {
			return fmt.Errorf("element %d: %w", be.ID, errDanglingBound)
		}
		for _, c := range be.Consumers {
			if !u.Scope(c).IsOuter(be.ID) {
				return fmt.Errorf("element %d consumer %d: %w", be.ID, c, errDanglingBound)
			}
		}
	}
	return nil
}

// ElementName returns the identifier declared by x:Name, or the Name alias.
func ElementName(el *markup.Element) string {
	if a := el.LanguageAttr("Name"); a != nil {
		return a.Value
	}
	if a := el.Attr("", "Name"); a != nil {
		return a.Value
	}
	return ""
}

// DefaultConnectionAttr is the attribute that carries connection ids.
const DefaultConnectionAttr = "x:ConnectionId"

// ParseConnectionID reads a connection id written in markup. Only positive
// decimal integers are ids.
func ParseConnectionID(value string) (ElementID, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(value), 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return ElementID(n), true
}

// ConnectionAttrOf returns the connection id attribute of el, if any.
func ConnectionAttrOf(el *markup.Element, name string) *markup.Attribute {
	for _, a := range el.Attrs {
		if a.Name.String() == name {
			return a
		}
	}
	return nil
}

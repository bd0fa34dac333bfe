package binding

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"markc/internal/schema"
)

// StepID индексирует Graph.steps; 0 — невалидный.
type StepID uint32

func (id StepID) IsValid() bool { return id != 0 }

type StepKind uint8

const (
	StepRootData StepKind = iota
	StepRootNamedElement
	StepRootStatic
	StepMember
	StepCall
	StepIndex
	StepCast
)

func (k StepKind) String() string {
	switch k {
	case StepRootData:
		return "RootData"
	case StepRootNamedElement:
		return "RootNamedElement"
	case StepRootStatic:
		return "RootStatic"
	case StepMember:
		return "Member"
	case StepCall:
		return "Call"
	case StepIndex:
		return "Index"
	case StepCast:
		return "Cast"
	}
	return "Unknown"
}

func (k StepKind) IsRoot() bool {
	return k <= StepRootStatic
}

type StepFlags uint8

const (
	// FlagTracked marks steps observed for change notification.
	FlagTracked StepFlags = 1 << iota
	// FlagDeferred marks a step whose children could not be resolved in the
	// first pass.
	FlagDeferred
	// FlagMethodGroup marks a method referenced without invocation (event
	// handler bindings).
	FlagMethodGroup
	// FlagNullGuarded marks steps rooted at an element that may not be
	// realized yet.
	FlagNullGuarded
)

// Step is a resolved, scope-unique node of a binding path graph.
type Step struct {
	ID       StepID
	Kind     StepKind
	Name     string
	Parent   StepID
	Children []StepID

	Declaring *schema.Type
	Type      *schema.Type
	Member    *schema.Member

	// Key is the canonical code name; the graph dictionary is keyed by it.
	Key string
	// Ident is Key reduced to an identifier, unique within the graph.
	Ident string
	Flags StepFlags
}

func (s *Step) Has(f StepFlags) bool {
	return s.Flags&f != 0
}

// Graph is the per-scope path step arena.
type Graph struct {
	steps  []Step // index 0 is a sentinel
	byKey  map[string]StepID
	idents map[string]StepID
	roots  []StepID
}

func NewGraph() *Graph {
	return &Graph{
		steps:  make([]Step, 1, 16),
		byKey:  make(map[string]StepID),
		idents: make(map[string]StepID),
	}
}

func (g *Graph) Len() int {
	return len(g.steps) - 1
}

// Get returns the step for id, or nil.
func (g *Graph) Get(id StepID) *Step {
	if !id.IsValid() || int(id) >= len(g.steps) {
		return nil
	}
	return &g.steps[id]
}

// Lookup finds a step by canonical key.
func (g *Graph) Lookup(key string) (StepID, bool) {
	id, ok := g.byKey[key]
	return id, ok
}

func (g *Graph) Roots() []StepID {
	return g.roots
}

// Steps returns every step in creation order.
func (g *Graph) Steps() []*Step {
	out := make([]*Step, 0, g.Len())
	for i := 1; i < len(g.steps); i++ {
		out = append(out, &g.steps[i])
	}
	return out
}

// Chain returns the steps from the root down to id.
func (g *Graph) Chain(id StepID) []StepID {
	var out []StepID
	for cur := id; cur.IsValid(); cur = g.steps[cur].Parent {
		out = append(out, cur)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Intern returns the existing step equal to s (same parent, kind, name and
// declaring type) or adds s. Only a newly added step is appended to its
// parent's children.
func (g *Graph) Intern(s Step) (StepID, bool) {
	key := g.keyOf(s)
	if id, ok := g.byKey[key]; ok {
		existing := &g.steps[id]
		if existing.Declaring.FullName() == s.Declaring.FullName() {
			return id, false
		}
		// тот же текст, другой объявляющий тип — отдельный узел
		key += "@" + s.Declaring.FullName()
		if id, ok := g.byKey[key]; ok {
			return id, false
		}
	}

	n, err := safecast.Conv[uint32](len(g.steps))
	if err != nil {
		panic(fmt.Errorf("step arena overflow: %w", err))
	}
	id := StepID(n)
	s.ID = id
	s.Key = key
	s.Children = nil
	s.Ident = g.uniqueIdent(key, id)
	g.steps = append(g.steps, s)
	g.byKey[key] = id
	if s.Parent.IsValid() {
		parent := &g.steps[s.Parent]
		parent.Children = append(parent.Children, id)
	} else {
		g.roots = append(g.roots, id)
	}
	return id, true
}

func (g *Graph) keyOf(s Step) string {
	var parent string
	if p := g.Get(s.Parent); p != nil {
		parent = p.Key
	}
	switch s.Kind {
	case StepRootData:
		return "$data"
	case StepRootNamedElement:
		return "$elem:" + s.Name
	case StepRootStatic:
		return "$static:" + s.Name
	case StepCall:
		return parent + "(" + s.Name + ")"
	case StepIndex:
		return parent + "[" + s.Name + "]"
	case StepCast:
		return parent + ".(as " + s.Name + ")"
	}
	return parent + "." + s.Name
}

func (g *Graph) uniqueIdent(key string, id StepID) string {
	var b strings.Builder
	underscore := false
	for _, r := range key {
		ok := r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if !ok {
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
				underscore = true
			}
			continue
		}
		b.WriteRune(r)
		underscore = r == '_'
	}
	ident := strings.TrimSuffix(b.String(), "_")
	if ident == "" {
		ident = "step"
	}
	base := ident
	for i := 2; ; i++ {
		if _, taken := g.idents[ident]; !taken {
			break
		}
		ident = fmt.Sprintf("%s_%d", base, i)
	}
	g.idents[ident] = id
	return ident
}

// MarkChain sets flag on every step from the root down to id.
func (g *Graph) MarkChain(id StepID, flag StepFlags) {
	for cur := id; cur.IsValid(); cur = g.steps[cur].Parent {
		g.steps[cur].Flags |= flag
	}
}

package testkit

import (
	"fmt"

	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
)

// CheckGraphInvariants runs the structural checks on one scope graph:
// 1) every child points back at its parent and is listed once
// 2) no two steps share (parent, kind, name, declaring type)
// 3) roots have no parent, non-roots have one
func CheckGraphInvariants(g *binding.Graph) error {
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	type identity struct {
		parent    binding.StepID
		kind      binding.StepKind
		name      string
		declaring string
	}
	seen := make(map[identity]binding.StepID, g.Len())
	for _, st := range g.Steps() {
		id := identity{st.Parent, st.Kind, st.Name, st.Declaring.FullName()}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("steps %d and %d are structurally equal (%s %q)", prev, st.ID, st.Kind, st.Name)
		}
		seen[id] = st.ID

		if st.Kind.IsRoot() == st.Parent.IsValid() {
			return fmt.Errorf("step %d (%s) has parent %d", st.ID, st.Kind, st.Parent)
		}
		children := make(map[binding.StepID]bool, len(st.Children))
		for _, c := range st.Children {
			if children[c] {
				return fmt.Errorf("step %d lists child %d twice", st.ID, c)
			}
			children[c] = true
			child := g.Get(c)
			if child == nil || child.Parent != st.ID {
				return fmt.Errorf("child %d of step %d does not point back", c, st.ID)
			}
		}
	}
	return nil
}

// CheckUniverseInvariants validates every scope graph and the universe
// bookkeeping, and that connection ids are unique and increasing.
func CheckUniverseInvariants(u *binding.Universe) error {
	if err := u.Validate(); err != nil {
		return err
	}
	for _, s := range u.Scopes() {
		if err := CheckGraphInvariants(s.Graph); err != nil {
			return fmt.Errorf("scope %d: %w", s.ID, err)
		}
	}
	var prev binding.ElementID
	for i, be := range u.Elements() {
		if be.ID <= prev {
			return fmt.Errorf("element #%d has connection id %d after %d", i+1, be.ID, prev)
		}
		if u.Element(be.ID) != be {
			return fmt.Errorf("connection id %d does not look up its element", be.ID)
		}
		prev = be.ID
	}
	return nil
}

// Compile parses text and runs one binding pass against the test catalog.
func Compile(text string, firstPass bool) (*binding.Result, *diag.Bag, error) {
	doc, err := markup.ParseString("Test.xaml", text)
	if err != nil {
		return nil, nil, err
	}
	bag := diag.NewBag(0)
	reg := MustRegistry()
	res := binding.Build(doc, reg.View(firstPass), diag.BagReporter{Bag: bag}, binding.Options{FirstPass: firstPass})
	return res, bag, nil
}

// Page wraps body in a page root with the usual namespace declarations and
// x:Class="App.MainPage".
func Page(body string) string {
	return `<Page x:Class="App.MainPage"
      xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
      xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
      xmlns:local="using:App">
` + body + `
</Page>
`
}

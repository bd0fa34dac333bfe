package binding_test

import (
	"testing"

	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/testkit"
)

func mustCompile(t *testing.T, body string, firstPass bool) (*binding.Result, *diag.Bag) {
	t.Helper()
	res, bag, err := testkit.Compile(testkit.Page(body), firstPass)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if err := testkit.CheckUniverseInvariants(res.Universe); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	return res, bag
}

func requireClean(t *testing.T, bag *diag.Bag) {
	t.Helper()
	for _, d := range bag.Items() {
		t.Errorf("unexpected %s %s: %s", d.Severity, d.Code.ID(), d.Message)
	}
	if bag.Len() > 0 {
		t.FailNow()
	}
}

func codesOf(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestSharedPrefixIsDeduplicated(t *testing.T) {
	res, bag := mustCompile(t, `
  <StackPanel>
    <TextBlock Text="{x:Bind ViewModel.Person.Name}"/>
    <TextBlock Text="{x:Bind ViewModel.Person.Address}"/>
  </StackPanel>`, false)
	requireClean(t, bag)

	g := res.File.Graph
	if g.Len() != 5 {
		t.Fatalf("expected 5 steps (root, ViewModel, Person, Name, Address), got %d", g.Len())
	}
	vmID, ok := g.Lookup("$data.ViewModel")
	if !ok {
		t.Fatalf("ViewModel step missing")
	}
	if n := len(g.Get(vmID).Children); n != 1 {
		t.Fatalf("ViewModel must have one child, got %d", n)
	}
	personID, ok := g.Lookup("$data.ViewModel.Person")
	if !ok {
		t.Fatalf("Person step missing")
	}
	person := g.Get(personID)
	if len(person.Children) != 2 {
		t.Fatalf("Person must have two children, got %d", len(person.Children))
	}
	if g.Get(person.Children[0]).Name != "Name" || g.Get(person.Children[1]).Name != "Address" {
		t.Fatalf("children out of order")
	}
	if res.Bindings[0].Resolution.Leaf == res.Bindings[1].Resolution.Leaf {
		t.Fatalf("distinct leaves expected")
	}
}

func TestInternIsIdempotent(t *testing.T) {
	g := binding.NewGraph()
	root, created := g.Intern(binding.Step{Kind: binding.StepRootData})
	if !created {
		t.Fatalf("first intern must create")
	}
	a1, _ := g.Intern(binding.Step{Kind: binding.StepMember, Name: "A", Parent: root})
	a2, created := g.Intern(binding.Step{Kind: binding.StepMember, Name: "A", Parent: root})
	if a1 != a2 || created {
		t.Fatalf("equal steps must be shared: %d vs %d", a1, a2)
	}
	if n := len(g.Get(root).Children); n != 1 {
		t.Fatalf("duplicate child appended: %d children", n)
	}
	idx, _ := g.Intern(binding.Step{Kind: binding.StepIndex, Name: "0", Parent: a1})
	call, _ := g.Intern(binding.Step{Kind: binding.StepCall, Name: "0", Parent: a1})
	if idx == call {
		t.Fatalf("index and call with equal text must differ")
	}
	if got := g.Chain(idx); len(got) != 3 || got[0] != root || got[2] != idx {
		t.Fatalf("chain = %v", got)
	}
	if err := testkit.CheckGraphInvariants(g); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestIdentsAreUnique(t *testing.T) {
	g := binding.NewGraph()
	root, _ := g.Intern(binding.Step{Kind: binding.StepRootData})
	a, _ := g.Intern(binding.Step{Kind: binding.StepMember, Name: "A_B", Parent: root})
	b, _ := g.Intern(binding.Step{Kind: binding.StepMember, Name: "A", Parent: root})
	c, _ := g.Intern(binding.Step{Kind: binding.StepMember, Name: "B", Parent: b})
	if g.Get(a).Ident == g.Get(c).Ident {
		t.Fatalf("idents collide: %q", g.Get(a).Ident)
	}
}

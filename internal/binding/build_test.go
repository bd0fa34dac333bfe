package binding_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/schema"
	"markc/internal/testkit"
)

func TestTemplateBindsToOuterElement(t *testing.T) {
	res, bag := mustCompile(t, `
  <StackPanel>
    <TextBlock x:Name="header" Text="People"/>
    <ListView ItemsSource="{x:Bind ViewModel.Items}">
      <ListView.ItemTemplate>
        <DataTemplate x:DataType="local:Person">
          <StackPanel>
            <TextBlock Text="{x:Bind Name}"/>
            <TextBlock Text="{x:Bind header.Text}"/>
          </StackPanel>
        </DataTemplate>
      </ListView.ItemTemplate>
    </ListView>
  </StackPanel>`, false)
	requireClean(t, bag)

	scopes := res.Universe.Scopes()
	if len(scopes) != 2 {
		t.Fatalf("expected file and template scopes, got %d", len(scopes))
	}
	file, tmpl := scopes[0], scopes[1]
	if tmpl.Kind != binding.ScopeTemplate || tmpl.Parent != file.ID {
		t.Fatalf("template scope not nested in file scope")
	}
	if tmpl.DataType.FullName() != "App.Person" {
		t.Fatalf("template data type = %s", tmpl.DataType.FullName())
	}
	if !file.NeedsOuterElement || !tmpl.NeedsOuterElement {
		t.Fatalf("NeedsOuterElement: file=%v template=%v", file.NeedsOuterElement, tmpl.NeedsOuterElement)
	}

	var header *binding.BoundElement
	for _, be := range res.Universe.Elements() {
		if be.Name == "header" {
			header = be
		}
	}
	if header == nil {
		t.Fatalf("header was not bound")
	}
	if header.Scope != file.ID || !header.UsedByOtherScopes {
		t.Fatalf("header: scope=%d used=%v", header.Scope, header.UsedByOtherScopes)
	}
	if !file.HasBound(header.ID) || !tmpl.HasBound(header.ID) || !tmpl.IsOuter(header.ID) {
		t.Fatalf("header must be bound in both scopes and outer in the template")
	}
	if _, ok := tmpl.Graph.Lookup("$elem:header.Text"); !ok {
		t.Fatalf("template graph lacks the named-element chain")
	}
	if _, ok := tmpl.Graph.Lookup("$data.Name"); !ok {
		t.Fatalf("template graph lacks the data chain")
	}
	if _, ok := file.Graph.Lookup("$elem:header"); ok {
		t.Fatalf("outer element chain leaked into the file graph")
	}
	if len(header.Sources) != 1 {
		t.Fatalf("header sources = %d", len(header.Sources))
	}
}

func TestFileScopeNameIsDataMember(t *testing.T) {
	res, bag := mustCompile(t, `
  <StackPanel>
    <TextBox x:Name="input"/>
    <TextBlock Text="{x:Bind input.Text, Mode=OneWay}"/>
  </StackPanel>`, false)
	requireClean(t, bag)

	g := res.File.Graph
	id, ok := g.Lookup("$data.input.Text")
	if !ok {
		t.Fatalf("keys: %v", stepKeys(g))
	}
	for _, sid := range g.Chain(id) {
		if !g.Get(sid).Has(binding.FlagTracked) {
			t.Fatalf("step %s is not tracked", g.Get(sid).Key)
		}
	}
	nameStep := g.Get(g.Get(id).Parent)
	if nameStep.Kind != binding.StepMember || nameStep.Member != nil {
		t.Fatalf("named element step = %+v", nameStep)
	}
	if nameStep.Type.FullName() != "Windows.UI.Xaml.Controls.TextBox" {
		t.Fatalf("named element type = %s", nameStep.Type.FullName())
	}
}

func TestOneTimeBindingIsNotTracked(t *testing.T) {
	res, bag := mustCompile(t, `<TextBlock Text="{x:Bind Title}"/>`, false)
	requireClean(t, bag)
	b := res.Bindings[0]
	if b.Mode().String() != "OneTime" {
		t.Fatalf("default mode = %s", b.Mode())
	}
	if res.File.Graph.Get(b.Resolution.Leaf).Has(binding.FlagTracked) {
		t.Fatalf("one-time leaf must not be tracked")
	}
}

func TestUnknownMemberIsPositioned(t *testing.T) {
	text := testkit.Page(`<TextBlock Text="{x:Bind ViewModel.Persn.Name}"/>`)
	res, bag, err := testkit.Compile(text, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]diag.Code{diag.ResUnknownMember}, codesOf(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	d := bag.Items()[0]
	want := uint32(strings.Index(text, "Persn"))
	if d.Primary.Start != want || d.Primary.End != want+5 {
		t.Fatalf("span = %d..%d, want %d..%d", d.Primary.Start, d.Primary.End, want, want+5)
	}
	var re *binding.ResolveError
	if !errors.As(res.Bindings[0].Err, &re) || re.Offset != len("ViewModel.") {
		t.Fatalf("resolve error = %v", res.Bindings[0].Err)
	}
}

func TestMethodWithoutCallInMiddle(t *testing.T) {
	_, bag := mustCompile(t, `<TextBlock Text="{x:Bind Format.Length}"/>`, false)
	if diff := cmp.Diff([]diag.Code{diag.ResMethodWithoutCall}, codesOf(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestFunctionCallPicksOverload(t *testing.T) {
	res, bag := mustCompile(t, `<TextBlock Text="{x:Bind Format(ViewModel.Caption)}"/>`, false)
	requireClean(t, bag)
	b := res.Bindings[0]
	if b.Resolution.Member == nil || b.Resolution.Member.Name != "Format" {
		t.Fatalf("member = %v", b.Resolution.Member)
	}
	if b.Resolution.Type.FullName() != "System.String" {
		t.Fatalf("call type = %s", b.Resolution.Type.FullName())
	}
	leaf := res.File.Graph.Get(b.Resolution.Leaf)
	if leaf.Kind != binding.StepCall {
		t.Fatalf("leaf kind = %s", leaf.Kind)
	}
	if _, ok := res.File.Graph.Lookup("$data.ViewModel.Caption"); !ok {
		t.Fatalf("argument path was not interned")
	}
}

func TestNoOverloadForArity(t *testing.T) {
	_, bag := mustCompile(t, `<TextBlock Text="{x:Bind Format(Title, Title)}"/>`, false)
	if diff := cmp.Diff([]diag.Code{diag.ResNoOverload}, codesOf(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestCastAndIndex(t *testing.T) {
	res, bag := mustCompile(t, `
  <StackPanel>
    <TextBlock Text="{x:Bind ViewModel.Items[0].Name}"/>
    <TextBlock Text="{x:Bind (local:Person)Tag.Name}"/>
  </StackPanel>`, false)
	requireClean(t, bag)
	g := res.File.Graph
	if _, ok := g.Lookup("$data.ViewModel.Items[0].Name"); !ok {
		t.Fatalf("keys: %v", stepKeys(g))
	}
	cast := res.Bindings[1].Resolution.Chain
	if diff := cmp.Diff([]string{"App.MainPage.Tag", "(as App.Person)", "App.Person.Name"}, cast); diff != "" {
		t.Fatalf("cast chain (-want +got):\n%s", diff)
	}
}

func TestEventHookups(t *testing.T) {
	res, bag := mustCompile(t, `
  <StackPanel>
    <Button Click="OnClick"/>
    <TextBox TextChanged="{x:Bind OnTyped}"/>
  </StackPanel>`, false)
	requireClean(t, bag)
	if len(res.Bindings) != 2 {
		t.Fatalf("bindings = %d", len(res.Bindings))
	}
	h, e := res.Bindings[0], res.Bindings[1]
	if h.Kind != binding.BindHandler || e.Kind != binding.BindEvent {
		t.Fatalf("kinds = %s, %s", h.Kind, e.Kind)
	}
	for _, b := range res.Bindings {
		if !b.Resolution.MethodGroup || b.Resolution.MethodOwner.FullName() != "App.MainPage" {
			t.Fatalf("%s: not a method group of the page", b.Path)
		}
		if b.TargetMember == nil || b.TargetMember.Kind != schema.MemberEvent {
			t.Fatalf("%s: target is not an event", b.Path)
		}
	}
}

func TestSafeNavigationIntoDeferredElement(t *testing.T) {
	res, bag := mustCompile(t, `
  <StackPanel>
    <StackPanel x:Load="False">
      <TextBlock x:Name="lazy" Text="later"/>
    </StackPanel>
    <TextBlock Text="{x:Bind lazy.Text}"/>
  </StackPanel>`, false)
	if diff := cmp.Diff([]diag.Code{diag.ResSafeNavigation}, codesOf(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if bag.HasErrors() {
		t.Fatalf("safe navigation is a warning")
	}
	var lazy *binding.BoundElement
	for _, be := range res.Universe.Elements() {
		if be.Name == "lazy" {
			lazy = be
		}
	}
	if lazy == nil || !lazy.Retained || !res.File.IsRetained(lazy.ID) {
		t.Fatalf("deferred source must be retained")
	}
	id, _ := res.File.Graph.Lookup("$data.lazy")
	if !res.File.Graph.Get(id).Has(binding.FlagNullGuarded) {
		t.Fatalf("step is not null-guarded")
	}
	if len(res.File.Warnings) != 1 {
		t.Fatalf("scope warnings = %v", res.File.Warnings)
	}
}

func TestMissingDataRoot(t *testing.T) {
	res, bag := mustCompile(t, `
  <ListView>
    <ListView.ItemTemplate>
      <DataTemplate>
        <TextBlock Text="{x:Bind Name}"/>
      </DataTemplate>
    </ListView.ItemTemplate>
  </ListView>`, false)
	requireClean(t, bag)
	b := res.Bindings[0]
	if !b.NoRoot || !errors.Is(b.Err, binding.ErrNoDataRoot) {
		t.Fatalf("binding without data type: NoRoot=%v err=%v", b.NoRoot, b.Err)
	}
}

func TestPhaseIsConsumed(t *testing.T) {
	res, bag := mustCompile(t, `<TextBlock x:Phase="1" Text="{x:Bind Title}"/>`, false)
	requireClean(t, bag)
	if len(res.Phases) != 1 || len(res.Consumed) != 2 {
		t.Fatalf("phases=%d consumed=%d", len(res.Phases), len(res.Consumed))
	}
}

func TestFirstPassDefersLocalMembers(t *testing.T) {
	res, bag := mustCompile(t, `<TextBlock Text="{x:Bind ViewModel.Caption}"/>`, true)
	requireClean(t, bag)
	b := res.Bindings[0]
	if b.Resolved || !b.Resolution.Deferred {
		t.Fatalf("first pass must defer members of local types")
	}
	root := res.File.Graph.Get(b.Resolution.Leaf)
	if !root.Has(binding.FlagDeferred) {
		t.Fatalf("stop step is not flagged deferred")
	}
	if len(res.Record()) != 0 {
		t.Fatalf("deferred bindings must not be recorded")
	}
}

func TestPassConsistency(t *testing.T) {
	body := `
  <StackPanel>
    <TextBlock Text="{x:Bind ViewModel.Caption}"/>
    <Button Content="{x:Bind Tag}"/>
    <TextBlock Text="{x:Bind Width}"/>
  </StackPanel>`
	first, _ := mustCompile(t, body, true)
	rec := first.Record()
	if len(rec) != 2 {
		t.Fatalf("record = %v", rec)
	}

	second, bag := mustCompile(t, body, false)
	requireClean(t, bag)
	n := binding.CheckConsistency(rec, second, diag.BagReporter{Bag: bag})
	if n != 1 {
		t.Fatalf("divergences = %d", n)
	}
	if diff := cmp.Diff([]diag.Code{diag.ResInconsistentPass}, codesOf(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
	if !strings.Contains(bag.Items()[0].Message, "App.MainPage.Tag") {
		t.Fatalf("message = %q", bag.Items()[0].Message)
	}
}

func stepKeys(g *binding.Graph) []string {
	var out []string
	for _, st := range g.Steps() {
		out = append(out, st.Key)
	}
	return out
}

func TestNameFromInnerTemplateIsOutOfScope(t *testing.T) {
	_, bag := mustCompile(t, `
  <StackPanel>
    <ListView>
      <ListView.ItemTemplate>
        <DataTemplate x:DataType="local:Person">
          <TextBlock x:Name="cell" Text="{x:Bind Name}"/>
        </DataTemplate>
      </ListView.ItemTemplate>
    </ListView>
    <TextBlock Text="{x:Bind cell.Text}"/>
  </StackPanel>`, false)
	if diff := cmp.Diff([]diag.Code{diag.ScopeOutOfScope}, codesOf(bag)); diff != "" {
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

package validate_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"markc/internal/binding"
	"markc/internal/diag"
	"markc/internal/markup"
	"markc/internal/testkit"
	"markc/internal/validate"
)

type outcome struct {
	res   *binding.Result
	bag   *diag.Bag
	sum   validate.Summary
	codes []diag.Code
}

func run(t *testing.T, text string) outcome {
	t.Helper()
	doc, err := markup.ParseString("Test.xaml", text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	reg := testkit.MustRegistry()
	bag := diag.NewBag(0)
	rep := diag.BagReporter{Bag: bag}
	res := binding.Build(doc, reg, rep, binding.Options{})
	sum := validate.Validate(doc, res, reg, rep)
	out := outcome{res: res, bag: bag, sum: sum}
	for _, d := range bag.Items() {
		out.codes = append(out.codes, d.Code)
	}
	return out
}

func expectCodes(t *testing.T, got outcome, want ...diag.Code) {
	t.Helper()
	if diff := cmp.Diff(want, got.codes, cmpopts.EquateEmpty(), cmpopts.SortSlices(func(a, b diag.Code) bool { return a < b })); diff != "" {
		for _, d := range got.bag.Items() {
			t.Logf("%s %s", d.Code.ID(), d.Message)
		}
		t.Fatalf("codes (-want +got):\n%s", diff)
	}
}

func TestValidPage(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBox x:Name="input" Text="{x:Bind ViewModel.Person.Name, Mode=TwoWay}" TextChanged="{x:Bind OnTyped}"/>
    <TextBlock Text="{x:Bind ViewModel.Count}" Width="{x:Bind ViewModel.Count}"/>
    <TextBlock Text="{x:Bind input.Text, Mode=OneWay}"/>
    <Button Click="OnClick" Content="{x:Bind Title}"/>
    <Button Click="{x:Bind OnReset}" Loaded="OnClick"/>
    <ListView ItemsSource="{x:Bind ViewModel.Items}">
      <ListView.ItemTemplate>
        <DataTemplate x:DataType="local:Person">
          <TextBlock x:Name="input" x:Phase="2" Text="{x:Bind Address.City}"/>
        </DataTemplate>
      </ListView.ItemTemplate>
    </ListView>
  </StackPanel>`))
	expectCodes(t, got)
	if !got.sum.OK() || got.sum.Warnings != 0 {
		t.Fatalf("summary = %+v", got.sum)
	}
}

func TestDuplicateIdentifierReportedOnce(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <Button x:Name="btn1" Content="first"/>
    <Button x:Name="btn1" Content="second"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ScopeDuplicateName)
	if got.sum.Errors != 1 {
		t.Fatalf("errors = %d", got.sum.Errors)
	}
	first := got.res.File.Names["btn1"]
	if first == nil || first.Attr("", "Content").Value != "first" {
		t.Fatalf("the first declaration must stay declared")
	}
	d := got.bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Span.Start >= d.Primary.Start {
		t.Fatalf("note must point at the earlier declaration: %+v", d)
	}
}

func TestAliasRules(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <Button x:Name="a" Name="a"/>
    <Button x:Name="b" Name="c"/>
    <Button Name="a"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ScopeAliasRedeclared, diag.ScopeAliasConflict, diag.ScopeDuplicateName)
}

func TestDeferredMarkers(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBlock x:Load="False"/>
    <TextBlock x:Name="both" x:Load="False" x:DeferLoadStrategy="Lazy"/>
    <StackPanel x:Name="outer" x:Load="False">
      <TextBlock x:Name="inner" x:Load="False"/>
    </StackPanel>
    <StackPanel.Resources>
      <TextBlock x:Name="res" x:Load="False"/>
    </StackPanel.Resources>
    <ListView>
      <ListView.ItemTemplate>
        <DataTemplate x:DataType="local:Person">
          <TextBlock x:Name="root" x:Load="False"/>
        </DataTemplate>
      </ListView.ItemTemplate>
    </ListView>
    <TextBlock x:Name="lazy" x:DeferLoadStrategy="Lazy"/>
  </StackPanel>`))
	expectCodes(t, got,
		diag.ValDeferredMissingName,
		diag.ValDeferredConflict,
		diag.ValDeferredIllegalParent,
		diag.ValDeferredIllegalParent,
		diag.ValDeferredIllegalParent,
	)
	var reasons []string
	for _, d := range got.bag.Items() {
		if d.Code == diag.ValDeferredIllegalParent {
			reasons = append(reasons, d.Message)
		}
	}
	joined := strings.Join(reasons, "\n")
	for _, want := range []string{"another deferred element", "resource dictionary item", "root of a template"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestEventSignatures(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <Button Click="OnWrong"/>
    <TextBox TextChanged="{x:Bind OnAny}"/>
    <Button Click="{x:Bind Title}"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ValEventSignature, diag.ValEventAmbiguous, diag.ValEventNoCandidate)
	for _, d := range got.bag.Items() {
		if d.Code == diag.ValEventSignature && !strings.Contains(d.Message, "parameter 1") {
			t.Fatalf("signature message = %q", d.Message)
		}
		if d.Code == diag.ValEventAmbiguous && len(d.Notes) != 2 {
			t.Fatalf("ambiguity must list both candidates: %+v", d.Notes)
		}
	}
}

func TestBindingsWithoutCodeBehind(t *testing.T) {
	got := run(t, `<Page
      xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
      xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
  <StackPanel>
    <TextBlock Text="{x:Bind Title}"/>
    <Button Click="OnClick"/>
  </StackPanel>
</Page>`)
	expectCodes(t, got, diag.ResMissingCodeBehind, diag.ResMissingCodeBehind)
}

func TestTemplateWithoutDataType(t *testing.T) {
	got := run(t, testkit.Page(`
  <ListView>
    <ListView.ItemTemplate>
      <DataTemplate>
        <TextBlock Text="{x:Bind Name}"/>
      </DataTemplate>
    </ListView.ItemTemplate>
  </ListView>`))
	expectCodes(t, got, diag.ResMissingDataType)
}

func TestTwoWayRules(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBlock MaxLines="{x:Bind ViewModel.Count, Mode=TwoWay}"/>
    <TextBox Text="{x:Bind ViewModel.Caption, Mode=TwoWay}"/>
    <TextBox Text="{x:Bind ViewModel.Count, Mode=TwoWay}"/>
    <Button ClickCount="{x:Bind ViewModel.Count}"/>
  </StackPanel>`))
	expectCodes(t, got,
		diag.ValTwoWayNotObservable,
		diag.ResReadOnlySource,
		diag.ResTypeMismatch,
		diag.ValBindOnNonMember,
	)
}

func TestPhaseRules(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBlock x:Phase="1"/>
    <ListView>
      <ListView.ItemTemplate>
        <DataTemplate x:DataType="local:Person">
          <StackPanel>
            <TextBlock x:Phase="-1"/>
            <TextBlock x:Phase="soon"/>
            <TextBlock x:Phase="0"/>
          </StackPanel>
        </DataTemplate>
      </ListView.ItemTemplate>
    </ListView>
  </StackPanel>`))
	expectCodes(t, got, diag.ValPhaseOutsideTemplate, diag.ValPhaseInvalid, diag.ValPhaseInvalid)
}

func TestTypeChecks(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBlock Width="{x:Bind Title}"/>
    <TextBlock Visibility="{x:Bind ViewModel.Caption}"/>
    <TextBlock Text="{x:Bind OnReset}"/>
    <TextBlock x:Name="lazy" x:Load="{x:Bind Title}"/>
    <TextBlock Text="{x:Bind Format(ViewModel.Person.Name)}"/>
  </StackPanel>`))
	expectCodes(t, got,
		diag.ResTypeMismatch,
		diag.ResTypeMismatch,
		diag.ResMethodWithoutCall,
		diag.ResTypeMismatch,
	)
}

func TestEmptyNestedPaths(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBlock Text="{x:Bind Format(Title, )}"/>
    <TextBlock Text="{x:Bind Title, FallbackValue={x:Bind}}"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ValEmptyNestedPath, diag.ValEmptyNestedPath)
}

func TestValidateIsPure(t *testing.T) {
	text := testkit.Page(`<Button x:Name="b" Click="OnWrong"/>`)
	first := run(t, text)
	doc := first.res.Doc
	reg := testkit.MustRegistry()
	again := validate.Validate(doc, first.res, reg, nil)
	if again != first.sum {
		t.Fatalf("second run differs: %+v vs %+v", again, first.sum)
	}
	if len(first.res.Bindings) != 1 || first.res.Bindings[0].Err != nil {
		t.Fatalf("validation must not touch bindings")
	}
}

func TestAliasConflictStillChecksDuplicates(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <Button x:Name="b"/>
    <Button x:Name="b" Name="c"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ScopeAliasConflict, diag.ScopeDuplicateName)
}

func TestIdentifierRules(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <Button x:Name=""/>
    <Button Name="  "/>
    <Button x:Name="1st"/>
    <Button x:Name="ok_2"/>
    <Button x:Name="имя"/>
    <Button x:Name="a-b"/>
    <StackPanel.Resources>
      <TextBlock x:Key=" "/>
      <TextBlock x:Key="any key: 1"/>
    </StackPanel.Resources>
  </StackPanel>`))
	expectCodes(t, got,
		diag.ScopeEmptyIdentifier,
		diag.ScopeEmptyIdentifier,
		diag.ScopeBadIdentifier,
		diag.ScopeBadIdentifier,
		diag.ScopeEmptyIdentifier,
	)
	var msgs []string
	for _, d := range got.bag.Items() {
		if d.Code == diag.ScopeBadIdentifier {
			msgs = append(msgs, d.Message)
		}
	}
	want := []string{
		`x:Name "1st" is not a valid identifier: character '1' at index 0`,
		`x:Name "a-b" is not a valid identifier: character '-' at index 1`,
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}
}

func TestBadIdentifierSpanCoversCharacter(t *testing.T) {
	text := testkit.Page(`<Button x:Name="ab$c"/>`)
	got := run(t, text)
	expectCodes(t, got, diag.ScopeBadIdentifier)
	sp := got.bag.Items()[0].Primary
	if s := text[sp.Start:sp.End]; s != "$" {
		t.Fatalf("span covers %q", s)
	}
}

func TestDeferredNeedsUIElement(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <local:Person x:Name="p" x:Load="False"/>
    <MenuFlyout x:Name="menu" x:Load="False"/>
    <TextBlock x:Name="text" x:DeferLoadStrategy="Lazy"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ValDeferredNotUIElement)
	if msg := got.bag.Items()[0].Message; !strings.Contains(msg, "App.Person") {
		t.Fatalf("message = %q", msg)
	}
}

func TestConditionalNamespaces(t *testing.T) {
	got := run(t, `<Page x:Class="App.MainPage"
      xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
      xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
      xmlns:ok="http://schemas.microsoft.com/winfx/2006/xaml/presentation?IsTypePresent(Windows.UI.Xaml.Controls.Grid)"
      xmlns:bad="http://schemas.microsoft.com/winfx/2006/xaml/presentation?IsSunny()"
      xmlns:ver="http://schemas.microsoft.com/winfx/2006/xaml/presentation?IsApiContractPresent(Foundation,x)">
  <StackPanel/>
</Page>`)
	expectCodes(t, got, diag.ValBadConditionalNS, diag.ValBadConditionalNS)
	for _, d := range got.bag.Items() {
		if !strings.Contains(d.Message, "xmlns:bad") && !strings.Contains(d.Message, "xmlns:ver") {
			t.Fatalf("unexpected message %q", d.Message)
		}
	}
}

func TestConnectionIDs(t *testing.T) {
	got := run(t, testkit.Page(`
  <StackPanel>
    <TextBlock x:ConnectionId="0"/>
    <TextBlock x:ConnectionId="five"/>
    <TextBlock x:ConnectionId="3"/>
    <TextBlock x:ConnectionId="3"/>
    <TextBlock x:ConnectionId="4"/>
  </StackPanel>`))
	expectCodes(t, got, diag.ValBadConnectionID, diag.ValBadConnectionID, diag.ValDuplicateConnectionID)
	for _, d := range got.bag.Items() {
		if d.Code == diag.ValDuplicateConnectionID && len(d.Notes) != 1 {
			t.Fatalf("duplicate must point at the first use: %+v", d)
		}
	}
}

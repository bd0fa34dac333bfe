package markup

import (
	"errors"
	"testing"

	"markc/internal/diag"
)

const samplePage = `<?xml version="1.0" encoding="utf-8"?>
<!-- header -->
<Page x:Class="App.MainPage"
      xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
      xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml"
      xmlns:local="using:App">
  <Grid>
    <TextBlock x:Name="title" Text="{x:Bind Title}"/>
    <local:Card Caption='a &amp; b'>
      <![CDATA[ <not markup> ]]>
    </local:Card>
  </Grid>
</Page>
`

func TestParseTreeAndPositions(t *testing.T) {
	doc, err := ParseString("MainPage.xaml", samplePage)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	root := doc.Root
	if root.Name.Local != "Page" || root.NamespaceURI != NSPresentation {
		t.Fatalf("unexpected root %s in %q", root.Name, root.NamespaceURI)
	}
	if cls := root.LanguageAttr("Class"); cls == nil || cls.Value != "App.MainPage" {
		t.Fatalf("x:Class not found")
	}
	grid := root.Children[0]
	text := grid.Children[0]
	if !text.SelfClosing || text.Start.Line != 8 || text.Start.Col != 5 {
		t.Fatalf("TextBlock at %s self-closing=%v", text.Start, text.SelfClosing)
	}
	bind := text.Attr("", "Text")
	if bind == nil || bind.Value != "{x:Bind Title}" {
		t.Fatalf("Text attribute not parsed: %+v", bind)
	}
	if bind.Start.Col != 31 || bind.ValueStart.Col != 36 || bind.ValueEnd.Col != 52 {
		t.Fatalf("attribute columns: name %d, value %d-%d", bind.Start.Col, bind.ValueStart.Col, bind.ValueEnd.Col)
	}

	card := grid.Children[1]
	if card.NamespaceURI != "using:App" || !IsLocalNamespace(card.NamespaceURI) {
		t.Fatalf("card namespace %q", card.NamespaceURI)
	}
	caption := card.Attr("", "Caption")
	if caption.Value != "a & b" || caption.Raw != "a &amp; b" || caption.Quote != '\'' {
		t.Fatalf("caption decoded as %q (raw %q)", caption.Value, caption.Raw)
	}
	// 'b' is the 5th value byte but the 9th raw byte
	if got := caption.RawOffset(4); got != 8 {
		t.Fatalf("RawOffset(4) = %d, want 8", got)
	}
	if card.End.Line != 11 || grid.End.Line != 12 {
		t.Fatalf("end lines: card %d, grid %d", card.End.Line, grid.End.Line)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		code diag.Code
		line uint32
	}{
		{"mismatched", "<a>\n<b></a>", diag.MkpMismatchedTag, 2},
		{"unclosed", "<a>\n  <b>\n", diag.MkpUnclosedTag, 2},
		{"prefix", "<a>\n<y:b/></a>", diag.MkpUnknownPrefix, 2},
		{"duplicate", `<a b="1" b="2"/>`, diag.MkpDuplicateAttr, 1},
		{"unquoted", `<a b=1/>`, diag.MkpSyntax, 1},
		{"empty", "<!-- only -->", diag.MkpNoRootElement, 1},
		{"unterminated", `<a b="1/>`, diag.MkpUnterminated, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseString("bad.xaml", tc.text)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected SyntaxError, got %v", err)
			}
			if se.Code != tc.code || se.Pos.Line != tc.line {
				t.Fatalf("got %s at line %d (%s), want %s at line %d", se.Code.ID(), se.Pos.Line, se.Msg, tc.code.ID(), tc.line)
			}
		})
	}
}

func TestWalkEnterExitOrder(t *testing.T) {
	doc, err := ParseString("w.xaml", `<a><b><c/></b><d/></a>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var trace []string
	Walk(doc.Root, func(e *Element) bool {
		trace = append(trace, "+"+e.Name.Local)
		return e.Name.Local != "b"
	}, func(e *Element) {
		trace = append(trace, "-"+e.Name.Local)
	})
	want := "+a +b +d -d -a"
	got := ""
	for i, s := range trace {
		if i > 0 {
			got += " "
		}
		got += s
	}
	if got != want {
		t.Fatalf("walk order %q, want %q", got, want)
	}
}

func TestSplitConditional(t *testing.T) {
	base, clauses := SplitConditional("using:App?IsTypePresent(App.Foo); IsApiContractPresent(Contract,5)")
	if base != "using:App" || len(clauses) != 2 {
		t.Fatalf("split = %q, %d clauses", base, len(clauses))
	}
	if clauses[1].Func != "IsApiContractPresent" || len(clauses[1].Args) != 2 || clauses[1].Args[1] != "5" {
		t.Fatalf("clause 2 parsed as %+v", clauses[1])
	}
	uri := "using:App?IsTypePresent(App.Foo); IsApiContractPresent(Contract,5)"
	if got := uri[clauses[1].Offset : clauses[1].Offset+len(clauses[1].Text)]; got != clauses[1].Text {
		t.Fatalf("clause offset points at %q", got)
	}
}

package rewrite

import "testing"

func TestConflicts(t *testing.T) {
	blank := func(l1, c1, l2, c2 int) Edit {
		return Edit{Kind: EditBlank, From: Point{l1, c1}, To: Point{l2, c2}}
	}
	insert := func(l, c int) Edit {
		return Edit{Kind: EditInsert, From: Point{l, c}, To: Point{l, c}}
	}
	cases := []struct {
		name string
		a, b Edit
		want bool
	}{
		{"disjoint blanks", blank(0, 0, 0, 3), blank(0, 3, 0, 5), false},
		{"overlapping blanks", blank(0, 0, 0, 4), blank(0, 3, 0, 5), true},
		{"multi-line blank covers", blank(0, 5, 2, 1), blank(1, 0, 1, 2), true},
		{"insert at blank start", insert(0, 2), blank(0, 2, 0, 5), false},
		{"insert inside blank", insert(0, 3), blank(0, 2, 0, 5), true},
		{"insert at blank end", blank(0, 2, 0, 5), insert(0, 5), false},
		{"two inserts", insert(0, 1), insert(0, 1), false},
	}
	for _, tc := range cases {
		if got := conflicts(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: conflicts = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestApplyDescendingKeepsCoordinates(t *testing.T) {
	lines := SplitLines("<a x=\"1\"><b y=\"2\"/></a>\n")
	plan := &Plan{Edits: []Edit{
		{Kind: EditInsert, From: Point{0, 2}, Text: " id=\"1\""},
		{Kind: EditBlank, From: Point{0, 5}, To: Point{0, 8}},
		{Kind: EditInsert, From: Point{0, 11}, Text: " id=\"2\""},
		{Kind: EditBlank, From: Point{0, 14}, To: Point{0, 17}},
	}}
	plan.Apply(lines)
	want := "<a id=\"1\" x=   ><b id=\"2\" y=   /></a>\n"
	if got := lines.String(); got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestBlankAcrossLines(t *testing.T) {
	lines := SplitLines("ab\"cd\nef\ngh\"ij")
	lines.apply(Edit{Kind: EditBlank, From: Point{0, 2}, To: Point{2, 3}})
	want := "ab   \n  \n   ij\n"
	if got := lines.String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSplitLinesNormalisesTrailingNewline(t *testing.T) {
	if got := SplitLines("a\nb").String(); got != "a\nb\n" {
		t.Fatalf("got %q", got)
	}
	if got := SplitLines("a\n\n").String(); got != "a\n\n" {
		t.Fatalf("got %q", got)
	}
}

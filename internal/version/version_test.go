package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColoredKeepsText(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, v := range []string{"0.3.0-dev", "1.2.3", "1.2.3+meta", "weird"} {
		if got := Colored(v); got != v {
			t.Fatalf("Colored(%q) = %q", v, got)
		}
	}
}

func TestFprintOptionalFields(t *testing.T) {
	prevCommit, prevDate := GitCommit, BuildDate
	prevNoColor := color.NoColor
	t.Cleanup(func() { GitCommit, BuildDate, color.NoColor = prevCommit, prevDate, prevNoColor })
	color.NoColor = true

	GitCommit, BuildDate = "", ""
	var b strings.Builder
	if err := Fprint(&b, "markc"); err != nil {
		t.Fatal(err)
	}
	if strings.Count(b.String(), "\n") != 1 {
		t.Fatalf("unexpected lines:\n%s", b.String())
	}

	GitCommit, BuildDate = "abc123def4567890", "2026-01-15T10:30:00Z"
	b.Reset()
	if err := Fprint(&b, "markc"); err != nil {
		t.Fatal(err)
	}
	out := b.String()
	if !strings.Contains(out, "commit: abc123def456\n") || strings.Contains(out, "7890") {
		t.Fatalf("commit not shortened:\n%s", out)
	}
	if !strings.Contains(out, "built:  2026-01-15T10:30:00Z") {
		t.Fatalf("date missing:\n%s", out)
	}
}

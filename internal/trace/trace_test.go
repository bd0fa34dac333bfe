package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltersScopes(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelFile, Output: &buf, Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)

	file := Begin(ctx, ScopeFile, "compile:A.xaml")
	pass := Begin(file.Context(ctx), ScopePass, "bind")
	if pass != nil {
		t.Fatalf("pass span must be dropped at level file")
	}
	pass.End("")
	file.With("bindings", "3").End("ok")

	out := buf.String()
	if strings.Count(out, "\n") != 2 {
		t.Fatalf("want begin and end only:\n%s", out)
	}
	if !strings.Contains(out, "compile:A.xaml") || !strings.Contains(out, "{bindings=3}") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestParentLinksAndNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, _ := New(Config{Level: LevelPass, Output: &buf, OutputPath: "x.ndjson"})
	ctx := WithTracer(context.Background(), tr)
	file := Begin(ctx, ScopeFile, "file")
	Begin(file.Context(ctx), ScopePass, "parse").End("")
	file.End("")

	var events []jsonEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var ev jsonEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			t.Fatalf("line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	if len(events) != 4 {
		t.Fatalf("events = %d", len(events))
	}
	if events[1].Name != "parse" || events[1].ParentID != events[0].SpanID {
		t.Fatalf("parse span not nested: %+v", events[1])
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := NewRing(3, LevelPass)
	ctx := WithTracer(context.Background(), r)
	for _, name := range []string{"a", "b", "c", "d"} {
		Point(ctx, ScopePass, name, "")
	}
	var names []string
	for _, ev := range r.Snapshot() {
		names = append(names, ev.Name)
	}
	if strings.Join(names, "") != "bcd" {
		t.Fatalf("snapshot = %v", names)
	}
	if Begin(context.Background(), ScopeDriver, "x") != nil {
		t.Fatalf("no tracer in context must give a nil span")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelOff, "FILE": LevelFile, "pass": LevelPass} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("debug"); err == nil {
		t.Fatalf("unknown level accepted")
	}
}

package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"markc/internal/buildpipeline"
	"markc/internal/diag"
	"markc/internal/driver"
	"markc/internal/project"
	"markc/internal/testkit"
)

const cleanBody = `  <StackPanel>
    <TextBox x:Name="input" Text="{x:Bind ViewModel.Person.Name, Mode=TwoWay}"/>
    <TextBlock Text="{x:Bind input.Text, Mode=OneWay}"/>
    <Button Click="OnClick" Content="{x:Bind Title}"/>
  </StackPanel>`

const warningBody = `  <StackPanel>
    <StackPanel x:Name="panel" x:Load="False">
      <TextBlock x:Name="lazy" Text="later"/>
    </StackPanel>
    <TextBlock Text="{x:Bind lazy.Text}"/>
  </StackPanel>`

func newSession(t *testing.T, mutate func(*driver.Options)) *driver.Session {
	t.Helper()
	opts := driver.Options{Config: project.Default("test")}
	if mutate != nil {
		mutate(&opts)
	}
	return driver.NewSession(testkit.MustRegistry(), opts)
}

func compileText(t *testing.T, s *driver.Session, text string) *driver.Result {
	t.Helper()
	res, err := s.CompileSource(context.Background(), "MainPage.xaml", []byte(text))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return res
}

func dump(t *testing.T, bag *diag.Bag) {
	t.Helper()
	for _, d := range bag.Items() {
		t.Logf("%s %s: %s", d.Severity, d.Code.ID(), d.Message)
	}
}

func TestCleanPageProducesArtifact(t *testing.T) {
	res := compileText(t, newSession(t, nil), testkit.Page(cleanBody))
	if res.Failed() {
		dump(t, res.Bag)
		t.Fatalf("clean page failed")
	}
	a := res.Artifact
	if a == nil {
		t.Fatalf("no artifact")
	}
	if a.Class != "App.MainPage" || a.Schema != driver.ArtifactSchema {
		t.Fatalf("artifact header = %+v", a)
	}
	if len(a.Bindings) != 4 || len(a.Elements) != 3 {
		t.Fatalf("bindings=%d elements=%d", len(a.Bindings), len(a.Elements))
	}
	if !strings.Contains(a.Rewritten, `x:ConnectionId="1"`) || strings.Contains(a.Rewritten, "{x:Bind") {
		t.Fatalf("rewritten text:\n%s", a.Rewritten)
	}
	if strings.Count(a.Rewritten, "\n") != strings.Count(testkit.Page(cleanBody), "\n") {
		t.Fatalf("line count changed")
	}
}

func TestErrorsSuppressArtifact(t *testing.T) {
	res := compileText(t, newSession(t, nil), testkit.Page(`<TextBlock Text="{x:Bind Missing}"/>`))
	if !res.Failed() || res.Artifact != nil {
		t.Fatalf("failed=%v artifact=%v", res.Failed(), res.Artifact != nil)
	}
	if _, ok := res.FirstError(); !ok {
		t.Fatalf("no error diagnostic")
	}
}

func TestSyntaxErrorIsDiagnostic(t *testing.T) {
	res := compileText(t, newSession(t, nil), `<Page><StackPanel></Page>`)
	if !res.Failed() || res.Doc != nil || res.Binding != nil {
		t.Fatalf("syntax error not reported as failure")
	}
}

func TestWarningsPolicy(t *testing.T) {
	text := testkit.Page(warningBody)

	res := compileText(t, newSession(t, nil), text)
	if res.Failed() || !res.Bag.HasWarnings() || res.Artifact == nil {
		dump(t, res.Bag)
		t.Fatalf("warning must not fail the build")
	}

	strict := compileText(t, newSession(t, func(o *driver.Options) { o.WarningsAsErrors = true }), text)
	if !strict.Failed() || strict.Artifact != nil {
		t.Fatalf("strict mode kept the artifact")
	}

	quiet := compileText(t, newSession(t, func(o *driver.Options) { o.IgnoreWarnings = true }), text)
	if quiet.Bag.HasWarnings() || quiet.Artifact == nil {
		t.Fatalf("warnings not dropped")
	}
}

func TestTimingsDiagnostic(t *testing.T) {
	res := compileText(t, newSession(t, func(o *driver.Options) { o.EnableTimings = true }), testkit.Page(cleanBody))
	if len(res.Timing.Phases) != len(buildpipeline.Stages) {
		t.Fatalf("phases = %+v", res.Timing.Phases)
	}
	var found bool
	for _, d := range res.Bag.Items() {
		if d.Code == diag.ObsTimings {
			found = true
			if d.Severity != diag.SevInfo || len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, `"phases"`) {
				t.Fatalf("timing entry = %+v", d)
			}
		}
	}
	if !found {
		t.Fatalf("no timing diagnostic")
	}
}

func TestProgressEvents(t *testing.T) {
	var rec buildpipeline.Recorder
	s := newSession(t, func(o *driver.Options) { o.Progress = &rec })
	compileText(t, s, testkit.Page(cleanBody))

	var stages []buildpipeline.Stage
	var last buildpipeline.Event
	for _, e := range rec.Events() {
		if e.Status == buildpipeline.StatusWorking {
			stages = append(stages, e.Stage)
		}
		last = e
	}
	if len(stages) != len(buildpipeline.Stages) {
		t.Fatalf("stages = %v", stages)
	}
	for i, st := range buildpipeline.Stages {
		if stages[i] != st {
			t.Fatalf("stage %d = %s, want %s", i, stages[i], st)
		}
	}
	if last.Status != buildpipeline.StatusDone {
		t.Fatalf("last event = %+v", last)
	}
}

func TestCompileFileUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "MainPage.xaml")
	if err := os.WriteFile(path, []byte(testkit.Page(cleanBody)), 0o644); err != nil {
		t.Fatal(err)
	}
	cache, err := driver.NewDiskCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, func(o *driver.Options) { o.Cache = cache })

	first, err := s.CompileFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || first.Artifact == nil {
		t.Fatalf("first compile cached=%v", first.Cached)
	}
	second, err := s.CompileFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || second.Artifact == nil || second.Artifact.Rewritten != first.Artifact.Rewritten {
		t.Fatalf("second compile was not served from cache")
	}

	// другие настройки - другой ключ
	other := newSession(t, func(o *driver.Options) {
		o.Cache = cache
		o.Config.Compile.ConnectionAttr = "x:Uid"
	})
	third, err := other.CompileFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached || !strings.Contains(third.Artifact.Rewritten, `x:Uid="1"`) {
		t.Fatalf("settings change must miss the cache")
	}
}

func TestFailedDocumentIsCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Broken.xaml")
	if err := os.WriteFile(path, []byte(testkit.Page(`<TextBlock Text="{x:Bind Missing}"/>`)), 0o644); err != nil {
		t.Fatal(err)
	}
	cache, err := driver.NewDiskCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	s := newSession(t, func(o *driver.Options) { o.Cache = cache })
	first, err := s.CompileFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CompileFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || !second.Failed() || second.Bag.ErrorCount() != first.Bag.ErrorCount() {
		t.Fatalf("cached failure: cached=%v errors=%d", second.Cached, second.Bag.ErrorCount())
	}
}

func TestCompileFileMissing(t *testing.T) {
	_, err := newSession(t, nil).CompileFile(context.Background(), filepath.Join(t.TempDir(), "nope.xaml"))
	if err == nil {
		t.Fatalf("expected load error")
	}
}

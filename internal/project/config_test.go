package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, text string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[project]
name = "App"
schema = "meta/types.toml"

[platform]
contracts = { UniversalApiContract = 8 }
types = ["Windows.UI.Xaml.Controls.TwoPaneView"]
`)
	nested := filepath.Join(root, "Views", "Pages")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Discover(nested)
	if err != nil || !ok {
		t.Fatalf("Discover = %v, %v", ok, err)
	}
	if m.Root != root {
		t.Fatalf("root = %q, want %q", m.Root, root)
	}
	if got := m.SchemaPath(); got != filepath.Join(root, "meta", "types.toml") {
		t.Fatalf("schema path = %q", got)
	}
	cfg := m.Config
	if cfg.Compile.ConnectionAttr != "x:ConnectionId" || cfg.Compile.OutDir != "obj/markc" || cfg.Platform.Name != "windows" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	target := cfg.Target()
	if target.Contracts["UniversalApiContract"] != 8 || !target.Types["Windows.UI.Xaml.Controls.TwoPaneView"] {
		t.Fatalf("target = %+v", target)
	}
	if !cfg.Includes("Views/Main.XAML") || cfg.Includes("Main.cs") {
		t.Fatalf("include filter is wrong")
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name, text string
		want       error
		substr     string
	}{
		{name: "no project", text: "[compile]\njobs = 2\n", want: ErrProjectSectionMissing},
		{name: "no schema", text: "[project]\nname = \"App\"\n", want: ErrSchemaMissing},
		{name: "unknown key", text: "[project]\nschema = \"t.toml\"\n[compile]\nout = \"x\"\n", substr: "compile.out"},
		{name: "negative jobs", text: "[project]\nschema = \"t.toml\"\n[compile]\njobs = -1\n", substr: "negative"},
		{name: "syntax", text: "[project\n", substr: "failed to parse TOML"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode("markc.toml", strings.NewReader(tc.text))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if tc.substr != "" && !strings.Contains(err.Error(), tc.substr) {
				t.Fatalf("err = %v, want substring %q", err, tc.substr)
			}
		})
	}
}

func TestEncodeRoundTripAndDigest(t *testing.T) {
	cfg := Default("App")
	var buf strings.Builder
	if err := cfg.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := Decode("markc.toml", strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("decode of encoded default: %v\n%s", err, buf.String())
	}
	if back.Project.Name != "App" || back.Compile.MaxDiagnostics != 100 {
		t.Fatalf("round trip lost fields: %+v", back)
	}
	if back.Digest() != cfg.Digest() {
		t.Fatalf("digest is not stable")
	}
	other := cfg
	other.Compile.ConnectionAttr = "x:Uid"
	if other.Digest() == cfg.Digest() {
		t.Fatalf("connection attribute must change the digest")
	}
	renamed := cfg
	renamed.Project.Name = "Other"
	if renamed.Digest() != cfg.Digest() {
		t.Fatalf("project name must not change the digest")
	}
}

package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"markc/internal/driver"
	"markc/internal/testkit"
)

func TestArtifactEncodeDecode(t *testing.T) {
	res, err := newSession(t, nil).CompileSource(context.Background(), "MainPage.xaml", []byte(testkit.Page(cleanBody)))
	if err != nil || res.Artifact == nil {
		t.Fatalf("compile: %v", err)
	}
	data, err := res.Artifact.Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := driver.DecodeArtifact(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(res.Artifact, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}

	bad := *res.Artifact
	bad.Schema = driver.ArtifactSchema + 1
	data, _ = bad.Encode()
	if _, err := driver.DecodeArtifact(data); err == nil {
		t.Fatalf("foreign schema accepted")
	}
}

func TestArtifactWrite(t *testing.T) {
	res, err := newSession(t, nil).CompileSource(context.Background(), "MainPage.xaml", []byte(testkit.Page(cleanBody)))
	if err != nil || res.Artifact == nil {
		t.Fatalf("compile: %v", err)
	}
	out := t.TempDir()
	if err := res.Artifact.Write(out, "Views/MainPage.xaml"); err != nil {
		t.Fatal(err)
	}
	text, bin := driver.Outputs(out, "Views/MainPage.xaml")
	if bin != filepath.Join(out, "Views", "MainPage.mkb") {
		t.Fatalf("bin path = %s", bin)
	}
	got, err := os.ReadFile(text)
	if err != nil || string(got) != res.Artifact.Rewritten {
		t.Fatalf("rewritten file: %v", err)
	}
	data, err := os.ReadFile(bin)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := driver.DecodeArtifact(data); err != nil {
		t.Fatal(err)
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markc/internal/diagfmt"
	"markc/internal/driver"
	"markc/internal/project"
	"markc/internal/testkit"
	"markc/internal/version"
)

const goodBody = `  <StackPanel>
    <TextBox x:Name="input" Text="{x:Bind ViewModel.Person.Name, Mode=TwoWay}"/>
    <TextBlock Text="{x:Bind input.Text, Mode=OneWay}"/>
  </StackPanel>`

const badBody = `<TextBlock Text="{x:Bind Missing}"/>`

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// newProject создаёт проект через markc init и подменяет каталог тестовым.
func newProject(t *testing.T, pages map[string]string) string {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := filepath.Join(t.TempDir(), "app")
	code, _, stderr := run(t, "init", dir)
	require.Equal(t, 0, code, stderr)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "types.toml"), []byte(testkit.Catalog), 0o644))
	for rel, body := range pages {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(testkit.Page(body)), 0o644))
	}
	return dir
}

func TestVersion(t *testing.T) {
	code, out, _ := run(t, "version")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "markc "+version.Version)

	code, out, _ = run(t, "version", "--format", "json")
	require.Equal(t, 0, code)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "markc", payload.Tool)
}

func TestInitWritesManifest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "demo")
	code, out, stderr := run(t, "init", dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, project.ManifestName)

	m, err := project.Load(filepath.Join(dir, project.ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "demo", m.Config.Project.Name)
	assert.FileExists(t, m.SchemaPath())

	code, _, stderr = run(t, "init", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already initialized")
}

func TestBuildWritesArtifacts(t *testing.T) {
	dir := newProject(t, map[string]string{
		"MainPage.xaml":         goodBody,
		"Views/SecondPage.xaml": goodBody,
	})
	code, out, stderr := run(t, "build", "--ui", "off", dir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "built 2 document(s)")

	text, bin := driver.Outputs(filepath.Join(dir, "obj", "markc"), "Views/SecondPage.xaml")
	rewritten, err := os.ReadFile(text)
	require.NoError(t, err)
	assert.Contains(t, string(rewritten), `x:ConnectionId="1"`)
	assert.NotContains(t, string(rewritten), "{x:Bind")

	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	art, err := driver.DecodeArtifact(data)
	require.NoError(t, err)
	assert.Len(t, art.Bindings, 2)

	// второй прогон обслуживается кэшем
	code, out, _ = run(t, "build", "--ui", "off", dir)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "(2 cached)")
}

func TestBuildFailsOnErrors(t *testing.T) {
	dir := newProject(t, map[string]string{"Broken.xaml": badBody})
	code, out, stderr := run(t, "build", "--ui", "off", "--no-cache", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "RES2001")
	assert.Contains(t, out, "failed")
	assert.NoFileExists(t, filepath.Join(dir, "obj", "markc", "Broken.xaml"))
}

func TestDiagJSON(t *testing.T) {
	dir := newProject(t, map[string]string{"Broken.xaml": badBody, "Good.xaml": goodBody})
	code, out, stderr := run(t, "diag", "--format", "json", dir)
	require.Equal(t, 1, code, stderr)

	var output diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &output))
	require.NotZero(t, output.Count)
	var codes []string
	for _, d := range output.Diagnostics {
		codes = append(codes, d.Code)
		require.NotNil(t, d.Location)
		assert.Equal(t, "Broken.xaml", filepath.Base(d.Location.File))
	}
	assert.Contains(t, codes, "RES2001")
}

func TestDiagFlagConflicts(t *testing.T) {
	dir := newProject(t, map[string]string{"Good.xaml": goodBody})
	code, _, stderr := run(t, "diag", "--no-warnings", "--warnings-as-errors", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "cannot be used together")

	code, _, stderr = run(t, "diag", "--format", "xml", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown format")
}

func TestDiagWithoutSchema(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.xaml"), []byte(testkit.Page(goodBody)), 0o644))
	code, _, stderr := run(t, "diag", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "schema")

	schemaPath := filepath.Join(t.TempDir(), "types.toml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testkit.Catalog), 0o644))
	code, _, stderr = run(t, "diag", "--schema", schemaPath, dir)
	assert.Equal(t, 0, code, stderr)
}

func TestPaths(t *testing.T) {
	code, out, _ := run(t, "paths", "ViewModel.Person.Name")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Member Name")
	assert.Contains(t, out, "canonical: ViewModel.Person.Name")

	code, out, _ = run(t, "paths", "{x:Bind Title, Mode=OneWay}")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "mode=OneWay")

	code, out, _ = run(t, "paths", "A..B")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "error:")
}

func TestGraph(t *testing.T) {
	dir := newProject(t, map[string]string{"MainPage.xaml": goodBody})
	page := filepath.Join(dir, "MainPage.xaml")

	code, out, stderr := run(t, "graph", "--format", "json", page)
	require.Equal(t, 0, code, stderr)
	var art driver.Artifact
	require.NoError(t, json.Unmarshal([]byte(out), &art))
	assert.Equal(t, "App.MainPage", art.Class)
	assert.NotEmpty(t, art.Scopes)

	code, out, stderr = run(t, "graph", page)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "scope 1")
	assert.Contains(t, out, "ViewModel.Person.Name")
}

func TestInvalidColor(t *testing.T) {
	code, _, stderr := run(t, "--color", "sometimes", "version")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid --color")
}

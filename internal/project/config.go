package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"markc/internal/platform"
	"markc/internal/rewrite"
	"markc/internal/source"
)

var (
	// ErrProjectSectionMissing indicates that [project] is missing.
	ErrProjectSectionMissing = errors.New("missing [project]")
	// ErrSchemaMissing indicates that [project].schema is missing.
	ErrSchemaMissing = errors.New("missing [project].schema")
)

// Config is the decoded markc.toml.
type Config struct {
	Project  ProjectSection  `toml:"project"`
	Compile  CompileSection  `toml:"compile"`
	Platform PlatformSection `toml:"platform"`
}

type ProjectSection struct {
	Name   string `toml:"name"`
	Schema string `toml:"schema"` // type catalog, relative to the manifest
}

type CompileSection struct {
	OutDir         string   `toml:"out_dir"`
	ConnectionAttr string   `toml:"connection_attr"`
	Include        []string `toml:"include"` // расширения файлов разметки
	MaxDiagnostics int      `toml:"max_diagnostics"`
	Jobs           int      `toml:"jobs"`
}

type PlatformSection struct {
	Name      string         `toml:"name"`
	Contracts map[string]int `toml:"contracts"`
	Types     []string       `toml:"types"`
}

// Manifest is a located and validated markc.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration markc init writes.
func Default(name string) Config {
	return Config{
		Project: ProjectSection{Name: name, Schema: "types.toml"},
		Compile: CompileSection{
			OutDir:         filepath.ToSlash(filepath.Join("obj", "markc")),
			ConnectionAttr: rewrite.DefaultConnectionAttr,
			Include:        []string{".xaml"},
			MaxDiagnostics: 100,
		},
		Platform: PlatformSection{Name: "windows"},
	}
}

func (c *Config) fillDefaults() {
	def := Default(c.Project.Name)
	if c.Compile.OutDir == "" {
		c.Compile.OutDir = def.Compile.OutDir
	}
	if c.Compile.ConnectionAttr == "" {
		c.Compile.ConnectionAttr = def.Compile.ConnectionAttr
	}
	if len(c.Compile.Include) == 0 {
		c.Compile.Include = def.Compile.Include
	}
	if c.Compile.MaxDiagnostics == 0 {
		c.Compile.MaxDiagnostics = def.Compile.MaxDiagnostics
	}
	if c.Platform.Name == "" {
		c.Platform.Name = def.Platform.Name
	}
}

// Decode parses manifest text. path is used in error messages only.
func Decode(path string, r io.Reader) (Config, error) {
	var cfg Config
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("project") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrProjectSectionMissing)
	}
	if !meta.IsDefined("project", "schema") || strings.TrimSpace(cfg.Project.Schema) == "" {
		return Config{}, fmt.Errorf("%s: %w", path, ErrSchemaMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Compile.Jobs < 0 || cfg.Compile.MaxDiagnostics < 0 {
		return Config{}, fmt.Errorf("%s: [compile] jobs and max_diagnostics must not be negative", path)
	}
	cfg.fillDefaults()
	return cfg, nil
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	cfg, err := Decode(path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, nil
}

// Discover finds markc.toml above startDir and loads it. ok is false when
// there is none.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// SchemaPath is the catalog path resolved against the project root.
func (m *Manifest) SchemaPath() string {
	return m.resolve(m.Config.Project.Schema)
}

// OutDir is the artifact directory resolved against the project root.
func (m *Manifest) OutDir() string {
	return m.resolve(m.Config.Compile.OutDir)
}

func (m *Manifest) resolve(p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}

// Target converts [platform] into an evaluation target.
func (c Config) Target() platform.Target {
	t := platform.Target{Name: c.Platform.Name}
	if len(c.Platform.Contracts) > 0 {
		t.Contracts = make(map[string]int, len(c.Platform.Contracts))
		for k, v := range c.Platform.Contracts {
			t.Contracts[k] = v
		}
	}
	if len(c.Platform.Types) > 0 {
		t.Types = make(map[string]bool, len(c.Platform.Types))
		for _, name := range c.Platform.Types {
			t.Types[name] = true
		}
	}
	return t
}

// Includes reports whether path has one of the markup extensions.
func (c Config) Includes(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range c.Compile.Include {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Digest identifies the settings that change compiler output.
func (c Config) Digest() Digest {
	var buf bytes.Buffer
	out := Config{Compile: CompileSection{ConnectionAttr: c.Compile.ConnectionAttr}, Platform: c.Platform}
	if err := out.Encode(&buf); err != nil {
		return Digest{}
	}
	return source.Sum(buf.Bytes())
}

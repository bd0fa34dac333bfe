package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"markc/internal/driver"
	"markc/internal/project"
	"markc/internal/schema"
)

// target is what a compile command works on.
type target struct {
	Path     string // as given
	Dir      string // directory compiled, or the file's directory
	IsDir    bool
	Manifest *project.Manifest
	Catalog  *schema.Registry
}

// loadTarget finds the project around path and loads its catalog. Without a
// markc.toml the defaults apply and --schema is required.
func loadTarget(cmd *cobra.Command, path string) (*target, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	t := &target{Path: path, IsDir: st.IsDir(), Dir: path}
	if !t.IsDir {
		t.Dir = filepath.Dir(path)
	}

	m, ok, err := project.Discover(t.Dir)
	if err != nil {
		return nil, err
	}
	if !ok {
		abs, absErr := filepath.Abs(t.Dir)
		if absErr != nil {
			return nil, absErr
		}
		m = &project.Manifest{Root: abs, Config: project.Default(filepath.Base(abs))}
		m.Config.Project.Schema = ""
	}
	t.Manifest = m

	schemaPath, err := cmd.Flags().GetString("schema")
	if err != nil {
		return nil, fmt.Errorf("failed to get schema flag: %w", err)
	}
	if schemaPath == "" {
		if m.Config.Project.Schema == "" {
			return nil, fmt.Errorf("%w: pass --schema or create %s with markc init", project.ErrSchemaMissing, project.ManifestName)
		}
		schemaPath = m.SchemaPath()
	}
	if _, err := os.Stat(schemaPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", project.ErrSchemaMissing, schemaPath)
	}
	if t.Catalog, err = schema.LoadCatalog(schemaPath); err != nil {
		return nil, err
	}
	return t, nil
}

// compileFlags are shared by build, diag and graph.
type compileFlags struct {
	maxDiagnostics   int
	maxSet           bool
	timings          bool
	quiet            bool
	noWarnings       bool
	warningsAsErrors bool
	jobs             int
}

func addCompileFlags(cmd *cobra.Command) {
	cmd.Flags().String("schema", "", "type catalog (overrides [project].schema)")
	cmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	cmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	cmd.Flags().Int("jobs", 0, "max parallel documents (0=auto)")
}

func readCompileFlags(cmd *cobra.Command) (compileFlags, error) {
	var f compileFlags
	var err error
	flags := cmd.Flags()
	if f.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return f, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	f.maxSet = flags.Changed("max-diagnostics")
	if f.timings, err = flags.GetBool("timings"); err != nil {
		return f, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if f.quiet, err = flags.GetBool("quiet"); err != nil {
		return f, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if f.noWarnings, err = flags.GetBool("no-warnings"); err != nil {
		return f, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if f.warningsAsErrors, err = flags.GetBool("warnings-as-errors"); err != nil {
		return f, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if f.jobs, err = flags.GetInt("jobs"); err != nil {
		return f, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if f.noWarnings && f.warningsAsErrors {
		return f, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	return f, nil
}

func (f compileFlags) options(t *target) driver.Options {
	cfg := t.Manifest.Config
	// абсолютный out_dir, чтобы обход каталога его пропускал
	cfg.Compile.OutDir = t.Manifest.OutDir()
	maxDiag := cfg.Compile.MaxDiagnostics
	if f.maxSet {
		maxDiag = f.maxDiagnostics
	}
	return driver.Options{
		Config:           cfg,
		MaxDiagnostics:   maxDiag,
		IgnoreWarnings:   f.noWarnings,
		WarningsAsErrors: f.warningsAsErrors,
		EnableTimings:    f.timings,
	}
}

func (f compileFlags) jobsFor(t *target) int {
	if f.jobs > 0 {
		return f.jobs
	}
	return t.Manifest.Config.Compile.Jobs
}

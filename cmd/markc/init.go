package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"markc/internal/project"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path|name]",
		Short: "Initialize a markc project",
		Long: `Create a project manifest (markc.toml) and a starter type catalog
(types.toml). If [path|name] is omitted, initializes the current directory.
A non-existing name creates the directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
	cmd.Flags().String("name", "", "project name (default: directory name)")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return fmt.Errorf("failed to get name flag: %w", err)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = filepath.Base(target)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "markc-project"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	cfg := project.Default(name)
	var buf bytes.Buffer
	buf.WriteString("# markc project manifest\n")
	if err := cfg.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized markc project %q in %s\n", name, target)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)

	schemaPath := filepath.Join(target, filepath.FromSlash(cfg.Project.Schema))
	if _, err := os.Stat(schemaPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(schemaPath, []byte(starterCatalog), 0o644); err != nil {
			return fmt.Errorf("failed to write catalog: %w", err)
		}
		fmt.Fprintf(out, "  - %s\n", cfg.Project.Schema)
	} else {
		fmt.Fprintf(out, "  - %s (existing)\n", cfg.Project.Schema)
	}
	return nil
}

// starterCatalog describes just enough of the framework for a first page.
const starterCatalog = `# Type catalog: the types, members and events bindings resolve against.

[[namespace]]
uri = "http://schemas.microsoft.com/winfx/2006/xaml/presentation"
code = ["Windows.UI.Xaml.Controls", "Windows.UI.Xaml"]

[[type]]
name = "Windows.UI.Xaml.DependencyObject"

[[type]]
name = "Windows.UI.Xaml.FrameworkElement"
base = "Windows.UI.Xaml.DependencyObject"
  [[type.member]]
  name = "Tag"
  type = "object"
  observable = true

[[type]]
name = "Windows.UI.Xaml.Controls.Panel"
base = "Windows.UI.Xaml.FrameworkElement"

[[type]]
name = "Windows.UI.Xaml.Controls.StackPanel"
base = "Windows.UI.Xaml.Controls.Panel"

[[type]]
name = "Windows.UI.Xaml.Controls.TextBlock"
base = "Windows.UI.Xaml.FrameworkElement"
  [[type.member]]
  name = "Text"
  type = "string"
  observable = true

[[type]]
name = "Windows.UI.Xaml.Controls.Page"
base = "Windows.UI.Xaml.FrameworkElement"
  [[type.member]]
  name = "Content"
  type = "object"
`

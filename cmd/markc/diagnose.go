package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"markc/internal/diag"
	"markc/internal/diagfmt"
	"markc/internal/driver"
	"markc/internal/trace"
	"markc/internal/version"
)

func newDiagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diag [flags] <file.xaml|directory>",
		Short: "Report binding diagnostics without writing output",
		Long:  `Run the full pipeline on a markup file or every markup file under a directory and print the diagnostics.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(a, cmd, args)
		},
	}
	addCompileFlags(cmd)
	cmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	cmd.Flags().String("path-mode", "auto", "how paths are printed (auto|absolute|relative|basename)")
	cmd.Flags().Bool("disk-cache", false, "reuse results from the on-disk compile cache")
	return cmd
}

// runDiagnose prints diagnostics in the chosen format and fails with exit
// status 1 when any document has errors.
func runDiagnose(a *app, cmd *cobra.Command, args []string) error {
	flags, err := readCompileFlags(cmd)
	if err != nil {
		return err
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	pathModeStr, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	pathMode, ok := diagfmt.ParsePathMode(pathModeStr)
	if !ok {
		return fmt.Errorf("unknown path-mode value: %s", pathModeStr)
	}
	useCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	format = strings.ToLower(format)
	switch format {
	case "pretty", "json", "sarif", "short":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	ctx := cmd.Context()
	span := trace.Begin(ctx, trace.ScopeDriver, "diag")
	defer span.End("")
	ctx = span.Context(ctx)

	t, err := loadTarget(cmd, args[0])
	if err != nil {
		return err
	}
	opts := flags.options(t)
	if useCache {
		if opts.Cache, err = driver.OpenDiskCache("markc"); err != nil {
			return fmt.Errorf("open compile cache: %w", err)
		}
	}
	out, err := compileTarget(ctx, driver.NewSession(t.Catalog, opts), t, flags.jobsFor(t))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "pretty":
		printPretty(w, out, diagfmt.PrettyOpts{Color: a.color, Context: 1, PathMode: pathMode, ShowNotes: withNotes})
		if !flags.quiet {
			summarize(out).print(w, "checked")
		}
	case "short":
		for _, res := range out.Results {
			if text := diag.FormatShortDiagnostics(res.Bag.Items(), res.FileSet, withNotes); text != "" {
				fmt.Fprintln(w, text)
			}
		}
	case "json":
		var all diagfmt.DiagnosticsOutput
		all.Diagnostics = []diagfmt.DiagnosticJSON{}
		jsonOpts := diagfmt.JSONOpts{IncludePositions: true, PathMode: pathMode, IncludeNotes: withNotes}
		for _, res := range out.Results {
			all.Append(diagfmt.BuildDiagnosticsOutput(res.Bag, res.FileSet, jsonOpts))
		}
		if err := diagfmt.WriteJSON(w, all); err != nil {
			return err
		}
	case "sarif":
		inputs := make([]diagfmt.SarifInput, 0, len(out.Results))
		for _, res := range out.Results {
			inputs = append(inputs, diagfmt.SarifInput{Bag: res.Bag, FileSet: res.FileSet})
		}
		meta := diagfmt.SarifRunMeta{ToolName: "markc", ToolVersion: version.Version, InvocationArgs: os.Args}
		if err := diagfmt.Sarif(w, inputs, meta); err != nil {
			return err
		}
	}

	if out.Failed() > 0 {
		return errFailed
	}
	return nil
}

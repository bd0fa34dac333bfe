package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"markc/internal/buildpipeline"
	"markc/internal/diag"
	"markc/internal/diagfmt"
	"markc/internal/driver"
	"markc/internal/source"
	"markc/internal/trace"
)

func newBuildCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [file.xaml|directory]",
		Short: "Compile markup and write rewritten documents and binding artifacts",
		Long: `Compile every markup document under the directory (default: the current
directory) or a single file. Successful documents are written to the
project's out_dir as rewritten markup plus a .mkb binding artifact.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(a, cmd, args)
		},
	}
	addCompileFlags(cmd)
	cmd.Flags().String("out-dir", "", "artifact directory (overrides [compile].out_dir)")
	cmd.Flags().Bool("no-cache", false, "do not use the on-disk compile cache")
	cmd.Flags().String("ui", "auto", "progress UI for directory builds (auto|on|off)")
	cmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	return cmd
}

func runBuild(a *app, cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	flags, err := readCompileFlags(cmd)
	if err != nil {
		return err
	}
	outDirFlag, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return fmt.Errorf("failed to get out-dir flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}

	ctx := cmd.Context()
	span := trace.Begin(ctx, trace.ScopeDriver, "build")
	defer span.End("")
	ctx = span.Context(ctx)

	t, err := loadTarget(cmd, path)
	if err != nil {
		return err
	}
	if outDirFlag != "" {
		abs, absErr := filepath.Abs(outDirFlag)
		if absErr != nil {
			return absErr
		}
		t.Manifest.Config.Compile.OutDir = abs
	}
	opts := flags.options(t)
	outDir := opts.Config.Compile.OutDir

	if !noCache {
		cache, cacheErr := driver.OpenDiskCache("markc")
		if cacheErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: compile cache disabled: %v\n", cacheErr)
		} else {
			opts.Cache = cache
		}
	}

	var out *driver.DirResult
	useUI := t.IsDir && !flags.quiet && shouldUseTUI(mode, cmd.OutOrStdout())
	if useUI {
		files, listErr := driver.ListMarkup(t.Dir, opts.Config.Includes, outDir)
		if listErr != nil {
			return listErr
		}
		events := make(chan buildpipeline.Event, 256)
		opts.Progress = buildpipeline.ChannelSink{Ch: events}
		s := driver.NewSession(t.Catalog, opts)
		out, err = compileDirWithUI(ctx, cmd.OutOrStdout(), "markc build", files, func(ctx context.Context) (*driver.DirResult, error) {
			return s.CompileDir(ctx, t.Dir, flags.jobsFor(t))
		}, events)
	} else {
		out, err = compileTarget(ctx, driver.NewSession(t.Catalog, opts), t, flags.jobsFor(t))
	}
	if err != nil {
		return err
	}

	written := writeArtifacts(out, outDir)
	printPretty(cmd.ErrOrStderr(), out, diagfmt.PrettyOpts{Color: a.color, Context: 1, PathMode: diagfmt.PathModeRelative, ShowNotes: withNotes})
	if flags.timings {
		fmt.Fprint(cmd.ErrOrStderr(), out.Timing().String())
	}

	sum := summarize(out)
	if !flags.quiet {
		sum.print(cmd.OutOrStdout(), "built")
	}
	span.With("written", fmt.Sprint(written)).With("failed", fmt.Sprint(sum.failed))
	if sum.failed > 0 {
		return errFailed
	}
	return nil
}

// writeArtifacts stores every successful document under outDir and returns
// how many were written. A failed write becomes an IO error on the document.
func writeArtifacts(out *driver.DirResult, outDir string) int {
	written := 0
	for i, res := range out.Results {
		if res == nil || res.Artifact == nil || res.Failed() {
			continue
		}
		if err := res.Artifact.Write(outDir, out.Files[i]); err != nil {
			res.Bag.Add(diag.NewError(diag.IOWriteError, source.Span{File: res.File.ID}, err.Error()))
			continue
		}
		written++
	}
	return written
}

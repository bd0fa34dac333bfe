package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"markc/internal/pathexpr"
)

func newPathsCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "paths <path|{x:Bind ...}>",
		Short: "Parse a binding path and print its segments",
		Long: `Parse a binding path, or a whole {x:Bind} markup extension, and print the
segments with their byte offsets. Useful when a path is rejected and the
reason is not obvious.`,
		Args: cobra.ExactArgs(1),
		RunE: runPaths,
	}
}

func runPaths(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	input := args[0]
	path, base := input, 0

	ext, isExt, err := pathexpr.ParseExtension(input)
	if err != nil {
		reportPathError(w, input, err)
		return errFailed
	}
	if isExt {
		printExtension(w, ext)
		path, base = ext.Path, ext.PathOffset
	}

	segments, err := pathexpr.Parse(path)
	if err != nil {
		var pe *pathexpr.ParseError
		if errors.As(err, &pe) {
			pe.Offset += base
		}
		reportPathError(w, input, err)
		return errFailed
	}
	printSegments(w, segments, base, "")
	fmt.Fprintf(w, "canonical: %s\n", pathexpr.Format(segments))
	return nil
}

func printExtension(w io.Writer, ext *pathexpr.Extension) {
	kind := "x:Bind"
	if ext.Kind == pathexpr.ExtBind {
		kind = "Bind"
	}
	fmt.Fprintf(w, "extension: %s mode=%s\n", kind, ext.Mode)
	keys := make([]string, 0, len(ext.Options))
	for k := range ext.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opt := ext.Options[k]
		fmt.Fprintf(w, "  option %s=%q @%d\n", k, opt.Value, opt.Offset)
	}
}

func printSegments(w io.Writer, segments []pathexpr.Segment, base int, indent string) {
	for _, s := range segments {
		fmt.Fprintf(w, "%s%4d-%-4d %s\n", indent, base+s.Offset, base+s.End, s)
		for i, a := range s.Args {
			if a.Literal || a.Empty() {
				fmt.Fprintf(w, "%s    arg %d: %s\n", indent, i, a.Text)
				continue
			}
			fmt.Fprintf(w, "%s    arg %d:\n", indent, i)
			// смещения вложенного пути считаются от начала аргумента
			printSegments(w, a.Path, base+a.Offset, indent+"      ")
		}
	}
}

func reportPathError(w io.Writer, input string, err error) {
	red := color.New(color.FgRed, color.Bold)
	var pe *pathexpr.ParseError
	if !errors.As(err, &pe) {
		fmt.Fprintf(w, "%s %v\n", red.Sprint("error:"), err)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", red.Sprint("error:"), pe.Code.ID(), pe.Reason)
	fmt.Fprintf(w, "  %s\n", input)
	off := min(max(pe.Offset, 0), len(input))
	width := max(len(pe.Text), 1)
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", len([]rune(input[:off]))), red.Sprint("^"+strings.Repeat("~", width-1)))
}

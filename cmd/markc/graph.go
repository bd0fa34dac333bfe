package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"markc/internal/diagfmt"
	"markc/internal/driver"
	"markc/internal/trace"
)

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <file.xaml>",
		Short: "Dump bound elements, scopes, step graphs and bindings of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(a, cmd, args)
		},
	}
	cmd.Flags().String("schema", "", "type catalog (overrides [project].schema)")
	cmd.Flags().String("format", "table", "output format (table|json)")
	return cmd
}

func runGraph(a *app, cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format = strings.ToLower(format)
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	ctx := cmd.Context()
	span := trace.Begin(ctx, trace.ScopeDriver, "graph")
	defer span.End("")
	ctx = span.Context(ctx)

	t, err := loadTarget(cmd, args[0])
	if err != nil {
		return err
	}
	if t.IsDir {
		return fmt.Errorf("%s is a directory; graph takes one document", args[0])
	}
	res, err := driver.NewSession(t.Catalog, driver.Options{Config: t.Manifest.Config}).CompileFile(ctx, t.Path)
	if err != nil {
		return err
	}
	diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, diagfmt.PrettyOpts{Color: a.color, Context: 1})

	// граф полезен и при ошибках валидации, лишь бы привязка состоялась
	art := res.Artifact
	if art == nil && res.Binding != nil {
		art = driver.NewArtifact(res.File, res.Binding, "")
	}
	if art == nil {
		return errFailed
	}

	w := cmd.OutOrStdout()
	if format == "json" {
		data, err := art.JSON()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	} else {
		renderGraphTables(w, art)
	}
	if res.Failed() {
		return errFailed
	}
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func renderGraphTables(w io.Writer, art *driver.Artifact) {
	fmt.Fprintf(w, "%s (class %s)\n\n", art.Path, orDash(art.Class))

	elements := newTable(w, "ID", "Tag", "Name", "Scope", "Pos", "Flags")
	for _, e := range art.Elements {
		var flags []string
		if e.Retained {
			flags = append(flags, "retained")
		}
		if e.UsedByOtherScopes {
			flags = append(flags, "cross-scope")
		}
		elements.Append([]string{
			fmt.Sprint(e.ID), e.Tag, orDash(e.Name), fmt.Sprint(e.Scope),
			fmt.Sprintf("%d:%d", e.Line, e.Col), strings.Join(flags, ","),
		})
	}
	elements.SetFooter([]string{"", "", "", "", "Elements", fmt.Sprint(len(art.Elements))})
	elements.Render()
	fmt.Fprintln(w)

	for _, sc := range art.Scopes {
		fmt.Fprintf(w, "scope %d (%s", sc.ID, sc.Kind)
		if sc.DataType != "" {
			fmt.Fprintf(w, " of %s", sc.DataType)
		}
		if sc.NeedsOuterElement {
			fmt.Fprint(w, ", needs outer element")
		}
		fmt.Fprintln(w, ")")
		steps := newTable(w, "Step", "Parent", "Kind", "Key", "Ident", "Type", "Flags")
		for _, st := range sc.Steps {
			steps.Append([]string{
				fmt.Sprint(st.ID), parentOrDash(st.Parent), st.Kind, st.Key, st.Ident,
				orDash(st.Type), strings.Join(st.Flags, ","),
			})
		}
		steps.Render()
		fmt.Fprintln(w)
	}

	bindings := newTable(w, "Scope", "Element", "Kind", "Target", "Path", "Mode", "Pos")
	for _, b := range art.Bindings {
		bindings.Append([]string{
			fmt.Sprint(b.Scope), fmt.Sprint(b.Element), b.Kind, b.Target, b.Path, b.Mode,
			fmt.Sprintf("%d:%d", b.Line, b.Col),
		})
	}
	bindings.Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func parentOrDash(id uint32) string {
	if id == 0 {
		return "-"
	}
	return fmt.Sprint(id)
}

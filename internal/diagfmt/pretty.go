package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"markc/internal/diag"
	"markc/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, note, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее). Для каждой печатает
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строку исходника с подчёркиванием ^~~~ по Span и заметки.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, &d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	head := p.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID())
	f := fileOf(fs, d.Primary)
	if f == nil || !located(d) {
		fmt.Fprintf(w, "%s: %s\n", head, p.bold.Sprint(d.Message))
		if d.Code == diag.ObsTimings {
			return
		}
		printNotes(w, d, fs, opts, p)
		return
	}
	start, end := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", displayPath(fs, f, opts.PathMode), start.Line, start.Col, head, p.bold.Sprint(d.Message))
	printSnippet(w, f, start, end, opts.Context, p)
	printNotes(w, d, fs, opts, p)
}

func printNotes(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		label := p.note.Sprint("note")
		if f := fileOf(fs, n.Span); f != nil && located(d) {
			pos, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", label, displayPath(fs, f, opts.PathMode), pos.Line, pos.Col, n.Msg)
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", label, n.Msg)
	}
}

// printSnippet выводит строку начала span с контекстом и подчёркивание.
// Многострочный span подчёркивается до конца первой строки.
func printSnippet(w io.Writer, f *source.File, start, end source.LineCol, context int8, p palette) {
	total := uint32(len(f.LineIdx) + 1)
	ctx := uint32(max(context, 0))
	first := start.Line - min(ctx, start.Line-1)
	last := min(start.Line+ctx, total)
	gw := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		fmt.Fprintf(w, " %s %s %s\n", p.gutter.Sprintf("%*d", gw, ln), p.gutter.Sprint("|"), expandTabs(text))
		if ln != start.Line {
			continue
		}
		runes := []rune(text)
		from := min(int(start.Col)-1, len(runes))
		to := len(runes)
		if end.Line == start.Line {
			to = min(int(end.Col)-1, len(runes))
		}
		pad := runewidth.StringWidth(expandTabs(string(runes[:from])))
		width := max(runewidth.StringWidth(expandTabs(string(runes[from:max(to, from)]))), 1)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, " %s %s %s%s\n", strings.Repeat(" ", gw), p.gutter.Sprint("|"), strings.Repeat(" ", pad), p.caret.Sprint(marker))
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

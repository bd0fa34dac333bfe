package rewrite

import (
	"sort"
	"strings"
)

// Point is a 0-based line and rune column in the original text.
type Point struct {
	Line int
	Col  int
}

func (p Point) Less(q Point) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

type EditKind uint8

const (
	// EditBlank replaces every rune in [From, To) with a space.
	EditBlank EditKind = iota
	// EditInsert splices Text in at From.
	EditInsert
)

// Edit is one change computed against original coordinates.
type Edit struct {
	Kind EditKind
	From Point
	To   Point
	Text string
	// Name identifies what the edit belongs to, for error messages.
	Name string
}

// Lines is the mutable line buffer a plan is applied to.
type Lines [][]rune

// SplitLines copies text into a line buffer. Line breaks are not stored.
func SplitLines(text string) Lines {
	parts := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	out := make(Lines, len(parts))
	for i, p := range parts {
		out[i] = []rune(p)
	}
	return out
}

// String joins the buffer with a single trailing newline.
func (ls Lines) String() string {
	var b strings.Builder
	for _, l := range ls {
		b.WriteString(string(l))
		b.WriteByte('\n')
	}
	return b.String()
}

func (ls Lines) at(p Point) (rune, bool) {
	if p.Line < 0 || p.Line >= len(ls) || p.Col < 0 || p.Col >= len(ls[p.Line]) {
		return 0, false
	}
	return ls[p.Line][p.Col], true
}

// conflicts reports overlapping edits. Ranges are half-open; two inserts never
// conflict, an insert conflicts with a blank strictly containing its point.
func conflicts(a, b Edit) bool {
	if a.Kind == EditInsert && b.Kind == EditInsert {
		return false
	}
	if a.Kind == EditInsert {
		return b.From.Less(a.From) && a.From.Less(b.To)
	}
	if b.Kind == EditInsert {
		return a.From.Less(b.From) && b.From.Less(a.To)
	}
	return a.From.Less(b.To) && b.From.Less(a.To)
}

// sortDescending orders edits from the end of the document to the start so
// applying one never moves the coordinates of another.
func sortDescending(edits []Edit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].From != edits[j].From {
			return edits[j].From.Less(edits[i].From)
		}
		// на одной точке сначала затирание: вставка сдвигает текст вправо
		return edits[i].Kind == EditBlank && edits[j].Kind == EditInsert
	})
}

func (ls Lines) apply(e Edit) {
	switch e.Kind {
	case EditInsert:
		line := ls[e.From.Line]
		text := []rune(e.Text)
		out := make([]rune, 0, len(line)+len(text))
		out = append(out, line[:e.From.Col]...)
		out = append(out, text...)
		out = append(out, line[e.From.Col:]...)
		ls[e.From.Line] = out
	case EditBlank:
		for l := e.From.Line; l <= e.To.Line; l++ {
			from, to := 0, len(ls[l])
			if l == e.From.Line {
				from = e.From.Col
			}
			if l == e.To.Line {
				to = e.To.Col
			}
			for c := from; c < to; c++ {
				ls[l][c] = ' '
			}
		}
	}
}

package rewrite

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"fortio.org/safecast"

	"markc/internal/binding"
	"markc/internal/markup"
	"markc/internal/platform"
)

// DefaultConnectionAttr is the attribute that carries connection ids.
const DefaultConnectionAttr = binding.DefaultConnectionAttr

type Options struct {
	// ConnectionAttr names the inserted attribute. When empty the attribute
	// the binding pass honoured is used.
	ConnectionAttr string
	// Platform, when set, strips objects, attributes and namespace clauses
	// disabled for the target.
	Platform *platform.Target
}

// Plan is the full set of edits for one document, computed against the
// original coordinates.
type Plan struct {
	Edits []Edit
	// Blanked counts consumed attributes; Inserted counts connection ids.
	Blanked  int
	Inserted int
	Stripped int
}

type planner struct {
	lines Lines
	doc   *markup.Document
	res   *binding.Result
	opts  Options
	plan  *Plan
	// стёртые целиком элементы и атрибуты: внутри них ничего не планируем
	stripped      map[*markup.Element]bool
	strippedAttrs map[*markup.Attribute]bool
}

// NewPlan computes the edits for doc. lines must hold doc.Text.
func NewPlan(lines Lines, doc *markup.Document, res *binding.Result, opts Options) (*Plan, error) {
	if opts.ConnectionAttr == "" && res != nil {
		opts.ConnectionAttr = res.ConnectionAttr
	}
	if opts.ConnectionAttr == "" {
		opts.ConnectionAttr = DefaultConnectionAttr
	}
	p := &planner{
		lines:         lines,
		doc:           doc,
		res:           res,
		opts:          opts,
		plan:          &Plan{},
		stripped:      make(map[*markup.Element]bool),
		strippedAttrs: make(map[*markup.Attribute]bool),
	}
	if doc == nil || doc.Root == nil {
		return p.plan, nil
	}
	p.platform()
	if err := p.consumed(); err != nil {
		return nil, err
	}
	if err := p.connectionIDs(); err != nil {
		return nil, err
	}
	if err := p.checkOverlaps(); err != nil {
		return nil, err
	}
	return p.plan, nil
}

// Apply performs the plan on lines, last edit first.
func (pl *Plan) Apply(lines Lines) {
	edits := append([]Edit(nil), pl.Edits...)
	sortDescending(edits)
	for _, e := range edits {
		lines.apply(e)
	}
}

func point(pos markup.Pos) Point {
	return Point{Line: int(pos.Line) - 1, Col: int(pos.Col) - 1}
}

// quoted plans blanking of an attribute value including both quotes.
func (p *planner) quoted(a *markup.Attribute, spannable bool) error {
	name := a.Name.String()
	if a.SpansLines() && !spannable {
		return &LayoutError{Kind: LayoutErrSpansLines, Span: a.Span(), Line: a.Start.Line, Col: a.Start.Col, Name: name}
	}
	from, to := point(a.ValueStart), point(a.ValueEnd)
	open, ok := p.lines.at(from)
	if !ok || open != rune(a.Quote) {
		return &LayoutError{Kind: LayoutErrValueNotFound, Span: a.ValueSpan(), Line: a.ValueStart.Line, Col: a.ValueStart.Col, Name: name}
	}
	last := Point{Line: to.Line, Col: to.Col - 1}
	closing, ok := p.lines.at(last)
	if !ok {
		return &LayoutError{Kind: LayoutErrUnterminated, Span: a.ValueSpan(), Line: a.ValueStart.Line, Col: a.ValueStart.Col, Name: name}
	}
	if closing != rune(a.Quote) {
		return &LayoutError{Kind: LayoutErrValueNotFound, Span: a.ValueSpan(), Line: a.ValueStart.Line, Col: a.ValueStart.Col, Name: name}
	}
	p.plan.Edits = append(p.plan.Edits, Edit{Kind: EditBlank, From: from, To: to, Name: name})
	return nil
}

// consumed blanks every binding, event hookup and phase marker.
func (p *planner) consumed() error {
	spannable := make(map[*markup.Attribute]bool, len(p.res.Bindings))
	for _, b := range p.res.Bindings {
		if b.Ext != nil {
			spannable[b.Attr] = true
		}
	}
	for _, a := range p.res.Consumed {
		if p.stripped[a.Owner] || p.strippedAttrs[a] {
			continue
		}
		if err := p.quoted(a, spannable[a]); err != nil {
			return err
		}
		p.plan.Blanked++
	}
	return nil
}

// connectionIDs inserts an id attribute into every bound element that lacks
// one, from the last element in document order to the first. Elements with
// an id of their own were bound under that id.
func (p *planner) connectionIDs() error {
	elements := append([]*binding.BoundElement(nil), p.res.Universe.Elements()...)
	sort.SliceStable(elements, func(i, j int) bool {
		return elements[i].Element.Start.Offset > elements[j].Element.Start.Offset
	})
	for _, be := range elements {
		el := be.Element
		if p.stripped[el] || p.hasConnectionAttr(el) {
			continue
		}
		at, err := p.insertionPoint(el)
		if err != nil {
			return err
		}
		p.plan.Edits = append(p.plan.Edits, Edit{
			Kind: EditInsert,
			From: at,
			To:   at,
			Text: fmt.Sprintf(" %s=\"%d\"", p.opts.ConnectionAttr, be.ID),
			Name: el.Name.String(),
		})
		p.plan.Inserted++
	}
	return nil
}

func (p *planner) hasConnectionAttr(el *markup.Element) bool {
	return binding.ConnectionAttrOf(el, p.opts.ConnectionAttr) != nil
}

// insertionPoint finds the first whitespace at or after the element start on
// its start line, or else the first '/' or '>'. The end of the line counts as
// whitespace.
func (p *planner) insertionPoint(el *markup.Element) (Point, error) {
	start := point(el.Start)
	if r, ok := p.lines.at(start); !ok || r != '<' {
		return Point{}, &LayoutError{Kind: LayoutErrNoInsertionPoint, Span: el.Span(), Line: el.Start.Line, Col: el.Start.Col, Name: el.Name.String()}
	}
	line := p.lines[start.Line]
	for c := start.Col + 1; c < len(line); c++ {
		if r := line[c]; unicode.IsSpace(r) || r == '/' || r == '>' {
			return Point{Line: start.Line, Col: c}, nil
		}
	}
	return Point{Line: start.Line, Col: len(line)}, nil
}

func (p *planner) checkOverlaps() error {
	edits := append([]Edit(nil), p.plan.Edits...)
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].From.Less(edits[j].From) })
	for i := 1; i < len(edits); i++ {
		for j := i - 1; j >= 0; j-- {
			if !conflicts(edits[j], edits[i]) {
				continue
			}
			e := edits[i]
			line, _ := safecast.Conv[uint32](e.From.Line + 1)
			col, _ := safecast.Conv[uint32](e.From.Col + 1)
			return &LayoutError{
				Kind: LayoutErrOverlap,
				Line: line,
				Col:  col,
				Name: strings.Join([]string{edits[j].Name, e.Name}, " and "),
			}
		}
	}
	return nil
}

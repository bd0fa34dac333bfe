package rewrite

import "markc/internal/markup"

// platform strips what the target disables: whole objects, attributes, and
// namespace declarations or their failing clauses.
func (p *planner) platform() {
	t := p.opts.Platform
	if t == nil {
		return
	}
	markup.Walk(p.doc.Root, func(el *markup.Element) bool {
		if t.ElementDisabled(el) {
			p.stripElement(el)
			return false
		}
		for _, ns := range el.Namespaces {
			p.namespace(ns)
		}
		for _, a := range el.Attrs {
			if t.AttrDisabled(a) {
				p.strippedAttrs[a] = true
				p.blank(point(a.Start), point(a.ValueEnd), a.Name.String())
			}
		}
		return true
	}, nil)
}

func (p *planner) blank(from, to Point, name string) {
	p.plan.Edits = append(p.plan.Edits, Edit{Kind: EditBlank, From: from, To: to, Name: name})
	p.plan.Stripped++
}

// stripElement blanks el from '<' through its closing tag.
func (p *planner) stripElement(el *markup.Element) {
	markup.Walk(el, func(x *markup.Element) bool {
		p.stripped[x] = true
		return true
	}, nil)
	p.blank(point(el.Start), point(el.End), el.Name.String())
}

// namespace blanks a disabled conditional declaration: the whole value when
// no clause holds, otherwise each run of adjacent failing clauses together
// with one separator.
func (p *planner) namespace(ns markup.NamespaceDecl) {
	disabled := p.opts.Platform.DisabledClauses(ns.URI)
	if len(disabled) == 0 || ns.Attr == nil {
		return
	}
	a := ns.Attr
	_, all := markup.SplitConditional(ns.URI)
	if len(disabled) == len(all) {
		p.blank(point(a.PosAt(0)), point(a.PosAt(len(a.Value))), a.Name.String())
		return
	}
	off := make(map[int]bool, len(disabled))
	for _, c := range disabled {
		off[c.Offset] = true
	}
	for i := 0; i < len(all); i++ {
		if !off[all[i].Offset] {
			continue
		}
		j := i
		for j+1 < len(all) && off[all[j+1].Offset] {
			j++
		}
		s, e := all[i].Offset, all[j].Offset+len(all[j].Text)
		if j+1 < len(all) {
			e = all[j+1].Offset
		} else {
			// хвостовая серия забирает разделитель перед собой
			prev := all[i-1]
			s = prev.Offset + len(prev.Text)
		}
		p.blank(point(a.PosAt(s)), point(a.PosAt(e)), a.Name.String())
		i = j
	}
}

package markup

import (
	"fmt"
	"strings"

	"markc/internal/source"
)

// Pos is a position in the document: 1-based line, 1-based character column
// and the byte offset into the file content.
type Pos struct {
	Line   uint32
	Col    uint32
	Offset uint32
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// QName is a possibly prefixed markup name.
type QName struct {
	Prefix string
	Local  string
}

func (q QName) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

type Document struct {
	File source.FileID
	Path string
	Text string
	Root *Element
}

type Element struct {
	Name         QName
	NamespaceURI string
	// Conditional is the declared namespace URI when it carries platform
	// conditions; NamespaceURI is then the URI with conditions stripped.
	Conditional  string
	Attrs        []*Attribute
	Children     []*Element
	Parent       *Element
	Namespaces   []NamespaceDecl

	Start       Pos // '<'
	StartTagEnd Pos // сразу после '>' открывающего тега
	End         Pos // сразу после последнего '>' элемента
	SelfClosing bool

	file source.FileID
}

type Attribute struct {
	Name         QName
	NamespaceURI string
	Conditional  string
	// Value is the attribute text with references decoded.
	Value string
	// Raw is the text between the quotes exactly as written.
	Raw   string
	Quote byte
	Owner *Element

	Start      Pos // первый символ имени
	ValueStart Pos // открывающая кавычка
	ValueEnd   Pos // сразу после закрывающей кавычки

	rawIndex []uint32 // offset in Raw for each byte of Value; nil when identical
	file     *source.File
}

type NamespaceDecl struct {
	Prefix string
	URI    string
	Attr   *Attribute
}

// Span returns the element's source span from '<' through its end.
func (e *Element) Span() source.Span {
	return source.Span{File: e.file, Start: e.Start.Offset, End: e.End.Offset}
}

// Attr returns the attribute with the given namespace and local name.
func (e *Element) Attr(ns, local string) *Attribute {
	for _, a := range e.Attrs {
		if a.NamespaceURI == ns && a.Name.Local == local {
			return a
		}
	}
	return nil
}

// LanguageAttr is Attr for the language namespace (x:Name, x:Load, ...).
func (e *Element) LanguageAttr(local string) *Attribute {
	return e.Attr(NSLanguage, local)
}

// IsPropertyElement reports whether the element is a property element such
// as <Grid.Resources>.
func (e *Element) IsPropertyElement() bool {
	return strings.Contains(e.Name.Local, ".")
}

// PropertyOwner splits a property element name into its owner type and member.
func (e *Element) PropertyOwner() (owner, member string) {
	owner, member, _ = strings.Cut(e.Name.Local, ".")
	return owner, member
}

// LookupNamespace resolves prefix against the declarations in scope.
func (e *Element) LookupNamespace(prefix string) (string, bool) {
	for el := e; el != nil; el = el.Parent {
		for _, ns := range el.Namespaces {
			if ns.Prefix == prefix {
				return ns.URI, true
			}
		}
	}
	switch prefix {
	case "xml":
		return NSXML, true
	case "":
		return "", true
	}
	return "", false
}

// Span returns the span of the whole attribute, name through closing quote.
func (a *Attribute) Span() source.Span {
	return source.Span{File: a.file.ID, Start: a.Start.Offset, End: a.ValueEnd.Offset}
}

// ValueSpan returns the span of the quoted value including both quotes.
func (a *Attribute) ValueSpan() source.Span {
	return source.Span{File: a.file.ID, Start: a.ValueStart.Offset, End: a.ValueEnd.Offset}
}

// SpansLines reports whether the quoted value crosses a line break.
func (a *Attribute) SpansLines() bool {
	return a.ValueStart.Line != a.ValueEnd.Line
}

// RawOffset maps a byte offset in Value to the offset in Raw.
func (a *Attribute) RawOffset(valueOff int) int {
	if a.rawIndex == nil {
		return valueOff
	}
	if valueOff >= len(a.rawIndex) {
		return len(a.Raw) - (len(a.Value) - valueOff)
	}
	return int(a.rawIndex[valueOff])
}

// PosAt returns the document position of the byte at valueOff in Value.
func (a *Attribute) PosAt(valueOff int) Pos {
	off := a.ValueStart.Offset + 1 + uint32(max(a.RawOffset(valueOff), 0))
	if a.file == nil {
		return Pos{Offset: off}
	}
	lc := a.file.LineCol(off)
	return Pos{Line: lc.Line, Col: lc.Col, Offset: off}
}

// SpanAt returns a span of n value bytes starting at valueOff.
func (a *Attribute) SpanAt(valueOff, n int) source.Span {
	start := a.PosAt(valueOff).Offset
	end := a.PosAt(valueOff + n).Offset
	var file source.FileID
	if a.file != nil {
		file = a.file.ID
	}
	return source.Span{File: file, Start: start, End: end}
}

// Walk visits the tree depth first. Children are skipped when enter returns
// false; exit, if not nil, runs after the children of every entered element.
func Walk(root *Element, enter func(*Element) bool, exit func(*Element)) {
	if root == nil {
		return
	}
	type frame struct {
		el   *Element
		next int
	}
	if !enter(root) {
		return
	}
	stack := []frame{{el: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.el.Children) {
			child := top.el.Children[top.next]
			top.next++
			if enter(child) {
				stack = append(stack, frame{el: child})
			}
			continue
		}
		if exit != nil {
			exit(top.el)
		}
		stack = stack[:len(stack)-1]
	}
}

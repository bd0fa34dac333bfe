package markup

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"markc/internal/diag"
	"markc/internal/source"
)

// SyntaxError is a positioned structural error.
type SyntaxError struct {
	Code diag.Code
	Span source.Span
	Pos  Pos
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

type parser struct {
	c     cursor
	doc   *Document
	stack []*Element
}

// Parse builds the element tree of f.
func Parse(f *source.File) (*Document, error) {
	p := &parser{
		c: newCursor(f),
		doc: &Document{
			File: f.ID,
			Path: f.Path,
			Text: string(f.Content),
		},
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

// ParseString is Parse over an in-memory document.
func ParseString(name, text string) (*Document, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual(name, []byte(text))
	return Parse(fs.Get(id))
}

func (p *parser) errAt(code diag.Code, start, end uint32, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Code: code,
		Span: source.Span{File: p.c.file.ID, Start: start, End: end},
		Pos:  p.c.pos(start),
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (p *parser) parse() error {
	for !p.c.eof() {
		if p.c.peek() != '<' {
			if err := p.text(); err != nil {
				return err
			}
			continue
		}
		start := p.c.off
		switch {
		case p.c.hasPrefix("<?"):
			if !p.c.skipPast("?>") {
				return p.errAt(diag.MkpUnterminated, start, p.c.off, "unterminated processing instruction")
			}
		case p.c.hasPrefix("<!--"):
			if !p.c.skipPast("-->") {
				return p.errAt(diag.MkpUnterminated, start, p.c.off, "unterminated comment")
			}
		case p.c.hasPrefix("<![CDATA["):
			if len(p.stack) == 0 {
				return p.errAt(diag.MkpSyntax, start, start+9, "CDATA section outside of the root element")
			}
			if !p.c.skipPast("]]>") {
				return p.errAt(diag.MkpUnterminated, start, p.c.off, "unterminated CDATA section")
			}
		case p.c.hasPrefix("<!"):
			if !p.c.skipPast(">") {
				return p.errAt(diag.MkpUnterminated, start, p.c.off, "unterminated declaration")
			}
		case p.c.hasPrefix("</"):
			if err := p.endTag(); err != nil {
				return err
			}
		default:
			if err := p.startTag(); err != nil {
				return err
			}
		}
	}
	if n := len(p.stack); n > 0 {
		top := p.stack[n-1]
		return p.errAt(diag.MkpUnclosedTag, top.Start.Offset, top.StartTagEnd.Offset, "element <%s> is not closed", top.Name)
	}
	if p.doc.Root == nil {
		return p.errAt(diag.MkpNoRootElement, 0, 0, "document has no root element")
	}
	return nil
}

func (p *parser) text() error {
	start := p.c.off
	for !p.c.eof() && p.c.peek() != '<' {
		p.c.bump()
	}
	if len(p.stack) > 0 {
		return nil
	}
	if strings.TrimSpace(string(p.c.file.Content[start:p.c.off])) != "" {
		return p.errAt(diag.MkpSyntax, start, p.c.off, "text outside of the root element")
	}
	return nil
}

func (p *parser) name() (QName, error) {
	start := p.c.off
	for !p.c.eof() {
		r, size := utf8.DecodeRune(p.c.file.Content[p.c.off:p.c.limit])
		if !isNameRune(r, p.c.off == start) {
			break
		}
		p.c.off += uint32(size)
	}
	if p.c.off == start {
		return QName{}, p.errAt(diag.MkpSyntax, start, start, "expected a name")
	}
	raw := string(p.c.file.Content[start:p.c.off])
	if prefix, local, ok := strings.Cut(raw, ":"); ok {
		if prefix == "" || local == "" || strings.Contains(local, ":") {
			return QName{}, p.errAt(diag.MkpSyntax, start, p.c.off, "malformed name %q", raw)
		}
		return QName{Prefix: prefix, Local: local}, nil
	}
	return QName{Local: raw}, nil
}

func isNameRune(r rune, first bool) bool {
	if r == '_' || unicode.IsLetter(r) {
		return true
	}
	if first {
		return false
	}
	return r == '-' || r == '.' || r == ':' || unicode.IsDigit(r)
}

func (p *parser) startTag() error {
	start := p.c.off
	p.c.bump() // '<'
	name, err := p.name()
	if err != nil {
		return err
	}
	el := &Element{Name: name, Start: p.c.pos(start), file: p.c.file.ID}
	if len(p.stack) > 0 {
		el.Parent = p.stack[len(p.stack)-1]
	} else if p.doc.Root != nil {
		return p.errAt(diag.MkpSyntax, start, p.c.off, "document has more than one root element")
	}

	for {
		hadSpace := p.c.off
		p.c.skipSpace()
		if p.c.eof() {
			return p.errAt(diag.MkpUnterminated, start, p.c.off, "unterminated start tag <%s>", name)
		}
		if p.c.hasPrefix("/>") {
			p.c.off += 2
			el.SelfClosing = true
			break
		}
		if p.c.eat('>') {
			break
		}
		if hadSpace == p.c.off {
			return p.errAt(diag.MkpSyntax, p.c.off, p.c.off+1, "expected whitespace before attribute")
		}
		attr, err := p.attribute(el)
		if err != nil {
			return err
		}
		for _, other := range el.Attrs {
			if other.Name == attr.Name {
				return p.errAt(diag.MkpDuplicateAttr, attr.Start.Offset, attr.ValueEnd.Offset, "duplicate attribute %s", attr.Name)
			}
		}
		el.Attrs = append(el.Attrs, attr)
	}
	el.StartTagEnd = p.c.pos(p.c.off)

	if err := p.resolveNames(el); err != nil {
		return err
	}

	if el.Parent != nil {
		el.Parent.Children = append(el.Parent.Children, el)
	} else {
		p.doc.Root = el
	}
	if el.SelfClosing {
		el.End = el.StartTagEnd
		return nil
	}
	p.stack = append(p.stack, el)
	return nil
}

func (p *parser) attribute(owner *Element) (*Attribute, error) {
	start := p.c.off
	name, err := p.name()
	if err != nil {
		return nil, err
	}
	p.c.skipSpace()
	if !p.c.eat('=') {
		return nil, p.errAt(diag.MkpSyntax, start, p.c.off, "attribute %s has no value", name)
	}
	p.c.skipSpace()
	quote := p.c.peek()
	if quote != '"' && quote != '\'' {
		return nil, p.errAt(diag.MkpSyntax, p.c.off, p.c.off+1, "attribute value must be quoted")
	}
	valueStart := p.c.off
	p.c.bump()
	rawStart := p.c.off
	for !p.c.eof() && p.c.peek() != quote {
		if p.c.peek() == '<' {
			return nil, p.errAt(diag.MkpSyntax, p.c.off, p.c.off+1, "'<' is not allowed in attribute values")
		}
		p.c.bump()
	}
	if p.c.eof() {
		return nil, p.errAt(diag.MkpUnterminated, valueStart, p.c.off, "unterminated attribute value")
	}
	raw := string(p.c.file.Content[rawStart:p.c.off])
	p.c.bump()

	value, index, err := decodeReferences(raw)
	if err != nil {
		return nil, p.errAt(diag.MkpSyntax, rawStart, p.c.off-1, "%v", err)
	}
	return &Attribute{
		Name:       name,
		Value:      value,
		Raw:        raw,
		Quote:      quote,
		Owner:      owner,
		Start:      p.c.pos(start),
		ValueStart: p.c.pos(valueStart),
		ValueEnd:   p.c.pos(p.c.off),
		rawIndex:   index,
		file:       p.c.file,
	}, nil
}

// resolveNames collects xmlns declarations and resolves prefixes of the
// element and its attributes.
func (p *parser) resolveNames(el *Element) error {
	for _, a := range el.Attrs {
		switch {
		case a.Name.Prefix == "" && a.Name.Local == "xmlns":
			el.Namespaces = append(el.Namespaces, NamespaceDecl{URI: a.Value, Attr: a})
		case a.Name.Prefix == "xmlns":
			el.Namespaces = append(el.Namespaces, NamespaceDecl{Prefix: a.Name.Local, URI: a.Value, Attr: a})
		}
	}
	uri, ok := el.LookupNamespace(el.Name.Prefix)
	if !ok {
		return p.errAt(diag.MkpUnknownPrefix, el.Start.Offset+1, el.Start.Offset+1+uint32(len(el.Name.Prefix)), "unknown namespace prefix %q", el.Name.Prefix)
	}
	el.NamespaceURI, el.Conditional = splitDeclared(uri)
	for _, a := range el.Attrs {
		if a.Name.Prefix == "" || a.Name.Prefix == "xmlns" {
			continue
		}
		uri, ok := el.LookupNamespace(a.Name.Prefix)
		if !ok {
			return p.errAt(diag.MkpUnknownPrefix, a.Start.Offset, a.Start.Offset+uint32(len(a.Name.Prefix)), "unknown namespace prefix %q", a.Name.Prefix)
		}
		a.NamespaceURI, a.Conditional = splitDeclared(uri)
	}
	return nil
}

func splitDeclared(uri string) (base, conditional string) {
	base = BaseURI(uri)
	if base != uri {
		conditional = uri
	}
	return base, conditional
}

func (p *parser) endTag() error {
	start := p.c.off
	p.c.off += 2
	name, err := p.name()
	if err != nil {
		return err
	}
	p.c.skipSpace()
	if !p.c.eat('>') {
		return p.errAt(diag.MkpSyntax, start, p.c.off, "malformed end tag </%s>", name)
	}
	if len(p.stack) == 0 {
		return p.errAt(diag.MkpMismatchedTag, start, p.c.off, "unexpected end tag </%s>", name)
	}
	top := p.stack[len(p.stack)-1]
	if top.Name != name {
		return p.errAt(diag.MkpMismatchedTag, start, p.c.off, "end tag </%s> does not match <%s> at %s", name, top.Name, top.Start)
	}
	top.End = p.c.pos(p.c.off)
	p.stack = p.stack[:len(p.stack)-1]
	return nil
}

var namedEntities = map[string]string{
	"lt":   "<",
	"gt":   ">",
	"amp":  "&",
	"quot": "\"",
	"apos": "'",
}

// decodeReferences expands entity and character references. index maps each
// byte of the decoded value to its offset in raw and is nil when raw has no
// references.
func decodeReferences(raw string) (string, []uint32, error) {
	if !strings.Contains(raw, "&") {
		return raw, nil, nil
	}
	var b strings.Builder
	index := make([]uint32, 0, len(raw))
	for i := 0; i < len(raw); {
		if raw[i] != '&' {
			b.WriteByte(raw[i])
			index = append(index, uint32(i))
			i++
			continue
		}
		end := strings.IndexByte(raw[i:], ';')
		if end < 0 {
			return "", nil, fmt.Errorf("unterminated reference at offset %d", i)
		}
		ref := raw[i+1 : i+end]
		var repl string
		if strings.HasPrefix(ref, "#") {
			num := ref[1:]
			base := 10
			if strings.HasPrefix(num, "x") || strings.HasPrefix(num, "X") {
				num, base = num[1:], 16
			}
			n, err := strconv.ParseUint(num, base, 32)
			if err != nil || !utf8.ValidRune(rune(n)) {
				return "", nil, fmt.Errorf("invalid character reference &%s;", ref)
			}
			repl = string(rune(n))
		} else if v, ok := namedEntities[ref]; ok {
			repl = v
		} else {
			return "", nil, fmt.Errorf("unknown entity &%s;", ref)
		}
		for n := len(repl); n > 0; n-- {
			index = append(index, uint32(i))
		}
		b.WriteString(repl)
		i += end + 1
	}
	return b.String(), index, nil
}

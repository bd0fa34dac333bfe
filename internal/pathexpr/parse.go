package pathexpr

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"markc/internal/diag"
)

// Parse splits a binding path into segments. An empty path is a single Root
// segment binding the whole data context.
func Parse(path string) ([]Segment, error) {
	return parseAt(path, 0)
}

// parseAt parses path whose first byte sits at base in the enclosing path,
// so nested argument paths report absolute offsets.
func parseAt(path string, base int) ([]Segment, error) {
	start, end := trimBounds(path)
	if start == end {
		return []Segment{{Kind: SegRoot, Offset: base + start, End: base + start}}, nil
	}
	p := &parser{src: path, pos: start, end: end, base: base}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.segs, nil
}

type parser struct {
	src  string
	pos  int
	end  int
	base int
	segs []Segment
}

func (p *parser) fail(code diag.Code, from, to int, reason string) *ParseError {
	if to > p.end {
		to = p.end
	}
	if to <= from && from < p.end {
		_, size := utf8.DecodeRuneInString(p.src[from:])
		to = from + size
	}
	return &ParseError{Code: code, Text: p.src[from:to], Offset: p.base + from, Reason: reason}
}

func (p *parser) peek() byte {
	if p.pos >= p.end {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) push(s Segment) {
	s.Offset += p.base
	s.End += p.base
	p.segs = append(p.segs, s)
}

func (p *parser) parse() error {
	for {
		if err := p.primary(); err != nil {
			return err
		}
		if err := p.postfix(); err != nil {
			return err
		}
		if p.pos >= p.end {
			return nil
		}
		switch c := p.peek(); c {
		case '.':
			p.pos++
			if p.pos >= p.end {
				return p.fail(diag.PathEmptySegment, p.pos-1, p.pos, "path ends with '.'")
			}
		case ')':
			return p.fail(diag.PathUnmatchedParen, p.pos, p.pos+1, "unmatched ')'")
		case ']':
			return p.fail(diag.PathUnmatchedBracket, p.pos, p.pos+1, "unmatched ']'")
		default:
			return p.fail(diag.PathUnexpectedChar, p.pos, p.pos, "unexpected character")
		}
	}
}

// primary reads a member name, an attached member (Owner.Name), or a cast
// (Type) followed by the member it applies to.
func (p *parser) primary() error {
	switch c := p.peek(); {
	case c == '(':
		open := p.pos
		close, err := p.matching(open, '(', ')')
		if err != nil {
			return err
		}
		inner := p.src[open+1 : close]
		if strings.Count(inner, ".") > 1 {
			return p.fail(diag.PathTooManyDots, open, close+1, "more than one '.' inside parentheses")
		}
		p.pos = close + 1
		if isIdentStart(p.runeAt(p.pos)) {
			name := strings.TrimSpace(inner)
			if !validQualifiedName(name) {
				return p.fail(diag.PathUnexpectedChar, open, close+1, "invalid cast type")
			}
			p.push(Segment{Kind: SegCast, Name: name, Offset: open, End: close + 1})
			return p.member()
		}
		owner, name, ok := strings.Cut(strings.TrimSpace(inner), ".")
		if !ok || !validQualifiedName(owner) || !validIdent(name) {
			return p.fail(diag.PathUnexpectedChar, open, close+1, "expected (Owner.Member) or a cast followed by a member")
		}
		p.push(Segment{Kind: SegMember, Name: name, Owner: owner, Offset: open, End: close + 1})
		return nil
	case c == '.':
		return p.fail(diag.PathEmptySegment, p.pos, p.pos+1, "empty path segment")
	case c == '[' && len(p.segs) == 0:
		// индексатор прямо на корне: "[0]"
		return nil
	}
	return p.member()
}

func (p *parser) member() error {
	start := p.pos
	if !isIdentStart(p.runeAt(p.pos)) {
		if p.pos >= p.end {
			return p.fail(diag.PathEmptySegment, max(start-1, 0), start, "missing member name")
		}
		return p.fail(diag.PathUnexpectedChar, p.pos, p.pos, "expected a member name")
	}
	colon := false
	for p.pos < p.end {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r == ':' && !colon && p.pos > start {
			colon = true
		} else if !isIdentPart(r) {
			break
		}
		p.pos += size
	}
	name := p.src[start:p.pos]
	if strings.HasSuffix(name, ":") {
		return p.fail(diag.PathUnexpectedChar, start, p.pos, "prefix without a name")
	}
	p.push(Segment{Kind: SegMember, Name: name, Offset: start, End: p.pos})
	return nil
}

func (p *parser) postfix() error {
	for p.pos < p.end {
		switch p.peek() {
		case '(':
			open := p.pos
			close, err := p.matching(open, '(', ')')
			if err != nil {
				return err
			}
			args, err := p.args(open+1, close)
			if err != nil {
				return err
			}
			p.pos = close + 1
			p.push(Segment{Kind: SegCall, Args: args, Offset: open, End: close + 1})
		case '[':
			open := p.pos
			close := strings.IndexByte(p.src[open:p.end], ']')
			if close < 0 {
				return p.fail(diag.PathUnclosedBracket, open, p.end, "unclosed '['")
			}
			close += open
			if strings.IndexByte(p.src[open+1:close], '[') >= 0 {
				return p.fail(diag.PathUnclosedBracket, open, close+1, "nested '[' inside indexer")
			}
			p.pos = close + 1
			p.push(Segment{Kind: SegIndex, Name: p.src[open+1 : close], Offset: open, End: close + 1})
		default:
			return nil
		}
	}
	return nil
}

// matching finds the closing delimiter for the opener at from, skipping
// quoted text and nested pairs.
func (p *parser) matching(from int, open, close byte) (int, error) {
	depth := 0
	var quote byte
	for i := from; i < p.end; i++ {
		c := p.src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	if open == '(' {
		return 0, p.fail(diag.PathUnclosedParen, from, p.end, "unclosed '('")
	}
	return 0, p.fail(diag.PathUnclosedBracket, from, p.end, "unclosed '['")
}

// args splits src[from:to] on top-level commas.
func (p *parser) args(from, to int) ([]Arg, error) {
	if strings.TrimSpace(p.src[from:to]) == "" {
		return nil, nil
	}
	var out []Arg
	depth := 0
	var quote byte
	argStart := from
	flush := func(end int) error {
		a, err := p.arg(argStart, end)
		if err != nil {
			return err
		}
		out = append(out, a)
		argStart = end + 1
		return nil
	}
	for i := from; i < to; i++ {
		c := p.src[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			if err := flush(i); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(to); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *parser) arg(from, to int) (Arg, error) {
	s, e := trimBounds(p.src[from:to])
	text := p.src[from+s : from+e]
	a := Arg{Text: text, Offset: p.base + from + s}
	if isLiteral(text) {
		a.Literal = true
		return a, nil
	}
	segs, err := parseAt(text, p.base+from+s)
	if err != nil {
		return Arg{}, err
	}
	a.Path = segs
	return a, nil
}

func isLiteral(text string) bool {
	if len(text) >= 2 && (text[0] == '\'' || text[0] == '"') && text[len(text)-1] == text[0] {
		return true
	}
	switch text {
	case "x:True", "x:False", "x:Null":
		return true
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return true
	}
	return false
}

func (p *parser) runeAt(i int) rune {
	if i >= p.end {
		return utf8.RuneError
	}
	r, _ := utf8.DecodeRuneInString(p.src[i:])
	return r
}

func isIdentStart(r rune) bool {
	return r == '_' || (r != utf8.RuneError && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func validIdent(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentStart(r) || i > 0 && !isIdentPart(r) {
			return false
		}
	}
	return s != ""
}

// validQualifiedName accepts Name, prefix:Name and Dotted.Name.
func validQualifiedName(s string) bool {
	prefix, rest, ok := strings.Cut(s, ":")
	if ok && !validIdent(prefix) {
		return false
	}
	if !ok {
		rest = s
	}
	for _, part := range strings.Split(rest, ".") {
		if !validIdent(part) {
			return false
		}
	}
	return true
}

func trimBounds(s string) (int, int) {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return start, end
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

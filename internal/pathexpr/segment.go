package pathexpr

import (
	"fmt"
	"strings"

	"markc/internal/diag"
)

type SegmentKind uint8

const (
	SegRoot SegmentKind = iota
	SegMember
	SegCall
	SegIndex
	SegCast
)

func (k SegmentKind) String() string {
	switch k {
	case SegRoot:
		return "Root"
	case SegMember:
		return "Member"
	case SegCall:
		return "Call"
	case SegIndex:
		return "Index"
	case SegCast:
		return "Cast"
	}
	return "Unknown"
}

// Segment is one lexical unit of a binding path. Offset and End are byte
// offsets into the path string the segment was parsed from.
type Segment struct {
	Kind SegmentKind
	// Name is the member name, the cast type, or the verbatim indexer text.
	Name string
	// Owner is set for attached members written as (Owner.Name).
	Owner  string
	Args   []Arg
	Offset int
	End    int
}

func (s Segment) String() string {
	switch s.Kind {
	case SegRoot:
		return "Root"
	case SegCall:
		texts := make([]string, len(s.Args))
		for i, a := range s.Args {
			texts[i] = a.Text
		}
		return "Call(" + strings.Join(texts, ",") + ")"
	case SegMember:
		if s.Owner != "" {
			return fmt.Sprintf("Member (%s.%s)", s.Owner, s.Name)
		}
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Name)
}

// Arg is one argument of a method call segment.
type Arg struct {
	Text   string
	Offset int
	// Literal arguments are quoted strings, numbers and the x:True, x:False
	// and x:Null keywords. Other arguments are nested paths.
	Literal bool
	Path    []Segment
}

// Empty reports whether the argument is an empty nested path.
func (a Arg) Empty() bool {
	return !a.Literal && strings.TrimSpace(a.Text) == ""
}

// ParseError is a malformed binding path.
type ParseError struct {
	Code   diag.Code
	Text   string // offending substring
	Offset int    // byte offset of Text in the path
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s (%q)", e.Offset, e.Reason, e.Text)
}

// Format re-serialises segments. Indexer content is dropped, so
// Format(Parse("A.B[0]")) is "A.B".
func Format(segments []Segment) string {
	var b strings.Builder
	prevCast := false
	for i, s := range segments {
		switch s.Kind {
		case SegMember:
			if i > 0 && !prevCast {
				b.WriteByte('.')
			}
			if s.Owner != "" {
				b.WriteString("(" + s.Owner + "." + s.Name + ")")
			} else {
				b.WriteString(s.Name)
			}
		case SegCall:
			b.WriteByte('(')
			for j, a := range s.Args {
				if j > 0 {
					b.WriteByte(',')
				}
				b.WriteString(a.Text)
			}
			b.WriteByte(')')
		case SegCast:
			if i > 0 && !prevCast {
				b.WriteByte('.')
			}
			b.WriteString("(" + s.Name + ")")
		}
		prevCast = s.Kind == SegCast
	}
	return b.String()
}

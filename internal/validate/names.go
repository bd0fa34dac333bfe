package validate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"markc/internal/diag"
	"markc/internal/markup"
)

func (v *validator) pushNames() {
	v.names = append(v.names, make(map[string]*markup.Attribute))
}

func (v *validator) popNames() {
	v.names = v.names[:len(v.names)-1]
}

// checkNames enforces one identifier per element and unique identifiers per
// naming scope. x:Name is the identifier, Name its alias. x:Key and x:Uid
// only need a value.
func (v *validator) checkNames(el *markup.Element) {
	for _, local := range []string{"Key", "Uid"} {
		if a := el.LanguageAttr(local); a != nil && strings.TrimSpace(a.Value) == "" {
			v.errorf(diag.ScopeEmptyIdentifier, a.Span(), "x:"+local+" must not be empty").Emit()
		}
	}

	id := el.LanguageAttr("Name")
	alias := el.Attr("", "Name")
	decl := id
	if decl == nil {
		decl = alias
	}
	if decl == nil || !v.checkIdentifier(decl) {
		return
	}

	if id != nil && alias != nil {
		if id.Value == alias.Value {
			v.errorf(diag.ScopeAliasRedeclared, alias.Span(), "name "+alias.Value+" is declared twice on the same element").
				WithNote(id.Span(), "declared here").Emit()
		} else {
			v.errorf(diag.ScopeAliasConflict, alias.Span(), "Name "+alias.Value+" conflicts with x:Name "+id.Value).
				WithNote(id.Span(), "x:Name declared here").Emit()
		}
	}

	set := v.names[len(v.names)-1]
	if prev, dup := set[decl.Value]; dup {
		v.errorf(diag.ScopeDuplicateName, decl.ValueSpan(), "name "+decl.Value+" is already declared in this scope").
			WithNote(prev.ValueSpan(), "first declared here").Emit()
		return
	}
	set[decl.Value] = decl
}

// checkIdentifier reports an empty name or one that is not an identifier.
func (v *validator) checkIdentifier(a *markup.Attribute) bool {
	if strings.TrimSpace(a.Value) == "" {
		v.errorf(diag.ScopeEmptyIdentifier, a.Span(), a.Name.String()+" must not be empty").Emit()
		return false
	}
	if idx, off, r, ok := badIdentifierRune(a.Value); ok {
		v.errorf(diag.ScopeBadIdentifier, a.SpanAt(off, utf8.RuneLen(r)),
			fmt.Sprintf("%s %q is not a valid identifier: character %q at index %d", a.Name.String(), a.Value, r, idx)).Emit()
		return false
	}
	return true
}

// badIdentifierRune finds the first character that breaks the identifier
// grammar: a letter, letter number or '_' first, then also combining marks,
// modifier letters and decimal digits. idx counts characters, off is the byte
// offset.
func badIdentifierRune(name string) (idx, off int, r rune, bad bool) {
	for off, r = range name {
		start := unicode.In(r, unicode.Lu, unicode.Ll, unicode.Lt, unicode.Lo, unicode.Nl) || r == '_'
		extend := unicode.In(r, unicode.Mn, unicode.Mc, unicode.Lm, unicode.Nd)
		if !start && (idx == 0 || !extend) {
			return idx, off, r, true
		}
		idx++
	}
	return 0, 0, 0, false
}

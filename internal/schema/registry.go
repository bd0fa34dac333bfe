package schema

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"markc/internal/markup"
	"markc/internal/source"
)

// Registry is an arena of type and member descriptors keyed by full name.
// It implements Provider with complete information; View derives the
// first-pass provider.
type Registry struct {
	types      []*Type // index 0 is a sentinel
	members    []*Member
	byName     map[string]*Type
	namespaces map[string][]string // markup namespace URI -> code namespaces
	digest     source.Digest
}

const systemNamespace = "System"

var primitiveNames = []string{"Object", "String", "Boolean", "Char", "Byte", "Int32", "Int64", "UInt32", "Single", "Double", "Void"}

// builtinAliases maps language-namespace and shorthand names to system types.
var builtinAliases = map[string]string{
	"object": "System.Object",
	"string": "System.String",
	"bool":   "System.Boolean",
	"char":   "System.Char",
	"byte":   "System.Byte",
	"int":    "System.Int32",
	"long":   "System.Int64",
	"uint":   "System.UInt32",
	"float":  "System.Single",
	"double": "System.Double",
	"void":   "System.Void",
}

func NewRegistry() *Registry {
	r := &Registry{
		types:      []*Type{nil},
		members:    []*Member{nil},
		byName:     make(map[string]*Type),
		namespaces: make(map[string][]string),
	}
	for _, name := range primitiveNames {
		kind := KindPrimitive
		if name == "Object" || name == "String" {
			kind = KindClass
		}
		t := r.addType(&Type{Name: name, Namespace: systemNamespace, Kind: kind})
		if name != "Object" {
			t.Base = r.byName["System.Object"]
		}
	}
	return r
}

func (r *Registry) addType(t *Type) *Type {
	id, err := safecast.Conv[uint32](len(r.types))
	if err != nil {
		panic(fmt.Errorf("type arena overflow: %w", err))
	}
	t.ID = TypeID(id)
	r.types = append(r.types, t)
	r.byName[t.FullName()] = t
	return t
}

func (r *Registry) addMember(t *Type, m *Member) *Member {
	id, err := safecast.Conv[uint32](len(r.members))
	if err != nil {
		panic(fmt.Errorf("member arena overflow: %w", err))
	}
	m.ID = MemberID(id)
	m.Declaring = t
	r.members = append(r.members, m)
	t.Members = append(t.Members, m)
	return m
}

// Type returns the descriptor for id, or nil.
func (r *Registry) Type(id TypeID) *Type {
	if !id.IsValid() || int(id) >= len(r.types) {
		return nil
	}
	return r.types[id]
}

// Member returns the descriptor for id, or nil.
func (r *Registry) Member(id MemberID) *Member {
	if !id.IsValid() || int(id) >= len(r.members) {
		return nil
	}
	return r.members[id]
}

// Lookup finds a type by full name or builtin alias.
func (r *Registry) Lookup(fullName string) *Type {
	if t, ok := r.byName[fullName]; ok {
		return t
	}
	if alias, ok := builtinAliases[strings.ToLower(fullName)]; ok {
		return r.byName[alias]
	}
	return nil
}

// Types returns every registered type sorted by full name.
func (r *Registry) Types() []*Type {
	out := make([]*Type, 0, len(r.types)-1)
	out = append(out, r.types[1:]...)
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out
}

// MapNamespace binds a markup namespace URI to code namespaces.
func (r *Registry) MapNamespace(uri string, codeNamespaces ...string) {
	r.namespaces[uri] = append(r.namespaces[uri], codeNamespaces...)
}

// Digest identifies the catalog contents; it is part of artifact cache keys.
func (r *Registry) Digest() source.Digest {
	return r.digest
}

func (r *Registry) ResolveType(name, namespaceURI string) *Type {
	switch {
	case namespaceURI == markup.NSLanguage:
		if t := r.Lookup(systemNamespace + "." + name); t != nil {
			return t
		}
		return r.Lookup(name)
	case markup.IsLocalNamespace(namespaceURI):
		return r.Lookup(markup.CodeNamespace(namespaceURI) + "." + name)
	case namespaceURI == "":
		return r.Lookup(name)
	}
	for _, ns := range r.namespaces[markup.BaseURI(namespaceURI)] {
		if t := r.Lookup(ns + "." + name); t != nil {
			return t
		}
	}
	return nil
}

func (r *Registry) ResolveMember(t *Type, name string) *Member {
	for x := t; x != nil; x = x.Base {
		for _, m := range x.Members {
			if m.Name == name {
				return m
			}
		}
	}
	return nil
}

func (r *Registry) Overloads(t *Type, name string) []*Member {
	var out []*Member
	for x := t; x != nil; x = x.Base {
		for _, m := range x.Members {
			if m.Name == name && m.Kind == MemberMethod {
				out = append(out, m)
			}
		}
	}
	return out
}

// Assignable reports whether a value of type from can be stored in to.
func Assignable(from, to *Type) bool {
	if from == nil || to == nil {
		return false
	}
	if to.FullName() == "System.Object" {
		return true
	}
	for x := from; x != nil; x = x.Base {
		if x == to || x.FullName() == to.FullName() {
			return true
		}
	}
	return false
}

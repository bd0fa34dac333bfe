package schema

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"markc/internal/source"
)

var (
	ErrUnknownTypeRef = errors.New("reference to undeclared type")
	ErrDuplicateType  = errors.New("type declared more than once")
	ErrBadKind        = errors.New("unknown kind")
)

type catalogFile struct {
	Namespace []namespaceDef `toml:"namespace"`
	Type      []typeDef      `toml:"type"`
}

type namespaceDef struct {
	URI  string   `toml:"uri"`
	Code []string `toml:"code"`
}

type typeDef struct {
	Name            string      `toml:"name"`
	Kind            string      `toml:"kind"`
	Base            string      `toml:"base"`
	Collection      bool        `toml:"collection"`
	Dictionary      bool        `toml:"dictionary"`
	Item            string      `toml:"item"`
	Key             string      `toml:"key"`
	Local           bool        `toml:"local"`
	Enum            []string    `toml:"enum"`
	Contract        string      `toml:"contract"`
	ContractVersion int         `toml:"contract_version"`
	Invoke          []paramDef  `toml:"invoke"`
	Member          []memberDef `toml:"member"`
}

type memberDef struct {
	Name       string     `toml:"name"`
	Kind       string     `toml:"kind"`
	Type       string     `toml:"type"`
	ReadOnly   bool       `toml:"readonly"`
	WriteOnly  bool       `toml:"writeonly"`
	Private    bool       `toml:"private"`
	Attachable bool       `toml:"attachable"`
	Observable bool       `toml:"observable"`
	Static     bool       `toml:"static"`
	Param      []paramDef `toml:"param"`
}

type paramDef struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// LoadCatalog reads a TOML type catalog from path.
func LoadCatalog(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	reg, err := DecodeCatalog(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// DecodeCatalog builds a Registry from catalog text.
//
//	[[namespace]]
//	uri = "http://schemas.microsoft.com/winfx/2006/xaml/presentation"
//	code = ["Windows.UI.Xaml.Controls"]
//
//	[[type]]
//	name = "Windows.UI.Xaml.Controls.TextBlock"
//	base = "Windows.UI.Xaml.FrameworkElement"
//	  [[type.member]]
//	  name = "Text"
//	  type = "string"
//	  observable = true
func DecodeCatalog(text string) (*Registry, error) {
	var file catalogFile
	meta, err := toml.Decode(text, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown catalog key %q", undecoded[0].String())
	}

	r := NewRegistry()
	for _, ns := range file.Namespace {
		if strings.TrimSpace(ns.URI) == "" {
			return nil, fmt.Errorf("[[namespace]] without uri")
		}
		r.MapNamespace(ns.URI, ns.Code...)
	}

	b := &catalogBuilder{reg: r, defs: make(map[string]*typeDef, len(file.Type))}
	for i := range file.Type {
		def := &file.Type[i]
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("[[type]] #%d without name", i+1)
		}
		if _, dup := b.defs[name]; dup || r.byName[name] != nil {
			return nil, fmt.Errorf("%s: %w", name, ErrDuplicateType)
		}
		b.defs[name] = def
	}
	for i := range file.Type {
		if _, err := b.ensureType(file.Type[i].Name); err != nil {
			return nil, err
		}
	}
	r.digest = catalogDigest(r)
	return r, nil
}

type catalogBuilder struct {
	reg  *Registry
	defs map[string]*typeDef
}

// ensureType registers name and everything it references. The descriptor is
// stored before recursing, so cycles (a type whose member returns the type
// itself) terminate on the lookup.
func (b *catalogBuilder) ensureType(name string) (*Type, error) {
	if name == "" {
		return nil, nil
	}
	if t := b.reg.Lookup(name); t != nil {
		return t, nil
	}
	def, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownTypeRef)
	}
	kind, ok := typeKindNames[def.Kind]
	if !ok {
		return nil, fmt.Errorf("type %s: %w %q", name, ErrBadKind, def.Kind)
	}
	ns, simple := splitFullName(name)
	t := b.reg.addType(&Type{
		Name:            simple,
		Namespace:       ns,
		Kind:            kind,
		IsCollection:    def.Collection,
		IsDictionary:    def.Dictionary,
		IsLocal:         def.Local,
		EnumValues:      def.Enum,
		Contract:        def.Contract,
		ContractVersion: def.ContractVersion,
	})

	var err error
	if def.Base != "" {
		if t.Base, err = b.ensureType(def.Base); err != nil {
			return nil, fmt.Errorf("base of %s: %w", name, err)
		}
	} else if kind == KindClass || kind == KindDelegate {
		t.Base = b.reg.byName["System.Object"]
	}
	if t.ItemType, err = b.ensureType(def.Item); err != nil {
		return nil, fmt.Errorf("item type of %s: %w", name, err)
	}
	if t.KeyType, err = b.ensureType(def.Key); err != nil {
		return nil, fmt.Errorf("key type of %s: %w", name, err)
	}
	if kind == KindDelegate {
		params, err := b.params(def.Invoke)
		if err != nil {
			return nil, fmt.Errorf("invoke of %s: %w", name, err)
		}
		t.Invoke = &Member{Name: "Invoke", Kind: MemberMethod, Declaring: t, Params: params, CanRead: true, IsPublic: true}
	}
	for i := range def.Member {
		if err := b.ensureMember(t, &def.Member[i]); err != nil {
			return nil, fmt.Errorf("member %s.%s: %w", name, def.Member[i].Name, err)
		}
	}
	return t, nil
}

func (b *catalogBuilder) ensureMember(t *Type, def *memberDef) error {
	var kind MemberKind
	switch def.Kind {
	case "", "property":
		kind = MemberProperty
	case "field":
		kind = MemberField
	case "method":
		kind = MemberMethod
	case "event":
		kind = MemberEvent
	default:
		return fmt.Errorf("%w %q", ErrBadKind, def.Kind)
	}
	m := b.reg.addMember(t, &Member{
		Name:         def.Name,
		Kind:         kind,
		CanRead:      !def.WriteOnly && kind != MemberEvent,
		CanWrite:     !def.ReadOnly && (kind == MemberProperty || kind == MemberField),
		IsPublic:     !def.Private,
		IsAttachable: def.Attachable,
		IsObservable: def.Observable,
		IsStatic:     def.Static,
	})
	typeName := def.Type
	if typeName == "" && kind == MemberMethod {
		typeName = "void"
	}
	var err error
	if m.Type, err = b.ensureType(typeName); err != nil {
		return err
	}
	if m.Type == nil {
		return fmt.Errorf("missing type")
	}
	m.Params, err = b.params(def.Param)
	return err
}

func (b *catalogBuilder) params(defs []paramDef) ([]Param, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make([]Param, 0, len(defs))
	for _, p := range defs {
		pt, err := b.ensureType(p.Type)
		if err != nil {
			return nil, err
		}
		if pt == nil {
			return nil, fmt.Errorf("parameter %q has no type", p.Name)
		}
		out = append(out, Param{Name: p.Name, Type: pt})
	}
	return out, nil
}

func splitFullName(name string) (ns, simple string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

func catalogDigest(r *Registry) source.Digest {
	var parts [][]byte
	uris := make([]string, 0, len(r.namespaces))
	for uri := range r.namespaces {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	for _, uri := range uris {
		parts = append(parts, []byte(uri+"="+strings.Join(r.namespaces[uri], ",")))
	}
	for _, t := range r.Types() {
		var sb strings.Builder
		sb.WriteString(t.FullName())
		sb.WriteString(":" + t.Base.FullName())
		sb.WriteString(":" + t.Kind.String() + ":" + strconv.FormatBool(t.IsLocal))
		for _, m := range t.Members {
			sb.WriteString(";" + m.Kind.String() + " " + m.Signature() + " " + m.Type.FullName())
			sb.WriteString(fmt.Sprintf(" %t%t%t%t%t", m.CanWrite, m.IsAttachable, m.IsObservable, m.IsStatic, m.IsPublic))
		}
		parts = append(parts, []byte(sb.String()))
	}
	return source.Sum(parts...)
}

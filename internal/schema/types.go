package schema

import "strings"

type (
	// TypeID индексирует Registry.types; 0 — невалидный.
	TypeID uint32
	// MemberID индексирует Registry.members; 0 — невалидный.
	MemberID uint32
)

func (id TypeID) IsValid() bool   { return id != 0 }
func (id MemberID) IsValid() bool { return id != 0 }

type TypeKind uint8

const (
	KindClass TypeKind = iota
	KindStruct
	KindEnum
	KindInterface
	KindDelegate
	KindPrimitive
)

var typeKindNames = map[string]TypeKind{
	"":          KindClass,
	"class":     KindClass,
	"struct":    KindStruct,
	"enum":      KindEnum,
	"interface": KindInterface,
	"delegate":  KindDelegate,
	"primitive": KindPrimitive,
}

func (k TypeKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindInterface:
		return "interface"
	case KindDelegate:
		return "delegate"
	case KindPrimitive:
		return "primitive"
	}
	return "class"
}

type MemberKind uint8

const (
	MemberProperty MemberKind = iota
	MemberField
	MemberMethod
	MemberEvent
)

func (k MemberKind) String() string {
	switch k {
	case MemberProperty:
		return "property"
	case MemberField:
		return "field"
	case MemberMethod:
		return "method"
	case MemberEvent:
		return "event"
	}
	return "unknown"
}

// Type describes one reflected or locally compiled type.
type Type struct {
	ID        TypeID
	Name      string
	Namespace string
	Kind      TypeKind
	Base      *Type

	IsCollection bool
	IsDictionary bool
	ItemType     *Type
	KeyType      *Type

	// IsLocal marks types compiled from the current project.
	IsLocal bool
	// Pending marks a first-pass stub of a local type whose members are not
	// known yet.
	Pending bool

	EnumValues      []string
	Contract        string
	ContractVersion int

	// Invoke is the signature of a delegate type.
	Invoke  *Member
	Members []*Member
}

func (t *Type) FullName() string {
	if t == nil {
		return ""
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *Type) String() string {
	return t.FullName()
}

// Indexable reports whether the type supports [key] access.
func (t *Type) Indexable() bool {
	for x := t; x != nil; x = x.Base {
		if x.IsCollection || x.IsDictionary {
			return true
		}
	}
	return false
}

// Element returns the type produced by indexing t.
func (t *Type) Element() *Type {
	for x := t; x != nil; x = x.Base {
		if x.IsCollection || x.IsDictionary {
			return x.ItemType
		}
	}
	return nil
}

type Param struct {
	Name string
	Type *Type
}

// Member describes a property, field, method or event of a type.
type Member struct {
	ID        MemberID
	Name      string
	Kind      MemberKind
	Declaring *Type
	// Type is the property/field type, the method return type or the event
	// handler delegate type.
	Type   *Type
	Params []Param

	CanRead      bool
	CanWrite     bool
	IsPublic     bool
	IsAttachable bool
	IsObservable bool
	IsStatic     bool
}

// QualifiedName is "Declaring.Name".
func (m *Member) QualifiedName() string {
	if m == nil {
		return ""
	}
	return m.Declaring.FullName() + "." + m.Name
}

func (m *Member) Signature() string {
	if m == nil {
		return ""
	}
	if m.Kind != MemberMethod {
		return m.QualifiedName()
	}
	parts := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		parts = append(parts, p.Type.FullName())
	}
	return m.QualifiedName() + "(" + strings.Join(parts, ",") + ")"
}

// Provider is the reflected type schema consumed by the compiler.
type Provider interface {
	ResolveType(name, namespaceURI string) *Type
	// ResolveMember looks name up on t and its base types.
	ResolveMember(t *Type, name string) *Member
	// Overloads returns every method named name visible on t, most derived first.
	Overloads(t *Type, name string) []*Member
}

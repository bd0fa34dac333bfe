package schema

type typeKey struct {
	name, uri string
}

type memberKey struct {
	owner *Type
	name  string
}

// Memo caches provider answers for one compilation session. It is not safe
// for concurrent use; every document compilation owns its own Memo.
type Memo struct {
	next      Provider
	types     map[typeKey]*Type
	members   map[memberKey]*Member
	overloads map[memberKey][]*Member

	Hits   int
	Misses int
}

func NewMemo(next Provider) *Memo {
	return &Memo{
		next:      next,
		types:     make(map[typeKey]*Type),
		members:   make(map[memberKey]*Member),
		overloads: make(map[memberKey][]*Member),
	}
}

func (m *Memo) ResolveType(name, namespaceURI string) *Type {
	key := typeKey{name: name, uri: namespaceURI}
	if t, ok := m.types[key]; ok {
		m.Hits++
		return t
	}
	m.Misses++
	t := m.next.ResolveType(name, namespaceURI)
	m.types[key] = t
	return t
}

func (m *Memo) ResolveMember(t *Type, name string) *Member {
	key := memberKey{owner: t, name: name}
	if mem, ok := m.members[key]; ok {
		m.Hits++
		return mem
	}
	m.Misses++
	mem := m.next.ResolveMember(t, name)
	m.members[key] = mem
	return mem
}

func (m *Memo) Overloads(t *Type, name string) []*Member {
	key := memberKey{owner: t, name: name}
	if out, ok := m.overloads[key]; ok {
		m.Hits++
		return out
	}
	m.Misses++
	out := m.next.Overloads(t, name)
	m.overloads[key] = out
	return out
}

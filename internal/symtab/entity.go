package symtab

import "fmt"

// Kind tags the three entity variants.
type Kind int

const (
	KindStructure Kind = iota
	KindMethod
	KindDefinition
)

func (k Kind) String() string {
	switch k {
	case KindStructure:
		return "Structure"
	case KindMethod:
		return "Method"
	case KindDefinition:
		return "Definition"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Access is the declared visibility of a member.
type Access int

const (
	AccessUnknown Access = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

var accessNames = map[Access]string{
	AccessUnknown:   "unknown",
	AccessPublic:    "public",
	AccessProtected: "protected",
	AccessPrivate:   "private",
}

func (a Access) String() string {
	if s, ok := accessNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseAccess is the inverse of Access.String. Unrecognized input maps to AccessUnknown.
func ParseAccess(s string) Access {
	for a, name := range accessNames {
		if name == s {
			return a
		}
	}
	return AccessUnknown
}

// Symbol is the envelope shared by every entity.
type Symbol struct {
	ID        string
	Name      string
	Namespace string
	Src       SourceInfo
	Access    Access
}

// Entity is implemented by *Structure, *Method and *Definition only.
type Entity interface {
	Kind() Kind
	Sym() *Symbol
	// IsStub reports whether the record still awaits its full definition.
	IsStub() bool

	sealed()
}

// newStub creates a minimal record of the given kind.
func newStub(id, name string, kind Kind) Entity {
	sym := Symbol{ID: id, Name: name}
	switch kind {
	case KindStructure:
		return NewStructure(sym, StructureUndefined)
	case KindMethod:
		m := NewMethod(sym, MethodUndefined)
		m.stub = true
		return m
	case KindDefinition:
		d := NewDefinition(sym, "")
		d.stub = true
		return d
	}
	panic(fmt.Sprintf("symtab: unknown entity kind %d", int(kind)))
}

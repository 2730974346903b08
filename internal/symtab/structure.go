package symtab

// StructureKind classifies a type declaration.
type StructureKind int

const (
	StructureUndefined StructureKind = iota - 1
	StructureClass
	StructureStruct
	StructureTemplateDefinition
	StructureTemplateFullSpecialization
	StructureTemplateInstantiationSpecialization
	StructureTemplatePartialSpecialization
)

var structureKindNames = map[StructureKind]string{
	StructureUndefined:                           "Undefined",
	StructureClass:                               "Class",
	StructureStruct:                              "Struct",
	StructureTemplateDefinition:                  "TemplateDefinition",
	StructureTemplateFullSpecialization:          "TemplateFullSpecialization",
	StructureTemplateInstantiationSpecialization: "TemplateInstantiationSpecialization",
	StructureTemplatePartialSpecialization:       "TemplatePartialSpecialization",
}

func (k StructureKind) String() string {
	if s, ok := structureKindNames[k]; ok {
		return s
	}
	return "Undefined"
}

// ParseStructureKind is the inverse of StructureKind.String.
func ParseStructureKind(s string) (StructureKind, bool) {
	for k, name := range structureKindNames {
		if name == s {
			return k, true
		}
	}
	return StructureUndefined, false
}

// IsTemplate reports whether k is one of the template kinds.
func (k StructureKind) IsTemplate() bool {
	return k >= StructureTemplateDefinition && k <= StructureTemplatePartialSpecialization
}

// Structure is a class, struct or template.
type Structure struct {
	Symbol
	StructureKind StructureKind

	Methods *Store
	Fields  *Store

	Bases        RefSet
	Contains     RefSet
	Friends      RefSet
	TemplateArgs RefSet

	// TemplateParent and NestedParent hold structure IDs; empty means unset.
	TemplateParent string
	NestedParent   string
}

// NewStructure returns a structure with empty nested stores.
func NewStructure(sym Symbol, kind StructureKind) *Structure {
	return &Structure{
		Symbol:        sym,
		StructureKind: kind,
		Methods:       NewStore(),
		Fields:        NewStore(),
	}
}

func (s *Structure) Kind() Kind   { return KindStructure }
func (s *Structure) Sym() *Symbol { return &s.Symbol }
func (s *Structure) sealed()      {}

// IsStub reports whether the structure is still undefined.
func (s *Structure) IsStub() bool {
	return s.StructureKind == StructureUndefined
}

// IsNestedClass reports whether the structure is declared inside another one.
func (s *Structure) IsNestedClass() bool {
	return s.NestedParent != ""
}

func (s *Structure) IsTemplate() bool {
	return s.StructureKind.IsTemplate()
}

// InstallMethod installs m into the structure's method store and returns the
// record now held for m.ID. It returns nil if that ID is taken by a fully
// defined entity of another kind.
func (s *Structure) InstallMethod(m *Method) *Method {
	out, _ := s.Methods.InstallFull(m).(*Method)
	return out
}

// InstallField installs d into the structure's field store, with the same
// contract as InstallMethod.
func (s *Structure) InstallField(d *Definition) *Definition {
	out, _ := s.Fields.InstallFull(d).(*Definition)
	return out
}

// LookupMethod returns the method with the given ID, if present.
func (s *Structure) LookupMethod(id string) (*Method, bool) {
	return s.Methods.Method(id)
}

func (s *Structure) AddBase(id string)        { s.Bases.Add(id) }
func (s *Structure) AddNestedClass(id string) { s.Contains.Add(id) }
func (s *Structure) AddFriend(id string)      { s.Friends.Add(id) }
func (s *Structure) AddTemplateArg(id string) { s.TemplateArgs.Add(id) }

// absorb carries over members a stub collected before its upgrade, such as
// methods mined ahead of their class. The full record's own data wins.
func (s *Structure) absorb(stub *Structure) {
	s.Methods.absorb(stub.Methods)
	s.Fields.absorb(stub.Fields)
	for _, id := range stub.Bases.IDs() {
		s.Bases.Add(id)
	}
	for _, id := range stub.Contains.IDs() {
		s.Contains.Add(id)
	}
	for _, id := range stub.Friends.IDs() {
		s.Friends.Add(id)
	}
	for _, id := range stub.TemplateArgs.IDs() {
		s.TemplateArgs.Add(id)
	}
	if s.NestedParent == "" {
		s.NestedParent = stub.NestedParent
	}
	if s.TemplateParent == "" {
		s.TemplateParent = stub.TemplateParent
	}
}

package symtab

// MethodKind classifies a method declaration.
type MethodKind int

const (
	MethodUndefined MethodKind = iota - 1
	MethodConstructorTrivial
	MethodOverloadedOperatorTrivial
	MethodDestructorTrivial
	MethodConstructorUserDefined
	MethodDestructorUserDefined
	MethodUserMethod
	MethodOverloadedOperatorUserDefined
	MethodTemplateDefinition
	MethodTemplateFullSpecialization
	MethodTemplateInstantiationSpecialization
)

var methodKindNames = map[MethodKind]string{
	MethodUndefined:                           "Undefined",
	MethodConstructorTrivial:                  "Constructor_Trivial",
	MethodOverloadedOperatorTrivial:           "OverloadedOperator_Trivial",
	MethodDestructorTrivial:                   "Destructor_Trivial",
	MethodConstructorUserDefined:              "Constructor_UserDefined",
	MethodDestructorUserDefined:               "Destructor_UserDefined",
	MethodUserMethod:                          "UserMethod",
	MethodOverloadedOperatorUserDefined:       "OverloadedOperator_UserDefined",
	MethodTemplateDefinition:                  "TemplateDefinition",
	MethodTemplateFullSpecialization:          "TemplateFullSpecialization",
	MethodTemplateInstantiationSpecialization: "TemplateInstantiationSpecialization",
}

func (k MethodKind) String() string {
	if s, ok := methodKindNames[k]; ok {
		return s
	}
	return "Undefined"
}

// ParseMethodKind is the inverse of MethodKind.String.
func ParseMethodKind(s string) (MethodKind, bool) {
	for k, name := range methodKindNames {
		if name == s {
			return k, true
		}
	}
	return MethodUndefined, false
}

// IsTrivial reports whether the method was generated rather than written.
func (k MethodKind) IsTrivial() bool {
	return k == MethodConstructorTrivial || k == MethodDestructorTrivial || k == MethodOverloadedOperatorTrivial
}

// Metrics are the body measurements collected for a method.
type Metrics struct {
	Literals   int
	Statements int
	Branches   int
	Loops      int
	MaxScope   int
	Lines      int
}

// Method is a member function.
type Method struct {
	Symbol
	MethodKind MethodKind

	// ReturnType is a structure ID; empty means void or a non-structure type.
	ReturnType string

	Args         *Store
	Definitions  *Store
	TemplateArgs RefSet

	Metrics Metrics
	Virtual bool

	// MemberExprs is keyed by the start location of the access chain.
	MemberExprs map[string]*MemberExpr

	stub bool
}

// NewMethod returns a method with empty nested stores.
func NewMethod(sym Symbol, kind MethodKind) *Method {
	return &Method{
		Symbol:      sym,
		MethodKind:  kind,
		Args:        NewStore(),
		Definitions: NewStore(),
		MemberExprs: make(map[string]*MemberExpr),
	}
}

func (m *Method) Kind() Kind   { return KindMethod }
func (m *Method) Sym() *Symbol { return &m.Symbol }
func (m *Method) IsStub() bool { return m.stub }
func (m *Method) sealed()      {}

// InstallArg installs a parameter definition.
func (m *Method) InstallArg(d *Definition) *Definition {
	out, _ := m.Args.InstallFull(d).(*Definition)
	return out
}

// InstallDefinition installs a local variable definition.
func (m *Method) InstallDefinition(d *Definition) *Definition {
	out, _ := m.Definitions.InstallFull(d).(*Definition)
	return out
}

func (m *Method) AddTemplateArg(id string) { m.TemplateArgs.Add(id) }

// InsertMemberExpr merges expr into the record at begin and appends member.
func (m *Method) InsertMemberExpr(begin string, expr MemberExpr, member Member) {
	rec := m.UpdateMemberExpr(begin, expr)
	rec.Members = append(rec.Members, member)
}

// UpdateMemberExpr merges expr into the record keyed by begin. The record keeps
// the text of the longest expression seen for that start location.
func (m *Method) UpdateMemberExpr(begin string, expr MemberExpr) *MemberExpr {
	if m.MemberExprs == nil {
		m.MemberExprs = make(map[string]*MemberExpr)
	}
	rec, ok := m.MemberExprs[begin]
	if !ok {
		rec = &MemberExpr{Expr: expr.Expr, Src: expr.Src, End: expr.End}
		m.MemberExprs[begin] = rec
		return rec
	}
	if rec.End.Before(expr.End) {
		rec.Expr = expr.Expr
		rec.End = expr.End
	}
	return rec
}

func (m *Method) absorb(stub *Method) {
	m.Args.absorb(stub.Args)
	m.Definitions.absorb(stub.Definitions)
	for _, id := range stub.TemplateArgs.IDs() {
		m.TemplateArgs.Add(id)
	}
	for key, rec := range stub.MemberExprs {
		if _, ok := m.MemberExprs[key]; !ok {
			m.MemberExprs[key] = rec
		}
	}
}

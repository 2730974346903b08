package mining

import (
	"errors"
	"fmt"
	"log"

	"archmine/internal/ignore"
	"archmine/internal/symtab"
)

// Stats counts what a Miner did with the events it received.
type Stats struct {
	Structures int
	Fields     int
	Methods    int
	Vars       int
	Ignored    int
	Skipped    int
}

// Miner installs events into one table. It must be driven from a single
// goroutine.
type Miner struct {
	table  *symtab.Store
	ignore ignore.Predicates
	stats  Stats
}

// NewMiner returns a miner writing into table. A nil predicate set ignores
// nothing.
func NewMiner(table *symtab.Store, preds ignore.Predicates) *Miner {
	if preds == nil {
		preds = ignore.None
	}
	return &Miner{table: table, ignore: preds}
}

func (m *Miner) Stats() Stats { return m.stats }

// Apply installs ev. Events rejected by the ignore predicates are dropped
// silently; malformed events return an error and leave the table unchanged.
func (m *Miner) Apply(ev Event) error {
	switch e := ev.(type) {
	case StructureDecl:
		return m.structure(e)
	case *StructureDecl:
		return m.structure(*e)
	case FieldDecl:
		return m.field(e)
	case *FieldDecl:
		return m.field(*e)
	case MethodDecl:
		return m.method(e)
	case *MethodDecl:
		return m.method(*e)
	case VarDecl:
		return m.variable(e)
	case *VarDecl:
		return m.variable(*e)
	}
	return fmt.Errorf("unsupported event %T", ev)
}

func (m *Miner) ignored(file, namespace string) bool {
	if m.ignore.IsPathIgnored(file) || m.ignore.IsNamespaceIgnored(namespace) {
		m.stats.Ignored++
		return true
	}
	return false
}

func (m *Miner) structure(e StructureDecl) error {
	if e.ID == "" {
		return fmt.Errorf("structure %q has no id", e.Name)
	}
	if m.ignored(e.Src.File, e.Namespace) {
		return nil
	}
	if e.Enclosing != nil && m.ignore.IsNamespaceIgnored(e.Enclosing.Name) {
		m.stats.Ignored++
		return nil
	}

	if conflicts(m.table, e.ID, symtab.KindStructure) {
		return fmt.Errorf("structure %s: id already holds another kind", e.ID)
	}

	sym := symtab.Symbol{ID: e.ID, Name: e.Name, Namespace: e.Namespace, Src: e.Src}
	if e.DeclarationOnly {
		m.table.InstallFull(symtab.NewStructure(sym, symtab.StructureUndefined))
		m.stats.Structures++
		return nil
	}

	st := symtab.NewStructure(sym, e.Kind)
	if e.TemplatePattern != nil {
		if parent := m.table.ResolveTemplate(*e.TemplatePattern); parent != nil {
			st.TemplateParent = parent.ID
		}
	}
	for _, ref := range e.TemplateArgs {
		st.AddTemplateArg(m.reference(ref))
	}
	for _, ref := range e.Bases {
		st.AddBase(m.reference(ref))
	}
	for _, ref := range e.Friends {
		st.AddFriend(m.reference(ref))
	}
	if e.Enclosing != nil && e.Enclosing.Name != e.Name {
		if parent := m.table.Reference(*e.Enclosing); parent != nil {
			st.NestedParent = parent.ID
			parent.AddNestedClass(e.ID)
		}
	}

	if _, ok := m.table.InstallFull(st).(*symtab.Structure); !ok {
		return fmt.Errorf("structure %s: id already holds another kind", e.ID)
	}
	m.stats.Structures++
	return nil
}

func (m *Miner) field(e FieldDecl) error {
	if e.ID == "" {
		return fmt.Errorf("field %q has no id", e.Name)
	}
	if m.ignored(e.Src.File, e.OwnerNamespace) {
		return nil
	}
	if err := m.checkMember(e.Owner, e.ID, symtab.KindDefinition); err != nil {
		return fmt.Errorf("field %s: %w", e.ID, err)
	}
	owner := m.table.Reference(e.Owner)
	if owner == nil {
		return fmt.Errorf("field %s: owner %s is not a structure", e.ID, e.Owner.ID)
	}
	// Instantiations take their structured fields from the pattern.
	if owner.StructureKind == symtab.StructureTemplateInstantiationSpecialization && e.Type != nil {
		m.stats.Skipped++
		return nil
	}

	def := symtab.NewDefinition(symtab.Symbol{
		ID:        e.ID,
		Name:      e.Name,
		Namespace: namespaceOf(owner, e.OwnerNamespace),
		Src:       e.Src,
		Access:    e.Access,
	}, e.FullType)
	if e.Type != nil {
		def.Type = m.reference(*e.Type)
	}
	if owner.InstallField(def) == nil {
		return fmt.Errorf("field %s: id already holds another kind", e.ID)
	}
	m.stats.Fields++
	return nil
}

func (m *Miner) method(e MethodDecl) error {
	if e.ID == "" {
		return fmt.Errorf("method %q has no id", e.Name)
	}
	if m.ignored(e.Src.File, e.OwnerNamespace) {
		return nil
	}
	if err := m.checkMember(e.Owner, e.ID, symtab.KindMethod); err != nil {
		return fmt.Errorf("method %s: %w", e.ID, err)
	}
	owner := m.table.Reference(e.Owner)
	if owner == nil {
		return fmt.Errorf("method %s: owner %s is not a structure", e.ID, e.Owner.ID)
	}

	full := symtab.NewMethod(symtab.Symbol{
		ID:        e.ID,
		Name:      e.Name,
		Namespace: namespaceOf(owner, e.OwnerNamespace),
		Src:       e.Src,
		Access:    e.Access,
	}, e.Kind)
	full.Virtual = e.Virtual
	full.Metrics = e.Metrics
	if e.ReturnType != nil {
		full.ReturnType = m.reference(*e.ReturnType)
	}
	if e.Kind == symtab.MethodTemplateFullSpecialization || e.Kind == symtab.MethodTemplateInstantiationSpecialization {
		for _, ref := range e.TemplateArgs {
			full.AddTemplateArg(m.reference(ref))
		}
	}

	prev, seen := owner.LookupMethod(e.ID)
	defined := seen && !prev.IsStub()

	method := owner.InstallMethod(full)
	if method == nil {
		return fmt.Errorf("method %s: id already holds another kind", e.ID)
	}
	// A method seen again in another unit keeps its first body.
	if !defined {
		for _, acc := range e.Accesses {
			m.memberAccess(method, acc)
		}
	}
	m.stats.Methods++
	return nil
}

func (m *Miner) memberAccess(method *symtab.Method, acc MemberAccess) {
	if b := acc.Base; b != nil {
		mem := symtab.Member{Name: b.Name, End: b.End, Kind: b.Kind}
		if b.Type != nil {
			mem.Type = m.reference(*b.Type)
		}
		method.InsertMemberExpr(b.Begin.String(), symtab.MemberExpr{
			Expr: b.Name,
			Src:  b.Begin,
			End:  b.End,
		}, mem)
	}
	method.UpdateMemberExpr(acc.Begin.String(), symtab.MemberExpr{
		Expr: acc.Expr,
		Src:  acc.Begin,
		End:  acc.End,
	})
}

func (m *Miner) variable(e VarDecl) error {
	if e.ID == "" {
		return fmt.Errorf("variable %q has no id", e.Name)
	}
	if m.ignored(e.Src.File, e.OwnerNamespace) {
		return nil
	}
	owner := m.table.Reference(e.Owner)
	if owner == nil {
		return fmt.Errorf("variable %s: owner %s is not a structure", e.ID, e.Owner.ID)
	}
	method, ok := owner.Methods.InstallStub(e.Method, e.Method, symtab.KindMethod).(*symtab.Method)
	if !ok {
		log.Printf("⚠️ variable %s dropped: %s is not a method", e.ID, e.Method)
		m.stats.Skipped++
		return nil
	}

	def := symtab.NewDefinition(symtab.Symbol{
		ID:        e.ID,
		Name:      e.Name,
		Namespace: namespaceOf(owner, e.OwnerNamespace),
		Src:       e.Src,
	}, e.FullType)
	if e.Type != nil {
		def.Type = m.reference(*e.Type)
	}
	if e.Param {
		method.InstallArg(def)
	} else {
		method.InstallDefinition(def)
	}
	m.stats.Vars++
	return nil
}

// reference stubs ref in the table and returns its ID.
// checkMember reports an install that would fail before any stub is created
// for the owner or the member's references.
func (m *Miner) checkMember(owner symtab.Ref, id string, kind symtab.Kind) error {
	e, ok := m.table.Lookup(owner.ID)
	if !ok {
		return nil
	}
	st, ok := e.(*symtab.Structure)
	if !ok {
		return fmt.Errorf("owner %s is not a structure", owner.ID)
	}
	members := st.Fields
	if kind == symtab.KindMethod {
		members = st.Methods
	}
	if conflicts(members, id, kind) {
		return errors.New("id already holds another kind")
	}
	return nil
}

// conflicts reports whether installing a full record of kind under id would
// be refused.
func conflicts(s *symtab.Store, id string, kind symtab.Kind) bool {
	e, ok := s.Lookup(id)
	return ok && e.Kind() != kind && !e.IsStub()
}

func (m *Miner) reference(ref symtab.Ref) string {
	if st := m.table.Reference(ref); st != nil {
		return st.ID
	}
	return ref.ID
}

func namespaceOf(owner *symtab.Structure, fallback string) string {
	if owner.Namespace != "" {
		return owner.Namespace
	}
	return fallback
}

// Package mining applies declaration events from a language front end to a
// session's symbol table.
package mining

import "archmine/internal/symtab"

// Event is one declaration observed by a front end. The set is closed:
// StructureDecl, FieldDecl, MethodDecl and VarDecl.
type Event interface {
	event()
}

// StructureDecl declares a class, struct or template.
type StructureDecl struct {
	ID        string
	Name      string
	Namespace string
	Src       symtab.SourceInfo
	Kind      symtab.StructureKind

	// DeclarationOnly marks a template that is declared but has no
	// definition in this unit. It is installed without relationships.
	DeclarationOnly bool

	// TemplatePattern is the generic definition a specialization derives
	// from. Front ends do not always know its ID, so Name (the pattern's
	// declared name) is used as a fallback.
	TemplatePattern *symtab.Ref
	TemplateArgs    []symtab.Ref
	Bases           []symtab.Ref
	Friends         []symtab.Ref

	// Enclosing is the structure this one is declared in. Its Name is the
	// enclosing structure's qualified name.
	Enclosing *symtab.Ref
}

// FieldDecl declares a data member of Owner.
type FieldDecl struct {
	ID             string
	Name           string
	Owner          symtab.Ref
	OwnerNamespace string
	Src            symtab.SourceInfo
	Access         symtab.Access
	FullType       string
	// Type is set when the field's type (or its pointee) is a structure.
	Type *symtab.Ref
}

// MethodDecl declares a member function of Owner together with what was
// measured in its body.
type MethodDecl struct {
	ID             string
	Name           string
	Owner          symtab.Ref
	OwnerNamespace string
	Src            symtab.SourceInfo
	Access         symtab.Access
	Kind           symtab.MethodKind
	Virtual        bool
	ReturnType     *symtab.Ref
	TemplateArgs   []symtab.Ref
	Metrics        symtab.Metrics
	Accesses       []MemberAccess
}

// MemberAccess is one member expression in a method body, such as a.b or
// f().c. Front ends emit one per sub-expression of a chain; they merge on
// their start location.
type MemberAccess struct {
	Expr  string
	Begin symtab.SourceInfo
	End   symtab.SourceInfo
	// Base is nil when the accessed object is the receiver itself.
	Base *AccessBase
}

// AccessBase is the object a member is accessed on.
type AccessBase struct {
	Name  string
	Kind  symtab.MemberKind
	Type  *symtab.Ref
	Begin symtab.SourceInfo
	End   symtab.SourceInfo
}

// VarDecl declares a parameter or a local variable of a method.
type VarDecl struct {
	ID             string
	Name           string
	Owner          symtab.Ref
	OwnerNamespace string
	Method         string
	Src            symtab.SourceInfo
	FullType       string
	Type           *symtab.Ref
	Param          bool
}

func (StructureDecl) event() {}
func (FieldDecl) event()     {}
func (MethodDecl) event()    {}
func (VarDecl) event()       {}

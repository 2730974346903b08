package symtab

// Definition is a field, parameter or local variable.
type Definition struct {
	Symbol
	// Type is a structure ID; empty for fundamental or unresolved types.
	Type string
	// FullType is the declared type as written, kept whether or not Type resolved.
	FullType string

	stub bool
}

// NewDefinition returns a definition without a structured type.
func NewDefinition(sym Symbol, fullType string) *Definition {
	return &Definition{Symbol: sym, FullType: fullType}
}

func (d *Definition) Kind() Kind   { return KindDefinition }
func (d *Definition) Sym() *Symbol { return &d.Symbol }
func (d *Definition) IsStub() bool { return d.stub }
func (d *Definition) sealed()      {}

// IsStructure reports whether the definition's type resolved to a structure.
func (d *Definition) IsStructure() bool {
	return d.Type != ""
}

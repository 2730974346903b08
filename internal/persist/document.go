// Package persist maps a symbol table to and from its JSON checkpoint form.
//
// The document is {"structures": {id: ...}, "sources": [path, ...]}. Scalars
// and collections are pointers so that a key missing from the input can be
// told apart from its zero value during import; IDs that may be null use
// NullableID.
package persist

import (
	"bytes"
	"encoding/json"
)

// VoidType is the ret_type of a method that returns no structure.
const VoidType = "void"

// Document is the checkpoint: the mined table plus the ledger of sources.
type Document struct {
	Structures map[string]*StructureDoc `json:"structures"`
	Sources    []string                 `json:"sources"`
}

type SourceDoc struct {
	File *string `json:"file"`
	Line *int    `json:"line"`
	Col  *int    `json:"col"`
}

type StructureDoc struct {
	Name           *string                    `json:"name"`
	Namespace      *string                    `json:"namespace"`
	StructureType  *string                    `json:"structure_type"`
	SrcInfo        *SourceDoc                 `json:"src_info"`
	Bases          *[]string                  `json:"bases"`
	Contains       *[]string                  `json:"contains"`
	Friends        *[]string                  `json:"friends"`
	TemplateParent NullableID                 `json:"template_parent"`
	NestedParent   NullableID                 `json:"nested_parent"`
	TemplateArgs   *[]string                  `json:"template_args"`
	Methods        *map[string]*MethodDoc     `json:"methods"`
	Fields         *map[string]*DefinitionDoc `json:"fields"`
}

type MethodDoc struct {
	Name         *string                    `json:"name"`
	RetType      *string                    `json:"ret_type"`
	Args         *map[string]*DefinitionDoc `json:"args"`
	Definitions  *map[string]*DefinitionDoc `json:"definitions"`
	TemplateArgs *[]string                  `json:"template_args"`
	Literals     *int                       `json:"literals"`
	Statements   *int                       `json:"statements"`
	Branches     *int                       `json:"branches"`
	Loops        *int                       `json:"loops"`
	MaxScope     *int                       `json:"max_scope"`
	Lines        *int                       `json:"lines"`
	Access       *string                    `json:"access"`
	Virtual      *bool                      `json:"virtual"`
	MethodType   *string                    `json:"method_type"`
	SrcInfo      *SourceDoc                 `json:"src_info"`

	// MemberExprs is optional; older checkpoints do not carry it.
	MemberExprs map[string]*MemberExprDoc `json:"member_exprs,omitempty"`
}

type DefinitionDoc struct {
	Name     *string    `json:"name"`
	FullType *string    `json:"full_type"`
	Type     NullableID `json:"type"`
	SrcInfo  *SourceDoc `json:"src_info"`
	Access   *string    `json:"access,omitempty"`
}

type MemberExprDoc struct {
	Expr    *string     `json:"expr"`
	SrcInfo *SourceDoc  `json:"src_info"`
	End     *SourceDoc  `json:"end"`
	Members []MemberDoc `json:"members"`
}

type MemberDoc struct {
	Name *string    `json:"name"`
	Type *string    `json:"type"`
	End  *SourceDoc `json:"end"`
	Kind *string    `json:"kind"`
}

// NullableID is an ID key that must be present but may be null.
type NullableID struct {
	Set   bool
	Value *string
}

// idOrNull holds id, or null when id is empty.
func idOrNull(id string) NullableID {
	if id == "" {
		return NullableID{Set: true}
	}
	return NullableID{Set: true, Value: &id}
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

func (n NullableID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}

func ptr[T any](v T) *T {
	return &v
}

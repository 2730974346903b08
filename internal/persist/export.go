package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"archmine/internal/symtab"
)

// Export builds the document for table. Only records that carry a source
// location get an entry; stubs stay reachable as IDs inside other entries.
func Export(table *symtab.Store, sources []string) *Document {
	doc := &Document{
		Structures: make(map[string]*StructureDoc),
		Sources:    slices.Clone(sources),
	}
	if doc.Sources == nil {
		doc.Sources = []string{}
	}
	table.Each(func(e symtab.Entity) {
		if e.Sym().Src.IsZero() {
			return
		}
		if st, ok := e.(*symtab.Structure); ok {
			doc.Structures[st.ID] = exportStructure(st)
		}
	})
	return doc
}

func exportStructure(st *symtab.Structure) *StructureDoc {
	d := &StructureDoc{
		Name:           ptr(st.Name),
		Namespace:      ptr(st.Namespace),
		StructureType:  ptr(st.StructureKind.String()),
		SrcInfo:        exportSource(st.Src),
		Bases:          sortedIDs(&st.Bases),
		Contains:       sortedIDs(&st.Contains),
		Friends:        sortedIDs(&st.Friends),
		TemplateParent: idOrNull(st.TemplateParent),
		NestedParent:   idOrNull(st.NestedParent),
		TemplateArgs:   sortedIDs(&st.TemplateArgs),
		Fields:         exportDefinitions(st.Fields, true),
	}
	methods := make(map[string]*MethodDoc)
	st.Methods.Each(func(e symtab.Entity) {
		m, ok := e.(*symtab.Method)
		if !ok || m.Src.IsZero() {
			return
		}
		methods[m.ID] = exportMethod(m)
	})
	d.Methods = &methods
	return d
}

func exportMethod(m *symtab.Method) *MethodDoc {
	ret := m.ReturnType
	if ret == "" {
		ret = VoidType
	}
	d := &MethodDoc{
		Name:         ptr(m.Name),
		RetType:      ptr(ret),
		Args:         exportDefinitions(m.Args, false),
		Definitions:  exportDefinitions(m.Definitions, false),
		TemplateArgs: sortedIDs(&m.TemplateArgs),
		Literals:     ptr(m.Metrics.Literals),
		Statements:   ptr(m.Metrics.Statements),
		Branches:     ptr(m.Metrics.Branches),
		Loops:        ptr(m.Metrics.Loops),
		MaxScope:     ptr(m.Metrics.MaxScope),
		Lines:        ptr(m.Metrics.Lines),
		Access:       ptr(m.Access.String()),
		Virtual:      ptr(m.Virtual),
		MethodType:   ptr(m.MethodKind.String()),
		SrcInfo:      exportSource(m.Src),
	}
	if len(m.MemberExprs) > 0 {
		d.MemberExprs = make(map[string]*MemberExprDoc, len(m.MemberExprs))
		for key, rec := range m.MemberExprs {
			d.MemberExprs[key] = exportMemberExpr(rec)
		}
	}
	return d
}

func exportMemberExpr(rec *symtab.MemberExpr) *MemberExprDoc {
	d := &MemberExprDoc{
		Expr:    ptr(rec.Expr),
		SrcInfo: exportSource(rec.Src),
		End:     exportSource(rec.End),
		Members: make([]MemberDoc, 0, len(rec.Members)),
	}
	for _, mem := range rec.Members {
		d.Members = append(d.Members, MemberDoc{
			Name: ptr(mem.Name),
			Type: optionalID(mem.Type),
			End:  exportSource(mem.End),
			Kind: ptr(mem.Kind.String()),
		})
	}
	return d
}

func exportDefinitions(s *symtab.Store, withAccess bool) *map[string]*DefinitionDoc {
	out := make(map[string]*DefinitionDoc)
	s.Each(func(e symtab.Entity) {
		def, ok := e.(*symtab.Definition)
		if !ok || def.Src.IsZero() {
			return
		}
		d := &DefinitionDoc{
			Name:     ptr(def.Name),
			FullType: ptr(def.FullType),
			Type:     idOrNull(def.Type),
			SrcInfo:  exportSource(def.Src),
		}
		if withAccess && def.Access != symtab.AccessUnknown {
			d.Access = ptr(def.Access.String())
		}
		out[def.ID] = d
	})
	return &out
}

func sortedIDs(r *symtab.RefSet) *[]string {
	ids := r.Sorted()
	if ids == nil {
		ids = []string{}
	}
	return &ids
}

func exportSource(src symtab.SourceInfo) *SourceDoc {
	return &SourceDoc{File: ptr(src.File), Line: ptr(src.Line), Col: ptr(src.Column)}
}

func optionalID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

// Encode writes doc as indented JSON. Object keys are sorted by encoding/json
// and ID arrays are sorted by Export, so equal tables encode to equal bytes.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return nil
}

// Marshal exports table and encodes it in one step.
func Marshal(table *symtab.Store, sources []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, Export(table, sources)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

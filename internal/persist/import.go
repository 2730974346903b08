package persist

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"archmine/internal/symtab"
)

// Import rebuilds a table from doc. Every ID is materialized as a stub on
// first sight, whether as a top-level key or as a relationship target, and is
// filled in when its own entry is visited, so entry order does not matter.
//
// Import is all-or-nothing: on error no table is returned.
func Import(doc *Document) (*symtab.Store, []string, error) {
	if doc == nil {
		return nil, nil, missing("", "structures")
	}
	if doc.Structures == nil {
		return nil, nil, missing("", "structures")
	}
	if doc.Sources == nil {
		return nil, nil, missing("", "sources")
	}

	table := symtab.NewStore()
	for _, id := range sortedKeys(doc.Structures) {
		if err := importStructure(table, id, doc.Structures[id]); err != nil {
			return nil, nil, err
		}
	}
	return table, slices.Clone(doc.Sources), nil
}

func importStructure(table *symtab.Store, id string, d *StructureDoc) error {
	if d == nil {
		return &SchemaError{Entity: id, Field: "structures", Reason: "null entry in"}
	}
	name, err := requireString(id, "name", d.Name)
	if err != nil {
		return err
	}
	ns, err := requireString(id, "namespace", d.Namespace)
	if err != nil {
		return err
	}
	kindName, err := requireString(id, "structure_type", d.StructureType)
	if err != nil {
		return err
	}
	kind, ok := symtab.ParseStructureKind(kindName)
	if !ok {
		return invalid(id, "structure_type", kindName)
	}
	src, err := requireSource(id, "src_info", d.SrcInfo)
	if err != nil {
		return err
	}

	st, ok := table.InstallFull(symtab.NewStructure(symtab.Symbol{
		ID:        id,
		Name:      name,
		Namespace: ns,
		Src:       src,
	}, kind)).(*symtab.Structure)
	if !ok {
		return &SchemaError{Entity: id, Field: "structures", Reason: "conflicting entity kind in"}
	}

	for _, rel := range []struct {
		field string
		ids   *[]string
		add   func(string)
	}{
		{"contains", d.Contains, st.AddNestedClass},
		{"bases", d.Bases, st.AddBase},
		{"friends", d.Friends, st.AddFriend},
		{"template_args", d.TemplateArgs, st.AddTemplateArg},
	} {
		if rel.ids == nil {
			return missing(id, rel.field)
		}
		for _, ref := range *rel.ids {
			rel.add(reference(table, ref))
		}
	}
	if st.NestedParent, err = nullableID(table, id, "nested_parent", d.NestedParent); err != nil {
		return err
	}
	if st.TemplateParent, err = nullableID(table, id, "template_parent", d.TemplateParent); err != nil {
		return err
	}
	if d.Fields == nil {
		return missing(id, "fields")
	}
	if d.Methods == nil {
		return missing(id, "methods")
	}

	for _, fid := range sortedKeys(*d.Fields) {
		def, err := importDefinition(table, id+"/fields/"+fid, fid, ns, (*d.Fields)[fid])
		if err != nil {
			return err
		}
		if st.InstallField(def) == nil {
			return &SchemaError{Entity: id, Field: "fields", Reason: "conflicting entity kind in"}
		}
	}
	for _, mid := range sortedKeys(*d.Methods) {
		m, err := importMethod(table, id+"/methods/"+mid, mid, ns, (*d.Methods)[mid])
		if err != nil {
			return err
		}
		if st.InstallMethod(m) == nil {
			return &SchemaError{Entity: id, Field: "methods", Reason: "conflicting entity kind in"}
		}
	}
	return nil
}

func importMethod(table *symtab.Store, path, id, ns string, d *MethodDoc) (*symtab.Method, error) {
	if d == nil {
		return nil, &SchemaError{Entity: path, Field: "methods", Reason: "null entry in"}
	}
	name, err := requireString(path, "name", d.Name)
	if err != nil {
		return nil, err
	}
	kindName, err := requireString(path, "method_type", d.MethodType)
	if err != nil {
		return nil, err
	}
	kind, ok := symtab.ParseMethodKind(kindName)
	if !ok {
		return nil, invalid(path, "method_type", kindName)
	}
	access, err := requireString(path, "access", d.Access)
	if err != nil {
		return nil, err
	}
	src, err := requireSource(path, "src_info", d.SrcInfo)
	if err != nil {
		return nil, err
	}
	ret, err := requireString(path, "ret_type", d.RetType)
	if err != nil {
		return nil, err
	}
	if d.Virtual == nil {
		return nil, missing(path, "virtual")
	}
	for _, key := range []struct {
		field   string
		present bool
	}{
		{"args", d.Args != nil},
		{"definitions", d.Definitions != nil},
		{"template_args", d.TemplateArgs != nil},
	} {
		if !key.present {
			return nil, missing(path, key.field)
		}
	}

	var metrics symtab.Metrics
	for _, f := range []struct {
		name string
		src  *int
		dst  *int
	}{
		{"literals", d.Literals, &metrics.Literals},
		{"statements", d.Statements, &metrics.Statements},
		{"branches", d.Branches, &metrics.Branches},
		{"loops", d.Loops, &metrics.Loops},
		{"max_scope", d.MaxScope, &metrics.MaxScope},
		{"lines", d.Lines, &metrics.Lines},
	} {
		if f.src == nil {
			return nil, missing(path, f.name)
		}
		*f.dst = *f.src
	}

	m := symtab.NewMethod(symtab.Symbol{
		ID:        id,
		Name:      name,
		Namespace: ns,
		Src:       src,
		Access:    symtab.ParseAccess(access),
	}, kind)
	m.Metrics = metrics
	m.Virtual = *d.Virtual
	if ret != VoidType {
		m.ReturnType = reference(table, ret)
	}
	for _, ref := range *d.TemplateArgs {
		m.AddTemplateArg(reference(table, ref))
	}

	for _, aid := range sortedKeys(*d.Args) {
		def, err := importDefinition(table, path+"/args/"+aid, aid, ns, (*d.Args)[aid])
		if err != nil {
			return nil, err
		}
		m.InstallArg(def)
	}
	for _, did := range sortedKeys(*d.Definitions) {
		def, err := importDefinition(table, path+"/definitions/"+did, did, ns, (*d.Definitions)[did])
		if err != nil {
			return nil, err
		}
		m.InstallDefinition(def)
	}
	for _, key := range sortedKeys(d.MemberExprs) {
		if err := importMemberExpr(table, path+"/member_exprs/"+key, key, m, d.MemberExprs[key]); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func importMemberExpr(table *symtab.Store, path, key string, m *symtab.Method, d *MemberExprDoc) error {
	if d == nil {
		return &SchemaError{Entity: path, Field: "member_exprs", Reason: "null entry in"}
	}
	expr, err := requireString(path, "expr", d.Expr)
	if err != nil {
		return err
	}
	src, err := requireSource(path, "src_info", d.SrcInfo)
	if err != nil {
		return err
	}
	end, err := requireSource(path, "end", d.End)
	if err != nil {
		return err
	}
	rec := m.UpdateMemberExpr(key, symtab.MemberExpr{Expr: expr, Src: src, End: end})
	for i, md := range d.Members {
		mpath := fmt.Sprintf("%s/members/%d", path, i)
		name, err := requireString(mpath, "name", md.Name)
		if err != nil {
			return err
		}
		kind, err := requireString(mpath, "kind", md.Kind)
		if err != nil {
			return err
		}
		mend, err := requireSource(mpath, "end", md.End)
		if err != nil {
			return err
		}
		mem := symtab.Member{Name: name, End: mend, Kind: symtab.ParseMemberKind(kind)}
		if md.Type != nil {
			mem.Type = reference(table, *md.Type)
		}
		rec.Members = append(rec.Members, mem)
	}
	return nil
}

func importDefinition(table *symtab.Store, path, id, ns string, d *DefinitionDoc) (*symtab.Definition, error) {
	if d == nil {
		return nil, &SchemaError{Entity: path, Field: "definition", Reason: "null entry in"}
	}
	name, err := requireString(path, "name", d.Name)
	if err != nil {
		return nil, err
	}
	fullType, err := requireString(path, "full_type", d.FullType)
	if err != nil {
		return nil, err
	}
	src, err := requireSource(path, "src_info", d.SrcInfo)
	if err != nil {
		return nil, err
	}
	def := symtab.NewDefinition(symtab.Symbol{ID: id, Name: name, Namespace: ns, Src: src}, fullType)
	if d.Access != nil {
		def.Access = symtab.ParseAccess(*d.Access)
	}
	if def.Type, err = nullableID(table, path, "type", d.Type); err != nil {
		return nil, err
	}
	return def, nil
}

// reference stubs id in the top-level table and returns it.
func reference(table *symtab.Store, id string) string {
	table.InstallStub(id, id, symtab.KindStructure)
	return id
}

// nullableID requires the key to be present; null yields "".
func nullableID(table *symtab.Store, entity, field string, v NullableID) (string, error) {
	if !v.Set {
		return "", missing(entity, field)
	}
	if v.Value == nil {
		return "", nil
	}
	return reference(table, *v.Value), nil
}

func requireString(entity, field string, v *string) (string, error) {
	if v == nil {
		return "", missing(entity, field)
	}
	return *v, nil
}

func requireSource(entity, field string, d *SourceDoc) (symtab.SourceInfo, error) {
	if d == nil {
		return symtab.SourceInfo{}, missing(entity, field)
	}
	if d.File == nil {
		return symtab.SourceInfo{}, missing(entity, field+".file")
	}
	if d.Line == nil {
		return symtab.SourceInfo{}, missing(entity, field+".line")
	}
	if d.Col == nil {
		return symtab.SourceInfo{}, missing(entity, field+".col")
	}
	return symtab.SourceInfo{File: *d.File, Line: *d.Line, Column: *d.Col}, nil
}

// Decode reads a document. Type mismatches are reported as schema errors.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &SchemaError{Field: typeErr.Field, Reason: "wrong JSON type " + typeErr.Value + " for"}
		}
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &doc, nil
}

// Unmarshal decodes data and imports it.
func Unmarshal(data []byte) (*symtab.Store, []string, error) {
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return Import(doc)
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

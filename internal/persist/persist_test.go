package persist

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archmine/internal/symtab"
)

func at(file string, line, col int) symtab.SourceInfo {
	return symtab.SourceInfo{File: file, Line: line, Column: col}
}

// sampleTable holds a class with one stub base, a template with one
// instantiation and a method with measured body.
func sampleTable() *symtab.Store {
	t := symtab.NewStore()

	a := symtab.NewStructure(symtab.Symbol{ID: "A", Name: "A", Namespace: "app::", Src: at("a.h", 3, 7)}, symtab.StructureClass)
	a.AddBase(t.Reference(symtab.Ref{ID: "B", Name: "B"}).ID)
	a.InstallField(&symtab.Definition{
		Symbol:   symtab.Symbol{ID: "A::items", Name: "items", Namespace: "app::", Src: at("a.h", 5, 3), Access: symtab.AccessPrivate},
		Type:     "Vec<int>",
		FullType: "Vec<int>",
	})
	run := symtab.NewMethod(symtab.Symbol{ID: "A::run", Name: "run", Namespace: "app::", Src: at("a.cpp", 10, 1), Access: symtab.AccessPublic}, symtab.MethodUserMethod)
	run.Metrics = symtab.Metrics{Literals: 2, Statements: 4, Branches: 1, Loops: 1, MaxScope: 2, Lines: 9}
	run.ReturnType = t.Reference(symtab.Ref{ID: "Vec<int>", Name: "Vec"}).ID
	run.InstallArg(symtab.NewDefinition(symtab.Symbol{ID: "A::run::n", Name: "n", Src: at("a.cpp", 10, 14)}, "int"))
	local := symtab.NewDefinition(symtab.Symbol{ID: "A::run::b", Name: "b", Src: at("a.cpp", 11, 5)}, "B *")
	local.Type = "B"
	run.InstallDefinition(local)
	run.InsertMemberExpr(at("a.cpp", 12, 5).String(),
		symtab.MemberExpr{Expr: "b->size", Src: at("a.cpp", 12, 5), End: at("a.cpp", 12, 12)},
		symtab.Member{Name: "b", Type: "B", End: at("a.cpp", 12, 5), Kind: symtab.MemberLocalVariable})
	a.InstallMethod(run)
	t.InstallFull(a)

	vec := symtab.NewStructure(symtab.Symbol{ID: "Vec", Name: "Vec", Namespace: "app::", Src: at("vec.h", 1, 1)}, symtab.StructureTemplateDefinition)
	t.InstallFull(vec)

	inst := symtab.NewStructure(symtab.Symbol{ID: "Vec<int>", Name: "Vec", Namespace: "app::", Src: at("vec.h", 1, 1)}, symtab.StructureTemplateInstantiationSpecialization)
	inst.TemplateParent = "Vec"
	inst.AddTemplateArg(t.Reference(symtab.Ref{ID: "int", Name: "int"}).ID)
	t.InstallFull(inst)

	return t
}

func TestExport_OmitsStubs(t *testing.T) {
	doc := Export(sampleTable(), []string{"a.cpp"})

	require.Contains(t, doc.Structures, "A")
	assert.NotContains(t, doc.Structures, "B")
	assert.NotContains(t, doc.Structures, "int")
	assert.Equal(t, []string{"B"}, *doc.Structures["A"].Bases)
	assert.Len(t, doc.Structures, 3)

	run := (*doc.Structures["A"].Methods)["A::run"]
	require.NotNil(t, run)
	assert.Equal(t, "Vec<int>", *run.RetType)
	assert.Equal(t, "public", *run.Access)

	field := (*doc.Structures["A"].Fields)["A::items"]
	require.NotNil(t, field.Access)
	assert.Equal(t, "private", *field.Access)
	arg := (*run.Args)["A::run::n"]
	assert.Nil(t, arg.Access, "unknown access is omitted")
	assert.True(t, arg.Type.Set)
	assert.Nil(t, arg.Type.Value)
	assert.Nil(t, doc.Structures["A"].TemplateParent.Value)
}

func TestExport_JSONShape(t *testing.T) {
	data, err := Marshal(sampleTable(), []string{"a.cpp"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	structures := raw["structures"].(map[string]any)
	a := structures["A"].(map[string]any)

	assert.Equal(t, "Class", a["structure_type"])
	assert.Contains(t, a, "template_parent")
	assert.Nil(t, a["template_parent"])
	assert.Equal(t, map[string]any{"file": "a.h", "line": float64(3), "col": float64(7)}, a["src_info"])

	run := a["methods"].(map[string]any)["A::run"].(map[string]any)
	assert.Equal(t, "UserMethod", run["method_type"])
	assert.Equal(t, float64(2), run["literals"])
	assert.Equal(t, float64(2), run["max_scope"])
	assert.Equal(t, false, run["virtual"])
	assert.Equal(t, []any{"a.cpp"}, raw["sources"])
}

func TestRoundTrip(t *testing.T) {
	first, err := Marshal(sampleTable(), []string{"a.cpp", "vec.cpp"})
	require.NoError(t, err)

	table, sources, err := Unmarshal(first)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.cpp", "vec.cpp"}, sources)

	second, err := Marshal(table, sources)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, string(first), string(second), "encoding must be deterministic")

	t.Run("relationships restored", func(t *testing.T) {
		inst, ok := table.Structure("Vec<int>")
		require.True(t, ok)
		assert.Equal(t, "Vec", inst.TemplateParent)
		assert.Equal(t, []string{"int"}, inst.TemplateArgs.IDs())

		stub, ok := table.Structure("B")
		require.True(t, ok)
		assert.True(t, stub.IsStub())

		a, _ := table.Structure("A")
		run, ok := a.LookupMethod("A::run")
		require.True(t, ok, spew.Sdump(a.Methods.IDs()))
		assert.Equal(t, symtab.Metrics{Literals: 2, Statements: 4, Branches: 1, Loops: 1, MaxScope: 2, Lines: 9}, run.Metrics)
		assert.Equal(t, "app::", run.Namespace)
		require.Len(t, run.MemberExprs, 1)
	})
}

func TestImport_OrderIndependent(t *testing.T) {
	// B is referenced by A before its own entry would be visited by name
	// order; the stub must be upgraded, not duplicated.
	doc := Export(sampleTable(), nil)
	b := symtab.NewStore()
	b.InstallFull(symtab.NewStructure(symtab.Symbol{ID: "B", Name: "B", Namespace: "app::", Src: at("b.h", 1, 1)}, symtab.StructureStruct))
	doc.Structures["B"] = Export(b, nil).Structures["B"]
	doc.Structures["0first"] = &StructureDoc{
		Name: ptr("First"), Namespace: ptr(""), StructureType: ptr("Struct"),
		SrcInfo:        exportSource(at("f.h", 1, 1)),
		Bases:          &[]string{"B"},
		Contains:       &[]string{},
		Friends:        &[]string{},
		TemplateArgs:   &[]string{},
		TemplateParent: idOrNull(""),
		NestedParent:   idOrNull(""),
		Methods:        &map[string]*MethodDoc{},
		Fields:         &map[string]*DefinitionDoc{},
	}

	table, _, err := Import(doc)
	require.NoError(t, err)

	first, _ := table.Structure("0first")
	base, ok := table.Structure(first.Bases.IDs()[0])
	require.True(t, ok)
	assert.False(t, base.IsStub())
	assert.Equal(t, symtab.StructureStruct, base.StructureKind)
}

func TestImport_SchemaError(t *testing.T) {
	cases := []struct {
		name  string
		mut   func(d *Document)
		field string
	}{
		{"structure name", func(d *Document) { d.Structures["A"].Name = nil }, "name"},
		{"src line", func(d *Document) { d.Structures["Vec"].SrcInfo.Line = nil }, "src_info.line"},
		{"method metric", func(d *Document) { (*d.Structures["A"].Methods)["A::run"].Loops = nil }, "loops"},
		{"field full type", func(d *Document) { (*d.Structures["A"].Fields)["A::items"].FullType = nil }, "full_type"},
		{"bases", func(d *Document) { d.Structures["A"].Bases = nil }, "bases"},
		{"contains", func(d *Document) { d.Structures["A"].Contains = nil }, "contains"},
		{"friends", func(d *Document) { d.Structures["A"].Friends = nil }, "friends"},
		{"structure template args", func(d *Document) { d.Structures["Vec<int>"].TemplateArgs = nil }, "template_args"},
		{"methods", func(d *Document) { d.Structures["A"].Methods = nil }, "methods"},
		{"fields", func(d *Document) { d.Structures["A"].Fields = nil }, "fields"},
		{"template parent", func(d *Document) { d.Structures["Vec<int>"].TemplateParent = NullableID{} }, "template_parent"},
		{"nested parent", func(d *Document) { d.Structures["A"].NestedParent = NullableID{} }, "nested_parent"},
		{"args", func(d *Document) { (*d.Structures["A"].Methods)["A::run"].Args = nil }, "args"},
		{"definitions", func(d *Document) { (*d.Structures["A"].Methods)["A::run"].Definitions = nil }, "definitions"},
		{"method template args", func(d *Document) { (*d.Structures["A"].Methods)["A::run"].TemplateArgs = nil }, "template_args"},
		{"definition type", func(d *Document) { (*d.Structures["A"].Fields)["A::items"].Type = NullableID{} }, "type"},
		{"bad kind", func(d *Document) { d.Structures["A"].StructureType = ptr("Union") }, "structure_type"},
		{"sources", func(d *Document) { d.Sources = nil }, "sources"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := Export(sampleTable(), []string{"a.cpp"})
			tc.mut(doc)

			table, sources, err := Import(doc)
			require.Error(t, err)
			assert.Nil(t, table)
			assert.Nil(t, sources)
			assert.True(t, errors.Is(err, ErrSchema))

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestUnmarshal_MissingKeys(t *testing.T) {
	const src = `{"file": "a.h", "line": 1, "col": 1}`
	structure := `"name": "A", "namespace": "", "structure_type": "Class", "src_info": ` + src
	method := `"name": "f", "ret_type": "void", "literals": 0, "statements": 0, "branches": 0,
		"loops": 0, "max_scope": 0, "lines": 0, "access": "public", "virtual": false,
		"method_type": "UserMethod", "src_info": ` + src
	cases := []struct {
		name  string
		doc   string
		field string
	}{
		{"structure without collections", `{"structures": {"A": {` + structure + `}}, "sources": []}`, "contains"},
		{"structure without parents", `{"structures": {"A": {` + structure + `,
			"bases": [], "contains": [], "friends": [], "template_args": [],
			"methods": {}, "fields": {}}}, "sources": []}`, "nested_parent"},
		{"method without args", `{"structures": {"A": {` + structure + `,
			"bases": [], "contains": [], "friends": [], "template_args": [],
			"template_parent": null, "nested_parent": null, "fields": {},
			"methods": {"A::f": {` + method + `, "template_args": []}}}}, "sources": []}`, "args"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table, sources, err := Unmarshal([]byte(tc.doc))
			require.Error(t, err)
			assert.Nil(t, table)
			assert.Nil(t, sources)

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.field, se.Field)
		})
	}

	t.Run("null parents are accepted", func(t *testing.T) {
		doc := `{"structures": {"A": {` + structure + `,
			"bases": [], "contains": [], "friends": [], "template_args": [],
			"template_parent": null, "nested_parent": null,
			"methods": {"A::f": {` + method + `, "args": {}, "definitions": {}, "template_args": []}},
			"fields": {}}}, "sources": ["a.h"]}`
		table, sources, err := Unmarshal([]byte(doc))
		require.NoError(t, err)
		assert.Equal(t, []string{"a.h"}, sources)
		a, ok := table.Structure("A")
		require.True(t, ok)
		assert.Empty(t, a.TemplateParent)
		_, ok = a.LookupMethod("A::f")
		assert.True(t, ok)
	})
}

func TestDecode_WrongType(t *testing.T) {
	_, _, err := Unmarshal([]byte(`{"structures": {"A": {"name": 7}}, "sources": []}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)

	_, _, err = Unmarshal([]byte(`{not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSchema)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "checkpoint.json")

	t.Run("missing file is empty", func(t *testing.T) {
		table, sources, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0, table.Len())
		assert.Empty(t, sources)
	})

	t.Run("save then load", func(t *testing.T) {
		require.NoError(t, Save(path, sampleTable(), []string{"a.cpp"}))
		table, sources, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.cpp"}, sources)
		_, ok := table.Structure("A")
		assert.True(t, ok)
	})

	t.Run("failed replace keeps previous checkpoint", func(t *testing.T) {
		before, err := os.ReadFile(path)
		require.NoError(t, err)

		rename = func(string, string) error { return errors.New("disk full") }
		defer func() { rename = os.Rename }()

		err = Save(path, symtab.NewStore(), []string{"a.cpp", "b.cpp"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")

		after, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, before, after)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temp file must be cleaned up")
	})

	t.Run("corrupt file", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{"structures":{}}`), 0o644))
		_, _, err := Load(bad)
		assert.ErrorIs(t, err, ErrSchema)
	})
}

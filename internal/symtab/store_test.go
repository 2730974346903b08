package symtab

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(file string, line, col int) SourceInfo {
	return SourceInfo{File: file, Line: line, Column: col}
}

func TestStore_StubUpgradePreservesIdentity(t *testing.T) {
	s := NewStore()

	stub := s.InstallStub("X", "Foo", KindStructure)
	require.True(t, stub.IsStub())
	assert.True(t, stub.Sym().Src.IsZero())

	a := NewStructure(Symbol{ID: "A", Name: "A", Src: loc("a.h", 1, 1)}, StructureClass)
	a.AddBase(s.Reference(Ref{ID: "X", Name: "Foo"}).ID)
	s.InstallFull(a)

	full := NewStructure(Symbol{ID: "X", Name: "Foo", Namespace: "ns", Src: loc("x.h", 3, 7)}, StructureStruct)
	got := s.InstallFull(full)

	assert.Same(t, stub, got, "upgrade must keep the stub's allocation")
	assert.False(t, got.IsStub())

	base, ok := s.Structure(a.Bases.IDs()[0])
	require.True(t, ok)
	assert.Equal(t, StructureStruct, base.StructureKind)
	assert.Equal(t, "ns", base.Namespace)
	assert.Equal(t, loc("x.h", 3, 7), base.Src)
}

func TestStore_AtMostOneDefinition(t *testing.T) {
	s := NewStore()

	first := NewStructure(Symbol{ID: "S", Name: "S", Src: loc("s.h", 1, 1)}, StructureClass)
	first.AddBase("B")
	s.InstallFull(first)

	second := NewStructure(Symbol{ID: "S", Name: "Other", Src: loc("t.h", 9, 9)}, StructureStruct)
	got := s.InstallFull(second)

	assert.Same(t, first, got)
	assert.Equal(t, "S", got.Sym().Name)
	assert.Equal(t, StructureClass, first.StructureKind)
	assert.Equal(t, []string{"B"}, first.Bases.IDs())
	assert.Equal(t, 1, s.Len())
}

func TestStore_InstallStubReturnsExisting(t *testing.T) {
	s := NewStore()
	full := NewMethod(Symbol{ID: "m", Name: "run", Src: loc("a.h", 2, 2)}, MethodUserMethod)
	s.InstallFull(full)

	got := s.InstallStub("m", "ignored", KindMethod)
	assert.Same(t, full, got)
	assert.False(t, got.IsStub())
}

func TestStore_UpgradeKeepsStubMembers(t *testing.T) {
	s := NewStore()
	stub := s.Reference(Ref{ID: "C", Name: "C"})
	stub.InstallMethod(NewMethod(Symbol{ID: "C::f", Name: "f", Src: loc("c.cpp", 10, 1)}, MethodUserMethod))
	stub.AddNestedClass("C::Inner")

	full := NewStructure(Symbol{ID: "C", Name: "C", Src: loc("c.h", 1, 1)}, StructureClass)
	full.InstallField(NewDefinition(Symbol{ID: "C::x", Name: "x", Src: loc("c.h", 2, 5)}, "int"))
	s.InstallFull(full)

	c, ok := s.Structure("C")
	require.True(t, ok)
	_, hasMethod := c.LookupMethod("C::f")
	assert.True(t, hasMethod, spew.Sdump(c.Methods.IDs()))
	assert.Equal(t, 1, c.Fields.Len())
	assert.True(t, c.Contains.Has("C::Inner"))
}

func TestStore_DeclarationSiteUpgradesBareStub(t *testing.T) {
	s := NewStore()
	bare := s.InstallStub("T", "T", KindStructure)

	decl := NewStructure(Symbol{ID: "T", Name: "T", Src: loc("t.h", 4, 1)}, StructureUndefined)
	got := s.InstallFull(decl)
	assert.Same(t, bare, got)
	assert.Equal(t, loc("t.h", 4, 1), got.Sym().Src)
	assert.True(t, got.IsStub())

	// A second bare stub install cannot erase the location.
	s.InstallFull(NewStructure(Symbol{ID: "T", Name: "T"}, StructureUndefined))
	assert.Equal(t, loc("t.h", 4, 1), got.Sym().Src)
}

func TestStore_KindMismatch(t *testing.T) {
	s := NewStore()
	s.InstallStub("id", "thing", KindDefinition)

	st := NewStructure(Symbol{ID: "id", Name: "thing", Src: loc("a.h", 1, 1)}, StructureClass)
	got := s.InstallFull(st)
	assert.Same(t, st, got)

	assert.Nil(t, s.Reference(Ref{ID: "", Name: "x"}))

	m := NewMethod(Symbol{ID: "dup", Name: "dup", Src: loc("a.h", 1, 1)}, MethodUserMethod)
	owner := NewStructure(Symbol{ID: "O", Name: "O"}, StructureClass)
	owner.InstallMethod(m)
	assert.Nil(t, owner.InstallField(NewDefinition(Symbol{ID: "dup", Name: "dup", Src: loc("a.h", 2, 1)}, "int")))
}

func TestStore_NameIndexAndTemplates(t *testing.T) {
	s := NewStore()
	s.InstallFull(NewStructure(Symbol{ID: "vec_spec", Name: "vector", Src: loc("v.h", 50, 1)}, StructureTemplateFullSpecialization))
	s.InstallFull(NewStructure(Symbol{ID: "vec", Name: "vector", Src: loc("v.h", 1, 1)}, StructureTemplateDefinition))

	assert.Len(t, s.LookupName("vector"), 2)

	t.Run("by id", func(t *testing.T) {
		got := s.ResolveTemplate(Ref{ID: "vec_spec", Name: "vector"})
		assert.Equal(t, "vec_spec", got.ID)
	})

	t.Run("by name prefers template definition", func(t *testing.T) {
		got := s.ResolveTemplate(Ref{ID: "unknown", Name: "vector"})
		assert.Equal(t, "vec", got.ID)
	})

	t.Run("falls back to stub", func(t *testing.T) {
		got := s.ResolveTemplate(Ref{ID: "map", Name: "map"})
		require.NotNil(t, got)
		assert.True(t, got.IsStub())
		assert.Equal(t, "map", got.Name)
	})

	t.Run("reindex on upgrade", func(t *testing.T) {
		s.InstallStub("q", "q", KindStructure)
		s.InstallFull(NewStructure(Symbol{ID: "q", Name: "Queue", Src: loc("q.h", 1, 1)}, StructureClass))
		assert.Empty(t, s.LookupName("q"))
		assert.Len(t, s.LookupName("Queue"), 1)
	})
}

func TestStore_DeterministicIteration(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"c", "a", "b"} {
		s.InstallStub(id, id, KindDefinition)
	}
	var seen []string
	s.Each(func(e Entity) { seen = append(seen, e.Sym().ID) })
	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, seen, s.IDs())
}

func TestMethod_MemberExprMerge(t *testing.T) {
	m := NewMethod(Symbol{ID: "m", Name: "m"}, MethodUserMethod)
	begin := loc("a.cpp", 5, 3)
	key := begin.String()

	m.InsertMemberExpr(key, MemberExpr{Expr: "a.b", Src: begin, End: loc("a.cpp", 5, 6)},
		Member{Name: "a", Type: "A", Kind: MemberLocalVariable, End: loc("a.cpp", 5, 4)})
	m.InsertMemberExpr(key, MemberExpr{Expr: "a.b().c", Src: begin, End: loc("a.cpp", 5, 10)},
		Member{Name: "b", Type: "B", Kind: MemberClassMethodResult, End: loc("a.cpp", 5, 6)})
	m.InsertMemberExpr(key, MemberExpr{Expr: "a.b()", Src: begin, End: loc("a.cpp", 5, 8)},
		Member{Name: "c", Type: "C", Kind: MemberClassField, End: loc("a.cpp", 5, 10)})

	require.Len(t, m.MemberExprs, 1)
	rec := m.MemberExprs[key]
	assert.Equal(t, "a.b().c", rec.Expr)
	assert.Equal(t, loc("a.cpp", 5, 10), rec.End)
	require.Len(t, rec.Members, 3)
	assert.Equal(t, MemberClassMethodResult, rec.Members[1].Kind)
}

func TestSourceInfo_Order(t *testing.T) {
	a := loc("a.cpp", 3, 20)
	b := loc("a.cpp", 4, 1)
	c := loc("b.cpp", 1, 1)

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))
	assert.Equal(t, 0, a.Compare(a))
	assert.False(t, a.Before(a))
	assert.Equal(t, "a.cpp:3:20", a.String())
}

func TestStableID(t *testing.T) {
	assert.Equal(t, "ns::Foo", StableID("ns::Foo"))
	assert.Equal(t, "ns::Foo", StableID("  ns::Foo "))

	a := StableID("std::vector", "int")
	b := StableID("std::vector", "int")
	c := StableID("std::vector", "long")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "std::vector<")
	assert.Equal(t, StableID("x", "const  int"), StableID("x", "const int"))

	assert.Equal(t, "ns::Foo::bar", MemberID("ns::Foo", "bar"))
}

func TestEnumNames(t *testing.T) {
	for k := range structureKindNames {
		got, ok := ParseStructureKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	for k := range methodKindNames {
		got, ok := ParseMethodKind(k.String())
		assert.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseStructureKind("Nope")
	assert.False(t, ok)
	assert.Equal(t, AccessProtected, ParseAccess("protected"))
	assert.Equal(t, AccessUnknown, ParseAccess(""))
	assert.Equal(t, MemberClassField, ParseMemberKind("ClassField"))
	assert.True(t, StructureTemplatePartialSpecialization.IsTemplate())
	assert.False(t, StructureStruct.IsTemplate())
	assert.True(t, MethodDestructorTrivial.IsTrivial())
}

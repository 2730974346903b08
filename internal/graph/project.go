package graph

import (
	"slices"

	"archmine/internal/symtab"
)

// Project turns a finalized table into a graph. Nodes are the entities that
// carry a source location; edges leave every fully defined structure and
// method. A target that is a stub or absent becomes an unknown terminal node.
// The table is only read.
func Project(table *symtab.Store) *Graph {
	p := &projector{table: table, g: NewGraph()}
	table.Each(func(e symtab.Entity) {
		if st, ok := e.(*symtab.Structure); ok && !st.Src.IsZero() {
			p.structure(st)
		}
	})
	p.resolveTargets()
	return p.g
}

type projector struct {
	table   *symtab.Store
	g       *Graph
	targets []string
}

func (p *projector) edge(from, to string, kind EdgeKind, via string, member symtab.MemberKind) {
	if to == "" {
		return
	}
	p.g.AddEdge(Edge{From: from, To: to, Kind: kind, Via: via, Member: member})
	p.targets = append(p.targets, to)
}

func (p *projector) structure(st *symtab.Structure) {
	p.g.AddNode(&Node{
		ID:        st.ID,
		Name:      st.Name,
		Namespace: st.Namespace,
		Kind:      symtab.KindStructure,
		Label:     st.StructureKind.String(),
		Src:       st.Src,
		Unknown:   st.IsStub(),
	})
	if st.IsStub() {
		return
	}

	for _, id := range st.Bases.Sorted() {
		p.edge(st.ID, id, EdgeInherit, "", 0)
	}
	for _, id := range st.Friends.Sorted() {
		p.edge(st.ID, id, EdgeFriend, "", 0)
	}
	for _, id := range st.Contains.Sorted() {
		p.edge(st.ID, id, EdgeNestedClass, "", 0)
	}
	st.Fields.Each(func(e symtab.Entity) {
		f, ok := e.(*symtab.Definition)
		if !ok || f.Src.IsZero() {
			return
		}
		p.definitionNode(f, st.ID)
		if f.IsStructure() {
			p.edge(st.ID, f.Type, EdgeClassField, f.ID, 0)
		}
	})
	p.edge(st.ID, st.TemplateParent, EdgeClassTemplateParent, "", 0)
	for _, id := range st.TemplateArgs.Sorted() {
		p.edge(st.ID, id, EdgeClassTemplateArg, "", 0)
	}

	st.Methods.Each(func(e symtab.Entity) {
		if m, ok := e.(*symtab.Method); ok && !m.Src.IsZero() {
			p.method(m, st.ID)
		}
	})
}

func (p *projector) method(m *symtab.Method, owner string) {
	p.g.AddNode(&Node{
		ID:        m.ID,
		Name:      m.Name,
		Namespace: m.Namespace,
		Kind:      symtab.KindMethod,
		Label:     m.MethodKind.String(),
		Src:       m.Src,
		Owner:     owner,
		Unknown:   m.IsStub(),
	})
	if m.IsStub() {
		return
	}

	p.edge(m.ID, m.ReturnType, EdgeMethodReturn, "", 0)
	m.Args.Each(func(e symtab.Entity) {
		if d, ok := e.(*symtab.Definition); ok && !d.Src.IsZero() {
			p.definitionNode(d, owner)
			if d.IsStructure() {
				p.edge(m.ID, d.Type, EdgeMethodArg, d.ID, 0)
			}
		}
	})
	m.Definitions.Each(func(e symtab.Entity) {
		if d, ok := e.(*symtab.Definition); ok && !d.Src.IsZero() {
			p.definitionNode(d, owner)
			if d.IsStructure() {
				p.edge(m.ID, d.Type, EdgeMethodDefinition, d.ID, 0)
			}
		}
	})
	for _, id := range m.TemplateArgs.Sorted() {
		p.edge(m.ID, id, EdgeMethodTemplateArg, "", 0)
	}

	keys := make([]string, 0, len(m.MemberExprs))
	for k := range m.MemberExprs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, mem := range m.MemberExprs[k].Members {
			p.edge(m.ID, mem.Type, EdgeMemberExpr, k, mem.Kind)
		}
	}
}

func (p *projector) definitionNode(d *symtab.Definition, owner string) {
	p.g.AddNode(&Node{
		ID:        d.ID,
		Name:      d.Name,
		Namespace: d.Namespace,
		Kind:      symtab.KindDefinition,
		Label:     d.FullType,
		Src:       d.Src,
		Owner:     owner,
	})
}

// resolveTargets adds an unknown node for every edge target that did not
// become a node itself.
func (p *projector) resolveTargets() {
	for _, id := range p.targets {
		if _, ok := p.g.Nodes[id]; ok {
			continue
		}
		n := &Node{ID: id, Name: id, Kind: symtab.KindStructure, Unknown: true}
		if e, ok := p.table.Lookup(id); ok {
			n.Name = e.Sym().Name
			n.Namespace = e.Sym().Namespace
			n.Kind = e.Kind()
		}
		p.g.AddNode(n)
	}
}

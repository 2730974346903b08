package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"archmine/internal/mining"
	"archmine/internal/symtab"

	sitter "github.com/smacker/go-tree-sitter"
)

var builtinTypes = map[string]bool{
	"any": true, "bool": true, "byte": true, "comparable": true,
	"complex64": true, "complex128": true, "error": true,
	"float32": true, "float64": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"rune": true, "string": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
}

// unit is one parsed file.
type unit struct {
	path string
	src  []byte
	tree *sitter.Tree
	pkg  string
}

func (u *unit) close() {
	if u.tree != nil {
		u.tree.Close()
		u.tree = nil
	}
}

func (u *unit) root() *sitter.Node {
	return u.tree.RootNode()
}

func (u *unit) packageName() string {
	for _, n := range namedChildren(u.root()) {
		if n.Type() != "package_clause" {
			continue
		}
		for _, c := range namedChildren(n) {
			if c.Type() == "package_identifier" {
				return c.Content(u.src)
			}
		}
	}
	return ""
}

// collectIndex records this file's contribution to the package index.
func (u *unit) collectIndex() *index {
	idx := newIndex()
	w := newWalker(u, idx)
	for _, decl := range namedChildren(u.root()) {
		switch decl.Type() {
		case "type_declaration":
			for _, spec := range namedChildren(decl) {
				if spec.Type() != "type_spec" {
					continue
				}
				w.withTypeParams(spec.ChildByFieldName("type_parameters"), func() {
					id := w.qualify(w.text(spec.ChildByFieldName("name")))
					body := spec.ChildByFieldName("type")
					if body == nil || body.Type() != "struct_type" {
						return
					}
					for _, fd := range structFields(body) {
						for _, name := range fieldNames(fd) {
							idx.addField(id, w.text(name), w.typeRef(fd.ChildByFieldName("type")))
						}
					}
				})
			}
		case "method_declaration":
			owner, _, params := w.receiver(decl)
			if owner == nil {
				continue
			}
			w.withTypeParams(params, func() {
				idx.addReturn(owner.ID, w.text(decl.ChildByFieldName("name")), w.resultRef(decl))
			})
		case "function_declaration":
			if ref := w.constructs(decl); ref != nil {
				idx.ctors[w.qualify(w.text(decl.ChildByFieldName("name")))] = *ref
			}
		}
	}
	return idx
}

// events walks the file's top-level declarations in source order.
func (u *unit) events(idx *index) []mining.Event {
	w := newWalker(u, idx)
	for _, decl := range namedChildren(u.root()) {
		switch decl.Type() {
		case "type_declaration":
			for _, spec := range namedChildren(decl) {
				if spec.Type() == "type_spec" {
					w.typeSpec(spec, nil)
				}
			}
		case "method_declaration":
			w.method(decl)
		case "function_declaration":
			w.constructor(decl)
		}
	}
	return w.out
}

// walker produces the events of one file.
type walker struct {
	u   *unit
	idx *index
	out []mining.Event

	typeParams map[string]bool
	// localTypes maps type names declared inside the current body to their IDs.
	localTypes map[string]string
}

func newWalker(u *unit, idx *index) *walker {
	return &walker{u: u, idx: idx, typeParams: map[string]bool{}, localTypes: map[string]string{}}
}

func (w *walker) emit(ev mining.Event) {
	w.out = append(w.out, ev)
}

func (w *walker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(w.u.src)
}

func (w *walker) pos(p sitter.Point) symtab.SourceInfo {
	return symtab.SourceInfo{File: w.u.path, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (w *walker) qualify(name string) string {
	return symtab.StableID(w.u.pkg + "::" + name)
}

// withTypeParams runs fn with the names declared in list treated as type
// parameters rather than structures.
func (w *walker) withTypeParams(list *sitter.Node, fn func()) {
	saved := w.typeParams
	if list != nil {
		scoped := make(map[string]bool, len(saved)+2)
		for k := range saved {
			scoped[k] = true
		}
		for _, decl := range namedChildren(list) {
			// Receiver type arguments are bare identifiers; declarations
			// carry identifier names next to their constraint.
			if decl.Type() == "type_identifier" {
				scoped[w.text(decl)] = true
				continue
			}
			for _, c := range namedChildren(decl) {
				if c.Type() == "identifier" || (decl.Type() == "type_elem" && c.Type() == "type_identifier") {
					scoped[w.text(c)] = true
				}
			}
		}
		w.typeParams = scoped
	}
	fn()
	w.typeParams = saved
}

// typeRef resolves a type expression to the structure it depends on.
// Pointers, slices, arrays and channels resolve to their element. It returns
// nil for builtin types, type parameters and anything without a named
// structure.
func (w *walker) typeRef(n *sitter.Node) *symtab.Ref {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "type_identifier":
		name := w.text(n)
		if builtinTypes[name] || w.typeParams[name] {
			return nil
		}
		if id, ok := w.localTypes[name]; ok {
			return &symtab.Ref{ID: id, Name: name}
		}
		return &symtab.Ref{ID: w.qualify(name), Name: name}
	case "qualified_type":
		pkg, name := w.text(n.ChildByFieldName("package")), w.text(n.ChildByFieldName("name"))
		if pkg == "" || name == "" {
			return nil
		}
		return &symtab.Ref{ID: symtab.StableID(pkg + "::" + name), Name: name}
	case "generic_type":
		return w.instantiation(n)
	case "pointer_type", "slice_type", "array_type", "channel_type", "parenthesized_type", "type_elem":
		elem := n.ChildByFieldName("element")
		if elem == nil {
			elem = n.ChildByFieldName("value")
		}
		if elem == nil && n.NamedChildCount() > 0 {
			elem = n.NamedChild(int(n.NamedChildCount()) - 1)
		}
		return w.typeRef(elem)
	}
	return nil
}

// instantiation declares the specialization a generic type use denotes. A
// use that still mentions type parameters resolves to the generic itself.
func (w *walker) instantiation(n *sitter.Node) *symtab.Ref {
	pattern := w.typeRef(n.ChildByFieldName("type"))
	if pattern == nil {
		return nil
	}
	argList := n.ChildByFieldName("type_arguments")
	if argList == nil || w.mentionsTypeParam(argList) {
		return pattern
	}

	var texts []string
	var refs []symtab.Ref
	for _, a := range namedChildren(argList) {
		if a.Type() == "comment" {
			continue
		}
		texts = append(texts, canonical(w.text(a)))
		if ref := w.typeRef(a); ref != nil {
			refs = append(refs, *ref)
		}
	}
	id := symtab.StableID(pattern.ID, texts...)
	name := pattern.Name + "[" + strings.Join(texts, ", ") + "]"
	w.emit(mining.StructureDecl{
		ID:              id,
		Name:            name,
		Namespace:       namespaceOf(pattern.ID),
		Src:             w.pos(n.StartPoint()),
		Kind:            symtab.StructureTemplateInstantiationSpecialization,
		TemplatePattern: &symtab.Ref{ID: pattern.ID, Name: pattern.Name},
		TemplateArgs:    refs,
	})
	return &symtab.Ref{ID: id, Name: name}
}

func (w *walker) mentionsTypeParam(n *sitter.Node) bool {
	if n.Type() == "type_identifier" && w.typeParams[w.text(n)] {
		return true
	}
	for _, c := range namedChildren(n) {
		if w.mentionsTypeParam(c) {
			return true
		}
	}
	return false
}

// typeSpec declares a named type with its fields, embedded types and, for
// interfaces, its method set. enclosing is set for types declared inside a
// method body.
func (w *walker) typeSpec(spec *sitter.Node, enclosing *symtab.Ref) {
	nameNode := spec.ChildByFieldName("name")
	body := spec.ChildByFieldName("type")
	if nameNode == nil || body == nil {
		return
	}
	name := w.text(nameNode)
	id := w.qualify(name)
	if enclosing != nil {
		id = symtab.MemberID(enclosing.ID, name)
		w.localTypes[name] = id
	}
	params := spec.ChildByFieldName("type_parameters")

	w.withTypeParams(params, func() {
		kind := symtab.StructureClass
		switch {
		case params != nil:
			kind = symtab.StructureTemplateDefinition
		case body.Type() == "struct_type":
			kind = symtab.StructureStruct
		}

		var bases []symtab.Ref
		switch body.Type() {
		case "struct_type":
			for _, fd := range structFields(body) {
				if len(fieldNames(fd)) > 0 {
					continue
				}
				if ref := w.typeRef(fd.ChildByFieldName("type")); ref != nil {
					bases = append(bases, *ref)
				}
			}
		case "interface_type":
			for _, el := range interfaceElems(body) {
				if isMethodElem(el) {
					continue
				}
				if ref := w.typeRef(el); ref != nil {
					bases = append(bases, *ref)
				}
			}
		}

		w.emit(mining.StructureDecl{
			ID:        id,
			Name:      name,
			Namespace: w.u.pkg,
			Src:       w.pos(spec.StartPoint()),
			Kind:      kind,
			Bases:     bases,
			Enclosing: enclosing,
		})

		owner := symtab.Ref{ID: id, Name: name}
		switch body.Type() {
		case "struct_type":
			w.fields(owner, body)
		case "interface_type":
			for _, el := range interfaceElems(body) {
				if isMethodElem(el) {
					w.interfaceMethod(owner, el)
				}
			}
		}
	})
}

func (w *walker) fields(owner symtab.Ref, body *sitter.Node) {
	for _, fd := range structFields(body) {
		typeNode := fd.ChildByFieldName("type")
		for _, n := range fieldNames(fd) {
			name := w.text(n)
			w.emit(mining.FieldDecl{
				ID:             symtab.MemberID(owner.ID, name),
				Name:           name,
				Owner:          owner,
				OwnerNamespace: w.u.pkg,
				Src:            w.pos(n.StartPoint()),
				Access:         accessOf(name),
				FullType:       canonical(w.text(typeNode)),
				Type:           w.typeRef(typeNode),
			})
		}
	}
}

func (w *walker) interfaceMethod(owner symtab.Ref, el *sitter.Node) {
	name := w.text(el.ChildByFieldName("name"))
	if name == "" {
		return
	}
	id := symtab.MemberID(owner.ID, name)
	ret := w.resultRef(el)
	w.emit(mining.MethodDecl{
		ID:             id,
		Name:           name,
		Owner:          owner,
		OwnerNamespace: w.u.pkg,
		Src:            w.pos(el.StartPoint()),
		Access:         accessOf(name),
		Kind:           symtab.MethodUserMethod,
		Virtual:        true,
		ReturnType:     ret,
	})
	w.params(owner, id, el.ChildByFieldName("parameters"))
}

// receiver returns the structure a method is declared on, the receiver's
// name and the type parameter list of a generic receiver.
func (w *walker) receiver(decl *sitter.Node) (*symtab.Ref, string, *sitter.Node) {
	list := decl.ChildByFieldName("receiver")
	if list == nil {
		return nil, "", nil
	}
	for _, p := range namedChildren(list) {
		if p.Type() != "parameter_declaration" {
			continue
		}
		t := p.ChildByFieldName("type")
		for t != nil && (t.Type() == "pointer_type" || t.Type() == "parenthesized_type") {
			t = t.NamedChild(0)
		}
		var params *sitter.Node
		if t != nil && t.Type() == "generic_type" {
			params = t.ChildByFieldName("type_arguments")
			t = t.ChildByFieldName("type")
		}
		if t == nil || t.Type() != "type_identifier" {
			return nil, "", nil
		}
		name := w.text(t)
		return &symtab.Ref{ID: w.qualify(name), Name: name}, w.text(p.ChildByFieldName("name")), params
	}
	return nil, "", nil
}

// resultRef resolves the first result type of a function or method.
func (w *walker) resultRef(decl *sitter.Node) *symtab.Ref {
	res := decl.ChildByFieldName("result")
	if res == nil {
		return nil
	}
	if res.Type() == "parameter_list" {
		for _, p := range namedChildren(res) {
			if p.Type() == "parameter_declaration" {
				return w.typeRef(p.ChildByFieldName("type"))
			}
		}
		return nil
	}
	return w.typeRef(res)
}

// constructs reports the type a NewX function builds: its first result,
// when that is a structure of the same package.
func (w *walker) constructs(decl *sitter.Node) *symtab.Ref {
	name := w.text(decl.ChildByFieldName("name"))
	if !strings.HasPrefix(name, "New") || decl.ChildByFieldName("type_parameters") != nil {
		return nil
	}
	ref := w.resultRef(decl)
	if ref == nil || namespaceOf(ref.ID) != w.u.pkg {
		return nil
	}
	return ref
}

func (w *walker) method(decl *sitter.Node) {
	owner, recv, params := w.receiver(decl)
	if owner == nil {
		return
	}
	w.withTypeParams(params, func() {
		w.function(decl, *owner, recv, symtab.MethodUserMethod)
	})
}

// constructor mines a NewX function as a constructor of X. Other
// receiver-less functions have no owning structure and are skipped.
func (w *walker) constructor(decl *sitter.Node) {
	owner := w.constructs(decl)
	if owner == nil {
		return
	}
	w.function(decl, *owner, "", symtab.MethodConstructorUserDefined)
}

func (w *walker) function(decl *sitter.Node, owner symtab.Ref, recv string, kind symtab.MethodKind) {
	name := w.text(decl.ChildByFieldName("name"))
	if name == "" {
		return
	}
	id := symtab.MemberID(owner.ID, name)
	ret := w.resultRef(decl)

	scan := newBodyScan(w, owner.ID, recv)
	for _, p := range w.paramList(decl.ChildByFieldName("parameters")) {
		scan.declareParam(p)
	}
	var nested []*sitter.Node
	var metrics symtab.Metrics
	if body := decl.ChildByFieldName("body"); body != nil {
		scan.run(body)
		metrics = scan.metrics
		nested = scan.nested
	}

	w.emit(mining.MethodDecl{
		ID:             id,
		Name:           name,
		Owner:          owner,
		OwnerNamespace: w.u.pkg,
		Src:            w.pos(decl.StartPoint()),
		Access:         accessOf(name),
		Kind:           kind,
		ReturnType:     ret,
		Metrics:        metrics,
		Accesses:       scan.accesses,
	})
	for _, v := range scan.vars {
		w.emit(mining.VarDecl{
			ID:             symtab.MemberID(id, v.name),
			Name:           v.name,
			Owner:          owner,
			OwnerNamespace: w.u.pkg,
			Method:         id,
			Src:            v.src,
			FullType:       v.fullType,
			Type:           v.ref,
			Param:          v.param,
		})
	}
	for _, spec := range nested {
		w.typeSpec(spec, &symtab.Ref{ID: owner.ID, Name: owner.ID})
	}
	clear(w.localTypes)
}

func (w *walker) params(owner symtab.Ref, method string, list *sitter.Node) {
	for _, p := range w.paramList(list) {
		w.emit(mining.VarDecl{
			ID:             symtab.MemberID(method, p.name),
			Name:           p.name,
			Owner:          owner,
			OwnerNamespace: w.u.pkg,
			Method:         method,
			Src:            p.src,
			FullType:       p.fullType,
			Type:           p.ref,
			Param:          true,
		})
	}
}

type param struct {
	name     string
	fullType string
	ref      *symtab.Ref
	src      symtab.SourceInfo
}

// paramList returns the named parameters of list. Blank and unnamed
// parameters are left out.
func (w *walker) paramList(list *sitter.Node) []param {
	var out []param
	for _, p := range namedChildren(list) {
		if p.Type() != "parameter_declaration" && p.Type() != "variadic_parameter_declaration" {
			continue
		}
		t := p.ChildByFieldName("type")
		full := canonical(w.text(t))
		if p.Type() == "variadic_parameter_declaration" {
			full = "..." + full
		}
		ref := w.typeRef(t)
		for _, c := range namedChildren(p) {
			if c.Type() != "identifier" || w.text(c) == "_" {
				continue
			}
			out = append(out, param{name: w.text(c), fullType: full, ref: ref, src: w.pos(c.StartPoint())})
		}
	}
	return out
}

func structFields(structType *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(structType) {
		if c.Type() != "field_declaration_list" {
			continue
		}
		for _, fd := range namedChildren(c) {
			if fd.Type() == "field_declaration" {
				out = append(out, fd)
			}
		}
	}
	return out
}

func fieldNames(fd *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(fd) {
		if c.Type() == "field_identifier" {
			out = append(out, c)
		}
	}
	return out
}

func interfaceElems(iface *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(iface) {
		switch c.Type() {
		case "comment":
		case "method_spec_list":
			out = append(out, interfaceElems(c)...)
		default:
			out = append(out, c)
		}
	}
	return out
}

func isMethodElem(n *sitter.Node) bool {
	return n.Type() == "method_elem" || n.Type() == "method_spec"
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

func accessOf(name string) symtab.Access {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return symtab.AccessPublic
	}
	return symtab.AccessPrivate
}

func canonical(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package extractor

import (
	"archmine/internal/mining"
	"archmine/internal/symtab"

	sitter "github.com/smacker/go-tree-sitter"
)

var literalTypes = map[string]bool{
	"int_literal":                true,
	"float_literal":              true,
	"imaginary_literal":          true,
	"rune_literal":               true,
	"raw_string_literal":         true,
	"interpreted_string_literal": true,
	"true":                       true,
	"false":                      true,
	"nil":                        true,
}

var branchTypes = map[string]bool{
	"if_statement":                true,
	"expression_switch_statement": true,
	"type_switch_statement":       true,
	"select_statement":            true,
	"break_statement":             true,
	"continue_statement":          true,
	"goto_statement":              true,
	"return_statement":            true,
}

type localVar struct {
	name     string
	fullType string
	ref      *symtab.Ref
	src      symtab.SourceInfo
	param    bool
}

// bodyScan measures a function body and collects its locals and member
// accesses.
type bodyScan struct {
	w     *walker
	owner string
	recv  string

	vars   []*localVar
	byName map[string]*localVar

	metrics  symtab.Metrics
	accesses []mining.MemberAccess
	nested   []*sitter.Node
	depth    int
}

func newBodyScan(w *walker, owner, recv string) *bodyScan {
	return &bodyScan{w: w, owner: owner, recv: recv, byName: map[string]*localVar{}, depth: -1}
}

func (b *bodyScan) declareParam(p param) {
	b.add(&localVar{name: p.name, fullType: p.fullType, ref: p.ref, src: p.src, param: true})
}

func (b *bodyScan) declare(n *sitter.Node, fullType string, ref *symtab.Ref) {
	name := b.w.text(n)
	if name == "_" || name == b.recv {
		return
	}
	b.add(&localVar{name: name, fullType: fullType, ref: ref, src: b.w.pos(n.StartPoint())})
}

// add keeps the first declaration of a name; shadowing locals share an ID.
func (b *bodyScan) add(v *localVar) {
	if _, ok := b.byName[v.name]; ok {
		return
	}
	b.byName[v.name] = v
	b.vars = append(b.vars, v)
}

func (b *bodyScan) run(body *sitter.Node) {
	b.visit(body)
	b.metrics.Lines = int(body.EndPoint().Row - body.StartPoint().Row)
}

func (b *bodyScan) visit(n *sitter.Node) {
	switch t := n.Type(); {
	case t == "block":
		b.metrics.Statements += statementCount(n)
		b.depth++
		b.metrics.MaxScope = max(b.metrics.MaxScope, b.depth)
		b.children(n)
		b.depth--
		return
	case t == "type_spec":
		if name := b.w.text(n.ChildByFieldName("name")); name != "" {
			b.w.localTypes[name] = symtab.MemberID(b.owner, name)
		}
		b.nested = append(b.nested, n)
		return
	case branchTypes[t]:
		b.metrics.Branches++
	case t == "for_statement":
		b.metrics.Loops++
	case literalTypes[t]:
		b.metrics.Literals++
	case t == "short_var_declaration":
		b.shortVar(n)
	case t == "var_spec":
		b.varSpec(n)
	case t == "range_clause":
		b.rangeVars(n)
	case t == "selector_expression":
		b.selector(n)
	}
	b.children(n)
}

func (b *bodyScan) children(n *sitter.Node) {
	for _, c := range namedChildren(n) {
		b.visit(c)
	}
}

// statementCount counts the statements directly inside a block.
func statementCount(block *sitter.Node) int {
	count := 0
	for _, c := range namedChildren(block) {
		switch c.Type() {
		case "comment":
		case "statement_list":
			count += statementCount(c)
		default:
			count++
		}
	}
	return count
}

func (b *bodyScan) shortVar(n *sitter.Node) {
	left := identifiers(n.ChildByFieldName("left"))
	right := namedChildren(n.ChildByFieldName("right"))
	for i, id := range left {
		var full string
		var ref *symtab.Ref
		if len(left) == len(right) {
			full, ref = b.infer(right[i])
		}
		b.declare(id, full, ref)
	}
}

func (b *bodyScan) varSpec(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	values := namedChildren(n.ChildByFieldName("value"))
	var names []*sitter.Node
	for _, c := range namedChildren(n) {
		if c.Type() == "identifier" {
			names = append(names, c)
		}
	}
	for i, id := range names {
		full, ref := canonical(b.w.text(typeNode)), b.w.typeRef(typeNode)
		if typeNode == nil && len(values) == len(names) {
			full, ref = b.infer(values[i])
		}
		b.declare(id, full, ref)
	}
}

func (b *bodyScan) rangeVars(n *sitter.Node) {
	isDecl := false
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == ":=" {
			isDecl = true
		}
	}
	if !isDecl {
		return
	}
	for _, id := range identifiers(n.ChildByFieldName("left")) {
		b.declare(id, "", nil)
	}
}

// infer guesses the type of an initializer: composite literals, their
// address, and calls to known constructors.
func (b *bodyScan) infer(expr *sitter.Node) (string, *symtab.Ref) {
	switch expr.Type() {
	case "composite_literal":
		t := expr.ChildByFieldName("type")
		return canonical(b.w.text(t)), b.w.typeRef(t)
	case "unary_expression":
		if b.w.text(expr.ChildByFieldName("operator")) == "&" {
			if full, ref := b.infer(expr.ChildByFieldName("operand")); ref != nil {
				return "*" + full, ref
			}
		}
	case "call_expression":
		fn := expr.ChildByFieldName("function")
		var qn string
		switch {
		case fn == nil:
		case fn.Type() == "identifier":
			qn = b.w.qualify(b.w.text(fn))
		case fn.Type() == "selector_expression":
			pkg := fn.ChildByFieldName("operand")
			if pkg != nil && pkg.Type() == "identifier" && b.byName[b.w.text(pkg)] == nil {
				qn = symtab.StableID(b.w.text(pkg) + "::" + b.w.text(fn.ChildByFieldName("field")))
			}
		}
		if ref := b.w.idx.constructed(qn); ref != nil {
			return "*" + ref.Name, ref
		}
	}
	return "", nil
}

// selector records a member access. Selectors on package names and other
// unknown identifiers are not member accesses.
func (b *bodyScan) selector(n *sitter.Node) {
	operand := n.ChildByFieldName("operand")
	if operand == nil {
		return
	}
	acc := mining.MemberAccess{
		Expr:  canonical(b.w.text(n)),
		Begin: b.w.pos(n.StartPoint()),
		End:   b.w.pos(n.EndPoint()),
	}
	base := &mining.AccessBase{
		Name:  canonical(b.w.text(operand)),
		Kind:  symtab.MemberUnclassified,
		Begin: b.w.pos(operand.StartPoint()),
		End:   b.w.pos(operand.EndPoint()),
	}

	switch operand.Type() {
	case "identifier":
		name := b.w.text(operand)
		if b.isReceiver(operand) {
			base = nil
			break
		}
		v, ok := b.byName[name]
		if !ok {
			return
		}
		base.Kind = symtab.MemberLocalVariable
		base.Type = v.ref
	case "selector_expression":
		if b.isReceiver(operand.ChildByFieldName("operand")) {
			base.Kind = symtab.MemberClassField
			base.Type = b.w.idx.fieldType(b.owner, b.w.text(operand.ChildByFieldName("field")))
		}
	case "call_expression":
		fn := operand.ChildByFieldName("function")
		if fn != nil && fn.Type() == "selector_expression" && b.isReceiver(fn.ChildByFieldName("operand")) {
			base.Kind = symtab.MemberClassMethodResult
			base.Type = b.w.idx.returnType(b.owner, b.w.text(fn.ChildByFieldName("field")))
		}
	}
	acc.Base = base
	b.accesses = append(b.accesses, acc)
}

func (b *bodyScan) isReceiver(n *sitter.Node) bool {
	return n != nil && b.recv != "" && n.Type() == "identifier" && b.w.text(n) == b.recv
}

func identifiers(list *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, c := range namedChildren(list) {
		if c.Type() == "identifier" {
			out = append(out, c)
		}
	}
	return out
}

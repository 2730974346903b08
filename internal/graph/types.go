package graph

import (
	"fmt"

	"archmine/internal/symtab"
)

// EdgeKind is the closed set of dependency kinds.
type EdgeKind int

const (
	EdgeInherit EdgeKind = iota
	EdgeFriend
	EdgeNestedClass
	EdgeClassField
	EdgeClassTemplateParent
	EdgeClassTemplateArg
	EdgeMethodReturn
	EdgeMethodArg
	EdgeMethodDefinition
	EdgeMethodTemplateArg
	EdgeMemberExpr
)

// EdgeKinds lists every kind in declaration order.
var EdgeKinds = []EdgeKind{
	EdgeInherit,
	EdgeFriend,
	EdgeNestedClass,
	EdgeClassField,
	EdgeClassTemplateParent,
	EdgeClassTemplateArg,
	EdgeMethodReturn,
	EdgeMethodArg,
	EdgeMethodDefinition,
	EdgeMethodTemplateArg,
	EdgeMemberExpr,
}

var edgeKindNames = [...]string{
	EdgeInherit:             "Inherit",
	EdgeFriend:              "Friend",
	EdgeNestedClass:         "NestedClass",
	EdgeClassField:          "ClassField",
	EdgeClassTemplateParent: "ClassTemplateParent",
	EdgeClassTemplateArg:    "ClassTemplateArg",
	EdgeMethodReturn:        "MethodReturn",
	EdgeMethodArg:           "MethodArg",
	EdgeMethodDefinition:    "MethodDefinition",
	EdgeMethodTemplateArg:   "MethodTemplateArg",
	EdgeMemberExpr:          "MemberExpr",
}

func (k EdgeKind) String() string {
	if k >= 0 && int(k) < len(edgeKindNames) {
		return edgeKindNames[k]
	}
	return fmt.Sprintf("EdgeKind(%d)", int(k))
}

// ParseEdgeKind is the inverse of EdgeKind.String.
func ParseEdgeKind(s string) (EdgeKind, bool) {
	for _, k := range EdgeKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Node is a vertex of the projected graph.
type Node struct {
	ID        string
	Name      string
	Namespace string
	Kind      symtab.Kind
	// Label is the structure or method kind, e.g. "Class" or "UserMethod".
	Label string
	Src   symtab.SourceInfo
	// Owner is the enclosing structure of a method or field.
	Owner string
	// Unknown marks a target that was referenced but never defined. Such
	// nodes are terminal.
	Unknown bool
}

// Edge is one typed dependency.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
	// Via names the declaration that induced the edge: a field, argument or
	// local ID, or the start location of a member expression.
	Via string
	// Member classifies MemberExpr edges.
	Member symtab.MemberKind
}

package symtab

// MemberKind classifies the base of a member access.
type MemberKind int

const (
	MemberUnclassified MemberKind = iota
	MemberLocalVariable
	MemberClassField
	MemberClassMethodResult
)

var memberKindNames = map[MemberKind]string{
	MemberUnclassified:      "Unclassified",
	MemberLocalVariable:     "LocalVariable",
	MemberClassField:        "ClassField",
	MemberClassMethodResult: "ClassMethodResult",
}

func (k MemberKind) String() string {
	if s, ok := memberKindNames[k]; ok {
		return s
	}
	return "Unclassified"
}

// ParseMemberKind is the inverse of MemberKind.String.
func ParseMemberKind(s string) MemberKind {
	for k, name := range memberKindNames {
		if name == s {
			return k
		}
	}
	return MemberUnclassified
}

// Member is one classified usage inside a member access chain.
type Member struct {
	Name string
	// Type is the structure ID of the accessed base's declared type.
	Type string
	End  SourceInfo
	Kind MemberKind
}

// MemberExpr is a chained member access such as a.b().c, recorded at its
// start location.
type MemberExpr struct {
	Expr    string
	Src     SourceInfo
	End     SourceInfo
	Members []Member
}

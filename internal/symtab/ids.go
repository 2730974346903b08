package symtab

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zeebo/xxh3"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// StableID derives the identity of a declaration from its fully qualified
// name. Template arguments add a fingerprint so every instantiation gets its
// own ID while the generic definition keeps the bare name.
func StableID(qualifiedName string, templateArgs ...string) string {
	qn := canonicalize(qualifiedName)
	if len(templateArgs) == 0 {
		return qn
	}
	args := make([]string, len(templateArgs))
	for i, a := range templateArgs {
		args[i] = canonicalize(a)
	}
	return fmt.Sprintf("%s<%016x>", qn, xxh3.HashString(strings.Join(args, ",")))
}

// MemberID is the identity of a member (method, field, argument or local)
// scoped under its owner.
func MemberID(ownerID, name string) string {
	return ownerID + "::" + canonicalize(name)
}

func canonicalize(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

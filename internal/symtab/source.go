package symtab

import (
	"cmp"
	"fmt"
)

// SourceInfo is a position in a source file. The zero value means "no location"
// and is what stubs carry.
type SourceInfo struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"col"`
}

// IsZero reports whether the location is absent.
func (s SourceInfo) IsZero() bool {
	return s.File == ""
}

// String renders the location as file:line:col. It is also the key used for
// member expressions.
func (s SourceInfo) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.Line, s.Column)
}

// Compare orders locations by file, then line, then column.
func (s SourceInfo) Compare(o SourceInfo) int {
	if c := cmp.Compare(s.File, o.File); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Line, o.Line); c != 0 {
		return c
	}
	return cmp.Compare(s.Column, o.Column)
}

// Before reports whether s sorts strictly before o.
func (s SourceInfo) Before(o SourceInfo) bool {
	return s.Compare(o) < 0
}

// Package bytecode defines the compiled form of a pattern: the opcode
// stream, the option bits, the character tables and the Pattern object that
// owns them, plus the binary layout used to save and reload patterns.
//
// A Pattern is immutable once compiled and may be shared by any number of
// concurrent matches.
package bytecode

import "sort"

// NameEntry maps a named capture to its group number.
type NameEntry struct {
	Name   string
	Number int
}

// Pattern is a compiled regular expression.
type Pattern struct {
	// Code is the opcode stream. Code[0] is the OpBra of the whole pattern
	// and the stream ends with OpEnd.
	Code []byte

	// Options holds the compile options plus the internal *Flag bits.
	Options Option

	// TopBracket is the number of capturing groups.
	TopBracket int

	// TopBackref is the highest group number used in a back reference.
	TopBackref int

	// FirstByte is the byte every match starts with, valid when FirstSet
	// is in Options; ReqCaseless may be or'ed in.
	FirstByte int

	// ReqByte is a byte every match must contain, valid when ReqByteSet is
	// in Options; ReqCaseless and ReqVary may be or'ed in.
	ReqByte int

	// Names lists named groups sorted by name.
	Names []NameEntry

	// RefCount is an external reference count carried through save/reload.
	RefCount int

	// StartBits, when non-nil, is the set of bytes a match may start with.
	// It is derived by study and never serialized.
	StartBits *[32]byte

	// Tables are the character tables used at compile time.
	Tables *Tables
}

// UTF8 reports whether the pattern was compiled in UTF-8 mode.
func (p *Pattern) UTF8() bool {
	return p.Options&UTF8 != 0
}

// Anchored reports whether every match must start at the start offset.
func (p *Pattern) Anchored() bool {
	return p.Options&Anchored != 0
}

// First returns the first-byte value and whether it is set.
func (p *Pattern) First() (int, bool) {
	return p.FirstByte, p.Options&FirstSet != 0
}

// Required returns the required-byte value and whether it is set.
func (p *Pattern) Required() (int, bool) {
	return p.ReqByte, p.Options&ReqByteSet != 0
}

// GroupNumber returns the number of the named group, or -1.
func (p *Pattern) GroupNumber(name string) int {
	i := sort.Search(len(p.Names), func(i int) bool { return p.Names[i].Name >= name })
	if i < len(p.Names) && p.Names[i].Name == name {
		return p.Names[i].Number
	}
	return -1
}

// TablesOrDefault returns p.Tables, or the default tables if unset.
func (p *Pattern) TablesOrDefault() *Tables {
	if p.Tables != nil {
		return p.Tables
	}
	return DefaultTables()
}

// SkippableGroups reports, for every group number up to TopBracket, whether
// the group sits inside a quantified group with a zero minimum and so may
// legitimately be absent from a match. The result is derived from the code
// stream on each call; callers that need it per match should cache it.
func (p *Pattern) SkippableGroups() []bool {
	skip := make([]bool, p.TopBracket+1)
	code := p.Code
	utf8 := p.UTF8()
	for pc := 0; pc < len(code); {
		op := Op(code[pc])
		if op == OpEnd {
			break
		}
		if op == OpBraZero || op == OpBraMinZero {
			end := SkipGroup(code, pc+1)
			for g := pc + 1; g < end; g = Next(code, g, utf8) {
				if Op(code[g]) == OpCBra {
					if n := Get2(code, g+1+LinkSize); n < len(skip) {
						skip[n] = true
					}
				}
			}
		}
		pc = Next(code, pc, utf8)
	}
	return skip
}

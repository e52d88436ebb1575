package bytecode

import "strings"

// Character type bits in Tables.Types.
const (
	CtypeSpace  = 0x01
	CtypeLetter = 0x02
	CtypeDigit  = 0x04
	CtypeXDigit = 0x08
	CtypeWord   = 0x10 // alphanumeric or '_'
	CtypeMeta   = 0x80 // regex metacharacter
)

// Offsets of the 32-byte class bitmaps inside Tables.Bits.
const (
	CbitSpace  = 0
	CbitXDigit = 32
	CbitDigit  = 64
	CbitUpper  = 96
	CbitLower  = 128
	CbitWord   = 160
	CbitGraph  = 192
	CbitPrint  = 224
	CbitPunct  = 256
	CbitCntrl  = 288
	CbitLength = 320
)

// Tables are the locale-dependent character tables. They are read-only once
// built and may be shared by any number of patterns and matches.
type Tables struct {
	Lower [256]byte        // lower-case map
	Flip  [256]byte        // other-case map
	Bits  [CbitLength]byte // class bitmaps, see Cbit*
	Types [256]byte        // Ctype* bits
}

var defaultTables = buildCTables()

// DefaultTables returns the tables for the C locale.
func DefaultTables() *Tables {
	return defaultTables
}

// Class returns the 32-byte bitmap stored at offset (one of the Cbit*).
func (t *Tables) Class(offset int) []byte {
	return t.Bits[offset : offset+32]
}

// Is reports whether c has any of the Ctype* bits in mask.
func (t *Tables) Is(c byte, mask byte) bool {
	return t.Types[c]&mask != 0
}

func buildCTables() *Tables {
	t := new(Tables)
	for i := 0; i < 256; i++ {
		c := byte(i)
		t.Lower[i] = c
		t.Flip[i] = c
		switch {
		case isUpper(c):
			t.Lower[i] = c + 32
			t.Flip[i] = c + 32
		case isLower(c):
			t.Flip[i] = c - 32
		}
	}

	set := func(offset int, c byte) {
		t.Bits[offset+int(c)/8] |= 1 << (c % 8)
	}
	for i := 0; i < 256; i++ {
		c := byte(i)
		if isDigit(c) {
			set(CbitDigit, c)
			set(CbitWord, c)
		}
		if isUpper(c) {
			set(CbitUpper, c)
			set(CbitWord, c)
		}
		if isLower(c) {
			set(CbitLower, c)
			set(CbitWord, c)
		}
		if c == '_' {
			set(CbitWord, c)
		}
		if isSpace(c) {
			set(CbitSpace, c)
		}
		if isXDigit(c) {
			set(CbitXDigit, c)
		}
		if c > ' ' && c < 0x7f {
			set(CbitGraph, c)
		}
		if c >= ' ' && c < 0x7f {
			set(CbitPrint, c)
		}
		if c > ' ' && c < 0x7f && !isDigit(c) && !isUpper(c) && !isLower(c) {
			set(CbitPunct, c)
		}
		if c < ' ' || c == 0x7f {
			set(CbitCntrl, c)
		}
	}

	for i := 0; i < 256; i++ {
		c := byte(i)
		var x byte
		// VT is not a \s character.
		if c != '\v' && isSpace(c) {
			x |= CtypeSpace
		}
		if isUpper(c) || isLower(c) {
			x |= CtypeLetter
		}
		if isDigit(c) {
			x |= CtypeDigit
		}
		if isXDigit(c) {
			x |= CtypeXDigit
		}
		if isUpper(c) || isLower(c) || isDigit(c) || c == '_' {
			x |= CtypeWord
		}
		if c != 0 && strings.IndexByte("\\*+?{^.$|()[", c) >= 0 {
			x |= CtypeMeta
		}
		t.Types[i] = x
	}
	return t
}

func isUpper(c byte) bool  { return 'A' <= c && c <= 'Z' }
func isLower(c byte) bool  { return 'a' <= c && c <= 'z' }
func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isSpace(c byte) bool  { return c == ' ' || ('\t' <= c && c <= '\r') }
func isXDigit(c byte) bool { return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F') }

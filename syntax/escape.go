package syntax

import (
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/ucp"
)

// Escape kinds. checkEscape returns a literal as a non-negative code point
// and a symbolic escape as the negated kind. The kinds up to escz share
// their values with the opcodes they compile to; escD..escX form the
// contiguous range of escapes that consume exactly one character.
const (
	escA   = int(bytecode.OpSOD)
	escG   = int(bytecode.OpSOM)
	escB   = int(bytecode.OpNotWordBoundary)
	escb   = int(bytecode.OpWordBoundary)
	escD   = int(bytecode.OpNotDigit)
	escd   = int(bytecode.OpDigit)
	escS   = int(bytecode.OpNotWhitespace)
	escs   = int(bytecode.OpWhitespace)
	escW   = int(bytecode.OpNotWordchar)
	escw   = int(bytecode.OpWordchar)
	escC   = int(bytecode.OpAnyByte)
	escP   = int(bytecode.OpNotProp)
	escp   = int(bytecode.OpProp)
	escX   = int(bytecode.OpExtUni)
	escZ   = int(bytecode.OpEODN)
	escz   = int(bytecode.OpEOD)
	escE   = escz + 1
	escQ   = escz + 2
	escK   = escz + 3
	escRef = escz + 4 // back reference n is returned as -(escRef + n)
)

// singleCharEscape reports whether kind consumes exactly one character and
// may therefore be quantified by an OpType* repeat.
func singleCharEscape(kind int) bool {
	return kind > escb && kind < escZ
}

// simpleEscapes maps the letter after a backslash to its value: positive
// for a literal, negative for an escape kind, zero when more work is needed.
var simpleEscapes = map[byte]int{
	'A': -escA, 'B': -escB, 'C': -escC, 'D': -escD, 'E': -escE, 'G': -escG,
	'P': -escP, 'Q': -escQ, 'S': -escS, 'W': -escW, 'X': -escX, 'Z': -escZ,
	'a': 7, 'b': -escb, 'd': -escd, 'e': 27, 'f': '\f', 'k': -escK, 'n': '\n',
	'p': -escp, 'r': '\r', 's': -escs, 't': '\t', 'w': -escw, 'z': -escz,
}

func isDigit(c int) bool  { return c >= '0' && c <= '9' }
func isXDigit(c int) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }

func hexValue(c int) int {
	switch {
	case c <= '9':
		return c - '0'
	case c >= 'a':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}

// checkEscape classifies the escape whose backslash is at c.pos, leaving
// c.pos on its last character. bracount is the number of capturing groups
// opened so far, which decides whether \NN is a back reference or octal.
func (c *compiler) checkEscape(bracount int, inClass bool) (int, error) {
	c.pos++
	ch := c.ch(c.pos)
	if ch < 0 {
		c.pos--
		return 0, c.errorf(ErrBackslashAtEnd)
	}
	if c.utf8 && ch >= 0xc0 {
		r, size := utf8.DecodeRuneInString(c.pattern[c.pos:])
		c.pos += size - 1
		return int(r), nil
	}
	if ch < '0' || ch > 'z' {
		return ch, nil
	}
	if v, ok := simpleEscapes[byte(ch)]; ok {
		if c.cfg.NoUCP && (v == -escP || v == -escp || v == -escX) {
			return 0, c.errorf(ErrNoUCP)
		}
		return v, nil
	}

	switch ch {
	case 'l', 'L', 'N', 'u', 'U':
		return 0, c.errorf(ErrUnsupportedEscape)

	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if !inClass {
			start := c.pos
			n := ch - '0'
			for isDigit(c.ch(c.pos+1)) {
				c.pos++
				n = n*10 + c.ch(c.pos) - '0'
				if n > 1<<20 {
					n = 1 << 20
				}
			}
			if n < 10 || n <= bracount {
				return -(escRef + n), nil
			}
			c.pos = start
		}
		// A leading 8 or 9 is never octal: it yields a zero byte and the
		// digit is read again as a literal.
		if ch >= '8' {
			c.pos--
			return 0, nil
		}
		return c.readOctal(ch), nil

	case '0':
		return c.readOctal(ch), nil

	case 'x':
		if c.ch(c.pos+1) == '{' {
			p := c.pos + 2
			n, count := 0, 0
			for isXDigit(c.ch(p)) {
				n = n*16 + hexValue(c.ch(p))
				if n > 0x7fffffff>>4 {
					n = 0x7fffffff >> 4
				}
				count++
				p++
			}
			if c.ch(p) == '}' {
				c.pos = p
				if count > 8 || n > utf8.MaxRune || (!c.utf8 && n > 0xff) {
					return 0, c.errorf(ErrHexTooLarge)
				}
				return n, nil
			}
		}
		n := 0
		for i := 0; i < 2 && isXDigit(c.ch(c.pos+1)); i++ {
			c.pos++
			n = n*16 + hexValue(c.ch(c.pos))
		}
		return n, nil

	case 'c':
		c.pos++
		v := c.ch(c.pos)
		if v < 0 {
			c.pos--
			return 0, c.errorf(ErrBackslashCAtEnd)
		}
		if v >= 'a' && v <= 'z' {
			v -= 32
		}
		return v ^ 0x40, nil
	}

	if c.options&bytecode.Extra != 0 {
		return 0, c.errorf(ErrUnknownEscape)
	}
	return ch, nil
}

// readOctal reads up to three octal digits starting with first, which is
// at c.pos. Outside UTF-8 mode the value is truncated to 8 bits.
func (c *compiler) readOctal(first int) int {
	n := first - '0'
	for i := 0; i < 2; i++ {
		d := c.ch(c.pos + 1)
		if d < '0' || d > '7' {
			break
		}
		c.pos++
		n = n*8 + d - '0'
	}
	if !c.utf8 {
		n &= 0xff
	}
	return n
}

// getUCP parses the property after \p or \P; c.pos is on the p. It returns
// the property and whether the {^...} negation form was used, leaving
// c.pos on the last character of the escape.
func (c *compiler) getUCP() (ucp.Property, bool, error) {
	c.pos++
	ch := c.ch(c.pos)
	if ch < 0 {
		return ucp.Property{}, false, c.errorf(ErrMalformedProperty)
	}
	negated := false
	var name string
	if ch == '{' {
		if c.ch(c.pos+1) == '^' {
			negated = true
			c.pos++
		}
		start := c.pos + 1
		for {
			c.pos++
			ch = c.ch(c.pos)
			if ch < 0 || c.pos-start >= 32 {
				return ucp.Property{}, false, c.errorf(ErrMalformedProperty)
			}
			if ch == '}' {
				break
			}
		}
		name = c.pattern[start:c.pos]
	} else {
		name = c.pattern[c.pos : c.pos+1]
	}
	p, ok := ucp.Find(name)
	if !ok {
		return ucp.Property{}, false, c.errorf(ErrUnknownProperty)
	}
	return p, negated, nil
}

// isCountedRepeat reports whether a {n}, {n,} or {n,m} quantifier starts at
// p, which is just after the '{'.
func (c *compiler) isCountedRepeat(p int) bool {
	if !isDigit(c.ch(p)) {
		return false
	}
	p++
	for isDigit(c.ch(p)) {
		p++
	}
	if c.ch(p) == '}' {
		return true
	}
	if c.ch(p) != ',' {
		return false
	}
	p++
	if c.ch(p) == '}' {
		return true
	}
	if !isDigit(c.ch(p)) {
		return false
	}
	for isDigit(c.ch(p)) {
		p++
	}
	return c.ch(p) == '}'
}

// readRepeatCounts reads a counted quantifier whose '{' is at c.pos and
// leaves c.pos on the '}'. max is -1 for no upper limit.
func (c *compiler) readRepeatCounts() (min, max int, err error) {
	c.pos++
	read := func() int {
		n := 0
		for isDigit(c.ch(c.pos)) {
			if n <= 0xffff {
				n = n*10 + c.ch(c.pos) - '0'
			}
			c.pos++
		}
		return n
	}
	min = read()
	if min > 0xffff {
		return 0, 0, c.errorf(ErrQuantifierTooBig)
	}
	if c.ch(c.pos) == '}' {
		return min, min, nil
	}
	c.pos++ // ','
	if c.ch(c.pos) == '}' {
		return min, -1, nil
	}
	max = read()
	if max > 0xffff {
		return 0, 0, c.errorf(ErrQuantifierTooBig)
	}
	if max < min {
		return 0, 0, c.errorf(ErrQuantifierOrder)
	}
	return min, max, nil
}

// checkPOSIXSyntax reports whether a [:name:] (or [.x.] / [=x=]) item
// starts at p, the '['. It returns the offset of the closing terminator.
func (c *compiler) checkPOSIXSyntax(p int) (int, bool) {
	terminator := c.ch(p + 1)
	p += 2
	if c.ch(p) == '^' {
		p++
	}
	for {
		ch := c.ch(p)
		if ch < 0 || ch > 0xff || !c.tables.Is(byte(ch), bytecode.CtypeLetter) {
			break
		}
		p++
	}
	if c.ch(p) == terminator && c.ch(p+1) == ']' {
		return p, true
	}
	return 0, false
}

// posixClass describes one [:name:] class as a base bitmap optionally
// combined with a second bitmap, plus a removal rule.
type posixClass struct {
	name   string
	base   int
	second int // -1 for none
	add    bool
	remove int // 1 removes vertical space, 2 removes underscore
}

var posixClasses = []posixClass{
	{"alpha", bytecode.CbitWord, bytecode.CbitDigit, false, 2},
	{"lower", bytecode.CbitLower, -1, false, 0},
	{"upper", bytecode.CbitUpper, -1, false, 0},
	{"alnum", bytecode.CbitWord, -1, false, 2},
	{"ascii", bytecode.CbitPrint, bytecode.CbitCntrl, true, 0},
	{"blank", bytecode.CbitSpace, -1, false, 1},
	{"cntrl", bytecode.CbitCntrl, -1, false, 0},
	{"digit", bytecode.CbitDigit, -1, false, 0},
	{"graph", bytecode.CbitGraph, -1, false, 0},
	{"print", bytecode.CbitPrint, -1, false, 0},
	{"punct", bytecode.CbitPunct, -1, false, 0},
	{"space", bytecode.CbitSpace, -1, false, 0},
	{"word", bytecode.CbitWord, -1, false, 0},
	{"xdigit", bytecode.CbitXDigit, -1, false, 0},
}

func findPOSIXClass(name string) int {
	for i, pc := range posixClasses {
		if pc.name == name {
			return i
		}
	}
	return -1
}

// posixBits builds the 32-byte map for posixClasses[i].
func (c *compiler) posixBits(i int) [32]byte {
	pc := posixClasses[i]
	var bits [32]byte
	copy(bits[:], c.tables.Class(pc.base))
	if pc.second >= 0 {
		second := c.tables.Class(pc.second)
		for j := range bits {
			if pc.add {
				bits[j] |= second[j]
			} else {
				bits[j] &^= second[j]
			}
		}
	}
	switch pc.remove {
	case 1:
		bits[1] &^= 0x3c
	case 2:
		bits[11] &= 0x7f
	}
	return bits
}

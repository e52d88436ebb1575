package bytecode

import (
	"unicode/utf8"

	"github.com/coregx/pcre/internal/ucp"
)

// IsType reports whether c has any of the character-type bits in mask.
// Characters above 255 have none.
func (t *Tables) IsType(c int, mask byte) bool {
	return c >= 0 && c < 256 && t.Types[c]&mask != 0
}

// TypeMatch reports whether character c satisfies the single-character
// escape op. OpAny is answered without its newline rule; OpExtUni and
// OpAnyByte are not answered at all. Callers deal with those.
func (t *Tables) TypeMatch(op Op, c int, ptype, pvalue byte) bool {
	switch op {
	case OpNotDigit:
		return !t.IsType(c, CtypeDigit)
	case OpDigit:
		return t.IsType(c, CtypeDigit)
	case OpNotWhitespace:
		return !t.IsType(c, CtypeSpace)
	case OpWhitespace:
		return t.IsType(c, CtypeSpace)
	case OpNotWordchar:
		return !t.IsType(c, CtypeWord)
	case OpWordchar:
		return t.IsType(c, CtypeWord)
	case OpAny:
		return true
	case OpProp:
		return ucp.Has(rune(c), ucp.Type(ptype), pvalue)
	case OpNotProp:
		return !ucp.Has(rune(c), ucp.Type(ptype), pvalue)
	}
	return false
}

// NotMatch applies the OpNot test: c must differ from the operand byte fc,
// caselessly when caseless is set.
func (t *Tables) NotMatch(c int, fc byte, caseless bool) bool {
	if caseless {
		return c > 255 || t.Lower[c] != t.Lower[fc]
	}
	return c != int(fc)
}

// ClassMatch tests c against the 32-byte bitmap of an OpClass or OpNClass.
// Characters above 255 match only a negated class.
func ClassMatch(bits []byte, c int, negated bool) bool {
	if c > 255 {
		return negated
	}
	return bits[c/8]&(1<<(c&7)) != 0
}

// XClassMatch tests c against the OpXClass whose flags byte is at data[0].
func XClassMatch(data []byte, c int) bool {
	flags := data[0]
	negated := flags&XClassNot != 0
	data = data[1:]
	if flags&XClassMap != 0 {
		if c < 256 && data[c/8]&(1<<(c&7)) != 0 {
			return !negated
		}
		data = data[32:]
	}
	for {
		t := data[0]
		data = data[1:]
		switch t {
		case XClassEnd:
			return negated
		case XClassSingle:
			x, n := utf8.DecodeRune(data)
			data = data[n:]
			if c == int(x) {
				return !negated
			}
		case XClassRange:
			lo, n := utf8.DecodeRune(data)
			data = data[n:]
			hi, n := utf8.DecodeRune(data)
			data = data[n:]
			if c >= int(lo) && c <= int(hi) {
				return !negated
			}
		default:
			has := ucp.Has(rune(c), ucp.Type(data[0]), data[1])
			data = data[2:]
			if has == (t == XClassProp) {
				return !negated
			}
		}
	}
}

// CharEqualNC reports whether subject character c equals pattern character
// fc ignoring case. Outside UTF-8 mode, and for ASCII in it, the tables
// decide; wider characters use Unicode case pairs.
func (t *Tables) CharEqualNC(c, fc int, utf8 bool) bool {
	if c == fc {
		return true
	}
	if !utf8 || (c < 128 && fc < 128) {
		return c < 256 && fc < 256 && t.Lower[c] == t.Lower[fc]
	}
	return int(ucp.OtherCase(rune(fc))) == c
}

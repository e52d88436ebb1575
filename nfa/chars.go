package nfa

import (
	"bytes"
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/ucp"
)

const newline = '\n'

// char decodes the subject character at i, returning it and its width.
// i must be below len(m.subject).
func (m *matcher) char(i int) (int, int) {
	c := m.subject[i]
	if !m.utf8 || c < 0xc0 {
		return int(c), 1
	}
	r, n := utf8.DecodeRune(m.subject[i:])
	return int(r), n
}

// back returns the start of the character that ends at i.
func (m *matcher) back(i int) int {
	i--
	if m.utf8 {
		for i > 0 && m.subject[i]&0xc0 == 0x80 {
			i--
		}
	}
	return i
}

// patternChar decodes the literal character stored in the code at pc.
func (m *matcher) patternChar(pc int) (int, int) {
	c := m.code[pc]
	if !m.utf8 || c < 0xc0 {
		return int(c), 1
	}
	r, n := utf8.DecodeRune(m.code[pc:])
	return int(r), n
}

func (m *matcher) isType(c int, mask byte) bool {
	return m.tables.IsType(c, mask)
}

// extUni matches one \X sequence at eptr: a non-mark followed by any
// number of marks. It returns the end position.
func (m *matcher) extUni(eptr int) (int, bool) {
	if eptr >= len(m.subject) {
		return eptr, false
	}
	c, n := m.char(eptr)
	if ucp.IsMark(rune(c)) {
		return eptr, false
	}
	eptr += n
	for eptr < len(m.subject) {
		c, n = m.char(eptr)
		if !ucp.IsMark(rune(c)) {
			break
		}
		eptr += n
	}
	return eptr, true
}

// matchRef reports whether the length bytes of the capture at offset match
// the subject at eptr.
func (m *matcher) matchRef(offset, eptr, length int, caseless bool) bool {
	if length > len(m.subject)-eptr {
		return false
	}
	p := m.ovector[offset]
	if !caseless {
		return bytes.Equal(m.subject[p:p+length], m.subject[eptr:eptr+length])
	}
	lower := &m.tables.Lower
	for i := 0; i < length; i++ {
		if lower[m.subject[p+i]] != lower[m.subject[eptr+i]] {
			return false
		}
	}
	return true
}

// isWordAt reports whether the character ending just before i (before) or
// starting at i (!before) is a word character.
func (m *matcher) isWordAt(i int, before bool) bool {
	if before {
		if i == 0 {
			return false
		}
		c, _ := m.char(m.back(i))
		return m.isType(c, bytecode.CtypeWord)
	}
	if i >= len(m.subject) {
		return false
	}
	c, _ := m.char(i)
	return m.isType(c, bytecode.CtypeWord)
}

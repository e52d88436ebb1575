package nfa

import (
	"bytes"
	"math"
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/ucp"
)

// Minimum and maximum counts for the six short repeat forms, in opcode
// order: *, *?, +, +?, ?, ??. A maximum of -1 means no limit.
var (
	repMin = [6]int{0, 0, 1, 1, 0, 0}
	repMax = [6]int{-1, -1, -1, -1, 1, 1}
)

// repeat describes one quantified single item.
type repeat struct {
	min, max int // max < 0: no limit
	minimize bool
	next     int // code offset after the item and its quantifier

	// one matches a single item at the given position and returns the
	// position after it.
	one func(int) (int, bool)

	// width is the byte width of every item when fixed (> 0), 0 when each
	// item is exactly one UTF-8 character, and -1 when items vary and
	// their boundaries must be recorded for backtracking.
	width int

	// empty is set for a back reference that matches the empty string;
	// the item is skipped.
	empty bool
}

// repeatCounts decodes the quantifier of the repeat opcode at pc, whose
// family starts at base. It returns the offset of the operand.
func repeatCounts(code []byte, pc int, base bytecode.Op) (min, max int, minimize bool, operand int) {
	c := int(bytecode.Op(code[pc]) - base)
	switch {
	case c < 6:
		return repMin[c], repMax[c], c&1 != 0, pc + 1
	case c < 8:
		return 0, bytecode.Get2(code, pc+1), c == 7, pc + 3
	}
	n := bytecode.Get2(code, pc+1)
	return n, n, false, pc + 3
}

// classCounts decodes an optional class quantifier at pc.
func classCounts(code []byte, pc int) (min, max int, minimize bool, next int) {
	op := bytecode.Op(code[pc])
	switch {
	case op >= bytecode.OpCRStar && op <= bytecode.OpCRMinQuery:
		c := int(op - bytecode.OpCRStar)
		return repMin[c], repMax[c], c&1 != 0, pc + 1
	case op == bytecode.OpCRRange || op == bytecode.OpCRMinRange:
		min, max = bytecode.Get2(code, pc+1), bytecode.Get2(code, pc+3)
		if max == 0 {
			max = -1
		}
		return min, max, op == bytecode.OpCRMinRange, pc + 5
	}
	return 1, 1, false, pc
}

// singleRepeat builds the repeat for the character, negated-byte or type
// repeat opcode at ecode.
func (m *matcher) singleRepeat(ecode int, ims bytecode.Option) repeat {
	code := m.code
	op := bytecode.Op(code[ecode])
	caseless := ims&bytecode.Caseless != 0
	end := len(m.subject)
	var r repeat

	switch {
	case op <= bytecode.OpExact:
		var operand int
		r.min, r.max, r.minimize, operand = repeatCounts(code, ecode, bytecode.OpStar)
		fc, n := m.patternChar(operand)
		r.next = operand + n
		if n > 1 {
			lit := code[operand : operand+n]
			var other []byte
			if caseless {
				if oc := ucp.OtherCase(rune(fc)); int(oc) != fc {
					other = utf8.AppendRune(nil, oc)
				}
			}
			r.one = func(e int) (int, bool) {
				switch {
				case bytes.HasPrefix(m.subject[e:], lit):
					return e + n, true
				case other != nil && bytes.HasPrefix(m.subject[e:], other):
					return e + len(other), true
				}
				return e, false
			}
			return r
		}
		r.width = 1
		if caseless {
			lc := m.tables.Lower[fc]
			r.one = func(e int) (int, bool) {
				if e < end && m.tables.Lower[m.subject[e]] == lc {
					return e + 1, true
				}
				return e, false
			}
		} else {
			b := byte(fc)
			r.one = func(e int) (int, bool) {
				if e < end && m.subject[e] == b {
					return e + 1, true
				}
				return e, false
			}
		}

	case op <= bytecode.OpNotExact:
		var operand int
		r.min, r.max, r.minimize, operand = repeatCounts(code, ecode, bytecode.OpNotStar)
		fc := code[operand]
		r.next = operand + 1
		if !m.utf8 {
			r.width = 1
		}
		r.one = func(e int) (int, bool) {
			if e >= end {
				return e, false
			}
			c, n := m.char(e)
			if !m.tables.NotMatch(c, fc, ims&bytecode.Caseless != 0) {
				return e, false
			}
			return e + n, true
		}

	default:
		var operand int
		r.min, r.max, r.minimize, operand = repeatCounts(code, ecode, bytecode.OpTypeStar)
		t := bytecode.Op(code[operand])
		r.next = operand + 1
		var ptype, pvalue byte
		if t == bytecode.OpProp || t == bytecode.OpNotProp {
			ptype, pvalue = code[operand+1], code[operand+2]
			r.next += 2
		}
		if !m.utf8 {
			r.width = 1
		}
		switch t {
		case bytecode.OpAnyByte:
			r.width = 1
			r.one = func(e int) (int, bool) { return e + 1, e < end }
		case bytecode.OpExtUni:
			r.width = -1
			r.one = m.extUni
		case bytecode.OpAny:
			dotall := ims&bytecode.DotAll != 0
			r.one = func(e int) (int, bool) {
				if e >= end || (!dotall && m.subject[e] == newline) {
					return e, false
				}
				_, n := m.char(e)
				return e + n, true
			}
		default:
			r.one = func(e int) (int, bool) {
				if e >= end {
					return e, false
				}
				c, n := m.char(e)
				if !m.tables.TypeMatch(t, c, ptype, pvalue) {
					return e, false
				}
				return e + n, true
			}
		}
	}
	return r
}

// classRepeat builds the repeat for the class at ecode and its optional
// quantifier.
func (m *matcher) classRepeat(ecode int) repeat {
	code := m.code
	op := bytecode.Op(code[ecode])
	end := len(m.subject)
	var r repeat
	var match func(int) bool
	var after int
	switch op {
	case bytecode.OpXClass:
		data := code[ecode+1+link:]
		match = func(c int) bool { return bytecode.XClassMatch(data, c) }
		after = ecode + bytecode.GetLink(code, ecode+1)
	default:
		bits := code[ecode+1 : ecode+33]
		negated := op == bytecode.OpNClass
		match = func(c int) bool { return bytecode.ClassMatch(bits, c, negated) }
		after = ecode + 33
	}
	r.min, r.max, r.minimize, r.next = classCounts(code, after)
	if !m.utf8 {
		r.width = 1
	}
	r.one = func(e int) (int, bool) {
		if e >= end {
			return e, false
		}
		c, n := m.char(e)
		if !match(c) {
			return e, false
		}
		return e + n, true
	}
	return r
}

// refRepeat builds the repeat for the back reference to number at ecode.
// An unset group cannot match, except that a group which may legitimately
// be absent (it sits under a zero-minimum quantifier) matches the empty
// string; a reference with a zero minimum is vacuously satisfied either way.
func (m *matcher) refRepeat(ecode, number, eptr, offsetTop int, ims bytecode.Option) repeat {
	offset := number << 1
	var r repeat
	r.min, r.max, r.minimize, r.next = classCounts(m.code, ecode+3)

	var length int
	switch {
	case offset < offsetTop && offset < m.offsetMax && m.ovector[offset] >= 0:
		length = m.ovector[offset+1] - m.ovector[offset]
	case number < len(m.skip) && m.skip[number]:
		length = 0
	default:
		// Longer than the rest of the subject, so every attempt fails.
		length = len(m.subject) - eptr + 1
	}
	if length == 0 {
		r.empty = true
		return r
	}
	caseless := ims&bytecode.Caseless != 0
	r.width = length
	r.one = func(e int) (int, bool) {
		if !m.matchRef(offset, e, length, caseless) {
			return e, false
		}
		return e + length, true
	}
	return r
}

// repeatMin matches the mandatory items of r.
func (m *matcher) repeatMin(eptr int, r *repeat) (int, bool) {
	for i := 0; i < r.min; i++ {
		e, ok := r.one(eptr)
		if !ok {
			return eptr, false
		}
		eptr = e
	}
	return eptr, true
}

// repeatRest matches the optional items of r together with the rest of
// the pattern: lazily one item at a time, or greedily by taking as many
// as possible and giving them back one by one.
func (m *matcher) repeatRest(eptr int, r *repeat, offsetTop int, ims bytecode.Option, gs *groupStart, depth int) (bool, error) {
	max := r.max
	if max < 0 {
		max = math.MaxInt
	}

	if r.minimize {
		for i := r.min; ; i++ {
			if ok, err := m.match(eptr, r.next, offsetTop, ims, gs, 0, depth); ok || err != nil {
				return ok, err
			}
			if i >= max {
				return false, nil
			}
			e, ok := r.one(eptr)
			if !ok {
				return false, nil
			}
			eptr = e
		}
	}

	start := eptr
	var starts []int
	for i := r.min; i < max; i++ {
		e, ok := r.one(eptr)
		if !ok {
			break
		}
		if r.width < 0 {
			starts = append(starts, eptr)
		}
		eptr = e
	}
	for {
		if ok, err := m.match(eptr, r.next, offsetTop, ims, gs, 0, depth); ok || err != nil {
			return ok, err
		}
		if eptr == start {
			return false, nil
		}
		switch {
		case r.width > 0:
			eptr -= r.width
		case r.width == 0:
			eptr = m.back(eptr)
		default:
			eptr = starts[len(starts)-1]
			starts = starts[:len(starts)-1]
		}
	}
}

package nfa

import (
	"context"
	"slices"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/ucp"
)

// matchCondAssert tells match that the item at ecode is the assertion of a
// conditional group: on success it returns at once instead of continuing.
const matchCondAssert = 1

const link = bytecode.LinkSize

// groupStart records the subject position and runtime options at the entry
// to a group branch. The chain is popped at the group's Ket, where the
// position breaks empty iterations of unlimited repeats.
type groupStart struct {
	prev *groupStart
	eptr int
	ims  bytecode.Option
}

// recursionFrame is one active recursion. The captures are saved on entry
// and restored when the called group ends, so a recursion never leaks
// captures to its caller.
type recursionFrame struct {
	group     int
	afterCall int
	ims       bytecode.Option
	saved     []int
	saveStart int
}

// matcher is the state of one Exec call. It is pooled by Matcher.
type matcher struct {
	cfg      Config
	ctx      context.Context
	code     []byte
	subject  []byte
	tables   *bytecode.Tables
	utf8     bool
	endOnly  bool
	skip     []bool
	negCapts map[int]bool

	ovector        []int
	offsetEnd      int // usable length of ovector, a multiple of 3
	offsetMax      int // capture pairs live below this; scratch above
	offsetOverflow bool
	captureLast    int

	startOffset  int
	startMatch   int
	endMatch     int
	endOffsetTop int

	notBOL, notEOL, notEmpty, partial, hitEnd bool

	calls      int
	recursions []recursionFrame
	temp       []int
}

// match tries to match the code at ecode against the subject at eptr and
// then the rest of the pattern. It returns true when the whole pattern
// matched, leaving the end in m.endMatch. An error aborts every level.
func (m *matcher) match(eptr, ecode, offsetTop int, ims bytecode.Option, gs *groupStart, flags int, depth int) (bool, error) {
	m.calls++
	if m.calls > m.cfg.MatchLimit {
		return false, bytecode.ErrMatchLimit
	}
	if depth > m.cfg.RecursionLimit {
		return false, bytecode.ErrRecursionLimit
	}
	if m.ctx != nil && m.calls&1023 == 0 {
		if err := m.ctx.Err(); err != nil {
			return false, err
		}
	}
	depth++

	code := m.code
	end := len(m.subject)
	for {
		if m.partial && eptr >= end && eptr > m.startMatch {
			m.hitEnd = true
		}

		op := bytecode.Op(code[ecode])
		switch op {
		case bytecode.OpEnd:
			if n := len(m.recursions); n > 0 && m.recursions[n-1].group == 0 {
				ecode, ims = m.returnFrom(n - 1)
				continue
			}
			if m.notEmpty && eptr == m.startMatch {
				return false, nil
			}
			m.endMatch = eptr
			m.endOffsetTop = offsetTop
			return true, nil

		case bytecode.OpBra:
			for {
				ok, err := m.match(eptr, ecode+op.Length(), offsetTop, ims, &groupStart{gs, eptr, ims}, 0, depth)
				if ok || err != nil {
					return ok, err
				}
				ecode += bytecode.GetLink(code, ecode+1)
				if op = bytecode.Op(code[ecode]); op != bytecode.OpAlt {
					return false, nil
				}
			}

		case bytecode.OpCBra:
			return m.capture(eptr, ecode, offsetTop, ims, gs, depth)

		case bytecode.OpOnce:
			return m.once(eptr, ecode, offsetTop, ims, gs, depth)

		case bytecode.OpCond:
			next, push, err := m.condition(eptr, ecode, offsetTop, ims, depth)
			if err != nil {
				return false, err
			}
			if push {
				gs = &groupStart{gs, eptr, ims}
			}
			ecode = next

		case bytecode.OpAssert, bytecode.OpAssertBack:
			matched := false
			for {
				ok, err := m.match(eptr, ecode+1+link, offsetTop, ims, &groupStart{nil, eptr, ims}, 0, depth)
				if err != nil {
					return false, err
				}
				if ok {
					matched = true
					break
				}
				ecode += bytecode.GetLink(code, ecode+1)
				if bytecode.Op(code[ecode]) != bytecode.OpAlt {
					break
				}
			}
			if !matched {
				return false, nil
			}
			if flags&matchCondAssert != 0 {
				return true, nil
			}
			ecode = bytecode.GroupEnd(code, ecode) + 1 + link
			offsetTop = m.endOffsetTop

		case bytecode.OpAssertNot, bytecode.OpAssertBackNot:
			var snapshot []int
			if m.negCapts[ecode] {
				snapshot = slices.Clone(m.ovector[:m.offsetEnd])
			}
			for {
				ok, err := m.match(eptr, ecode+1+link, offsetTop, ims, &groupStart{nil, eptr, ims}, 0, depth)
				if err != nil {
					return false, err
				}
				if ok {
					if snapshot != nil {
						copy(m.ovector, snapshot)
					}
					return false, nil
				}
				ecode += bytecode.GetLink(code, ecode+1)
				if bytecode.Op(code[ecode]) != bytecode.OpAlt {
					break
				}
			}
			if flags&matchCondAssert != 0 {
				return true, nil
			}
			ecode += 1 + link

		case bytecode.OpReverse:
			n := bytecode.GetLink(code, ecode+1)
			if m.utf8 {
				for i := 0; i < n; i++ {
					if eptr <= 0 {
						return false, nil
					}
					eptr = m.back(eptr)
				}
			} else {
				if eptr -= n; eptr < 0 {
					return false, nil
				}
			}
			ecode += 1 + link

		case bytecode.OpRecurse:
			return m.recurse(eptr, ecode, offsetTop, ims, gs, depth)

		case bytecode.OpAlt:
			for bytecode.Op(code[ecode]) == bytecode.OpAlt {
				ecode += bytecode.GetLink(code, ecode+1)
			}

		case bytecode.OpKet, bytecode.OpKetRMax, bytecode.OpKetRMin:
			prev := ecode - bytecode.GetLink(code, ecode+1)
			saved, outer := -1, ims
			if gs != nil {
				saved, outer = gs.eptr, gs.ims
				gs = gs.prev
			}

			switch bytecode.Op(code[prev]) {
			case bytecode.OpAssert, bytecode.OpAssertNot, bytecode.OpAssertBack, bytecode.OpAssertBackNot, bytecode.OpOnce:
				m.endMatch = eptr
				m.endOffsetTop = offsetTop
				return true, nil

			case bytecode.OpCBra:
				number := bytecode.Get2(code, prev+1+link)
				offset := number << 1
				m.captureLast = number
				if offset >= m.offsetMax {
					m.offsetOverflow = true
				} else {
					m.ovector[offset] = m.ovector[m.offsetEnd-number]
					m.ovector[offset+1] = eptr
					if offsetTop <= offset {
						offsetTop = offset + 2
					}
				}
				if n := len(m.recursions); n > 0 && m.recursions[n-1].group == number {
					ecode, ims = m.returnFrom(n - 1)
					continue
				}
			}

			ims = outer
			if op == bytecode.OpKet || eptr == saved {
				ecode += 1 + link
				continue
			}
			next := ecode + 1 + link
			if op == bytecode.OpKetRMin {
				if ok, err := m.match(eptr, next, offsetTop, ims, gs, 0, depth); ok || err != nil {
					return ok, err
				}
				return m.match(eptr, prev, offsetTop, ims, gs, 0, depth)
			}
			if ok, err := m.match(eptr, prev, offsetTop, ims, gs, 0, depth); ok || err != nil {
				return ok, err
			}
			return m.match(eptr, next, offsetTop, ims, gs, 0, depth)

		case bytecode.OpBraZero:
			next := ecode + 1
			if ok, err := m.match(eptr, next, offsetTop, ims, gs, 0, depth); ok || err != nil {
				return ok, err
			}
			ecode = bytecode.SkipGroup(code, next)

		case bytecode.OpBraMinZero:
			next := ecode + 1
			if ok, err := m.match(eptr, bytecode.SkipGroup(code, next), offsetTop, ims, gs, 0, depth); ok || err != nil {
				return ok, err
			}
			ecode = next

		case bytecode.OpCallout:
			ok, err := m.callout(eptr, ecode, offsetTop)
			if !ok || err != nil {
				return false, err
			}
			ecode += op.Length()

		case bytecode.OpOpt:
			ims = bytecode.Option(code[ecode+1])
			ecode += 2

		case bytecode.OpSOD:
			if eptr != 0 {
				return false, nil
			}
			ecode++

		case bytecode.OpSOM:
			if eptr != m.startOffset {
				return false, nil
			}
			ecode++

		case bytecode.OpCirc:
			if m.notBOL && eptr == 0 {
				return false, nil
			}
			if ims&bytecode.Multiline != 0 {
				if eptr != 0 && m.subject[eptr-1] != newline {
					return false, nil
				}
			} else if eptr != 0 {
				return false, nil
			}
			ecode++

		case bytecode.OpDoll:
			switch {
			case ims&bytecode.Multiline != 0:
				if eptr < end {
					if m.subject[eptr] != newline {
						return false, nil
					}
				} else if m.notEOL {
					return false, nil
				}
			case m.notEOL:
				return false, nil
			case m.endOnly:
				if eptr < end {
					return false, nil
				}
			default:
				if eptr < end-1 || (eptr == end-1 && m.subject[eptr] != newline) {
					return false, nil
				}
			}
			ecode++

		case bytecode.OpEOD:
			if eptr < end {
				return false, nil
			}
			ecode++

		case bytecode.OpEODN:
			if eptr < end-1 || (eptr == end-1 && m.subject[eptr] != newline) {
				return false, nil
			}
			ecode++

		case bytecode.OpWordBoundary, bytecode.OpNotWordBoundary:
			before, after := m.isWordAt(eptr, true), m.isWordAt(eptr, false)
			if (before != after) != (op == bytecode.OpWordBoundary) {
				return false, nil
			}
			ecode++

		case bytecode.OpAny:
			if eptr >= end || (ims&bytecode.DotAll == 0 && m.subject[eptr] == newline) {
				return false, nil
			}
			_, n := m.char(eptr)
			eptr += n
			ecode++

		case bytecode.OpAnyByte:
			if eptr >= end {
				return false, nil
			}
			eptr++
			ecode++

		case bytecode.OpNotDigit, bytecode.OpDigit, bytecode.OpNotWhitespace, bytecode.OpWhitespace,
			bytecode.OpNotWordchar, bytecode.OpWordchar, bytecode.OpProp, bytecode.OpNotProp:
			if eptr >= end {
				return false, nil
			}
			c, n := m.char(eptr)
			var ptype, pvalue byte
			if op == bytecode.OpProp || op == bytecode.OpNotProp {
				ptype, pvalue = code[ecode+1], code[ecode+2]
			}
			if !m.tables.TypeMatch(op, c, ptype, pvalue) {
				return false, nil
			}
			eptr += n
			ecode += op.Length()

		case bytecode.OpExtUni:
			e, ok := m.extUni(eptr)
			if !ok {
				return false, nil
			}
			eptr = e
			ecode++

		case bytecode.OpChar:
			n := 1
			if m.utf8 {
				n += bytecode.UTF8Extra(code[ecode+1])
			}
			if n > end-eptr {
				return false, nil
			}
			for i := 0; i < n; i++ {
				if m.subject[eptr+i] != code[ecode+1+i] {
					return false, nil
				}
			}
			eptr += n
			ecode += 1 + n

		case bytecode.OpCharNC:
			if eptr >= end {
				return false, nil
			}
			fc, n := m.patternChar(ecode + 1)
			if n == 1 {
				if m.tables.Lower[fc] != m.tables.Lower[m.subject[eptr]] {
					return false, nil
				}
				eptr++
			} else {
				dc, dn := m.char(eptr)
				if dc != fc && int(ucp.OtherCase(rune(fc))) != dc {
					return false, nil
				}
				eptr += dn
			}
			ecode += 1 + n

		case bytecode.OpNot:
			if eptr >= end {
				return false, nil
			}
			c, n := m.char(eptr)
			if !m.tables.NotMatch(c, code[ecode+1], ims&bytecode.Caseless != 0) {
				return false, nil
			}
			eptr += n
			ecode += 2

		case bytecode.OpRef:
			number := bytecode.Get2(code, ecode+1)
			r := m.refRepeat(ecode, number, eptr, offsetTop, ims)
			if r.empty {
				ecode = r.next
				continue
			}
			e, ok := m.repeatMin(eptr, &r)
			if !ok {
				return false, nil
			}
			if eptr = e; r.min == r.max {
				ecode = r.next
				continue
			}
			return m.repeatRest(eptr, &r, offsetTop, ims, gs, depth)

		case bytecode.OpClass, bytecode.OpNClass, bytecode.OpXClass:
			r := m.classRepeat(ecode)
			e, ok := m.repeatMin(eptr, &r)
			if !ok {
				return false, nil
			}
			if eptr = e; r.min == r.max {
				ecode = r.next
				continue
			}
			return m.repeatRest(eptr, &r, offsetTop, ims, gs, depth)

		default:
			if op < bytecode.OpStar || op > bytecode.OpTypeExact {
				return false, bytecode.ErrUnknownNode
			}
			r := m.singleRepeat(ecode, ims)
			e, ok := m.repeatMin(eptr, &r)
			if !ok {
				return false, nil
			}
			if eptr = e; r.min == r.max {
				ecode = r.next
				continue
			}
			return m.repeatRest(eptr, &r, offsetTop, ims, gs, depth)
		}
	}
}

// capture matches the branches of the capturing group at ecode. The start
// of the group goes into its scratch slot at the top of the ovector; the
// pair itself is written at the Ket and restored here on failure.
func (m *matcher) capture(eptr, ecode, offsetTop int, ims bytecode.Option, gs *groupStart, depth int) (bool, error) {
	code := m.code
	number := bytecode.Get2(code, ecode+1+link)
	offset := number << 1
	tracked := offset < m.offsetMax

	var save1, save2, save3 int
	if tracked {
		save1, save2, save3 = m.ovector[offset], m.ovector[offset+1], m.ovector[m.offsetEnd-number]
		m.ovector[m.offsetEnd-number] = eptr
	}
	saveLast := m.captureLast
	for {
		op := bytecode.Op(code[ecode])
		ok, err := m.match(eptr, ecode+op.Length(), offsetTop, ims, &groupStart{gs, eptr, ims}, 0, depth)
		if ok || err != nil {
			return ok, err
		}
		m.captureLast = saveLast
		ecode += bytecode.GetLink(code, ecode+1)
		if bytecode.Op(code[ecode]) != bytecode.OpAlt {
			break
		}
	}
	if tracked {
		m.ovector[offset], m.ovector[offset+1], m.ovector[m.offsetEnd-number] = save1, save2, save3
	}
	return false, nil
}

// once matches an atomic group: the first way its body matches is kept
// and never revisited.
func (m *matcher) once(eptr, ecode, offsetTop int, ims bytecode.Option, gs *groupStart, depth int) (bool, error) {
	code := m.code
	prev, start := ecode, eptr
	matched := false
	for {
		ok, err := m.match(eptr, ecode+1+link, offsetTop, ims, &groupStart{gs, eptr, ims}, 0, depth)
		if err != nil {
			return false, err
		}
		if ok {
			matched = true
			break
		}
		ecode += bytecode.GetLink(code, ecode+1)
		if bytecode.Op(code[ecode]) != bytecode.OpAlt {
			break
		}
	}
	if !matched {
		return false, nil
	}

	ket := bytecode.GroupEnd(code, ecode)
	offsetTop = m.endOffsetTop
	eptr = m.endMatch
	next := ket + 1 + link
	switch op := bytecode.Op(code[ket]); {
	case op == bytecode.OpKet || eptr == start:
		return m.match(eptr, next, offsetTop, ims, gs, 0, depth)
	case op == bytecode.OpKetRMin:
		if ok, err := m.match(eptr, next, offsetTop, ims, gs, 0, depth); ok || err != nil {
			return ok, err
		}
		return m.match(eptr, prev, offsetTop, ims, gs, 0, depth)
	default:
		if ok, err := m.match(eptr, prev, offsetTop, ims, gs, 0, depth); ok || err != nil {
			return ok, err
		}
		return m.match(eptr, next, offsetTop, ims, gs, 0, depth)
	}
}

// condition evaluates the condition of the OpCond at ecode and returns
// where to continue: the yes-branch, the no-branch, or past the group when
// the condition fails and there is no no-branch. push reports whether the
// group's Ket will be reached and so needs a groupStart.
func (m *matcher) condition(eptr, ecode, offsetTop int, ims bytecode.Option, depth int) (next int, push bool, err error) {
	code := m.code
	head := ecode + 1 + link
	var yes int
	var ok bool
	switch bytecode.Op(code[head]) {
	case bytecode.OpCRef:
		offset := bytecode.Get2(code, head+1) << 1
		ok = offset < offsetTop && m.ovector[offset] >= 0
		yes = head + 3
	case bytecode.OpRRef:
		if n := len(m.recursions); n > 0 {
			want := bytecode.Get2(code, head+1)
			ok = want == bytecode.RRefAny || m.recursions[n-1].group == want
		}
		yes = head + 3
	default:
		ok, err = m.match(eptr, head, offsetTop, ims, nil, matchCondAssert, depth)
		if err != nil {
			return -1, false, err
		}
		yes = bytecode.GroupEnd(code, head) + 1 + link
	}
	if ok {
		return yes, true, nil
	}
	alt := ecode + bytecode.GetLink(code, ecode+1)
	if bytecode.Op(code[alt]) == bytecode.OpAlt {
		return alt + 1 + link, true, nil
	}
	return alt + 1 + link, false, nil
}

// recurse calls the group whose bracket offset is the operand of the
// OpRecurse at ecode. Each alternative of the group is tried with the
// caller's captures; the called group returns to the item after the call.
func (m *matcher) recurse(eptr, ecode, offsetTop int, ims bytecode.Option, gs *groupStart, depth int) (bool, error) {
	code := m.code
	callpat := bytecode.GetLink(code, ecode+1)
	group := 0
	if bytecode.Op(code[callpat]) == bytecode.OpCBra {
		group = bytecode.Get2(code, callpat+1+link)
	}
	frame := recursionFrame{
		group:     group,
		afterCall: ecode + 1 + link,
		ims:       ims,
		saved:     slices.Clone(m.ovector[:m.offsetEnd]),
		saveStart: m.startMatch,
	}
	m.startMatch = eptr

	base := len(m.recursions)
	for {
		m.recursions = append(m.recursions[:base], frame)
		body := callpat + bytecode.Op(code[callpat]).Length()
		ok, err := m.match(eptr, body, offsetTop, ims, &groupStart{gs, eptr, ims}, 0, depth)
		if err != nil {
			return false, err
		}
		if ok {
			m.recursions = m.recursions[:base]
			return true, nil
		}
		copy(m.ovector, frame.saved)
		callpat += bytecode.GetLink(code, callpat+1)
		if bytecode.Op(code[callpat]) != bytecode.OpAlt {
			break
		}
	}
	m.recursions = m.recursions[:base]
	m.startMatch = frame.saveStart
	return false, nil
}

// returnFrom pops recursion frame i, which has just completed, restoring
// the caller's captures. It returns where the caller continues.
func (m *matcher) returnFrom(i int) (int, bytecode.Option) {
	f := m.recursions[i]
	m.recursions = m.recursions[:i]
	m.startMatch = f.saveStart
	copy(m.ovector, f.saved)
	return f.afterCall, f.ims
}

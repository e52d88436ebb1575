package dfa

import (
	"context"
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/ucp"
	"github.com/coregx/pcre/nfa"
)

const newline = '\n'

// matcher is the state of one Exec call. It is pooled by Matcher.
type matcher struct {
	cfg     Config
	ctx     context.Context
	code    []byte
	tables  *bytecode.Tables
	ketIMS  []bytecode.Option
	utf8    bool
	endOnly bool

	subject     []byte
	startOffset int

	notBOL, notEOL, notEmpty, shortest, partial bool

	restart   []state // states to resume from, top level only
	ws        []int   // where the live states go after a partial match
	topStates int
	subStates int

	levels  []*level
	scratch []int
	steps   int
}

// invocation is one run of the state machine over a group of the pattern:
// the whole pattern at the top level, or an assertion, atomic group or
// recursion as a nested sub-match.
type invocation struct {
	m  *matcher
	lv *level

	cur     int // subject offset where this run's matches start
	ptr     int // subject offset being processed
	endCode int // offset of the Ket that ends the run's group
	depth   int
	rgroup  int // group being recursed into, or -1

	top, shortest bool

	c, clen int // character at ptr and its width; clen is 0 at the end

	ends []int
	done bool
	err  error
}

func (m *matcher) level(depth int) *level {
	for len(m.levels) <= depth {
		m.levels = append(m.levels, &level{
			cur:  newStateList(len(m.code)),
			next: newStateList(len(m.code)),
		})
	}
	return m.levels[depth]
}

// run matches the group at offset group from subject offset start and
// returns the ends of its matches in ascending order. The slice is only
// valid until the next run at the same depth. hitEnd reports, for the top
// level, a partial match: live states remained at the end of the subject.
func (m *matcher) run(start, group int, ims bytecode.Option, depth, rgroup int, top, shortest bool) (ends []int, hitEnd bool, err error) {
	if depth >= m.cfg.MaxDepth {
		return nil, false, bytecode.ErrDFARecurse
	}
	lv := m.level(depth)
	limit := m.subStates
	if top {
		limit = m.topStates
	}
	lv.cur.reset(limit)
	lv.next.reset(limit)

	code := m.code
	iv := invocation{
		m:        m,
		lv:       lv,
		cur:      start,
		endCode:  bytecode.GroupEnd(code, group),
		depth:    depth,
		rgroup:   rgroup,
		top:      top,
		shortest: shortest,
		ends:     lv.ends[:0],
	}

	switch op := bytecode.Op(code[group]); {
	case top && m.restart != nil:
		for _, s := range m.restart {
			iv.queue(s)
		}
	case op == bytecode.OpAssertBack || op == bytecode.OpAssertBackNot:
		iv.cur = iv.lookbehind(group, ims)
	default:
		for b := group; ; {
			iv.queue(state{offset: b + bytecode.Op(code[b]).Length(), ims: ims})
			b += bytecode.GetLink(code, b+1)
			if bytecode.Op(code[b]) != bytecode.OpAlt {
				break
			}
		}
	}
	if iv.err != nil {
		return nil, false, iv.err
	}

	end := len(m.subject)
	iv.ptr = iv.cur
	for {
		lv.cur, lv.next = lv.next, lv.cur
		lv.next.reset(limit)
		if m.ctx != nil {
			if m.steps++; m.steps&1023 == 0 {
				if err := m.ctx.Err(); err != nil {
					return nil, false, err
				}
			}
		}

		iv.c, iv.clen = -1, 0
		if iv.ptr < end {
			iv.c, iv.clen = m.char(iv.ptr)
		}
		active := lv.cur
		for i := 0; i < len(active.states); i++ {
			st := active.states[i]
			if st.offset < 0 {
				if iv.clen > 0 {
					st.data--
					iv.add(lv.next, st)
				}
			} else {
				iv.process(st)
			}
			if iv.err != nil {
				return nil, false, iv.err
			}
			if iv.done {
				lv.ends = iv.ends
				return iv.ends, false, nil
			}
		}

		if len(lv.next.states) == 0 {
			if top && m.partial && len(iv.ends) == 0 && iv.ptr >= end &&
				(iv.ptr > iv.cur || m.restart != nil) && len(active.states) > 0 {
				saveStates(m.ws, active.states, iv.cur)
				hitEnd = true
			}
			break
		}
		iv.ptr += iv.clen
	}
	lv.ends = iv.ends
	return iv.ends, hitEnd, nil
}

// lookbehind sets up the initial states of a lookbehind group and returns
// where the run starts. Each branch has a fixed length; the run starts as
// far back as the longest branch needs, and shorter branches wait until
// they are the right distance from the current position.
func (iv *invocation) lookbehind(group int, ims bytecode.Option) int {
	m := iv.m
	code := m.code

	type branch struct {
		body, back int
		ims        bytecode.Option
	}
	var branches []branch
	maxBack := 0
	for b := group; ; {
		body := b + 1 + link
		bims := ims
		if bytecode.Op(code[body]) == bytecode.OpOpt {
			bims = bytecode.Option(code[body+1])
			body += 2
		}
		back := bytecode.GetLink(code, body+1)
		branches = append(branches, branch{body: body + 1 + link, back: back, ims: bims})
		if back > maxBack {
			maxBack = back
		}
		b += bytecode.GetLink(code, b+1)
		if bytecode.Op(code[b]) != bytecode.OpAlt {
			break
		}
	}

	cur, gone := iv.cur, 0
	if m.utf8 {
		for gone < maxBack && cur > 0 {
			cur--
			for cur > 0 && m.subject[cur]&0xc0 == 0x80 {
				cur--
			}
			gone++
		}
	} else {
		gone = min(maxBack, cur)
		cur -= gone
	}

	for _, br := range branches {
		if br.back <= gone {
			iv.queue(state{offset: -br.body, data: gone - br.back, ims: br.ims})
		}
	}
	return cur
}

// queue adds s to the states for the next step.
func (iv *invocation) queue(s state) {
	iv.add(iv.lv.next, s)
}

func (iv *invocation) add(l *stateList, s state) {
	if !l.add(s) && iv.err == nil {
		iv.err = bytecode.ErrDFAWorkspaceSize
	}
}

// active adds a state at the current character: the item at offset has
// not consumed it yet.
func (iv *invocation) active(offset, count int, ims bytecode.Option) {
	iv.add(iv.lv.cur, state{offset: offset, count: count, ims: ims})
}

// consumed adds a state for after the current character and extra more.
func (iv *invocation) consumed(offset, count, extra int, ims bytecode.Option) {
	iv.add(iv.lv.next, state{offset: -offset, count: count, data: extra, ims: ims})
}

func (iv *invocation) fail(err error) {
	if iv.err == nil {
		iv.err = err
	}
}

// matched records a match ending at the current position.
func (iv *invocation) matched() {
	if iv.top && iv.m.notEmpty && iv.ptr == iv.cur {
		return
	}
	if n := len(iv.ends); n == 0 || iv.ends[n-1] != iv.ptr {
		iv.ends = append(iv.ends, iv.ptr)
	}
	if iv.shortest {
		iv.done = true
	}
}

// process advances one state over the current character. Items that do
// not consume it add states to the current list, which is still being
// walked; items that do add states to the next one.
func (iv *invocation) process(st state) {
	m := iv.m
	code := m.code
	o, ims := st.offset, st.ims
	ptr, c, clen := iv.ptr, iv.c, iv.clen
	end := len(m.subject)

	op := bytecode.Op(code[o])
	switch op {
	case bytecode.OpEnd:

	case bytecode.OpKet, bytecode.OpKetRMax, bytecode.OpKetRMin:
		if o == iv.endCode {
			iv.matched()
			return
		}
		outer := m.ketIMS[o]
		iv.active(o+1+link, 0, outer)
		if op != bytecode.OpKet {
			iv.active(o-bytecode.GetLink(code, o+1), 0, outer)
		}

	case bytecode.OpAlt:
		iv.active(bytecode.GroupEnd(code, o), 0, ims)

	case bytecode.OpBra, bytecode.OpCBra:
		for b := o; ; {
			iv.active(b+bytecode.Op(code[b]).Length(), 0, ims)
			b += bytecode.GetLink(code, b+1)
			if bytecode.Op(code[b]) != bytecode.OpAlt {
				break
			}
		}

	case bytecode.OpBraZero, bytecode.OpBraMinZero:
		iv.active(o+1, 0, ims)
		iv.active(bytecode.SkipGroup(code, o+1), 0, ims)

	case bytecode.OpOpt:
		iv.active(o+2, 0, bytecode.Option(code[o+1]))

	case bytecode.OpSOD:
		if ptr == 0 {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpSOM:
		if ptr == m.startOffset {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpCirc:
		if m.atCirc(ptr, ims) {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpDoll:
		if m.atDoll(ptr, ims) {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpEOD:
		if ptr >= end {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpEODN:
		if ptr >= end || (ptr == end-1 && m.subject[ptr] == newline) {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpWordBoundary, bytecode.OpNotWordBoundary:
		before := ptr > 0 && m.isWordBefore(ptr)
		after := clen > 0 && m.tables.IsType(c, bytecode.CtypeWord)
		if (before != after) == (op == bytecode.OpWordBoundary) {
			iv.active(o+1, 0, ims)
		}

	case bytecode.OpAny:
		if clen > 0 && (ims&bytecode.DotAll != 0 || c != newline) {
			iv.consumed(o+1, 0, 0, ims)
		}

	case bytecode.OpAnyByte:
		if m.utf8 {
			iv.fail(bytecode.ErrDFAUnsupportedItem)
			return
		}
		if clen > 0 {
			iv.consumed(o+1, 0, 0, ims)
		}

	case bytecode.OpNotDigit, bytecode.OpDigit, bytecode.OpNotWhitespace, bytecode.OpWhitespace,
		bytecode.OpNotWordchar, bytecode.OpWordchar, bytecode.OpProp, bytecode.OpNotProp:
		var ptype, pvalue byte
		if op == bytecode.OpProp || op == bytecode.OpNotProp {
			ptype, pvalue = code[o+1], code[o+2]
		}
		if clen > 0 && m.tables.TypeMatch(op, c, ptype, pvalue) {
			iv.consumed(o+op.Length(), 0, 0, ims)
		}

	case bytecode.OpExtUni:
		if clen > 0 && !ucp.IsMark(rune(c)) {
			iv.consumed(o+1, 0, m.marksAfter(ptr+clen), ims)
		}

	case bytecode.OpChar:
		fc, n := m.patternChar(o + 1)
		if clen > 0 && c == fc {
			iv.consumed(o+1+n, 0, 0, ims)
		}

	case bytecode.OpCharNC:
		fc, n := m.patternChar(o + 1)
		if clen > 0 && m.tables.CharEqualNC(c, fc, m.utf8) {
			iv.consumed(o+1+n, 0, 0, ims)
		}

	case bytecode.OpNot:
		if clen > 0 && m.tables.NotMatch(c, code[o+1], ims&bytecode.Caseless != 0) {
			iv.consumed(o+2, 0, 0, ims)
		}

	case bytecode.OpClass, bytecode.OpNClass, bytecode.OpXClass:
		iv.class(st)

	case bytecode.OpRef:
		iv.fail(bytecode.ErrDFAUnsupportedItem)

	case bytecode.OpRecurse:
		iv.recurse(st)

	case bytecode.OpCallout:
		iv.callout(st)

	case bytecode.OpAssert, bytecode.OpAssertNot, bytecode.OpAssertBack, bytecode.OpAssertBackNot:
		ends := iv.sub(o, ims, iv.rgroup, true)
		if iv.err != nil {
			return
		}
		positive := op == bytecode.OpAssert || op == bytecode.OpAssertBack
		if (len(ends) > 0) == positive {
			iv.active(bytecode.GroupEnd(code, o)+1+link, 0, ims)
		}

	case bytecode.OpOnce:
		iv.once(st)

	case bytecode.OpCond:
		iv.cond(st)

	default:
		if op < bytecode.OpStar || op > bytecode.OpTypeExact {
			iv.fail(bytecode.ErrUnknownNode)
			return
		}
		iv.repeat(st)
	}
}

// sub runs the group at offset group as a nested sub-match from the
// current position.
func (iv *invocation) sub(group int, ims bytecode.Option, rgroup int, shortest bool) []int {
	ends, _, err := iv.m.run(iv.ptr, group, ims, iv.depth+1, rgroup, false, shortest)
	if err != nil {
		iv.fail(err)
		return nil
	}
	return ends
}

// once matches an atomic group by running its body as a sub-match and
// keeping only the longest way it matches.
func (iv *invocation) once(st state) {
	m := iv.m
	code := m.code
	o, ims := st.offset, st.ims
	ends := iv.sub(o, ims, iv.rgroup, false)
	if len(ends) == 0 {
		return
	}
	e := ends[len(ends)-1]
	ket := bytecode.GroupEnd(code, o)
	next := ket + 1 + link
	if e == iv.ptr {
		// An empty match goes on at once; not looping back keeps an empty
		// body from repeating forever.
		iv.active(next, 0, ims)
		return
	}
	extra := m.chars(iv.ptr, e) - 1
	iv.consumed(next, 0, extra, ims)
	if bytecode.Op(code[ket]) != bytecode.OpKet {
		iv.consumed(o, 0, extra, ims)
	}
}

// recurse runs the called group as a sub-match and continues after the
// call from the end of each way it matched.
func (iv *invocation) recurse(st state) {
	m := iv.m
	code := m.code
	o, ims := st.offset, st.ims
	callpat := bytecode.GetLink(code, o+1)
	group := 0
	if bytecode.Op(code[callpat]) == bytecode.OpCBra {
		group = bytecode.Get2(code, callpat+1+link)
	}
	next := o + 1 + link
	for _, e := range iv.sub(callpat, ims, group, false) {
		if e == iv.ptr {
			iv.active(next, 0, ims)
		} else {
			iv.consumed(next, 0, m.chars(iv.ptr, e)-1, ims)
		}
	}
}

// cond picks the branch of a conditional group. Only recursion tests and
// assertions can be evaluated without captures.
func (iv *invocation) cond(st state) {
	m := iv.m
	code := m.code
	o, ims := st.offset, st.ims
	head := o + 1 + link
	no := o + bytecode.GetLink(code, o+1) + 1 + link
	switch op := bytecode.Op(code[head]); op {
	case bytecode.OpCRef:
		iv.fail(bytecode.ErrDFAUnsupportedCond)
	case bytecode.OpRRef:
		want := bytecode.Get2(code, head+1)
		if iv.rgroup >= 0 && (want == bytecode.RRefAny || want == iv.rgroup) {
			iv.active(head+3, 0, ims)
		} else {
			iv.active(no, 0, ims)
		}
	default:
		ends := iv.sub(head, ims, iv.rgroup, true)
		if iv.err != nil {
			return
		}
		positive := op == bytecode.OpAssert || op == bytecode.OpAssertBack
		if (len(ends) > 0) == positive {
			iv.active(bytecode.GroupEnd(code, head)+1+link, 0, ims)
		} else {
			iv.active(no, 0, ims)
		}
	}
}

func (iv *invocation) callout(st state) {
	m := iv.m
	code := m.code
	o := st.offset
	next := o + bytecode.OpCallout.Length()
	if m.cfg.Callout == nil {
		iv.active(next, 0, st.ims)
		return
	}
	cb := nfa.CalloutBlock{
		Number:          int(code[o+1]),
		Subject:         m.subject,
		StartMatch:      iv.cur,
		CurrentPosition: iv.ptr,
		CaptureTop:      1,
		CaptureLast:     -1,
		PatternPosition: bytecode.GetLink(code, o+2),
		NextItemLength:  bytecode.GetLink(code, o+2+link),
		Data:            m.cfg.CalloutData,
	}
	switch rc := m.cfg.Callout(&cb); {
	case rc < 0:
		iv.fail(&nfa.CalloutError{Value: rc, Number: cb.Number})
	case rc == 0:
		iv.active(next, 0, st.ims)
	}
}

// class handles a character class and its optional quantifier.
func (iv *invocation) class(st state) {
	m := iv.m
	code := m.code
	o, ims, count := st.offset, st.ims, st.count
	op := bytecode.Op(code[o])

	var after int
	in := false
	if op == bytecode.OpXClass {
		after = o + bytecode.GetLink(code, o+1)
		in = iv.clen > 0 && bytecode.XClassMatch(code[o+1+link:], iv.c)
	} else {
		after = o + 33
		in = iv.clen > 0 && bytecode.ClassMatch(code[o+1:o+33], iv.c, op == bytecode.OpNClass)
	}

	switch bytecode.Op(code[after]) {
	case bytecode.OpCRStar, bytecode.OpCRMinStar:
		iv.active(after+1, 0, ims)
		if in {
			iv.consumed(o, 0, 0, ims)
		}
	case bytecode.OpCRPlus, bytecode.OpCRMinPlus:
		if count > 0 {
			iv.active(after+1, 0, ims)
		}
		if in {
			iv.consumed(o, 1, 0, ims)
		}
	case bytecode.OpCRQuery, bytecode.OpCRMinQuery:
		iv.active(after+1, 0, ims)
		if in {
			iv.consumed(after+1, 0, 0, ims)
		}
	case bytecode.OpCRRange, bytecode.OpCRMinRange:
		lo, hi := bytecode.Get2(code, after+1), bytecode.Get2(code, after+3)
		if count >= lo {
			iv.active(after+5, 0, ims)
		}
		if in {
			count++
			switch {
			case hi != 0 && count >= hi:
				iv.consumed(after+5, 0, 0, ims)
			default:
				if hi == 0 && count > lo {
					// Past the minimum an unlimited repeat needs no
					// exact count, and merging keeps the list short.
					count = lo
				}
				iv.consumed(o, count, 0, ims)
			}
		}
	default:
		if in {
			iv.consumed(after, 0, 0, ims)
		}
	}
}

// repeat handles the single-character, negated-byte and type repeats.
func (iv *invocation) repeat(st state) {
	m := iv.m
	code := m.code
	o, ims, count := st.offset, st.ims, st.count
	op := bytecode.Op(code[o])

	base := bytecode.OpTypeStar
	switch {
	case op <= bytecode.OpExact:
		base = bytecode.OpStar
	case op <= bytecode.OpNotExact:
		base = bytecode.OpNotStar
	}
	kind := int(op - base)
	operand, bound := o+1, 0
	if kind >= 6 {
		operand, bound = o+3, bytecode.Get2(code, o+1)
	}
	next := bytecode.Next(code, o, m.utf8)

	ok, extra := iv.repeatItem(base, operand, ims)
	if iv.err != nil {
		return
	}

	switch kind {
	case 0, 1: // * *?
		iv.active(next, 0, ims)
		if ok {
			iv.consumed(o, 0, extra, ims)
		}
	case 2, 3: // + +?
		if count > 0 {
			iv.active(next, 0, ims)
		}
		if ok {
			iv.consumed(o, 1, extra, ims)
		}
	case 4, 5: // ? ??
		iv.active(next, 0, ims)
		if ok {
			iv.consumed(next, 0, extra, ims)
		}
	default: // {0,n} {0,n}? {n}
		if kind != 8 || bound == 0 {
			iv.active(next, 0, ims)
		}
		if ok && bound > 0 {
			if count+1 >= bound {
				iv.consumed(next, 0, extra, ims)
			} else {
				iv.consumed(o, count+1, extra, ims)
			}
		}
	}
}

// repeatItem tests the current character against the operand of a repeat
// and returns how many further characters it takes, which is non-zero only
// for \X.
func (iv *invocation) repeatItem(base bytecode.Op, operand int, ims bytecode.Option) (bool, int) {
	if iv.clen == 0 {
		return false, 0
	}
	m := iv.m
	code := m.code
	c := iv.c
	switch base {
	case bytecode.OpStar:
		fc, _ := m.patternChar(operand)
		if ims&bytecode.Caseless != 0 {
			return m.tables.CharEqualNC(c, fc, m.utf8), 0
		}
		return c == fc, 0
	case bytecode.OpNotStar:
		return m.tables.NotMatch(c, code[operand], ims&bytecode.Caseless != 0), 0
	}

	t := bytecode.Op(code[operand])
	switch t {
	case bytecode.OpAny:
		return ims&bytecode.DotAll != 0 || c != newline, 0
	case bytecode.OpAnyByte:
		if m.utf8 {
			iv.fail(bytecode.ErrDFAUnsupportedItem)
			return false, 0
		}
		return true, 0
	case bytecode.OpExtUni:
		if ucp.IsMark(rune(c)) {
			return false, 0
		}
		return true, m.marksAfter(iv.ptr + iv.clen)
	}
	var ptype, pvalue byte
	if t == bytecode.OpProp || t == bytecode.OpNotProp {
		ptype, pvalue = code[operand+1], code[operand+2]
	}
	return m.tables.TypeMatch(t, c, ptype, pvalue), 0
}

// char decodes the subject character at i, which must be below
// len(m.subject).
func (m *matcher) char(i int) (int, int) {
	c := m.subject[i]
	if !m.utf8 || c < 0xc0 {
		return int(c), 1
	}
	r, n := utf8.DecodeRune(m.subject[i:])
	return int(r), n
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

// chars counts the characters between subject offsets from and to.
func (m *matcher) chars(from, to int) int {
	if !m.utf8 {
		return to - from
	}
	return utf8.RuneCount(m.subject[from:to])
}

// marksAfter counts the combining marks starting at i.
func (m *matcher) marksAfter(i int) int {
	n := 0
	for i < len(m.subject) {
		c, w := m.char(i)
		if !ucp.IsMark(rune(c)) {
			break
		}
		n++
		i += w
	}
	return n
}

func (m *matcher) isWordBefore(i int) bool {
	i--
	if m.utf8 {
		for i > 0 && m.subject[i]&0xc0 == 0x80 {
			i--
		}
	}
	c, _ := m.char(i)
	return m.tables.IsType(c, bytecode.CtypeWord)
}

// atCirc reports whether ^ holds at ptr.
func (m *matcher) atCirc(ptr int, ims bytecode.Option) bool {
	if m.notBOL && ptr == 0 {
		return false
	}
	if ims&bytecode.Multiline != 0 {
		return ptr == 0 || m.subject[ptr-1] == newline
	}
	return ptr == 0
}

// atDoll reports whether $ holds at ptr.
func (m *matcher) atDoll(ptr int, ims bytecode.Option) bool {
	end := len(m.subject)
	switch {
	case ims&bytecode.Multiline != 0:
		if ptr < end {
			return m.subject[ptr] == newline
		}
		return !m.notEOL
	case m.notEOL:
		return false
	case m.endOnly:
		return ptr >= end
	}
	return ptr >= end || (ptr == end-1 && m.subject[ptr] == newline)
}

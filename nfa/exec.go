// Package nfa implements the backtracking matcher for compiled patterns.
//
// The matcher walks the bytecode depth first, trying alternatives in order
// and backtracking on failure, so it finds the same match Perl would and
// supports every construct the compiler emits: captures, back references,
// lookaround, atomic groups, recursion, conditionals and callouts.
//
// Results use the PCRE ovector layout: the caller passes a slice whose
// length is a multiple of three; the first two thirds receive (start, end)
// pairs, the whole match first, and the last third is scratch space.
package nfa

import (
	"bytes"
	"context"
	"sync"
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/prefilter"
	"github.com/coregx/pcre/simd"
)

// reqByteMax bounds the subject length for which the required byte is
// searched for up front; beyond it the search costs more than it saves.
const reqByteMax = 1000

// Matcher runs backtracking matches of one compiled pattern. It is safe for
// concurrent use; per-call state is pooled.
type Matcher struct {
	p      *bytecode.Pattern
	cfg    Config
	tables *bytecode.Tables

	skip     []bool
	negCapts map[int]bool
	topRef   int // highest group read by a back reference or a condition

	start   prefilter.Prefilter
	literal prefilter.Prefilter

	pool sync.Pool
}

// New returns a Matcher for p. Prefilters are derived from the pattern's
// first byte, start bits and literals unless noPrefilter is set.
func New(p *bytecode.Pattern, cfg Config, noPrefilter bool) *Matcher {
	mt := &Matcher{
		p:        p,
		cfg:      cfg.withDefaults(),
		tables:   p.TablesOrDefault(),
		skip:     p.SkippableGroups(),
		negCapts: capturingNegativeAsserts(p.Code, p.UTF8()),
		topRef:   max(p.TopBackref, min(topConditionRef(p.Code, p.UTF8()), p.TopBracket)),
	}
	if !noPrefilter {
		b := prefilter.NewBuilder(p)
		mt.start = b.Start()
		if p.Options&bytecode.FirstLine == 0 {
			mt.literal = b.Literal()
		}
	}
	mt.pool.New = func() any { return new(matcher) }
	return mt
}

// Pattern returns the compiled pattern.
func (mt *Matcher) Pattern() *bytecode.Pattern {
	return mt.p
}

// Exec is a convenience wrapper that builds a Matcher for a single call.
func Exec(ctx context.Context, p *bytecode.Pattern, subject []byte, start int, options bytecode.Option, ovector []int, cfg Config) (int, error) {
	return New(p, cfg, false).Exec(ctx, subject, start, options, ovector)
}

// Exec matches the pattern against subject starting at byte offset start.
//
// On a match it returns the number of capture pairs set, counting the whole
// match, and fills ovector; the count is 0 when ovector was too small for
// every capture. Otherwise it returns bytecode.ErrNoMatch or
// bytecode.ErrPartial, or a failure: an ExecCode, a *bytecode.UTF8Error, a
// *CalloutError, or the context's error after cancellation.
func (mt *Matcher) Exec(ctx context.Context, subject []byte, start int, options bytecode.Option, ovector []int) (int, error) {
	p := mt.p
	if options&^bytecode.PublicExecOptions != 0 {
		return 0, bytecode.ErrBadOption
	}
	if start < 0 || start > len(subject) {
		return 0, bytecode.ErrBadOption
	}
	partial := options&bytecode.Partial != 0
	if partial && p.Options&bytecode.NoPartialFlag != 0 {
		return 0, bytecode.ErrBadPartial
	}
	if p.UTF8() && options&bytecode.NoUTF8Check == 0 {
		if err := CheckUTF8(subject, start); err != nil {
			return 0, err
		}
	}

	m := mt.pool.Get().(*matcher)
	defer func() {
		m.subject, m.ovector, m.ctx = nil, nil, nil
		mt.pool.Put(m)
	}()
	*m = matcher{
		cfg:         mt.cfg,
		code:        p.Code,
		subject:     subject,
		tables:      mt.tables,
		utf8:        p.UTF8(),
		endOnly:     p.Options&bytecode.DollarEndOnly != 0,
		skip:        mt.skip,
		negCapts:    mt.negCapts,
		startOffset: start,
		notBOL:      options&bytecode.NotBOL != 0,
		notEOL:      options&bytecode.NotEOL != 0,
		notEmpty:    options&bytecode.NotEmpty != 0,
		partial:     partial,
		captureLast: -1,
		recursions:  m.recursions[:0],
		temp:        m.temp,
	}
	if ctx != nil && ctx.Done() != nil {
		m.ctx = ctx
	}

	// Back references and conditions need their groups even when the
	// caller asked for fewer captures, so match into a temporary vector then.
	ocount := len(ovector) - len(ovector)%3
	useTemp := false
	if mt.topRef > 0 && mt.topRef >= ocount/3 {
		ocount = mt.topRef*3 + 3
		if cap(m.temp) < ocount {
			m.temp = make([]int, ocount)
		}
		m.ovector = m.temp[:ocount]
		useTemp = true
	} else {
		m.ovector = ovector[:ocount]
	}
	m.offsetEnd = ocount
	m.offsetMax = 2 * ocount / 3

	resetCount := 2 + p.TopBracket*2
	if resetCount > ocount {
		resetCount = ocount
	}
	for i := ocount - resetCount/2 + 1; i < ocount; i++ {
		m.ovector[i] = -1
	}

	ims := p.Options & bytecode.IMSMask
	anchored := (p.Options|options)&bytecode.Anchored != 0
	startLine := p.Options&bytecode.StartLineFlag != 0
	firstLine := p.Options&bytecode.FirstLine != 0
	firstSet := !anchored && p.Options&bytecode.FirstSet != 0

	req, req2, reqSet := 0, 0, false
	if rb, ok := p.Required(); ok {
		req = rb & 0xff
		req2 = req
		if rb&bytecode.ReqCaseless != 0 {
			req2 = int(mt.tables.Flip[req])
		}
		reqSet = true
	}
	reqPtr := start - 1

	end := len(subject)
	startMatch := start
	for {
		for i := 0; i < resetCount; i++ {
			m.ovector[i] = -1
		}

		if !anchored {
			lineEnd := end
			if firstLine {
				if i := bytes.IndexByte(subject[startMatch:], '\n'); i >= 0 {
					lineEnd = startMatch + i
				}
			}
			switch {
			case startLine:
				if startMatch > start {
					for startMatch < lineEnd && subject[startMatch-1] != '\n' {
						startMatch++
					}
				}
			case mt.literal != nil && !partial:
				i := mt.literal.Find(subject, startMatch)
				if i < 0 {
					return 0, bytecode.ErrNoMatch
				}
				startMatch = i
				if mt.literal.IsComplete() && m.cfg.Callout == nil && !m.notEmpty {
					return mt.complete(ovector, startMatch, startMatch+mt.literal.LiteralLen()), nil
				}
			case mt.start != nil:
				if i := mt.start.Find(subject[:lineEnd], startMatch); i >= 0 {
					startMatch = i
				} else {
					startMatch = lineEnd
				}
			}
		}

		if reqSet && !partial && end-startMatch < reqByteMax {
			from := startMatch
			if firstSet {
				from++
			}
			if from > reqPtr {
				found := -1
				if from <= end {
					if req == req2 {
						found = simd.Memchr(subject[from:], byte(req))
					} else {
						found = simd.Memchr2(subject[from:], byte(req), byte(req2))
					}
				}
				if found < 0 {
					break
				}
				reqPtr = from + found
			}
		}

		m.startMatch = startMatch
		m.calls = 0
		ok, err := m.match(startMatch, 0, 2, ims, nil, 0, 0)
		if err != nil {
			return 0, err
		}
		if ok {
			return m.result(ovector, useTemp, startMatch), nil
		}

		if firstLine && startMatch < end && subject[startMatch] == '\n' {
			break
		}
		startMatch++
		if m.utf8 {
			for startMatch < end && subject[startMatch]&0xc0 == 0x80 {
				startMatch++
			}
		}
		if anchored || startMatch > end {
			break
		}
	}

	if partial && m.hitEnd {
		return 0, bytecode.ErrPartial
	}
	return 0, bytecode.ErrNoMatch
}

// result copies a successful match into the caller's ovector and returns
// the capture count.
func (m *matcher) result(ovector []int, useTemp bool, startMatch int) int {
	if useTemp {
		limit := 2 * (len(ovector) / 3)
		if limit > 2 {
			copy(ovector[2:limit], m.ovector[2:])
		}
		if m.endOffsetTop > limit {
			m.offsetOverflow = true
		}
	}
	rc := m.endOffsetTop / 2
	if m.offsetOverflow {
		rc = 0
	}
	if len(ovector) < 2 {
		return 0
	}
	ovector[0] = startMatch
	ovector[1] = m.endMatch
	return rc
}

// complete reports a match found by a complete literal prefilter.
func (mt *Matcher) complete(ovector []int, start, end int) int {
	if len(ovector) < 2 {
		return 0
	}
	ovector[0], ovector[1] = start, end
	return 1
}

// CheckUTF8 validates subject as UTF-8 and checks that start is on a
// character boundary.
func CheckUTF8(subject []byte, start int) error {
	if !simd.IsASCII(subject) {
		for i := 0; i < len(subject); {
			r, n := utf8.DecodeRune(subject[i:])
			if r == utf8.RuneError && n == 1 {
				return &bytecode.UTF8Error{Offset: i}
			}
			i += n
		}
	}
	if start > 0 && start < len(subject) && subject[start]&0xc0 == 0x80 {
		return &bytecode.UTF8Error{Offset: start, AtStart: true}
	}
	return nil
}

// topConditionRef returns the highest group number tested by a (?(N)...)
// condition, or 0.
func topConditionRef(code []byte, utf8 bool) int {
	top := 0
	for pc := 0; pc < len(code); pc = bytecode.Next(code, pc, utf8) {
		switch bytecode.Op(code[pc]) {
		case bytecode.OpEnd:
			return top
		case bytecode.OpCRef:
			top = max(top, bytecode.Get2(code, pc+1))
		}
	}
	return top
}

// capturingNegativeAsserts returns the offsets of negative assertions that
// contain capturing groups; their captures are rolled back when the body
// matches and the assertion fails.
func capturingNegativeAsserts(code []byte, utf8 bool) map[int]bool {
	var found map[int]bool
	for pc := 0; pc < len(code); {
		op := bytecode.Op(code[pc])
		if op == bytecode.OpEnd {
			break
		}
		if op == bytecode.OpAssertNot || op == bytecode.OpAssertBackNot {
			end := bytecode.SkipGroup(code, pc)
			for q := pc + 1 + link; q < end; q = bytecode.Next(code, q, utf8) {
				if bytecode.Op(code[q]) == bytecode.OpCBra {
					if found == nil {
						found = make(map[int]bool)
					}
					found[pc] = true
					break
				}
			}
		}
		pc = bytecode.Next(code, pc, utf8)
	}
	return found
}

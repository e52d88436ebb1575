// Package dfa implements the alternative matcher for compiled patterns.
//
// Instead of backtracking, the matcher advances every live path through
// the pattern in lock step, one subject character at a time, and so finds
// every match that starts at a given position: the longest first, or only
// the shortest when DFAShortest is set. Work is linear in the subject for
// each start position and never blows up on nested repeats.
//
// Captures and back references are not supported. Assertions, atomic
// groups and recursion run as nested sub-matches; an atomic group keeps
// the longest string its body can match.
//
// The live states after a partial match can be saved in the caller's
// workspace and the match continued on the next piece of the subject with
// DFARestart.
package dfa

import (
	"bytes"
	"context"
	"sync"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/nfa"
	"github.com/coregx/pcre/prefilter"
	"github.com/coregx/pcre/simd"
)

// reqByteMax bounds the subject length for which the required byte is
// searched for up front.
const reqByteMax = 1000

const link = bytecode.LinkSize

// Matcher runs DFA matches of one compiled pattern. It is safe for
// concurrent use; per-call state is pooled.
type Matcher struct {
	p      *bytecode.Pattern
	cfg    Config
	tables *bytecode.Tables
	ketIMS []bytecode.Option

	start   prefilter.Prefilter
	literal prefilter.Prefilter

	pool sync.Pool
}

// New returns a Matcher for p. Prefilters are derived from the pattern
// unless noPrefilter is set.
func New(p *bytecode.Pattern, cfg Config, noPrefilter bool) *Matcher {
	mt := &Matcher{
		p:      p,
		cfg:    cfg,
		tables: p.TablesOrDefault(),
		ketIMS: ketOptions(p.Code, p.UTF8(), p.Options&bytecode.IMSMask),
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
func Exec(ctx context.Context, p *bytecode.Pattern, subject []byte, start int, options bytecode.Option, ovector, workspace []int, cfg Config) (int, error) {
	return New(p, cfg, false).Exec(ctx, subject, start, options, ovector, workspace)
}

// Exec matches the pattern against subject starting at byte offset start.
//
// Every match found at the first start position that has any is returned
// in ovector as (start, end) pairs, longest first; all share the same
// start. The result is the number of pairs stored, or 0 when ovector was
// too small for all of them, in which case the longest are kept. With
// DFAShortest only the shortest match is found.
//
// workspace holds the matcher's state lists; nil selects a pooled one of
// Config.WorkspaceSize ints. After bytecode.ErrPartial it holds the live
// states, and a call with DFARestart on the next piece of the subject
// carries on from them. ovector then receives the offsets of the partial
// match, when it has room.
func (mt *Matcher) Exec(ctx context.Context, subject []byte, start int, options bytecode.Option, ovector, workspace []int) (int, error) {
	p := mt.p
	cfg := mt.cfg.withDefaults()
	if options&^bytecode.PublicDFAExecOptions != 0 {
		return 0, bytecode.ErrBadOption
	}
	if mt.cfg.MatchLimit != 0 {
		return 0, bytecode.ErrDFAUnsupportedLimit
	}
	if start < 0 || start > len(subject) {
		return 0, bytecode.ErrBadOption
	}
	if workspace != nil && len(workspace) < MinWorkspaceSize {
		return 0, bytecode.ErrDFAWorkspaceSize
	}
	partial := options&bytecode.Partial != 0
	if partial && p.Options&bytecode.NoPartialFlag != 0 {
		return 0, bytecode.ErrBadPartial
	}
	restart := options&bytecode.DFARestart != 0
	var restartStates []state
	if restart {
		if workspace == nil {
			return 0, bytecode.ErrDFABadRestart
		}
		states, err := loadStates(workspace, len(p.Code))
		if err != nil {
			return 0, err
		}
		restartStates = states
	}
	if p.UTF8() && options&bytecode.NoUTF8Check == 0 {
		if err := nfa.CheckUTF8(subject, start); err != nil {
			return 0, err
		}
	}

	m := mt.pool.Get().(*matcher)
	defer func() {
		m.subject, m.ctx, m.restart, m.ws = nil, nil, nil, nil
		mt.pool.Put(m)
	}()
	ws := workspace
	if ws == nil {
		if cap(m.scratch) < cfg.WorkspaceSize {
			m.scratch = make([]int, cfg.WorkspaceSize)
		}
		ws = m.scratch[:cfg.WorkspaceSize]
	}
	*m = matcher{
		cfg:         cfg,
		code:        p.Code,
		tables:      mt.tables,
		ketIMS:      mt.ketIMS,
		utf8:        p.UTF8(),
		endOnly:     p.Options&bytecode.DollarEndOnly != 0,
		subject:     subject,
		startOffset: start,
		notBOL:      options&bytecode.NotBOL != 0,
		notEOL:      options&bytecode.NotEOL != 0,
		notEmpty:    options&bytecode.NotEmpty != 0,
		shortest:    options&bytecode.DFAShortest != 0,
		partial:     partial,
		restart:     restartStates,
		ws:          ws,
		topStates:   maxStates(len(ws)),
		subStates:   maxStates(cfg.WorkspaceSize),
		levels:      m.levels,
		scratch:     m.scratch,
	}
	if ctx != nil && ctx.Done() != nil {
		m.ctx = ctx
	}

	ims := p.Options & bytecode.IMSMask
	anchored := (p.Options|options)&bytecode.Anchored != 0 || restart
	startLine := p.Options&bytecode.StartLineFlag != 0
	firstLine := p.Options&bytecode.FirstLine != 0
	firstSet := !anchored && p.Options&bytecode.FirstSet != 0

	req, req2, reqSet := 0, 0, false
	if rb, ok := p.Required(); ok && !restart {
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
				if mt.literal.IsComplete() && cfg.Callout == nil && !m.notEmpty {
					return storeMatches(ovector, startMatch, []int{startMatch + mt.literal.LiteralLen()}), nil
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

		ends, hitEnd, err := m.run(startMatch, 0, ims, 0, -1, true, m.shortest)
		if err != nil {
			return 0, err
		}
		if len(ends) > 0 {
			return storeMatches(ovector, startMatch, ends), nil
		}
		if hitEnd {
			if len(ovector) >= 2 {
				ovector[0], ovector[1] = startMatch, end
			}
			return 0, bytecode.ErrPartial
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
	return 0, bytecode.ErrNoMatch
}

// storeMatches writes the matches ending at ends, which ascend, into
// ovector longest first. It returns the number stored, or 0 when some did
// not fit.
func storeMatches(ovector []int, start int, ends []int) int {
	room := len(ovector) / 2
	n := len(ends)
	for i := 0; i < n && i < room; i++ {
		ovector[2*i] = start
		ovector[2*i+1] = ends[n-1-i]
	}
	if n > room {
		return 0
	}
	return n
}

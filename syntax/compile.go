// Package syntax compiles Perl-compatible pattern text into the bytecode
// defined by package bytecode.
//
// Compilation is a single recursive-descent pass over the pattern that
// appends instructions to a growable buffer. Every group is emitted with a
// zero link that is filled in once the group closes, so "is this group
// still open" is a link test. Forward references to groups are recorded in
// a fixup list and resolved after the whole pattern has been emitted.
//
// After emission the finished code is analysed for anchoring, a first
// byte, a line-start property and a required byte. None of these analyses
// change what a pattern matches; the matchers use them to skip work.
package syntax

import (
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
)

const (
	reqUnset = -2 // no first/required byte seen yet
	reqNone  = -1 // no single byte can be determined
)

const (
	// MaxPatternSize bounds the compiled code length.
	MaxPatternSize = 1 << 24
	// MaxNesting bounds the depth of nested groups.
	MaxNesting = 250
	// MaxNames bounds the number of named groups.
	MaxNames = 10000
)

// Config holds compile-time collaborators.
type Config struct {
	// Tables are the character tables; nil selects bytecode.DefaultTables.
	Tables *bytecode.Tables

	// NoUCP rejects \p, \P and \X, as a build without Unicode property
	// support would.
	NoUCP bool
}

// fixup is a forward recursion reference: the OpRecurse operand at at holds
// a group number until the group is found after compilation.
type fixup struct {
	at     int
	offset int // pattern offset for error reporting
}

type compiler struct {
	pattern string
	pos     int
	code    []byte
	tables  *bytecode.Tables
	cfg     *Config
	utf8    bool

	// options are the options in force at the start of the pattern.
	options bytecode.Option

	bracount   int
	topBackref int
	backrefMap uint32
	reqVaryOpt int
	noPartial  bool
	ichanged   bool
	depth      int
	names      []bytecode.NameEntry
	fixups     []fixup

	// branches holds the start of the innermost open branch of every open
	// group, outermost first.
	branches []int

	totalGroups int // capturing groups in the whole pattern, -1 until counted
}

// Compile compiles pattern with options. The returned error is always a
// *Error carrying the code and pattern offset.
func Compile(pattern string, options bytecode.Option, cfg *Config) (*bytecode.Pattern, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if options&^bytecode.PublicCompileOptions != 0 {
		return nil, &Error{Code: ErrUnknownOption, Pattern: pattern}
	}
	if options&bytecode.UTF8 != 0 && options&bytecode.NoUTF8Check == 0 {
		if off := invalidUTF8(pattern); off >= 0 {
			return nil, &Error{Code: ErrInvalidUTF8, Offset: off, Pattern: pattern}
		}
	}

	// Option settings at the very start of the pattern become global.
	start := 0
	if options&bytecode.AutoCallout == 0 {
		options, start = leadingOptions(pattern, options)
	}

	c := newCompiler(pattern, options, cfg, 0)
	p, err := c.compile(start)
	if err != nil {
		return nil, err
	}
	if c.ichanged {
		// A caseless change inside the pattern makes every required byte
		// unreliable as a fixed-position hint; compile again with all of
		// them marked as following variable-length items.
		c = newCompiler(pattern, options, cfg, bytecode.ReqVary)
		if p, err = c.compile(start); err != nil {
			return nil, err
		}
		p.Options |= bytecode.IChangedFlag
	}
	return p, nil
}

func newCompiler(pattern string, options bytecode.Option, cfg *Config, reqVaryOpt int) *compiler {
	tables := cfg.Tables
	if tables == nil {
		tables = bytecode.DefaultTables()
	}
	return &compiler{
		pattern:     pattern,
		tables:      tables,
		cfg:         cfg,
		utf8:        options&bytecode.UTF8 != 0,
		options:     options,
		reqVaryOpt:  reqVaryOpt,
		totalGroups: -1,
		code:        make([]byte, 0, 2*len(pattern)+16),
	}
}

// invalidUTF8 returns the offset of the first invalid UTF-8 sequence in s,
// or -1.
func invalidUTF8(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// leadingOptions applies any (?imsxUX-imsxUX) items that open the pattern
// and returns the new options and the offset just past them.
func leadingOptions(pattern string, options bytecode.Option) (bytecode.Option, int) {
	pos := 0
	for pos+2 < len(pattern) && pattern[pos] == '(' && pattern[pos+1] == '?' {
		set, unset := bytecode.Option(0), bytecode.Option(0)
		opt := &set
		p := pos + 2
		for ; p < len(pattern) && pattern[p] != ')'; p++ {
			bit, ok := optionLetter(pattern[p])
			switch {
			case pattern[p] == '-':
				opt = &unset
			case ok:
				*opt |= bit
			default:
				return options, pos
			}
		}
		if p >= len(pattern) {
			return options, pos
		}
		options = (options | set) &^ unset
		pos = p + 1
	}
	return options, pos
}

func optionLetter(ch byte) (bytecode.Option, bool) {
	switch ch {
	case 'i':
		return bytecode.Caseless, true
	case 'm':
		return bytecode.Multiline, true
	case 's':
		return bytecode.DotAll, true
	case 'x':
		return bytecode.Extended, true
	case 'U':
		return bytecode.Ungreedy, true
	case 'X':
		return bytecode.Extra, true
	}
	return 0, false
}

// ch returns the pattern byte at i, or -1 past either end.
func (c *compiler) ch(i int) int {
	if i < 0 || i >= len(c.pattern) {
		return -1
	}
	return int(c.pattern[i])
}

func (c *compiler) errorf(code ErrorCode) error {
	return &Error{Code: code, Offset: c.pos, Pattern: c.pattern}
}

func (c *compiler) emit(b ...byte) {
	c.code = append(c.code, b...)
}

func (c *compiler) emitOp(op bytecode.Op) {
	c.code = append(c.code, byte(op))
}

func (c *compiler) emitLink(v int) {
	c.code = append(c.code, 0, 0, 0, 0)
	bytecode.PutLink(c.code, len(c.code)-bytecode.LinkSize, v)
}

func (c *compiler) emit2(v int) {
	c.code = append(c.code, 0, 0)
	bytecode.Put2(c.code, len(c.code)-2, v)
}

// encodeChar returns the operand bytes for character r.
func (c *compiler) encodeChar(r int) []byte {
	if c.utf8 && r > 127 {
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], rune(r))
		return buf[:n]
	}
	return []byte{byte(r)}
}

// insert opens a gap of n bytes at offset at.
func (c *compiler) insert(at, n int) {
	c.code = append(c.code, make([]byte, n)...)
	copy(c.code[at+n:], c.code[at:len(c.code)-n])
}

// compile runs the top-level pass and the post-compile analyses.
func (c *compiler) compile(start int) (*bytecode.Pattern, error) {
	c.pos = start
	first, req, err := c.compileRegex(bytecode.OpBra, nil, c.options, c.options&bytecode.IMSMask, false)
	if err != nil {
		return nil, err
	}
	if c.pos < len(c.pattern) {
		return nil, c.errorf(ErrUnmatchedParen)
	}
	c.emitOp(bytecode.OpEnd)

	for _, f := range c.fixups {
		recno := bytecode.GetLink(c.code, f.at)
		target := bytecode.FindBracket(c.code, c.utf8, recno)
		if target < 0 {
			return nil, &Error{Code: ErrNonexistentGroup, Offset: f.offset, Pattern: c.pattern}
		}
		bytecode.PutLink(c.code, f.at, target)
	}
	if c.topBackref > c.bracount {
		return nil, &Error{Code: ErrNonexistentGroup, Offset: len(c.pattern), Pattern: c.pattern}
	}
	if len(c.code) > MaxPatternSize {
		return nil, &Error{Code: ErrTooLarge, Offset: len(c.pattern), Pattern: c.pattern}
	}

	p := &bytecode.Pattern{
		Code:       c.code,
		Options:    c.options,
		TopBracket: c.bracount,
		TopBackref: c.topBackref,
		Names:      c.names,
		Tables:     c.tables,
	}
	if c.noPartial {
		p.Options |= bytecode.NoPartialFlag
	}
	if c.tables == bytecode.DefaultTables() {
		p.Tables = nil
	}

	if p.Options&bytecode.Anchored == 0 {
		ims := p.Options
		switch {
		case isAnchored(c.code, 0, &ims, 0, c.backrefMap):
			p.Options |= bytecode.Anchored
		default:
			if first < 0 {
				first = firstAssertedChar(c.code, 0, &ims, false, c.utf8)
			}
			if first >= 0 {
				ch := first & 0xff
				if first&bytecode.ReqCaseless != 0 && int(c.tables.Flip[ch]) == ch {
					first = ch
				}
				p.FirstByte = first
				p.Options |= bytecode.FirstSet
			} else if isStartline(c.code, 0, 0, c.backrefMap) {
				p.Options |= bytecode.StartLineFlag
			}
		}
	}

	if req >= 0 && (p.Options&bytecode.Anchored == 0 || req&bytecode.ReqVary != 0) {
		ch := req & 0xff
		if req&bytecode.ReqCaseless != 0 && int(c.tables.Flip[ch]) == ch {
			req &^= bytecode.ReqCaseless
		}
		p.ReqByte = req
		p.Options |= bytecode.ReqByteSet
	}
	return p, nil
}

// compileRegex compiles the alternatives of one group, or of the whole
// pattern, starting with c.pos on the first character of the first branch.
// It emits the bracket op, its zero link and header, then each branch
// separated by OpAlt, and finally the closing OpKet. On return c.pos is on
// the closing ')' or at the end of the pattern.
//
// options are the options inside the group; oldims are the runtime options
// outside it, restored after the group if a branch changed them.
func (c *compiler) compileRegex(op bytecode.Op, header []byte, options, oldims bytecode.Option, lookbehind bool) (first, req int, err error) {
	start := len(c.code)
	c.emitOp(op)
	c.emitLink(0)
	c.emit(header...)

	c.depth++
	if c.depth > MaxNesting {
		return 0, 0, c.errorf(ErrNestedTooDeeply)
	}
	c.branches = append(c.branches, start)
	defer func() {
		c.depth--
		c.branches = c.branches[:len(c.branches)-1]
	}()

	first, req = reqUnset, reqUnset
	lastBranch := start
	for {
		if options&bytecode.IMSMask != oldims {
			c.emit(byte(bytecode.OpOpt), byte(options&bytecode.IMSMask))
		}
		reverse := -1
		if lookbehind {
			c.emitOp(bytecode.OpReverse)
			reverse = len(c.code)
			c.emitLink(0)
		}

		var bfirst, breq int
		if bfirst, breq, err = c.compileBranch(&options); err != nil {
			return 0, 0, err
		}

		if lastBranch == start {
			first, req = bfirst, breq
		} else {
			if first >= 0 && first != bfirst {
				if req < 0 {
					req = first
				}
				first = reqNone
			}
			if first < 0 && bfirst >= 0 && breq < 0 {
				breq = bfirst
			}
			if req&^bytecode.ReqVary != breq&^bytecode.ReqVary {
				req = reqNone
			} else {
				req |= breq
			}
		}

		if lookbehind {
			c.code = append(c.code, byte(bytecode.OpEnd))
			n := fixedLength(c.code, lastBranch, c.utf8)
			c.code = c.code[:len(c.code)-1]
			switch {
			case n == -2:
				return 0, 0, c.errorf(ErrByteInLookbehind)
			case n < 0:
				return 0, 0, c.errorf(ErrLookbehindNotFixed)
			}
			bytecode.PutLink(c.code, reverse, n)
		}

		if c.ch(c.pos) != '|' {
			// Walk back along the branch chain replacing each backward
			// distance with the forward distance to the next branch.
			length := len(c.code) - lastBranch
			for {
				prev := bytecode.GetLink(c.code, lastBranch+1)
				bytecode.PutLink(c.code, lastBranch+1, length)
				length = prev
				if length == 0 {
					break
				}
				lastBranch -= length
			}
			ket := len(c.code)
			c.emitOp(bytecode.OpKet)
			c.emitLink(ket - start)
			if options&bytecode.IMSMask != oldims && c.ch(c.pos) == ')' {
				c.emit(byte(bytecode.OpOpt), byte(oldims))
			}
			return first, req, nil
		}

		alt := len(c.code)
		c.emitOp(bytecode.OpAlt)
		c.emitLink(alt - lastBranch)
		lastBranch = alt
		c.branches[len(c.branches)-1] = alt
		c.pos++
	}
}

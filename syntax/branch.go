package syntax

import "github.com/coregx/pcre/bytecode"

// branch is the state of one alternative while it is being compiled.
type branch struct {
	options bytecode.Option

	first, req         int // rolling first and required byte
	zeroFirst, zeroReq int // values to restore if the last item is repeated zero times
	reqCaseless        int
	groupSetFirst      bool // the last group set first

	previous   int // offset of the last repeatable item, or -1
	saveFixups int // fixup count when the last group started

	previousCallout    int // callout whose length is still to be filled in, or -1
	afterManualCallout int
}

func (b *branch) setOptions(o bytecode.Option) {
	b.options = o
	b.reqCaseless = 0
	if o&bytecode.Caseless != 0 {
		b.reqCaseless = bytecode.ReqCaseless
	}
}

// compileBranch compiles one alternative, stopping with c.pos on '|', ')'
// or the end of the pattern. Option changes made by (?imsx) items persist
// into the following alternatives of the same group through *options.
func (c *compiler) compileBranch(options *bytecode.Option) (first, req int, err error) {
	b := &branch{
		first:           reqUnset,
		req:             reqUnset,
		zeroFirst:       reqUnset,
		zeroReq:         reqUnset,
		previous:        -1,
		previousCallout: -1,
		saveFixups:      len(c.fixups),
	}
	b.setOptions(*options)
	inQuote := false

	for ; ; c.pos++ {
		ch := c.ch(c.pos)

		if inQuote && ch >= 0 {
			if ch == '\\' && c.ch(c.pos+1) == 'E' {
				inQuote = false
				c.pos++
				continue
			}
			if b.previousCallout >= 0 {
				c.completeCallout(b.previousCallout)
				b.previousCallout = -1
			}
			if b.options&bytecode.AutoCallout != 0 {
				b.previousCallout = len(c.code)
				c.autoCallout()
			}
			c.literal(b, c.patternLiteral())
			continue
		}

		isQuantifier := ch == '*' || ch == '+' || ch == '?' || (ch == '{' && c.isCountedRepeat(c.pos+1))
		if !isQuantifier && b.previousCallout >= 0 {
			n := b.afterManualCallout
			b.afterManualCallout--
			if n <= 0 {
				c.completeCallout(b.previousCallout)
				b.previousCallout = -1
			}
		}

		if b.options&bytecode.Extended != 0 {
			if ch >= 0 && c.tables.Is(byte(ch), bytecode.CtypeSpace) {
				continue
			}
			if ch == '#' {
				for c.pos++; c.pos < len(c.pattern) && c.pattern[c.pos] != '\n'; c.pos++ {
				}
				if c.pos < len(c.pattern) {
					continue
				}
				ch = -1
			}
		}

		if b.options&bytecode.AutoCallout != 0 && !isQuantifier {
			b.previousCallout = len(c.code)
			c.autoCallout()
		}

		switch ch {
		case -1, '|', ')':
			*options = b.options
			return b.first, b.req, nil

		case '^':
			if b.options&bytecode.Multiline != 0 && b.first == reqUnset {
				b.first = reqNone
			}
			b.previous = -1
			c.emitOp(bytecode.OpCirc)

		case '$':
			b.previous = -1
			c.emitOp(bytecode.OpDoll)

		case '.':
			if b.first == reqUnset {
				b.first = reqNone
			}
			b.zeroFirst, b.zeroReq = b.first, b.req
			b.previous = len(c.code)
			c.emitOp(bytecode.OpAny)

		case '[':
			err = c.compileClass(b)

		case '{':
			if !isQuantifier {
				c.literal(b, c.patternLiteral())
				break
			}
			var min, max int
			if min, max, err = c.readRepeatCounts(); err == nil {
				err = c.compileRepeat(b, min, max)
			}

		case '*':
			err = c.compileRepeat(b, 0, -1)
		case '+':
			err = c.compileRepeat(b, 1, -1)
		case '?':
			err = c.compileRepeat(b, 0, 1)

		case '(':
			err = c.compileGroup(b)

		case '\\':
			var quote bool
			if quote, err = c.compileEscape(b); quote {
				inQuote = true
			}

		default:
			c.literal(b, c.patternLiteral())
		}
		if err != nil {
			return 0, 0, err
		}
	}
}

// patternLiteral returns the encoded character at c.pos and leaves c.pos on
// its last byte.
func (c *compiler) patternLiteral() []byte {
	n := 1
	if c.utf8 && c.pattern[c.pos] >= 0xc0 {
		for c.pos+n < len(c.pattern) && c.pattern[c.pos+n]&0xc0 == 0x80 {
			n++
		}
	}
	mc := []byte(c.pattern[c.pos : c.pos+n])
	c.pos += n - 1
	return mc
}

// compileEscape handles a backslash outside a class. It reports whether a
// \Q quote has started.
func (c *compiler) compileEscape(b *branch) (bool, error) {
	v, err := c.checkEscape(c.bracount, false)
	if err != nil {
		return false, err
	}
	if v >= 0 {
		c.literal(b, c.encodeChar(v))
		return false, nil
	}

	kind := -v
	switch kind {
	case escQ:
		if c.ch(c.pos+1) == '\\' && c.ch(c.pos+2) == 'E' {
			c.pos += 2
			return false, nil
		}
		return true, nil
	case escE:
		return false, nil
	}

	if b.first == reqUnset && singleCharEscape(kind) {
		b.first = reqNone
	}
	b.zeroFirst, b.zeroReq = b.first, b.req

	switch {
	case kind == escK:
		t := c.ch(c.pos + 1)
		if t != '<' && t != '\'' {
			return false, c.errorf(ErrNameSyntax)
		}
		c.pos++
		if t == '<' {
			t = '>'
		}
		return false, c.namedReference(b, t, false)

	case kind >= escRef:
		c.emitRef(b, kind-escRef)

	case kind == escP || kind == escp:
		prop, negated, err := c.getUCP()
		if err != nil {
			return false, err
		}
		b.previous = len(c.code)
		op := bytecode.OpNotProp
		if (kind == escp) != negated {
			op = bytecode.OpProp
		}
		c.emit(byte(op), byte(prop.Type), prop.Value)

	default:
		b.previous = -1
		if singleCharEscape(kind) {
			b.previous = len(c.code)
		}
		c.emitOp(bytecode.Op(kind))
	}
	return false, nil
}

// literal emits one character and updates the first and required bytes.
// A multi-byte character can only provide them when matched caselessly.
func (c *compiler) literal(b *branch, mc []byte) {
	b.previous = len(c.code)
	if b.options&bytecode.Caseless != 0 {
		c.emitOp(bytecode.OpCharNC)
	} else {
		c.emitOp(bytecode.OpChar)
	}
	c.emit(mc...)

	last := int(mc[len(mc)-1])
	if b.first == reqUnset {
		c.dropLookaheadReq(b, int(mc[0]))
		b.zeroFirst = reqNone
		b.zeroReq = b.req
		if len(mc) == 1 || b.reqCaseless == 0 {
			b.first = int(mc[0]) | b.reqCaseless
			if len(mc) != 1 {
				b.req = last | c.reqVaryOpt
			}
		} else {
			b.first, b.req = reqNone, reqNone
		}
		return
	}
	b.zeroFirst, b.zeroReq = b.first, b.req
	if len(mc) == 1 || b.reqCaseless == 0 {
		b.req = last | b.reqCaseless | c.reqVaryOpt
	}
}

// dropLookaheadReq forgets a required byte that a lookahead supplied
// before the first byte was known, when it may be the first byte itself.
// The required-byte scan starts after the first byte, so it would look for
// a second copy.
func (c *compiler) dropLookaheadReq(b *branch, first int) {
	if b.req >= 0 && c.tables.Lower[b.req&0xff] == c.tables.Lower[first&0xff] {
		b.req = reqNone
	}
}

// emitRef emits a back reference to group n.
func (c *compiler) emitRef(b *branch, n int) {
	if b.first == reqUnset {
		b.first = reqNone
	}
	b.previous = len(c.code)
	c.emitOp(bytecode.OpRef)
	c.emit2(n)
	c.backrefMap |= groupBit(n)
	if n > c.topBackref {
		c.topBackref = n
	}
	c.noPartial = true
}

// autoCallout emits callout 255 for the item at c.pos.
func (c *compiler) autoCallout() {
	c.emit(byte(bytecode.OpCallout), 255)
	c.emitLink(c.pos)
	c.emitLink(0)
}

// completeCallout fills in the pattern length of the item following the
// callout at pc, which ends at c.pos.
func (c *compiler) completeCallout(pc int) {
	start := bytecode.GetLink(c.code, pc+2)
	bytecode.PutLink(c.code, pc+2+bytecode.LinkSize, c.pos-start)
}

package syntax

import (
	"unicode/utf8"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/ucp"
)

// class accumulates the contents of one [...] item.
type class struct {
	bits      [32]byte
	count     int // characters in bits; 2 or more once a type escape is added
	lastChar  int
	items     []byte // XClass items, UTF-8 mode only
	negate    bool
	caseless  bool
	useUCP    bool
	utf8      bool
	flip      *[256]byte
	hasXItems bool
}

func (cl *class) set(ch int) {
	cl.bits[ch/8] |= 1 << (ch & 7)
}

func (cl *class) or(m []byte, invert bool) {
	for i := range cl.bits {
		if invert {
			cl.bits[i] |= ^m[i]
		} else {
			cl.bits[i] |= m[i]
		}
	}
}

func (cl *class) addSingle(ch int) {
	cl.hasXItems = true
	cl.items = append(cl.items, bytecode.XClassSingle)
	cl.items = utf8.AppendRune(cl.items, rune(ch))
}

func (cl *class) addRange(lo, hi int) {
	cl.hasXItems = true
	cl.items = append(cl.items, bytecode.XClassRange)
	cl.items = utf8.AppendRune(cl.items, rune(lo))
	cl.items = utf8.AppendRune(cl.items, rune(hi))
}

// single adds one character.
func (cl *class) single(ch int) {
	if cl.utf8 && (ch > 255 || (cl.caseless && ch > 127)) {
		cl.addSingle(ch)
		if cl.caseless && cl.useUCP {
			if oc := int(ucp.OtherCase(rune(ch))); oc != ch {
				cl.addSingle(oc)
			}
		}
		return
	}
	cl.set(ch)
	if cl.caseless {
		ch = int(cl.flip[ch])
		cl.set(ch)
	}
	cl.count++
	cl.lastChar = ch
}

// rangeOf adds lo..hi, lo < hi.
func (cl *class) rangeOf(lo, hi int) {
	if cl.utf8 && (hi > 255 || (cl.caseless && hi > 127)) {
		if cl.caseless && cl.useUCP {
			lo, hi = cl.otherCaseRanges(lo, hi)
		}
		cl.addRange(lo, hi)
		if cl.useUCP || !cl.caseless || lo > 127 {
			return
		}
		hi = 127
	}
	cl.count += hi - lo + 1
	cl.lastChar = hi
	for ch := lo; ch <= hi; ch++ {
		cl.set(ch)
		if cl.caseless {
			cl.set(int(cl.flip[ch]))
		}
	}
}

// otherCaseRanges adds the other-case ranges of lo..hi as items, merging
// those that touch the original range into it. It returns the possibly
// widened range.
func (cl *class) otherCaseRanges(lo, hi int) (int, int) {
	origHi := hi
	for ch := lo; ch <= origHi; {
		// Find the next character that has another case.
		for ch <= origHi && int(ucp.OtherCase(rune(ch))) == ch {
			ch++
		}
		if ch > origHi {
			break
		}
		occ := int(ucp.OtherCase(rune(ch)))
		ocd := occ
		for ch++; ch <= origHi && int(ucp.OtherCase(rune(ch))) == ocd+1; ch++ {
			ocd++
		}
		switch {
		case occ >= lo && ocd <= hi:
		case occ < lo && ocd >= lo-1:
			lo = occ
		case ocd > hi && occ <= hi+1:
			hi = ocd
		case occ == ocd:
			cl.addSingle(occ)
		default:
			cl.addRange(occ, ocd)
		}
	}
	return lo, hi
}

// classChar decodes the literal character at p, returning it and its
// width in the pattern.
func (c *compiler) classChar(p int) (int, int) {
	if c.utf8 && c.pattern[p] >= 0xc0 {
		r, n := utf8.DecodeRuneInString(c.pattern[p:])
		return int(r), n
	}
	return int(c.pattern[p]), 1
}

// compileClass compiles the class whose '[' is at c.pos, leaving c.pos on
// the closing ']'. A class that turns out to hold exactly one character is
// emitted as OpChar or OpNot instead.
func (c *compiler) compileClass(b *branch) error {
	if n := c.ch(c.pos + 1); n == ':' || n == '.' || n == '=' {
		if _, ok := c.checkPOSIXSyntax(c.pos); ok {
			if n == ':' {
				return c.errorf(ErrPOSIXOutsideClass)
			}
			return c.errorf(ErrPOSIXCollating)
		}
	}

	cl := &class{
		caseless: b.options&bytecode.Caseless != 0,
		useUCP:   !c.cfg.NoUCP,
		utf8:     c.utf8,
		flip:     &c.tables.Flip,
	}
	if c.ch(c.pos+1) == '^' {
		cl.negate = true
		c.pos++
	}

	inQuote := false
	for first := true; ; first = false {
		c.pos++
		ch := c.ch(c.pos)
		if ch < 0 {
			return c.errorf(ErrMissingBracket)
		}
		if ch == ']' && !inQuote && !first {
			break
		}
		if inQuote {
			if ch == '\\' && c.ch(c.pos+1) == 'E' {
				inQuote = false
				c.pos++
				continue
			}
			v, n := c.classChar(c.pos)
			c.pos += n - 1
			cl.single(v)
			continue
		}

		if ch == '[' {
			if t := c.ch(c.pos + 1); t == ':' || t == '.' || t == '=' {
				if end, ok := c.checkPOSIXSyntax(c.pos); ok {
					if err := c.posixItem(cl, end, t); err != nil {
						return err
					}
					continue
				}
			}
		}

		start := c.pos
		if ch == '\\' {
			v, err := c.checkEscape(c.bracount, true)
			if err != nil {
				return err
			}
			if v < 0 {
				kind := -v
				switch kind {
				case escb:
					v = '\b'
				case escX:
					v = 'X'
				case escQ:
					inQuote = true
					continue
				case escE:
					continue
				default:
					if err := c.classEscape(cl, kind); err != nil {
						return err
					}
					continue
				}
			}
			ch = v
		} else {
			v, n := c.classChar(c.pos)
			c.pos += n - 1
			ch = v
		}

		if hi, ok, err := c.classRangeEnd(); err != nil {
			return err
		} else if ok {
			if hi < ch {
				c.pos = start
				return c.errorf(ErrRangeOrder)
			}
			if hi > ch {
				cl.rangeOf(ch, hi)
				continue
			}
		}
		cl.single(ch)
	}

	if cl.count == 1 && (!c.utf8 || (!cl.hasXItems && (!cl.negate || cl.lastChar < 128))) {
		if cl.negate {
			b.zeroReq = b.req
			if b.first == reqUnset {
				b.first = reqNone
			}
			b.zeroFirst = b.first
			b.previous = len(c.code)
			c.emit(byte(bytecode.OpNot), byte(cl.lastChar))
			return nil
		}
		c.literal(b, c.encodeChar(cl.lastChar))
		return nil
	}

	if b.first == reqUnset {
		b.first = reqNone
	}
	b.zeroFirst, b.zeroReq = b.first, b.req
	b.previous = len(c.code)

	switch {
	case cl.hasXItems:
		start := len(c.code)
		c.emitOp(bytecode.OpXClass)
		c.emitLink(0)
		flags := byte(0)
		if cl.negate {
			flags |= bytecode.XClassNot
		}
		if cl.count > 0 {
			flags |= bytecode.XClassMap
		}
		c.emit(flags)
		if cl.count > 0 {
			c.emit(cl.bits[:]...)
		}
		c.emit(cl.items...)
		c.emit(bytecode.XClassEnd)
		bytecode.PutLink(c.code, start+1, len(c.code)-start)
	case cl.negate:
		c.emitOp(bytecode.OpNClass)
		for _, v := range cl.bits {
			c.emit(^v)
		}
	default:
		c.emitOp(bytecode.OpClass)
		c.emit(cl.bits[:]...)
	}
	return nil
}

// posixItem adds the [:name:] item starting at c.pos whose closing
// terminator is at end, leaving c.pos on the final ']'.
func (c *compiler) posixItem(cl *class, end, terminator int) error {
	if terminator != ':' {
		return c.errorf(ErrPOSIXCollating)
	}
	p := c.pos + 2
	negated := false
	if c.ch(p) == '^' {
		negated = true
		p++
	}
	i := findPOSIXClass(c.pattern[p:end])
	if i < 0 {
		c.pos = p
		return c.errorf(ErrUnknownPOSIXClass)
	}
	if cl.caseless && (posixClasses[i].name == "lower" || posixClasses[i].name == "upper") {
		i = findPOSIXClass("alpha")
	}
	bits := c.posixBits(i)
	cl.or(bits[:], negated)
	cl.count += 2
	c.pos = end + 1
	return nil
}

// classEscape adds a type or property escape inside a class. Escapes with
// no meaning in a class stand for their final letter unless Extra is set.
func (c *compiler) classEscape(cl *class, kind int) error {
	cl.count += 2
	vt := cl.bits[1] & 0x08
	switch kind {
	case escd:
		cl.or(c.tables.Class(bytecode.CbitDigit), false)
	case escD:
		cl.or(c.tables.Class(bytecode.CbitDigit), true)
	case escw:
		cl.or(c.tables.Class(bytecode.CbitWord), false)
	case escW:
		cl.or(c.tables.Class(bytecode.CbitWord), true)
	case escs:
		cl.or(c.tables.Class(bytecode.CbitSpace), false)
		cl.bits[1] = cl.bits[1]&^0x08 | vt
	case escS:
		cl.or(c.tables.Class(bytecode.CbitSpace), true)
		cl.bits[1] |= 0x08
	case escp, escP:
		prop, negated, err := c.getUCP()
		if err != nil {
			return err
		}
		tag := byte(bytecode.XClassProp)
		if (kind == escP) != negated {
			tag = bytecode.XClassNotProp
		}
		cl.hasXItems = true
		cl.items = append(cl.items, tag, byte(prop.Type), prop.Value)
		cl.count -= 2
	default:
		if c.options&bytecode.Extra != 0 {
			return c.errorf(ErrInvalidClassEscape)
		}
		cl.count -= 2
		cl.single(c.ch(c.pos))
	}
	return nil
}

// classRangeEnd checks for "-x" after the character just read. When a
// range follows it consumes it and returns its upper bound; otherwise
// c.pos is unchanged.
func (c *compiler) classRangeEnd() (int, bool, error) {
	if c.ch(c.pos+1) != '-' {
		return 0, false, nil
	}
	p := c.pos + 2
	d := c.ch(p)
	if d < 0 || d == ']' {
		return 0, false, nil
	}
	if d == '[' {
		if _, ok := c.checkPOSIXSyntax(p); ok {
			return 0, false, nil
		}
	}
	save := c.pos
	c.pos = p
	if d == '\\' {
		v, err := c.checkEscape(c.bracount, true)
		if err != nil {
			return 0, false, err
		}
		switch {
		case v == -escb:
			v = '\b'
		case v == -escX:
			v = 'X'
		case v < 0:
			// The '-' is literal and the escape is read again.
			c.pos = save
			return 0, false, nil
		}
		return v, true, nil
	}
	v, n := c.classChar(p)
	c.pos += n - 1
	return v, true, nil
}

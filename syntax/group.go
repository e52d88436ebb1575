package syntax

import (
	"strings"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/internal/conv"
)

func (c *compiler) isWord(ch int) bool {
	return ch >= 0 && c.tables.Is(byte(ch), bytecode.CtypeWord)
}

// compileGroup handles everything that starts with '(' at c.pos: groups,
// assertions, conditionals, option settings, comments, callouts, named
// references and recursion. It leaves c.pos on the closing ')'.
func (c *compiler) compileGroup(b *branch) error {
	b.saveFixups = len(c.fixups)
	newOptions := b.options
	op := bytecode.OpCBra
	var header []byte

	c.pos++
	if c.ch(c.pos) != '?' {
		if b.options&bytecode.NoAutoCapture != 0 {
			op = bytecode.OpBra
		}
	} else {
		c.pos++
		ch, next := c.ch(c.pos), c.ch(c.pos+1)
		switch {
		case ch == '#':
			for c.pos++; c.ch(c.pos) >= 0 && c.ch(c.pos) != ')'; c.pos++ {
			}
			if c.ch(c.pos) < 0 {
				return c.errorf(ErrMissingCommentParen)
			}
			return nil

		case ch == ':':
			op = bytecode.OpBra
			c.pos++

		case ch == '(':
			op = bytecode.OpCond
			var err error
			if header, err = c.condition(); err != nil {
				return err
			}

		case ch == '=':
			op = bytecode.OpAssert
			c.pos++
		case ch == '!':
			op = bytecode.OpAssertNot
			c.pos++
		case ch == '>':
			op = bytecode.OpOnce
			c.pos++

		case ch == '<' && next == '=':
			op = bytecode.OpAssertBack
			c.pos += 2
		case ch == '<' && next == '!':
			op = bytecode.OpAssertBackNot
			c.pos += 2
		case ch == '<':
			if !c.isWord(next) {
				c.pos++
				return c.errorf(ErrUnknownAfterLess)
			}
			if err := c.defineName(); err != nil {
				return err
			}

		case ch == '\'':
			if err := c.defineName(); err != nil {
				return err
			}

		case ch == 'P':
			c.pos++
			switch c.ch(c.pos) {
			case '=', '>':
				return c.namedReference(b, ')', c.ch(c.pos) == '>')
			case '<':
				if err := c.defineName(); err != nil {
					return err
				}
			default:
				return c.errorf(ErrUnknownAfterP)
			}

		case ch == '&':
			return c.namedReference(b, ')', true)

		case ch == 'C':
			return c.manualCallout(b)

		case ch == 'R', ch == '+', ch == '-' && isDigit(next), isDigit(ch):
			return c.numberedRecursion(b)

		default:
			var set, unset bytecode.Option
			opt := &set
			for ch = c.ch(c.pos); ch != ')' && ch != ':'; ch = c.ch(c.pos) {
				if ch == '-' {
					opt = &unset
				} else if bit, ok := optionLetter(byte(ch)); ok && ch >= 0 {
					*opt |= bit
				} else {
					return c.errorf(ErrUnknownGroup)
				}
				c.pos++
			}
			newOptions = (b.options | set) &^ unset
			if (newOptions^b.options)&bytecode.Caseless != 0 {
				c.ichanged = true
			}
			if ch == ')' {
				if b.options&bytecode.IMSMask != newOptions&bytecode.IMSMask {
					c.emit(byte(bytecode.OpOpt), byte(newOptions&bytecode.IMSMask))
				}
				b.setOptions(newOptions)
				b.previous = -1
				return nil
			}
			op = bytecode.OpBra
			c.pos++
		}
	}

	if op == bytecode.OpCBra {
		if c.bracount >= 0xfffe {
			return c.errorf(ErrTooLarge)
		}
		c.bracount++
		header = []byte{0, 0}
		bytecode.Put2(header, 0, c.bracount)
	}
	return c.compileSubgroup(b, op, header, newOptions)
}

// compileSubgroup compiles the body of a group whose prefix has been read
// and merges its first and required bytes into the branch.
func (c *compiler) compileSubgroup(b *branch, op bytecode.Op, header []byte, options bytecode.Option) error {
	start := len(c.code)
	b.previous = -1
	if op >= bytecode.OpOnce {
		b.previous = start
	}
	if op == bytecode.OpOnce || op == bytecode.OpCond {
		c.noPartial = true
	}
	tempReqVary := c.reqVaryOpt

	subFirst, subReq, err := c.compileRegex(op, header, options, b.options&bytecode.IMSMask,
		op == bytecode.OpAssertBack || op == bytecode.OpAssertBackNot)
	if err != nil {
		return err
	}

	if op == bytecode.OpCond {
		n := 0
		for pc := start; ; {
			n++
			pc += bytecode.GetLink(c.code, pc+1)
			if bytecode.Op(c.code[pc]) != bytecode.OpAlt {
				break
			}
		}
		if n > 2 {
			return c.errorf(ErrConditionBranches)
		}
		if n == 1 {
			subFirst, subReq = reqNone, reqNone
		}
	}

	if c.ch(c.pos) != ')' {
		return c.errorf(ErrMissingParen)
	}

	b.zeroFirst, b.zeroReq = b.first, b.req
	b.groupSetFirst = false
	switch {
	case op >= bytecode.OpOnce:
		if b.first == reqUnset {
			if subFirst >= 0 {
				c.dropLookaheadReq(b, subFirst)
				b.first = subFirst
				b.groupSetFirst = true
			} else {
				b.first = reqNone
			}
			b.zeroFirst = reqNone
		} else if subFirst >= 0 && subReq < 0 {
			subReq = subFirst | tempReqVary
		}
		if subReq >= 0 {
			b.req = subReq
		}
	case op == bytecode.OpAssert && subReq >= 0:
		// A lookahead may supply a required byte but never a first byte:
		// in (?=a)a.+ the real a would otherwise be demoted.
		b.req = subReq
	}
	return nil
}

// condition reads the condition of a (?( group, c.pos being on its second
// '('. It returns the header to place after the Cond link, or nil when the
// condition is an assertion, in which case c.pos stays on the assertion's
// '(' so that it is compiled as the first item of the yes-branch.
func (c *compiler) condition() ([]byte, error) {
	if c.ch(c.pos+1) == '?' {
		switch c.ch(c.pos + 2) {
		case '=', '!', '<':
			return nil, nil
		}
	}

	header := []byte{byte(bytecode.OpCRef), 0, 0}
	terminator, refsign := 0, 0
	switch {
	case c.ch(c.pos+1) == 'R' && c.ch(c.pos+2) == '&':
		terminator = -1
		header[0] = byte(bytecode.OpRRef)
		c.pos += 2
	case c.ch(c.pos+1) == '<':
		terminator = '>'
		c.pos++
	case c.ch(c.pos+1) == '\'':
		terminator = '\''
		c.pos++
	case c.ch(c.pos+1) == '-' || c.ch(c.pos+1) == '+':
		c.pos++
		refsign = c.ch(c.pos)
	}

	if !c.isWord(c.ch(c.pos + 1)) {
		c.pos++
		return nil, c.errorf(ErrMalformedCondition)
	}
	c.pos++
	start := c.pos
	recno := 0
	for ; c.isWord(c.ch(c.pos)); c.pos++ {
		if recno >= 0 {
			if d := c.ch(c.pos); isDigit(d) {
				recno = min(recno*10+d-'0', 0xffff)
			} else if !isDigit(d) {
				recno = -1
			}
		}
	}
	name := c.pattern[start:c.pos]

	if terminator > 0 {
		if c.ch(c.pos) != terminator {
			return nil, c.errorf(ErrMalformedCondition)
		}
		c.pos++
	}
	if c.ch(c.pos) != ')' {
		return nil, c.errorf(ErrMalformedCondition)
	}
	c.pos++

	if refsign != 0 {
		if recno <= 0 {
			return nil, c.errorf(ErrMalformedCondition)
		}
		if refsign == '-' {
			recno = c.bracount - recno + 1
		} else {
			recno += c.bracount
		}
		if recno <= 0 || recno > 0xffff {
			return nil, c.errorf(ErrNonexistentGroup)
		}
		bytecode.Put2(header, 1, recno)
		return header, nil
	}

	if n := c.groupByName(name); n > 0 {
		bytecode.Put2(header, 1, n)
		return header, nil
	}
	if terminator != 0 {
		return nil, c.errorf(ErrNonexistentGroup)
	}
	if name[0] == 'R' {
		n := 0
		for _, d := range name[1:] {
			if !isDigit(int(d)) {
				return nil, c.errorf(ErrNonexistentGroup)
			}
			n = n*10 + int(d-'0')
			if n > 0xfffe {
				return nil, c.errorf(ErrNonexistentGroup)
			}
		}
		if n == 0 {
			n = bytecode.RRefAny
		}
		header[0] = byte(bytecode.OpRRef)
		bytecode.Put2(header, 1, n)
		return header, nil
	}
	if recno > 0 {
		bytecode.Put2(header, 1, recno)
		return header, nil
	}
	if recno == 0 {
		return nil, c.errorf(ErrInvalidCondition0)
	}
	return nil, c.errorf(ErrNonexistentGroup)
}

// defineName registers the name of a (?<name>, (?'name' or (?P<name>
// group; c.pos is on the opening delimiter. It leaves c.pos on the first
// character of the group body.
func (c *compiler) defineName() error {
	terminator := '\''
	if c.ch(c.pos) == '<' {
		terminator = '>'
	}
	c.pos++
	start := c.pos
	for c.isWord(c.ch(c.pos)) {
		c.pos++
	}
	name := c.pattern[start:c.pos]
	switch {
	case c.ch(c.pos) != int(terminator) || name == "":
		return c.errorf(ErrNameSyntax)
	case len(name) > bytecode.MaxNameSize:
		return c.errorf(ErrNameTooLong)
	case len(c.names) >= MaxNames:
		return c.errorf(ErrTooManyNames)
	case c.groupByName(name) > 0:
		return c.errorf(ErrDuplicateName)
	}

	i := 0
	for i < len(c.names) && c.names[i].Name < name {
		i++
	}
	c.names = append(c.names, bytecode.NameEntry{})
	copy(c.names[i+1:], c.names[i:])
	c.names[i] = bytecode.NameEntry{Name: name, Number: c.bracount + 1}
	c.pos++
	return nil
}

func (c *compiler) groupByName(name string) int {
	for _, e := range c.names {
		if e.Name == name {
			return e.Number
		}
	}
	return -1
}

// namedReference compiles (?P=name), (?P>name), (?&name), \k<name> and
// \k'name'. c.pos is on the character before the name; it is left on the
// terminator.
func (c *compiler) namedReference(b *branch, terminator int, recurse bool) error {
	c.pos++
	start := c.pos
	for c.isWord(c.ch(c.pos)) {
		c.pos++
	}
	name := c.pattern[start:c.pos]
	switch {
	case name == "" || c.ch(c.pos) != terminator:
		return c.errorf(ErrNameSyntax)
	case len(name) > bytecode.MaxNameSize:
		return c.errorf(ErrNameTooLong)
	}

	recno := c.groupByName(name)
	if recno <= 0 {
		if recno = c.findParens(name, 0); recno <= 0 {
			return c.errorf(ErrNonexistentGroup)
		}
	}
	if recurse {
		return c.recurse(b, recno)
	}
	b.zeroFirst, b.zeroReq = b.first, b.req
	c.emitRef(b, recno)
	return nil
}

// numberedRecursion compiles (?R), (?n), (?+n) and (?-n); c.pos is on the
// character after "(?".
func (c *compiler) numberedRecursion(b *branch) error {
	refsign := c.ch(c.pos)
	switch refsign {
	case 'R', '+', '-':
		c.pos++
	default:
		refsign = 0
	}
	recno := 0
	for ; isDigit(c.ch(c.pos)); c.pos++ {
		if recno < 0x10000 {
			recno = recno*10 + c.ch(c.pos) - '0'
		}
	}
	if c.ch(c.pos) != ')' || (refsign == 'R' && recno != 0) {
		return c.errorf(ErrRecursionSyntax)
	}
	switch refsign {
	case '-':
		if recno == 0 {
			return c.errorf(ErrRecursionSyntax)
		}
		if recno = c.bracount - recno + 1; recno <= 0 {
			return c.errorf(ErrNonexistentGroup)
		}
	case '+':
		if recno == 0 {
			return c.errorf(ErrRecursionSyntax)
		}
		recno += c.bracount
	}
	return c.recurse(b, recno)
}

// recurse emits a call to group recno, wrapped in an atomic group so that
// a following quantifier sees an ordinary group. c.pos is on the ')'.
func (c *compiler) recurse(b *branch, recno int) error {
	called, forward := 0, false
	if recno != 0 {
		called = bytecode.FindBracket(c.code, c.utf8, recno)
	}
	if called < 0 {
		if c.findParens("", recno) < 0 {
			return c.errorf(ErrNonexistentGroup)
		}
		forward = true
	} else if bytecode.GetLink(c.code, called+1) == 0 {
		// The group is still open: left recursion that cannot consume a
		// character would never terminate.
		c.code = append(c.code, byte(bytecode.OpEnd))
		empty := c.couldBeEmpty(called)
		c.code = c.code[:len(c.code)-1]
		if empty {
			return c.errorf(ErrRecursiveLoop)
		}
	}

	const wrap = 2 + 2*bytecode.LinkSize
	start := len(c.code)
	c.emitOp(bytecode.OpOnce)
	c.emitLink(wrap)
	c.emitOp(bytecode.OpRecurse)
	if forward {
		c.fixups = append(c.fixups, fixup{at: len(c.code), offset: c.pos})
		c.emitLink(recno)
	} else {
		c.emitLink(called)
	}
	c.emitOp(bytecode.OpKet)
	c.emitLink(wrap)

	if b.first == reqUnset {
		b.first = reqNone
	}
	b.previous = start
	c.noPartial = true
	return nil
}

// manualCallout compiles (?C) and (?Cn); c.pos is on the C.
func (c *compiler) manualCallout(b *branch) error {
	b.previousCallout = len(c.code)
	b.afterManualCallout = 1
	c.emitOp(bytecode.OpCallout)
	n := 0
	for c.pos++; isDigit(c.ch(c.pos)); c.pos++ {
		if n <= 255 {
			n = n*10 + c.ch(c.pos) - '0'
		}
	}
	if c.ch(c.pos) != ')' {
		return c.errorf(ErrCalloutParen)
	}
	if n > 255 {
		return c.errorf(ErrCalloutTooBig)
	}
	c.emit(conv.IntToByte(n))
	c.emitLink(c.pos + 1)
	c.emitLink(0)
	b.previous = -1
	return nil
}

// findParens scans the whole pattern for capturing groups. With a name it
// returns the number of the group so named; otherwise it returns number if
// the pattern has at least that many groups. It returns -1 if not found.
func (c *compiler) findParens(name string, number int) int {
	p := c.pattern
	count := 0
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '\\':
			i++
			if i < len(p) && p[i] == 'Q' {
				end := strings.Index(p[i:], `\E`)
				if end < 0 {
					i = len(p)
				} else {
					i += end + 1
				}
			}
		case '[':
			i = skipClass(p, i)
		case '(':
			if i+1 >= len(p) || p[i+1] != '?' {
				if c.options&bytecode.NoAutoCapture == 0 {
					count++
				}
				continue
			}
			rest := p[i+2:]
			var n string
			switch {
			case strings.HasPrefix(rest, "#"):
				if end := strings.IndexByte(rest, ')'); end >= 0 {
					i += 2 + end
				}
				continue
			case strings.HasPrefix(rest, "P<"):
				n = rest[2:]
			case strings.HasPrefix(rest, "<") && !strings.HasPrefix(rest, "<=") && !strings.HasPrefix(rest, "<!"):
				n = rest[1:]
			case strings.HasPrefix(rest, "'"):
				n = rest[1:]
			default:
				continue
			}
			count++
			if name != "" && strings.HasPrefix(n, name) && len(n) > len(name) &&
				(n[len(name)] == '>' || n[len(name)] == '\'') {
				return count
			}
		}
	}
	if name == "" && number <= count {
		return number
	}
	return -1
}

// skipClass returns the offset of the ']' closing the class opened at i.
func skipClass(p string, i int) int {
	j := i + 1
	if j < len(p) && p[j] == '^' {
		j++
	}
	if j < len(p) && p[j] == ']' {
		j++
	}
	for ; j < len(p); j++ {
		switch {
		case p[j] == '\\':
			j++
		case p[j] == '[' && j+1 < len(p) && p[j+1] == ':':
			if end := strings.Index(p[j+2:], ":]"); end >= 0 {
				j += end + 3
			}
		case p[j] == ']':
			return j
		}
	}
	return len(p)
}

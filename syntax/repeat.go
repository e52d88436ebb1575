package syntax

import "github.com/coregx/pcre/bytecode"

// compileRepeat applies the quantifier {min,max} (max -1 meaning no limit)
// that ends at c.pos to the previous item, consuming a following '?' (lazy)
// or '+' (possessive).
func (c *compiler) compileRepeat(b *branch, min, max int) error {
	if b.previous < 0 {
		return c.errorf(ErrNothingToRepeat)
	}
	if min == 0 {
		b.first, b.req = b.zeroFirst, b.zeroReq
	}
	reqVary := 0
	if min != max {
		reqVary = bytecode.ReqVary
	}

	greedy := 0
	if b.options&bytecode.Ungreedy != 0 {
		greedy = 1
	}
	repeatType, possessive := greedy, false
	switch c.ch(c.pos + 1) {
	case '+':
		repeatType, possessive = 0, true
		c.pos++
	case '?':
		repeatType = greedy ^ 1
		c.pos++
	}

	previous := b.previous
	b.previous = -1
	c.reqVaryOpt |= reqVary

	if max == 0 {
		c.truncate(previous)
		return nil
	}

	op := bytecode.Op(c.code[previous])
	switch {
	case op == bytecode.OpChar || op == bytecode.OpCharNC:
		operand := append([]byte(nil), c.code[previous+1:]...)
		if len(operand) == 1 && min > 1 {
			b.req = int(operand[0]) | b.reqCaseless | c.reqVaryOpt
		}
		c.singleRepeat(previous, 0, repeatType, min, max, operand)

	case op == bytecode.OpNot:
		c.singleRepeat(previous, bytecode.OpNotStar-bytecode.OpStar, repeatType, min, max,
			[]byte{c.code[previous+1]})

	case op < bytecode.OpEODN:
		operand := append([]byte(nil), c.code[previous:]...)
		c.singleRepeat(previous, bytecode.OpTypeStar-bytecode.OpStar, repeatType, min, max, operand)

	case op == bytecode.OpClass || op == bytecode.OpNClass || op == bytecode.OpXClass || op == bytecode.OpRef:
		if max != 1 {
			c.noPartial = true
		}
		rt := bytecode.Op(repeatType)
		switch {
		case min == 0 && max == -1:
			c.emitOp(bytecode.OpCRStar + rt)
		case min == 1 && max == -1:
			c.emitOp(bytecode.OpCRPlus + rt)
		case min == 0 && max == 1:
			c.emitOp(bytecode.OpCRQuery + rt)
		default:
			c.emitOp(bytecode.OpCRRange + rt)
			c.emit2(min)
			if max < 0 {
				max = 0
			}
			c.emit2(max)
		}

	case op == bytecode.OpBra || op == bytecode.OpCBra || op == bytecode.OpOnce || op == bytecode.OpCond:
		length := len(c.code) - previous
		if length*min > MaxPatternSize || length*max > MaxPatternSize {
			return c.errorf(ErrRepeatTooLong)
		}
		c.groupRepeat(b, previous, repeatType, min, max)

	default:
		return c.errorf(ErrUnexpectedRepeat)
	}

	if possessive {
		length := len(c.code) - previous
		c.adjustRecurse(previous, 1+bytecode.LinkSize, b.saveFixups)
		c.insert(previous, 1+bytecode.LinkSize)
		length += 1 + bytecode.LinkSize
		c.code[previous] = byte(bytecode.OpOnce)
		bytecode.PutLink(c.code, previous+1, length)
		c.emitOp(bytecode.OpKet)
		c.emitLink(length)
	}
	return nil
}

// truncate drops the code from pc onwards together with any forward
// references inside it.
func (c *compiler) truncate(pc int) {
	c.code = c.code[:pc]
	n := 0
	for _, f := range c.fixups {
		if f.at < pc {
			c.fixups[n] = f
			n++
		}
	}
	c.fixups = c.fixups[:n]
}

// singleRepeat replaces the one-character item at previous with its
// repeated form. opType selects the plain, Not or Type family; operand is
// what follows the repeat opcode (the character, the negated byte, or the
// type opcode with any property bytes).
func (c *compiler) singleRepeat(previous int, opType bytecode.Op, repeatType, min, max int, operand []byte) {
	end := len(c.code)
	c.code = c.code[:previous]
	if max != 1 {
		c.noPartial = true
	}
	rt := opType + bytecode.Op(repeatType)

	switch {
	case min == 0:
		switch max {
		case -1:
			c.emitOp(bytecode.OpStar + rt)
		case 1:
			c.emitOp(bytecode.OpQuery + rt)
		default:
			c.emitOp(bytecode.OpUpto + rt)
			c.emit2(max)
		}
	case min == 1:
		if max == -1 {
			c.emitOp(bytecode.OpPlus + rt)
			break
		}
		// Keep the single item and follow it with an upto for the rest.
		c.code = c.code[:end]
		if max == 1 {
			return
		}
		c.emitOp(bytecode.OpUpto + rt)
		c.emit2(max - 1)
	default:
		c.emitOp(bytecode.OpExact + opType)
		c.emit2(min)
		if max < 0 {
			c.emit(operand...)
			c.emitOp(bytecode.OpStar + rt)
		} else if max != min {
			c.emit(operand...)
			c.emitOp(bytecode.OpUpto + rt)
			c.emit2(max - min)
		}
	}
	c.emit(operand...)
}

// groupRepeat lowers a quantified group by copying it: min mandatory
// copies, then either a KetRMax loop on the last one (no limit) or
// max-min optional copies, each nested inside the previous one behind
// OpBraZero so that a failed optional copy skips all later ones.
func (c *compiler) groupRepeat(b *branch, previous, repeatType, min, max int) {
	length := len(c.code) - previous
	rt := bytecode.Op(repeatType)
	saveFixups := b.saveFixups
	bralink := -1

	// The group may be followed by an OpOpt, so the final Ket is found by
	// following the links rather than by stepping back from the end.
	ketOffset := 0
	if max == -1 {
		ket := bytecode.GroupEnd(c.code, previous)
		ketOffset = len(c.code) - ket
	}

	if min == 0 {
		if max == 1 || max == -1 {
			c.adjustRecurse(previous, 1, saveFixups)
			c.insert(previous, 1)
			c.code[previous] = byte(bytecode.OpBraZero + rt)
			previous++
		} else {
			const shift = 2 + bytecode.LinkSize
			c.adjustRecurse(previous, shift, saveFixups)
			c.insert(previous, shift)
			c.code[previous] = byte(bytecode.OpBraZero + rt)
			c.code[previous+1] = byte(bytecode.OpBra)
			bralink = previous + 2
			bytecode.PutLink(c.code, bralink, 0)
			previous += shift
		}
		max--
	} else {
		if min > 1 {
			if b.groupSetFirst && b.req < 0 {
				b.req = b.first
			}
			for i := 1; i < min; i++ {
				saveFixups = c.copyGroup(previous, length, saveFixups, length)
			}
		}
		if max > 0 {
			max -= min
		}
	}

	if max < 0 {
		c.code[len(c.code)-ketOffset] = byte(bytecode.OpKetRMax + rt)
		return
	}

	for i := max - 1; i >= 0; i-- {
		c.emitOp(bytecode.OpBraZero + rt)
		delta := length + 1
		if i != 0 {
			c.emitOp(bytecode.OpBra)
			offset := 0
			if bralink >= 0 {
				offset = len(c.code) - bralink
			}
			bralink = len(c.code)
			c.emitLink(offset)
			delta += 1 + bytecode.LinkSize
		}
		saveFixups = c.copyGroup(previous, length, saveFixups, delta)
	}

	// Close the nested optional brackets, innermost first. Each bracket's
	// link temporarily holds the distance to the previous one in the chain.
	for bralink >= 0 {
		offset := len(c.code) - bralink + 1
		bra := len(c.code) - offset
		old := bytecode.GetLink(c.code, bra+1)
		if old == 0 {
			bralink = -1
		} else {
			bralink -= old
		}
		c.emitOp(bytecode.OpKet)
		c.emitLink(offset)
		bytecode.PutLink(c.code, bra+1, offset)
	}
}

// copyGroup appends a copy of code[from:from+length] and duplicates the
// forward references recorded since saveFixups, shifted by delta. It
// returns the new saveFixups mark.
func (c *compiler) copyGroup(from, length, saveFixups, delta int) int {
	mark := len(c.fixups)
	c.code = append(c.code, c.code[from:from+length]...)
	for i := saveFixups; i < mark; i++ {
		f := c.fixups[i]
		f.at += delta
		c.fixups = append(c.fixups, f)
	}
	return mark
}

// adjustRecurse prepares for inserting adjust bytes at group by shifting
// every recursion inside it that targets group or anything after it.
// Forward references are shifted in the fixup list instead, since their
// operands still hold group numbers.
func (c *compiler) adjustRecurse(group, adjust, saveFixups int) {
	for pc := bytecode.FindRecurse(c.code, group, c.utf8); pc >= 0; pc = bytecode.FindRecurse(c.code, pc+1+bytecode.LinkSize, c.utf8) {
		operand := pc + 1
		found := false
		for i := saveFixups; i < len(c.fixups); i++ {
			if c.fixups[i].at == operand {
				c.fixups[i].at += adjust
				found = true
				break
			}
		}
		if !found {
			if target := bytecode.GetLink(c.code, operand); target >= group {
				bytecode.PutLink(c.code, operand, target+adjust)
			}
		}
	}
}

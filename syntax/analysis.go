package syntax

import "github.com/coregx/pcre/bytecode"

// fixedLength returns the number of characters matched by the group or
// branch whose bracket (or OpAlt) is at pc, -1 if that number varies, or
// -2 if the group contains \C in UTF-8 mode. The caller terminates unfinished code with
// OpEnd.
func fixedLength(code []byte, pc int, utf8 bool) int {
	length := -1
	branch := 0
	cc := pc + bytecode.Op(code[pc]).Length()
	for {
		op := bytecode.Op(code[cc])
		switch {
		case op == bytecode.OpBra || op == bytecode.OpCBra || op == bytecode.OpOnce || op == bytecode.OpCond:
			d := fixedLength(code, cc, utf8)
			if d < 0 {
				return d
			}
			branch += d
			cc = bytecode.SkipGroup(code, cc)

		case op == bytecode.OpAlt || op == bytecode.OpKet || op == bytecode.OpKetRMax ||
			op == bytecode.OpKetRMin || op == bytecode.OpEnd:
			if length < 0 {
				length = branch
			} else if length != branch {
				return -1
			}
			if op != bytecode.OpAlt {
				return length
			}
			cc += op.Length()
			branch = 0

		case op.IsAssert():
			cc = bytecode.SkipGroup(code, cc)

		case op == bytecode.OpReverse, op == bytecode.OpCRef, op == bytecode.OpRRef,
			op == bytecode.OpOpt, op == bytecode.OpCallout, op == bytecode.OpSOD,
			op == bytecode.OpSOM, op == bytecode.OpEOD, op == bytecode.OpEODN,
			op == bytecode.OpCirc, op == bytecode.OpDoll,
			op == bytecode.OpNotWordBoundary, op == bytecode.OpWordBoundary:
			cc += op.Length()

		case op == bytecode.OpChar || op == bytecode.OpCharNC || op == bytecode.OpNot:
			branch++
			cc = bytecode.Next(code, cc, utf8)

		case op == bytecode.OpExact || op == bytecode.OpNotExact:
			branch += bytecode.Get2(code, cc+1)
			cc = bytecode.Next(code, cc, utf8)

		case op == bytecode.OpTypeExact:
			switch t := bytecode.Op(code[cc+3]); {
			case t == bytecode.OpAnyByte && utf8:
				return -2
			case t == bytecode.OpExtUni:
				return -1
			}
			branch += bytecode.Get2(code, cc+1)
			cc = bytecode.Next(code, cc, utf8)

		case op == bytecode.OpAnyByte && utf8:
			return -2

		case op.IsSingleType() && op != bytecode.OpExtUni:
			branch++
			cc += op.Length()

		case op == bytecode.OpClass || op == bytecode.OpNClass || op == bytecode.OpXClass:
			cc = bytecode.Next(code, cc, utf8)
			switch bytecode.Op(code[cc]) {
			case bytecode.OpCRStar, bytecode.OpCRMinStar, bytecode.OpCRPlus, bytecode.OpCRMinPlus,
				bytecode.OpCRQuery, bytecode.OpCRMinQuery:
				return -1
			case bytecode.OpCRRange, bytecode.OpCRMinRange:
				min, max := bytecode.Get2(code, cc+1), bytecode.Get2(code, cc+3)
				if min != max {
					return -1
				}
				branch += min
				cc += bytecode.OpCRRange.Length()
			default:
				branch++
			}

		default:
			return -1
		}
	}
}

// couldBeEmptyBranch reports whether the branch starting at pc (a bracket
// or OpAlt) could match the empty string, scanning no further than end.
// An unclosed group counts as possibly empty.
func couldBeEmptyBranch(code []byte, pc, end int, utf8 bool) bool {
	cc := bytecode.FirstSignificant(code, pc+bytecode.Op(code[pc]).Length(), nil, 0, true)
	for cc < end {
		op := bytecode.Op(code[cc])
		switch {
		case op == bytecode.OpBraZero || op == bytecode.OpBraMinZero:
			cc = bytecode.SkipGroup(code, cc+1)

		case op == bytecode.OpAssert:
			cc = bytecode.SkipGroup(code, cc)

		case op == bytecode.OpBra || op == bytecode.OpCBra || op == bytecode.OpOnce || op == bytecode.OpCond:
			if bytecode.GetLink(code, cc+1) == 0 {
				return true
			}
			empty, branches := false, 0
			b := cc
			for {
				branches++
				if !empty && couldBeEmptyBranch(code, b, end, utf8) {
					empty = true
				}
				b += bytecode.GetLink(code, b+1)
				if bytecode.Op(code[b]) != bytecode.OpAlt {
					break
				}
			}
			// A conditional without a no-branch matches empty when the
			// condition fails.
			if op == bytecode.OpCond && branches == 1 {
				empty = true
			}
			if !empty {
				return false
			}
			cc = b + bytecode.Op(code[b]).Length()

		case op == bytecode.OpClass || op == bytecode.OpNClass || op == bytecode.OpXClass:
			cc = bytecode.Next(code, cc, utf8)
			switch bytecode.Op(code[cc]) {
			case bytecode.OpCRStar, bytecode.OpCRMinStar, bytecode.OpCRQuery, bytecode.OpCRMinQuery:
				cc++
			case bytecode.OpCRRange, bytecode.OpCRMinRange:
				if bytecode.Get2(code, cc+1) > 0 {
					return false
				}
				cc += bytecode.OpCRRange.Length()
			default:
				return false
			}

		case op.IsSingleType(), op == bytecode.OpAny, op == bytecode.OpAnyByte,
			op == bytecode.OpChar, op == bytecode.OpCharNC, op == bytecode.OpNot,
			op == bytecode.OpPlus, op == bytecode.OpMinPlus, op == bytecode.OpExact,
			op == bytecode.OpNotPlus, op == bytecode.OpNotMinPlus, op == bytecode.OpNotExact,
			op == bytecode.OpTypePlus, op == bytecode.OpTypeMinPlus, op == bytecode.OpTypeExact:
			return false

		case op == bytecode.OpKet || op == bytecode.OpKetRMax || op == bytecode.OpKetRMin ||
			op == bytecode.OpAlt || op == bytecode.OpEnd:
			return true

		default:
			cc = bytecode.Next(code, cc, utf8)
		}
		if cc < end {
			cc = bytecode.FirstSignificant(code, cc, nil, 0, true)
		}
	}
	return true
}

// couldBeEmpty reports whether a recursive call to the still-open group at
// called, emitted at the end of the code, could be reached without
// consuming a character: every open branch from the innermost outwards to
// the called group must be able to match empty up to the call.
func (c *compiler) couldBeEmpty(called int) bool {
	end := len(c.code)
	for i := len(c.branches) - 1; i >= 0 && c.branches[i] >= called; i-- {
		if !couldBeEmptyBranch(c.code, c.branches[i], end, c.utf8) {
			return false
		}
	}
	return true
}

// isAnchored reports whether every alternative of the group at pc must
// match at the start of the subject. bracketMap holds the capturing groups
// (numbers below 32) enclosing the current position; a .* inside a group
// that is the target of a back reference does not anchor.
func isAnchored(code []byte, pc int, ims *bytecode.Option, bracketMap, backrefMap uint32) bool {
	for {
		sc := bytecode.FirstSignificant(code, pc+bytecode.Op(code[pc]).Length(), ims, bytecode.Multiline, false)
		switch op := bytecode.Op(code[sc]); {
		case op == bytecode.OpBra || op == bytecode.OpAssert || op == bytecode.OpOnce || op == bytecode.OpCond:
			if !isAnchored(code, sc, ims, bracketMap, backrefMap) {
				return false
			}
		case op == bytecode.OpCBra:
			if !isAnchored(code, sc, ims, bracketMap|groupBit(bytecode.Get2(code, sc+1+bytecode.LinkSize)), backrefMap) {
				return false
			}
		case (op == bytecode.OpTypeStar || op == bytecode.OpTypeMinStar) && *ims&bytecode.DotAll != 0:
			if bytecode.Op(code[sc+1]) != bytecode.OpAny || bracketMap&backrefMap != 0 {
				return false
			}
		case op == bytecode.OpSOD || op == bytecode.OpSOM:
		case op == bytecode.OpCirc && *ims&bytecode.Multiline == 0:
		default:
			return false
		}
		pc += bytecode.GetLink(code, pc+1)
		if bytecode.Op(code[pc]) != bytecode.OpAlt {
			return true
		}
	}
}

// isStartline reports whether every alternative of the group at pc can
// only match at the start of the subject or just after a newline.
func isStartline(code []byte, pc int, bracketMap, backrefMap uint32) bool {
	for {
		sc := bytecode.FirstSignificant(code, pc+bytecode.Op(code[pc]).Length(), nil, 0, false)
		switch op := bytecode.Op(code[sc]); {
		case op == bytecode.OpBra || op == bytecode.OpAssert || op == bytecode.OpOnce || op == bytecode.OpCond:
			if !isStartline(code, sc, bracketMap, backrefMap) {
				return false
			}
		case op == bytecode.OpCBra:
			if !isStartline(code, sc, bracketMap|groupBit(bytecode.Get2(code, sc+1+bytecode.LinkSize)), backrefMap) {
				return false
			}
		case op == bytecode.OpTypeStar || op == bytecode.OpTypeMinStar:
			if bytecode.Op(code[sc+1]) != bytecode.OpAny || bracketMap&backrefMap != 0 {
				return false
			}
		case op == bytecode.OpCirc:
		default:
			return false
		}
		pc += bytecode.GetLink(code, pc+1)
		if bytecode.Op(code[pc]) != bytecode.OpAlt {
			return true
		}
	}
}

// groupBit maps a group number to its bit in a bracket or backref map.
// Groups 32 and above share bit 0.
func groupBit(n int) uint32 {
	if n < 32 {
		return 1 << uint(n)
	}
	return 1
}

// firstAssertedChar looks for a byte that every alternative of the group at
// pc starts with, counting characters asserted by a leading positive
// lookahead. It returns the byte, possibly with ReqCaseless, or -1.
func firstAssertedChar(code []byte, pc int, ims *bytecode.Option, inAssert, utf8 bool) int {
	c := -1
	for {
		sc := bytecode.FirstSignificant(code, pc+bytecode.Op(code[pc]).Length(), ims, bytecode.Caseless, true)
		op := bytecode.Op(code[sc])
		switch op {
		case bytecode.OpBra, bytecode.OpCBra, bytecode.OpAssert, bytecode.OpOnce, bytecode.OpCond:
			d := firstAssertedChar(code, sc, ims, op == bytecode.OpAssert, utf8)
			if d < 0 {
				return -1
			}
			if c < 0 {
				c = d
			} else if c != d {
				return -1
			}

		case bytecode.OpExact, bytecode.OpChar, bytecode.OpCharNC, bytecode.OpPlus, bytecode.OpMinPlus:
			if !inAssert {
				return -1
			}
			at := sc + 1
			if op == bytecode.OpExact {
				at += 2
			}
			d := int(code[at])
			if op == bytecode.OpCharNC || *ims&bytecode.Caseless != 0 {
				if utf8 && d >= 0x80 {
					return -1
				}
				d |= bytecode.ReqCaseless
			}
			if c < 0 {
				c = d
			} else if c != d {
				return -1
			}

		default:
			return -1
		}
		pc += bytecode.GetLink(code, pc+1)
		if bytecode.Op(code[pc]) != bytecode.OpAlt {
			return c
		}
	}
}

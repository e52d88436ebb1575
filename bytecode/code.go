package bytecode

import (
	"encoding/binary"
	"strconv"

	"github.com/coregx/pcre/internal/conv"
)

// GetLink reads the link operand at code[pc:].
func GetLink(code []byte, pc int) int {
	return int(binary.BigEndian.Uint32(code[pc:]))
}

// PutLink writes a link operand at code[pc:]. It panics if v does not fit.
func PutLink(code []byte, pc, v int) {
	binary.BigEndian.PutUint32(code[pc:], conv.IntToUint32(v))
}

// Get2 reads a 16-bit operand (group number or repeat count).
func Get2(code []byte, pc int) int {
	return int(binary.BigEndian.Uint16(code[pc:]))
}

// Put2 writes a 16-bit operand. It panics if v does not fit.
func Put2(code []byte, pc, v int) {
	binary.BigEndian.PutUint16(code[pc:], conv.IntToUint16(v))
}

// UTF8Extra returns the number of continuation bytes that follow a UTF-8
// lead byte c, or 0 for ASCII and stray continuation bytes.
func UTF8Extra(c byte) int {
	switch {
	case c >= 0xf0:
		return 3
	case c >= 0xe0:
		return 2
	case c >= 0xc0:
		return 1
	}
	return 0
}

// hasCharOperand reports whether op ends with one encoded character.
func hasCharOperand(op Op) bool {
	return op == OpChar || op == OpCharNC || (op >= OpStar && op <= OpExact)
}

// Next returns the offset of the instruction following the one at pc.
func Next(code []byte, pc int, utf8 bool) int {
	op := Op(code[pc])
	switch {
	case op == OpXClass:
		return pc + GetLink(code, pc+1)
	case op >= OpTypeStar && op <= OpTypeExact:
		n := pc + op.Length()
		t := Op(code[n-1])
		if t == OpProp || t == OpNotProp {
			n += 2
		}
		return n
	case utf8 && hasCharOperand(op):
		n := pc + op.Length()
		return n + UTF8Extra(code[n-1])
	}
	return pc + op.Length()
}

// GroupEnd returns the offset of the OpKet* closing the group whose
// bracket (or any OpAlt) is at pc.
func GroupEnd(code []byte, pc int) int {
	for {
		pc += GetLink(code, pc+1)
		if Op(code[pc]) != OpAlt {
			return pc
		}
	}
}

// SkipGroup returns the offset just past the group whose bracket is at pc,
// including its closing OpKet*.
func SkipGroup(code []byte, pc int) int {
	end := GroupEnd(code, pc)
	return end + Op(code[end]).Length()
}

// FindBracket returns the offset of the capturing bracket for group number,
// or -1. Group 0 is the whole pattern at offset 0.
func FindBracket(code []byte, utf8 bool, number int) int {
	if number == 0 {
		return 0
	}
	for pc := 0; pc < len(code); {
		op := Op(code[pc])
		switch {
		case op == OpEnd:
			return -1
		case op == OpCBra && Get2(code, pc+1+LinkSize) == number:
			return pc
		}
		pc = Next(code, pc, utf8)
	}
	return -1
}

// FindRecurse returns the offset of the first OpRecurse at or after from,
// or -1 if there is none before OpEnd.
func FindRecurse(code []byte, from int, utf8 bool) int {
	for pc := from; pc < len(code); {
		switch Op(code[pc]) {
		case OpEnd:
			return -1
		case OpRecurse:
			return pc
		}
		pc = Next(code, pc, utf8)
	}
	return -1
}

// FirstSignificant skips instructions that neither inspect nor consume a
// character, starting at pc, and returns the offset of the first one that
// does. OpOpt instructions are applied to *ims when optbit is set and the
// bit differs. With skipAssert, lookbehinds, negative lookaheads and word
// boundaries are skipped too; positive lookaheads never are.
func FirstSignificant(code []byte, pc int, ims *Option, optbit Option, skipAssert bool) int {
	for {
		switch op := Op(code[pc]); op {
		case OpOpt:
			if optbit != 0 && ims != nil && Option(code[pc+1])&optbit != *ims&optbit {
				*ims = Option(code[pc+1])
			}
			pc += 2
		case OpAssertNot, OpAssertBack, OpAssertBackNot:
			if !skipAssert {
				return pc
			}
			pc = SkipGroup(code, pc)
		case OpWordBoundary, OpNotWordBoundary:
			if !skipAssert {
				return pc
			}
			pc += op.Length()
		case OpCallout, OpCRef, OpRRef:
			pc += op.Length()
		default:
			return pc
		}
	}
}

// Disassemble renders the code stream one instruction per line, for test
// failures and the pcretest info command.
func Disassemble(code []byte, utf8 bool) []string {
	var out []string
	for pc := 0; pc < len(code); {
		op := Op(code[pc])
		if !op.Valid() {
			out = append(out, "??")
			break
		}
		next := Next(code, pc, utf8)
		line := op.String()
		switch {
		case op == OpCBra:
			line = "CBra " + strconv.Itoa(Get2(code, pc+1+LinkSize))
		case op == OpRef || op == OpCRef || op == OpRRef:
			line += " " + strconv.Itoa(Get2(code, pc+1))
		case op == OpRecurse:
			line += " " + strconv.Itoa(GetLink(code, pc+1))
		case op == OpChar || op == OpCharNC:
			line += " " + string(code[pc+1:next])
		}
		out = append(out, strconv.Itoa(pc)+" "+line)
		if op == OpEnd {
			break
		}
		pc = next
	}
	return out
}

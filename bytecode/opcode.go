package bytecode

// Op is a one-byte instruction tag. Each instruction in the code stream is
// an Op followed by its operands; Length gives the size of the fixed part.
type Op byte

// Opcodes. The order of the first block matters: OpNotDigit..OpExtUni are
// the single-character escape types that can follow an OpType* repeat, and
// their values double as the escape kinds the compiler stores there.
const (
	OpEnd Op = iota // end of pattern

	OpSOD             // \A start of data
	OpSOM             // \G start of match
	OpNotWordBoundary // \B
	OpWordBoundary    // \b
	OpNotDigit        // \D
	OpDigit           // \d
	OpNotWhitespace   // \S
	OpWhitespace      // \s
	OpNotWordchar     // \W
	OpWordchar        // \w
	OpAny             // . (honours DotAll at run time)
	OpAnyByte         // \C one byte even in UTF-8 mode
	OpNotProp         // \P{..}: type, value
	OpProp            // \p{..}: type, value
	OpExtUni          // \X extended Unicode sequence
	OpEODN            // \Z end of data or before final newline
	OpEOD             // \z end of data

	OpOpt  // set runtime ims bits: 1 byte
	OpCirc // ^
	OpDoll // $

	OpChar   // literal character
	OpCharNC // literal character, caseless
	OpNot    // any byte but the operand

	OpStar // single-character repeats: the character follows
	OpMinStar
	OpPlus
	OpMinPlus
	OpQuery
	OpMinQuery
	OpUpto // count(2) then character
	OpMinUpto
	OpExact

	OpNotStar // negated single-byte repeats
	OpNotMinStar
	OpNotPlus
	OpNotMinPlus
	OpNotQuery
	OpNotMinQuery
	OpNotUpto
	OpNotMinUpto
	OpNotExact

	OpTypeStar // escape-type repeats: the type op follows
	OpTypeMinStar
	OpTypePlus
	OpTypeMinPlus
	OpTypeQuery
	OpTypeMinQuery
	OpTypeUpto
	OpTypeMinUpto
	OpTypeExact

	OpCRStar // class repeats, placed after a class
	OpCRMinStar
	OpCRPlus
	OpCRMinPlus
	OpCRQuery
	OpCRMinQuery
	OpCRRange // min(2) max(2), max 0 = unlimited
	OpCRMinRange

	OpClass  // 32-byte bitmap
	OpNClass // bitmap for a negated class; chars >= 256 match
	OpXClass // link length, flags, optional bitmap, item list

	OpRef     // back reference: number(2)
	OpRecurse // recursion: absolute offset of the group (link-sized)
	OpCallout // number(1), pattern offset (link), next item length (link)

	OpAlt     // start of an alternative
	OpKet     // end of a group
	OpKetRMax // end of a greedy unlimited-repeat group
	OpKetRMin // end of a lazy unlimited-repeat group

	OpAssert
	OpAssertNot
	OpAssertBack
	OpAssertBackNot
	OpReverse // step back: length (link-sized)

	OpOnce // atomic group
	OpBra  // non-capturing group
	OpCBra // capturing group: link then number(2)
	OpCond // conditional group

	OpCRef // condition: group number(2) is set
	OpRRef // condition: recursing into group number(2) (0xffff = any)

	OpBraZero    // the following group may be skipped, greedy
	OpBraMinZero // the following group may be skipped, lazy

	numOps
)

// LinkSize is the width in bytes of every link operand.
const LinkSize = 4

// RRefAny is the OpRRef operand meaning "any recursion".
const RRefAny = 0xffff

// XClass flag bits and item tags.
const (
	XClassNot = 0x01 // negated class
	XClassMap = 0x02 // a 32-byte bitmap follows the flags

	XClassEnd     = 0
	XClassSingle  = 1
	XClassRange   = 2
	XClassProp    = 3
	XClassNotProp = 4
)

var opNames = [numOps]string{
	"End", "\\A", "\\G", "\\B", "\\b", "\\D", "\\d", "\\S", "\\s", "\\W", "\\w",
	"Any", "AllAny", "notprop", "prop", "\\X", "\\Z", "\\z",
	"Opt", "^", "$", "char", "charnc", "not",
	"*", "*?", "+", "+?", "?", "??", "{", "{", "{",
	"*", "*?", "+", "+?", "?", "??", "{", "{", "{",
	"*", "*?", "+", "+?", "?", "??", "{", "{", "{",
	"*", "*?", "+", "+?", "?", "??", "{", "{",
	"class", "nclass", "xclass", "Ref", "Recurse", "Callout",
	"Alt", "Ket", "KetRmax", "KetRmin", "Assert", "Assert not",
	"AssertB", "AssertB not", "Reverse", "Once", "Bra", "CBra", "Cond",
	"Cond ref", "Cond rec", "Brazero", "Braminzero",
}

var opLengths = [numOps]int{
	1,                      // End
	1, 1, 1, 1, 1, 1, 1, 1, // \A \G \B \b \D \d \S \s
	1, 1, 1, 1, // \W \w Any AnyByte
	3, 3, // NotProp Prop
	1, 1, 1, // \X \Z \z
	2, 1, 1, // Opt ^ $
	2, 2, 2, // Char CharNC Not
	2, 2, 2, 2, 2, 2, 4, 4, 4, // single-character repeats
	2, 2, 2, 2, 2, 2, 4, 4, 4, // negated repeats
	2, 2, 2, 2, 2, 2, 4, 4, 4, // type repeats
	1, 1, 1, 1, 1, 1, 5, 5, // class repeats
	33, 33, 0, // Class NClass XClass (variable)
	3,                    // Ref
	1 + LinkSize,         // Recurse
	2 + 2*LinkSize,       // Callout
	1 + LinkSize,         // Alt
	1 + LinkSize,         // Ket
	1 + LinkSize,         // KetRMax
	1 + LinkSize,         // KetRMin
	1 + LinkSize,         // Assert
	1 + LinkSize,         // AssertNot
	1 + LinkSize,         // AssertBack
	1 + LinkSize,         // AssertBackNot
	1 + LinkSize,         // Reverse
	1 + LinkSize,         // Once
	1 + LinkSize,         // Bra
	3 + LinkSize,         // CBra
	1 + LinkSize,         // Cond
	3,                    // CRef
	3,                    // RRef
	1, 1,                 // BraZero BraMinZero
}

// Valid reports whether op is a known opcode.
func (op Op) Valid() bool {
	return op < numOps
}

// String returns a short mnemonic for op.
func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return "??"
}

// Length returns the size of the fixed part of op, including the tag byte.
// OpXClass returns 0: its length is in its link.
func (op Op) Length() int {
	if op < numOps {
		return opLengths[op]
	}
	return 0
}

// IsBracket reports whether op opens a group that ends with OpKet*.
func (op Op) IsBracket() bool {
	switch op {
	case OpBra, OpCBra, OpOnce, OpCond, OpAssert, OpAssertNot, OpAssertBack, OpAssertBackNot:
		return true
	}
	return false
}

// IsAssert reports whether op opens an assertion.
func (op Op) IsAssert() bool {
	return op >= OpAssert && op <= OpAssertBackNot
}

// IsSingleType reports whether op is an escape type that matches exactly one
// character, i.e. one that may be the operand of an OpType* repeat.
func (op Op) IsSingleType() bool {
	return op >= OpNotDigit && op <= OpExtUni
}

package syntax

import "github.com/coregx/pcre/bytecode"

// Study computes the set of bytes that can start a match of p, for
// unanchored patterns that have neither a first byte nor a start-of-line
// requirement. It returns nil when no useful set can be derived.
func Study(p *bytecode.Pattern) *[32]byte {
	if p.Options&(bytecode.Anchored|bytecode.FirstSet|bytecode.StartLineFlag) != 0 {
		return nil
	}
	s := &studier{
		code:   p.Code,
		tables: p.TablesOrDefault(),
		utf8:   p.UTF8(),
	}
	if !s.startBits(0, p.Options&bytecode.Caseless != 0) {
		return nil
	}
	return &s.bits
}

type studier struct {
	code   []byte
	tables *bytecode.Tables
	utf8   bool
	bits   [32]byte
}

func (s *studier) setBit(c byte, caseless bool) bool {
	if caseless && s.utf8 && c >= 0x80 {
		// The lead byte of the other case is unknown.
		return false
	}
	s.bits[c/8] |= 1 << (c & 7)
	if caseless {
		f := s.tables.Flip[c]
		s.bits[f/8] |= 1 << (f & 7)
	}
	return true
}

func (s *studier) or(offset int, invert bool) {
	m := s.tables.Class(offset)
	for i := range s.bits {
		if invert {
			s.bits[i] |= ^m[i]
		} else {
			s.bits[i] |= m[i]
		}
	}
}

// typeBits adds the bytes that can start the escape type op.
func (s *studier) typeBits(op bytecode.Op) bool {
	switch op {
	case bytecode.OpNotDigit:
		s.or(bytecode.CbitDigit, true)
	case bytecode.OpDigit:
		s.or(bytecode.CbitDigit, false)
	case bytecode.OpNotWhitespace:
		s.or(bytecode.CbitSpace, true)
	case bytecode.OpWhitespace:
		s.or(bytecode.CbitSpace, false)
	case bytecode.OpNotWordchar:
		s.or(bytecode.CbitWord, true)
	case bytecode.OpWordchar:
		s.or(bytecode.CbitWord, false)
	default:
		return false
	}
	return true
}

// classBits adds the bytes that can start a character of the bitmap m.
// In UTF-8 mode map bits above 127 stand for characters, whose lead bytes
// are 0xc2 and 0xc3.
func (s *studier) classBits(m []byte) {
	if !s.utf8 {
		for i := range s.bits {
			s.bits[i] |= m[i]
		}
		return
	}
	for i := 0; i < 16; i++ {
		s.bits[i] |= m[i]
	}
	for c := 128; c < 256; c++ {
		if m[c/8]&(1<<(c&7)) != 0 {
			lead := 0xc0 | c>>6
			s.bits[lead/8] |= 1 << (lead & 7)
		}
	}
}

// startBits collects the start bytes of every alternative of the group
// whose bracket is at pc. It reports false when some alternative can start
// with anything or with something that cannot be summarised as a byte set.
func (s *studier) startBits(pc int, caseless bool) bool {
	code := s.code
	for {
		t := pc + bytecode.Op(code[pc]).Length()
		for next := true; next; {
			op := bytecode.Op(code[t])
			switch {
			case op == bytecode.OpBra || op == bytecode.OpCBra || op == bytecode.OpOnce || op == bytecode.OpAssert:
				if !s.startBits(t, caseless) {
					return false
				}
				next = false

			case op == bytecode.OpCallout:
				t += op.Length()

			case op == bytecode.OpAssertNot || op == bytecode.OpAssertBack || op == bytecode.OpAssertBackNot:
				t = bytecode.SkipGroup(code, t)

			case op == bytecode.OpOpt:
				caseless = bytecode.Option(code[t+1])&bytecode.Caseless != 0
				t += 2

			case op == bytecode.OpBraZero || op == bytecode.OpBraMinZero:
				t++
				if !s.startBits(t, caseless) {
					return false
				}
				t = bytecode.SkipGroup(code, t)

			case op == bytecode.OpStar || op == bytecode.OpMinStar || op == bytecode.OpQuery || op == bytecode.OpMinQuery ||
				op == bytecode.OpUpto || op == bytecode.OpMinUpto:
				if !s.setBit(code[t+op.Length()-1], caseless) {
					return false
				}
				t = bytecode.Next(code, t, s.utf8)

			case op == bytecode.OpChar || op == bytecode.OpCharNC || op == bytecode.OpPlus || op == bytecode.OpMinPlus ||
				op == bytecode.OpExact:
				if !s.setBit(code[t+op.Length()-1], caseless || op == bytecode.OpCharNC) {
					return false
				}
				next = false

			case op.IsSingleType() && op <= bytecode.OpWordchar:
				if !s.typeBits(op) {
					return false
				}
				next = false

			case op == bytecode.OpTypePlus || op == bytecode.OpTypeMinPlus:
				t++

			case op == bytecode.OpTypeExact:
				t += 3

			case op >= bytecode.OpTypeStar && op <= bytecode.OpTypeMinUpto:
				typ := bytecode.Op(code[t+op.Length()-1])
				if !s.typeBits(typ) {
					return false
				}
				t = bytecode.Next(code, t, s.utf8)

			case op == bytecode.OpClass || op == bytecode.OpNClass:
				if op == bytecode.OpNClass && s.utf8 {
					s.bits[24] |= 0xf0
					for i := 25; i < 32; i++ {
						s.bits[i] = 0xff
					}
				}
				s.classBits(code[t+1 : t+33])
				t += 33
				switch bytecode.Op(code[t]) {
				case bytecode.OpCRStar, bytecode.OpCRMinStar, bytecode.OpCRQuery, bytecode.OpCRMinQuery:
					t++
				case bytecode.OpCRRange, bytecode.OpCRMinRange:
					if bytecode.Get2(code, t+1) != 0 {
						next = false
					}
					t += 5
				default:
					next = false
				}

			default:
				return false
			}
		}
		pc += bytecode.GetLink(code, pc+1)
		if bytecode.Op(code[pc]) != bytecode.OpAlt {
			return true
		}
	}
}

// Package prefilter finds candidate match start positions for a compiled
// pattern before the full matcher runs.
//
// A prefilter is used to quickly reject positions in the subject that
// cannot possibly start a match. Two kinds are derived from a pattern:
//
//   - Start prefilters come from the first byte or the studied start-byte
//     set: Memchr for a single byte, Memchr2 for a caseless byte, a byte-set
//     scan for a set. They only look at one byte, so they stay valid for
//     partial matching.
//   - Literal prefilters come from a literal prefix (Memmem, or MemmemFold
//     for a caseless ASCII prefix) or a top-level alternation of literals
//     (Aho-Corasick). They need the whole literal to be present, so callers
//     skip them for partial matching.
//
// Example usage:
//
//	p, _ := syntax.Compile("hello|world", 0, nil)
//	pf := prefilter.NewBuilder(p).Literal()
//	pos := pf.Find([]byte("say hello"), 0)
//	// pos == 4
package prefilter

import (
	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/simd"
)

// Prefilter is used to quickly find candidate match positions before running
// the full matcher.
type Prefilter interface {
	// Find returns the index of the first candidate match starting at or
	// after start, or -1 if no candidate is found. A candidate does NOT
	// guarantee a match unless IsComplete reports true.
	Find(haystack []byte, start int) int

	// IsComplete returns true if a prefilter match guarantees a full match
	// of LiteralLen bytes, as for a pattern that is one plain literal.
	IsComplete() bool

	// LiteralLen returns the length of the matched literal when IsComplete
	// is true, and 0 otherwise.
	LiteralLen() int

	// HeapBytes returns the number of bytes of heap memory used by this
	// prefilter.
	HeapBytes() int
}

// Builder derives prefilters from a compiled pattern.
//
// Example:
//
//	b := prefilter.NewBuilder(p)
//	start, lit := b.Start(), b.Literal()
type Builder struct {
	p *bytecode.Pattern
}

// NewBuilder returns a builder for p.
func NewBuilder(p *bytecode.Pattern) *Builder {
	return &Builder{p: p}
}

// Start returns the start-byte prefilter for the pattern, or nil when the
// pattern is anchored or its first byte is unknown.
func (b *Builder) Start() Prefilter {
	p := b.p
	if p.Anchored() {
		return nil
	}
	if first, ok := p.First(); ok {
		c := byte(first)
		if first&bytecode.ReqCaseless != 0 {
			if other := p.TablesOrDefault().Flip[c]; other != c {
				return newMemchr2Prefilter(c, other)
			}
		}
		return newMemchrPrefilter(c, false)
	}
	if p.StartBits != nil && p.Options&bytecode.StartLineFlag == 0 {
		return newByteSetPrefilter(p.StartBits)
	}
	return nil
}

// Literal returns a literal prefilter for the pattern, or nil. A pattern
// whose top level is an alternation of two or more plain literals gets an
// Aho-Corasick prefilter; one that starts with a literal of at least two
// bytes gets a Memmem prefilter, complete when the literal is the whole
// pattern and there are no captures.
func (b *Builder) Literal() Prefilter {
	p := b.p
	if p.Anchored() || p.Options&bytecode.StartLineFlag != 0 {
		return nil
	}
	lits, complete := topLevelLiterals(p.Code, p.UTF8())
	switch {
	case len(lits) > 1:
		pf, err := NewAlternation(lits)
		if err != nil {
			return nil
		}
		return pf
	case len(lits) == 1 && len(lits[0]) > 1:
		return newMemmemPrefilter(lits[0], complete && p.TopBracket == 0)
	case len(lits) == 1 && len(lits[0]) == 0 && p.Tables == nil:
		// Custom tables may flip case differently from ASCII.
		if lit := foldedRun(p.Code, 1+bytecode.LinkSize); len(lit) > 1 {
			return newMemmemFoldPrefilter(lit)
		}
	}
	return nil
}

// topLevelLiterals inspects the outermost group of code. With one branch
// it returns the literal run that starts it; with several it returns one
// literal per branch, or nil unless every branch is a plain literal.
// complete reports that each returned literal is its whole branch.
func topLevelLiterals(code []byte, utf8 bool) (lits [][]byte, complete bool) {
	complete = true
	for pc := 0; ; {
		lit, next := literalRun(code, pc+1+bytecode.LinkSize, utf8)
		op := bytecode.Op(code[next])
		whole := op == bytecode.OpAlt || op == bytecode.OpKet
		complete = complete && whole
		lits = append(lits, lit)

		pc += bytecode.GetLink(code, pc+1)
		if bytecode.Op(code[pc]) != bytecode.OpAlt {
			break
		}
		if !whole {
			return nil, false
		}
	}
	if len(lits) > 1 {
		for _, lit := range lits {
			if len(lit) == 0 || !complete {
				return nil, false
			}
		}
	}
	return lits, complete
}

// literalRun collects the bytes of consecutive OpChar items at pc and
// returns them with the offset of the first other item.
func literalRun(code []byte, pc int, utf8 bool) ([]byte, int) {
	var lit []byte
	for bytecode.Op(code[pc]) == bytecode.OpChar {
		next := bytecode.Next(code, pc, utf8)
		lit = append(lit, code[pc+1:next]...)
		pc = next
	}
	return lit, pc
}

// foldedRun collects the bytes of consecutive OpCharNC items at pc while
// they are ASCII.
func foldedRun(code []byte, pc int) []byte {
	var lit []byte
	for bytecode.Op(code[pc]) == bytecode.OpCharNC && code[pc+1] < 0x80 {
		lit = append(lit, code[pc+1])
		pc += 2
	}
	return lit
}

// memchrPrefilter wraps simd.Memchr as a Prefilter.
//
// This is the fastest prefilter, used when every match starts with one
// known byte.
type memchrPrefilter struct {
	needle   byte
	complete bool
}

func newMemchrPrefilter(needle byte, complete bool) Prefilter {
	return &memchrPrefilter{needle: needle, complete: complete}
}

// Find implements Prefilter.Find using simd.Memchr.
func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.Memchr(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memchrPrefilter) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *memchrPrefilter) LiteralLen() int {
	if p.complete {
		return 1
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memchrPrefilter) HeapBytes() int {
	return 0
}

// memchr2Prefilter finds either case of a caseless first byte.
type memchr2Prefilter struct {
	b1, b2 byte
}

func newMemchr2Prefilter(b1, b2 byte) Prefilter {
	return &memchr2Prefilter{b1: b1, b2: b2}
}

// Find implements Prefilter.Find using simd.Memchr2.
func (p *memchr2Prefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.Memchr2(haystack[start:], p.b1, p.b2)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memchr2Prefilter) IsComplete() bool { return false }

// LiteralLen implements Prefilter.LiteralLen.
func (p *memchr2Prefilter) LiteralLen() int { return 0 }

// HeapBytes implements Prefilter.HeapBytes.
func (p *memchr2Prefilter) HeapBytes() int { return 0 }

// byteSetPrefilter finds the first byte that is in the studied start set.
type byteSetPrefilter struct {
	set *[32]byte
}

func newByteSetPrefilter(set *[32]byte) Prefilter {
	return &byteSetPrefilter{set: set}
}

// Find implements Prefilter.Find using simd.MemchrSet.
func (p *byteSetPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.MemchrSet(haystack[start:], p.set)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *byteSetPrefilter) IsComplete() bool { return false }

// LiteralLen implements Prefilter.LiteralLen.
func (p *byteSetPrefilter) LiteralLen() int { return 0 }

// HeapBytes implements Prefilter.HeapBytes.
func (p *byteSetPrefilter) HeapBytes() int { return 32 }

// memmemPrefilter wraps simd.Memmem as a Prefilter.
//
// This prefilter searches for the literal prefix of a pattern, e.g.
// "prefix" for /prefix\d+/.
type memmemPrefilter struct {
	needle   []byte
	complete bool
}

// newMemmemPrefilter copies needle to prevent aliasing the pattern code.
func newMemmemPrefilter(needle []byte, complete bool) Prefilter {
	needleCopy := make([]byte, len(needle))
	copy(needleCopy, needle)
	return &memmemPrefilter{needle: needleCopy, complete: complete}
}

// Find implements Prefilter.Find using simd.Memmem.
func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.Memmem(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memmemPrefilter) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *memmemPrefilter) LiteralLen() int {
	if p.complete {
		return len(p.needle)
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memmemPrefilter) HeapBytes() int {
	return len(p.needle)
}

// memmemFoldPrefilter finds a caseless ASCII literal prefix, e.g. "abc"
// for /(?i)abc\d/. It is never complete: the matched text differs in case
// from the needle.
type memmemFoldPrefilter struct {
	needle []byte
}

func newMemmemFoldPrefilter(needle []byte) Prefilter {
	return &memmemFoldPrefilter{needle: needle}
}

// Find implements Prefilter.Find using simd.MemmemFold.
func (p *memmemFoldPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	idx := simd.MemmemFold(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memmemFoldPrefilter) IsComplete() bool { return false }

// LiteralLen implements Prefilter.LiteralLen.
func (p *memmemFoldPrefilter) LiteralLen() int { return 0 }

// HeapBytes implements Prefilter.HeapBytes.
func (p *memmemFoldPrefilter) HeapBytes() int { return len(p.needle) }

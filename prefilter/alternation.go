package prefilter

import (
	"github.com/coregx/ahocorasick"
)

// alternationPrefilter finds the leftmost occurrence of any literal of a
// top-level alternation such as /foo|bar|baz/ with an Aho-Corasick
// automaton.
type alternationPrefilter struct {
	auto *ahocorasick.Automaton
	size int
}

// NewAlternation builds an Aho-Corasick prefilter over lits. The literals
// are copied into the automaton.
func NewAlternation(lits [][]byte) (Prefilter, error) {
	builder := ahocorasick.NewBuilder()
	size := 0
	for _, lit := range lits {
		builder.AddPattern(lit)
		size += len(lit)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &alternationPrefilter{auto: auto, size: size}, nil
}

// Find implements Prefilter.Find.
func (p *alternationPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

// IsComplete implements Prefilter.IsComplete. The literals differ in
// length, so the match end is not known from the start alone.
func (p *alternationPrefilter) IsComplete() bool { return false }

// LiteralLen implements Prefilter.LiteralLen.
func (p *alternationPrefilter) LiteralLen() int { return 0 }

// HeapBytes implements Prefilter.HeapBytes. The automaton's own tables are
// not exposed, so this counts the literal bytes only.
func (p *alternationPrefilter) HeapBytes() int { return p.size }

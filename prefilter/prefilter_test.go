package prefilter

import (
	"testing"

	"github.com/coregx/pcre/bytecode"
	"github.com/coregx/pcre/syntax"
)

func compile(t *testing.T, pattern string, options bytecode.Option) *bytecode.Pattern {
	t.Helper()
	p, err := syntax.Compile(pattern, options, nil)
	if err != nil {
		t.Fatalf("Compile(%q): %v", pattern, err)
	}
	return p
}

func TestBuilderStart(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		options  bytecode.Option
		study    bool
		haystack string
		want     int // -1 with wantNil false means "no candidate"
		wantNil  bool
	}{
		{name: "first byte", pattern: `a\d+`, haystack: "xxa1", want: 2},
		{name: "caseless first byte", pattern: `a\d+`, options: bytecode.Caseless, haystack: "xxA1", want: 2},
		{name: "no candidate", pattern: `q+`, haystack: "abc", want: -1},
		{name: "anchored", pattern: `^abc`, wantNil: true},
		{name: "anchored option", pattern: `abc`, options: bytecode.Anchored, wantNil: true},
		{name: "class without study", pattern: `[xy]z`, wantNil: true},
		{name: "studied class", pattern: `[xy]z`, study: true, haystack: "abcyz", want: 3},
		{name: "studied alternation", pattern: `(?:x|y)z`, study: true, haystack: "..xz", want: 2},
		{name: "dot", pattern: `.z`, study: true, wantNil: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := compile(t, tt.pattern, tt.options)
			if tt.study {
				p.StartBits = syntax.Study(p)
			}
			pf := NewBuilder(p).Start()
			if tt.wantNil {
				if pf != nil {
					t.Fatalf("Start() = %T, want nil", pf)
				}
				return
			}
			if pf == nil {
				t.Fatal("Start() = nil")
			}
			if got := pf.Find([]byte(tt.haystack), 0); got != tt.want {
				t.Errorf("Find(%q) = %d, want %d", tt.haystack, got, tt.want)
			}
			if pf.IsComplete() {
				t.Error("start prefilter reports complete")
			}
		})
	}
}

func TestBuilderLiteral(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		haystack string
		want     int
		complete bool
		litLen   int
		wantNil  bool
	}{
		{name: "whole literal", pattern: `hello`, haystack: "say hello", want: 4, complete: true, litLen: 5},
		{name: "prefix", pattern: `hello\d`, haystack: "hello hello1", want: 0},
		{name: "captures", pattern: `(hello)`, wantNil: true},
		{name: "literal then capture", pattern: `he(llo)`, haystack: "xhello", want: 1},
		{name: "alternation", pattern: `foo|bar|baz`, haystack: "xxbaz foo", want: 2},
		{name: "alternation miss", pattern: `foo|bar`, haystack: "fo ba", want: -1},
		{name: "alternation with tail", pattern: `foo|bar\d`, wantNil: true},
		{name: "single byte", pattern: `a+`, wantNil: true},
		{name: "caseless", pattern: `(?i)hello`, haystack: "say HeLLo", want: 4},
		{name: "caseless single byte", pattern: `(?i)h\d`, wantNil: true},
		{name: "anchored", pattern: `^hello`, wantNil: true},
		{name: "line start", pattern: `(?m)^hello`, wantNil: true},
		{name: "utf8", pattern: "héllo", haystack: "a héllo", want: 2, complete: true, litLen: 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts bytecode.Option
			if tt.name == "utf8" {
				opts = bytecode.UTF8
			}
			pf := NewBuilder(compile(t, tt.pattern, opts)).Literal()
			if tt.wantNil {
				if pf != nil {
					t.Fatalf("Literal() = %T, want nil", pf)
				}
				return
			}
			if pf == nil {
				t.Fatal("Literal() = nil")
			}
			if got := pf.Find([]byte(tt.haystack), 0); got != tt.want {
				t.Errorf("Find(%q) = %d, want %d", tt.haystack, got, tt.want)
			}
			if got := pf.IsComplete(); got != tt.complete {
				t.Errorf("IsComplete() = %v, want %v", got, tt.complete)
			}
			if got := pf.LiteralLen(); got != tt.litLen {
				t.Errorf("LiteralLen() = %d, want %d", got, tt.litLen)
			}
		})
	}
}

func TestFindStartOutOfRange(t *testing.T) {
	set := &[32]byte{}
	set['a'/8] |= 1 << ('a' % 8)
	alt, err := NewAlternation([][]byte{[]byte("ab"), []byte("cd")})
	if err != nil {
		t.Fatal(err)
	}
	filters := map[string]Prefilter{
		"memchr":      newMemchrPrefilter('a', false),
		"memchr2":     newMemchr2Prefilter('a', 'A'),
		"byteset":     newByteSetPrefilter(set),
		"memmem":      newMemmemPrefilter([]byte("ab"), false),
		"alternation": alt,
	}
	haystack := []byte("xxab")
	for name, pf := range filters {
		t.Run(name, func(t *testing.T) {
			for _, start := range []int{-1, len(haystack), len(haystack) + 5} {
				if got := pf.Find(haystack, start); got != -1 {
					t.Errorf("Find(start=%d) = %d, want -1", start, got)
				}
			}
			if got := pf.Find(haystack, 1); got != 2 {
				t.Errorf("Find(start=1) = %d, want 2", got)
			}
		})
	}
}

func TestMemmemCopiesNeedle(t *testing.T) {
	needle := []byte("ab")
	pf := newMemmemPrefilter(needle, true)
	needle[0] = 'z'
	if got := pf.Find([]byte("zbab"), 0); got != 2 {
		t.Errorf("Find = %d, want 2", got)
	}
	if got := pf.HeapBytes(); got != 2 {
		t.Errorf("HeapBytes = %d, want 2", got)
	}
}

func TestAlternationLeftmost(t *testing.T) {
	pf, err := NewAlternation([][]byte{[]byte("world"), []byte("hello")})
	if err != nil {
		t.Fatal(err)
	}
	haystack := []byte("say hello world")
	if got := pf.Find(haystack, 0); got != 4 {
		t.Errorf("Find = %d, want 4", got)
	}
	if got := pf.Find(haystack, 5); got != 10 {
		t.Errorf("Find from 5 = %d, want 10", got)
	}
	if got := pf.HeapBytes(); got != 10 {
		t.Errorf("HeapBytes = %d, want 10", got)
	}
}

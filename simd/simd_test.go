package simd

import (
	"bytes"
	"strings"
	"testing"
)

func TestMemchr(t *testing.T) {
	long := strings.Repeat("abcdefgh", 20)
	tests := []struct {
		name     string
		haystack string
		needle   byte
	}{
		{"empty", "", 'a'},
		{"short hit", "hello", 'l'},
		{"short miss", "hello", 'z'},
		{"word boundary", "0123456789", '8'},
		{"long tail", long + "z", 'z'},
		{"long miss", long, 'z'},
		{"high byte", "abc\xffdef", 0xff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := strings.IndexByte(tt.haystack, tt.needle)
			if got := Memchr([]byte(tt.haystack), tt.needle); got != want {
				t.Errorf("Memchr = %d, want %d", got, want)
			}
			if got := memchrGeneric([]byte(tt.haystack), tt.needle); got != want {
				t.Errorf("memchrGeneric = %d, want %d", got, want)
			}
		})
	}
}

func TestMemchr2(t *testing.T) {
	tests := []struct {
		haystack string
		n1, n2   byte
		want     int
	}{
		{"", 'a', 'b', -1},
		{"xyz", 'a', 'b', -1},
		{"xxxxxxxxxxxxB", 'b', 'B', 12},
		{"xxxxxxxxbxxxxB", 'B', 'b', 8},
		{"xxxxxxBxbxxxxx", 'b', 'B', 6},
		{"aaaa", 'a', 'a', 0},
	}
	for _, tt := range tests {
		if got := Memchr2([]byte(tt.haystack), tt.n1, tt.n2); got != tt.want {
			t.Errorf("Memchr2(%q, %q, %q) = %d, want %d", tt.haystack, tt.n1, tt.n2, got, tt.want)
		}
	}
}

func TestMemchrSet(t *testing.T) {
	var set [32]byte
	for _, c := range []byte("xyz") {
		set[c>>3] |= 1 << (c & 7)
	}
	if got := MemchrSet([]byte("abcdyq"), &set); got != 4 {
		t.Errorf("MemchrSet = %d, want 4", got)
	}
	if got := MemchrSet([]byte("abc"), &set); got != -1 {
		t.Errorf("MemchrSet = %d, want -1", got)
	}
}

func TestMemmem(t *testing.T) {
	tests := []struct {
		haystack, needle string
	}{
		{"hello world", "world"},
		{"hello world", "xyz"},
		{"aaaaaabaaaa", "aab"},
		{"abc", ""},
		{"", "a"},
		{"ab", "abc"},
		{strings.Repeat("ab", 100) + "abc", "abc"},
		{"needle at end n", "n"},
	}
	for _, tt := range tests {
		want := strings.Index(tt.haystack, tt.needle)
		if got := Memmem([]byte(tt.haystack), []byte(tt.needle)); got != want {
			t.Errorf("Memmem(%q, %q) = %d, want %d", tt.haystack, tt.needle, got, want)
		}
	}
}

func TestMemmemFold(t *testing.T) {
	tests := []struct {
		haystack, needle string
		want             int
	}{
		{"The CAT sat", "cat", 4},
		{"scatter", "CAT", 1},
		{"dog", "cat", -1},
		{"a-b", "A-B", 0},
		{"x", "", 0},
	}
	for _, tt := range tests {
		if got := MemmemFold([]byte(tt.haystack), []byte(tt.needle)); got != tt.want {
			t.Errorf("MemmemFold(%q, %q) = %d, want %d", tt.haystack, tt.needle, got, tt.want)
		}
	}
}

func TestIsASCII(t *testing.T) {
	tests := []struct {
		data string
		want bool
	}{
		{"", true},
		{"abc", true},
		{strings.Repeat("a", 64), true},
		{strings.Repeat("a", 63) + "é", false},
		{"\x80", false},
	}
	for _, tt := range tests {
		if got := IsASCII([]byte(tt.data)); got != tt.want {
			t.Errorf("IsASCII(%q) = %v, want %v", tt.data, got, tt.want)
		}
	}
}

func BenchmarkMemchr(b *testing.B) {
	h := bytes.Repeat([]byte("abcdefgh"), 1024)
	h = append(h, 'z')
	b.SetBytes(int64(len(h)))
	for i := 0; i < b.N; i++ {
		Memchr(h, 'z')
	}
}

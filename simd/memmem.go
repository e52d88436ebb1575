package simd

import "bytes"

// Memmem returns the index of the first instance of needle in haystack,
// or -1 if needle is not present. An empty needle matches at 0.
//
// Candidates are located by scanning for the needle's last byte with
// Memchr and then verified in full.
func Memmem(haystack, needle []byte) int {
	m, n := len(needle), len(haystack)
	switch {
	case m == 0:
		return 0
	case m > n:
		return -1
	case m == 1:
		return Memchr(haystack, needle[0])
	}

	last := needle[m-1]
	from := m - 1
	for from < n {
		p := Memchr(haystack[from:], last)
		if p < 0 {
			return -1
		}
		end := from + p + 1
		if bytes.Equal(haystack[end-m:end], needle) {
			return end - m
		}
		from = end
	}
	return -1
}

// MemmemFold is Memmem with ASCII letters compared case-insensitively.
// Non-letter bytes must match exactly.
func MemmemFold(haystack, needle []byte) int {
	m, n := len(needle), len(haystack)
	if m == 0 {
		return 0
	}
	if m > n {
		return -1
	}
	first := needle[0]
	for i := 0; i+m <= n; {
		p := Memchr2(haystack[i:n-m+1], toLower(first), toUpper(first))
		if p < 0 {
			return -1
		}
		i += p
		if equalFold(haystack[i:i+m], needle) {
			return i
		}
		i++
	}
	return -1
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func equalFold(a, b []byte) bool {
	for i := range a {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

package simd

import (
	"bytes"
	"encoding/binary"
	"math/bits"
)

// Memchr returns the index of the first instance of needle in haystack,
// or -1 if needle is not present.
//
// Example:
//
//	pos := simd.Memchr([]byte("hello world"), 'o') // 4
func Memchr(haystack []byte, needle byte) int {
	if hasVector && len(haystack) >= vectorThreshold {
		return bytes.IndexByte(haystack, needle)
	}
	return memchrGeneric(haystack, needle)
}

// Memchr2 returns the index of the first instance of needle1 or needle2 in
// haystack, or -1 if neither is present. The matchers use it to find the
// first byte of a caseless literal.
func Memchr2(haystack []byte, needle1, needle2 byte) int {
	if needle1 == needle2 {
		return Memchr(haystack, needle1)
	}
	return memchr2Generic(haystack, needle1, needle2)
}

// MemchrSet returns the index of the first byte of haystack whose bit is set
// in the 256-bit set, or -1. Bit b lives at set[b/8] & (1 << (b%8)).
func MemchrSet(haystack []byte, set *[32]byte) int {
	for i, c := range haystack {
		if set[c>>3]&(1<<(c&7)) != 0 {
			return i
		}
	}
	return -1
}

func memchrGeneric(haystack []byte, needle byte) int {
	n := len(haystack)
	if n < 8 {
		for i := 0; i < n; i++ {
			if haystack[i] == needle {
				return i
			}
		}
		return -1
	}

	mask := uint64(needle) * lo8
	i := 0
	for ; i+8 <= n; i += 8 {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		if z := zeroBytes(chunk ^ mask); z != 0 {
			return i + bits.TrailingZeros64(z)/8
		}
	}
	for ; i < n; i++ {
		if haystack[i] == needle {
			return i
		}
	}
	return -1
}

func memchr2Generic(haystack []byte, needle1, needle2 byte) int {
	n := len(haystack)
	if n < 8 {
		for i := 0; i < n; i++ {
			if c := haystack[i]; c == needle1 || c == needle2 {
				return i
			}
		}
		return -1
	}

	mask1 := uint64(needle1) * lo8
	mask2 := uint64(needle2) * lo8
	i := 0
	for ; i+8 <= n; i += 8 {
		chunk := binary.LittleEndian.Uint64(haystack[i:])
		z1 := zeroBytes(chunk ^ mask1)
		z2 := zeroBytes(chunk ^ mask2)
		if z1|z2 != 0 {
			p := 8
			if z1 != 0 {
				p = bits.TrailingZeros64(z1) / 8
			}
			if z2 != 0 {
				if q := bits.TrailingZeros64(z2) / 8; q < p {
					p = q
				}
			}
			return i + p
		}
	}
	for ; i < n; i++ {
		if c := haystack[i]; c == needle1 || c == needle2 {
			return i
		}
	}
	return -1
}

// Package simd provides the byte-scanning primitives the matchers use to
// skip ahead to candidate match positions: single and paired byte search,
// byte-set search, substring search and an ASCII check.
//
// On CPUs with wide vector units (AVX2 on x86-64, ASIMD on arm64) single-byte
// searches are delegated to the runtime's vectorised bytes.IndexByte. Other
// searches, and every search on narrower CPUs, use SWAR (SIMD Within A
// Register) loops that test 8 bytes per iteration with uint64 arithmetic.
package simd

import "golang.org/x/sys/cpu"

// hasVector reports whether the runtime's byte search runs on vector units.
var hasVector = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

// vectorThreshold is the haystack length below which the SWAR loop is used
// even when vector units are available.
const vectorThreshold = 32

const (
	lo8 = uint64(0x0101010101010101)
	hi8 = uint64(0x8080808080808080)
)

// zeroBytes marks the high bit of the first zero byte of v (and possibly of
// later ones). Bytes before the first zero are never marked.
//
//go:inline
func zeroBytes(v uint64) uint64 {
	return (v - lo8) & ^v & hi8
}

// Package conv provides checked integer conversions used when encoding
// bytecode operands.
//
// Operands are fixed width (group numbers and repeat counts are 16 bits,
// links are 32 bits). The compiler validates user-visible limits before
// encoding, so an overflow here is a programming error and panics.
package conv

import "math"

// IntToUint32 converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// uint comparison keeps this correct where int is 32 bits wide
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// IntToUint16 converts an int to uint16.
// Panics if n < 0 or n > math.MaxUint16.
//
//go:inline
func IntToUint16(n int) uint16 {
	if n < 0 || n > math.MaxUint16 {
		panic("integer overflow: int value out of uint16 range")
	}
	return uint16(n)
}

// IntToByte converts an int to a single operand byte.
// Panics if n < 0 or n > 255.
//
//go:inline
func IntToByte(n int) byte {
	if n < 0 || n > math.MaxUint8 {
		panic("integer overflow: int value out of byte range")
	}
	return byte(n)
}

package simd

import "encoding/binary"

// IsASCII reports whether every byte of data is below 0x80.
//
// The UTF-8 exec path uses it to skip full UTF-8 validation of subjects
// that cannot contain multi-byte sequences.
func IsASCII(data []byte) bool {
	n := len(data)
	i := 0
	for ; i+8 <= n; i += 8 {
		if binary.LittleEndian.Uint64(data[i:])&hi8 != 0 {
			return false
		}
	}
	for ; i < n; i++ {
		if data[i] >= 0x80 {
			return false
		}
	}
	return true
}

// SPDX-License-Identifier: MIT
// Package bitint provides power-of-two helpers for FFT frame and buffer
// sizing. All operations are O(1), allocation-free and real-time safe.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size. Exact powers of two
// are preserved (the size-1 before bits.Len is what prevents doubling
// them). Non-positive sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo checks if n is a power of 2. Powers of two have exactly one
// bit set, so n & (n-1) clears to zero only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

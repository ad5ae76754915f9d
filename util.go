package p256k1

import (
	"crypto/subtle"
	"encoding/binary"
)

// readBE32 reads a uint32 in big-endian byte order.
func readBE32(p []byte) uint32 {
	return binary.BigEndian.Uint32(p)
}

// writeBE32 writes a uint32 in big-endian byte order.
func writeBE32(p []byte, x uint32) {
	binary.BigEndian.PutUint32(p, x)
}

// readBE64 reads a uint64 in big-endian byte order.
func readBE64(p []byte) uint64 {
	return binary.BigEndian.Uint64(p)
}

// writeBE64 writes a uint64 in big-endian byte order.
func writeBE64(p []byte, x uint64) {
	binary.BigEndian.PutUint64(p, x)
}

// memczero conditionally zeros a byte slice if flag == 1. flag must be 0 or 1.
func memczero(s []byte, flag int) {
	mask := byte(-flag)
	for i := range s {
		s[i] &= ^mask
	}
}

// isZeroArray returns true if every byte of s is zero. Constant-time.
func isZeroArray(s []byte) bool {
	var acc byte
	for _, b := range s {
		acc |= b
	}
	return subtle.ConstantTimeByteEq(acc, 0) == 1
}

// ctz64Var returns the number of trailing zero bits in a nonzero x.
func ctz64Var(x uint64) int {
	if x == 0 {
		panic("ctz64Var called with zero")
	}
	debruijn := [64]uint8{
		0, 1, 2, 53, 3, 7, 54, 27, 4, 38, 41, 8, 34, 55, 48, 28,
		62, 5, 39, 46, 44, 42, 22, 9, 24, 35, 59, 56, 49, 18, 29, 11,
		63, 52, 6, 26, 37, 40, 33, 47, 61, 45, 43, 21, 23, 58, 17, 10,
		51, 25, 36, 32, 60, 20, 57, 16, 50, 31, 19, 15, 30, 14, 13, 12,
	}
	return int(debruijn[(x&-x)*0x022FDD63CC95386D>>58])
}

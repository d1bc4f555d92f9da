package core

import (
	"crypto/sha1"
	"encoding/hex"
)

const (
	murmurM = 0x5bd1e995
	murmurR = 24
)

// Murmur2 computes the 32-bit MurmurHash2 of data
func Murmur2(data []byte, seed uint32) uint32 {
	n := len(data)
	h := seed ^ uint32(n)

	i := 0
	for ; n-i >= 4; i += 4 {
		k := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		k *= murmurM
		k ^= k >> murmurR
		k *= murmurM
		h *= murmurM
		h ^= k
	}

	switch n - i {
	case 3:
		h ^= uint32(data[i+2]) << 16
		fallthrough
	case 2:
		h ^= uint32(data[i+1]) << 8
		fallthrough
	case 1:
		h ^= uint32(data[i])
		h *= murmurM
	}

	h ^= h >> 13
	h *= murmurM
	h ^= h >> 15
	return h
}

// CurseForgeFingerprint computes the fingerprint CurseForge indexes files by:
// MurmurHash2 with seed 1 over the content with tab, LF, CR and space bytes removed.
func CurseForgeFingerprint(data []byte) uint32 {
	filtered := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case 9, 10, 13, 32:
			continue
		}
		filtered = append(filtered, b)
	}
	return Murmur2(filtered, 1)
}

// SHA1Hex returns the lowercase hex SHA1 of data
func SHA1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

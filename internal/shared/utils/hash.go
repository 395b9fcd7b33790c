package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher computes content hashes of exported blueprints, used as ETags.
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hex digest of data
func (h *Hasher) Hash(data []byte) string {
	switch h.algorithm {
	case SHA256:
		fallthrough
	default:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}
}

// ShortHash truncates a digest to 12 characters for display
func ShortHash(full string) string {
	if len(full) < 12 {
		return full
	}
	return full[:12]
}

package utils

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidWallet is returned for strings that are not 20-byte hex addresses
// or that carry a broken EIP-55 checksum.
var ErrInvalidWallet = errors.New("invalid wallet address")

// NormalizeWallet validates an EVM address and returns its lowercase form,
// which is the key user records are stored under.
//
// All-lowercase and all-uppercase addresses are accepted as-is. Mixed-case
// input must satisfy the EIP-55 checksum.
func NormalizeWallet(address string) (string, error) {
	address = strings.TrimSpace(address)
	if len(address) != 42 || (!strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X")) {
		return "", ErrInvalidWallet
	}
	body := address[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", ErrInvalidWallet
	}

	lower := strings.ToLower(body)
	if body != lower && body != strings.ToUpper(body) {
		if ChecksumWallet("0x"+lower) != "0x"+body {
			return "", ErrInvalidWallet
		}
	}
	return "0x" + lower, nil
}

// ChecksumWallet renders a lowercase 0x-prefixed address in EIP-55 mixed case.
func ChecksumWallet(address string) string {
	lower := strings.ToLower(strings.TrimPrefix(address, "0x"))

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}

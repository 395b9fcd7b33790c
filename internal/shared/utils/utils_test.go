package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWallet(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "lowercase passes through",
			input: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
			want:  "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		},
		{
			name:  "valid checksum is lowercased",
			input: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
			want:  "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		},
		{
			name:  "all uppercase body",
			input: "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
			want:  "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		},
		{
			name:  "surrounding whitespace",
			input: "  0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359 ",
			want:  "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359",
		},
		{name: "broken checksum", input: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeD", wantErr: true},
		{name: "too short", input: "0x1234", wantErr: true},
		{name: "missing prefix", input: strings.Repeat("a", 42), wantErr: true},
		{name: "non-hex", input: "0x" + strings.Repeat("g", 40), wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeWallet(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWallet)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksumWallet(t *testing.T) {
	// EIP-55 reference vectors
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		assert.Equal(t, v, ChecksumWallet(strings.ToLower(v)))
	}
}

func TestValidateNodeType(t *testing.T) {
	assert.NoError(t, ValidateNodeType("erc20-stylus"))
	assert.NoError(t, ValidateNodeType("x402-paywall"))
	assert.Error(t, ValidateNodeType(""))
	assert.Error(t, ValidateNodeType("ERC20"))
	assert.Error(t, ValidateNodeType("-leading"))
	assert.Error(t, ValidateNodeType("has space"))
}

func TestValidateConfigPatch(t *testing.T) {
	assert.NoError(t, ValidateConfigPatch(map[string]interface{}{"name": "Token", "decimals": 18}))

	deep := map[string]interface{}{}
	cur := deep
	for i := 0; i < MaxConfigDepth+2; i++ {
		next := map[string]interface{}{}
		cur["n"] = next
		cur = next
	}
	assert.Error(t, ValidateConfigPatch(deep))

	huge := map[string]interface{}{"blob": strings.Repeat("x", MaxConfigSize)}
	assert.ErrorIs(t, ValidateConfigPatch(huge), ErrPayloadTooLarge)
}

func TestValidateSize(t *testing.T) {
	v := NewJSONSizeValidator(4)
	assert.NoError(t, v.ValidateSize([]byte("1234")))
	assert.ErrorIs(t, v.ValidateSize([]byte("12345")), ErrPayloadTooLarge)
	assert.NoError(t, v.ValidateJSON([]byte("{}")))
	assert.Error(t, v.ValidateJSON([]byte("{")))
}

func TestValidateString(t *testing.T) {
	assert.Error(t, ValidateString("", "name", 1, 10, true))
	assert.NoError(t, ValidateString("", "name", 1, 10, false))
	assert.Error(t, ValidateString("abcdefghijkl", "name", 1, 10, true))
	assert.Error(t, ValidateString("a\x00b", "name", 1, 10, true))
}

func TestValidateCategoryAndTags(t *testing.T) {
	assert.NoError(t, ValidateCategory("contracts", true))
	assert.Error(t, ValidateCategory("Contracts", true))
	assert.NoError(t, ValidateTags([]string{"erc20", "token"}))

	tooMany := make([]string, MaxTagCount+1)
	for i := range tooMany {
		tooMany[i] = "t"
	}
	assert.Error(t, ValidateTags(tooMany))
}

func TestHasher(t *testing.T) {
	h := DefaultHasher()

	a := h.Hash([]byte(`{"a":1}`))
	assert.Equal(t, a, NewHasher(SHA256).Hash([]byte(`{"a":1}`)))
	assert.NotEqual(t, a, h.Hash([]byte(`{"a":2}`)))
	assert.Len(t, a, 64)

	assert.Len(t, ShortHash(a), 12)
	assert.Equal(t, "abc", ShortHash("abc"))
}

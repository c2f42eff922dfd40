package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeLength(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "non-digit %q in code %q", r, code)
		}
	}
}

func TestGenerateCodeFirstDigitNotBiased(t *testing.T) {
	// Rejection sampling means every leading digit 1-9 should show up over
	// enough draws. Zero can never lead a fixed-width code.
	seen := make(map[byte]int)
	for i := 0; i < 2000; i++ {
		code, err := GenerateCode(6)
		require.NoError(t, err)
		seen[code[0]]++
	}

	assert.Zero(t, seen['0'], "leading zero would mean the code was padded")
	for d := byte('1'); d <= '9'; d++ {
		assert.Greater(t, seen[d], 0, "digit %c never led a code", d)
	}
}

func TestGenerateCodeRejectsBadLength(t *testing.T) {
	for _, length := range []int{0, 1, 3, 10, -6} {
		_, err := GenerateCode(length)
		assert.Error(t, err, "length %d", length)
	}
}

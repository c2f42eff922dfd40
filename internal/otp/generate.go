package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

// GenerateCode produces a uniformly distributed decimal code of exactly
// length digits. Draws whose decimal width differs (a leading zero would be
// needed) are rejected and redrawn instead of being zero-padded, so every
// code in the fixed-width space is equally likely.
func GenerateCode(length int) (string, error) {
	if length < 4 || length > 9 {
		return "", errors.New("invalid code length")
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	for {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		code := strconv.FormatInt(n.Int64(), 10)
		if len(code) == length {
			return code, nil
		}
	}
}

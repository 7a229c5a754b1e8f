package classroom

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	JoinCodeLength   = 10
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	maxJoinCodeAttempts = 16
)

var (
	generateJoinCode = newJoinCode // mockable

	alphabetSize = big.NewInt(int64(len(joinCodeAlphabet)))
)

// newJoinCode draws JoinCodeLength characters uniformly from the 62 alphanumerics.
func newJoinCode() (string, error) {
	code := make([]byte, JoinCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", errors.Wrap(err, "reading random source")
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// IsValidJoinCode reports whether code has the shape of a generated join code.
func IsValidJoinCode(code string) bool {
	if len(code) != JoinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

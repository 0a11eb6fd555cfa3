package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns an uppercase-alphanumeric verification code of the
// requested length drawn from a cryptographically secure source.
func GenerateCode(length int) (string, error) {
	return randomString(codeAlphabet, length)
}

// GeneratePassword returns a mixed-case alphanumeric password of the
// requested length drawn from a cryptographically secure source.
func GeneratePassword(length int) (string, error) {
	return randomString(passwordAlphabet, length)
}

func randomString(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", errors.New("crypto: length must be positive")
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

package service

import (
	"crypto/rand"
	"math/big"
)

// passwordAlphabet leaves out visually ambiguous characters (0/O, 1/l/I)
// since these passwords get read off a CSV and typed in by hand.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%^&*-_=+"

// MinPasswordLength is the floor for generated passwords.
const MinPasswordLength = 12

// GeneratePassword returns a password of n characters (at least
// MinPasswordLength) drawn uniformly from the alphabet with crypto/rand.
func GeneratePassword(n int) (string, error) {
	if n < MinPasswordLength {
		n = MinPasswordLength
	}

	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}

	return string(out), nil
}

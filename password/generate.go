package password

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// DefaultGeneratedLength is the length used when GenerateSecure is called
	// with a non-positive length.
	DefaultGeneratedLength = 12

	generatedUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	generatedLower   = "abcdefghijklmnopqrstuvwxyz"
	generatedDigits  = "0123456789"
	generatedSpecial = "!@#$%^&*"
	generatedAll     = generatedUpper + generatedLower + generatedDigits + generatedSpecial
)

// ErrGeneratedLength is returned when the requested length cannot satisfy the policy.
var ErrGeneratedLength = errors.New("generated password length below policy minimum")

// GenerateSecure returns a random password that always satisfies
// ValidatePolicy. It seeds one uppercase letter, one digit and one special
// character, fills the rest from a mixed alphabet and then shuffles every
// position, all from crypto/rand.
func GenerateSecure(length int) (string, error) {
	if length <= 0 {
		length = DefaultGeneratedLength
	}
	if length < MinLength {
		return "", ErrGeneratedLength
	}

	out := make([]byte, 0, length)
	for _, set := range []string{generatedUpper, generatedDigits, generatedSpecial} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := randomChar(generatedAll)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

func randomChar(set string) (byte, error) {
	n, err := randomIndex(len(set))
	if err != nil {
		return 0, err
	}
	return set[n], nil
}

func randomIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}

// shuffle is a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := randomIndex(i + 1)
		if err != nil {
			return err
		}
		b[i], b[j] = b[j], b[i]
	}
	return nil
}

package storage

import (
	"crypto/rand"
	"math/big"

	"trustline/backend/internal/config"
)

var alphabetSize = big.NewInt(int64(len(config.ShortIDAlphabet)))

// GenerateShortID returns a random uppercase alphanumeric token of config.ShortIDLength.
// Uniqueness is enforced by the case table index, not here.
func GenerateShortID() (string, error) {
	buf := make([]byte, config.ShortIDLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = config.ShortIDAlphabet[n.Int64()]
	}
	return string(buf), nil
}

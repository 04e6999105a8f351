package ledger

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode returns n characters drawn uniformly from [A-Z0-9].
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("ledger.GenerateCode: invalid length %d", n)
	}
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("ledger.GenerateCode: %w", err)
		}
		b[i] = codeAlphabet[idx.Int64()]
	}
	return string(b), nil
}

// GenerateSecret returns a random UUIDv4 string.
func GenerateSecret() string {
	return uuid.NewString()
}

// Package auth holds the credential hasher and the session token service.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// Hasher hashes and verifies user secrets with bcrypt. Hashing is CPU bound;
// callers must not hold storage resources while it runs.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given cost. Out of range costs fall
// back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(b), nil
}

// Verify reports whether secret matches hash. A malformed hash is a mismatch.
func (h *Hasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

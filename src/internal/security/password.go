package security

import (
	"errors"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes passwords for storage and checks candidates
// against stored digests.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(digest string, candidate string) bool
}

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}

func (h *BcryptHasher) Verify(digest string, candidate string) bool {
	if digest == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		logger.Error("password verify compare failed", err, nil)
	}
	return false
}

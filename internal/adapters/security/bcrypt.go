package security

import (
	"errors"
	"fmt"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is where bcrypt stops reading input.
const maxPasswordBytes = 72

// BcryptHasher stores admin passwords.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher uses bcrypt.DefaultCost when rounds is outside bcrypt's accepted range.
func NewBcryptHasher(rounds int) *BcryptHasher {
	h := &BcryptHasher{cost: bcrypt.DefaultCost}
	if rounds >= bcrypt.MinCost && rounds <= bcrypt.MaxCost {
		h.cost = rounds
	}
	return h
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", domain.ErrInvalidInput, maxPasswordBytes)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(digest), nil
}

// Compare reports a wrong password as domain.ErrInvalidCredentials. Other failures mean the
// stored hash is unusable.
func (h *BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return err
}

package ports

import (
	"time"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type AuthClaims struct {
	SubjectID   uuid.UUID          `json:"sub_id"`
	SubjectKind domain.SubjectKind `json:"sub_kind"`
	Email       string             `json:"email"`
	Role        string             `json:"role"`
	SessionID   uuid.UUID          `json:"session_id"`
	IssuedAt    time.Time          `json:"issued_at"`
	ExpiresAt   time.Time          `json:"expires_at"`
	KeyID       string             `json:"kid"`
}

type TokenSigner interface {
	Sign(claims AuthClaims) (string, error)
	ParseAndValidate(token string) (AuthClaims, error)
	PublicJWKs() ([]map[string]any, error)
}

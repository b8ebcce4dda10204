package domain

import (
	"time"

	"github.com/google/uuid"
)

type SubjectKind string

const (
	SubjectParticipant SubjectKind = "participant"
	SubjectAdmin       SubjectKind = "admin"
)

// Session is a server-side login session. Tokens reference it by ID so revocation is
// authoritative regardless of token expiry.
type Session struct {
	SessionID      uuid.UUID
	SubjectID      uuid.UUID
	SubjectKind    SubjectKind
	IPAddress      string
	UserAgent      string
	CreatedAt      time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	RevokedAt      *time.Time
}

package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LockoutState is the current lockout envelope for a key.
type LockoutState struct {
	FailedCount int
	LockedUntil *time.Time
}

// LockoutStore handles short-lived brute-force and rate-limit counters.
type LockoutStore interface {
	Get(ctx context.Context, key string) (LockoutState, error)
	RecordFailure(ctx context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (LockoutState, error)
	Clear(ctx context.Context, key string) error
}

// SessionRevocationStore keeps revocation markers with token-aligned TTL.
type SessionRevocationStore interface {
	MarkRevoked(ctx context.Context, sessionID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

// MagicLink is the pending login bound to an emailed token.
type MagicLink struct {
	ParticipantID uuid.UUID `json:"participant_id"`
	Email         string    `json:"email"`
	RedirectURI   string    `json:"redirect_uri"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// MagicLinkStore keeps pending magic links keyed by token hash. Take is single-use.
type MagicLinkStore interface {
	Put(ctx context.Context, tokenHash string, link MagicLink, ttl time.Duration) error
	Take(ctx context.Context, tokenHash string) (*MagicLink, error)
}

// SettingsCache is a read-through cache of configuration singletons.
// A miss is reported as (nil, false, nil).
type SettingsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

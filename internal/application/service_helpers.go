package application

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

const serviceName = "contestzen"

func logWarn(ctx context.Context, operation, msg string, err error, attrs ...any) {
	args := append([]any{
		"service", serviceName,
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "warning",
		"error", err,
	}, attrs...)
	slog.Default().WarnContext(ctx, msg, args...)
}

func logError(ctx context.Context, operation, msg string, err error, attrs ...any) {
	args := append([]any{
		"service", serviceName,
		"module", "application",
		"layer", "application",
		"operation", operation,
		"outcome", "failure",
		"error", err,
	}, attrs...)
	slog.Default().ErrorContext(ctx, msg, args...)
}

// validateStruct runs tag validation and reports the first failing field as invalid input.
func (s *Service) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := toSnake(fe.Field())
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
		case "email":
			return fmt.Errorf("%w: %s must be a valid email", domain.ErrInvalidInput, field)
		case "url":
			return fmt.Errorf("%w: %s must be a valid URL", domain.ErrInvalidInput, field)
		case "max":
			return fmt.Errorf("%w: %s must be at most %s characters", domain.ErrInvalidInput, field, fe.Param())
		case "min":
			return fmt.Errorf("%w: %s must be at least %s characters", domain.ErrInvalidInput, field, fe.Param())
		}
		return fmt.Errorf("%w: %s is invalid", domain.ErrInvalidInput, field)
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeEmail canonicalizes and validates email format before persistence/comparison.
func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return trimmed, nil
}

// hashToken stores one-way fingerprints instead of raw secrets.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(token)))
	return hex.EncodeToString(sum[:])
}

func randomHex(bytesLen int) string {
	raw := make([]byte, bytesLen)
	_, _ = rand.Read(raw)
	return hex.EncodeToString(raw)
}

// randomOTP draws uniformly from [OTPMin, OTPMax].
func randomOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(domain.OTPMax-domain.OTPMin+1))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domain.OTPLength, n.Int64()+domain.OTPMin), nil
}

// buildRedirectWithFragment appends auth results to the fragment without touching query params.
func buildRedirectWithFragment(redirectURI, fragment string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	if u.Path == "" {
		u.Path = "/"
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path = path.Clean(u.Path)
	}
	u.Fragment = fragment
	return u.String()
}

// enforceRateLimit counts one hit against key and rejects once more than threshold hits
// land inside window. A cache outage lets the request through.
func (s *Service) enforceRateLimit(ctx context.Context, key string, threshold int, window time.Duration) error {
	if s.lockouts == nil || threshold <= 0 || window <= 0 || strings.TrimSpace(key) == "" {
		return nil
	}
	now := s.nowFn()
	state, err := s.lockouts.Get(ctx, key)
	if err == nil && state.LockedUntil != nil && state.LockedUntil.After(now) {
		return domain.ErrRateLimited
	}
	updated, err := s.lockouts.RecordFailure(ctx, key, now, threshold+1, window)
	if err != nil {
		logWarn(ctx, "rate_limit", "rate-limit state unavailable", err, "key", key)
		return nil
	}
	if updated.LockedUntil != nil && updated.LockedUntil.After(now) {
		return domain.ErrRateLimited
	}
	return nil
}

// enqueueEvent writes a standalone outbox event. Failures are logged and swallowed.
func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, payload map[string]any) {
	if s.outbox == nil {
		return
	}
	event, err := newEvent(eventType, partitionKey, payload, s.nowFn())
	if err == nil {
		err = s.outbox.Enqueue(ctx, event)
	}
	if err != nil {
		logWarn(ctx, "enqueue_event", "outbox enqueue failed", err, "event_type", eventType)
	}
}

func newEvent(eventType, partitionKey string, payload map[string]any, at time.Time) (ports.OutboxEvent, error) {
	payload["occurred_at"] = at
	raw, err := json.Marshal(payload)
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      raw,
		OccurredAt:   at,
	}, nil
}

func pageBounds(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

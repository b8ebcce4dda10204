package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

type sessionSubject struct {
	id    uuid.UUID
	kind  domain.SubjectKind
	email string
	role  string
}

type issuedSession struct {
	token     string
	sessionID uuid.UUID
	expiresIn int64
}

// establishSession records the login, creates the server-side session and signs its token.
func (s *Service) establishSession(ctx context.Context, subject sessionSubject, ipAddress, userAgent string) (issuedSession, error) {
	now := s.nowFn()
	session, err := s.sessions.Create(ctx, ports.SessionCreateParams{
		SubjectID:      subject.id,
		SubjectKind:    subject.kind,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		ExpiresAt:      now.Add(s.cfg.SessionTTL),
		LastActivityAt: now,
	})
	if err != nil {
		return issuedSession{}, fmt.Errorf("create session: %w", err)
	}

	var touchErr error
	switch subject.kind {
	case domain.SubjectParticipant:
		touchErr = s.participants.TouchLastLogin(ctx, subject.id, now)
	case domain.SubjectAdmin:
		touchErr = s.admins.TouchLastLogin(ctx, subject.id, now)
	}
	if touchErr != nil {
		logWarn(ctx, "establish_session", "failed to record last login", touchErr, "subject_kind", subject.kind)
	}

	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		SubjectID:   subject.id,
		SubjectKind: subject.kind,
		Email:       subject.email,
		Role:        subject.role,
		SessionID:   session.SessionID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.cfg.TokenTTL),
	})
	if err != nil {
		return issuedSession{}, fmt.Errorf("sign token: %w", err)
	}
	return issuedSession{
		token:     token,
		sessionID: session.SessionID,
		expiresIn: int64(s.cfg.TokenTTL.Seconds()),
	}, nil
}

// Authenticate validates a bearer token against its signature, the session row and the
// revocation marker.
func (s *Service) Authenticate(ctx context.Context, token string) (Principal, error) {
	claims, err := s.tokenSigner.ParseAndValidate(token)
	if err != nil {
		return Principal{}, domain.ErrUnauthorized
	}
	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return Principal{}, domain.ErrUnauthorized
	}
	if session.SubjectID != claims.SubjectID || session.SubjectKind != claims.SubjectKind {
		return Principal{}, domain.ErrUnauthorized
	}
	now := s.nowFn()
	if session.RevokedAt != nil {
		return Principal{}, domain.ErrSessionRevoked
	}
	if session.ExpiresAt.Before(now) || session.CreatedAt.Add(s.cfg.SessionAbsoluteTTL).Before(now) {
		return Principal{}, domain.ErrSessionExpired
	}
	if revoked, err := s.revocations.IsRevoked(ctx, session.SessionID); err != nil {
		logWarn(ctx, "authenticate", "revocation lookup failed", err)
	} else if revoked {
		return Principal{}, domain.ErrSessionRevoked
	}
	if err := s.sessions.TouchActivity(ctx, session.SessionID, now); err != nil {
		logWarn(ctx, "authenticate", "failed to touch session activity", err)
	}
	return Principal{
		SubjectID:   claims.SubjectID,
		SubjectKind: claims.SubjectKind,
		Email:       claims.Email,
		Role:        claims.Role,
		SessionID:   claims.SessionID,
	}, nil
}

// Logout revokes the caller's current session.
func (s *Service) Logout(ctx context.Context, principal Principal) error {
	now := s.nowFn()
	if err := s.sessions.RevokeByID(ctx, principal.SessionID, now); err != nil {
		return err
	}
	if err := s.revocations.MarkRevoked(ctx, principal.SessionID, now.Add(s.cfg.TokenTTL)); err != nil {
		logWarn(ctx, "logout", "failed to write revocation marker", err)
	}
	return nil
}

// RefreshToken signs a fresh token for the caller's session. The token never outlives the
// session's idle or absolute expiry, so clients can keep a session alive with short tokens.
func (s *Service) RefreshToken(ctx context.Context, principal Principal) (TokenRefreshResponse, error) {
	session, err := s.sessions.GetByID(ctx, principal.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenRefreshResponse{}, domain.ErrUnauthorized
		}
		return TokenRefreshResponse{}, err
	}
	if session.RevokedAt != nil {
		return TokenRefreshResponse{}, domain.ErrSessionRevoked
	}
	now := s.nowFn()
	expiresAt := now.Add(s.cfg.TokenTTL)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}
	if absolute := session.CreatedAt.Add(s.cfg.SessionAbsoluteTTL); absolute.Before(expiresAt) {
		expiresAt = absolute
	}
	if !expiresAt.After(now) {
		return TokenRefreshResponse{}, domain.ErrSessionExpired
	}

	token, err := s.tokenSigner.Sign(ports.AuthClaims{
		SubjectID:   principal.SubjectID,
		SubjectKind: principal.SubjectKind,
		Email:       principal.Email,
		Role:        principal.Role,
		SessionID:   session.SessionID,
		IssuedAt:    now,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		return TokenRefreshResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return TokenRefreshResponse{
		Token:     token,
		SessionID: session.SessionID,
		ExpiresIn: int64(expiresAt.Sub(now).Seconds()),
	}, nil
}

// revokeSubjectSessions ends every session of a participant or admin whose access was withdrawn.
func (s *Service) revokeSubjectSessions(ctx context.Context, subjectID uuid.UUID) {
	if err := s.sessions.RevokeAllBySubject(ctx, subjectID, s.nowFn()); err != nil {
		logWarn(ctx, "revoke_subject_sessions", "failed to revoke sessions", err, "subject_id", subjectID)
	}
}

func (s *Service) PublicJWKs() ([]map[string]any, error) {
	return s.tokenSigner.PublicJWKs()
}

// AdminLogin checks the admin password and opens an admin session.
func (s *Service) AdminLogin(ctx context.Context, req AdminLoginRequest) (AdminLoginResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return AdminLoginResponse{}, err
	}
	if req.Password == "" {
		return AdminLoginResponse{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	lockKey := "admin_login:" + email
	if state, err := s.lockouts.Get(ctx, lockKey); err == nil && state.LockedUntil != nil && state.LockedUntil.After(s.nowFn()) {
		return AdminLoginResponse{}, domain.ErrAccountLocked
	}

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return AdminLoginResponse{}, err
		}
		s.recordAdminLoginFailure(ctx, lockKey)
		return AdminLoginResponse{}, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(admin.PasswordHash, req.Password); err != nil {
		s.recordAdminLoginFailure(ctx, lockKey)
		return AdminLoginResponse{}, domain.ErrInvalidCredentials
	}
	_ = s.lockouts.Clear(ctx, lockKey)

	issued, err := s.establishSession(ctx, sessionSubject{
		id:    admin.ID,
		kind:  domain.SubjectAdmin,
		email: admin.Email,
		role:  string(admin.Role),
	}, req.IPAddress, req.UserAgent)
	if err != nil {
		return AdminLoginResponse{}, err
	}
	now := s.nowFn()
	admin.LastLoginAt = &now
	return AdminLoginResponse{
		Admin:     toAdminView(admin),
		Token:     issued.token,
		SessionID: issued.sessionID,
		ExpiresIn: issued.expiresIn,
	}, nil
}

func (s *Service) recordAdminLoginFailure(ctx context.Context, lockKey string) {
	if _, err := s.lockouts.RecordFailure(ctx, lockKey, s.nowFn(), s.cfg.FailedLoginThreshold, s.cfg.LockoutDuration); err != nil {
		logWarn(ctx, "admin_login", "lockout counter unavailable", err)
	}
}

// AuthorizeAdmin loads the calling admin and checks a permission against current state,
// so permission changes apply to live sessions.
func (s *Service) AuthorizeAdmin(ctx context.Context, principal Principal, perm domain.Permission) (domain.Admin, error) {
	if principal.SubjectKind != domain.SubjectAdmin {
		return domain.Admin{}, domain.ErrForbidden
	}
	admin, err := s.admins.GetByID(ctx, principal.SubjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Admin{}, domain.ErrUnauthorized
		}
		return domain.Admin{}, err
	}
	if perm != "" && !admin.Can(perm) {
		return domain.Admin{}, domain.ErrForbidden
	}
	return admin, nil
}

// RequireSuperadmin is AuthorizeAdmin for admin management.
func (s *Service) RequireSuperadmin(ctx context.Context, principal Principal) (domain.Admin, error) {
	admin, err := s.AuthorizeAdmin(ctx, principal, "")
	if err != nil {
		return domain.Admin{}, err
	}
	if admin.Role != domain.RoleSuperadmin {
		return domain.Admin{}, domain.ErrForbidden
	}
	return admin, nil
}

package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// magicLinkNamespace derives the stable identity linked to a participant on first magic-link login.
var magicLinkNamespace = uuid.MustParse("5d7c2a0e-3f43-4c1b-9d1e-7a8c6b2f4e10")

func magicLinkIdentity(email string) uuid.UUID {
	return uuid.NewSHA1(magicLinkNamespace, []byte(email))
}

// RequestMagicLink emails a single-use login link to an enabled participant.
func (s *Service) RequestMagicLink(ctx context.Context, req MagicLinkRequest) (ActionResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return ActionResponse{}, err
	}
	redirect, err := s.resolveRedirect(req.RedirectURI)
	if err != nil {
		return ActionResponse{}, err
	}
	participant, err := s.loginableParticipant(ctx, email)
	if err != nil {
		return ActionResponse{}, err
	}
	if err := s.enforceRateLimit(ctx, "magic_link:"+email, s.cfg.OTPIssueLimit, s.cfg.OTPIssueWindow); err != nil {
		return ActionResponse{}, err
	}

	token := randomHex(32)
	now := s.nowFn()
	if err := s.magicLinks.Put(ctx, hashToken(token), ports.MagicLink{
		ParticipantID: participant.ID,
		Email:         email,
		RedirectURI:   redirect,
		ExpiresAt:     now.Add(s.cfg.MagicLinkTTL),
	}, s.cfg.MagicLinkTTL); err != nil {
		return ActionResponse{}, fmt.Errorf("store magic link: %w", err)
	}

	link := strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/auth/callback?token=" + url.QueryEscape(token)
	if err := s.mailer.Send(ctx, ports.MailMessage{
		To:      email,
		Subject: fmt.Sprintf("Sign in to %s", s.cfg.ContestName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nOpen this link to sign in:\n%s\n\nThe link works once and expires in %d minutes.\n",
			participant.Name, link, int(s.cfg.MagicLinkTTL.Minutes()),
		),
	}); err != nil {
		logError(ctx, "request_magic_link", "magic link email delivery failed", err, "participant_id", participant.ID)
		return ActionResponse{}, fmt.Errorf("%w login link", domain.ErrDeliveryFailed)
	}
	return ActionResponse{Success: true, Message: "Check your email for a login link"}, nil
}

// CompleteMagicLink redeems a magic-link token and returns the redirect carrying the session
// token in the URL fragment.
func (s *Service) CompleteMagicLink(ctx context.Context, cb MagicLinkCallback) (string, error) {
	if strings.TrimSpace(cb.Token) == "" {
		return "", domain.ErrInvalidMagicKey
	}
	link, err := s.magicLinks.Take(ctx, hashToken(cb.Token))
	if err != nil {
		return "", fmt.Errorf("load magic link: %w", err)
	}
	if link == nil || !link.ExpiresAt.After(s.nowFn()) {
		return "", domain.ErrInvalidMagicKey
	}

	participant, err := s.resolveLinkedParticipant(ctx, *link)
	if err != nil {
		return "", err
	}
	if !participant.LoginEnabled {
		return "", domain.ErrParticipantUnavailable
	}
	if participant.AuthUserID == nil {
		identity := magicLinkIdentity(participant.Email)
		if err := s.participants.LinkAuthUser(ctx, participant.ID, identity, s.nowFn()); err != nil {
			logWarn(ctx, "complete_magic_link", "failed to link auth identity", err, "participant_id", participant.ID)
		}
	}

	issued, err := s.establishSession(ctx, sessionSubject{
		id:    participant.ID,
		kind:  domain.SubjectParticipant,
		email: participant.Email,
		role:  string(domain.SubjectParticipant),
	}, cb.IPAddress, cb.UserAgent)
	if err != nil {
		return "", err
	}

	fragment := url.Values{}
	fragment.Set("token", issued.token)
	fragment.Set("participant_id", participant.ID.String())
	fragment.Set("expires_in", strconv.FormatInt(issued.expiresIn, 10))
	return buildRedirectWithFragment(link.RedirectURI, fragment.Encode()), nil
}

// resolveLinkedParticipant looks up by linked identity, then by participant id, then by email.
func (s *Service) resolveLinkedParticipant(ctx context.Context, link ports.MagicLink) (domain.Participant, error) {
	participant, err := s.participants.GetByAuthUserID(ctx, magicLinkIdentity(link.Email))
	if err == nil {
		return participant, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Participant{}, err
	}
	participant, err = s.participants.GetByID(ctx, link.ParticipantID)
	if err == nil {
		return participant, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Participant{}, err
	}
	participant, err = s.participants.GetByEmail(ctx, link.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Participant{}, domain.ErrParticipantUnavailable
	}
	return participant, err
}

// FailureRedirect is where a failed magic link sends the browser, carrying code in the fragment.
// It is empty when no default redirect is configured.
func (s *Service) FailureRedirect(code string) string {
	if s.cfg.DefaultRedirectURI == "" {
		return ""
	}
	fragment := url.Values{}
	fragment.Set("error", code)
	return buildRedirectWithFragment(s.cfg.DefaultRedirectURI, fragment.Encode())
}

func (s *Service) resolveRedirect(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if s.cfg.DefaultRedirectURI == "" {
			return "", fmt.Errorf("%w: redirect_uri is required", domain.ErrInvalidInput)
		}
		return s.cfg.DefaultRedirectURI, nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri must be an absolute http(s) URL", domain.ErrInvalidInput)
	}
	origin := u.Scheme + "://" + u.Host
	for _, allowed := range s.allowedOrigins() {
		if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return raw, nil
		}
	}
	return "", fmt.Errorf("%w: redirect_uri origin is not allowed", domain.ErrInvalidInput)
}

func (s *Service) allowedOrigins() []string {
	origins := append([]string{}, s.cfg.AllowedRedirectOrigins...)
	for _, raw := range []string{s.cfg.DefaultRedirectURI, s.cfg.PublicBaseURL} {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			origins = append(origins, u.Scheme+"://"+u.Host)
		}
	}
	return origins
}

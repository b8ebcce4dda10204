package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/nischalstumbeti/contestzen/internal/ports"
)

// GenerateOTP replaces any outstanding code for the participant's email and mails a new one.
// A delivery failure leaves the new code persisted.
func (s *Service) GenerateOTP(ctx context.Context, req GenerateOTPRequest) (ActionResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return ActionResponse{}, err
	}
	participant, err := s.loginableParticipant(ctx, email)
	if err != nil {
		return ActionResponse{}, err
	}
	if err := s.enforceRateLimit(ctx, "otp_issue:"+email, s.cfg.OTPIssueLimit, s.cfg.OTPIssueWindow); err != nil {
		return ActionResponse{}, err
	}

	code, err := randomOTP()
	if err != nil {
		return ActionResponse{}, fmt.Errorf("draw otp: %w", err)
	}
	now := s.nowFn()
	if _, err := s.codes.ReplaceForEmail(ctx, email, hashToken(code), now, now.Add(s.cfg.OTPTTL)); err != nil {
		return ActionResponse{}, fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.Send(ctx, ports.MailMessage{
		To:      email,
		Subject: fmt.Sprintf("Your %s login code", s.cfg.ContestName),
		Body: fmt.Sprintf(
			"Hello %s,\n\nYour one-time login code is %s.\nIt expires in %d minutes. If you did not request it, ignore this email.\n",
			participant.Name, code, int(s.cfg.OTPTTL.Minutes()),
		),
	}); err != nil {
		logError(ctx, "generate_otp", "otp email delivery failed", err, "participant_id", participant.ID)
		return ActionResponse{}, fmt.Errorf("%w OTP", domain.ErrDeliveryFailed)
	}
	return ActionResponse{Success: true, Message: "OTP sent to your email"}, nil
}

// VerifyOTP consumes the latest outstanding code and opens a participant session.
func (s *Service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (VerifyOTPResponse, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return VerifyOTPResponse{}, err
	}
	if err := domain.ValidateOTPFormat(req.OTP); err != nil {
		return VerifyOTPResponse{}, err
	}

	lockKey := "otp_verify:" + email
	now := s.nowFn()
	if state, err := s.lockouts.Get(ctx, lockKey); err == nil && state.LockedUntil != nil && state.LockedUntil.After(now) {
		return VerifyOTPResponse{}, domain.ErrRateLimited
	}

	if _, err := s.codes.ConsumeLatest(ctx, email, hashToken(req.OTP), now); err != nil {
		if errors.Is(err, domain.ErrInvalidOTP) {
			if _, lockErr := s.lockouts.RecordFailure(ctx, lockKey, now, s.cfg.OTPVerifyLimit, s.cfg.OTPVerifyWindow); lockErr != nil {
				logWarn(ctx, "verify_otp", "otp failure counter unavailable", lockErr)
			}
		}
		return VerifyOTPResponse{}, err
	}
	_ = s.lockouts.Clear(ctx, lockKey)

	// Login may have been disabled between issue and verify.
	participant, err := s.loginableParticipant(ctx, email)
	if err != nil {
		return VerifyOTPResponse{}, err
	}

	issued, err := s.establishSession(ctx, sessionSubject{
		id:    participant.ID,
		kind:  domain.SubjectParticipant,
		email: participant.Email,
		role:  string(domain.SubjectParticipant),
	}, req.IPAddress, req.UserAgent)
	if err != nil {
		return VerifyOTPResponse{}, err
	}
	return VerifyOTPResponse{
		Success:       true,
		Message:       "OTP verified",
		ParticipantID: participant.ID,
		Token:         issued.token,
		SessionID:     issued.sessionID,
		ExpiresIn:     issued.expiresIn,
	}, nil
}

// PurgeExpiredCodes deletes codes past their expiry. It backs the worker reaper.
func (s *Service) PurgeExpiredCodes(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	return s.codes.DeleteExpired(ctx, s.nowFn(), batchSize)
}

func (s *Service) loginableParticipant(ctx context.Context, email string) (domain.Participant, error) {
	participant, err := s.participants.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Participant{}, domain.ErrParticipantUnavailable
		}
		return domain.Participant{}, err
	}
	if !participant.LoginEnabled {
		return domain.Participant{}, domain.ErrParticipantUnavailable
	}
	return participant, nil
}

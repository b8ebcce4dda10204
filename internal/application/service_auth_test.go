package application_test

import (
	"context"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/nischalstumbeti/contestzen/internal/application"
	"github.com/nischalstumbeti/contestzen/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPLoginScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.register(t, "user@example.com")

	res, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: "user@example.com"})
	require.NoError(t, err)
	assert.True(t, res.Success)

	code := f.mailedOTP(t, "user@example.com")
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: "user@example.com", OTP: wrong})
	require.ErrorIs(t, err, domain.ErrInvalidOTP)
	assert.Equal(t, "invalid or expired OTP", err.Error())

	f.advance(9 * time.Minute)
	ok, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: "user@example.com", OTP: code})
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Equal(t, p.ID, ok.ParticipantID)
	assert.NotEmpty(t, ok.Token)

	_, err = f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: "user@example.com", OTP: code})
	require.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestGenerateOTPLeavesExactlyOneValidCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	var codes []string
	for i := 0; i < 3; i++ {
		_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
		require.NoError(t, err)
		codes = append(codes, f.mailedOTP(t, p.Email))
		assert.Equal(t, 1, f.store.ValidCodes(p.Email, f.now()))
		f.advance(time.Second)
	}

	// Only the newest code verifies.
	if codes[0] != codes[2] {
		_, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: codes[0]})
		require.ErrorIs(t, err, domain.ErrInvalidOTP)
	}
	_, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: codes[2]})
	require.NoError(t, err)
}

func TestExpiredOTPFailsVerification(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.NoError(t, err)
	code := f.mailedOTP(t, p.Email)

	f.advance(10*time.Minute + time.Nanosecond)
	_, err = f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: code})
	require.ErrorIs(t, err, domain.ErrInvalidOTP)
}

func TestGenerateOTPRejectsUnknownAndDisabledParticipants(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.UpdateParticipant(ctx, p.ID, p.ID, application.ParticipantPatch{LoginEnabled: ptr(false)})
	require.NoError(t, err)

	tests := []struct {
		name  string
		email string
		err   error
	}{
		{name: "unknown", email: "nobody@example.com", err: domain.ErrParticipantUnavailable},
		{name: "login disabled", email: p.Email, err: domain.ErrParticipantUnavailable},
		{name: "malformed", email: "not-an-email", err: domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: tc.email})
			require.ErrorIs(t, err, tc.err)
		})
	}
	assert.Empty(t, f.mailer.Sent)
}

func TestVerifyOTPRechecksLoginEnabled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.NoError(t, err)
	code := f.mailedOTP(t, p.Email)

	_, err = f.service.UpdateParticipant(ctx, p.ID, p.ID, application.ParticipantPatch{LoginEnabled: ptr(false)})
	require.NoError(t, err)

	_, err = f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: code})
	require.ErrorIs(t, err, domain.ErrParticipantUnavailable)
}

func TestOTPDeliveryFailureKeepsPersistedCode(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)
	f.mailer.Fail = true

	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.ErrorIs(t, err, domain.ErrDeliveryFailed)
	assert.Equal(t, "failed to send OTP", err.Error())
	assert.Equal(t, 1, f.store.ValidCodes(p.Email, f.now()))
}

func TestOTPIssueIsRateLimited(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	for i := 0; i < 5; i++ {
		_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
		require.NoError(t, err, "issue %d", i+1)
	}
	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestOTPVerifyLocksAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.NoError(t, err)
	code := f.mailedOTP(t, p.Email)
	wrong := "123456"
	if code == wrong {
		wrong = "654321"
	}
	for i := 0; i < 5; i++ {
		_, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: wrong})
		require.ErrorIs(t, err, domain.ErrInvalidOTP)
	}
	_, err = f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: code})
	require.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestMagicLinkLoginLinksIdentityAndIsSingleUse(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.RequestMagicLink(ctx, application.MagicLinkRequest{Email: p.Email, RedirectURI: "https://contest.test/portal"})
	require.NoError(t, err)
	token := f.mailedMagicToken(t, p.Email)

	redirect, err := f.service.CompleteMagicLink(ctx, application.MagicLinkCallback{Token: token})
	require.NoError(t, err)

	u, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.Equal(t, "contest.test", u.Host)
	assert.Equal(t, "/portal", u.Path)
	fragment, err := url.ParseQuery(u.Fragment)
	require.NoError(t, err)
	assert.Equal(t, p.ID.String(), fragment.Get("participant_id"))
	principal, err := f.service.Authenticate(ctx, fragment.Get("token"))
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectParticipant, principal.SubjectKind)

	linked, err := f.store.Participants().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, linked.AuthUserID)

	_, err = f.service.CompleteMagicLink(ctx, application.MagicLinkCallback{Token: token})
	require.ErrorIs(t, err, domain.ErrInvalidMagicKey)
}

func TestMagicLinkLeavesDisabledParticipantUnlinked(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.RequestMagicLink(ctx, application.MagicLinkRequest{Email: p.Email, RedirectURI: "https://contest.test/portal"})
	require.NoError(t, err)
	token := f.mailedMagicToken(t, p.Email)

	_, err = f.service.UpdateParticipant(ctx, p.ID, p.ID, application.ParticipantPatch{LoginEnabled: ptr(false)})
	require.NoError(t, err)

	_, err = f.service.CompleteMagicLink(ctx, application.MagicLinkCallback{Token: token})
	require.ErrorIs(t, err, domain.ErrParticipantUnavailable)

	stored, err := f.store.Participants().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AuthUserID)
}

func TestMagicLinkRejectsForeignRedirect(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.randomParticipant(t)

	_, err := f.service.RequestMagicLink(context.Background(), application.MagicLinkRequest{Email: p.Email, RedirectURI: "https://evil.test/steal"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.mailer.Sent)
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.NoError(t, err)
	res, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: f.mailedOTP(t, p.Email)})
	require.NoError(t, err)

	principal, err := f.service.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, principal))

	_, err = f.service.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestRefreshTokenExtendsWithinSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)
	principal := f.login(t, p.Email)

	f.advance(50 * time.Minute)
	res, err := f.service.RefreshToken(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, principal.SessionID, res.SessionID)
	assert.Equal(t, int64(time.Hour.Seconds()), res.ExpiresIn)

	claims, err := f.signer.ParseAndValidate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, f.now().Add(time.Hour), claims.ExpiresAt)
	refreshed, err := f.service.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, principal.SessionID, refreshed.SessionID)

	// 30 minutes remain before the 24h session expiry.
	f.advance(22*time.Hour + 40*time.Minute)
	res, err = f.service.RefreshToken(ctx, principal)
	require.NoError(t, err)
	assert.Equal(t, int64((30 * time.Minute).Seconds()), res.ExpiresIn)

	f.advance(time.Hour)
	_, err = f.service.RefreshToken(ctx, principal)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestRefreshTokenRejectsRevokedSession(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)
	principal := f.login(t, p.Email)
	require.NoError(t, f.service.Logout(ctx, principal))

	_, err := f.service.RefreshToken(ctx, principal)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestDisablingLoginEndsLiveSessions(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	p := f.randomParticipant(t)

	_, err := f.service.GenerateOTP(ctx, application.GenerateOTPRequest{Email: p.Email})
	require.NoError(t, err)
	res, err := f.service.VerifyOTP(ctx, application.VerifyOTPRequest{Email: p.Email, OTP: f.mailedOTP(t, p.Email)})
	require.NoError(t, err)

	_, err = f.service.UpdateParticipant(ctx, p.ID, p.ID, application.ParticipantPatch{LoginEnabled: ptr(false)})
	require.NoError(t, err)
	_, err = f.service.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func ptr[T any](v T) *T { return &v }
